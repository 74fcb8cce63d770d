// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package sim

import "sync/atomic"

// Clock is a virtual clock that only moves when told to.
type Clock struct {
	now atomic.Uint32
}

func NewClock(start uint32) *Clock {
	c := &Clock{}
	c.now.Store(start)
	return c
}

func (c *Clock) Now() uint32 { return c.now.Load() }

// Set moves the clock to t. The clock never goes backwards.
func (c *Clock) Set(t uint32) {
	for {
		cur := c.now.Load()
		if t <= cur || c.now.CompareAndSwap(cur, t) {
			return
		}
	}
}

// Advance moves the clock forward by d seconds and returns the new time.
func (c *Clock) Advance(d uint32) uint32 {
	return c.now.Add(d)
}
