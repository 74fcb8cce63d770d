// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package slashing

import (
	"sort"

	"github.com/everx-labs/ton-labs-contracts/ton"
)

// BanRecord describes why and when a validator was banned.
type BanRecord struct {
	PubKey    ton.PubKey
	Workchain ton.WorkchainID
	ElectID   uint32
	Metric    uint8
	At        uint32
}

// Banned is the global set of banned validators. Bans are permanent.
type Banned struct {
	set map[ton.PubKey]BanRecord
}

func NewBanned() *Banned {
	return &Banned{set: make(map[ton.PubKey]BanRecord)}
}

// Has reports whether pk is banned.
func (b *Banned) Has(pk ton.PubKey) bool {
	_, ok := b.set[pk]
	return ok
}

func (b *Banned) add(rec BanRecord) {
	b.set[rec.PubKey] = rec
}

// Len returns the number of banned validators.
func (b *Banned) Len() int { return len(b.set) }

// List returns all bans ordered by time then pubkey.
func (b *Banned) List() []BanRecord {
	out := make([]BanRecord, 0, len(b.set))
	for _, r := range b.set {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].At != out[j].At {
			return out[i].At < out[j].At
		}
		return out[i].PubKey.Compare(out[j].PubKey) < 0
	})
	return out
}

// Map returns the banned pubkeys as a set.
func (b *Banned) Map() map[ton.PubKey]bool {
	m := make(map[ton.PubKey]bool, len(b.set))
	for pk := range b.set {
		m[pk] = true
	}
	return m
}
