// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package ledger tracks the funds one workchain's elector holds. It only knows
// the balance, the credits owed to addresses and the elector's own funds.
// Stakes held by elections and frozen entries are reported by their owners
// when conservation is checked.
package ledger

import (
	"sort"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"

	"github.com/everx-labs/ton-labs-contracts/log"
	"github.com/everx-labs/ton-labs-contracts/ton"
)

var logger = log.WithContext("pkg", "ledger")

// ErrOverflow is returned when an operation would wrap a counter.
var ErrOverflow = errors.New("ledger overflow")

// ErrInsufficient is returned when an outflow exceeds what is held.
var ErrInsufficient = errors.New("insufficient funds")

// Ledger manages the funds of one workchain.
type Ledger struct {
	wc       ton.WorkchainID
	balance  uint64
	credits  map[ton.Address]uint64
	owed     uint64
	ownFunds uint64
}

// New creates an empty ledger.
func New(wc ton.WorkchainID) *Ledger {
	return &Ledger{
		wc:      wc,
		credits: make(map[ton.Address]uint64),
	}
}

// Balance returns the funds physically held.
func (l *Ledger) Balance() uint64 { return l.balance }

// OwnFunds returns the funds that belong to no one but the elector.
func (l *Ledger) OwnFunds() uint64 { return l.ownFunds }

// TotalCredits returns the sum of all pending refunds.
func (l *Ledger) TotalCredits() uint64 { return l.owed }

// Credits returns the pending refund of addr.
func (l *Ledger) Credits(addr ton.Address) uint64 { return l.credits[addr] }

// Receive records value arriving with an inbound message.
func (l *Ledger) Receive(amount uint64) error {
	sum, overflow := math.SafeAdd(l.balance, amount)
	if overflow {
		return ErrOverflow
	}
	l.balance = sum
	return nil
}

// Send records value leaving with an outbound message.
func (l *Ledger) Send(amount uint64) error {
	diff, underflow := math.SafeSub(l.balance, amount)
	if underflow {
		return errors.Wrapf(ErrInsufficient, "send %d, balance %d", amount, l.balance)
	}
	l.balance = diff
	return nil
}

// Credit adds amount to the refund owed to addr.
func (l *Ledger) Credit(addr ton.Address, amount uint64) error {
	if amount == 0 {
		return nil
	}
	owed, overflow := math.SafeAdd(l.owed, amount)
	if overflow {
		return ErrOverflow
	}
	l.owed = owed
	l.credits[addr] += amount
	logger.Trace("credited", "wc", l.wc, "addr", addr, "amount", amount)
	return nil
}

// TakeCredits removes and returns everything owed to addr.
func (l *Ledger) TakeCredits(addr ton.Address) uint64 {
	amount := l.credits[addr]
	delete(l.credits, addr)
	l.owed -= amount
	return amount
}

// AddOwnFunds moves amount into the elector's own funds.
func (l *Ledger) AddOwnFunds(amount uint64) error {
	sum, overflow := math.SafeAdd(l.ownFunds, amount)
	if overflow {
		return ErrOverflow
	}
	l.ownFunds = sum
	return nil
}

// Credit is one pending refund.
type Credit struct {
	Address ton.Address
	Amount  uint64
}

// AllCredits lists pending refunds ordered by address.
func (l *Ledger) AllCredits() []Credit {
	out := make([]Credit, 0, len(l.credits))
	for addr, amount := range l.credits {
		out = append(out, Credit{addr, amount})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Address, out[j].Address
		if a.Workchain != b.Workchain {
			return a.Workchain < b.Workchain
		}
		return a.Account.Compare(b.Account) < 0
	})
	return out
}

// Check verifies balance == held + credits + own funds, where held is the
// sum of stakes kept by elections and frozen entries including bonuses.
func (l *Ledger) Check(held uint64) error {
	sum, o1 := math.SafeAdd(held, l.owed)
	sum, o2 := math.SafeAdd(sum, l.ownFunds)
	if o1 || o2 {
		return errors.Wrapf(ErrOverflow, "wc %v conservation sum", l.wc)
	}
	if sum != l.balance {
		return errors.Errorf("wc %v: balance %d != held %d + credits %d + own %d",
			l.wc, l.balance, held, l.owed, l.ownFunds)
	}
	return nil
}
