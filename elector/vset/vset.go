// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package vset selects and weights the next validator set from candidate stakes.
package vset

import (
	"slices"
	"sort"

	"github.com/everx-labs/ton-labs-contracts/elector/params"
	"github.com/everx-labs/ton-labs-contracts/elector/stakes"
	"github.com/everx-labs/ton-labs-contracts/ton"
)

// Candidate is a stake submitted to an election.
type Candidate struct {
	PubKey    ton.PubKey
	ADNL      ton.Bytes32
	Amount    uint64
	MaxFactor uint32
	Source    ton.Address
}

// Entry is an elected validator.
type Entry struct {
	PubKey ton.PubKey
	ADNL   ton.Bytes32
	Source ton.Address
	Stake  uint64 // submitted amount
	Weight uint64 // clipped amount that stays frozen
	Main   bool
}

// Excess is the part of the stake returned immediately.
func (e *Entry) Excess() uint64 { return e.Stake - e.Weight }

// Limits bounds a computation.
type Limits struct {
	MaxValidators  int
	MainValidators int
	MinStake       uint64
	ClipBase       params.ClipBasePolicy
}

// Result of a computation. Unelected candidates are fully refundable.
type Result struct {
	Elected     []Entry
	Unelected   []Candidate
	TotalWeight uint64
	Base        uint64
}

// Excess sums the clipped excess of all elected entries.
func (r *Result) Excess() (sum uint64) {
	for i := range r.Elected {
		sum += r.Elected[i].Excess()
	}
	return
}

// Compute clips each candidate's weight, orders candidates by weight
// descending with ties broken by ascending pubkey, keeps the first
// MaxValidators and marks the first MainValidators as main.
//
// The result depends only on the candidate set, not on its order.
func Compute(cands []Candidate, lim Limits) *Result {
	clipBase := lim.ClipBase
	if clipBase == nil {
		clipBase = params.ClipMinStake
	}
	maxN := min(lim.MaxValidators, len(cands))

	// the clip base may depend on who gets elected; use the top stakes by raw amount
	byAmount := slices.Clone(cands)
	sortCandidates(byAmount, func(c *Candidate) uint64 { return c.Amount })
	top := make([]uint64, 0, maxN)
	for i := range maxN {
		top = append(top, byAmount[i].Amount)
	}
	base := clipBase(lim.MinStake, top)

	weighted := make([]Entry, len(cands))
	for i, c := range cands {
		ws := stakes.NewWeightedStake(c.Amount, c.MaxFactor, base)
		weighted[i] = Entry{
			PubKey: c.PubKey,
			ADNL:   c.ADNL,
			Source: c.Source,
			Stake:  ws.Amount(),
			Weight: ws.Weight(),
		}
	}
	sort.Slice(weighted, func(i, j int) bool {
		if weighted[i].Weight != weighted[j].Weight {
			return weighted[i].Weight > weighted[j].Weight
		}
		return weighted[i].PubKey.Compare(weighted[j].PubKey) < 0
	})

	res := &Result{Base: base}
	res.Elected = weighted[:maxN:maxN]
	for i := range res.Elected {
		res.Elected[i].Main = i < lim.MainValidators
		res.TotalWeight += res.Elected[i].Weight
	}

	elected := make(map[ton.PubKey]struct{}, maxN)
	for _, e := range res.Elected {
		elected[e.PubKey] = struct{}{}
	}
	for _, c := range cands {
		if _, ok := elected[c.PubKey]; !ok {
			res.Unelected = append(res.Unelected, c)
		}
	}
	sortCandidates(res.Unelected, func(c *Candidate) uint64 { return c.Amount })
	return res
}

func sortCandidates(cs []Candidate, key func(*Candidate) uint64) {
	sort.Slice(cs, func(i, j int) bool {
		ki, kj := key(&cs[i]), key(&cs[j])
		if ki != kj {
			return ki > kj
		}
		return cs[i].PubKey.Compare(cs[j].PubKey) < 0
	})
}

// Without returns a copy of set minus the given pubkeys, keeping order and
// re-marking main validators.
func Without(set []Entry, excluded map[ton.PubKey]bool, mainValidators int) []Entry {
	out := make([]Entry, 0, len(set))
	for _, e := range set {
		if !excluded[e.PubKey] {
			e.Main = len(out) < mainValidators
			out = append(out, e)
		}
	}
	return out
}
