// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package freeze holds the stakes of installed elections until they may be
// released and shares bonuses among them.
package freeze

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/everx-labs/ton-labs-contracts/elector/election"
	"github.com/everx-labs/ton-labs-contracts/elector/vset"
	"github.com/everx-labs/ton-labs-contracts/log"
	"github.com/everx-labs/ton-labs-contracts/ton"
)

var logger = log.WithContext("pkg", "freeze")

// Payout is an amount released to an address.
type Payout struct {
	To     ton.Address
	PubKey ton.PubKey
	Amount uint64
}

// Release is the result of unfreezing one past election.
type Release struct {
	ElectID   uint32
	Payouts   []Payout
	OwnFunds  uint64 // undistributable remainder
	Forfeited uint64 // stake of banned validators shared among the rest
}

// Scheduler keeps the past elections of one workchain.
type Scheduler struct {
	wc     ton.WorkchainID
	past   map[uint32]*PastElection
	active *PastElection
}

// NewScheduler creates an empty scheduler.
func NewScheduler(wc ton.WorkchainID) *Scheduler {
	return &Scheduler{wc: wc, past: make(map[uint32]*PastElection)}
}

// Freeze records an installed election. Elected weights stay frozen until
// elect_close + stakeHeld.
func (s *Scheduler) Freeze(e *election.Election, stakeHeld uint32) (*PastElection, error) {
	if e.Proposal == nil || !e.Finished {
		return nil, errors.New("election not installed")
	}
	if _, ok := s.past[e.ID()]; ok {
		return nil, errors.Errorf("election %d already frozen", e.ID())
	}
	pe := &PastElection{
		ElectID:     e.ID(),
		ElectClose:  e.ElectClose,
		UnfreezeAt:  e.ElectClose + stakeHeld,
		Since:       e.Proposal.Since,
		Until:       e.Proposal.Until,
		TotalWeight: e.Proposal.TotalWeight,
		Validators:  append([]vset.Entry(nil), e.Proposal.Elected...),
		Frozen:      make(map[ton.PubKey]*Frozen, len(e.Proposal.Elected)),
		Complaints:  make(map[ton.Bytes32]*Complaint),
	}
	for _, v := range e.Proposal.Elected {
		pe.Frozen[v.PubKey] = &Frozen{PubKey: v.PubKey, Source: v.Source, Weight: v.Weight}
	}
	s.past[pe.ElectID] = pe
	logger.Debug("stakes frozen", "wc", s.wc, "id", pe.ElectID, "weight", pe.TotalWeight, "unfreeze_at", pe.UnfreezeAt)
	return pe, nil
}

// Get returns a past election by id.
func (s *Scheduler) Get(id uint32) (*PastElection, bool) {
	pe, ok := s.past[id]
	return pe, ok
}

// All returns past elections ordered by id.
func (s *Scheduler) All() []*PastElection {
	out := make([]*PastElection, 0, len(s.past))
	for _, pe := range s.past {
		out = append(out, pe)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ElectID < out[j].ElectID })
	return out
}

// Active returns the past election whose set is currently in force.
func (s *Scheduler) Active() *PastElection { return s.active }

// Activate switches to the newest set whose utime_since has been reached.
// It returns the newly activated election, or nil when nothing changed.
func (s *Scheduler) Activate(now uint32) *PastElection {
	var next *PastElection
	for _, pe := range s.past {
		if pe.Since > now {
			continue
		}
		if next == nil || pe.ElectID > next.ElectID {
			next = pe
		}
	}
	if next == nil || next == s.active {
		return nil
	}
	if s.active != nil && next.ElectID < s.active.ElectID {
		return nil
	}
	s.active = next
	logger.Info("validator set active", "wc", s.wc, "id", next.ElectID, "until", next.Until)
	return next
}

// Grant adds amount to the bonus pool of the active set. It reports false
// when no set is active.
func (s *Scheduler) Grant(amount uint64) bool {
	if s.active == nil || s.active.Unfrozen {
		return false
	}
	s.active.Bonuses += amount
	return true
}

// Due returns elections that may be unfrozen at now, ordered by id.
func (s *Scheduler) Due(now uint32) []*PastElection {
	var out []*PastElection
	for _, pe := range s.All() {
		if !pe.Unfrozen && now >= pe.UnfreezeAt {
			out = append(out, pe)
		}
	}
	return out
}

// Unfreeze releases pe. Each validator not banned receives its weight plus
// an even share of the bonuses and of the forfeited stake of banned
// validators. The indivisible remainder goes to own funds.
func (s *Scheduler) Unfreeze(pe *PastElection, banned func(ton.PubKey) bool) (*Release, error) {
	if pe.Unfrozen {
		return nil, errors.Errorf("election %d already unfrozen", pe.ElectID)
	}
	rel := &Release{ElectID: pe.ElectID}

	recipients := make([]*Frozen, 0, len(pe.Frozen))
	for _, v := range pe.Validators {
		f := pe.Frozen[v.PubKey]
		if f.Banned || (banned != nil && banned(f.PubKey)) {
			f.Banned = true
			rel.Forfeited += f.Weight
			continue
		}
		recipients = append(recipients, f)
	}

	pool := pe.Bonuses + rel.Forfeited
	var share uint64
	if n := uint64(len(recipients)); n > 0 {
		share = pool / n
		rel.OwnFunds = pool - share*n
	} else {
		rel.OwnFunds = pool
	}
	for _, f := range recipients {
		if amount := f.Weight + share; amount > 0 {
			rel.Payouts = append(rel.Payouts, Payout{To: f.Source, PubKey: f.PubKey, Amount: amount})
		}
	}
	for _, f := range pe.Frozen {
		f.Weight = 0
	}
	pe.Bonuses = 0
	pe.Unfrozen = true
	logger.Info("stakes unfrozen", "wc", s.wc, "id", pe.ElectID, "payouts", len(rel.Payouts), "forfeited", rel.Forfeited)
	return rel, nil
}

// Held sums stakes and bonuses of elections not yet unfrozen.
func (s *Scheduler) Held() (sum uint64) {
	for _, pe := range s.past {
		sum += pe.Held()
	}
	return
}

// IsFrozen reports whether addr still has stake frozen in any election.
func (s *Scheduler) IsFrozen(addr ton.Address) bool {
	for _, pe := range s.past {
		if pe.Unfrozen {
			continue
		}
		for _, f := range pe.Frozen {
			if f.Source == addr && f.Weight > 0 {
				return true
			}
		}
	}
	return false
}
