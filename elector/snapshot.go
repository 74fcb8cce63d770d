// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package elector

import (
	"github.com/everx-labs/ton-labs-contracts/elector/correlator"
	"github.com/everx-labs/ton-labs-contracts/elector/ledger"
	"github.com/everx-labs/ton-labs-contracts/elector/slashing"
	"github.com/everx-labs/ton-labs-contracts/ton"
)

// Snapshot is a read-only summary of the engine state.
type Snapshot struct {
	Now      uint32
	Chains   []ChainSnapshot
	Banned   []slashing.BanRecord
	Answered int
	Pending  []correlator.Pending
}

type ChainSnapshot struct {
	Workchain    ton.WorkchainID
	Phase        string
	ElectID      uint32
	ElectClose   uint32
	Members      int
	TotalStake   uint64
	Failed       bool
	NextBoundary uint32
	Cascaded     bool
	ActiveID     uint32
	Past         []PastSnapshot
	Balance      uint64
	OwnFunds     uint64
	Held         uint64
	Credits      []ledger.Credit
}

type PastSnapshot struct {
	ElectID     uint32
	Since       uint32
	Until       uint32
	UnfreezeAt  uint32
	TotalWeight uint64
	Validators  int
	Bonuses     uint64
	Complaints  int
	Unfrozen    bool
}

// Snapshot captures the state of every workchain.
func (e *Elector) Snapshot() (*Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	answered, err := e.corr.Count()
	if err != nil {
		return nil, err
	}
	s := &Snapshot{
		Now:      e.clock.Now(),
		Banned:   e.banned.List(),
		Answered: answered,
		Pending:  e.corr.Pending(),
	}
	for _, wc := range e.order {
		c := e.chains[wc]
		cs := ChainSnapshot{
			Workchain:    wc,
			Phase:        c.registry.Phase().String(),
			NextBoundary: c.nextBoundary,
			Cascaded:     c.cascaded,
			Balance:      c.ledger.Balance(),
			OwnFunds:     c.ledger.OwnFunds(),
			Held:         c.held(),
			Credits:      c.ledger.AllCredits(),
		}
		if el := c.registry.Current(); el != nil {
			cs.ElectID = el.ID()
			cs.ElectClose = el.ElectClose
			cs.Members = len(el.Members)
			cs.TotalStake = el.TotalStake
			cs.Failed = el.Failed
		}
		if pe := c.scheduler.Active(); pe != nil {
			cs.ActiveID = pe.ElectID
		}
		for _, pe := range c.scheduler.All() {
			cs.Past = append(cs.Past, PastSnapshot{
				ElectID:     pe.ElectID,
				Since:       pe.Since,
				Until:       pe.Until,
				UnfreezeAt:  pe.UnfreezeAt,
				TotalWeight: pe.TotalWeight,
				Validators:  len(pe.Validators),
				Bonuses:     pe.Bonuses,
				Complaints:  len(pe.Complaints),
				Unfrozen:    pe.Unfrozen,
			})
		}
		s.Chains = append(s.Chains, cs)
	}
	return s, nil
}
