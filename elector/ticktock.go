// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package elector

import (
	"github.com/pkg/errors"

	"github.com/everx-labs/ton-labs-contracts/elector/election"
	"github.com/everx-labs/ton-labs-contracts/elector/message"
	"github.com/everx-labs/ton-labs-contracts/elector/slashing"
	"github.com/everx-labs/ton-labs-contracts/ton"
)

// Tick advances every workchain to the clock's current time: it activates
// installed sets and slashed sets that came into force, conducts or abandons
// due elections, releases frozen stakes and announces at most one new
// election. The masterchain goes first, then workchains in ascending order.
func (e *Elector) Tick() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	announced := false
	for _, wc := range e.order {
		c := e.chains[wc]
		if err := e.tickChain(c, now); err != nil {
			return errors.Wrapf(err, "wc %v", wc)
		}
		if announced || !c.announceDue(now) {
			continue
		}
		el, err := c.registry.Announce(now, c.nextBoundary)
		if err != nil {
			return errors.Wrapf(err, "wc %v", wc)
		}
		announced = true
		c.cascaded = false
		metricElections().AddWithLabel(1, map[string]string{"wc": wc.String(), "event": "announced"})
		if wc.IsMasterchain() {
			for _, other := range e.order {
				if other != wc {
					e.chains[other].cascaded = true
				}
			}
		}
		logger.Debug("announced", "wc", wc, "id", el.ID(), "cascaded_from_masterchain", !wc.IsMasterchain())
	}
	return e.checkConservation()
}

func (c *chain) announceDue(now uint32) bool {
	if c.registry.Phase() != election.Closed {
		return false
	}
	return c.cascaded || uint64(now)+uint64(c.cfg.ElectBeginBefore) >= uint64(c.nextBoundary)
}

func (e *Elector) tickChain(c *chain, now uint32) error {
	if pe := c.scheduler.Activate(now); pe != nil {
		c.reports.Reset(pe.ElectID)
		c.slashed = nil
	}
	for _, p := range c.reports.Activate(now) {
		c.slashed = p
	}

	if c.registry.Due(now) {
		if err := e.conduct(c, now); err != nil {
			return err
		}
	}

	for _, pe := range c.scheduler.Due(now) {
		rel, err := c.scheduler.Unfreeze(pe, e.banned.Has)
		if err != nil {
			return err
		}
		for _, p := range rel.Payouts {
			if err := c.ledger.Credit(p.To, p.Amount); err != nil {
				return err
			}
		}
		if err := c.ledger.AddOwnFunds(rel.OwnFunds); err != nil {
			return err
		}
	}
	metricFrozen().SetWithLabel(int64(c.scheduler.Held()), map[string]string{"wc": c.wc.String()})
	return nil
}

func (e *Elector) conduct(c *chain, now uint32) error {
	out, err := c.registry.Conduct(now, e.banned.Has)
	if err != nil {
		return err
	}
	for _, r := range out.Refunds {
		if err := c.ledger.Credit(r.To, r.Amount); err != nil {
			return err
		}
	}
	labels := map[string]string{"wc": c.wc.String()}
	switch {
	case out.Abandoned:
		labels["event"] = "abandoned"
	case out.Failed:
		labels["event"] = "failed"
	default:
		labels["event"] = "conducted"
		p := out.Proposal
		e.outbox = append(e.outbox, &message.SetNextValidatorSet{
			Workchain:   c.wc,
			ElectID:     c.registry.Current().ID(),
			Since:       p.Since,
			Until:       p.Until,
			Validators:  p.Elected,
			TotalWeight: p.TotalWeight,
		})
	}
	metricElections().AddWithLabel(1, labels)
	return nil
}

// ConfirmValidatorSet installs the set proposed for election electID. The
// elected stakes are frozen and the next announcement moves to the end of
// the new set's term.
func (e *Elector) ConfirmValidatorSet(wc ton.WorkchainID, electID uint32) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.chain(wc)
	if err != nil {
		return err
	}
	el, err := c.registry.Confirm(electID)
	if err != nil {
		if errors.Is(err, election.ErrNoProposal) || errors.Is(err, election.ErrWrongID) {
			return errors.Wrap(ErrProtocolViolation, err.Error())
		}
		return err
	}
	pe, err := c.scheduler.Freeze(el, c.cfg.StakeHeld)
	if err != nil {
		return err
	}
	c.nextBoundary = pe.Until
	metricElections().AddWithLabel(1, map[string]string{"wc": wc.String(), "event": "installed"})
	return e.checkConservation()
}

// ConfirmSlashedSet accepts the oldest slashed set of wc awaiting
// confirmation. It comes into force after the activation delay.
func (e *Elector) ConfirmSlashedSet(wc ton.WorkchainID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.chain(wc)
	if err != nil {
		return err
	}
	p, err := c.reports.Confirm(e.clock.Now(), c.cfg.SlashActivationDelay)
	if err != nil {
		if errors.Is(err, slashing.ErrNoProposal) {
			return errors.Wrap(ErrProtocolViolation, err.Error())
		}
		return err
	}
	logger.Debug("slashed set confirmed", "wc", wc, "id", p.ElectID, "activate_at", p.ActivateAt)
	return nil
}

// UpdateValidatorSetUntil moves the expiry of the set in force on wc. An
// expiry in the past makes the next tick announce a new election.
func (e *Elector) UpdateValidatorSetUntil(wc ton.WorkchainID, until uint32) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.chain(wc)
	if err != nil {
		return err
	}
	c.nextBoundary = until
	logger.Debug("validator set expiry updated", "wc", wc, "until", until)
	return nil
}
