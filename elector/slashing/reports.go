// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package slashing accumulates live reports and paid complaints against
// validators and decides bans and fines by two-thirds weighted vote.
package slashing

import (
	"github.com/pkg/errors"

	"github.com/everx-labs/ton-labs-contracts/elector/exitcode"
	"github.com/everx-labs/ton-labs-contracts/elector/freeze"
	"github.com/everx-labs/ton-labs-contracts/elector/stakes"
	"github.com/everx-labs/ton-labs-contracts/elector/vset"
	"github.com/everx-labs/ton-labs-contracts/log"
	"github.com/everx-labs/ton-labs-contracts/ton"
)

var logger = log.WithContext("pkg", "slashing")

// ErrNoProposal is returned when a slashed set is confirmed but none was proposed.
var ErrNoProposal = errors.New("no slashed set awaiting confirmation")

type reportKey struct {
	Victim ton.PubKey
	Metric uint8
}

// Report accumulates the weight of validators reporting the same victim and metric.
type Report struct {
	Victim    ton.PubKey
	Metric    uint8
	Voters    map[ton.PubKey]struct{}
	Weight    uint64
	CreatedAt uint32
}

// SlashProposal is the active set minus a banned validator.
type SlashProposal struct {
	ElectID    uint32
	Victim     ton.PubKey
	Validators []vset.Entry
	ActivateAt uint32
}

// ReportRequest is a verified report.
type ReportRequest struct {
	Reporter ton.PubKey
	Victim   ton.PubKey
	Metric   uint8
	Now      uint32
}

// Reports tracks live reports against the active set of one workchain.
type Reports struct {
	wc        ton.WorkchainID
	electID   uint32
	reports   map[reportKey]*Report
	pending   []*SlashProposal
	scheduled []*SlashProposal
}

func NewReports(wc ton.WorkchainID) *Reports {
	return &Reports{wc: wc, reports: make(map[reportKey]*Report)}
}

// Reset drops accumulated reports when another set becomes active.
func (r *Reports) Reset(electID uint32) {
	r.electID = electID
	r.reports = make(map[reportKey]*Report)
}

// Get returns the accumulated report for victim and metric.
func (r *Reports) Get(victim ton.PubKey, metric uint8) (*Report, bool) {
	rep, ok := r.reports[reportKey{victim, metric}]
	return rep, ok
}

// ActiveWeight sums the weights of non-banned validators of the set.
func ActiveWeight(active *freeze.PastElection, banned *Banned) (total uint64, count int) {
	for _, v := range active.Validators {
		if !banned.Has(v.PubKey) {
			total += v.Weight
			count++
		}
	}
	return
}

// Submit records a report. When the reporters reach two thirds of the active
// weight the victim is banned and a slashed set proposal is returned. The ban
// is refused with BanRejected when it would leave fewer than minValidators.
// Repeated reports by the same reporter are accepted but not counted again.
// verify is consulted after the membership checks.
func (r *Reports) Submit(
	active *freeze.PastElection,
	banned *Banned,
	req *ReportRequest,
	minValidators uint32,
	mainValidators uint32,
	verify func() bool,
) (*SlashProposal, error) {
	if active == nil {
		return nil, exitcode.New(exitcode.NoActiveSet)
	}
	reporterWeight := active.Weight(req.Reporter)
	switch {
	case reporterWeight == 0:
		return nil, exitcode.New(exitcode.ReporterNotValidator)
	case banned.Has(req.Reporter):
		return nil, exitcode.New(exitcode.ReporterBanned)
	case req.Reporter == req.Victim:
		return nil, exitcode.New(exitcode.ReportSelf)
	case active.Weight(req.Victim) == 0:
		return nil, exitcode.New(exitcode.VictimNotValidator)
	case banned.Has(req.Victim):
		return nil, exitcode.Newf(exitcode.BanRejected, "already banned")
	}
	if verify != nil && !verify() {
		return nil, exitcode.New(exitcode.BadSignature)
	}

	key := reportKey{req.Victim, req.Metric}
	rep := r.reports[key]
	if rep == nil {
		rep = &Report{Victim: req.Victim, Metric: req.Metric, Voters: make(map[ton.PubKey]struct{}), CreatedAt: req.Now}
	}
	if _, voted := rep.Voters[req.Reporter]; voted {
		return nil, nil
	}

	total, count := ActiveWeight(active, banned)
	weight := rep.Weight + reporterWeight
	if !stakes.Supermajority(weight, total) {
		rep.Voters[req.Reporter] = struct{}{}
		rep.Weight = weight
		r.reports[key] = rep
		logger.Debug("report recorded", "wc", r.wc, "victim", req.Victim.AbbrevString(), "weight", weight, "total", total)
		return nil, nil
	}

	if uint32(count-1) < minValidators {
		return nil, exitcode.Newf(exitcode.BanRejected, "%d validators would remain, %d required", count-1, minValidators)
	}

	rep.Voters[req.Reporter] = struct{}{}
	rep.Weight = weight
	r.reports[key] = rep
	banned.add(BanRecord{PubKey: req.Victim, Workchain: r.wc, ElectID: active.ElectID, Metric: req.Metric, At: req.Now})

	p := &SlashProposal{
		ElectID:    active.ElectID,
		Victim:     req.Victim,
		Validators: vset.Without(active.Validators, banned.Map(), int(mainValidators)),
	}
	r.pending = append(r.pending, p)
	logger.Info("validator banned", "wc", r.wc, "victim", req.Victim.AbbrevString(), "metric", req.Metric, "weight", weight, "total", total)
	return p, nil
}

// Pending returns proposals awaiting confirmation.
func (r *Reports) Pending() []*SlashProposal { return r.pending }

// Confirm accepts the oldest pending proposal; it becomes effective after delay.
func (r *Reports) Confirm(now, delay uint32) (*SlashProposal, error) {
	if len(r.pending) == 0 {
		return nil, ErrNoProposal
	}
	p := r.pending[0]
	r.pending = r.pending[1:]
	p.ActivateAt = now + delay
	r.scheduled = append(r.scheduled, p)
	return p, nil
}

// Activate returns confirmed proposals whose delay has elapsed.
func (r *Reports) Activate(now uint32) []*SlashProposal {
	var due []*SlashProposal
	rest := r.scheduled[:0]
	for _, p := range r.scheduled {
		if now >= p.ActivateAt {
			due = append(due, p)
		} else {
			rest = append(rest, p)
		}
	}
	r.scheduled = rest
	for _, p := range due {
		logger.Info("slashed set active", "wc", r.wc, "id", p.ElectID, "validators", len(p.Validators))
	}
	return due
}
