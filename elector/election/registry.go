// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package election runs the election state machine of one workchain:
// Closed -> Open -> ConductPending -> Closed(installed).
package election

import (
	"github.com/pkg/errors"

	"github.com/everx-labs/ton-labs-contracts/elector/exitcode"
	"github.com/everx-labs/ton-labs-contracts/elector/params"
	"github.com/everx-labs/ton-labs-contracts/elector/stakes"
	"github.com/everx-labs/ton-labs-contracts/elector/vset"
	"github.com/everx-labs/ton-labs-contracts/log"
	"github.com/everx-labs/ton-labs-contracts/ton"
)

var logger = log.WithContext("pkg", "election")

var (
	ErrNotOpen    = errors.New("no open election")
	ErrInProgress = errors.New("election in progress")
	ErrNotDue     = errors.New("election not due for conduct")
	ErrNoProposal = errors.New("no proposal awaiting confirmation")
	ErrWrongID    = errors.New("election id mismatch")
)

// Refund is stake to give back after conduct.
type Refund struct {
	To     ton.Address
	PubKey ton.PubKey
	Amount uint64
}

// StakeRequest is a candidacy to validate.
type StakeRequest struct {
	PubKey    ton.PubKey
	StakeAt   uint32
	MaxFactor uint32
	ADNL      ton.Bytes32
	Amount    uint64
	Source    ton.Address
	QueryID   uint64
}

// Admission describes an accepted stake.
type Admission struct {
	Member   *Member
	Replaced *Member // previous stake of the same pubkey, to be refunded
}

// Outcome of a conduct attempt.
type Outcome struct {
	Proposal  *Proposal
	Refunds   []Refund
	Failed    bool
	Abandoned bool
}

// Registry owns the current election of one workchain.
type Registry struct {
	wc      ton.WorkchainID
	cfg     *params.Config
	current *Election
}

// NewRegistry creates a registry with no election.
func NewRegistry(wc ton.WorkchainID, cfg *params.Config) *Registry {
	return &Registry{wc: wc, cfg: cfg}
}

// Current returns the current election, possibly nil or finished.
func (r *Registry) Current() *Election { return r.current }

// Phase of the current election.
func (r *Registry) Phase() Phase { return r.current.Phase() }

// Held is the stake kept by the current election.
func (r *Registry) Held() uint64 {
	if r.current == nil {
		return 0
	}
	return r.current.Held()
}

// Announce opens a new election. boundary is the expiry of the set in force.
func (r *Registry) Announce(now, boundary uint32) (*Election, error) {
	if r.Phase() != Closed {
		return nil, ErrInProgress
	}
	at, closeAt := r.cfg.Window(now, boundary, r.cfg.Timing)
	r.current = newElection(r.wc, at, closeAt)
	logger.Info("election announced", "wc", r.wc, "elect_at", at, "elect_close", closeAt)
	return r.current, nil
}

// Accept validates a stake against the open election. Rejections are
// returned as *exitcode.Error and leave the election untouched.
// verify is consulted last.
func (r *Registry) Accept(req *StakeRequest, now uint32, verify func() bool) (*Admission, error) {
	e := r.current
	if e.Phase() != Open {
		return nil, ErrNotOpen
	}
	if req.StakeAt != e.ElectAt {
		return nil, exitcode.Newf(exitcode.BadElectionID, "stake_at %d, elect_at %d", req.StakeAt, e.ElectAt)
	}
	factor, ok := r.cfg.AcceptMaxFactor(req.MaxFactor, r.cfg.MaxStakeFactor)
	if !ok {
		return nil, exitcode.Newf(exitcode.BadMaxFactor, "%#x", req.MaxFactor)
	}
	if stakes.IsDust(req.Amount, e.TotalStake) {
		return nil, exitcode.Newf(exitcode.StakeTooSmall, "%d against total %d", req.Amount, e.TotalStake)
	}
	if req.Amount < r.cfg.MinStake {
		return nil, exitcode.New(exitcode.BelowMinStake)
	}
	if req.Amount > r.cfg.MaxStake {
		return nil, exitcode.New(exitcode.AboveMaxStake)
	}
	prev := e.Members[req.PubKey]
	if prev != nil && (prev.Source != req.Source || req.Amount <= prev.Amount) {
		return nil, exitcode.New(exitcode.DuplicateStake)
	}
	if verify != nil && !verify() {
		return nil, exitcode.New(exitcode.BadSignature)
	}

	m := &Member{
		PubKey:    req.PubKey,
		ADNL:      req.ADNL,
		Amount:    req.Amount,
		MaxFactor: factor,
		Source:    req.Source,
		QueryID:   req.QueryID,
		StakedAt:  now,
	}
	if prev != nil {
		e.TotalStake -= prev.Amount
	}
	e.Members[req.PubKey] = m
	e.TotalStake += m.Amount
	logger.Debug("stake accepted", "wc", r.wc, "pubkey", req.PubKey.AbbrevString(), "amount", req.Amount, "total", e.TotalStake)
	return &Admission{Member: m, Replaced: prev}, nil
}

// Due reports whether the open election may be conducted at now.
func (r *Registry) Due(now uint32) bool {
	return r.Phase() == Open && now >= r.current.ElectClose
}

// Conduct computes the next validator set. Banned pubkeys are never
// elected. When participation is insufficient the election stays open and
// is marked failed, unless the abandon deadline passed, in which case all
// stakes are refunded and the registry returns to Closed.
func (r *Registry) Conduct(now uint32, banned func(ton.PubKey) bool) (*Outcome, error) {
	if !r.Due(now) {
		return nil, ErrNotDue
	}
	e := r.current

	var (
		cands   []vset.Candidate
		refunds []Refund
	)
	for _, m := range e.SortedMembers() {
		if banned != nil && banned(m.PubKey) {
			refunds = append(refunds, Refund{To: m.Source, PubKey: m.PubKey, Amount: m.Amount})
			continue
		}
		cands = append(cands, vset.Candidate{
			PubKey:    m.PubKey,
			ADNL:      m.ADNL,
			Amount:    m.Amount,
			MaxFactor: m.MaxFactor,
			Source:    m.Source,
		})
	}

	res := vset.Compute(cands, vset.Limits{
		MaxValidators:  int(r.cfg.MaxValidators),
		MainValidators: int(r.cfg.MaxMainValidators),
		MinStake:       r.cfg.MinStake,
		ClipBase:       r.cfg.ClipBase,
	})

	if uint32(len(res.Elected)) < r.cfg.MinValidators || res.TotalWeight < r.cfg.MinTotalStake {
		e.Failed = true
		if now <= r.cfg.AbandonAt(e.ElectClose, r.cfg.Timing) {
			logger.Debug("election failed, retrying", "wc", r.wc, "id", e.ID(), "candidates", len(cands), "weight", res.TotalWeight)
			return &Outcome{Failed: true}, nil
		}
		out := &Outcome{Failed: true, Abandoned: true}
		for _, m := range e.SortedMembers() {
			out.Refunds = append(out.Refunds, Refund{To: m.Source, PubKey: m.PubKey, Amount: m.Amount})
		}
		logger.Info("election abandoned", "wc", r.wc, "id", e.ID(), "candidates", len(cands))
		r.current = nil
		return out, nil
	}

	for _, c := range res.Unelected {
		refunds = append(refunds, Refund{To: c.Source, PubKey: c.PubKey, Amount: c.Amount})
	}
	for _, v := range res.Elected {
		if x := v.Excess(); x > 0 {
			refunds = append(refunds, Refund{To: v.Source, PubKey: v.PubKey, Amount: x})
		}
	}

	since, until := r.cfg.Validity(now, e.ElectClose, r.cfg.Timing)
	e.Failed = false
	e.Proposal = &Proposal{Result: res, Since: since, Until: until}
	logger.Info("election conducted", "wc", r.wc, "id", e.ID(), "elected", len(res.Elected), "weight", res.TotalWeight, "since", since, "until", until)
	return &Outcome{Proposal: e.Proposal, Refunds: refunds}, nil
}

// Confirm installs the proposal of election electID. The finished election
// keeps its proposal for inspection while members are cleared.
func (r *Registry) Confirm(electID uint32) (*Election, error) {
	if r.Phase() != ConductPending {
		return nil, ErrNoProposal
	}
	if r.current.ElectAt != electID {
		return nil, errors.Wrapf(ErrWrongID, "got %d, want %d", electID, r.current.ElectAt)
	}
	e := r.current
	e.Open = false
	e.Finished = true
	e.Members = make(map[ton.PubKey]*Member)
	e.TotalStake = 0
	logger.Info("validator set installed", "wc", r.wc, "id", e.ID())
	return e, nil
}
