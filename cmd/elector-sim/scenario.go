// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/everx-labs/ton-labs-contracts/elector"
	"github.com/everx-labs/ton-labs-contracts/elector/exitcode"
	"github.com/everx-labs/ton-labs-contracts/elector/message"
	"github.com/everx-labs/ton-labs-contracts/elector/params"
	"github.com/everx-labs/ton-labs-contracts/log"
	"github.com/everx-labs/ton-labs-contracts/sim"
	"github.com/everx-labs/ton-labs-contracts/ton"
)

var logger = log.WithContext("pkg", "elector-sim")

// Scenario describes a simulated network driven against one elector.
type Scenario struct {
	Start    uint32 `yaml:"start"`
	Step     uint32 `yaml:"step"`
	Duration uint32 `yaml:"duration"`

	Chains     []ChainSpec  `yaml:"chains"`
	Validators []Group      `yaml:"validators"`
	Grants     []GrantSpec  `yaml:"grants"`
	Reports    []ReportSpec `yaml:"reports"`
}

// ChainSpec adds one workchain with its parameters.
type ChainSpec struct {
	Workchain int32       `yaml:"workchain"`
	Params    params.File `yaml:"params"`
}

// Group is a batch of identical validators. Amounts are in whole tokens.
type Group struct {
	Workchain int32  `yaml:"workchain"`
	Count     int    `yaml:"count"`
	Stake     uint64 `yaml:"stake"`
	MaxFactor uint32 `yaml:"max_factor"`
	Balance   uint64 `yaml:"balance"`
}

// GrantSpec sends Amount tokens to a workchain's bonuses at At.
type GrantSpec struct {
	At        uint32 `yaml:"at"`
	Workchain int32  `yaml:"workchain"`
	Amount    uint64 `yaml:"amount"`
}

// ReportSpec has every other active validator report the Victim-th
// validator of the workchain once a set is active after At.
type ReportSpec struct {
	At        uint32 `yaml:"at"`
	Workchain int32  `yaml:"workchain"`
	Victim    int    `yaml:"victim"`
	Metric    uint8  `yaml:"metric"`
}

// DefaultScenario runs ten masterchain validators through a few elections.
func DefaultScenario() *Scenario {
	cfg := params.Default()
	cfg.Current = params.CurrentSet{UtimeSince: 1_000_000 - 1000, UtimeUntil: 1_000_000 + 3600}
	return &Scenario{
		Start:    1_000_000,
		Step:     300,
		Duration: 20_000,
		Chains:   []ChainSpec{{Workchain: int32(ton.Masterchain), Params: cfg.ToFile()}},
		Validators: []Group{
			{Workchain: int32(ton.Masterchain), Count: 10, Stake: 10, MaxFactor: 3 * params.FactorOne, Balance: 100},
		},
		Grants: []GrantSpec{{At: 1_000_000 + 7000, Workchain: int32(ton.Masterchain), Amount: 5}},
	}
}

// ParseScenario decodes and checks a YAML scenario.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "unmarshal scenario")
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Scenario) validate() error {
	if s.Step == 0 {
		return errors.New("scenario: zero step")
	}
	if len(s.Chains) == 0 {
		return errors.New("scenario: no chains")
	}
	known := make(map[int32]bool)
	for _, c := range s.Chains {
		if known[c.Workchain] {
			return errors.Errorf("scenario: workchain %d listed twice", c.Workchain)
		}
		known[c.Workchain] = true
		if _, err := c.Params.Config(); err != nil {
			return errors.Wrapf(err, "scenario: workchain %d", c.Workchain)
		}
	}
	for _, g := range s.Validators {
		if !known[g.Workchain] {
			return errors.Errorf("scenario: validators on unknown workchain %d", g.Workchain)
		}
	}
	for _, r := range s.Reports {
		if !known[r.Workchain] {
			return errors.Errorf("scenario: report on unknown workchain %d", r.Workchain)
		}
	}
	return nil
}

type member struct {
	*sim.Validator
	stake     uint64
	maxFactor uint32
	lastElect uint32
}

// Runner drives a Scenario step by step.
type Runner struct {
	s       *Scenario
	ctx     *sim.Context
	members map[ton.WorkchainID][]*member
	zero    *sim.Wallet
	granted []bool
	done    []bool
}

// NewRunner builds the world described by s. The scalar knobs of each
// chain's params file are applied on top of the decoded blobs.
func NewRunner(s *Scenario, opts ...elector.Option) (*Runner, error) {
	configs := make(map[ton.WorkchainID]*params.Config, len(s.Chains))
	for _, c := range s.Chains {
		cfg, err := c.Params.Config()
		if err != nil {
			return nil, err
		}
		configs[ton.WorkchainID(c.Workchain)] = cfg
	}
	opts = append(opts, elector.WithConfigOverride(func(wc ton.WorkchainID, cfg *params.Config) {
		if src, ok := configs[wc]; ok {
			cfg.Window = src.Window
			cfg.ClipBase = src.ClipBase
			cfg.SlashActivationDelay = src.SlashActivationDelay
			cfg.ComplaintPrice = src.ComplaintPrice
			cfg.RefundFee = src.RefundFee
		}
	}))

	ctx, err := sim.NewContext(s.Start, opts...)
	if err != nil {
		return nil, err
	}
	for _, c := range s.Chains {
		wc := ton.WorkchainID(c.Workchain)
		if err := ctx.AddWorkchain(wc, configs[wc]); err != nil {
			return nil, errors.Wrapf(err, "add workchain %v", wc)
		}
	}

	r := &Runner{
		s:       s,
		ctx:     ctx,
		members: make(map[ton.WorkchainID][]*member),
		granted: make([]bool, len(s.Grants)),
		done:    make([]bool, len(s.Reports)),
	}
	for _, g := range s.Validators {
		wc := ton.WorkchainID(g.Workchain)
		for range g.Count {
			r.members[wc] = append(r.members[wc], &member{
				Validator: ctx.NewValidator(wc, g.Balance*ton.EVER),
				stake:     g.Stake * ton.EVER,
				maxFactor: g.MaxFactor,
			})
		}
	}
	var total uint64
	for _, g := range s.Grants {
		total += g.Amount * ton.EVER
	}
	if total > 0 {
		r.zero = ctx.ZeroWallet(total)
	}
	return r, nil
}

// Context returns the simulated world.
func (r *Runner) Context() *sim.Context { return r.ctx }

// Run plays the whole scenario.
func (r *Runner) Run() error {
	end := r.s.Start + r.s.Duration
	for {
		if err := r.step(); err != nil {
			return errors.Wrapf(err, "at %d", r.ctx.Clock.Now())
		}
		now := r.ctx.Clock.Now()
		if now >= end {
			break
		}
		r.ctx.Clock.Advance(min(r.s.Step, end-now))
	}
	return r.ctx.Engine.CheckConservation()
}

func (r *Runner) step() error {
	for _, wc := range r.ctx.Engine.Workchains() {
		if err := r.recoverAll(wc); err != nil {
			return err
		}
		if err := r.stakeAll(wc); err != nil {
			return err
		}
	}
	if err := r.grants(); err != nil {
		return err
	}
	if err := r.reports(); err != nil {
		return err
	}
	return r.ctx.Step()
}

func (r *Runner) stakeAll(wc ton.WorkchainID) error {
	id, ok := r.ctx.OpenElection(wc)
	if !ok {
		return nil
	}
	for _, m := range r.members[wc] {
		if m.lastElect == id || m.Balance < m.stake {
			continue
		}
		resp, err := r.ctx.Stake(m.Validator, id, m.stake, m.maxFactor)
		if err != nil {
			return err
		}
		m.lastElect = id
		if resp.Code != exitcode.OK {
			logger.Debug("stake rejected", "wc", wc, "pubkey", m.PubKey.AbbrevString(), "code", resp.Code)
		}
	}
	return nil
}

func (r *Runner) recoverAll(wc ton.WorkchainID) error {
	for _, m := range r.members[wc] {
		if r.ctx.Engine.ComputeReturnedStake(wc, m.Address) == 0 {
			continue
		}
		resp, err := r.ctx.Recover(m.Wallet)
		if err != nil {
			return err
		}
		logger.Debug("stake recovered", "wc", wc, "pubkey", m.PubKey.AbbrevString(), "amount", ton.FormatAmount(resp.Amount))
	}
	return nil
}

func (r *Runner) grants() error {
	now := r.ctx.Clock.Now()
	for i, g := range r.s.Grants {
		if r.granted[i] || now < g.At {
			continue
		}
		r.granted[i] = true
		resp, err := r.ctx.Grant(r.zero, ton.WorkchainID(g.Workchain), g.Amount*ton.EVER)
		if err != nil {
			return err
		}
		logger.Info("granted", "wc", g.Workchain, "amount", g.Amount, "kind", resp.Kind)
	}
	return nil
}

func (r *Runner) reports() error {
	now := r.ctx.Clock.Now()
	for i, rep := range r.s.Reports {
		wc := ton.WorkchainID(rep.Workchain)
		if r.done[i] || now < rep.At || len(r.ctx.Engine.ActiveSet(wc)) == 0 {
			continue
		}
		r.done[i] = true
		members := r.members[wc]
		if rep.Victim < 0 || rep.Victim >= len(members) {
			logger.Warn("report victim out of range", "wc", wc, "victim", rep.Victim)
			continue
		}
		victim := members[rep.Victim].PubKey
		for j, m := range members {
			if j == rep.Victim {
				continue
			}
			resp, err := r.ctx.Report(m.Validator, victim, rep.Metric)
			if err != nil {
				return err
			}
			if resp.Kind != message.Confirmed {
				logger.Debug("report rejected", "wc", wc, "reporter", m.PubKey.AbbrevString(), "code", resp.Code)
			}
		}
		logger.Info("reported", "wc", wc, "victim", victim.AbbrevString(), "banned", r.ctx.Engine.IsBanned(victim))
	}
	return nil
}
