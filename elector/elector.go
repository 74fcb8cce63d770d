// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package elector is the validator election and stake management engine.
// It runs one election per workchain, freezes the stakes of elected
// validators, bans and fines misbehaving validators and answers every
// request exactly once per (caller, query id).
//
// All mutating operations are serialized. Time never advances on its own:
// the caller moves the Clock and calls Tick.
package elector

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/everx-labs/ton-labs-contracts/elector/correlator"
	"github.com/everx-labs/ton-labs-contracts/elector/election"
	"github.com/everx-labs/ton-labs-contracts/elector/freeze"
	"github.com/everx-labs/ton-labs-contracts/elector/ledger"
	"github.com/everx-labs/ton-labs-contracts/elector/message"
	"github.com/everx-labs/ton-labs-contracts/elector/params"
	"github.com/everx-labs/ton-labs-contracts/elector/slashing"
	"github.com/everx-labs/ton-labs-contracts/elector/vset"
	"github.com/everx-labs/ton-labs-contracts/kv"
	"github.com/everx-labs/ton-labs-contracts/log"
	"github.com/everx-labs/ton-labs-contracts/ton"
)

var logger = log.WithContext("pkg", "elector")

func SetLogger(l log.Logger) {
	logger = l
}

var (
	// ErrProtocolViolation marks out-of-order or unsolicited collaborator
	// messages and misuse of query ids. It is never an exit code.
	ErrProtocolViolation = errors.New("protocol violation")
	ErrUnknownWorkchain  = errors.New("unknown workchain")
	ErrDuplicateChain    = errors.New("workchain already added")
)

// Clock supplies the current unix time.
type Clock interface {
	Now() uint32
}

// Payer delivers a response carrying value to its recipient. A returned
// error means the message bounced and the value came back.
type Payer interface {
	Pay(to ton.Address, resp message.Response) error
}

// Stakeable accepts stakes and gives them back.
type Stakeable interface {
	Stake(*message.Stake) (message.Response, error)
	Recover(*message.Recover) (message.Response, error)
}

// Reportable accepts accusations against validators.
type Reportable interface {
	Report(*message.Report) (message.Response, error)
	Complain(*message.Complain) (message.Response, error)
	Vote(*message.Vote) (message.Response, error)
}

// Electable is the surface used by the config collaborator and the ticktock driver.
type Electable interface {
	Tick() error
	ConfirmValidatorSet(wc ton.WorkchainID, electID uint32) error
	ConfirmSlashedSet(wc ton.WorkchainID) error
	UpdateValidatorSetUntil(wc ton.WorkchainID, until uint32) error
	Outbox() []message.ConfigRequest
}

var (
	_ Stakeable  = (*Elector)(nil)
	_ Reportable = (*Elector)(nil)
	_ Electable  = (*Elector)(nil)
)

// Option configures an Elector.
type Option func(*options)

type options struct {
	store     kv.Store
	cacheSize int
	override  func(ton.WorkchainID, *params.Config)
}

// WithStore journals responses to store instead of an in-memory database.
func WithStore(store kv.Store) Option {
	return func(o *options) { o.store = store }
}

// WithCacheSize sets the size of the response cache.
func WithCacheSize(n int) Option {
	return func(o *options) { o.cacheSize = n }
}

// WithConfigOverride lets the caller adjust policies after the parameter
// blobs of a workchain are decoded.
func WithConfigOverride(f func(ton.WorkchainID, *params.Config)) Option {
	return func(o *options) { o.override = f }
}

// chain is the state owned by one workchain.
type chain struct {
	wc        ton.WorkchainID
	cfg       *params.Config
	ledger    *ledger.Ledger
	registry  *election.Registry
	scheduler *freeze.Scheduler
	reports   *slashing.Reports

	// nextBoundary is the expiry of the set in force; announcement is due
	// elect_begin_before ahead of it.
	nextBoundary uint32
	cascaded     bool
	slashed      *slashing.SlashProposal
}

func (c *chain) held() uint64 {
	return c.registry.Held() + c.scheduler.Held()
}

// Elector is the engine.
type Elector struct {
	mu       sync.Mutex
	clock    Clock
	payer    Payer
	verifier Verifier
	opts     options

	chains map[ton.WorkchainID]*chain
	order  []ton.WorkchainID
	banned *slashing.Banned
	corr   *correlator.Correlator
	outbox []message.ConfigRequest
}

// New creates an engine without workchains. A nil verifier checks ed25519
// signatures.
func New(clock Clock, payer Payer, verifier Verifier, opts ...Option) (*Elector, error) {
	o := options{cacheSize: 1024}
	for _, opt := range opts {
		opt(&o)
	}
	if o.store == nil {
		db, err := kv.NewMem()
		if err != nil {
			return nil, errors.Wrap(err, "open journal")
		}
		o.store = db
	}
	corr, err := correlator.New(o.store, o.cacheSize)
	if err != nil {
		return nil, err
	}
	if verifier == nil {
		verifier = Ed25519Verifier{}
	}
	return &Elector{
		clock:    clock,
		payer:    payer,
		verifier: verifier,
		opts:     o,
		chains:   make(map[ton.WorkchainID]*chain),
		banned:   slashing.NewBanned(),
		corr:     corr,
	}, nil
}

// AddWorkchain registers a workchain configured by the given parameter blobs.
func (e *Elector) AddWorkchain(wc ton.WorkchainID, blobs params.Blobs) error {
	cfg, err := params.Decode(blobs)
	if err != nil {
		return errors.Wrapf(err, "workchain %v", wc)
	}
	return e.AddWorkchainConfig(wc, cfg)
}

// AddWorkchainConfig registers a workchain with decoded parameters.
func (e *Elector) AddWorkchainConfig(wc ton.WorkchainID, cfg *params.Config) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.chains[wc]; ok {
		return errors.Wrapf(ErrDuplicateChain, "%v", wc)
	}
	cfg.SetDefaultPolicies()
	if e.opts.override != nil {
		e.opts.override(wc, cfg)
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrapf(err, "workchain %v", wc)
	}
	e.chains[wc] = &chain{
		wc:           wc,
		cfg:          cfg,
		ledger:       ledger.New(wc),
		registry:     election.NewRegistry(wc, cfg),
		scheduler:    freeze.NewScheduler(wc),
		reports:      slashing.NewReports(wc),
		nextBoundary: cfg.Current.UtimeUntil,
	}
	// masterchain first, then workchains ascending
	e.order = append(e.order, wc)
	sort.Slice(e.order, func(i, j int) bool { return e.order[i] < e.order[j] })
	logger.Info("workchain added", "wc", wc, "boundary", cfg.Current.UtimeUntil)
	return nil
}

// Workchains returns the registered workchains in processing order.
func (e *Elector) Workchains() []ton.WorkchainID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]ton.WorkchainID(nil), e.order...)
}

func (e *Elector) chain(wc ton.WorkchainID) (*chain, error) {
	c, ok := e.chains[wc]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownWorkchain, "%v", wc)
	}
	return c, nil
}

// Config returns the parameters of a workchain.
func (e *Elector) Config(wc ton.WorkchainID) (*params.Config, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, err := e.chain(wc)
	if err != nil {
		return nil, err
	}
	return c.cfg, nil
}

// Election returns the current election of wc, or nil. The result must not be modified.
func (e *Elector) Election(wc ton.WorkchainID) *election.Election {
	e.mu.Lock()
	defer e.mu.Unlock()
	if c, ok := e.chains[wc]; ok {
		return c.registry.Current()
	}
	return nil
}

// PastElections returns the installed elections of wc ordered by id.
func (e *Elector) PastElections(wc ton.WorkchainID) []*freeze.PastElection {
	e.mu.Lock()
	defer e.mu.Unlock()
	if c, ok := e.chains[wc]; ok {
		return c.scheduler.All()
	}
	return nil
}

// ActiveElectionID returns the id of the set currently in force on wc.
func (e *Elector) ActiveElectionID(wc ton.WorkchainID) (uint32, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if c, ok := e.chains[wc]; ok {
		if pe := c.scheduler.Active(); pe != nil {
			return pe.ElectID, true
		}
	}
	return 0, false
}

// ActiveSet returns the validators in force on wc, after any activated slashing.
func (e *Elector) ActiveSet(wc ton.WorkchainID) []vset.Entry {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.chains[wc]
	if !ok {
		return nil
	}
	pe := c.scheduler.Active()
	if pe == nil {
		return nil
	}
	if c.slashed != nil && c.slashed.ElectID == pe.ElectID {
		return append([]vset.Entry(nil), c.slashed.Validators...)
	}
	return append([]vset.Entry(nil), pe.Validators...)
}

// Banned returns all banned validators.
func (e *Elector) Banned() []slashing.BanRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.banned.List()
}

// IsBanned reports whether pk is banned.
func (e *Elector) IsBanned(pk ton.PubKey) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.banned.Has(pk)
}

// ComputeReturnedStake returns what addr may recover on wc right now.
func (e *Elector) ComputeReturnedStake(wc ton.WorkchainID, addr ton.Address) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if c, ok := e.chains[wc]; ok {
		return c.ledger.Credits(addr)
	}
	return 0
}

// Balance returns the balance and own funds of wc.
func (e *Elector) Balance(wc ton.WorkchainID) (balance, ownFunds uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if c, ok := e.chains[wc]; ok {
		return c.ledger.Balance(), c.ledger.OwnFunds()
	}
	return 0, 0
}

// CheckConservation verifies that every workchain's balance equals its held
// stakes plus owed refunds plus own funds.
func (e *Elector) CheckConservation() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.checkConservation()
}

func (e *Elector) checkConservation() error {
	for _, wc := range e.order {
		c := e.chains[wc]
		if err := c.ledger.Check(c.held()); err != nil {
			return err
		}
	}
	return nil
}

// Outbox drains the messages addressed to the config collaborator.
func (e *Elector) Outbox() []message.ConfigRequest {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := e.outbox
	e.outbox = nil
	return out
}
