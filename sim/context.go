// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package sim drives the elector the way the surrounding network would: a
// virtual clock, wallets that receive payouts and may turn defunct, and a
// config collaborator that installs the validator sets the elector proposes.
package sim

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/everx-labs/ton-labs-contracts/elector"
	"github.com/everx-labs/ton-labs-contracts/elector/message"
	"github.com/everx-labs/ton-labs-contracts/elector/params"
	"github.com/everx-labs/ton-labs-contracts/log"
	"github.com/everx-labs/ton-labs-contracts/ton"
)

var logger = log.WithContext("pkg", "sim")

// Context is the simulated world around one elector.
type Context struct {
	Clock  *Clock
	Engine *elector.Elector

	// AutoConfirm makes the config collaborator confirm every proposal it
	// receives on the next Step.
	AutoConfirm bool
	// Sent holds every message the config collaborator received.
	Sent []message.ConfigRequest

	wallets map[ton.Address]*Wallet
	seed    uint64
}

// NewContext creates an elector with no workchains whose clock starts at start.
func NewContext(start uint32, opts ...elector.Option) (*Context, error) {
	ctx := &Context{
		Clock:       NewClock(start),
		AutoConfirm: true,
		wallets:     make(map[ton.Address]*Wallet),
	}
	eng, err := elector.New(ctx.Clock, ctx, nil, opts...)
	if err != nil {
		return nil, err
	}
	ctx.Engine = eng
	return ctx, nil
}

// AddWorkchain hands cfg to the elector as parameter blobs.
func (c *Context) AddWorkchain(wc ton.WorkchainID, cfg *params.Config) error {
	blobs, err := params.Encode(cfg)
	if err != nil {
		return err
	}
	return c.Engine.AddWorkchain(wc, blobs)
}

// Pay delivers a response to a wallet. Unknown and defunct wallets bounce.
func (c *Context) Pay(to ton.Address, resp message.Response) error {
	w, ok := c.wallets[to]
	if !ok {
		return errors.Wrapf(ErrNoAccount, "%v", to)
	}
	if w.defunct {
		return errors.Wrapf(ErrDefunct, "%v", to)
	}
	w.Balance += resp.Amount
	w.Received = append(w.Received, resp)
	return nil
}

// NewWallet creates a wallet on wc holding balance.
func (c *Context) NewWallet(wc ton.WorkchainID, balance uint64) *Wallet {
	c.seed++
	addr := ton.Address{Workchain: wc, Account: ton.Blake2b([]byte("wallet"), binary.BigEndian.AppendUint64(nil, c.seed))}
	return c.register(addr, balance)
}

// NewValidator creates a wallet with a signing key on wc.
func (c *Context) NewValidator(wc ton.WorkchainID, balance uint64) *Validator {
	w := c.NewWallet(wc, balance)
	return newValidator(w, c.seed)
}

// ZeroWallet returns the wallet at the zero address, whose transfers are grants.
func (c *Context) ZeroWallet(balance uint64) *Wallet {
	if w, ok := c.wallets[ton.ZeroAddress]; ok {
		w.Balance += balance
		return w
	}
	return c.register(ton.ZeroAddress, balance)
}

func (c *Context) register(addr ton.Address, balance uint64) *Wallet {
	w := &Wallet{Address: addr, Balance: balance}
	c.wallets[addr] = w
	return w
}

// Send dispatches req on behalf of w, paying its value from w.
func (c *Context) Send(w *Wallet, req message.ElectorRequest) (message.Response, error) {
	value := req.Head().Value
	if w.Balance < value {
		return message.Response{}, errors.Wrapf(ErrInsufficient, "%v has %d, needs %d", w.Address, w.Balance, value)
	}
	w.Balance -= value
	resp, err := c.Engine.Dispatch(req)
	if err != nil {
		// a failed request has no effect, its value bounces
		w.Balance += value
		return resp, err
	}
	if resp.Amount == 0 {
		w.Received = append(w.Received, resp)
	}
	logger.Trace("request answered", "from", w.Address, "kind", req.Kind(), "resp", resp)
	return resp, nil
}

// Step runs ticktock and lets the config collaborator answer the elector.
func (c *Context) Step() error {
	if err := c.Engine.Tick(); err != nil {
		return err
	}
	for _, req := range c.Engine.Outbox() {
		c.Sent = append(c.Sent, req)
		if !c.AutoConfirm {
			continue
		}
		if err := c.Confirm(req); err != nil {
			return err
		}
	}
	return nil
}

// Confirm answers one elector message as the config collaborator.
func (c *Context) Confirm(req message.ConfigRequest) error {
	switch r := req.(type) {
	case *message.SetNextValidatorSet:
		return c.Engine.ConfirmValidatorSet(r.Workchain, r.ElectID)
	case *message.SetSlashedValidatorSet:
		return c.Engine.ConfirmSlashedSet(r.Workchain)
	}
	return errors.Errorf("unexpected config request %T", req)
}

// Run steps the world every step seconds for d seconds, starting now.
func (c *Context) Run(d, step uint32) error {
	if step == 0 {
		return errors.New("zero step")
	}
	end := c.Clock.Now() + d
	for {
		if err := c.Step(); err != nil {
			return errors.Wrapf(err, "at %d", c.Clock.Now())
		}
		now := c.Clock.Now()
		if now >= end {
			return nil
		}
		c.Clock.Advance(min(step, end-now))
	}
}

// RunUntil steps the world until cond holds or limit seconds passed.
func (c *Context) RunUntil(cond func() bool, limit, step uint32) error {
	if step == 0 {
		return errors.New("zero step")
	}
	end := c.Clock.Now() + limit
	for !cond() {
		if c.Clock.Now() >= end {
			return errors.Errorf("condition not met by %d", end)
		}
		c.Clock.Advance(step)
		if err := c.Step(); err != nil {
			return err
		}
	}
	return nil
}

// OpenElection returns the id of the open election on wc.
func (c *Context) OpenElection(wc ton.WorkchainID) (uint32, bool) {
	el := c.Engine.Election(wc)
	if el == nil || !el.Open || el.Finished || el.Proposal != nil {
		return 0, false
	}
	return el.ID(), true
}
