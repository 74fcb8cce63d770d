// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package elector

import (
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/everx-labs/ton-labs-contracts/elector/correlator"
	"github.com/everx-labs/ton-labs-contracts/elector/election"
	"github.com/everx-labs/ton-labs-contracts/elector/exitcode"
	"github.com/everx-labs/ton-labs-contracts/elector/message"
	"github.com/everx-labs/ton-labs-contracts/elector/slashing"
	"github.com/everx-labs/ton-labs-contracts/ton"
)

// Dispatch processes one client request to completion and returns the
// response addressed to its sender. Validation failures are responses with
// a non-zero code; a non-nil error is a protocol violation or an internal
// failure, in which case the request has no effect on the journal.
//
// A request repeating an answered (caller, query id) observes the recorded
// response and its value is sent back, or owed if the payment bounces.
func (e *Elector) Dispatch(req message.ElectorRequest) (message.Response, error) {
	start := time.Now()
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func() { metricDispatch().Observe(time.Since(start).Microseconds()) }()

	return e.dispatch(req)
}

func (e *Elector) Stake(r *message.Stake) (message.Response, error)       { return e.Dispatch(r) }
func (e *Elector) Recover(r *message.Recover) (message.Response, error)   { return e.Dispatch(r) }
func (e *Elector) Report(r *message.Report) (message.Response, error)     { return e.Dispatch(r) }
func (e *Elector) Complain(r *message.Complain) (message.Response, error) { return e.Dispatch(r) }
func (e *Elector) Vote(r *message.Vote) (message.Response, error)         { return e.Dispatch(r) }
func (e *Elector) Transfer(r *message.Transfer) (message.Response, error) { return e.Dispatch(r) }
func (e *Elector) Grant(r *message.Grant) (message.Response, error)       { return e.Dispatch(r) }

func (e *Elector) dispatch(req message.ElectorRequest) (message.Response, error) {
	h := req.Head()
	now := e.clock.Now()
	key := correlator.Key{Caller: h.Source, QueryID: h.QueryID}

	recorded, err := e.corr.Begin(key, req.Kind(), now)
	if err != nil {
		if errors.Is(err, correlator.ErrInFlight) {
			return message.Response{}, errors.Wrap(ErrProtocolViolation, err.Error())
		}
		return message.Response{}, err
	}
	if recorded != nil {
		if h.Value > 0 {
			_, c := e.route(req)
			if _, err := e.giveBack(c, respond(h, message.Returned, exitcode.OK, h.Value)); err != nil {
				return message.Response{}, err
			}
		}
		return *recorded, nil
	}

	resp, err := e.handle(req, now)
	if err != nil {
		e.corr.Abort(key)
		return message.Response{}, err
	}
	if err := e.corr.Resolve(key, resp); err != nil {
		return message.Response{}, err
	}
	if pending := e.corr.Pending(); len(pending) > 0 {
		return resp, errors.Wrapf(ErrProtocolViolation, "%d requests left pending", len(pending))
	}
	metricRequests().AddWithLabel(1, map[string]string{"kind": req.Kind().String(), "response": resp.Kind.String()})
	return resp, nil
}

// route returns the workchain serving req and its chain, nil when the
// workchain is not registered. Transfers from the zero address fund the
// masterchain.
func (e *Elector) route(req message.ElectorRequest) (ton.WorkchainID, *chain) {
	h := req.Head()
	wc := h.Workchain
	if _, ok := req.(*message.Transfer); ok && h.Source.IsZero() {
		wc = ton.Masterchain
	}
	return wc, e.chains[wc]
}

func (e *Elector) handle(req message.ElectorRequest, now uint32) (message.Response, error) {
	h := req.Head()
	wc, c := e.route(req)
	if c == nil {
		logger.Debug("request for unknown workchain", "wc", wc, "kind", req.Kind(), "from", h.Source)
		return e.giveBack(nil, respond(h, message.Returned, exitcode.UnknownWorkchain, h.Value))
	}
	if err := c.ledger.Receive(h.Value); err != nil {
		return message.Response{}, err
	}
	resp, err := e.apply(c, req, now)
	if err != nil {
		return message.Response{}, e.unreceive(c, h.Value, err)
	}
	return resp, nil
}

func (e *Elector) apply(c *chain, req message.ElectorRequest, now uint32) (message.Response, error) {
	h := req.Head()
	switch r := req.(type) {
	case *message.Stake:
		return e.stake(c, r, now)
	case *message.Recover:
		return e.recoverStake(c, r)
	case *message.Report:
		return e.report(c, r, now)
	case *message.Complain:
		return e.complain(c, r, now)
	case *message.Vote:
		return e.vote(c, r)
	case *message.Transfer:
		if r.Source.IsZero() {
			if err := e.grant(c, r.Value); err != nil {
				return message.Response{}, err
			}
			return respond(h, message.Confirmed, exitcode.OK, 0), nil
		}
		return e.reply(c, respond(h, message.Returned, exitcode.OK, r.Value))
	case *message.Grant:
		if err := e.grant(c, r.Value); err != nil {
			return message.Response{}, err
		}
		return respond(h, message.Confirmed, exitcode.OK, 0), nil
	}
	return message.Response{}, errors.Errorf("unsupported request %v", req.Kind())
}

// unreceive takes back value received by c for a request that failed with
// cause, leaving the ledger as it was before the request.
func (e *Elector) unreceive(c *chain, value uint64, cause error) error {
	if err := c.ledger.Send(value); err != nil {
		return errors.Wrapf(cause, "rollback of %d on %v: %v", value, c.wc, err)
	}
	return cause
}

// giveBack returns the value of resp, which the elector does not keep, to
// its sender. Value for an unregistered workchain passes through the first
// registered chain, so a bounce stays owed there and can be recovered.
func (e *Elector) giveBack(c *chain, resp message.Response) (message.Response, error) {
	if resp.Amount == 0 {
		return resp, nil
	}
	if c == nil {
		if len(e.order) == 0 {
			return message.Response{}, errors.Errorf("no workchain can hold %d for %v", resp.Amount, resp.To)
		}
		c = e.chains[e.order[0]]
	}
	if err := c.ledger.Receive(resp.Amount); err != nil {
		return message.Response{}, err
	}
	out, err := e.reply(c, resp)
	if err != nil {
		return message.Response{}, e.unreceive(c, resp.Amount, err)
	}
	return out, nil
}

func respond(h *message.Header, kind message.ResponseKind, code exitcode.Code, amount uint64) message.Response {
	return message.Response{Kind: kind, QueryID: h.QueryID, Code: code, Amount: amount, To: h.Source}
}

// reply pays the value attached to resp. If the payment bounces, the value
// stays owed to the recipient and can be recovered later.
func (e *Elector) reply(c *chain, resp message.Response) (message.Response, error) {
	if resp.Amount == 0 {
		return resp, nil
	}
	if err := e.payer.Pay(resp.To, resp); err != nil {
		logger.Debug("payout bounced", "wc", c.wc, "to", resp.To, "amount", resp.Amount, "err", err)
		metricBounces().Add(1)
		if err := c.ledger.Credit(resp.To, resp.Amount); err != nil {
			return message.Response{}, err
		}
		resp.Bounced = true
		return resp, nil
	}
	if err := c.ledger.Send(resp.Amount); err != nil {
		return message.Response{}, err
	}
	return resp, nil
}

func (e *Elector) stake(c *chain, r *message.Stake, now uint32) (message.Response, error) {
	if c.registry.Phase() != election.Open {
		return e.reply(c, respond(&r.Header, message.Returned, exitcode.OK, r.Value))
	}
	adm, err := c.registry.Accept(&election.StakeRequest{
		PubKey:    r.PubKey,
		StakeAt:   r.StakeAt,
		MaxFactor: r.MaxFactor,
		ADNL:      r.ADNL,
		Amount:    r.Value,
		Source:    r.Source,
		QueryID:   r.QueryID,
	}, now, func() bool {
		return e.verifier.Verify(r.PubKey, message.StakeDigest(r), r.Signature)
	})
	if code, ok := exitcode.CodeOf(err); ok {
		metricStakes().AddWithLabel(1, map[string]string{"wc": c.wc.String(), "code": strconv.Itoa(int(code))})
		logger.Debug("stake rejected", "wc", c.wc, "pubkey", r.PubKey.AbbrevString(), "err", err)
		fee := min(c.cfg.RefundFee, r.Value)
		if err := c.ledger.AddOwnFunds(fee); err != nil {
			return message.Response{}, err
		}
		return e.reply(c, respond(&r.Header, message.Refund, code, r.Value-fee))
	}
	if err != nil {
		return message.Response{}, err
	}
	metricStakes().AddWithLabel(1, map[string]string{"wc": c.wc.String(), "code": "0"})

	if prev := adm.Replaced; prev != nil {
		if _, err := e.reply(c, message.Response{
			Kind:    message.Refund,
			QueryID: prev.QueryID,
			Amount:  prev.Amount,
			To:      prev.Source,
		}); err != nil {
			return message.Response{}, err
		}
	}
	return respond(&r.Header, message.Confirmed, exitcode.OK, 0), nil
}

func (e *Elector) recoverStake(c *chain, r *message.Recover) (message.Response, error) {
	if amount := c.ledger.TakeCredits(r.Source); amount > 0 {
		return e.reply(c, respond(&r.Header, message.Refund, exitcode.OK, amount+r.Value))
	}
	code := exitcode.NothingToRecover
	if c.scheduler.IsFrozen(r.Source) || c.registry.Current().HasSource(r.Source) {
		code = exitcode.StakeFrozen
	}
	return e.reply(c, respond(&r.Header, message.Error, code, r.Value))
}

func (e *Elector) report(c *chain, r *message.Report, now uint32) (message.Response, error) {
	p, err := c.reports.Submit(
		c.scheduler.Active(),
		e.banned,
		&slashing.ReportRequest{Reporter: r.Reporter, Victim: r.Victim, Metric: r.MetricID, Now: now},
		c.cfg.MinValidators,
		c.cfg.MaxMainValidators,
		func() bool { return e.verifier.Verify(r.Reporter, message.ReportDigest(r), r.Signature) },
	)
	if code, ok := exitcode.CodeOf(err); ok {
		logger.Debug("report rejected", "wc", c.wc, "reporter", r.Reporter.AbbrevString(), "err", err)
		return e.reply(c, respond(&r.Header, message.Error, code, r.Value))
	}
	if err != nil {
		return message.Response{}, err
	}
	if p != nil {
		metricBans().Add(1)
		metricBanned().Set(int64(e.banned.Len()))
		e.outbox = append(e.outbox, &message.SetSlashedValidatorSet{
			Workchain:  c.wc,
			ElectID:    p.ElectID,
			Validators: p.Validators,
			Banned:     p.Victim,
		})
	}
	return e.reply(c, respond(&r.Header, message.Confirmed, exitcode.OK, r.Value))
}

func (e *Elector) complain(c *chain, r *message.Complain, now uint32) (message.Response, error) {
	pe, _ := c.scheduler.Get(r.ElectID)
	filed, err := slashing.Complain(pe, &slashing.ComplaintRequest{
		Complainer: r.Source,
		Victim:     r.Victim,
		Fine:       r.Fine,
		Paid:       r.Value,
		Now:        now,
	}, c.cfg.ComplaintPrice)
	if code, ok := exitcode.CodeOf(err); ok {
		return e.reply(c, respond(&r.Header, message.Error, code, r.Value))
	}
	if err != nil {
		return message.Response{}, err
	}
	if err := c.ledger.AddOwnFunds(filed.Price); err != nil {
		return message.Response{}, err
	}
	return e.reply(c, respond(&r.Header, message.Confirmed, exitcode.OK, filed.Excess))
}

func (e *Elector) vote(c *chain, r *message.Vote) (message.Response, error) {
	pe, _ := c.scheduler.Get(r.ElectID)
	code, res, err := slashing.Vote(pe, r.Complaint, r.Voter, c.cfg.ComplainerRewardShift, func() bool {
		return e.verifier.Verify(r.Voter, message.VoteDigest(r), r.Signature)
	})
	if ec, ok := exitcode.CodeOf(err); ok {
		return e.reply(c, respond(&r.Header, message.Error, ec, r.Value))
	}
	if err != nil {
		return message.Response{}, err
	}
	if res != nil {
		if err := c.ledger.Credit(res.Complaint.Complainer, res.Reward); err != nil {
			return message.Response{}, err
		}
		if err := c.ledger.AddOwnFunds(res.OwnFunds); err != nil {
			return message.Response{}, err
		}
	}
	return e.reply(c, respond(&r.Header, message.Confirmed, code, r.Value))
}

// grant adds amount to the bonuses of the active set, or to own funds when
// no set is active.
func (e *Elector) grant(c *chain, amount uint64) error {
	if amount == 0 || c.scheduler.Grant(amount) {
		return nil
	}
	return c.ledger.AddOwnFunds(amount)
}
