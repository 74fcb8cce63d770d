// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package elector_test

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/everx-labs/ton-labs-contracts/elector"
	"github.com/everx-labs/ton-labs-contracts/elector/exitcode"
	"github.com/everx-labs/ton-labs-contracts/elector/message"
	"github.com/everx-labs/ton-labs-contracts/elector/params"
	"github.com/everx-labs/ton-labs-contracts/sim"
	"github.com/everx-labs/ton-labs-contracts/ton"
)

const (
	t0     = uint32(1_000_000)
	closeT = t0 + 4200      // elect_for - elect_end_before after announcement
	since  = closeT + 1800  // elect_close + elect_end_before
	until  = since + 6000   // since + elect_for
	thaw   = closeT + 32768 // elect_close + stake_held
	mc     = ton.Masterchain
	factor = 3 * params.FactorOne
)

func newWorld(t *testing.T, mutate func(*params.Config)) *sim.Context {
	t.Helper()
	ctx, err := sim.NewContext(t0)
	require.NoError(t, err)
	cfg := params.Default()
	cfg.Current = params.CurrentSet{UtimeSince: t0 - 1000, UtimeUntil: t0 + 3600}
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, ctx.AddWorkchain(mc, cfg))
	return ctx
}

func newValidators(ctx *sim.Context, n int) []*sim.Validator {
	vs := make([]*sim.Validator, n)
	for i := range vs {
		vs[i] = ctx.NewValidator(mc, 100*ton.EVER)
	}
	return vs
}

// mustConfirm returns a check for a request that must succeed, so it can
// take a call's results directly: mustConfirm(t)(ctx.Stake(...)).
func mustConfirm(t *testing.T) func(message.Response, error) {
	return func(resp message.Response, err error) {
		t.Helper()
		require.NoError(t, err)
		require.Equal(t, message.Confirmed, resp.Kind, "%v", resp)
		require.Equal(t, exitcode.OK, resp.Code, "%v", resp)
	}
}

// openElection ticks once at t0 and returns the announced election id.
func openElection(t *testing.T, ctx *sim.Context) uint32 {
	t.Helper()
	require.NoError(t, ctx.Step())
	id, ok := ctx.OpenElection(mc)
	require.True(t, ok)
	return id
}

// install conducts at close and confirms the set.
func install(t *testing.T, ctx *sim.Context) {
	t.Helper()
	ctx.Clock.Set(closeT)
	require.NoError(t, ctx.Step())
	require.Len(t, ctx.Engine.PastElections(mc), 1)
}

func activate(t *testing.T, ctx *sim.Context) {
	t.Helper()
	ctx.Clock.Set(since)
	require.NoError(t, ctx.Step())
	_, ok := ctx.Engine.ActiveElectionID(mc)
	require.True(t, ok)
}

// fourEqual installs and activates four validators of weight 6 EVER each.
func fourEqual(t *testing.T) (*sim.Context, []*sim.Validator) {
	ctx := newWorld(t, nil)
	vs := newValidators(ctx, 4)
	id := openElection(t, ctx)
	for _, v := range vs {
		mustConfirm(t)(ctx.Stake(v, id, 6*ton.EVER, factor))
	}
	install(t, ctx)
	activate(t, ctx)
	return ctx, vs
}

func TestElectionLifecycle(t *testing.T) {
	ctx := newWorld(t, nil)
	vs := newValidators(ctx, 5)
	stranger := ctx.NewWallet(mc, 10*ton.EVER)

	// no election yet: the stake comes back untouched
	resp, err := ctx.Stake(vs[0], t0, 10*ton.EVER, factor)
	require.NoError(t, err)
	assert.Equal(t, message.Returned, resp.Kind)
	assert.Equal(t, 10*ton.EVER, resp.Amount)
	assert.Equal(t, 100*ton.EVER, vs[0].Balance)

	id := openElection(t, ctx)
	assert.Equal(t, t0, id)
	el := ctx.Engine.Election(mc)
	assert.Equal(t, closeT, el.ElectClose)

	mustConfirm(t)(ctx.Stake(vs[0], id, 10*ton.EVER, factor))
	for _, v := range vs[1:] {
		mustConfirm(t)(ctx.Stake(v, id, 6*ton.EVER, factor))
	}
	assert.Equal(t, 34*ton.EVER, ctx.Engine.Election(mc).TotalStake)

	resp, err = ctx.Recover(vs[1].Wallet)
	require.NoError(t, err)
	assert.Equal(t, message.Error, resp.Kind)
	assert.Equal(t, exitcode.StakeFrozen, resp.Code)

	resp, err = ctx.Recover(stranger)
	require.NoError(t, err)
	assert.Equal(t, exitcode.NothingToRecover, resp.Code)

	install(t, ctx)
	require.Len(t, ctx.Sent, 1)
	next := ctx.Sent[0].(*message.SetNextValidatorSet)
	assert.Equal(t, id, next.ElectID)
	assert.Equal(t, since, next.Since)
	assert.Equal(t, until, next.Until)
	assert.Equal(t, 30*ton.EVER, next.TotalWeight)
	assert.Len(t, next.Validators, 5)

	// only the clipped excess is returned right away
	assert.Equal(t, 4*ton.EVER, ctx.Engine.ComputeReturnedStake(mc, vs[0].Address))
	resp, err = ctx.Recover(vs[0].Wallet)
	require.NoError(t, err)
	assert.Equal(t, message.Refund, resp.Kind)
	assert.Equal(t, 4*ton.EVER, resp.Amount)
	assert.Equal(t, 94*ton.EVER, vs[0].Balance)

	resp, err = ctx.Recover(vs[0].Wallet)
	require.NoError(t, err)
	assert.Equal(t, exitcode.StakeFrozen, resp.Code)

	_, ok := ctx.Engine.ActiveElectionID(mc)
	assert.False(t, ok)
	activate(t, ctx)

	zero := ctx.ZeroWallet(10 * ton.EVER)
	mustConfirm(t)(ctx.Transfer(zero, 5*ton.EVER+2))
	assert.Equal(t, 5*ton.EVER+2, ctx.Engine.PastElections(mc)[0].Bonuses)

	resp, err = ctx.Transfer(stranger, ton.EVER)
	require.NoError(t, err)
	assert.Equal(t, message.Returned, resp.Kind)
	assert.Equal(t, 10*ton.EVER, stranger.Balance)

	ctx.Clock.Set(thaw - 1)
	require.NoError(t, ctx.Step())
	assert.Zero(t, ctx.Engine.ComputeReturnedStake(mc, vs[1].Address))

	ctx.Clock.Set(thaw)
	require.NoError(t, ctx.Step())
	for _, v := range vs {
		assert.Equal(t, 7*ton.EVER, ctx.Engine.ComputeReturnedStake(mc, v.Address))
		resp, err := ctx.Recover(v.Wallet)
		require.NoError(t, err)
		assert.Equal(t, message.Refund, resp.Kind)
		assert.Equal(t, 7*ton.EVER, resp.Amount)

		// recovering twice pays nothing
		resp, err = ctx.Recover(v.Wallet)
		require.NoError(t, err)
		assert.Equal(t, exitcode.NothingToRecover, resp.Code)
	}
	assert.Equal(t, 101*ton.EVER, vs[0].Balance)
	assert.Equal(t, 101*ton.EVER, vs[1].Balance)

	balance, own := ctx.Engine.Balance(mc)
	assert.Equal(t, uint64(2), own)
	assert.Equal(t, uint64(2), balance)
	assert.NoError(t, ctx.Engine.CheckConservation())
}

func TestThirtyCandidates(t *testing.T) {
	ctx := newWorld(t, nil)
	vs := newValidators(ctx, 30)
	id := openElection(t, ctx)

	type cand struct {
		pk     ton.PubKey
		amount uint64
		weight uint64
	}
	var cands []cand
	for i, v := range vs {
		amount := uint64(2+i%10) * ton.EVER
		f := uint32(1+i%3) * params.FactorOne
		mustConfirm(t)(ctx.Stake(v, id, amount, f))
		cands = append(cands, cand{v.PubKey, amount, min(amount, uint64(1+i%3)*2*ton.EVER)})
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].weight != cands[j].weight {
			return cands[i].weight > cands[j].weight
		}
		return cands[i].pk.Compare(cands[j].pk) < 0
	})

	install(t, ctx)
	next := ctx.Sent[0].(*message.SetNextValidatorSet)
	require.Len(t, next.Validators, 7)
	elected := make(map[ton.PubKey]bool)
	for i, v := range next.Validators {
		assert.Equal(t, cands[i].pk, v.PubKey, "position %d", i)
		assert.Equal(t, cands[i].weight, v.Weight)
		assert.True(t, v.Main)
		if i > 0 {
			assert.LessOrEqual(t, v.Weight, next.Validators[i-1].Weight)
		}
		elected[v.PubKey] = true
	}
	for i, v := range vs {
		amount := uint64(2+i%10) * ton.EVER
		returned := ctx.Engine.ComputeReturnedStake(mc, v.Address)
		if elected[v.PubKey] {
			assert.Equal(t, amount-min(amount, uint64(1+i%3)*2*ton.EVER), returned)
		} else {
			assert.Equal(t, amount, returned)
		}
	}
	assert.NoError(t, ctx.Engine.CheckConservation())
}

func TestInsufficientParticipation(t *testing.T) {
	ctx := newWorld(t, func(cfg *params.Config) {
		cfg.MaxValidators = 30
		cfg.MinValidators = 21
	})
	vs := newValidators(ctx, 11)
	id := openElection(t, ctx)
	for _, v := range vs[:10] {
		mustConfirm(t)(ctx.Stake(v, id, 6*ton.EVER, factor))
	}

	ctx.Clock.Set(closeT)
	require.NoError(t, ctx.Step())
	el := ctx.Engine.Election(mc)
	assert.True(t, el.Failed)
	assert.True(t, el.Open)
	assert.Nil(t, el.Proposal)
	assert.Empty(t, ctx.Sent)

	// stakes are still accepted after close
	mustConfirm(t)(ctx.Stake(vs[10], id, 6*ton.EVER, factor))
	assert.Len(t, ctx.Engine.Election(mc).Members, 11)

	ctx.Clock.Set(closeT + 1800)
	require.NoError(t, ctx.Step())
	assert.Equal(t, id, ctx.Engine.Election(mc).ID(), "retried until the deadline")

	ctx.Clock.Set(closeT + 1801)
	require.NoError(t, ctx.Step())
	for _, v := range vs {
		assert.Equal(t, 6*ton.EVER, ctx.Engine.ComputeReturnedStake(mc, v.Address))
	}
	assert.Empty(t, ctx.Engine.PastElections(mc))
	// the expired boundary makes the next round start right away
	next, ok := ctx.OpenElection(mc)
	require.True(t, ok)
	assert.Equal(t, closeT+1801, next)
	assert.NoError(t, ctx.Engine.CheckConservation())
}

func TestStakeRejections(t *testing.T) {
	ctx := newWorld(t, nil)
	vs := newValidators(ctx, 3)
	id := openElection(t, ctx)

	mustConfirm(t)(ctx.Stake(vs[0], id, 40*ton.EVER, factor))
	dust := 40 * ton.EVER / 4096

	for _, tt := range []struct {
		name   string
		req    *message.Stake
		code   exitcode.Code
		amount uint64
	}{
		{"wrong election", sim.StakeRequest(vs[1], id+1, 6*ton.EVER, factor), exitcode.BadElectionID, 6 * ton.EVER},
		{"bad max factor", sim.StakeRequest(vs[1], id, 6*ton.EVER, 0xffff), exitcode.BadMaxFactor, 6 * ton.EVER},
		{"exactly 1/4096", sim.StakeRequest(vs[1], id, dust, factor), exitcode.StakeTooSmall, dust},
		{"just above 1/4096", sim.StakeRequest(vs[1], id, dust+1, factor), exitcode.BelowMinStake, dust + 1},
		{"below min stake", sim.StakeRequest(vs[1], id, ton.EVER, factor), exitcode.BelowMinStake, ton.EVER},
		{"above max stake", sim.StakeRequest(vs[1], id, 51*ton.EVER, factor), exitcode.AboveMaxStake, 51 * ton.EVER},
		{"smaller duplicate", sim.StakeRequest(vs[0], id, 30*ton.EVER, factor), exitcode.DuplicateStake, 30 * ton.EVER},
		{"equal duplicate", sim.StakeRequest(vs[0], id, 40*ton.EVER, factor), exitcode.DuplicateStake, 40 * ton.EVER},
	} {
		t.Run(tt.name, func(t *testing.T) {
			w := vs[0].Wallet
			if tt.req.Source != w.Address {
				w = vs[1].Wallet
			}
			before := w.Balance
			resp, err := ctx.Send(w, tt.req)
			require.NoError(t, err)
			assert.Equal(t, message.Refund, resp.Kind)
			assert.Equal(t, tt.code, resp.Code)
			assert.Equal(t, tt.amount, resp.Amount)
			assert.Equal(t, before, w.Balance)
		})
	}

	// the same pubkey from another wallet
	req := sim.StakeRequest(vs[0], id, 45*ton.EVER, factor)
	req.Source = vs[2].Address
	resp, err := ctx.Send(vs[2].Wallet, req)
	require.NoError(t, err)
	assert.Equal(t, exitcode.DuplicateStake, resp.Code)

	req = sim.StakeRequest(vs[2], id, 6*ton.EVER, factor)
	req.Signature[0] ^= 1
	resp, err = ctx.Send(vs[2].Wallet, req)
	require.NoError(t, err)
	assert.Equal(t, exitcode.BadSignature, resp.Code)

	assert.Equal(t, 40*ton.EVER, ctx.Engine.Election(mc).TotalStake)

	// a larger stake replaces the previous one, which is refunded
	first := vs[0].Received
	mustConfirm(t)(ctx.Stake(vs[0], id, 45*ton.EVER, factor))
	assert.Equal(t, 45*ton.EVER, ctx.Engine.Election(mc).TotalStake)
	assert.Equal(t, 55*ton.EVER, vs[0].Balance)
	var refunded bool
	for _, r := range vs[0].Received[len(first):] {
		if r.Kind == message.Refund && r.Amount == 40*ton.EVER {
			refunded = true
		}
	}
	assert.True(t, refunded)
	assert.NoError(t, ctx.Engine.CheckConservation())
}

func TestRefundFee(t *testing.T) {
	// scalar knobs are not carried by the parameter blobs
	ctx, err := sim.NewContext(t0, elector.WithConfigOverride(func(_ ton.WorkchainID, cfg *params.Config) {
		cfg.RefundFee = ton.EVER / 10
	}))
	require.NoError(t, err)
	cfg := params.Default()
	cfg.Current = params.CurrentSet{UtimeUntil: t0}
	require.NoError(t, ctx.AddWorkchain(mc, cfg))
	vs := newValidators(ctx, 1)
	id := openElection(t, ctx)

	resp, err := ctx.Stake(vs[0], id, ton.EVER, factor)
	require.NoError(t, err)
	assert.Equal(t, exitcode.BelowMinStake, resp.Code)
	assert.Equal(t, ton.EVER-ton.EVER/10, resp.Amount)
	_, own := ctx.Engine.Balance(mc)
	assert.Equal(t, ton.EVER/10, own)
	assert.NoError(t, ctx.Engine.CheckConservation())
}

func TestReportBan(t *testing.T) {
	ctx, vs := fourEqual(t)
	outsider := ctx.NewValidator(mc, 10*ton.EVER)

	report := func(reporter *sim.Validator, victim ton.PubKey) message.Response {
		t.Helper()
		resp, err := ctx.Report(reporter, victim, 1)
		require.NoError(t, err)
		return resp
	}

	assert.Equal(t, exitcode.ReporterNotValidator, report(outsider, vs[0].PubKey).Code)
	assert.Equal(t, exitcode.ReportSelf, report(vs[1], vs[1].PubKey).Code)
	assert.Equal(t, exitcode.VictimNotValidator, report(vs[1], outsider.PubKey).Code)

	assert.Equal(t, message.Confirmed, report(vs[1], vs[0].PubKey).Kind)
	assert.Equal(t, message.Confirmed, report(vs[1], vs[0].PubKey).Kind, "repeated report is harmless")
	assert.Equal(t, message.Confirmed, report(vs[2], vs[0].PubKey).Kind)
	assert.False(t, ctx.Engine.IsBanned(vs[0].PubKey))
	assert.Equal(t, message.Confirmed, report(vs[3], vs[0].PubKey).Kind)
	assert.True(t, ctx.Engine.IsBanned(vs[0].PubKey))
	require.Len(t, ctx.Engine.Banned(), 1)

	assert.Equal(t, exitcode.BanRejected, report(vs[1], vs[0].PubKey).Code)
	assert.Equal(t, exitcode.ReporterBanned, report(vs[0], vs[1].PubKey).Code)

	// the slashed set comes into force one minute after confirmation
	require.NoError(t, ctx.Step())
	slashed := ctx.Sent[len(ctx.Sent)-1].(*message.SetSlashedValidatorSet)
	assert.Equal(t, vs[0].PubKey, slashed.Banned)
	assert.Len(t, slashed.Validators, 3)
	assert.Len(t, ctx.Engine.ActiveSet(mc), 4)
	ctx.Clock.Advance(60)
	require.NoError(t, ctx.Step())
	active := ctx.Engine.ActiveSet(mc)
	require.Len(t, active, 3)
	for _, v := range active {
		assert.NotEqual(t, vs[0].PubKey, v.PubKey)
	}

	// banning a second validator would leave two
	assert.Equal(t, message.Confirmed, report(vs[1], vs[3].PubKey).Kind)
	assert.Equal(t, exitcode.BanRejected, report(vs[2], vs[3].PubKey).Code)
	assert.False(t, ctx.Engine.IsBanned(vs[3].PubKey))

	err := ctx.Engine.ConfirmSlashedSet(mc)
	assert.ErrorIs(t, err, elector.ErrProtocolViolation)

	// the banned stake is shared at unfreeze
	ctx.Clock.Set(thaw)
	require.NoError(t, ctx.Step())
	assert.Zero(t, ctx.Engine.ComputeReturnedStake(mc, vs[0].Address))
	for _, v := range vs[1:] {
		assert.Equal(t, 8*ton.EVER, ctx.Engine.ComputeReturnedStake(mc, v.Address))
	}
	resp, err := ctx.Recover(vs[0].Wallet)
	require.NoError(t, err)
	assert.Equal(t, exitcode.NothingToRecover, resp.Code)
	assert.NoError(t, ctx.Engine.CheckConservation())
}

func TestComplaintAndVotes(t *testing.T) {
	ctx, vs := fourEqual(t)
	complainer := ctx.NewWallet(mc, 10*ton.EVER)
	outsider := ctx.NewValidator(mc, 10*ton.EVER)
	fine := 2 * ton.EVER

	resp, err := ctx.Complain(complainer, mc, t0+1, vs[3].PubKey, fine, 2*ton.EVER)
	require.NoError(t, err)
	assert.Equal(t, exitcode.UnknownElection, resp.Code)
	assert.Equal(t, 2*ton.EVER, resp.Amount)

	resp, err = ctx.Complain(complainer, mc, t0, vs[3].PubKey, fine, ton.EVER/2)
	require.NoError(t, err)
	assert.Equal(t, exitcode.InsufficientPayment, resp.Code)

	resp, err = ctx.Complain(complainer, mc, t0, vs[3].PubKey, fine, 3*ton.EVER/2)
	require.NoError(t, err)
	assert.Equal(t, message.Confirmed, resp.Kind)
	assert.Equal(t, ton.EVER/2, resp.Amount)
	assert.Equal(t, 9*ton.EVER, complainer.Balance)

	resp, err = ctx.Complain(complainer, mc, t0, vs[3].PubKey, fine, 3*ton.EVER/2)
	require.NoError(t, err)
	assert.Equal(t, exitcode.DuplicateComplaint, resp.Code)

	hash := message.ComplaintHash(t0, vs[3].PubKey, fine, complainer.Address)
	vote := func(v *sim.Validator, h ton.Bytes32) message.Response {
		t.Helper()
		resp, err := ctx.Vote(v, t0, h)
		require.NoError(t, err)
		return resp
	}

	assert.Equal(t, exitcode.UnknownComplaint, vote(vs[0], ton.Bytes32{1}).Code)
	assert.Equal(t, exitcode.VoterNotValidator, vote(outsider, hash).Code)
	assert.Equal(t, exitcode.VoteRecorded, vote(vs[0], hash).Code)
	assert.Equal(t, exitcode.AlreadyVoted, vote(vs[0], hash).Code)
	assert.Equal(t, exitcode.VoteRecorded, vote(vs[1], hash).Code)
	resp = vote(vs[2], hash)
	assert.Equal(t, message.Confirmed, resp.Kind)
	assert.Equal(t, exitcode.ThresholdReached, resp.Code)
	assert.Equal(t, exitcode.ComplaintResolved, vote(vs[3], hash).Code)

	assert.Equal(t, fine>>3, ctx.Engine.ComputeReturnedStake(mc, complainer.Address))
	_, own := ctx.Engine.Balance(mc)
	assert.Equal(t, ton.EVER+fine-fine>>3, own)
	assert.Equal(t, 4*ton.EVER, ctx.Engine.PastElections(mc)[0].Frozen[vs[3].PubKey].Weight)

	ctx.Clock.Set(thaw)
	require.NoError(t, ctx.Step())
	assert.Equal(t, 4*ton.EVER, ctx.Engine.ComputeReturnedStake(mc, vs[3].Address))
	assert.Equal(t, 6*ton.EVER, ctx.Engine.ComputeReturnedStake(mc, vs[0].Address))

	resp, err = ctx.Complain(complainer, mc, t0, vs[2].PubKey, fine, 2*ton.EVER)
	require.NoError(t, err)
	assert.Equal(t, exitcode.UnknownElection, resp.Code, "no complaints once unfrozen")
	assert.NoError(t, ctx.Engine.CheckConservation())
}

func TestVotesAfterUnfreeze(t *testing.T) {
	ctx, vs := fourEqual(t)
	complainer := ctx.NewWallet(mc, 10*ton.EVER)
	fine := 2 * ton.EVER
	resp, err := ctx.Complain(complainer, mc, t0, vs[0].PubKey, fine, 3*ton.EVER/2)
	require.NoError(t, err)
	require.Equal(t, message.Confirmed, resp.Kind)

	ctx.Clock.Set(thaw)
	require.NoError(t, ctx.Step())
	require.Equal(t, 6*ton.EVER, ctx.Engine.ComputeReturnedStake(mc, vs[0].Address))
	_, own := ctx.Engine.Balance(mc)

	hash := message.ComplaintHash(t0, vs[0].PubKey, fine, complainer.Address)
	for _, v := range vs[1:] {
		resp, err := ctx.Vote(v, t0, hash)
		require.NoError(t, err)
		assert.Equal(t, message.Error, resp.Kind)
		assert.Equal(t, exitcode.UnknownElection, resp.Code)
	}
	assert.False(t, ctx.Engine.PastElections(mc)[0].Complaints[hash].Resolved)
	assert.Equal(t, 6*ton.EVER, ctx.Engine.ComputeReturnedStake(mc, vs[0].Address))
	assert.Zero(t, ctx.Engine.ComputeReturnedStake(mc, complainer.Address))
	_, after := ctx.Engine.Balance(mc)
	assert.Equal(t, own, after)
	assert.NoError(t, ctx.Engine.CheckConservation())
}

func TestBounceAndRetry(t *testing.T) {
	ctx := newWorld(t, nil)
	vs := newValidators(ctx, 3)
	id := openElection(t, ctx)
	mustConfirm(t)(ctx.Stake(vs[0], id, 10*ton.EVER, factor))
	mustConfirm(t)(ctx.Stake(vs[1], id, 6*ton.EVER, factor))

	// a rejected stake to a defunct wallet stays owed
	vs[2].ToggleDefunct()
	resp, err := ctx.Stake(vs[2], id, ton.EVER, factor)
	require.NoError(t, err)
	assert.True(t, resp.Bounced)
	assert.Equal(t, ton.EVER, ctx.Engine.ComputeReturnedStake(mc, vs[2].Address))
	vs[2].ToggleDefunct()
	mustConfirm(t)(ctx.Stake(vs[2], id, 6*ton.EVER, factor))

	install(t, ctx)
	require.True(t, vs[0].ToggleDefunct())
	resp, err = ctx.Recover(vs[0].Wallet)
	require.NoError(t, err)
	assert.Equal(t, message.Refund, resp.Kind)
	assert.True(t, resp.Bounced)
	assert.Equal(t, 90*ton.EVER, vs[0].Balance)
	assert.Equal(t, 4*ton.EVER, ctx.Engine.ComputeReturnedStake(mc, vs[0].Address))
	assert.NoError(t, ctx.Engine.CheckConservation())

	require.False(t, vs[0].ToggleDefunct())
	resp, err = ctx.Recover(vs[0].Wallet)
	require.NoError(t, err)
	assert.False(t, resp.Bounced)
	assert.Equal(t, 4*ton.EVER, resp.Amount)
	assert.Equal(t, 94*ton.EVER, vs[0].Balance)

	resp, err = ctx.Recover(vs[2].Wallet)
	require.NoError(t, err)
	assert.Equal(t, ton.EVER, resp.Amount)
	assert.Equal(t, 94*ton.EVER, vs[2].Balance)
	assert.NoError(t, ctx.Engine.CheckConservation())
}

func TestReplay(t *testing.T) {
	ctx := newWorld(t, nil)
	vs := newValidators(ctx, 1)
	id := openElection(t, ctx)

	req := sim.StakeRequest(vs[0], id, 6*ton.EVER, factor)
	first, err := ctx.Send(vs[0].Wallet, req)
	require.NoError(t, err)
	again, err := ctx.Send(vs[0].Wallet, req)
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Equal(t, 94*ton.EVER, vs[0].Balance)
	assert.Equal(t, 6*ton.EVER, ctx.Engine.Election(mc).TotalStake)

	snap, err := ctx.Engine.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Answered)
	assert.Empty(t, snap.Pending)
}

func TestReplayValueBounces(t *testing.T) {
	ctx := newWorld(t, nil)
	vs := newValidators(ctx, 1)
	id := openElection(t, ctx)

	req := sim.StakeRequest(vs[0], id, 6*ton.EVER, factor)
	first, err := ctx.Send(vs[0].Wallet, req)
	require.NoError(t, err)
	require.Equal(t, message.Confirmed, first.Kind)
	held, _ := ctx.Engine.Balance(mc)

	// the repeated value cannot be delivered and stays owed
	vs[0].ToggleDefunct()
	again, err := ctx.Send(vs[0].Wallet, req)
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Equal(t, 88*ton.EVER, vs[0].Balance)
	assert.Equal(t, 6*ton.EVER, ctx.Engine.ComputeReturnedStake(mc, vs[0].Address))
	balance, _ := ctx.Engine.Balance(mc)
	assert.Equal(t, held+6*ton.EVER, balance)
	assert.Equal(t, 100*ton.EVER, vs[0].Balance+balance)
	assert.Equal(t, 6*ton.EVER, ctx.Engine.Election(mc).TotalStake)
	assert.NoError(t, ctx.Engine.CheckConservation())

	vs[0].ToggleDefunct()
	resp, err := ctx.Recover(vs[0].Wallet)
	require.NoError(t, err)
	assert.Equal(t, message.Refund, resp.Kind)
	assert.Equal(t, 6*ton.EVER, resp.Amount)
	assert.Equal(t, 94*ton.EVER, vs[0].Balance)
	assert.NoError(t, ctx.Engine.CheckConservation())
}

// foreignRequest is a request type the elector does not serve.
type foreignRequest struct {
	message.Header
}

func (*foreignRequest) Kind() message.Kind { return message.Kind(0) }

func TestFailedRequestLeavesNoTrace(t *testing.T) {
	ctx := newWorld(t, nil)
	w := ctx.NewWallet(mc, 10*ton.EVER)
	balance, own := ctx.Engine.Balance(mc)

	_, err := ctx.Send(w, &foreignRequest{message.Header{Workchain: mc, Source: w.Address, QueryID: 1, Value: 5 * ton.EVER}})
	require.Error(t, err)
	assert.Equal(t, 10*ton.EVER, w.Balance)
	b, o := ctx.Engine.Balance(mc)
	assert.Equal(t, balance, b)
	assert.Equal(t, own, o)
	assert.NoError(t, ctx.Engine.CheckConservation())

	snap, err := ctx.Engine.Snapshot()
	require.NoError(t, err)
	assert.Zero(t, snap.Answered)
	assert.Empty(t, snap.Pending)
}

func TestProtocolViolations(t *testing.T) {
	ctx := newWorld(t, nil)
	ctx.AutoConfirm = false
	vs := newValidators(ctx, 3)

	assert.ErrorIs(t, ctx.Engine.ConfirmValidatorSet(mc, t0), elector.ErrProtocolViolation)
	assert.ErrorIs(t, ctx.Engine.ConfirmSlashedSet(mc), elector.ErrProtocolViolation)
	assert.ErrorIs(t, ctx.Engine.ConfirmValidatorSet(7, t0), elector.ErrUnknownWorkchain)

	id := openElection(t, ctx)
	for _, v := range vs {
		mustConfirm(t)(ctx.Stake(v, id, 6*ton.EVER, factor))
	}
	ctx.Clock.Set(closeT)
	require.NoError(t, ctx.Step())
	require.Len(t, ctx.Sent, 1)

	assert.ErrorIs(t, ctx.Engine.ConfirmValidatorSet(mc, id+1), elector.ErrProtocolViolation)
	require.NoError(t, ctx.Confirm(ctx.Sent[0]))
	assert.ErrorIs(t, ctx.Confirm(ctx.Sent[0]), elector.ErrProtocolViolation)
	assert.Len(t, ctx.Engine.PastElections(mc), 1)
}

func TestUnknownWorkchain(t *testing.T) {
	ctx := newWorld(t, nil)
	w := ctx.NewWallet(mc, 10*ton.EVER)
	resp, err := ctx.Grant(w, 7, ton.EVER)
	require.NoError(t, err)
	assert.Equal(t, message.Returned, resp.Kind)
	assert.Equal(t, exitcode.UnknownWorkchain, resp.Code)
	assert.Equal(t, 10*ton.EVER, w.Balance)

	// a bounced refund is owed on the masterchain
	w.ToggleDefunct()
	resp, err = ctx.Grant(w, 7, ton.EVER)
	require.NoError(t, err)
	assert.Equal(t, exitcode.UnknownWorkchain, resp.Code)
	assert.True(t, resp.Bounced)
	assert.Equal(t, 9*ton.EVER, w.Balance)
	assert.Equal(t, ton.EVER, ctx.Engine.ComputeReturnedStake(mc, w.Address))
	assert.NoError(t, ctx.Engine.CheckConservation())

	w.ToggleDefunct()
	resp, err = ctx.Recover(w)
	require.NoError(t, err)
	assert.Equal(t, ton.EVER, resp.Amount)
	assert.Equal(t, 10*ton.EVER, w.Balance)
}

func TestUnknownWorkchainWithoutChains(t *testing.T) {
	ctx, err := sim.NewContext(t0)
	require.NoError(t, err)
	w := ctx.NewWallet(mc, 10*ton.EVER)
	_, err = ctx.Grant(w, 7, ton.EVER)
	assert.Error(t, err)
	assert.Equal(t, 10*ton.EVER, w.Balance)
}

func TestGrantWithoutActiveSet(t *testing.T) {
	ctx := newWorld(t, nil)
	w := ctx.NewWallet(mc, 10*ton.EVER)
	mustConfirm(t)(ctx.Grant(w, mc, 3*ton.EVER))
	_, own := ctx.Engine.Balance(mc)
	assert.Equal(t, 3*ton.EVER, own)
	assert.NoError(t, ctx.Engine.CheckConservation())
}

func TestMultiChainCascade(t *testing.T) {
	ctx := newWorld(t, nil)
	cfg := params.Default()
	cfg.Current = params.CurrentSet{UtimeSince: t0, UtimeUntil: t0 + 100_000}
	require.NoError(t, ctx.AddWorkchain(0, cfg))
	assert.Equal(t, []ton.WorkchainID{mc, 0}, ctx.Engine.Workchains())

	require.NoError(t, ctx.Step())
	_, ok := ctx.OpenElection(mc)
	assert.True(t, ok)
	assert.Nil(t, ctx.Engine.Election(0))

	ctx.Clock.Advance(1)
	require.NoError(t, ctx.Step())
	id, ok := ctx.OpenElection(0)
	require.True(t, ok, "masterchain announcement cascades")
	assert.Equal(t, t0+1, id)

	snap, err := ctx.Engine.Snapshot()
	require.NoError(t, err)
	require.Len(t, snap.Chains, 2)
	assert.False(t, snap.Chains[1].Cascaded)
	assert.Equal(t, "open", snap.Chains[1].Phase)
}

func TestUpdateValidatorSetUntil(t *testing.T) {
	ctx, _ := fourEqual(t)
	_, ok := ctx.OpenElection(mc)
	assert.False(t, ok)

	require.NoError(t, ctx.Engine.UpdateValidatorSetUntil(mc, since))
	require.NoError(t, ctx.Step())
	id, ok := ctx.OpenElection(mc)
	require.True(t, ok)
	assert.Equal(t, since, id)
	assert.Len(t, ctx.Engine.PastElections(mc), 1, "previous round keeps its frozen stakes")
}

func TestDeterministicSet(t *testing.T) {
	run := func(reverse bool) []ton.PubKey {
		ctx := newWorld(t, nil)
		vs := newValidators(ctx, 12)
		id := openElection(t, ctx)
		idx := make([]int, len(vs))
		for i := range idx {
			idx[i] = i
			if reverse {
				idx[i] = len(vs) - 1 - i
			}
		}
		for _, i := range idx {
			mustConfirm(t)(ctx.Stake(vs[i], id, uint64(2+i%4)*ton.EVER, factor))
		}
		install(t, ctx)
		var out []ton.PubKey
		for _, v := range ctx.Sent[0].(*message.SetNextValidatorSet).Validators {
			out = append(out, v.PubKey)
		}
		return out
	}
	assert.Equal(t, run(false), run(true))
}
