// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package freeze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/everx-labs/ton-labs-contracts/elector/election"
	"github.com/everx-labs/ton-labs-contracts/elector/vset"
	"github.com/everx-labs/ton-labs-contracts/ton"
)

func pub(i int) ton.PubKey { return ton.BytesToBytes32([]byte{0xaa, byte(i)}) }

func src(i int) ton.Address { return ton.BytesToAddress(ton.Masterchain, []byte{0xbb, byte(i)}) }

// installed builds a finished election with n validators of the given weight.
func installed(id uint32, n int, weight uint64) *election.Election {
	res := &vset.Result{}
	for i := range n {
		res.Elected = append(res.Elected, vset.Entry{PubKey: pub(i), Source: src(i), Stake: weight, Weight: weight})
		res.TotalWeight += weight
	}
	return &election.Election{
		ElectAt:    id,
		ElectClose: id + 100,
		Finished:   true,
		Proposal:   &election.Proposal{Result: res, Since: id + 200, Until: id + 1200},
	}
}

func TestFreezeAndActivate(t *testing.T) {
	s := NewScheduler(ton.Masterchain)

	_, err := s.Freeze(&election.Election{ElectAt: 1}, 10)
	assert.Error(t, err)

	pe, err := s.Freeze(installed(1000, 3, 10), 500)
	require.NoError(t, err)
	assert.Equal(t, uint32(1600), pe.UnfreezeAt)
	assert.Equal(t, uint64(30), pe.Held())
	assert.Equal(t, uint64(30), s.Held())
	assert.Equal(t, uint64(10), pe.Weight(pub(1)))
	assert.Zero(t, pe.Weight(pub(9)))
	assert.True(t, pe.Elected(pub(2)))

	_, err = s.Freeze(installed(1000, 3, 10), 500)
	assert.Error(t, err)

	// not active before since
	assert.Nil(t, s.Activate(1199))
	assert.False(t, s.Grant(5))
	assert.Same(t, pe, s.Activate(1200))
	assert.Nil(t, s.Activate(1300), "already active")
	assert.True(t, s.Grant(5))
	assert.Equal(t, uint64(35), s.Held())

	pe2, err := s.Freeze(installed(2000, 3, 20), 500)
	require.NoError(t, err)
	assert.Nil(t, s.Activate(2100))
	assert.Same(t, pe2, s.Activate(2200))
	assert.Same(t, pe2, s.Active())
	assert.Equal(t, []*PastElection{pe, pe2}, s.All())

	assert.True(t, s.IsFrozen(src(0)))
	assert.False(t, s.IsFrozen(src(7)))
}

func TestUnfreezeWithBonuses(t *testing.T) {
	s := NewScheduler(0)
	pe, err := s.Freeze(installed(1000, 3, 10), 500)
	require.NoError(t, err)
	s.Activate(1200)
	require.True(t, s.Grant(7))

	assert.Empty(t, s.Due(1599))
	require.Equal(t, []*PastElection{pe}, s.Due(1600))

	rel, err := s.Unfreeze(pe, nil)
	require.NoError(t, err)
	require.Len(t, rel.Payouts, 3)
	for _, p := range rel.Payouts {
		assert.Equal(t, uint64(12), p.Amount)
	}
	assert.Equal(t, uint64(1), rel.OwnFunds)
	assert.Zero(t, rel.Forfeited)
	assert.True(t, pe.Unfrozen)
	assert.Zero(t, s.Held())
	assert.Empty(t, s.Due(5000))
	assert.False(t, s.IsFrozen(src(0)))
	assert.False(t, s.Grant(1), "unfrozen set takes no more grants")

	_, err = s.Unfreeze(pe, nil)
	assert.Error(t, err)
}

func TestUnfreezeBanned(t *testing.T) {
	s := NewScheduler(0)
	pe, err := s.Freeze(installed(1000, 4, 10), 500)
	require.NoError(t, err)

	rel, err := s.Unfreeze(pe, func(pk ton.PubKey) bool { return pk == pub(0) })
	require.NoError(t, err)
	assert.Equal(t, uint64(10), rel.Forfeited)
	require.Len(t, rel.Payouts, 3)
	var total uint64
	for _, p := range rel.Payouts {
		assert.NotEqual(t, pub(0), p.PubKey)
		total += p.Amount
	}
	assert.Equal(t, uint64(39), total)
	assert.Equal(t, uint64(1), rel.OwnFunds)
	assert.True(t, pe.Frozen[pub(0)].Banned)
	assert.Equal(t, uint64(10), pe.Weight(pub(0)), "elected weight is kept for the record")
}

func TestUnfreezeAllBanned(t *testing.T) {
	s := NewScheduler(0)
	pe, err := s.Freeze(installed(1000, 2, 10), 500)
	require.NoError(t, err)
	rel, err := s.Unfreeze(pe, func(ton.PubKey) bool { return true })
	require.NoError(t, err)
	assert.Empty(t, rel.Payouts)
	assert.Equal(t, uint64(20), rel.OwnFunds)
}
