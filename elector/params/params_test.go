// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package params

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/everx-labs/ton-labs-contracts/ton"
)

func TestBlobs(t *testing.T) {
	cfg := Default()
	cfg.Current = CurrentSet{UtimeSince: 83400, UtimeUntil: 89400}

	blobs, err := Encode(cfg)
	require.NoError(t, err)
	assert.Equal(t, []uint32{15, 16, 17, 34}, blobs.Indices())

	// unknown indices are carried but ignored
	blobs[36] = []byte{0xde, 0xad}
	blobs[100] = nil

	decoded, err := Decode(blobs)
	require.NoError(t, err)
	assert.Equal(t, cfg.Timing, decoded.Timing)
	assert.Equal(t, cfg.Counts, decoded.Counts)
	assert.Equal(t, cfg.StakeBounds, decoded.StakeBounds)
	assert.Equal(t, cfg.Current, decoded.Current)
	assert.Equal(t, uint32(60), decoded.SlashActivationDelay)
	assert.NotNil(t, decoded.Window)

	delete(blobs, IndexCounts)
	_, err = Decode(blobs)
	assert.ErrorContains(t, err, "missing param 16")

	blobs[IndexCounts] = []byte{0x01}
	_, err = Decode(blobs)
	assert.ErrorContains(t, err, "decode param 16")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.MinValidators = 8
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.MaxStakeFactor = FactorOne - 1
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.MinStake = cfg.MaxStake + 1
	assert.Error(t, cfg.Validate())
}

func TestWindows(t *testing.T) {
	tm := Default().Timing

	at, closeAt := OffsetWindow(1000, 0, tm)
	assert.Equal(t, uint32(1000), at)
	assert.Equal(t, uint32(1000+6000-1800), closeAt)

	at, closeAt = BoundaryWindow(1000, 10000, tm)
	assert.Equal(t, uint32(10000), at)
	assert.Equal(t, uint32(10000-1800), closeAt)

	// boundary already too close
	at, _ = BoundaryWindow(9000, 10000, tm)
	assert.Equal(t, uint32(9000), at)
}

func TestValidity(t *testing.T) {
	tm := Default().Timing

	since, until := ConductValidity(5200, 5200, tm)
	assert.Equal(t, uint32(7000), since)
	assert.Equal(t, since+tm.ElectFor, until)

	// conducted late
	since, until = ConductValidity(6000, 5200, tm)
	assert.Equal(t, uint32(6000+1800-60), since)
	assert.Equal(t, since+tm.ElectFor, until)

	assert.Equal(t, uint32(7000), EndBeforeDeadline(5200, tm))
}

func TestMaxFactorPolicies(t *testing.T) {
	f, ok := ClampMaxFactor(0xffff, 0x30000)
	assert.False(t, ok)
	assert.Zero(t, f)

	f, ok = ClampMaxFactor(0x20000, 0x30000)
	assert.True(t, ok)
	assert.Equal(t, uint32(0x20000), f)

	f, ok = ClampMaxFactor(0x50000, 0x30000)
	assert.True(t, ok)
	assert.Equal(t, uint32(0x30000), f)

	sentinel := RejectFactors(0xffff)
	_, ok = sentinel(0xffff, 0x30000)
	assert.False(t, ok)
	f, ok = sentinel(0x8000, 0x30000)
	assert.True(t, ok)
	assert.Equal(t, FactorOne, f)
}

func TestClipBase(t *testing.T) {
	assert.Equal(t, 2*ton.EVER, ClipMinStake(2*ton.EVER, []uint64{5, 6}))
	assert.Equal(t, uint64(5), ClipMinElected(2*ton.EVER, []uint64{9, 5, 6}))
	assert.Equal(t, uint64(7), ClipMinElected(7, nil))
}

func TestParseYAML(t *testing.T) {
	cfg, err := ParseYAML([]byte(`
timing:
  elect_for: 6000
  elect_begin_before: 3600
  elect_end_before: 1800
  stake_held: 32768
counts:
  max_validators: 7
  max_main_validators: 100
  min_validators: 3
stake_bounds:
  min_stake: 2000000000
  max_stake: 50000000000
  min_total_stake: 10000000000
  max_stake_factor: 196608
window: boundary
clip_base: min_elected
`))
	require.NoError(t, err)
	assert.Equal(t, Default().Timing, cfg.Timing)
	assert.Equal(t, Default().StakeBounds, cfg.StakeBounds)

	at, _ := cfg.Window(0, 100000, cfg.Timing)
	assert.Equal(t, uint32(100000), at)
	assert.Equal(t, uint64(3), cfg.ClipBase(1, []uint64{3, 4}))

	_, err = ParseYAML([]byte("window: weird\n"))
	assert.Error(t, err)

	roundTrip, err := Default().ToFile().Config()
	require.NoError(t, err)
	assert.Equal(t, Default().Counts, roundTrip.Counts)
}
