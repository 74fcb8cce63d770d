// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package params holds the per-workchain election parameters. They arrive as
// opaque blobs keyed by configuration index and are decoded once when the
// workchain is added.
package params

import (
	"sort"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/everx-labs/ton-labs-contracts/ton"
)

// Configuration indices understood by the engine.
const (
	IndexTiming      uint32 = 15
	IndexCounts      uint32 = 16
	IndexStakeBounds uint32 = 17
	IndexCurrentSet  uint32 = 34
)

// FactorOne is the fixed point unit of max_factor.
const FactorOne uint32 = 0x10000

// Timing is configuration index 15.
type Timing struct {
	ElectFor         uint32 `yaml:"elect_for"`
	ElectBeginBefore uint32 `yaml:"elect_begin_before"`
	ElectEndBefore   uint32 `yaml:"elect_end_before"`
	StakeHeld        uint32 `yaml:"stake_held"`
}

// Counts is configuration index 16.
type Counts struct {
	MaxValidators     uint32 `yaml:"max_validators"`
	MaxMainValidators uint32 `yaml:"max_main_validators"`
	MinValidators     uint32 `yaml:"min_validators"`
}

// StakeBounds is configuration index 17.
type StakeBounds struct {
	MinStake       uint64 `yaml:"min_stake"`
	MaxStake       uint64 `yaml:"max_stake"`
	MinTotalStake  uint64 `yaml:"min_total_stake"`
	MaxStakeFactor uint32 `yaml:"max_stake_factor"`
}

// CurrentSet is the validity window of the validator set in force when the
// workchain is added (configuration index 34).
type CurrentSet struct {
	UtimeSince uint32 `yaml:"utime_since"`
	UtimeUntil uint32 `yaml:"utime_until"`
}

// Blobs are raw configuration parameters keyed by index.
type Blobs map[uint32][]byte

// Config is the decoded parameter set of one workchain plus the policies the
// engine applies to it.
type Config struct {
	Timing
	Counts
	StakeBounds
	Current CurrentSet

	Window          WindowPolicy
	Validity        ValidityPolicy
	AbandonAt       AbandonPolicy
	AcceptMaxFactor MaxFactorPolicy
	ClipBase        ClipBasePolicy

	SlashActivationDelay  uint32
	ComplaintPrice        uint64
	ComplainerRewardShift uint
	RefundFee             uint64
}

// Default returns the parameters used by the reference test network.
func Default() *Config {
	cfg := &Config{
		Timing: Timing{
			ElectFor:         6000,
			ElectBeginBefore: 3600,
			ElectEndBefore:   1800,
			StakeHeld:        32768,
		},
		Counts: Counts{
			MaxValidators:     7,
			MaxMainValidators: 100,
			MinValidators:     3,
		},
		StakeBounds: StakeBounds{
			MinStake:       2 * ton.EVER,
			MaxStake:       50 * ton.EVER,
			MinTotalStake:  10 * ton.EVER,
			MaxStakeFactor: 3 * FactorOne,
		},
	}
	cfg.SetDefaultPolicies()
	return cfg
}

// SetDefaultPolicies fills unset policy fields.
func (c *Config) SetDefaultPolicies() {
	if c.Window == nil {
		c.Window = OffsetWindow
	}
	if c.Validity == nil {
		c.Validity = ConductValidity
	}
	if c.AbandonAt == nil {
		c.AbandonAt = EndBeforeDeadline
	}
	if c.AcceptMaxFactor == nil {
		c.AcceptMaxFactor = ClampMaxFactor
	}
	if c.ClipBase == nil {
		c.ClipBase = ClipMinStake
	}
	if c.SlashActivationDelay == 0 {
		c.SlashActivationDelay = 60
	}
	if c.ComplaintPrice == 0 {
		c.ComplaintPrice = ton.EVER
	}
	if c.ComplainerRewardShift == 0 {
		c.ComplainerRewardShift = 3
	}
}

// Validate checks parameter consistency.
func (c *Config) Validate() error {
	switch {
	case c.ElectFor == 0:
		return errors.New("elect_for must be positive")
	case c.ElectEndBefore > c.ElectFor:
		return errors.New("elect_end_before exceeds elect_for")
	case c.MaxValidators == 0:
		return errors.New("max_validators must be positive")
	case c.MinValidators > c.MaxValidators:
		return errors.New("min_validators exceeds max_validators")
	case c.MinStake == 0:
		return errors.New("min_stake must be positive")
	case c.MinStake > c.MaxStake:
		return errors.New("min_stake exceeds max_stake")
	case c.MaxStakeFactor < FactorOne:
		return errors.New("max_stake_factor below 1.0")
	}
	return nil
}

// Encode serializes c into configuration blobs.
func Encode(c *Config) (Blobs, error) {
	blobs := make(Blobs, 4)
	for idx, v := range map[uint32]any{
		IndexTiming:      &c.Timing,
		IndexCounts:      &c.Counts,
		IndexStakeBounds: &c.StakeBounds,
		IndexCurrentSet:  &c.Current,
	} {
		data, err := rlp.EncodeToBytes(v)
		if err != nil {
			return nil, errors.Wrapf(err, "encode param %d", idx)
		}
		blobs[idx] = data
	}
	return blobs, nil
}

// Decode parses blobs into a Config with default policies. Indices 15, 16 and
// 17 are mandatory. Unknown indices are ignored.
func Decode(blobs Blobs) (*Config, error) {
	cfg := &Config{}
	for _, p := range []struct {
		idx      uint32
		v        any
		required bool
	}{
		{IndexTiming, &cfg.Timing, true},
		{IndexCounts, &cfg.Counts, true},
		{IndexStakeBounds, &cfg.StakeBounds, true},
		{IndexCurrentSet, &cfg.Current, false},
	} {
		data, ok := blobs[p.idx]
		if !ok {
			if p.required {
				return nil, errors.Errorf("missing param %d", p.idx)
			}
			continue
		}
		if err := rlp.DecodeBytes(data, p.v); err != nil {
			return nil, errors.Wrapf(err, "decode param %d", p.idx)
		}
	}
	cfg.SetDefaultPolicies()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Indices lists the keys of b in ascending order.
func (b Blobs) Indices() []uint32 {
	keys := make([]uint32, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
