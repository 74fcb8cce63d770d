// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package params

import "slices"

// WindowPolicy computes elect_at and elect_close when an election is
// announced. boundary is the expiry of the validator set currently in force.
type WindowPolicy func(now, boundary uint32, t Timing) (electAt, electClose uint32)

// OffsetWindow opens the election now and closes it elect_for - elect_end_before later.
func OffsetWindow(now, _ uint32, t Timing) (uint32, uint32) {
	return now, now + t.ElectFor - t.ElectEndBefore
}

// BoundaryWindow uses the set expiry as election id and stops accepting
// candidates elect_end_before ahead of it. Falls back to OffsetWindow when
// the boundary has already passed.
func BoundaryWindow(now, boundary uint32, t Timing) (uint32, uint32) {
	if boundary <= now+t.ElectEndBefore {
		return OffsetWindow(now, boundary, t)
	}
	return boundary, boundary - t.ElectEndBefore
}

// ValidityPolicy computes utime_since and utime_until of a freshly conducted set.
type ValidityPolicy func(now, electClose uint32, t Timing) (since, until uint32)

// ConductValidity starts the set elect_end_before after close. A set
// conducted late starts elect_end_before - 60 seconds after the conduct time.
func ConductValidity(now, electClose uint32, t Timing) (uint32, uint32) {
	since := electClose + t.ElectEndBefore
	if late := now + t.ElectEndBefore; late >= 60 && late-60 > since {
		since = late - 60
	}
	return since, since + t.ElectFor
}

// AbandonPolicy returns the moment after which a failed election is dropped.
type AbandonPolicy func(electClose uint32, t Timing) uint32

// EndBeforeDeadline keeps retrying a failed election for elect_end_before seconds past close.
func EndBeforeDeadline(electClose uint32, t Timing) uint32 {
	return electClose + t.ElectEndBefore
}

// MaxFactorPolicy validates a submitted max_factor and returns the effective value.
type MaxFactorPolicy func(factor, limit uint32) (uint32, bool)

// ClampMaxFactor rejects factors below 1.0 and clamps those above limit.
func ClampMaxFactor(factor, limit uint32) (uint32, bool) {
	if factor < FactorOne {
		return 0, false
	}
	return min(factor, limit), true
}

// RejectFactors builds a policy that rejects exactly the given sentinel
// values and otherwise behaves like ClampMaxFactor.
func RejectFactors(sentinels ...uint32) MaxFactorPolicy {
	return func(factor, limit uint32) (uint32, bool) {
		if slices.Contains(sentinels, factor) {
			return 0, false
		}
		if factor < FactorOne {
			return FactorOne, true
		}
		return min(factor, limit), true
	}
}

// ClipBasePolicy picks the base that max_factor multiplies when clipping.
// elected holds the raw amounts of the provisionally elected candidates.
type ClipBasePolicy func(minStake uint64, elected []uint64) uint64

// ClipMinStake clips against the configured min_stake.
func ClipMinStake(minStake uint64, _ []uint64) uint64 {
	return minStake
}

// ClipMinElected clips against the smallest provisionally elected stake.
func ClipMinElected(minStake uint64, elected []uint64) uint64 {
	if len(elected) == 0 {
		return minStake
	}
	return slices.Min(elected)
}
