// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakes

import (
	"github.com/holiman/uint256"
)

// DustShift sets the anti-dust ratio: a stake must exceed total >> DustShift.
const DustShift = 12

// WeightedStake is a stake together with the weight it counts for after clipping.
type WeightedStake struct {
	amount uint64
	weight uint64
}

// NewWeightedStake clips amount to max_factor * base, where factor is a 16.16 fixed point number.
func NewWeightedStake(amount uint64, factor uint32, base uint64) *WeightedStake {
	return &WeightedStake{
		amount: amount,
		weight: Clip(amount, factor, base),
	}
}

func (s *WeightedStake) Amount() uint64 { return s.amount }
func (s *WeightedStake) Weight() uint64 { return s.weight }

// Excess is the part of the stake that does not count and is returned.
func (s *WeightedStake) Excess() uint64 { return s.amount - s.weight }

// Clip returns min(amount, factor * base >> 16). The product is computed in
// 256 bits so large bases cannot overflow.
func Clip(amount uint64, factor uint32, base uint64) uint64 {
	limit := new(uint256.Int).Mul(uint256.NewInt(uint64(factor)), uint256.NewInt(base))
	limit.Rsh(limit, 16)
	if limit.IsUint64() && limit.Uint64() < amount {
		return limit.Uint64()
	}
	return amount
}

// IsDust reports whether amount is too small relative to the total already
// accepted, i.e. amount <= total / 4096.
func IsDust(amount, total uint64) bool {
	return amount <= total>>DustShift
}

// Supermajority reports whether weight reaches two thirds of total.
func Supermajority(weight, total uint64) bool {
	lhs := new(uint256.Int).Mul(uint256.NewInt(weight), uint256.NewInt(3))
	rhs := new(uint256.Int).Mul(uint256.NewInt(total), uint256.NewInt(2))
	return !lhs.Lt(rhs)
}
