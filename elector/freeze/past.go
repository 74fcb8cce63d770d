// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package freeze

import (
	"sort"

	"github.com/everx-labs/ton-labs-contracts/elector/vset"
	"github.com/everx-labs/ton-labs-contracts/ton"
)

// Frozen is the stake of one elected validator held for the term.
type Frozen struct {
	PubKey ton.PubKey
	Source ton.Address
	Weight uint64
	Banned bool
}

// Complaint against a validator of a past election.
type Complaint struct {
	Hash       ton.Bytes32
	Complainer ton.Address
	Victim     ton.PubKey
	Fine       uint64
	CreatedAt  uint32
	Voters     map[ton.PubKey]struct{}
	Weight     uint64
	Resolved   bool
}

// PastElection is an installed election whose stakes are frozen until UnfreezeAt.
type PastElection struct {
	ElectID     uint32
	ElectClose  uint32
	UnfreezeAt  uint32
	Since       uint32
	Until       uint32
	TotalWeight uint64
	Validators  []vset.Entry
	Frozen      map[ton.PubKey]*Frozen
	Bonuses     uint64
	Complaints  map[ton.Bytes32]*Complaint
	Unfrozen    bool
}

// Held is what this election keeps on the ledger.
func (p *PastElection) Held() uint64 {
	if p.Unfrozen {
		return 0
	}
	sum := p.Bonuses
	for _, f := range p.Frozen {
		sum += f.Weight
	}
	return sum
}

// Weight returns the weight pubkey was elected with, or 0. Fines and
// unfreezing do not change it.
func (p *PastElection) Weight(pk ton.PubKey) uint64 {
	for i := range p.Validators {
		if p.Validators[i].PubKey == pk {
			return p.Validators[i].Weight
		}
	}
	return 0
}

// Elected reports whether pubkey was elected.
func (p *PastElection) Elected(pk ton.PubKey) bool {
	_, ok := p.Frozen[pk]
	return ok
}

// SortedComplaints returns complaints ordered by creation time then hash.
func (p *PastElection) SortedComplaints() []*Complaint {
	out := make([]*Complaint, 0, len(p.Complaints))
	for _, c := range p.Complaints {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].Hash.Compare(out[j].Hash) < 0
	})
	return out
}
