// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package election

import (
	"sort"

	"github.com/everx-labs/ton-labs-contracts/elector/vset"
	"github.com/everx-labs/ton-labs-contracts/ton"
)

// Phase of the current election of a workchain.
type Phase uint8

const (
	// Closed means there is no running election. The last one, if any, is installed.
	Closed Phase = iota
	// Open accepts stakes.
	Open
	// ConductPending has a proposed set awaiting confirmation by the config collaborator.
	ConductPending
)

func (p Phase) String() string {
	switch p {
	case Open:
		return "open"
	case ConductPending:
		return "conduct-pending"
	default:
		return "closed"
	}
}

// Member is an accepted stake.
type Member struct {
	PubKey    ton.PubKey
	ADNL      ton.Bytes32
	Amount    uint64
	MaxFactor uint32
	Source    ton.Address
	QueryID   uint64
	StakedAt  uint32
}

// Proposal is a conducted validator set waiting to be installed.
type Proposal struct {
	*vset.Result
	Since uint32
	Until uint32
}

// Election is the current election of a workchain.
type Election struct {
	Workchain  ton.WorkchainID
	ElectAt    uint32
	ElectClose uint32
	Open       bool
	Failed     bool
	Finished   bool
	Members    map[ton.PubKey]*Member
	TotalStake uint64
	Proposal   *Proposal
}

func newElection(wc ton.WorkchainID, electAt, electClose uint32) *Election {
	return &Election{
		Workchain:  wc,
		ElectAt:    electAt,
		ElectClose: electClose,
		Open:       true,
		Members:    make(map[ton.PubKey]*Member),
	}
}

// ID is the election id, equal to elect_at.
func (e *Election) ID() uint32 { return e.ElectAt }

// Phase reports where the election is in its life cycle.
func (e *Election) Phase() Phase {
	switch {
	case e == nil || e.Finished:
		return Closed
	case e.Proposal != nil:
		return ConductPending
	case e.Open:
		return Open
	}
	return Closed
}

// Held is the amount of stake this election keeps on the ledger.
func (e *Election) Held() uint64 {
	switch e.Phase() {
	case Open:
		return e.TotalStake
	case ConductPending:
		return e.Proposal.TotalWeight
	}
	return 0
}

// SortedMembers returns members ordered by pubkey.
func (e *Election) SortedMembers() []*Member {
	out := make([]*Member, 0, len(e.Members))
	for _, m := range e.Members {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PubKey.Compare(out[j].PubKey) < 0 })
	return out
}

// HasSource reports whether addr staked in this election and is still held.
func (e *Election) HasSource(addr ton.Address) bool {
	switch e.Phase() {
	case Open:
		for _, m := range e.Members {
			if m.Source == addr {
				return true
			}
		}
	case ConductPending:
		for _, v := range e.Proposal.Elected {
			if v.Source == addr {
				return true
			}
		}
	}
	return false
}
