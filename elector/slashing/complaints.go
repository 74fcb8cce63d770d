// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package slashing

import (
	"github.com/everx-labs/ton-labs-contracts/elector/exitcode"
	"github.com/everx-labs/ton-labs-contracts/elector/freeze"
	"github.com/everx-labs/ton-labs-contracts/elector/message"
	"github.com/everx-labs/ton-labs-contracts/elector/stakes"
	"github.com/everx-labs/ton-labs-contracts/ton"
)

// ComplaintRequest files a complaint. Paid is the value attached.
type ComplaintRequest struct {
	Complainer ton.Address
	Victim     ton.PubKey
	Fine       uint64
	Paid       uint64
	Now        uint32
}

// Filed is an accepted complaint.
type Filed struct {
	Complaint *freeze.Complaint
	Price     uint64 // kept as own funds
	Excess    uint64 // returned to the complainer
}

// Complain files a complaint against a validator of pe.
func Complain(pe *freeze.PastElection, req *ComplaintRequest, price uint64) (*Filed, error) {
	if pe == nil || pe.Unfrozen {
		return nil, exitcode.New(exitcode.UnknownElection)
	}
	victim, ok := pe.Frozen[req.Victim]
	if !ok {
		return nil, exitcode.New(exitcode.UnknownVictim)
	}
	if req.Fine == 0 || req.Fine > victim.Weight {
		return nil, exitcode.Newf(exitcode.BadFine, "fine %d, frozen %d", req.Fine, victim.Weight)
	}
	if req.Paid < price {
		return nil, exitcode.Newf(exitcode.InsufficientPayment, "paid %d, price %d", req.Paid, price)
	}
	hash := message.ComplaintHash(pe.ElectID, req.Victim, req.Fine, req.Complainer)
	if _, dup := pe.Complaints[hash]; dup {
		return nil, exitcode.New(exitcode.DuplicateComplaint)
	}
	c := &freeze.Complaint{
		Hash:       hash,
		Complainer: req.Complainer,
		Victim:     req.Victim,
		Fine:       req.Fine,
		CreatedAt:  req.Now,
		Voters:     make(map[ton.PubKey]struct{}),
	}
	pe.Complaints[hash] = c
	logger.Debug("complaint filed", "id", pe.ElectID, "victim", req.Victim.AbbrevString(), "fine", req.Fine)
	return &Filed{Complaint: c, Price: price, Excess: req.Paid - price}, nil
}

// Resolution is the outcome of a complaint reaching the threshold.
type Resolution struct {
	Complaint *freeze.Complaint
	Fine      uint64 // actually taken from the victim
	Reward    uint64 // credited to the complainer
	OwnFunds  uint64 // the rest of the fine
}

// Vote counts voter's weight towards a complaint. It returns VoteRecorded,
// or ThresholdReached together with the resolution that fined the victim.
// Votes are refused once the election's stakes have been unfrozen.
// verify is consulted once the voter is known to be eligible.
func Vote(pe *freeze.PastElection, hash ton.Bytes32, voter ton.PubKey, rewardShift uint, verify func() bool) (exitcode.Code, *Resolution, error) {
	if pe == nil || pe.Unfrozen {
		return 0, nil, exitcode.New(exitcode.UnknownElection)
	}
	c, ok := pe.Complaints[hash]
	if !ok {
		return 0, nil, exitcode.New(exitcode.UnknownComplaint)
	}
	if c.Resolved {
		return 0, nil, exitcode.New(exitcode.ComplaintResolved)
	}
	w := pe.Weight(voter)
	if w == 0 {
		return 0, nil, exitcode.New(exitcode.VoterNotValidator)
	}
	if verify != nil && !verify() {
		return 0, nil, exitcode.New(exitcode.BadSignature)
	}
	if _, voted := c.Voters[voter]; voted {
		return 0, nil, exitcode.New(exitcode.AlreadyVoted)
	}
	c.Voters[voter] = struct{}{}
	c.Weight += w
	if !stakes.Supermajority(c.Weight, pe.TotalWeight) {
		return exitcode.VoteRecorded, nil, nil
	}

	c.Resolved = true
	victim := pe.Frozen[c.Victim]
	fine := min(c.Fine, victim.Weight)
	victim.Weight -= fine
	reward := fine >> rewardShift
	logger.Info("complaint resolved", "id", pe.ElectID, "victim", c.Victim.AbbrevString(), "fine", fine, "reward", reward)
	return exitcode.ThresholdReached, &Resolution{
		Complaint: c,
		Fine:      fine,
		Reward:    reward,
		OwnFunds:  fine - reward,
	}, nil
}
