// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package message

import (
	"encoding/binary"
	"io"

	"github.com/everx-labs/ton-labs-contracts/ton"
)

var (
	tagStake  = []byte{0x65, 0x4c, 0x50, 0x74}
	tagReport = []byte{0x52, 0x50, 0x52, 0x54}
	tagVote   = []byte{0x56, 0x43, 0x4d, 0x50}
)

func putAddress(w io.Writer, a ton.Address) {
	binary.Write(w, binary.BigEndian, int32(a.Workchain))
	w.Write(a.Account[:])
}

// StakeDigest is what a validator signs to submit a stake.
func StakeDigest(s *Stake) ton.Bytes32 {
	return ton.Keccak256(
		tagStake,
		binary.BigEndian.AppendUint32(nil, s.StakeAt),
		binary.BigEndian.AppendUint32(nil, s.MaxFactor),
		binary.BigEndian.AppendUint32(nil, uint32(s.Source.Workchain)),
		s.Source.Account[:],
		s.ADNL[:],
	)
}

// ReportDigest is what a reporter signs.
func ReportDigest(r *Report) ton.Bytes32 {
	return ton.Keccak256(
		tagReport,
		binary.BigEndian.AppendUint32(nil, uint32(r.Workchain)),
		r.Reporter[:],
		r.Victim[:],
		[]byte{r.MetricID},
	)
}

// VoteDigest is what a voter signs.
func VoteDigest(v *Vote) ton.Bytes32 {
	return ton.Keccak256(
		tagVote,
		binary.BigEndian.AppendUint32(nil, v.ElectID),
		v.Complaint[:],
	)
}

// ComplaintHash identifies a complaint within its past election.
func ComplaintHash(electID uint32, victim ton.PubKey, fine uint64, complainer ton.Address) ton.Bytes32 {
	return ton.Blake2bFn(func(w io.Writer) {
		binary.Write(w, binary.BigEndian, electID)
		w.Write(victim[:])
		binary.Write(w, binary.BigEndian, fine)
		putAddress(w, complainer)
	})
}
