// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package message defines the closed set of messages exchanged with the elector:
// requests from clients, responses to them, and requests to the config collaborator.
package message

import (
	"fmt"

	"github.com/everx-labs/ton-labs-contracts/elector/exitcode"
	"github.com/everx-labs/ton-labs-contracts/elector/vset"
	"github.com/everx-labs/ton-labs-contracts/ton"
)

// Kind identifies a client request.
type Kind uint8

const (
	KindStake Kind = iota + 1
	KindRecover
	KindReport
	KindComplain
	KindVote
	KindTransfer
	KindGrant
)

func (k Kind) String() string {
	switch k {
	case KindStake:
		return "stake"
	case KindRecover:
		return "recover"
	case KindReport:
		return "report"
	case KindComplain:
		return "complain"
	case KindVote:
		return "vote"
	case KindTransfer:
		return "transfer"
	case KindGrant:
		return "grant"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Header is common to all client requests. Value is the amount attached.
type Header struct {
	Workchain ton.WorkchainID
	Source    ton.Address
	QueryID   uint64
	Value     uint64
}

// ElectorRequest is a client request. The elector serves the request types
// of this package and fails any other.
type ElectorRequest interface {
	Head() *Header
	Kind() Kind
}

func (h *Header) Head() *Header { return h }

// Stake submits a validator candidacy. Value is the stake.
type Stake struct {
	Header
	PubKey    ton.PubKey
	StakeAt   uint32 // election id the stake is meant for
	MaxFactor uint32
	ADNL      ton.Bytes32
	Signature []byte
}

// Recover asks for everything the elector owes the source.
type Recover struct {
	Header
}

// Report is a live misbehaviour report by a validator of the active set.
type Report struct {
	Header
	Reporter  ton.PubKey
	Victim    ton.PubKey
	MetricID  uint8
	Signature []byte
}

// Complain files a paid complaint against a validator of a past election.
// Value pays the complaint price; any excess is returned.
type Complain struct {
	Header
	ElectID uint32
	Victim  ton.PubKey
	Fine    uint64
}

// Vote supports a complaint on behalf of a validator of that election.
type Vote struct {
	Header
	Voter     ton.PubKey
	ElectID   uint32
	Complaint ton.Bytes32
	Signature []byte
}

// Transfer is plain value. From the zero address it is a grant.
type Transfer struct {
	Header
}

// Grant adds Value to the bonus pool of the active validator set.
type Grant struct {
	Header
}

func (*Stake) Kind() Kind    { return KindStake }
func (*Recover) Kind() Kind  { return KindRecover }
func (*Report) Kind() Kind   { return KindReport }
func (*Complain) Kind() Kind { return KindComplain }
func (*Vote) Kind() Kind     { return KindVote }
func (*Transfer) Kind() Kind { return KindTransfer }
func (*Grant) Kind() Kind    { return KindGrant }

// ResponseKind classifies a response.
type ResponseKind uint8

const (
	// Confirmed acknowledges an accepted request.
	Confirmed ResponseKind = iota + 1
	// Returned sends back value the elector had no use for.
	Returned
	// Error reports a failed request without funds.
	Error
	// Refund returns a rejected stake or funds owed.
	Refund
)

func (k ResponseKind) String() string {
	switch k {
	case Confirmed:
		return "confirmed"
	case Returned:
		return "returned"
	case Error:
		return "error"
	case Refund:
		return "refund"
	}
	return fmt.Sprintf("response(%d)", uint8(k))
}

// Response answers a request. Amount is carried to To; Bounced is set when
// delivery failed and the amount was kept as a credit instead.
type Response struct {
	Kind    ResponseKind
	QueryID uint64
	Code    exitcode.Code
	Amount  uint64
	To      ton.Address
	Bounced bool
}

func (r Response) String() string {
	return fmt.Sprintf("%v(query=%d code=%d amount=%d)", r.Kind, r.QueryID, r.Code, r.Amount)
}

// ConfigRequest is sent to the config collaborator.
type ConfigRequest interface {
	Chain() ton.WorkchainID
}

// SetNextValidatorSet proposes a freshly conducted set.
type SetNextValidatorSet struct {
	Workchain   ton.WorkchainID
	ElectID     uint32
	Since       uint32
	Until       uint32
	Validators  []vset.Entry
	TotalWeight uint64
}

// SetSlashedValidatorSet proposes the active set minus banned validators.
type SetSlashedValidatorSet struct {
	Workchain  ton.WorkchainID
	ElectID    uint32
	Validators []vset.Entry
	Banned     ton.PubKey
}

func (r *SetNextValidatorSet) Chain() ton.WorkchainID    { return r.Workchain }
func (r *SetSlashedValidatorSet) Chain() ton.WorkchainID { return r.Workchain }
