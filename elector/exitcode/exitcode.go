// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package exitcode enumerates the numeric codes returned to callers when a
// request is rejected, and the error type that carries them internally.
package exitcode

import (
	"strconv"

	"github.com/pkg/errors"
)

// Code is a numeric status returned in a response.
type Code uint32

// Stake codes. Checked in the order 3, 6, 2, 5, 7, 4, 1.
const (
	OK             Code = 0
	BadSignature   Code = 1
	StakeTooSmall  Code = 2 // below 1/4096 of the accepted total
	BadElectionID  Code = 3
	DuplicateStake Code = 4
	BelowMinStake  Code = 5
	BadMaxFactor   Code = 6
	AboveMaxStake  Code = 7
)

// Vote status codes.
const (
	VoteRecorded     Code = 1
	ThresholdReached Code = 2
)

// Report codes.
const (
	ReporterNotValidator Code = 130
	ReportSelf           Code = 131
	VictimNotValidator   Code = 132
	ReporterBanned       Code = 133
	NoActiveSet          Code = 134
	BanRejected          Code = 141
)

// Complaint and vote codes.
const (
	UnknownElection     Code = 150
	UnknownVictim       Code = 151
	InsufficientPayment Code = 152
	DuplicateComplaint  Code = 153
	BadFine             Code = 154
	UnknownComplaint    Code = 155
	VoterNotValidator   Code = 156
	AlreadyVoted        Code = 157
	ComplaintResolved   Code = 158
)

// Recover and routing codes.
const (
	NothingToRecover Code = 160
	StakeFrozen      Code = 161
	UnknownWorkchain Code = 170
)

var names = map[Code]string{
	OK:                   "ok",
	BadSignature:         "bad signature",
	StakeTooSmall:        "stake too small relative to total",
	BadElectionID:        "election id mismatch",
	DuplicateStake:       "duplicate stake",
	BelowMinStake:        "stake below minimum",
	BadMaxFactor:         "max factor out of range",
	AboveMaxStake:        "stake above maximum",
	ReporterNotValidator: "reporter is not an active validator",
	ReportSelf:           "reporter is the victim",
	VictimNotValidator:   "victim is not an active validator",
	ReporterBanned:       "reporter is banned",
	NoActiveSet:          "no active validator set",
	BanRejected:          "ban rejected",
	UnknownElection:      "unknown election",
	UnknownVictim:        "victim not elected",
	InsufficientPayment:  "insufficient complaint payment",
	DuplicateComplaint:   "duplicate complaint",
	BadFine:              "bad fine",
	UnknownComplaint:     "unknown complaint",
	VoterNotValidator:    "voter is not a validator of the election",
	AlreadyVoted:         "already voted",
	ComplaintResolved:    "complaint already resolved",
	NothingToRecover:     "nothing to recover",
	StakeFrozen:          "stake is frozen",
	UnknownWorkchain:     "unknown workchain",
}

func (c Code) String() string {
	if n, ok := names[c]; ok {
		return n
	}
	return "code " + strconv.FormatUint(uint64(c), 10)
}

// Error is a validation rejection. It never represents a fault of the engine.
type Error struct {
	Code    Code
	message string
}

// New creates a rejection with the given code.
func New(code Code) *Error {
	return &Error{Code: code, message: code.String()}
}

// Newf creates a rejection with the given code and a detail message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, message: code.String() + ": " + errors.Errorf(format, args...).Error()}
}

func (e *Error) Error() string {
	return e.message
}

// IsExitErr reports whether err is, or wraps, a rejection.
func IsExitErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ee *Error
	return errors.As(e, &ee)
}

// CodeOf extracts the code of a rejection. ok is false for other errors.
func CodeOf(err error) (Code, bool) {
	var ee *Error
	if errors.As(err, &ee) {
		return ee.Code, true
	}
	return OK, false
}
