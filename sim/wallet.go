// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package sim

import (
	"crypto/ed25519"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/everx-labs/ton-labs-contracts/elector/message"
	"github.com/everx-labs/ton-labs-contracts/ton"
)

var (
	ErrDefunct      = errors.New("recipient is defunct")
	ErrNoAccount    = errors.New("no such account")
	ErrInsufficient = errors.New("insufficient wallet balance")
)

// Wallet is an account talking to the elector.
type Wallet struct {
	Address  ton.Address
	Balance  uint64
	Received []message.Response

	defunct bool
	queryID uint64
}

// ToggleDefunct makes the wallet bounce incoming value, or accept it again.
func (w *Wallet) ToggleDefunct() bool {
	w.defunct = !w.defunct
	return w.defunct
}

func (w *Wallet) Defunct() bool { return w.defunct }

// NextQueryID returns a fresh query id.
func (w *Wallet) NextQueryID() uint64 {
	w.queryID++
	return w.queryID
}

// Last returns the last response that reached the wallet.
func (w *Wallet) Last() (message.Response, bool) {
	if len(w.Received) == 0 {
		return message.Response{}, false
	}
	return w.Received[len(w.Received)-1], true
}

func (w *Wallet) header(wc ton.WorkchainID, value uint64) message.Header {
	return message.Header{Workchain: wc, Source: w.Address, QueryID: w.NextQueryID(), Value: value}
}

// Validator is a wallet owning a signing key.
type Validator struct {
	*Wallet
	PubKey ton.PubKey
	ADNL   ton.Bytes32
	key    ed25519.PrivateKey
}

// newValidator derives the key from seed so runs are reproducible.
func newValidator(w *Wallet, seed uint64) *Validator {
	s := ton.Blake2b([]byte("validator"), binary.BigEndian.AppendUint64(nil, seed))
	key := ed25519.NewKeyFromSeed(s[:])
	v := &Validator{
		Wallet: w,
		ADNL:   ton.Blake2b([]byte("adnl"), s[:]),
		key:    key,
	}
	copy(v.PubKey[:], key.Public().(ed25519.PublicKey))
	return v
}

// Sign signs digest with the validator key.
func (v *Validator) Sign(digest ton.Bytes32) []byte {
	return ed25519.Sign(v.key, digest[:])
}
