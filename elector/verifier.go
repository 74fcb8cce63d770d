// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package elector

import (
	"crypto/ed25519"

	"github.com/everx-labs/ton-labs-contracts/ton"
)

// Verifier checks that sig is pub's signature of digest.
type Verifier interface {
	Verify(pub ton.PubKey, digest ton.Bytes32, sig []byte) bool
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc func(pub ton.PubKey, digest ton.Bytes32, sig []byte) bool

func (f VerifierFunc) Verify(pub ton.PubKey, digest ton.Bytes32, sig []byte) bool {
	return f(pub, digest, sig)
}

// Ed25519Verifier treats pubkeys as ed25519 public keys.
type Ed25519Verifier struct{}

func (Ed25519Verifier) Verify(pub ton.PubKey, digest ton.Bytes32, sig []byte) bool {
	if len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pub[:]), digest[:], sig)
}

// AcceptAll accepts every signature.
var AcceptAll = VerifierFunc(func(ton.PubKey, ton.Bytes32, []byte) bool { return true })
