// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package datagen

import (
	"crypto/rand"

	"github.com/everx-labs/ton-labs-contracts/ton"
)

func RandBytes32() (b ton.Bytes32) {
	rand.Read(b[:])
	return
}

func RandPubKey() ton.PubKey {
	return RandBytes32()
}

func RandAddress(wc ton.WorkchainID) ton.Address {
	return ton.Address{Workchain: wc, Account: RandBytes32()}
}
