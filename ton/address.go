// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ton

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// WorkchainID identifies a workchain. The masterchain is -1.
type WorkchainID int32

// Masterchain is the workchain that sequences elections of all other chains.
const Masterchain WorkchainID = -1

// IsMasterchain reports whether id denotes the masterchain.
func (id WorkchainID) IsMasterchain() bool { return id == Masterchain }

func (id WorkchainID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Address is a raw account address in `workchain:account` form.
type Address struct {
	Workchain WorkchainID
	Account   Bytes32
}

// ZeroAddress is the masterchain address with an all-zero account id.
// Value sent from it is treated as a grant rather than a transfer.
var ZeroAddress = Address{Workchain: Masterchain}

// IsZero reports whether a is the zero address.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// String implements the stringer interface
func (a Address) String() string {
	return a.Workchain.String() + ":" + a.Account.String()[2:]
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(data []byte) error {
	parsed, err := ParseAddress(string(data))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAddress converts `wc:hex` into Address.
func ParseAddress(s string) (Address, error) {
	wc, account, ok := strings.Cut(s, ":")
	if !ok {
		return Address{}, errors.New("missing workchain separator")
	}
	id, err := strconv.ParseInt(wc, 10, 32)
	if err != nil {
		return Address{}, errors.Wrap(err, "parse workchain")
	}
	acc, err := ParseBytes32(account)
	if err != nil {
		return Address{}, errors.Wrap(err, "parse account")
	}
	return Address{Workchain: WorkchainID(id), Account: acc}, nil
}

// MustParseAddress convert string presented address into Address type, panic on error.
func MustParseAddress(s string) Address {
	addr, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return addr
}

// BytesToAddress builds an address on the given workchain from raw account bytes.
func BytesToAddress(wc WorkchainID, b []byte) Address {
	return Address{Workchain: wc, Account: BytesToBytes32(b)}
}
