// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ton

import (
	"strconv"
)

// EVER is the number of nanotokens in one token.
const EVER uint64 = 1_000_000_000

// FormatAmount renders a nanotoken amount as a decimal token string.
func FormatAmount(v uint64) string {
	whole := strconv.FormatUint(v/EVER, 10)
	frac := v % EVER
	if frac == 0 {
		return whole
	}
	s := strconv.FormatUint(frac+EVER, 10)[1:]
	for s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	return whole + "." + s
}
