// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ton

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseBytes32(t *testing.T) {
	hexStr := "0x0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f20"
	b, err := ParseBytes32(hexStr)
	require.NoError(t, err)
	assert.Equal(t, hexStr, b.String())
	assert.Equal(t, byte(1), b[0])

	_, err = ParseBytes32("0x01")
	assert.Error(t, err)

	_, err = ParseBytes32("1x" + hexStr[2:])
	assert.Error(t, err)

	assert.True(t, Bytes32{}.IsZero())
	assert.Equal(t, -1, Bytes32{}.Compare(b))
	assert.Equal(t, 0, b.Compare(b))
}

func TestBytesToBytes32(t *testing.T) {
	b := BytesToBytes32([]byte{1, 2})
	assert.Equal(t, byte(1), b[30])
	assert.Equal(t, byte(2), b[31])
}

func TestAddress(t *testing.T) {
	addr := BytesToAddress(0, []byte{0xab})
	s := addr.String()
	assert.Equal(t, "0:00000000000000000000000000000000000000000000000000000000000000ab", s)

	parsed, err := ParseAddress(s)
	require.NoError(t, err)
	assert.Equal(t, addr, parsed)

	assert.True(t, MustParseAddress("-1:0000000000000000000000000000000000000000000000000000000000000000").IsZero())
	assert.True(t, ZeroAddress.Workchain.IsMasterchain())

	_, err = ParseAddress("00ab")
	assert.Error(t, err)
	_, err = ParseAddress("x:00ab")
	assert.Error(t, err)
}

func TestAddressYAML(t *testing.T) {
	var v struct {
		Owner Address `yaml:"owner"`
	}
	err := yaml.Unmarshal([]byte("owner: \"0:00000000000000000000000000000000000000000000000000000000000000ab\""), &v)
	require.NoError(t, err)
	assert.Equal(t, BytesToAddress(0, []byte{0xab}), v.Owner)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "0", FormatAmount(0))
	assert.Equal(t, "2", FormatAmount(2*EVER))
	assert.Equal(t, "1.5", FormatAmount(EVER+EVER/2))
	assert.Equal(t, "0.000000001", FormatAmount(1))
}

func TestBlake2b(t *testing.T) {
	single := Blake2b([]byte("multiple"))
	multi := Blake2b([]byte("multi"), []byte("ple"))
	assert.Equal(t, single, multi)
	assert.Equal(t, single, Blake2bFn(func(w io.Writer) {
		w.Write([]byte("multiple"))
	}))
	assert.NotEqual(t, single, Blake2b([]byte("data")))
}

func TestKeccak256(t *testing.T) {
	assert.Equal(t,
		MustParseBytes32("0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"),
		Keccak256())
	assert.Equal(t, Keccak256([]byte("ab")), Keccak256([]byte("a"), []byte("b")))
}
