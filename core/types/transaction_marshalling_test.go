// Copyright 2025 The voltaire Authors
// This file is part of the voltaire library.
//
// The voltaire library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The voltaire library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the voltaire library. If not, see <http://www.gnu.org/licenses/>.

package types

import (
	"encoding/json"
	"math/big"
	"strings"
	"testing"

	"github.com/voltaire-eth/voltaire/crypto"
	"github.com/stretchr/testify/require"
)

func TestTransactionJSONRoundTrip(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	for name, tx := range sampleTxs() {
		t.Run(name, func(t *testing.T) {
			chainID := tx.ChainId()
			if chainID == nil {
				chainID = big.NewInt(1)
			}
			signed, err := SignTx(tx, chainID, key)
			require.NoError(t, err)

			enc, err := json.Marshal(signed)
			require.NoError(t, err)

			var decoded Transaction
			require.NoError(t, json.Unmarshal(enc, &decoded))
			require.Equal(t, signed.Hash(), decoded.Hash())

			sbin, err := signed.MarshalBinary()
			require.NoError(t, err)
			dbin, err := decoded.MarshalBinary()
			require.NoError(t, err)
			require.Equal(t, sbin, dbin)
		})
	}
}

func TestTransactionJSONFields(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signed, err := SignTx(sampleTxs()["dynamicfee"], big.NewInt(1337), key)
	require.NoError(t, err)

	enc, err := json.Marshal(signed)
	require.NoError(t, err)
	s := string(enc)
	for _, field := range []string{
		`"type":"0x2"`, `"chainId":"0x539"`, `"maxFeePerGas"`,
		`"maxPriorityFeePerGas"`, `"yParity"`, `"hash"`,
	} {
		require.Contains(t, s, field)
	}
	// Legacy fields must not leak into typed output.
	require.False(t, strings.Contains(s, "gasPrice"))
}

func TestTransactionJSONMissingFields(t *testing.T) {
	// A dynamic fee transaction without maxFeePerGas is rejected.
	input := `{"type":"0x2","chainId":"0x1","nonce":"0x0","gas":"0x5208",
		"maxPriorityFeePerGas":"0x1","value":"0x0","input":"0x",
		"v":"0x0","r":"0x1","s":"0x1"}`
	var tx Transaction
	err := json.Unmarshal([]byte(input), &tx)
	require.Error(t, err)
	require.Contains(t, err.Error(), "maxFeePerGas")
}

func TestTransactionJSONYParityMismatch(t *testing.T) {
	input := `{"type":"0x2","chainId":"0x1","nonce":"0x0","gas":"0x5208",
		"maxPriorityFeePerGas":"0x1","maxFeePerGas":"0x2","value":"0x0","input":"0x",
		"v":"0x0","yParity":"0x1","r":"0x1","s":"0x1"}`
	var tx Transaction
	err := json.Unmarshal([]byte(input), &tx)
	require.ErrorIs(t, err, errVYParityMismatch)
}

func TestTransactionJSONYParityMissing(t *testing.T) {
	input := `{"type":"0x2","chainId":"0x1","nonce":"0x0","gas":"0x5208",
		"maxPriorityFeePerGas":"0x1","maxFeePerGas":"0x2","value":"0x0","input":"0x",
		"r":"0x1","s":"0x1"}`
	var tx Transaction
	err := json.Unmarshal([]byte(input), &tx)
	require.ErrorIs(t, err, errVYParityMissing)
}

func TestTransactionJSONUnknownType(t *testing.T) {
	input := `{"type":"0x7f","nonce":"0x0","gas":"0x5208","value":"0x0","input":"0x"}`
	var tx Transaction
	err := json.Unmarshal([]byte(input), &tx)
	require.ErrorIs(t, err, ErrTxTypeNotSupported)
}
