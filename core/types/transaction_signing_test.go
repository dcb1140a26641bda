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
	"math/big"
	"testing"

	"github.com/voltaire-eth/voltaire/common"
	"github.com/voltaire-eth/voltaire/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

// TestEIP155SigningVector checks the worked example from EIP-155.
func TestEIP155SigningVector(t *testing.T) {
	key, err := crypto.HexToECDSA("4646464646464646464646464646464646464646464646464646464646464646")
	require.NoError(t, err)

	to := common.HexToAddress("0x3535353535353535353535353535353535353535")
	tx := NewTx(&LegacyTx{
		Nonce:    9,
		GasPrice: big.NewInt(20000000000),
		Gas:      21000,
		To:       &to,
		Value:    new(big.Int).Mul(big.NewInt(1000000000), big.NewInt(1000000000)),
	})

	h := sigHash(tx, big.NewInt(1))
	require.Equal(t, common.HexToHash("0xdaf5a779ae972f972197303d7b574746c7ef83eadac0f2791ad23db92e4c8e53"), h)

	signed, err := SignTx(tx, big.NewInt(1), key)
	require.NoError(t, err)

	v, r, s := signed.RawSignatureValues()
	require.Equal(t, big.NewInt(37), v)
	require.NotZero(t, r.Sign())
	require.NotZero(t, s.Sign())
	require.Equal(t, big.NewInt(1), signed.ChainId())
	require.True(t, signed.Protected())

	from, err := Sender(signed)
	require.NoError(t, err)
	require.Equal(t, crypto.PubkeyToAddress(key.PublicKey), from)

	// The signed transaction round-trips and still recovers.
	bin, err := signed.MarshalBinary()
	require.NoError(t, err)
	var decoded Transaction
	require.NoError(t, decoded.UnmarshalBinary(bin))
	from2, err := Sender(&decoded)
	require.NoError(t, err)
	require.Equal(t, from, from2)
}

// TestEIP155RawDecode decodes the signed raw transaction from the EIP-155
// example and recovers its documented sender.
func TestEIP155RawDecode(t *testing.T) {
	raw := common.FromHex("0xf86c098504a817c800825208943535353535353535353535353535353535353535880de0b6b3a76400008025a028ef61340bd939bc2195fe537567866003e1a15d3c71ff63e1590620aa636276a067cbe9d8997f761aecb703304b3800ccf555c9f3dc64214b297fb1966a3b6d83")
	var tx Transaction
	require.NoError(t, tx.UnmarshalBinary(raw))

	require.Equal(t, uint8(LegacyTxType), tx.Type())
	require.Equal(t, uint64(9), tx.Nonce())
	require.Equal(t, big.NewInt(20000000000), tx.GasPrice())
	require.Equal(t, uint64(21000), tx.Gas())
	require.Equal(t, big.NewInt(1), tx.ChainId())

	v, _, _ := tx.RawSignatureValues()
	require.Equal(t, big.NewInt(37), v)

	from, err := Sender(&tx)
	require.NoError(t, err)
	require.Equal(t, common.HexToAddress("0x9d8A62f656a8d1615C1294fd71e9CFb3E4855A4F"), from)
	require.True(t, tx.VerifySignature())

	// Encoding back yields the original bytes.
	bin, err := tx.MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, raw, bin)
}

func TestDeriveChainId(t *testing.T) {
	tests := []struct {
		v    int64
		want *big.Int // nil means no chain id
	}{
		{27, nil},
		{28, nil},
		{34, nil},
		{35, big.NewInt(0)},
		{36, big.NewInt(0)},
		{37, big.NewInt(1)},
		{38, big.NewInt(1)},
		{41, big.NewInt(3)},
		{309, big.NewInt(137)},
	}
	for _, tt := range tests {
		got := deriveChainId(big.NewInt(tt.v))
		if tt.want == nil {
			require.Nil(t, got, "v=%d", tt.v)
		} else {
			require.Equal(t, tt.want, got, "v=%d", tt.v)
		}
	}
	require.Nil(t, deriveChainId(nil))
}

func TestLegacyChainIdFromV(t *testing.T) {
	for _, tt := range []struct {
		v    int64
		want *big.Int
	}{
		{27, nil},
		{28, nil},
		{34, nil},
		{35, big.NewInt(0)},
		{37, big.NewInt(1)},
		{41, big.NewInt(3)},
		{309, big.NewInt(137)},
	} {
		tx := NewTx(&LegacyTx{
			GasPrice: big.NewInt(1),
			Value:    big.NewInt(0),
			V:        big.NewInt(tt.v),
			R:        big.NewInt(1),
			S:        big.NewInt(1),
		})
		got := tx.ChainId()
		if tt.want == nil {
			require.Nil(t, got, "v=%d", tt.v)
		} else {
			require.Equal(t, tt.want, got, "v=%d", tt.v)
		}
	}
}

// TestSignVerifyRecoverAllTypes runs the full workflow on every transaction
// type: sign, serialize, deserialize, verify, recover.
func TestSignVerifyRecoverAllTypes(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	addr := crypto.PubkeyToAddress(key.PublicKey)

	for name, tx := range sampleTxs() {
		t.Run(name, func(t *testing.T) {
			// Sign with the chain id the transaction declares; legacy
			// transactions take it from the signing request.
			chainID := tx.ChainId()
			if chainID == nil {
				chainID = big.NewInt(1)
			}
			signed, err := SignTx(tx, chainID, key)
			require.NoError(t, err)
			require.True(t, signed.IsSigned())
			require.True(t, signed.VerifySignature())

			// Signing does not change the signing hash.
			require.Equal(t, sigHash(tx, chainID), sigHash(signed, chainID))

			bin, err := signed.MarshalBinary()
			require.NoError(t, err)
			var decoded Transaction
			require.NoError(t, decoded.UnmarshalBinary(bin))

			from, err := Sender(&decoded)
			require.NoError(t, err)
			require.Equal(t, addr, from)
			require.True(t, decoded.VerifySignature())
		})
	}
}

func TestSigningHashIgnoresSignature(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	key2, err := crypto.GenerateKey()
	require.NoError(t, err)
	chainID := big.NewInt(1337)

	tx := sampleTxs()["dynamicfee"]
	s1, err := SignTx(tx, chainID, key)
	require.NoError(t, err)
	s2, err := SignTx(tx, chainID, key2)
	require.NoError(t, err)

	require.Equal(t, s1.SigningHash(), s2.SigningHash())
	require.NotEqual(t, s1.Hash(), s2.Hash())
}

func TestSigningHashSensitivity(t *testing.T) {
	base := &DynamicFeeTx{
		ChainID:   big.NewInt(1),
		Nonce:     1,
		GasTipCap: big.NewInt(2),
		GasFeeCap: big.NewInt(30),
		Gas:       21000,
		To:        &testTo,
		Value:     big.NewInt(5),
		Data:      []byte{0x01},
	}
	h := NewTx(base).SigningHash()

	mutations := map[string]func(*DynamicFeeTx){
		"nonce":   func(tx *DynamicFeeTx) { tx.Nonce++ },
		"tip":     func(tx *DynamicFeeTx) { tx.GasTipCap = big.NewInt(3) },
		"feecap":  func(tx *DynamicFeeTx) { tx.GasFeeCap = big.NewInt(31) },
		"gas":     func(tx *DynamicFeeTx) { tx.Gas++ },
		"to":      func(tx *DynamicFeeTx) { tx.To = nil },
		"value":   func(tx *DynamicFeeTx) { tx.Value = big.NewInt(6) },
		"data":    func(tx *DynamicFeeTx) { tx.Data = []byte{0x02} },
		"chainId": func(tx *DynamicFeeTx) { tx.ChainID = big.NewInt(2) },
		"accessList": func(tx *DynamicFeeTx) {
			tx.AccessList = AccessList{{Address: testTo}}
		},
	}
	for name, mutate := range mutations {
		cpy := NewTx(base).inner.(*DynamicFeeTx)
		mutate(cpy)
		require.NotEqual(t, h, NewTx(cpy).SigningHash(), "mutating %s must change the signing hash", name)
	}
}

// TestTamperedTransaction checks that modifying a signed payload changes the
// recovered sender.
func TestTamperedTransaction(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	addr := crypto.PubkeyToAddress(key.PublicKey)

	signed, err := SignTx(sampleTxs()["dynamicfee"], big.NewInt(1337), key)
	require.NoError(t, err)

	tampered := signed.inner.copy().(*DynamicFeeTx)
	tampered.Value = big.NewInt(1000000)
	tx := NewTx(tampered)

	from, err := Sender(tx)
	if err == nil {
		require.NotEqual(t, addr, from)
	}
}

func TestUnsignedSenderFails(t *testing.T) {
	_, err := Sender(sampleTxs()["legacy"])
	require.ErrorIs(t, err, ErrInvalidSig)
	require.False(t, sampleTxs()["legacy"].VerifySignature())
}

func TestPre155Signing(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	// Signing without a chain id produces a 27/28 v value.
	signed, err := SignTx(sampleTxs()["legacy"], nil, key)
	require.NoError(t, err)
	v, _, _ := signed.RawSignatureValues()
	require.True(t, v.Cmp(big.NewInt(27)) == 0 || v.Cmp(big.NewInt(28)) == 0)
	require.False(t, signed.Protected())
	require.Nil(t, signed.ChainId())

	from, err := Sender(signed)
	require.NoError(t, err)
	require.Equal(t, crypto.PubkeyToAddress(key.PublicKey), from)
	require.True(t, signed.VerifySignature())
}

func TestWithSignatureChainIdMismatch(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	_, err = SignTx(sampleTxs()["dynamicfee"], big.NewInt(9999), key)
	require.ErrorIs(t, err, ErrInvalidChainId)
}

func TestSetCodeAuthority(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	addr := crypto.PubkeyToAddress(key.PublicKey)

	auth, err := SignSetCode(key, SetCodeAuthorization{
		ChainID: *uint256.NewInt(1),
		Address: testTo,
		Nonce:   4,
	})
	require.NoError(t, err)

	got, err := auth.Authority()
	require.NoError(t, err)
	require.Equal(t, addr, got)

	// Tampering with the tuple changes the authority.
	auth.Nonce = 5
	got, err = auth.Authority()
	if err == nil {
		require.NotEqual(t, addr, got)
	}
}

func TestParseDelegation(t *testing.T) {
	deleg := AddressToDelegation(testTo)
	addr, ok := ParseDelegation(deleg)
	require.True(t, ok)
	require.Equal(t, testTo, addr)

	_, ok = ParseDelegation(deleg[:22])
	require.False(t, ok)
	_, ok = ParseDelegation(append([]byte{0xef, 0x01, 0x01}, testTo.Bytes()...))
	require.False(t, ok)
}
