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
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/voltaire-eth/voltaire/common"
	"github.com/voltaire-eth/voltaire/crypto"
	"github.com/umbracle/fastrlp"
)

// ErrInvalidChainId is returned when a transaction carries a different chain
// ID than the one requested.
var ErrInvalidChainId = errors.New("invalid chain id for signer")

// sigCache is used to cache the derived sender.
type sigCache struct {
	from common.Address
}

// SignTx signs the transaction using the given private key. The chainID
// selects EIP-155 replay protection for legacy transactions; typed
// transactions carry their own chain ID and chainID must match it when
// non-nil.
func SignTx(tx *Transaction, chainID *big.Int, prv *ecdsa.PrivateKey) (*Transaction, error) {
	h := sigHash(tx, chainID)
	sig, err := crypto.Sign(h[:], prv)
	if err != nil {
		return nil, err
	}
	return tx.WithSignature(chainID, sig)
}

// SignNewTx creates a transaction and signs it.
func SignNewTx(prv *ecdsa.PrivateKey, chainID *big.Int, txdata TxData) (*Transaction, error) {
	return SignTx(NewTx(txdata), chainID, prv)
}

// MustSignNewTx creates a transaction and signs it.
// This panics if the transaction cannot be signed.
func MustSignNewTx(prv *ecdsa.PrivateKey, chainID *big.Int, txdata TxData) *Transaction {
	tx, err := SignNewTx(prv, chainID, txdata)
	if err != nil {
		panic(err)
	}
	return tx
}

// SigningHash returns the hash that was, or is to be, signed for the
// transaction. For signed legacy transactions the EIP-155 chain ID is derived
// from the stored v value; unprotected transactions hash the original six
// fields.
func (tx *Transaction) SigningHash() common.Hash {
	var chainID *big.Int
	if tx.Type() == LegacyTxType {
		v, _, _ := tx.inner.rawSignatureValues()
		chainID = deriveChainId(v)
	}
	return sigHash(tx, chainID)
}

// sigHash computes the signing hash with an explicit chain ID. The chain ID
// only affects legacy transactions, where a non-zero value selects the
// nine-field EIP-155 preimage.
func sigHash(tx *Transaction, chainID *big.Int) common.Hash {
	a := fastrlp.DefaultArenaPool.Get()
	defer fastrlp.DefaultArenaPool.Put(a)

	fields := tx.inner.sigFields(a, chainID)
	if tx.Type() == LegacyTxType {
		return rlpHash(fields)
	}
	return prefixedRlpHash(tx.Type(), fields)
}

// Sender returns the address derived from the signature (V, R, S) using
// secp256k1 elliptic curve public key recovery.
//
// The result is cached in the transaction and reused on subsequent calls.
func Sender(tx *Transaction) (common.Address, error) {
	if sc := tx.from.Load(); sc != nil {
		return sc.from, nil
	}
	addr, err := recoverSender(tx)
	if err != nil {
		return common.Address{}, err
	}
	tx.from.Store(&sigCache{from: addr})
	return addr, nil
}

// recoverSender normalizes the stored v value per transaction type and
// recovers the signing address.
func recoverSender(tx *Transaction) (common.Address, error) {
	V, R, S := tx.inner.rawSignatureValues()
	if tx.Type() == LegacyTxType {
		if !tx.Protected() {
			return recoverPlain(tx.SigningHash(), R, S, V, true)
		}
		chainID := deriveChainId(V)
		if chainID == nil {
			return common.Address{}, ErrInvalidSig
		}
		V = new(big.Int).Sub(V, new(big.Int).Lsh(chainID, 1))
		V.Sub(V, big.NewInt(8))
		return recoverPlain(tx.SigningHash(), R, S, V, true)
	}
	// Typed transactions store yParity, normalize to 27/28 for recovery.
	V = new(big.Int).Add(V, big.NewInt(27))
	return recoverPlain(tx.SigningHash(), R, S, V, true)
}

// VerifySignature reports whether the transaction carries a signature that is
// cryptographically consistent with its signing hash: the (r, s) pair must
// verify against the public key recovered from (v, r, s). It never returns an
// error; any malformed input yields false.
func (tx *Transaction) VerifySignature() bool {
	sighash := tx.SigningHash()
	sig, ok := tx.signatureBytes()
	if !ok {
		return false
	}
	pub, err := crypto.Ecrecover(sighash[:], sig[:])
	if err != nil {
		return false
	}
	return crypto.VerifySignature(pub, sighash[:], sig[:64])
}

// signatureBytes assembles the 65 byte [R || S || V] signature with the
// recovery id normalized to 0/1. It reports false when the values cannot form
// a recoverable signature.
func (tx *Transaction) signatureBytes() ([crypto.SignatureLength]byte, bool) {
	var sig [crypto.SignatureLength]byte

	V, R, S := tx.inner.rawSignatureValues()
	if R == nil || S == nil || V == nil {
		return sig, false
	}
	if R.Sign() == 0 && S.Sign() == 0 {
		return sig, false
	}
	if tx.Type() == LegacyTxType {
		if tx.Protected() {
			chainID := deriveChainId(V)
			if chainID == nil {
				return sig, false
			}
			V = new(big.Int).Sub(V, new(big.Int).Lsh(chainID, 1))
			V.Sub(V, big.NewInt(35))
		} else {
			V = new(big.Int).Sub(V, big.NewInt(27))
		}
	}
	if V.BitLen() > 8 || R.BitLen() > 256 || S.BitLen() > 256 {
		return sig, false
	}
	if !crypto.ValidateSignatureValues(byte(V.Uint64()), R, S, true) {
		return sig, false
	}
	R.FillBytes(sig[:32])
	S.FillBytes(sig[32:64])
	sig[64] = byte(V.Uint64())
	return sig, true
}

// decodeSignature splits a 65 byte signature into its r, s, v components,
// with v still in its raw 0/1 form.
func decodeSignature(sig []byte) (r, s, v *big.Int) {
	if len(sig) != crypto.SignatureLength {
		panic(fmt.Sprintf("wrong size for signature: got %d, want %d", len(sig), crypto.SignatureLength))
	}
	r = new(big.Int).SetBytes(sig[:32])
	s = new(big.Int).SetBytes(sig[32:64])
	v = new(big.Int).SetBytes([]byte{sig[64]})
	return r, s, v
}

// recoverPlain recovers the signing address given the hash and the signature
// values with Vb in 27/28 form.
func recoverPlain(sighash common.Hash, R, S, Vb *big.Int, homestead bool) (common.Address, error) {
	if Vb.BitLen() > 8 {
		return common.Address{}, ErrInvalidSig
	}
	V := byte(Vb.Uint64() - 27)
	if !crypto.ValidateSignatureValues(V, R, S, homestead) {
		return common.Address{}, ErrInvalidSig
	}
	// encode the signature in uncompressed format
	r, s := R.Bytes(), S.Bytes()
	sig := make([]byte, crypto.SignatureLength)
	copy(sig[32-len(r):32], r)
	copy(sig[64-len(s):64], s)
	sig[64] = V
	// recover the public key from the signature
	pub, err := crypto.Ecrecover(sighash[:], sig)
	if err != nil {
		return common.Address{}, err
	}
	if len(pub) == 0 || pub[0] != 4 {
		return common.Address{}, errors.New("invalid public key")
	}
	var addr common.Address
	copy(addr[:], crypto.Keccak256(pub[1:])[12:])
	return addr, nil
}

// deriveChainId derives the chain id from the given v parameter. It returns
// nil for v values below 35, which carry no chain id.
func deriveChainId(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	if v.BitLen() <= 64 {
		vv := v.Uint64()
		if vv < 35 {
			return nil
		}
		return new(big.Int).SetUint64((vv - 35) / 2)
	}
	vv := new(big.Int).Sub(v, big.NewInt(35))
	return vv.Rsh(vv, 1)
}

// sanityCheckSignature ensures the decoded v value agrees with the r and s
// values. It is used by the JSON decoder, which accepts either 'v' or
// 'yParity' on typed transactions.
func sanityCheckSignature(v *big.Int, r *big.Int, s *big.Int, maybeProtected bool) error {
	if isProtectedV(v) && !maybeProtected {
		return ErrUnexpectedProtection
	}

	var plainV byte
	if isProtectedV(v) {
		chainID := deriveChainId(v).Uint64()
		plainV = byte(v.Uint64() - 35 - 2*chainID)
	} else if maybeProtected {
		// Only EIP-155 signatures can be optionally protected. Since
		// we determined this v value is not protected, it must be a
		// raw 27 or 28.
		plainV = byte(v.Uint64() - 27)
	} else {
		// If the signature is not optionally protected, we assume it
		// must already be equal to the recovery id.
		plainV = byte(v.Uint64())
	}
	if !crypto.ValidateSignatureValues(plainV, r, s, false) {
		return ErrInvalidSig
	}
	return nil
}

// ErrUnexpectedProtection is returned when an EIP-155 protected v value shows
// up on a transaction type that stores a bare y parity.
var ErrUnexpectedProtection = errors.New("transaction type does not support EIP-155 protected signatures")
