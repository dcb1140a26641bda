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
	"bytes"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/voltaire-eth/voltaire/common"
	"github.com/voltaire-eth/voltaire/crypto"
	"github.com/holiman/uint256"
	"github.com/umbracle/fastrlp"
)

// DelegationPrefix is used by code to denote the account is delegating to
// another account.
var DelegationPrefix = []byte{0xef, 0x01, 0x00}

// ParseDelegation tries to parse the address from a delegation slice.
func ParseDelegation(b []byte) (common.Address, bool) {
	if len(b) != 23 || !bytes.HasPrefix(b, DelegationPrefix) {
		return common.Address{}, false
	}
	return common.BytesToAddress(b[len(DelegationPrefix):]), true
}

// AddressToDelegation adds the delegation prefix to the specified address.
func AddressToDelegation(addr common.Address) []byte {
	return append(DelegationPrefix, addr.Bytes()...)
}

// SetCodeTx is the data of EIP-7702 set code transactions.
type SetCodeTx struct {
	ChainID    *uint256.Int
	Nonce      uint64
	GasTipCap  *uint256.Int // maxPriorityFeePerGas
	GasFeeCap  *uint256.Int // maxFeePerGas
	Gas        uint64
	To         *common.Address `rlp:"nil"` // nil means contract creation
	Value      *uint256.Int
	Data       []byte
	AccessList AccessList
	AuthList   []SetCodeAuthorization

	// Signature values
	V *uint256.Int
	R *uint256.Int
	S *uint256.Int
}

// SetCodeAuthorization is an authorization from an account to deploy code at
// its address.
type SetCodeAuthorization struct {
	ChainID uint256.Int    `json:"chainId"`
	Address common.Address `json:"address"`
	Nonce   uint64         `json:"nonce"`
	V       uint8          `json:"yParity"`
	R       uint256.Int    `json:"r"`
	S       uint256.Int    `json:"s"`
}

// SignSetCode creates a signed the SetCode authorization.
func SignSetCode(prv *ecdsa.PrivateKey, auth SetCodeAuthorization) (SetCodeAuthorization, error) {
	sighash := auth.sigHash()
	sig, err := crypto.Sign(sighash[:], prv)
	if err != nil {
		return SetCodeAuthorization{}, err
	}
	r, s, _ := decodeSignature(sig)
	return SetCodeAuthorization{
		ChainID: auth.ChainID,
		Address: auth.Address,
		Nonce:   auth.Nonce,
		V:       sig[64],
		R:       *uint256.MustFromBig(r),
		S:       *uint256.MustFromBig(s),
	}, nil
}

func (a *SetCodeAuthorization) sigHash() common.Hash {
	ar := fastrlp.DefaultArenaPool.Get()
	defer fastrlp.DefaultArenaPool.Put(ar)

	vv := ar.NewArray()
	vv.Set(arenaU256(ar, &a.ChainID))
	vv.Set(ar.NewCopyBytes(a.Address.Bytes()))
	vv.Set(ar.NewUint(a.Nonce))
	return prefixedRlpHash(0x05, vv)
}

// Authority recovers the authorizing account of an authorization.
func (a *SetCodeAuthorization) Authority() (common.Address, error) {
	sighash := a.sigHash()
	if !crypto.ValidateSignatureValues(a.V, a.R.ToBig(), a.S.ToBig(), true) {
		return common.Address{}, ErrInvalidSig
	}
	// encode the signature in uncompressed format
	var sig [crypto.SignatureLength]byte
	r, s := a.R.Bytes32(), a.S.Bytes32()
	copy(sig[:32], r[:])
	copy(sig[32:64], s[:])
	sig[64] = a.V
	// recover the public key from the signature
	pub, err := crypto.Ecrecover(sighash[:], sig[:])
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

// copy creates a deep copy of the transaction data and initializes all fields.
func (tx *SetCodeTx) copy() TxData {
	cpy := &SetCodeTx{
		Nonce: tx.Nonce,
		To:    copyAddressPtr(tx.To),
		Data:  common.CopyBytes(tx.Data),
		Gas:   tx.Gas,
		// These are copied below.
		AccessList: make(AccessList, len(tx.AccessList)),
		AuthList:   make([]SetCodeAuthorization, len(tx.AuthList)),
		Value:      new(uint256.Int),
		ChainID:    new(uint256.Int),
		GasTipCap:  new(uint256.Int),
		GasFeeCap:  new(uint256.Int),
		V:          new(uint256.Int),
		R:          new(uint256.Int),
		S:          new(uint256.Int),
	}
	copy(cpy.AccessList, tx.AccessList)
	copy(cpy.AuthList, tx.AuthList)

	if tx.Value != nil {
		cpy.Value.Set(tx.Value)
	}
	if tx.ChainID != nil {
		cpy.ChainID.Set(tx.ChainID)
	}
	if tx.GasTipCap != nil {
		cpy.GasTipCap.Set(tx.GasTipCap)
	}
	if tx.GasFeeCap != nil {
		cpy.GasFeeCap.Set(tx.GasFeeCap)
	}
	if tx.V != nil {
		cpy.V.Set(tx.V)
	}
	if tx.R != nil {
		cpy.R.Set(tx.R)
	}
	if tx.S != nil {
		cpy.S.Set(tx.S)
	}
	return cpy
}

// accessors for innerTx.
func (tx *SetCodeTx) txType() byte           { return SetCodeTxType }
func (tx *SetCodeTx) chainID() *big.Int      { return tx.ChainID.ToBig() }
func (tx *SetCodeTx) accessList() AccessList { return tx.AccessList }
func (tx *SetCodeTx) data() []byte           { return tx.Data }
func (tx *SetCodeTx) gas() uint64            { return tx.Gas }
func (tx *SetCodeTx) gasFeeCap() *big.Int    { return tx.GasFeeCap.ToBig() }
func (tx *SetCodeTx) gasTipCap() *big.Int    { return tx.GasTipCap.ToBig() }
func (tx *SetCodeTx) gasPrice() *big.Int     { return tx.GasFeeCap.ToBig() }
func (tx *SetCodeTx) value() *big.Int        { return tx.Value.ToBig() }
func (tx *SetCodeTx) nonce() uint64          { return tx.Nonce }
func (tx *SetCodeTx) to() *common.Address    { return tx.To }

func (tx *SetCodeTx) effectiveGasPrice(dst *big.Int, baseFee *big.Int) *big.Int {
	if baseFee == nil {
		return dst.Set(tx.GasFeeCap.ToBig())
	}
	tip := dst.Sub(tx.GasFeeCap.ToBig(), baseFee)
	if tip.Cmp(tx.GasTipCap.ToBig()) > 0 {
		tip.Set(tx.GasTipCap.ToBig())
	}
	return tip.Add(tip, baseFee)
}

func (tx *SetCodeTx) rawSignatureValues() (v, r, s *big.Int) {
	return tx.V.ToBig(), tx.R.ToBig(), tx.S.ToBig()
}

func (tx *SetCodeTx) setSignatureValues(chainID, v, r, s *big.Int) {
	if chainID != nil {
		tx.ChainID = uint256.MustFromBig(chainID)
	}
	tx.V = uint256.MustFromBig(v)
	tx.R = uint256.MustFromBig(r)
	tx.S = uint256.MustFromBig(s)
}

func (tx *SetCodeTx) encode(a *fastrlp.Arena) *fastrlp.Value {
	vv := a.NewArray()
	vv.Set(arenaU256(a, tx.ChainID))
	vv.Set(a.NewUint(tx.Nonce))
	vv.Set(arenaU256(a, tx.GasTipCap))
	vv.Set(arenaU256(a, tx.GasFeeCap))
	vv.Set(a.NewUint(tx.Gas))
	vv.Set(arenaOptionalAddress(a, tx.To))
	vv.Set(arenaU256(a, tx.Value))
	vv.Set(a.NewCopyBytes(tx.Data))
	vv.Set(arenaAccessList(a, tx.AccessList))
	vv.Set(arenaAuthList(a, tx.AuthList))
	vv.Set(arenaU256(a, tx.V))
	vv.Set(arenaU256(a, tx.R))
	vv.Set(arenaU256(a, tx.S))
	return vv
}

func (tx *SetCodeTx) decode(v *fastrlp.Value) error {
	elems, err := listElems(v)
	if err != nil {
		return err
	}
	if len(elems) != 13 {
		return fmt.Errorf("rlp: expected 13 fields in set code transaction, got %d", len(elems))
	}
	if tx.ChainID, err = decodeU256Field(elems[0]); err != nil {
		return fmt.Errorf("chainId: %w", err)
	}
	if tx.Nonce, err = decodeUint64Field(elems[1]); err != nil {
		return fmt.Errorf("nonce: %w", err)
	}
	if tx.GasTipCap, err = decodeU256Field(elems[2]); err != nil {
		return fmt.Errorf("maxPriorityFeePerGas: %w", err)
	}
	if tx.GasFeeCap, err = decodeU256Field(elems[3]); err != nil {
		return fmt.Errorf("maxFeePerGas: %w", err)
	}
	if tx.Gas, err = decodeUint64Field(elems[4]); err != nil {
		return fmt.Errorf("gas: %w", err)
	}
	if tx.To, err = decodeOptionalAddressField(elems[5]); err != nil {
		return fmt.Errorf("to: %w", err)
	}
	if tx.Value, err = decodeU256Field(elems[6]); err != nil {
		return fmt.Errorf("value: %w", err)
	}
	if tx.Data, err = decodeBytesField(elems[7]); err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if tx.AccessList, err = decodeAccessListField(elems[8]); err != nil {
		return fmt.Errorf("accessList: %w", err)
	}
	if tx.AuthList, err = decodeAuthListField(elems[9]); err != nil {
		return fmt.Errorf("authorizationList: %w", err)
	}
	if tx.V, err = decodeU256Field(elems[10]); err != nil {
		return fmt.Errorf("yParity: %w", err)
	}
	if tx.V.BitLen() > 1 {
		return errInvalidYParity
	}
	if tx.R, err = decodeU256Field(elems[11]); err != nil {
		return fmt.Errorf("r: %w", err)
	}
	if tx.S, err = decodeU256Field(elems[12]); err != nil {
		return fmt.Errorf("s: %w", err)
	}
	return nil
}

func (tx *SetCodeTx) sigFields(a *fastrlp.Arena, _ *big.Int) *fastrlp.Value {
	vv := a.NewArray()
	vv.Set(arenaU256(a, tx.ChainID))
	vv.Set(a.NewUint(tx.Nonce))
	vv.Set(arenaU256(a, tx.GasTipCap))
	vv.Set(arenaU256(a, tx.GasFeeCap))
	vv.Set(a.NewUint(tx.Gas))
	vv.Set(arenaOptionalAddress(a, tx.To))
	vv.Set(arenaU256(a, tx.Value))
	vv.Set(a.NewCopyBytes(tx.Data))
	vv.Set(arenaAccessList(a, tx.AccessList))
	vv.Set(arenaAuthList(a, tx.AuthList))
	return vv
}
