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
	"errors"
	"fmt"
	"math/big"

	"github.com/voltaire-eth/voltaire/common"
	"github.com/holiman/uint256"
	"github.com/umbracle/fastrlp"
)

// BlobTx is the data of EIP-4844 blob transactions.
type BlobTx struct {
	ChainID    *uint256.Int
	Nonce      uint64
	GasTipCap  *uint256.Int // maxPriorityFeePerGas
	GasFeeCap  *uint256.Int // maxFeePerGas
	Gas        uint64
	To         common.Address // blob txs cannot create contracts
	Value      *uint256.Int
	Data       []byte
	AccessList AccessList
	BlobFeeCap *uint256.Int // maxFeePerBlobGas
	BlobHashes []common.Hash

	// Signature values
	V *uint256.Int
	R *uint256.Int
	S *uint256.Int
}

// copy creates a deep copy of the transaction data and initializes all fields.
func (tx *BlobTx) copy() TxData {
	cpy := &BlobTx{
		Nonce: tx.Nonce,
		To:    tx.To,
		Data:  common.CopyBytes(tx.Data),
		Gas:   tx.Gas,
		// These are copied below.
		AccessList: make(AccessList, len(tx.AccessList)),
		BlobHashes: make([]common.Hash, len(tx.BlobHashes)),
		Value:      new(uint256.Int),
		ChainID:    new(uint256.Int),
		GasTipCap:  new(uint256.Int),
		GasFeeCap:  new(uint256.Int),
		BlobFeeCap: new(uint256.Int),
		V:          new(uint256.Int),
		R:          new(uint256.Int),
		S:          new(uint256.Int),
	}
	copy(cpy.AccessList, tx.AccessList)
	copy(cpy.BlobHashes, tx.BlobHashes)

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
	if tx.BlobFeeCap != nil {
		cpy.BlobFeeCap.Set(tx.BlobFeeCap)
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
func (tx *BlobTx) txType() byte           { return BlobTxType }
func (tx *BlobTx) chainID() *big.Int      { return tx.ChainID.ToBig() }
func (tx *BlobTx) accessList() AccessList { return tx.AccessList }
func (tx *BlobTx) data() []byte           { return tx.Data }
func (tx *BlobTx) gas() uint64            { return tx.Gas }
func (tx *BlobTx) gasFeeCap() *big.Int    { return tx.GasFeeCap.ToBig() }
func (tx *BlobTx) gasTipCap() *big.Int    { return tx.GasTipCap.ToBig() }
func (tx *BlobTx) gasPrice() *big.Int     { return tx.GasFeeCap.ToBig() }
func (tx *BlobTx) value() *big.Int        { return tx.Value.ToBig() }
func (tx *BlobTx) nonce() uint64          { return tx.Nonce }
func (tx *BlobTx) to() *common.Address    { tmp := tx.To; return &tmp }

func (tx *BlobTx) blobGas() uint64 { return BlobTxBlobGasPerBlob * uint64(len(tx.BlobHashes)) }

func (tx *BlobTx) effectiveGasPrice(dst *big.Int, baseFee *big.Int) *big.Int {
	if baseFee == nil {
		return dst.Set(tx.GasFeeCap.ToBig())
	}
	tip := dst.Sub(tx.GasFeeCap.ToBig(), baseFee)
	if tip.Cmp(tx.GasTipCap.ToBig()) > 0 {
		tip.Set(tx.GasTipCap.ToBig())
	}
	return tip.Add(tip, baseFee)
}

func (tx *BlobTx) rawSignatureValues() (v, r, s *big.Int) {
	return tx.V.ToBig(), tx.R.ToBig(), tx.S.ToBig()
}

func (tx *BlobTx) setSignatureValues(chainID, v, r, s *big.Int) {
	if chainID != nil {
		tx.ChainID = uint256.MustFromBig(chainID)
	}
	tx.V = uint256.MustFromBig(v)
	tx.R = uint256.MustFromBig(r)
	tx.S = uint256.MustFromBig(s)
}

func (tx *BlobTx) encode(a *fastrlp.Arena) *fastrlp.Value {
	vv := a.NewArray()
	vv.Set(arenaU256(a, tx.ChainID))
	vv.Set(a.NewUint(tx.Nonce))
	vv.Set(arenaU256(a, tx.GasTipCap))
	vv.Set(arenaU256(a, tx.GasFeeCap))
	vv.Set(a.NewUint(tx.Gas))
	vv.Set(a.NewCopyBytes(tx.To.Bytes()))
	vv.Set(arenaU256(a, tx.Value))
	vv.Set(a.NewCopyBytes(tx.Data))
	vv.Set(arenaAccessList(a, tx.AccessList))
	vv.Set(arenaU256(a, tx.BlobFeeCap))
	hashes := a.NewArray()
	for _, h := range tx.BlobHashes {
		hashes.Set(a.NewCopyBytes(h.Bytes()))
	}
	vv.Set(hashes)
	vv.Set(arenaU256(a, tx.V))
	vv.Set(arenaU256(a, tx.R))
	vv.Set(arenaU256(a, tx.S))
	return vv
}

func (tx *BlobTx) decode(v *fastrlp.Value) error {
	elems, err := listElems(v)
	if err != nil {
		return err
	}
	if len(elems) != 14 {
		return fmt.Errorf("rlp: expected 14 fields in blob transaction, got %d", len(elems))
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
	// The to field of a blob transaction is mandatory.
	if tx.To, err = decodeAddressField(elems[5]); err != nil {
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
	if tx.BlobFeeCap, err = decodeU256Field(elems[9]); err != nil {
		return fmt.Errorf("maxFeePerBlobGas: %w", err)
	}
	hashElems, err := listElems(elems[10])
	if err != nil {
		return fmt.Errorf("blobVersionedHashes: %w", err)
	}
	tx.BlobHashes = make([]common.Hash, 0, len(hashElems))
	for _, he := range hashElems {
		h, err := decodeHashField(he)
		if err != nil {
			return fmt.Errorf("blobVersionedHashes: %w", err)
		}
		tx.BlobHashes = append(tx.BlobHashes, h)
	}
	if tx.V, err = decodeU256Field(elems[11]); err != nil {
		return fmt.Errorf("yParity: %w", err)
	}
	if tx.V.BitLen() > 1 {
		return errInvalidYParity
	}
	if tx.R, err = decodeU256Field(elems[12]); err != nil {
		return fmt.Errorf("r: %w", err)
	}
	if tx.S, err = decodeU256Field(elems[13]); err != nil {
		return fmt.Errorf("s: %w", err)
	}
	return nil
}

func (tx *BlobTx) sigFields(a *fastrlp.Arena, _ *big.Int) *fastrlp.Value {
	vv := a.NewArray()
	vv.Set(arenaU256(a, tx.ChainID))
	vv.Set(a.NewUint(tx.Nonce))
	vv.Set(arenaU256(a, tx.GasTipCap))
	vv.Set(arenaU256(a, tx.GasFeeCap))
	vv.Set(a.NewUint(tx.Gas))
	vv.Set(a.NewCopyBytes(tx.To.Bytes()))
	vv.Set(arenaU256(a, tx.Value))
	vv.Set(a.NewCopyBytes(tx.Data))
	vv.Set(arenaAccessList(a, tx.AccessList))
	vv.Set(arenaU256(a, tx.BlobFeeCap))
	hashes := a.NewArray()
	for _, h := range tx.BlobHashes {
		hashes.Set(a.NewCopyBytes(h.Bytes()))
	}
	vv.Set(hashes)
	return vv
}

// ValidateBlobHashVersions checks that every blob versioned hash carries the
// supported version byte.
func (tx *BlobTx) ValidateBlobHashVersions() error {
	for i, h := range tx.BlobHashes {
		if h[0] != 0x01 {
			return fmt.Errorf("%w: blob hash %d has version %d", errInvalidBlobHashVersion, i, h[0])
		}
	}
	return nil
}

var errInvalidBlobHashVersion = errors.New("invalid blob versioned hash version")
