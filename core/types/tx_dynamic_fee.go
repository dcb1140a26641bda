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
	"fmt"
	"math/big"

	"github.com/voltaire-eth/voltaire/common"
	"github.com/umbracle/fastrlp"
)

// DynamicFeeTx is the data of EIP-1559 dynamic fee transactions.
type DynamicFeeTx struct {
	ChainID    *big.Int
	Nonce      uint64
	GasTipCap  *big.Int // maxPriorityFeePerGas
	GasFeeCap  *big.Int // maxFeePerGas
	Gas        uint64
	To         *common.Address `rlp:"nil"` // nil means contract creation
	Value      *big.Int
	Data       []byte
	AccessList AccessList
	V, R, S    *big.Int // signature values
}

// copy creates a deep copy of the transaction data and initializes all fields.
func (tx *DynamicFeeTx) copy() TxData {
	cpy := &DynamicFeeTx{
		Nonce: tx.Nonce,
		To:    copyAddressPtr(tx.To),
		Data:  common.CopyBytes(tx.Data),
		Gas:   tx.Gas,
		// These are copied below.
		AccessList: make(AccessList, len(tx.AccessList)),
		Value:      new(big.Int),
		ChainID:    new(big.Int),
		GasTipCap:  new(big.Int),
		GasFeeCap:  new(big.Int),
		V:          new(big.Int),
		R:          new(big.Int),
		S:          new(big.Int),
	}
	copy(cpy.AccessList, tx.AccessList)
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
func (tx *DynamicFeeTx) txType() byte           { return DynamicFeeTxType }
func (tx *DynamicFeeTx) chainID() *big.Int      { return tx.ChainID }
func (tx *DynamicFeeTx) accessList() AccessList { return tx.AccessList }
func (tx *DynamicFeeTx) data() []byte           { return tx.Data }
func (tx *DynamicFeeTx) gas() uint64            { return tx.Gas }
func (tx *DynamicFeeTx) gasFeeCap() *big.Int    { return tx.GasFeeCap }
func (tx *DynamicFeeTx) gasTipCap() *big.Int    { return tx.GasTipCap }
func (tx *DynamicFeeTx) gasPrice() *big.Int     { return tx.GasFeeCap }
func (tx *DynamicFeeTx) value() *big.Int        { return tx.Value }
func (tx *DynamicFeeTx) nonce() uint64          { return tx.Nonce }
func (tx *DynamicFeeTx) to() *common.Address    { return tx.To }

func (tx *DynamicFeeTx) effectiveGasPrice(dst *big.Int, baseFee *big.Int) *big.Int {
	if baseFee == nil {
		return dst.Set(tx.GasFeeCap)
	}
	tip := dst.Sub(tx.GasFeeCap, baseFee)
	if tip.Cmp(tx.GasTipCap) > 0 {
		tip.Set(tx.GasTipCap)
	}
	return tip.Add(tip, baseFee)
}

func (tx *DynamicFeeTx) rawSignatureValues() (v, r, s *big.Int) {
	return tx.V, tx.R, tx.S
}

func (tx *DynamicFeeTx) setSignatureValues(chainID, v, r, s *big.Int) {
	if chainID != nil {
		tx.ChainID = chainID
	}
	tx.V, tx.R, tx.S = v, r, s
}

func (tx *DynamicFeeTx) encode(a *fastrlp.Arena) *fastrlp.Value {
	vv := a.NewArray()
	vv.Set(arenaBig(a, tx.ChainID))
	vv.Set(a.NewUint(tx.Nonce))
	vv.Set(arenaBig(a, tx.GasTipCap))
	vv.Set(arenaBig(a, tx.GasFeeCap))
	vv.Set(a.NewUint(tx.Gas))
	vv.Set(arenaOptionalAddress(a, tx.To))
	vv.Set(arenaBig(a, tx.Value))
	vv.Set(a.NewCopyBytes(tx.Data))
	vv.Set(arenaAccessList(a, tx.AccessList))
	vv.Set(arenaBig(a, tx.V))
	vv.Set(arenaBig(a, tx.R))
	vv.Set(arenaBig(a, tx.S))
	return vv
}

func (tx *DynamicFeeTx) decode(v *fastrlp.Value) error {
	elems, err := listElems(v)
	if err != nil {
		return err
	}
	if len(elems) != 12 {
		return fmt.Errorf("rlp: expected 12 fields in dynamic fee transaction, got %d", len(elems))
	}
	if tx.ChainID, err = decodeBigField(elems[0]); err != nil {
		return fmt.Errorf("chainId: %w", err)
	}
	if tx.Nonce, err = decodeUint64Field(elems[1]); err != nil {
		return fmt.Errorf("nonce: %w", err)
	}
	if tx.GasTipCap, err = decodeBigField(elems[2]); err != nil {
		return fmt.Errorf("maxPriorityFeePerGas: %w", err)
	}
	if tx.GasFeeCap, err = decodeBigField(elems[3]); err != nil {
		return fmt.Errorf("maxFeePerGas: %w", err)
	}
	if tx.Gas, err = decodeUint64Field(elems[4]); err != nil {
		return fmt.Errorf("gas: %w", err)
	}
	if tx.To, err = decodeOptionalAddressField(elems[5]); err != nil {
		return fmt.Errorf("to: %w", err)
	}
	if tx.Value, err = decodeBigField(elems[6]); err != nil {
		return fmt.Errorf("value: %w", err)
	}
	if tx.Data, err = decodeBytesField(elems[7]); err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if tx.AccessList, err = decodeAccessListField(elems[8]); err != nil {
		return fmt.Errorf("accessList: %w", err)
	}
	if tx.V, err = decodeBigField(elems[9]); err != nil {
		return fmt.Errorf("yParity: %w", err)
	}
	if tx.V.BitLen() > 1 {
		return errInvalidYParity
	}
	if tx.R, err = decodeBigField(elems[10]); err != nil {
		return fmt.Errorf("r: %w", err)
	}
	if tx.S, err = decodeBigField(elems[11]); err != nil {
		return fmt.Errorf("s: %w", err)
	}
	return nil
}

func (tx *DynamicFeeTx) sigFields(a *fastrlp.Arena, _ *big.Int) *fastrlp.Value {
	vv := a.NewArray()
	vv.Set(arenaBig(a, tx.ChainID))
	vv.Set(a.NewUint(tx.Nonce))
	vv.Set(arenaBig(a, tx.GasTipCap))
	vv.Set(arenaBig(a, tx.GasFeeCap))
	vv.Set(a.NewUint(tx.Gas))
	vv.Set(arenaOptionalAddress(a, tx.To))
	vv.Set(arenaBig(a, tx.Value))
	vv.Set(a.NewCopyBytes(tx.Data))
	vv.Set(arenaAccessList(a, tx.AccessList))
	return vv
}
