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

// LegacyTx is the transaction data of the original Ethereum transactions.
type LegacyTx struct {
	Nonce    uint64          // nonce of sender account
	GasPrice *big.Int        // wei per gas
	Gas      uint64          // gas limit
	To       *common.Address `rlp:"nil"` // nil means contract creation
	Value    *big.Int        // wei amount
	Data     []byte          // contract invocation input data
	V, R, S  *big.Int        // signature values
}

// NewTransaction creates an unsigned legacy transaction.
func NewTransaction(nonce uint64, to common.Address, amount *big.Int, gasLimit uint64, gasPrice *big.Int, data []byte) *Transaction {
	return NewTx(&LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    amount,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})
}

// NewContractCreation creates an unsigned legacy contract-creation
// transaction.
func NewContractCreation(nonce uint64, amount *big.Int, gasLimit uint64, gasPrice *big.Int, data []byte) *Transaction {
	return NewTx(&LegacyTx{
		Nonce:    nonce,
		Value:    amount,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})
}

// copy creates a deep copy of the transaction data and initializes all fields.
func (tx *LegacyTx) copy() TxData {
	cpy := &LegacyTx{
		Nonce: tx.Nonce,
		To:    copyAddressPtr(tx.To),
		Data:  common.CopyBytes(tx.Data),
		Gas:   tx.Gas,
		// These are initialized below.
		Value:    new(big.Int),
		GasPrice: new(big.Int),
		V:        new(big.Int),
		R:        new(big.Int),
		S:        new(big.Int),
	}
	if tx.Value != nil {
		cpy.Value.Set(tx.Value)
	}
	if tx.GasPrice != nil {
		cpy.GasPrice.Set(tx.GasPrice)
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
func (tx *LegacyTx) txType() byte           { return LegacyTxType }
func (tx *LegacyTx) chainID() *big.Int      { return deriveChainId(tx.V) }
func (tx *LegacyTx) accessList() AccessList { return nil }
func (tx *LegacyTx) data() []byte           { return tx.Data }
func (tx *LegacyTx) gas() uint64            { return tx.Gas }
func (tx *LegacyTx) gasPrice() *big.Int     { return tx.GasPrice }
func (tx *LegacyTx) gasTipCap() *big.Int    { return tx.GasPrice }
func (tx *LegacyTx) gasFeeCap() *big.Int    { return tx.GasPrice }
func (tx *LegacyTx) value() *big.Int        { return tx.Value }
func (tx *LegacyTx) nonce() uint64          { return tx.Nonce }
func (tx *LegacyTx) to() *common.Address    { return tx.To }

func (tx *LegacyTx) effectiveGasPrice(dst *big.Int, baseFee *big.Int) *big.Int {
	return dst.Set(tx.GasPrice)
}

func (tx *LegacyTx) rawSignatureValues() (v, r, s *big.Int) {
	return tx.V, tx.R, tx.S
}

func (tx *LegacyTx) setSignatureValues(chainID, v, r, s *big.Int) {
	tx.V, tx.R, tx.S = v, r, s
}

func (tx *LegacyTx) encode(a *fastrlp.Arena) *fastrlp.Value {
	vv := a.NewArray()
	vv.Set(a.NewUint(tx.Nonce))
	vv.Set(arenaBig(a, tx.GasPrice))
	vv.Set(a.NewUint(tx.Gas))
	vv.Set(arenaOptionalAddress(a, tx.To))
	vv.Set(arenaBig(a, tx.Value))
	vv.Set(a.NewCopyBytes(tx.Data))
	vv.Set(arenaBig(a, tx.V))
	vv.Set(arenaBig(a, tx.R))
	vv.Set(arenaBig(a, tx.S))
	return vv
}

func (tx *LegacyTx) decode(v *fastrlp.Value) error {
	elems, err := listElems(v)
	if err != nil {
		return err
	}
	if len(elems) != 9 {
		return fmt.Errorf("rlp: expected 9 fields in legacy transaction, got %d", len(elems))
	}
	if tx.Nonce, err = decodeUint64Field(elems[0]); err != nil {
		return fmt.Errorf("nonce: %w", err)
	}
	if tx.GasPrice, err = decodeBigField(elems[1]); err != nil {
		return fmt.Errorf("gasPrice: %w", err)
	}
	if tx.Gas, err = decodeUint64Field(elems[2]); err != nil {
		return fmt.Errorf("gas: %w", err)
	}
	if tx.To, err = decodeOptionalAddressField(elems[3]); err != nil {
		return fmt.Errorf("to: %w", err)
	}
	if tx.Value, err = decodeBigField(elems[4]); err != nil {
		return fmt.Errorf("value: %w", err)
	}
	if tx.Data, err = decodeBytesField(elems[5]); err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if tx.V, err = decodeBigField(elems[6]); err != nil {
		return fmt.Errorf("v: %w", err)
	}
	if tx.R, err = decodeBigField(elems[7]); err != nil {
		return fmt.Errorf("r: %w", err)
	}
	if tx.S, err = decodeBigField(elems[8]); err != nil {
		return fmt.Errorf("s: %w", err)
	}
	return nil
}

// sigFields builds the list hashed for signing. With a chain ID the list
// carries nine fields per EIP-155, otherwise the original six.
func (tx *LegacyTx) sigFields(a *fastrlp.Arena, chainID *big.Int) *fastrlp.Value {
	vv := a.NewArray()
	vv.Set(a.NewUint(tx.Nonce))
	vv.Set(arenaBig(a, tx.GasPrice))
	vv.Set(a.NewUint(tx.Gas))
	vv.Set(arenaOptionalAddress(a, tx.To))
	vv.Set(arenaBig(a, tx.Value))
	vv.Set(a.NewCopyBytes(tx.Data))
	if chainID != nil && chainID.Sign() != 0 {
		vv.Set(arenaBig(a, chainID))
		vv.Set(a.NewUint(0))
		vv.Set(a.NewUint(0))
	}
	return vv
}
