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

// Package types implements the Ethereum transaction envelope: the five wire
// formats, their signing hashes, signature recovery and fee arithmetic.
package types

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"sync/atomic"
	"time"

	"github.com/voltaire-eth/voltaire/common"
	"github.com/umbracle/fastrlp"
)

var (
	ErrInvalidSig         = errors.New("invalid transaction v, r, s values")
	ErrTxTypeNotSupported = errors.New("transaction type not supported")
	ErrGasFeeCapTooLow    = errors.New("fee cap less than base fee")
	ErrEmptyTxData        = errors.New("empty transaction data")
	errShortTypedTx       = errors.New("typed transaction too short")
	errInvalidYParity     = errors.New("'yParity' field must be 0 or 1")
	errVYParityMismatch   = errors.New("'v' and 'yParity' fields do not match")
	errVYParityMissing    = errors.New("missing 'yParity' or 'v' field in transaction")
)

// Transaction types.
const (
	LegacyTxType     = 0x00
	AccessListTxType = 0x01
	DynamicFeeTxType = 0x02
	BlobTxType       = 0x03
	SetCodeTxType    = 0x04
)

// BlobTxBlobGasPerBlob is the gas consumption of a single data blob.
const BlobTxBlobGasPerBlob = 1 << 17

// Transaction is an Ethereum transaction.
type Transaction struct {
	inner TxData    // Consensus contents of a transaction
	time  time.Time // Time first seen locally (spam avoidance)

	// caches
	hash atomic.Pointer[common.Hash]
	size atomic.Uint64
	from atomic.Pointer[sigCache]
}

// NewTx creates a new transaction.
func NewTx(inner TxData) *Transaction {
	tx := new(Transaction)
	tx.setDecoded(inner.copy(), 0)
	return tx
}

// TxData is the underlying data of a transaction.
//
// This is implemented by LegacyTx, AccessListTx, DynamicFeeTx, BlobTx and
// SetCodeTx.
type TxData interface {
	txType() byte // returns the type ID
	copy() TxData // creates a deep copy and initializes all fields

	chainID() *big.Int
	accessList() AccessList
	data() []byte
	gas() uint64
	gasPrice() *big.Int
	gasTipCap() *big.Int
	gasFeeCap() *big.Int
	value() *big.Int
	nonce() uint64
	to() *common.Address

	rawSignatureValues() (v, r, s *big.Int)
	setSignatureValues(chainID, v, r, s *big.Int)

	// effectiveGasPrice computes the gas price paid by the transaction, given
	// the inclusion block baseFee.
	//
	// Unlike other TxData methods, the returned *big.Int should be an
	// independent copy of the computed value, i.e. callers are allowed to mutate
	// the result.
	effectiveGasPrice(dst *big.Int, baseFee *big.Int) *big.Int

	// encode builds the canonical RLP payload of the transaction, without the
	// type byte.
	encode(*fastrlp.Arena) *fastrlp.Value
	// decode populates the fields from the parsed RLP payload, enforcing the
	// exact field count of the type.
	decode(*fastrlp.Value) error
	// sigFields builds the RLP list that is hashed for signing, without the
	// type byte. The chainID argument is only consulted by the legacy type,
	// which hashes nine fields instead of six when replay protection applies.
	sigFields(a *fastrlp.Arena, chainID *big.Int) *fastrlp.Value
}

// DetectTxType inspects the first byte of a raw transaction and classifies it.
// Bytes 0x01 through 0x04 select a typed transaction, anything that can start
// an RLP list selects the legacy format.
func DetectTxType(b []byte) (byte, error) {
	if len(b) == 0 {
		return 0, ErrEmptyTxData
	}
	switch {
	case b[0] >= 0xc0:
		return LegacyTxType, nil
	case b[0] >= AccessListTxType && b[0] <= SetCodeTxType:
		return b[0], nil
	default:
		return 0, fmt.Errorf("%w: received type %d", ErrTxTypeNotSupported, b[0])
	}
}

// MarshalBinary returns the canonical consensus encoding of the transaction:
// a bare RLP list for legacy transactions, the type byte followed by the RLP
// payload for typed transactions.
func (tx *Transaction) MarshalBinary() ([]byte, error) {
	a := fastrlp.DefaultArenaPool.Get()
	defer fastrlp.DefaultArenaPool.Put(a)

	payload := tx.inner.encode(a)
	if tx.Type() == LegacyTxType {
		return payload.MarshalTo(nil), nil
	}
	return payload.MarshalTo([]byte{tx.Type()}), nil
}

// UnmarshalBinary decodes the canonical consensus encoding of a transaction.
// It supports the legacy RLP format and the EIP-2718 typed envelope.
func (tx *Transaction) UnmarshalBinary(b []byte) error {
	kind, err := DetectTxType(b)
	if err != nil {
		return err
	}
	payload := b
	var inner TxData
	switch kind {
	case LegacyTxType:
		inner = new(LegacyTx)
	case AccessListTxType:
		inner = new(AccessListTx)
	case DynamicFeeTxType:
		inner = new(DynamicFeeTx)
	case BlobTxType:
		inner = new(BlobTx)
	case SetCodeTxType:
		inner = new(SetCodeTx)
	}
	if kind != LegacyTxType {
		if len(b) == 1 {
			return errShortTypedTx
		}
		payload = b[1:]
	}

	p := fastrlp.DefaultParserPool.Get()
	defer fastrlp.DefaultParserPool.Put(p)
	v, err := p.Parse(payload)
	if err != nil {
		return err
	}
	if err := inner.decode(v); err != nil {
		return err
	}
	tx.setDecoded(inner, len(b))
	return nil
}

// setDecoded sets the inner transaction and size after decoding.
func (tx *Transaction) setDecoded(inner TxData, size int) {
	tx.inner = inner
	tx.time = time.Now()
	if size > 0 {
		tx.size.Store(uint64(size))
	}
}

// Protected says whether the transaction is replay-protected.
func (tx *Transaction) Protected() bool {
	switch tx := tx.inner.(type) {
	case *LegacyTx:
		return tx.V != nil && isProtectedV(tx.V)
	default:
		return true
	}
}

func isProtectedV(V *big.Int) bool {
	if V.BitLen() <= 8 {
		v := V.Uint64()
		return v != 27 && v != 28 && v != 1 && v != 0
	}
	// anything not 27 or 28 is considered protected
	return true
}

// Type returns the transaction type.
func (tx *Transaction) Type() uint8 {
	return tx.inner.txType()
}

// ChainId returns the EIP-155 chain ID of the transaction. The return value
// is nil for legacy transactions without replay protection.
func (tx *Transaction) ChainId() *big.Int {
	return tx.inner.chainID()
}

// Data returns the input data of the transaction.
func (tx *Transaction) Data() []byte { return tx.inner.data() }

// AccessList returns the access list of the transaction.
func (tx *Transaction) AccessList() AccessList { return tx.inner.accessList() }

// Gas returns the gas limit of the transaction.
func (tx *Transaction) Gas() uint64 { return tx.inner.gas() }

// GasPrice returns the gas price of the transaction.
func (tx *Transaction) GasPrice() *big.Int { return new(big.Int).Set(tx.inner.gasPrice()) }

// GasTipCap returns the gasTipCap per gas of the transaction.
func (tx *Transaction) GasTipCap() *big.Int { return new(big.Int).Set(tx.inner.gasTipCap()) }

// GasFeeCap returns the fee cap per gas of the transaction.
func (tx *Transaction) GasFeeCap() *big.Int { return new(big.Int).Set(tx.inner.gasFeeCap()) }

// Value returns the ether amount of the transaction.
func (tx *Transaction) Value() *big.Int { return new(big.Int).Set(tx.inner.value()) }

// Nonce returns the sender account nonce of the transaction.
func (tx *Transaction) Nonce() uint64 { return tx.inner.nonce() }

// To returns the recipient address of the transaction.
// For contract-creation transactions, To returns nil.
func (tx *Transaction) To() *common.Address {
	return copyAddressPtr(tx.inner.to())
}

// Time returns the time first seen.
func (tx *Transaction) Time() time.Time {
	return tx.time
}

// RawSignatureValues returns the V, R, S signature values of the transaction.
// The return values should not be modified by the caller.
// The return values may be nil or zero, if the transaction is unsigned.
func (tx *Transaction) RawSignatureValues() (v, r, s *big.Int) {
	return tx.inner.rawSignatureValues()
}

// IsSigned reports whether the transaction carries a signature, i.e. either
// of its r or s values is non-zero.
func (tx *Transaction) IsSigned() bool {
	_, r, s := tx.inner.rawSignatureValues()
	return (r != nil && r.Sign() != 0) || (s != nil && s.Sign() != 0)
}

// EffectiveGasPrice returns the price per unit of gas the transaction pays in
// a block with the given baseFee. For dynamic-fee types this is
// baseFee + min(gasFeeCap - baseFee, gasTipCap); legacy and access-list
// transactions always pay their declared gas price.
func (tx *Transaction) EffectiveGasPrice(baseFee *big.Int) *big.Int {
	return tx.inner.effectiveGasPrice(new(big.Int), baseFee)
}

// EffectiveGasTip returns the effective miner tip for the given base fee.
// Note: if the effective tip is negative, this method returns both error
// the actual negative value, _and_ ErrGasFeeCapTooLow
func (tx *Transaction) EffectiveGasTip(baseFee *big.Int) (*big.Int, error) {
	if baseFee == nil {
		return tx.GasTipCap(), nil
	}
	var err error
	gasFeeCap := tx.GasFeeCap()
	if gasFeeCap.Cmp(baseFee) < 0 {
		err = ErrGasFeeCapTooLow
	}
	gasFeeCap = gasFeeCap.Sub(gasFeeCap, baseFee)

	gasTipCap := tx.GasTipCap()
	if gasTipCap.Cmp(gasFeeCap) < 0 {
		return gasTipCap, err
	}
	return gasFeeCap, err
}

// BlobGas returns the blob gas consumed by the transaction: 2^17 per blob
// hash. Non-blob transactions consume no blob gas.
func (tx *Transaction) BlobGas() uint64 {
	if blobtx, ok := tx.inner.(*BlobTx); ok {
		return blobtx.blobGas()
	}
	return 0
}

// BlobGasCost returns the total blob fee at the given blob base fee,
// blobGas * blobBaseFee.
func (tx *Transaction) BlobGasCost(blobBaseFee *big.Int) *big.Int {
	return new(big.Int).Mul(new(big.Int).SetUint64(tx.BlobGas()), blobBaseFee)
}

// BlobGasFeeCap returns the blob gas fee cap per blob gas of the transaction
// for blob transactions, nil otherwise.
func (tx *Transaction) BlobGasFeeCap() *big.Int {
	if blobtx, ok := tx.inner.(*BlobTx); ok {
		return blobtx.BlobFeeCap.ToBig()
	}
	return nil
}

// BlobHashes returns the hashes of the blob commitments for blob transactions,
// nil otherwise.
func (tx *Transaction) BlobHashes() []common.Hash {
	if blobtx, ok := tx.inner.(*BlobTx); ok {
		return blobtx.BlobHashes
	}
	return nil
}

// SetCodeAuthorizations returns the authorizations of the transaction for
// set-code transactions, nil otherwise.
func (tx *Transaction) SetCodeAuthorizations() []SetCodeAuthorization {
	setcodetx, ok := tx.inner.(*SetCodeTx)
	if !ok {
		return nil
	}
	return setcodetx.AuthList
}

// Hash returns the transaction hash: the Keccak-256 of the canonical
// consensus encoding.
func (tx *Transaction) Hash() common.Hash {
	if hash := tx.hash.Load(); hash != nil {
		return *hash
	}

	a := fastrlp.DefaultArenaPool.Get()
	defer fastrlp.DefaultArenaPool.Put(a)

	var h common.Hash
	payload := tx.inner.encode(a)
	if tx.Type() == LegacyTxType {
		h = rlpHash(payload)
	} else {
		h = prefixedRlpHash(tx.Type(), payload)
	}
	tx.hash.Store(&h)
	return h
}

// Size returns the true encoded storage size of the transaction, either by
// encoding and returning it, or returning a previously cached value.
func (tx *Transaction) Size() uint64 {
	if size := tx.size.Load(); size > 0 {
		return size
	}
	enc, _ := tx.MarshalBinary()
	size := uint64(len(enc))
	tx.size.Store(size)
	return size
}

// WithSignature returns a new transaction with the given 65 byte
// [R || S || V] signature, where V is 0 or 1. The chainID is embedded into
// legacy V values when non-nil and non-zero (EIP-155) and stored verbatim in
// typed transactions.
func (tx *Transaction) WithSignature(chainID *big.Int, sig []byte) (*Transaction, error) {
	r, s, v := decodeSignature(sig)
	if tx.Type() == LegacyTxType {
		if chainID != nil && chainID.Sign() != 0 {
			v.Add(v, new(big.Int).Lsh(chainID, 1))
			v.Add(v, big.NewInt(35))
		} else {
			v.Add(v, big.NewInt(27))
		}
	} else if chainID != nil && chainID.Sign() != 0 && tx.inner.chainID() != nil && tx.inner.chainID().Cmp(chainID) != 0 {
		return nil, fmt.Errorf("%w: have %d want %d", ErrInvalidChainId, tx.inner.chainID(), chainID)
	}
	cpy := tx.inner.copy()
	cpy.setSignatureValues(chainID, v, r, s)
	return &Transaction{inner: cpy, time: tx.time}, nil
}

func copyAddressPtr(a *common.Address) *common.Address {
	if a == nil {
		return nil
	}
	cpy := *a
	return &cpy
}

// Transactions implements DerivableList for transactions.
type Transactions []*Transaction

// Len returns the length of s.
func (s Transactions) Len() int { return len(s) }

// TxDifference returns a new set of transactions that are present in a but not
// in b.
func TxDifference(a, b Transactions) Transactions {
	keep := make(Transactions, 0, len(a))

	remove := make(map[common.Hash]struct{}, len(b))
	for _, tx := range b {
		remove[tx.Hash()] = struct{}{}
	}
	for _, tx := range a {
		if _, ok := remove[tx.Hash()]; !ok {
			keep = append(keep, tx)
		}
	}
	return keep
}

// equalBinary reports whether two transactions share the same consensus
// encoding. The first-seen time never participates.
func equalBinary(a, b *Transaction) bool {
	abin, _ := a.MarshalBinary()
	bbin, _ := b.MarshalBinary()
	return bytes.Equal(abin, bbin)
}
