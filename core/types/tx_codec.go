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

// Decode errors shared by the field codecs. Each transaction type wraps these
// with the field name that failed.
var (
	errDecodeNonList     = errors.New("rlp: expected list")
	errDecodeLeadingZero = errors.New("rlp: non-canonical integer (leading zero bytes)")
	errDecodeIntTooLarge = errors.New("rlp: integer out of range")
	errDecodeBadAddress  = errors.New("rlp: invalid address length")
	errDecodeBadHash     = errors.New("rlp: invalid hash length")
)

// listElems returns the child values of a list, tolerating the empty-list
// representation the parser may produce.
func listElems(v *fastrlp.Value) ([]*fastrlp.Value, error) {
	switch v.Type() {
	case fastrlp.TypeArray:
		return v.GetElems()
	case fastrlp.TypeArrayNull:
		return nil, nil
	default:
		return nil, errDecodeNonList
	}
}

// valueBytes returns the payload of a string item, tolerating the empty-string
// representation the parser may produce.
func valueBytes(v *fastrlp.Value) ([]byte, error) {
	if v.Type() == fastrlp.TypeNull {
		return nil, nil
	}
	return v.GetBytes(nil)
}

// decodeUint64Field decodes a canonical RLP unsigned integer into uint64.
// The empty string is zero; leading zero bytes are rejected.
func decodeUint64Field(v *fastrlp.Value) (uint64, error) {
	b, err := valueBytes(v)
	if err != nil {
		return 0, err
	}
	if len(b) > 8 {
		return 0, errDecodeIntTooLarge
	}
	if len(b) > 0 && b[0] == 0 {
		return 0, errDecodeLeadingZero
	}
	var n uint64
	for _, c := range b {
		n = n<<8 | uint64(c)
	}
	return n, nil
}

// decodeBigField decodes a canonical RLP unsigned integer of at most 32 bytes.
func decodeBigField(v *fastrlp.Value) (*big.Int, error) {
	b, err := valueBytes(v)
	if err != nil {
		return nil, err
	}
	if len(b) > 32 {
		return nil, errDecodeIntTooLarge
	}
	if len(b) > 0 && b[0] == 0 {
		return nil, errDecodeLeadingZero
	}
	return new(big.Int).SetBytes(b), nil
}

// decodeU256Field decodes a canonical RLP unsigned integer of at most 32 bytes.
func decodeU256Field(v *fastrlp.Value) (*uint256.Int, error) {
	b, err := valueBytes(v)
	if err != nil {
		return nil, err
	}
	if len(b) > 32 {
		return nil, errDecodeIntTooLarge
	}
	if len(b) > 0 && b[0] == 0 {
		return nil, errDecodeLeadingZero
	}
	return new(uint256.Int).SetBytes(b), nil
}

// decodeBytesField copies the payload of a string item.
func decodeBytesField(v *fastrlp.Value) ([]byte, error) {
	b, err := valueBytes(v)
	if err != nil {
		return nil, err
	}
	return common.CopyBytes(b), nil
}

// decodeAddressField decodes an exactly 20 byte address.
func decodeAddressField(v *fastrlp.Value) (common.Address, error) {
	b, err := valueBytes(v)
	if err != nil {
		return common.Address{}, err
	}
	if len(b) != common.AddressLength {
		return common.Address{}, fmt.Errorf("%w: %d bytes", errDecodeBadAddress, len(b))
	}
	return common.BytesToAddress(b), nil
}

// decodeOptionalAddressField decodes either the empty string (contract
// creation) or an exactly 20 byte address.
func decodeOptionalAddressField(v *fastrlp.Value) (*common.Address, error) {
	b, err := valueBytes(v)
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return nil, nil
	}
	if len(b) != common.AddressLength {
		return nil, fmt.Errorf("%w: %d bytes", errDecodeBadAddress, len(b))
	}
	addr := common.BytesToAddress(b)
	return &addr, nil
}

// decodeHashField decodes an exactly 32 byte hash.
func decodeHashField(v *fastrlp.Value) (common.Hash, error) {
	b, err := valueBytes(v)
	if err != nil {
		return common.Hash{}, err
	}
	if len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("%w: %d bytes", errDecodeBadHash, len(b))
	}
	return common.BytesToHash(b), nil
}

// arenaBig encodes b as a canonical unsigned integer. A nil value encodes as
// zero (the empty string).
func arenaBig(a *fastrlp.Arena, b *big.Int) *fastrlp.Value {
	if b == nil {
		return a.NewNull()
	}
	return a.NewBigInt(b)
}

// arenaU256 encodes u as a canonical unsigned integer. A nil value encodes as
// zero (the empty string).
func arenaU256(a *fastrlp.Arena, u *uint256.Int) *fastrlp.Value {
	if u == nil {
		return a.NewNull()
	}
	return a.NewCopyBytes(u.Bytes())
}

// arenaOptionalAddress encodes a possibly-nil destination address. Nil encodes
// as the empty string (contract creation).
func arenaOptionalAddress(a *fastrlp.Arena, addr *common.Address) *fastrlp.Value {
	if addr == nil {
		return a.NewNull()
	}
	return a.NewCopyBytes(addr.Bytes())
}

// arenaAccessList encodes an access list as [[address, [storageKey...]]...].
func arenaAccessList(a *fastrlp.Arena, list AccessList) *fastrlp.Value {
	vv := a.NewArray()
	for _, tuple := range list {
		tv := a.NewArray()
		tv.Set(a.NewCopyBytes(tuple.Address.Bytes()))
		keys := a.NewArray()
		for _, key := range tuple.StorageKeys {
			keys.Set(a.NewCopyBytes(key.Bytes()))
		}
		tv.Set(keys)
		vv.Set(tv)
	}
	return vv
}

// decodeAccessListField decodes [[address, [storageKey...]]...], enforcing the
// two-element tuple shape and exact address/key lengths.
func decodeAccessListField(v *fastrlp.Value) (AccessList, error) {
	elems, err := listElems(v)
	if err != nil {
		return nil, err
	}
	list := make(AccessList, 0, len(elems))
	for _, e := range elems {
		tuple, err := listElems(e)
		if err != nil {
			return nil, err
		}
		if len(tuple) != 2 {
			return nil, fmt.Errorf("rlp: expected 2 fields in access tuple, got %d", len(tuple))
		}
		addr, err := decodeAddressField(tuple[0])
		if err != nil {
			return nil, err
		}
		keyElems, err := listElems(tuple[1])
		if err != nil {
			return nil, err
		}
		keys := make([]common.Hash, 0, len(keyElems))
		for _, ke := range keyElems {
			key, err := decodeHashField(ke)
			if err != nil {
				return nil, err
			}
			keys = append(keys, key)
		}
		list = append(list, AccessTuple{Address: addr, StorageKeys: keys})
	}
	return list, nil
}

// arenaAuthList encodes an authorization list as
// [[chainId, address, nonce, yParity, r, s]...].
func arenaAuthList(a *fastrlp.Arena, list []SetCodeAuthorization) *fastrlp.Value {
	vv := a.NewArray()
	for i := range list {
		auth := &list[i]
		av := a.NewArray()
		av.Set(arenaU256(a, &auth.ChainID))
		av.Set(a.NewCopyBytes(auth.Address.Bytes()))
		av.Set(a.NewUint(auth.Nonce))
		av.Set(a.NewUint(uint64(auth.V)))
		av.Set(arenaU256(a, &auth.R))
		av.Set(arenaU256(a, &auth.S))
		vv.Set(av)
	}
	return vv
}

// decodeAuthListField decodes [[chainId, address, nonce, yParity, r, s]...],
// enforcing the six-element tuple shape.
func decodeAuthListField(v *fastrlp.Value) ([]SetCodeAuthorization, error) {
	elems, err := listElems(v)
	if err != nil {
		return nil, err
	}
	list := make([]SetCodeAuthorization, 0, len(elems))
	for _, e := range elems {
		tuple, err := listElems(e)
		if err != nil {
			return nil, err
		}
		if len(tuple) != 6 {
			return nil, fmt.Errorf("rlp: expected 6 fields in authorization, got %d", len(tuple))
		}
		var auth SetCodeAuthorization
		chainID, err := decodeU256Field(tuple[0])
		if err != nil {
			return nil, err
		}
		auth.ChainID = *chainID
		if auth.Address, err = decodeAddressField(tuple[1]); err != nil {
			return nil, err
		}
		if auth.Nonce, err = decodeUint64Field(tuple[2]); err != nil {
			return nil, err
		}
		yParity, err := decodeUint64Field(tuple[3])
		if err != nil {
			return nil, err
		}
		if yParity > 255 {
			return nil, errDecodeIntTooLarge
		}
		auth.V = uint8(yParity)
		r, err := decodeU256Field(tuple[4])
		if err != nil {
			return nil, err
		}
		auth.R = *r
		s, err := decodeU256Field(tuple[5])
		if err != nil {
			return nil, err
		}
		auth.S = *s
		list = append(list, auth)
	}
	return list, nil
}
