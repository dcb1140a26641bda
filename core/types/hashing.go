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
	"sync"

	"github.com/voltaire-eth/voltaire/common"
	"github.com/voltaire-eth/voltaire/crypto"
	"github.com/umbracle/fastrlp"
)

// hasherPool holds LegacyKeccak256 hashers for rlpHash.
var hasherPool = sync.Pool{
	New: func() interface{} { return crypto.NewKeccakState() },
}

// encodeBufferPool holds temporary encoder buffers for hashing.
var encodeBufferPool = sync.Pool{
	New: func() interface{} { return new([]byte) },
}

// rlpHash encodes v and hashes the encoded bytes.
func rlpHash(v *fastrlp.Value) (h common.Hash) {
	sha := hasherPool.Get().(crypto.KeccakState)
	defer hasherPool.Put(sha)
	sha.Reset()

	buf := encodeBufferPool.Get().(*[]byte)
	defer encodeBufferPool.Put(buf)
	*buf = v.MarshalTo((*buf)[:0])

	sha.Write(*buf)
	sha.Read(h[:])
	return h
}

// prefixedRlpHash writes the prefix into the hasher before encoding v.
// It's used for typed transactions.
func prefixedRlpHash(prefix byte, v *fastrlp.Value) (h common.Hash) {
	sha := hasherPool.Get().(crypto.KeccakState)
	defer hasherPool.Put(sha)
	sha.Reset()

	buf := encodeBufferPool.Get().(*[]byte)
	defer encodeBufferPool.Put(buf)
	*buf = v.MarshalTo((*buf)[:0])

	sha.Write([]byte{prefix})
	sha.Write(*buf)
	sha.Read(h[:])
	return h
}
