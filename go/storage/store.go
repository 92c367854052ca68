// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package storage provides the typed key layout the engine imposes on the
// flat key-value store of its host.
package storage

import (
	"encoding/binary"
	"fmt"

	"github.com/Fantom-foundation/hosted-evm/go/host"
	"github.com/Fantom-foundation/hosted-evm/go/tosca"
	"github.com/near/borsh-go"
)

// KeyPrefix selects a logical table within the host's key space. Every key
// written by the engine starts with exactly one prefix byte.
type KeyPrefix byte

const (
	PrefixConfig            KeyPrefix = 0x0
	PrefixNonce             KeyPrefix = 0x1
	PrefixBalance           KeyPrefix = 0x2
	PrefixCode              KeyPrefix = 0x3
	PrefixStorage           KeyPrefix = 0x4
	PrefixRelayerEvmAddress KeyPrefix = 0x5
	PrefixEthConnector      KeyPrefix = 0x6
	PrefixGeneration        KeyPrefix = 0x7
	PrefixNep141Erc20       KeyPrefix = 0x8
	PrefixErc20Nep141       KeyPrefix = 0x9
	PrefixProof             KeyPrefix = 0xa
	PrefixMetadata          KeyPrefix = 0xb
	PrefixPausedMask        KeyPrefix = 0xc
)

func (p KeyPrefix) String() string {
	switch p {
	case PrefixConfig:
		return "Config"
	case PrefixNonce:
		return "Nonce"
	case PrefixBalance:
		return "Balance"
	case PrefixCode:
		return "Code"
	case PrefixStorage:
		return "Storage"
	case PrefixRelayerEvmAddress:
		return "RelayerEvmAddress"
	case PrefixEthConnector:
		return "EthConnector"
	case PrefixGeneration:
		return "Generation"
	case PrefixNep141Erc20:
		return "Nep141Erc20"
	case PrefixErc20Nep141:
		return "Erc20Nep141"
	case PrefixProof:
		return "Proof"
	case PrefixMetadata:
		return "Metadata"
	case PrefixPausedMask:
		return "PausedMask"
	}
	return fmt.Sprintf("KeyPrefix(%d)", byte(p))
}

const (
	ErrMissing         = tosca.ConstError("ERR_KEY_MISSING")
	ErrInvalidEncoding = tosca.ConstError("ERR_INVALID_ENCODING")
	ErrSerialize       = tosca.ConstError("ERR_SERIALIZE")
	ErrDeserialize     = tosca.ConstError("ERR_BORSH_DESERIALIZE")
)

// Key builds the full key for body within the table selected by prefix.
func Key(prefix KeyPrefix, body []byte) []byte {
	res := make([]byte, 0, 1+len(body))
	res = append(res, byte(prefix))
	return append(res, body...)
}

// AddressKey builds the key of a per-address entry.
func AddressKey(prefix KeyPrefix, address tosca.Address) []byte {
	return Key(prefix, address[:])
}

// SlotKey builds the key of a storage slot of the given account generation:
// Storage ‖ address ‖ generation (u32 big-endian) ‖ slot.
func SlotKey(address tosca.Address, generation uint32, slot tosca.Key) []byte {
	res := make([]byte, 0, 1+20+4+32)
	res = append(res, byte(PrefixStorage))
	res = append(res, address[:]...)
	res = binary.BigEndian.AppendUint32(res, generation)
	return append(res, slot[:]...)
}

// Store is a typed view on the host storage.
type Store struct {
	io host.IO
}

func New(io host.IO) *Store {
	return &Store{io: io}
}

func (s *Store) Read(prefix KeyPrefix, key []byte) ([]byte, bool) {
	return s.io.ReadStorage(Key(prefix, key))
}

func (s *Store) Has(prefix KeyPrefix, key []byte) bool {
	_, found := s.Read(prefix, key)
	return found
}

func (s *Store) Write(prefix KeyPrefix, key []byte, value []byte) {
	s.io.WriteStorage(Key(prefix, key), value)
}

func (s *Store) Remove(prefix KeyPrefix, key []byte) {
	s.io.RemoveStorage(Key(prefix, key))
}

// ReadRaw and WriteRaw operate on fully assembled keys.
func (s *Store) ReadRaw(key []byte) ([]byte, bool) {
	return s.io.ReadStorage(key)
}

func (s *Store) WriteRaw(key []byte, value []byte) {
	s.io.WriteStorage(key, value)
}

func (s *Store) RemoveRaw(key []byte) {
	s.io.RemoveStorage(key)
}

// ReadU64 reads a little-endian u64. It fails with ErrMissing if the key is
// absent and with ErrInvalidEncoding if the stored value is not 8 bytes long.
func (s *Store) ReadU64(prefix KeyPrefix, key []byte) (uint64, error) {
	value, found := s.Read(prefix, key)
	if !found {
		return 0, fmt.Errorf("%w: %v/%x", ErrMissing, prefix, key)
	}
	if len(value) != 8 {
		return 0, fmt.Errorf("%w: expected 8 bytes, got %d", ErrInvalidEncoding, len(value))
	}
	return binary.LittleEndian.Uint64(value), nil
}

func (s *Store) WriteU64(prefix KeyPrefix, key []byte, value uint64) {
	s.Write(prefix, key, binary.LittleEndian.AppendUint64(nil, value))
}

// ReadBorsh decodes the value stored under the key into target. The result
// reports whether the key was present.
func (s *Store) ReadBorsh(prefix KeyPrefix, key []byte, target any) (bool, error) {
	value, found := s.Read(prefix, key)
	if !found {
		return false, nil
	}
	return true, DecodeBorsh(value, target)
}

// DecodeBorsh decodes data into target. Malformed input of any shape is
// reported as ErrDeserialize.
func DecodeBorsh(data []byte, target any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrDeserialize, r)
		}
	}()
	if err := borsh.Deserialize(target, data); err != nil {
		return fmt.Errorf("%w: %v", ErrDeserialize, err)
	}
	return nil
}

// EncodeBorsh serializes value.
func EncodeBorsh(value any) ([]byte, error) {
	data, err := borsh.Serialize(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialize, err)
	}
	return data, nil
}

func (s *Store) WriteBorsh(prefix KeyPrefix, key []byte, value any) error {
	data, err := EncodeBorsh(value)
	if err != nil {
		return err
	}
	s.Write(prefix, key, data)
	return nil
}

// ReadInput captures the input of the current invocation.
func (s *Store) ReadInput() []byte {
	return s.io.ReadInput()
}
