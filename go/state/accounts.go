// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package state maps the EVM world state and the engine configuration onto
// the flat key space of the host.
package state

import (
	"encoding/binary"
	"fmt"

	"github.com/Fantom-foundation/hosted-evm/go/host"
	"github.com/Fantom-foundation/hosted-evm/go/storage"
	"github.com/Fantom-foundation/hosted-evm/go/tosca"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/crypto/sha3"
)

const ErrIncorrectNonce = tosca.ConstError("ERR_INCORRECT_NONCE")

const codeHashCacheSize = 1 << 10

// Accounts provides the per-address tables of the EVM state. Absent keys
// read as zero values and zero values are never stored.
type Accounts struct {
	store      *storage.Store
	codeHashes *lru.Cache[tosca.Address, tosca.Hash]
}

func NewAccounts(store *storage.Store) *Accounts {
	cache, err := lru.New[tosca.Address, tosca.Hash](codeHashCacheSize)
	if err != nil {
		panic(fmt.Sprintf("failed to create code hash cache: %v", err))
	}
	return &Accounts{store: store, codeHashes: cache}
}

func (a *Accounts) Store() *storage.Store {
	return a.store
}

func (a *Accounts) readWord(prefix storage.KeyPrefix, address tosca.Address) tosca.Value {
	var res tosca.Value
	if data, found := a.store.Read(prefix, address[:]); found {
		// Values are right-aligned so that shorter encodings stay readable.
		if len(data) > len(res) {
			data = data[len(data)-len(res):]
		}
		copy(res[len(res)-len(data):], data)
	}
	return res
}

func (a *Accounts) writeWord(prefix storage.KeyPrefix, address tosca.Address, value tosca.Value) {
	if value.IsZero() {
		a.store.Remove(prefix, address[:])
		return
	}
	a.store.Write(prefix, address[:], value[:])
}

// Nonce returns the nonce of the account. Nonces beyond 64 bits saturate.
func (a *Accounts) Nonce(address tosca.Address) uint64 {
	nonce := a.readWord(storage.PrefixNonce, address)
	value, overflow := nonce.ToUint256().Uint64WithOverflow()
	if overflow {
		return ^uint64(0)
	}
	return value
}

func (a *Accounts) SetNonce(address tosca.Address, nonce uint64) {
	a.writeWord(storage.PrefixNonce, address, tosca.NewValue(nonce))
}

func (a *Accounts) IncrementNonce(address tosca.Address) {
	a.SetNonce(address, a.Nonce(address)+1)
}

// AssertNonce fails with ErrIncorrectNonce unless the account nonce equals
// the expected value.
func (a *Accounts) AssertNonce(address tosca.Address, expected uint64) error {
	if current := a.Nonce(address); current != expected {
		return fmt.Errorf("%w: account %v, expected %d, got %d", ErrIncorrectNonce, address, current, expected)
	}
	return nil
}

func (a *Accounts) Balance(address tosca.Address) tosca.Value {
	return a.readWord(storage.PrefixBalance, address)
}

func (a *Accounts) SetBalance(address tosca.Address, balance tosca.Value) {
	a.writeWord(storage.PrefixBalance, address, balance)
}

func (a *Accounts) Code(address tosca.Address) tosca.Code {
	code, _ := a.store.Read(storage.PrefixCode, address[:])
	return code
}

func (a *Accounts) SetCode(address tosca.Address, code tosca.Code) {
	a.codeHashes.Remove(address)
	if len(code) == 0 {
		a.store.Remove(storage.PrefixCode, address[:])
		return
	}
	a.store.Write(storage.PrefixCode, address[:], code)
}

// CodeHash returns the Keccak256 hash of the account's code, which is the
// hash of the empty string for accounts without code.
func (a *Accounts) CodeHash(address tosca.Address) tosca.Hash {
	if hash, found := a.codeHashes.Get(address); found {
		return hash
	}
	hash := Keccak256(a.Code(address))
	a.codeHashes.Add(address, hash)
	return hash
}

// Generation returns the storage generation of the account.
func (a *Accounts) Generation(address tosca.Address) uint32 {
	data, found := a.store.Read(storage.PrefixGeneration, address[:])
	if !found || len(data) != 4 {
		return 0
	}
	return binary.BigEndian.Uint32(data)
}

// BumpGeneration makes all storage slots of the account unreachable.
func (a *Accounts) BumpGeneration(address tosca.Address) {
	next := a.Generation(address) + 1
	a.store.Write(storage.PrefixGeneration, address[:], binary.BigEndian.AppendUint32(nil, next))
}

func (a *Accounts) Storage(address tosca.Address, key tosca.Key) tosca.Word {
	var res tosca.Word
	data, found := a.store.ReadRaw(storage.SlotKey(address, a.Generation(address), key))
	if found {
		copy(res[:], data)
	}
	return res
}

// SetStorage writes a slot of the current generation. Zero values delete
// the slot.
func (a *Accounts) SetStorage(address tosca.Address, key tosca.Key, value tosca.Word) {
	slot := storage.SlotKey(address, a.Generation(address), key)
	if value == (tosca.Word{}) {
		a.store.RemoveRaw(slot)
		return
	}
	a.store.WriteRaw(slot, value[:])
}

// Exists reports whether the account has a non-zero nonce, a non-zero
// balance, or code.
func (a *Accounts) Exists(address tosca.Address) bool {
	return a.store.Has(storage.PrefixNonce, address[:]) ||
		a.store.Has(storage.PrefixBalance, address[:]) ||
		a.store.Has(storage.PrefixCode, address[:])
}

// Remove deletes the account and detaches its storage by bumping the
// generation.
func (a *Accounts) Remove(address tosca.Address) {
	a.store.Remove(storage.PrefixNonce, address[:])
	a.store.Remove(storage.PrefixBalance, address[:])
	a.SetCode(address, nil)
	a.BumpGeneration(address)
}

// Keccak256 hashes data with the legacy Keccak-256 function.
func Keccak256(data ...[]byte) tosca.Hash {
	res := tosca.Hash{}
	hasher := sha3.NewLegacyKeccak256()
	for _, cur := range data {
		hasher.Write(cur)
	}
	hasher.Sum(res[0:0])
	return res
}

// AddressFromAccountID derives the EVM address of a host account from the
// low 20 bytes of the hash of its name.
func AddressFromAccountID(account host.AccountID) tosca.Address {
	hash := Keccak256([]byte(account))
	return tosca.Address(hash[12:])
}

// BlockHash computes the synthetic hash of a host block:
// keccak256(chain_id ‖ height (u64 big-endian) ‖ account_id).
func BlockHash(chainID tosca.Word, height uint64, account host.AccountID) tosca.Hash {
	return Keccak256(chainID[:], binary.BigEndian.AppendUint64(nil, height), []byte(account))
}
