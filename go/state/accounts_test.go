// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package state

import (
	"bytes"
	"errors"
	"testing"

	"github.com/Fantom-foundation/hosted-evm/go/host/memhost"
	"github.com/Fantom-foundation/hosted-evm/go/storage"
	"github.com/Fantom-foundation/hosted-evm/go/tosca"
)

func newTestStore(t *testing.T) (*memhost.Host, *memhost.Invocation, *storage.Store) {
	t.Helper()
	h, err := memhost.NewInMemory(memhost.Config{AccountID: "evm.test", BlockHeight: 100})
	if err != nil {
		t.Fatalf("failed to create host: %v", err)
	}
	t.Cleanup(func() { h.Close() })
	inv := h.Begin(memhost.Call{})
	return h, inv, storage.New(inv)
}

func TestAccounts_AbsentAccountsReadAsZero(t *testing.T) {
	_, _, store := newTestStore(t)
	accounts := NewAccounts(store)
	address := tosca.Address{1}
	if accounts.Nonce(address) != 0 || !accounts.Balance(address).IsZero() || len(accounts.Code(address)) != 0 {
		t.Errorf("absent account is not empty")
	}
	if accounts.Exists(address) {
		t.Errorf("absent account reported as existing")
	}
	if want, got := Keccak256(nil), accounts.CodeHash(address); want != got {
		t.Errorf("unexpected code hash, wanted %v, got %v", want, got)
	}
}

func TestAccounts_NonceAndBalanceAreStoredBigEndian(t *testing.T) {
	_, _, store := newTestStore(t)
	accounts := NewAccounts(store)
	address := tosca.Address{1}
	accounts.SetNonce(address, 0x0102)
	accounts.SetBalance(address, tosca.NewValue(0x0304))

	raw, found := store.Read(storage.PrefixNonce, address[:])
	if !found || len(raw) != 32 || raw[30] != 1 || raw[31] != 2 {
		t.Errorf("unexpected nonce encoding %x", raw)
	}
	raw, found = store.Read(storage.PrefixBalance, address[:])
	if !found || len(raw) != 32 || raw[30] != 3 || raw[31] != 4 {
		t.Errorf("unexpected balance encoding %x", raw)
	}
	if got := accounts.Nonce(address); got != 0x0102 {
		t.Errorf("unexpected nonce %d", got)
	}
	accounts.IncrementNonce(address)
	if got := accounts.Nonce(address); got != 0x0103 {
		t.Errorf("unexpected nonce after increment %d", got)
	}
}

func TestAccounts_ZeroValuesRemoveKeys(t *testing.T) {
	_, _, store := newTestStore(t)
	accounts := NewAccounts(store)
	address := tosca.Address{1}
	accounts.SetBalance(address, tosca.NewValue(5))
	accounts.SetBalance(address, tosca.Value{})
	if store.Has(storage.PrefixBalance, address[:]) {
		t.Errorf("zero balance is stored")
	}
	accounts.SetCode(address, []byte{1})
	accounts.SetCode(address, nil)
	if store.Has(storage.PrefixCode, address[:]) {
		t.Errorf("empty code is stored")
	}
}

func TestAccounts_AssertNonce(t *testing.T) {
	_, _, store := newTestStore(t)
	accounts := NewAccounts(store)
	address := tosca.Address{1}
	accounts.SetNonce(address, 3)
	if err := accounts.AssertNonce(address, 3); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := accounts.AssertNonce(address, 4); !errors.Is(err, ErrIncorrectNonce) {
		t.Errorf("expected ErrIncorrectNonce, got %v", err)
	}
}

func TestAccounts_ZeroStorageWriteDeletesSlot(t *testing.T) {
	h, inv, store := newTestStore(t)
	accounts := NewAccounts(store)
	address := tosca.Address{1}
	key := tosca.Key{2}
	accounts.SetStorage(address, key, tosca.Word{31: 7})
	if got := accounts.Storage(address, key); got != (tosca.Word{31: 7}) {
		t.Errorf("unexpected slot value %v", got)
	}
	accounts.SetStorage(address, key, tosca.Word{})
	if got := accounts.Storage(address, key); got != (tosca.Word{}) {
		t.Errorf("unexpected slot value %v", got)
	}
	if err := inv.Commit(); err != nil {
		t.Fatalf("failed to commit: %v", err)
	}
	if keys := h.Keys([]byte{byte(storage.PrefixStorage)}); len(keys) != 0 {
		t.Errorf("zero slot left keys behind: %x", keys)
	}
}

func TestAccounts_RemoveHidesStorageOfPreviousGeneration(t *testing.T) {
	_, _, store := newTestStore(t)
	accounts := NewAccounts(store)
	address := tosca.Address{1}
	key := tosca.Key{2}
	accounts.SetNonce(address, 1)
	accounts.SetCode(address, []byte{0x60})
	accounts.SetStorage(address, key, tosca.Word{31: 1})

	accounts.Remove(address)

	if got := accounts.Storage(address, key); got != (tosca.Word{}) {
		t.Errorf("slot of previous generation still visible: %v", got)
	}
	if len(accounts.Code(address)) != 0 || accounts.Exists(address) {
		t.Errorf("removed account still exists")
	}
	if want, got := uint32(1), accounts.Generation(address); want != got {
		t.Errorf("unexpected generation, wanted %d, got %d", want, got)
	}
}

func TestAccounts_CodeHashFollowsCodeUpdates(t *testing.T) {
	_, _, store := newTestStore(t)
	accounts := NewAccounts(store)
	address := tosca.Address{1}
	accounts.SetCode(address, []byte{1})
	if want, got := Keccak256([]byte{1}), accounts.CodeHash(address); want != got {
		t.Errorf("unexpected hash %v", got)
	}
	accounts.SetCode(address, []byte{2})
	if want, got := Keccak256([]byte{2}), accounts.CodeHash(address); want != got {
		t.Errorf("stale hash %v", got)
	}
}

func TestAddressFromAccountID_UsesLowBytesOfHash(t *testing.T) {
	hash := Keccak256([]byte("alice.test"))
	address := AddressFromAccountID("alice.test")
	if !bytes.Equal(address[:], hash[12:]) {
		t.Errorf("unexpected address %v", address)
	}
	if AddressFromAccountID("bob.test") == address {
		t.Errorf("different accounts map to the same address")
	}
}

func TestBlockHash_DependsOnAllInputs(t *testing.T) {
	base := BlockHash(tosca.Word{31: 1}, 5, "evm.test")
	if base != BlockHash(tosca.Word{31: 1}, 5, "evm.test") {
		t.Errorf("block hash is not deterministic")
	}
	for _, other := range []tosca.Hash{
		BlockHash(tosca.Word{31: 2}, 5, "evm.test"),
		BlockHash(tosca.Word{31: 1}, 6, "evm.test"),
		BlockHash(tosca.Word{31: 1}, 5, "other.test"),
	} {
		if other == base {
			t.Errorf("block hash collision")
		}
	}
}
