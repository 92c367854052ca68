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
	"errors"
	"testing"

	"github.com/Fantom-foundation/hosted-evm/go/host"
	"github.com/Fantom-foundation/hosted-evm/go/tosca"
)

func TestEngineState_LoadFailsBeforeInitialization(t *testing.T) {
	_, _, store := newTestStore(t)
	if HasState(store) {
		t.Errorf("fresh store has state")
	}
	if _, err := LoadState(store); !errors.Is(err, ErrStateNotInitialized) {
		t.Errorf("expected ErrStateNotInitialized, got %v", err)
	}
}

func TestEngineState_RoundTrip(t *testing.T) {
	_, _, store := newTestStore(t)
	want := EngineState{
		ChainID:            [32]byte{31: 1},
		OwnerID:            "owner.test",
		BridgeProverID:     "prover.test",
		UpgradeDelayBlocks: 10,
	}
	if err := StoreState(store, want); err != nil {
		t.Fatalf("failed to store state: %v", err)
	}
	got, err := LoadState(store)
	if err != nil {
		t.Fatalf("failed to load state: %v", err)
	}
	if got != want {
		t.Errorf("unexpected state, wanted %+v, got %+v", want, got)
	}
	if got.Owner() != host.AccountID("owner.test") || got.BridgeProver() != "prover.test" {
		t.Errorf("unexpected accounts %v %v", got.Owner(), got.BridgeProver())
	}
	if got.ChainIDValue() != tosca.NewValue(1) {
		t.Errorf("unexpected chain id %v", got.ChainIDValue())
	}
}

func TestTokenMap_RegisterIsInjective(t *testing.T) {
	_, _, store := newTestStore(t)
	tokens := NewTokenMap(store)
	erc20 := tosca.Address{0xaa}
	if err := tokens.Register("usdc.test", erc20); err != nil {
		t.Fatalf("failed to register: %v", err)
	}
	if got, err := tokens.Erc20("usdc.test"); err != nil || got != erc20 {
		t.Errorf("unexpected erc20 %v, err %v", got, err)
	}
	if got, err := tokens.Nep141(erc20); err != nil || got != "usdc.test" {
		t.Errorf("unexpected nep141 %v, err %v", got, err)
	}
	if err := tokens.Register("usdc.test", tosca.Address{0xbb}); !errors.Is(err, ErrAlreadyRegistered) {
		t.Errorf("expected ErrAlreadyRegistered for same token, got %v", err)
	}
	if err := tokens.Register("dai.test", erc20); !errors.Is(err, ErrAlreadyRegistered) {
		t.Errorf("expected ErrAlreadyRegistered for same contract, got %v", err)
	}
}

func TestTokenMap_MissingEntries(t *testing.T) {
	_, _, store := newTestStore(t)
	tokens := NewTokenMap(store)
	if _, err := tokens.Erc20("usdc.test"); !errors.Is(err, ErrErc20NotFound) {
		t.Errorf("expected ErrErc20NotFound, got %v", err)
	}
	if _, err := tokens.Nep141(tosca.Address{1}); !errors.Is(err, ErrNep141NotFound) {
		t.Errorf("expected ErrNep141NotFound, got %v", err)
	}
}

func TestRelayers_FallBackToDerivedAddress(t *testing.T) {
	_, _, store := newTestStore(t)
	relayers := NewRelayers(store)
	if want, got := AddressFromAccountID("relay.test"), relayers.Address("relay.test"); want != got {
		t.Errorf("unexpected default address %v", got)
	}
	relayers.Register("relay.test", tosca.Address{9})
	if want, got := (tosca.Address{9}), relayers.Address("relay.test"); want != got {
		t.Errorf("unexpected registered address %v", got)
	}
}
