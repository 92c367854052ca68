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
	"github.com/Fantom-foundation/hosted-evm/go/host"
	"github.com/Fantom-foundation/hosted-evm/go/storage"
	"github.com/Fantom-foundation/hosted-evm/go/tosca"
)

const ErrStateNotInitialized = tosca.ConstError("ERR_STATE_NOT_INITIALIZED")

var stateKey = []byte("STATE")

// EngineState is the persistent configuration of the engine.
type EngineState struct {
	ChainID            [32]byte
	OwnerID            string
	BridgeProverID     string
	UpgradeDelayBlocks uint64
}

func (s EngineState) Owner() host.AccountID {
	return host.AccountID(s.OwnerID)
}

func (s EngineState) BridgeProver() host.AccountID {
	return host.AccountID(s.BridgeProverID)
}

// ChainIDValue returns the chain id as a u256 value.
func (s EngineState) ChainIDValue() tosca.Value {
	return tosca.Value(s.ChainID)
}

// LoadState reads the engine state. It fails with ErrStateNotInitialized
// before the engine has been initialized.
func LoadState(store *storage.Store) (EngineState, error) {
	var res EngineState
	found, err := store.ReadBorsh(storage.PrefixConfig, stateKey, &res)
	if err != nil {
		return EngineState{}, err
	}
	if !found {
		return EngineState{}, ErrStateNotInitialized
	}
	return res, nil
}

// HasState reports whether the engine has been initialized.
func HasState(store *storage.Store) bool {
	return store.Has(storage.PrefixConfig, stateKey)
}

func StoreState(store *storage.Store, state EngineState) error {
	return store.WriteBorsh(storage.PrefixConfig, stateKey, state)
}
