// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package contract

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Fantom-foundation/hosted-evm/go/host"
	"github.com/Fantom-foundation/hosted-evm/go/parameters"
	"github.com/Fantom-foundation/hosted-evm/go/state"
	"github.com/Fantom-foundation/hosted-evm/go/storage"
	"github.com/Fantom-foundation/hosted-evm/go/tosca"
)

const (
	ErrNotAllowed     = tosca.ConstError("ERR_NOT_ALLOWED")
	ErrTooEarly       = tosca.ConstError("ERR_NOT_ALLOWED:TOO_EARLY")
	ErrNoUpgrade      = tosca.ConstError("ERR_NO_UPGRADE")
	ErrInvalidUpgrade = tosca.ConstError("ERR_INVALID_UPGRADE")
)

// keys of the upgrade slot in the Config table
var (
	CodeKey      = []byte("CODE")
	CodeStageKey = []byte("CODE_STAGE")
)

func (c *Contract) registerAdmin() {
	c.methods["new"] = initialize
	c.methods["get_version"] = getVersion
	c.methods["get_owner"] = getOwner
	c.methods["get_chain_id"] = getChainID
	c.methods["get_bridge_prover"] = getBridgeProver
	c.methods["get_upgrade_index"] = getUpgradeIndex
	c.methods["stage_upgrade"] = stageUpgrade
	c.methods["deploy_upgrade"] = deployUpgrade
	c.methods["state_migration"] = stateMigration
}

func requireOwner(rt host.Runtime, s state.EngineState) error {
	if predecessor := rt.PredecessorAccountID(); predecessor != s.Owner() {
		return fmt.Errorf("%w: %s is not the owner", ErrNotAllowed, predecessor)
	}
	return nil
}

// ownerState loads the engine state and checks that the predecessor is
// its owner.
func ownerState(rt host.Runtime) (state.EngineState, error) {
	s, err := state.LoadState(storage.New(rt))
	if err != nil {
		return state.EngineState{}, err
	}
	return s, requireOwner(rt, s)
}

// initialize stores the engine state. Once initialized, only the owner
// may replace it.
func initialize(rt host.Runtime) ([]byte, error) {
	store := storage.New(rt)
	if state.HasState(store) {
		if _, err := ownerState(rt); err != nil {
			return nil, err
		}
	}
	var args parameters.NewCallArgs
	if err := parameters.Decode(rt.ReadInput(), &args); err != nil {
		return nil, err
	}
	if err := host.AccountID(args.OwnerID).Validate(); err != nil {
		return nil, err
	}
	return nil, state.StoreState(store, state.EngineState{
		ChainID:            args.ChainID,
		OwnerID:            args.OwnerID,
		BridgeProverID:     args.BridgeProverID,
		UpgradeDelayBlocks: args.UpgradeDelayBlocks,
	})
}

func getVersion(host.Runtime) ([]byte, error) {
	return []byte(Version), nil
}

func getOwner(rt host.Runtime) ([]byte, error) {
	s, err := state.LoadState(storage.New(rt))
	if err != nil {
		return nil, err
	}
	return []byte(s.OwnerID), nil
}

func getChainID(rt host.Runtime) ([]byte, error) {
	s, err := state.LoadState(storage.New(rt))
	if err != nil {
		return nil, err
	}
	return s.ChainID[:], nil
}

func getBridgeProver(rt host.Runtime) ([]byte, error) {
	s, err := state.LoadState(storage.New(rt))
	if err != nil {
		return nil, err
	}
	return []byte(s.BridgeProverID), nil
}

// stagedHeight returns the block height the staged upgrade was recorded at.
func stagedHeight(store *storage.Store) (uint64, error) {
	height, err := store.ReadU64(storage.PrefixConfig, CodeStageKey)
	switch {
	case errors.Is(err, storage.ErrMissing):
		return 0, ErrNoUpgrade
	case errors.Is(err, storage.ErrInvalidEncoding):
		return 0, fmt.Errorf("%w: %v", ErrInvalidUpgrade, err)
	}
	return height, err
}

// upgradeIndex is the last block height at which the staged upgrade may
// not be deployed yet.
func upgradeIndex(rt host.Runtime) (uint64, error) {
	store := storage.New(rt)
	s, err := state.LoadState(store)
	if err != nil {
		return 0, err
	}
	height, err := stagedHeight(store)
	if err != nil {
		return 0, err
	}
	return height + s.UpgradeDelayBlocks, nil
}

func getUpgradeIndex(rt host.Runtime) ([]byte, error) {
	index, err := upgradeIndex(rt)
	if err != nil {
		return nil, err
	}
	return binary.LittleEndian.AppendUint64(nil, index), nil
}

// stageUpgrade stores new contract code along with the current height.
func stageUpgrade(rt host.Runtime) ([]byte, error) {
	if _, err := ownerState(rt); err != nil {
		return nil, err
	}
	store := storage.New(rt)
	store.Write(storage.PrefixConfig, CodeKey, rt.ReadInput())
	store.WriteU64(storage.PrefixConfig, CodeStageKey, rt.BlockHeight())
	return nil, nil
}

// deployUpgrade replaces the contract code with the staged code once the
// upgrade delay has passed. Each stage can be deployed once.
func deployUpgrade(rt host.Runtime) ([]byte, error) {
	index, err := upgradeIndex(rt)
	if err != nil {
		return nil, err
	}
	if height := rt.BlockHeight(); height <= index {
		return nil, fmt.Errorf("%w: height %d, upgrade index %d", ErrTooEarly, height, index)
	}
	rt.SelfDeploy(storage.Key(storage.PrefixConfig, CodeKey))
	storage.New(rt).Remove(storage.PrefixConfig, CodeStageKey)
	return nil, nil
}

// stateMigration runs after an upgrade was deployed. No migration is
// required by the current state layout.
func stateMigration(host.Runtime) ([]byte, error) {
	return nil, nil
}

// beginChain resets the chain id and seeds genesis balances.
func beginChain(rt host.Runtime) ([]byte, error) {
	s, err := ownerState(rt)
	if err != nil {
		return nil, err
	}
	var args parameters.BeginChainArgs
	if err := parameters.Decode(rt.ReadInput(), &args); err != nil {
		return nil, err
	}
	store := storage.New(rt)
	s.ChainID = args.ChainID
	if err := state.StoreState(store, s); err != nil {
		return nil, err
	}
	accounts := state.NewAccounts(store)
	for _, alloc := range args.GenesisAlloc {
		accounts.SetBalance(alloc.Address, tosca.Value(alloc.Balance))
	}
	return s.ChainID[:], nil
}

// beginBlock accepts block parameters for benchmarks. The parameters are
// not applied to the execution environment.
func beginBlock(rt host.Runtime) ([]byte, error) {
	if _, err := ownerState(rt); err != nil {
		return nil, err
	}
	var args parameters.BeginBlockArgs
	return nil, parameters.Decode(rt.ReadInput(), &args)
}
