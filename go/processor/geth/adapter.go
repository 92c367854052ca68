// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package geth

import (
	"github.com/Fantom-foundation/hosted-evm/go/tosca"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/stateless"
	"github.com/ethereum/go-ethereum/core/tracing"
	"github.com/ethereum/go-ethereum/core/types"
	geth "github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/params"
	"github.com/ethereum/go-ethereum/trie/utils"
	"github.com/holiman/uint256"
)

// stateDbAdapter presents a tosca.TransactionContext as a geth.StateDB.
// Refunds are tracked here since the context has no notion of them.
type stateDbAdapter struct {
	context       tosca.TransactionContext
	refund        uint64
	refundBackups map[tosca.Snapshot]uint64
	created       map[tosca.Address]bool
	precompiles   map[common.Address]bool
}

var _ geth.StateDB = (*stateDbAdapter)(nil)

func newStateDbAdapter(context tosca.TransactionContext, precompiles []common.Address) *stateDbAdapter {
	res := &stateDbAdapter{
		context:       context,
		refundBackups: map[tosca.Snapshot]uint64{},
		created:       map[tosca.Address]bool{},
		precompiles:   map[common.Address]bool{},
	}
	for _, addr := range precompiles {
		res.precompiles[addr] = true
	}
	return res
}

func (s *stateDbAdapter) CreateAccount(common.Address) {
	// accounts come into existence with their first non-empty field
}

func (s *stateDbAdapter) CreateContract(addr common.Address) {
	s.created[tosca.Address(addr)] = true
}

func (s *stateDbAdapter) SubBalance(addr common.Address, diff *uint256.Int, _ tracing.BalanceChangeReason) {
	account := tosca.Address(addr)
	cur := s.context.GetBalance(account)
	s.context.SetBalance(account, tosca.Sub(cur, tosca.ValueFromUint256(diff)))
}

func (s *stateDbAdapter) AddBalance(addr common.Address, diff *uint256.Int, _ tracing.BalanceChangeReason) {
	account := tosca.Address(addr)
	cur := s.context.GetBalance(account)
	s.context.SetBalance(account, tosca.Add(cur, tosca.ValueFromUint256(diff)))
}

func (s *stateDbAdapter) GetBalance(addr common.Address) *uint256.Int {
	return s.context.GetBalance(tosca.Address(addr)).ToUint256()
}

func (s *stateDbAdapter) GetNonce(addr common.Address) uint64 {
	return s.context.GetNonce(tosca.Address(addr))
}

func (s *stateDbAdapter) SetNonce(addr common.Address, nonce uint64) {
	s.context.SetNonce(tosca.Address(addr), nonce)
}

func (s *stateDbAdapter) GetCodeHash(addr common.Address) common.Hash {
	return common.Hash(s.context.GetCodeHash(tosca.Address(addr)))
}

func (s *stateDbAdapter) GetCode(addr common.Address) []byte {
	return s.context.GetCode(tosca.Address(addr))
}

func (s *stateDbAdapter) SetCode(addr common.Address, code []byte) {
	s.context.SetCode(tosca.Address(addr), code)
}

func (s *stateDbAdapter) GetCodeSize(addr common.Address) int {
	return s.context.GetCodeSize(tosca.Address(addr))
}

func (s *stateDbAdapter) AddRefund(value uint64) {
	s.refund += value
}

func (s *stateDbAdapter) SubRefund(value uint64) {
	s.refund -= value
}

func (s *stateDbAdapter) GetRefund() uint64 {
	return s.refund
}

func (s *stateDbAdapter) GetCommittedState(addr common.Address, key common.Hash) common.Hash {
	return common.Hash(s.context.GetCommittedStorage(tosca.Address(addr), tosca.Key(key)))
}

func (s *stateDbAdapter) GetState(addr common.Address, key common.Hash) common.Hash {
	return common.Hash(s.context.GetStorage(tosca.Address(addr), tosca.Key(key)))
}

func (s *stateDbAdapter) SetState(addr common.Address, key common.Hash, value common.Hash) {
	s.context.SetStorage(tosca.Address(addr), tosca.Key(key), tosca.Word(value))
}

func (s *stateDbAdapter) GetStorageRoot(common.Address) common.Hash {
	// storage is keyed by generation, there is no trie root
	return common.Hash{}
}

func (s *stateDbAdapter) GetTransientState(addr common.Address, key common.Hash) common.Hash {
	return common.Hash(s.context.GetTransientStorage(tosca.Address(addr), tosca.Key(key)))
}

func (s *stateDbAdapter) SetTransientState(addr common.Address, key, value common.Hash) {
	s.context.SetTransientStorage(tosca.Address(addr), tosca.Key(key), tosca.Word(value))
}

// SelfDestruct is called after the EVM credited the beneficiary, so the
// remaining balance of addr is burned.
func (s *stateDbAdapter) SelfDestruct(addr common.Address) {
	s.context.SelfDestruct(tosca.Address(addr), tosca.Address(addr))
}

func (s *stateDbAdapter) HasSelfDestructed(addr common.Address) bool {
	return s.context.HasSelfDestructed(tosca.Address(addr))
}

func (s *stateDbAdapter) Selfdestruct6780(addr common.Address) {
	if s.created[tosca.Address(addr)] {
		s.SelfDestruct(addr)
	}
}

// Exist reports state precompiles as existing so that value-less calls
// to them are not short-circuited.
func (s *stateDbAdapter) Exist(addr common.Address) bool {
	return s.precompiles[addr] || s.context.AccountExists(tosca.Address(addr))
}

func (s *stateDbAdapter) Empty(addr common.Address) bool {
	return s.GetBalance(addr).IsZero() && s.GetNonce(addr) == 0 && s.GetCodeSize(addr) == 0
}

// PrepareAccessList warms the sender, the destination, all precompiles,
// and the entries of the transaction's access list.
func (s *stateDbAdapter) PrepareAccessList(sender common.Address, dest *common.Address, precompiles []common.Address, txAccesses types.AccessList) {
	s.context.AccessAccount(tosca.Address(sender))
	if dest != nil {
		s.context.AccessAccount(tosca.Address(*dest))
	}
	for _, addr := range precompiles {
		s.context.AccessAccount(tosca.Address(addr))
	}
	for _, el := range txAccesses {
		s.context.AccessAccount(tosca.Address(el.Address))
		for _, key := range el.StorageKeys {
			s.context.AccessStorage(tosca.Address(el.Address), tosca.Key(key))
		}
	}
}

func (s *stateDbAdapter) AddressInAccessList(addr common.Address) bool {
	return s.context.IsAddressInAccessList(tosca.Address(addr))
}

func (s *stateDbAdapter) SlotInAccessList(addr common.Address, slot common.Hash) (addressOk bool, slotOk bool) {
	return s.context.IsSlotInAccessList(tosca.Address(addr), tosca.Key(slot))
}

func (s *stateDbAdapter) AddAddressToAccessList(addr common.Address) {
	s.context.AccessAccount(tosca.Address(addr))
}

func (s *stateDbAdapter) AddSlotToAccessList(addr common.Address, slot common.Hash) {
	s.context.AccessStorage(tosca.Address(addr), tosca.Key(slot))
}

func (s *stateDbAdapter) Prepare(rules params.Rules, sender, coinbase common.Address, dest *common.Address, precompiles []common.Address, txAccesses types.AccessList) {
	s.PrepareAccessList(sender, dest, precompiles, txAccesses)
	if rules.IsShanghai {
		s.context.AccessAccount(tosca.Address(coinbase))
	}
}

func (s *stateDbAdapter) RevertToSnapshot(snapshot int) {
	s.context.RestoreSnapshot(tosca.Snapshot(snapshot))
	s.refund = s.refundBackups[tosca.Snapshot(snapshot)]
}

func (s *stateDbAdapter) Snapshot() int {
	id := s.context.CreateSnapshot()
	s.refundBackups[id] = s.refund
	return int(id)
}

func (s *stateDbAdapter) AddLog(log *types.Log) {
	topics := make([]tosca.Hash, 0, len(log.Topics))
	for _, cur := range log.Topics {
		topics = append(topics, tosca.Hash(cur))
	}
	s.context.EmitLog(tosca.Log{
		Address: tosca.Address(log.Address),
		Topics:  topics,
		Data:    log.Data,
	})
}

func (s *stateDbAdapter) GetLogs() []tosca.Log {
	return s.context.GetLogs()
}

func (s *stateDbAdapter) AddPreimage(common.Hash, []byte) {
	// preimage recording is not enabled
}

func (s *stateDbAdapter) ForEachStorage(common.Address, func(common.Hash, common.Hash) bool) error {
	panic("storage iteration is not supported")
}

func (s *stateDbAdapter) PointCache() *utils.PointCache {
	// see https://eips.ethereum.org/EIPS/eip-4762
	panic("should not be needed by revisions up to Cancun")
}

func (s *stateDbAdapter) Witness() *stateless.Witness {
	return nil
}
