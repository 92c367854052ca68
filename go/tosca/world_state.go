// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package tosca

import "fmt"

//go:generate mockgen -source world_state.go -destination world_state_mock.go -package tosca

// WorldState is the account view of the EVM state an executor operates on.
// Absent accounts read as zero balance, zero nonce, and empty code.
type WorldState interface {
	AccountExists(Address) bool

	GetBalance(Address) Value
	SetBalance(Address, Value)

	GetNonce(Address) uint64
	SetNonce(Address, uint64)

	GetCode(Address) Code
	GetCodeHash(Address) Hash
	GetCodeSize(Address) int
	SetCode(Address, Code)

	GetStorage(Address, Key) Word
	SetStorage(Address, Key, Word) StorageStatus

	// SelfDestruct wipes addr and transfers its balance to beneficiary.
	// Returns true if it is the first time destroying this addr in the ongoing
	// transaction, false otherwise.
	SelfDestruct(addr Address, beneficiary Address) bool
}

// TransactionContext extends the WorldState with the transaction-scoped
// facilities needed while running a single transaction: snapshots, transient
// storage, access lists, and logs.
type TransactionContext interface {
	WorldState

	CreateSnapshot() Snapshot
	RestoreSnapshot(Snapshot)

	GetTransientStorage(Address, Key) Word
	SetTransientStorage(Address, Key, Word)

	AccessAccount(Address) AccessStatus
	AccessStorage(Address, Key) AccessStatus

	EmitLog(Log)
	GetLogs() []Log

	// GetBlockHash returns the hash of the block with the given number.
	GetBlockHash(number int64) Hash

	GetCommittedStorage(addr Address, key Key) Word
	IsAddressInAccessList(addr Address) bool
	IsSlotInAccessList(addr Address, key Key) (addressPresent, slotPresent bool)
	HasSelfDestructed(addr Address) bool
}

type StorageStatus int

const (
	// The comment indicates the storage values for the corresponding
	// configuration. X, Y, Z are non-zero numbers, distinct from each other,
	// while 0 is zero.
	//
	// <original> -> <current> -> <new>
	StorageAssigned         StorageStatus = iota
	StorageAdded                          // 0 -> 0 -> Z
	StorageDeleted                        // X -> X -> 0
	StorageModified                       // X -> X -> Z
	StorageDeletedAdded                   // X -> 0 -> Z
	StorageModifiedDeleted                // X -> Y -> 0
	StorageDeletedRestored                // X -> 0 -> X
	StorageAddedDeleted                   // 0 -> Y -> 0
	StorageModifiedRestored               // X -> Y -> X
)

func (s StorageStatus) String() string {
	switch s {
	case StorageAssigned:
		return "StorageAssigned"
	case StorageAdded:
		return "StorageAdded"
	case StorageDeleted:
		return "StorageDeleted"
	case StorageModified:
		return "StorageModified"
	case StorageDeletedAdded:
		return "StorageDeletedAdded"
	case StorageModifiedDeleted:
		return "StorageModifiedDeleted"
	case StorageDeletedRestored:
		return "StorageDeletedRestored"
	case StorageAddedDeleted:
		return "StorageAddedDeleted"
	case StorageModifiedRestored:
		return "StorageModifiedRestored"
	}
	return fmt.Sprintf("StorageStatus(%d)", s)
}

// GetStorageStatus classifies a storage update given the value at the start
// of the transaction, the current value, and the new value.
func GetStorageStatus(original, current, new Word) StorageStatus {
	var zero = Word{}

	if current == new {
		return StorageAssigned
	}
	switch {
	case original == zero && current == zero:
		return StorageAdded
	case original == zero && new == zero:
		return StorageAddedDeleted
	case original == current && new == zero:
		return StorageDeleted
	case original == current:
		return StorageModified
	case current == zero && new == original:
		return StorageDeletedRestored
	case current == zero:
		return StorageDeletedAdded
	case new == zero:
		return StorageModifiedDeleted
	case new == original:
		return StorageModifiedRestored
	}
	return StorageAssigned
}
