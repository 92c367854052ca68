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
	"slices"

	"github.com/Fantom-foundation/hosted-evm/go/host"
	"github.com/Fantom-foundation/hosted-evm/go/tosca"
)

// BlockInfo identifies the block a transaction context runs in.
type BlockInfo struct {
	ChainID   tosca.Word
	Height    uint64
	AccountID host.AccountID
}

type slot struct {
	address tosca.Address
	key     tosca.Key
}

// Context is the transaction-scoped view of the EVM state. All updates are
// buffered and journaled so that they can be rolled back to any snapshot.
// Commit writes the surviving updates to the underlying accounts.
type Context struct {
	accounts *Accounts
	block    BlockInfo

	balances   map[tosca.Address]tosca.Value
	nonces     map[tosca.Address]uint64
	codes      map[tosca.Address]tosca.Code
	storage    map[slot]tosca.Word
	transient  map[slot]tosca.Word
	destructed map[tosca.Address]bool

	accessedAccounts map[tosca.Address]bool
	accessedSlots    map[slot]bool

	logs    []tosca.Log
	journal []func()
}

var _ tosca.TransactionContext = (*Context)(nil)

func NewContext(accounts *Accounts, block BlockInfo) *Context {
	return &Context{
		accounts:         accounts,
		block:            block,
		balances:         map[tosca.Address]tosca.Value{},
		nonces:           map[tosca.Address]uint64{},
		codes:            map[tosca.Address]tosca.Code{},
		storage:          map[slot]tosca.Word{},
		transient:        map[slot]tosca.Word{},
		destructed:       map[tosca.Address]bool{},
		accessedAccounts: map[tosca.Address]bool{},
		accessedSlots:    map[slot]bool{},
	}
}

// record stores the current value of key in m for later restoration.
func record[K comparable, V any](c *Context, m map[K]V, key K) {
	old, present := m[key]
	c.journal = append(c.journal, func() {
		if present {
			m[key] = old
		} else {
			delete(m, key)
		}
	})
}

func (c *Context) AccountExists(address tosca.Address) bool {
	if c.destructed[address] {
		return true
	}
	if balance, found := c.balances[address]; found && !balance.IsZero() {
		return true
	}
	if nonce, found := c.nonces[address]; found && nonce != 0 {
		return true
	}
	if code, found := c.codes[address]; found && len(code) > 0 {
		return true
	}
	return c.accounts.Exists(address)
}

func (c *Context) GetBalance(address tosca.Address) tosca.Value {
	if balance, found := c.balances[address]; found {
		return balance
	}
	return c.accounts.Balance(address)
}

func (c *Context) SetBalance(address tosca.Address, value tosca.Value) {
	record(c, c.balances, address)
	c.balances[address] = value
}

func (c *Context) GetNonce(address tosca.Address) uint64 {
	if nonce, found := c.nonces[address]; found {
		return nonce
	}
	return c.accounts.Nonce(address)
}

func (c *Context) SetNonce(address tosca.Address, nonce uint64) {
	record(c, c.nonces, address)
	c.nonces[address] = nonce
}

func (c *Context) GetCode(address tosca.Address) tosca.Code {
	if code, found := c.codes[address]; found {
		return code
	}
	return c.accounts.Code(address)
}

func (c *Context) GetCodeHash(address tosca.Address) tosca.Hash {
	if !c.AccountExists(address) {
		return tosca.Hash{}
	}
	if code, found := c.codes[address]; found {
		return Keccak256(code)
	}
	return c.accounts.CodeHash(address)
}

func (c *Context) GetCodeSize(address tosca.Address) int {
	return len(c.GetCode(address))
}

func (c *Context) SetCode(address tosca.Address, code tosca.Code) {
	record(c, c.codes, address)
	c.codes[address] = bytes.Clone(code)
}

func (c *Context) GetStorage(address tosca.Address, key tosca.Key) tosca.Word {
	if value, found := c.storage[slot{address, key}]; found {
		return value
	}
	return c.accounts.Storage(address, key)
}

func (c *Context) GetCommittedStorage(address tosca.Address, key tosca.Key) tosca.Word {
	return c.accounts.Storage(address, key)
}

func (c *Context) SetStorage(address tosca.Address, key tosca.Key, value tosca.Word) tosca.StorageStatus {
	original := c.GetCommittedStorage(address, key)
	current := c.GetStorage(address, key)
	s := slot{address, key}
	record(c, c.storage, s)
	c.storage[s] = value
	return tosca.GetStorageStatus(original, current, value)
}

// SelfDestruct marks the account for deletion at the end of the
// transaction. Its remaining balance is moved to the beneficiary; if the
// beneficiary is the account itself, the balance is burned.
func (c *Context) SelfDestruct(address tosca.Address, beneficiary tosca.Address) bool {
	balance := c.GetBalance(address)
	if beneficiary != address && !balance.IsZero() {
		c.SetBalance(beneficiary, tosca.Add(c.GetBalance(beneficiary), balance))
	}
	c.SetBalance(address, tosca.Value{})
	if c.destructed[address] {
		return false
	}
	record(c, c.destructed, address)
	c.destructed[address] = true
	return true
}

func (c *Context) HasSelfDestructed(address tosca.Address) bool {
	return c.destructed[address]
}

func (c *Context) CreateSnapshot() tosca.Snapshot {
	return tosca.Snapshot(len(c.journal))
}

func (c *Context) RestoreSnapshot(snapshot tosca.Snapshot) {
	for len(c.journal) > int(snapshot) {
		last := len(c.journal) - 1
		c.journal[last]()
		c.journal = c.journal[:last]
	}
}

func (c *Context) GetTransientStorage(address tosca.Address, key tosca.Key) tosca.Word {
	return c.transient[slot{address, key}]
}

func (c *Context) SetTransientStorage(address tosca.Address, key tosca.Key, value tosca.Word) {
	s := slot{address, key}
	record(c, c.transient, s)
	c.transient[s] = value
}

func (c *Context) AccessAccount(address tosca.Address) tosca.AccessStatus {
	if c.accessedAccounts[address] {
		return tosca.WarmAccess
	}
	record(c, c.accessedAccounts, address)
	c.accessedAccounts[address] = true
	return tosca.ColdAccess
}

func (c *Context) AccessStorage(address tosca.Address, key tosca.Key) tosca.AccessStatus {
	s := slot{address, key}
	if c.accessedSlots[s] {
		return tosca.WarmAccess
	}
	record(c, c.accessedSlots, s)
	c.accessedSlots[s] = true
	return tosca.ColdAccess
}

func (c *Context) IsAddressInAccessList(address tosca.Address) bool {
	return c.accessedAccounts[address]
}

func (c *Context) IsSlotInAccessList(address tosca.Address, key tosca.Key) (addressPresent, slotPresent bool) {
	return c.accessedAccounts[address], c.accessedSlots[slot{address, key}]
}

func (c *Context) EmitLog(log tosca.Log) {
	size := len(c.logs)
	c.journal = append(c.journal, func() { c.logs = c.logs[:size] })
	c.logs = append(c.logs, log)
}

func (c *Context) GetLogs() []tosca.Log {
	return slices.Clone(c.logs)
}

func (c *Context) GetBlockHash(number int64) tosca.Hash {
	if number < 0 {
		return tosca.Hash{}
	}
	return BlockHash(c.block.ChainID, uint64(number), c.block.AccountID)
}

// Commit writes all buffered updates to the accounts. Accounts destroyed
// during the transaction are removed together with their storage. Updates
// are applied in address order so that the resulting writes are identical
// on every replica.
func (c *Context) Commit() {
	for _, address := range sortedAddresses(c.destructed) {
		c.accounts.Remove(address)
	}
	for _, address := range sortedAddresses(c.nonces) {
		if !c.destructed[address] {
			c.accounts.SetNonce(address, c.nonces[address])
		}
	}
	for _, address := range sortedAddresses(c.balances) {
		if !c.destructed[address] {
			c.accounts.SetBalance(address, c.balances[address])
		}
	}
	for _, address := range sortedAddresses(c.codes) {
		if !c.destructed[address] {
			c.accounts.SetCode(address, c.codes[address])
		}
	}
	slots := make([]slot, 0, len(c.storage))
	for s := range c.storage {
		if !c.destructed[s.address] {
			slots = append(slots, s)
		}
	}
	slices.SortFunc(slots, func(a, b slot) int {
		if res := bytes.Compare(a.address[:], b.address[:]); res != 0 {
			return res
		}
		return bytes.Compare(a.key[:], b.key[:])
	})
	for _, s := range slots {
		c.accounts.SetStorage(s.address, s.key, c.storage[s])
	}
	c.Discard()
}

// Discard drops all buffered updates.
func (c *Context) Discard() {
	*c = *NewContext(c.accounts, c.block)
}

func sortedAddresses[V any](m map[tosca.Address]V) []tosca.Address {
	res := make([]tosca.Address, 0, len(m))
	for address := range m {
		res = append(res, address)
	}
	slices.SortFunc(res, func(a, b tosca.Address) int {
		return bytes.Compare(a[:], b[:])
	})
	return res
}
