// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package memhost

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/Fantom-foundation/hosted-evm/go/host"
	"github.com/syndtr/goleveldb/leveldb"
)

// Invocation is the runtime of a single entry-point call. Storage writes are
// buffered until the invocation is committed.
type Invocation struct {
	host     *Host
	call     Call
	writes   map[string][]byte
	deleted  map[string]bool
	output   []byte
	logs     []string
	promises []Promise
	returned *host.PromiseID
	deploy   []byte
}

var _ host.Runtime = (*Invocation)(nil)

// abort is the panic value raised by PanicUTF8.
type abort struct {
	message string
}

func (inv *Invocation) run(contract Contract) (message string, aborted bool) {
	defer func() {
		if r := recover(); r != nil {
			aborted = true
			if a, ok := r.(abort); ok {
				message = a.message
			} else {
				message = fmt.Sprintf("ERR_HOST_PANIC: %v", r)
			}
		}
	}()
	contract(inv, inv.call.Method)
	return "", false
}

// Commit writes the buffered storage modifications to the database in key
// order and installs self-deployed code.
func (inv *Invocation) Commit() error {
	batch := new(leveldb.Batch)
	for _, key := range sortedKeys(inv.deleted) {
		batch.Delete([]byte(key))
	}
	for _, key := range sortedKeys(inv.writes) {
		batch.Put([]byte(key), inv.writes[key])
	}
	if err := inv.host.db.Write(batch, nil); err != nil {
		return fmt.Errorf("failed to commit invocation %s: %w", inv.call.Method, err)
	}
	if inv.deploy != nil {
		inv.host.code = inv.deploy
	}
	inv.Discard()
	return nil
}

// Discard drops all buffered modifications.
func (inv *Invocation) Discard() {
	inv.writes = map[string][]byte{}
	inv.deleted = map[string]bool{}
	inv.deploy = nil
}

// Output returns the value set by ReturnOutput.
func (inv *Invocation) Output() []byte {
	return inv.output
}

// Promises lists the promises scheduled so far.
func (inv *Invocation) Promises() []Promise {
	return inv.promises
}

func (inv *Invocation) SignerAccountID() host.AccountID {
	return inv.call.Signer
}

func (inv *Invocation) CurrentAccountID() host.AccountID {
	return inv.host.account
}

func (inv *Invocation) PredecessorAccountID() host.AccountID {
	return inv.call.Predecessor
}

func (inv *Invocation) BlockHeight() uint64 {
	return inv.host.height
}

func (inv *Invocation) BlockTimestamp() host.Timestamp {
	return inv.host.timestamp
}

func (inv *Invocation) AttachedDeposit() *host.Yocto {
	return new(big.Int).Set(inv.call.Deposit)
}

func (inv *Invocation) ReadInput() []byte {
	return bytes.Clone(inv.call.Input)
}

func (inv *Invocation) ReturnOutput(value []byte) {
	inv.output = bytes.Clone(value)
}

func (inv *Invocation) ReadStorage(key []byte) ([]byte, bool) {
	k := string(key)
	if value, found := inv.writes[k]; found {
		return bytes.Clone(value), true
	}
	if inv.deleted[k] {
		return nil, false
	}
	return inv.host.Get(key)
}

func (inv *Invocation) WriteStorage(key []byte, value []byte) {
	k := string(key)
	delete(inv.deleted, k)
	inv.writes[k] = bytes.Clone(value)
}

func (inv *Invocation) RemoveStorage(key []byte) {
	k := string(key)
	delete(inv.writes, k)
	inv.deleted[k] = true
}

func (inv *Invocation) nextPromiseID() host.PromiseID {
	return host.PromiseID(len(inv.promises))
}

func (inv *Invocation) PromiseCreate(args host.PromiseCreateArgs) host.PromiseID {
	id := inv.nextPromiseID()
	inv.promises = append(inv.promises, Promise{ID: id, Args: args})
	return id
}

func (inv *Invocation) PromiseThen(base host.PromiseID, callback host.PromiseCreateArgs) host.PromiseID {
	if int(base) >= len(inv.promises) {
		inv.PanicUTF8([]byte(fmt.Sprintf("ERR_HOST_PANIC: unknown promise %d", base)))
	}
	id := inv.nextPromiseID()
	inv.promises = append(inv.promises, Promise{ID: id, After: &base, Args: callback})
	return id
}

func (inv *Invocation) PromiseTransfer(target host.AccountID, amount *host.Yocto) host.PromiseID {
	id := inv.nextPromiseID()
	inv.promises = append(inv.promises, Promise{
		ID:       id,
		Args:     host.PromiseCreateArgs{TargetAccountID: target},
		Transfer: &Transfer{Target: target, Amount: new(big.Int).Set(amount)},
	})
	return id
}

func (inv *Invocation) PromiseReturn(id host.PromiseID) {
	inv.returned = &id
}

func (inv *Invocation) PromiseResultsCount() uint64 {
	return uint64(len(inv.call.PromiseResults))
}

func (inv *Invocation) PromiseResult(index uint64) host.PromiseResult {
	if index >= uint64(len(inv.call.PromiseResults)) {
		inv.PanicUTF8([]byte("ERR_HOST_PANIC: promise result index out of bounds"))
	}
	return inv.call.PromiseResults[index]
}

func (inv *Invocation) SelfDeploy(codeKey []byte) {
	code, found := inv.ReadStorage(codeKey)
	if !found {
		inv.PanicUTF8([]byte("ERR_HOST_PANIC: no staged code"))
	}
	inv.deploy = code
	inv.PromiseCreate(host.PromiseCreateArgs{
		TargetAccountID: inv.host.account,
		Method:          "state_migration",
	})
}

func (inv *Invocation) PanicUTF8(message []byte) {
	panic(abort{message: string(message)})
}

func (inv *Invocation) Log(message string) {
	inv.logs = append(inv.logs, message)
	inv.host.log.Trace("Contract log", "method", inv.call.Method, "message", message)
}
