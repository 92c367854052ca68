// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package memhost provides a host for the engine that keeps its state in a
// LevelDB database, either in memory or on disk. It runs entry points with
// the same all-or-nothing semantics as a production host and resolves
// promises synchronously.
package memhost

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/Fantom-foundation/hosted-evm/go/host"
	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// Contract is the entry-point dispatcher of the contract hosted by a Host.
type Contract func(rt host.Runtime, method string)

// RemoteContract simulates a contract deployed on another account. It
// receives calls issued through promises and produces their results.
type RemoteContract func(call Call) host.PromiseResult

type Config struct {
	AccountID   host.AccountID
	BlockHeight uint64
	Timestamp   host.Timestamp
	// Registerer receives the host metrics. If nil, metrics are not exported.
	Registerer prometheus.Registerer
}

// Call describes a single invocation of an entry point.
type Call struct {
	Method         string
	Input          []byte
	Predecessor    host.AccountID
	Signer         host.AccountID
	Deposit        *host.Yocto
	PromiseResults []host.PromiseResult
}

// Transfer records a native token transfer scheduled by the contract.
type Transfer struct {
	Target host.AccountID
	Amount *host.Yocto
}

// Outcome summarizes an executed invocation.
type Outcome struct {
	Method   string
	Output   []byte
	Aborted  bool
	Panic    string
	Logs     []string
	Promises []Promise
	// Returned is the promise whose result becomes the result of the
	// invocation, if any.
	Returned *host.PromiseID
}

// Promise is a promise scheduled by an invocation.
type Promise struct {
	ID       host.PromiseID
	After    *host.PromiseID
	Args     host.PromiseCreateArgs
	Transfer *Transfer
}

type Host struct {
	db        *leveldb.DB
	account   host.AccountID
	height    uint64
	timestamp host.Timestamp
	code      []byte
	contract  Contract
	remotes   map[host.AccountID]RemoteContract
	transfers []Transfer
	metrics   *metrics
	log       log.Logger
}

// NewInMemory creates a host whose state lives in an in-memory LevelDB
// instance.
func NewInMemory(config Config) (*Host, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	return newHost(db, config), nil
}

// Open creates a host persisting its state in the LevelDB database at path.
func Open(path string, config Config) (*Host, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", path, err)
	}
	return newHost(db, config), nil
}

func newHost(db *leveldb.DB, config Config) *Host {
	timestamp := config.Timestamp
	if timestamp == 0 {
		timestamp = host.Timestamp(config.BlockHeight * uint64(time.Second))
	}
	return &Host{
		db:        db,
		account:   config.AccountID,
		height:    config.BlockHeight,
		timestamp: timestamp,
		remotes:   map[host.AccountID]RemoteContract{},
		metrics:   newMetrics(config.Registerer),
		log:       log.New("module", "memhost", "account", config.AccountID),
	}
}

func (h *Host) Close() error {
	return h.db.Close()
}

func (h *Host) AccountID() host.AccountID {
	return h.account
}

// SetContract installs the entry-point dispatcher used for calls to the
// host's own account.
func (h *Host) SetContract(contract Contract) {
	h.contract = contract
}

// RegisterRemote installs a simulated contract for another account.
func (h *Host) RegisterRemote(account host.AccountID, contract RemoteContract) {
	h.remotes[account] = contract
}

func (h *Host) BlockHeight() uint64 {
	return h.height
}

// AdvanceBlocks moves the chain forward by n blocks of one second each.
func (h *Host) AdvanceBlocks(n uint64) {
	h.height += n
	h.timestamp += host.Timestamp(n * uint64(time.Second))
}

// DeployedCode returns the code installed by the last self deployment.
func (h *Host) DeployedCode() []byte {
	return bytes.Clone(h.code)
}

// Transfers lists the native token transfers executed so far.
func (h *Host) Transfers() []Transfer {
	return append([]Transfer(nil), h.transfers...)
}

// Get reads a committed value.
func (h *Host) Get(key []byte) ([]byte, bool) {
	value, err := h.db.Get(key, nil)
	if err != nil {
		return nil, false
	}
	return value, true
}

// Keys lists all committed keys starting with the given prefix in
// ascending order.
func (h *Host) Keys(prefix []byte) [][]byte {
	it := h.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer it.Release()
	var res [][]byte
	for it.Next() {
		res = append(res, bytes.Clone(it.Key()))
	}
	return res
}

// Begin starts an invocation without running any contract code. The
// caller drives the runtime directly and finishes with Commit or Discard.
func (h *Host) Begin(call Call) *Invocation {
	if call.Predecessor == "" {
		call.Predecessor = h.account
	}
	if call.Signer == "" {
		call.Signer = call.Predecessor
	}
	if call.Deposit == nil {
		call.Deposit = new(big.Int)
	}
	return &Invocation{
		host:    h,
		call:    call,
		writes:  map[string][]byte{},
		deleted: map[string]bool{},
	}
}

// Call runs a single invocation of the installed contract. Storage writes
// are committed only if the invocation does not abort. Scheduled promises
// are reported but not executed.
func (h *Host) Call(call Call) (Outcome, error) {
	if h.contract == nil {
		return Outcome{}, errors.New("no contract installed")
	}
	start := time.Now()
	defer func() {
		h.metrics.latency.WithLabelValues(call.Method).Observe(time.Since(start).Seconds())
	}()
	h.metrics.invocations.WithLabelValues(call.Method).Inc()

	inv := h.Begin(call)
	message, aborted := inv.run(h.contract)
	outcome := Outcome{
		Method: call.Method,
		Logs:   inv.logs,
	}
	if aborted {
		inv.Discard()
		outcome.Aborted = true
		outcome.Panic = message
		h.metrics.aborts.WithLabelValues(call.Method, abortCode(message)).Inc()
		h.log.Debug("Invocation aborted", "method", call.Method, "panic", message)
		return outcome, nil
	}
	if err := inv.Commit(); err != nil {
		return Outcome{}, err
	}
	outcome.Output = inv.output
	outcome.Promises = inv.promises
	outcome.Returned = inv.returned
	h.metrics.promises.WithLabelValues(call.Method).Add(float64(len(inv.promises)))
	return outcome, nil
}

// Execute runs an invocation and, transitively, every promise it schedules.
// The outcomes of all executed invocations are returned in execution order,
// starting with the initial call.
func (h *Host) Execute(call Call) ([]Outcome, error) {
	var outcomes []Outcome
	_, err := h.execute(call, &outcomes)
	return outcomes, err
}

func (h *Host) execute(call Call, outcomes *[]Outcome) (host.PromiseResult, error) {
	outcome, err := h.Call(call)
	if err != nil {
		return host.PromiseResult{}, err
	}
	*outcomes = append(*outcomes, outcome)
	if outcome.Aborted {
		return host.PromiseResult{Status: host.PromiseFailed}, nil
	}

	results := map[host.PromiseID]host.PromiseResult{}
	for _, promise := range outcome.Promises {
		var callResults []host.PromiseResult
		if promise.After != nil {
			callResults = []host.PromiseResult{results[*promise.After]}
		}
		result, err := h.resolve(promise, callResults, outcomes)
		if err != nil {
			return host.PromiseResult{}, err
		}
		results[promise.ID] = result
	}
	if outcome.Returned != nil {
		return results[*outcome.Returned], nil
	}
	return host.PromiseResult{Status: host.PromiseSuccessful, Data: outcome.Output}, nil
}

func (h *Host) resolve(promise Promise, results []host.PromiseResult, outcomes *[]Outcome) (host.PromiseResult, error) {
	if promise.Transfer != nil {
		h.transfers = append(h.transfers, *promise.Transfer)
		return host.PromiseResult{Status: host.PromiseSuccessful}, nil
	}
	call := Call{
		Method:         promise.Args.Method,
		Input:          promise.Args.Args,
		Predecessor:    h.account,
		Signer:         h.account,
		Deposit:        promise.Args.AttachedBalance,
		PromiseResults: results,
	}
	if promise.Args.TargetAccountID == h.account {
		return h.execute(call, outcomes)
	}
	remote, found := h.remotes[promise.Args.TargetAccountID]
	if !found {
		h.log.Debug("Promise to unknown account", "target", promise.Args.TargetAccountID, "method", promise.Args.Method)
		return host.PromiseResult{Status: host.PromiseFailed}, nil
	}
	return remote(call), nil
}

// sortedKeys returns the keys of m in ascending order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
