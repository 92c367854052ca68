// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package engine runs Ethereum transactions and calls against the EVM
// state kept in the host storage. Every entry point constructs a fresh
// Engine from the host runtime; no state survives an invocation outside
// of the host storage.
package engine

import (
	"math"
	"math/big"

	"github.com/Fantom-foundation/hosted-evm/go/host"
	"github.com/Fantom-foundation/hosted-evm/go/parameters"
	"github.com/Fantom-foundation/hosted-evm/go/processor/geth"
	"github.com/Fantom-foundation/hosted-evm/go/state"
	"github.com/Fantom-foundation/hosted-evm/go/storage"
	"github.com/Fantom-foundation/hosted-evm/go/tosca"
	"github.com/ethereum/go-ethereum/log"
)

const (
	ErrRefundFailure    = tosca.ConstError("ERR_REFUND_FAILURE")
	ErrMintFailure      = tosca.ConstError("ERR_MINT_FAILURE")
	ErrDeployFailure    = tosca.ConstError("ERR_DEPLOY_FAILURE")
	ErrInvalidRecipient = tosca.ConstError("ERR_INVALID_RECIPIENT")
)

// unlimitedGas is the gas limit of calls issued by host accounts, which
// pay for their execution with host gas.
const unlimitedGas = tosca.Gas(math.MaxInt64)

// revision is the EVM revision all transactions are executed with.
const revision = tosca.R10_London

// Engine executes transactions on behalf of a single invocation.
type Engine struct {
	runtime   host.Runtime
	store     *storage.Store
	state     state.EngineState
	accounts  *state.Accounts
	tokens    *state.TokenMap
	relayers  *state.Relayers
	processor tosca.Processor
	log       log.Logger
}

// New loads the engine state and creates an engine operating on it. It
// fails with state.ErrStateNotInitialized before the engine was set up.
func New(runtime host.Runtime) (*Engine, error) {
	engineState, err := state.LoadState(storage.New(runtime))
	if err != nil {
		return nil, err
	}
	return NewWithState(runtime, engineState)
}

// NewWithState creates an engine for an already loaded state.
func NewWithState(runtime host.Runtime, engineState state.EngineState) (*Engine, error) {
	store := storage.New(runtime)
	tokens := state.NewTokenMap(store)
	processor, err := tosca.NewProcessor("geth", geth.Config{
		AccountID: runtime.CurrentAccountID(),
		Tokens:    tokens,
	})
	if err != nil {
		return nil, err
	}
	return &Engine{
		runtime:   runtime,
		store:     store,
		state:     engineState,
		accounts:  state.NewAccounts(store),
		tokens:    tokens,
		relayers:  state.NewRelayers(store),
		processor: processor,
		log:       log.New("module", "engine", "account", runtime.CurrentAccountID()),
	}, nil
}

func (e *Engine) State() state.EngineState {
	return e.state
}

func (e *Engine) Accounts() *state.Accounts {
	return e.accounts
}

func (e *Engine) Tokens() *state.TokenMap {
	return e.tokens
}

// Address is the EVM address of the engine account. It is the mint
// authority of all bridged tokens.
func (e *Engine) Address() tosca.Address {
	return state.AddressFromAccountID(e.runtime.CurrentAccountID())
}

// PredecessorAddress is the EVM address of the account calling the
// engine.
func (e *Engine) PredecessorAddress() tosca.Address {
	return state.AddressFromAccountID(e.runtime.PredecessorAccountID())
}

func (e *Engine) blockParameters() tosca.BlockParameters {
	return tosca.BlockParameters{
		ChainID:     tosca.Word(e.state.ChainID),
		BlockNumber: int64(e.runtime.BlockHeight()),
		Timestamp:   int64(e.runtime.BlockTimestamp().Seconds()),
		GasLimit:    unlimitedGas,
		Revision:    revision,
	}
}

func (e *Engine) newContext() *state.Context {
	return state.NewContext(e.accounts, state.BlockInfo{
		ChainID:   tosca.Word(e.state.ChainID),
		Height:    e.runtime.BlockHeight(),
		AccountID: e.runtime.CurrentAccountID(),
	})
}

// execute runs the transaction and commits its effects. Exits recorded
// during the execution are scheduled as host promises and removed from
// the logs of the result. The sender nonce is advanced exactly once,
// whatever the outcome of the execution.
func (e *Engine) execute(tx tosca.Transaction) (parameters.SubmitResult, error) {
	context := e.newContext()
	nonce := context.GetNonce(tx.Sender)
	receipt, err := e.processor.Run(e.blockParameters(), tx, context)
	if err != nil {
		return parameters.SubmitResult{}, err
	}
	if context.GetNonce(tx.Sender) == nonce {
		context.SetNonce(tx.Sender, nonce+1)
	}
	context.Commit()

	exits, logs, err := geth.SplitExits(receipt.Logs)
	if err != nil {
		return parameters.SubmitResult{}, err
	}
	for _, exit := range exits {
		e.schedule(exit)
	}

	if receipt.Success() && tx.Recipient == nil && receipt.ContractAddress != nil {
		receipt.Output = receipt.ContractAddress[:]
	}
	status := parameters.StatusFromReceipt(&receipt)
	e.log.Debug("Executed transaction", "sender", tx.Sender, "status", status, "gas", receipt.GasUsed, "exits", len(exits))
	return parameters.NewSubmitResult(status, uint64(receipt.GasUsed), logs), nil
}

// schedule creates the promise of an exit followed by its callback.
func (e *Engine) schedule(promise parameters.PromiseWithCallbackArgs) host.PromiseID {
	base := e.runtime.PromiseCreate(promiseArgs(promise.Base))
	return e.runtime.PromiseThen(base, promiseArgs(promise.Callback))
}

func promiseArgs(args parameters.PromiseArgs) host.PromiseCreateArgs {
	return host.PromiseCreateArgs{
		TargetAccountID: host.AccountID(args.TargetAccountID),
		Method:          args.Method,
		Args:            args.Args,
		AttachedBalance: new(big.Int).Set(&args.AttachedBalance),
		AttachedGas:     args.AttachedGas,
	}
}

// Call runs a call issued by the predecessor account.
func (e *Engine) Call(args parameters.FunctionCallArgsV2) (parameters.SubmitResult, error) {
	contract := args.Contract
	return e.execute(tosca.Transaction{
		Sender:    e.PredecessorAddress(),
		Recipient: &contract,
		Nonce:     e.accounts.Nonce(e.PredecessorAddress()),
		Input:     args.Input,
		Value:     tosca.Value(args.Value),
		GasLimit:  unlimitedGas,
	})
}

// DeployCode deploys a contract on behalf of the predecessor account. The
// output of a successful deployment is the address of the new contract.
func (e *Engine) DeployCode(initCode []byte) (parameters.SubmitResult, error) {
	return e.execute(tosca.Transaction{
		Sender:   e.PredecessorAddress(),
		Nonce:    e.accounts.Nonce(e.PredecessorAddress()),
		Input:    initCode,
		GasLimit: unlimitedGas,
	})
}

// callAs runs a call with the given sender.
func (e *Engine) callAs(sender, contract tosca.Address, value tosca.Value, input []byte) (parameters.SubmitResult, error) {
	return e.execute(tosca.Transaction{
		Sender:    sender,
		Recipient: &contract,
		Nonce:     e.accounts.Nonce(sender),
		Input:     input,
		Value:     value,
		GasLimit:  unlimitedGas,
	})
}

// View runs a call without committing any of its effects.
func (e *Engine) View(args parameters.ViewCallArgs) (parameters.TransactionStatus, error) {
	context := e.newContext()
	defer context.Discard()
	contract := args.Address
	receipt, err := e.processor.Run(e.blockParameters(), tosca.Transaction{
		Sender:    args.Sender,
		Recipient: &contract,
		Nonce:     context.GetNonce(args.Sender),
		Input:     args.Input,
		Value:     tosca.Value(args.Amount),
		GasLimit:  unlimitedGas,
	}, context)
	if err != nil {
		return parameters.TransactionStatus{}, err
	}
	return parameters.StatusFromReceipt(&receipt), nil
}

// RegisterRelayer sets the address receiving the gas fees of transactions
// relayed by the predecessor account.
func (e *Engine) RegisterRelayer(address tosca.Address) {
	e.relayers.Register(e.runtime.PredecessorAccountID(), address)
}

func (e *Engine) BlockHash(height uint64) tosca.Hash {
	return state.BlockHash(tosca.Word(e.state.ChainID), height, e.runtime.CurrentAccountID())
}
