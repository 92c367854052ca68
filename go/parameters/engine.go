// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package parameters defines the encodings of entry-point arguments and
// results. Administrative and engine arguments use borsh; the fungible
// token flows use JSON.
package parameters

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/Fantom-foundation/hosted-evm/go/storage"
	"github.com/Fantom-foundation/hosted-evm/go/tosca"
	"github.com/near/borsh-go"
)

// Decode decodes borsh encoded data into target.
func Decode(data []byte, target any) error {
	return storage.DecodeBorsh(data, target)
}

// decodeExact is like Decode but also rejects trailing bytes. It must only
// be used for types without optional fields, which do not re-encode to
// their input.
func decodeExact[T any](data []byte, target *T) error {
	if err := Decode(data, target); err != nil {
		return err
	}
	encoded, err := borsh.Serialize(*target)
	if err != nil {
		return fmt.Errorf("%w: %v", storage.ErrDeserialize, err)
	}
	if len(encoded) != len(data) {
		return fmt.Errorf("%w: %d trailing bytes", storage.ErrDeserialize, len(data)-len(encoded))
	}
	return nil
}

// Encode serializes value with borsh.
func Encode(value any) ([]byte, error) {
	return storage.EncodeBorsh(value)
}

// NewCallArgs initializes the engine.
type NewCallArgs struct {
	ChainID            [32]byte
	OwnerID            string
	BridgeProverID     string
	UpgradeDelayBlocks uint64
}

// FunctionCallArgsV2 calls a contract with an attached value.
type FunctionCallArgsV2 struct {
	Contract tosca.Address
	Value    [32]byte
	Input    []byte
}

// FunctionCallArgsV1 calls a contract without value.
type FunctionCallArgsV1 struct {
	Contract tosca.Address
	Input    []byte
}

// CallArgs is the versioned argument of the call entry point.
type CallArgs struct {
	Enum borsh.Enum `borsh_enum:"true"`
	V2   FunctionCallArgsV2
	V1   FunctionCallArgsV1
}

const (
	CallArgsV2 borsh.Enum = iota
	CallArgsV1
)

// DecodeCallArgs accepts the versioned encoding as well as a bare
// FunctionCallArgsV1 and normalizes both to the V2 form.
func DecodeCallArgs(data []byte) (FunctionCallArgsV2, error) {
	var args CallArgs
	if err := decodeExact(data, &args); err == nil {
		switch args.Enum {
		case CallArgsV2:
			return args.V2, nil
		case CallArgsV1:
			return FunctionCallArgsV2{Contract: args.V1.Contract, Input: args.V1.Input}, nil
		}
	}
	var legacy FunctionCallArgsV1
	if err := decodeExact(data, &legacy); err != nil {
		return FunctionCallArgsV2{}, err
	}
	return FunctionCallArgsV2{Contract: legacy.Contract, Input: legacy.Input}, nil
}

// ViewCallArgs runs a call without committing its effects.
type ViewCallArgs struct {
	Sender  tosca.Address
	Address tosca.Address
	Amount  [32]byte
	Input   []byte
}

type GetStorageAtArgs struct {
	Address tosca.Address
	Key     [32]byte
}

type DeployErc20TokenArgs struct {
	Nep141 string
}

type GetErc20FromNep141CallArgs struct {
	Nep141 string
}

// RefundCallArgs describes the tokens to return if an exit fails. A zero
// Erc20Address denotes a native ETH exit.
type RefundCallArgs struct {
	RecipientAddress tosca.Address
	Erc20Address     *tosca.Address
	Amount           [32]byte
}

// Erc20 returns the token contract of an ERC-20 exit.
func (a *RefundCallArgs) Erc20() (tosca.Address, bool) {
	if a.Erc20Address == nil || *a.Erc20Address == (tosca.Address{}) {
		return tosca.Address{}, false
	}
	return *a.Erc20Address, true
}

type AccountBalance struct {
	Address tosca.Address
	Balance [32]byte
}

// BeginChainArgs resets the chain id and seeds genesis balances.
type BeginChainArgs struct {
	ChainID      [32]byte
	GenesisAlloc []AccountBalance
}

type BeginBlockArgs struct {
	Hash       [32]byte
	Coinbase   tosca.Address
	Timestamp  [32]byte
	Number     [32]byte
	Difficulty [32]byte
	GasLimit   [32]byte
}

// PromiseArgs is the encoded form of a host promise.
type PromiseArgs struct {
	TargetAccountID string
	Method          string
	Args            []byte
	AttachedBalance big.Int
	AttachedGas     uint64
}

// PromiseWithCallbackArgs is a promise followed by a callback into the
// scheduling contract.
type PromiseWithCallbackArgs struct {
	Base     PromiseArgs
	Callback PromiseArgs
}

// StatusOutput carries the output of a finished execution.
type StatusOutput struct {
	Output []byte
}

// TransactionStatus is the outcome of an execution.
type TransactionStatus struct {
	Enum        borsh.Enum `borsh_enum:"true"`
	Succeed     StatusOutput
	Revert      StatusOutput
	OutOfGas    struct{}
	OutOfFund   struct{}
	OutOfOffset struct{}
	CallTooDeep struct{}
}

const (
	StatusSucceed borsh.Enum = iota
	StatusRevert
	StatusOutOfGas
	StatusOutOfFund
	StatusOutOfOffset
	StatusCallTooDeep
)

func Succeed(output []byte) TransactionStatus {
	return TransactionStatus{Enum: StatusSucceed, Succeed: StatusOutput{Output: output}}
}

func Revert(output []byte) TransactionStatus {
	return TransactionStatus{Enum: StatusRevert, Revert: StatusOutput{Output: output}}
}

func OutOfFund() TransactionStatus {
	return TransactionStatus{Enum: StatusOutOfFund}
}

// StatusFromReceipt translates the status of an executed transaction.
func StatusFromReceipt(receipt *tosca.Receipt) TransactionStatus {
	switch receipt.Status {
	case tosca.StatusSucceed:
		return Succeed(receipt.Output)
	case tosca.StatusRevert:
		return Revert(receipt.Output)
	case tosca.StatusOutOfGas:
		return TransactionStatus{Enum: StatusOutOfGas}
	case tosca.StatusOutOfFund:
		return OutOfFund()
	case tosca.StatusOutOfOffset:
		return TransactionStatus{Enum: StatusOutOfOffset}
	case tosca.StatusCallTooDeep:
		return TransactionStatus{Enum: StatusCallTooDeep}
	}
	panic(fmt.Sprintf("unknown execution status %v", receipt.Status))
}

// IsOk reports whether the execution succeeded.
func (s *TransactionStatus) IsOk() bool {
	return s.Enum == StatusSucceed
}

// Output returns the output of succeeded or reverted executions.
func (s *TransactionStatus) Output() []byte {
	switch s.Enum {
	case StatusSucceed:
		return s.Succeed.Output
	case StatusRevert:
		return s.Revert.Output
	}
	return nil
}

func (s TransactionStatus) String() string {
	switch s.Enum {
	case StatusSucceed:
		return "Succeed"
	case StatusRevert:
		return "Revert"
	case StatusOutOfGas:
		return "ERR_OUT_OF_GAS"
	case StatusOutOfFund:
		return "ERR_OUT_OF_FUNDS"
	case StatusOutOfOffset:
		return "ERR_OUT_OF_OFFSET"
	case StatusCallTooDeep:
		return "ERR_CALL_TOO_DEEP"
	}
	return fmt.Sprintf("TransactionStatus(%d)", s.Enum)
}

// ResultLog is a log emitted by an execution.
type ResultLog struct {
	Address tosca.Address
	Topics  [][32]byte
	Data    []byte
}

// SubmitResult is the outcome of a call, deployment or submitted
// transaction.
type SubmitResult struct {
	Status  TransactionStatus
	GasUsed uint64
	Logs    []ResultLog
}

func NewSubmitResult(status TransactionStatus, gasUsed uint64, logs []tosca.Log) SubmitResult {
	res := SubmitResult{Status: status, GasUsed: gasUsed, Logs: []ResultLog{}}
	for _, log := range logs {
		topics := make([][32]byte, len(log.Topics))
		for i, topic := range log.Topics {
			topics[i] = topic
		}
		res.Logs = append(res.Logs, ResultLog{Address: log.Address, Topics: topics, Data: bytes.Clone(log.Data)})
	}
	return res
}
