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

//go:generate mockgen -source processor.go -destination processor_mock.go -package tosca

// Processor executes a single, already admitted transaction on a
// TransactionContext. Nonce checks, gas purchase, and refunds are the
// responsibility of the caller; the processor deducts intrinsic gas, runs
// the EVM, and reports the outcome.
type Processor interface {
	// Run executes the transaction provided by the parameters in the specified context.
	// A non-nil error signals a failure that must abort the whole invocation.
	Run(BlockParameters, Transaction, TransactionContext) (Receipt, error)
}

// BlockParameters describe the block a transaction is executed in.
type BlockParameters struct {
	ChainID     Word
	BlockNumber int64
	Timestamp   int64
	Coinbase    Address
	GasLimit    Gas
	PrevRandao  Hash
	BaseFee     Value
	Revision    Revision
}

type Transaction struct {
	Sender     Address       // the sender of the transaction, paying for its execution
	Recipient  *Address      // the receiver of a transaction, nil if a new contract is to be created
	Nonce      uint64        // the nonce of the sender account, used to prevent replay attacks
	Input      Data          // the input data for the transaction
	Value      Value         // the amount of network currency to transfer to the recipient
	GasLimit   Gas           // the maximum amount of gas that can be used by the transaction
	GasPrice   Value         // the effective price of a unit of gas for this transaction
	AccessList []AccessTuple // the list of accounts and storage slots expected to be accessed
}

// ExecutionStatus enumerates the outcomes of a transaction that are reported
// to the caller instead of aborting the invocation.
type ExecutionStatus byte

const (
	StatusSucceed ExecutionStatus = iota
	StatusRevert
	StatusOutOfGas
	StatusOutOfFund
	StatusOutOfOffset
	StatusCallTooDeep
)

func (s ExecutionStatus) String() string {
	switch s {
	case StatusSucceed:
		return "Succeed"
	case StatusRevert:
		return "Revert"
	case StatusOutOfGas:
		return "OutOfGas"
	case StatusOutOfFund:
		return "OutOfFund"
	case StatusOutOfOffset:
		return "OutOfOffset"
	case StatusCallTooDeep:
		return "CallTooDeep"
	}
	return fmt.Sprintf("ExecutionStatus(%d)", s)
}

type Receipt struct {
	Status          ExecutionStatus // outcome of the execution
	Output          Data            // the output produced by the transaction
	ContractAddress *Address        // filled if a contract was created by this transaction
	GasUsed         Gas             // gas used including intrinsic costs, after refunds
	Logs            []Log           // logs produced by the transaction
}

// Success is true if the transaction ran to completion without a revert or
// an exceptional halt.
func (r Receipt) Success() bool {
	return r.Status == StatusSucceed
}
