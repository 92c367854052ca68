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
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/Fantom-foundation/hosted-evm/go/host"
	"github.com/Fantom-foundation/hosted-evm/go/parameters"
	"github.com/Fantom-foundation/hosted-evm/go/state"
	"github.com/Fantom-foundation/hosted-evm/go/tosca"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/tracing"
	"github.com/ethereum/go-ethereum/core/types"
	geth "github.com/ethereum/go-ethereum/core/vm"
	"github.com/holiman/uint256"
)

var (
	// ExitToNearAddress moves ETH or bridged tokens to a host account.
	ExitToNearAddress = precompileAddress("exitToNear")
	// ExitToEthereumAddress moves ETH or bridged tokens to the
	// counterpart chain.
	ExitToEthereumAddress = precompileAddress("exitToEthereum")

	// exitTopic marks logs carrying a scheduled exit.
	exitTopic = common.Hash(state.Keccak256([]byte("ExitPromise")))
)

const (
	exitFlagEth = 0x0

	exitGas = 10_000

	// host gas attached to the promises of an exit
	gasForExit   = 10_000_000_000_000
	gasForRefund = 5_000_000_000_000
)

var maxU128 = new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), 128), uint256.NewInt(1))

func precompileAddress(name string) common.Address {
	return common.Address(state.AddressFromAccountID(host.AccountID(name)))
}

// exit describes tokens leaving the EVM.
type exit struct {
	target    common.Address // the exit precompile the exit is recorded at
	erc20     *common.Address
	nep141    host.AccountID
	refund    common.Address
	amount    *uint256.Int
	recipient []byte
}

// promise builds the host promise moving the tokens, followed by a
// refund_on_error callback restoring them if the promise fails.
func (e *exit) promise(self host.AccountID) (parameters.PromiseWithCallbackArgs, error) {
	amount := parameters.NewU128(e.amount.ToBig())
	var base parameters.PromiseArgs
	switch e.target {
	case ExitToNearAddress:
		receiver := host.AccountID(e.recipient)
		if err := receiver.Validate(); err != nil {
			return parameters.PromiseWithCallbackArgs{}, err
		}
		args := parameters.EncodeJSON(parameters.TransferCallArgs{ReceiverID: string(receiver), Amount: amount})
		base = parameters.PromiseArgs{TargetAccountID: string(self), Method: "ft_transfer", Args: args}
		if e.erc20 != nil {
			base.TargetAccountID = string(e.nep141)
		}
	case ExitToEthereumAddress:
		if len(e.recipient) != common.AddressLength {
			return parameters.PromiseWithCallbackArgs{}, fmt.Errorf("invalid recipient length %d", len(e.recipient))
		}
		if e.erc20 == nil {
			args, err := parameters.Encode(parameters.WithdrawCallArgs{
				RecipientAddress: tosca.Address(e.recipient),
				Amount:           *e.amount.ToBig(),
			})
			if err != nil {
				return parameters.PromiseWithCallbackArgs{}, err
			}
			base = parameters.PromiseArgs{TargetAccountID: string(self), Method: "withdraw", Args: args}
		} else {
			args := parameters.EncodeJSON(parameters.Erc20WithdrawCallArgs{
				Amount:    amount,
				Recipient: hex.EncodeToString(e.recipient),
			})
			base = parameters.PromiseArgs{TargetAccountID: string(e.nep141), Method: "withdraw", Args: args}
		}
	default:
		return parameters.PromiseWithCallbackArgs{}, fmt.Errorf("unknown exit target %v", e.target)
	}
	base.AttachedBalance = *big.NewInt(1)
	base.AttachedGas = gasForExit

	refund := parameters.RefundCallArgs{
		RecipientAddress: tosca.Address(e.refund),
		Amount:           e.amount.Bytes32(),
	}
	if e.erc20 != nil {
		token := tosca.Address(*e.erc20)
		refund.Erc20Address = &token
	}
	refundArgs, err := parameters.Encode(refund)
	if err != nil {
		return parameters.PromiseWithCallbackArgs{}, err
	}
	return parameters.PromiseWithCallbackArgs{
		Base: base,
		Callback: parameters.PromiseArgs{
			TargetAccountID: string(self),
			Method:          "refund_on_error",
			Args:            refundArgs,
			AttachedGas:     gasForRefund,
		},
	}, nil
}

// record adds the exit as a log of its precompile. Logs of reverted
// frames are dropped by the EVM, so only exits of successful frames
// survive until the end of the transaction.
func (e *exit) record(stateDB geth.StateDB, self host.AccountID) error {
	promise, err := e.promise(self)
	if err != nil {
		return err
	}
	data, err := parameters.Encode(promise)
	if err != nil {
		return err
	}
	stateDB.AddLog(&types.Log{
		Address: e.target,
		Topics:  []common.Hash{exitTopic},
		Data:    data,
	})
	return nil
}

// exitPrecompile implements both exit precompiles. Input is the flag byte
// 0x0 followed by the recipient, the exited amount is the value sent with
// the call. Exits of bridged tokens are recorded by the token precompile.
type exitPrecompile struct {
	address common.Address
	config  *Config
}

func (p exitPrecompile) Run(
	stateDB geth.StateDB,
	_ geth.BlockContext,
	_ geth.TxContext,
	caller common.Address,
	input []byte,
	suppliedGas uint64,
) ([]byte, uint64, error) {
	if suppliedGas < exitGas {
		return nil, 0, geth.ErrOutOfGas
	}
	suppliedGas -= exitGas
	if len(input) == 0 {
		return revert("missing exit flag"), suppliedGas, geth.ErrExecutionReverted
	}

	// the EVM transferred the call value to the precompile before running it
	value := stateDB.GetBalance(p.address)
	stateDB.SubBalance(p.address, value, tracing.BalanceChangeUnspecified)

	if input[0] != exitFlagEth {
		return revert("unknown exit flag"), suppliedGas, geth.ErrExecutionReverted
	}
	if value.IsZero() {
		return revert("zero exit amount"), suppliedGas, geth.ErrExecutionReverted
	}
	if value.Gt(maxU128) {
		return revert("exit amount exceeds u128"), suppliedGas, geth.ErrExecutionReverted
	}
	res := exit{target: p.address, refund: caller, amount: value, recipient: input[1:]}
	if err := res.record(stateDB, p.config.AccountID); err != nil {
		return revert(err.Error()), suppliedGas, geth.ErrExecutionReverted
	}
	return nil, suppliedGas, nil
}

// SplitExits separates the exits recorded during a transaction from its
// user visible logs.
func SplitExits(logs []tosca.Log) ([]parameters.PromiseWithCallbackArgs, []tosca.Log, error) {
	var exits []parameters.PromiseWithCallbackArgs
	rest := make([]tosca.Log, 0, len(logs))
	for _, log := range logs {
		target := common.Address(log.Address)
		if (target != ExitToNearAddress && target != ExitToEthereumAddress) ||
			len(log.Topics) != 1 || common.Hash(log.Topics[0]) != exitTopic {
			rest = append(rest, log)
			continue
		}
		var promise parameters.PromiseWithCallbackArgs
		if err := parameters.Decode(log.Data, &promise); err != nil {
			return nil, nil, err
		}
		exits = append(exits, promise)
	}
	return exits, rest, nil
}
