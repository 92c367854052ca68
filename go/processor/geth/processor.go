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
	"errors"
	"fmt"
	"math/big"

	"github.com/Fantom-foundation/hosted-evm/go/host"
	"github.com/Fantom-foundation/hosted-evm/go/tosca"
	"github.com/Fantom-foundation/hosted-evm/go/transaction"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	geth "github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"
)

func init() {
	tosca.RegisterProcessorFactory("geth", newProcessor)
}

// TokenRegistry resolves the host token a bridged ERC-20 contract
// represents.
type TokenRegistry interface {
	Nep141(erc20 tosca.Address) (host.AccountID, error)
}

// Config is the configuration of the geth processor.
type Config struct {
	// AccountID is the host account running the engine. It is the target
	// of native ETH exits and their refund callbacks.
	AccountID host.AccountID
	// Tokens resolves bridged tokens for ERC-20 exits.
	Tokens TokenRegistry
}

// Errors aborting the invocation for EVM failures that have no
// execution status of their own.
const (
	ErrEvmError            = tosca.ConstError("ERR_EVM_ERROR")
	ErrStackUnderflow      = tosca.ConstError("ERR_STACK_UNDERFLOW")
	ErrStackOverflow       = tosca.ConstError("ERR_STACK_OVERFLOW")
	ErrInvalidJump         = tosca.ConstError("ERR_INVALID_JUMP")
	ErrInvalidOpcode       = tosca.ConstError("ERR_INVALID_OPCODE")
	ErrWriteProtection     = tosca.ConstError("ERR_WRITE_PROTECTION")
	ErrCreateCollision     = tosca.ConstError("ERR_CREATE_COLLISION")
	ErrCreateContractLimit = tosca.ConstError("ERR_CREATE_CONTRACT_LIMIT")
	ErrInvalidCode         = tosca.ConstError("ERR_INVALID_CODE")
	ErrNonceOverflow       = tosca.ConstError("ERR_NONCE_OVERFLOW")
)

func newProcessor(config any) (tosca.Processor, error) {
	cfg, ok := config.(Config)
	if !ok {
		return nil, fmt.Errorf("invalid configuration for geth processor: %T", config)
	}
	if err := cfg.AccountID.Validate(); err != nil {
		return nil, err
	}
	if cfg.Tokens == nil {
		return nil, errors.New("invalid configuration for geth processor: missing token registry")
	}
	return &processor{config: cfg, log: log.New("module", "processor", "account", cfg.AccountID)}, nil
}

type processor struct {
	config Config
	log    log.Logger
}

// Precompiles lists all precompiled contracts, including the engine's own
// state precompiles.
func Precompiles() []common.Address {
	res := append([]common.Address{}, geth.PrecompiledAddressesBerlin...)
	return append(res, ExitToNearAddress, ExitToEthereumAddress, TokenPrecompileAddress)
}

func (p *processor) Run(
	blockParams tosca.BlockParameters,
	transaction tosca.Transaction,
	context tosca.TransactionContext,
) (tosca.Receipt, error) {
	if blockParams.Revision < tosca.R09_Berlin || blockParams.Revision > tosca.R10_London {
		return tosca.Receipt{}, fmt.Errorf("unsupported revision %v", blockParams.Revision)
	}

	getHash := func(num uint64) common.Hash {
		return common.Hash(context.GetBlockHash(int64(num)))
	}

	transferFunc := func(_ geth.StateDB, from common.Address, to common.Address, amount *uint256.Int) {
		if amount.Sign() != 1 || from == to {
			return
		}
		a := tosca.Address(from)
		b := tosca.Address(to)
		d := tosca.ValueFromUint256(amount)
		context.SetBalance(a, tosca.Sub(context.GetBalance(a), d))
		context.SetBalance(b, tosca.Add(context.GetBalance(b), d))
	}

	canTransferFunc := func(_ geth.StateDB, from common.Address, amount *uint256.Int) bool {
		return context.GetBalance(tosca.Address(from)).ToUint256().Cmp(amount) >= 0
	}

	blockCtx := geth.BlockContext{
		BlockNumber: big.NewInt(blockParams.BlockNumber),
		Time:        uint64(blockParams.Timestamp),
		Difficulty:  new(big.Int),
		GasLimit:    uint64(blockParams.GasLimit),
		Coinbase:    common.Address(blockParams.Coinbase),
		GetHash:     getHash,
		BaseFee:     blockParams.BaseFee.ToBig(),
		Transfer:    transferFunc,
		CanTransfer: canTransferFunc,
	}

	txCtx := geth.TxContext{
		Origin:   common.Address(transaction.Sender),
		GasPrice: transaction.GasPrice.ToBig(),
	}

	config := geth.Config{
		StatePrecompiles: map[common.Address]geth.PrecompiledStateContract{
			ExitToNearAddress:      exitPrecompile{address: ExitToNearAddress, config: &p.config},
			ExitToEthereumAddress:  exitPrecompile{address: ExitToEthereumAddress, config: &p.config},
			TokenPrecompileAddress: tokenPrecompile{config: &p.config},
		},
	}

	chainConfig := makeChainConfig(new(big.Int).SetBytes(blockParams.ChainID[:]), blockParams.Revision, blockParams.BlockNumber)
	precompiles := Precompiles()
	stateDb := newStateDbAdapter(context, precompiles[len(geth.PrecompiledAddressesBerlin):])
	evm := geth.NewEVM(blockCtx, txCtx, stateDb, &chainConfig, config)

	intrinsicGas, err := transactionIntrinsicGas(transaction)
	if err != nil {
		return tosca.Receipt{}, err
	}
	if uint64(transaction.GasLimit) < intrinsicGas {
		return tosca.Receipt{}, fmt.Errorf("%w: have %d, want %d", errIntrinsicGas, transaction.GasLimit, intrinsicGas)
	}
	gas := uint64(transaction.GasLimit) - intrinsicGas

	var dest *common.Address
	if transaction.Recipient != nil {
		dest = &common.Address{}
		*dest = common.Address(*transaction.Recipient)
	}
	var accessList types.AccessList
	for _, tuple := range transaction.AccessList {
		keys := make([]common.Hash, len(tuple.Keys))
		for i, key := range tuple.Keys {
			keys[i] = common.Hash(key)
		}
		accessList = append(accessList, types.AccessTuple{
			Address:     common.Address(tuple.Address),
			StorageKeys: keys,
		})
	}
	stateDb.PrepareAccessList(common.Address(transaction.Sender), dest, precompiles, accessList)

	sender := geth.AccountRef(transaction.Sender)
	var (
		gasLeft         uint64
		output          []byte
		vmError         error
		createdContract *tosca.Address
	)
	if dest == nil {
		var created common.Address
		output, created, gasLeft, vmError = evm.Create(sender, transaction.Input, gas, transaction.Value.ToUint256())
		createdContract = &tosca.Address{}
		*createdContract = tosca.Address(created)
	} else {
		// Increment the nonce to avoid double execution
		stateDb.SetNonce(common.Address(transaction.Sender), stateDb.GetNonce(common.Address(transaction.Sender))+1)
		output, gasLeft, vmError = evm.Call(sender, *dest, transaction.Input, gas, transaction.Value.ToUint256())
	}

	// After EIP-3529 refunds are capped to gasUsed / 5.
	if vmError == nil {
		refund := stateDb.GetRefund()
		gasUsed := uint64(transaction.GasLimit) - gasLeft
		if maxRefund := gasUsed / params.RefundQuotientEIP3529; refund > maxRefund {
			refund = maxRefund
		}
		gasLeft += refund
	}

	status, err := executionStatus(vmError)
	if err != nil {
		p.log.Debug("Execution aborted", "sender", transaction.Sender, "err", vmError)
		return tosca.Receipt{}, err
	}
	if status != tosca.StatusSucceed {
		createdContract = nil
	}

	return tosca.Receipt{
		Status:          status,
		GasUsed:         transaction.GasLimit - tosca.Gas(gasLeft),
		ContractAddress: createdContract,
		Output:          output,
		Logs:            context.GetLogs(),
	}, nil
}

const errIntrinsicGas = transaction.ErrIntrinsicGas

func transactionIntrinsicGas(tx tosca.Transaction) (uint64, error) {
	return transaction.IntrinsicGas(tx.Input, tx.AccessList, tx.Recipient == nil)
}

// executionStatus maps the result of an EVM run to the status reported to
// the caller. Failures without a status of their own abort the invocation.
func executionStatus(err error) (tosca.ExecutionStatus, error) {
	var (
		stackUnderflow *geth.ErrStackUnderflow
		stackOverflow  *geth.ErrStackOverflow
		invalidOpcode  *geth.ErrInvalidOpCode
	)
	switch {
	case err == nil:
		return tosca.StatusSucceed, nil
	case errors.Is(err, geth.ErrExecutionReverted):
		return tosca.StatusRevert, nil
	case errors.Is(err, geth.ErrOutOfGas),
		errors.Is(err, geth.ErrCodeStoreOutOfGas),
		errors.Is(err, geth.ErrGasUintOverflow):
		return tosca.StatusOutOfGas, nil
	case errors.Is(err, geth.ErrInsufficientBalance):
		return tosca.StatusOutOfFund, nil
	case errors.Is(err, geth.ErrReturnDataOutOfBounds):
		return tosca.StatusOutOfOffset, nil
	case errors.Is(err, geth.ErrDepth):
		return tosca.StatusCallTooDeep, nil
	case errors.As(err, &stackUnderflow):
		return 0, fmt.Errorf("%w: %v", ErrStackUnderflow, err)
	case errors.As(err, &stackOverflow):
		return 0, fmt.Errorf("%w: %v", ErrStackOverflow, err)
	case errors.As(err, &invalidOpcode):
		return 0, fmt.Errorf("%w: %v", ErrInvalidOpcode, err)
	case errors.Is(err, geth.ErrInvalidJump):
		return 0, fmt.Errorf("%w: %v", ErrInvalidJump, err)
	case errors.Is(err, geth.ErrWriteProtection):
		return 0, fmt.Errorf("%w: %v", ErrWriteProtection, err)
	case errors.Is(err, geth.ErrContractAddressCollision):
		return 0, fmt.Errorf("%w: %v", ErrCreateCollision, err)
	case errors.Is(err, geth.ErrMaxCodeSizeExceeded),
		errors.Is(err, geth.ErrMaxInitCodeSizeExceeded):
		return 0, fmt.Errorf("%w: %v", ErrCreateContractLimit, err)
	case errors.Is(err, geth.ErrInvalidCode):
		return 0, fmt.Errorf("%w: %v", ErrInvalidCode, err)
	case errors.Is(err, geth.ErrNonceUintOverflow):
		return 0, fmt.Errorf("%w: %v", ErrNonceOverflow, err)
	}
	return 0, fmt.Errorf("%w: %v", ErrEvmError, err)
}

// makeChainConfig activates all forks up to the given revision from
// genesis on.
func makeChainConfig(chainID *big.Int, revision tosca.Revision, blockNumber int64) params.ChainConfig {
	chainConfig := *params.AllEthashProtocolChanges
	chainConfig.ChainID = chainID
	chainConfig.IstanbulBlock = big.NewInt(0)
	chainConfig.BerlinBlock = big.NewInt(0)
	chainConfig.LondonBlock = big.NewInt(0)
	if revision < tosca.R10_London {
		chainConfig.LondonBlock = big.NewInt(blockNumber + 1)
	}
	chainConfig.ArrowGlacierBlock = nil
	chainConfig.GrayGlacierBlock = nil
	chainConfig.MergeNetsplitBlock = nil
	chainConfig.ShanghaiTime = nil
	chainConfig.CancunTime = nil
	chainConfig.PragueTime = nil
	chainConfig.VerkleTime = nil
	return chainConfig
}
