// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package transaction decodes signed Ethereum transactions into the
// normalized form the engine executes and validates them for admission.
package transaction

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/Fantom-foundation/hosted-evm/go/tosca"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"
)

const (
	ErrInvalidTx             = tosca.ConstError("ERR_INVALID_TX")
	ErrInvalidSignature      = tosca.ConstError("ERR_INVALID_ECDSA_SIGNATURE")
	ErrInvalidChainID        = tosca.ConstError("ERR_INVALID_CHAIN_ID")
	ErrMaxPriorityFeeGreater = tosca.ConstError("ERR_MAX_PRIORITY_FEE_GREATER")
	ErrIntrinsicGas          = tosca.ConstError("ERR_INTRINSIC_GAS")
	ErrGasOverflow           = tosca.ConstError("ERR_GAS_OVERFLOW")
)

// Kind distinguishes the supported transaction envelopes.
type Kind byte

const (
	Legacy     Kind = types.LegacyTxType
	AccessList Kind = types.AccessListTxType
	DynamicFee Kind = types.DynamicFeeTxType
)

func (k Kind) String() string {
	switch k {
	case Legacy:
		return "Legacy"
	case AccessList:
		return "AccessList"
	case DynamicFee:
		return "DynamicFee"
	}
	return fmt.Sprintf("Kind(%d)", byte(k))
}

// Transaction is the normalized form of a signed transaction. Legacy and
// access list transactions report their gas price as both fee caps.
type Transaction struct {
	Kind                 Kind
	ChainID              *uint64
	Nonce                uint64
	MaxPriorityFeePerGas tosca.Value
	MaxFeePerGas         tosca.Value
	GasLimit             uint64
	To                   *tosca.Address
	Value                tosca.Value
	Data                 []byte
	AccessList           []tosca.AccessTuple
	Signer               tosca.Address
}

// IsDeployment reports whether the transaction creates a contract.
func (t *Transaction) IsDeployment() bool {
	return t.To == nil
}

// EffectiveGasPrice is the price paid per unit of gas given a base fee of
// zero: min(max_fee, max_priority_fee).
func (t *Transaction) EffectiveGasPrice() tosca.Value {
	if t.MaxPriorityFeePerGas.Cmp(t.MaxFeePerGas) < 0 {
		return t.MaxPriorityFeePerGas
	}
	return t.MaxFeePerGas
}

// Decode parses raw transaction bytes and recovers the signer. The envelope
// is selected by the leading byte: 0x01 for EIP-2930, 0x02 for EIP-1559,
// and legacy RLP otherwise.
func Decode(raw []byte) (Transaction, error) {
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return Transaction{}, fmt.Errorf("%w: %v", ErrInvalidTx, err)
	}
	kind := Kind(tx.Type())
	if kind != Legacy && kind != AccessList && kind != DynamicFee {
		return Transaction{}, fmt.Errorf("%w: unsupported type %d", ErrInvalidTx, tx.Type())
	}

	var chainID *uint64
	if kind != Legacy || tx.Protected() {
		if !tx.ChainId().IsUint64() {
			return Transaction{}, fmt.Errorf("%w: chain id out of range", ErrInvalidTx)
		}
		id := tx.ChainId().Uint64()
		chainID = &id
	}

	sender, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
	if err != nil {
		return Transaction{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	res := Transaction{
		Kind:     kind,
		ChainID:  chainID,
		Nonce:    tx.Nonce(),
		GasLimit: tx.Gas(),
		Data:     tx.Data(),
		Signer:   tosca.Address(sender),
	}
	if res.MaxPriorityFeePerGas, err = toValue(tx.GasTipCap()); err != nil {
		return Transaction{}, err
	}
	if res.MaxFeePerGas, err = toValue(tx.GasFeeCap()); err != nil {
		return Transaction{}, err
	}
	if res.Value, err = toValue(tx.Value()); err != nil {
		return Transaction{}, err
	}
	if to := tx.To(); to != nil {
		address := tosca.Address(*to)
		res.To = &address
	}
	for _, tuple := range tx.AccessList() {
		keys := make([]tosca.Key, len(tuple.StorageKeys))
		for i, key := range tuple.StorageKeys {
			keys[i] = tosca.Key(key)
		}
		res.AccessList = append(res.AccessList, tosca.AccessTuple{
			Address: tosca.Address(tuple.Address),
			Keys:    keys,
		})
	}
	return res, nil
}

func toValue(v *big.Int) (tosca.Value, error) {
	value, overflow := uint256.FromBig(v)
	if overflow {
		return tosca.Value{}, fmt.Errorf("%w: value exceeds 256 bits", ErrInvalidTx)
	}
	return tosca.ValueFromUint256(value), nil
}

// Validate enforces the admission rules that do not depend on the account
// state: the chain id, the fee ordering, and the intrinsic gas floor.
func Validate(tx *Transaction, chainID tosca.Value) error {
	if tx.ChainID != nil && tosca.NewValue(*tx.ChainID) != chainID {
		return fmt.Errorf("%w: got %d, want %v", ErrInvalidChainID, *tx.ChainID, chainID)
	}
	if tx.MaxPriorityFeePerGas.Cmp(tx.MaxFeePerGas) > 0 {
		return fmt.Errorf("%w: %v > %v", ErrMaxPriorityFeeGreater, tx.MaxPriorityFeePerGas, tx.MaxFeePerGas)
	}
	intrinsic, err := IntrinsicGas(tx.Data, tx.AccessList, tx.IsDeployment())
	if err != nil {
		return err
	}
	if tx.GasLimit < intrinsic {
		return fmt.Errorf("%w: have %d, want %d", ErrIntrinsicGas, tx.GasLimit, intrinsic)
	}
	return nil
}

// IntrinsicGas computes the gas charged before any code is executed.
func IntrinsicGas(data []byte, accessList []tosca.AccessTuple, deployment bool) (uint64, error) {
	gas := params.TxGas
	if deployment {
		gas = params.TxGasContractCreation
	}
	if len(data) > 0 {
		var nz uint64
		for _, b := range data {
			if b != 0 {
				nz++
			}
		}
		if (math.MaxUint64-gas)/params.TxDataNonZeroGasEIP2028 < nz {
			return 0, ErrGasOverflow
		}
		gas += nz * params.TxDataNonZeroGasEIP2028

		z := uint64(len(data)) - nz
		if (math.MaxUint64-gas)/params.TxDataZeroGas < z {
			return 0, ErrGasOverflow
		}
		gas += z * params.TxDataZeroGas
	}
	for _, tuple := range accessList {
		if (math.MaxUint64-gas)/params.TxAccessListAddressGas < 1 {
			return 0, ErrGasOverflow
		}
		gas += params.TxAccessListAddressGas
		keys := uint64(len(tuple.Keys))
		if (math.MaxUint64-gas)/params.TxAccessListStorageKeyGas < keys {
			return 0, ErrGasOverflow
		}
		gas += keys * params.TxAccessListStorageKeyGas
	}
	return gas, nil
}

var errMissingChainID = errors.New("typed transactions require a chain id")

// Encode builds the signed envelope of tx. The signer field is ignored; the
// signature is produced by sign, which receives the signing hash.
func Encode(tx *Transaction, sign func(hash []byte) ([]byte, error)) ([]byte, error) {
	var to *common.Address
	if tx.To != nil {
		address := common.Address(*tx.To)
		to = &address
	}
	var accessList types.AccessList
	for _, tuple := range tx.AccessList {
		keys := make([]common.Hash, len(tuple.Keys))
		for i, key := range tuple.Keys {
			keys[i] = common.Hash(key)
		}
		accessList = append(accessList, types.AccessTuple{
			Address:     common.Address(tuple.Address),
			StorageKeys: keys,
		})
	}

	var data types.TxData
	var chainID *big.Int
	if tx.ChainID != nil {
		chainID = new(big.Int).SetUint64(*tx.ChainID)
	}
	switch tx.Kind {
	case Legacy:
		data = &types.LegacyTx{
			Nonce:    tx.Nonce,
			GasPrice: tx.MaxFeePerGas.ToBig(),
			Gas:      tx.GasLimit,
			To:       to,
			Value:    tx.Value.ToBig(),
			Data:     tx.Data,
		}
	case AccessList:
		if chainID == nil {
			return nil, errMissingChainID
		}
		data = &types.AccessListTx{
			ChainID:    chainID,
			Nonce:      tx.Nonce,
			GasPrice:   tx.MaxFeePerGas.ToBig(),
			Gas:        tx.GasLimit,
			To:         to,
			Value:      tx.Value.ToBig(),
			Data:       tx.Data,
			AccessList: accessList,
		}
	case DynamicFee:
		if chainID == nil {
			return nil, errMissingChainID
		}
		data = &types.DynamicFeeTx{
			ChainID:    chainID,
			Nonce:      tx.Nonce,
			GasTipCap:  tx.MaxPriorityFeePerGas.ToBig(),
			GasFeeCap:  tx.MaxFeePerGas.ToBig(),
			Gas:        tx.GasLimit,
			To:         to,
			Value:      tx.Value.ToBig(),
			Data:       tx.Data,
			AccessList: accessList,
		}
	default:
		return nil, fmt.Errorf("unsupported transaction kind %v", tx.Kind)
	}

	unsigned := types.NewTx(data)
	var signer types.Signer = types.HomesteadSigner{}
	if chainID != nil {
		signer = types.LatestSignerForChainID(chainID)
	}
	signature, err := sign(signer.Hash(unsigned).Bytes())
	if err != nil {
		return nil, err
	}
	signed, err := unsigned.WithSignature(signer, signature)
	if err != nil {
		return nil, err
	}
	return signed.MarshalBinary()
}
