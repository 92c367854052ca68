// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package connector

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/Fantom-foundation/hosted-evm/go/host"
	"github.com/Fantom-foundation/hosted-evm/go/parameters"
	"github.com/Fantom-foundation/hosted-evm/go/state"
	"github.com/Fantom-foundation/hosted-evm/go/storage"
	"github.com/Fantom-foundation/hosted-evm/go/tosca"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

const (
	ErrProofExist         = tosca.ConstError("ERR_PROOF_EXIST")
	ErrVerifyProof        = tosca.ConstError("ERR_VERIFY_PROOF")
	ErrPromiseFailed      = tosca.ConstError("ERR_PROMISE_FAILED")
	ErrPromiseEncoding    = tosca.ConstError("ERR_PROMISE_ENCODING")
	ErrInvalidEvent       = tosca.ConstError("ERR_INVALID_EVENT")
	ErrWrongEventAddress  = tosca.ConstError("ERR_WRONG_EVENT_ADDRESS")
	ErrFeeExceedsAmount   = tosca.ConstError("ERR_NOT_ENOUGH_BALANCE_FOR_FEE")
	ErrInvalidRecipientID = tosca.ConstError("ERR_INVALID_RECIPIENT")
)

// host gas attached to the promises of a deposit
const (
	gasForVerify = 20_000_000_000_000
	gasForFinish = 50_000_000_000_000
)

const depositedABIJSON = `[{"type":"event","name":"Deposited","anonymous":false,"inputs":[
{"name":"sender","type":"address","indexed":true},
{"name":"recipient","type":"string","indexed":false},
{"name":"amount","type":"uint256","indexed":false},
{"name":"fee","type":"uint256","indexed":false}]}]`

var depositedABI = mustParseABI(depositedABIJSON)

func mustParseABI(text string) abi.ABI {
	res, err := abi.JSON(strings.NewReader(text))
	if err != nil {
		panic(err)
	}
	return res
}

// logEntry is the RLP encoding of a log on the counterpart chain.
type logEntry struct {
	Address common.Address
	Topics  []common.Hash
	Data    []byte
}

// depositEvent is a Deposited event of the custodian contract.
type depositEvent struct {
	Sender    common.Address
	Recipient string
	Amount    *big.Int
	Fee       *big.Int
}

func parseDepositEvent(data []byte) (depositEvent, common.Address, error) {
	var entry logEntry
	if err := rlp.DecodeBytes(data, &entry); err != nil {
		return depositEvent{}, common.Address{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	event := depositedABI.Events["Deposited"]
	if len(entry.Topics) != 2 || entry.Topics[0] != event.ID {
		return depositEvent{}, common.Address{}, fmt.Errorf("%w: unexpected topics", ErrInvalidEvent)
	}
	values, err := event.Inputs.NonIndexed().Unpack(entry.Data)
	if err != nil {
		return depositEvent{}, common.Address{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	res := depositEvent{
		Sender:    common.BytesToAddress(entry.Topics[1][:]),
		Recipient: values[0].(string),
		Amount:    values[1].(*big.Int),
		Fee:       values[2].(*big.Int),
	}
	if res.Amount.Cmp(maxU128) > 0 {
		return depositEvent{}, common.Address{}, fmt.Errorf("%w: amount exceeds u128", ErrInvalidEvent)
	}
	return res, entry.Address, nil
}

// ProofKey identifies a proof in the proof table. Proofs of the same log
// entry have the same key.
func ProofKey(proof *parameters.Proof) string {
	data := binary.LittleEndian.AppendUint64(nil, proof.LogIndex)
	data = binary.LittleEndian.AppendUint64(data, proof.ReceiptIndex)
	data = append(data, proof.HeaderData...)
	hash := state.Keccak256(data)
	return hex.EncodeToString(hash[:])
}

func proofStorageKey(key string) []byte {
	return append(append([]byte{}, proofKey...), key...)
}

// IsUsedProof reports whether the proof was consumed by a deposit.
func IsUsedProof(store *storage.Store, proof *parameters.Proof) bool {
	return store.Has(storage.PrefixProof, proofStorageKey(ProofKey(proof)))
}

// Deposit checks a proof of a Deposited event and returns the promise
// verifying it with the prover, followed by the finish_deposit callback.
// Recipients of the form "<engine account>:<hex address>" receive the
// deposit in the EVM; all other recipients are host accounts.
func (c *Connector) Deposit(rawProof []byte) (parameters.PromiseWithCallbackArgs, error) {
	if err := c.checkNotPaused(PauseDeposit); err != nil {
		return parameters.PromiseWithCallbackArgs{}, err
	}
	var proof parameters.Proof
	if err := parameters.Decode(rawProof, &proof); err != nil {
		return parameters.PromiseWithCallbackArgs{}, err
	}
	event, emitter, err := parseDepositEvent(proof.LogEntryData)
	if err != nil {
		return parameters.PromiseWithCallbackArgs{}, err
	}
	if tosca.Address(emitter) != c.data.EthCustodianAddress {
		return parameters.PromiseWithCallbackArgs{}, fmt.Errorf("%w: %v", ErrWrongEventAddress, emitter)
	}
	if event.Fee.Cmp(event.Amount) > 0 {
		return parameters.PromiseWithCallbackArgs{}, fmt.Errorf("%w: fee %v, amount %v", ErrFeeExceedsAmount, event.Fee, event.Amount)
	}
	key := ProofKey(&proof)
	if c.store.Has(storage.PrefixProof, proofStorageKey(key)) {
		return parameters.PromiseWithCallbackArgs{}, fmt.Errorf("%w: %s", ErrProofExist, key)
	}

	finish := parameters.FinishDepositCallArgs{
		NewOwnerID: event.Recipient,
		ProofKey:   key,
		RelayerID:  string(c.runtime.PredecessorAccountID()),
	}
	finish.Amount.Set(event.Amount)
	finish.Fee.Set(event.Fee)
	if owner, address, found := strings.Cut(event.Recipient, ":"); found {
		if host.AccountID(owner) != c.self() {
			return parameters.PromiseWithCallbackArgs{}, fmt.Errorf("%w: %q", ErrInvalidRecipientID, event.Recipient)
		}
		recipient, err := parseAddress(address)
		if err != nil {
			return parameters.PromiseWithCallbackArgs{}, err
		}
		finish.NewOwnerID = owner
		finish.EvmRecipient = recipient[:]
	} else if err := host.AccountID(event.Recipient).Validate(); err != nil {
		return parameters.PromiseWithCallbackArgs{}, err
	}
	finishArgs, err := parameters.Encode(finish)
	if err != nil {
		return parameters.PromiseWithCallbackArgs{}, err
	}

	c.log.Debug("Deposit", "sender", event.Sender, "recipient", event.Recipient, "amount", event.Amount, "proof", key)
	return parameters.PromiseWithCallbackArgs{
		Base: parameters.PromiseArgs{
			TargetAccountID: c.data.ProverAccount,
			Method:          "verify_log_entry",
			Args:            rawProof,
			AttachedGas:     gasForVerify,
		},
		Callback: parameters.PromiseArgs{
			TargetAccountID: string(c.self()),
			Method:          "finish_deposit",
			Args:            finishArgs,
			AttachedGas:     gasForFinish,
		},
	}, nil
}

// VerifiedProof decodes the result of the prover call.
func VerifiedProof(result host.PromiseResult) error {
	if result.Status != host.PromiseSuccessful {
		return ErrPromiseFailed
	}
	// a borsh encoded bool
	if len(result.Data) != 1 || result.Data[0] > 1 {
		return fmt.Errorf("%w: %x", ErrPromiseEncoding, result.Data)
	}
	if result.Data[0] == 0 {
		return ErrVerifyProof
	}
	return nil
}

// FinishDeposit mints a verified deposit and consumes its proof. A proof
// can only be consumed once.
func (c *Connector) FinishDeposit(args parameters.FinishDepositCallArgs) error {
	key := proofStorageKey(args.ProofKey)
	if c.store.Has(storage.PrefixProof, key) {
		return fmt.Errorf("%w: %s", ErrProofExist, args.ProofKey)
	}
	c.store.Write(storage.PrefixProof, key, []byte{1})

	amount := new(big.Int).Set(&args.Amount)
	fee := new(big.Int).Set(&args.Fee)
	if fee.Cmp(amount) > 0 {
		return fmt.Errorf("%w: fee %v, amount %v", ErrFeeExceedsAmount, fee, amount)
	}
	net := new(big.Int).Sub(amount, fee)

	if len(args.EvmRecipient) > 0 {
		if len(args.EvmRecipient) != len(tosca.Address{}) {
			return fmt.Errorf("%w: %x", ErrInvalidAddress, args.EvmRecipient)
		}
		// ETH inside the EVM is backed by the host balance of the engine
		if err := c.deposit(c.self(), amount); err != nil {
			return err
		}
		if err := c.adjustEvmSupply(amount); err != nil {
			return err
		}
		if err := c.creditEvm(tosca.Address(args.EvmRecipient), net); err != nil {
			return err
		}
		if fee.Sign() > 0 {
			relayer := c.relayers.Address(host.AccountID(args.RelayerID))
			if err := c.creditEvm(relayer, fee); err != nil {
				return err
			}
		}
	} else {
		if err := c.deposit(host.AccountID(args.NewOwnerID), net); err != nil {
			return err
		}
		if fee.Sign() > 0 {
			if err := c.deposit(host.AccountID(args.RelayerID), fee); err != nil {
				return err
			}
		}
	}
	c.log.Info("Finished deposit", "owner", args.NewOwnerID, "amount", amount, "fee", fee, "proof", args.ProofKey)
	return nil
}

// Withdraw burns bridged ETH of the predecessor for release to recipient
// on the counterpart chain. Withdrawals issued by the engine itself are
// exits of ETH held in the EVM.
func (c *Connector) Withdraw(args parameters.WithdrawCallArgs) (parameters.WithdrawResult, error) {
	if err := c.checkNotPaused(PauseWithdraw); err != nil {
		return parameters.WithdrawResult{}, err
	}
	amount := new(big.Int).Set(&args.Amount)
	if amount.Sign() == 0 {
		return parameters.WithdrawResult{}, ErrZeroAmount
	}
	predecessor := c.runtime.PredecessorAccountID()
	if err := c.withdraw(predecessor, amount); err != nil {
		return parameters.WithdrawResult{}, err
	}
	if predecessor == c.self() {
		if err := c.adjustEvmSupply(new(big.Int).Neg(amount)); err != nil {
			return parameters.WithdrawResult{}, err
		}
	}
	res := parameters.WithdrawResult{
		RecipientID:         args.RecipientAddress,
		EthCustodianAddress: c.data.EthCustodianAddress,
	}
	res.Amount.Set(amount)
	c.runtime.Log(fmt.Sprintf("Withdraw %v to %v", amount, args.RecipientAddress))
	return res, nil
}

func parseAddress(text string) (tosca.Address, error) {
	data, err := hex.DecodeString(strings.TrimPrefix(text, "0x"))
	if err != nil || len(data) != len(tosca.Address{}) {
		return tosca.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, text)
	}
	return tosca.Address(data), nil
}
