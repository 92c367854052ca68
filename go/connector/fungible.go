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
	"fmt"
	"math/big"

	"github.com/Fantom-foundation/hosted-evm/go/host"
	"github.com/Fantom-foundation/hosted-evm/go/parameters"
	"github.com/Fantom-foundation/hosted-evm/go/tosca"
)

const (
	ErrSenderIsReceiver = tosca.ConstError("ERR_SENDER_EQUALS_RECEIVER")
	ErrStorageDeposit   = tosca.ConstError("ERR_ATTACHED_DEPOSIT_NOT_ENOUGH")
	ErrWrongAmount      = tosca.ConstError("ERR_WRONG_AMOUNT")
	ErrPositiveBalance  = tosca.ConstError("ERR_FAILED_UNREGISTER_ACCOUNT_POSITIVE_BALANCE")
)

// host gas attached to the promises of ft_transfer_call
const (
	gasForFtOnTransfer    = 10_000_000_000_000
	gasForResolveTransfer = 5_000_000_000_000
)

// StorageBalanceMin is the storage deposit required to register an
// account: 125 bytes at 10^19 yocto per byte.
var StorageBalanceMin = new(big.Int).Mul(big.NewInt(125), new(big.Int).Exp(big.NewInt(10), big.NewInt(19), nil))

func (c *Connector) TotalSupply() (*big.Int, error) {
	s, err := c.supply()
	if err != nil {
		return nil, err
	}
	return &s.TotalEthSupplyOnNear, nil
}

// TotalEvmSupply is the part of the supply held in the EVM.
func (c *Connector) TotalEvmSupply() (*big.Int, error) {
	s, err := c.supply()
	if err != nil {
		return nil, err
	}
	return &s.TotalEthSupplyOnAurora, nil
}

func (c *Connector) AccountsCounter() (uint64, error) {
	s, err := c.supply()
	if err != nil {
		return 0, err
	}
	return s.AccountsCounter, nil
}

// BalanceOf returns the host balance of an account; unregistered accounts
// hold nothing.
func (c *Connector) BalanceOf(account host.AccountID) (*big.Int, error) {
	balance, _, err := c.balance(account)
	return balance, err
}

// BalanceOfEth returns the ETH balance of an EVM address.
func (c *Connector) BalanceOfEth(address tosca.Address) tosca.Value {
	return c.accounts.Balance(address)
}

// move transfers amount between two host accounts. The receiver is
// registered if necessary.
func (c *Connector) move(from, to host.AccountID, amount *big.Int) error {
	if from == to {
		return ErrSenderIsReceiver
	}
	if amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	if err := to.Validate(); err != nil {
		return err
	}
	fromBalance, found, err := c.balance(from)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrAccountNotRegistered, from)
	}
	if fromBalance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s has %v, needs %v", ErrNotEnoughBalance, from, fromBalance, amount)
	}
	if err := c.register(to); err != nil {
		return err
	}
	toBalance, _, err := c.balance(to)
	if err != nil {
		return err
	}
	if err := add(toBalance, amount); err != nil {
		return err
	}
	if err := c.setBalance(from, fromBalance.Sub(fromBalance, amount)); err != nil {
		return err
	}
	return c.setBalance(to, toBalance)
}

// Transfer moves tokens of sender to the receiver. Transfers issued by
// the engine itself are exits of ETH held in the EVM.
func (c *Connector) Transfer(sender host.AccountID, args parameters.TransferCallArgs) error {
	amount := args.Amount.Big()
	if err := c.move(sender, host.AccountID(args.ReceiverID), amount); err != nil {
		return err
	}
	if sender == c.self() {
		return c.adjustEvmSupply(new(big.Int).Neg(amount))
	}
	return nil
}

// TransferCall moves tokens to the receiver and returns the promise
// notifying the receiver, followed by the ft_resolve_transfer callback
// returning unused tokens.
func (c *Connector) TransferCall(sender host.AccountID, args parameters.TransferCallCallArgs) (parameters.PromiseWithCallbackArgs, error) {
	amount := args.Amount.Big()
	if err := c.move(sender, host.AccountID(args.ReceiverID), amount); err != nil {
		return parameters.PromiseWithCallbackArgs{}, err
	}
	onTransfer := parameters.FtOnTransferArgs{SenderID: string(sender), Amount: args.Amount, Msg: args.Msg}
	resolve := parameters.ResolveTransferCallArgs{SenderID: string(sender), Amount: args.Amount, ReceiverID: args.ReceiverID}
	return parameters.PromiseWithCallbackArgs{
		Base: parameters.PromiseArgs{
			TargetAccountID: args.ReceiverID,
			Method:          "ft_on_transfer",
			Args:            parameters.EncodeJSON(onTransfer),
			AttachedGas:     gasForFtOnTransfer,
		},
		Callback: parameters.PromiseArgs{
			TargetAccountID: string(c.self()),
			Method:          "ft_resolve_transfer",
			Args:            parameters.EncodeJSON(resolve),
			AttachedGas:     gasForResolveTransfer,
		},
	}, nil
}

// OnTransfer moves ETH transferred to the engine into the EVM. The
// message holds the hex encoded EVM recipient.
func (c *Connector) OnTransfer(args parameters.FtOnTransferArgs) error {
	recipient, err := parseAddress(args.Msg)
	if err != nil {
		return err
	}
	amount := args.Amount.Big()
	if err := c.adjustEvmSupply(amount); err != nil {
		return err
	}
	return c.creditEvm(recipient, amount)
}

// ResolveTransfer returns the tokens the receiver of a transfer call did
// not use. The result is the amount finally transferred.
func (c *Connector) ResolveTransfer(args parameters.ResolveTransferCallArgs, result host.PromiseResult) (*big.Int, error) {
	amount := args.Amount.Big()
	unused := new(big.Int).Set(amount)
	if result.Status == host.PromiseSuccessful {
		var reported parameters.U128
		if err := parameters.DecodeJSON(result.Data, &reported); err == nil && reported.Big().Cmp(amount) < 0 {
			unused = reported.Big()
		}
	}
	if unused.Sign() == 0 {
		return amount, nil
	}

	sender := host.AccountID(args.SenderID)
	receiver := host.AccountID(args.ReceiverID)
	receiverBalance, _, err := c.balance(receiver)
	if err != nil {
		return nil, err
	}
	refund := unused
	if receiverBalance.Cmp(refund) < 0 {
		refund = receiverBalance
	}
	if refund.Sign() == 0 {
		return amount, nil
	}
	if _, registered, err := c.balance(sender); err != nil {
		return nil, err
	} else if registered {
		if err := c.move(receiver, sender, refund); err != nil {
			return nil, err
		}
	} else if err := c.withdraw(receiver, refund); err != nil {
		return nil, err
	}
	return new(big.Int).Sub(amount, refund), nil
}

// StorageDeposit registers an account for the attached deposit. Deposits
// exceeding the required amount and deposits for registered accounts are
// returned to the predecessor.
func (c *Connector) StorageDeposit(predecessor host.AccountID, deposit *big.Int, args parameters.StorageDepositCallArgs) (parameters.StorageBalance, error) {
	account := predecessor
	if args.AccountID != nil {
		account = host.AccountID(*args.AccountID)
	}
	if err := account.Validate(); err != nil {
		return parameters.StorageBalance{}, err
	}
	refund := new(big.Int).Set(deposit)
	if _, registered, err := c.balance(account); err != nil {
		return parameters.StorageBalance{}, err
	} else if !registered {
		if deposit.Cmp(StorageBalanceMin) < 0 {
			return parameters.StorageBalance{}, fmt.Errorf("%w: %v < %v", ErrStorageDeposit, deposit, StorageBalanceMin)
		}
		if err := c.register(account); err != nil {
			return parameters.StorageBalance{}, err
		}
		refund.Sub(refund, StorageBalanceMin)
	}
	if refund.Sign() > 0 {
		c.runtime.PromiseTransfer(predecessor, refund)
	}
	return storageBalance(), nil
}

// StorageWithdraw reports the storage balance of a registered account.
// Registered accounts have no storage balance available for withdrawal.
func (c *Connector) StorageWithdraw(predecessor host.AccountID, args parameters.StorageWithdrawCallArgs) (parameters.StorageBalance, error) {
	if _, registered, err := c.balance(predecessor); err != nil {
		return parameters.StorageBalance{}, err
	} else if !registered {
		return parameters.StorageBalance{}, fmt.Errorf("%w: %s", ErrAccountNotRegistered, predecessor)
	}
	if args.Amount != nil && args.Amount.Big().Sign() > 0 {
		return parameters.StorageBalance{}, fmt.Errorf("%w: %v exceeds available balance", ErrWrongAmount, args.Amount)
	}
	return storageBalance(), nil
}

// StorageUnregister removes the predecessor from the ledger and returns
// its storage deposit. Accounts with a positive balance are only removed
// if forced, burning their tokens. The result reports whether an account
// was removed.
func (c *Connector) StorageUnregister(predecessor host.AccountID, force bool) (bool, error) {
	balance, registered, err := c.balance(predecessor)
	if err != nil || !registered {
		return false, err
	}
	if balance.Sign() > 0 {
		if !force {
			return false, fmt.Errorf("%w: %s", ErrPositiveBalance, predecessor)
		}
		if err := c.withdraw(predecessor, balance); err != nil {
			return false, err
		}
	}
	if err := c.unregister(predecessor); err != nil {
		return false, err
	}
	c.runtime.PromiseTransfer(predecessor, new(big.Int).Set(StorageBalanceMin))
	return true, nil
}

// StorageBalanceOf returns the storage balance of an account, or nil if
// the account is not registered.
func (c *Connector) StorageBalanceOf(account host.AccountID) (*parameters.StorageBalance, error) {
	_, registered, err := c.balance(account)
	if err != nil || !registered {
		return nil, err
	}
	res := storageBalance()
	return &res, nil
}

func storageBalance() parameters.StorageBalance {
	return parameters.StorageBalance{
		Total:     parameters.NewU128(StorageBalanceMin),
		Available: parameters.NewU128(new(big.Int)),
	}
}
