// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package engine

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/Fantom-foundation/hosted-evm/go/host"
	"github.com/Fantom-foundation/hosted-evm/go/parameters"
	"github.com/Fantom-foundation/hosted-evm/go/processor/geth"
	"github.com/Fantom-foundation/hosted-evm/go/tosca"
)

// DeployErc20Token deploys the ERC-20 contract representing the given
// host token and registers the pair in the token map. The engine is the
// mint authority of the new contract.
func (e *Engine) DeployErc20Token(nep141 host.AccountID) (tosca.Address, error) {
	if err := nep141.Validate(); err != nil {
		return tosca.Address{}, err
	}
	init, err := geth.TokenInitCode("Empty", "EMPTY", 0, e.Address())
	if err != nil {
		return tosca.Address{}, err
	}
	result, err := e.DeployCode(init)
	if err != nil {
		return tosca.Address{}, err
	}
	if !result.Status.IsOk() {
		return tosca.Address{}, fmt.Errorf("%w: %v", ErrDeployFailure, result.Status)
	}
	address := tosca.Address(result.Status.Output())
	if err := e.tokens.Register(nep141, address); err != nil {
		return tosca.Address{}, err
	}
	e.log.Info("Deployed bridged token", "nep141", nep141, "erc20", address)
	return address, nil
}

// ReceiveErc20Tokens mints the tokens transferred to the engine by a host
// token contract to the EVM address given in the transfer message.
func (e *Engine) ReceiveErc20Tokens(token host.AccountID, args parameters.FtOnTransferArgs) error {
	erc20, err := e.tokens.Erc20(token)
	if err != nil {
		return err
	}
	recipient, err := ParseAddress(args.Msg)
	if err != nil {
		return err
	}
	result, err := e.mint(erc20, recipient, args.Amount.Big())
	if err != nil {
		return err
	}
	if !result.Status.IsOk() {
		return fmt.Errorf("%w: %v", ErrMintFailure, result.Status)
	}
	return nil
}

// mint issues tokens of a bridged ERC-20 contract as its admin.
func (e *Engine) mint(token, recipient tosca.Address, amount *big.Int) (parameters.SubmitResult, error) {
	input, err := geth.MintInput(recipient, amount)
	if err != nil {
		return parameters.SubmitResult{}, err
	}
	return e.callAs(e.Address(), token, tosca.Value{}, input)
}

// RefundOnError restores the tokens of an exit whose host promise failed.
// ERC-20 tokens are minted again; ETH is credited back to the sender of
// the exit.
func (e *Engine) RefundOnError(args parameters.RefundCallArgs, result host.PromiseResult) error {
	if result.Status == host.PromiseSuccessful {
		return nil
	}
	amount := tosca.Value(args.Amount)
	if erc20, ok := args.Erc20(); ok {
		res, err := e.mint(erc20, args.RecipientAddress, amount.ToBig())
		if err != nil {
			return err
		}
		if !res.Status.IsOk() {
			return fmt.Errorf("%w: %v", ErrRefundFailure, res.Status)
		}
	} else {
		balance, overflow := tosca.AddChecked(e.accounts.Balance(args.RecipientAddress), amount)
		if overflow {
			return fmt.Errorf("%w: balance overflow", ErrRefundFailure)
		}
		e.accounts.SetBalance(args.RecipientAddress, balance)
	}
	e.log.Info("Refunded failed exit", "recipient", args.RecipientAddress, "amount", amount)
	return nil
}

// ParseAddress parses a hex encoded EVM address with an optional 0x
// prefix.
func ParseAddress(text string) (tosca.Address, error) {
	data, err := hex.DecodeString(strings.TrimPrefix(text, "0x"))
	if err != nil || len(data) != len(tosca.Address{}) {
		return tosca.Address{}, fmt.Errorf("%w: %q", ErrInvalidRecipient, text)
	}
	return tosca.Address(data), nil
}
