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
	"fmt"

	"github.com/Fantom-foundation/hosted-evm/go/host"
	"github.com/Fantom-foundation/hosted-evm/go/state"
	"github.com/Fantom-foundation/hosted-evm/go/tosca"
)

const ErrGasEthAmountOverflow = tosca.ConstError("ERR_GAS_ETH_AMOUNT_OVERFLOW")

// relayerGift is the part of the gas fee withheld from the relayer.
var relayerGift = tosca.Value{}

// prepayment is the gas fee deducted from a sender before execution.
type prepayment struct {
	sender   tosca.Address
	gasLimit uint64
	price    tosca.Value
	amount   tosca.Value
}

// charge deducts gasLimit × price from the balance of sender. The result
// reports false if the balance does not cover the prepayment, in which
// case no balance is modified.
func charge(accounts *state.Accounts, sender tosca.Address, gasLimit uint64, price tosca.Value) (prepayment, bool, error) {
	amount, overflow := price.ScaleChecked(gasLimit)
	if overflow {
		return prepayment{}, false, fmt.Errorf("%w: %d × %v", ErrGasEthAmountOverflow, gasLimit, price)
	}
	balance := accounts.Balance(sender)
	if balance.Cmp(amount) < 0 {
		return prepayment{}, false, nil
	}
	accounts.SetBalance(sender, tosca.Sub(balance, amount))
	return prepayment{sender: sender, gasLimit: gasLimit, price: price, amount: amount}, true, nil
}

// settle returns the unused part of the prepayment to the sender and pays
// the used part to the relayer. Without a relayer the fee is burned.
func (p *prepayment) settle(accounts *state.Accounts, gasUsed uint64, relayer *tosca.Address) error {
	if gasUsed > p.gasLimit {
		return fmt.Errorf("%w: gas used %d exceeds limit %d", ErrGasEthAmountOverflow, gasUsed, p.gasLimit)
	}
	fee := p.price.Scale(gasUsed)
	refund := tosca.Sub(p.amount, fee)
	if !refund.IsZero() {
		balance, overflow := tosca.AddChecked(accounts.Balance(p.sender), refund)
		if overflow {
			return fmt.Errorf("%w: refund to %v", ErrGasEthAmountOverflow, p.sender)
		}
		accounts.SetBalance(p.sender, balance)
	}

	reward, underflow := tosca.SubChecked(fee, relayerGift)
	if underflow {
		reward = tosca.Value{}
	}
	if relayer == nil || reward.IsZero() {
		return nil
	}
	balance, overflow := tosca.AddChecked(accounts.Balance(*relayer), reward)
	if overflow {
		return fmt.Errorf("%w: reward to %v", ErrGasEthAmountOverflow, *relayer)
	}
	accounts.SetBalance(*relayer, balance)
	return nil
}

// relayerAddress is the fee address of the account relaying a transaction.
func (e *Engine) relayerAddress(relayer host.AccountID) *tosca.Address {
	if relayer == "" {
		return nil
	}
	res := e.relayers.Address(relayer)
	return &res
}
