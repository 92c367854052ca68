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
	"math"

	"github.com/Fantom-foundation/hosted-evm/go/parameters"
	"github.com/Fantom-foundation/hosted-evm/go/tosca"
	"github.com/Fantom-foundation/hosted-evm/go/transaction"
)

// Submit admits and executes a signed Ethereum transaction. Transactions
// violating an admission rule are rejected with an error. Admitted
// transactions always advance the nonce of their signer; a signer unable
// to prepay the gas limit gets an OutOfFund result.
func (e *Engine) Submit(raw []byte) (parameters.SubmitResult, error) {
	tx, err := transaction.Decode(raw)
	if err != nil {
		return parameters.SubmitResult{}, err
	}
	if err := transaction.Validate(&tx, e.state.ChainIDValue()); err != nil {
		return parameters.SubmitResult{}, err
	}
	if err := e.accounts.AssertNonce(tx.Signer, tx.Nonce); err != nil {
		return parameters.SubmitResult{}, err
	}
	if tx.GasLimit > math.MaxInt64 {
		return parameters.SubmitResult{}, fmt.Errorf("%w: gas limit %d", transaction.ErrGasOverflow, tx.GasLimit)
	}

	price := tx.EffectiveGasPrice()
	prepaid, ok, err := charge(e.accounts, tx.Signer, tx.GasLimit, price)
	if err != nil {
		return parameters.SubmitResult{}, err
	}
	if !ok {
		e.accounts.IncrementNonce(tx.Signer)
		e.log.Debug("Sender out of fund", "sender", tx.Signer, "nonce", tx.Nonce)
		return parameters.NewSubmitResult(parameters.OutOfFund(), 0, nil), nil
	}

	result, err := e.execute(tosca.Transaction{
		Sender:     tx.Signer,
		Recipient:  tx.To,
		Nonce:      tx.Nonce,
		Input:      tx.Data,
		Value:      tx.Value,
		GasLimit:   tosca.Gas(tx.GasLimit),
		GasPrice:   price,
		AccessList: tx.AccessList,
	})
	if err != nil {
		return parameters.SubmitResult{}, err
	}
	relayer := e.relayerAddress(e.runtime.PredecessorAccountID())
	if err := prepaid.settle(e.accounts, result.GasUsed, relayer); err != nil {
		return parameters.SubmitResult{}, err
	}
	return result, nil
}
