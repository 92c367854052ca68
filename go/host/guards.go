// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package host

import (
	"fmt"
	"math/big"

	"github.com/Fantom-foundation/hosted-evm/go/tosca"
)

const (
	ErrPrivateCall      = tosca.ConstError("ERR_PRIVATE_CALL")
	ErrOneYocto         = tosca.ConstError("ERR_ONE_YOCTO")
	ErrPromiseCount     = tosca.ConstError("ERR_PROMISE_COUNT")
	ErrInvalidAccountID = tosca.ConstError("ERR_INVALID_ACCOUNT_ID")
)

var oneYocto = big.NewInt(1)

// AssertPrivateCall fails unless the invocation was issued by the contract
// itself, which is the case for callbacks of its own promises.
func AssertPrivateCall(env Env) error {
	if env.PredecessorAccountID() != env.CurrentAccountID() {
		return fmt.Errorf("%w: called by %s", ErrPrivateCall, env.PredecessorAccountID())
	}
	return nil
}

// AssertOneYocto fails unless exactly one yocto is attached to the call.
func AssertOneYocto(env Env) error {
	deposit := env.AttachedDeposit()
	if deposit == nil || deposit.Cmp(oneYocto) != 0 {
		return ErrOneYocto
	}
	return nil
}

// SinglePromiseResult returns the only promise result of a callback and
// fails if there is not exactly one.
func SinglePromiseResult(handler PromiseHandler) (PromiseResult, error) {
	if count := handler.PromiseResultsCount(); count != 1 {
		return PromiseResult{}, fmt.Errorf("%w: got %d results", ErrPromiseCount, count)
	}
	return handler.PromiseResult(0), nil
}
