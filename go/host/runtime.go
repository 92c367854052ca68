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
	"regexp"
	"time"
)

//go:generate mockgen -source runtime.go -destination runtime_mock.go -package host

// AccountID names an account of the host chain, for instance "aurora" or
// "alice.near".
type AccountID string

var accountIDPattern = regexp.MustCompile(`^(([a-z\d]+[-_])*[a-z\d]+\.)*([a-z\d]+[-_])*[a-z\d]+$`)

// Validate checks the host's account naming rules: 2 to 64 characters of
// lower case alphanumerics separated by '.', '-' or '_'.
func (a AccountID) Validate() error {
	if len(a) < 2 || len(a) > 64 || !accountIDPattern.MatchString(string(a)) {
		return fmt.Errorf("%w: %q", ErrInvalidAccountID, string(a))
	}
	return nil
}

func (a AccountID) String() string {
	return string(a)
}

// Timestamp is a host block timestamp in nanoseconds.
type Timestamp uint64

func (t Timestamp) Seconds() uint64 {
	return uint64(t) / uint64(time.Second)
}

// Yocto is an amount of the host's native token in its smallest unit.
// Amounts are 128-bit values on the host.
type Yocto = big.Int

// PromiseID identifies a promise scheduled during the current invocation.
type PromiseID uint64

// PromiseCreateArgs describe a function call on another host account.
type PromiseCreateArgs struct {
	TargetAccountID AccountID
	Method          string
	Args            []byte
	AttachedBalance *Yocto
	AttachedGas     uint64
}

type PromiseStatus byte

const (
	PromiseNotReady PromiseStatus = iota
	PromiseSuccessful
	PromiseFailed
)

func (s PromiseStatus) String() string {
	switch s {
	case PromiseNotReady:
		return "NotReady"
	case PromiseSuccessful:
		return "Successful"
	case PromiseFailed:
		return "Failed"
	}
	return fmt.Sprintf("PromiseStatus(%d)", s)
}

// PromiseResult is the outcome of a promise as seen by its callback. Data is
// only set for successful promises.
type PromiseResult struct {
	Status PromiseStatus
	Data   []byte
}

// Env gives access to the context of the current invocation.
type Env interface {
	SignerAccountID() AccountID
	CurrentAccountID() AccountID
	PredecessorAccountID() AccountID
	BlockHeight() uint64
	BlockTimestamp() Timestamp
	AttachedDeposit() *Yocto
}

// IO is the byte-level input, output and storage surface of the host.
type IO interface {
	// ReadInput returns the complete input of the current invocation.
	ReadInput() []byte
	// ReturnOutput sets the return value of the current invocation.
	ReturnOutput(value []byte)

	ReadStorage(key []byte) ([]byte, bool)
	WriteStorage(key []byte, value []byte)
	RemoveStorage(key []byte)
}

// PromiseHandler schedules cross-contract calls and exposes the results of
// the promises the current invocation is a callback of.
type PromiseHandler interface {
	PromiseCreate(args PromiseCreateArgs) PromiseID
	PromiseThen(base PromiseID, callback PromiseCreateArgs) PromiseID
	// PromiseTransfer schedules a plain transfer of native tokens.
	PromiseTransfer(target AccountID, amount *Yocto) PromiseID
	PromiseReturn(id PromiseID)

	PromiseResultsCount() uint64
	PromiseResult(index uint64) PromiseResult
}

// Runtime is the complete capability surface the engine requires from its
// host.
type Runtime interface {
	Env
	IO
	PromiseHandler

	// SelfDeploy replaces the contract code with the bytes stored under the
	// given storage key and schedules the state migration entry point.
	SelfDeploy(codeKey []byte)

	// PanicUTF8 aborts the invocation with the given message. All storage
	// writes of the invocation are reverted.
	PanicUTF8(message []byte)

	// Log emits a host-level log line.
	Log(message string)
}
