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
	"errors"
	"math/big"
	"testing"

	"github.com/Fantom-foundation/hosted-evm/go/host"
	"github.com/Fantom-foundation/hosted-evm/go/parameters"
	"github.com/Fantom-foundation/hosted-evm/go/processor/geth"
	"github.com/Fantom-foundation/hosted-evm/go/state"
	"github.com/Fantom-foundation/hosted-evm/go/tosca"
	"github.com/ethereum/go-ethereum/common"
)

func (e *testEnv) tokenCall(t *testing.T, token tosca.Address, method string, args ...any) []any {
	t.Helper()
	input, err := geth.TokenInput(method, args...)
	if err != nil {
		t.Fatalf("failed to encode %s: %v", method, err)
	}
	status, err := e.engine.View(parameters.ViewCallArgs{Address: token, Input: input})
	if err != nil {
		t.Fatalf("failed to call %s: %v", method, err)
	}
	if !status.IsOk() {
		t.Fatalf("%s failed: %v", method, status)
	}
	res, err := geth.DecodeTokenOutput(method, status.Output())
	if err != nil {
		t.Fatalf("failed to decode %s: %v", method, err)
	}
	return res
}

func (e *testEnv) tokenBalance(t *testing.T, token, holder tosca.Address) int64 {
	t.Helper()
	return e.tokenCall(t, token, "balanceOf", common.Address(holder))[0].(*big.Int).Int64()
}

func TestDeployErc20Token_RegistersTokenWithEngineAsAdmin(t *testing.T) {
	env := newTestEnv(t, "alice.test")
	token, err := env.engine.DeployErc20Token("usdc.test")
	if err != nil {
		t.Fatalf("failed to deploy token: %v", err)
	}

	if got, err := env.engine.Tokens().Erc20("usdc.test"); err != nil || got != token {
		t.Errorf("unexpected ERC-20 of token: %v, %v", got, err)
	}
	if got, err := env.engine.Tokens().Nep141(token); err != nil || got != "usdc.test" {
		t.Errorf("unexpected host token: %v, %v", got, err)
	}
	if got := env.tokenCall(t, token, "admin")[0]; got != common.Address(env.engine.Address()) {
		t.Errorf("unexpected admin %v", got)
	}
	if got := env.tokenCall(t, token, "name")[0]; got != "Empty" {
		t.Errorf("unexpected name %v", got)
	}

	if _, err := env.engine.DeployErc20Token("usdc.test"); !errors.Is(err, state.ErrAlreadyRegistered) {
		t.Errorf("second registration was not rejected: %v", err)
	}
}

func TestDeployErc20Token_RejectsInvalidAccount(t *testing.T) {
	env := newTestEnv(t, "alice.test")
	if _, err := env.engine.DeployErc20Token("Not Valid"); !errors.Is(err, host.ErrInvalidAccountID) {
		t.Errorf("unexpected error %v", err)
	}
}

func TestReceiveErc20Tokens_MintsToRecipient(t *testing.T) {
	env := newTestEnv(t, "alice.test")
	token, err := env.engine.DeployErc20Token("usdc.test")
	if err != nil {
		t.Fatalf("failed to deploy token: %v", err)
	}
	recipient := tosca.Address{0xAB, 0xCD}

	err = env.engine.ReceiveErc20Tokens("usdc.test", parameters.FtOnTransferArgs{
		SenderID: "alice.test",
		Amount:   parameters.NewU128(big.NewInt(1000)),
		Msg:      common.Address(recipient).Hex()[2:],
	})
	if err != nil {
		t.Fatalf("failed to receive tokens: %v", err)
	}
	if got := env.tokenBalance(t, token, recipient); got != 1000 {
		t.Errorf("unexpected balance %d", got)
	}
	if got := env.tokenCall(t, token, "totalSupply")[0].(*big.Int).Int64(); got != 1000 {
		t.Errorf("unexpected total supply %d", got)
	}
}

func TestReceiveErc20Tokens_RejectsUnknownTokenAndBadRecipient(t *testing.T) {
	env := newTestEnv(t, "alice.test")
	if _, err := env.engine.DeployErc20Token("usdc.test"); err != nil {
		t.Fatalf("failed to deploy token: %v", err)
	}
	args := parameters.FtOnTransferArgs{Amount: parameters.NewU128(big.NewInt(1)), Msg: "00"}
	if err := env.engine.ReceiveErc20Tokens("usdc.test", args); !errors.Is(err, ErrInvalidRecipient) {
		t.Errorf("unexpected error for bad recipient %v", err)
	}
	args.Msg = common.Address{1}.Hex()
	if err := env.engine.ReceiveErc20Tokens("dai.test", args); !errors.Is(err, state.ErrErc20NotFound) {
		t.Errorf("unexpected error for unknown token %v", err)
	}
}

func TestRefundOnError_IgnoresSuccessfulPromise(t *testing.T) {
	env := newTestEnv(t, engineAccount)
	recipient := tosca.Address{0xAA}
	err := env.engine.RefundOnError(parameters.RefundCallArgs{
		RecipientAddress: recipient,
		Amount:           tosca.NewValue(5),
	}, host.PromiseResult{Status: host.PromiseSuccessful})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if got := env.engine.Accounts().Balance(recipient); !got.IsZero() {
		t.Errorf("unexpected refund %v", got)
	}
}

func TestRefundOnError_RestoresEth(t *testing.T) {
	env := newTestEnv(t, engineAccount)
	recipient := tosca.Address{0xAA}
	env.engine.Accounts().SetBalance(recipient, tosca.NewValue(10))
	err := env.engine.RefundOnError(parameters.RefundCallArgs{
		RecipientAddress: recipient,
		Amount:           tosca.NewValue(5),
	}, host.PromiseResult{Status: host.PromiseFailed})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if got := env.engine.Accounts().Balance(recipient); got != tosca.NewValue(15) {
		t.Errorf("unexpected balance %v", got)
	}
}

func TestRefundOnError_MintsErc20(t *testing.T) {
	env := newTestEnv(t, engineAccount)
	token, err := env.engine.DeployErc20Token("usdc.test")
	if err != nil {
		t.Fatalf("failed to deploy token: %v", err)
	}
	recipient := tosca.Address{0xAA}
	err = env.engine.RefundOnError(parameters.RefundCallArgs{
		RecipientAddress: recipient,
		Erc20Address:     &token,
		Amount:           tosca.NewValue(7),
	}, host.PromiseResult{Status: host.PromiseFailed})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if got := env.tokenBalance(t, token, recipient); got != 7 {
		t.Errorf("unexpected balance %d", got)
	}
}

func TestRefundOnError_FailsForContractWithoutMint(t *testing.T) {
	env := newTestEnv(t, engineAccount)
	contract := tosca.Address{0xC0}
	env.install(contract, revertCode)
	err := env.engine.RefundOnError(parameters.RefundCallArgs{
		RecipientAddress: tosca.Address{0xAA},
		Erc20Address:     &contract,
		Amount:           tosca.NewValue(7),
	}, host.PromiseResult{Status: host.PromiseFailed})
	if !errors.Is(err, ErrRefundFailure) {
		t.Errorf("unexpected error %v", err)
	}
}

func TestParseAddress(t *testing.T) {
	want := tosca.Address{0x12, 19: 0x34}
	for _, text := range []string{common.Address(want).Hex(), common.Address(want).Hex()[2:]} {
		if got, err := ParseAddress(text); err != nil || got != want {
			t.Errorf("failed to parse %q: %v, %v", text, got, err)
		}
	}
	for _, text := range []string{"", "0x12", "zz", common.Address(want).Hex() + "00"} {
		if _, err := ParseAddress(text); !errors.Is(err, ErrInvalidRecipient) {
			t.Errorf("unexpected result for %q: %v", text, err)
		}
	}
}
