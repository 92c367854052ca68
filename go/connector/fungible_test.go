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
	"errors"
	"math/big"
	"testing"

	"github.com/Fantom-foundation/hosted-evm/go/host"
	"github.com/Fantom-foundation/hosted-evm/go/parameters"
	"github.com/Fantom-foundation/hosted-evm/go/tosca"
)

func u128(v int64) parameters.U128 {
	return parameters.NewU128(big.NewInt(v))
}

func TestTransfer_MovesBalance(t *testing.T) {
	env := newTestEnv(t)
	env.fund("alice.test", 100)
	c := env.connector("alice.test")
	err := c.Transfer("alice.test", parameters.TransferCallArgs{ReceiverID: "bob.test", Amount: u128(30)})
	if err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	if want, got := int64(70), env.balance(c, "alice.test"); want != got {
		t.Errorf("unexpected sender balance, wanted %d, got %d", want, got)
	}
	if want, got := int64(30), env.balance(c, "bob.test"); want != got {
		t.Errorf("unexpected receiver balance, wanted %d, got %d", want, got)
	}
	if counter, err := c.AccountsCounter(); err != nil || counter != 2 {
		t.Errorf("receiver was not registered, counter %d, %v", counter, err)
	}
	if total, err := c.TotalSupply(); err != nil || total.Int64() != 100 {
		t.Errorf("transfer changed total supply to %v, %v", total, err)
	}
}

func TestTransfer_RejectsInvalidTransfers(t *testing.T) {
	tests := map[string]struct {
		sender host.AccountID
		args   parameters.TransferCallArgs
		want   error
	}{
		"zero amount":       {sender: "alice.test", args: parameters.TransferCallArgs{ReceiverID: "bob.test", Amount: u128(0)}, want: ErrZeroAmount},
		"self transfer":     {sender: "alice.test", args: parameters.TransferCallArgs{ReceiverID: "alice.test", Amount: u128(1)}, want: ErrSenderIsReceiver},
		"exceeding balance": {sender: "alice.test", args: parameters.TransferCallArgs{ReceiverID: "bob.test", Amount: u128(101)}, want: ErrNotEnoughBalance},
		"unregistered":      {sender: "carol.test", args: parameters.TransferCallArgs{ReceiverID: "bob.test", Amount: u128(1)}, want: ErrAccountNotRegistered},
		"invalid receiver":  {sender: "alice.test", args: parameters.TransferCallArgs{ReceiverID: "B", Amount: u128(1)}, want: host.ErrInvalidAccountID},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t)
			env.fund("alice.test", 100)
			c := env.connector(test.sender)
			if err := c.Transfer(test.sender, test.args); !errors.Is(err, test.want) {
				t.Errorf("expected %v, got %v", test.want, err)
			}
			if want, got := int64(100), env.balance(c, "alice.test"); want != got {
				t.Errorf("failed transfer changed balance to %d", got)
			}
		})
	}
}

func TestTransfer_ByEngineReducesEvmSupply(t *testing.T) {
	env := newTestEnv(t)
	env.fund(engineAccount, 100)
	c := env.connector(engineAccount)
	if err := c.adjustEvmSupply(big.NewInt(100)); err != nil {
		t.Fatalf("failed to adjust supply: %v", err)
	}
	err := c.Transfer(engineAccount, parameters.TransferCallArgs{ReceiverID: "alice.test", Amount: u128(25)})
	if err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	if onEvm, err := c.TotalEvmSupply(); err != nil || onEvm.Int64() != 75 {
		t.Errorf("unexpected EVM supply %v, %v", onEvm, err)
	}
	if want, got := int64(25), env.balance(c, "alice.test"); want != got {
		t.Errorf("unexpected receiver balance, wanted %d, got %d", want, got)
	}
}

func TestTransferCall_NotifiesReceiverAndResolves(t *testing.T) {
	env := newTestEnv(t)
	env.fund("alice.test", 100)
	c := env.connector("alice.test")
	promise, err := c.TransferCall("alice.test", parameters.TransferCallCallArgs{
		ReceiverID: "dex.test",
		Amount:     u128(50),
		Msg:        "swap",
	})
	if err != nil {
		t.Fatalf("transfer call failed: %v", err)
	}
	if promise.Base.TargetAccountID != "dex.test" || promise.Base.Method != "ft_on_transfer" {
		t.Errorf("unexpected notification %+v", promise.Base)
	}
	var notification parameters.FtOnTransferArgs
	if err := parameters.DecodeJSON(promise.Base.Args, &notification); err != nil {
		t.Fatalf("failed to decode notification: %v", err)
	}
	if notification.SenderID != "alice.test" || notification.Amount.String() != "50" || notification.Msg != "swap" {
		t.Errorf("unexpected notification arguments %+v", notification)
	}
	if promise.Callback.TargetAccountID != string(engineAccount) || promise.Callback.Method != "ft_resolve_transfer" {
		t.Errorf("unexpected callback %+v", promise.Callback)
	}
	var resolve parameters.ResolveTransferCallArgs
	if err := parameters.DecodeJSON(promise.Callback.Args, &resolve); err != nil {
		t.Fatalf("failed to decode callback arguments: %v", err)
	}

	// the receiver used 20 of 50 tokens
	used, err := c.ResolveTransfer(resolve, host.PromiseResult{Status: host.PromiseSuccessful, Data: []byte(`"30"`)})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if used.Int64() != 20 {
		t.Errorf("unexpected used amount %v", used)
	}
	if want, got := int64(80), env.balance(c, "alice.test"); want != got {
		t.Errorf("unexpected sender balance, wanted %d, got %d", want, got)
	}
	if want, got := int64(20), env.balance(c, "dex.test"); want != got {
		t.Errorf("unexpected receiver balance, wanted %d, got %d", want, got)
	}
}

func TestResolveTransfer_RefundsUnusedAmount(t *testing.T) {
	tests := map[string]struct {
		result       host.PromiseResult
		wantUsed     int64
		wantSender   int64
		wantReceiver int64
	}{
		"all used":        {result: host.PromiseResult{Status: host.PromiseSuccessful, Data: []byte(`"0"`)}, wantUsed: 50, wantSender: 50, wantReceiver: 50},
		"failed call":     {result: host.PromiseResult{Status: host.PromiseFailed}, wantUsed: 0, wantSender: 100, wantReceiver: 0},
		"garbage result":  {result: host.PromiseResult{Status: host.PromiseSuccessful, Data: []byte(`{}`)}, wantUsed: 0, wantSender: 100, wantReceiver: 0},
		"excessive claim": {result: host.PromiseResult{Status: host.PromiseSuccessful, Data: []byte(`"70"`)}, wantUsed: 0, wantSender: 100, wantReceiver: 0},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t)
			env.fund("alice.test", 100)
			c := env.connector("alice.test")
			if err := c.Transfer("alice.test", parameters.TransferCallArgs{ReceiverID: "dex.test", Amount: u128(50)}); err != nil {
				t.Fatalf("transfer failed: %v", err)
			}
			args := parameters.ResolveTransferCallArgs{SenderID: "alice.test", ReceiverID: "dex.test", Amount: u128(50)}
			used, err := c.ResolveTransfer(args, test.result)
			if err != nil {
				t.Fatalf("resolve failed: %v", err)
			}
			if used.Int64() != test.wantUsed {
				t.Errorf("unexpected used amount, wanted %d, got %v", test.wantUsed, used)
			}
			if got := env.balance(c, "alice.test"); got != test.wantSender {
				t.Errorf("unexpected sender balance, wanted %d, got %d", test.wantSender, got)
			}
			if got := env.balance(c, "dex.test"); got != test.wantReceiver {
				t.Errorf("unexpected receiver balance, wanted %d, got %d", test.wantReceiver, got)
			}
		})
	}
}

func TestResolveTransfer_BurnsRefundOfUnregisteredSender(t *testing.T) {
	env := newTestEnv(t)
	env.fund("dex.test", 50)
	c := env.connector(engineAccount)
	args := parameters.ResolveTransferCallArgs{SenderID: "gone.test", ReceiverID: "dex.test", Amount: u128(50)}
	used, err := c.ResolveTransfer(args, host.PromiseResult{Status: host.PromiseFailed})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if used.Int64() != 0 {
		t.Errorf("unexpected used amount %v", used)
	}
	if total, err := c.TotalSupply(); err != nil || total.Sign() != 0 {
		t.Errorf("refund was not burned, total supply %v, %v", total, err)
	}
}

func TestOnTransfer_CreditsEvmRecipient(t *testing.T) {
	env := newTestEnv(t)
	c := env.connector(engineAccount)
	recipient := tosca.Address{0xAB}
	err := c.OnTransfer(parameters.FtOnTransferArgs{SenderID: "alice.test", Amount: u128(42), Msg: "0xab00000000000000000000000000000000000000"})
	if err != nil {
		t.Fatalf("on transfer failed: %v", err)
	}
	if want, got := tosca.NewValue(42), c.BalanceOfEth(recipient); want != got {
		t.Errorf("unexpected EVM balance, wanted %v, got %v", want, got)
	}
	if onEvm, err := c.TotalEvmSupply(); err != nil || onEvm.Int64() != 42 {
		t.Errorf("unexpected EVM supply %v, %v", onEvm, err)
	}
	if err := c.OnTransfer(parameters.FtOnTransferArgs{Amount: u128(1), Msg: "nope"}); !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("expected ErrInvalidAddress, got %v", err)
	}
}

func TestStorageDeposit_RegistersAccount(t *testing.T) {
	env := newTestEnv(t)
	inv := env.begin("alice.test")
	c, err := New(inv)
	if err != nil {
		t.Fatalf("failed to load connector: %v", err)
	}
	tooLittle := new(big.Int).Sub(StorageBalanceMin, big.NewInt(1))
	if _, err := c.StorageDeposit("alice.test", tooLittle, parameters.StorageDepositCallArgs{}); !errors.Is(err, ErrStorageDeposit) {
		t.Errorf("expected ErrStorageDeposit, got %v", err)
	}

	deposit := new(big.Int).Add(StorageBalanceMin, big.NewInt(5))
	bob := "bob.test"
	balance, err := c.StorageDeposit("alice.test", deposit, parameters.StorageDepositCallArgs{AccountID: &bob})
	if err != nil {
		t.Fatalf("storage deposit failed: %v", err)
	}
	if balance.Total.Big().Cmp(StorageBalanceMin) != 0 || balance.Available.Big().Sign() != 0 {
		t.Errorf("unexpected storage balance %+v", balance)
	}
	promises := inv.Promises()
	if len(promises) != 1 || promises[0].Transfer == nil {
		t.Fatalf("expected a refund transfer, got %+v", promises)
	}
	if promises[0].Transfer.Target != "alice.test" || promises[0].Transfer.Amount.Int64() != 5 {
		t.Errorf("unexpected refund %+v", promises[0].Transfer)
	}
	if res, err := c.StorageBalanceOf("bob.test"); err != nil || res == nil {
		t.Errorf("bob is not registered: %v", err)
	}

	// deposits for registered accounts are returned in full
	if _, err := c.StorageDeposit("alice.test", StorageBalanceMin, parameters.StorageDepositCallArgs{AccountID: &bob}); err != nil {
		t.Fatalf("storage deposit failed: %v", err)
	}
	promises = inv.Promises()
	if len(promises) != 2 || promises[1].Transfer.Amount.Cmp(StorageBalanceMin) != 0 {
		t.Errorf("unexpected refund %+v", promises)
	}
	if counter, err := c.AccountsCounter(); err != nil || counter != 1 {
		t.Errorf("unexpected accounts counter %d, %v", counter, err)
	}
}

func TestStorageWithdraw(t *testing.T) {
	env := newTestEnv(t)
	env.fund("alice.test", 1)
	c := env.connector("alice.test")
	if _, err := c.StorageWithdraw("alice.test", parameters.StorageWithdrawCallArgs{}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	amount := u128(1)
	if _, err := c.StorageWithdraw("alice.test", parameters.StorageWithdrawCallArgs{Amount: &amount}); !errors.Is(err, ErrWrongAmount) {
		t.Errorf("expected ErrWrongAmount, got %v", err)
	}
	if _, err := c.StorageWithdraw("bob.test", parameters.StorageWithdrawCallArgs{}); !errors.Is(err, ErrAccountNotRegistered) {
		t.Errorf("expected ErrAccountNotRegistered, got %v", err)
	}
}

func TestStorageUnregister(t *testing.T) {
	env := newTestEnv(t)
	env.fund("alice.test", 10)
	inv := env.begin("alice.test")
	c, err := New(inv)
	if err != nil {
		t.Fatalf("failed to load connector: %v", err)
	}
	if removed, err := c.StorageUnregister("bob.test", false); err != nil || removed {
		t.Errorf("unregistered account was removed: %t, %v", removed, err)
	}
	if _, err := c.StorageUnregister("alice.test", false); !errors.Is(err, ErrPositiveBalance) {
		t.Errorf("expected ErrPositiveBalance, got %v", err)
	}
	removed, err := c.StorageUnregister("alice.test", true)
	if err != nil || !removed {
		t.Fatalf("forced unregister failed: %t, %v", removed, err)
	}
	if res, err := c.StorageBalanceOf("alice.test"); err != nil || res != nil {
		t.Errorf("account is still registered: %v, %v", res, err)
	}
	if total, err := c.TotalSupply(); err != nil || total.Sign() != 0 {
		t.Errorf("balance was not burned, total supply %v, %v", total, err)
	}
	if counter, err := c.AccountsCounter(); err != nil || counter != 0 {
		t.Errorf("unexpected accounts counter %d, %v", counter, err)
	}
	promises := inv.Promises()
	if len(promises) != 1 || promises[0].Transfer.Amount.Cmp(StorageBalanceMin) != 0 {
		t.Errorf("storage deposit was not returned: %+v", promises)
	}
}
