// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package memhost

import (
	"math/big"
	"testing"

	"github.com/Fantom-foundation/hosted-evm/go/host"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestHost(t *testing.T) *Host {
	t.Helper()
	h, err := NewInMemory(Config{AccountID: "evm.test", BlockHeight: 10, Registerer: prometheus.NewRegistry()})
	if err != nil {
		t.Fatalf("failed to create host: %v", err)
	}
	t.Cleanup(func() { h.Close() })
	return h
}

func TestHost_CommittedWritesAreVisible(t *testing.T) {
	h := newTestHost(t)
	h.SetContract(func(rt host.Runtime, method string) {
		rt.WriteStorage([]byte("a"), []byte{1})
		rt.WriteStorage([]byte("b"), []byte{2})
		rt.RemoveStorage([]byte("b"))
		rt.ReturnOutput([]byte(method))
	})
	outcome, err := h.Call(Call{Method: "set"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Aborted {
		t.Fatalf("invocation aborted: %s", outcome.Panic)
	}
	if want, got := "set", string(outcome.Output); want != got {
		t.Errorf("unexpected output, wanted %q, got %q", want, got)
	}
	if value, found := h.Get([]byte("a")); !found || len(value) != 1 || value[0] != 1 {
		t.Errorf("unexpected value for a: %v, %t", value, found)
	}
	if _, found := h.Get([]byte("b")); found {
		t.Errorf("removed key b is still present")
	}
}

func TestHost_PanicRollsBackAllWrites(t *testing.T) {
	registry := prometheus.NewRegistry()
	h, err := NewInMemory(Config{AccountID: "evm.test", Registerer: registry})
	if err != nil {
		t.Fatalf("failed to create host: %v", err)
	}
	defer h.Close()

	h.SetContract(func(rt host.Runtime, method string) {
		rt.WriteStorage([]byte("a"), []byte{1})
		rt.PanicUTF8([]byte("ERR_TEST: details"))
	})
	outcome, err := h.Call(Call{Method: "fail"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !outcome.Aborted || outcome.Panic != "ERR_TEST: details" {
		t.Errorf("unexpected outcome: %+v", outcome)
	}
	if _, found := h.Get([]byte("a")); found {
		t.Errorf("write of aborted invocation was committed")
	}
	if got := testutil.ToFloat64(h.metrics.aborts.WithLabelValues("fail", "ERR_TEST")); got != 1 {
		t.Errorf("unexpected abort count: %v", got)
	}
	if got := testutil.ToFloat64(h.metrics.invocations.WithLabelValues("fail")); got != 1 {
		t.Errorf("unexpected invocation count: %v", got)
	}
}

func TestHost_UnexpectedPanicIsAnAbort(t *testing.T) {
	h := newTestHost(t)
	h.SetContract(func(rt host.Runtime, method string) {
		var m map[string]int
		m["x"] = 1
	})
	outcome, err := h.Call(Call{Method: "boom"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !outcome.Aborted {
		t.Errorf("runtime panic should abort the invocation")
	}
}

func TestHost_CallWithoutContractFails(t *testing.T) {
	h := newTestHost(t)
	if _, err := h.Call(Call{Method: "x"}); err == nil {
		t.Errorf("expected an error")
	}
}

func TestHost_EnvironmentIsForwarded(t *testing.T) {
	h := newTestHost(t)
	var seen struct {
		signer, predecessor, current host.AccountID
		deposit                      *big.Int
		height                       uint64
	}
	h.SetContract(func(rt host.Runtime, method string) {
		seen.signer = rt.SignerAccountID()
		seen.predecessor = rt.PredecessorAccountID()
		seen.current = rt.CurrentAccountID()
		seen.deposit = rt.AttachedDeposit()
		seen.height = rt.BlockHeight()
	})
	if _, err := h.Call(Call{Method: "env", Predecessor: "alice.test", Deposit: big.NewInt(7)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen.signer != "alice.test" || seen.predecessor != "alice.test" || seen.current != "evm.test" {
		t.Errorf("unexpected accounts: %+v", seen)
	}
	if seen.deposit.Int64() != 7 || seen.height != 10 {
		t.Errorf("unexpected deposit or height: %v, %d", seen.deposit, seen.height)
	}
	h.AdvanceBlocks(5)
	if want, got := uint64(15), h.BlockHeight(); want != got {
		t.Errorf("unexpected height, wanted %d, got %d", want, got)
	}
}

func TestHost_ExecuteResolvesPromiseChains(t *testing.T) {
	h := newTestHost(t)
	h.RegisterRemote("prover.test", func(call Call) host.PromiseResult {
		if call.Method != "verify" || call.Predecessor != "evm.test" {
			return host.PromiseResult{Status: host.PromiseFailed}
		}
		return host.PromiseResult{Status: host.PromiseSuccessful, Data: []byte{1}}
	})
	var callbackResults []host.PromiseResult
	h.SetContract(func(rt host.Runtime, method string) {
		switch method {
		case "start":
			id := rt.PromiseCreate(host.PromiseCreateArgs{TargetAccountID: "prover.test", Method: "verify"})
			id = rt.PromiseThen(id, host.PromiseCreateArgs{TargetAccountID: rt.CurrentAccountID(), Method: "finish"})
			rt.PromiseReturn(id)
		case "finish":
			if err := host.AssertPrivateCall(rt); err != nil {
				rt.PanicUTF8([]byte(err.Error()))
			}
			res, err := host.SinglePromiseResult(rt)
			if err != nil {
				rt.PanicUTF8([]byte(err.Error()))
			}
			callbackResults = append(callbackResults, res)
			rt.WriteStorage([]byte("done"), res.Data)
			rt.ReturnOutput([]byte("finished"))
		}
	})

	outcomes, err := h.Execute(Call{Method: "start", Predecessor: "alice.test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want, got := 2, len(outcomes); want != got {
		t.Fatalf("unexpected number of outcomes, wanted %d, got %d", want, got)
	}
	if len(callbackResults) != 1 || callbackResults[0].Status != host.PromiseSuccessful {
		t.Errorf("unexpected callback results: %v", callbackResults)
	}
	if value, found := h.Get([]byte("done")); !found || len(value) != 1 || value[0] != 1 {
		t.Errorf("callback did not persist the result")
	}
	if got := testutil.ToFloat64(h.metrics.promises.WithLabelValues("start")); got != 2 {
		t.Errorf("unexpected promise count: %v", got)
	}
}

func TestHost_PromisesOfAbortedInvocationsAreDropped(t *testing.T) {
	h := newTestHost(t)
	h.SetContract(func(rt host.Runtime, method string) {
		rt.PromiseTransfer("bob.test", big.NewInt(5))
		rt.PanicUTF8([]byte("ERR_NOPE"))
	})
	outcomes, err := h.Execute(Call{Method: "pay"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(outcomes) != 1 || !outcomes[0].Aborted {
		t.Errorf("unexpected outcomes: %+v", outcomes)
	}
	if len(h.Transfers()) != 0 {
		t.Errorf("transfers of aborted invocation were executed")
	}
}

func TestHost_TransfersAreRecorded(t *testing.T) {
	h := newTestHost(t)
	h.SetContract(func(rt host.Runtime, method string) {
		rt.PromiseTransfer("bob.test", big.NewInt(5))
	})
	if _, err := h.Execute(Call{Method: "pay"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	transfers := h.Transfers()
	if len(transfers) != 1 || transfers[0].Target != "bob.test" || transfers[0].Amount.Int64() != 5 {
		t.Errorf("unexpected transfers: %+v", transfers)
	}
}

func TestHost_SelfDeployInstallsCodeAndMigrates(t *testing.T) {
	h := newTestHost(t)
	var migrated bool
	h.SetContract(func(rt host.Runtime, method string) {
		switch method {
		case "deploy":
			rt.WriteStorage([]byte("code"), []byte{0xca, 0xfe})
			rt.SelfDeploy([]byte("code"))
		case "state_migration":
			migrated = true
		}
	})
	if _, err := h.Execute(Call{Method: "deploy"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code := h.DeployedCode(); len(code) != 2 || code[0] != 0xca {
		t.Errorf("unexpected deployed code: %x", code)
	}
	if !migrated {
		t.Errorf("state migration was not invoked")
	}
}

func TestInvocation_ReadsSeeOwnWrites(t *testing.T) {
	h := newTestHost(t)
	inv := h.Begin(Call{})
	inv.WriteStorage([]byte{1}, []byte{2})
	if value, found := inv.ReadStorage([]byte{1}); !found || value[0] != 2 {
		t.Errorf("buffered write not visible")
	}
	if _, found := h.Get([]byte{1}); found {
		t.Errorf("uncommitted write visible in host")
	}
	if err := inv.Commit(); err != nil {
		t.Fatalf("failed to commit: %v", err)
	}
	if keys := h.Keys([]byte{1}); len(keys) != 1 {
		t.Errorf("unexpected keys: %x", keys)
	}
}

func TestAbortCode(t *testing.T) {
	tests := map[string]string{
		"ERR_X: detail": "ERR_X",
		"ERR_Y":         "ERR_Y",
		"":              "",
	}
	for input, want := range tests {
		if got := abortCode(input); got != want {
			t.Errorf("abortCode(%q) = %q, want %q", input, got, want)
		}
	}
}
