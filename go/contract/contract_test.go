// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package contract

import (
	"crypto/ecdsa"
	"encoding/binary"
	"errors"
	"fmt"
	"testing"

	"github.com/Fantom-foundation/hosted-evm/go/host"
	"github.com/Fantom-foundation/hosted-evm/go/host/memhost"
	"github.com/Fantom-foundation/hosted-evm/go/parameters"
	"github.com/Fantom-foundation/hosted-evm/go/state"
	"github.com/Fantom-foundation/hosted-evm/go/storage"
	"github.com/Fantom-foundation/hosted-evm/go/tosca"
	"github.com/Fantom-foundation/hosted-evm/go/transaction"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const (
	engineAccount  = host.AccountID("evm.test")
	ownerAccount   = host.AccountID("owner.test")
	proverAccount  = host.AccountID("prover.test")
	relayerAccount = host.AccountID("relayer.test")
)

var chainID = [32]byte{31: 1}

type testEnv struct {
	t    *testing.T
	host *memhost.Host
}

// newTestEnv creates a host running the contract with an initialized
// engine.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	h, err := memhost.NewInMemory(memhost.Config{
		AccountID:   engineAccount,
		BlockHeight: 100,
		Registerer:  prometheus.NewRegistry(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	h.SetContract(New(Config{Benchmarking: true}).Dispatch)

	env := &testEnv{t: t, host: h}
	env.mustCall(ownerAccount, "new", env.encode(parameters.NewCallArgs{
		ChainID:            chainID,
		OwnerID:            string(ownerAccount),
		BridgeProverID:     string(proverAccount),
		UpgradeDelayBlocks: 1,
	}))
	return env
}

func (e *testEnv) encode(value any) []byte {
	e.t.Helper()
	data, err := parameters.Encode(value)
	require.NoError(e.t, err)
	return data
}

func (e *testEnv) invoke(call memhost.Call) memhost.Outcome {
	e.t.Helper()
	outcome, err := e.host.Call(call)
	require.NoError(e.t, err)
	return outcome
}

func (e *testEnv) call(predecessor host.AccountID, method string, input []byte) memhost.Outcome {
	e.t.Helper()
	return e.invoke(memhost.Call{Method: method, Input: input, Predecessor: predecessor})
}

// mustCall runs an entry point that must not abort and returns its output.
func (e *testEnv) mustCall(predecessor host.AccountID, method string, input []byte) []byte {
	e.t.Helper()
	outcome := e.call(predecessor, method, input)
	require.False(e.t, outcome.Aborted, "%s aborted: %s", method, outcome.Panic)
	return outcome.Output
}

func (e *testEnv) requireAbort(outcome memhost.Outcome, code tosca.ConstError) {
	e.t.Helper()
	require.True(e.t, outcome.Aborted, "%s did not abort", outcome.Method)
	require.Equal(e.t, string(code), outcome.Panic)
}

func (e *testEnv) balance(address tosca.Address) tosca.Value {
	e.t.Helper()
	return tosca.Value(e.mustCall(relayerAccount, "get_balance", address[:]))
}

func (e *testEnv) nonce(address tosca.Address) uint64 {
	e.t.Helper()
	output := e.mustCall(relayerAccount, "get_nonce", address[:])
	require.Len(e.t, output, 32)
	return binary.BigEndian.Uint64(output[24:])
}

// snapshot returns all committed key/value pairs.
func (e *testEnv) snapshot() map[string]string {
	e.t.Helper()
	res := map[string]string{}
	for _, key := range e.host.Keys(nil) {
		value, _ := e.host.Get(key)
		res[string(key)] = string(value)
	}
	return res
}

// fund seeds balances through the benchmarking genesis allocation.
func (e *testEnv) fund(address tosca.Address, amount uint64) {
	e.t.Helper()
	alloc := parameters.AccountBalance{Address: address, Balance: tosca.NewValue(amount)}
	e.mustCall(ownerAccount, "begin_chain", e.encode(parameters.BeginChainArgs{
		ChainID:      chainID,
		GenesisAlloc: []parameters.AccountBalance{alloc},
	}))
}

type account struct {
	key     *ecdsa.PrivateKey
	address tosca.Address
}

func newAccount(t *testing.T) account {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return account{key: key, address: tosca.Address(crypto.PubkeyToAddress(key.PublicKey))}
}

// submitRaw signs a transaction without relaying it. Transactions without
// chain id are signed for chain 1.
func (e *testEnv) submitRaw(sender account, tx transaction.Transaction) []byte {
	e.t.Helper()
	if tx.ChainID == nil {
		id := uint64(1)
		tx.ChainID = &id
	}
	tx.Kind = transaction.DynamicFee
	tx.MaxFeePerGas = tx.MaxPriorityFeePerGas
	raw, err := transaction.Encode(&tx, func(hash []byte) ([]byte, error) {
		return crypto.Sign(hash, sender.key)
	})
	require.NoError(e.t, err)
	return raw
}

func (e *testEnv) submit(sender account, tx transaction.Transaction) memhost.Outcome {
	e.t.Helper()
	return e.call(relayerAccount, "submit", e.submitRaw(sender, tx))
}

func (e *testEnv) submitResult(outcome memhost.Outcome) parameters.SubmitResult {
	e.t.Helper()
	require.False(e.t, outcome.Aborted, "%s aborted: %s", outcome.Method, outcome.Panic)
	var res parameters.SubmitResult
	require.NoError(e.t, parameters.Decode(outcome.Output, &res))
	return res
}

func TestErrorCode(t *testing.T) {
	tests := map[string]struct {
		err  error
		want string
	}{
		"sentinel":      {err: ErrNoUpgrade, want: "ERR_NO_UPGRADE"},
		"wrapped":       {err: fmt.Errorf("%w: detail", state.ErrIncorrectNonce), want: "ERR_INCORRECT_NONCE"},
		"double":        {err: fmt.Errorf("context: %w", fmt.Errorf("%w: x", host.ErrPromiseCount)), want: "ERR_PROMISE_COUNT"},
		"outermost":     {err: fmt.Errorf("%w: %v", storage.ErrDeserialize, ErrInvalidInput), want: "ERR_BORSH_DESERIALIZE"},
		"without code":  {err: errors.New("boom"), want: "ERR_INTERNAL"},
		"not prefixed":  {err: tosca.ConstError("plain"), want: "ERR_INTERNAL"},
		"upgrade delay": {err: fmt.Errorf("%w: height 1", ErrTooEarly), want: "ERR_NOT_ALLOWED:TOO_EARLY"},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			if got := ErrorCode(test.err); got != test.want {
				t.Errorf("wanted %q, got %q", test.want, got)
			}
		})
	}
}

func TestContract_BenchmarkingMethodsAreOptional(t *testing.T) {
	for _, method := range New(Config{}).Methods() {
		if method == "begin_chain" || method == "begin_block" {
			t.Errorf("%s is available without benchmarking", method)
		}
	}
	methods := New(Config{Benchmarking: true}).Methods()
	require.Contains(t, methods, "begin_chain")
	require.Contains(t, methods, "begin_block")
	require.IsIncreasing(t, methods)
}

func TestContract_UnknownMethodAborts(t *testing.T) {
	env := newTestEnv(t)
	env.requireAbort(env.call(relayerAccount, "meta_call", nil), ErrUnknownMethod)
}

func TestContract_EntryPointsRequireState(t *testing.T) {
	h, err := memhost.NewInMemory(memhost.Config{AccountID: engineAccount})
	require.NoError(t, err)
	defer h.Close()
	h.SetContract(New(Config{}).Dispatch)
	env := &testEnv{t: t, host: h}
	for _, method := range []string{"get_owner", "get_chain_id", "submit", "deploy_code"} {
		env.requireAbort(env.call(relayerAccount, method, nil), state.ErrStateNotInitialized)
	}
}

func TestNew_OnlyOwnerMayReinitialize(t *testing.T) {
	env := newTestEnv(t)
	args := env.encode(parameters.NewCallArgs{
		ChainID:        [32]byte{31: 7},
		OwnerID:        "mallory.test",
		BridgeProverID: string(proverAccount),
	})
	env.requireAbort(env.call("mallory.test", "new", args), ErrNotAllowed)

	env.mustCall(ownerAccount, "new", args)
	require.Equal(t, "mallory.test", string(env.mustCall(relayerAccount, "get_owner", nil)))
	require.Equal(t, []byte{31: 7}, env.mustCall(relayerAccount, "get_chain_id", nil))
}

func TestAdmin_Getters(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, Version, string(env.mustCall(relayerAccount, "get_version", nil)))
	require.Equal(t, string(ownerAccount), string(env.mustCall(relayerAccount, "get_owner", nil)))
	require.Equal(t, string(proverAccount), string(env.mustCall(relayerAccount, "get_bridge_prover", nil)))
	require.Equal(t, chainID[:], env.mustCall(relayerAccount, "get_chain_id", nil))
}

func TestUpgrade_DeploysAfterDelayOncePerStage(t *testing.T) {
	env := newTestEnv(t)
	code := []byte("new contract code")
	env.requireAbort(env.call(relayerAccount, "get_upgrade_index", nil), ErrNoUpgrade)
	env.requireAbort(env.call(relayerAccount, "deploy_upgrade", nil), ErrNoUpgrade)
	env.requireAbort(env.call("mallory.test", "stage_upgrade", code), ErrNotAllowed)

	env.mustCall(ownerAccount, "stage_upgrade", code)
	index := env.mustCall(relayerAccount, "get_upgrade_index", nil)
	require.Equal(t, uint64(101), binary.LittleEndian.Uint64(index))

	// staged at height 100 with a delay of 1 block
	env.requireAbort(env.call(relayerAccount, "deploy_upgrade", nil), ErrTooEarly)
	env.host.AdvanceBlocks(1)
	env.requireAbort(env.call(relayerAccount, "deploy_upgrade", nil), ErrTooEarly)
	env.host.AdvanceBlocks(1)

	outcomes, err := env.host.Execute(memhost.Call{Method: "deploy_upgrade", Predecessor: relayerAccount})
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	require.False(t, outcomes[0].Aborted, outcomes[0].Panic)
	require.Equal(t, "state_migration", outcomes[1].Method)
	require.False(t, outcomes[1].Aborted, outcomes[1].Panic)
	require.Equal(t, code, env.host.DeployedCode())

	env.requireAbort(env.call(relayerAccount, "deploy_upgrade", nil), ErrNoUpgrade)
}

func TestUpgrade_InvalidStageHeight(t *testing.T) {
	env := newTestEnv(t)
	inv := env.host.Begin(memhost.Call{})
	storage.New(inv).Write(storage.PrefixConfig, CodeStageKey, []byte{1, 2, 3})
	require.NoError(t, inv.Commit())
	env.requireAbort(env.call(relayerAccount, "get_upgrade_index", nil), ErrInvalidUpgrade)
}

func TestBeginChain_ResetsChainAndSeedsBalances(t *testing.T) {
	env := newTestEnv(t)
	alloc := parameters.AccountBalance{Address: tosca.Address{0xA}, Balance: tosca.NewValue(1234)}
	args := env.encode(parameters.BeginChainArgs{ChainID: [32]byte{31: 9}, GenesisAlloc: []parameters.AccountBalance{alloc}})
	env.requireAbort(env.call("mallory.test", "begin_chain", args), ErrNotAllowed)

	output := env.mustCall(ownerAccount, "begin_chain", args)
	require.Equal(t, []byte{31: 9}, output)
	require.Equal(t, tosca.NewValue(1234), env.balance(alloc.Address))

	env.mustCall(ownerAccount, "begin_block", env.encode(parameters.BeginBlockArgs{}))
	env.requireAbort(env.call("mallory.test", "begin_block", env.encode(parameters.BeginBlockArgs{})), ErrNotAllowed)
}

func TestRegisterRelayer_RequiresAddress(t *testing.T) {
	env := newTestEnv(t)
	env.requireAbort(env.call(relayerAccount, "register_relayer", []byte{1, 2}), ErrInvalidInput)
	address := tosca.Address{0xFE}
	env.mustCall(relayerAccount, "register_relayer", address[:])
}

func TestGuards_CallbacksArePrivate(t *testing.T) {
	env := newTestEnv(t)
	for _, method := range []string{"finish_deposit", "ft_resolve_transfer", "refund_on_error", "new_eth_connector", "set_eth_connector_contract_data", "set_paused_flags"} {
		env.requireAbort(env.call("mallory.test", method, nil), host.ErrPrivateCall)
	}
}

func TestGuards_TransfersRequireOneYocto(t *testing.T) {
	env := newTestEnv(t)
	for _, method := range []string{"withdraw", "ft_transfer", "ft_transfer_call", "storage_withdraw", "storage_unregister"} {
		env.requireAbort(env.call("alice.test", method, nil), host.ErrOneYocto)
	}
}

func TestGuards_CallbacksRequireSinglePromiseResult(t *testing.T) {
	env := newTestEnv(t)
	for _, results := range [][]host.PromiseResult{nil, {{}, {}}} {
		outcome := env.invoke(memhost.Call{Method: "refund_on_error", Predecessor: engineAccount, PromiseResults: results})
		env.requireAbort(outcome, host.ErrPromiseCount)
	}
}
