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
	"encoding/binary"
	"math/big"

	"github.com/Fantom-foundation/hosted-evm/go/connector"
	"github.com/Fantom-foundation/hosted-evm/go/host"
	"github.com/Fantom-foundation/hosted-evm/go/parameters"
	"github.com/Fantom-foundation/hosted-evm/go/storage"
)

func (c *Contract) registerConnector() {
	private := func(run handler) handler { return guarded(run, host.AssertPrivateCall) }
	payable := func(run handler) handler { return guarded(run, host.AssertOneYocto) }

	c.methods["new_eth_connector"] = private(newEthConnector)
	c.methods["set_eth_connector_contract_data"] = private(setEthConnectorContractData)
	c.methods["deposit"] = deposit
	c.methods["finish_deposit"] = private(finishDeposit)
	c.methods["is_used_proof"] = isUsedProof
	c.methods["withdraw"] = payable(withdraw)
	c.methods["ft_total_supply"] = ftTotalSupply
	c.methods["ft_total_eth_supply_on_near"] = ftTotalSupply
	c.methods["ft_total_eth_supply_on_aurora"] = ftTotalEvmSupply
	c.methods["ft_balance_of"] = ftBalanceOf
	c.methods["ft_balance_of_eth"] = ftBalanceOfEth
	c.methods["ft_transfer"] = payable(ftTransfer)
	c.methods["ft_transfer_call"] = payable(ftTransferCall)
	c.methods["ft_resolve_transfer"] = private(ftResolveTransfer)
	c.methods["ft_metadata"] = ftMetadata
	c.methods["storage_deposit"] = storageDeposit
	c.methods["storage_withdraw"] = payable(storageWithdraw)
	c.methods["storage_unregister"] = payable(storageUnregister)
	c.methods["storage_balance_of"] = storageBalanceOf
	c.methods["storage_balance_bounds"] = storageBalanceBounds
	c.methods["get_paused_flags"] = getPausedFlags
	c.methods["set_paused_flags"] = private(setPausedFlags)
	c.methods["get_accounts_counter"] = getAccountsCounter
}

// guarded wraps an entry point with checks on the invocation.
func guarded(run handler, guards ...func(host.Env) error) handler {
	return func(rt host.Runtime) ([]byte, error) {
		for _, guard := range guards {
			if err := guard(rt); err != nil {
				return nil, err
			}
		}
		return run(rt)
	}
}

// withConnector loads the connector for an entry point.
func withConnector(run func(host.Runtime, *connector.Connector) ([]byte, error)) handler {
	return func(rt host.Runtime) ([]byte, error) {
		c, err := connector.New(rt)
		if err != nil {
			return nil, err
		}
		return run(rt, c)
	}
}

func newEthConnector(rt host.Runtime) ([]byte, error) {
	var args parameters.InitCallArgs
	if err := parameters.Decode(rt.ReadInput(), &args); err != nil {
		return nil, err
	}
	return nil, connector.Init(rt, args)
}

func setEthConnectorContractData(rt host.Runtime) ([]byte, error) {
	var args parameters.SetContractDataCallArgs
	if err := parameters.Decode(rt.ReadInput(), &args); err != nil {
		return nil, err
	}
	return nil, connector.SetContractData(rt, args)
}

// scheduleWithCallback creates a promise followed by its callback and makes
// the result of the callback the result of the invocation.
func scheduleWithCallback(rt host.Runtime, promise parameters.PromiseWithCallbackArgs) {
	base := rt.PromiseCreate(promiseArgs(promise.Base))
	rt.PromiseReturn(rt.PromiseThen(base, promiseArgs(promise.Callback)))
}

func promiseArgs(args parameters.PromiseArgs) host.PromiseCreateArgs {
	return host.PromiseCreateArgs{
		TargetAccountID: host.AccountID(args.TargetAccountID),
		Method:          args.Method,
		Args:            args.Args,
		AttachedBalance: new(big.Int).Set(&args.AttachedBalance),
		AttachedGas:     args.AttachedGas,
	}
}

var deposit = withConnector(func(rt host.Runtime, c *connector.Connector) ([]byte, error) {
	promise, err := c.Deposit(rt.ReadInput())
	if err != nil {
		return nil, err
	}
	scheduleWithCallback(rt, promise)
	return nil, nil
})

// finishDeposit is the callback of the proof verification.
func finishDeposit(rt host.Runtime) ([]byte, error) {
	result, err := host.SinglePromiseResult(rt)
	if err != nil {
		return nil, err
	}
	if err := connector.VerifiedProof(result); err != nil {
		return nil, err
	}
	var args parameters.FinishDepositCallArgs
	if err := parameters.Decode(rt.ReadInput(), &args); err != nil {
		return nil, err
	}
	c, err := connector.New(rt)
	if err != nil {
		return nil, err
	}
	return nil, c.FinishDeposit(args)
}

func isUsedProof(rt host.Runtime) ([]byte, error) {
	var args parameters.IsUsedProofCallArgs
	if err := parameters.Decode(rt.ReadInput(), &args); err != nil {
		return nil, err
	}
	return encodeBool(connector.IsUsedProof(storage.New(rt), &args.Proof)), nil
}

var withdraw = withConnector(func(rt host.Runtime, c *connector.Connector) ([]byte, error) {
	var args parameters.WithdrawCallArgs
	if err := parameters.Decode(rt.ReadInput(), &args); err != nil {
		return nil, err
	}
	res, err := c.Withdraw(args)
	if err != nil {
		return nil, err
	}
	return parameters.Encode(res)
})

func jsonAmount(amount *big.Int, err error) ([]byte, error) {
	if err != nil {
		return nil, err
	}
	return parameters.EncodeJSON(parameters.NewU128(amount)), nil
}

var ftTotalSupply = withConnector(func(_ host.Runtime, c *connector.Connector) ([]byte, error) {
	return jsonAmount(c.TotalSupply())
})

var ftTotalEvmSupply = withConnector(func(_ host.Runtime, c *connector.Connector) ([]byte, error) {
	return jsonAmount(c.TotalEvmSupply())
})

var ftBalanceOf = withConnector(func(rt host.Runtime, c *connector.Connector) ([]byte, error) {
	var args parameters.BalanceOfCallArgs
	if err := parameters.DecodeJSON(rt.ReadInput(), &args); err != nil {
		return nil, err
	}
	return jsonAmount(c.BalanceOf(host.AccountID(args.AccountID)))
})

var ftBalanceOfEth = withConnector(func(rt host.Runtime, c *connector.Connector) ([]byte, error) {
	var args parameters.BalanceOfEthCallArgs
	if err := parameters.Decode(rt.ReadInput(), &args); err != nil {
		return nil, err
	}
	balance := c.BalanceOfEth(args.Address)
	return parameters.EncodeJSON(balance.ToBig().String()), nil
})

var ftTransfer = withConnector(func(rt host.Runtime, c *connector.Connector) ([]byte, error) {
	var args parameters.TransferCallArgs
	if err := parameters.DecodeJSON(rt.ReadInput(), &args); err != nil {
		return nil, err
	}
	return nil, c.Transfer(rt.PredecessorAccountID(), args)
})

var ftTransferCall = withConnector(func(rt host.Runtime, c *connector.Connector) ([]byte, error) {
	var args parameters.TransferCallCallArgs
	if err := parameters.DecodeJSON(rt.ReadInput(), &args); err != nil {
		return nil, err
	}
	promise, err := c.TransferCall(rt.PredecessorAccountID(), args)
	if err != nil {
		return nil, err
	}
	scheduleWithCallback(rt, promise)
	return nil, nil
})

// ftResolveTransfer is the callback of ft_transfer_call. Its result is the
// amount finally transferred.
func ftResolveTransfer(rt host.Runtime) ([]byte, error) {
	result, err := host.SinglePromiseResult(rt)
	if err != nil {
		return nil, err
	}
	var args parameters.ResolveTransferCallArgs
	if err := parameters.DecodeJSON(rt.ReadInput(), &args); err != nil {
		return nil, err
	}
	c, err := connector.New(rt)
	if err != nil {
		return nil, err
	}
	return jsonAmount(c.ResolveTransfer(args, result))
}

func ftMetadata(rt host.Runtime) ([]byte, error) {
	metadata, err := connector.Metadata(storage.New(rt))
	if err != nil {
		return nil, err
	}
	return parameters.EncodeJSON(metadata.JSON()), nil
}

var storageDeposit = withConnector(func(rt host.Runtime, c *connector.Connector) ([]byte, error) {
	var args parameters.StorageDepositCallArgs
	if err := parameters.DecodeJSON(rt.ReadInput(), &args); err != nil {
		return nil, err
	}
	balance, err := c.StorageDeposit(rt.PredecessorAccountID(), rt.AttachedDeposit(), args)
	if err != nil {
		return nil, err
	}
	return parameters.EncodeJSON(balance), nil
})

var storageWithdraw = withConnector(func(rt host.Runtime, c *connector.Connector) ([]byte, error) {
	var args parameters.StorageWithdrawCallArgs
	if err := parameters.DecodeJSON(rt.ReadInput(), &args); err != nil {
		return nil, err
	}
	balance, err := c.StorageWithdraw(rt.PredecessorAccountID(), args)
	if err != nil {
		return nil, err
	}
	return parameters.EncodeJSON(balance), nil
})

var storageUnregister = withConnector(func(rt host.Runtime, c *connector.Connector) ([]byte, error) {
	var args parameters.StorageUnregisterCallArgs
	if input := rt.ReadInput(); len(input) > 0 {
		if err := parameters.DecodeJSON(input, &args); err != nil {
			return nil, err
		}
	}
	removed, err := c.StorageUnregister(rt.PredecessorAccountID(), args.Force != nil && *args.Force)
	if err != nil {
		return nil, err
	}
	return parameters.EncodeJSON(removed), nil
})

var storageBalanceOf = withConnector(func(rt host.Runtime, c *connector.Connector) ([]byte, error) {
	var args parameters.BalanceOfCallArgs
	if err := parameters.DecodeJSON(rt.ReadInput(), &args); err != nil {
		return nil, err
	}
	balance, err := c.StorageBalanceOf(host.AccountID(args.AccountID))
	if err != nil {
		return nil, err
	}
	return parameters.EncodeJSON(balance), nil
})

func storageBalanceBounds(host.Runtime) ([]byte, error) {
	bound := parameters.NewU128(connector.StorageBalanceMin)
	return parameters.EncodeJSON(parameters.StorageBalanceBounds{Min: bound, Max: &bound}), nil
}

func getPausedFlags(rt host.Runtime) ([]byte, error) {
	return []byte{connector.PausedFlags(storage.New(rt))}, nil
}

func setPausedFlags(rt host.Runtime) ([]byte, error) {
	var args parameters.PauseEthConnectorCallArgs
	if err := parameters.Decode(rt.ReadInput(), &args); err != nil {
		return nil, err
	}
	connector.SetPausedFlags(storage.New(rt), args.PausedMask)
	return nil, nil
}

var getAccountsCounter = withConnector(func(_ host.Runtime, c *connector.Connector) ([]byte, error) {
	counter, err := c.AccountsCounter()
	if err != nil {
		return nil, err
	}
	return binary.LittleEndian.AppendUint64(nil, counter), nil
})
