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
	"github.com/Fantom-foundation/hosted-evm/go/connector"
	"github.com/Fantom-foundation/hosted-evm/go/engine"
	"github.com/Fantom-foundation/hosted-evm/go/host"
	"github.com/Fantom-foundation/hosted-evm/go/parameters"
	"github.com/Fantom-foundation/hosted-evm/go/state"
	"github.com/Fantom-foundation/hosted-evm/go/storage"
	"github.com/Fantom-foundation/hosted-evm/go/tosca"
	"github.com/holiman/uint256"
)

func (c *Contract) registerEngine() {
	c.methods["deploy_code"] = deployCode
	c.methods["call"] = call
	c.methods["submit"] = submit
	c.methods["register_relayer"] = registerRelayer
	c.methods["ft_on_transfer"] = ftOnTransfer
	c.methods["deploy_erc20_token"] = deployErc20Token
	c.methods["refund_on_error"] = refundOnError
	c.methods["view"] = view
	c.methods["get_block_hash"] = getBlockHash
	c.methods["get_code"] = getCode
	c.methods["get_balance"] = getBalance
	c.methods["get_nonce"] = getNonce
	c.methods["get_storage_at"] = getStorageAt
	c.methods["get_erc20_from_nep141"] = getErc20FromNep141
	c.methods["get_nep141_from_erc20"] = getNep141FromErc20
}

func encodeResult(res parameters.SubmitResult, err error) ([]byte, error) {
	if err != nil {
		return nil, err
	}
	return parameters.Encode(res)
}

func deployCode(rt host.Runtime) ([]byte, error) {
	e, err := engine.New(rt)
	if err != nil {
		return nil, err
	}
	return encodeResult(e.DeployCode(rt.ReadInput()))
}

func call(rt host.Runtime) ([]byte, error) {
	args, err := parameters.DecodeCallArgs(rt.ReadInput())
	if err != nil {
		return nil, err
	}
	e, err := engine.New(rt)
	if err != nil {
		return nil, err
	}
	return encodeResult(e.Call(args))
}

func submit(rt host.Runtime) ([]byte, error) {
	e, err := engine.New(rt)
	if err != nil {
		return nil, err
	}
	return encodeResult(e.Submit(rt.ReadInput()))
}

func registerRelayer(rt host.Runtime) ([]byte, error) {
	address, err := readAddress(rt)
	if err != nil {
		return nil, err
	}
	e, err := engine.New(rt)
	if err != nil {
		return nil, err
	}
	e.RegisterRelayer(address)
	return nil, nil
}

// ftOnTransfer receives host tokens. Bridged ETH sent by the engine itself
// moves into the EVM balance of the recipient; other tokens are minted as
// their ERC-20 counterpart. No tokens are returned to the sender.
func ftOnTransfer(rt host.Runtime) ([]byte, error) {
	var args parameters.FtOnTransferArgs
	if err := parameters.DecodeJSON(rt.ReadInput(), &args); err != nil {
		return nil, err
	}
	if rt.PredecessorAccountID() == rt.CurrentAccountID() {
		c, err := connector.New(rt)
		if err != nil {
			return nil, err
		}
		if err := c.OnTransfer(args); err != nil {
			return nil, err
		}
	} else {
		e, err := engine.New(rt)
		if err != nil {
			return nil, err
		}
		if err := e.ReceiveErc20Tokens(rt.PredecessorAccountID(), args); err != nil {
			return nil, err
		}
	}
	return parameters.EncodeJSON("0"), nil
}

func deployErc20Token(rt host.Runtime) ([]byte, error) {
	var args parameters.DeployErc20TokenArgs
	if err := parameters.Decode(rt.ReadInput(), &args); err != nil {
		return nil, err
	}
	e, err := engine.New(rt)
	if err != nil {
		return nil, err
	}
	address, err := e.DeployErc20Token(host.AccountID(args.Nep141))
	if err != nil {
		return nil, err
	}
	rt.Log("Deployed ERC-20 at " + address.String())
	return parameters.Encode(address[:])
}

// refundOnError is the callback of exits, restoring the exited tokens if
// the exit failed.
func refundOnError(rt host.Runtime) ([]byte, error) {
	if err := host.AssertPrivateCall(rt); err != nil {
		return nil, err
	}
	result, err := host.SinglePromiseResult(rt)
	if err != nil {
		return nil, err
	}
	var args parameters.RefundCallArgs
	if err := parameters.Decode(rt.ReadInput(), &args); err != nil {
		return nil, err
	}
	e, err := engine.New(rt)
	if err != nil {
		return nil, err
	}
	return nil, e.RefundOnError(args, result)
}

func view(rt host.Runtime) ([]byte, error) {
	var args parameters.ViewCallArgs
	if err := parameters.Decode(rt.ReadInput(), &args); err != nil {
		return nil, err
	}
	e, err := engine.New(rt)
	if err != nil {
		return nil, err
	}
	status, err := e.View(args)
	if err != nil {
		return nil, err
	}
	return parameters.Encode(status)
}

func getBlockHash(rt host.Runtime) ([]byte, error) {
	height, err := readU64(rt)
	if err != nil {
		return nil, err
	}
	e, err := engine.New(rt)
	if err != nil {
		return nil, err
	}
	hash := e.BlockHash(height)
	return hash[:], nil
}

func accounts(rt host.Runtime) *state.Accounts {
	return state.NewAccounts(storage.New(rt))
}

func getCode(rt host.Runtime) ([]byte, error) {
	address, err := readAddress(rt)
	if err != nil {
		return nil, err
	}
	return append([]byte{}, accounts(rt).Code(address)...), nil
}

func getBalance(rt host.Runtime) ([]byte, error) {
	address, err := readAddress(rt)
	if err != nil {
		return nil, err
	}
	balance := accounts(rt).Balance(address)
	return balance[:], nil
}

func getNonce(rt host.Runtime) ([]byte, error) {
	address, err := readAddress(rt)
	if err != nil {
		return nil, err
	}
	nonce := uint256.NewInt(accounts(rt).Nonce(address)).Bytes32()
	return nonce[:], nil
}

func getStorageAt(rt host.Runtime) ([]byte, error) {
	var args parameters.GetStorageAtArgs
	if err := parameters.Decode(rt.ReadInput(), &args); err != nil {
		return nil, err
	}
	value := accounts(rt).Storage(args.Address, tosca.Key(args.Key))
	return value[:], nil
}

func getErc20FromNep141(rt host.Runtime) ([]byte, error) {
	var args parameters.GetErc20FromNep141CallArgs
	if err := parameters.Decode(rt.ReadInput(), &args); err != nil {
		return nil, err
	}
	address, err := state.NewTokenMap(storage.New(rt)).Erc20(host.AccountID(args.Nep141))
	if err != nil {
		return nil, err
	}
	return address[:], nil
}

func getNep141FromErc20(rt host.Runtime) ([]byte, error) {
	address, err := readAddress(rt)
	if err != nil {
		return nil, err
	}
	nep141, err := state.NewTokenMap(storage.New(rt)).Nep141(address)
	if err != nil {
		return nil, err
	}
	return []byte(nep141), nil
}
