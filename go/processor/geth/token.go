// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package geth

import (
	"bytes"
	"errors"
	"math/big"
	"strings"

	"github.com/Fantom-foundation/hosted-evm/go/tosca"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	geth "github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// TokenPrecompileAddress hosts the logic of all bridged ERC-20 tokens.
// Token contracts are thin proxies forwarding their caller and calldata
// to it; balances live in the storage of the proxy. The proxy itself
// rejects state changing methods in static frames.
var TokenPrecompileAddress = precompileAddress("nativeErc20")

// MintSelector is the selector of mint(address,uint256).
var MintSelector = []byte{0x40, 0xc1, 0x0f, 0x19}

const tokenABIJSON = `[
{"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
{"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
{"type":"function","name":"admin","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
{"type":"function","name":"totalSupply","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"transferFrom","stateMutability":"nonpayable","inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"mint","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]},
{"type":"function","name":"withdrawToNear","stateMutability":"nonpayable","inputs":[{"name":"recipient","type":"bytes"},{"name":"amount","type":"uint256"}],"outputs":[]},
{"type":"function","name":"withdrawToEthereum","stateMutability":"nonpayable","inputs":[{"name":"recipient","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]},
{"type":"function","name":"initialize","stateMutability":"nonpayable","inputs":[{"name":"name","type":"string"},{"name":"symbol","type":"string"},{"name":"decimals","type":"uint8"},{"name":"admin","type":"address"}],"outputs":[]},
{"type":"event","name":"Transfer","anonymous":false,"inputs":[{"name":"from","type":"address","indexed":true},{"name":"to","type":"address","indexed":true},{"name":"value","type":"uint256","indexed":false}]},
{"type":"event","name":"Approval","anonymous":false,"inputs":[{"name":"owner","type":"address","indexed":true},{"name":"spender","type":"address","indexed":true},{"name":"value","type":"uint256","indexed":false}]}
]`

var tokenABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(tokenABIJSON))
	if err != nil {
		panic(err)
	}
	if !bytes.Equal(parsed.Methods["mint"].ID, MintSelector) {
		panic("unexpected mint selector")
	}
	tokenABI = parsed
}

// Token storage layout, compatible with a solidity contract declaring the
// fields in this order.
const (
	slotBalances = iota
	slotTotalSupply
	slotAdmin
	slotName
	slotSymbol
	slotAllowances
	slotDecimals
)

// gas charged per token operation
const (
	tokenReadGas     = 2_600
	tokenWriteGas    = 30_000
	tokenTransferGas = 40_000
	tokenInitGas     = 100_000
)

var errTokenRevert = errors.New("token operation failed")

// tokenPrecompile implements the ERC-20 logic of bridged tokens. The
// first 32 bytes of the input hold the caller of the proxy, the remaining
// bytes are the calldata received by the proxy.
type tokenPrecompile struct {
	config *Config
}

func (p tokenPrecompile) Run(
	stateDB geth.StateDB,
	_ geth.BlockContext,
	_ geth.TxContext,
	token common.Address,
	input []byte,
	suppliedGas uint64,
) ([]byte, uint64, error) {
	if len(input) < 36 {
		return revert("invalid token call"), suppliedGas, geth.ErrExecutionReverted
	}
	sender := common.BytesToAddress(input[12:32])
	method, err := tokenABI.MethodById(input[32:36])
	if err != nil {
		return revert("unknown token method"), suppliedGas, geth.ErrExecutionReverted
	}
	cost := uint64(tokenReadGas)
	switch method.Name {
	case "transfer", "approve", "mint":
		cost = tokenWriteGas
	case "transferFrom", "withdrawToNear", "withdrawToEthereum":
		cost = tokenTransferGas
	case "initialize":
		cost = tokenInitGas
	}
	if suppliedGas < cost {
		return nil, 0, geth.ErrOutOfGas
	}
	suppliedGas -= cost
	args, err := method.Inputs.Unpack(input[36:])
	if err != nil {
		return revert("invalid token arguments"), suppliedGas, geth.ErrExecutionReverted
	}

	t := tokenState{stateDB: stateDB, token: token}
	output, err := p.run(&t, sender, method, args)
	if err != nil {
		return revert(err.Error()), suppliedGas, geth.ErrExecutionReverted
	}
	return output, suppliedGas, nil
}

func (p tokenPrecompile) run(t *tokenState, sender common.Address, method *abi.Method, args []any) ([]byte, error) {
	switch method.Name {
	case "name":
		return method.Outputs.Pack(t.getString(slotName))
	case "symbol":
		return method.Outputs.Pack(t.getString(slotSymbol))
	case "decimals":
		return method.Outputs.Pack(uint8(t.get(slot(slotDecimals)).Uint64()))
	case "admin":
		return method.Outputs.Pack(t.admin())
	case "totalSupply":
		return method.Outputs.Pack(t.get(slot(slotTotalSupply)).ToBig())
	case "balanceOf":
		return method.Outputs.Pack(t.get(balanceSlot(args[0].(common.Address))).ToBig())
	case "allowance":
		return method.Outputs.Pack(t.get(allowanceSlot(args[0].(common.Address), args[1].(common.Address))).ToBig())
	case "transfer":
		if err := t.transfer(sender, args[0].(common.Address), toUint256(args[1])); err != nil {
			return nil, err
		}
		return method.Outputs.Pack(true)
	case "approve":
		spender, amount := args[0].(common.Address), toUint256(args[1])
		t.set(allowanceSlot(sender, spender), amount)
		t.emit("Approval", sender, spender, amount)
		return method.Outputs.Pack(true)
	case "transferFrom":
		from, to, amount := args[0].(common.Address), args[1].(common.Address), toUint256(args[2])
		key := allowanceSlot(from, sender)
		allowance := t.get(key)
		if allowance.Lt(amount) {
			return nil, errors.New("insufficient allowance")
		}
		if !allowance.Eq(maxUint256) {
			t.set(key, new(uint256.Int).Sub(allowance, amount))
		}
		if err := t.transfer(from, to, amount); err != nil {
			return nil, err
		}
		return method.Outputs.Pack(true)
	case "mint":
		if sender != t.admin() {
			return nil, errors.New("caller is not the admin")
		}
		return nil, t.mint(args[0].(common.Address), toUint256(args[1]))
	case "withdrawToNear":
		return nil, p.withdraw(t, sender, ExitToNearAddress, args[0].([]byte), toUint256(args[1]))
	case "withdrawToEthereum":
		recipient := args[0].(common.Address)
		return nil, p.withdraw(t, sender, ExitToEthereumAddress, recipient.Bytes(), toUint256(args[1]))
	case "initialize":
		admin := args[3].(common.Address)
		if t.admin() != (common.Address{}) || admin == (common.Address{}) {
			return nil, errors.New("already initialized")
		}
		t.setString(slotName, args[0].(string))
		t.setString(slotSymbol, args[1].(string))
		t.set(slot(slotDecimals), uint256.NewInt(uint64(args[2].(uint8))))
		t.set(slot(slotAdmin), new(uint256.Int).SetBytes(admin.Bytes()))
		return nil, nil
	}
	return nil, errTokenRevert
}

// withdraw burns tokens of the sender and records an exit moving them
// out of the EVM.
func (p tokenPrecompile) withdraw(t *tokenState, sender common.Address, target common.Address, recipient []byte, amount *uint256.Int) error {
	if amount.IsZero() || amount.Gt(maxU128) {
		return errors.New("invalid exit amount")
	}
	nep141, err := p.config.Tokens.Nep141(tosca.Address(t.token))
	if err != nil {
		return errors.New("token is not bridged")
	}
	if err := t.burn(sender, amount); err != nil {
		return err
	}
	token := t.token
	res := exit{
		target:    target,
		erc20:     &token,
		nep141:    nep141,
		refund:    sender,
		amount:    amount,
		recipient: recipient,
	}
	return res.record(t.stateDB, p.config.AccountID)
}

var maxUint256 = new(uint256.Int).SetAllOne()

func toUint256(v any) *uint256.Int {
	res, _ := uint256.FromBig(v.(*big.Int))
	return res
}

func slot(n int64) common.Hash {
	return common.BigToHash(big.NewInt(n))
}

func balanceSlot(holder common.Address) common.Hash {
	return crypto.Keccak256Hash(common.LeftPadBytes(holder.Bytes(), 32), slot(slotBalances).Bytes())
}

func allowanceSlot(owner, spender common.Address) common.Hash {
	inner := crypto.Keccak256Hash(common.LeftPadBytes(owner.Bytes(), 32), slot(slotAllowances).Bytes())
	return crypto.Keccak256Hash(common.LeftPadBytes(spender.Bytes(), 32), inner.Bytes())
}

// tokenState accesses the storage of a single token.
type tokenState struct {
	stateDB geth.StateDB
	token   common.Address
}

func (t *tokenState) get(key common.Hash) *uint256.Int {
	value := t.stateDB.GetState(t.token, key)
	return new(uint256.Int).SetBytes(value.Bytes())
}

func (t *tokenState) set(key common.Hash, value *uint256.Int) {
	t.stateDB.SetState(t.token, key, common.Hash(value.Bytes32()))
}

func (t *tokenState) admin() common.Address {
	return common.BytesToAddress(t.stateDB.GetState(t.token, slot(slotAdmin)).Bytes())
}

func (t *tokenState) transfer(from, to common.Address, amount *uint256.Int) error {
	fromKey := balanceSlot(from)
	balance := t.get(fromKey)
	if balance.Lt(amount) {
		return errors.New("insufficient balance")
	}
	t.set(fromKey, new(uint256.Int).Sub(balance, amount))
	toKey := balanceSlot(to)
	t.set(toKey, new(uint256.Int).Add(t.get(toKey), amount))
	t.emit("Transfer", from, to, amount)
	return nil
}

func (t *tokenState) mint(to common.Address, amount *uint256.Int) error {
	supply, overflow := new(uint256.Int).AddOverflow(t.get(slot(slotTotalSupply)), amount)
	if overflow {
		return errors.New("total supply overflow")
	}
	t.set(slot(slotTotalSupply), supply)
	key := balanceSlot(to)
	t.set(key, new(uint256.Int).Add(t.get(key), amount))
	t.emit("Transfer", common.Address{}, to, amount)
	return nil
}

func (t *tokenState) burn(from common.Address, amount *uint256.Int) error {
	key := balanceSlot(from)
	balance := t.get(key)
	if balance.Lt(amount) {
		return errors.New("insufficient balance")
	}
	t.set(key, new(uint256.Int).Sub(balance, amount))
	t.set(slot(slotTotalSupply), new(uint256.Int).Sub(t.get(slot(slotTotalSupply)), amount))
	t.emit("Transfer", from, common.Address{}, amount)
	return nil
}

func (t *tokenState) emit(event string, from, to common.Address, amount *uint256.Int) {
	t.stateDB.AddLog(&types.Log{
		Address: t.token,
		Topics: []common.Hash{
			tokenABI.Events[event].ID,
			common.BytesToHash(from.Bytes()),
			common.BytesToHash(to.Bytes()),
		},
		Data: common.Hash(amount.Bytes32()).Bytes(),
	})
}

// Strings follow the solidity storage layout: up to 31 bytes are stored
// in the slot itself with twice the length in the lowest byte, longer
// strings store 2*len+1 in the slot and the content starting at the
// slot's hash.
func (t *tokenState) getString(n int64) string {
	head := t.stateDB.GetState(t.token, slot(n))
	if head[31]&1 == 0 {
		return string(head[:head[31]/2])
	}
	length := new(big.Int).SetBytes(head.Bytes())
	size := int(new(big.Int).Rsh(length, 1).Uint64())
	base := new(big.Int).SetBytes(crypto.Keccak256(slot(n).Bytes()))
	res := make([]byte, 0, size)
	for i := 0; len(res) < size; i++ {
		word := t.stateDB.GetState(t.token, common.BigToHash(new(big.Int).Add(base, big.NewInt(int64(i)))))
		res = append(res, word[:min(32, size-len(res))]...)
	}
	return string(res)
}

func (t *tokenState) setString(n int64, value string) {
	if len(value) < 32 {
		var head common.Hash
		copy(head[:], value)
		head[31] = byte(2 * len(value))
		t.stateDB.SetState(t.token, slot(n), head)
		return
	}
	t.stateDB.SetState(t.token, slot(n), common.BigToHash(big.NewInt(int64(2*len(value)+1))))
	base := new(big.Int).SetBytes(crypto.Keccak256(slot(n).Bytes()))
	for i := 0; i*32 < len(value); i++ {
		var word common.Hash
		copy(word[:], value[i*32:])
		t.stateDB.SetState(t.token, common.BigToHash(new(big.Int).Add(base, big.NewInt(int64(i)))), word)
	}
}

// revert encodes message as a solidity Error(string) revert reason.
func revert(message string) []byte {
	stringType, _ := abi.NewType("string", "", nil)
	data, _ := abi.Arguments{{Type: stringType}}.Pack(message)
	return append([]byte{0x08, 0xc3, 0x79, 0xa0}, data...)
}

// TokenInput encodes a call of the given token method.
func TokenInput(method string, args ...any) ([]byte, error) {
	return tokenABI.Pack(method, args...)
}

// MintInput encodes a call minting amount tokens to recipient. The call
// succeeds only if issued by the token admin.
func MintInput(recipient tosca.Address, amount *big.Int) ([]byte, error) {
	return TokenInput("mint", common.Address(recipient), amount)
}

// DecodeTokenOutput decodes the result of a token method.
func DecodeTokenOutput(method string, output []byte) ([]any, error) {
	return tokenABI.Unpack(method, output)
}

// tokenViews are the token methods forwarded without the write guard.
var tokenViews = []string{"name", "symbol", "decimals", "admin", "totalSupply", "balanceOf", "allowance"}

// writeGuard lets all but the view methods of the token start with a
// no-op SSTORE. The precompile cannot observe a read-only frame, the
// SSTORE makes state changing calls fail in one.
func writeGuard() program {
	build := func(forward byte) program {
		p := program{}.push1(0).op(geth.CALLDATALOAD).push1(0xe0).op(geth.SHR)
		for _, name := range tokenViews {
			p = p.op(geth.DUP1).push4(tokenABI.Methods[name].ID).op(geth.EQ).push1(forward).op(geth.JUMPI)
		}
		return p.push1(0).op(geth.SLOAD).push1(0).op(geth.SSTORE)
	}
	return build(byte(len(build(0)))).op(geth.JUMPDEST, geth.POP)
}

// TokenRuntimeCode is the code installed at every bridged token. It
// forwards the caller and the calldata to the token precompile and
// returns or reverts with its result.
func TokenRuntimeCode() []byte {
	call := writeGuard().
		op(geth.CALLDATASIZE).push1(0).push1(32).op(geth.CALLDATACOPY).
		op(geth.CALLER).push1(0).op(geth.MSTORE).
		push1(0).push1(0).op(geth.CALLDATASIZE).push1(32).op(geth.ADD).push1(0).push1(0).
		push20(TokenPrecompileAddress).op(geth.GAS, geth.CALL).
		op(geth.RETURNDATASIZE).push1(0).push1(0).op(geth.RETURNDATACOPY)
	fail := program{}.op(geth.RETURNDATASIZE).push1(0).op(geth.REVERT)
	success := program{}.op(geth.JUMPDEST, geth.RETURNDATASIZE).push1(0).op(geth.RETURN)

	label := len(call) + 3 + len(fail)
	return call.push1(byte(label)).op(geth.JUMPI).append(fail).append(success)
}

// TokenInitCode returns init code deploying a bridged token with the
// given metadata and mint authority.
func TokenInitCode(name, symbol string, decimals uint8, admin tosca.Address) ([]byte, error) {
	args, err := tokenABI.Pack("initialize", name, symbol, decimals, common.Address(admin))
	if err != nil {
		return nil, err
	}
	runtime := TokenRuntimeCode()

	// the initializer call, jumping to the copy of the runtime code on success
	initialize := func(label byte, argsOffset int) program {
		return program{}.
			push2(len(args)).push2(argsOffset).push1(32).op(geth.CODECOPY).
			push1(0).push1(0).push2(len(args)+32).push1(0).push1(0).
			push20(TokenPrecompileAddress).op(geth.GAS, geth.CALL).
			push1(label).op(geth.JUMPI)
	}
	fail := program{}.push1(0).op(geth.DUP1, geth.REVERT)
	deploy := func(runtimeOffset int) program {
		return program{}.op(geth.JUMPDEST).
			push1(byte(len(runtime))).op(geth.DUP1).push2(runtimeOffset).push1(0).op(geth.CODECOPY).
			push1(0).op(geth.RETURN)
	}

	// instruction sizes do not depend on the operands
	label := len(initialize(0, 0)) + len(fail)
	runtimeOffset := label + len(deploy(0))
	code := initialize(byte(label), runtimeOffset+len(runtime)).
		append(fail).
		append(deploy(runtimeOffset)).
		append(runtime).
		append(args)
	return code, nil
}

type program []byte

func (p program) op(ops ...geth.OpCode) program {
	for _, op := range ops {
		p = append(p, byte(op))
	}
	return p
}

func (p program) append(code []byte) program {
	return append(p, code...)
}

func (p program) push1(v byte) program {
	return append(p, byte(geth.PUSH1), v)
}

func (p program) push2(v int) program {
	return append(p, byte(geth.PUSH2), byte(v>>8), byte(v))
}

func (p program) push4(v []byte) program {
	return append(append(p, byte(geth.PUSH4)), v[:4]...)
}

func (p program) push20(addr common.Address) program {
	return append(append(p, byte(geth.PUSH20)), addr.Bytes()...)
}
