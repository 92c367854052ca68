// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package connector implements the bridge of ETH between the counterpart
// chain, the host and the EVM. Bridged ETH is a fungible token on the
// host; the part of its supply held by the engine account backs the ETH
// balances inside the EVM.
package connector

import (
	"fmt"
	"math/big"

	"github.com/Fantom-foundation/hosted-evm/go/host"
	"github.com/Fantom-foundation/hosted-evm/go/parameters"
	"github.com/Fantom-foundation/hosted-evm/go/state"
	"github.com/Fantom-foundation/hosted-evm/go/storage"
	"github.com/Fantom-foundation/hosted-evm/go/tosca"
	"github.com/ethereum/go-ethereum/log"
)

const (
	ErrNotInitialized       = tosca.ConstError("ERR_CONNECTOR_NOT_INITIALIZED")
	ErrAlreadyInitialized   = tosca.ConstError("ERR_CONTRACT_INITIALIZED")
	ErrPaused               = tosca.ConstError("ERR_PAUSED")
	ErrNotEnoughBalance     = tosca.ConstError("ERR_NOT_ENOUGH_BALANCE")
	ErrAccountNotRegistered = tosca.ConstError("ERR_ACCOUNT_NOT_REGISTERED")
	ErrZeroAmount           = tosca.ConstError("ERR_ZERO_AMOUNT")
	ErrSupplyOverflow       = tosca.ConstError("ERR_TOTAL_SUPPLY_OVERFLOW")
	ErrInvalidAddress       = tosca.ConstError("ERR_INVALID_ETH_ADDRESS")
)

// Pause flags.
const (
	PauseDeposit  uint8 = 1 << 0
	PauseWithdraw uint8 = 1 << 1
)

// keys within the EthConnector table
var (
	contractKey = []byte("CONTRACT")
	supplyKey   = []byte("FT")
	balanceKey  = []byte("BALANCE:")
	proofKey    = []byte("PROOF:")
)

var maxU128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// contractData is the persistent configuration of the connector.
type contractData struct {
	ProverAccount       string
	EthCustodianAddress tosca.Address
}

// supply tracks the bridged ETH on the host and the part of it moved
// into the EVM.
type supply struct {
	TotalEthSupplyOnNear   big.Int
	TotalEthSupplyOnAurora big.Int
	AccountsCounter        uint64
}

type balanceEntry struct {
	Amount big.Int
}

// Connector operates on the connector state of a single invocation.
type Connector struct {
	runtime  host.Runtime
	store    *storage.Store
	accounts *state.Accounts
	relayers *state.Relayers
	data     contractData
	log      log.Logger
}

// Init sets up the connector. It fails if the connector has been set up
// before.
func Init(runtime host.Runtime, args parameters.InitCallArgs) error {
	store := storage.New(runtime)
	if store.Has(storage.PrefixEthConnector, contractKey) {
		return ErrAlreadyInitialized
	}
	if err := writeContractData(store, args.ProverAccount, args.EthCustodianAddress, args.Metadata); err != nil {
		return err
	}
	if err := store.WriteBorsh(storage.PrefixEthConnector, supplyKey, supply{}); err != nil {
		return err
	}
	store.Write(storage.PrefixPausedMask, nil, []byte{0})
	return nil
}

// SetContractData replaces the prover, the custodian and the metadata.
func SetContractData(runtime host.Runtime, args parameters.SetContractDataCallArgs) error {
	return writeContractData(storage.New(runtime), args.ProverAccount, args.EthCustodianAddress, args.Metadata)
}

func writeContractData(store *storage.Store, prover, custodian string, metadata parameters.FungibleTokenMetadata) error {
	if err := host.AccountID(prover).Validate(); err != nil {
		return err
	}
	address, err := parseAddress(custodian)
	if err != nil {
		return err
	}
	data := contractData{ProverAccount: prover, EthCustodianAddress: address}
	if err := store.WriteBorsh(storage.PrefixEthConnector, contractKey, data); err != nil {
		return err
	}
	return store.WriteBorsh(storage.PrefixMetadata, nil, metadata)
}

// New loads the connector configuration.
func New(runtime host.Runtime) (*Connector, error) {
	store := storage.New(runtime)
	var data contractData
	found, err := store.ReadBorsh(storage.PrefixEthConnector, contractKey, &data)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotInitialized
	}
	return &Connector{
		runtime:  runtime,
		store:    store,
		accounts: state.NewAccounts(store),
		relayers: state.NewRelayers(store),
		data:     data,
		log:      log.New("module", "connector"),
	}, nil
}

// Metadata returns the token metadata, or the default metadata if none
// has been set.
func Metadata(store *storage.Store) (parameters.FungibleTokenMetadata, error) {
	var res parameters.FungibleTokenMetadata
	found, err := store.ReadBorsh(storage.PrefixMetadata, nil, &res)
	if err != nil {
		return parameters.FungibleTokenMetadata{}, err
	}
	if !found {
		return parameters.DefaultMetadata(), nil
	}
	return res, nil
}

// PausedFlags returns the current pause mask.
func PausedFlags(store *storage.Store) uint8 {
	data, found := store.Read(storage.PrefixPausedMask, nil)
	if !found || len(data) != 1 {
		return 0
	}
	return data[0]
}

func SetPausedFlags(store *storage.Store, mask uint8) {
	store.Write(storage.PrefixPausedMask, nil, []byte{mask})
}

func (c *Connector) checkNotPaused(flag uint8) error {
	if PausedFlags(c.store)&flag != 0 {
		return fmt.Errorf("%w: mask %d", ErrPaused, flag)
	}
	return nil
}

func (c *Connector) self() host.AccountID {
	return c.runtime.CurrentAccountID()
}

func (c *Connector) supply() (supply, error) {
	var res supply
	if _, err := c.store.ReadBorsh(storage.PrefixEthConnector, supplyKey, &res); err != nil {
		return supply{}, err
	}
	return res, nil
}

func (c *Connector) setSupply(s supply) error {
	return c.store.WriteBorsh(storage.PrefixEthConnector, supplyKey, s)
}

func accountKey(account host.AccountID) []byte {
	return append(append([]byte{}, balanceKey...), account...)
}

// balance returns the host balance of an account and whether the account
// is registered.
func (c *Connector) balance(account host.AccountID) (*big.Int, bool, error) {
	var entry balanceEntry
	found, err := c.store.ReadBorsh(storage.PrefixEthConnector, accountKey(account), &entry)
	if err != nil {
		return nil, false, err
	}
	return &entry.Amount, found, nil
}

func (c *Connector) setBalance(account host.AccountID, amount *big.Int) error {
	var entry balanceEntry
	entry.Amount.Set(amount)
	return c.store.WriteBorsh(storage.PrefixEthConnector, accountKey(account), entry)
}

// register adds an account with a zero balance. Registering a registered
// account has no effect.
func (c *Connector) register(account host.AccountID) error {
	if _, found, err := c.balance(account); err != nil || found {
		return err
	}
	s, err := c.supply()
	if err != nil {
		return err
	}
	s.AccountsCounter++
	if err := c.setSupply(s); err != nil {
		return err
	}
	return c.setBalance(account, new(big.Int))
}

func (c *Connector) unregister(account host.AccountID) error {
	s, err := c.supply()
	if err != nil {
		return err
	}
	if s.AccountsCounter > 0 {
		s.AccountsCounter--
	}
	if err := c.setSupply(s); err != nil {
		return err
	}
	c.store.Remove(storage.PrefixEthConnector, accountKey(account))
	return nil
}

// deposit mints amount to the account on the host.
func (c *Connector) deposit(account host.AccountID, amount *big.Int) error {
	if err := c.register(account); err != nil {
		return err
	}
	balance, _, err := c.balance(account)
	if err != nil {
		return err
	}
	s, err := c.supply()
	if err != nil {
		return err
	}
	if err := add(&s.TotalEthSupplyOnNear, amount); err != nil {
		return err
	}
	if err := add(balance, amount); err != nil {
		return err
	}
	if err := c.setSupply(s); err != nil {
		return err
	}
	return c.setBalance(account, balance)
}

// withdraw burns amount from the host balance of account.
func (c *Connector) withdraw(account host.AccountID, amount *big.Int) error {
	balance, found, err := c.balance(account)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrAccountNotRegistered, account)
	}
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s has %v, needs %v", ErrNotEnoughBalance, account, balance, amount)
	}
	s, err := c.supply()
	if err != nil {
		return err
	}
	if s.TotalEthSupplyOnNear.Cmp(amount) < 0 {
		return fmt.Errorf("%w: total supply below %v", ErrNotEnoughBalance, amount)
	}
	s.TotalEthSupplyOnNear.Sub(&s.TotalEthSupplyOnNear, amount)
	if err := c.setSupply(s); err != nil {
		return err
	}
	return c.setBalance(account, balance.Sub(balance, amount))
}

// adjustEvmSupply records ETH moved into (positive delta) or out of
// (negative delta) the EVM.
func (c *Connector) adjustEvmSupply(delta *big.Int) error {
	s, err := c.supply()
	if err != nil {
		return err
	}
	if err := add(&s.TotalEthSupplyOnAurora, delta); err != nil {
		return err
	}
	return c.setSupply(s)
}

// creditEvm adds amount to the ETH balance of an EVM address.
func (c *Connector) creditEvm(address tosca.Address, amount *big.Int) error {
	value, err := toValue(amount)
	if err != nil {
		return err
	}
	balance, overflow := tosca.AddChecked(c.accounts.Balance(address), value)
	if overflow {
		return fmt.Errorf("%w: balance of %v", ErrSupplyOverflow, address)
	}
	c.accounts.SetBalance(address, balance)
	return nil
}

// add sets target to target + delta, keeping it within u128.
func add(target *big.Int, delta *big.Int) error {
	res := new(big.Int).Add(target, delta)
	if res.Sign() < 0 || res.Cmp(maxU128) > 0 {
		return fmt.Errorf("%w: %v + %v", ErrSupplyOverflow, target, delta)
	}
	target.Set(res)
	return nil
}

func toValue(amount *big.Int) (tosca.Value, error) {
	if amount.Sign() < 0 || amount.BitLen() > 256 {
		return tosca.Value{}, fmt.Errorf("%w: %v", ErrSupplyOverflow, amount)
	}
	var res tosca.Value
	amount.FillBytes(res[:])
	return res, nil
}
