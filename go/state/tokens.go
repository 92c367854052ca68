// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package state

import (
	"fmt"

	"github.com/Fantom-foundation/hosted-evm/go/host"
	"github.com/Fantom-foundation/hosted-evm/go/storage"
	"github.com/Fantom-foundation/hosted-evm/go/tosca"
)

const (
	ErrAlreadyRegistered = tosca.ConstError("ERR_ALREADY_REGISTERED")
	ErrErc20NotFound     = tosca.ConstError("ERR_ERC20_NOT_FOUND")
	ErrNep141NotFound    = tosca.ConstError("ERR_NEP141_NOT_FOUND")
)

// TokenMap is the bidirectional association between host fungible tokens
// and the ERC-20 contracts mirroring them.
type TokenMap struct {
	store *storage.Store
}

func NewTokenMap(store *storage.Store) *TokenMap {
	return &TokenMap{store: store}
}

// Register inserts a new association. Neither side may be registered yet.
func (m *TokenMap) Register(nep141 host.AccountID, erc20 tosca.Address) error {
	if m.store.Has(storage.PrefixNep141Erc20, []byte(nep141)) {
		return fmt.Errorf("%w: token %s", ErrAlreadyRegistered, nep141)
	}
	if m.store.Has(storage.PrefixErc20Nep141, erc20[:]) {
		return fmt.Errorf("%w: contract %v", ErrAlreadyRegistered, erc20)
	}
	m.store.Write(storage.PrefixNep141Erc20, []byte(nep141), erc20[:])
	m.store.Write(storage.PrefixErc20Nep141, erc20[:], []byte(nep141))
	return nil
}

// Erc20 returns the contract mirroring the given host token.
func (m *TokenMap) Erc20(nep141 host.AccountID) (tosca.Address, error) {
	data, found := m.store.Read(storage.PrefixNep141Erc20, []byte(nep141))
	if !found || len(data) != len(tosca.Address{}) {
		return tosca.Address{}, fmt.Errorf("%w: %s", ErrErc20NotFound, nep141)
	}
	return tosca.Address(data), nil
}

// Nep141 returns the host token mirrored by the given contract.
func (m *TokenMap) Nep141(erc20 tosca.Address) (host.AccountID, error) {
	data, found := m.store.Read(storage.PrefixErc20Nep141, erc20[:])
	if !found {
		return "", fmt.Errorf("%w: %v", ErrNep141NotFound, erc20)
	}
	return host.AccountID(data), nil
}

// Relayers stores the EVM addresses relayers registered for their fees.
type Relayers struct {
	store *storage.Store
}

func NewRelayers(store *storage.Store) *Relayers {
	return &Relayers{store: store}
}

func (r *Relayers) Register(relayer host.AccountID, address tosca.Address) {
	r.store.Write(storage.PrefixRelayerEvmAddress, []byte(relayer), address[:])
}

// Address returns the fee address of the relayer. Relayers that did not
// register an address are paid at the address derived from their account.
func (r *Relayers) Address(relayer host.AccountID) tosca.Address {
	data, found := r.store.Read(storage.PrefixRelayerEvmAddress, []byte(relayer))
	if found && len(data) == len(tosca.Address{}) {
		return tosca.Address(data)
	}
	return AddressFromAccountID(relayer)
}
