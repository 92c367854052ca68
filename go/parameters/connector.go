// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package parameters

import (
	"math/big"

	"github.com/Fantom-foundation/hosted-evm/go/tosca"
)

// FungibleTokenMetadata describes the bridged token.
type FungibleTokenMetadata struct {
	Spec          string
	Name          string
	Symbol        string
	Icon          *string
	Reference     *string
	ReferenceHash *[32]byte
	Decimals      uint8
}

// DefaultMetadata is reported before any metadata has been set.
func DefaultMetadata() FungibleTokenMetadata {
	return FungibleTokenMetadata{
		Spec:     "ft-1.0.0",
		Name:     "Ether",
		Symbol:   "ETH",
		Decimals: 18,
	}
}

// InitCallArgs initializes the ETH connector.
type InitCallArgs struct {
	ProverAccount       string
	EthCustodianAddress string
	Metadata            FungibleTokenMetadata
}

// SetContractDataCallArgs replaces the ETH connector configuration.
type SetContractDataCallArgs struct {
	ProverAccount       string
	EthCustodianAddress string
	Metadata            FungibleTokenMetadata
}

// Proof is a proof of a log entry emitted by the custodian contract on the
// counterpart chain.
type Proof struct {
	LogIndex     uint64
	LogEntryData []byte
	ReceiptIndex uint64
	ReceiptData  []byte
	HeaderData   []byte
	Proof        [][]byte
}

type IsUsedProofCallArgs struct {
	Proof Proof
}

// FinishDepositCallArgs is passed from deposit to its callback. An empty
// EvmRecipient denotes a deposit to the host account NewOwnerID.
type FinishDepositCallArgs struct {
	NewOwnerID   string
	EvmRecipient []byte
	Amount       big.Int
	ProofKey     string
	RelayerID    string
	Fee          big.Int
}

// WithdrawCallArgs burns bridged ETH for release on the counterpart chain.
type WithdrawCallArgs struct {
	RecipientAddress tosca.Address
	Amount           big.Int
}

// WithdrawResult is the provable record of a withdrawal.
type WithdrawResult struct {
	Amount              big.Int
	RecipientID         tosca.Address
	EthCustodianAddress tosca.Address
}

type BalanceOfEthCallArgs struct {
	Address tosca.Address
}

// PauseEthConnectorCallArgs sets the paused mask of the connector.
type PauseEthConnectorCallArgs struct {
	PausedMask uint8
}
