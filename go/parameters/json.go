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
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/Fantom-foundation/hosted-evm/go/tosca"
)

const ErrJSONParse = tosca.ConstError("ERR_FAILED_PARSE")

var maxU128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// U128 is an unsigned 128-bit integer. It is encoded in JSON as a decimal
// string; plain JSON numbers are accepted when decoding.
type U128 struct {
	value big.Int
}

func NewU128(v *big.Int) U128 {
	var res U128
	res.value.Set(v)
	return res
}

// Big returns a copy of the value.
func (u U128) Big() *big.Int {
	return new(big.Int).Set(&u.value)
}

func (u U128) String() string {
	return u.value.String()
}

func (u U128) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.value.String())
}

func (u *U128) UnmarshalJSON(data []byte) error {
	text := strings.Trim(string(data), `"`)
	value, ok := new(big.Int).SetString(text, 10)
	if !ok || value.Sign() < 0 || value.Cmp(maxU128) > 0 {
		return fmt.Errorf("%w: invalid u128 %s", ErrJSONParse, data)
	}
	u.value.Set(value)
	return nil
}

// DecodeJSON decodes a JSON argument. Unknown fields are rejected.
func DecodeJSON(data []byte, target any) error {
	decoder := json.NewDecoder(strings.NewReader(string(data)))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("%w: %v", ErrJSONParse, err)
	}
	return nil
}

// EncodeJSON encodes a JSON result.
func EncodeJSON(value any) []byte {
	data, err := json.Marshal(value)
	if err != nil {
		panic(fmt.Sprintf("failed to encode %T: %v", value, err))
	}
	return data
}

// FtOnTransferArgs is sent by a token contract after a transfer to the
// engine. Msg holds the hex encoded EVM recipient.
type FtOnTransferArgs struct {
	SenderID string `json:"sender_id"`
	Amount   U128   `json:"amount"`
	Msg      string `json:"msg"`
}

type TransferCallArgs struct {
	ReceiverID string `json:"receiver_id"`
	Amount     U128   `json:"amount"`
	Memo       string `json:"memo,omitempty"`
}

type TransferCallCallArgs struct {
	ReceiverID string `json:"receiver_id"`
	Amount     U128   `json:"amount"`
	Memo       string `json:"memo,omitempty"`
	Msg        string `json:"msg"`
}

// ResolveTransferCallArgs is the callback argument of ft_transfer_call.
type ResolveTransferCallArgs struct {
	SenderID   string `json:"sender_id"`
	Amount     U128   `json:"amount"`
	ReceiverID string `json:"receiver_id"`
}

type BalanceOfCallArgs struct {
	AccountID string `json:"account_id"`
}

type StorageDepositCallArgs struct {
	AccountID        *string `json:"account_id,omitempty"`
	RegistrationOnly *bool   `json:"registration_only,omitempty"`
}

type StorageWithdrawCallArgs struct {
	Amount *U128 `json:"amount,omitempty"`
}

type StorageUnregisterCallArgs struct {
	Force *bool `json:"force,omitempty"`
}

type StorageBalance struct {
	Total     U128 `json:"total"`
	Available U128 `json:"available"`
}

type StorageBalanceBounds struct {
	Min U128  `json:"min"`
	Max *U128 `json:"max"`
}

// MetadataJSON is the JSON rendering of FungibleTokenMetadata.
type MetadataJSON struct {
	Spec          string  `json:"spec"`
	Name          string  `json:"name"`
	Symbol        string  `json:"symbol"`
	Icon          *string `json:"icon"`
	Reference     *string `json:"reference"`
	ReferenceHash *string `json:"reference_hash"`
	Decimals      uint8   `json:"decimals"`
}

// JSON converts the metadata to its JSON rendering. Empty optional fields
// are reported as null.
func (m *FungibleTokenMetadata) JSON() MetadataJSON {
	res := MetadataJSON{
		Spec:     m.Spec,
		Name:     m.Name,
		Symbol:   m.Symbol,
		Decimals: m.Decimals,
	}
	if m.Icon != nil && *m.Icon != "" {
		icon := *m.Icon
		res.Icon = &icon
	}
	if m.Reference != nil && *m.Reference != "" {
		reference := *m.Reference
		res.Reference = &reference
	}
	if m.ReferenceHash != nil && *m.ReferenceHash != ([32]byte{}) {
		hash := fmt.Sprintf("%x", m.ReferenceHash[:])
		res.ReferenceHash = &hash
	}
	return res
}

// Erc20WithdrawCallArgs asks a bridged host token to release tokens on
// the counterpart chain. Recipient is a hex address without prefix.
type Erc20WithdrawCallArgs struct {
	Amount    U128   `json:"amount"`
	Recipient string `json:"recipient"`
}
