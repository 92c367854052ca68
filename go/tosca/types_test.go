// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package tosca

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/holiman/uint256"
)

func TestAddress_JSON_RoundTrip(t *testing.T) {
	tests := []struct {
		address Address
		json    string
	}{
		{Address{}, "\"0x0000000000000000000000000000000000000000\""},
		{Address{0xAB}, "\"0xab00000000000000000000000000000000000000\""},
		{
			Address{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19},
			"\"0x000102030405060708090a0b0c0d0e0f10111213\"",
		},
	}

	for _, test := range tests {
		encoded, err := json.Marshal(test.address)
		if err != nil {
			t.Fatalf("failed to encode into JSON: %v", err)
		}
		if want, got := test.json, string(encoded); want != got {
			t.Errorf("unexpected JSON encoding, wanted %v, got %v", want, got)
		}
		var restored Address
		if err := json.Unmarshal(encoded, &restored); err != nil {
			t.Fatalf("failed to restore address: %v", err)
		}
		if test.address != restored {
			t.Errorf("unexpected restored value, wanted %v, got %v", test.address, restored)
		}
	}
}

func TestAddress_JSON_InvalidValueDecodingFails(t *testing.T) {
	tests := map[string]string{
		"empty":         "\"\"",
		"no hex prefix": "\"0000000000000000000000000000000000000000\"",
		"too short":     "\"0x00000000000000000000000000000000000000\"",
		"too long":      "\"0x000000000000000000000000000000000000000000\"",
		"invalid hex":   "\"0x0g00000000000000000000000000000000000000\"",
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			var address Address
			if json.Unmarshal([]byte(data), &address) == nil {
				t.Errorf("expected decoding to fail, but instead it produced %v", address)
			}
		})
	}
}

func TestValue_StringProducesDecimalPrint(t *testing.T) {
	tests := map[Value]string{
		NewValue(0):              "0",
		NewValue(21000):          "21000",
		NewValue(1, 0):           "18446744073709551616",
		NewValue(math.MaxUint64): "18446744073709551615",
	}
	for value, want := range tests {
		if got := value.String(); want != got {
			t.Errorf("unexpected print, wanted %s, got %s", want, got)
		}
	}
}

func TestValue_Uint256RoundTrip(t *testing.T) {
	for _, value := range []Value{NewValue(), NewValue(1), NewValue(1, 2, 3, 4)} {
		if got := ValueFromUint256(value.ToUint256()); got != value {
			t.Errorf("unexpected round trip result, wanted %v, got %v", value, got)
		}
	}
	if got := ValueFromUint256(nil); !got.IsZero() {
		t.Errorf("nil should convert to zero, got %v", got)
	}
}

func TestValue_Arithmetic(t *testing.T) {
	max := ValueFromUint256(new(uint256.Int).SetAllOne())
	tests := []struct {
		a, b, sum, diff Value
	}{
		{NewValue(0), NewValue(0), NewValue(0), NewValue(0)},
		{NewValue(5), NewValue(3), NewValue(8), NewValue(2)},
		{NewValue(math.MaxUint64), NewValue(1), NewValue(1, 0), NewValue(math.MaxUint64 - 1)},
		{max, NewValue(1), NewValue(0), Sub(max, NewValue(1))},
	}
	for _, test := range tests {
		if got := Add(test.a, test.b); got != test.sum {
			t.Errorf("%v + %v: wanted %v, got %v", test.a, test.b, test.sum, got)
		}
		if got := Sub(test.a, test.b); got != test.diff {
			t.Errorf("%v - %v: wanted %v, got %v", test.a, test.b, test.diff, got)
		}
	}
}

func TestValue_CheckedArithmeticReportsOverflow(t *testing.T) {
	max := ValueFromUint256(new(uint256.Int).SetAllOne())

	if _, overflow := AddChecked(max, NewValue(1)); !overflow {
		t.Errorf("expected addition to overflow")
	}
	if sum, overflow := AddChecked(NewValue(1), NewValue(2)); overflow || sum != NewValue(3) {
		t.Errorf("unexpected sum %v, overflow %t", sum, overflow)
	}
	if _, underflow := SubChecked(NewValue(1), NewValue(2)); !underflow {
		t.Errorf("expected subtraction to underflow")
	}
	if _, overflow := max.ScaleChecked(2); !overflow {
		t.Errorf("expected scaling to overflow")
	}
	if product, overflow := NewValue(21000).ScaleChecked(3); overflow || product != NewValue(63000) {
		t.Errorf("unexpected product %v, overflow %t", product, overflow)
	}
}

func TestValue_Comparison(t *testing.T) {
	if NewValue(1).Cmp(NewValue(2)) >= 0 {
		t.Errorf("1 should be less than 2")
	}
	if NewValue(1, 0).Cmp(NewValue(math.MaxUint64)) <= 0 {
		t.Errorf("2^64 should be greater than 2^64-1")
	}
	if NewValue(7).Cmp(NewValue(7)) != 0 {
		t.Errorf("equal values should compare equal")
	}
}
