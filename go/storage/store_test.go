// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package storage

import (
	"bytes"
	"errors"
	"testing"

	"github.com/Fantom-foundation/hosted-evm/go/host"
	"github.com/Fantom-foundation/hosted-evm/go/host/memhost"
	"github.com/Fantom-foundation/hosted-evm/go/tosca"
	"go.uber.org/mock/gomock"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	h, err := memhost.NewInMemory(memhost.Config{AccountID: "evm.test"})
	if err != nil {
		t.Fatalf("failed to create host: %v", err)
	}
	t.Cleanup(func() { h.Close() })
	return New(h.Begin(memhost.Call{}))
}

func TestKey_StartsWithPrefix(t *testing.T) {
	for prefix := PrefixConfig; prefix <= PrefixPausedMask; prefix++ {
		key := Key(prefix, []byte("body"))
		if key[0] != byte(prefix) || string(key[1:]) != "body" {
			t.Errorf("unexpected key for %v: %x", prefix, key)
		}
	}
}

func TestSlotKey_Layout(t *testing.T) {
	address := tosca.Address{1, 2, 3}
	slot := tosca.Key{31: 9}
	key := SlotKey(address, 0x01020304, slot)
	if want, got := 1+20+4+32, len(key); want != got {
		t.Fatalf("unexpected key length, wanted %d, got %d", want, got)
	}
	if key[0] != byte(PrefixStorage) {
		t.Errorf("unexpected prefix %x", key[0])
	}
	if !bytes.Equal(key[1:21], address[:]) {
		t.Errorf("unexpected address part %x", key[1:21])
	}
	if !bytes.Equal(key[21:25], []byte{1, 2, 3, 4}) {
		t.Errorf("generation is not big-endian: %x", key[21:25])
	}
	if !bytes.Equal(key[25:], slot[:]) {
		t.Errorf("unexpected slot part %x", key[25:])
	}
}

func TestSlotKey_GenerationsDoNotCollide(t *testing.T) {
	address := tosca.Address{1}
	if bytes.Equal(SlotKey(address, 0, tosca.Key{}), SlotKey(address, 1, tosca.Key{})) {
		t.Errorf("keys of different generations collide")
	}
}

func TestStore_U64RoundTripIsLittleEndian(t *testing.T) {
	store := newTestStore(t)
	store.WriteU64(PrefixConfig, []byte("n"), 0x0102)
	raw, found := store.Read(PrefixConfig, []byte("n"))
	if !found || !bytes.Equal(raw, []byte{2, 1, 0, 0, 0, 0, 0, 0}) {
		t.Errorf("unexpected encoding %x", raw)
	}
	value, err := store.ReadU64(PrefixConfig, []byte("n"))
	if err != nil || value != 0x0102 {
		t.Errorf("unexpected value %d, err %v", value, err)
	}
}

func TestStore_ReadU64Errors(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.ReadU64(PrefixConfig, []byte("missing")); !errors.Is(err, ErrMissing) {
		t.Errorf("expected ErrMissing, got %v", err)
	}
	store.Write(PrefixConfig, []byte("short"), []byte{1, 2, 3})
	if _, err := store.ReadU64(PrefixConfig, []byte("short")); !errors.Is(err, ErrInvalidEncoding) {
		t.Errorf("expected ErrInvalidEncoding, got %v", err)
	}
}

func TestStore_BorshRoundTrip(t *testing.T) {
	type record struct {
		Name  string
		Count uint64
	}
	store := newTestStore(t)
	if err := store.WriteBorsh(PrefixMetadata, []byte("r"), record{Name: "x", Count: 3}); err != nil {
		t.Fatalf("failed to write: %v", err)
	}
	var restored record
	found, err := store.ReadBorsh(PrefixMetadata, []byte("r"), &restored)
	if err != nil || !found {
		t.Fatalf("failed to read: %v, %t", err, found)
	}
	if restored.Name != "x" || restored.Count != 3 {
		t.Errorf("unexpected record %+v", restored)
	}
	found, err = store.ReadBorsh(PrefixMetadata, []byte("other"), &restored)
	if err != nil || found {
		t.Errorf("missing key reported as found: %t, %v", found, err)
	}
}

func TestStore_RemoveDeletesKey(t *testing.T) {
	store := newTestStore(t)
	store.Write(PrefixBalance, []byte{1}, []byte{2})
	if !store.Has(PrefixBalance, []byte{1}) {
		t.Fatalf("written key is missing")
	}
	store.Remove(PrefixBalance, []byte{1})
	if store.Has(PrefixBalance, []byte{1}) {
		t.Errorf("removed key is still present")
	}
}

func TestStore_ForwardsToIO(t *testing.T) {
	ctrl := gomock.NewController(t)
	io := host.NewMockIO(ctrl)
	io.EXPECT().ReadInput().Return([]byte("input"))
	io.EXPECT().WriteStorage([]byte{byte(PrefixNonce), 7}, []byte{1})

	store := New(io)
	if got := string(store.ReadInput()); got != "input" {
		t.Errorf("unexpected input %q", got)
	}
	store.Write(PrefixNonce, []byte{7}, []byte{1})
}

func TestKeyPrefix_String(t *testing.T) {
	if want, got := "Storage", PrefixStorage.String(); want != got {
		t.Errorf("wanted %q, got %q", want, got)
	}
	if want, got := "KeyPrefix(99)", KeyPrefix(99).String(); want != got {
		t.Errorf("wanted %q, got %q", want, got)
	}
}

func TestDecodeBorsh_TruncatedInputFails(t *testing.T) {
	var target struct {
		Data []byte
	}
	if err := DecodeBorsh([]byte{0xff, 0xff, 0xff, 0x7f}, &target); !errors.Is(err, ErrDeserialize) {
		t.Errorf("expected ErrDeserialize, got %v", err)
	}
}
