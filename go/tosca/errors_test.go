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
	"errors"
	"fmt"
	"testing"
)

func TestConstError_MatchesWrappedOccurrences(t *testing.T) {
	const myError = ConstError("this is a constant error")

	if myError.Error() != "this is a constant error" {
		t.Errorf("unexpected message: %q", myError.Error())
	}
	wrapped := fmt.Errorf("context: %w", myError)
	if !errors.Is(wrapped, ConstError("this is a constant error")) {
		t.Errorf("expected wrapped error to match")
	}
}

func TestGetStorageStatus_ClassifiesTransitions(t *testing.T) {
	x, y, z := Word{1}, Word{2}, Word{3}
	zero := Word{}
	tests := []struct {
		original, current, new Word
		want                   StorageStatus
	}{
		{zero, zero, zero, StorageAssigned},
		{zero, zero, z, StorageAdded},
		{x, x, zero, StorageDeleted},
		{x, x, z, StorageModified},
		{x, zero, z, StorageDeletedAdded},
		{x, y, zero, StorageModifiedDeleted},
		{x, zero, x, StorageDeletedRestored},
		{zero, y, zero, StorageAddedDeleted},
		{x, y, x, StorageModifiedRestored},
		{x, y, z, StorageAssigned},
		{zero, y, z, StorageAssigned},
	}
	for _, test := range tests {
		got := GetStorageStatus(test.original, test.current, test.new)
		if got != test.want {
			t.Errorf("%v -> %v -> %v: wanted %v, got %v", test.original, test.current, test.new, test.want, got)
		}
	}
}
