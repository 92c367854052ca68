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

import "testing"

func TestRevisions_String(t *testing.T) {
	tests := map[Revision]string{
		R09_Berlin:   "Berlin",
		R10_London:   "London",
		Revision(42): "Revision(42)",
	}
	for revision, want := range tests {
		if got := revision.String(); got != want {
			t.Errorf("unexpected name, wanted %s, got %s", want, got)
		}
	}
}
