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

import "fmt"

// Revision selects the set of EVM rules an executor applies.
type Revision int

const (
	R09_Berlin Revision = iota
	R10_London
)

func (r Revision) String() string {
	switch r {
	case R09_Berlin:
		return "Berlin"
	case R10_London:
		return "London"
	}
	return fmt.Sprintf("Revision(%d)", r)
}
