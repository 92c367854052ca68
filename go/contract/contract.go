// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package contract is the entry-point surface of the engine. The host
// invokes entry points by name; each entry point reads its input, runs the
// engine or the connector and returns its output. Errors abort the
// invocation with their ERR_ code, reverting all of its storage writes.
package contract

import (
	"encoding/binary"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/Fantom-foundation/hosted-evm/go/host"
	"github.com/Fantom-foundation/hosted-evm/go/tosca"
	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/exp/maps"
)

const (
	ErrUnknownMethod = tosca.ConstError("ERR_METHOD_NOT_FOUND")
	ErrInvalidInput  = tosca.ConstError("ERR_INVALID_INPUT")
	ErrInternal      = tosca.ConstError("ERR_INTERNAL")
)

// Version is reported by get_version.
const Version = "1.0.0"

// Config selects the optional entry points of the contract.
type Config struct {
	// Benchmarking enables begin_chain and begin_block.
	Benchmarking bool
}

// handler runs an entry point. A non-nil result becomes the output of the
// invocation.
type handler func(rt host.Runtime) ([]byte, error)

// Contract dispatches host invocations to entry points.
type Contract struct {
	config  Config
	methods map[string]handler
	log     log.Logger
}

func New(config Config) *Contract {
	c := &Contract{
		config:  config,
		methods: map[string]handler{},
		log:     log.New("module", "contract"),
	}
	c.registerAdmin()
	c.registerEngine()
	c.registerConnector()
	if config.Benchmarking {
		c.methods["begin_chain"] = beginChain
		c.methods["begin_block"] = beginBlock
	}
	return c
}

// Methods lists the names of all entry points in ascending order.
func (c *Contract) Methods() []string {
	names := maps.Keys(c.methods)
	slices.Sort(names)
	return names
}

// Dispatch runs the named entry point. It is the only place converting
// errors into host panics.
func (c *Contract) Dispatch(rt host.Runtime, method string) {
	run, found := c.methods[method]
	if !found {
		c.abort(rt, method, fmt.Errorf("%w: %s", ErrUnknownMethod, method))
		return
	}
	output, err := run(rt)
	if err != nil {
		c.abort(rt, method, err)
		return
	}
	if output != nil {
		rt.ReturnOutput(output)
	}
}

func (c *Contract) abort(rt host.Runtime, method string, err error) {
	code := ErrorCode(err)
	c.log.Debug("Entry point failed", "method", method, "code", code, "err", err)
	rt.PanicUTF8([]byte(code))
}

// ErrorCode returns the ERR_ code of an error: the outermost error code in
// its chain, or ERR_INTERNAL if it has none.
func ErrorCode(err error) string {
	var code tosca.ConstError
	if errors.As(err, &code) && strings.HasPrefix(string(code), "ERR_") {
		return string(code)
	}
	return string(ErrInternal)
}

func readAddress(rt host.Runtime) (tosca.Address, error) {
	input := rt.ReadInput()
	if len(input) != len(tosca.Address{}) {
		return tosca.Address{}, fmt.Errorf("%w: expected an address, got %d bytes", ErrInvalidInput, len(input))
	}
	return tosca.Address(input), nil
}

func readU64(rt host.Runtime) (uint64, error) {
	input := rt.ReadInput()
	if len(input) != 8 {
		return 0, fmt.Errorf("%w: expected a u64, got %d bytes", ErrInvalidInput, len(input))
	}
	return binary.LittleEndian.Uint64(input), nil
}

func encodeBool(value bool) []byte {
	if value {
		return []byte{1}
	}
	return []byte{0}
}
