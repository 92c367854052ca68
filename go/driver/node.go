// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/Fantom-foundation/hosted-evm/go/contract"
	"github.com/Fantom-foundation/hosted-evm/go/host"
	"github.com/Fantom-foundation/hosted-evm/go/host/memhost"
	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
)

// node is a host backed by a LevelDB database running the contract.
type node struct {
	config  Config
	host    *memhost.Host
	closers []io.Closer
}

func openNode(cfg Config, height uint64) (*node, error) {
	logs, err := setupLogging(cfg)
	if err != nil {
		return nil, err
	}
	n := &node{config: cfg, closers: []io.Closer{logs}}

	registry := prometheus.NewRegistry()
	h, err := memhost.Open(cfg.DatabasePath(), memhost.Config{
		AccountID:   host.AccountID(cfg.AccountID),
		BlockHeight: height,
		Registerer:  registry,
	})
	if err != nil {
		n.Close()
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.DatabasePath(), err)
	}
	n.host = h
	n.closers = append(n.closers, h)
	h.SetContract(contract.New(contract.Config{Benchmarking: cfg.Benchmarking}).Dispatch)

	if cfg.MetricsAddr != "" {
		n.closers = append(n.closers, startMetrics(cfg.MetricsAddr, registry))
	}
	log.Debug("Opened host", "account", cfg.AccountID, "datadir", cfg.DataDir, "height", height)
	return n, nil
}

// Close releases resources in reverse order of acquisition.
func (n *node) Close() error {
	var errs []error
	for i := len(n.closers) - 1; i >= 0; i-- {
		errs = append(errs, n.closers[i].Close())
	}
	n.closers = nil
	return errors.Join(errs...)
}

// execute runs an entry point and all promises it schedules.
func (n *node) execute(predecessor host.AccountID, method string, input []byte, deposit *big.Int) ([]memhost.Outcome, error) {
	if predecessor == "" {
		predecessor = host.AccountID(n.config.Owner)
	}
	return n.host.Execute(memhost.Call{
		Method:      method,
		Input:       input,
		Predecessor: predecessor,
		Deposit:     deposit,
	})
}

// call runs a single entry point and fails if it aborts.
func (n *node) call(predecessor host.AccountID, method string, input []byte) ([]byte, error) {
	if predecessor == "" {
		predecessor = host.AccountID(n.config.Owner)
	}
	outcome, err := n.host.Call(memhost.Call{Method: method, Input: input, Predecessor: predecessor})
	if err != nil {
		return nil, err
	}
	if outcome.Aborted {
		return nil, fmt.Errorf("%s aborted: %s", method, outcome.Panic)
	}
	return outcome.Output, nil
}
