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
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	cliUtils "github.com/Fantom-foundation/hosted-evm/go/driver/cli"
	"github.com/Fantom-foundation/hosted-evm/go/host"
	"github.com/Fantom-foundation/hosted-evm/go/host/memhost"
	"github.com/Fantom-foundation/hosted-evm/go/parameters"
	"github.com/Fantom-foundation/hosted-evm/go/tosca"
	"github.com/Fantom-foundation/hosted-evm/go/transaction"
	"github.com/dsnet/golib/unitconv"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/urfave/cli/v2"
)

var InitCmd = cliUtils.AddCommonFlags(cli.Command{
	Action: doInit,
	Name:   "init",
	Usage:  "Initialize the engine state from the configuration",
})

var CallCmd = cliUtils.AddCommonFlags(cli.Command{
	Action:    doCall,
	Name:      "call",
	Usage:     "Invoke an entry point and resolve the promises it schedules",
	ArgsUsage: "<method> [input]",
	Description: "The input is decoded as hex if prefixed with 0x and passed verbatim " +
		"otherwise, which suits JSON arguments.",
	Flags: []cli.Flag{
		cliUtils.PredecessorFlag,
		cliUtils.DepositFlag,
	},
})

var SubmitCmd = cliUtils.AddCommonFlags(cli.Command{
	Action:    doSubmit,
	Name:      "submit",
	Usage:     "Relay a signed Ethereum transaction",
	ArgsUsage: "<raw transaction hex>",
	Flags: []cli.Flag{
		cliUtils.PredecessorFlag,
	},
})

var BenchCmd = cliUtils.AddCommonFlags(cli.Command{
	Action: doBench,
	Name:   "bench",
	Usage:  "Measure the throughput of value transfers, requires Benchmarking",
	Flags: []cli.Flag{
		cliUtils.CountFlag,
	},
})

// withNode loads the configuration and opens the node for an action.
func withNode(ctx *cli.Context, action func(*cli.Context, *node) error) error {
	cfg, err := LoadConfig(cliUtils.ConfigFlag.Fetch(ctx))
	if err != nil {
		return err
	}
	if dir, set := cliUtils.DataDirFlag.Fetch(ctx); set {
		cfg.DataDir = dir
	}
	n, err := openNode(cfg, cliUtils.HeightFlag.Fetch(ctx))
	if err != nil {
		return err
	}
	err = action(ctx, n)
	return errors.Join(err, n.Close())
}

func doInit(ctx *cli.Context) error {
	return withNode(ctx, func(_ *cli.Context, n *node) error {
		args, err := parameters.Encode(parameters.NewCallArgs{
			ChainID:            n.config.ChainIDWord(),
			OwnerID:            n.config.Owner,
			BridgeProverID:     n.config.BridgeProver,
			UpgradeDelayBlocks: n.config.UpgradeDelayBlocks,
		})
		if err != nil {
			return err
		}
		if _, err := n.call("", "new", args); err != nil {
			return err
		}
		fmt.Printf("Initialized %s with chain id %d\n", n.config.AccountID, n.config.ChainID)
		return nil
	})
}

func parseInput(text string) ([]byte, error) {
	if strings.HasPrefix(text, "0x") {
		return hex.DecodeString(text[2:])
	}
	return []byte(text), nil
}

func doCall(ctx *cli.Context) error {
	if ctx.Args().Len() < 1 || ctx.Args().Len() > 2 {
		return fmt.Errorf("expected a method and an optional input")
	}
	input, err := parseInput(ctx.Args().Get(1))
	if err != nil {
		return fmt.Errorf("invalid input: %w", err)
	}
	deposit, err := cliUtils.DepositFlag.Fetch(ctx)
	if err != nil {
		return err
	}
	return withNode(ctx, func(ctx *cli.Context, n *node) error {
		predecessor := host.AccountID(cliUtils.PredecessorFlag.Fetch(ctx))
		outcomes, err := n.execute(predecessor, ctx.Args().First(), input, deposit)
		if err != nil {
			return err
		}
		for _, outcome := range outcomes {
			printOutcome(outcome)
		}
		if outcomes[0].Aborted {
			return fmt.Errorf("%s aborted", outcomes[0].Method)
		}
		return nil
	})
}

func printOutcome(outcome memhost.Outcome) {
	if outcome.Aborted {
		fmt.Printf("%s: aborted with %s\n", outcome.Method, outcome.Panic)
		return
	}
	fmt.Printf("%s: ok, output 0x%x\n", outcome.Method, outcome.Output)
	for _, line := range outcome.Logs {
		fmt.Printf("  log: %s\n", line)
	}
	for _, promise := range outcome.Promises {
		if promise.Transfer != nil {
			fmt.Printf("  transfer %v yocto to %s\n", promise.Transfer.Amount, promise.Transfer.Target)
			continue
		}
		fmt.Printf("  promise %d: %s.%s\n", promise.ID, promise.Args.TargetAccountID, promise.Args.Method)
	}
}

func doSubmit(ctx *cli.Context) error {
	if ctx.Args().Len() != 1 {
		return fmt.Errorf("expected a raw transaction")
	}
	raw, err := hex.DecodeString(strings.TrimPrefix(ctx.Args().First(), "0x"))
	if err != nil {
		return fmt.Errorf("invalid transaction: %w", err)
	}
	return withNode(ctx, func(ctx *cli.Context, n *node) error {
		outcomes, err := n.execute(host.AccountID(cliUtils.PredecessorFlag.Fetch(ctx)), "submit", raw, nil)
		if err != nil {
			return err
		}
		if outcomes[0].Aborted {
			return fmt.Errorf("transaction rejected: %s", outcomes[0].Panic)
		}
		var res parameters.SubmitResult
		if err := parameters.Decode(outcomes[0].Output, &res); err != nil {
			return err
		}
		fmt.Printf("status %v, gas used %s, %d logs, output 0x%x\n",
			res.Status, unitconv.FormatPrefix(float64(res.GasUsed), unitconv.SI, 1), len(res.Logs), res.Status.Output())
		for _, outcome := range outcomes[1:] {
			printOutcome(outcome)
		}
		return nil
	})
}

func doBench(ctx *cli.Context) error {
	count := cliUtils.CountFlag.Fetch(ctx)
	if count <= 0 {
		return fmt.Errorf("count must be positive")
	}
	return withNode(ctx, func(_ *cli.Context, n *node) error {
		if !n.config.Benchmarking {
			return fmt.Errorf("benchmarking is disabled in the configuration")
		}
		key, err := crypto.GenerateKey()
		if err != nil {
			return err
		}
		sender := tosca.Address(crypto.PubkeyToAddress(key.PublicKey))
		genesis, err := parameters.Encode(parameters.BeginChainArgs{
			ChainID: n.config.ChainIDWord(),
			GenesisAlloc: []parameters.AccountBalance{
				{Address: sender, Balance: tosca.NewValue(1 << 62)},
			},
		})
		if err != nil {
			return err
		}
		if _, err := n.call("", "begin_chain", genesis); err != nil {
			return err
		}

		nonce, err := n.call("", "get_nonce", sender[:])
		if err != nil {
			return err
		}
		first := tosca.Value(nonce).ToUint256().Uint64()
		chainID := n.config.ChainID
		receiver := tosca.Address{0xbe, 0x0c, 0x4a}
		sign := func(hash []byte) ([]byte, error) { return crypto.Sign(hash, key) }

		var gas uint64
		start := time.Now()
		for i := 0; i < count; i++ {
			raw, err := transaction.Encode(&transaction.Transaction{
				Kind:                 transaction.DynamicFee,
				ChainID:              &chainID,
				Nonce:                first + uint64(i),
				GasLimit:             21_000,
				MaxFeePerGas:         tosca.NewValue(1),
				MaxPriorityFeePerGas: tosca.NewValue(1),
				To:                   &receiver,
				Value:                tosca.NewValue(1),
			}, sign)
			if err != nil {
				return err
			}
			output, err := n.call(host.AccountID("relayer."+n.config.AccountID), "submit", raw)
			if err != nil {
				return err
			}
			var res parameters.SubmitResult
			if err := parameters.Decode(output, &res); err != nil {
				return err
			}
			if !res.Status.IsOk() {
				return fmt.Errorf("transaction %d failed: %v", i, res.Status)
			}
			gas += res.GasUsed
		}
		duration := time.Since(start)
		rate := float64(count) / duration.Seconds()
		fmt.Printf("Submitted %d transfers in %v, %s tx/s, %s gas/s\n", count, duration.Round(time.Millisecond),
			unitconv.FormatPrefix(rate, unitconv.SI, 0), unitconv.FormatPrefix(float64(gas)/duration.Seconds(), unitconv.SI, 1))
		return nil
	})
}
