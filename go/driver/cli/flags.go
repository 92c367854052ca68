// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package cliUtils

import (
	"fmt"
	"math/big"
	"os"
	"runtime/pprof"

	"github.com/urfave/cli/v2"
)

type configFlagType struct {
	cli.StringFlag
}

var ConfigFlag = &configFlagType{
	cli.StringFlag{
		Name:      "config",
		Aliases:   []string{"c"},
		Usage:     "TOML configuration file, created with defaults if missing",
		Value:     "evmhost.toml",
		TakesFile: true,
	},
}

func (f *configFlagType) Fetch(context *cli.Context) string {
	return context.String(f.Name)
}

type dataDirFlagType struct {
	cli.StringFlag
}

var DataDirFlag = &dataDirFlagType{
	cli.StringFlag{
		Name:  "datadir",
		Usage: "directory of the host database, overrides the configuration file",
	},
}

// Fetch returns the flag value and whether it was set.
func (f *dataDirFlagType) Fetch(context *cli.Context) (string, bool) {
	return context.String(f.Name), context.IsSet(f.Name)
}

type heightFlagType struct {
	cli.Uint64Flag
}

var HeightFlag = &heightFlagType{
	cli.Uint64Flag{
		Name:  "height",
		Usage: "block height reported to the contract",
		Value: 1,
	},
}

func (f *heightFlagType) Fetch(context *cli.Context) uint64 {
	return context.Uint64(f.Name)
}

type predecessorFlagType struct {
	cli.StringFlag
}

var PredecessorFlag = &predecessorFlagType{
	cli.StringFlag{
		Name:    "predecessor",
		Aliases: []string{"p"},
		Usage:   "account issuing the call, defaults to the configured owner",
	},
}

func (f *predecessorFlagType) Fetch(context *cli.Context) string {
	return context.String(f.Name)
}

type depositFlagType struct {
	cli.StringFlag
}

var DepositFlag = &depositFlagType{
	cli.StringFlag{
		Name:  "deposit",
		Usage: "attached deposit in yocto",
		Value: "0",
	},
}

func (f *depositFlagType) Fetch(context *cli.Context) (*big.Int, error) {
	value, ok := new(big.Int).SetString(context.String(f.Name), 10)
	if !ok || value.Sign() < 0 {
		return nil, fmt.Errorf("invalid deposit %q", context.String(f.Name))
	}
	return value, nil
}

type countFlagType struct {
	cli.IntFlag
}

var CountFlag = &countFlagType{
	cli.IntFlag{
		Name:    "count",
		Aliases: []string{"n"},
		Usage:   "number of transactions to submit",
		Value:   1000,
	},
}

func (f *countFlagType) Fetch(context *cli.Context) int {
	return context.Int(f.Name)
}

var commonFlags = []cli.Flag{
	ConfigFlag,
	DataDirFlag,
	HeightFlag,
	cpuProfileFlag,
}

var cpuProfileFlag = &cli.StringFlag{
	Name:  "cpuprofile",
	Usage: "store CPU profile in the provided filename",
}

// AddCommonFlags adds the configuration and profiling flags to a command.
func AddCommonFlags(command cli.Command) cli.Command {
	command.Flags = append(command.Flags, commonFlags...)

	action := command.Action
	command.Action = func(ctx *cli.Context) (err error) {

		if cpuprofileFilename := ctx.String(cpuProfileFlag.Name); cpuprofileFilename != "" {
			f, err := os.Create(cpuprofileFilename)
			if err != nil {
				return fmt.Errorf("could not create CPU profile: %w", err)
			}
			if err := pprof.StartCPUProfile(f); err != nil {
				return fmt.Errorf("could not start CPU profile: %w", err)
			}
			defer pprof.StopCPUProfile()
		}

		return action(ctx)
	}
	return command
}
