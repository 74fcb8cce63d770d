// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	cli "gopkg.in/urfave/cli.v1"

	"github.com/everx-labs/ton-labs-contracts/log"
)

var (
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "path to a YAML scenario file (built-in scenario if omitted)",
	}
	verbosityFlag = cli.Uint64Flag{
		Name:  "verbosity",
		Value: log.LegacyLevelInfo,
		Usage: "log verbosity (0-9)",
	}
	jsonLogsFlag = cli.BoolFlag{
		Name:  "json-logs",
		Usage: "output logs in JSON format",
	}
	metricsAddrFlag = cli.StringFlag{
		Name:  "metrics-addr",
		Usage: "serve prometheus metrics on this address while the scenario runs",
	}
	journalFlag = cli.StringFlag{
		Name:  "journal",
		Usage: "directory for the on-disk request journal (in memory if omitted)",
	}
	workchainFlag = cli.IntFlag{
		Name:  "workchain",
		Value: -1,
		Usage: "workchain whose parameters are printed",
	}
)
