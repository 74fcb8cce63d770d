// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"os"

	"github.com/davecgh/go-spew/spew"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/everx-labs/ton-labs-contracts/elector"
	"github.com/everx-labs/ton-labs-contracts/metrics"
	"github.com/everx-labs/ton-labs-contracts/ton"
)

var (
	version   string
	gitCommit string
	gitTag    string
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version: fullVersion(),
		Name:    "elector-sim",
		Usage:   "Drive the validator elector through a simulated network",
		Flags: []cli.Flag{
			configFlag,
			verbosityFlag,
			jsonLogsFlag,
			metricsAddrFlag,
			journalFlag,
		},
		Action: runAction,
		Commands: []cli.Command{
			{
				Name:  "params",
				Usage: "print a workchain's parameters and their config blobs",
				Flags: []cli.Flag{
					configFlag,
					workchainFlag,
				},
				Action: paramsAction,
			},
			{
				Name:  "dump",
				Usage: "run the scenario and dump the final elector state",
				Flags: []cli.Flag{
					configFlag,
					verbosityFlag,
					jsonLogsFlag,
					journalFlag,
				},
				Action: dumpAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func play(ctx *cli.Context) (*Runner, func(), error) {
	s, err := loadScenario(ctx)
	if err != nil {
		return nil, nil, err
	}
	store, closeStore, err := openJournal(ctx)
	if err != nil {
		return nil, nil, err
	}
	r, err := NewRunner(s, elector.WithStore(store))
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	logger.Info("scenario started", "start", s.Start, "duration", s.Duration, "chains", len(s.Chains))
	if err := r.Run(); err != nil {
		closeStore()
		return nil, nil, err
	}
	logger.Info("scenario finished", "now", r.Context().Clock.Now())
	return r, closeStore, nil
}

func runAction(ctx *cli.Context) error {
	defer func() { logger.Info("exited") }()
	initLogger(ctx)

	if addr := ctx.String(metricsAddrFlag.Name); addr != "" {
		metrics.InitializePrometheusMetrics()
		url, closeFunc, err := startMetricsServer(addr)
		if err != nil {
			return err
		}
		defer func() { logger.Info("stopping metrics server..."); closeFunc() }()
		logger.Info("metrics server started", "url", url)
	}

	r, closeStore, err := play(ctx)
	if err != nil {
		return err
	}
	defer closeStore()
	printSummary(os.Stdout, r)
	return nil
}

func dumpAction(ctx *cli.Context) error {
	initLogger(ctx)
	r, closeStore, err := play(ctx)
	if err != nil {
		return err
	}
	defer closeStore()
	snap, err := r.Context().Engine.Snapshot()
	if err != nil {
		return err
	}
	cfg := spew.ConfigState{Indent: "  ", SortKeys: true}
	cfg.Fdump(os.Stdout, snap)
	return nil
}

func paramsAction(ctx *cli.Context) error {
	s, err := loadScenario(ctx)
	if err != nil {
		return err
	}
	wc := ton.WorkchainID(ctx.Int(workchainFlag.Name))
	for _, c := range s.Chains {
		if ton.WorkchainID(c.Workchain) != wc {
			continue
		}
		cfg, err := c.Params.Config()
		if err != nil {
			return err
		}
		return printParams(os.Stdout, cfg)
	}
	return fmt.Errorf("workchain %v not in scenario", wc)
}
