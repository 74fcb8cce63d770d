// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"
	"gopkg.in/yaml.v3"

	"github.com/everx-labs/ton-labs-contracts/elector"
	"github.com/everx-labs/ton-labs-contracts/elector/params"
	"github.com/everx-labs/ton-labs-contracts/kv"
	"github.com/everx-labs/ton-labs-contracts/log"
	"github.com/everx-labs/ton-labs-contracts/ton"
)

func initLogger(ctx *cli.Context) *slog.LevelVar {
	var level slog.LevelVar
	level.Set(log.FromLegacyLevel(int(ctx.Uint64(verbosityFlag.Name))))

	var handler slog.Handler
	if ctx.Bool(jsonLogsFlag.Name) {
		handler = log.JSONHandlerWithLevel(os.Stdout, &level)
	} else {
		useColor := (isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())) && os.Getenv("TERM") != "dumb"
		handler = log.NewTerminalHandlerWithLevel(os.Stdout, &level, useColor)
	}
	log.SetDefault(log.NewLogger(handler))
	elector.SetLogger(log.WithContext("pkg", "elector"))
	return &level
}

func loadScenario(ctx *cli.Context) (*Scenario, error) {
	path := ctx.String(configFlag.Name)
	if path == "" {
		return DefaultScenario(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read scenario")
	}
	return ParseScenario(data)
}

func openJournal(ctx *cli.Context) (kv.Store, func(), error) {
	dir := ctx.String(journalFlag.Name)
	if dir == "" {
		store, err := kv.NewMem()
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	}
	store, err := kv.New(dir, kv.Options{CacheSize: 64, OpenFilesCacheCapacity: 64})
	if err != nil {
		return nil, nil, err
	}
	logger.Info("journal opened", "dir", dir)
	return store, func() {
		logger.Info("closing journal...")
		if err := store.Close(); err != nil {
			logger.Warn("failed to close journal", "err", err)
		}
	}, nil
}

func printSummary(w io.Writer, r *Runner) {
	eng := r.Context().Engine
	for _, wc := range eng.Workchains() {
		balance, own := eng.Balance(wc)
		fmt.Fprintf(w, "workchain %v\n", wc)
		fmt.Fprintf(w, "  balance    %s (own funds %s)\n", ton.FormatAmount(balance), ton.FormatAmount(own))
		for _, pe := range eng.PastElections(wc) {
			fmt.Fprintf(w, "  election   %d  validators=%d weight=%s bonuses=%s unfrozen=%v\n",
				pe.ElectID, len(pe.Validators), ton.FormatAmount(pe.TotalWeight), ton.FormatAmount(pe.Bonuses), pe.Unfrozen)
		}
		if id, ok := eng.ActiveElectionID(wc); ok {
			fmt.Fprintf(w, "  active     %d (%d validators)\n", id, len(eng.ActiveSet(wc)))
		}
	}
	for _, b := range eng.Banned() {
		fmt.Fprintf(w, "banned %v on %v in %d at %d\n", b.PubKey.AbbrevString(), b.Workchain, b.ElectID, b.At)
	}
	fmt.Fprintf(w, "config messages %d\n", len(r.Context().Sent))
}

func printParams(w io.Writer, cfg *params.Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg.ToFile()); err != nil {
		return errors.Wrap(err, "encode params")
	}
	if err := enc.Close(); err != nil {
		return err
	}
	blobs, err := params.Encode(cfg)
	if err != nil {
		return err
	}
	for _, idx := range blobs.Indices() {
		fmt.Fprintf(w, "# %d: %s\n", idx, hexutil.Encode(blobs[idx]))
	}
	return nil
}
