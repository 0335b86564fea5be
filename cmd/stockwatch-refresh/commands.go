package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/bobmcallan/stockwatch/internal/app"
	"github.com/bobmcallan/stockwatch/internal/common"
)

// appFactory builds the wired application for a command run.
type appFactory func() (*app.App, error)

var commands = []subcommands.Command{
	&pricesCmd{},
	&stockListCmd{},
	&allCmd{},
}

type pricesCmd struct{}

func (*pricesCmd) Name() string     { return "prices" }
func (*pricesCmd) Synopsis() string { return "enrich every watchlist ticker and write the price snapshot" }
func (*pricesCmd) Usage() string {
	return `stockwatch-refresh [-config <file>] prices

  Reads the watchlist, fetches each ticker's full daily history and writes
  current price, all-time high and ratio to the prices file. Tickers with
  no data are skipped. The ratio chart is written alongside when configured.
`
}
func (*pricesCmd) SetFlags(*flag.FlagSet) {}

func (*pricesCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	return run(ctx, args, "prices", func(ctx context.Context, a *app.App) error {
		snap, err := a.SnapshotService.RefreshPrices(ctx)
		if snap != nil {
			a.Logger.Info().Int("tickers", len(snap.Prices)).Str("file", a.Config.Storage.PricesPath()).Msg("Price snapshot written")
		}
		return err
	})
}

type stockListCmd struct{}

func (*stockListCmd) Name() string     { return "stocklist" }
func (*stockListCmd) Synopsis() string { return "write the ticker universe for the most recent trading day" }
func (*stockListCmd) Usage() string {
	return `stockwatch-refresh [-config <file>] stocklist

  Lists every ticker of each market partition with its name for the most
  recent trading day and writes the stock list file used by cached search.
`
}
func (*stockListCmd) SetFlags(*flag.FlagSet) {}

func (*stockListCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	return run(ctx, args, "stocklist", func(ctx context.Context, a *app.App) error {
		list, err := a.SnapshotService.RefreshStockList(ctx)
		if err != nil {
			return err
		}
		a.Logger.Info().Int("stocks", len(list.Stocks)).Str("file", a.Config.Storage.StockListPath()).Msg("Stock list written")
		return nil
	})
}

type allCmd struct{}

func (*allCmd) Name() string     { return "all" }
func (*allCmd) Synopsis() string { return "refresh prices, then the stock list" }
func (*allCmd) Usage() string {
	return `stockwatch-refresh [-config <file>] all

  Runs the prices step and then the stocklist step. A failed prices step
  stops the run.
`
}
func (*allCmd) SetFlags(*flag.FlagSet) {}

func (*allCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	return run(ctx, args, "all", func(ctx context.Context, a *app.App) error {
		return a.SnapshotService.Run(ctx)
	})
}

// run builds the app from the factory passed to Execute and reports the
// outcome of step as an exit status.
func run(ctx context.Context, args []interface{}, name string, step func(context.Context, *app.App) error) subcommands.ExitStatus {
	var factory appFactory
	if len(args) > 0 {
		factory, _ = args[0].(appFactory)
	}
	if factory == nil {
		fmt.Fprintln(os.Stderr, "internal error: no app factory")
		return subcommands.ExitFailure
	}

	a, err := factory()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize app: %v\n", err)
		return subcommands.ExitFailure
	}

	common.PrintBanner(a.Config, a.Logger)
	a.Logger.Info().Str("command", name).Msg("Refresh started")

	if err := step(ctx, a); err != nil {
		a.Logger.Error().Err(err).Str("command", name).Msg("Refresh failed")
		return subcommands.ExitFailure
	}

	a.Logger.Info().Str("command", name).Msg("Refresh finished")
	return subcommands.ExitSuccess
}
