// Command stockwatch-refresh rebuilds the price and stock-list snapshots.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/google/subcommands"

	"github.com/bobmcallan/stockwatch/internal/app"
)

var configPath = flag.String("config", "", "path to stockwatch.toml (default: $STOCKWATCH_CONFIG)")

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	for _, c := range commands {
		commander.Register(c, "")
	}

	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(int(commander.Execute(ctx, appFactory(newApp))))
}

// newApp loads the config and refuses to run without the provider key.
func newApp() (*app.App, error) {
	a, err := app.NewApp(*configPath)
	if err != nil {
		return nil, err
	}
	if missing := a.Config.ValidateRequired(); len(missing) > 0 {
		return nil, fmt.Errorf("missing required settings: %v", missing)
	}
	return a, nil
}
