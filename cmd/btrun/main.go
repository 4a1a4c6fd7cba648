package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/zeusync/behave/internal/config"
	"github.com/zeusync/behave/internal/core/bt/loader"
	"github.com/zeusync/behave/internal/core/observability/log"
	"github.com/zeusync/behave/internal/injector"
	"github.com/zeusync/behave/internal/runner"
	"github.com/zeusync/behave/internal/server"
)

type treeFlags []string

func (t *treeFlags) String() string { return strings.Join(*t, ",") }

func (t *treeFlags) Set(value string) error {
	for _, path := range strings.Split(value, ",") {
		if path = strings.TrimSpace(path); path != "" {
			*t = append(*t, path)
		}
	}
	return nil
}

func main() {
	var trees treeFlags
	flag.Var(&trees, "tree", "tree definition file (.yaml, .yml or .json); repeat or comma-separate for a fleet")
	configPath := flag.String("config", "", "runner config file")
	flag.Parse()

	if len(trees) == 0 {
		fmt.Fprintln(os.Stderr, "at least one -tree is required")
		flag.Usage()
		os.Exit(2)
	}

	if err := run(trees, *configPath); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(trees []string, configPath string) error {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.LoadFile(configPath); err != nil {
			return err
		}
	}

	app, err := injector.InitializeApp(cfg)
	if err != nil {
		return err
	}
	logger := app.Logger

	fleet := runner.NewFleet(cfg.Workers, logger)
	for _, path := range trees {
		def, err := loader.LoadFile(path)
		if err != nil {
			return err
		}
		r, err := app.Runner(def)
		if err != nil {
			return fmt.Errorf("tree %s: %w", path, err)
		}
		fleet.Add(r)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Trace.Listen != "" {
		trace, err := server.NewTraceServer(app.Bus, logger)
		if err != nil {
			return err
		}
		if err := trace.Start(cfg.Trace.Listen); err != nil {
			return err
		}
		defer func() {
			shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := trace.Stop(shutdown); err != nil {
				logger.Warn("trace server shutdown failed", log.Error(err))
			}
		}()
	}

	results, err := fleet.Run(ctx)
	for _, res := range results {
		fmt.Printf("%s\t%s\truns=%d\tticks=%d\n", res.Tree, res.Status, res.Runs, res.Ticks)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
