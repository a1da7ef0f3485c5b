// MPDRec - Million Playlist Dataset Recommendation Baseline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpdrec

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/mpdrec/internal/config"
	"github.com/tomtom215/mpdrec/internal/logging"
	"github.com/tomtom215/mpdrec/internal/metrics"
	"github.com/tomtom215/mpdrec/internal/pipeline"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "-help" || args[0] == "help" {
		usage(stderr)
		if len(args) == 0 {
			return exitUsage
		}
		return exitOK
	}

	cmd, ok := lookup(args[0])
	if !ok {
		fmt.Fprintf(stderr, "mpdrec: unknown command %q\n\n", args[0])
		usage(stderr)
		return exitUsage
	}

	fs := flag.NewFlagSet("mpdrec "+cmd.name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML config file (default: CONFIG_PATH or ./config.yaml)")
	ov := newOverrides(fs)
	ov.bind("log-level", "logging.level", "log level: trace, debug, info, warn, error")
	ov.bind("log-format", "logging.format", "log format: json or console")
	if cmd.flags != nil {
		cmd.flags(fs, ov)
	}
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: mpdrec %s [flags]\n\n%s\n\nFlags:\n", cmd.name, cmd.summary)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "mpdrec %s: unexpected arguments %v\n", cmd.name, fs.Args())
		return exitUsage
	}

	cfg, err := config.LoadWithKoanf(config.Options{Path: *configPath, Overrides: ov.values()})
	if err != nil {
		logging.Error().Err(err).Msg("Failed to load configuration")
		return exitError
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	ctx = logging.ContextWithNewRunID(ctx)
	logging.Ctx(ctx).Debug().Str("command", cmd.name).Msg("Configuration loaded")

	p, err := pipeline.New(ctx, cfg, stdout)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("Failed to initialize pipeline")
		return exitError
	}
	defer func() {
		if err := p.Close(); err != nil {
			logging.Warn().Err(err).Msg("Failed to close pipeline stores")
		}
	}()

	err = cmd.run(ctx, p, stdout)

	if cfg.Metrics.TextfilePath != "" {
		if merr := metrics.WriteTextfile(cfg.Metrics.TextfilePath); merr != nil {
			logging.Warn().Err(merr).Str("path", cfg.Metrics.TextfilePath).Msg("Failed to write metrics")
		}
	}

	if err != nil {
		if errors.Is(err, context.Canceled) {
			logging.Ctx(ctx).Warn().Msg("Interrupted")
		} else {
			logging.Ctx(ctx).Error().Err(err).Str("command", cmd.name).Msg("Command failed")
		}
		return exitError
	}
	return exitOK
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mpdrec <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", c.name, c.summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, `Run "mpdrec <command> -h" for the flags of a command.`)
}

// overrides collects flags that map onto configuration keys. Only flags set
// on the command line are applied, so unset flags never mask the file or
// environment.
type overrides struct {
	fs    *flag.FlagSet
	paths map[string]string
	vals  map[string]*string
}

func newOverrides(fs *flag.FlagSet) *overrides {
	return &overrides{fs: fs, paths: make(map[string]string), vals: make(map[string]*string)}
}

// bind registers flag name as an override of the koanf key path.
func (o *overrides) bind(name, path, usage string) {
	o.paths[name] = path
	o.vals[name] = o.fs.String(name, "", usage)
}

// values returns the overrides keyed by koanf path. Values stay strings;
// koanf converts them while unmarshalling, as it does for the environment.
func (o *overrides) values() map[string]interface{} {
	out := make(map[string]interface{})
	o.fs.Visit(func(f *flag.Flag) {
		if path, ok := o.paths[f.Name]; ok {
			out[path] = *o.vals[f.Name]
		}
	})
	return out
}
