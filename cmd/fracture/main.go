package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/notargets/fracture/config"
	"github.com/notargets/fracture/ctxlog"
	"github.com/notargets/fracture/fractures"
	"github.com/notargets/fracture/mesh"
	"github.com/notargets/fracture/mesh/readers"
	"github.com/notargets/fracture/mesh/writers"
)

func main() {
	if err := run(os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(outW, logW io.Writer, args []string) error {
	flagSet := flag.NewFlagSet("fracture", flag.ContinueOnError)
	flagSet.SetOutput(outW)
	flagSet.Usage = func() {
		fmt.Fprint(outW, `
fracture - split a volume mesh along fracture surfaces.

Usage:
  fracture [options] CONFIG.hcl

Options:
`)
		flagSet.PrintDefaults()
	}
	logLevel := flagSet.String("log-level", "info", "Logging level: 'debug', 'info', 'warn' or 'error'.")
	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}
	if flagSet.NArg() != 1 {
		flagSet.Usage()
		return fmt.Errorf("expected one configuration file, got %d arguments", flagSet.NArg())
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(*logLevel))); err != nil {
		return fmt.Errorf("invalid log level %q: %w", *logLevel, err)
	}
	logger := slog.New(slog.NewTextHandler(logW, &slog.HandlerOptions{Level: level}))
	ctx := ctxlog.WithLogger(context.Background(), logger)

	cfg, err := config.Load(ctx, flagSet.Arg(0))
	if err != nil {
		return err
	}
	m, err := readers.ReadMeshFile(cfg.Input)
	if err != nil {
		return err
	}
	logger.Info("Read volume mesh", "path", cfg.Input, "points", m.NumPoints(), "cells", m.NumCells())

	res, err := process(ctx, cfg, m)
	if err != nil {
		return err
	}
	fmt.Fprint(outW, res.String())
	return nil
}

// process splits m and writes the volume and fracture meshes named in cfg
func process(ctx context.Context, cfg *config.Config, m *mesh.Mesh) (*fractures.Result, error) {
	logger := ctxlog.FromContext(ctx)

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid input mesh: %w", err)
	}
	res, err := fractures.Split(ctx, m, cfg.SplitOptions())
	if err != nil {
		return nil, err
	}

	if cfg.GenerateGlobalIDs {
		mesh.GenerateGlobalIDs(res.Mesh)
	}
	if err := writers.WriteVTK(res.Mesh, cfg.Output); err != nil {
		return nil, err
	}
	logger.Info("Wrote volume mesh", "path", cfg.Output)

	for i, f := range res.Fractures {
		out := cfg.Fractures[i].Output
		if cfg.GenerateGlobalIDs {
			mesh.GenerateGlobalIDs(f.Mesh)
		}
		if err := writers.WriteVTK(f.Mesh, out); err != nil {
			return nil, err
		}
		logger.Info("Wrote fracture mesh", "fracture", cfg.Fractures[i].Label, "path", out,
			"faces", f.Mesh.NumCells(), "discarded", len(f.Discarded))
	}
	return res, nil
}
