// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command iterq-sum hashes files concurrently and prints a sorted
// BLAKE2b-256 report.
//
// Usage:
//
//	iterq-sum [flags] [path ...]
//	find . -name '*.log' | iterq-sum [flags] -
//
// With no paths the current directory is scanned. Directories are walked
// recursively. A single "-" reads newline-separated paths from stdin.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"code.hybscloud.com/iterq"
	"code.hybscloud.com/iterq/filequeue"
	"code.hybscloud.com/iterq/internal/config"
	"code.hybscloud.com/iterq/internal/digest"
	"code.hybscloud.com/iterq/internal/report"
	"code.hybscloud.com/iterq/workers"
	"golang.org/x/term"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "iterq-sum:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, paths, err := parseFlags(args)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, stopping", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	q := iterq.Build[string](iterq.New(cfg.Capacity).Logger(logger))
	scanner := &filequeue.Scanner{
		Filter:        cfg.Scan.Filter,
		Exclude:       cfg.Scan.Exclude,
		CaseSensitive: !cfg.Scan.IgnoreCase,
		Base:          cfg.Scan.Base,
		Logger:        logger,
	}

	scanErr := make(chan error, 1)
	go func() {
		var err error
		if len(paths) == 1 && paths[0] == "-" {
			_, err = scanner.ScanReader(ctx, q, os.Stdin)
		} else {
			_, err = scanner.Scan(ctx, q, paths)
		}
		if err != nil {
			// Release consumers still waiting on this producer.
			q.Shutdown()
		}
		scanErr <- err
	}()

	if cfg.Progress && term.IsTerminal(int(os.Stderr.Fd())) {
		mctx, mcancel := context.WithCancel(ctx)
		defer mcancel()
		go workers.Monitor(mctx, q, time.Second, logger)
	}

	var (
		mu      sync.Mutex
		entries []report.Entry
	)
	err = workers.Run(ctx, q, cfg.Workers, func(ctx context.Context, path string) error {
		sum, err := digest.File(ctx, path)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warn("skipping file", "path", path, "error", err)
			return nil
		}
		mu.Lock()
		entries = append(entries, report.Entry{Path: path, Size: sum.Size, Digest: sum.Hex()})
		mu.Unlock()
		return nil
	})
	serr := <-scanErr
	if err != nil && (iterq.IsClosed(serr) || errors.Is(serr, context.Canceled)) {
		serr = nil
	}
	if err := errors.Join(err, serr); err != nil {
		return err
	}
	logger.Debug("hashing complete", "files", q.Count())

	report.Sort(entries)
	return writeReport(cfg.Output.File, cfg.Output.Format, entries)
}

// parseFlags loads the optional -config file and applies the flags that
// were set explicitly on top of it.
func parseFlags(args []string) (config.Config, []string, error) {
	def := config.Default()
	fs := flag.NewFlagSet("iterq-sum", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a YAML configuration file")
	workersN := fs.Int("workers", def.Workers, "number of hashing workers")
	capacity := fs.Int("capacity", def.Capacity, "queue capacity, 0 for unbounded")
	filter := fs.String("filter", def.Scan.Filter, "shell pattern matched against file base names")
	exclude := fs.Bool("exclude", def.Scan.Exclude, "hash files that do NOT match -filter")
	ignoreCase := fs.Bool("ignore-case", def.Scan.IgnoreCase, "match -filter case-insensitively")
	base := fs.String("base", def.Scan.Base, "directory joined in front of relative paths")
	format := fs.String("format", def.Output.Format, "output format: txt, json or msgpack")
	output := fs.String("o", def.Output.File, "write the report to this file instead of stdout")
	progress := fs.Bool("progress", def.Progress, "log progress to a terminal stderr")
	debug := fs.Bool("debug", def.Debug, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return def, nil, err
	}

	cfg := def
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return cfg, nil, err
		}
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "workers":
			cfg.Workers = *workersN
		case "capacity":
			cfg.Capacity = *capacity
		case "filter":
			cfg.Scan.Filter = *filter
		case "exclude":
			cfg.Scan.Exclude = *exclude
		case "ignore-case":
			cfg.Scan.IgnoreCase = *ignoreCase
		case "base":
			cfg.Scan.Base = *base
		case "format":
			cfg.Output.Format = *format
		case "o":
			cfg.Output.File = *output
		case "progress":
			cfg.Progress = *progress
		case "debug":
			cfg.Debug = *debug
		}
	})
	if err := cfg.Validate(); err != nil {
		return cfg, nil, err
	}

	paths := fs.Args()
	if len(paths) == 0 {
		paths = []string{"."}
	}
	return cfg, paths, nil
}

func writeReport(path, format string, entries []report.Entry) (err error) {
	var w io.Writer = os.Stdout
	if path != "" {
		f, cerr := os.Create(path)
		if cerr != nil {
			return cerr
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}
	return report.Write(w, format, entries)
}
