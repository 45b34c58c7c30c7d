// Command certify renders the certificates described by a configuration
// file: certify -i input.dat
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"certify/internal/batch"
	"certify/internal/pkg/env"
	"certify/internal/pkg/errors"
	"certify/internal/pkg/logger"
	"certify/internal/registry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := logger.DefaultConfig()
	cfg.ServiceName = "certify"
	log := logger.New(cfg)

	os.Exit(run(ctx, os.Args[1:], os.Stderr, log))
}

// run returns the process exit code: 0 on success, 1 when the batch fails,
// 2 on bad usage.
func run(ctx context.Context, args []string, stderr io.Writer, log *logger.Logger) int {
	fs := flag.NewFlagSet("certify", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var input string
	fs.StringVar(&input, "i", "", "configuration file (INI or YAML)")
	fs.StringVar(&input, "input", "", "alias for -i")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: certify -i <config>")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if input == "" {
		fs.Usage()
		return 2
	}

	configPath, err := filepath.Abs(input)
	if err != nil {
		log.Error("resolve configuration path", "error", err.Error())
		return 1
	}

	var (
		reg      *registry.Registry
		recorder batch.Recorder
		runID    = registry.NewID("run")
	)
	if dsn := env.Get("DATABASE_URL", ""); dsn != "" {
		pool, err := registry.Connect(ctx, dsn)
		if err != nil {
			logFailure(log, "registry unavailable", err)
			return 1
		}
		defer pool.Close()

		reg = registry.New(pool)
		if err := reg.EnsureSchema(ctx); err != nil {
			logFailure(log, "registry schema", err)
			return 1
		}
		r, err := reg.CreateRun(ctx, configPath)
		if err != nil {
			logFailure(log, "register run", err)
			return 1
		}
		runID = r.ID
		if err := reg.MarkRunning(ctx, runID); err != nil {
			logFailure(log, "register run", err)
			return 1
		}
		recorder = reg
	}

	runner := batch.NewRunner(recorder, nil, log)
	summary, err := runner.Execute(ctx, runID, configPath)
	if err != nil {
		logFailure(log.WithRunID(runID), "batch failed", err)
		if reg != nil {
			if mErr := reg.MarkFailed(context.WithoutCancel(ctx), runID, err); mErr != nil {
				log.Error("record failed run", "run_id", runID, "error", mErr.Error())
			}
		}
		return 1
	}

	if reg != nil {
		if err := reg.MarkDone(ctx, runID, summary.Certificates); err != nil {
			logFailure(log, "record finished run", err)
			return 1
		}
	}

	log.Info("batch finished",
		"run_id", runID,
		"rows", summary.Rows,
		"certificates", summary.Certificates,
	)
	return 0
}

func logFailure(log *logger.Logger, msg string, err error) {
	attrs := []any{"error", err.Error(), "code", string(errors.GetCode(err))}
	var e *errors.Error
	if errors.As(err, &e) && e.Op != "" {
		attrs = append(attrs, "op", e.Op)
	}
	for k, v := range errors.GetFields(err) {
		attrs = append(attrs, k, v)
	}
	log.Error(msg, attrs...)
}
