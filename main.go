// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/collector/consumer"
	"go.opentelemetry.io/collector/pdata/ptrace"
	"golang.org/x/sys/unix"

	"go.opentelemetry.io/dependency-collector/internal/controller"
	"go.opentelemetry.io/dependency-collector/metrics"
	"go.opentelemetry.io/dependency-collector/vc"
)

type exitCode int

const (
	exitSuccess exitCode = 0
	exitFailure exitCode = 1

	// Go 'flag' package calls os.Exit(2) on flag parse errors, if ExitOnError is set
	exitParseError exitCode = 2
)

func main() {
	os.Exit(int(mainWithExitCode()))
}

func mainWithExitCode() exitCode {
	cfg, err := parseArgs(os.Args[1:])
	if err != nil {
		return parseError("Failure to parse arguments: %v", err)
	}

	if cfg.Version {
		fmt.Printf("%s\n", vc.Version())
		return exitSuccess
	}

	if cfg.VerboseMode {
		log.SetLevel(log.DebugLevel)
		// Dump the arguments in debug mode.
		cfg.Dump()
	}

	if err = cfg.Validate(); err != nil {
		return parseError("Invalid arguments: %v", err)
	}

	// Context to drive main goroutine and the background sweeps.
	mainCtx, mainCancel := signal.NotifyContext(context.Background(),
		unix.SIGINT, unix.SIGTERM, unix.SIGABRT)
	defer mainCancel()

	log.Infof("Starting OTel dependency collector %s (revision %s, build timestamp %s)",
		vc.Version(), vc.Revision(), vc.BuildTimestamp())

	cfg.NextConsumer, err = newStdoutConsumer(os.Stdout)
	if err != nil {
		return failure("Failed to create the trace consumer: %v", err)
	}

	ctlr := controller.New(cfg)
	if err = ctlr.Start(mainCtx); err != nil {
		ctlr.Shutdown()
		return failure("Failed to start dependency collection: %v", err)
	}

	err = ctlr.Run(mainCtx)
	ctlr.Shutdown()
	logMetrics()
	if err != nil {
		return failure("Dependency collection failed: %v", err)
	}

	log.Info("Exiting ...")
	return exitSuccess
}

// newStdoutConsumer returns a consumer writing each trace batch as one line of
// OTLP JSON to w.
func newStdoutConsumer(w io.Writer) (consumer.Traces, error) {
	var (
		mu        sync.Mutex
		marshaler ptrace.JSONMarshaler
	)
	return consumer.NewTraces(func(_ context.Context, td ptrace.Traces) error {
		buf, err := marshaler.MarshalTraces(td)
		if err != nil {
			return err
		}

		mu.Lock()
		defer mu.Unlock()
		if _, err = w.Write(append(buf, '\n')); err != nil {
			return fmt.Errorf("failed to write traces: %w", err)
		}
		return nil
	})
}

func logMetrics() {
	for _, def := range metrics.GetDefinitions() {
		if def.Obsolete {
			continue
		}
		if v := metrics.Value(def.ID); v != 0 {
			log.Debugf("%s: %d", def.Field, v)
		}
	}
}

func parseError(msg string, args ...any) exitCode {
	log.Errorf(msg, args...)
	return exitParseError
}

func failure(msg string, args ...any) exitCode {
	log.Errorf(msg, args...)
	return exitFailure
}
