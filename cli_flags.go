// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/peterbourgon/ff/v3"

	"go.opentelemetry.io/dependency-collector/config"
	"go.opentelemetry.io/dependency-collector/internal/controller"
)

const (
	// Default values for CLI flags
	defaultArgRequestTimeout = 30 * time.Second
	defaultArgServiceName    = "dependency-collector"
)

// Help strings for command line arguments
var (
	cacheLifetimeHelp = "Idle time after which an unmatched begin is dropped " +
		"from the numbered operation cache."
	cacheSizeHelp         = "Maximum number of pending operations per cache."
	configFileHelp        = "Path to a configuration file with one flag per line."
	eventsHelp            = "Route HTTP requests through the numbered event source."
	ingestionEndpointHelp = "The ingestion endpoint of the telemetry backend. " +
		"Requests to it are never tracked."
	queryHelp             = "SQL query to run through the instrumented database handle."
	reportQueueSizeHelp   = "Number of completed dependencies buffered between two reports."
	reporterIntervalHelp  = "Set the reporter's interval in seconds."
	requestTimeoutHelp    = "Timeout of a single HTTP request."
	serviceNameHelp       = "The service.name reported with every dependency."
	sqliteHelp            = "SQLite data source the query is run against."
	sweepIntervalHelp     = "Interval at which expired operations are purged."
	transportEndpointHelp = "The delivery endpoint of the active telemetry transport. " +
		"Requests to it are never tracked."
	urlHelp         = "Comma-separated list of URLs fetched through the instrumented client."
	verboseModeHelp = "Enable verbose logging and debugging capabilities."
	versionHelp     = "Show version."
)

func parseArgs(arguments []string) (*controller.Config, error) {
	args := controller.Config{Config: config.Default()}

	fs := flag.NewFlagSet("dependency-collector", flag.ExitOnError)

	var cacheSize, reportQueueSize uint

	// Please keep the parameters ordered alphabetically in the source-code.
	fs.DurationVar(&args.CacheLifetime, "cache-lifetime", args.CacheLifetime,
		cacheLifetimeHelp)
	fs.UintVar(&cacheSize, "cache-size", uint(args.CacheSize), cacheSizeHelp)

	fs.String("config", "", configFileHelp)

	fs.BoolVar(&args.Events, "events", false, eventsHelp)

	fs.StringVar(&args.IngestionEndpointURL, "ingestion-endpoint", args.IngestionEndpointURL,
		ingestionEndpointHelp)

	fs.StringVar(&args.Query, "query", "", queryHelp)

	fs.UintVar(&reportQueueSize, "report-queue-size", uint(args.ReportQueueSize),
		reportQueueSizeHelp)
	fs.DurationVar(&args.ReportInterval, "reporter-interval", args.ReportInterval,
		reporterIntervalHelp)
	fs.DurationVar(&args.RequestTimeout, "request-timeout", defaultArgRequestTimeout,
		requestTimeoutHelp)

	fs.StringVar(&args.ServiceName, "service-name", defaultArgServiceName, serviceNameHelp)
	fs.StringVar(&args.SQLiteDSN, "sqlite", "", sqliteHelp)
	fs.DurationVar(&args.SweepInterval, "sweep-interval", args.SweepInterval,
		sweepIntervalHelp)

	fs.Func("transport-endpoint", transportEndpointHelp, func(s string) error {
		args.SetTransportEndpoint(s)
		return nil
	})

	fs.StringVar(&args.URLs, "url", "", urlHelp)

	fs.BoolVar(&args.VerboseMode, "v", false, "Shorthand for -verbose.")
	fs.BoolVar(&args.VerboseMode, "verbose", false, verboseModeHelp)
	fs.BoolVar(&args.Version, "version", false, versionHelp)

	fs.Usage = func() {
		fs.PrintDefaults()
	}

	args.Fs = fs

	err := ff.Parse(fs, arguments,
		ff.WithEnvVarPrefix("OTEL_DEPENDENCY_COLLECTOR"),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
		// This will ignore configuration file (only) options that the current
		// version does not recognize.
		ff.WithIgnoreUndefined(true),
		ff.WithAllowMissingConfigFile(true),
	)
	if err != nil {
		return nil, err
	}

	if cacheSize > uint(^uint32(0)) || reportQueueSize > uint(^uint32(0)) {
		return nil, fmt.Errorf("cache-size and report-queue-size must fit into 32 bits")
	}
	args.CacheSize = uint32(cacheSize)
	args.ReportQueueSize = uint32(reportQueueSize)

	return &args, nil
}
