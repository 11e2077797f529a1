package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ruslano69/dmbridge/pkg/adapters"
	_ "github.com/ruslano69/dmbridge/pkg/adapters/postgres" // Register postgres target
	"github.com/ruslano69/dmbridge/pkg/core/errs"
	"github.com/ruslano69/dmbridge/pkg/core/types"
	"github.com/ruslano69/dmbridge/pkg/executor"
	"github.com/ruslano69/dmbridge/pkg/metrics"
	"github.com/ruslano69/dmbridge/pkg/odbc"
	"github.com/ruslano69/dmbridge/pkg/odbc/sqlconn"
	"github.com/ruslano69/dmbridge/pkg/resultlog"
	"github.com/ruslano69/dmbridge/pkg/retry"
	"github.com/ruslano69/dmbridge/pkg/transfer"
)

var version = "dev"

func main() {
	flags, err := ParseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	setupLogging(*flags.Verbose, *flags.JSONLogs)

	if *flags.Version {
		fmt.Printf("dmbridge %s\n", version)
		return
	}
	if *flags.CreateConfig != "" {
		createConfigTemplate(*flags.CreateConfig, *flags.Config)
		return
	}
	if !flags.commandWasSpecified() {
		fmt.Fprintln(os.Stderr, "No command specified. Use one of -execute, -query, -describe, -batch, -transfer (see -h)")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, flags)
	stop()
	if err != nil {
		fatal("Command failed: %v", err)
	}
}

func setupLogging(verbose, jsonLogs bool) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if !jsonLogs {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

// app bundles everything one command needs
type app struct {
	cfg       *Config
	conn      *sqlconn.Conn
	exec      *executor.Executor
	registry  *prometheus.Registry
	metrics   *metrics.Collector
	server    *http.Server
	publisher *resultlog.Publisher
	retryer   *retry.Retryer
}

func newApp(ctx context.Context, cfg *Config, metricsAddr string) (*app, error) {
	charset, err := odbc.ParseCharset(cfg.Options.Charset)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, registry: prometheus.NewRegistry()}
	a.metrics = metrics.New(a.registry)

	if metricsAddr == "" {
		metricsAddr = cfg.Metrics.Address
	}
	if metricsAddr != "" {
		a.serveMetrics(metricsAddr)
	}
	if cfg.ResultLog.Address != "" {
		a.publisher = resultlog.New(cfg.ResultLog)
	}

	a.retryer, err = newRetryer(cfg.Retry)
	if err != nil {
		a.Close()
		return nil, err
	}

	err = a.retryer.Do(ctx, func(ctx context.Context) error {
		conn, err := sqlconn.Open(ctx, sqlconn.Config{
			Driver:  cfg.Source.Driver,
			DSN:     cfg.Source.DSN,
			NoTotal: cfg.Source.NoTotal,
			Charset: charset,
		})
		a.conn = conn
		return err
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("connect to source: %w", err)
	}
	log.Debug().Str("driver", cfg.Source.Driver).Str("kind", string(cfg.Options.Kind)).Msg("source connected")

	a.exec, err = executor.New(a.conn, cfg.Options,
		executor.WithLogger(log.Logger.With().Str("component", "executor").Logger()),
		executor.WithMetrics(a.metrics),
	)
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// newRetryer logs every repeated connection attempt
func newRetryer(cfg retry.Config) (*retry.Retryer, error) {
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		log.Warn().Err(err).Int("attempt", attempt).Dur("delay", delay).Msg("connection failed, retrying")
	}
	return retry.NewRetryer(cfg)
}

func (a *app) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{Registry: a.registry}))
	a.server = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", addr).Msg("metrics server failed")
		}
	}()
	log.Info().Str("addr", addr).Msg("serving metrics")
}

// Close releases the source connection and the side services
func (a *app) Close() {
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			log.Warn().Err(err).Msg("close source connection")
		}
	}
	if a.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		a.server.Shutdown(ctx)
		cancel()
	}
	if a.publisher != nil {
		a.publisher.Close()
	}
}

// publish records the outcome of a batch or transfer in Redis. Failures
// to publish are logged, never returned.
func (a *app) publish(ctx context.Context, operation, subject string, started time.Time, ops int, rows int64, opErr error) {
	if a.publisher == nil {
		return
	}
	entry := resultlog.NewEntry(operation, subject, started, opErr)
	entry.Operations = ops
	entry.Rows = rows
	if opErr != nil {
		if state, ok := a.exec.TranslateState(opErr); ok {
			entry.SQLState = state
		}
	}
	if err := a.publisher.Publish(ctx, entry); err != nil {
		log.Warn().Err(err).Str("operation", operation).Msg("result log publish failed")
	}
}

func run(ctx context.Context, flags *Flags) error {
	cfg, err := LoadConfig(*flags.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if *flags.Schema != "" {
		cfg.Source.Schema = *flags.Schema
	}

	a, err := newApp(ctx, cfg, *flags.MetricsOut)
	if err != nil {
		return err
	}
	defer a.Close()

	switch {
	case *flags.Execute != "":
		n, err := a.exec.Execute(ctx, *flags.Execute, parseParams(*flags.Params)...)
		if err != nil {
			return describeError(a.exec, err)
		}
		log.Info().Int64("rows_affected", n).Msg("statement executed")

	case *flags.Query != "":
		res, err := a.exec.Query(ctx, *flags.Query, parseParams(*flags.Params)...)
		if err != nil {
			return describeError(a.exec, err)
		}
		return writeQuery(res, *flags.Output, *flags.Sheet, exportOptions(cfg, flags))

	case *flags.Describe != "":
		schema, table := splitTable(*flags.Describe, cfg.Source.Schema)
		desc, err := a.exec.Describe(ctx, schema, table)
		if err != nil {
			return describeError(a.exec, err)
		}
		return withOutput(*flags.Output, func(w *os.File) error { return writeDescribe(w, desc) })

	case *flags.Batch != "":
		ops, err := LoadBatch(*flags.Batch, cfg.Source.Schema)
		if err != nil {
			return err
		}
		started := time.Now()
		res, err := a.exec.Batch(ctx, ops)
		a.publish(ctx, "batch", *flags.Batch, started, len(ops), batchRows(res), err)
		if err != nil {
			return describeError(a.exec, err)
		}
		log.Info().Int("operations", len(ops)).Dur("elapsed", time.Since(started)).Msg("batch committed")
		return withOutput(*flags.Output, func(w *os.File) error { return writeBatch(w, res) })

	case *flags.Transfer != "":
		return a.transfer(ctx, flags)
	}
	return nil
}

func (a *app) transfer(ctx context.Context, flags *Flags) error {
	if a.cfg.Target.DSN == "" {
		return fmt.Errorf("target.dsn is required for -transfer")
	}
	strategy, err := adapters.ParseStrategy(*flags.Strategy)
	if err != nil {
		return err
	}

	var target adapters.Target
	err = a.retryer.Do(ctx, func(ctx context.Context) error {
		target, err = adapters.New(ctx, a.cfg.Target)
		return err
	})
	if err != nil {
		return fmt.Errorf("connect to target: %w", err)
	}
	defer target.Close(context.Background())

	if v, err := target.GetDatabaseVersion(ctx); err == nil {
		log.Debug().Str("target", target.GetDatabaseType()).Str("version", v).Msg("target connected")
	}

	schema, table := splitTable(*flags.Transfer, a.cfg.Source.Schema)
	t := transfer.New(a.exec, target,
		transfer.WithLogger(log.Logger.With().Str("component", "transfer").Logger()),
		transfer.WithMetrics(a.metrics),
	)

	started := time.Now()
	res, err := t.Run(ctx, transfer.Request{
		Schema:      schema,
		Table:       table,
		TargetTable: *flags.Target,
		Strategy:    strategy,
		ChunkSize:   *flags.ChunkSize,
	})
	var rows int64
	if res != nil {
		rows = res.Rows
	}
	a.publish(ctx, "transfer", *flags.Transfer, started, 1, rows, err)
	if err != nil {
		return describeError(a.exec, err)
	}
	fmt.Printf("✓ %s -> %s: %d rows, %d columns in %s\n", res.Source, res.Target, res.Rows, res.Columns, res.Duration.Round(time.Millisecond))
	return nil
}

// describeError appends the PostgreSQL SQLSTATE to driver failures. Target
// errors already carry a PostgreSQL state and are reported as is.
func describeError(e *executor.Executor, err error) error {
	if state, ok := e.TranslateState(err); ok {
		return fmt.Errorf("%w (sqlstate %s)", err, state)
	}
	var de *errs.DriverError
	if errors.As(err, &de) && de.State() != "" {
		return fmt.Errorf("%w (sqlstate %s)", err, de.State())
	}
	return err
}

// parseParams splits a comma-separated parameter list. \N stands for NULL.
func parseParams(s string) []types.ColumnValue {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	params := make([]types.ColumnValue, len(parts))
	for i, p := range parts {
		if p == `\N` {
			params[i] = types.Null(types.KindText)
			continue
		}
		params[i] = types.TextValue(p)
	}
	return params
}

// splitTable splits SCHEMA.TABLE; a bare name takes the default schema
func splitTable(name, defaultSchema string) (string, string) {
	if schema, table, ok := strings.Cut(name, "."); ok {
		return schema, table
	}
	return defaultSchema, name
}

// createConfigTemplate creates a sample configuration file
func createConfigTemplate(driver, path string) {
	switch driver {
	case "odbc", "pgx", "sqlite", "sqlserver", "mysql":
	default:
		fatal("Unknown driver %q (want odbc, pgx, sqlite, sqlserver or mysql)", driver)
	}
	if _, err := os.Stat(path); err == nil {
		fatal("%s already exists", path)
	}

	if err := SaveConfig(path, CreateSampleConfig(driver)); err != nil {
		fatal("Failed to save config: %v", err)
	}

	fmt.Printf("✓ Created sample %s config: %s\n", driver, path)
	fmt.Println("Edit the file with your database credentials and run:")
	fmt.Printf("  dmbridge -describe SYSDBA.MYTABLE -config %s\n", path)
}

// fatal prints error and exits
func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
