package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/metrics"
	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/classifier"
	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/repository/postgres"
	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/service/addresses"
	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type config struct {
	Config      string `long:"config" env:"ADDRESS_REPORT_CONFIG" description:"INI config file; command line flags take precedence"`
	PostgresDSN string `long:"postgres-dsn" env:"ADDRESS_REPORT_POSTGRES_DSN" description:"Postgres DSN of the address record store"`
	Deduplicate bool   `long:"deduplicate" env:"ADDRESS_REPORT_DEDUPLICATE" description:"collapse address records into one row per address before exporting"`
	ExportDir   string `long:"export-dir" env:"ADDRESS_REPORT_EXPORT_DIR" description:"directory for CSV exports, empty to skip exports" default:"reports"`
	TypesFile   string `long:"types-file" env:"ADDRESS_REPORT_TYPES_FILE" description:"script type registry CSV" default:"types.csv"`
	MetricsAddr string `long:"metrics-listen-addr" env:"ADDRESS_REPORT_METRICS_ADDR" description:"address for metrics server" default:":2113"`
	LogJSON     bool   `long:"log-json" env:"ADDRESS_REPORT_LOG_JSON" description:"production JSON logging"`
}

func main() {
	cfg := config{}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := parseConfig(&cfg, os.Args[1:]); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := zap.NewDevelopment()
	if cfg.LogJSON {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic("can't initialize zap logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync()
	}()

	if cfg.PostgresDSN == "" {
		logger.Fatal("Postgres DSN is required")
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("address report failed", zap.Error(err))
	}
}

func parseConfig(cfg *config, args []string) error {
	var pre struct {
		Config string `long:"config" env:"ADDRESS_REPORT_CONFIG"`
	}
	if _, err := flags.NewParser(&pre, flags.IgnoreUnknown).ParseArgs(args); err != nil {
		return err
	}

	parser := flags.NewParser(cfg, flags.Default)
	if pre.Config != "" {
		if err := flags.NewIniParser(parser).ParseFile(pre.Config); err != nil {
			return fmt.Errorf("parse config file %s: %w", pre.Config, err)
		}
	}
	_, err := parser.ParseArgs(args)
	return err
}

func run(ctx context.Context, cfg config, logger *zap.Logger) error {
	startMetricsServer(ctx, cfg.MetricsAddr, logger)

	registry, err := classifier.LoadTypeRegistry(cfg.TypesFile)
	if err != nil {
		return fmt.Errorf("load type registry: %w", err)
	}

	store, err := postgres.NewRepository(ctx, cfg.PostgresDSN, metrics.NewPostgresRepository())
	if err != nil {
		return fmt.Errorf("init address store: %w", err)
	}
	defer store.Close()

	svc, err := addresses.NewService(store, registry.Types(), addresses.Config{
		Deduplicate: cfg.Deduplicate,
		ExportDir:   cfg.ExportDir,
	}, logger.Named("addresses"))
	if err != nil {
		return err
	}

	rep, err := svc.Run(ctx)
	if err != nil {
		return err
	}
	for name, rows := range rep.Files {
		logger.Info("exported", zap.String("file", name), zap.Int("rows", rows))
	}
	return nil
}

func startMetricsServer(ctx context.Context, addr string, logger *zap.Logger) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("starting metrics server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown metrics server", zap.Error(err))
		}
	}()
}
