package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/btcsuite/btcd/rpcclient"
	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/metrics"
	rpcclient2 "github.com/goodnatureofminers/blockinsight7000-eventscan/internal/pkg/btcd/rpcclient"
	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/bitcoin"
	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/cache/pebble"
	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/chain"
	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/classifier"
	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/eventfile"
	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/model"
	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/report"
	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/repository/clickhouse"
	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/repository/postgres"
	"github.com/goodnatureofminers/blockinsight7000-eventscan/internal/utxo/service/eventscan"
	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const nodePollInterval = 5 * time.Second

type config struct {
	Config string `long:"config" env:"EVENTSCAN_CONFIG" description:"INI config file; command line flags take precedence"`

	Coin         model.Coin    `long:"coin" env:"EVENTSCAN_COIN" description:"coin name" default:"BTC"`
	Network      model.Network `long:"network" env:"EVENTSCAN_NETWORK" description:"network name" default:"mainnet"`
	RPCURL       string        `long:"rpc-url" env:"EVENTSCAN_RPC_URL" description:"Bitcoin RPC URL" default:"http://127.0.0.1:8332"`
	RPCUser      string        `long:"rpc-user" env:"EVENTSCAN_RPC_USER" description:"Bitcoin RPC username"`
	RPCPassword  string        `long:"rpc-password" env:"EVENTSCAN_RPC_PASSWORD" description:"Bitcoin RPC password"`
	RPCRateLimit int           `long:"rpc-rate-limit" env:"EVENTSCAN_RPC_RATE_LIMIT" description:"max RPC requests per second, 0 for unlimited" default:"0"`

	PostgresDSN   string `long:"postgres-dsn" env:"EVENTSCAN_POSTGRES_DSN" description:"Postgres DSN of the address record store"`
	ClickhouseDSN string `long:"clickhouse-dsn" env:"EVENTSCAN_CLICKHOUSE_DSN" description:"ClickHouse DSN for event summaries"`

	EventsFile string `long:"events-file" env:"EVENTSCAN_EVENTS_FILE" description:"event list CSV"`
	JobsFile   string `long:"jobs-file" env:"EVENTSCAN_JOBS_FILE" description:"batch job list CSV"`
	TypesFile  string `long:"types-file" env:"EVENTSCAN_TYPES_FILE" description:"script type registry CSV" default:"types.csv"`
	SummaryCSV string `long:"summary-csv" env:"EVENTSCAN_SUMMARY_CSV" description:"summary CSV output"`

	MinTransfer     string        `long:"min-transfer" env:"EVENTSCAN_MIN_TRANSFER" description:"minimum transaction value, none to disable" default:"10.0"`
	MaxTransfer     string        `long:"max-transfer" env:"EVENTSCAN_MAX_TRANSFER" description:"maximum transaction value, none to disable" default:"100.0"`
	TimeBeforeEvent time.Duration `long:"time-before-event" env:"EVENTSCAN_TIME_BEFORE_EVENT" description:"lookback window before each event" default:"84000s"`

	CommitEveryBlocks      int64         `long:"commit-every-blocks" env:"EVENTSCAN_COMMIT_EVERY_BLOCKS" description:"commit address records every N blocks" default:"100"`
	FlushSize              int           `long:"flush-size" env:"EVENTSCAN_FLUSH_SIZE" description:"commit address records every N records" default:"1000"`
	AverageTransactionTime time.Duration `long:"average-transaction-time" env:"EVENTSCAN_AVERAGE_TRANSACTION_TIME" description:"initial per-transaction time estimate" default:"120ms"`
	EWMAAlpha              float64       `long:"ewma-alpha" env:"EVENTSCAN_EWMA_ALPHA" description:"weight of the latest event in the time estimate" default:"0.1"`

	ResolveSpent    bool   `long:"resolve-spent" env:"EVENTSCAN_RESOLVE_SPENT" description:"check whether recorded outputs are spent"`
	EventTimezone   string `long:"event-timezone" env:"EVENTSCAN_EVENT_TIMEZONE" description:"time zone of event list timestamps" default:"UTC"`
	OutputCacheDir  string `long:"output-cache-dir" env:"EVENTSCAN_OUTPUT_CACHE_DIR" description:"on-disk output value cache, empty for in-memory"`
	OutputCacheSize int    `long:"output-cache-size" env:"EVENTSCAN_OUTPUT_CACHE_SIZE" description:"in-memory output value cache capacity" default:"100000"`

	MetricsAddr     string        `long:"metrics-listen-addr" env:"EVENTSCAN_METRICS_ADDR" description:"address for metrics server" default:":2112"`
	NodeWaitTimeout time.Duration `long:"node-wait-timeout" env:"EVENTSCAN_NODE_WAIT_TIMEOUT" description:"how long to wait for the node at startup" default:"5m"`
	LogJSON         bool          `long:"log-json" env:"EVENTSCAN_LOG_JSON" description:"production JSON logging"`
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

	logger, err := newLogger(cfg.LogJSON)
	if err != nil {
		panic("can't initialize zap logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync()
	}()

	if cfg.PostgresDSN == "" {
		logger.Fatal("Postgres DSN is required")
	}
	if cfg.EventsFile == "" {
		logger.Fatal("events file is required")
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("event scanner failed", zap.Error(err))
	}
}

// parseConfig reads the optional INI file first and the command line second.
func parseConfig(cfg *config, args []string) error {
	var pre struct {
		Config string `long:"config" env:"EVENTSCAN_CONFIG"`
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

func newLogger(json bool) (*zap.Logger, error) {
	if json {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func run(ctx context.Context, cfg config, logger *zap.Logger) error {
	network, err := cfg.Network.Normalize()
	if err != nil {
		return err
	}
	cfg.Network = network

	startMetricsServer(ctx, cfg.MetricsAddr, logger)

	loc, err := time.LoadLocation(cfg.EventTimezone)
	if err != nil {
		return fmt.Errorf("load event timezone: %w", err)
	}

	defaults, err := defaultJob(cfg)
	if err != nil {
		return err
	}

	records, err := eventfile.ReadEventsFile(cfg.EventsFile)
	if err != nil {
		return fmt.Errorf("read events: %w", err)
	}
	jobs := []model.Job{defaults}
	if cfg.JobsFile != "" {
		jobs, err = eventfile.ReadJobsFile(cfg.JobsFile, defaults, logger.Named("jobs"))
		if err != nil {
			return fmt.Errorf("read jobs: %w", err)
		}
	}

	registry, err := classifier.LoadTypeRegistry(cfg.TypesFile)
	if err != nil {
		return fmt.Errorf("load type registry: %w", err)
	}
	defer func() {
		if len(registry.Added()) == 0 {
			return
		}
		if err := registry.Save(cfg.TypesFile); err != nil {
			logger.Error("failed to save type registry", zap.Error(err))
			return
		}
		logger.Info("type registry updated", zap.Strings("added", registry.Added()))
	}()

	rpcClient, err := newRPCClient(cfg.RPCURL, cfg.RPCUser, cfg.RPCPassword)
	if err != nil {
		return fmt.Errorf("init utxo rpc client: %w", err)
	}
	defer func() {
		rpcClient.Shutdown()
		rpcClient.WaitForShutdown()
	}()
	rpc := rpcclient2.NewObservedClient(rpcClient, metrics.NewRPCClient(cfg.Coin, cfg.Network), cfg.RPCRateLimit)

	decoder, err := bitcoin.NewScriptDecoder(cfg.Network)
	if err != nil {
		return err
	}
	source := bitcoin.NewSource(bitcoin.NewOutputConverter(decoder), rpc, cfg.Network)

	tip, err := bitcoin.WaitForNode(ctx, source, cfg.NodeWaitTimeout, nodePollInterval, logger.Named("node"))
	if err != nil {
		return fmt.Errorf("wait for node: %w", err)
	}
	logger.Info("node ready", zap.Int64("tip", tip))

	var cache chain.OutputCache
	if cfg.OutputCacheDir != "" {
		disk, err := pebble.Open(cfg.OutputCacheDir)
		if err != nil {
			return fmt.Errorf("open output cache: %w", err)
		}
		defer func() {
			if err := disk.Close(); err != nil {
				logger.Error("failed to close output cache", zap.Error(err))
			}
		}()
		cache = disk
	} else {
		cache = chain.NewMemoryCache(cfg.OutputCacheSize)
	}

	var spent classifier.SpentChecker
	if cfg.ResolveSpent {
		spent = source
	}
	resolver := chain.NewInputValueResolver(source, cache, logger.Named("resolver"))
	cls := classifier.New(resolver, registry, spent, logger.Named("classifier"))
	scanner := chain.NewWindowScanner(chain.NewBlockLocator(source), source, logger.Named("scanner"))

	store, err := postgres.NewRepository(ctx, cfg.PostgresDSN, metrics.NewPostgresRepository())
	if err != nil {
		return fmt.Errorf("init address store: %w", err)
	}
	defer store.Close()

	var sinks []eventscan.SummaryWriter
	if cfg.ClickhouseDSN != "" {
		repo, err := clickhouse.NewRepository(cfg.ClickhouseDSN, metrics.NewClickhouseRepository(cfg.Coin, cfg.Network))
		if err != nil {
			return fmt.Errorf("init summary repository: %w", err)
		}
		defer func() {
			_ = repo.Close()
		}()
		sinks = append(sinks, repo)
	}
	if cfg.SummaryCSV != "" {
		sinks = append(sinks, report.NewSummaryFile(cfg.SummaryCSV))
	}
	if len(sinks) == 0 {
		logger.Warn("no summary output configured")
	}

	svc, err := eventscan.NewService(
		scanner,
		cls,
		store,
		sinks,
		metrics.NewEventScanner(),
		eventscan.Config{
			Coin:                   cfg.Coin,
			Network:                cfg.Network,
			Location:               loc,
			CommitEveryBlocks:      cfg.CommitEveryBlocks,
			FlushSize:              cfg.FlushSize,
			AverageTransactionTime: cfg.AverageTransactionTime,
			EWMAAlpha:              cfg.EWMAAlpha,
		},
		logger.Named("eventscan"),
	)
	if err != nil {
		return err
	}

	_, err = svc.Run(ctx, jobs, records)
	if errors.Is(err, context.Canceled) {
		logger.Info("interrupted; buffered records committed")
		return nil
	}
	return err
}

func defaultJob(cfg config) (model.Job, error) {
	minTransfer, err := parseBound(cfg.MinTransfer)
	if err != nil {
		return model.Job{}, fmt.Errorf("parse min transfer: %w", err)
	}
	maxTransfer, err := parseBound(cfg.MaxTransfer)
	if err != nil {
		return model.Job{}, fmt.Errorf("parse max transfer: %w", err)
	}
	return model.Job{
		Name:            model.DefaultJobName,
		Filter:          model.ValueFilter{Min: minTransfer, Max: maxTransfer},
		TimeBeforeEvent: cfg.TimeBeforeEvent,
	}, nil
}

func parseBound(raw string) (*decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "none") {
		return nil, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
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

func newRPCClient(rawURL, user, password string) (*rpcclient.Client, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse rpc url: %w", err)
	}
	if parsed.Scheme != "http" {
		return nil, fmt.Errorf("rpc url scheme %q not supported, use http", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, errors.New("rpc url missing host")
	}

	cfg := &rpcclient.ConnConfig{
		Host:         parsed.Host,
		User:         user,
		Pass:         password,
		HTTPPostMode: true,
		DisableTLS:   true,
	}

	return rpcclient.New(cfg, nil)
}
