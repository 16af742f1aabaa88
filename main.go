package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"sjsage522/catalogworker/config"
	"sjsage522/catalogworker/internal/extract"
	"sjsage522/catalogworker/internal/pipeline"
	"sjsage522/catalogworker/logger"
	"sjsage522/catalogworker/pkg/errors"
	"sjsage522/catalogworker/services/cache"
	"sjsage522/catalogworker/services/export"
	"sjsage522/catalogworker/services/metrics"
	"sjsage522/catalogworker/services/publisher"
	"sjsage522/catalogworker/services/worker"
)

var flags struct {
	input       string
	output      string
	filters     string
	mergePolicy string
	interval    time.Duration
}

var rootCmd = &cobra.Command{
	Use:   "catalogworker",
	Short: "Normalize a raw memory product export into the catalog",
	Long: `Read the raw catalog export, reconcile products and their variants into
one record per identifier and write the sorted catalog document, the brand
filter sidecar and any configured optional sinks.

Examples:
  catalogworker
  catalogworker run --input data/raw.json --output data/memory-cards.json
  catalogworker run --interval 1h --merge-policy replace
  catalogworker filters`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runCatalog,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the catalog pipeline (default)",
	RunE:  runCatalog,
}

var filtersCmd = &cobra.Command{
	Use:   "filters",
	Short: "Regenerate the brand filter sidecar from an existing catalog",
	RunE:  runFilters,
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&flags.input, "input", "", "raw catalog export (overrides INPUT_PATH)")
	f.StringVar(&flags.output, "output", "", "catalog document to write (overrides OUTPUT_PATH)")
	f.StringVar(&flags.filters, "filters", "", "brand filter sidecar to write (overrides FILTERS_PATH)")
	f.StringVar(&flags.mergePolicy, "merge-policy", "", `repeated variant policy: "merge" or "replace" (overrides MERGE_POLICY)`)
	f.DurationVar(&flags.interval, "interval", 0, "repeat the run on this interval (overrides RUN_INTERVAL_SECONDS)")

	rootCmd.AddCommand(runCmd, filtersCmd)
}

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()

	if err := rootCmd.Execute(); err != nil {
		stage := "cli"
		if pe, ok := errors.As(err); ok {
			stage = pe.Stage
		}
		logger.LogError(stage, err, "Catalog worker failed")
		os.Exit(1)
	}
}

// loadConfig reads the environment configuration and applies command line overrides
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.LoadConfig()

	f := cmd.Flags()
	if f.Changed("input") {
		cfg.InputPath = flags.input
	}
	if f.Changed("output") {
		cfg.OutputPath = flags.output
	}
	if f.Changed("filters") {
		cfg.FiltersPath = flags.filters
	}
	if f.Changed("merge-policy") {
		cfg.MergePolicy = flags.mergePolicy
	}
	if f.Changed("interval") {
		cfg.RunInterval = flags.interval
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runCatalog(cmd *cobra.Command, _ []string) error {
	log := logger.Default

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("input", cfg.InputPath).
		Str("output", cfg.OutputPath).
		Str("merge_policy", cfg.MergePolicy).
		Dur("interval", cfg.RunInterval).
		Msg("Starting catalog worker")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	services := initializeServices(ctx, cfg)
	defer services.Cleanup()

	canonicalizer := extract.NewCanonicalizer(cfg.AffiliateTag, cfg.TrackingParams, logger.ForPipeline())
	w := worker.NewWorker(worker.Options{
		InputPath:   cfg.InputPath,
		Processor:   pipeline.NewProcessor(canonicalizer, cfg.DefaultVoltage),
		MergePolicy: pipeline.MergePolicy(cfg.MergePolicy),
		Outputs: []export.Sink{
			export.NewCatalogSink(cfg.OutputPath),
			export.NewFiltersSink(cfg.FiltersPath),
		},
		Sinks:       services.Sinks,
		Feed:        services.Feed,
		Metrics:     metrics.New(),
		MetricsPath: cfg.MetricsPath,
		Interval:    cfg.RunInterval,
		Logger:      logger.ForWorker(),
	})

	if err := w.Start(ctx); err != nil {
		return err
	}

	log.Info().Msg("Shutting down gracefully...")
	return nil
}

func runFilters(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	doc, err := export.ReadCatalog(cfg.OutputPath)
	if err != nil {
		return err
	}
	doc.GeneratedAt = time.Now()

	if err := export.NewFiltersSink(cfg.FiltersPath).Write(cmd.Context(), doc); err != nil {
		return err
	}

	logger.Default.Info().
		Str("path", cfg.FiltersPath).
		Int("brands", len(export.Brands(doc.Data))).
		Msg("Product filters saved")
	return nil
}

// Services holds the optional services enabled by configuration
type Services struct {
	Sinks     []export.Sink
	Feed      *publisher.ChangeFeed
	Publisher publisher.Publisher
	Postgres  *export.PostgresSink
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		s.Publisher.Close()
	}
	if s.Postgres != nil {
		s.Postgres.Close()
	}
}

// initializeServices sets up every optional sink and the change feed.
// A service that cannot be reached is logged and left out of the run.
func initializeServices(ctx context.Context, cfg *config.Config) *Services {
	services := &Services{}

	if cfg.SQLitePath != "" {
		services.Sinks = append(services.Sinks, export.NewSQLiteSink(cfg.SQLitePath))
	}
	if cfg.XLSXPath != "" {
		services.Sinks = append(services.Sinks, export.NewXLSXSink(cfg.XLSXPath))
	}
	if cfg.DatabaseURL != "" {
		pg, err := export.NewPostgresSink(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.ForExport("postgres").Warn().Err(err).Msg("Postgres sink disabled")
		} else {
			services.Postgres = pg
			services.Sinks = append(services.Sinks, pg)
		}
	}

	if cfg.RedisAddr == "" {
		return services
	}

	// Initialize publisher
	redisPublisher := publisher.NewRedisPublisher(
		cfg.RedisAddr,
		cfg.RedisDB,
		cfg.RedisStream,
		cfg.RedisStreamCount,
		cfg.RedisStreamMaxLength,
	)
	if err := redisPublisher.Ping(ctx); err != nil {
		logger.ForPublisher().Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis unavailable, change feed disabled")
		redisPublisher.Close()
		return services
	}
	services.Publisher = redisPublisher

	logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
		cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)

	// Initialize cache service
	var cacheService cache.CacheService = cache.NewMemoryCache()
	if cfg.MemcacheAddr != "" {
		mc := cache.NewMemcacheService(cfg.MemcacheAddr)
		if err := mc.Ping(); err != nil {
			logger.ForCache().Warn().Err(err).Str("addr", cfg.MemcacheAddr).Msg("Memcache unavailable, using in-process cache")
		} else {
			cacheService = mc
			logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
		}
	}

	services.Feed = publisher.NewChangeFeed(redisPublisher, cacheService, cfg.CacheTTL, logger.ForPublisher())
	return services
}
