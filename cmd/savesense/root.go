package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"savesense/internal/config"
	"savesense/internal/enrich"
	"savesense/internal/metrics"
	"savesense/internal/pipeline"
	"savesense/internal/scraper"
	"savesense/internal/storage"
)

var (
	// configDir is the directory searched for config.yaml.
	configDir string

	rootCmd = &cobra.Command{
		Use:           "savesense",
		Short:         "Save shared links, text and files with their metadata",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command until it finishes or the process is interrupted.
func Execute() error {
	// A missing .env is fine; the environment may be set another way.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "./configs", "directory containing config.yaml")

	rootCmd.AddCommand(botCommand())
	rootCmd.AddCommand(shareCommand())
	rootCmd.AddCommand(listCommand())
}

// app bundles the components shared by all subcommands.
type app struct {
	cfg      config.Config
	log      *logrus.Logger
	repo     *storage.BadgerRepository
	metrics  *metrics.Metrics
	pipeline *pipeline.Pipeline
}

func newLogger(level string) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stderr)
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	log.SetLevel(lvl)
	return log, nil
}

// setup loads configuration, opens the store and assembles the pipeline.
// The caller must call close.
func setup() (*app, error) {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"badgerdb_path":    cfg.BadgerDBPath,
		"browser_fallback": cfg.BrowserFallback,
	}).Debug("Configuration loaded successfully")

	repo, err := storage.NewBadgerRepository(cfg.BadgerDBPath, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	m := metrics.New()
	client := scraper.NewClient(log, scraper.WithTimeout(cfg.HTTPTimeout))

	var browser scraper.Fetcher
	if cfg.BrowserFallback {
		browser = scraper.NewBrowserFetcher(log, cfg.HTTPTimeout)
	}

	orchestrator := enrich.NewOrchestrator(
		scraper.NewOpenGraph(client, browser, log),
		m,
		log,
		enrich.NewTwitter(client),
		enrich.NewInstagram(client),
		enrich.NewReddit(client, log),
	)

	return &app{
		cfg:      cfg,
		log:      log,
		repo:     repo,
		metrics:  m,
		pipeline: pipeline.New(orchestrator, repo, m, log),
	}, nil
}

func (a *app) close() {
	if err := a.repo.Close(); err != nil {
		a.log.WithError(err).Error("Error closing database")
	}
}
