package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jgoulah/powerdash/internal/aggregate"
	"github.com/jgoulah/powerdash/internal/config"
	"github.com/jgoulah/powerdash/internal/database"
	"github.com/jgoulah/powerdash/internal/logger"
	"github.com/jgoulah/powerdash/internal/source"
	"github.com/jgoulah/powerdash/pkg/models"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	dbPath    string
	sourceArg string
	offline   bool
	format    string
	logLevel  string
)

var rootCmd = &cobra.Command{
	Use:   "powerdash",
	Short: "Electrical sensor dashboard with tiered daily cost",
	Long: `PowerDash reads voltage, current, power, energy, frequency and power factor samples
from a meter backend and derives a tiered daily cost from the cumulative energy reading.
Readings can be cached in a local SQLite database and published to MQTT or Home Assistant.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database file (default is ./data.db)")
	rootCmd.PersistentFlags().StringVar(&sourceArg, "source", "", "readings URL or JSON file (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "read from the local database instead of the source")
	rootCmd.PersistentFlags().StringVar(&format, "format", "", "output format: table or json (default: table on a terminal)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}

// getConfigPath returns the config file path
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigPath()
}

// getDBPath returns the database file path (local directory)
func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	return "data.db"
}

// loadConfig loads the configuration file
func loadConfig() (*config.Config, error) {
	return config.Load(getConfigPath())
}

// openDB opens the database connection
func openDB() (*database.DB, error) {
	path := getDBPath()

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	return database.New(path)
}

// newLogger builds the logger from --log-level or the config
func newLogger(cfg *config.Config) *logger.Logger {
	if logLevel != "" {
		return logger.New(logLevel)
	}
	return logger.New(cfg.GetLogLevel())
}

// outputFormat resolves --format, defaulting to json when stdout is not a terminal
func outputFormat() (string, error) {
	switch format {
	case "table", "json":
		return format, nil
	case "":
		fd := os.Stdout.Fd()
		if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
			return "table", nil
		}
		return "json", nil
	default:
		return "", fmt.Errorf("unknown format: %s (available: table, json)", format)
	}
}

// newSource picks the reading source: explicit --source, then config file, then config URL
func newSource(cfg *config.Config, log *logger.Logger) (source.Source, func(), error) {
	loc, err := cfg.GetLocation()
	if err != nil {
		return nil, nil, err
	}

	if offline {
		db, err := openDB()
		if err != nil {
			return nil, nil, fmt.Errorf("opening database: %w", err)
		}
		return source.NewDBSource(db, getDBPath(), loc), func() { db.Close() }, nil
	}

	target := sourceArg
	if target == "" {
		target = cfg.Source.File
	}
	if target == "" {
		target = cfg.GetSourceURL()
	}

	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		src := source.NewHTTPSource(target,
			source.WithTimeout(cfg.GetTimeout()),
			source.WithRetries(cfg.GetRetries(), 0),
			source.WithLocation(loc),
			source.WithLogger(log),
		)
		return src, func() {}, nil
	}

	return source.NewFileSource(target, loc, log), func() {}, nil
}

// newAggregator builds an aggregator for the configured tariff
func newAggregator(cfg *config.Config) (*aggregate.Aggregator, error) {
	sched, err := cfg.GetSchedule()
	if err != nil {
		return nil, err
	}
	return aggregate.New(sched), nil
}

// session is what every view command needs
type session struct {
	cfg        *config.Config
	log        *logger.Logger
	aggregator *aggregate.Aggregator
	readings   []models.Reading
	format     string
}

// loadSession loads config, fetches readings and prepares the aggregator
func loadSession(ctx context.Context) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	log := newLogger(cfg)

	outFormat, err := outputFormat()
	if err != nil {
		return nil, err
	}

	agg, err := newAggregator(cfg)
	if err != nil {
		return nil, err
	}

	src, closeSrc, err := newSource(cfg, log)
	if err != nil {
		return nil, err
	}
	defer closeSrc()

	readings, err := src.FetchReadings(ctx)
	if err != nil {
		return nil, err
	}
	log.Debugw("loaded readings", "count", len(readings), "offline", offline)

	return &session{cfg: cfg, log: log, aggregator: agg, readings: readings, format: outFormat}, nil
}

// annotated prices the session readings, logging any that were rejected
func (s *session) annotated() []models.AnnotatedReading {
	annotated, err := s.aggregator.Annotate(s.readings)
	if err != nil {
		s.log.Warnw("excluded readings", "err", err)
	}
	return annotated
}
