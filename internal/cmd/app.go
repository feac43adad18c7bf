package cmd

import (
	"fmt"

	"github.com/Digital-Shane/metamerge/internal/config"
	"github.com/Digital-Shane/metamerge/internal/core"
	"github.com/Digital-Shane/metamerge/internal/log"
	"github.com/Digital-Shane/metamerge/internal/provider"
	providerinit "github.com/Digital-Shane/metamerge/internal/provider/init"
)

// app is the wired aggregation stack used by one command run.
type app struct {
	cfg        *config.Config
	logger     *log.Logger
	registry   *provider.Registry
	pool       *core.Pool
	aggregator *core.Aggregator
}

func loadConfig(opts globalOptions) (*config.Config, error) {
	if opts.configPath != "" {
		return config.LoadFrom(opts.configPath)
	}
	return config.Load()
}

// newApp loads the configuration, opens the logger and registers the
// built-in providers.
func newApp(opts globalOptions) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	if opts.language != "" {
		cfg.Language = opts.language
	}

	level := cfg.LogLevel
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	logger, err := log.New(log.Options{
		Level:         level,
		FileEnabled:   cfg.EnableLogging,
		RetentionDays: cfg.LogRetentionDays,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open log: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		logger.Warn().Err(err).Msg("configuration problems")
	}

	registry := provider.NewRegistry()
	if err := providerinit.LoadBuiltinProviders(registry, cfg, logger.Component("providers")); err != nil {
		logger.Close()
		return nil, err
	}

	return assemble(cfg, logger, registry), nil
}

// assemble builds the pool and aggregator over an already populated registry.
func assemble(cfg *config.Config, logger *log.Logger, registry *provider.Registry) *app {
	pool := core.NewPool(cfg.MinWorkers, cfg.MaxWorkers)
	return &app{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		pool:     pool,
		aggregator: core.NewAggregator(core.AggregatorConfig{
			Registry: registry,
			Pool:     pool,
			Settings: cfg,
			Enabled:  cfg.Enabled,
			Logger:   &logger.Logger,
		}),
	}
}

// request starts a FetchRequest carrying the configured locale.
func (a *app) request(mediaType provider.MediaType) *provider.FetchRequest {
	return &provider.FetchRequest{
		MediaType: mediaType,
		Language:  a.cfg.Language,
		Country:   a.cfg.Country,
		IDs:       make(map[string]string),
	}
}

// Close stops the pool and flushes the log file.
func (a *app) Close() {
	a.aggregator.Close()
	a.pool.Close()
	a.logger.Close()
}
