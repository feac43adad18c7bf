// Package providerinit registers the built-in providers. It lives apart from
// the provider package to avoid import cycles.
package providerinit

import (
	"fmt"

	"github.com/Digital-Shane/metamerge/internal/config"
	"github.com/Digital-Shane/metamerge/internal/provider"
	"github.com/Digital-Shane/metamerge/internal/provider/ffprobe"
	"github.com/Digital-Shane/metamerge/internal/provider/omdb"
	"github.com/Digital-Shane/metamerge/internal/provider/tmdb"
	"github.com/Digital-Shane/metamerge/internal/provider/tvdb"
	"github.com/rs/zerolog"
)

// Builtin returns a fresh instance of every built-in provider.
func Builtin() []provider.Provider {
	return []provider.Provider{
		tmdb.New(),
		tvdb.New(),
		omdb.New(),
		ffprobe.New(),
	}
}

// LoadBuiltinProviders registers the built-in providers into reg and enables
// those the configuration turns on. A provider whose configuration fails is
// left registered but disabled.
func LoadBuiltinProviders(reg *provider.Registry, cfg *config.Config, logger zerolog.Logger) error {
	return load(reg, cfg, logger, Builtin())
}

func load(reg *provider.Registry, cfg *config.Config, logger zerolog.Logger, providers []provider.Provider) error {
	for _, p := range providers {
		name := p.Name()
		if err := reg.Register(p, p.Capabilities().Priority); err != nil {
			return fmt.Errorf("failed to register %s provider: %w", name, err)
		}

		pc, ok := cfg.Provider(name)
		if !ok || !pc.Enabled {
			logger.Debug().Str("provider", name).Msg("provider disabled")
			continue
		}

		if err := reg.Configure(name, cfg.ProviderSettings(name)); err != nil {
			logger.Warn().Err(err).Str("provider", name).Msg("provider left disabled")
			continue
		}
		if err := reg.Enable(name); err != nil {
			logger.Warn().Err(err).Str("provider", name).Msg("provider left disabled")
			continue
		}
		logger.Debug().Str("provider", name).Msg("provider enabled")
	}

	return nil
}
