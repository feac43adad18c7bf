package core

import (
	"context"

	"github.com/Digital-Shane/metamerge/internal/provider"
	"github.com/rs/zerolog"
)

// bridgeNamespaces lists the namespaces a bridging provider can translate
// between, in the order a known id is preferred for the bridge call.
var bridgeNamespaces = []string{provider.NamespaceTMDB, provider.NamespaceIMDB}

// selectedProvider is a provider chosen to take part in one aggregation call.
type selectedProvider struct {
	id      string
	fetcher provider.Fetcher
	caps    provider.ProviderCapabilities
}

// selectProviders returns the providers referenced by fc that are registered,
// enabled, able to fetch and support the requested media type.
func selectProviders(reg *provider.Registry, fc *FieldConfig, mediaType provider.MediaType, logger zerolog.Logger) []selectedProvider {
	var selected []selectedProvider
	for _, id := range fc.ReferencedProviders() {
		p, ok := reg.Get(id)
		if !ok {
			logger.Debug().Str("provider", id).Msg("referenced provider is not registered")
			continue
		}
		if !reg.IsEnabled(id) {
			logger.Debug().Str("provider", id).Msg("referenced provider is disabled")
			continue
		}
		fetcher, ok := p.(provider.Fetcher)
		if !ok {
			logger.Debug().Str("provider", id).Msg("referenced provider cannot fetch metadata")
			continue
		}
		caps := p.Capabilities()
		if mediaType != "" && !caps.SupportsMediaType(mediaType) {
			logger.Debug().Str("provider", id).Str("media_type", string(mediaType)).Msg("provider does not support media type")
			continue
		}
		selected = append(selected, selectedProvider{id: id, fetcher: fetcher, caps: caps})
	}
	return selected
}

// resolveIdentifiers makes sure req carries the identifiers the selected
// providers need. Missing tmdb or imdb ids are looked up with a single call to
// the bridge provider and written into req. The bridge result is returned
// keyed by the bridge provider id so it is not fetched a second time.
// Providers whose required namespace is still unknown are dropped.
func (a *Aggregator) resolveIdentifiers(ctx context.Context, fc *FieldConfig, req *provider.FetchRequest) ([]selectedProvider, map[string]*provider.Metadata) {
	selected := selectProviders(a.registry, fc, req.MediaType, a.logger)
	prefetched := make(map[string]*provider.Metadata)

	needed := make(map[string]bool)
	for _, sp := range selected {
		if sp.caps.RequiredID != "" {
			needed[sp.caps.RequiredID] = true
		}
	}

	var missing []string
	known := ""
	for _, ns := range bridgeNamespaces {
		switch {
		case req.HasID(ns):
			if known == "" {
				known = ns
			}
		case needed[ns]:
			missing = append(missing, ns)
		}
	}

	if len(missing) > 0 && known != "" {
		bridgeID := fc.BridgeProvider()
		if result := a.bridge(ctx, bridgeID, known, req); result != nil {
			prefetched[bridgeID] = result
			for _, ns := range missing {
				value := result.IDs[ns]
				if !provider.ValidID(ns, value) {
					continue
				}
				req.SetID(ns, value)
				a.logger.Debug().Str("namespace", ns).Str("id", value).Msg("identifier resolved through bridge")
			}
		}
	}

	kept := selected[:0]
	for _, sp := range selected {
		if sp.caps.RequiredID != "" && !req.HasID(sp.caps.RequiredID) {
			a.logger.Debug().Str("provider", sp.id).Str("namespace", sp.caps.RequiredID).Msg("skipping provider without required identifier")
			continue
		}
		kept = append(kept, sp)
	}

	return kept, prefetched
}

// bridge fetches from the bridge provider using only the known identifier.
// Failures are logged and yield nil.
func (a *Aggregator) bridge(ctx context.Context, bridgeID, known string, req *provider.FetchRequest) *provider.Metadata {
	logger := a.logger.With().Str("provider", bridgeID).Logger()

	p, ok := a.registry.Get(bridgeID)
	if !ok || !a.registry.IsEnabled(bridgeID) {
		logger.Warn().Msg("bridge provider is not available")
		return nil
	}
	fetcher, ok := p.(provider.Fetcher)
	if !ok || !p.Capabilities().Bridging {
		logger.Warn().Msg("bridge provider cannot resolve identifiers")
		return nil
	}

	bridgeReq := req.Clone()
	bridgeReq.IDs = map[string]string{known: req.ID(known)}

	meta, err := safeFetch(ctx, fetcher, bridgeReq)
	if err != nil {
		logger.Warn().Err(err).Str("namespace", known).Msg("identifier bridging failed")
		return nil
	}
	if meta == nil {
		logger.Warn().Str("namespace", known).Msg("bridge provider returned no record")
		return nil
	}
	meta.ProviderID = bridgeID
	return meta
}
