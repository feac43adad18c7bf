package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Digital-Shane/metamerge/internal/provider"
	"github.com/rs/zerolog"
)

var (
	// ErrNothingFound is returned when no provider produced an identifier.
	ErrNothingFound = errors.New("no metadata found")
	// ErrFeatureDisabled is returned when the aggregator or the provider a
	// call delegates to is disabled or lacks the needed capability.
	ErrFeatureDisabled = errors.New("feature disabled")
	// ErrNilRequest is returned when a call is made without a request.
	ErrNilRequest = errors.New("request must not be nil")
)

// SettingsSource supplies the flat settings map read at the start of every call.
type SettingsSource interface {
	Settings() map[string]string
}

// SettingsMap is a fixed SettingsSource.
type SettingsMap map[string]string

// Settings returns m.
func (m SettingsMap) Settings() map[string]string { return m }

// AggregatorConfig configures an Aggregator.
type AggregatorConfig struct {
	Registry *provider.Registry
	// Pool is shared by all calls. When nil the aggregator starts its own
	// default pool and closes it in Close.
	Pool     *Pool
	Settings SettingsSource
	Enabled  bool
	Logger   *zerolog.Logger
}

// Aggregator searches and fetches across the registered providers and merges
// their records according to the field configuration.
type Aggregator struct {
	registry *provider.Registry
	pool     *Pool
	ownsPool bool
	settings SettingsSource
	enabled  bool
	logger   zerolog.Logger
}

// NewAggregator wires an Aggregator from cfg.
func NewAggregator(cfg AggregatorConfig) *Aggregator {
	a := &Aggregator{
		registry: cfg.Registry,
		pool:     cfg.Pool,
		settings: cfg.Settings,
		enabled:  cfg.Enabled,
		logger:   zerolog.Nop(),
	}
	if a.registry == nil {
		a.registry = provider.NewRegistry()
	}
	if a.pool == nil {
		a.pool = NewPool(DefaultMinWorkers, DefaultMaxWorkers)
		a.ownsPool = true
	}
	if a.settings == nil {
		a.settings = SettingsMap{}
	}
	if cfg.Logger != nil {
		a.logger = cfg.Logger.With().Str("component", "aggregator").Logger()
	}
	return a
}

// Name returns the id the aggregator answers to.
func (a *Aggregator) Name() string { return provider.AggregatorName }

// Close releases the pool if the aggregator created it.
func (a *Aggregator) Close() {
	if a.ownsPool {
		a.pool.Close()
	}
}

func (a *Aggregator) fieldConfig() *FieldConfig {
	return NewFieldConfig(a.settings.Settings())
}

// Search delegates to the configured search provider. An undefined or
// unregistered selection yields no results. A provider error is logged and
// also yields no results.
func (a *Aggregator) Search(ctx context.Context, req *provider.FetchRequest) ([]provider.SearchResult, error) {
	if !a.enabled {
		return nil, ErrFeatureDisabled
	}
	if req == nil {
		return nil, ErrNilRequest
	}

	id := a.fieldConfig().SearchProvider()
	p, err := a.delegate(id, "search")
	if err != nil || p == nil {
		return []provider.SearchResult{}, err
	}
	searcher, ok := p.(provider.Searcher)
	if !ok {
		return nil, fmt.Errorf("provider %s cannot search: %w", id, ErrFeatureDisabled)
	}

	results, err := safeSearch(ctx, searcher, req.Clone())
	if err != nil {
		a.logger.Warn().Err(err).Str("provider", id).Msg("search failed")
		return []provider.SearchResult{}, nil
	}
	return normalizeSearchResults(id, results), nil
}

// GetMetadata resolves missing identifiers, fetches from every selected
// provider and merges the records. Identifiers found through the bridge
// provider are written into req.
func (a *Aggregator) GetMetadata(ctx context.Context, req *provider.FetchRequest) (*provider.Metadata, error) {
	if !a.enabled {
		return nil, ErrFeatureDisabled
	}
	if req == nil {
		return nil, ErrNilRequest
	}

	fc := a.fieldConfig()
	selected, prefetched := a.resolveIdentifiers(ctx, fc, req)
	results := a.fetchAll(ctx, selected, req, prefetched)
	merged := MergeResults(fc, snapshot(results), req.MediaType)

	if len(merged.IDs) == 0 {
		return nil, ErrNothingFound
	}
	return merged, nil
}

// EpisodeList delegates to the configured episode provider and returns the
// episodes ordered by season then episode number.
func (a *Aggregator) EpisodeList(ctx context.Context, req *provider.FetchRequest) ([]*provider.Metadata, error) {
	if !a.enabled {
		return nil, ErrFeatureDisabled
	}
	if req == nil {
		return nil, ErrNilRequest
	}

	id := a.fieldConfig().EpisodeProvider()
	p, err := a.delegate(id, "episodes")
	if err != nil || p == nil {
		return []*provider.Metadata{}, err
	}
	lister, ok := p.(provider.EpisodeLister)
	if !ok {
		return nil, fmt.Errorf("provider %s cannot list episodes: %w", id, ErrFeatureDisabled)
	}

	episodes, err := safeEpisodeList(ctx, lister, req.Clone())
	if err != nil {
		a.logger.Warn().Err(err).Str("provider", id).Msg("episode list failed")
		return []*provider.Metadata{}, nil
	}

	out := make([]*provider.Metadata, 0, len(episodes))
	for _, ep := range episodes {
		if ep != nil {
			out = append(out, ep)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Season != out[j].Season {
			return out[i].Season < out[j].Season
		}
		return out[i].Episode < out[j].Episode
	})
	return out, nil
}

// delegate looks up the provider selected for a single-provider operation.
// It returns nil without error when the selection is undefined or unknown.
func (a *Aggregator) delegate(id, operation string) (provider.Provider, error) {
	if id == Undefined {
		return nil, nil
	}
	p, ok := a.registry.Get(id)
	if !ok {
		a.logger.Debug().Str("provider", id).Str("operation", operation).Msg("selected provider is not registered")
		return nil, nil
	}
	if !a.registry.IsEnabled(id) {
		return nil, fmt.Errorf("%s provider %s is disabled: %w", operation, id, ErrFeatureDisabled)
	}
	return p, nil
}

func safeSearch(ctx context.Context, s provider.Searcher, req provider.FetchRequest) (results []provider.SearchResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			results = nil
			err = fmt.Errorf("provider panicked: %v", r)
		}
	}()
	return s.Search(ctx, req)
}

func safeEpisodeList(ctx context.Context, l provider.EpisodeLister, req provider.FetchRequest) (episodes []*provider.Metadata, err error) {
	defer func() {
		if r := recover(); r != nil {
			episodes = nil
			err = fmt.Errorf("provider panicked: %v", r)
		}
	}()
	return l.EpisodeList(ctx, req)
}

// normalizeSearchResults removes duplicate entries. The provider's own
// relevance order is kept.
func normalizeSearchResults(providerID string, results []provider.SearchResult) []provider.SearchResult {
	out := make([]provider.SearchResult, 0, len(results))
	seen := make(map[string]bool, len(results))
	for _, r := range results {
		if r.ProviderID == "" {
			r.ProviderID = providerID
		}
		key := r.ProviderID + "/" + searchResultKey(r)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

func searchResultKey(r provider.SearchResult) string {
	for _, ns := range []string{provider.NamespaceTMDB, provider.NamespaceIMDB, provider.NamespaceTVDB} {
		if id := strings.TrimSpace(r.IDs[ns]); id != "" {
			return ns + ":" + id
		}
	}
	return fmt.Sprintf("title:%s:%d", strings.ToLower(r.Title), r.Year)
}
