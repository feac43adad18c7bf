package core

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/Digital-Shane/metamerge/internal/provider"
)

// stubFetcher is a provider that can only fetch.
type stubFetcher struct {
	name  string
	caps  provider.ProviderCapabilities
	fetch func(context.Context, provider.FetchRequest) (*provider.Metadata, error)
	calls atomic.Int32
}

func (s *stubFetcher) Name() string                                { return s.name }
func (s *stubFetcher) Description() string                         { return "stub provider" }
func (s *stubFetcher) Capabilities() provider.ProviderCapabilities { return s.caps }
func (s *stubFetcher) SupportedFields() []provider.Field           { return provider.FieldNames() }
func (s *stubFetcher) ConfigSchema() provider.ConfigSchema         { return provider.ConfigSchema{} }
func (s *stubFetcher) Configure(map[string]interface{}) error      { return nil }

func (s *stubFetcher) Fetch(ctx context.Context, req provider.FetchRequest) (*provider.Metadata, error) {
	s.calls.Add(1)
	if s.fetch == nil {
		return nil, nil
	}
	return s.fetch(ctx, req)
}

// stubFull adds search and episode listing to stubFetcher.
type stubFull struct {
	stubFetcher
	search   func(context.Context, provider.FetchRequest) ([]provider.SearchResult, error)
	episodes func(context.Context, provider.FetchRequest) ([]*provider.Metadata, error)
}

func (s *stubFull) Search(ctx context.Context, req provider.FetchRequest) ([]provider.SearchResult, error) {
	return s.search(ctx, req)
}

func (s *stubFull) EpisodeList(ctx context.Context, req provider.FetchRequest) ([]*provider.Metadata, error) {
	return s.episodes(ctx, req)
}

func anyCaps() provider.ProviderCapabilities {
	return provider.ProviderCapabilities{
		MediaTypes:   []provider.MediaType{provider.MediaTypeMovie, provider.MediaTypeShow},
		IDNamespaces: []string{provider.NamespaceTMDB, provider.NamespaceIMDB},
	}
}

// returning builds a stub whose Fetch returns a clone of meta.
func returning(name string, meta *provider.Metadata) *stubFetcher {
	return &stubFetcher{
		name: name,
		caps: anyCaps(),
		fetch: func(context.Context, provider.FetchRequest) (*provider.Metadata, error) {
			return meta.Clone(), nil
		},
	}
}

func record(ids map[string]string) *provider.Metadata {
	m := provider.NewMetadata("", provider.MediaTypeMovie)
	for ns, id := range ids {
		m.SetID(ns, id)
	}
	return m
}

// newTestAggregator registers and enables every provider and returns an
// enabled aggregator over them.
func newTestAggregator(tb testing.TB, settings map[string]string, providers ...provider.Provider) *Aggregator {
	tb.Helper()

	reg := provider.NewRegistry()
	for i, p := range providers {
		if err := reg.Register(p, 100-i); err != nil {
			tb.Fatalf("Register(%s) error = %v", p.Name(), err)
		}
		if err := reg.Enable(p.Name()); err != nil {
			tb.Fatalf("Enable(%s) error = %v", p.Name(), err)
		}
	}

	pool := NewPool(DefaultMinWorkers, DefaultMaxWorkers)
	tb.Cleanup(pool.Close)

	return NewAggregator(AggregatorConfig{
		Registry: reg,
		Pool:     pool,
		Settings: SettingsMap(settings),
		Enabled:  true,
	})
}
