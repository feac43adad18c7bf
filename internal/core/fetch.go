package core

import (
	"context"
	"fmt"

	"github.com/Digital-Shane/metamerge/internal/provider"
	"github.com/mhmtszr/concurrent-swiss-map"
)

// ResultMap holds the record each provider returned during one call.
type ResultMap = csmap.CsMap[string, *provider.Metadata]

// fetchAll submits one fetch per selected provider that has no prefetched
// result and waits for every task before returning. Failed providers are
// logged and left out of the map.
func (a *Aggregator) fetchAll(ctx context.Context, selected []selectedProvider, req *provider.FetchRequest, prefetched map[string]*provider.Metadata) *ResultMap {
	results := csmap.Create[string, *provider.Metadata]()
	for id, meta := range prefetched {
		results.Store(id, meta)
	}

	pending := make([]<-chan struct{}, 0, len(selected))
	for _, sp := range selected {
		if _, ok := prefetched[sp.id]; ok {
			continue
		}
		sp := sp
		providerReq := req.Clone()
		pending = append(pending, a.pool.Submit(func() {
			meta, err := safeFetch(ctx, sp.fetcher, providerReq)
			if err != nil {
				a.logger.Warn().Err(err).Str("provider", sp.id).Msg("provider fetch failed")
				return
			}
			if meta == nil {
				a.logger.Debug().Str("provider", sp.id).Msg("provider returned no record")
				return
			}
			meta.ProviderID = sp.id
			results.Store(sp.id, meta)
		}))
	}

	for _, done := range pending {
		<-done
	}

	return results
}

// safeFetch calls Fetch and turns a panic into an error.
func safeFetch(ctx context.Context, f provider.Fetcher, req provider.FetchRequest) (meta *provider.Metadata, err error) {
	defer func() {
		if r := recover(); r != nil {
			meta = nil
			err = fmt.Errorf("provider panicked: %v", r)
		}
	}()
	return f.Fetch(ctx, req)
}

// snapshot copies the result map into a plain map for merging.
func snapshot(results *ResultMap) map[string]*provider.Metadata {
	out := make(map[string]*provider.Metadata, results.Count())
	results.Range(func(key string, value *provider.Metadata) bool {
		out[key] = value
		return false
	})
	return out
}
