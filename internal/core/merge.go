package core

import (
	"sort"

	"github.com/Digital-Shane/metamerge/internal/provider"
)

// MergeResults combines the provider records into one record. Identifiers from
// every record are unioned. Each field is taken from the first provider in its
// priority list whose value passes the presence rule. The output never depends
// on the order the records were produced in.
func MergeResults(fc *FieldConfig, results map[string]*provider.Metadata, mediaType provider.MediaType) *provider.Metadata {
	merged := provider.NewMetadata(provider.AggregatorName, mediaType)

	for _, id := range resultOrder(fc, results) {
		for ns, value := range results[id].IDs {
			if _, exists := merged.IDs[ns]; exists {
				continue
			}
			merged.SetID(ns, value)
		}
	}

	for _, field := range provider.Fields() {
		for _, id := range fc.PriorityFor(field.Name) {
			src := results[id]
			if !field.Present(src) {
				continue
			}
			field.CopyTo(merged, src)
			break
		}
	}

	return merged
}

// resultOrder lists the providers with a record: fallback chain order first,
// then the remaining ids sorted.
func resultOrder(fc *FieldConfig, results map[string]*provider.Metadata) []string {
	order := make([]string, 0, len(results))
	seen := make(map[string]bool, len(results))
	for _, id := range fc.FallbackChain() {
		if results[id] != nil {
			order = append(order, id)
			seen[id] = true
		}
	}

	rest := make([]string, 0, len(results))
	for id, meta := range results {
		if meta != nil && !seen[id] {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)

	return append(order, rest...)
}
