package core

import (
	"strings"

	"github.com/Digital-Shane/metamerge/internal/provider"
)

// Undefined marks a field with no selected provider.
const Undefined = "undefined"

// Settings keys that are not field names.
const (
	SettingSearch   = "search"
	SettingEpisodes = "episodes"
	SettingBridge   = "bridge"
	SettingFallback = "fallback"
)

// DefaultBridgeProvider is used when the settings do not name a bridge.
const DefaultBridgeProvider = provider.NamespaceTMDB

// FieldConfig maps every mergeable field to its primary provider and holds the
// fallback chain shared by all fields. It is built once per aggregation call and
// never modified afterwards.
type FieldConfig struct {
	primaries map[provider.Field]string
	fallback  []string
	search    string
	episodes  string
	bridge    string
}

// NewFieldConfig builds a FieldConfig from the flat settings map. Keys that are
// neither a field name nor one of the Setting* keys are ignored.
func NewFieldConfig(settings map[string]string) *FieldConfig {
	fc := &FieldConfig{
		primaries: make(map[provider.Field]string),
		search:    providerID(settings[SettingSearch]),
		episodes:  providerID(settings[SettingEpisodes]),
		bridge:    providerID(settings[SettingBridge]),
	}

	for key, value := range settings {
		if d, ok := provider.LookupField(key); ok {
			fc.primaries[d.Name] = providerID(value)
		}
	}

	seen := make(map[string]bool)
	for _, id := range strings.Split(settings[SettingFallback], ",") {
		id = providerID(id)
		if id == Undefined || seen[id] {
			continue
		}
		seen[id] = true
		fc.fallback = append(fc.fallback, id)
	}

	return fc
}

func providerID(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return Undefined
	}
	return value
}

// SelectedProviderFor returns the primary provider of field, or Undefined.
func (fc *FieldConfig) SelectedProviderFor(field provider.Field) string {
	if id, ok := fc.primaries[field]; ok {
		return id
	}
	return Undefined
}

// FallbackChain returns the shared fallback providers in configured order.
func (fc *FieldConfig) FallbackChain() []string {
	out := make([]string, len(fc.fallback))
	copy(out, fc.fallback)
	return out
}

// PriorityFor returns the providers consulted for field: the primary first,
// then the fallback chain without the primary.
func (fc *FieldConfig) PriorityFor(field provider.Field) []string {
	primary := fc.SelectedProviderFor(field)
	out := make([]string, 0, len(fc.fallback)+1)
	if primary != Undefined {
		out = append(out, primary)
	}
	for _, id := range fc.fallback {
		if id != primary {
			out = append(out, id)
		}
	}
	return out
}

// ReferencedProviders returns every provider named by a field primary or the
// fallback chain, deduplicated, in first-seen order. Primaries are visited in
// field declaration order.
func (fc *FieldConfig) ReferencedProviders() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(id string) {
		if id == Undefined || seen[id] {
			return
		}
		seen[id] = true
		out = append(out, id)
	}
	for _, name := range provider.FieldNames() {
		add(fc.SelectedProviderFor(name))
	}
	for _, id := range fc.fallback {
		add(id)
	}
	return out
}

// SearchProvider returns the provider used for searches, or Undefined.
func (fc *FieldConfig) SearchProvider() string { return fc.search }

// EpisodeProvider returns the provider used for episode lists, or Undefined.
func (fc *FieldConfig) EpisodeProvider() string { return fc.episodes }

// BridgeProvider returns the provider used to resolve missing identifiers.
func (fc *FieldConfig) BridgeProvider() string {
	if fc.bridge == Undefined {
		return DefaultBridgeProvider
	}
	return fc.bridge
}
