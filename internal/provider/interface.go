package provider

import (
	"context"
	"maps"
	"strings"
)

// MediaType represents the type of media content
type MediaType string

const (
	MediaTypeMovie MediaType = "movie"
	MediaTypeShow  MediaType = "show"
)

// Identifier namespaces understood by the aggregation engine.
const (
	NamespaceTMDB = "tmdb"
	NamespaceIMDB = "imdb"
	NamespaceTVDB = "tvdb"
)

// AggregatorName is the id the aggregating provider answers to. The registry
// refuses to register it so the aggregator can never fan out to itself.
const AggregatorName = "universal"

// Provider is the base interface every metadata provider implements. What a
// provider can actually do is expressed through the optional Searcher, Fetcher
// and EpisodeLister interfaces.
type Provider interface {
	// Identification
	Name() string
	Description() string

	// Capability discovery
	Capabilities() ProviderCapabilities
	SupportedFields() []Field

	// Configuration
	Configure(config map[string]interface{}) error
	ConfigSchema() ConfigSchema
}

// Searcher is implemented by providers that can search their catalogue.
type Searcher interface {
	Search(ctx context.Context, request FetchRequest) ([]SearchResult, error)
}

// Fetcher is implemented by providers that can fetch a full metadata record.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (*Metadata, error)
}

// EpisodeLister is implemented by providers that can list the episodes of a show.
type EpisodeLister interface {
	EpisodeList(ctx context.Context, request FetchRequest) ([]*Metadata, error)
}

// ProviderCapabilities describes what a provider can do
type ProviderCapabilities struct {
	MediaTypes   []MediaType // What media types are supported
	RequiresAuth bool        // Whether authentication is required
	Priority     int         // Default priority for this provider (higher = preferred)

	// IDNamespaces lists the identifier namespaces the provider can look items up by.
	IDNamespaces []string
	// RequiredID names the namespace that must be known before Fetch is useful.
	// Empty when the provider can work from any identifier or a plain query.
	RequiredID string
	// Bridging marks a provider able to resolve tmdb and imdb ids from each other.
	Bridging bool
}

// SupportsMediaType reports whether mediaType is in the capability list.
func (c ProviderCapabilities) SupportsMediaType(mediaType MediaType) bool {
	for _, mt := range c.MediaTypes {
		if mt == mediaType {
			return true
		}
	}
	return false
}

// SupportsNamespace reports whether the provider can look items up by namespace.
func (c ProviderCapabilities) SupportsNamespace(namespace string) bool {
	for _, ns := range c.IDNamespaces {
		if ns == namespace {
			return true
		}
	}
	return false
}

// ConfigSchema describes the configuration requirements for a provider
type ConfigSchema struct {
	Fields []ConfigField
}

// ConfigField describes a single configuration field
type ConfigField struct {
	Name        string          // Field name
	DisplayName string          // Human-readable name
	Type        ConfigFieldType // Field type
	Required    bool            // Whether this field is required
	Default     interface{}     // Default value
	Description string          // Help text
	Sensitive   bool            // Whether this contains sensitive data (for masking)
}

// ConfigFieldType represents the type of a configuration field
type ConfigFieldType string

const (
	ConfigFieldTypeInt      ConfigFieldType = "int"
	ConfigFieldTypeBool     ConfigFieldType = "bool"
	ConfigFieldTypeSelect   ConfigFieldType = "select"
	ConfigFieldTypePassword ConfigFieldType = "password"
)

// FetchRequest carries the caller supplied options for a search or scrape.
type FetchRequest struct {
	MediaType MediaType
	Query     string
	Year      int
	Season    int
	Language  string // Preferred language
	Country   string // Preferred certification country
	FilePath  string // Local media file, used by file based providers
	IDs       map[string]string
}

// ID returns the identifier known for namespace, or "".
func (r *FetchRequest) ID(namespace string) string {
	if r == nil || r.IDs == nil {
		return ""
	}
	return strings.TrimSpace(r.IDs[namespace])
}

// HasID reports whether a non-blank identifier is known for namespace.
func (r *FetchRequest) HasID(namespace string) bool {
	return r.ID(namespace) != ""
}

// SetID records an identifier, allocating the map on first use.
func (r *FetchRequest) SetID(namespace, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	if r.IDs == nil {
		r.IDs = make(map[string]string)
	}
	r.IDs[namespace] = value
}

// Clone returns a copy that shares nothing mutable with r.
func (r *FetchRequest) Clone() FetchRequest {
	if r == nil {
		return FetchRequest{}
	}
	c := *r
	c.IDs = maps.Clone(r.IDs)
	if c.IDs == nil {
		c.IDs = make(map[string]string)
	}
	return c
}

// SearchResult is one entry of a provider search.
type SearchResult struct {
	ProviderID    string
	MediaType     MediaType
	IDs           map[string]string
	Title         string
	OriginalTitle string
	Year          int
	Overview      string
	Score         float64
}

// ProviderError represents an error from a provider
type ProviderError struct {
	Provider   string
	Code       string
	Message    string
	Retry      bool
	RetryAfter int // Seconds to wait before retry
}

func (e *ProviderError) Error() string {
	return e.Message
}
