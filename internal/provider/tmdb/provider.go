package tmdb

import (
	"fmt"
	"strings"
	"time"

	"github.com/Digital-Shane/metamerge/internal/provider"
	"github.com/patrickmn/go-cache"
	"github.com/ryanbradynd05/go-tmdb"
)

const (
	providerName = "tmdb"

	// imdbSource is the external source name of the TMDB find endpoint.
	imdbSource = "imdb_id"
)

// Provider implements the provider.Provider interface for TMDB. It can search,
// fetch movies and shows, list episodes, and bridge between tmdb and imdb ids.
type Provider struct {
	client      TMDBClient
	cache       *cache.Cache
	language    string
	apiKey      string
	rateLimiter *rateLimiter
	config      map[string]interface{}
}

// TMDBClient interface for testing (matches *tmdb.TMDb exactly)
type TMDBClient interface {
	SearchMovie(name string, options map[string]string) (*tmdb.MovieSearchResults, error)
	SearchTv(name string, options map[string]string) (*tmdb.TvSearchResults, error)
	GetMovieInfo(id int, options map[string]string) (*tmdb.Movie, error)
	GetTvInfo(id int, options map[string]string) (*tmdb.TV, error)
	GetTvSeasonInfo(showID, seasonID int, options map[string]string) (*tmdb.TvSeason, error)
	GetFind(id, source string, options map[string]string) (*tmdb.FindResults, error)
}

// New creates a new TMDB provider instance
func New() *Provider {
	return &Provider{
		language:    "en-US",
		config:      make(map[string]interface{}),
		rateLimiter: newRateLimiter(38, 10*time.Second), // 38 requests per 10 seconds
	}
}

// Name returns the provider name
func (p *Provider) Name() string {
	return providerName
}

// Description returns the provider description
func (p *Provider) Description() string {
	return "The Movie Database (TMDB) provided metadata"
}

// Capabilities returns what this provider can do
func (p *Provider) Capabilities() provider.ProviderCapabilities {
	return provider.ProviderCapabilities{
		MediaTypes: []provider.MediaType{
			provider.MediaTypeMovie,
			provider.MediaTypeShow,
		},
		RequiresAuth: true,
		Priority:     100, // High priority as a comprehensive provider
		IDNamespaces: []string{provider.NamespaceTMDB, provider.NamespaceIMDB},
		Bridging:     true,
	}
}

// SupportedFields returns the fields TMDB fills
func (p *Provider) SupportedFields() []provider.Field {
	return []provider.Field{
		provider.FieldTitle,
		provider.FieldOriginalTitle,
		provider.FieldTagline,
		provider.FieldYear,
		provider.FieldReleaseDate,
		provider.FieldPlot,
		provider.FieldRuntime,
		provider.FieldRatings,
		provider.FieldGenres,
		provider.FieldCertifications,
		provider.FieldProductionCompanies,
		provider.FieldCastMembers,
		provider.FieldSpokenLanguages,
		provider.FieldCountries,
		provider.FieldTags,
		provider.FieldCollectionName,
	}
}

// ConfigSchema returns the configuration schema for this provider
func (p *Provider) ConfigSchema() provider.ConfigSchema {
	return provider.ConfigSchema{
		Fields: []provider.ConfigField{
			{
				Name:        "api_key",
				DisplayName: "API Key",
				Type:        provider.ConfigFieldTypePassword,
				Required:    true,
				Description: "TMDB API key (not the Read Access Token). Get it from themoviedb.org/settings/api",
				Sensitive:   true,
			},
			{
				Name:        "language",
				DisplayName: "Language",
				Type:        provider.ConfigFieldTypeSelect,
				Required:    false,
				Default:     "en-US",
				Description: "Preferred language for metadata",
			},
			{
				Name:        "cache_enabled",
				DisplayName: "Enable Cache",
				Type:        provider.ConfigFieldTypeBool,
				Required:    false,
				Default:     true,
				Description: "Cache API responses to reduce requests",
			},
			{
				Name:        "cache_duration",
				DisplayName: "Cache Duration (hours)",
				Type:        provider.ConfigFieldTypeInt,
				Required:    false,
				Default:     168, // 7 days
				Description: "How long to cache responses",
			},
		},
	}
}

// Configure applies configuration to the provider
func (p *Provider) Configure(config map[string]interface{}) error {
	apiKey, _ := config["api_key"].(string)
	if strings.TrimSpace(apiKey) == "" {
		return fmt.Errorf("api_key is required")
	}
	p.config = config
	p.apiKey = strings.TrimSpace(apiKey)

	p.language = "en-US"
	if language, ok := config["language"].(string); ok && language != "" {
		p.language = language
	}

	p.client = tmdb.Init(tmdb.Config{
		APIKey:   p.apiKey,
		Proxies:  nil,
		UseProxy: false,
	})

	cacheEnabled := true
	if enabled, ok := config["cache_enabled"].(bool); ok {
		cacheEnabled = enabled
	}
	p.cache = nil
	if !cacheEnabled {
		return nil
	}

	cacheDuration := 168
	if duration, ok := config["cache_duration"].(int); ok && duration > 0 {
		cacheDuration = duration
	}
	p.cache = cache.New(time.Duration(cacheDuration)*time.Hour, 10*time.Minute)

	return nil
}

// SetClient replaces the TMDB client, used by tests.
func (p *Provider) SetClient(client TMDBClient) {
	p.client = client
}

// mapError maps TMDB errors to provider errors
func (p *Provider) mapError(err error) error {
	if err == nil {
		return nil
	}

	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "401") || strings.Contains(errStr, "unauthorized") {
		return &provider.ProviderError{
			Provider: providerName,
			Code:     "AUTH_FAILED",
			Message:  "TMDB authentication failed: " + err.Error(),
			Retry:    false,
		}
	}
	if strings.Contains(errStr, "404") || strings.Contains(errStr, "not found") {
		return &provider.ProviderError{
			Provider: providerName,
			Code:     "NOT_FOUND",
			Message:  "TMDB resource not found: " + err.Error(),
			Retry:    false,
		}
	}
	if strings.Contains(errStr, "429") || strings.Contains(errStr, "rate limit") {
		return &provider.ProviderError{
			Provider:   providerName,
			Code:       "RATE_LIMITED",
			Message:    "TMDB rate limit exceeded",
			Retry:      true,
			RetryAfter: 10,
		}
	}
	if strings.Contains(errStr, "503") || strings.Contains(errStr, "unavailable") {
		return &provider.ProviderError{
			Provider:   providerName,
			Code:       "UNAVAILABLE",
			Message:    "TMDB service unavailable",
			Retry:      true,
			RetryAfter: 30,
		}
	}

	return &provider.ProviderError{
		Provider: providerName,
		Code:     "UNKNOWN",
		Message:  "TMDB error: " + err.Error(),
		Retry:    false,
	}
}

func notFound(format string, args ...interface{}) error {
	return &provider.ProviderError{
		Provider: providerName,
		Code:     "NOT_FOUND",
		Message:  fmt.Sprintf(format, args...),
		Retry:    false,
	}
}
