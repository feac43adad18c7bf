package omdb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Digital-Shane/metamerge/internal/provider"
	"github.com/Digital-Shane/omdb"
)

const providerName = "omdb"

// Provider implements the provider.Provider interface for OMDb. It fetches by
// IMDb id only, so the aggregator calls it once an IMDb id is known.
type Provider struct {
	client     *omdb.Client
	httpClient *http.Client
	apiKey     string
	config     map[string]interface{}
}

// New creates a new OMDb provider instance.
func New() *Provider {
	return &Provider{
		config: make(map[string]interface{}),
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return providerName
}

// Description returns a human readable description of the provider.
func (p *Provider) Description() string {
	return "Open Movie Database (OMDB) provided metadata"
}

// Capabilities returns what this provider can handle.
func (p *Provider) Capabilities() provider.ProviderCapabilities {
	return provider.ProviderCapabilities{
		MediaTypes: []provider.MediaType{
			provider.MediaTypeMovie,
			provider.MediaTypeShow,
		},
		RequiresAuth: true,
		Priority:     90,
		IDNamespaces: []string{provider.NamespaceIMDB},
		RequiredID:   provider.NamespaceIMDB,
	}
}

// SupportedFields returns the fields an OMDb record can fill.
func (p *Provider) SupportedFields() []provider.Field {
	return []provider.Field{
		provider.FieldTitle,
		provider.FieldYear,
		provider.FieldPlot,
		provider.FieldRuntime,
		provider.FieldRatings,
		provider.FieldGenres,
		provider.FieldSpokenLanguages,
		provider.FieldCountries,
	}
}

// ConfigSchema returns the configuration schema for this provider.
func (p *Provider) ConfigSchema() provider.ConfigSchema {
	return provider.ConfigSchema{
		Fields: []provider.ConfigField{
			{
				Name:        "api_key",
				DisplayName: "API Key",
				Type:        provider.ConfigFieldTypePassword,
				Required:    true,
				Description: "OMDb API key. Request one from https://www.omdbapi.com/apikey.aspx",
				Sensitive:   true,
			},
		},
	}
}

// Configure applies configuration to the provider.
func (p *Provider) Configure(config map[string]interface{}) error {
	apiKeyRaw, ok := config["api_key"].(string)
	if !ok {
		return fmt.Errorf("api_key is required")
	}

	apiKey := strings.TrimSpace(apiKeyRaw)
	if apiKey == "" {
		return fmt.Errorf("api_key is required")
	}

	// Allow overriding the HTTP client before configuration (useful for tests).
	if p.httpClient == nil {
		p.httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	p.apiKey = apiKey
	p.config = config
	p.client = omdb.NewClient(p.apiKey, p.httpClient)

	return nil
}

// Fetch retrieves the record for the IMDb id in the request.
func (p *Provider) Fetch(ctx context.Context, request provider.FetchRequest) (*provider.Metadata, error) {
	if p.client == nil || p.apiKey == "" {
		return nil, fmt.Errorf("provider not configured")
	}

	imdbID := request.ID(provider.NamespaceIMDB)
	if !provider.ValidID(provider.NamespaceIMDB, imdbID) {
		return nil, &provider.ProviderError{
			Provider: providerName,
			Code:     "INVALID_REQUEST",
			Message:  fmt.Sprintf("OMDb fetch requires an IMDb id, got %q", imdbID),
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := p.client.SearchByImdbID(omdb.QueryData{ImdbID: imdbID, Plot: "full"})
	if err != nil {
		return nil, p.mapError(err)
	}

	switch request.MediaType {
	case provider.MediaTypeMovie:
		switch movie := result.(type) {
		case omdb.MovieResult:
			return movieToMetadata(movie), nil
		case *omdb.MovieResult:
			return movieToMetadata(*movie), nil
		}
	case provider.MediaTypeShow:
		switch series := result.(type) {
		case omdb.SeriesResult:
			return seriesToMetadata(series), nil
		case *omdb.SeriesResult:
			return seriesToMetadata(*series), nil
		}
	default:
		return nil, &provider.ProviderError{
			Provider: providerName,
			Code:     "INVALID_REQUEST",
			Message:  fmt.Sprintf("unsupported media type: %s", request.MediaType),
		}
	}

	return nil, &provider.ProviderError{
		Provider: providerName,
		Code:     "NOT_FOUND",
		Message:  fmt.Sprintf("no %s found for %s", request.MediaType, imdbID),
	}
}

func movieToMetadata(result omdb.MovieResult) *provider.Metadata {
	meta := provider.NewMetadata(providerName, provider.MediaTypeMovie)
	meta.SetID(provider.NamespaceIMDB, result.ImdbID)
	meta.Title = result.Title
	meta.Year = parseYear(omdb.FirstYear(result.Year))
	meta.Plot = result.Plot
	meta.Runtime = parseRuntime(result.Runtime)
	meta.Ratings = imdbRating(result.ImdbRating)
	meta.Genres = provider.ParseGenres(omdb.SplitAndTrim(result.Genre))
	meta.SpokenLanguages = omdb.SplitAndTrim(result.Language)
	meta.Countries = omdb.SplitAndTrim(result.Country)
	return meta
}

func seriesToMetadata(result omdb.SeriesResult) *provider.Metadata {
	meta := provider.NewMetadata(providerName, provider.MediaTypeShow)
	meta.SetID(provider.NamespaceIMDB, result.ImdbID)
	meta.Title = result.Title
	meta.Year = parseYear(omdb.FirstYear(result.Year))
	meta.Plot = result.Plot
	meta.Runtime = parseRuntime(result.Runtime)
	meta.Ratings = imdbRating(result.ImdbRating)
	meta.Genres = provider.ParseGenres(omdb.SplitAndTrim(result.Genre))
	meta.SpokenLanguages = omdb.SplitAndTrim(result.Language)
	meta.Countries = omdb.SplitAndTrim(result.Country)
	return meta
}

func imdbRating(value string) []provider.Rating {
	score := omdb.ParseRating(value)
	if score <= 0 {
		return nil
	}
	return []provider.Rating{{Source: provider.NamespaceIMDB, Value: score, MaxValue: 10}}
}

func (p *Provider) mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	msg := err.Error()
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "invalid api key"), strings.Contains(lower, "missing omdb api key"):
		return &provider.ProviderError{
			Provider: providerName,
			Code:     "AUTH_FAILED",
			Message:  "OMDb authentication failed: " + msg,
			Retry:    false,
		}
	case strings.Contains(lower, "not found"):
		return &provider.ProviderError{
			Provider: providerName,
			Code:     "NOT_FOUND",
			Message:  msg,
			Retry:    false,
		}
	case strings.Contains(lower, "limit reached"), strings.Contains(lower, "too many requests"):
		return &provider.ProviderError{
			Provider:   providerName,
			Code:       "RATE_LIMITED",
			Message:    msg,
			Retry:      true,
			RetryAfter: 5,
		}
	default:
		return &provider.ProviderError{
			Provider: providerName,
			Code:     "UNKNOWN",
			Message:  msg,
			Retry:    false,
		}
	}
}

func parseYear(value string) int {
	year, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return year
}

// parseRuntime attempts to convert runtime strings (e.g., "136 min") to integer minutes.
func parseRuntime(value string) int {
	if value == "" {
		return 0
	}
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return 0
	}
	minutes, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0
	}
	return minutes
}
