package tvdb

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Digital-Shane/metamerge/internal/provider"
	tvdbapi "github.com/dashotv/tvdb"
	"github.com/dashotv/tvdb/openapi/models/operations"
	"github.com/dashotv/tvdb/openapi/models/shared"
)

const providerName = "tvdb"

// TVDBClient captures the dashotv client methods used by this provider.
type TVDBClient interface {
	GetSearchResults(request operations.GetSearchResultsRequest) (*tvdbapi.GetSearchResultsResponse, error)
	GetSeriesExtended(id float64, meta *operations.GetSeriesExtendedQueryParamMeta, short *bool) (*tvdbapi.GetSeriesExtendedResponse, error)
	GetMovieExtended(id float64, meta *operations.QueryParamMeta, short *bool) (*tvdbapi.GetMovieExtendedResponse, error)
	GetSeriesEpisodes(request operations.GetSeriesEpisodesRequest) (*tvdbapi.GetSeriesEpisodesResponse, error)
}

// Provider implements the provider.Provider interface for TVDB.
type Provider struct {
	client TVDBClient
	apiKey string
	config map[string]interface{}
}

// New creates a new TVDB provider instance.
func New() *Provider {
	return &Provider{config: make(map[string]interface{})}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return providerName
}

// Description returns a human readable description of the provider.
func (p *Provider) Description() string {
	return "TheTVDB (TVDB) provided metadata"
}

// Capabilities returns what this provider can handle.
func (p *Provider) Capabilities() provider.ProviderCapabilities {
	return provider.ProviderCapabilities{
		MediaTypes: []provider.MediaType{
			provider.MediaTypeMovie,
			provider.MediaTypeShow,
		},
		RequiresAuth: true,
		Priority:     95,
		IDNamespaces: []string{provider.NamespaceIMDB, provider.NamespaceTVDB},
	}
}

// SupportedFields returns the fields a TVDB record can fill.
func (p *Provider) SupportedFields() []provider.Field {
	return []provider.Field{
		provider.FieldTitle,
		provider.FieldYear,
		provider.FieldPlot,
		provider.FieldRuntime,
		provider.FieldGenres,
		provider.FieldProductionCompanies,
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
				Description: "TVDB API key. Generate one from your thetvdb.com account dashboard",
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

	client, err := tvdbapi.Login(apiKey)
	if err != nil {
		return p.mapError(err)
	}

	p.apiKey = apiKey
	p.config = config
	p.client = client

	return nil
}

// Search lists catalogue entries matching the request query.
func (p *Provider) Search(ctx context.Context, request provider.FetchRequest) ([]provider.SearchResult, error) {
	if p.client == nil {
		return nil, fmt.Errorf("provider not configured")
	}
	query := strings.TrimSpace(request.Query)
	if query == "" {
		return nil, &provider.ProviderError{Provider: providerName, Code: "INVALID_REQUEST", Message: "search query is required", Retry: false}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	candidates, err := p.search(query, request.MediaType, request.Year)
	if err != nil {
		return nil, err
	}

	results := make([]provider.SearchResult, 0, len(candidates))
	for _, record := range candidates {
		results = append(results, provider.SearchResult{
			ProviderID: providerName,
			MediaType:  request.MediaType,
			IDs:        map[string]string{provider.NamespaceTVDB: strconv.FormatInt(record.ID, 10)},
			Title:      record.Name,
			Year:       parseYear(record.Year),
		})
	}
	return results, nil
}

// Fetch retrieves the extended record for the request. The TVDB id is used
// when known, otherwise the IMDb id or the query is searched for.
func (p *Provider) Fetch(ctx context.Context, request provider.FetchRequest) (*provider.Metadata, error) {
	if p.client == nil || p.apiKey == "" {
		return nil, fmt.Errorf("provider not configured")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch request.MediaType {
	case provider.MediaTypeMovie:
		return p.fetchMovie(request)
	case provider.MediaTypeShow:
		return p.fetchShow(request)
	default:
		return nil, &provider.ProviderError{Provider: providerName, Code: "INVALID_REQUEST", Message: fmt.Sprintf("unsupported media type: %s", request.MediaType), Retry: false}
	}
}

// EpisodeList returns the official-order episodes of a series, limited to
// request.Season when it is set.
func (p *Provider) EpisodeList(ctx context.Context, request provider.FetchRequest) ([]*provider.Metadata, error) {
	if p.client == nil || p.apiKey == "" {
		return nil, fmt.Errorf("provider not configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	request.MediaType = provider.MediaTypeShow
	seriesID, err := p.resolveID(request)
	if err != nil {
		return nil, err
	}

	episodesReq := operations.GetSeriesEpisodesRequest{
		ID:         float64(seriesID),
		SeasonType: "official",
		Page:       0,
	}
	if request.Season > 0 {
		season := int64(request.Season)
		episodesReq.Season = &season
	}

	resp, err := p.client.GetSeriesEpisodes(episodesReq)
	if err != nil {
		return nil, p.mapError(err)
	}
	if resp == nil || resp.Data == nil {
		return nil, &provider.ProviderError{Provider: providerName, Code: "NOT_FOUND", Message: fmt.Sprintf("no episodes found for series %d", seriesID), Retry: false}
	}

	episodes := make([]*provider.Metadata, 0, len(resp.Data.Episodes))
	for _, ep := range resp.Data.Episodes {
		season := int(pointerToInt64(ep.SeasonNumber))
		// Season 0 holds specials
		if season <= 0 {
			continue
		}
		meta := provider.NewMetadata(providerName, provider.MediaTypeShow)
		meta.SetID(provider.NamespaceTVDB, strconv.FormatInt(seriesID, 10))
		meta.Title = pointerToString(ep.Name)
		meta.Plot = pointerToString(ep.Overview)
		meta.Year = parseYear(pointerToString(ep.Year))
		meta.Runtime = int(pointerToInt64(ep.Runtime))
		meta.Season = season
		meta.Episode = int(pointerToInt64(ep.Number))
		episodes = append(episodes, meta)
	}
	return episodes, nil
}

func (p *Provider) fetchMovie(request provider.FetchRequest) (*provider.Metadata, error) {
	movieID, err := p.resolveID(request)
	if err != nil {
		return nil, err
	}

	meta := operations.QueryParamMetaTranslations
	resp, err := p.client.GetMovieExtended(float64(movieID), &meta, nil)
	if err != nil {
		return nil, p.mapError(err)
	}
	if resp == nil || resp.Data == nil {
		return nil, &provider.ProviderError{Provider: providerName, Code: "NOT_FOUND", Message: "movie not found", Retry: false}
	}

	movie := resp.Data
	metadata := provider.NewMetadata(providerName, provider.MediaTypeMovie)
	metadata.SetID(provider.NamespaceTVDB, strconv.FormatInt(movieID, 10))
	setRemoteIDs(metadata, movie.RemoteIds)
	metadata.Title = pointerToString(movie.Name)
	metadata.Year = parseYear(pointerToString(movie.Year))
	metadata.Runtime = int(pointerToInt64(movie.Runtime))

	genres := make([]string, 0, len(movie.Genres))
	for _, g := range movie.Genres {
		genres = append(genres, pointerToString(g.Name))
	}
	metadata.Genres = provider.ParseGenres(genres)

	return metadata, nil
}

func (p *Provider) fetchShow(request provider.FetchRequest) (*provider.Metadata, error) {
	seriesID, err := p.resolveID(request)
	if err != nil {
		return nil, err
	}

	meta := operations.GetSeriesExtendedQueryParamMetaTranslations
	resp, err := p.client.GetSeriesExtended(float64(seriesID), &meta, nil)
	if err != nil {
		return nil, p.mapError(err)
	}
	if resp == nil || resp.Data == nil {
		return nil, &provider.ProviderError{Provider: providerName, Code: "NOT_FOUND", Message: "series not found", Retry: false}
	}

	series := resp.Data
	metadata := provider.NewMetadata(providerName, provider.MediaTypeShow)
	metadata.SetID(provider.NamespaceTVDB, strconv.FormatInt(seriesID, 10))
	setRemoteIDs(metadata, series.RemoteIds)
	metadata.Title = pointerToString(series.Name)
	metadata.Year = parseYear(pointerToString(series.Year))
	metadata.Plot = pointerToString(series.Overview)
	metadata.Runtime = int(pointerToInt64(series.AverageRuntime))

	genres := make([]string, 0, len(series.Genres))
	for _, g := range series.Genres {
		genres = append(genres, pointerToString(g.Name))
	}
	metadata.Genres = provider.ParseGenres(genres)

	if series.OriginalNetwork != nil {
		appendUnique(&metadata.ProductionCompanies, pointerToString(series.OriginalNetwork.Name))
	}
	if series.LatestNetwork != nil {
		appendUnique(&metadata.ProductionCompanies, pointerToString(series.LatestNetwork.Name))
	}
	appendUnique(&metadata.SpokenLanguages, pointerToString(series.OriginalLanguage))
	appendUnique(&metadata.Countries, pointerToString(series.Country))

	return metadata, nil
}

type searchRecord struct {
	ID   int64
	Name string
	Year string
}

// resolveID returns the TVDB id of the requested item.
func (p *Provider) resolveID(request provider.FetchRequest) (int64, error) {
	if id := request.ID(provider.NamespaceTVDB); provider.ValidID(provider.NamespaceTVDB, id) {
		return parseInt64(id), nil
	}

	query := strings.TrimSpace(request.Query)
	if imdbID := request.ID(provider.NamespaceIMDB); provider.ValidID(provider.NamespaceIMDB, imdbID) {
		query = imdbID
	}
	if query == "" {
		return 0, &provider.ProviderError{Provider: providerName, Code: "INVALID_REQUEST", Message: "fetch requires a tvdb id, an imdb id or a title", Retry: false}
	}

	records, err := p.search(query, request.MediaType, request.Year)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, &provider.ProviderError{Provider: providerName, Code: "NOT_FOUND", Message: fmt.Sprintf("no %s found for %s", request.MediaType, query), Retry: false}
	}
	return records[0].ID, nil
}

// search returns the results of the requested media type, in TVDB order.
func (p *Provider) search(query string, mediaType provider.MediaType, year int) ([]*searchRecord, error) {
	searchType := "series"
	if mediaType == provider.MediaTypeMovie {
		searchType = "movie"
	}

	req := operations.GetSearchResultsRequest{Query: &query}
	req.Type = &searchType
	if year > 0 {
		yf := float64(year)
		req.Year = &yf
	}

	resp, err := p.client.GetSearchResults(req)
	if err != nil {
		return nil, p.mapError(err)
	}
	if resp == nil {
		return nil, nil
	}

	var records []*searchRecord
	for _, candidate := range resp.Data {
		if !strings.EqualFold(pointerToString(candidate.Type), searchType) {
			continue
		}
		if r := toSearchRecord(candidate); r.ID != 0 {
			records = append(records, r)
		}
	}
	return records, nil
}

func toSearchRecord(result shared.SearchResult) *searchRecord {
	id := parseInt64(pointerToString(result.TvdbID))
	if id == 0 {
		id = parseInt64(pointerToString(result.ID))
	}

	name := firstNonEmptyString(pointerToString(result.Name), pointerToString(result.NameTranslated), pointerToString(result.Title))
	year := pointerToString(result.Year)

	return &searchRecord{ID: id, Name: name, Year: year}
}

// setRemoteIDs copies the IMDb and TMDB cross references of a record.
func setRemoteIDs(meta *provider.Metadata, ids []shared.RemoteID) {
	if imdbID := findRemoteID(ids, "imdb"); provider.ValidID(provider.NamespaceIMDB, imdbID) {
		meta.SetID(provider.NamespaceIMDB, imdbID)
	}
	if tmdbID := findRemoteID(ids, "themoviedb"); provider.ValidID(provider.NamespaceTMDB, tmdbID) {
		meta.SetID(provider.NamespaceTMDB, tmdbID)
	}
}

func findRemoteID(ids []shared.RemoteID, source string) string {
	needle := strings.ToLower(strings.TrimSpace(source))
	for _, remote := range ids {
		sourceName := strings.ToLower(strings.TrimSpace(pointerToString(remote.SourceName)))
		if strings.Contains(sourceName, needle) {
			return strings.TrimSpace(pointerToString(remote.ID))
		}
	}
	return ""
}

func pointerToString(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}

func pointerToInt64(value *int64) int64 {
	if value == nil {
		return 0
	}
	return *value
}

func parseInt64(value string) int64 {
	parsed, _ := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	return parsed
}

func parseYear(value string) int {
	year, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return year
}

func firstNonEmptyString(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func appendUnique(values *[]string, value string) {
	if value == "" {
		return
	}
	for _, candidate := range *values {
		if strings.EqualFold(candidate, value) {
			return
		}
	}
	*values = append(*values, value)
}

func (p *Provider) mapError(err error) error {
	if err == nil {
		return nil
	}

	msg := err.Error()
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "401"), strings.Contains(lower, "unauthorized"), strings.Contains(lower, "apikey"):
		return &provider.ProviderError{Provider: providerName, Code: "AUTH_FAILED", Message: "TVDB authentication failed: " + msg, Retry: false}
	case strings.Contains(lower, "429"), strings.Contains(lower, "too many"):
		return &provider.ProviderError{Provider: providerName, Code: "RATE_LIMITED", Message: msg, Retry: true, RetryAfter: 5}
	case strings.Contains(lower, "404"), strings.Contains(lower, "not found"):
		return &provider.ProviderError{Provider: providerName, Code: "NOT_FOUND", Message: msg, Retry: false}
	case strings.Contains(lower, "503"), strings.Contains(lower, "unavailable"):
		return &provider.ProviderError{Provider: providerName, Code: "UNAVAILABLE", Message: msg, Retry: true, RetryAfter: 30}
	default:
		return &provider.ProviderError{Provider: providerName, Code: "UNKNOWN", Message: msg, Retry: false}
	}
}
