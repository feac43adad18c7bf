package ffprobe

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Digital-Shane/metamerge/internal/provider"
	"gopkg.in/vansante/go-ffprobe.v2"
)

const (
	providerName = "ffprobe"
)

// probeFunc defines the function signature used to execute ffprobe.
type probeFunc func(ctx context.Context, path string, extraOpts ...string) (*ffprobe.ProbeData, error)

// Provider reads metadata embedded in a local media file: container tags such
// as title, date, genre and the IMDB/TMDB ids written by taggers, the running
// time, and the languages of the audio streams.
type Provider struct {
	probe probeFunc
}

// New creates a new ffprobe provider instance with default configuration.
func New() *Provider {
	return &Provider{
		probe: ffprobe.ProbeURL,
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return providerName
}

// Description returns the provider description.
func (p *Provider) Description() string {
	return "Embedded file metadata from ffprobe"
}

// Capabilities returns what this provider can do.
func (p *Provider) Capabilities() provider.ProviderCapabilities {
	return provider.ProviderCapabilities{
		MediaTypes: []provider.MediaType{
			provider.MediaTypeMovie,
			provider.MediaTypeShow,
		},
		RequiresAuth: false,
		Priority:     50,
		IDNamespaces: []string{provider.NamespaceTMDB, provider.NamespaceIMDB},
	}
}

// SupportedFields returns the fields the file tags can fill.
func (p *Provider) SupportedFields() []provider.Field {
	return []provider.Field{
		provider.FieldTitle,
		provider.FieldYear,
		provider.FieldPlot,
		provider.FieldRuntime,
		provider.FieldGenres,
		provider.FieldSpokenLanguages,
	}
}

// ConfigSchema returns the configuration schema for this provider.
func (p *Provider) ConfigSchema() provider.ConfigSchema {
	// Currently no configurable fields beyond enable/disable.
	return provider.ConfigSchema{Fields: []provider.ConfigField{}}
}

// Configure applies configuration to the provider.
func (p *Provider) Configure(config map[string]interface{}) error {
	return nil
}

// Fetch probes request.FilePath and converts what it finds.
func (p *Provider) Fetch(ctx context.Context, request provider.FetchRequest) (*provider.Metadata, error) {
	if request.MediaType != provider.MediaTypeMovie && request.MediaType != provider.MediaTypeShow {
		return nil, &provider.ProviderError{
			Provider: providerName,
			Code:     "INVALID_REQUEST",
			Message:  fmt.Sprintf("ffprobe does not handle media type %s", request.MediaType),
			Retry:    false,
		}
	}

	path := strings.TrimSpace(request.FilePath)
	if path == "" {
		return nil, &provider.ProviderError{
			Provider: providerName,
			Code:     "INVALID_REQUEST",
			Message:  "ffprobe requires a non-empty file path",
			Retry:    false,
		}
	}

	data, err := p.probe(ctx, path)
	if err != nil {
		return nil, &provider.ProviderError{
			Provider: providerName,
			Code:     "UNAVAILABLE",
			Message:  fmt.Sprintf("ffprobe failed for %s: %v", path, err),
			Retry:    false,
		}
	}

	return buildMetadata(request, data), nil
}

func buildMetadata(request provider.FetchRequest, data *ffprobe.ProbeData) *provider.Metadata {
	meta := provider.NewMetadata(providerName, request.MediaType)
	if data == nil || data.Format == nil {
		return meta
	}

	tags := data.Format.TagList
	meta.SetID(provider.NamespaceIMDB, idTag(provider.NamespaceIMDB, tagValue(tags, "imdb", "imdb_id", "imdbid")))
	meta.SetID(provider.NamespaceTMDB, idTag(provider.NamespaceTMDB, tagValue(tags, "tmdb", "tmdb_id", "tmdbid")))

	meta.Title = tagValue(tags, "title")
	meta.Plot = tagValue(tags, "synopsis", "description", "comment")
	meta.Year = parseYear(tagValue(tags, "date", "year", "date_released"))
	if genre := tagValue(tags, "genre"); genre != "" {
		meta.Genres = provider.ParseGenres(strings.FieldsFunc(genre, func(r rune) bool {
			return r == ',' || r == ';' || r == '/'
		}))
	}

	if data.Format.DurationSeconds > 0 {
		meta.Runtime = int(math.Round(data.Format.DurationSeconds / 60))
	}

	for _, stream := range data.Streams {
		if stream == nil || stream.CodecType != string(ffprobe.StreamAudio) {
			continue
		}
		lang := strings.ToLower(tagValue(stream.TagList, "language"))
		if lang == "" || lang == "und" || containsString(meta.SpokenLanguages, lang) {
			continue
		}
		meta.SpokenLanguages = append(meta.SpokenLanguages, lang)
	}

	return meta
}

// tagValue returns the first non-blank tag among keys, matched case-insensitively.
func tagValue(tags ffprobe.Tags, keys ...string) string {
	for _, key := range keys {
		for name, value := range tags {
			if !strings.EqualFold(name, key) {
				continue
			}
			if s := strings.TrimSpace(fmt.Sprint(value)); s != "" {
				return s
			}
		}
	}
	return ""
}

// idTag accepts plain ids as well as the "movie/603" form some taggers write.
func idTag(namespace, value string) string {
	if i := strings.LastIndex(value, "/"); i >= 0 {
		value = value[i+1:]
	}
	if !provider.ValidID(namespace, value) {
		return ""
	}
	return value
}

func parseYear(value string) int {
	if len(value) < 4 {
		return 0
	}
	year, err := strconv.Atoi(value[:4])
	if err != nil || year < 1870 {
		return 0
	}
	return year
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
