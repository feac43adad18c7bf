package tmdb

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Digital-Shane/metamerge/internal/provider"
	"github.com/patrickmn/go-cache"
	"github.com/ryanbradynd05/go-tmdb"
)

// Fetch retrieves metadata for the item named by the request. A tmdb id is
// used directly; otherwise an imdb id is looked up through the find endpoint,
// and as a last resort the query is searched.
func (p *Provider) Fetch(ctx context.Context, request provider.FetchRequest) (*provider.Metadata, error) {
	if p.client == nil {
		return nil, fmt.Errorf("provider not configured")
	}
	if request.MediaType != provider.MediaTypeMovie && request.MediaType != provider.MediaTypeShow {
		return nil, fmt.Errorf("unsupported media type: %s", request.MediaType)
	}

	cacheKey := p.buildCacheKey("fetch", request)
	if p.cache != nil {
		if cached, found := p.cache.Get(cacheKey); found {
			if meta, ok := cached.(*provider.Metadata); ok {
				return meta.Clone(), nil
			}
		}
	}

	id, err := p.resolveID(ctx, request)
	if err != nil {
		return nil, err
	}

	var metadata *provider.Metadata
	if request.MediaType == provider.MediaTypeMovie {
		metadata, err = p.fetchMovie(ctx, id, request)
	} else {
		metadata, err = p.fetchShow(ctx, id, request)
	}
	if err != nil {
		return nil, err
	}

	if p.cache != nil {
		p.cache.Set(cacheKey, metadata.Clone(), cache.DefaultExpiration)
	}
	return metadata, nil
}

// resolveID finds the TMDB id of the requested item.
func (p *Provider) resolveID(ctx context.Context, request provider.FetchRequest) (int, error) {
	if request.HasID(provider.NamespaceTMDB) {
		id, err := strconv.Atoi(request.ID(provider.NamespaceTMDB))
		if err != nil || id <= 0 {
			return 0, &provider.ProviderError{
				Provider: providerName,
				Code:     "INVALID_REQUEST",
				Message:  fmt.Sprintf("invalid tmdb id %q", request.ID(provider.NamespaceTMDB)),
			}
		}
		return id, nil
	}

	if request.HasID(provider.NamespaceIMDB) {
		return p.findByIMDB(ctx, request)
	}

	if strings.TrimSpace(request.Query) != "" {
		results, err := p.search(ctx, request)
		if err != nil {
			return 0, err
		}
		if len(results) == 0 {
			return 0, notFound("no results found for %s: %s", request.MediaType, request.Query)
		}
		return strconv.Atoi(results[0].IDs[provider.NamespaceTMDB])
	}

	return 0, &provider.ProviderError{
		Provider: providerName,
		Code:     "INVALID_REQUEST",
		Message:  "a tmdb id, imdb id or query is required",
	}
}

// findByIMDB translates an imdb id into a TMDB id.
func (p *Provider) findByIMDB(ctx context.Context, request provider.FetchRequest) (int, error) {
	imdbID := request.ID(provider.NamespaceIMDB)
	if err := p.rateLimiter.wait(ctx); err != nil {
		return 0, err
	}

	found, err := p.client.GetFind(imdbID, imdbSource, map[string]string{"language": p.getLanguage(request)})
	if err != nil {
		return 0, p.mapError(err)
	}
	if found != nil {
		if request.MediaType == provider.MediaTypeMovie && len(found.MovieResults) > 0 {
			return found.MovieResults[0].ID, nil
		}
		if request.MediaType == provider.MediaTypeShow && len(found.TvResults) > 0 {
			return found.TvResults[0].ID, nil
		}
	}
	return 0, notFound("no %s found for imdb id %s", request.MediaType, imdbID)
}

// fetchMovie fetches full movie details with credits, keywords and releases.
func (p *Provider) fetchMovie(ctx context.Context, id int, request provider.FetchRequest) (*provider.Metadata, error) {
	options := map[string]string{
		"language":           p.getLanguage(request),
		"append_to_response": "credits,keywords,releases",
	}
	if err := p.rateLimiter.wait(ctx); err != nil {
		return nil, err
	}

	movie, err := p.client.GetMovieInfo(id, options)
	if err != nil {
		return nil, p.mapError(err)
	}
	if movie == nil {
		return nil, notFound("movie %d not found", id)
	}
	return movieToMetadata(movie), nil
}

// fetchShow fetches full show details with external ids and credits.
func (p *Provider) fetchShow(ctx context.Context, id int, request provider.FetchRequest) (*provider.Metadata, error) {
	options := map[string]string{
		"language":           p.getLanguage(request),
		"append_to_response": "external_ids,credits",
	}
	if err := p.rateLimiter.wait(ctx); err != nil {
		return nil, err
	}

	show, err := p.client.GetTvInfo(id, options)
	if err != nil {
		return nil, p.mapError(err)
	}
	if show == nil {
		return nil, notFound("show %d not found", id)
	}
	return tvToMetadata(show), nil
}

// Conversion functions

func movieToMetadata(movie *tmdb.Movie) *provider.Metadata {
	meta := provider.NewMetadata(providerName, provider.MediaTypeMovie)
	meta.SetID(provider.NamespaceTMDB, strconv.Itoa(movie.ID))
	if provider.ValidID(provider.NamespaceIMDB, movie.ImdbID) {
		meta.SetID(provider.NamespaceIMDB, movie.ImdbID)
	}

	meta.Title = movie.Title
	meta.OriginalTitle = movie.OriginalTitle
	meta.Tagline = movie.Tagline
	meta.Plot = movie.Overview
	meta.Runtime = int(movie.Runtime)
	meta.ReleaseDate, meta.Year = parseDate(movie.ReleaseDate)
	meta.CollectionName = movie.BelongsToCollection.Name
	meta.Ratings = rating(movie.VoteAverage, movie.VoteCount)

	genres := make([]string, 0, len(movie.Genres))
	for _, g := range movie.Genres {
		genres = append(genres, g.Name)
	}
	meta.Genres = provider.ParseGenres(genres)

	for _, c := range movie.ProductionCompanies {
		meta.ProductionCompanies = append(meta.ProductionCompanies, c.Name)
	}
	for _, c := range movie.ProductionCountries {
		meta.Countries = append(meta.Countries, c.Iso3166_1)
	}
	for _, l := range movie.SpokenLanguages {
		meta.SpokenLanguages = append(meta.SpokenLanguages, l.Iso639_1)
	}

	if movie.Credits != nil {
		for _, c := range movie.Credits.Cast {
			meta.CastMembers = append(meta.CastMembers, provider.Person{Name: c.Name, Role: c.Character, Type: provider.PersonActor})
		}
		for _, c := range movie.Credits.Crew {
			if kind, ok := crewType(c.Job); ok {
				meta.CastMembers = append(meta.CastMembers, provider.Person{Name: c.Name, Role: c.Job, Type: kind})
			}
		}
	}
	if movie.Keywords != nil {
		for _, k := range movie.Keywords.Keywords {
			meta.Tags = append(meta.Tags, k.Name)
		}
	}
	if movie.Releases != nil {
		for _, r := range movie.Releases.Countries {
			if r.Certification == "" {
				continue
			}
			meta.Certifications = append(meta.Certifications, provider.Certification{
				Country: r.Iso3166_1,
				Value:   r.Certification,
			})
		}
	}

	return meta
}

func tvToMetadata(show *tmdb.TV) *provider.Metadata {
	meta := provider.NewMetadata(providerName, provider.MediaTypeShow)
	meta.SetID(provider.NamespaceTMDB, strconv.Itoa(show.ID))
	if show.ExternalIDs != nil {
		if provider.ValidID(provider.NamespaceIMDB, show.ExternalIDs.ImdbID) {
			meta.SetID(provider.NamespaceIMDB, show.ExternalIDs.ImdbID)
		}
		if tvdbID := fmt.Sprint(show.ExternalIDs.TvdbID); provider.ValidID(provider.NamespaceTVDB, tvdbID) {
			meta.SetID(provider.NamespaceTVDB, tvdbID)
		}
	}

	meta.Title = show.Name
	meta.OriginalTitle = show.OriginalName
	meta.Plot = show.Overview
	meta.ReleaseDate, meta.Year = parseDate(show.FirstAirDate)
	meta.Ratings = rating(show.VoteAverage, show.VoteCount)
	meta.Countries = append(meta.Countries, show.OriginCountry...)
	if len(show.EpisodeRunTime) > 0 {
		meta.Runtime = show.EpisodeRunTime[0]
	}

	genres := make([]string, 0, len(show.Genres))
	for _, g := range show.Genres {
		genres = append(genres, g.Name)
	}
	meta.Genres = provider.ParseGenres(genres)

	for _, n := range show.Networks {
		meta.ProductionCompanies = append(meta.ProductionCompanies, n.Name)
	}
	for _, c := range show.ProductionCompanies {
		meta.ProductionCompanies = append(meta.ProductionCompanies, c.Name)
	}

	if show.Credits != nil {
		for _, c := range show.Credits.Cast {
			meta.CastMembers = append(meta.CastMembers, provider.Person{Name: c.Name, Role: c.Character, Type: provider.PersonActor})
		}
	}

	return meta
}

func crewType(job string) (provider.PersonType, bool) {
	switch job {
	case "Director":
		return provider.PersonDirector, true
	case "Writer", "Screenplay":
		return provider.PersonWriter, true
	case "Producer":
		return provider.PersonProducer, true
	default:
		return "", false
	}
}

func rating(average float32, votes uint32) []provider.Rating {
	if average <= 0 {
		return nil
	}
	return []provider.Rating{{Source: providerName, Value: average, MaxValue: 10, Votes: int(votes)}}
}

// parseDate parses a TMDB yyyy-mm-dd date and returns it with its year.
func parseDate(value string) (time.Time, int) {
	date, err := time.Parse("2006-01-02", strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, 0
	}
	return date, date.Year()
}

// Helper functions

func (p *Provider) buildCacheKey(operation string, request provider.FetchRequest) string {
	parts := []string{
		operation,
		string(request.MediaType),
		request.ID(provider.NamespaceTMDB),
		request.ID(provider.NamespaceIMDB),
		request.Query,
		strconv.Itoa(request.Year),
		strconv.Itoa(request.Season),
		p.getLanguage(request),
	}
	return strings.Join(parts, ":")
}

func (p *Provider) getLanguage(request provider.FetchRequest) string {
	if request.Language != "" {
		return request.Language
	}
	return p.language
}
