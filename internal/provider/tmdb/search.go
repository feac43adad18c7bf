package tmdb

import (
	"context"
	"fmt"
	"maps"
	"strconv"
	"strings"

	"github.com/Digital-Shane/metamerge/internal/provider"
	"github.com/patrickmn/go-cache"
)

// Search looks up movies or shows matching the request query.
func (p *Provider) Search(ctx context.Context, request provider.FetchRequest) ([]provider.SearchResult, error) {
	if p.client == nil {
		return nil, fmt.Errorf("provider not configured")
	}
	if strings.TrimSpace(request.Query) == "" {
		return nil, &provider.ProviderError{
			Provider: providerName,
			Code:     "INVALID_REQUEST",
			Message:  "search query is required",
		}
	}
	return p.search(ctx, request)
}

func (p *Provider) search(ctx context.Context, request provider.FetchRequest) ([]provider.SearchResult, error) {
	cacheKey := p.buildCacheKey("search", request)
	if p.cache != nil {
		if cached, found := p.cache.Get(cacheKey); found {
			if results, ok := cached.([]provider.SearchResult); ok {
				return cloneResults(results), nil
			}
		}
	}

	options := map[string]string{
		"language": p.getLanguage(request),
	}

	if err := p.rateLimiter.wait(ctx); err != nil {
		return nil, err
	}

	var results []provider.SearchResult
	if request.MediaType == provider.MediaTypeShow {
		if request.Year > 0 {
			options["first_air_date_year"] = strconv.Itoa(request.Year)
		}
		found, err := p.client.SearchTv(request.Query, options)
		if err != nil {
			return nil, p.mapError(err)
		}
		if found != nil {
			for i, show := range found.Results {
				_, year := parseDate(show.FirstAirDate)
				results = append(results, provider.SearchResult{
					ProviderID:    providerName,
					MediaType:     provider.MediaTypeShow,
					IDs:           map[string]string{provider.NamespaceTMDB: strconv.Itoa(show.ID)},
					Title:         show.Name,
					OriginalTitle: show.OriginalName,
					Year:          year,
					Score:         relevance(i, len(found.Results)),
				})
			}
		}
	} else {
		if request.Year > 0 {
			options["year"] = strconv.Itoa(request.Year)
		}
		found, err := p.client.SearchMovie(request.Query, options)
		if err != nil {
			return nil, p.mapError(err)
		}
		if found != nil {
			for i, movie := range found.Results {
				_, year := parseDate(movie.ReleaseDate)
				results = append(results, provider.SearchResult{
					ProviderID:    providerName,
					MediaType:     provider.MediaTypeMovie,
					IDs:           map[string]string{provider.NamespaceTMDB: strconv.Itoa(movie.ID)},
					Title:         movie.Title,
					OriginalTitle: movie.OriginalTitle,
					Year:          year,
					Overview:      movie.Overview,
					Score:         relevance(i, len(found.Results)),
				})
			}
		}
	}

	if p.cache != nil {
		p.cache.Set(cacheKey, cloneResults(results), cache.DefaultExpiration)
	}
	return results, nil
}

// relevance scores a result by its rank in the TMDB response, which is
// already ordered by how well it matches the query. The first result scores 1.
func relevance(rank, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(total-rank) / float64(total)
}

func cloneResults(results []provider.SearchResult) []provider.SearchResult {
	if results == nil {
		return nil
	}
	out := make([]provider.SearchResult, len(results))
	for i, r := range results {
		r.IDs = maps.Clone(r.IDs)
		out[i] = r
	}
	return out
}

// EpisodeList returns the episodes of the requested show. When Season is set
// only that season is listed.
func (p *Provider) EpisodeList(ctx context.Context, request provider.FetchRequest) ([]*provider.Metadata, error) {
	if p.client == nil {
		return nil, fmt.Errorf("provider not configured")
	}
	request.MediaType = provider.MediaTypeShow

	showID, err := p.resolveID(ctx, request)
	if err != nil {
		return nil, err
	}

	seasons := []int{request.Season}
	if request.Season <= 0 {
		if err := p.rateLimiter.wait(ctx); err != nil {
			return nil, err
		}
		show, err := p.client.GetTvInfo(showID, map[string]string{"language": p.getLanguage(request)})
		if err != nil {
			return nil, p.mapError(err)
		}
		if show == nil {
			return nil, notFound("show %d not found", showID)
		}
		seasons = seasons[:0]
		for s := 1; s <= show.NumberOfSeasons; s++ {
			seasons = append(seasons, s)
		}
	}

	var episodes []*provider.Metadata
	for _, number := range seasons {
		if err := p.rateLimiter.wait(ctx); err != nil {
			return nil, err
		}
		season, err := p.client.GetTvSeasonInfo(showID, number, map[string]string{"language": p.getLanguage(request)})
		if err != nil {
			return nil, p.mapError(err)
		}
		if season == nil {
			continue
		}
		for _, ep := range season.Episodes {
			meta := provider.NewMetadata(providerName, provider.MediaTypeShow)
			meta.SetID(provider.NamespaceTMDB, strconv.Itoa(showID))
			meta.Title = ep.Name
			meta.Plot = ep.Overview
			meta.ReleaseDate, meta.Year = parseDate(ep.AirDate)
			meta.Ratings = rating(ep.VoteAverage, ep.VoteCount)
			meta.Season = season.SeasonNumber
			if ep.SeasonNumber > 0 {
				meta.Season = ep.SeasonNumber
			}
			meta.Episode = ep.EpisodeNumber
			episodes = append(episodes, meta)
		}
	}

	return episodes, nil
}
