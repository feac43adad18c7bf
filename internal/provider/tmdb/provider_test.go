package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Digital-Shane/metamerge/internal/provider"
	"github.com/google/go-cmp/cmp"
	"github.com/patrickmn/go-cache"
	"github.com/ryanbradynd05/go-tmdb"
)

// mockTMDBClient implements TMDBClient for testing
type mockTMDBClient struct {
	searchMovieFunc     func(name string, options map[string]string) (*tmdb.MovieSearchResults, error)
	searchTvFunc        func(name string, options map[string]string) (*tmdb.TvSearchResults, error)
	getMovieInfoFunc    func(id int, options map[string]string) (*tmdb.Movie, error)
	getTvInfoFunc       func(id int, options map[string]string) (*tmdb.TV, error)
	getTvSeasonInfoFunc func(showID, seasonID int, options map[string]string) (*tmdb.TvSeason, error)
	getFindFunc         func(id, source string, options map[string]string) (*tmdb.FindResults, error)
}

func (m *mockTMDBClient) SearchMovie(name string, options map[string]string) (*tmdb.MovieSearchResults, error) {
	if m.searchMovieFunc != nil {
		return m.searchMovieFunc(name, options)
	}
	return nil, errors.New("not implemented")
}

func (m *mockTMDBClient) SearchTv(name string, options map[string]string) (*tmdb.TvSearchResults, error) {
	if m.searchTvFunc != nil {
		return m.searchTvFunc(name, options)
	}
	return nil, errors.New("not implemented")
}

func (m *mockTMDBClient) GetMovieInfo(id int, options map[string]string) (*tmdb.Movie, error) {
	if m.getMovieInfoFunc != nil {
		return m.getMovieInfoFunc(id, options)
	}
	return nil, errors.New("not implemented")
}

func (m *mockTMDBClient) GetTvInfo(id int, options map[string]string) (*tmdb.TV, error) {
	if m.getTvInfoFunc != nil {
		return m.getTvInfoFunc(id, options)
	}
	return nil, errors.New("not implemented")
}

func (m *mockTMDBClient) GetTvSeasonInfo(showID, seasonID int, options map[string]string) (*tmdb.TvSeason, error) {
	if m.getTvSeasonInfoFunc != nil {
		return m.getTvSeasonInfoFunc(showID, seasonID, options)
	}
	return nil, errors.New("not implemented")
}

func (m *mockTMDBClient) GetFind(id, source string, options map[string]string) (*tmdb.FindResults, error) {
	if m.getFindFunc != nil {
		return m.getFindFunc(id, source, options)
	}
	return nil, errors.New("not implemented")
}

// decode fills v from a TMDB JSON payload.
func decode[T any](t *testing.T, payload string) *T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		t.Fatalf("decode %T: %v", v, err)
	}
	return &v
}

const matrixJSON = `{
	"id": 603,
	"imdb_id": "tt0133093",
	"title": "The Matrix",
	"original_title": "The Matrix",
	"tagline": "Welcome to the Real World.",
	"overview": "Set in the 22nd century, The Matrix tells the story of a computer hacker.",
	"release_date": "1999-03-30",
	"runtime": 136,
	"vote_average": 8.2,
	"vote_count": 24000,
	"genres": [{"id": 28, "name": "Action"}, {"id": 878, "name": "Science Fiction"}],
	"production_companies": [{"id": 79, "name": "Village Roadshow Pictures"}],
	"production_countries": [{"iso_3166_1": "US", "name": "United States of America"}],
	"spoken_languages": [{"iso_639_1": "en", "name": "English"}],
	"belongs_to_collection": {"id": 2344, "name": "The Matrix Collection"},
	"credits": {
		"cast": [{"name": "Keanu Reeves", "character": "Neo"}],
		"crew": [{"name": "Lana Wachowski", "job": "Director"}, {"name": "Bill Pope", "job": "Director of Photography"}]
	},
	"keywords": {"keywords": [{"id": 310, "name": "artificial intelligence"}]},
	"releases": {"countries": [{"iso_3166_1": "US", "certification": "R"}, {"iso_3166_1": "FR", "certification": ""}]}
}`

func newTestProvider(client TMDBClient) *Provider {
	p := New()
	p.SetClient(client)
	return p
}

func TestFetchMovieByTMDBID(t *testing.T) {
	var gotOptions map[string]string
	client := &mockTMDBClient{
		getMovieInfoFunc: func(id int, options map[string]string) (*tmdb.Movie, error) {
			if id != 603 {
				t.Errorf("GetMovieInfo id = %d, want 603", id)
			}
			gotOptions = options
			return decode[tmdb.Movie](t, matrixJSON), nil
		},
	}
	p := newTestProvider(client)

	req := provider.FetchRequest{MediaType: provider.MediaTypeMovie, IDs: map[string]string{provider.NamespaceTMDB: "603"}}
	got, err := p.Fetch(context.Background(), req)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	want := &provider.Metadata{
		ProviderID:          providerName,
		MediaType:           provider.MediaTypeMovie,
		IDs:                 map[string]string{provider.NamespaceTMDB: "603", provider.NamespaceIMDB: "tt0133093"},
		Title:               "The Matrix",
		OriginalTitle:       "The Matrix",
		Tagline:             "Welcome to the Real World.",
		Year:                1999,
		ReleaseDate:         time.Date(1999, 3, 30, 0, 0, 0, 0, time.UTC),
		Plot:                "Set in the 22nd century, The Matrix tells the story of a computer hacker.",
		Runtime:             136,
		CollectionName:      "The Matrix Collection",
		Ratings:             []provider.Rating{{Source: providerName, Value: 8.2, MaxValue: 10, Votes: 24000}},
		Genres:              []provider.Genre{provider.GenreAction, provider.GenreScienceFic},
		Certifications:      []provider.Certification{{Country: "US", Value: "R"}},
		ProductionCompanies: []string{"Village Roadshow Pictures"},
		CastMembers: []provider.Person{
			{Name: "Keanu Reeves", Role: "Neo", Type: provider.PersonActor},
			{Name: "Lana Wachowski", Role: "Director", Type: provider.PersonDirector},
		},
		SpokenLanguages: []string{"en"},
		Countries:       []string{"US"},
		Tags:            []string{"artificial intelligence"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Fetch() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("credits,keywords,releases", gotOptions["append_to_response"]); diff != "" {
		t.Errorf("append_to_response mismatch (-want +got):\n%s", diff)
	}
}

func TestFetchBridgesFromIMDB(t *testing.T) {
	var findID, findSource string
	client := &mockTMDBClient{
		getFindFunc: func(id, source string, options map[string]string) (*tmdb.FindResults, error) {
			findID, findSource = id, source
			return decode[tmdb.FindResults](t, `{"movie_results": [{"id": 603, "title": "The Matrix"}]}`), nil
		},
		getMovieInfoFunc: func(id int, options map[string]string) (*tmdb.Movie, error) {
			return decode[tmdb.Movie](t, matrixJSON), nil
		},
	}
	p := newTestProvider(client)

	req := provider.FetchRequest{MediaType: provider.MediaTypeMovie, IDs: map[string]string{provider.NamespaceIMDB: "tt0133093"}}
	got, err := p.Fetch(context.Background(), req)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if findID != "tt0133093" || findSource != imdbSource {
		t.Errorf("GetFind(%q, %q), want (tt0133093, %s)", findID, findSource, imdbSource)
	}
	if diff := cmp.Diff("603", got.IDs[provider.NamespaceTMDB]); diff != "" {
		t.Errorf("tmdb id mismatch (-want +got):\n%s", diff)
	}
	if !p.Capabilities().Bridging {
		t.Error("Capabilities().Bridging = false, want true")
	}
}

func TestFetchShowByQuery(t *testing.T) {
	client := &mockTMDBClient{
		searchTvFunc: func(name string, options map[string]string) (*tmdb.TvSearchResults, error) {
			if name != "Breaking Bad" {
				t.Errorf("SearchTv name = %q, want Breaking Bad", name)
			}
			return decode[tmdb.TvSearchResults](t, `{"results": [{"id": 1396, "name": "Breaking Bad", "first_air_date": "2008-01-20", "vote_average": 8.9}]}`), nil
		},
		getTvInfoFunc: func(id int, options map[string]string) (*tmdb.TV, error) {
			return decode[tmdb.TV](t, `{
				"id": 1396,
				"name": "Breaking Bad",
				"original_name": "Breaking Bad",
				"first_air_date": "2008-01-20",
				"overview": "A high school chemistry teacher turned meth maker",
				"episode_run_time": [45, 47],
				"number_of_seasons": 5,
				"origin_country": ["US"],
				"genres": [{"id": 18, "name": "Drama"}, {"id": 80, "name": "Crime"}],
				"networks": [{"id": 174, "name": "AMC"}],
				"external_ids": {"imdb_id": "tt0903747", "tvdb_id": 81189}
			}`), nil
		},
	}
	p := newTestProvider(client)

	got, err := p.Fetch(context.Background(), provider.FetchRequest{MediaType: provider.MediaTypeShow, Query: "Breaking Bad"})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	wantIDs := map[string]string{
		provider.NamespaceTMDB: "1396",
		provider.NamespaceIMDB: "tt0903747",
		provider.NamespaceTVDB: "81189",
	}
	if diff := cmp.Diff(wantIDs, got.IDs); diff != "" {
		t.Errorf("IDs mismatch (-want +got):\n%s", diff)
	}
	if got.Runtime != 45 || got.Year != 2008 {
		t.Errorf("Runtime, Year = %d, %d, want 45, 2008", got.Runtime, got.Year)
	}
	if diff := cmp.Diff([]provider.Genre{provider.GenreDrama, provider.GenreCrime}, got.Genres); diff != "" {
		t.Errorf("Genres mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"AMC"}, got.ProductionCompanies); diff != "" {
		t.Errorf("ProductionCompanies mismatch (-want +got):\n%s", diff)
	}
}

func TestFetchErrors(t *testing.T) {
	tests := map[string]struct {
		req      provider.FetchRequest
		client   *mockTMDBClient
		wantCode string
	}{
		"no identifiers": {
			req:      provider.FetchRequest{MediaType: provider.MediaTypeMovie},
			client:   &mockTMDBClient{},
			wantCode: "INVALID_REQUEST",
		},
		"bad tmdb id": {
			req:      provider.FetchRequest{MediaType: provider.MediaTypeMovie, IDs: map[string]string{provider.NamespaceTMDB: "abc"}},
			client:   &mockTMDBClient{},
			wantCode: "INVALID_REQUEST",
		},
		"imdb id unknown to tmdb": {
			req: provider.FetchRequest{MediaType: provider.MediaTypeShow, IDs: map[string]string{provider.NamespaceIMDB: "tt0000001"}},
			client: &mockTMDBClient{getFindFunc: func(string, string, map[string]string) (*tmdb.FindResults, error) {
				return &tmdb.FindResults{}, nil
			}},
			wantCode: "NOT_FOUND",
		},
		"unauthorized": {
			req: provider.FetchRequest{MediaType: provider.MediaTypeMovie, IDs: map[string]string{provider.NamespaceTMDB: "603"}},
			client: &mockTMDBClient{getMovieInfoFunc: func(int, map[string]string) (*tmdb.Movie, error) {
				return nil, errors.New("401 Unauthorized")
			}},
			wantCode: "AUTH_FAILED",
		},
		"empty search": {
			req: provider.FetchRequest{MediaType: provider.MediaTypeMovie, Query: "Nothing"},
			client: &mockTMDBClient{searchMovieFunc: func(string, map[string]string) (*tmdb.MovieSearchResults, error) {
				return &tmdb.MovieSearchResults{}, nil
			}},
			wantCode: "NOT_FOUND",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := newTestProvider(tc.client).Fetch(context.Background(), tc.req)

			var provErr *provider.ProviderError
			if !errors.As(err, &provErr) {
				t.Fatalf("Fetch() error = %v, want ProviderError", err)
			}
			if provErr.Code != tc.wantCode {
				t.Errorf("Code = %q, want %q", provErr.Code, tc.wantCode)
			}
		})
	}
}

func TestFetchUsesCache(t *testing.T) {
	calls := 0
	client := &mockTMDBClient{
		getMovieInfoFunc: func(int, map[string]string) (*tmdb.Movie, error) {
			calls++
			return decode[tmdb.Movie](t, matrixJSON), nil
		},
	}
	p := newTestProvider(client)
	p.cache = cache.New(time.Hour, time.Minute)

	req := provider.FetchRequest{MediaType: provider.MediaTypeMovie, IDs: map[string]string{provider.NamespaceTMDB: "603"}}
	first, err := p.Fetch(context.Background(), req)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	first.Title = "mutated by caller"

	second, err := p.Fetch(context.Background(), req)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if calls != 1 {
		t.Errorf("GetMovieInfo called %d times, want 1", calls)
	}
	if second.Title != "The Matrix" {
		t.Errorf("cached Title = %q, want The Matrix", second.Title)
	}
}

func TestSearch(t *testing.T) {
	var gotOptions map[string]string
	client := &mockTMDBClient{
		searchMovieFunc: func(name string, options map[string]string) (*tmdb.MovieSearchResults, error) {
			gotOptions = options
			return decode[tmdb.MovieSearchResults](t, `{"results": [
				{"id": 949, "title": "Heat", "original_title": "Heat", "release_date": "1995-12-15", "vote_average": 7.9},
				{"id": 11551, "title": "Heat", "release_date": "1986-03-14", "vote_average": 5.1}
			]}`), nil
		},
	}
	p := newTestProvider(client)

	got, err := p.Search(context.Background(), provider.FetchRequest{MediaType: provider.MediaTypeMovie, Query: "Heat", Year: 1995})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	want := []provider.SearchResult{
		{ProviderID: providerName, MediaType: provider.MediaTypeMovie, IDs: map[string]string{provider.NamespaceTMDB: "949"}, Title: "Heat", OriginalTitle: "Heat", Year: 1995, Score: 1},
		{ProviderID: providerName, MediaType: provider.MediaTypeMovie, IDs: map[string]string{provider.NamespaceTMDB: "11551"}, Title: "Heat", Year: 1986, Score: 0.5},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Search() mismatch (-want +got):\n%s", diff)
	}
	if gotOptions["year"] != "1995" {
		t.Errorf("year option = %q, want 1995", gotOptions["year"])
	}

	if _, err := p.Search(context.Background(), provider.FetchRequest{Query: "  "}); err == nil {
		t.Error("Search() with blank query error = nil, want error")
	}
}

func TestSearchUsesCache(t *testing.T) {
	calls := 0
	client := &mockTMDBClient{
		searchMovieFunc: func(string, map[string]string) (*tmdb.MovieSearchResults, error) {
			calls++
			return decode[tmdb.MovieSearchResults](t, `{"results": [{"id": 603, "title": "The Matrix", "release_date": "1999-03-31"}]}`), nil
		},
	}
	p := newTestProvider(client)
	p.cache = cache.New(time.Hour, time.Minute)

	req := provider.FetchRequest{MediaType: provider.MediaTypeMovie, Query: "The Matrix"}
	first, err := p.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	first[0].IDs[provider.NamespaceTMDB] = "mutated"
	first[0].Title = "mutated"

	second, err := p.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	second[0].IDs[provider.NamespaceIMDB] = "tt0000001"

	third, err := p.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if calls != 1 {
		t.Errorf("SearchMovie called %d times, want 1", calls)
	}
	want := []provider.SearchResult{
		{ProviderID: providerName, MediaType: provider.MediaTypeMovie, IDs: map[string]string{provider.NamespaceTMDB: "603"}, Title: "The Matrix", Year: 1999, Score: 1},
	}
	if diff := cmp.Diff(want, third); diff != "" {
		t.Errorf("cached Search() mismatch (-want +got):\n%s", diff)
	}
}

func TestEpisodeList(t *testing.T) {
	client := &mockTMDBClient{
		getTvInfoFunc: func(id int, options map[string]string) (*tmdb.TV, error) {
			return decode[tmdb.TV](t, `{"id": 1396, "name": "Breaking Bad", "number_of_seasons": 2}`), nil
		},
		getTvSeasonInfoFunc: func(showID, season int, options map[string]string) (*tmdb.TvSeason, error) {
			if season == 1 {
				return decode[tmdb.TvSeason](t, `{"season_number": 1, "episodes": [
					{"name": "Pilot", "episode_number": 1, "season_number": 1, "air_date": "2008-01-20"},
					{"name": "Cat's in the Bag...", "episode_number": 2, "season_number": 1}
				]}`), nil
			}
			return decode[tmdb.TvSeason](t, `{"season_number": 2, "episodes": [{"name": "Seven Thirty-Seven", "episode_number": 1}]}`), nil
		},
	}
	p := newTestProvider(client)

	req := provider.FetchRequest{IDs: map[string]string{provider.NamespaceTMDB: "1396"}}
	got, err := p.EpisodeList(context.Background(), req)
	if err != nil {
		t.Fatalf("EpisodeList() error = %v", err)
	}

	type episode struct {
		Season, Number int
		Title          string
	}
	var gotEpisodes []episode
	for _, m := range got {
		gotEpisodes = append(gotEpisodes, episode{m.Season, m.Episode, m.Title})
	}
	want := []episode{
		{1, 1, "Pilot"},
		{1, 2, "Cat's in the Bag..."},
		{2, 1, "Seven Thirty-Seven"},
	}
	if diff := cmp.Diff(want, gotEpisodes); diff != "" {
		t.Errorf("EpisodeList() mismatch (-want +got):\n%s", diff)
	}
	if got[0].Year != 2008 {
		t.Errorf("first episode Year = %d, want 2008", got[0].Year)
	}
}

func TestConfigure(t *testing.T) {
	p := New()
	if err := p.Configure(map[string]interface{}{}); err == nil {
		t.Error("Configure() without api_key error = nil, want error")
	}

	err := p.Configure(map[string]interface{}{
		"api_key":  "0123456789abcdef0123456789abcdef",
		"language": "de-DE",
	})
	if err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	if p.language != "de-DE" {
		t.Errorf("language = %q, want de-DE", p.language)
	}
	if p.cache == nil {
		t.Error("cache = nil, want enabled by default")
	}

	if err := p.Configure(map[string]interface{}{"api_key": "k", "cache_enabled": false}); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	if p.cache != nil {
		t.Error("cache != nil with cache_enabled false")
	}
}

func TestMapError(t *testing.T) {
	p := New()

	tests := map[string]struct {
		err       error
		wantCode  string
		wantRetry bool
	}{
		"unauthorized": {errors.New("401 Unauthorized"), "AUTH_FAILED", false},
		"not found":    {errors.New("404 Not Found"), "NOT_FOUND", false},
		"rate limited": {errors.New("429 Too Many Requests"), "RATE_LIMITED", true},
		"unavailable":  {errors.New("503 Service Unavailable"), "UNAVAILABLE", true},
		"other":        {errors.New("connection reset"), "UNKNOWN", false},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			var provErr *provider.ProviderError
			if !errors.As(p.mapError(tc.err), &provErr) {
				t.Fatalf("mapError(%v) is not a ProviderError", tc.err)
			}
			if provErr.Code != tc.wantCode || provErr.Retry != tc.wantRetry {
				t.Errorf("mapError(%v) = %s/%v, want %s/%v", tc.err, provErr.Code, provErr.Retry, tc.wantCode, tc.wantRetry)
			}
		})
	}

	if p.mapError(nil) != nil {
		t.Error("mapError(nil) != nil")
	}
}
