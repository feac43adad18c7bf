package provider

import (
	"maps"
	"slices"
	"strings"
	"time"
)

// Metadata is the record both requested from providers and produced by the
// aggregator.
type Metadata struct {
	ProviderID string
	MediaType  MediaType

	// Provider-specific IDs keyed by namespace
	IDs map[string]string

	Title          string
	OriginalTitle  string
	Tagline        string
	Year           int
	ReleaseDate    time.Time
	Plot           string
	Runtime        int // minutes
	Top250         int
	CollectionName string

	Ratings             []Rating
	Genres              []Genre
	Certifications      []Certification
	ProductionCompanies []string
	CastMembers         []Person
	SpokenLanguages     []string
	Countries           []string
	Tags                []string

	// Episode lists only
	Season  int
	Episode int
}

// NewMetadata returns an empty record attributed to providerID.
func NewMetadata(providerID string, mediaType MediaType) *Metadata {
	return &Metadata{
		ProviderID: providerID,
		MediaType:  mediaType,
		IDs:        make(map[string]string),
	}
}

// SetID records a non-blank identifier.
func (m *Metadata) SetID(namespace, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	if m.IDs == nil {
		m.IDs = make(map[string]string)
	}
	m.IDs[namespace] = value
}

// Clone returns a deep copy of m.
func (m *Metadata) Clone() *Metadata {
	if m == nil {
		return nil
	}
	c := *m
	c.IDs = maps.Clone(m.IDs)
	c.Ratings = slices.Clone(m.Ratings)
	c.Genres = slices.Clone(m.Genres)
	c.Certifications = slices.Clone(m.Certifications)
	c.ProductionCompanies = slices.Clone(m.ProductionCompanies)
	c.CastMembers = slices.Clone(m.CastMembers)
	c.SpokenLanguages = slices.Clone(m.SpokenLanguages)
	c.Countries = slices.Clone(m.Countries)
	c.Tags = slices.Clone(m.Tags)
	return &c
}

// Rating is a score reported by one rating source.
type Rating struct {
	Source   string
	Value    float32
	MaxValue float32
	Votes    int
}

// Certification is a content rating for one country, e.g. US / PG-13.
type Certification struct {
	Country string
	Value   string
}

// PersonType classifies a cast or crew member.
type PersonType string

const (
	PersonActor    PersonType = "actor"
	PersonDirector PersonType = "director"
	PersonWriter   PersonType = "writer"
	PersonProducer PersonType = "producer"
)

// Person is a cast or crew member.
type Person struct {
	Name string
	Role string
	Type PersonType
}

// Genre is the normalised genre vocabulary shared by all providers.
type Genre string

const (
	GenreUnknown     Genre = ""
	GenreAction      Genre = "action"
	GenreAdventure   Genre = "adventure"
	GenreAnimation   Genre = "animation"
	GenreComedy      Genre = "comedy"
	GenreCrime       Genre = "crime"
	GenreDocumentary Genre = "documentary"
	GenreDrama       Genre = "drama"
	GenreFamily      Genre = "family"
	GenreFantasy     Genre = "fantasy"
	GenreHistory     Genre = "history"
	GenreHorror      Genre = "horror"
	GenreMusic       Genre = "music"
	GenreMystery     Genre = "mystery"
	GenreRomance     Genre = "romance"
	GenreScienceFic  Genre = "science_fiction"
	GenreThriller    Genre = "thriller"
	GenreWar         Genre = "war"
	GenreWestern     Genre = "western"
)

var genreAliases = map[string]Genre{
	"action":             GenreAction,
	"action & adventure": GenreAction,
	"adventure":          GenreAdventure,
	"animation":          GenreAnimation,
	"anime":              GenreAnimation,
	"comedy":             GenreComedy,
	"crime":              GenreCrime,
	"documentary":        GenreDocumentary,
	"drama":              GenreDrama,
	"family":             GenreFamily,
	"kids":               GenreFamily,
	"fantasy":            GenreFantasy,
	"history":            GenreHistory,
	"horror":             GenreHorror,
	"music":              GenreMusic,
	"musical":            GenreMusic,
	"mystery":            GenreMystery,
	"romance":            GenreRomance,
	"science fiction":    GenreScienceFic,
	"science-fiction":    GenreScienceFic,
	"sci-fi":             GenreScienceFic,
	"sci-fi & fantasy":   GenreScienceFic,
	"thriller":           GenreThriller,
	"suspense":           GenreThriller,
	"war":                GenreWar,
	"war & politics":     GenreWar,
	"western":            GenreWestern,
}

// ParseGenre maps a provider genre name onto the shared vocabulary.
func ParseGenre(name string) Genre {
	return genreAliases[strings.ToLower(strings.TrimSpace(name))]
}

// ParseGenres maps names and drops unknown or repeated genres, keeping order.
func ParseGenres(names []string) []Genre {
	genres := make([]Genre, 0, len(names))
	for _, name := range names {
		g := ParseGenre(name)
		if g == GenreUnknown || slices.Contains(genres, g) {
			continue
		}
		genres = append(genres, g)
	}
	return genres
}
