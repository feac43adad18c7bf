package provider

import (
	"slices"
	"strings"
	"time"
)

// Field names a mergeable metadata field. The string values are the keys used
// in the field configuration.
type Field string

const (
	FieldTitle               Field = "title"
	FieldOriginalTitle       Field = "originalTitle"
	FieldTagline             Field = "tagline"
	FieldYear                Field = "year"
	FieldReleaseDate         Field = "releaseDate"
	FieldPlot                Field = "plot"
	FieldRuntime             Field = "runtime"
	FieldRatings             Field = "ratings"
	FieldTop250              Field = "top250"
	FieldGenres              Field = "genres"
	FieldCertifications      Field = "certifications"
	FieldProductionCompanies Field = "productionCompanies"
	FieldCastMembers         Field = "castMembers"
	FieldSpokenLanguages     Field = "spokenLanguages"
	FieldCountries           Field = "countries"
	FieldTags                Field = "tags"
	FieldCollectionName      Field = "collectionName"
)

// FieldDescriptor binds a Field to typed accessors on Metadata.
type FieldDescriptor struct {
	Name Field

	present func(m *Metadata) bool
	copy    func(dst, src *Metadata)
}

// Present applies the presence rule for this field to m.
func (d FieldDescriptor) Present(m *Metadata) bool {
	if m == nil {
		return false
	}
	return d.present(m)
}

// CopyTo copies the field value from src into dst.
func (d FieldDescriptor) CopyTo(dst, src *Metadata) {
	d.copy(dst, src)
}

func stringField(name Field, ptr func(*Metadata) *string) FieldDescriptor {
	return FieldDescriptor{
		Name:    name,
		present: func(m *Metadata) bool { return strings.TrimSpace(*ptr(m)) != "" },
		copy:    func(dst, src *Metadata) { *ptr(dst) = *ptr(src) },
	}
}

func intField(name Field, ptr func(*Metadata) *int) FieldDescriptor {
	return FieldDescriptor{
		Name:    name,
		present: func(m *Metadata) bool { return *ptr(m) != 0 },
		copy:    func(dst, src *Metadata) { *ptr(dst) = *ptr(src) },
	}
}

func timeField(name Field, ptr func(*Metadata) *time.Time) FieldDescriptor {
	return FieldDescriptor{
		Name:    name,
		present: func(m *Metadata) bool { return !ptr(m).IsZero() },
		copy:    func(dst, src *Metadata) { *ptr(dst) = *ptr(src) },
	}
}

func sliceField[T any](name Field, ptr func(*Metadata) *[]T) FieldDescriptor {
	return FieldDescriptor{
		Name:    name,
		present: func(m *Metadata) bool { return len(*ptr(m)) > 0 },
		copy:    func(dst, src *Metadata) { *ptr(dst) = slices.Clone(*ptr(src)) },
	}
}

// genres only count known members, and only those are copied.
func genreField(name Field) FieldDescriptor {
	known := func(genres []Genre) []Genre {
		out := make([]Genre, 0, len(genres))
		for _, g := range genres {
			if g != GenreUnknown {
				out = append(out, g)
			}
		}
		return out
	}
	return FieldDescriptor{
		Name:    name,
		present: func(m *Metadata) bool { return len(known(m.Genres)) > 0 },
		copy:    func(dst, src *Metadata) { dst.Genres = known(src.Genres) },
	}
}

var fieldDescriptors = []FieldDescriptor{
	stringField(FieldTitle, func(m *Metadata) *string { return &m.Title }),
	stringField(FieldOriginalTitle, func(m *Metadata) *string { return &m.OriginalTitle }),
	stringField(FieldTagline, func(m *Metadata) *string { return &m.Tagline }),
	intField(FieldYear, func(m *Metadata) *int { return &m.Year }),
	timeField(FieldReleaseDate, func(m *Metadata) *time.Time { return &m.ReleaseDate }),
	stringField(FieldPlot, func(m *Metadata) *string { return &m.Plot }),
	intField(FieldRuntime, func(m *Metadata) *int { return &m.Runtime }),
	sliceField(FieldRatings, func(m *Metadata) *[]Rating { return &m.Ratings }),
	intField(FieldTop250, func(m *Metadata) *int { return &m.Top250 }),
	genreField(FieldGenres),
	sliceField(FieldCertifications, func(m *Metadata) *[]Certification { return &m.Certifications }),
	sliceField(FieldProductionCompanies, func(m *Metadata) *[]string { return &m.ProductionCompanies }),
	sliceField(FieldCastMembers, func(m *Metadata) *[]Person { return &m.CastMembers }),
	sliceField(FieldSpokenLanguages, func(m *Metadata) *[]string { return &m.SpokenLanguages }),
	sliceField(FieldCountries, func(m *Metadata) *[]string { return &m.Countries }),
	sliceField(FieldTags, func(m *Metadata) *[]string { return &m.Tags }),
	stringField(FieldCollectionName, func(m *Metadata) *string { return &m.CollectionName }),
}

var fieldsByName = func() map[Field]FieldDescriptor {
	byName := make(map[Field]FieldDescriptor, len(fieldDescriptors))
	for _, d := range fieldDescriptors {
		byName[d.Name] = d
	}
	return byName
}()

// Fields returns every mergeable field in declaration order.
func Fields() []FieldDescriptor {
	return slices.Clone(fieldDescriptors)
}

// LookupField resolves a configuration key to its descriptor.
func LookupField(name string) (FieldDescriptor, bool) {
	d, ok := fieldsByName[Field(strings.TrimSpace(name))]
	return d, ok
}

// FieldNames returns the configuration keys of every mergeable field.
func FieldNames() []Field {
	names := make([]Field, len(fieldDescriptors))
	for i, d := range fieldDescriptors {
		names[i] = d.Name
	}
	return names
}
