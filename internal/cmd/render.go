package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Digital-Shane/metamerge/internal/provider"
	"github.com/charmbracelet/lipgloss"
)

var (
	headingStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(22)
	enabledStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	disabledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func row(label, value string) string {
	return labelStyle.Render(label) + value + "\n"
}

// renderMetadata prints the populated fields of a merged record.
func renderMetadata(m *provider.Metadata) string {
	var b strings.Builder

	title := m.Title
	if m.Year > 0 {
		title = fmt.Sprintf("%s (%d)", title, m.Year)
	}
	b.WriteString(headingStyle.Render(title) + "\n")

	if m.OriginalTitle != "" && m.OriginalTitle != m.Title {
		b.WriteString(row("Original title", m.OriginalTitle))
	}
	if m.Tagline != "" {
		b.WriteString(row("Tagline", m.Tagline))
	}
	if !m.ReleaseDate.IsZero() {
		b.WriteString(row("Released", m.ReleaseDate.Format("2006-01-02")))
	}
	if m.Runtime > 0 {
		b.WriteString(row("Runtime", fmt.Sprintf("%d min", m.Runtime)))
	}
	if len(m.Genres) > 0 {
		genres := make([]string, len(m.Genres))
		for i, g := range m.Genres {
			genres[i] = string(g)
		}
		b.WriteString(row("Genres", strings.Join(genres, ", ")))
	}
	for _, r := range m.Ratings {
		value := fmt.Sprintf("%.1f", r.Value)
		if r.MaxValue > 0 {
			value += fmt.Sprintf("/%g", r.MaxValue)
		}
		if r.Votes > 0 {
			value += mutedStyle.Render(fmt.Sprintf(" (%d votes)", r.Votes))
		}
		b.WriteString(row("Rating "+r.Source, value))
	}
	if m.Top250 > 0 {
		b.WriteString(row("Top 250", fmt.Sprintf("#%d", m.Top250)))
	}
	if len(m.Certifications) > 0 {
		certs := make([]string, len(m.Certifications))
		for i, c := range m.Certifications {
			certs[i] = c.Country + " " + c.Value
		}
		b.WriteString(row("Certifications", strings.Join(certs, ", ")))
	}
	if m.CollectionName != "" {
		b.WriteString(row("Collection", m.CollectionName))
	}
	if len(m.ProductionCompanies) > 0 {
		b.WriteString(row("Production", strings.Join(m.ProductionCompanies, ", ")))
	}
	if len(m.Countries) > 0 {
		b.WriteString(row("Countries", strings.Join(m.Countries, ", ")))
	}
	if len(m.SpokenLanguages) > 0 {
		b.WriteString(row("Languages", strings.Join(m.SpokenLanguages, ", ")))
	}
	if len(m.CastMembers) > 0 {
		b.WriteString(row("Cast", castSummary(m.CastMembers, 6)))
	}
	if len(m.Tags) > 0 {
		b.WriteString(row("Tags", strings.Join(m.Tags, ", ")))
	}
	if m.Plot != "" {
		b.WriteString("\n" + m.Plot + "\n")
	}
	b.WriteString(renderIdentifiers("Identifiers", m.IDs))

	return b.String()
}

func castSummary(people []provider.Person, limit int) string {
	names := make([]string, 0, limit)
	for _, p := range people {
		if len(names) == limit {
			names = append(names, "...")
			break
		}
		switch {
		case p.Type == provider.PersonActor && p.Role != "":
			names = append(names, fmt.Sprintf("%s as %s", p.Name, p.Role))
		case p.Type != provider.PersonActor && p.Type != "":
			names = append(names, fmt.Sprintf("%s (%s)", p.Name, p.Type))
		default:
			names = append(names, p.Name)
		}
	}
	return strings.Join(names, ", ")
}

// renderIdentifiers prints ids sorted by namespace.
func renderIdentifiers(heading string, ids map[string]string) string {
	if len(ids) == 0 {
		return ""
	}
	namespaces := make([]string, 0, len(ids))
	for ns := range ids {
		namespaces = append(namespaces, ns)
	}
	sort.Strings(namespaces)

	var b strings.Builder
	b.WriteString("\n" + headingStyle.Render(heading) + "\n")
	for _, ns := range namespaces {
		b.WriteString(row(ns, ids[ns]))
	}
	return b.String()
}

// renderSearchResults prints one line per result in the order given.
func renderSearchResults(results []provider.SearchResult) string {
	if len(results) == 0 {
		return mutedStyle.Render("No results") + "\n"
	}

	var b strings.Builder
	for _, r := range results {
		title := r.Title
		if r.Year > 0 {
			title = fmt.Sprintf("%s (%d)", title, r.Year)
		}
		ids := make([]string, 0, len(r.IDs))
		for ns, id := range r.IDs {
			ids = append(ids, ns+":"+id)
		}
		sort.Strings(ids)

		b.WriteString(headingStyle.Render(title))
		b.WriteString("  " + mutedStyle.Render(strings.Join(ids, " ")))
		if r.Score > 0 {
			b.WriteString(mutedStyle.Render(fmt.Sprintf("  %.1f", r.Score)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// renderEpisodes prints one SxxEyy line per episode.
func renderEpisodes(episodes []*provider.Metadata) string {
	if len(episodes) == 0 {
		return mutedStyle.Render("No episodes") + "\n"
	}

	var b strings.Builder
	for _, ep := range episodes {
		b.WriteString(headingStyle.Render(fmt.Sprintf("S%02dE%02d", ep.Season, ep.Episode)))
		b.WriteString("  " + ep.Title)
		if !ep.ReleaseDate.IsZero() {
			b.WriteString(mutedStyle.Render("  " + ep.ReleaseDate.Format("2006-01-02")))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// renderProviders prints the registered providers in priority order.
func renderProviders(reg *provider.Registry) string {
	var b strings.Builder
	for _, name := range reg.List() {
		p, ok := reg.Get(name)
		if !ok {
			continue
		}
		caps := p.Capabilities()

		state := disabledStyle.Render("disabled")
		if reg.IsEnabled(name) {
			state = enabledStyle.Render("enabled")
		}
		b.WriteString(headingStyle.Render(name) + "  " + state + "  " + mutedStyle.Render(p.Description()) + "\n")

		mediaTypes := make([]string, len(caps.MediaTypes))
		for i, mt := range caps.MediaTypes {
			mediaTypes[i] = string(mt)
		}
		b.WriteString(row("Media types", strings.Join(mediaTypes, ", ")))
		b.WriteString(row("Namespaces", strings.Join(caps.IDNamespaces, ", ")))
		if caps.RequiredID != "" {
			b.WriteString(row("Requires id", caps.RequiredID))
		}
		b.WriteString(row("Operations", strings.Join(operations(p), ", ")))

		fields := p.SupportedFields()
		names := make([]string, len(fields))
		for i, f := range fields {
			names[i] = string(f)
		}
		b.WriteString(row("Fields", strings.Join(names, ", ")))
		b.WriteString("\n")
	}
	return b.String()
}

func operations(p provider.Provider) []string {
	var ops []string
	if _, ok := p.(provider.Searcher); ok {
		ops = append(ops, "search")
	}
	if _, ok := p.(provider.Fetcher); ok {
		ops = append(ops, "fetch")
	}
	if _, ok := p.(provider.EpisodeLister); ok {
		ops = append(ops, "episodes")
	}
	if p.Capabilities().Bridging {
		ops = append(ops, "bridge")
	}
	return ops
}
