package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Digital-Shane/metamerge/internal/media"
	"github.com/Digital-Shane/metamerge/internal/provider"
	"github.com/spf13/cobra"
)

// idFlags are the identifier flags shared by get and episodes.
type idFlags struct {
	tmdb string
	imdb string
	tvdb string
}

func (f *idFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.tmdb, "tmdb", "", "TMDB id")
	cmd.Flags().StringVar(&f.imdb, "imdb", "", "IMDb id, e.g. tt0133093")
	cmd.Flags().StringVar(&f.tvdb, "tvdb", "", "TVDB id")
}

func (f *idFlags) apply(req *provider.FetchRequest) {
	req.SetID(provider.NamespaceTMDB, f.tmdb)
	req.SetID(provider.NamespaceIMDB, f.imdb)
	req.SetID(provider.NamespaceTVDB, f.tvdb)
}

func newGetCmd(opts *globalOptions, load appLoader) *cobra.Command {
	var (
		ids  idFlags
		show bool
		year int
		file string
	)

	cmd := &cobra.Command{
		Use:   "get [query]",
		Short: "Fetch and merge the metadata of one movie or show",
		Long: `Fetch the metadata of one movie or show from every provider the field
configuration references and print the merged record.

The item is identified by --tmdb, --imdb, --tvdb, a local --file or a title query.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" && file == "" && ids.tmdb == "" && ids.imdb == "" && ids.tvdb == "" {
				return errors.New("give a query, an id flag or --file")
			}

			a, err := load(*opts)
			if err != nil {
				return err
			}
			defer a.Close()

			req := a.request(mediaTypeFor(show))
			req.Query = query
			req.Year = year
			ids.apply(req)
			if file != "" {
				if req.FilePath, err = filepath.Abs(file); err != nil {
					return fmt.Errorf("failed to resolve %s: %w", file, err)
				}
				applyFileHints(req, file)
			}

			meta, err := a.aggregator.GetMetadata(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("get failed: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, renderMetadata(meta))
			fmt.Fprint(out, renderIdentifiers("Request identifiers", req.IDs))
			return nil
		},
	}

	ids.register(cmd)
	cmd.Flags().BoolVar(&show, "show", false, "Fetch a TV show instead of a movie")
	cmd.Flags().IntVar(&year, "year", 0, "Release year used with a title query")
	cmd.Flags().StringVar(&file, "file", "", "Local media file whose tags are read by ffprobe")

	return cmd
}

// applyFileHints fills the query, year and season a request lacks from the
// name of the media file. An episode marker switches the request to shows.
func applyFileHints(req *provider.FetchRequest, path string) {
	hints := media.ParseFileName(path)
	if req.Query == "" {
		req.Query = hints.Title
	}
	if req.Year == 0 {
		req.Year = hints.Year
	}
	if hints.IsEpisode() {
		req.MediaType = provider.MediaTypeShow
		if req.Season == 0 {
			req.Season = hints.Season
		}
	}
}
