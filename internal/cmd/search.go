package cmd

import (
	"fmt"
	"strings"

	"github.com/Digital-Shane/metamerge/internal/provider"
	"github.com/spf13/cobra"
)

func mediaTypeFor(show bool) provider.MediaType {
	if show {
		return provider.MediaTypeShow
	}
	return provider.MediaTypeMovie
}

func newSearchCmd(opts *globalOptions, load appLoader) *cobra.Command {
	var (
		show bool
		year int
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the configured search provider",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load(*opts)
			if err != nil {
				return err
			}
			defer a.Close()

			req := a.request(mediaTypeFor(show))
			req.Query = strings.Join(args, " ")
			req.Year = year

			results, err := a.aggregator.Search(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}

			fmt.Fprint(cmd.OutOrStdout(), renderSearchResults(results))
			return nil
		},
	}

	cmd.Flags().BoolVar(&show, "show", false, "Search TV shows instead of movies")
	cmd.Flags().IntVar(&year, "year", 0, "Restrict results to a release year")

	return cmd
}
