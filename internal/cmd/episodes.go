package cmd

import (
	"errors"
	"fmt"

	"github.com/Digital-Shane/metamerge/internal/provider"
	"github.com/spf13/cobra"
)

func newEpisodesCmd(opts *globalOptions, load appLoader) *cobra.Command {
	var (
		ids    idFlags
		season int
	)

	cmd := &cobra.Command{
		Use:   "episodes",
		Short: "List the episodes of a show from the configured episode provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if ids.tmdb == "" && ids.imdb == "" && ids.tvdb == "" {
				return errors.New("give --tmdb, --tvdb or --imdb")
			}

			a, err := load(*opts)
			if err != nil {
				return err
			}
			defer a.Close()

			req := a.request(provider.MediaTypeShow)
			req.Season = season
			ids.apply(req)

			episodes, err := a.aggregator.EpisodeList(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("episode list failed: %w", err)
			}

			fmt.Fprint(cmd.OutOrStdout(), renderEpisodes(episodes))
			return nil
		},
	}

	ids.register(cmd)
	cmd.Flags().IntVar(&season, "season", 0, "Only list this season")

	return cmd
}
