package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newProvidersCmd(opts *globalOptions, load appLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List the registered providers and what they can do",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load(*opts)
			if err != nil {
				return err
			}
			defer a.Close()

			fmt.Fprint(cmd.OutOrStdout(), renderProviders(a.registry))
			return nil
		},
	}
}
