package main

import (
	"github.com/couchcryptid/mapmaker/internal/domain"
	"github.com/spf13/cobra"
)

func newOptionsCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "options",
		Short: "List the scale types, color schemes, missing colors, delimiters and encodings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeOutput(cmd.OutOrStdout(), output, domain.Catalog())
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputJSON, "output format: json or yaml")
	return cmd
}
