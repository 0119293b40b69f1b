package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewTypesCommand lists the report types the catalogue serves
func NewTypesCommand(src *SourceOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the available report types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return src.withSource(func(s *source) error {
				for _, t := range s.service.Types() {
					fmt.Fprintln(cmd.OutOrStdout(), t)
				}
				return nil
			})
		},
	}
}
