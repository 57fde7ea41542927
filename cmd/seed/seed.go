package seed

import (
	"github.com/spf13/cobra"

	"github.com/dermascan/dermascan-go/internal/analysis"
	"github.com/dermascan/dermascan-go/internal/conf"
)

// Command creates the command that rebuilds the diagnosis catalog.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Rebuild the diagnosis catalog",
		Long:  "Drop and reseed the diagnosis catalog from the built-in class table. Stored analyses referencing the old catalog are removed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return analysis.ReseedCatalog(settings)
		},
	}
}
