package file

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dermascan/dermascan-go/internal/analysis"
	"github.com/dermascan/dermascan-go/internal/conf"
)

// Command creates the command for one-shot image analysis.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "file [input.jpg]",
		Short: "Analyze a lesion image file",
		Long:  "Run a single image through the classifier, store the result and print it as JSON.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings.Input.Path = args[0]
			return analysis.FileAnalysis(cmd.Context(), settings)
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the file command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVarP(&settings.Input.Username, "username", "u", "", "Patient username to record the analysis under")
	cmd.Flags().StringVarP(&settings.Input.Location, "location", "l", "", "Body location of the lesion")

	if err := cmd.MarkFlagRequired("username"); err != nil {
		return fmt.Errorf("error marking flag required: %w", err)
	}

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
