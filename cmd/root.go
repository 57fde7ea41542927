package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dermascan/dermascan-go/cmd/file"
	"github.com/dermascan/dermascan-go/cmd/seed"
	"github.com/dermascan/dermascan-go/cmd/serve"
	"github.com/dermascan/dermascan-go/internal/conf"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dermascan",
		Short: "DermaScan CLI",
	}

	// Set up the global flags for the root command.
	if err := setupFlags(rootCmd, settings); err != nil {
		cobra.CheckErr(err)
	}

	subcommands := []*cobra.Command{
		serve.Command(settings),
		file.Command(settings),
		seed.Command(settings),
	}

	rootCmd.AddCommand(subcommands...)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return conf.ValidateSettings(settings)
	}

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&settings.DermNET.ModelPath, "model", viper.GetString("dermnet.modelpath"), "Path to an external model file")
	rootCmd.PersistentFlags().StringVar(&settings.DermNET.LabelPath, "labels", viper.GetString("dermnet.labelpath"), "Path to an external class label file")
	rootCmd.PersistentFlags().IntVarP(&settings.DermNET.Threads, "threads", "j", viper.GetInt("dermnet.threads"), "Number of CPU threads for inference (0 = all)")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
