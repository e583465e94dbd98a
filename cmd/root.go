package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/caqueta-electoral/divipola/cmd/allocate"
	"github.com/caqueta-electoral/divipola/cmd/load"
	"github.com/caqueta-electoral/divipola/cmd/reconcile"
	"github.com/caqueta-electoral/divipola/cmd/serve"
	"github.com/caqueta-electoral/divipola/cmd/validate"
	"github.com/caqueta-electoral/divipola/internal/runtime"
)

type globalFlags struct {
	configFile string
	overrides  runtime.Overrides
}

// RootCommand creates and returns the root command
func RootCommand(rt *runtime.Context) *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:           "divipola",
		Short:         "Electoral hierarchy tooling for the department",
		Version:       fmt.Sprintf("%s (built %s)", rt.Version, rt.BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	if err := setupFlags(rootCmd, flags); err != nil {
		// Binding only fails on a nil flag, which is a programming error.
		panic(err)
	}

	rootCmd.AddCommand(
		load.Command(rt),
		reconcile.Command(rt),
		allocate.Command(rt),
		validate.Command(rt),
		serve.Command(rt),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return rt.Load(flags.configFile, flags.overrides)
	}

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, flags *globalFlags) error {
	rootCmd.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "Path to the configuration file")
	rootCmd.PersistentFlags().BoolVarP(&flags.overrides.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&flags.overrides.DatabasePath, "database", "", "SQLite database file, overrides the configured database")

	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
