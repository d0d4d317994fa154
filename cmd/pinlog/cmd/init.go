package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/pinlog/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a pinlog config in the current directory",
	Long: `Create .pinlog/config.yaml in the current directory with the default
settings. Workouts are stored under .pinlog/data unless the config says otherwise.`,
	Args: cobra.NoArgs,
	// The config being created may not exist or parse yet.
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error { return nil },
	RunE:              runInit,
}

var initForce bool

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing configuration")
}

func runInit(cmd *cobra.Command, _ []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	path := config.DefaultConfigPath(cwd)
	if err := config.WriteDefaultConfig(path, initForce); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
	return nil
}
