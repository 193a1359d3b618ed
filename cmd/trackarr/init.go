package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vmunix/trackarr/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	Long:  "Write the default config.toml. The file goes to $XDG_CONFIG_HOME/trackarr/config.toml unless --path is given.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("path")
		force, _ := cmd.Flags().GetBool("force")
		if path == "" {
			path = config.DefaultPath()
		}
		return runInit(cmd, path, force)
	},
}

func init() {
	initCmd.Flags().String("path", "", "Where to write the config")
	initCmd.Flags().Bool("force", false, "Overwrite an existing config")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	}
	if err := config.WriteDefault(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Wrote %s\n\n", path)
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  1. Set TMDB_API_KEY (or put it in .env) for catalog lookups")
	fmt.Fprintln(out, "  2. trackarr config test")
	fmt.Fprintln(out, "  3. trackarr track movie 603 --status completed")
	return nil
}
