package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vmunix/trackarr/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
}

var configTestCmd = &cobra.Command{
	Use:   "test [path]",
	Short: "Validate configuration file",
	Long:  "Validates config.toml syntax, required fields, and environment variable substitution without opening the database.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if len(args) > 0 {
			path = args[0]
		}
		if path == "" {
			p, err := config.Discover()
			if err != nil {
				return err
			}
			path = p
		}
		return runConfigTest(cmd.OutOrStdout(), path)
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file trackarr would use",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := config.Discover()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), p)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configTestCmd, configPathCmd)
}

func runConfigTest(w io.Writer, path string) error {
	fmt.Fprintf(w, "Validating %s...\n\n", path)

	cfg, err := config.Load(path)
	if err != nil {
		var configErr *config.ConfigError
		if errors.As(err, &configErr) {
			printConfigErrors(w, configErr)
			return fmt.Errorf("configuration invalid")
		}
		return fmt.Errorf("failed to load config: %w", err)
	}

	printConfigSummary(w, cfg)
	fmt.Fprintln(w, "\nConfiguration valid!")
	return nil
}

func printConfigErrors(w io.Writer, e *config.ConfigError) {
	if len(e.Missing) > 0 {
		fmt.Fprintln(w, "Missing environment variables:")
		for _, m := range e.Missing {
			fmt.Fprintf(w, "  - %s\n", m)
		}
		fmt.Fprintln(w)
	}

	if len(e.Problems) > 0 {
		fmt.Fprintln(w, "Validation errors:")
		for _, p := range e.Problems {
			fmt.Fprintf(w, "  - %-28s %s\n", p.Field, p.Message)
		}
		fmt.Fprintln(w)
	}
}

func printConfigSummary(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, "Configuration Summary:")
	fmt.Fprintf(w, "  Database:   %s\n", cfg.Database.Path)
	fmt.Fprintf(w, "  Log:        %s (%s)\n", cfg.Log.Level, cfg.Log.Format)
	fmt.Fprintf(w, "  Timezone:   %s\n", cfg.Tracking.Timezone)
	fmt.Fprintf(w, "  User:       %d\n", cfg.Server.DefaultUser)

	if cfg.Metadata.TMDB != nil && cfg.Metadata.TMDB.APIKey != "" {
		fmt.Fprintf(w, "  Metadata:   tmdb (%s)\n", cfg.Metadata.TMDB.Language)
	} else {
		fmt.Fprintln(w, "  Metadata:   manual only")
	}

	if cfg.Calendar.Enabled {
		fmt.Fprintf(w, "  Calendar:   %s\n", cfg.Calendar.Cron)
	} else {
		fmt.Fprintln(w, "  Calendar:   disabled")
	}
	if r := cfg.History.Retention.Duration; r > 0 {
		fmt.Fprintf(w, "  History:    keep %s, prune %s\n", r, cfg.History.PruneCron)
	} else {
		fmt.Fprintln(w, "  History:    keep forever")
	}
}
