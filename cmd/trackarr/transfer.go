package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vmunix/trackarr/internal/importer"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a CSV or JSON library export",
	Long: `Import entries from a trackarr CSV or JSON export. Episodes are applied
first, then seasons, then records. Entries that fail are reported and
skipped; importing the same file twice changes nothing.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		if format == "" {
			format = formatFromPath(args[0])
		}
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()

		return withSession(func(s *session) error {
			return runImport(cmd.Context(), s, cmd.OutOrStdout(), f, format)
		})
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export your library as CSV or JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")
		if format == "" {
			format = formatFromPath(output)
		}

		return withSession(func(s *session) error {
			w := cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer func() { _ = f.Close() }()
				w = f
			}
			return runExport(s, w, format)
		})
	},
}

func init() {
	importCmd.Flags().String("format", "", "csv or json (default: from file extension)")
	exportCmd.Flags().String("format", "", "csv or json (default: from output extension, else csv)")
	exportCmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")

	rootCmd.AddCommand(importCmd, exportCmd)
}

func formatFromPath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return importer.FormatJSON
	}
	return importer.FormatCSV
}

func runImport(ctx context.Context, s *session, w io.Writer, r io.Reader, format string) error {
	entries, warnings, err := importer.Read(r, format)
	if err != nil {
		return err
	}
	res, err := s.Importer.Import(ctx, s.user, format, entries)
	if err != nil {
		return err
	}
	res.Warnings = append(warnings, res.Warnings...)
	res.Skipped += len(warnings)

	if jsonOutput {
		return printJSON(w, res)
	}
	fmt.Fprintf(w, "Imported %d, skipped %d (batch %s)\n", res.Imported, res.Skipped, res.BatchID)
	for _, warn := range res.Warnings {
		fmt.Fprintf(w, "  - %s\n", warn)
	}
	return nil
}

func runExport(s *session, w io.Writer, format string) error {
	entries, err := importer.Export(s.Library, s.user)
	if err != nil {
		return err
	}
	return importer.Write(w, format, entries)
}
