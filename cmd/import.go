package cmd

import (
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"

	"github.com/fernleaf/nursery/internal/bulkimport"
	"github.com/spf13/cobra"
)

func newImportCmd(opts *rootOptions) *cobra.Command {
	var reportPath string

	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import products from a CSV file",
		Long: `Sends a product CSV to the storefront backend and prints how many
products were imported along with any per-line errors.

The outcome can also be written to a report file. The format follows the
extension: .yaml/.yml for a readable summary, .parquet for one row per error.`,
		Example: `  # Import a CSV
  nursery import spring-stock.csv

  # Import and keep a report of rejected lines
  nursery import spring-stock.csv --report reports/spring.parquet`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}

			flow := bulkimport.NewFlow(opts.client(), bulkimport.WithMaxBytes(opts.cfg.Import.MaxBytes))
			if err := flow.Select(bulkimport.File{
				Name:        filepath.Base(path),
				ContentType: mime.TypeByExtension(filepath.Ext(path)),
				Data:        data,
			}); err != nil {
				return err
			}

			result, err := flow.Submit(cmd.Context())
			if err != nil {
				return err
			}

			printResult(cmd, filepath.Base(path), result)

			if reportPath != "" {
				if err := bulkimport.WriteReport(reportPath, path, result); err != nil {
					return err
				}
				slog.Info("Report written", "path", reportPath)
			}

			if !result.OK() {
				return fmt.Errorf("import of %s finished with %d error(s)", filepath.Base(path), len(result.Errors))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&reportPath, "report", "r", "", "Write the outcome to a .yaml or .parquet report")

	return cmd
}

func printResult(cmd *cobra.Command, name string, result bulkimport.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Imported %d product(s) from %s\n", result.Imported, name)
	if len(result.Errors) == 0 {
		return
	}
	fmt.Fprintf(out, "\n%d error(s):\n", len(result.Errors))
	for _, e := range result.Errors {
		if e.Line != nil {
			fmt.Fprintf(out, "  line %d: %s\n", *e.Line, e.Message)
			continue
		}
		fmt.Fprintf(out, "  %s\n", e.Message)
	}
}
