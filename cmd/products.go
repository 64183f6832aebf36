package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/fernleaf/nursery/internal/pagination"
	"github.com/spf13/cobra"
)

func newProductsCmd(opts *rootOptions) *cobra.Command {
	var page, perPage int

	cmd := &cobra.Command{
		Use:   "products",
		Short: "List one page of the product catalogue",
		Example: `  # First page
  nursery products

  # Page 4, 50 per page
  nursery products --page 4 --per-page 50`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			if perPage <= 0 {
				perPage = cfg.Products.PerPage
			}
			perPage = min(perPage, cfg.Products.MaxPerPage)
			page = max(page, 1)

			result, err := opts.client().ListProducts(cmd.Context(), page, perPage)
			if err != nil {
				return fmt.Errorf("failed to list products: %w", err)
			}

			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK")
			for _, p := range result.Items {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%d\n", p.ID, p.Name, p.Category, p.Price, p.Stock)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			fmt.Fprintf(out, "\n%d product(s), page %d of %d\n", result.TotalItems, result.Page, max(result.TotalPages, 1))
			if window := pagination.ComputeWindow(result.Page, result.TotalPages, cfg.Products.WindowSize); len(window) > 0 {
				fmt.Fprintln(out, pagination.Format(window, result.Page))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Page to show")
	cmd.Flags().IntVar(&perPage, "per-page", 0, "Products per page (default from config)")

	return cmd
}
