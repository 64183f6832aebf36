package cmd

import (
	"log/slog"
	"os"

	"github.com/fernleaf/nursery/internal/backend"
	"github.com/fernleaf/nursery/internal/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootOptions is shared by every subcommand. cfg is filled in before any
// subcommand runs.
type rootOptions struct {
	configPath string
	verbose    bool
	cfg        *config.Config
}

func (o *rootOptions) client() *backend.Client {
	return backend.NewClient(o.cfg.BackendURL, o.cfg.APIToken)
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "nursery",
		Short: "Admin console for the plant nursery storefront",
		Long: `Nursery is the admin console backend for the plant nursery storefront.

It stages product, blog and category images with live previews, forwards
bulk product CSV imports, pages through the catalogue, and keeps a feed of
operator notifications.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			opts.cfg = cfg

			level := cfg.SlogLevel()
			if opts.verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(logger)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML config file")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	// Add subcommands
	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newImportCmd(opts))
	cmd.AddCommand(newProductsCmd(opts))

	return cmd
}
