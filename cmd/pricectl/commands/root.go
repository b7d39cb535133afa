// Package commands implements the pricectl command tree.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/passiotour/tourpricing/internal/cli"
	"github.com/passiotour/tourpricing/internal/client"
)

// globals holds the persistent flags shared by every command.
type globals struct {
	baseURL string
	apiKey  string
	profile string
	format  string
	quiet   bool
	verbose bool
}

// client builds an API client for the selected profile. requireKey is set
// by commands calling authenticated endpoints.
func (g *globals) client(requireKey bool) (*client.Client, error) {
	p, err := cli.ResolveProfile(g.profile, g.baseURL, g.apiKey, requireKey)
	if err != nil {
		return nil, err
	}
	return client.NewClient(p.BaseURL, p.APIKey), nil
}

func (g *globals) outputFormat() cli.OutputFormat {
	return cli.OutputFormat(g.format)
}

// NewRootCmd builds the pricectl command tree.
func NewRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:   "pricectl",
		Short: "CLI tool for managing seasonal tour pricing",
		Long: `pricectl manages tours, their seasonal price rules and quotes in the
tour pricing service.

Examples:
  pricectl tours list
  pricectl tours set douro --name "Douro Valley" --price 100 --currency EUR
  pricectl seasons add douro --name Summer --start 2026-06-01 --end 2026-08-31 --modifier 20
  pricectl quote douro --date 2026-07-14
  pricectl export --output catalog.yaml`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&g.baseURL, "base-url", "", "Base URL of the pricing API")
	root.PersistentFlags().StringVar(&g.apiKey, "api-key", "", "API key for authentication")
	root.PersistentFlags().StringVar(&g.profile, "profile", "", "Config profile (default from config file)")
	root.PersistentFlags().StringVar(&g.format, "format", "table", "Output format (table, json, yaml)")
	root.PersistentFlags().BoolVar(&g.quiet, "quiet", false, "Suppress output")
	root.PersistentFlags().BoolVar(&g.verbose, "verbose", false, "Verbose output")

	root.AddCommand(
		newConfigCmd(g),
		newToursCmd(g),
		newSeasonsCmd(g),
		newQuoteCmd(g),
		newCalendarCmd(g),
		newValidateCmd(g),
		newExportCmd(g),
		newImportCmd(g),
	)
	return root
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}
