package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/passiotour/tourpricing/internal/api"
	"github.com/passiotour/tourpricing/internal/cli"
	"github.com/passiotour/tourpricing/internal/client"
)

func newExportCmd(g *globals) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export tours and seasons to a file",
		Long: `Export every tour with its seasons, in evaluation order, to YAML or JSON.

Examples:
  pricectl export --output catalog.yaml
  pricectl export --output catalog.json --format json
  pricectl export > backup.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client(false)
			if err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}
			snap, err := c.Snapshot(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load catalog: %w", err)
			}
			bundle := cli.BundleFromSnapshot(snap)

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				w = f
			}

			if err := cli.WriteBundle(w, bundle, g.outputFormat()); err != nil {
				return fmt.Errorf("failed to encode export: %w", err)
			}
			if output != "" && output != "-" && !g.quiet {
				fmt.Fprintf(cmd.ErrOrStderr(), "Successfully exported %d tour(s) to %s\n", len(bundle.Tours), output)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

func newImportCmd(g *globals) *cobra.Command {
	var (
		dryRun bool
		force  bool
	)
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import tours and seasons from a file",
		Long: `Import tours from a YAML or JSON export, or from an HCL file of
tour blocks (*.hcl). Each tour is created or updated and its seasons are
replaced by the ones in the file, in file order. Every season is checked
with the server first; without --force nothing is changed if any tour
is invalid.

Examples:
  pricectl import catalog.yaml
  pricectl import seasons-2026.hcl
  pricectl import catalog.yaml --dry-run
  pricectl import catalog.yaml --force`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read file: %w", err)
			}
			bundle, err := cli.ReadBundleFile(args[0], data)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if g.verbose {
				fmt.Fprintf(out, "Found %d tour(s) to import\n", len(bundle.Tours))
			}

			c, err := g.client(!dryRun)
			if err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}

			// Every tour is checked against the server before anything changes.
			valid := make([]cli.BundleTour, 0, len(bundle.Tours))
			errorCount := 0
			for _, t := range bundle.Tours {
				if err := checkTour(cmd.Context(), c, t); err != nil {
					errorCount++
					fmt.Fprintf(cmd.ErrOrStderr(), "Tour '%s' cannot be imported: %v\n", t.ID, err)
					continue
				}
				valid = append(valid, t)
			}

			if dryRun {
				fmt.Fprintln(out, "Dry run mode - the following tours would be imported:")
				for _, t := range valid {
					fmt.Fprintf(out, "  - %s (%s %s, %d season(s))\n", t.ID, t.BasePrice, t.Currency, len(t.Seasons))
				}
				if errorCount > 0 {
					return fmt.Errorf("%d tour(s) would fail to import", errorCount)
				}
				return nil
			}
			if errorCount > 0 && !force {
				return errors.New("import aborted before any change, use --force to skip invalid tours")
			}

			successCount := 0
			for _, t := range valid {
				if g.verbose {
					fmt.Fprintf(out, "Importing tour: %s\n", t.ID)
				}
				if err := importTour(cmd.Context(), c, t); err != nil {
					errorCount++
					fmt.Fprintf(cmd.ErrOrStderr(), "Failed to import tour '%s': %v\n", t.ID, err)
					if !force {
						return errors.New("import failed, use --force to continue on errors")
					}
					continue
				}
				successCount++
			}

			if !g.quiet {
				fmt.Fprintf(out, "Import complete: %d succeeded, %d failed\n", successCount, errorCount)
			}
			if errorCount > 0 {
				return errors.New("import completed with errors")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate without importing")
	cmd.Flags().BoolVar(&force, "force", false, "Continue on errors")
	return cmd
}

// checkTour asks the server whether every season of t could be created
// today.
func checkTour(ctx context.Context, c *client.Client, t cli.BundleTour) error {
	var errs []error
	for _, s := range t.Seasons {
		result, err := c.ValidateSeason(ctx, api.ValidateSeasonRequest{
			StartDate:     s.StartDate,
			EndDate:       s.EndDate,
			PriceModifier: s.PriceModifier,
		})
		if err != nil {
			return fmt.Errorf("failed to validate season '%s': %w", s.Name, err)
		}
		if !result.IsValid {
			errs = append(errs, fmt.Errorf("season '%s': %s", s.Name, strings.Join(result.Errors, "; ")))
		}
	}
	return errors.Join(errs...)
}

// importTour upserts the tour and replaces its seasons. The new seasons are
// created first and the old ones removed only once all of them exist; if a
// create fails, the seasons created so far are removed again and the old
// ones are left untouched.
func importTour(ctx context.Context, c *client.Client, t cli.BundleTour) error {
	if _, err := c.PutTour(ctx, t.ID, t.TourRequest()); err != nil {
		return err
	}
	existing, err := c.ListSeasons(ctx, t.ID)
	if err != nil {
		return err
	}

	created := make([]string, 0, len(t.Seasons))
	for _, s := range t.Seasons {
		season, err := c.CreateSeason(ctx, t.ID, s.SeasonRequest())
		if err != nil {
			for _, id := range created {
				_ = c.DeleteSeason(ctx, t.ID, id)
			}
			return fmt.Errorf("season '%s': %w", s.Name, err)
		}
		created = append(created, season.ID)
	}

	for _, s := range existing {
		if err := c.DeleteSeason(ctx, t.ID, s.ID); err != nil {
			return fmt.Errorf("failed to remove old season '%s': %w", s.Name, err)
		}
	}
	return nil
}
