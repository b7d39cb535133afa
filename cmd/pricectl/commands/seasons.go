package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/passiotour/tourpricing/internal/api"
	"github.com/passiotour/tourpricing/internal/cli"
	"github.com/passiotour/tourpricing/internal/seasons"
)

// seasonFlags are shared by "seasons add" and "seasons update".
type seasonFlags struct {
	name     string
	start    string
	end      string
	modifier float64
	inactive bool
}

func (f *seasonFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "Season name")
	cmd.Flags().StringVar(&f.start, "start", "", "First day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.end, "end", "", "Last day, inclusive (YYYY-MM-DD)")
	cmd.Flags().Float64Var(&f.modifier, "modifier", 0, "Price modifier in percent (-50 to 200)")
	cmd.Flags().BoolVar(&f.inactive, "inactive", false, "Store the season switched off")
	for _, name := range []string{"name", "start", "end", "modifier"} {
		_ = cmd.MarkFlagRequired(name)
	}
	_ = cmd.RegisterFlagCompletionFunc("name", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return seasons.CommonNames, cobra.ShellCompDirectiveNoFileComp
	})
}

func (f *seasonFlags) request() api.SeasonRequest {
	mod := f.modifier
	active := !f.inactive
	return api.SeasonRequest{
		Name:          f.name,
		StartDate:     f.start,
		EndDate:       f.end,
		PriceModifier: &mod,
		IsActive:      &active,
	}
}

func newSeasonsCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seasons",
		Short: "Manage a tour's seasonal price rules",
	}

	listCmd := &cobra.Command{
		Use:   "list <tour>",
		Short: "List a tour's seasons in evaluation order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client(true)
			if err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}
			list, err := c.ListSeasons(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to list seasons: %w", err)
			}
			if g.quiet {
				return nil
			}
			if len(list) == 0 && g.outputFormat() == cli.FormatTable {
				fmt.Fprintln(cmd.OutOrStdout(), "No seasons found")
				return nil
			}
			return cli.PrintSeasons(cmd.OutOrStdout(), list, g.outputFormat())
		},
	}

	var addFlags seasonFlags
	addCmd := &cobra.Command{
		Use:   "add <tour>",
		Short: "Add a season to a tour",
		Long: `Append a season to a tour. Seasons apply in the order they were added.

Examples:
  pricectl seasons add douro --name Summer --start 2026-06-01 --end 2026-08-31 --modifier 20
  pricectl seasons add douro --name "Winter Sale" --start 2026-11-01 --end 2027-02-28 --modifier -15`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client(true)
			if err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}
			season, err := c.CreateSeason(cmd.Context(), args[0], addFlags.request())
			if err != nil {
				return fmt.Errorf("failed to add season: %w", err)
			}
			if g.quiet {
				return nil
			}
			return cli.PrintSeason(cmd.OutOrStdout(), season, g.outputFormat())
		},
	}
	addFlags.register(addCmd)

	var updateFlags seasonFlags
	updateCmd := &cobra.Command{
		Use:   "update <tour> <season-id>",
		Short: "Replace a season's dates, modifier and state",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client(true)
			if err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}
			season, err := c.UpdateSeason(cmd.Context(), args[0], args[1], updateFlags.request())
			if err != nil {
				return fmt.Errorf("failed to update season: %w", err)
			}
			if g.quiet {
				return nil
			}
			return cli.PrintSeason(cmd.OutOrStdout(), season, g.outputFormat())
		},
	}
	updateFlags.register(updateCmd)

	removeCmd := &cobra.Command{
		Use:   "remove <tour> <season-id>",
		Short: "Remove a season",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client(true)
			if err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}
			if err := c.DeleteSeason(cmd.Context(), args[0], args[1]); err != nil {
				return fmt.Errorf("failed to remove season: %w", err)
			}
			if !g.quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "Successfully removed season '%s'\n", args[1])
			}
			return nil
		},
	}

	cmd.AddCommand(listCmd, addCmd, updateCmd, removeCmd)
	return cmd
}
