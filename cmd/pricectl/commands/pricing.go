package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/passiotour/tourpricing/internal/api"
	"github.com/passiotour/tourpricing/internal/cli"
)

// errInvalidSeason makes "validate" exit non-zero after printing the result.
var errInvalidSeason = errors.New("season is invalid")

func newQuoteCmd(g *globals) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "quote <tour>",
		Short: "Price a tour on one day",
		Long: `Show a tour's price on a date and the seasons that changed it.

Examples:
  pricectl quote douro
  pricectl quote douro --date 2026-08-10 --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client(false)
			if err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}
			quote, err := c.Quote(cmd.Context(), args[0], date)
			if err != nil {
				return fmt.Errorf("failed to get quote: %w", err)
			}
			if g.quiet {
				return nil
			}
			return cli.PrintQuote(cmd.OutOrStdout(), quote, g.outputFormat())
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Day to price (YYYY-MM-DD, default today)")
	return cmd
}

func newCalendarCmd(g *globals) *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "calendar <tour>",
		Short: "Price a tour for every day of a range",
		Long: `Show a tour's price for each day from --from to --to inclusive.
Defaults to 30 days starting today.

Examples:
  pricectl calendar douro
  pricectl calendar douro --from 2026-06-01 --to 2026-09-30`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client(false)
			if err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}
			cal, err := c.Calendar(cmd.Context(), args[0], from, to)
			if err != nil {
				return fmt.Errorf("failed to get calendar: %w", err)
			}
			if g.quiet {
				return nil
			}
			return cli.PrintCalendar(cmd.OutOrStdout(), cal, g.outputFormat())
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "First day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Last day (YYYY-MM-DD)")
	return cmd
}

func newValidateCmd(g *globals) *cobra.Command {
	var (
		start    string
		end      string
		modifier float64
	)
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a season definition without saving it",
		Long: `Validate season dates and modifier the same way the server does when
a season is saved. Exits non-zero if the season is invalid.

Example:
  pricectl validate --start 2026-06-01 --end 2026-08-31 --modifier 20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client(false)
			if err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}
			result, err := c.ValidateSeason(cmd.Context(), api.ValidateSeasonRequest{
				StartDate:     start,
				EndDate:       end,
				PriceModifier: modifier,
			})
			if err != nil {
				return fmt.Errorf("failed to validate: %w", err)
			}
			if !g.quiet {
				if err := cli.PrintValidation(cmd.OutOrStdout(), result, g.outputFormat()); err != nil {
					return err
				}
			}
			if !result.IsValid {
				return errInvalidSeason
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "First day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "Last day (YYYY-MM-DD)")
	cmd.Flags().Float64Var(&modifier, "modifier", 0, "Price modifier in percent")
	return cmd
}
