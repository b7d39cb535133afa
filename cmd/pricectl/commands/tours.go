package commands

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/passiotour/tourpricing/internal/api"
	"github.com/passiotour/tourpricing/internal/cli"
)

func newToursCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tours",
		Short: "Manage tours",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all tours",
		Long: `List every tour with its base price.

Examples:
  pricectl tours list
  pricectl tours list --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client(true)
			if err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}
			tours, err := c.ListTours(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list tours: %w", err)
			}
			if g.quiet {
				return nil
			}
			if len(tours) == 0 && g.outputFormat() == cli.FormatTable {
				fmt.Fprintln(cmd.OutOrStdout(), "No tours found")
				return nil
			}
			return cli.PrintTours(cmd.OutOrStdout(), tours, g.outputFormat())
		},
	}

	getCmd := &cobra.Command{
		Use:   "get <tour>",
		Short: "Get a tour",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client(true)
			if err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}
			tour, err := c.GetTour(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get tour: %w", err)
			}
			if g.quiet {
				return nil
			}
			return cli.PrintTour(cmd.OutOrStdout(), tour, g.outputFormat())
		},
	}

	var (
		setName     string
		setPrice    string
		setCurrency string
	)
	setCmd := &cobra.Command{
		Use:   "set <tour>",
		Short: "Create or update a tour",
		Long: `Create a tour, or update its name, base price and currency.
Existing seasons are kept.

Examples:
  pricectl tours set douro --name "Douro Valley" --price 100 --currency EUR
  pricectl tours set lisbon --name "Lisbon Walk" --price 45.50`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			price, err := decimal.NewFromString(setPrice)
			if err != nil {
				return fmt.Errorf("invalid --price %q: %w", setPrice, err)
			}
			c, err := g.client(true)
			if err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}
			tour, err := c.PutTour(cmd.Context(), args[0], api.TourRequest{
				Name:      setName,
				BasePrice: &price,
				Currency:  setCurrency,
			})
			if err != nil {
				return fmt.Errorf("failed to save tour: %w", err)
			}
			if !g.quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "Successfully saved tour '%s' (%s %s)\n",
					tour.ID, tour.BasePrice.StringFixed(2), tour.Currency)
			}
			return nil
		},
	}
	setCmd.Flags().StringVar(&setName, "name", "", "Tour name")
	setCmd.Flags().StringVar(&setPrice, "price", "", "Base price per person")
	setCmd.Flags().StringVar(&setCurrency, "currency", "", "ISO 4217 currency code (server default when empty)")
	_ = setCmd.MarkFlagRequired("name")
	_ = setCmd.MarkFlagRequired("price")

	var deleteForce bool
	deleteCmd := &cobra.Command{
		Use:   "delete <tour>",
		Short: "Delete a tour and its seasons",
		Long: `Delete a tour together with all of its seasons.

Examples:
  pricectl tours delete douro
  pricectl tours delete douro --force`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client(true)
			if err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}
			if !deleteForce && !g.quiet {
				ok, err := confirm(cmd, fmt.Sprintf("Are you sure you want to delete tour '%s' and all its seasons?", args[0]))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Deletion cancelled")
					return nil
				}
			}
			if err := c.DeleteTour(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to delete tour: %w", err)
			}
			if !g.quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "Successfully deleted tour '%s'\n", args[0])
			}
			return nil
		},
	}
	deleteCmd.Flags().BoolVar(&deleteForce, "force", false, "Skip confirmation prompt")

	cmd.AddCommand(listCmd, getCmd, setCmd, deleteCmd)
	return cmd
}

// confirm asks a yes/no question on the command's input.
func confirm(cmd *cobra.Command, question string) (bool, error) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s (y/N): ", question)
	response, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && response == "" {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes", nil
}
