package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/passiotour/tourpricing/internal/api"
	"github.com/passiotour/tourpricing/internal/seasons"
	"github.com/passiotour/tourpricing/internal/store"
)

// OutputFormat specifies the output format for CLI commands
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
)

// render renders v as JSON or YAML, or hands a table to fill for FormatTable.
func render(w io.Writer, v any, format OutputFormat, fill func(*tablewriter.Table)) error {
	switch format {
	case FormatJSON:
		return printJSON(w, v)
	case FormatYAML:
		return printYAML(w, v)
	case FormatTable:
		table := tablewriter.NewWriter(w)
		fill(table)
		return table.Render()
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func printJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// printYAML goes through JSON first so API types keep their json field
// names and decimals stay strings.
func printYAML(w io.Writer, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	var generic any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return err
	}
	encoder := yaml.NewEncoder(w)
	defer encoder.Close()
	encoder.SetIndent(2)
	return encoder.Encode(generic)
}

// PrintTours outputs tours in the specified format
func PrintTours(w io.Writer, tours []store.Tour, format OutputFormat) error {
	return render(w, map[string][]store.Tour{"tours": tours}, format, func(table *tablewriter.Table) {
		table.Header("ID", "Name", "Base Price", "Currency", "Updated At")
		for _, t := range tours {
			_ = table.Append(t.ID, truncate(t.Name, 40), t.BasePrice.StringFixed(2), t.Currency,
				t.UpdatedAt.Format("2006-01-02 15:04"))
		}
	})
}

// PrintTour outputs a single tour in the specified format
func PrintTour(w io.Writer, tour *store.Tour, format OutputFormat) error {
	if format == FormatTable {
		return PrintTours(w, []store.Tour{*tour}, format)
	}
	return render(w, tour, format, nil)
}

// PrintSeasons outputs a tour's seasons in evaluation order
func PrintSeasons(w io.Writer, list []api.SeasonResponse, format OutputFormat) error {
	return render(w, map[string][]api.SeasonResponse{"seasons": list}, format, func(table *tablewriter.Table) {
		table.Header("#", "ID", "Name", "Start", "End", "Modifier", "Active")
		for i, s := range list {
			_ = table.Append(strconv.Itoa(i+1), s.ID, truncate(s.Name, 30), s.StartDate, s.EndDate,
				formatModifier(s.PriceModifier), strconv.FormatBool(s.IsActive))
		}
	})
}

// PrintSeason outputs a single season
func PrintSeason(w io.Writer, s *api.SeasonResponse, format OutputFormat) error {
	if format == FormatTable {
		return PrintSeasons(w, []api.SeasonResponse{*s}, format)
	}
	return render(w, s, format, nil)
}

// PrintQuote outputs a price quote with one row per applied season
func PrintQuote(w io.Writer, q *api.QuoteResponse, format OutputFormat) error {
	return render(w, q, format, func(table *tablewriter.Table) {
		table.Header("Date", "Line", "Modifier", "Amount", q.Currency)
		_ = table.Append(q.Date, "Base price", "", "", q.BasePrice.StringFixed(2))
		for _, s := range q.AppliedSeasons {
			_ = table.Append("", s.Name, formatModifier(s.PriceModifier), s.Amount.StringFixed(2), "")
		}
		_ = table.Append("", "Total", "", "", q.AdjustedPrice.StringFixed(2))
	})
}

// PrintCalendar outputs one row per day
func PrintCalendar(w io.Writer, cal *api.CalendarResponse, format OutputFormat) error {
	return render(w, cal, format, func(table *tablewriter.Table) {
		table.Header("Date", "Price", "Seasons")
		for _, d := range cal.Days {
			_ = table.Append(d.Date, d.AdjustedPrice.StringFixed(2), strings.Join(d.AppliedSeasons, ", "))
		}
	})
}

// PrintValidation outputs a validation result
func PrintValidation(w io.Writer, result *seasons.ValidationResult, format OutputFormat) error {
	return render(w, result, format, func(table *tablewriter.Table) {
		table.Header("Valid", "Error")
		if len(result.Errors) == 0 {
			_ = table.Append(strconv.FormatBool(result.IsValid), "")
		}
		for _, e := range result.Errors {
			_ = table.Append(strconv.FormatBool(result.IsValid), e)
		}
	})
}

func formatModifier(m float64) string {
	return strconv.FormatFloat(m, 'f', -1, 64) + "%"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n-3]) + "..."
	}
	return s
}
