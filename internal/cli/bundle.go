package cli

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/passiotour/tourpricing/internal/api"
	"github.com/passiotour/tourpricing/internal/catalog"
	"github.com/passiotour/tourpricing/internal/seasons"
)

// Bundle is the export/import file: every tour with its seasons in
// evaluation order.
type Bundle struct {
	Tours []BundleTour `yaml:"tours" json:"tours" hcl:"tour,block"`
}

// BundleTour is one tour of a bundle.
type BundleTour struct {
	ID        string         `yaml:"id" json:"id" hcl:"id,label"`
	Name      string         `yaml:"name" json:"name" hcl:"name"`
	BasePrice string         `yaml:"base_price" json:"base_price" hcl:"base_price"`
	Currency  string         `yaml:"currency" json:"currency" hcl:"currency,optional"`
	Seasons   []BundleSeason `yaml:"seasons" json:"seasons" hcl:"season,block"`
}

// BundleSeason is one season of a bundled tour.
type BundleSeason struct {
	Name          string  `yaml:"name" json:"name" hcl:"name,label"`
	StartDate     string  `yaml:"start_date" json:"start_date" hcl:"start_date"`
	EndDate       string  `yaml:"end_date" json:"end_date" hcl:"end_date"`
	PriceModifier float64 `yaml:"price_modifier" json:"price_modifier" hcl:"price_modifier"`
	Active        *bool   `yaml:"active,omitempty" json:"active,omitempty" hcl:"active,optional"` // nil means active
}

// BundleFromSnapshot converts a catalog snapshot, ordering tours by id.
func BundleFromSnapshot(snap *catalog.Snapshot) Bundle {
	b := Bundle{Tours: make([]BundleTour, 0, len(snap.Tours))}
	for _, t := range snap.Tours {
		bt := BundleTour{
			ID:        t.ID,
			Name:      t.Name,
			BasePrice: t.BasePrice.String(),
			Currency:  t.Currency,
			Seasons:   make([]BundleSeason, 0, len(t.Seasons)),
		}
		for _, s := range t.Seasons {
			active := s.IsActive
			bt.Seasons = append(bt.Seasons, BundleSeason{
				Name:          s.Name,
				StartDate:     seasons.FormatDate(s.StartDate),
				EndDate:       seasons.FormatDate(s.EndDate),
				PriceModifier: s.PriceModifier,
				Active:        &active,
			})
		}
		b.Tours = append(b.Tours, bt)
	}
	sort.Slice(b.Tours, func(i, j int) bool { return b.Tours[i].ID < b.Tours[j].ID })
	return b
}

// ReadBundle parses a YAML or JSON bundle and checks that every tour and
// season is well-formed, including date order and modifier bounds. Whether
// a season already ended depends on the server clock and is not checked.
func ReadBundle(data []byte) (*Bundle, error) {
	var b Bundle
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse file: %w", err)
	}
	return checkBundle(&b)
}

// ReadBundleFile picks the parser from the file extension: .hcl files are
// read as HCL tour blocks, anything else as YAML or JSON.
//
//	tour "douro" {
//	  name       = "Douro Valley"
//	  base_price = 100
//	  currency   = "EUR"
//
//	  season "Summer" {
//	    start_date     = "2026-06-01"
//	    end_date       = "2026-08-31"
//	    price_modifier = 20
//	  }
//	}
func ReadBundleFile(filename string, data []byte) (*Bundle, error) {
	if !strings.EqualFold(filepath.Ext(filename), ".hcl") {
		return ReadBundle(data)
	}

	file, diags := hclparse.NewParser().ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse file: %w", diags)
	}
	var b Bundle
	if diags := gohcl.DecodeBody(file.Body, nil, &b); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode file: %w", diags)
	}
	return checkBundle(&b)
}

func checkBundle(b *Bundle) (*Bundle, error) {
	if len(b.Tours) == 0 {
		return nil, errors.New("no tours found in file")
	}

	var (
		errs  []error
		rules seasons.Validator
	)
	seen := make(map[string]bool)
	for i, t := range b.Tours {
		where := fmt.Sprintf("tours[%d]", i)
		if strings.TrimSpace(t.ID) == "" {
			errs = append(errs, fmt.Errorf("%s: id is required", where))
		} else if seen[t.ID] {
			errs = append(errs, fmt.Errorf("%s: duplicate id %q", where, t.ID))
		}
		seen[t.ID] = true
		if _, err := decimal.NewFromString(t.BasePrice); err != nil {
			errs = append(errs, fmt.Errorf("%s: invalid base_price %q", where, t.BasePrice))
		}
		for j, s := range t.Seasons {
			at := fmt.Sprintf("%s.seasons[%d]", where, j)
			start, startErr := seasons.ParseDate(s.StartDate)
			if startErr != nil {
				errs = append(errs, fmt.Errorf("%s: invalid start_date %q", at, s.StartDate))
			}
			end, endErr := seasons.ParseDate(s.EndDate)
			if endErr != nil {
				errs = append(errs, fmt.Errorf("%s: invalid end_date %q", at, s.EndDate))
			}
			if startErr != nil || endErr != nil {
				continue
			}
			result := rules.ValidateRule(seasons.Rule{
				Name:          s.Name,
				StartDate:     start,
				EndDate:       end,
				PriceModifier: s.PriceModifier,
			})
			for _, msg := range result.Errors {
				errs = append(errs, fmt.Errorf("%s: %s", at, msg))
			}
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return b, nil
}

// WriteBundle encodes b as JSON for FormatJSON and YAML otherwise.
func WriteBundle(w io.Writer, b Bundle, format OutputFormat) error {
	if format == FormatJSON {
		return printJSON(w, b)
	}
	encoder := yaml.NewEncoder(w)
	defer encoder.Close()
	encoder.SetIndent(2)
	return encoder.Encode(b)
}

// TourRequest converts the tour for PUT /v1/tours/{id}. ReadBundle has
// already checked the price.
func (t BundleTour) TourRequest() api.TourRequest {
	price, _ := decimal.NewFromString(t.BasePrice)
	return api.TourRequest{Name: t.Name, BasePrice: &price, Currency: t.Currency}
}

// SeasonRequest converts the season for the season endpoints.
func (s BundleSeason) SeasonRequest() api.SeasonRequest {
	mod := s.PriceModifier
	return api.SeasonRequest{
		Name:          s.Name,
		StartDate:     s.StartDate,
		EndDate:       s.EndDate,
		PriceModifier: &mod,
		IsActive:      s.Active,
	}
}
