// Package intensity resolves the carbon intensity of electricity generation
// (grams CO₂ per kWh) for a location. Intensity factors are embedded as CSV
// tables: one per country (ISO-3166 alpha-3 code) and one per sub-region for
// countries whose grids differ strongly by region. Region values take
// precedence over the country value; unknown locations fall back to a world
// average rather than failing.
package intensity

import (
	"embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jszwec/csvutil"
	"go.uber.org/zap"
)

// WorldAverageGPerKWh is the fallback intensity used when a location cannot
// be matched against the embedded tables.
const WorldAverageGPerKWh = 475.0

//go:embed data/countries.csv data/regions.csv
var dataFS embed.FS

type countryRow struct {
	ISOCode     string  `csv:"iso_code"`
	Name        string  `csv:"name"`
	GramsPerKWh float64 `csv:"g_co2_per_kwh"`
}

type regionRow struct {
	CountryISO  string  `csv:"country_iso"`
	Region      string  `csv:"region"`
	GramsPerKWh float64 `csv:"g_co2_per_kwh"`
}

// Resolver maps a {country, region} pair to a carbon intensity factor.
type Resolver struct {
	countries map[string]countryRow
	regions   map[string]float64
	logger    *zap.Logger
}

// NewResolver loads the embedded intensity tables.
func NewResolver(logger *zap.Logger) (*Resolver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Resolver{
		countries: make(map[string]countryRow),
		regions:   make(map[string]float64),
		logger:    logger,
	}

	if err := decodeCSV(dataFS, "data/countries.csv", func(row countryRow) {
		r.countries[strings.ToUpper(row.ISOCode)] = row
	}); err != nil {
		return nil, fmt.Errorf("loading country intensity table: %w", err)
	}

	if err := decodeCSV(dataFS, "data/regions.csv", func(row regionRow) {
		r.regions[regionKey(row.CountryISO, row.Region)] = row.GramsPerKWh
	}); err != nil {
		return nil, fmt.Errorf("loading region intensity table: %w", err)
	}

	return r, nil
}

// decodeCSV streams rows of an embedded CSV file through the given callback.
func decodeCSV[T any](fsys embed.FS, path string, accept func(T)) error {
	f, err := fsys.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := csvutil.NewDecoder(csv.NewReader(f))
	if err != nil {
		return err
	}
	for {
		var row T
		if err := dec.Decode(&row); errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return err
		}
		accept(row)
	}
}

// Intensity returns the carbon intensity in grams CO₂ per kWh for the given
// ISO-3166 alpha-3 country code and optional sub-region code.
//
// Precedence: known {country, region} pair > country value > world average.
// An unrecognized region for a recognized country falls back to the country
// value; an unrecognized country falls back to the world average with a
// warning. This never fails.
func (r *Resolver) Intensity(countryCode, region string) float64 {
	country, ok := r.countries[strings.ToUpper(countryCode)]
	if !ok {
		r.logger.Warn("Unknown country, using world-average carbon intensity",
			zap.String("country_code", countryCode),
			zap.Float64("g_per_kwh", WorldAverageGPerKWh))
		return WorldAverageGPerKWh
	}

	if region != "" {
		if v, ok := r.regions[regionKey(countryCode, region)]; ok {
			return v
		}
		r.logger.Debug("No region-level intensity, using country value",
			zap.String("country_code", countryCode),
			zap.String("region", region))
	}

	return country.GramsPerKWh
}

// CountryName returns the display name for a known country code, or the code
// itself when unknown.
func (r *Resolver) CountryName(countryCode string) string {
	if c, ok := r.countries[strings.ToUpper(countryCode)]; ok {
		return c.Name
	}
	return countryCode
}

func regionKey(countryISO, region string) string {
	return strings.ToUpper(countryISO) + "/" + strings.ToUpper(region)
}
