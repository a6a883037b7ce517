// Package geo resolves the machine's location for carbon-intensity lookup.
// The default resolver queries a geo-IP HTTP endpoint; a static resolver
// serves manual country/region overrides from configuration. Resolution
// never fails — on any error the fixed world default is returned with a
// warning, so tracking always proceeds.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Location describes where the tracked workload runs.
type Location struct {
	CountryCode string // ISO-3166 alpha-3, e.g. "USA"
	CountryName string
	Region      string // sub-region code, e.g. "CA"; empty when unknown
	Latitude    float64
	Longitude   float64
}

// Default is the fallback location used when resolution fails. Its country
// code matches nothing in the intensity tables, so the world-average
// intensity applies downstream.
var Default = Location{CountryName: "World"}

// Resolver resolves the current location.
type Resolver interface {
	Resolve(ctx context.Context) Location
}

// Static is a Resolver that always returns a fixed location, used when the
// configuration pins the country/region manually.
type Static struct {
	Location Location
}

// Resolve returns the pinned location.
func (s Static) Resolve(context.Context) Location { return s.Location }

const (
	// defaultEndpoint serves the caller's geo-IP data as JSON.
	defaultEndpoint = "https://get.geojs.io/v1/ip/geo.json"

	requestTimeout = 5 * time.Second
)

// IPResolver resolves the location of the machine's public IP address.
type IPResolver struct {
	client   *http.Client
	endpoint string
	logger   *zap.Logger
}

// NewIPResolver creates a geo-IP resolver. An empty endpoint selects the
// default public service.
func NewIPResolver(endpoint string, logger *zap.Logger) *IPResolver {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IPResolver{
		client:   &http.Client{Timeout: requestTimeout},
		endpoint: endpoint,
		logger:   logger,
	}
}

// geoResponse mirrors the geo-IP endpoint's JSON payload. Latitude and
// longitude arrive as strings.
type geoResponse struct {
	CountryCode3 string `json:"country_code3"`
	Country      string `json:"country"`
	Region       string `json:"region"`
	Latitude     string `json:"latitude"`
	Longitude    string `json:"longitude"`
}

// Resolve queries the geo-IP endpoint. On any failure it logs a warning and
// returns the Default location; it never returns an error.
func (r *IPResolver) Resolve(ctx context.Context) Location {
	loc, err := r.fetch(ctx)
	if err != nil {
		r.logger.Warn("Location resolution failed, using default location",
			zap.String("endpoint", r.endpoint),
			zap.Error(err))
		return Default
	}
	r.logger.Debug("Location resolved",
		zap.String("country_code", loc.CountryCode),
		zap.String("region", loc.Region))
	return loc
}

func (r *IPResolver) fetch(ctx context.Context) (Location, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint, nil)
	if err != nil {
		return Location{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return Location{}, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return Location{}, fmt.Errorf("server returned %d", resp.StatusCode)
	}

	var payload geoResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Location{}, fmt.Errorf("decode response: %w", err)
	}
	if payload.CountryCode3 == "" {
		return Location{}, fmt.Errorf("response carries no country code")
	}

	loc := Location{
		CountryCode: payload.CountryCode3,
		CountryName: payload.Country,
		Region:      payload.Region,
	}
	if v, err := strconv.ParseFloat(payload.Latitude, 64); err == nil {
		loc.Latitude = v
	}
	if v, err := strconv.ParseFloat(payload.Longitude, 64); err == nil {
		loc.Longitude = v
	}
	return loc, nil
}
