// Package geocode resolves delivery addresses through a Nominatim server.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const DefaultBaseURL = "https://nominatim.openstreetmap.org"

var (
	ErrInvalidQuery       = errors.New("address is required")
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrNotFound           = errors.New("location not found")
	ErrUpstream           = errors.New("geocoding service unavailable")
)

// Place is a resolved location.
type Place struct {
	Lat         float64           `json:"lat"`
	Lng         float64           `json:"lng"`
	DisplayName string            `json:"displayName"`
	Area        string            `json:"area,omitempty"`
	Pincode     string            `json:"pincode,omitempty"`
	Components  map[string]string `json:"components"`
}

type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// Client talks to the Nominatim search and reverse endpoints.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type nominatimPlace struct {
	Lat         string            `json:"lat"`
	Lon         string            `json:"lon"`
	DisplayName string            `json:"display_name"`
	Address     map[string]string `json:"address"`
	Error       string            `json:"error"`
}

// Search geocodes free text built from the non-empty parts.
func (c *Client) Search(ctx context.Context, parts ...string) (*Place, error) {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return nil, ErrInvalidQuery
	}
	query := strings.Join(kept, ", ")

	params := url.Values{}
	params.Set("format", "jsonv2")
	params.Set("addressdetails", "1")
	params.Set("limit", "1")
	params.Set("q", query)

	var matches []nominatimPlace
	if err := c.get(ctx, "/search", params, &matches); err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		slog.Warn("Geocoding: location not found", "query", query)
		return nil, ErrNotFound
	}
	return matches[0].toPlace()
}

// Reverse turns coordinates into an address.
func (c *Client) Reverse(ctx context.Context, lat, lng float64) (*Place, error) {
	if !ValidCoordinates(lat, lng) {
		return nil, ErrInvalidCoordinates
	}

	params := url.Values{}
	params.Set("format", "jsonv2")
	params.Set("addressdetails", "1")
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))

	var match nominatimPlace
	if err := c.get(ctx, "/reverse", params, &match); err != nil {
		return nil, err
	}
	if match.Error != "" || match.DisplayName == "" {
		slog.Warn("Geocoding: address not found", "lat", lat, "lng", lng)
		return nil, ErrNotFound
	}
	place, err := match.toPlace()
	if err != nil {
		return nil, err
	}
	if place.Lat == 0 && place.Lng == 0 {
		place.Lat, place.Lng = lat, lng
	}
	return place, nil
}

// ValidCoordinates reports whether lat/lng are finite and in range.
func ValidCoordinates(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build geocoding request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		slog.Error("Geocoding request failed", "path", path, "err", err)
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		slog.Error("Geocoding service returned an error", "path", path, "status", resp.StatusCode)
		return fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", ErrUpstream, err)
	}
	return nil
}

func (p nominatimPlace) toPlace() (*Place, error) {
	place := &Place{
		DisplayName: p.DisplayName,
		Components:  p.Address,
		Pincode:     p.Address["postcode"],
		Area:        firstNonEmpty(p.Address, "suburb", "neighbourhood", "city_district", "village", "town", "city"),
	}
	if place.Components == nil {
		place.Components = map[string]string{}
	}
	if p.Lat != "" || p.Lon != "" {
		lat, errLat := strconv.ParseFloat(p.Lat, 64)
		lng, errLng := strconv.ParseFloat(p.Lon, 64)
		if errLat != nil || errLng != nil {
			return nil, fmt.Errorf("%w: malformed coordinates %q,%q", ErrUpstream, p.Lat, p.Lon)
		}
		place.Lat, place.Lng = lat, lng
	}
	return place, nil
}

func firstNonEmpty(m map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := m[k]; v != "" {
			return v
		}
	}
	return ""
}
