package geo

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"rtx-client/internal/domain/geo"

	"go.uber.org/zap"
)

// Locator resolves the user's approximate position from an IP geolocation
// endpoint. A missing position is treated exactly like denied browser
// geolocation: silent, with the caller falling back to the default center.
type Locator struct {
	endpoint string
	http     *http.Client
	logger   *zap.Logger
}

// NewLocator creates a locator. timeout bounds the whole lookup; past it
// the position is simply reported as unknown.
func NewLocator(endpoint string, timeout time.Duration, logger *zap.Logger) *Locator {
	return &Locator{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

// Locate returns the user position, or nil when it cannot be established
// within the bounded wait. It never returns an error.
func (l *Locator) Locate(ctx context.Context) *geo.Point {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.endpoint, nil)
	if err != nil {
		return nil
	}

	resp, err := l.http.Do(req)
	if err != nil {
		l.logger.Debug("position lookup failed", zap.Error(err))
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		l.logger.Debug("position lookup rejected", zap.Int("status", resp.StatusCode))
		return nil
	}

	// ip-api style payloads use lat/lon; some services use the long names.
	var payload struct {
		Lat       *float64 `json:"lat"`
		Lon       *float64 `json:"lon"`
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil
	}

	var p geo.Point
	switch {
	case payload.Lat != nil && payload.Lon != nil:
		p = geo.Point{Lat: *payload.Lat, Lng: *payload.Lon}
	case payload.Latitude != nil && payload.Longitude != nil:
		p = geo.Point{Lat: *payload.Latitude, Lng: *payload.Longitude}
	default:
		return nil
	}
	if !p.Finite() {
		return nil
	}
	return &p
}
