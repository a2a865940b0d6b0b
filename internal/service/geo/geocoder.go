package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"rtx-client/internal/domain/geo"

	"go.uber.org/zap"
)

// acceptLanguage localizes geocoder responses for the app's audience.
const acceptLanguage = "pt-BR,pt;q=0.9,en;q=0.8"

// UnknownCity is returned when reverse geocoding cannot name a place.
const UnknownCity = "Cidade desconhecida"

// cityKeys are the address fields consulted for a place name, in priority
// order.
var cityKeys = []string{"city", "town", "village", "municipality", "county"}

// Geocoder resolves names and coordinates through a Nominatim-style
// service.
type Geocoder struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewGeocoder creates a geocoder against baseURL.
func NewGeocoder(baseURL string, timeout time.Duration, logger *zap.Logger) *Geocoder {
	return &Geocoder{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// ReverseGeocode names the city at a coordinate. Failures degrade to
// UnknownCity and never surface as errors.
func (g *Geocoder) ReverseGeocode(ctx context.Context, p geo.Point) string {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(p.Lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(p.Lng, 'f', -1, 64))
	q.Set("format", "json")
	q.Set("zoom", "10")

	var payload struct {
		Address map[string]string `json:"address"`
	}
	if err := g.get(ctx, "/reverse", q, &payload); err != nil {
		g.logger.Debug("reverse geocode failed", zap.Error(err))
		return UnknownCity
	}
	for _, key := range cityKeys {
		if v := payload.Address[key]; v != "" {
			return v
		}
	}
	return UnknownCity
}

// GeocodeCity resolves a free-form city query to coordinates. A blank
// query, a failed call or an empty result yields nil, never an error.
func (g *Geocoder) GeocodeCity(ctx context.Context, query string) *geo.Point {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("limit", "1")

	var hits []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := g.get(ctx, "/search", q, &hits); err != nil {
		g.logger.Debug("city geocode failed", zap.Error(err))
		return nil
	}
	if len(hits) == 0 {
		return nil
	}
	lat, latErr := strconv.ParseFloat(hits[0].Lat, 64)
	lng, lngErr := strconv.ParseFloat(hits[0].Lon, 64)
	if latErr != nil || lngErr != nil {
		return nil
	}
	return &geo.Point{Lat: lat, Lng: lng}
}

func (g *Geocoder) get(ctx context.Context, path string, q url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept-Language", acceptLanguage)

	resp, err := g.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("geocode: status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
