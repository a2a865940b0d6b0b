package restaurant

import (
	"math"
	"strconv"
	"strings"

	"github.com/oklog/ulid/v2"
)

// Raw is a backend restaurant record before normalization. The API has been
// seen returning flat lat/lng, latitude/longitude, and nested coord objects,
// plus several name aliases; Normalize reconciles all of them.
type Raw map[string]interface{}

// Normalize maps a raw record into the canonical shape. It is deterministic
// apart from id generation for records that arrive without one.
func Normalize(raw Raw) Restaurant {
	var nested Raw
	if c, ok := raw["coord"].(map[string]interface{}); ok {
		nested = Raw(c)
	}

	return Restaurant{
		ID:        raw.id(),
		Nome:      raw.text("Restaurante", "nome", "nomeFantasia", "fantasia"),
		Endereco:  raw.text("", "endereco", "address"),
		Telefone:  raw.text("", "telefone", "phone"),
		Categoria: raw.text("", "categoria", "category"),
		Email:     raw.text("", "email"),
		Lat:       firstCoordinate(raw["lat"], raw["latitude"], nested["lat"]),
		Lng:       firstCoordinate(raw["lng"], raw["longitude"], nested["lng"]),
	}
}

// NormalizeAll maps raw backend records and keeps only the map-eligible
// ones.
func NormalizeAll(raws []Raw) []Restaurant {
	out := make([]Restaurant, 0, len(raws))
	for _, raw := range raws {
		r := Normalize(raw)
		if r.MapEligible() {
			out = append(out, r)
		}
	}
	return out
}

// firstCoordinate takes the first defined candidate and coerces it
// numerically. A candidate that coerces to a non-finite value makes the
// coordinate absent; later candidates are not consulted.
func firstCoordinate(candidates ...interface{}) *float64 {
	for _, v := range candidates {
		if v == nil {
			continue
		}
		n, ok := toNumber(v)
		if !ok || math.IsNaN(n) || math.IsInf(n, 0) {
			return nil
		}
		return &n
	}
	return nil
}

func toNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// id resolves the record identity, generating a process-local ULID when the
// backend provides none.
func (r Raw) id() string {
	for _, key := range []string{"id", "restaurantId"} {
		v, ok := r[key]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			if t != "" {
				return t
			}
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64)
		}
	}
	return ulid.Make().String()
}

// text returns the first non-empty string among the aliases, else fallback.
func (r Raw) text(fallback string, keys ...string) string {
	for _, key := range keys {
		if v, ok := r[key].(string); ok && v != "" {
			return v
		}
	}
	return fallback
}
