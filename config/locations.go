package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/alejandrodnm/weatherarb/internal/domain"
)

// ErrUnknownLocation indica un ID de ciudad que no está en el registro.
var ErrUnknownLocation = errors.New("unknown location")

// DefaultLocations es la tabla de ciudades con mercado diario de máxima en Kalshi.
// La estación es la que usa Kalshi para liquidar (p.ej. Midway para Chicago).
func DefaultLocations() []domain.Location {
	return []domain.Location{
		{ID: "nyc", Name: "New York City", SeriesTicker: "KXHIGHNY", StationID: "KNYC", TimeZone: "America/New_York"},
		{ID: "chicago", Name: "Chicago", SeriesTicker: "KXHIGHCHI", StationID: "KMDW", TimeZone: "America/Chicago"},
		{ID: "miami", Name: "Miami", SeriesTicker: "KXHIGHMIA", StationID: "KMIA", TimeZone: "America/New_York"},
		{ID: "la", Name: "Los Angeles", SeriesTicker: "KXHIGHLAX", StationID: "KLAX", TimeZone: "America/Los_Angeles"},
		{ID: "austin", Name: "Austin", SeriesTicker: "KXHIGHAUS", StationID: "KAUS", TimeZone: "America/Chicago"},
		{ID: "denver", Name: "Denver", SeriesTicker: "KXHIGHDEN", StationID: "KDEN", TimeZone: "America/Denver"},
		{ID: "houston", Name: "Houston", SeriesTicker: "KXHIGHOU", StationID: "KIAH", TimeZone: "America/Chicago"},
		{ID: "philly", Name: "Philadelphia", SeriesTicker: "KXHIGHPHIL", StationID: "KPHL", TimeZone: "America/New_York"},
		{ID: "dc", Name: "Washington DC", SeriesTicker: "KXHIGHTDC", StationID: "KDCA", TimeZone: "America/New_York"},
		{ID: "seattle", Name: "Seattle", SeriesTicker: "KXHIGHTSEA", StationID: "KSEA", TimeZone: "America/Los_Angeles"},
		{ID: "vegas", Name: "Las Vegas", SeriesTicker: "KXHIGHTLV", StationID: "KLAS", TimeZone: "America/Los_Angeles"},
		{ID: "sf", Name: "San Francisco", SeriesTicker: "KXHIGHTSFO", StationID: "KSFO", TimeZone: "America/Los_Angeles"},
		{ID: "nola", Name: "New Orleans", SeriesTicker: "KXHIGHTNOLA", StationID: "KMSY", TimeZone: "America/Chicago"},
	}
}

// Registry indexa las ubicaciones por ID.
type Registry struct {
	byID map[string]domain.Location
}

// NewRegistry parte de DefaultLocations y aplica extra: un ID existente se
// sustituye, uno nuevo se añade.
func NewRegistry(extra ...domain.Location) *Registry {
	r := &Registry{byID: make(map[string]domain.Location)}
	for _, l := range DefaultLocations() {
		r.byID[l.ID] = l
	}
	for _, l := range extra {
		l.ID = strings.ToLower(strings.TrimSpace(l.ID))
		if l.ID == "" {
			continue
		}
		r.byID[l.ID] = l
	}
	return r
}

// Lookup devuelve la ubicación o ErrUnknownLocation.
func (r *Registry) Lookup(id string) (domain.Location, error) {
	l, ok := r.byID[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return domain.Location{}, fmt.Errorf("%w: %q (known: %s)", ErrUnknownLocation, id, strings.Join(r.IDs(), ", "))
	}
	return l, nil
}

// Resolve traduce IDs a ubicaciones respetando el orden y validando la zona horaria.
func (r *Registry) Resolve(ids []string) ([]domain.Location, error) {
	out := make([]domain.Location, 0, len(ids))
	for _, id := range ids {
		l, err := r.Lookup(id)
		if err != nil {
			return nil, err
		}
		if l.SeriesTicker == "" || l.StationID == "" {
			return nil, fmt.Errorf("location %q: series_ticker and station_id must be set", l.ID)
		}
		if _, err := l.Zone(); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

// IDs devuelve los IDs conocidos ordenados.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
