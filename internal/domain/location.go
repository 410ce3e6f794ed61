package domain

import (
	"fmt"
	"time"

	// Zonas horarias embebidas: el binario no depende del zoneinfo del host.
	_ "time/tzdata"
)

// Location es una ciudad monitorizada y la serie de Kalshi que liquida
// contra su estación oficial.
type Location struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	SeriesTicker string `yaml:"series_ticker"`
	StationID    string `yaml:"station_id"`
	MetarID      string `yaml:"metar_id"`
	TimeZone     string `yaml:"timezone"`
}

// Metar devuelve el identificador METAR, que por defecto es la estación.
func (l Location) Metar() string {
	if l.MetarID != "" {
		return l.MetarID
	}
	return l.StationID
}

// Zone carga la zona horaria de la ubicación.
func (l Location) Zone() (*time.Location, error) {
	loc, err := time.LoadLocation(l.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("domain.Location.Zone %s: %w", l.ID, err)
	}
	return loc, nil
}

// LocalMidnight devuelve la medianoche del día local de now en zone.
func LocalMidnight(now time.Time, zone *time.Location) time.Time {
	y, m, d := now.In(zone).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, zone)
}

// HoursSinceMidnight devuelve las horas transcurridas desde la medianoche local.
func HoursSinceMidnight(now time.Time, zone *time.Location) float64 {
	return now.Sub(LocalMidnight(now, zone)).Hours()
}

// SameLocalDay compara dos instantes por día de calendario en zone.
func SameLocalDay(a, b time.Time, zone *time.Location) bool {
	ay, am, ad := a.In(zone).Date()
	by, bm, bd := b.In(zone).Date()
	return ay == by && am == bm && ad == bd
}
