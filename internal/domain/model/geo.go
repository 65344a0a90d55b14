package model

import (
	"fmt"
	"strconv"
)

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (c Coordinates) String() string {
	return fmt.Sprintf("%s,%s", strconv.FormatFloat(c.Lat, 'f', 6, 64), strconv.FormatFloat(c.Lon, 'f', 6, 64))
}

// ParseCoordinates accepts the string pairs found in address dumps.
func ParseCoordinates(lat, lon string) (Coordinates, error) {
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("latitude %q: %w", lat, err)
	}
	lo, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("longitude %q: %w", lon, err)
	}
	return Coordinates{Lat: la, Lon: lo}, nil
}
