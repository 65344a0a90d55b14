package model

import "strconv"

// Flow is a backend collection of structured records ("entries").
type Flow struct {
	ID          string
	Name        string
	Slug        string
	Description string
}

// Field describes one column of a flow.
type Field struct {
	ID          string
	Name        string
	Slug        string
	Type        string // string | integer | float | boolean | date
	Description string
	Required    bool
}

// Entry is one record of a flow. Fields are keyed by field slug.
type Entry struct {
	ID     string
	Fields map[string]interface{}
}

func (e Entry) String(key string) string {
	switch v := e.Fields[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

func (e Entry) Float(key string) (float64, bool) {
	switch v := e.Fields[key].(type) {
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	}
	return 0, false
}

// Address field slugs of the pizzeria flow.
const (
	AddressFieldAddress   = "address"
	AddressFieldAlias     = "alias"
	AddressFieldLatitude  = "latitude"
	AddressFieldLongitude = "longitude"
)

// Address is a pickup point stored as a flow entry.
type Address struct {
	ID     string
	Alias  string
	Text   string
	Coords Coordinates
}

func (a Address) Entry() Entry {
	return Entry{
		ID: a.ID,
		Fields: map[string]interface{}{
			AddressFieldAddress:   a.Text,
			AddressFieldAlias:     a.Alias,
			AddressFieldLatitude:  a.Coords.Lat,
			AddressFieldLongitude: a.Coords.Lon,
		},
	}
}

// AddressFromEntry returns false when the entry has no usable coordinates.
func AddressFromEntry(e Entry) (Address, bool) {
	lat, okLat := e.Float(AddressFieldLatitude)
	lon, okLon := e.Float(AddressFieldLongitude)
	if !okLat || !okLon {
		return Address{}, false
	}
	return Address{
		ID:     e.ID,
		Alias:  e.String(AddressFieldAlias),
		Text:   e.String(AddressFieldAddress),
		Coords: Coordinates{Lat: lat, Lon: lon},
	}, true
}
