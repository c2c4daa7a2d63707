package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Location is the region a clan plays in. The value is always held in its
// canonical form, which uses "_" as separator ("Europe_Africa"). Clients
// see and may send the "/" form ("Europe/Africa").
type Location string

// Canonical location values, as stored in mongo
const (
	LocationEuropeAfrica Location = "Europe_Africa"
	LocationAmericas     Location = "Americas"
	LocationAsiaOceania  Location = "Asia_Oceania"
	LocationWorldwide    Location = "Worldwide"
)

// AllFilter is the sentinel that disables the location or language filter
const AllFilter = "all"

var locations = []Location{LocationEuropeAfrica, LocationAmericas, LocationAsiaOceania, LocationWorldwide}

// ErrUnknownLocation is returned by ParseLocation for values outside the enumeration
var ErrUnknownLocation = errors.New("unknown location")

// ParseLocation accepts either separator convention and returns the canonical Location
func ParseLocation(s string) (Location, error) {
	canonical := Location(strings.ReplaceAll(strings.TrimSpace(s), "/", "_"))
	for _, l := range locations {
		if l == canonical {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLocation, s)
}

// Wire returns the client facing form of the location
func (l Location) Wire() string {
	return strings.ReplaceAll(string(l), "_", "/")
}

// Valid reports whether l is a canonical location
func (l Location) Valid() bool {
	for _, known := range locations {
		if l == known {
			return true
		}
	}
	return false
}

// MarshalJSON writes the "/" form
func (l Location) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Wire())
}

// UnmarshalJSON reads either form and normalises it
func (l *Location) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseLocation(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// LocationOptions lists every location in display order
func LocationOptions() []Option {
	opts := make([]Option, 0, len(locations))
	for _, l := range locations {
		opts = append(opts, Option{Label: l.Wire(), Value: l.Wire()})
	}
	return opts
}
