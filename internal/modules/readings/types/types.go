package types

import (
	"fmt"
	"time"
)

// WindUnknown is the direction label a station reports when its wind vane
// is offline or the bearing cannot be resolved.
const WindUnknown = "Unknown"

// windDirections are the 16 compass point labels accepted at ingest.
var windDirections = map[string]bool{
	"N": true, "NNE": true, "NE": true, "ENE": true,
	"E": true, "ESE": true, "SE": true, "SSE": true,
	"S": true, "SSW": true, "SW": true, "WSW": true,
	"W": true, "WNW": true, "NW": true, "NNW": true,
	WindUnknown: true,
}

// ValidWindDirection reports whether s is one of the 16 compass points
// or WindUnknown.
func ValidWindDirection(s string) bool {
	return windDirections[s]
}

// Location is a geographic coordinate attached to a reading.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Reading is one stored sensor sample. Readings are immutable once stored;
// consumers must order by Timestamp, not by ID.
type Reading struct {
	ID            int64     `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	Temperature   float64   `json:"temperature"`
	Humidity      float64   `json:"humidity"`
	VOCIndex      float64   `json:"vocIndex"`
	VOCRaw        float64   `json:"vocRaw"`
	PM1           float64   `json:"pm1"`
	PM25          float64   `json:"pm25"`
	PM10          float64   `json:"pm10"`
	Rainfall      float64   `json:"rainfall"`
	WindSpeed     float64   `json:"windSpeed"`
	WindDirection string    `json:"windDirection"`
	Location      Location  `json:"location"`
}

// ReadingPayload is the wire form of an inbound sample from a device.
// Pointer fields distinguish an absent field from a zero value so that
// validation can reject partial payloads.
type ReadingPayload struct {
	Temperature   *float64   `json:"temperature"`
	Humidity      *float64   `json:"humidity"`
	VOCIndex      *float64   `json:"vocIndex"`
	VOCRaw        *float64   `json:"vocRaw"`
	PM1           *float64   `json:"pm1"`
	PM25          *float64   `json:"pm25"`
	PM10          *float64   `json:"pm10"`
	Rainfall      *float64   `json:"rainfall"`
	WindSpeed     *float64   `json:"windSpeed"`
	WindDirection *string    `json:"windDirection"`
	Location      *Location  `json:"location,omitempty"`
	Timestamp     *time.Time `json:"timestamp,omitempty"`
}

// Page is one page of readings ordered by timestamp descending.
type Page struct {
	Data  []Reading `json:"data"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
	Total int       `json:"total"`
	Pages int       `json:"pages"`
}

// Placeholder is the documented default reading served when the store is
// empty, so first-paint clients always have something to render.
func Placeholder(site Location) Reading {
	return Reading{
		WindDirection: WindUnknown,
		Location:      site,
	}
}

// ValidationError reports a malformed or missing ingest field. Requests
// failing validation are rejected; nothing is persisted or broadcast.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid reading: field %q %s", e.Field, e.Reason)
}
