package domain

import (
	"time"

	"github.com/paulmach/orb/geojson"
)

// UnknownCountry is reported whenever reverse geocoding yields no country.
const UnknownCountry = "Unknown"

// DrawPrompt is the guidance shown when a draw event arrives with nothing drawn.
const DrawPrompt = "Click the map to draw a polygon."

// CountryStatus tells apart a country that was found, one that legitimately
// does not exist at the point, and a lookup that failed.
type CountryStatus string

const (
	CountryDetected     CountryStatus = "detected"
	CountryNotFound     CountryStatus = "not_found"
	CountryLookupFailed CountryStatus = "lookup_failed"
)

// DrawnArea is the geometric and administrative summary of one drawn parcel.
// It is replaced wholesale on every edit.
type DrawnArea struct {
	AreaSquareMeters   float64       `json:"area_square_meters"`
	PerimeterMeters    float64       `json:"perimeter_meters"`
	Centroid           GeoPoint      `json:"centroid"`
	Country            string        `json:"country"`
	CountryStatus      CountryStatus `json:"country_status"`
	PolygonCoordinates []GeoPoint    `json:"polygon_coordinates"`
	Sequence           uint64        `json:"sequence"`
	CapturedAt         time.Time     `json:"captured_at"`
}

// Clone returns a deep copy so callers never share the coordinate slice.
func (a *DrawnArea) Clone() *DrawnArea {
	if a == nil {
		return nil
	}
	c := *a
	c.PolygonCoordinates = append([]GeoPoint(nil), a.PolygonCoordinates...)
	return &c
}

// DrawEventType mirrors the drawing control's lifecycle events.
type DrawEventType string

const (
	DrawCreate DrawEventType = "draw.create"
	DrawUpdate DrawEventType = "draw.update"
	DrawDelete DrawEventType = "draw.delete"
)

// Valid reports whether t is one of the known draw events.
func (t DrawEventType) Valid() bool {
	switch t {
	case DrawCreate, DrawUpdate, DrawDelete:
		return true
	}
	return false
}

// DrawEvent carries every feature currently on the drawing layer.
type DrawEvent struct {
	Type     DrawEventType              `json:"type"`
	Features *geojson.FeatureCollection `json:"features"`
}

// FeatureCount returns the number of features, treating a nil collection as empty.
func (e DrawEvent) FeatureCount() int {
	if e.Features == nil {
		return 0
	}
	return len(e.Features.Features)
}

// OutcomeKind classifies the result of a draw event.
type OutcomeKind string

const (
	OutcomeEmitted OutcomeKind = "emitted"
	OutcomePrompt  OutcomeKind = "prompt"
	OutcomeCleared OutcomeKind = "cleared"
	OutcomeStale   OutcomeKind = "stale"
)

// CaptureOutcome is returned for every handled draw event.
type CaptureOutcome struct {
	Kind     OutcomeKind `json:"kind"`
	Sequence uint64      `json:"sequence"`
	Area     *DrawnArea  `json:"area,omitempty"`
	Prompt   string      `json:"prompt,omitempty"`
}

// DrawControls configures the polygon drawing control.
type DrawControls struct {
	Polygon     bool   `json:"polygon"`
	Trash       bool   `json:"trash"`
	DefaultMode string `json:"default_mode"`
}

// MapView describes the map canvas a capture session is drawn on.
type MapView struct {
	Center   GeoPoint     `json:"center"`
	Zoom     float64      `json:"zoom"`
	Style    string       `json:"style"`
	Controls DrawControls `json:"controls"`
}

// DefaultMapView is centred on Dehradun with satellite imagery.
func DefaultMapView() MapView {
	return MapView{
		Center: GeoPoint{Lon: 78.0322, Lat: 30.3165},
		Zoom:   8.51,
		Style:  "mapbox://styles/mapbox/satellite-streets-v12",
		Controls: DrawControls{
			Polygon:     true,
			Trash:       true,
			DefaultMode: "draw_polygon",
		},
	}
}

// Capture is a snapshot of one capture session.
type Capture struct {
	ID       string     `json:"id"`
	View     MapView    `json:"view"`
	Latest   *DrawnArea `json:"latest,omitempty"`
	OpenedAt time.Time  `json:"opened_at"`
}
