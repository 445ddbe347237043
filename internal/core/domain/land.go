package domain

import (
	"encoding/json"
	"time"
)

// LandRequest is the body sent to register a drawn parcel.
type LandRequest struct {
	UserID      string       `json:"userId"`
	Area        float64      `json:"area"`
	Center      GeoPoint     `json:"center"`
	Country     string       `json:"country"`
	Coordinates [][2]float64 `json:"coordinates"`
}

// NewLandRequest packages a drawn area for the land API.
func NewLandRequest(userID string, area *DrawnArea) LandRequest {
	return LandRequest{
		UserID:      userID,
		Area:        area.AreaSquareMeters,
		Center:      area.Centroid,
		Country:     area.Country,
		Coordinates: Pairs(area.PolygonCoordinates),
	}
}

// Land is a parcel as stored by the backend.
type Land struct {
	ID        ID      `json:"id"`
	PolygonID string  `json:"polygonId,omitempty"`
	Area      float64 `json:"area,omitempty"`
	Country   string  `json:"country,omitempty"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}

// LandResult is the add-land response envelope.
type LandResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Land    *Land  `json:"land,omitempty"`
}

// LandList is the get-land response envelope.
type LandList struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Lands   []Land `json:"lands,omitempty"`
	Land    *Land  `json:"land,omitempty"`
}

// All returns every land in the response, whichever shape the backend used.
func (l *LandList) All() []Land {
	if len(l.Lands) > 0 || l.Land == nil {
		return l.Lands
	}
	return []Land{*l.Land}
}

// SatelliteResult is the satellite endpoint response. The imagery payload is
// passed through untouched.
type SatelliteResult struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// LandRegistration records one successful land registration.
type LandRegistration struct {
	ID            string        `json:"id"`
	CaptureID     string        `json:"capture_id"`
	UserID        string        `json:"user_id"`
	LandID        string        `json:"land_id"`
	PolygonID     string        `json:"polygon_id,omitempty"`
	Area          float64       `json:"area_square_meters"`
	Centroid      GeoPoint      `json:"centroid"`
	Country       string        `json:"country"`
	CountryStatus CountryStatus `json:"country_status"`
	Polygon       []GeoPoint    `json:"polygon"`
	RegisteredAt  time.Time     `json:"registered_at"`
}

// LandRegistered is published after a registration so follow-up work can
// run on the user's behalf.
type LandRegistered struct {
	Registration LandRegistration `json:"registration"`
	Token        string           `json:"token"`
}

// LandFollowUp is the input of the post-registration workflow.
type LandFollowUp struct {
	Token          string `json:"token"`
	UserID         string `json:"user_id"`
	LandID         string `json:"land_id"`
	PolygonID      string `json:"polygon_id"`
	RegistrationID string `json:"registration_id"`
}

// Key identifies the follow-up: the backend land id, or the registration id
// when the backend did not return one.
func (f LandFollowUp) Key() string {
	if f.LandID != "" {
		return f.LandID
	}
	return "reg-" + f.RegistrationID
}

// FollowUp derives the workflow input from the event.
func (e LandRegistered) FollowUp() LandFollowUp {
	return LandFollowUp{
		Token:          e.Token,
		UserID:         e.Registration.UserID,
		LandID:         e.Registration.LandID,
		PolygonID:      e.Registration.PolygonID,
		RegistrationID: e.Registration.ID,
	}
}
