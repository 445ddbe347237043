package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrCaptureNotFound = errors.New("capture session not found")
	ErrInvalidPolygon  = errors.New("polygon must be a closed ring with at least 3 distinct vertices")
	ErrInvalidEvent    = errors.New("unknown draw event type")
	ErrNoArea          = errors.New("no area has been drawn yet")
	ErrAuthRejected    = errors.New("authentication rejected")
	ErrSessionUnknown  = errors.New("session unknown or expired")
	ErrRejected        = errors.New("request rejected")
)

// ConfigError reports a missing or invalid setting the process can run without.
type ConfigError struct {
	Key  string
	Help string
}

func (e *ConfigError) Error() string {
	return e.Key + " is not configured"
}

// MapNotConfigured is returned when the map-service credential is absent.
func MapNotConfigured() *ConfigError {
	return &ConfigError{
		Key:  "mapbox.token",
		Help: "Set KRISHI_MAPBOX_TOKEN (or NEXT_PUBLIC_MAPBOX_TOKEN) to a Mapbox access token and restart the service.",
	}
}

// ValidationError maps input field names to messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
