package telemetry

// Span and instrumentation names.
const (
	TracerBackend = "github.com/krishisahayak/krishi/backend"
	TracerMapbox  = "github.com/krishisahayak/krishi/mapbox"

	SpanReverseGeocode = "mapbox.reverse_geocode"
	SpanBackendPrefix  = "backend."
)
