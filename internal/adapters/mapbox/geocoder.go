package mapbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/krishisahayak/krishi/internal/core/domain"
	"github.com/krishisahayak/krishi/internal/core/ports"
	"github.com/krishisahayak/krishi/internal/pkg/logging"
	"github.com/krishisahayak/krishi/internal/pkg/metrics"
	"github.com/krishisahayak/krishi/internal/pkg/telemetry"
)

// DefaultBaseURL is the public Mapbox API host.
const DefaultBaseURL = "https://api.mapbox.com"

// Feature is one reverse-geocoding result.
type Feature struct {
	ID        string `json:"id"`
	PlaceName string `json:"place_name"`
}

// IsCountry reports whether the feature is country-level.
func (f Feature) IsCountry() bool {
	return strings.Contains(f.ID, "country")
}

// Response is the subset of the places response we read.
type Response struct {
	Features []Feature `json:"features"`
}

// Country returns the place name of the first country-level feature.
func (r *Response) Country() (string, bool) {
	for _, f := range r.Features {
		if f.IsCountry() {
			return f.PlaceName, true
		}
	}
	return "", false
}

// Geocoder implements ports.Geocoder against the Mapbox places endpoint.
type Geocoder struct {
	baseURL  string
	token    string
	client   *http.Client
	cache    ports.CacheService
	cacheTTL int
}

// Option configures a Geocoder.
type Option func(*Geocoder)

// WithBaseURL points the geocoder at another host (tests, proxies).
func WithBaseURL(u string) Option {
	return func(g *Geocoder) { g.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the default 5s-timeout client.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Geocoder) { g.client = c }
}

// WithCache caches resolved countries for ttlSeconds.
func WithCache(cache ports.CacheService, ttlSeconds int) Option {
	return func(g *Geocoder) {
		g.cache = cache
		g.cacheTTL = ttlSeconds
	}
}

// New creates a Geocoder using the given access token.
func New(token string, opts ...Option) *Geocoder {
	g := &Geocoder{
		baseURL: DefaultBaseURL,
		token:   token,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// ReverseCountry looks up the country containing the point. It returns ""
// and a nil error when the response carries no country feature.
func (g *Geocoder) ReverseCountry(ctx context.Context, at domain.GeoPoint) (string, error) {
	ctx, span := otel.Tracer(telemetry.TracerMapbox).Start(ctx, telemetry.SpanReverseGeocode)
	defer span.End()
	span.SetAttributes(attribute.Float64("geo.lon", at.Lon), attribute.Float64("geo.lat", at.Lat))

	key := cacheKey(at)
	if g.cache != nil {
		if data, err := g.cache.Get(ctx, key); err == nil {
			metrics.CacheHits.WithLabelValues("geocode").Inc()
			return string(data), nil
		}
		metrics.CacheMisses.WithLabelValues("geocode").Inc()
	}

	resp, err := g.lookup(ctx, at)
	if err != nil {
		metrics.GeocodeRequests.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	country, ok := resp.Country()
	if ok {
		metrics.GeocodeRequests.WithLabelValues("country").Inc()
	} else {
		metrics.GeocodeRequests.WithLabelValues("no_country").Inc()
	}

	if g.cache != nil {
		if err := g.cache.Set(ctx, key, []byte(country), g.cacheTTL); err != nil {
			logging.FromContext(ctx).Warn("geocode cache set failed", "key", key, "error", err)
		}
	}
	return country, nil
}

func (g *Geocoder) lookup(ctx context.Context, at domain.GeoPoint) (*Response, error) {
	u := fmt.Sprintf("%s/geocoding/v5/mapbox.places/%s,%s.json?access_token=%s",
		g.baseURL,
		strconv.FormatFloat(at.Lon, 'f', -1, 64),
		strconv.FormatFloat(at.Lat, 'f', -1, 64),
		url.QueryEscape(g.token),
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := g.client.Do(req)
	metrics.GeocodeDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("geocode request: status %d", resp.StatusCode)
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("geocode decode: %w", err)
	}
	if out.Features == nil {
		return nil, errors.New("geocode decode: response has no features")
	}
	return &out, nil
}

// cacheKey rounds to 4 decimals (~11 m), well inside any border tolerance.
func cacheKey(at domain.GeoPoint) string {
	return fmt.Sprintf("geocode:country:%.4f:%.4f", at.Lon, at.Lat)
}
