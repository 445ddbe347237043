package usecases

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"github.com/krishisahayak/krishi/internal/core/domain"
	"github.com/krishisahayak/krishi/internal/core/ports"
	"github.com/krishisahayak/krishi/internal/pkg/geospatial"
	"github.com/krishisahayak/krishi/internal/pkg/logging"
	"github.com/krishisahayak/krishi/internal/pkg/metrics"
)

// DefaultCaptureIdleTTL is how long a session survives without any call.
const DefaultCaptureIdleTTL = 30 * time.Minute

// CaptureService runs area-capture sessions: it turns draw events into
// DrawnArea values with area, centroid and country.
type CaptureService struct {
	geocoder  ports.Geocoder
	publisher ports.EventPublisher
	now       func() time.Time
	idleTTL   time.Duration

	mu       sync.RWMutex
	sessions map[string]*captureSession
}

type captureSession struct {
	id       string
	openedAt time.Time

	mu      sync.Mutex
	issued  uint64
	latest  *domain.DrawnArea
	touched time.Time
	closed  bool
}

// CaptureOption configures a CaptureService.
type CaptureOption func(*CaptureService)

// WithIdleTTL sets how long an untouched session is kept. Zero keeps
// sessions until they are closed.
func WithIdleTTL(d time.Duration) CaptureOption {
	return func(s *CaptureService) { s.idleTTL = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) CaptureOption {
	return func(s *CaptureService) { s.now = now }
}

// NewCaptureService creates a CaptureService. A nil geocoder means the map
// credential is missing: every call then fails with *domain.ConfigError.
// The publisher is optional.
func NewCaptureService(geocoder ports.Geocoder, publisher ports.EventPublisher, opts ...CaptureOption) *CaptureService {
	s := &CaptureService{
		geocoder:  geocoder,
		publisher: publisher,
		now:       time.Now,
		idleTTL:   DefaultCaptureIdleTTL,
		sessions:  make(map[string]*captureSession),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// View returns the map canvas configuration.
func (s *CaptureService) View() (domain.MapView, error) {
	if s.geocoder == nil {
		return domain.MapView{}, domain.MapNotConfigured()
	}
	return domain.DefaultMapView(), nil
}

// Open starts a capture session. Opening an id that is already open returns
// the existing session unchanged. An empty or malformed id gets a fresh one.
func (s *CaptureService) Open(ctx context.Context, id string) (*domain.Capture, error) {
	if s.geocoder == nil {
		return nil, domain.MapNotConfigured()
	}
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}

	now := s.now()
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok && sess.idle(now, s.idleTTL) {
		s.removeLocked(id, sess)
		ok = false
	}
	if !ok {
		sess = &captureSession{id: id, openedAt: now.UTC(), touched: now}
		s.sessions[id] = sess
		metrics.OpenCaptures.Inc()
	}
	s.mu.Unlock()
	sess.touch(now)

	if !ok {
		logging.FromContext(ctx).Info("capture session opened", "capture_id", id)
	}
	return sess.snapshot(), nil
}

// Get returns a snapshot of a session.
func (s *CaptureService) Get(id string) (*domain.Capture, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	return sess.snapshot(), nil
}

// Close discards a session and its latest area. A lookup still running for
// the session is dropped when it returns.
func (s *CaptureService) Close(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return domain.ErrCaptureNotFound
	}
	s.removeLocked(id, sess)
	return nil
}

// OpenSessions returns the number of registered sessions.
func (s *CaptureService) OpenSessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// EvictIdle closes every session untouched for longer than the idle TTL and
// returns how many it closed.
func (s *CaptureService) EvictIdle() int {
	if s.idleTTL <= 0 {
		return 0
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, sess := range s.sessions {
		if sess.idle(now, s.idleTTL) {
			s.removeLocked(id, sess)
			n++
		}
	}
	return n
}

// RunJanitor evicts idle sessions every interval until ctx is done.
func (s *CaptureService) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.EvictIdle(); n > 0 {
				logging.FromContext(ctx).Info("idle capture sessions evicted", "count", n)
			}
		}
	}
}

func (s *CaptureService) removeLocked(id string, sess *captureSession) {
	delete(s.sessions, id)
	sess.mu.Lock()
	sess.closed = true
	sess.latest = nil
	sess.mu.Unlock()
	metrics.OpenCaptures.Dec()
}

// Latest returns a copy of the most recent area of a session.
func (s *CaptureService) Latest(id string) (*domain.DrawnArea, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.latest == nil {
		return nil, domain.ErrNoArea
	}
	return sess.latest.Clone(), nil
}

// HandleEvent processes one draw event. Each event that changes the drawing
// takes the next sequence number; when a later event is issued while the
// country lookup runs, the result is reported as stale and dropped.
func (s *CaptureService) HandleEvent(ctx context.Context, id string, ev domain.DrawEvent) (*domain.CaptureOutcome, error) {
	if !ev.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidEvent, ev.Type)
	}
	if s.geocoder == nil {
		return nil, domain.MapNotConfigured()
	}
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	log := logging.FromContext(ctx).With("capture_id", id, "event", ev.Type)

	polys := geospatial.Polygons(ev.Features)
	if len(polys) == 0 {
		if ev.Type == domain.DrawDelete {
			sess.mu.Lock()
			sess.issued++
			seq := sess.issued
			sess.latest = nil
			sess.mu.Unlock()
			return record(&domain.CaptureOutcome{Kind: domain.OutcomeCleared, Sequence: seq}), nil
		}
		return record(&domain.CaptureOutcome{Kind: domain.OutcomePrompt, Prompt: domain.DrawPrompt}), nil
	}

	area, err := measure(polys)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	sess.issued++
	seq := sess.issued
	sess.mu.Unlock()

	area.Sequence = seq
	area.Country, area.CountryStatus = s.country(ctx, area.Centroid)
	area.CapturedAt = s.now().UTC()

	sess.mu.Lock()
	if sess.closed {
		sess.mu.Unlock()
		log.Debug("capture closed during lookup, dropping result", "sequence", seq)
		return nil, domain.ErrCaptureNotFound
	}
	if seq != sess.issued {
		latest := sess.issued
		sess.mu.Unlock()
		log.Debug("discarding stale capture result", "sequence", seq, "latest", latest)
		return record(&domain.CaptureOutcome{Kind: domain.OutcomeStale, Sequence: seq}), nil
	}
	sess.latest = area
	sess.mu.Unlock()

	if s.publisher != nil {
		if err := s.publisher.PublishAreaCaptured(ctx, id, area.Clone()); err != nil {
			log.Warn("publish captured area failed", "error", err)
		}
	}

	log.Info("area captured",
		"sequence", seq,
		"area_sq_m", area.AreaSquareMeters,
		"country", area.Country,
		"country_status", area.CountryStatus,
	)
	return record(&domain.CaptureOutcome{Kind: domain.OutcomeEmitted, Sequence: seq, Area: area.Clone()}), nil
}

// session looks up a live session and marks it as used. An idle session is
// evicted here even if the janitor has not reached it yet.
func (s *CaptureService) session(id string) (*captureSession, error) {
	now := s.now()
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrCaptureNotFound
	}
	if sess.idle(now, s.idleTTL) {
		s.mu.Lock()
		if s.sessions[id] == sess {
			s.removeLocked(id, sess)
		}
		s.mu.Unlock()
		return nil, domain.ErrCaptureNotFound
	}
	sess.touch(now)
	return sess, nil
}

// country never fails: a lookup error is reported through the status.
func (s *CaptureService) country(ctx context.Context, at domain.GeoPoint) (string, domain.CountryStatus) {
	name, err := s.geocoder.ReverseCountry(ctx, at)
	switch {
	case err != nil:
		logging.FromContext(ctx).Warn("reverse geocoding failed", "lon", at.Lon, "lat", at.Lat, "error", err)
		return domain.UnknownCountry, domain.CountryLookupFailed
	case name == "":
		return domain.UnknownCountry, domain.CountryNotFound
	default:
		return name, domain.CountryDetected
	}
}

// measure computes the geometry of every polygon on the layer. The reported
// coordinates are the outer ring of the first polygon.
func measure(polys []orb.Polygon) (*domain.DrawnArea, error) {
	closed := make([]orb.Polygon, 0, len(polys))
	for _, p := range polys {
		if len(p) == 0 {
			return nil, domain.ErrInvalidPolygon
		}
		cp := make(orb.Polygon, 0, len(p))
		for _, ring := range p {
			r, err := geospatial.CloseRing(ring)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPolygon, err)
			}
			cp = append(cp, r)
		}
		closed = append(closed, cp)
	}

	outer := closed[0][0]
	return &domain.DrawnArea{
		AreaSquareMeters:   geospatial.RoundArea(geospatial.GeodesicArea(closed)),
		PerimeterMeters:    geospatial.RoundArea(geospatial.Perimeter(outer)),
		Centroid:           domain.PointFromOrb(geospatial.CenterOfMass(closed)),
		PolygonCoordinates: domain.RingFromOrb(outer),
	}, nil
}

func record(o *domain.CaptureOutcome) *domain.CaptureOutcome {
	metrics.CaptureOutcomes.WithLabelValues(string(o.Kind)).Inc()
	return o
}

func (c *captureSession) idle(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return now.Sub(c.touched) > ttl
}

func (c *captureSession) touch(now time.Time) {
	c.mu.Lock()
	if now.After(c.touched) {
		c.touched = now
	}
	c.mu.Unlock()
}

func (c *captureSession) snapshot() *domain.Capture {
	c.mu.Lock()
	defer c.mu.Unlock()
	return &domain.Capture{
		ID:       c.id,
		View:     domain.DefaultMapView(),
		Latest:   c.latest.Clone(),
		OpenedAt: c.openedAt,
	}
}
