package usecases_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/krishisahayak/krishi/internal/core/domain"
	"github.com/krishisahayak/krishi/internal/core/usecases"
)

var dehradun = orb.Point{78.0322, 30.3165}

// square returns an open ring of the given side in meters centred on c.
func square(c orb.Point, side float64) orb.Ring {
	half := side / 2
	dLat := half / orb.EarthRadius * 180 / math.Pi
	dLon := dLat / math.Cos(c[1]*math.Pi/180)
	return orb.Ring{
		{c[0] - dLon, c[1] - dLat},
		{c[0] + dLon, c[1] - dLat},
		{c[0] + dLon, c[1] + dLat},
		{c[0] - dLon, c[1] + dLat},
	}
}

func layer(geoms ...orb.Geometry) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, g := range geoms {
		fc.Append(geojson.NewFeature(g))
	}
	return fc
}

func openCapture(t *testing.T, svc *usecases.CaptureService) string {
	t.Helper()
	c, err := svc.Open(context.Background(), "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return c.ID
}

func TestCaptureService_HundredMeterSquare(t *testing.T) {
	pub := &mockPublisher{}
	svc := usecases.NewCaptureService(&mockGeocoder{}, pub)
	id := openCapture(t, svc)

	out, err := svc.HandleEvent(context.Background(), id, domain.DrawEvent{
		Type:     domain.DrawCreate,
		Features: layer(orb.Polygon{square(dehradun, 100)}),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Kind != domain.OutcomeEmitted || out.Area == nil {
		t.Fatalf("expected emitted outcome, got %+v", out)
	}

	a := out.Area
	if math.Abs(a.AreaSquareMeters-10000) > 50 {
		t.Errorf("expected ~10000 m², got %.2f", a.AreaSquareMeters)
	}
	if a.AreaSquareMeters != math.Round(a.AreaSquareMeters*100)/100 {
		t.Errorf("area not rounded to 2dp: %v", a.AreaSquareMeters)
	}
	if a.Country != "India" || a.CountryStatus != domain.CountryDetected {
		t.Errorf("expected India/detected, got %s/%s", a.Country, a.CountryStatus)
	}
	if math.Abs(a.Centroid.Lon-dehradun[0]) > 1e-6 || math.Abs(a.Centroid.Lat-dehradun[1]) > 1e-6 {
		t.Errorf("centroid %+v not at square centre", a.Centroid)
	}
	if n := len(a.PolygonCoordinates); n != 5 {
		t.Errorf("expected closed ring of 5 points, got %d", n)
	}
	if a.PolygonCoordinates[0] != a.PolygonCoordinates[len(a.PolygonCoordinates)-1] {
		t.Error("ring is not closed")
	}
	if a.Sequence != 1 || out.Sequence != 1 {
		t.Errorf("expected sequence 1, got %d", a.Sequence)
	}
	if len(pub.areas) != 1 {
		t.Errorf("expected 1 published area, got %d", len(pub.areas))
	}

	latest, err := svc.Latest(id)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if diff := cmp.Diff(a, latest); diff != "" {
		t.Errorf("latest differs from emitted (-emitted +latest):\n%s", diff)
	}
}

func TestCaptureService_NoCountryFeatureGivesUnknown(t *testing.T) {
	svc := usecases.NewCaptureService(&mockGeocoder{
		reverseFn: func(context.Context, domain.GeoPoint) (string, error) { return "", nil },
	}, nil)
	id := openCapture(t, svc)

	out, err := svc.HandleEvent(context.Background(), id, domain.DrawEvent{
		Type: domain.DrawCreate, Features: layer(orb.Polygon{square(orb.Point{-140, 0}, 500)}),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Area.Country != domain.UnknownCountry || out.Area.CountryStatus != domain.CountryNotFound {
		t.Errorf("expected Unknown/not_found, got %s/%s", out.Area.Country, out.Area.CountryStatus)
	}
}

func TestCaptureService_GeocodeFailureKeepsGeometry(t *testing.T) {
	ok := usecases.NewCaptureService(&mockGeocoder{}, nil)
	failing := usecases.NewCaptureService(&mockGeocoder{
		reverseFn: func(context.Context, domain.GeoPoint) (string, error) { return "", errors.New("timeout") },
	}, nil)

	ev := domain.DrawEvent{Type: domain.DrawCreate, Features: layer(orb.Polygon{square(dehradun, 250)})}
	want, err := ok.HandleEvent(context.Background(), openCapture(t, ok), ev)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := failing.HandleEvent(context.Background(), openCapture(t, failing), ev)
	if err != nil {
		t.Fatalf("geocode failure must not fail the event: %v", err)
	}

	if got.Area.Country != domain.UnknownCountry || got.Area.CountryStatus != domain.CountryLookupFailed {
		t.Errorf("expected Unknown/lookup_failed, got %s/%s", got.Area.Country, got.Area.CountryStatus)
	}
	if got.Area.AreaSquareMeters != want.Area.AreaSquareMeters ||
		got.Area.Centroid != want.Area.Centroid ||
		!cmp.Equal(got.Area.PolygonCoordinates, want.Area.PolygonCoordinates) {
		t.Error("geometry changed when geocoding failed")
	}
}

func TestCaptureService_EmptyLayer(t *testing.T) {
	pub := &mockPublisher{}
	svc := usecases.NewCaptureService(&mockGeocoder{}, pub)
	id := openCapture(t, svc)
	ctx := context.Background()

	// Zero features on a non-delete event prompts exactly once.
	out, err := svc.HandleEvent(ctx, id, domain.DrawEvent{Type: domain.DrawUpdate, Features: layer()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Kind != domain.OutcomePrompt || out.Prompt != domain.DrawPrompt || out.Area != nil {
		t.Errorf("expected prompt outcome, got %+v", out)
	}

	// Draw, then delete everything: cleared, no prompt, latest discarded.
	if _, err := svc.HandleEvent(ctx, id, domain.DrawEvent{
		Type: domain.DrawCreate, Features: layer(orb.Polygon{square(dehradun, 100)}),
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	out, err = svc.HandleEvent(ctx, id, domain.DrawEvent{Type: domain.DrawDelete})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if out.Kind != domain.OutcomeCleared || out.Prompt != "" {
		t.Errorf("expected cleared outcome without prompt, got %+v", out)
	}
	if _, err := svc.Latest(id); !errors.Is(err, domain.ErrNoArea) {
		t.Errorf("expected ErrNoArea after delete, got %v", err)
	}
	if len(pub.areas) != 1 {
		t.Errorf("expected only the create to be published, got %d", len(pub.areas))
	}
}

func TestCaptureService_DeleteWithRemainingPolygonRecomputes(t *testing.T) {
	svc := usecases.NewCaptureService(&mockGeocoder{}, nil)
	id := openCapture(t, svc)

	out, err := svc.HandleEvent(context.Background(), id, domain.DrawEvent{
		Type: domain.DrawDelete, Features: layer(orb.Polygon{square(dehradun, 100)}),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Kind != domain.OutcomeEmitted {
		t.Errorf("expected emitted, got %s", out.Kind)
	}
}

func TestCaptureService_SumsAllPolygons(t *testing.T) {
	svc := usecases.NewCaptureService(&mockGeocoder{}, nil)
	id := openCapture(t, svc)

	east := orb.Point{dehradun[0] + 0.01, dehradun[1]}
	out, err := svc.HandleEvent(context.Background(), id, domain.DrawEvent{
		Type: domain.DrawCreate,
		Features: layer(
			orb.Polygon{square(dehradun, 100)},
			orb.LineString{{0, 0}, {1, 1}},
			orb.Polygon{square(east, 100)},
		),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(out.Area.AreaSquareMeters-20000) > 100 {
		t.Errorf("expected ~20000 m², got %.2f", out.Area.AreaSquareMeters)
	}
	if out.Area.PolygonCoordinates[0].Lon > dehradun[0] {
		t.Error("coordinates should come from the first polygon")
	}
}

func TestCaptureService_InvalidPolygon(t *testing.T) {
	svc := usecases.NewCaptureService(&mockGeocoder{}, nil)
	id := openCapture(t, svc)

	_, err := svc.HandleEvent(context.Background(), id, domain.DrawEvent{
		Type:     domain.DrawCreate,
		Features: layer(orb.Polygon{{{78, 30}, {78.1, 30}, {78, 30}}}),
	})
	if !errors.Is(err, domain.ErrInvalidPolygon) {
		t.Errorf("expected ErrInvalidPolygon, got %v", err)
	}
}

func TestCaptureService_InvalidEventAndUnknownSession(t *testing.T) {
	svc := usecases.NewCaptureService(&mockGeocoder{}, nil)

	if _, err := svc.HandleEvent(context.Background(), "x", domain.DrawEvent{Type: "draw.move"}); !errors.Is(err, domain.ErrInvalidEvent) {
		t.Errorf("expected ErrInvalidEvent, got %v", err)
	}
	if _, err := svc.HandleEvent(context.Background(), "nope", domain.DrawEvent{Type: domain.DrawCreate}); !errors.Is(err, domain.ErrCaptureNotFound) {
		t.Errorf("expected ErrCaptureNotFound, got %v", err)
	}
	if err := svc.Close("nope"); !errors.Is(err, domain.ErrCaptureNotFound) {
		t.Errorf("expected ErrCaptureNotFound on close, got %v", err)
	}
}

func TestCaptureService_OpenIsIdempotent(t *testing.T) {
	svc := usecases.NewCaptureService(&mockGeocoder{}, nil)
	ctx := context.Background()

	first, err := svc.Open(ctx, "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := svc.HandleEvent(ctx, first.ID, domain.DrawEvent{
		Type: domain.DrawCreate, Features: layer(orb.Polygon{square(dehradun, 100)}),
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	again, err := svc.Open(ctx, first.ID)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if again.ID != first.ID || !again.OpenedAt.Equal(first.OpenedAt) || again.Latest == nil {
		t.Errorf("reopening must return the existing session, got %+v", again)
	}

	if err := svc.Close(first.ID); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := svc.Get(first.ID); !errors.Is(err, domain.ErrCaptureNotFound) {
		t.Errorf("expected closed session to be gone, got %v", err)
	}
}

func TestCaptureService_OpenReplacesMalformedID(t *testing.T) {
	svc := usecases.NewCaptureService(&mockGeocoder{}, nil)
	c, err := svc.Open(context.Background(), "../../etc")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if c.ID == "../../etc" || c.ID == "" {
		t.Errorf("expected generated id, got %q", c.ID)
	}
	if c.View.Zoom != 8.51 || !c.View.Controls.Polygon || c.View.Controls.DefaultMode != "draw_polygon" {
		t.Errorf("unexpected default view %+v", c.View)
	}
}

func TestCaptureService_NotConfigured(t *testing.T) {
	svc := usecases.NewCaptureService(nil, nil)

	var cfgErr *domain.ConfigError
	if _, err := svc.View(); !errors.As(err, &cfgErr) {
		t.Errorf("expected ConfigError from View, got %v", err)
	}
	if _, err := svc.Open(context.Background(), ""); !errors.As(err, &cfgErr) {
		t.Errorf("expected ConfigError from Open, got %v", err)
	}
	if cfgErr.Help == "" {
		t.Error("expected help text")
	}
}

func TestCaptureService_StaleLookupDiscarded(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var calls int32

	pub := &mockPublisher{}
	svc := usecases.NewCaptureService(&mockGeocoder{
		reverseFn: func(ctx context.Context, at domain.GeoPoint) (string, error) {
			if atomic.AddInt32(&calls, 1) == 1 {
				close(entered)
				<-release
				return "Nepal", nil
			}
			return "India", nil
		},
	}, pub)
	id := openCapture(t, svc)
	ctx := context.Background()

	var (
		wg       sync.WaitGroup
		firstOut *domain.CaptureOutcome
		firstErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		firstOut, firstErr = svc.HandleEvent(ctx, id, domain.DrawEvent{
			Type: domain.DrawCreate, Features: layer(orb.Polygon{square(dehradun, 100)}),
		})
	}()

	<-entered
	second, err := svc.HandleEvent(ctx, id, domain.DrawEvent{
		Type: domain.DrawUpdate, Features: layer(orb.Polygon{square(dehradun, 200)}),
	})
	if err != nil {
		t.Fatalf("second event: %v", err)
	}
	close(release)
	wg.Wait()

	if firstErr != nil {
		t.Fatalf("first event: %v", firstErr)
	}
	if firstOut.Kind != domain.OutcomeStale || firstOut.Sequence != 1 || firstOut.Area != nil {
		t.Errorf("expected stale outcome for sequence 1, got %+v", firstOut)
	}
	if second.Kind != domain.OutcomeEmitted || second.Sequence != 2 {
		t.Errorf("expected emitted outcome for sequence 2, got %+v", second)
	}

	latest, err := svc.Latest(id)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.Sequence != 2 || latest.Country != "India" {
		t.Errorf("latest must be the newer area, got seq=%d country=%s", latest.Sequence, latest.Country)
	}
	if len(pub.areas) != 1 {
		t.Errorf("stale result must not be published, got %d publishes", len(pub.areas))
	}
}

func TestCaptureService_PublishFailureIsNotFatal(t *testing.T) {
	pub := &mockPublisher{failFn: func() error { return errors.New("nats down") }}
	svc := usecases.NewCaptureService(&mockGeocoder{}, pub)
	id := openCapture(t, svc)

	out, err := svc.HandleEvent(context.Background(), id, domain.DrawEvent{
		Type: domain.DrawCreate, Features: layer(orb.Polygon{square(dehradun, 100)}),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Kind != domain.OutcomeEmitted {
		t.Errorf("expected emitted, got %s", out.Kind)
	}
}

func TestCaptureService_EmittedAreaIsACopy(t *testing.T) {
	svc := usecases.NewCaptureService(&mockGeocoder{}, nil)
	id := openCapture(t, svc)

	out, err := svc.HandleEvent(context.Background(), id, domain.DrawEvent{
		Type: domain.DrawCreate, Features: layer(orb.Polygon{square(dehradun, 100)}),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out.Area.PolygonCoordinates[0] = domain.GeoPoint{}
	out.Area.Country = "tampered"

	latest, _ := svc.Latest(id)
	if latest.Country != "India" || latest.PolygonCoordinates[0] == (domain.GeoPoint{}) {
		t.Error("mutating the emitted area changed the session state")
	}
}

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestCaptureService_IdleSessionExpires(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
	svc := usecases.NewCaptureService(&mockGeocoder{}, nil,
		usecases.WithIdleTTL(30*time.Minute), usecases.WithClock(clock.Now))
	id := openCapture(t, svc)

	clock.Advance(29 * time.Minute)
	if _, err := svc.Get(id); err != nil {
		t.Fatalf("session should still be live: %v", err)
	}

	// The Get above counts as activity.
	clock.Advance(29 * time.Minute)
	if _, err := svc.Get(id); err != nil {
		t.Fatalf("session should still be live after activity: %v", err)
	}

	clock.Advance(31 * time.Minute)
	if _, err := svc.Get(id); !errors.Is(err, domain.ErrCaptureNotFound) {
		t.Fatalf("expected ErrCaptureNotFound after idle TTL, got %v", err)
	}
	_, err := svc.HandleEvent(context.Background(), id, domain.DrawEvent{
		Type: domain.DrawCreate, Features: layer(orb.Polygon{square(dehradun, 100)}),
	})
	if !errors.Is(err, domain.ErrCaptureNotFound) {
		t.Errorf("expected ErrCaptureNotFound from HandleEvent, got %v", err)
	}
	if n := svc.OpenSessions(); n != 0 {
		t.Errorf("expected expired session to be dropped, %d open", n)
	}

	// Reopening the expired id starts a fresh session.
	c, err := svc.Open(context.Background(), id)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if c.ID != id || c.Latest != nil {
		t.Errorf("expected a fresh session for %s, got %+v", id, c)
	}
}

func TestCaptureService_EvictIdle(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
	svc := usecases.NewCaptureService(&mockGeocoder{}, nil,
		usecases.WithIdleTTL(time.Minute), usecases.WithClock(clock.Now))

	for i := 0; i < 100; i++ {
		openCapture(t, svc)
	}
	clock.Advance(30 * time.Second)
	kept := openCapture(t, svc)
	clock.Advance(45 * time.Second)

	if n := svc.EvictIdle(); n != 100 {
		t.Errorf("expected 100 evictions, got %d", n)
	}
	if n := svc.OpenSessions(); n != 1 {
		t.Errorf("expected 1 open session, got %d", n)
	}
	if _, err := svc.Get(kept); err != nil {
		t.Errorf("recent session must survive: %v", err)
	}
}

func TestCaptureService_ZeroTTLKeepsSessions(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
	svc := usecases.NewCaptureService(&mockGeocoder{}, nil,
		usecases.WithIdleTTL(0), usecases.WithClock(clock.Now))
	id := openCapture(t, svc)

	clock.Advance(365 * 24 * time.Hour)
	if n := svc.EvictIdle(); n != 0 {
		t.Errorf("expected no evictions, got %d", n)
	}
	if _, err := svc.Get(id); err != nil {
		t.Errorf("session must be kept: %v", err)
	}
}

func TestCaptureService_RunJanitor(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
	svc := usecases.NewCaptureService(&mockGeocoder{}, nil,
		usecases.WithIdleTTL(time.Minute), usecases.WithClock(clock.Now))
	openCapture(t, svc)
	clock.Advance(2 * time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.RunJanitor(ctx, time.Millisecond)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for svc.OpenSessions() != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()
	<-done

	if n := svc.OpenSessions(); n != 0 {
		t.Errorf("janitor did not evict the idle session, %d open", n)
	}
}

func TestCaptureService_CloseDuringLookupDropsResult(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})

	pub := &mockPublisher{}
	svc := usecases.NewCaptureService(&mockGeocoder{
		reverseFn: func(ctx context.Context, at domain.GeoPoint) (string, error) {
			close(entered)
			<-release
			return "India", nil
		},
	}, pub)
	id := openCapture(t, svc)

	var (
		wg  sync.WaitGroup
		out *domain.CaptureOutcome
		err error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		out, err = svc.HandleEvent(context.Background(), id, domain.DrawEvent{
			Type: domain.DrawCreate, Features: layer(orb.Polygon{square(dehradun, 100)}),
		})
	}()

	<-entered
	if cerr := svc.Close(id); cerr != nil {
		t.Fatalf("close: %v", cerr)
	}
	close(release)
	wg.Wait()

	if !errors.Is(err, domain.ErrCaptureNotFound) {
		t.Errorf("expected ErrCaptureNotFound, got outcome %+v err %v", out, err)
	}
	pub.mu.Lock()
	published := len(pub.areas)
	pub.mu.Unlock()
	if published != 0 {
		t.Errorf("a closed session must not publish, got %d", published)
	}
	if _, lerr := svc.Latest(id); !errors.Is(lerr, domain.ErrCaptureNotFound) {
		t.Errorf("expected closed session to stay gone, got %v", lerr)
	}
}
