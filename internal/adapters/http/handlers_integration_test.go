//go:build integration
// +build integration

package http_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/paulmach/orb"

	"github.com/krishisahayak/krishi/internal/adapters/http"
	"github.com/krishisahayak/krishi/internal/adapters/postgres"
	"github.com/krishisahayak/krishi/internal/core/domain"
	"github.com/krishisahayak/krishi/internal/core/usecases"
	"github.com/krishisahayak/krishi/internal/pkg/config"
)

// setupTestDB connects to the test database. The schema from migrations/
// must already be applied.
func setupTestDB(t *testing.T) *postgres.DB {
	cfg, err := config.Load("krishi-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	pool, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("ping db: %v", err)
	}

	return &postgres.DB{Pool: pool}
}

// setupTestDeps wires the land ledger to the real database; the backend is mocked.
func setupTestDeps(t *testing.T, db *postgres.DB, be *mockBackend) *http.Dependencies {
	return makeDeps(be, func(d *http.Dependencies) {
		d.Onboarding = usecases.NewOnboardingService(d.Captures, be.factory(), postgres.NewLandRegistrationRepo(db), nil)
		d.DB = db
	})
}

func TestLandRegistration_Integration_RecordedInLedger(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Pool.Close()

	userID := "it-" + uuid.NewString()[:8]
	be := &mockBackend{signinFn: func(string, string) (*domain.AuthResult, error) {
		return &domain.AuthResult{Success: true, Token: "tok-" + userID, User: &domain.User{ID: domain.ID(userID)}}, nil
	}}
	deps := setupTestDeps(t, db, be)
	app := setupApp(deps)
	token := signIn(t, deps)

	id := openCapture(t, app)
	postEvent(t, app, id, drawEvent(domain.DrawCreate, orb.Polygon{square(dehradun, 100)}))

	resp, err := app.Test(authed(jsonRequest(t, "POST", "/v1/captures/"+id+"/land", nil), token), -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	resp, err = app.Test(authed(httptest.NewRequest("GET", "/v1/lands/registrations", nil), token), -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var regs []domain.LandRegistration
	if err := json.NewDecoder(resp.Body).Decode(&regs); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(regs) != 1 {
		t.Fatalf("expected 1 registration, got %d", len(regs))
	}
	reg := regs[0]
	if reg.CaptureID != id || reg.LandID != "17" || reg.CountryStatus != domain.CountryDetected {
		t.Errorf("unexpected registration %+v", reg)
	}
	if len(reg.Polygon) != 5 || reg.Polygon[0] != reg.Polygon[4] {
		t.Errorf("expected closed polygon, got %v", reg.Polygon)
	}
}

func TestLandRegistrationRepo_Integration_NewestFirst(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Pool.Close()

	repo := postgres.NewLandRegistrationRepo(db)
	ctx := context.Background()
	userID := "it-" + uuid.NewString()[:8]
	base := time.Now().UTC().Truncate(time.Second)

	for i := 0; i < 3; i++ {
		reg := &domain.LandRegistration{
			ID:            uuid.NewString(),
			CaptureID:     uuid.NewString(),
			UserID:        userID,
			LandID:        "land-" + string(rune('a'+i)),
			Area:          float64(1000 * (i + 1)),
			Centroid:      domain.GeoPoint{Lon: 78.03, Lat: 30.31},
			Country:       "India",
			CountryStatus: domain.CountryDetected,
			Polygon:       []domain.GeoPoint{{Lon: 78, Lat: 30}, {Lon: 78.1, Lat: 30}, {Lon: 78.1, Lat: 30.1}, {Lon: 78, Lat: 30}},
			RegisteredAt:  base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Insert(ctx, reg); err != nil {
			t.Fatalf("insert: %v", err)
		}
		// Re-inserting the same id is a no-op
		if err := repo.Insert(ctx, reg); err != nil {
			t.Fatalf("re-insert: %v", err)
		}
	}

	regs, err := repo.ListByUser(ctx, userID, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(regs) != 2 {
		t.Fatalf("expected 2 registrations, got %d", len(regs))
	}
	if regs[0].LandID != "land-c" || regs[1].LandID != "land-b" {
		t.Errorf("expected newest first, got %s, %s", regs[0].LandID, regs[1].LandID)
	}
}
