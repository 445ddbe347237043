package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/krishisahayak/krishi/internal/core/domain"
	"github.com/krishisahayak/krishi/internal/core/ports"
	"github.com/krishisahayak/krishi/internal/pkg/logging"
	"github.com/krishisahayak/krishi/internal/pkg/metrics"
)

// OnboardingService registers captured parcels as the farmer's land.
type OnboardingService struct {
	captures      *CaptureService
	backend       ports.BackendFactory
	registrations ports.LandRegistrationRepository
	publisher     ports.EventPublisher
	now           func() time.Time
}

// NewOnboardingService creates an OnboardingService. The registration ledger
// and the publisher are optional.
func NewOnboardingService(
	captures *CaptureService,
	backend ports.BackendFactory,
	registrations ports.LandRegistrationRepository,
	publisher ports.EventPublisher,
) *OnboardingService {
	return &OnboardingService{
		captures:      captures,
		backend:       backend,
		registrations: registrations,
		publisher:     publisher,
		now:           time.Now,
	}
}

// Register submits the latest area of a capture session as the user's land.
func (s *OnboardingService) Register(ctx context.Context, sess *domain.AuthSession, captureID string) (*domain.LandRegistration, error) {
	area, err := s.captures.Latest(captureID)
	if err != nil {
		return nil, err
	}
	return s.RegisterArea(ctx, sess, captureID, area)
}

// RegisterArea submits an already measured area.
func (s *OnboardingService) RegisterArea(ctx context.Context, sess *domain.AuthSession, captureID string, area *domain.DrawnArea) (*domain.LandRegistration, error) {
	log := logging.FromContext(ctx)

	res, err := s.backend(sess).AddLand(ctx, domain.NewLandRequest(sess.UserID(), area))
	if err != nil {
		return nil, fmt.Errorf("add land: %w", err)
	}
	if !res.Success {
		return nil, fmt.Errorf("add land: %w: %s", domain.ErrRejected, res.Message)
	}

	reg := &domain.LandRegistration{
		ID:            uuid.NewString(),
		CaptureID:     captureID,
		UserID:        sess.UserID(),
		Area:          area.AreaSquareMeters,
		Centroid:      area.Centroid,
		Country:       area.Country,
		CountryStatus: area.CountryStatus,
		Polygon:       append([]domain.GeoPoint(nil), area.PolygonCoordinates...),
		RegisteredAt:  s.now().UTC(),
	}
	if res.Land != nil {
		reg.LandID = res.Land.ID.String()
		reg.PolygonID = res.Land.PolygonID
	}
	metrics.LandRegistrations.Inc()

	// The land exists upstream from here on; ledger and event failures are
	// logged, not returned.
	if s.registrations != nil {
		if err := s.registrations.Insert(ctx, reg); err != nil {
			log.Error("record land registration failed", "registration_id", reg.ID, "error", err)
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishLandRegistered(ctx, &domain.LandRegistered{Registration: *reg, Token: sess.Token}); err != nil {
			log.Warn("publish land registration failed", "registration_id", reg.ID, "error", err)
		}
	}

	log.Info("land registered", "registration_id", reg.ID, "land_id", reg.LandID, "area_sq_m", reg.Area)
	return reg, nil
}

// Lands returns the user's registered lands as known to the backend.
func (s *OnboardingService) Lands(ctx context.Context, sess *domain.AuthSession) ([]domain.Land, error) {
	res, err := s.backend(sess).GetLand(ctx, sess.UserID())
	if err != nil {
		return nil, fmt.Errorf("get land: %w", err)
	}
	if !res.Success {
		return nil, fmt.Errorf("get land: %w: %s", domain.ErrRejected, res.Message)
	}
	return res.All(), nil
}

// SatelliteData returns imagery for a registered polygon.
func (s *OnboardingService) SatelliteData(ctx context.Context, sess *domain.AuthSession, polygonID string) (*domain.SatelliteResult, error) {
	if polygonID == "" {
		return nil, &domain.ValidationError{Fields: map[string]string{"polygonId": "Polygon id is required"}}
	}
	res, err := s.backend(sess).GetSatelliteData(ctx, polygonID)
	if err != nil {
		return nil, fmt.Errorf("satellite data: %w", err)
	}
	return res, nil
}

// History lists the registrations recorded by this gateway, newest first.
func (s *OnboardingService) History(ctx context.Context, sess *domain.AuthSession, limit int) ([]domain.LandRegistration, error) {
	if s.registrations == nil {
		return nil, nil
	}
	return s.registrations.ListByUser(ctx, sess.UserID(), limit)
}
