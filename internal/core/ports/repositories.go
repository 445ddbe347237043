package ports

import (
	"context"

	"github.com/krishisahayak/krishi/internal/core/domain"
)

// LandRegistrationRepository persists the land-registration ledger.
type LandRegistrationRepository interface {
	Insert(ctx context.Context, reg *domain.LandRegistration) error
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.LandRegistration, error)
}

// SessionStore keeps the signed-in session on the client between runs.
// Load returns (nil, nil) when no usable session is stored.
type SessionStore interface {
	Load(ctx context.Context) (*domain.AuthSession, error)
	Save(ctx context.Context, session *domain.AuthSession) error
	Clear(ctx context.Context) error
}
