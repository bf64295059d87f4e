package contracts

import (
	"context"
	"schoolpay-service/internal/app/models"
	"time"
)

type MarkSuccessInput struct {
	InstitutionID    string
	Reference        string
	GatewayReference string
	Authorization    models.Authorization
	VerifiedAt       time.Time
}

// LedgerRepository exposes the atomic reads and conditional writes the
// reconciler depends on. Every write is a single statement; the
// reconciler never holds a lock across the gateway round-trip.
//
// Conditional writes return applied=false when the guard did not match
// (the race was lost or the prior state was wrong); callers re-read and
// converge on the settled row.
type LedgerRepository interface {
	FindByReference(ctx context.Context, institutionID, reference string) (*models.Payment, error)
	FindSuccessBySession(ctx context.Context, institutionID, studentID, sessionID string) (*models.Payment, error)
	SumSuccessAmount(ctx context.Context, institutionID, studentID, sessionID string) (float64, error)
	ListBySession(ctx context.Context, institutionID, sessionID string) ([]models.Payment, error)
	MarkSuccess(ctx context.Context, input *MarkSuccessInput) (payment *models.Payment, applied bool, err error)
	InsertRecovered(ctx context.Context, payment *models.Payment) (inserted *models.Payment, applied bool, err error)
	UpdateStatusGuarded(ctx context.Context, institutionID, reference string, from, to models.PaymentStatus) (payment *models.Payment, applied bool, err error)
}
