package contracts

import (
	"context"
	"schoolpay-service/internal/app/models"
)

// InstitutionRepository is the read-only window into institution data
// owned elsewhere: gateway credentials and student billing lookups.
type InstitutionRepository interface {
	GetGatewaySettings(ctx context.Context, institutionID string) (*models.GatewaySettings, error)
	GetStudentBilling(ctx context.Context, institutionID, studentID, sessionID string) (*models.StudentBilling, error)
}

// GatewaySettingsProvider is what payment flows consume; the cached
// implementation sits in front of InstitutionRepository.
type GatewaySettingsProvider interface {
	GetGatewaySettings(ctx context.Context, institutionID string) (*models.GatewaySettings, error)
}
