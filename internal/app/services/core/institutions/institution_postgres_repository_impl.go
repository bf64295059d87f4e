package institutions

import (
	"context"
	"database/sql"
	"schoolpay-service/internal/app/contracts"
	"schoolpay-service/internal/app/models"
	"schoolpay-service/internal/pkg/exceptions"
	"schoolpay-service/internal/pkg/queries"
)

type institutionPostgresRepository struct {
	DB *sql.DB
}

func NewInstitutionPostgresRepository(db *sql.DB) contracts.InstitutionRepository {
	return &institutionPostgresRepository{
		DB: db,
	}
}

func (repo *institutionPostgresRepository) GetGatewaySettings(ctx context.Context, institutionID string) (*models.GatewaySettings, error) {
	query := queries.GetGatewaySettings
	var settings models.GatewaySettings
	var splitCode sql.NullString
	err := repo.DB.QueryRowContext(ctx, query, institutionID).Scan(
		&settings.InstitutionID,
		&settings.SecretKey,
		&settings.PublicKey,
		&splitCode,
		&settings.Currency,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, exceptions.ErrPostgresDBFindData(err)
	}
	if splitCode.Valid {
		settings.SplitCode = splitCode.String
	}
	return &settings, nil
}

func (repo *institutionPostgresRepository) GetStudentBilling(ctx context.Context, institutionID, studentID, sessionID string) (*models.StudentBilling, error) {
	query := queries.GetStudentBilling
	var billing models.StudentBilling
	err := repo.DB.QueryRowContext(ctx, query, institutionID, studentID, sessionID).Scan(
		&billing.StudentID,
		&billing.ProgramID,
		&billing.Email,
		&billing.Owed,
		&billing.Currency,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, exceptions.ErrPostgresDBFindData(err)
	}
	return &billing, nil
}
