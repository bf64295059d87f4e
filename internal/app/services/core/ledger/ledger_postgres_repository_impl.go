package ledger

import (
	"context"
	"database/sql"
	"schoolpay-service/internal/app/contracts"
	"schoolpay-service/internal/app/models"
	"schoolpay-service/internal/pkg/exceptions"
	"schoolpay-service/internal/pkg/queries"

	"github.com/goccy/go-json"
)

type ledgerPostgresRepository struct {
	DB *sql.DB
}

func NewLedgerPostgresRepository(db *sql.DB) contracts.LedgerRepository {
	return &ledgerPostgresRepository{
		DB: db,
	}
}

// paymentRow mirrors the payments table. JSONB columns and nullable
// columns scan through intermediaries before landing on the model.
type paymentRow struct {
	payment          models.Payment
	gatewayReference sql.NullString
	authorization    []byte
	metadata         []byte
	verifiedAt       sql.NullTime
}

func (row *paymentRow) fields() []interface{} {
	return []interface{}{
		&row.payment.ID,
		&row.payment.InstitutionID,
		&row.payment.SessionID,
		&row.payment.StudentID,
		&row.payment.Amount,
		&row.payment.Currency,
		&row.payment.Reference,
		&row.gatewayReference,
		&row.payment.Status,
		&row.authorization,
		&row.metadata,
		&row.payment.Recovered,
		&row.verifiedAt,
		&row.payment.CreatedAt,
		&row.payment.UpdatedAt,
	}
}

func (row *paymentRow) toModel() (*models.Payment, error) {
	payment := row.payment
	if row.gatewayReference.Valid {
		payment.GatewayReference = row.gatewayReference.String
	}
	if row.verifiedAt.Valid {
		verifiedAt := row.verifiedAt.Time
		payment.VerifiedAt = &verifiedAt
	}
	if len(row.authorization) > 0 {
		if err := json.Unmarshal(row.authorization, &payment.Authorization); err != nil {
			return nil, err
		}
	}
	if len(row.metadata) > 0 {
		if err := json.Unmarshal(row.metadata, &payment.Metadata); err != nil {
			return nil, err
		}
	}
	return &payment, nil
}

func (repo *ledgerPostgresRepository) FindByReference(ctx context.Context, institutionID, reference string) (*models.Payment, error) {
	query := queries.GetPaymentByReference
	var row paymentRow
	err := repo.DB.QueryRowContext(ctx, query, institutionID, reference).Scan(row.fields()...)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, exceptions.ErrPostgresDBFindData(err)
	}

	payment, err := row.toModel()
	if err != nil {
		return nil, exceptions.ErrPostgresDBFindData(err)
	}
	return payment, nil
}

func (repo *ledgerPostgresRepository) FindSuccessBySession(ctx context.Context, institutionID, studentID, sessionID string) (*models.Payment, error) {
	query := queries.GetSuccessPaymentBySession
	var row paymentRow
	err := repo.DB.QueryRowContext(ctx, query, institutionID, studentID, sessionID).Scan(row.fields()...)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, exceptions.ErrPostgresDBFindData(err)
	}

	payment, err := row.toModel()
	if err != nil {
		return nil, exceptions.ErrPostgresDBFindData(err)
	}
	return payment, nil
}

func (repo *ledgerPostgresRepository) SumSuccessAmount(ctx context.Context, institutionID, studentID, sessionID string) (float64, error) {
	query := queries.SumSuccessAmountBySession
	var total float64
	err := repo.DB.QueryRowContext(ctx, query, institutionID, studentID, sessionID).Scan(&total)
	if err != nil {
		return 0, exceptions.ErrPostgresDBFindData(err)
	}
	return total, nil
}

func (repo *ledgerPostgresRepository) ListBySession(ctx context.Context, institutionID, sessionID string) ([]models.Payment, error) {
	query := queries.ListPaymentsBySession
	rows, err := repo.DB.QueryContext(ctx, query, institutionID, sessionID)
	if err != nil {
		return nil, exceptions.ErrPostgresDBFindData(err)
	}
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		var row paymentRow
		if err := rows.Scan(row.fields()...); err != nil {
			return nil, exceptions.ErrPostgresDBFindData(err)
		}
		payment, err := row.toModel()
		if err != nil {
			return nil, exceptions.ErrPostgresDBFindData(err)
		}
		payments = append(payments, *payment)
	}

	if err := rows.Err(); err != nil {
		return nil, exceptions.ErrPostgresDBIterateDataset(err)
	}

	return payments, nil
}

func (repo *ledgerPostgresRepository) MarkSuccess(ctx context.Context, input *contracts.MarkSuccessInput) (*models.Payment, bool, error) {
	authorization, err := json.Marshal(input.Authorization)
	if err != nil {
		return nil, false, exceptions.ErrCannotMarshalJSON(err)
	}

	query := queries.MarkPaymentSuccess
	var row paymentRow
	err = repo.DB.QueryRowContext(ctx, query,
		input.InstitutionID,
		input.Reference,
		input.GatewayReference,
		authorization,
		input.VerifiedAt,
	).Scan(row.fields()...)
	if err == sql.ErrNoRows {
		// Guard did not match; another path already settled the row.
		return nil, false, nil
	} else if err != nil {
		return nil, false, exceptions.ErrPostgresDBUpdateData(err)
	}

	payment, err := row.toModel()
	if err != nil {
		return nil, false, exceptions.ErrPostgresDBUpdateData(err)
	}
	return payment, true, nil
}

func (repo *ledgerPostgresRepository) InsertRecovered(ctx context.Context, payment *models.Payment) (*models.Payment, bool, error) {
	authorization, err := json.Marshal(payment.Authorization)
	if err != nil {
		return nil, false, exceptions.ErrCannotMarshalJSON(err)
	}
	metadata, err := json.Marshal(payment.Metadata)
	if err != nil {
		return nil, false, exceptions.ErrCannotMarshalJSON(err)
	}

	query := queries.InsertRecoveredPayment
	var row paymentRow
	err = repo.DB.QueryRowContext(ctx, query,
		payment.ID,
		payment.InstitutionID,
		payment.SessionID,
		payment.StudentID,
		payment.Amount,
		payment.Currency,
		payment.Reference,
		payment.GatewayReference,
		authorization,
		metadata,
		payment.VerifiedAt,
	).Scan(row.fields()...)
	if err == sql.ErrNoRows {
		// Conflict on (institution_id, reference); the loser re-reads.
		return nil, false, nil
	} else if err != nil {
		return nil, false, exceptions.ErrPostgresDBInsertData(err)
	}

	inserted, err := row.toModel()
	if err != nil {
		return nil, false, exceptions.ErrPostgresDBInsertData(err)
	}
	return inserted, true, nil
}

func (repo *ledgerPostgresRepository) UpdateStatusGuarded(ctx context.Context, institutionID, reference string, from, to models.PaymentStatus) (*models.Payment, bool, error) {
	query := queries.UpdatePaymentStatusGuarded
	var row paymentRow
	err := repo.DB.QueryRowContext(ctx, query, institutionID, reference, to, from).Scan(row.fields()...)
	if err == sql.ErrNoRows {
		return nil, false, nil
	} else if err != nil {
		return nil, false, exceptions.ErrPostgresDBUpdateData(err)
	}

	payment, err := row.toModel()
	if err != nil {
		return nil, false, exceptions.ErrPostgresDBUpdateData(err)
	}
	return payment, true, nil
}
