package queries

const paymentColumns = `
		id,
		institution_id,
		session_id,
		student_id,
		amount,
		currency,
		reference,
		gateway_reference,
		status,
		authorization_data,
		metadata,
		recovered,
		verified_at,
		created_at,
		updated_at
`

const (
	GetPaymentByReference = `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE institution_id = $1
		  AND (reference = $2 OR gateway_reference = $2)
	`

	GetSuccessPaymentBySession = `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE institution_id = $1
		  AND student_id = $2
		  AND session_id = $3
		  AND status = 'success'
		LIMIT 1
	`

	SumSuccessAmountBySession = `
		SELECT COALESCE(SUM(amount), 0)
		FROM payments
		WHERE institution_id = $1
		  AND student_id = $2
		  AND session_id = $3
		  AND status = 'success'
	`

	ListPaymentsBySession = `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE institution_id = $1
		  AND session_id = $2
		ORDER BY created_at DESC
	`

	// MarkPaymentSuccess is the race-safe settle. The status guard makes
	// the first successful writer win; a loser matches zero rows and must
	// re-read the settled row.
	MarkPaymentSuccess = `
		UPDATE payments
		SET
			status = 'success',
			gateway_reference = $3,
			authorization_data = $4,
			verified_at = $5,
			updated_at = NOW()
		WHERE institution_id = $1
		  AND reference = $2
		  AND status <> 'success'
		RETURNING ` + paymentColumns + `
	`

	// InsertRecoveredPayment creates a row directly in success state for
	// a gateway-confirmed charge with no local row. The unique constraint
	// on (institution_id, reference) plus DO NOTHING makes a concurrent
	// duplicate insert a no-op for the loser.
	InsertRecoveredPayment = `
		INSERT INTO payments (
			id,
			institution_id,
			session_id,
			student_id,
			amount,
			currency,
			reference,
			gateway_reference,
			status,
			authorization_data,
			metadata,
			recovered,
			verified_at,
			created_at,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'success', $9, $10, TRUE, $11, NOW(), NOW())
		ON CONFLICT (institution_id, reference) DO NOTHING
		RETURNING ` + paymentColumns + `
	`

	// UpdatePaymentStatusGuarded performs a guarded transition (e.g.
	// pending -> failed, pending -> cancelled). Zero rows affected means
	// the row was not in the expected prior state.
	UpdatePaymentStatusGuarded = `
		UPDATE payments
		SET
			status = $3,
			updated_at = NOW()
		WHERE institution_id = $1
		  AND reference = $2
		  AND status = $4
		RETURNING ` + paymentColumns + `
	`
)
