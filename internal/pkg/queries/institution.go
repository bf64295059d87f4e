package queries

const (
	GetGatewaySettings = `
		SELECT
			institution_id,
			secret_key,
			public_key,
			split_code,
			currency
		FROM institution_gateway_settings
		WHERE institution_id = $1
	`

	GetStudentBilling = `
		SELECT
			s.id,
			s.program_id,
			s.email,
			f.amount,
			f.currency
		FROM students s
		JOIN program_fees f
		  ON f.program_id = s.program_id
		 AND f.session_id = $3
		WHERE s.institution_id = $1
		  AND s.id = $2
	`
)
