package models

// GatewaySettings are the per-institution payment gateway credentials.
// Read-mostly; cached entries are replaced wholesale, never mutated in
// place, so concurrent readers need no locking.
type GatewaySettings struct {
	InstitutionID string `json:"institution_id"`
	SecretKey     string `json:"secret_key"`
	PublicKey     string `json:"public_key"`
	SplitCode     string `json:"split_code,omitempty"`
	Currency      string `json:"currency"`
}

// StudentBilling is the read-only lookup the initializer needs: the
// student's contact email plus what their program charges for a session.
// Student and fee CRUD live outside this service.
type StudentBilling struct {
	StudentID string  `json:"student_id"`
	ProgramID string  `json:"program_id"`
	Email     string  `json:"email"`
	Owed      float64 `json:"owed"`
	Currency  string  `json:"currency"`
}
