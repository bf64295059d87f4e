package models

import (
	"time"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentSuccess   PaymentStatus = "success"
	PaymentFailed    PaymentStatus = "failed"
	PaymentCancelled PaymentStatus = "cancelled"
)

// Authorization carries the opaque, provider-specific charge details
// bound to a confirmed payment. Stored as-is; never interpreted.
type Authorization struct {
	Channel           string `json:"channel,omitempty"`
	CardType          string `json:"card_type,omitempty"`
	Last4             string `json:"last4,omitempty"`
	Bank              string `json:"bank,omitempty"`
	AuthorizationCode string `json:"authorization_code,omitempty"`
}

// PaymentMetadata is the structured context supplied at initialization
// and echoed back by the gateway. It is the only source of identity for
// the recovery path, when a confirmed charge has no local row.
type PaymentMetadata struct {
	InstitutionID string `json:"institution_id,omitempty"`
	StudentID     string `json:"student_id,omitempty"`
	SessionID     string `json:"session_id,omitempty"`
	ProgramID     string `json:"program_id,omitempty"`
}

// Payment is one ledger row per attempted charge. Reference is the
// idempotency key, unique per institution. Amount is held in major
// currency units; the gateway boundary speaks minor units.
type Payment struct {
	ID               string          `json:"id"`
	InstitutionID    string          `json:"institution_id"`
	SessionID        string          `json:"session_id"`
	StudentID        string          `json:"student_id"`
	Amount           float64         `json:"amount"`
	Currency         string          `json:"currency"`
	Reference        string          `json:"reference"`
	GatewayReference string          `json:"gateway_reference,omitempty"`
	Status           PaymentStatus   `json:"status"`
	Authorization    Authorization   `json:"authorization,omitempty"`
	Metadata         PaymentMetadata `json:"metadata,omitempty"`
	Recovered        bool            `json:"recovered"`
	VerifiedAt       *time.Time      `json:"verified_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}
