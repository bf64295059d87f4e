package models

import (
	"time"
)

// AuditEntry records one reconciliation transition. Entries are
// append-only; the sink never mutates them.
type AuditEntry struct {
	ID               string        `json:"id" bson:"_id"`
	InstitutionID    string        `json:"institution_id" bson:"institution_id"`
	Reference        string        `json:"reference" bson:"reference"`
	PreviousStatus   PaymentStatus `json:"previous_status" bson:"previous_status"`
	NewStatus        PaymentStatus `json:"new_status" bson:"new_status"`
	Actor            string        `json:"actor" bson:"actor"`
	GatewayReference string        `json:"gateway_reference,omitempty" bson:"gateway_reference,omitempty"`
	Timestamp        time.Time     `json:"timestamp" bson:"timestamp"`
}
