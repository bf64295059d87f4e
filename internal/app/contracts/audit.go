package contracts

import (
	"context"
	"schoolpay-service/internal/app/models"
)

// AuditTrailService accepts one entry per reconciliation transition.
// Publishing is best-effort from the caller's point of view: the ledger
// write is the system of record, so a failed append is logged, never
// propagated.
type AuditTrailService interface {
	Append(ctx context.Context, entry *models.AuditEntry) error
}

// AuditTrailRepository is the write-only sink the worker drains into.
type AuditTrailRepository interface {
	InsertEntry(ctx context.Context, entry *models.AuditEntry) error
}
