package contracts

import (
	"context"
)

type WebhookEventInput struct {
	InstitutionID string
	Signature     string
	RawBody       []byte
}

// WebhookUsecase verifies the gateway signature and forwards confirmed
// charge events into the reconciler's update-only path. Errors are for
// internal logging only; the HTTP layer acknowledges regardless.
type WebhookUsecase interface {
	HandleGatewayEvent(ctx context.Context, input *WebhookEventInput) error
}
