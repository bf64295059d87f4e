package requests

import (
	"schoolpay-service/internal/app/models"
)

// GatewayEventEnvelope is the gateway's webhook payload. Only the
// fields the ingest path needs are decoded; the raw body is what the
// signature covers.
type GatewayEventEnvelope struct {
	Event string           `json:"event"`
	Data  GatewayEventData `json:"data"`
}

type GatewayEventData struct {
	ID        int64                  `json:"id"`
	Reference string                 `json:"reference"`
	Status    string                 `json:"status"`
	Amount    int64                  `json:"amount"`
	Currency  string                 `json:"currency"`
	Metadata  models.PaymentMetadata `json:"metadata"`
}
