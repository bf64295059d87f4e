package contracts

import (
	"context"
	"schoolpay-service/internal/app/models"
	"schoolpay-service/internal/pkg/constvars"
)

type GatewayInitializeInput struct {
	Email       string
	AmountMinor int64
	Reference   string
	Currency    string
	SplitCode   string
	Metadata    models.PaymentMetadata
}

type GatewayInitializeOutput struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

type GatewayVerifyOutput struct {
	Status           constvars.PaystackTransactionStatus
	AmountMinor      int64
	Currency         string
	Channel          string
	Authorization    models.Authorization
	Metadata         models.PaymentMetadata
	GatewayReference string
	GatewayResponse  string
}

// PaymentGatewayService wraps the provider's REST API. Implementations
// never retry: Verify is read-only and safe to repeat, but the caller's
// follow-up write is not, so retry policy belongs to the caller.
type PaymentGatewayService interface {
	Initialize(ctx context.Context, secretKey string, input *GatewayInitializeInput) (*GatewayInitializeOutput, error)
	Verify(ctx context.Context, secretKey, reference string) (*GatewayVerifyOutput, error)
}
