package contracts

import (
	"context"
	"schoolpay-service/internal/app/models"
	"schoolpay-service/internal/pkg/dto/requests"
	"schoolpay-service/internal/pkg/dto/responses"
)

// ReconcileInput identifies one charge attempt to bring into agreement
// with the gateway. Actor names the notification path for the audit
// trail. AllowRecovery gates the lazy-insert branch: the webhook path
// disables it because webhook-supplied metadata is not trusted to
// create new financial records.
type ReconcileInput struct {
	InstitutionID string
	Reference     string
	Actor         string
	AllowRecovery bool
}

// ReconcileOutput is returned to every caller. Verified=false with a
// nil error is the structured "not yet verified" result that lets
// clients retry after a gateway failure or an unconfirmed charge.
type ReconcileOutput struct {
	Verified bool
	Message  string
	Payment  *models.Payment
}

type PaymentUsecase interface {
	InitializePayment(ctx context.Context, request *requests.InitializePayment) (*responses.InitializePayment, error)
	Reconcile(ctx context.Context, input *ReconcileInput) (*ReconcileOutput, error)
	CancelPayment(ctx context.Context, institutionID, reference string) (*models.Payment, error)
	ListBySession(ctx context.Context, institutionID, sessionID string) ([]models.Payment, error)
}
