package controllers

import (
	"context"
	"io"
	"net/http"
	"schoolpay-service/internal/app/contracts"
	"schoolpay-service/internal/pkg/constvars"
	"schoolpay-service/internal/pkg/utils"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type WebhookController struct {
	Log            *zap.Logger
	WebhookUsecase contracts.WebhookUsecase
}

var (
	webhookControllerInstance *WebhookController
	onceWebhookController     sync.Once
)

func NewWebhookController(logger *zap.Logger, webhookUsecase contracts.WebhookUsecase) *WebhookController {
	onceWebhookController.Do(func() {
		instance := &WebhookController{
			Log:            logger,
			WebhookUsecase: webhookUsecase,
		}
		webhookControllerInstance = instance
	})
	return webhookControllerInstance
}

// HandleGatewayEvent handles POST /webhooks/paystack/{institutionID}.
// The gateway only wants an acknowledgement; every outcome, including a
// bad signature, answers 200 so delivery retries stop. Failures are
// logged and the client poll path converges the ledger regardless.
func (ctrl *WebhookController) HandleGatewayEvent(w http.ResponseWriter, r *http.Request) {
	requestID := utils.RequestIDFromContext(r.Context())
	institutionID := chi.URLParam(r, "institutionID")

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		ctrl.Log.Error("webhookController failed reading body",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.WebhookAcknowledged, nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	err = ctrl.WebhookUsecase.HandleGatewayEvent(ctx, &contracts.WebhookEventInput{
		InstitutionID: institutionID,
		Signature:     r.Header.Get(constvars.PaystackSignatureHeader),
		RawBody:       body,
	})
	if err != nil {
		ctrl.Log.Error("webhookController event processing failed",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingInstitutionIDKey, institutionID),
			zap.Error(err),
		)
	}

	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.WebhookAcknowledged, nil)
}
