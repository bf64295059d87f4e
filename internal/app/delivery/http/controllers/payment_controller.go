package controllers

import (
	"context"
	"net/http"
	"schoolpay-service/internal/app/contracts"
	"schoolpay-service/internal/pkg/constvars"
	"schoolpay-service/internal/pkg/dto/requests"
	"schoolpay-service/internal/pkg/dto/responses"
	"schoolpay-service/internal/pkg/exceptions"
	"schoolpay-service/internal/pkg/utils"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

type PaymentController struct {
	Log            *zap.Logger
	PaymentUsecase contracts.PaymentUsecase
}

var (
	paymentControllerInstance *PaymentController
	oncePaymentController     sync.Once
)

func NewPaymentController(logger *zap.Logger, paymentUsecase contracts.PaymentUsecase) *PaymentController {
	oncePaymentController.Do(func() {
		instance := &PaymentController{
			Log:            logger,
			PaymentUsecase: paymentUsecase,
		}
		paymentControllerInstance = instance
	})
	return paymentControllerInstance
}

// InitializePayment handles POST /payments/initialize.
func (ctrl *PaymentController) InitializePayment(w http.ResponseWriter, r *http.Request) {
	request := new(requests.InitializePayment)
	if err := json.NewDecoder(r.Body).Decode(request); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrCannotParseJSON(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	response, err := ctrl.PaymentUsecase.InitializePayment(ctx, request)
	if err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	utils.BuildSuccessResponse(w, constvars.StatusCreated, constvars.PaymentInitializedSuccess, response)
}

// VerifyPayment handles GET /payments/{institutionID}/verify/{reference}.
// This is the client poll path; recovery is allowed because the caller
// proves nothing beyond knowing the reference, and the gateway metadata
// is what actually identifies the charge.
func (ctrl *PaymentController) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	institutionID := chi.URLParam(r, "institutionID")
	reference := chi.URLParam(r, "reference")
	if institutionID == "" || reference == "" {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrURLParamValidation(nil, "reference"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	output, err := ctrl.PaymentUsecase.Reconcile(ctx, &contracts.ReconcileInput{
		InstitutionID: institutionID,
		Reference:     reference,
		Actor:         utils.ActorFromContext(ctx),
		AllowRecovery: true,
	})
	if err != nil {
		// An unreachable or misbehaving gateway is not terminal for the
		// polling client; it gets a not-verified result and polls again.
		if exceptions.IsGatewayError(err) {
			ctrl.Log.Warn("PaymentController.VerifyPayment gateway unavailable",
				zap.String(constvars.LoggingRequestIDKey, utils.RequestIDFromContext(ctx)),
				zap.String(constvars.LoggingReferenceKey, reference),
				zap.Error(err),
			)
			utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.PaymentNotYetVerified, &responses.VerifyPayment{
				Verified: false,
				Message:  constvars.PaymentNotYetVerified,
			})
			return
		}
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	utils.BuildSuccessResponse(w, constvars.StatusOK, output.Message, &responses.VerifyPayment{
		Verified: output.Verified,
		Message:  output.Message,
		Payment:  output.Payment,
	})
}

// ReverifyPayment handles POST /payments/{institutionID}/re-verify/{reference}
// behind admin auth. Same reconcile path; the actor differs for audit.
func (ctrl *PaymentController) ReverifyPayment(w http.ResponseWriter, r *http.Request) {
	institutionID := chi.URLParam(r, "institutionID")
	reference := chi.URLParam(r, "reference")
	if institutionID == "" || reference == "" {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrURLParamValidation(nil, "reference"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	output, err := ctrl.PaymentUsecase.Reconcile(ctx, &contracts.ReconcileInput{
		InstitutionID: institutionID,
		Reference:     reference,
		Actor:         constvars.ActorAdmin,
		AllowRecovery: true,
	})
	if err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	utils.BuildSuccessResponse(w, constvars.StatusOK, output.Message, &responses.VerifyPayment{
		Verified: output.Verified,
		Message:  output.Message,
		Payment:  output.Payment,
	})
}

// CancelPayment handles POST /payments/{institutionID}/cancel/{reference}.
func (ctrl *PaymentController) CancelPayment(w http.ResponseWriter, r *http.Request) {
	institutionID := chi.URLParam(r, "institutionID")
	reference := chi.URLParam(r, "reference")
	if institutionID == "" || reference == "" {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrURLParamValidation(nil, "reference"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	payment, err := ctrl.PaymentUsecase.CancelPayment(ctx, institutionID, reference)
	if err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.PaymentCancelledSuccess, payment)
}

// ListBySession handles GET /payments/{institutionID}/sessions/{sessionID}
// behind admin auth.
func (ctrl *PaymentController) ListBySession(w http.ResponseWriter, r *http.Request) {
	institutionID := chi.URLParam(r, "institutionID")
	sessionID := chi.URLParam(r, "sessionID")
	if institutionID == "" || sessionID == "" {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrURLParamValidation(nil, "sessionID"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	payments, err := ctrl.PaymentUsecase.ListBySession(ctx, institutionID, sessionID)
	if err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.PaymentListSuccess, payments)
}
