package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"schoolpay-service/internal/app/contracts"
	"schoolpay-service/internal/app/models"
	"schoolpay-service/internal/pkg/dto/requests"
	"schoolpay-service/internal/pkg/dto/responses"
	"schoolpay-service/internal/pkg/exceptions"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePaymentUsecase struct {
	reconcileOutput *contracts.ReconcileOutput
	reconcileErr    error
	reconcileInputs []*contracts.ReconcileInput
}

func (f *fakePaymentUsecase) InitializePayment(_ context.Context, _ *requests.InitializePayment) (*responses.InitializePayment, error) {
	return nil, nil
}

func (f *fakePaymentUsecase) Reconcile(_ context.Context, input *contracts.ReconcileInput) (*contracts.ReconcileOutput, error) {
	f.reconcileInputs = append(f.reconcileInputs, input)
	if f.reconcileErr != nil {
		return nil, f.reconcileErr
	}
	return f.reconcileOutput, nil
}

func (f *fakePaymentUsecase) CancelPayment(_ context.Context, _, _ string) (*models.Payment, error) {
	return nil, nil
}

func (f *fakePaymentUsecase) ListBySession(_ context.Context, _, _ string) ([]models.Payment, error) {
	return nil, nil
}

func verifyRouter(usecase contracts.PaymentUsecase) *chi.Mux {
	controller := &PaymentController{
		Log:            zap.NewNop(),
		PaymentUsecase: usecase,
	}
	router := chi.NewRouter()
	router.Get("/payments/{institutionID}/verify/{reference}", controller.VerifyPayment)
	return router
}

func TestVerifyPaymentGatewayUnavailable(t *testing.T) {
	usecase := &fakePaymentUsecase{
		reconcileErr: exceptions.ErrGatewayTimeout(nil),
	}
	router := verifyRouter(usecase)

	request := httptest.NewRequest(http.MethodGet, "/payments/inst-001/verify/REF-1", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	// A gateway failure is retryable from the client's side; the poll
	// gets a not-verified result instead of a 5xx.
	assert.Equal(t, http.StatusOK, recorder.Code)

	var body responses.ResponseDTO
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.True(t, body.Success)

	require.Len(t, usecase.reconcileInputs, 1)
	assert.True(t, usecase.reconcileInputs[0].AllowRecovery)
}

func TestVerifyPaymentNotFoundStaysAnError(t *testing.T) {
	usecase := &fakePaymentUsecase{
		reconcileErr: exceptions.ErrPaymentNotFound(nil, "REF-1"),
	}
	router := verifyRouter(usecase)

	request := httptest.NewRequest(http.MethodGet, "/payments/inst-001/verify/REF-1", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestVerifyPaymentSettled(t *testing.T) {
	usecase := &fakePaymentUsecase{
		reconcileOutput: &contracts.ReconcileOutput{
			Verified: true,
			Message:  "payment verified successfully",
			Payment:  &models.Payment{Reference: "REF-1", Status: models.PaymentSuccess},
		},
	}
	router := verifyRouter(usecase)

	request := httptest.NewRequest(http.MethodGet, "/payments/inst-001/verify/REF-1", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)

	var body responses.ResponseDTO
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.True(t, body.Success)
}
