package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"schoolpay-service/internal/app/contracts"
	"schoolpay-service/internal/app/models"
	"schoolpay-service/internal/pkg/constvars"
	"schoolpay-service/internal/pkg/dto/requests"
	"schoolpay-service/internal/pkg/dto/responses"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testInstitution = "inst-001"
	testSecretKey   = "sk_test_secret"
)

type fakePaymentUsecase struct {
	reconcileInputs []*contracts.ReconcileInput
	reconcileOutput *contracts.ReconcileOutput
	reconcileErr    error
}

func (f *fakePaymentUsecase) InitializePayment(_ context.Context, _ *requests.InitializePayment) (*responses.InitializePayment, error) {
	return nil, nil
}

func (f *fakePaymentUsecase) Reconcile(_ context.Context, input *contracts.ReconcileInput) (*contracts.ReconcileOutput, error) {
	f.reconcileInputs = append(f.reconcileInputs, input)
	if f.reconcileErr != nil {
		return nil, f.reconcileErr
	}
	if f.reconcileOutput != nil {
		return f.reconcileOutput, nil
	}
	return &contracts.ReconcileOutput{Verified: true}, nil
}

func (f *fakePaymentUsecase) CancelPayment(_ context.Context, _, _ string) (*models.Payment, error) {
	return nil, nil
}

func (f *fakePaymentUsecase) ListBySession(_ context.Context, _, _ string) ([]models.Payment, error) {
	return nil, nil
}

type fakeSettingsProvider struct {
	settings map[string]*models.GatewaySettings
}

func (f *fakeSettingsProvider) GetGatewaySettings(_ context.Context, institutionID string) (*models.GatewaySettings, error) {
	return f.settings[institutionID], nil
}

func newWebhookFixture() (*webhookUsecase, *fakePaymentUsecase) {
	payments := &fakePaymentUsecase{}
	provider := &fakeSettingsProvider{
		settings: map[string]*models.GatewaySettings{
			testInstitution: {
				InstitutionID: testInstitution,
				SecretKey:     testSecretKey,
			},
		},
	}
	usecase := &webhookUsecase{
		PaymentUsecase:   payments,
		SettingsProvider: provider,
		Log:              zap.NewNop(),
	}
	return usecase, payments
}

func sign(secretKey string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secretKey))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func chargeSuccessBody(t *testing.T, reference string) []byte {
	t.Helper()
	body, err := json.Marshal(requests.GatewayEventEnvelope{
		Event: constvars.PaystackEventChargeSuccess,
		Data: requests.GatewayEventData{
			Reference: reference,
			Status:    "success",
			Amount:    5000000,
			Currency:  "NGN",
		},
	})
	require.NoError(t, err)
	return body
}

func TestHandleGatewayEvent(t *testing.T) {
	t.Run("valid charge success reaches the reconciler update-only", func(t *testing.T) {
		usecase, payments := newWebhookFixture()
		body := chargeSuccessBody(t, "ref-123")

		err := usecase.HandleGatewayEvent(context.Background(), &contracts.WebhookEventInput{
			InstitutionID: testInstitution,
			Signature:     sign(testSecretKey, body),
			RawBody:       body,
		})
		require.NoError(t, err)

		require.Len(t, payments.reconcileInputs, 1)
		input := payments.reconcileInputs[0]
		assert.Equal(t, "ref-123", input.Reference)
		assert.Equal(t, constvars.ActorWebhook, input.Actor)
		assert.False(t, input.AllowRecovery)
	})

	t.Run("tampered body is rejected before any reconcile", func(t *testing.T) {
		usecase, payments := newWebhookFixture()
		body := chargeSuccessBody(t, "ref-123")
		signature := sign(testSecretKey, body)
		tampered := chargeSuccessBody(t, "ref-456")

		err := usecase.HandleGatewayEvent(context.Background(), &contracts.WebhookEventInput{
			InstitutionID: testInstitution,
			Signature:     signature,
			RawBody:       tampered,
		})
		require.Error(t, err)
		assert.Empty(t, payments.reconcileInputs)
	})

	t.Run("signature from the wrong key is rejected", func(t *testing.T) {
		usecase, payments := newWebhookFixture()
		body := chargeSuccessBody(t, "ref-123")

		err := usecase.HandleGatewayEvent(context.Background(), &contracts.WebhookEventInput{
			InstitutionID: testInstitution,
			Signature:     sign("sk_wrong_key", body),
			RawBody:       body,
		})
		require.Error(t, err)
		assert.Empty(t, payments.reconcileInputs)
	})

	t.Run("missing signature is rejected", func(t *testing.T) {
		usecase, payments := newWebhookFixture()
		body := chargeSuccessBody(t, "ref-123")

		err := usecase.HandleGatewayEvent(context.Background(), &contracts.WebhookEventInput{
			InstitutionID: testInstitution,
			RawBody:       body,
		})
		require.Error(t, err)
		assert.Empty(t, payments.reconcileInputs)
	})

	t.Run("other events are acknowledged and ignored", func(t *testing.T) {
		usecase, payments := newWebhookFixture()
		body, err := json.Marshal(requests.GatewayEventEnvelope{
			Event: "transfer.success",
		})
		require.NoError(t, err)

		err = usecase.HandleGatewayEvent(context.Background(), &contracts.WebhookEventInput{
			InstitutionID: testInstitution,
			Signature:     sign(testSecretKey, body),
			RawBody:       body,
		})
		require.NoError(t, err)
		assert.Empty(t, payments.reconcileInputs)
	})

	t.Run("unknown institution is rejected", func(t *testing.T) {
		usecase, payments := newWebhookFixture()
		body := chargeSuccessBody(t, "ref-123")

		err := usecase.HandleGatewayEvent(context.Background(), &contracts.WebhookEventInput{
			InstitutionID: "inst-unknown",
			Signature:     sign(testSecretKey, body),
			RawBody:       body,
		})
		require.Error(t, err)
		assert.Empty(t, payments.reconcileInputs)
	})
}
