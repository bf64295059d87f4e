package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"schoolpay-service/internal/app/contracts"
	"schoolpay-service/internal/pkg/constvars"
	"schoolpay-service/internal/pkg/dto/requests"
	"schoolpay-service/internal/pkg/exceptions"
	"schoolpay-service/internal/pkg/utils"
	"sync"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

type webhookUsecase struct {
	PaymentUsecase   contracts.PaymentUsecase
	SettingsProvider contracts.GatewaySettingsProvider
	Log              *zap.Logger
}

var (
	webhookUsecaseInstance contracts.WebhookUsecase
	onceWebhookUsecase     sync.Once
)

func NewWebhookUsecase(
	paymentUsecase contracts.PaymentUsecase,
	settingsProvider contracts.GatewaySettingsProvider,
	logger *zap.Logger,
) contracts.WebhookUsecase {
	onceWebhookUsecase.Do(func() {
		instance := &webhookUsecase{
			PaymentUsecase:   paymentUsecase,
			SettingsProvider: settingsProvider,
			Log:              logger,
		}
		webhookUsecaseInstance = instance
	})
	return webhookUsecaseInstance
}

// HandleGatewayEvent authenticates and reconciles one webhook delivery.
// Returned errors are for the caller's logs only; the HTTP layer always
// acknowledges so the gateway does not re-deliver what we will pick up
// on the next client poll anyway.
func (uc *webhookUsecase) HandleGatewayEvent(ctx context.Context, input *contracts.WebhookEventInput) error {
	requestID := utils.RequestIDFromContext(ctx)
	uc.Log.Info("webhookUsecase.HandleGatewayEvent called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingInstitutionIDKey, input.InstitutionID),
	)

	settings, err := uc.SettingsProvider.GetGatewaySettings(ctx, input.InstitutionID)
	if err != nil {
		return err
	}
	if settings == nil {
		return exceptions.ErrGatewayNotConfigured(nil)
	}

	if !validSignature(settings.SecretKey, input.RawBody, input.Signature) {
		return exceptions.ErrWebhookBadSignature(nil)
	}

	var envelope requests.GatewayEventEnvelope
	if err := json.Unmarshal(input.RawBody, &envelope); err != nil {
		return exceptions.ErrCannotParseJSON(err)
	}

	if envelope.Event != constvars.PaystackEventChargeSuccess {
		uc.Log.Info("webhookUsecase.HandleGatewayEvent ignoring event",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingWebhookEventKey, envelope.Event),
		)
		return nil
	}

	// Update-only: webhook metadata never creates ledger rows. The
	// reconciler still re-verifies against the gateway rather than
	// trusting the delivered payload.
	_, err = uc.PaymentUsecase.Reconcile(ctx, &contracts.ReconcileInput{
		InstitutionID: input.InstitutionID,
		Reference:     envelope.Data.Reference,
		Actor:         constvars.ActorWebhook,
		AllowRecovery: false,
	})
	return err
}

// validSignature checks the HMAC-SHA512 hex digest the gateway computes
// over the raw body with the institution's secret key.
func validSignature(secretKey string, body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
