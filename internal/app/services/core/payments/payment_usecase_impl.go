package payments

import (
	"context"
	"math"
	"schoolpay-service/internal/app/config"
	"schoolpay-service/internal/app/contracts"
	"schoolpay-service/internal/app/models"
	"schoolpay-service/internal/pkg/constvars"
	"schoolpay-service/internal/pkg/dto/requests"
	"schoolpay-service/internal/pkg/dto/responses"
	"schoolpay-service/internal/pkg/exceptions"
	"schoolpay-service/internal/pkg/utils"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type paymentUsecase struct {
	LedgerRepository      contracts.LedgerRepository
	InstitutionRepository contracts.InstitutionRepository
	SettingsProvider      contracts.GatewaySettingsProvider
	GatewayService        contracts.PaymentGatewayService
	AuditTrail            contracts.AuditTrailService
	InternalConfig        *config.InternalConfig
	Log                   *zap.Logger
}

var (
	paymentUsecaseInstance contracts.PaymentUsecase
	oncePaymentUsecase     sync.Once
)

func NewPaymentUsecase(
	ledgerRepository contracts.LedgerRepository,
	institutionRepository contracts.InstitutionRepository,
	settingsProvider contracts.GatewaySettingsProvider,
	gatewayService contracts.PaymentGatewayService,
	auditTrail contracts.AuditTrailService,
	internalConfig *config.InternalConfig,
	logger *zap.Logger,
) contracts.PaymentUsecase {
	oncePaymentUsecase.Do(func() {
		instance := &paymentUsecase{
			LedgerRepository:      ledgerRepository,
			InstitutionRepository: institutionRepository,
			SettingsProvider:      settingsProvider,
			GatewayService:        gatewayService,
			AuditTrail:            auditTrail,
			InternalConfig:        internalConfig,
			Log:                   logger,
		}
		paymentUsecaseInstance = instance
	})
	return paymentUsecaseInstance
}

func (uc *paymentUsecase) InitializePayment(ctx context.Context, request *requests.InitializePayment) (*responses.InitializePayment, error) {
	requestID := utils.RequestIDFromContext(ctx)
	uc.Log.Info("paymentUsecase.InitializePayment called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingInstitutionIDKey, request.InstitutionID),
		zap.String(constvars.LoggingStudentIDKey, request.StudentID),
		zap.String(constvars.LoggingSessionIDKey, request.SessionID),
	)

	if err := utils.ValidateStruct(request); err != nil {
		return nil, exceptions.ErrInputValidation(err)
	}

	settings, err := uc.SettingsProvider.GetGatewaySettings(ctx, request.InstitutionID)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return nil, exceptions.ErrGatewayNotConfigured(nil)
	}

	billing, err := uc.InstitutionRepository.GetStudentBilling(ctx, request.InstitutionID, request.StudentID, request.SessionID)
	if err != nil {
		return nil, err
	}
	if billing == nil {
		return nil, exceptions.ErrStudentBillingNotFound(nil)
	}

	paid, err := uc.LedgerRepository.SumSuccessAmount(ctx, request.InstitutionID, request.StudentID, request.SessionID)
	if err != nil {
		return nil, err
	}
	outstanding := billing.Owed - paid
	if outstanding <= 0 {
		return nil, exceptions.ErrAlreadyFullyPaid(nil)
	}

	reference, err := utils.GeneratePaymentReference(request.InstitutionID)
	if err != nil {
		return nil, err
	}

	currency := billing.Currency
	if currency == "" {
		currency = settings.Currency
	}
	metadata := models.PaymentMetadata{
		InstitutionID: request.InstitutionID,
		StudentID:     request.StudentID,
		SessionID:     request.SessionID,
		ProgramID:     billing.ProgramID,
	}

	gatewayOutput, err := uc.GatewayService.Initialize(ctx, settings.SecretKey, &contracts.GatewayInitializeInput{
		Email:       billing.Email,
		AmountMinor: int64(math.Round(outstanding * constvars.MinorUnitsPerMajor)),
		Reference:   reference,
		Currency:    currency,
		SplitCode:   settings.SplitCode,
		Metadata:    metadata,
	})
	if err != nil {
		uc.Log.Error("paymentUsecase.InitializePayment gateway initialize failed",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingReferenceKey, reference),
			zap.Error(err),
		)
		return nil, err
	}

	// No ledger write here: an abandoned checkout must not leave an
	// orphaned pending row behind. The first reconcile that confirms the
	// charge materializes the row.
	uc.Log.Info("paymentUsecase.InitializePayment gateway accepted charge",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingReferenceKey, reference),
		zap.Float64(constvars.LoggingAmountKey, outstanding),
	)

	return &responses.InitializePayment{
		AuthorizationURL: gatewayOutput.AuthorizationURL,
		AccessCode:       gatewayOutput.AccessCode,
		Reference:        reference,
		Amount:           outstanding,
		Currency:         currency,
	}, nil
}

// Reconcile brings one charge attempt into agreement with the gateway.
// All three notification paths converge here; the conditional writes in
// the ledger make the outcome identical no matter how many callers race.
func (uc *paymentUsecase) Reconcile(ctx context.Context, input *contracts.ReconcileInput) (*contracts.ReconcileOutput, error) {
	requestID := utils.RequestIDFromContext(ctx)
	uc.Log.Info("paymentUsecase.Reconcile called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingInstitutionIDKey, input.InstitutionID),
		zap.String(constvars.LoggingReferenceKey, input.Reference),
		zap.String(constvars.LoggingActorKey, input.Actor),
	)

	payment, err := uc.LedgerRepository.FindByReference(ctx, input.InstitutionID, input.Reference)
	if err != nil {
		return nil, err
	}

	// Settled rows short-circuit before any gateway traffic. The audit
	// trail still records the attempt.
	if payment != nil && payment.Status == models.PaymentSuccess {
		uc.appendAudit(ctx, &models.AuditEntry{
			InstitutionID:    input.InstitutionID,
			Reference:        payment.Reference,
			PreviousStatus:   models.PaymentSuccess,
			NewStatus:        models.PaymentSuccess,
			Actor:            input.Actor,
			GatewayReference: payment.GatewayReference,
			Timestamp:        time.Now().UTC(),
		})
		return &contracts.ReconcileOutput{
			Verified: true,
			Message:  constvars.PaymentVerifiedSuccess,
			Payment:  payment,
		}, nil
	}
	if payment == nil && !input.AllowRecovery {
		return nil, exceptions.ErrPaymentNotFound(nil, input.Reference)
	}

	settings, err := uc.SettingsProvider.GetGatewaySettings(ctx, input.InstitutionID)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return nil, exceptions.ErrGatewayNotConfigured(nil)
	}

	verification, err := uc.GatewayService.Verify(ctx, settings.SecretKey, input.Reference)
	if err != nil {
		// The local row is untouched; the caller retries and the next
		// reconcile picks up from the same state.
		uc.Log.Error("paymentUsecase.Reconcile gateway verify failed",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingReferenceKey, input.Reference),
			zap.Error(err),
		)
		return nil, err
	}

	uc.Log.Info("paymentUsecase.Reconcile gateway verification received",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingReferenceKey, input.Reference),
		zap.String(constvars.LoggingGatewayStatusKey, string(verification.Status)),
		zap.Int64(constvars.LoggingAmountKey, verification.AmountMinor),
	)

	switch verification.Status {
	case constvars.PaystackStatusSuccess:
		return uc.reconcileSuccess(ctx, input, payment, verification)
	case constvars.PaystackStatusFailed, constvars.PaystackStatusReversed:
		return uc.reconcileFailure(ctx, input, payment)
	default:
		// Pending or abandoned charges stay local-pending; the client
		// polls again.
		return &contracts.ReconcileOutput{
			Verified: false,
			Message:  constvars.PaymentNotYetVerified,
			Payment:  payment,
		}, nil
	}
}

func (uc *paymentUsecase) reconcileSuccess(
	ctx context.Context,
	input *contracts.ReconcileInput,
	payment *models.Payment,
	verification *contracts.GatewayVerifyOutput,
) (*contracts.ReconcileOutput, error) {
	requestID := utils.RequestIDFromContext(ctx)
	reportedAmount := float64(verification.AmountMinor) / constvars.MinorUnitsPerMajor
	now := time.Now().UTC()

	if payment == nil {
		return uc.recoverPayment(ctx, input, verification, reportedAmount, now)
	}

	// Rounded to minor-unit precision so float noise on the division
	// cannot tip an exact-tolerance difference over the line.
	difference := math.Round(math.Abs(reportedAmount-payment.Amount)*constvars.MinorUnitsPerMajor) / constvars.MinorUnitsPerMajor
	if difference > constvars.AmountTolerance {
		uc.Log.Error("paymentUsecase.Reconcile amount mismatch",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingReferenceKey, input.Reference),
			zap.Float64("expected_amount", payment.Amount),
			zap.Float64("reported_amount", reportedAmount),
		)
		return nil, exceptions.ErrAmountMismatch(nil, payment.Amount, reportedAmount)
	}

	settled, applied, err := uc.LedgerRepository.MarkSuccess(ctx, &contracts.MarkSuccessInput{
		InstitutionID:    input.InstitutionID,
		Reference:        payment.Reference,
		GatewayReference: verification.GatewayReference,
		Authorization:    verification.Authorization,
		VerifiedAt:       now,
	})
	if err != nil {
		return nil, err
	}
	if !applied {
		// Lost the race; whoever won has already settled the row.
		return uc.settledOutput(ctx, input)
	}

	uc.appendAudit(ctx, &models.AuditEntry{
		InstitutionID:    input.InstitutionID,
		Reference:        settled.Reference,
		PreviousStatus:   payment.Status,
		NewStatus:        models.PaymentSuccess,
		Actor:            input.Actor,
		GatewayReference: verification.GatewayReference,
		Timestamp:        now,
	})

	return &contracts.ReconcileOutput{
		Verified: true,
		Message:  constvars.PaymentVerifiedSuccess,
		Payment:  settled,
	}, nil
}

// recoverPayment lazily inserts a ledger row for a gateway-confirmed
// charge that has none, identified solely by the metadata echoed back.
func (uc *paymentUsecase) recoverPayment(
	ctx context.Context,
	input *contracts.ReconcileInput,
	verification *contracts.GatewayVerifyOutput,
	reportedAmount float64,
	now time.Time,
) (*contracts.ReconcileOutput, error) {
	requestID := utils.RequestIDFromContext(ctx)
	metadata := verification.Metadata

	if metadata.InstitutionID != "" && metadata.InstitutionID != input.InstitutionID {
		return nil, exceptions.ErrRecoveryInstitutionMismatch(nil)
	}
	if metadata.StudentID == "" || metadata.SessionID == "" {
		return nil, exceptions.ErrRecoveryMetadataIncomplete(nil)
	}
	metadata.InstitutionID = input.InstitutionID

	// A success row for this student and session means this reference is
	// a duplicate notification of an already-settled charge. Return the
	// settled row untouched instead of minting a second success.
	existing, err := uc.LedgerRepository.FindSuccessBySession(ctx, input.InstitutionID, metadata.StudentID, metadata.SessionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		uc.appendAudit(ctx, &models.AuditEntry{
			InstitutionID:    input.InstitutionID,
			Reference:        existing.Reference,
			PreviousStatus:   models.PaymentSuccess,
			NewStatus:        models.PaymentSuccess,
			Actor:            input.Actor,
			GatewayReference: existing.GatewayReference,
			Timestamp:        now,
		})
		return &contracts.ReconcileOutput{
			Verified: true,
			Message:  constvars.PaymentVerifiedSuccess,
			Payment:  existing,
		}, nil
	}

	verifiedAt := now
	candidate := &models.Payment{
		ID:               uuid.NewString(),
		InstitutionID:    input.InstitutionID,
		SessionID:        metadata.SessionID,
		StudentID:        metadata.StudentID,
		Amount:           reportedAmount,
		Currency:         verification.Currency,
		Reference:        input.Reference,
		GatewayReference: verification.GatewayReference,
		Status:           models.PaymentSuccess,
		Authorization:    verification.Authorization,
		Metadata:         metadata,
		Recovered:        true,
		VerifiedAt:       &verifiedAt,
	}

	inserted, applied, err := uc.LedgerRepository.InsertRecovered(ctx, candidate)
	if err != nil {
		return nil, err
	}
	if !applied {
		return uc.settledOutput(ctx, input)
	}

	uc.Log.Info("paymentUsecase.Reconcile recovered payment",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingReferenceKey, input.Reference),
		zap.String(constvars.LoggingStudentIDKey, metadata.StudentID),
		zap.Float64(constvars.LoggingAmountKey, reportedAmount),
	)

	uc.appendAudit(ctx, &models.AuditEntry{
		InstitutionID:    input.InstitutionID,
		Reference:        inserted.Reference,
		NewStatus:        models.PaymentSuccess,
		Actor:            input.Actor,
		GatewayReference: verification.GatewayReference,
		Timestamp:        now,
	})

	return &contracts.ReconcileOutput{
		Verified: true,
		Message:  constvars.PaymentVerifiedSuccess,
		Payment:  inserted,
	}, nil
}

func (uc *paymentUsecase) reconcileFailure(
	ctx context.Context,
	input *contracts.ReconcileInput,
	payment *models.Payment,
) (*contracts.ReconcileOutput, error) {
	if payment == nil {
		// Nothing local to fail; a charge the gateway rejected and we
		// never recorded needs no row.
		return &contracts.ReconcileOutput{
			Verified: false,
			Message:  constvars.PaymentNotYetVerified,
		}, nil
	}
	// Only pending downgrades; cancelled and failed rows keep their
	// status.
	if payment.Status != models.PaymentPending {
		return &contracts.ReconcileOutput{
			Verified: false,
			Message:  constvars.PaymentNotSuccessful,
			Payment:  payment,
		}, nil
	}

	failed, applied, err := uc.LedgerRepository.UpdateStatusGuarded(ctx, input.InstitutionID, payment.Reference, models.PaymentPending, models.PaymentFailed)
	if err != nil {
		return nil, err
	}
	if !applied {
		return uc.settledOutput(ctx, input)
	}

	uc.appendAudit(ctx, &models.AuditEntry{
		InstitutionID:  input.InstitutionID,
		Reference:      failed.Reference,
		PreviousStatus: payment.Status,
		NewStatus:      models.PaymentFailed,
		Actor:          input.Actor,
		Timestamp:      time.Now().UTC(),
	})

	return &contracts.ReconcileOutput{
		Verified: false,
		Message:  constvars.PaymentNotSuccessful,
		Payment:  failed,
	}, nil
}

// settledOutput re-reads after a lost write race so every racer returns
// the same settled row. The losing attempt is still audited.
func (uc *paymentUsecase) settledOutput(ctx context.Context, input *contracts.ReconcileInput) (*contracts.ReconcileOutput, error) {
	payment, err := uc.LedgerRepository.FindByReference(ctx, input.InstitutionID, input.Reference)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, exceptions.ErrPaymentNotFound(nil, input.Reference)
	}

	uc.appendAudit(ctx, &models.AuditEntry{
		InstitutionID:    input.InstitutionID,
		Reference:        payment.Reference,
		PreviousStatus:   payment.Status,
		NewStatus:        payment.Status,
		Actor:            input.Actor,
		GatewayReference: payment.GatewayReference,
		Timestamp:        time.Now().UTC(),
	})

	verified := payment.Status == models.PaymentSuccess
	message := constvars.PaymentNotYetVerified
	if verified {
		message = constvars.PaymentVerifiedSuccess
	}
	return &contracts.ReconcileOutput{
		Verified: verified,
		Message:  message,
		Payment:  payment,
	}, nil
}

func (uc *paymentUsecase) CancelPayment(ctx context.Context, institutionID, reference string) (*models.Payment, error) {
	requestID := utils.RequestIDFromContext(ctx)
	uc.Log.Info("paymentUsecase.CancelPayment called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingInstitutionIDKey, institutionID),
		zap.String(constvars.LoggingReferenceKey, reference),
	)

	payment, err := uc.LedgerRepository.FindByReference(ctx, institutionID, reference)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, exceptions.ErrPaymentNotFound(nil, reference)
	}
	if payment.Status != models.PaymentPending {
		return nil, exceptions.ErrCancelNotPending(nil)
	}

	cancelled, applied, err := uc.LedgerRepository.UpdateStatusGuarded(ctx, institutionID, reference, models.PaymentPending, models.PaymentCancelled)
	if err != nil {
		return nil, err
	}
	if !applied {
		// The row left pending between the read and the write.
		return nil, exceptions.ErrCancelNotPending(nil)
	}

	uc.appendAudit(ctx, &models.AuditEntry{
		InstitutionID:  institutionID,
		Reference:      reference,
		PreviousStatus: models.PaymentPending,
		NewStatus:      models.PaymentCancelled,
		Actor:          utils.ActorFromContext(ctx),
		Timestamp:      time.Now().UTC(),
	})

	return cancelled, nil
}

func (uc *paymentUsecase) ListBySession(ctx context.Context, institutionID, sessionID string) ([]models.Payment, error) {
	return uc.LedgerRepository.ListBySession(ctx, institutionID, sessionID)
}

// appendAudit publishes one transition entry. The ledger write already
// committed, so a publish failure is logged and swallowed.
func (uc *paymentUsecase) appendAudit(ctx context.Context, entry *models.AuditEntry) {
	entry.ID = uuid.NewString()
	if err := uc.AuditTrail.Append(ctx, entry); err != nil {
		uc.Log.Warn("paymentUsecase audit append failed",
			zap.String(constvars.LoggingRequestIDKey, utils.RequestIDFromContext(ctx)),
			zap.String(constvars.LoggingReferenceKey, entry.Reference),
			zap.Error(err),
		)
	}
}
