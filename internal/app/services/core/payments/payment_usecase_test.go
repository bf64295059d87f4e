package payments

import (
	"context"
	"errors"
	"schoolpay-service/internal/app/config"
	"schoolpay-service/internal/app/contracts"
	"schoolpay-service/internal/app/models"
	"schoolpay-service/internal/pkg/constvars"
	"schoolpay-service/internal/pkg/dto/requests"
	"schoolpay-service/internal/pkg/exceptions"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testInstitution = "inst-001"
	testStudent     = "student-42"
	testSession     = "2026-term-1"
	testReference   = "INST0001-1724800000000000000-ab12"
)

type usecaseFixture struct {
	usecase     *paymentUsecase
	ledger      *fakeLedger
	institution *fakeInstitutionRepository
	gateway     *fakeGateway
	audit       *fakeAuditTrail
}

func newUsecaseFixture() *usecaseFixture {
	ledger := newFakeLedger()
	institution := newFakeInstitutionRepository()
	gateway := newFakeGateway()
	audit := &fakeAuditTrail{}

	institution.settings[testInstitution] = &models.GatewaySettings{
		InstitutionID: testInstitution,
		SecretKey:     "sk_test_secret",
		PublicKey:     "pk_test_public",
		Currency:      "NGN",
	}
	institution.billing[testInstitution+"|"+testStudent+"|"+testSession] = &models.StudentBilling{
		StudentID: testStudent,
		ProgramID: "prog-7",
		Email:     "student@example.edu",
		Owed:      50000,
		Currency:  "NGN",
	}

	return &usecaseFixture{
		usecase: &paymentUsecase{
			LedgerRepository:      ledger,
			InstitutionRepository: institution,
			SettingsProvider:      institution,
			GatewayService:        gateway,
			AuditTrail:            audit,
			InternalConfig:        &config.InternalConfig{},
			Log:                   zap.NewNop(),
		},
		ledger:      ledger,
		institution: institution,
		gateway:     gateway,
		audit:       audit,
	}
}

func pendingPayment(amount float64) *models.Payment {
	return &models.Payment{
		ID:            "pay-1",
		InstitutionID: testInstitution,
		SessionID:     testSession,
		StudentID:     testStudent,
		Amount:        amount,
		Currency:      "NGN",
		Reference:     testReference,
		Status:        models.PaymentPending,
		Metadata: models.PaymentMetadata{
			InstitutionID: testInstitution,
			StudentID:     testStudent,
			SessionID:     testSession,
		},
	}
}

func successVerification(amountMinor int64) *contracts.GatewayVerifyOutput {
	return &contracts.GatewayVerifyOutput{
		Status:      constvars.PaystackStatusSuccess,
		AmountMinor: amountMinor,
		Currency:    "NGN",
		Channel:     "card",
		Authorization: models.Authorization{
			Channel:           "card",
			CardType:          "visa",
			Last4:             "4081",
			AuthorizationCode: "AUTH_abc",
		},
		Metadata: models.PaymentMetadata{
			InstitutionID: testInstitution,
			StudentID:     testStudent,
			SessionID:     testSession,
		},
		GatewayReference: "301245",
		GatewayResponse:  "Successful",
	}
}

func TestInitializePayment(t *testing.T) {
	t.Run("returns checkout tokens without touching the ledger", func(t *testing.T) {
		fx := newUsecaseFixture()

		response, err := fx.usecase.InitializePayment(context.Background(), &requests.InitializePayment{
			InstitutionID: testInstitution,
			StudentID:     testStudent,
			SessionID:     testSession,
		})
		require.NoError(t, err)

		assert.Equal(t, float64(50000), response.Amount)
		assert.Equal(t, "NGN", response.Currency)
		assert.NotEmpty(t, response.Reference)
		assert.NotEmpty(t, response.AuthorizationURL)

		// An abandoned checkout leaves nothing behind.
		stored, err := fx.ledger.FindByReference(context.Background(), testInstitution, response.Reference)
		require.NoError(t, err)
		assert.Nil(t, stored)

		require.NotNil(t, fx.gateway.initializeInput)
		assert.Equal(t, int64(5000000), fx.gateway.initializeInput.AmountMinor)
		assert.Equal(t, "student@example.edu", fx.gateway.initializeInput.Email)
		assert.Equal(t, testStudent, fx.gateway.initializeInput.Metadata.StudentID)
		assert.Equal(t, testSession, fx.gateway.initializeInput.Metadata.SessionID)
	})

	t.Run("charges only the outstanding balance", func(t *testing.T) {
		fx := newUsecaseFixture()
		prior := pendingPayment(20000)
		prior.Reference = "prior-ref"
		prior.Status = models.PaymentSuccess
		fx.ledger.put(prior)

		response, err := fx.usecase.InitializePayment(context.Background(), &requests.InitializePayment{
			InstitutionID: testInstitution,
			StudentID:     testStudent,
			SessionID:     testSession,
		})
		require.NoError(t, err)
		assert.Equal(t, float64(30000), response.Amount)
	})

	t.Run("rejects fully paid session", func(t *testing.T) {
		fx := newUsecaseFixture()
		prior := pendingPayment(50000)
		prior.Status = models.PaymentSuccess
		fx.ledger.put(prior)

		_, err := fx.usecase.InitializePayment(context.Background(), &requests.InitializePayment{
			InstitutionID: testInstitution,
			StudentID:     testStudent,
			SessionID:     testSession,
		})
		require.Error(t, err)

		var customErr *exceptions.CustomError
		require.ErrorAs(t, err, &customErr)
		assert.Equal(t, constvars.StatusConflict, customErr.StatusCode)
	})

	t.Run("rejects institution without gateway settings", func(t *testing.T) {
		fx := newUsecaseFixture()

		_, err := fx.usecase.InitializePayment(context.Background(), &requests.InitializePayment{
			InstitutionID: "inst-unknown",
			StudentID:     testStudent,
			SessionID:     testSession,
		})
		require.Error(t, err)

		var customErr *exceptions.CustomError
		require.ErrorAs(t, err, &customErr)
		assert.Equal(t, constvars.ErrClientGatewayNotConfigured, customErr.ClientMessage)
	})

	t.Run("gateway initialize failure propagates", func(t *testing.T) {
		fx := newUsecaseFixture()
		fx.gateway.initializeErr = exceptions.ErrGatewayRequest(errors.New("connection refused"))

		_, err := fx.usecase.InitializePayment(context.Background(), &requests.InitializePayment{
			InstitutionID: testInstitution,
			StudentID:     testStudent,
			SessionID:     testSession,
		})
		require.Error(t, err)

		payments, err := fx.ledger.ListBySession(context.Background(), testInstitution, testSession)
		require.NoError(t, err)
		assert.Empty(t, payments)
	})

	t.Run("rejects incomplete input", func(t *testing.T) {
		fx := newUsecaseFixture()

		_, err := fx.usecase.InitializePayment(context.Background(), &requests.InitializePayment{
			InstitutionID: testInstitution,
		})
		require.Error(t, err)

		var customErr *exceptions.CustomError
		require.ErrorAs(t, err, &customErr)
		assert.Equal(t, constvars.StatusBadRequest, customErr.StatusCode)
	})
}

func TestReconcileIdempotence(t *testing.T) {
	t.Run("settled row short-circuits without gateway call", func(t *testing.T) {
		fx := newUsecaseFixture()
		settled := pendingPayment(50000)
		settled.Status = models.PaymentSuccess
		fx.ledger.put(settled)

		output, err := fx.usecase.Reconcile(context.Background(), &contracts.ReconcileInput{
			InstitutionID: testInstitution,
			Reference:     testReference,
			Actor:         constvars.ActorClient,
			AllowRecovery: true,
		})
		require.NoError(t, err)

		assert.True(t, output.Verified)
		assert.Equal(t, 0, fx.gateway.verifyCalls)

		// Short-circuits still leave an audit entry for the attempt.
		entries := fx.audit.Entries()
		require.Len(t, entries, 1)
		assert.Equal(t, models.PaymentSuccess, entries[0].PreviousStatus)
		assert.Equal(t, models.PaymentSuccess, entries[0].NewStatus)
	})

	t.Run("repeated reconcile settles once", func(t *testing.T) {
		fx := newUsecaseFixture()
		fx.ledger.put(pendingPayment(50000))
		fx.gateway.verifyOutputs[testReference] = successVerification(5000000)

		input := &contracts.ReconcileInput{
			InstitutionID: testInstitution,
			Reference:     testReference,
			Actor:         constvars.ActorClient,
			AllowRecovery: true,
		}

		first, err := fx.usecase.Reconcile(context.Background(), input)
		require.NoError(t, err)
		second, err := fx.usecase.Reconcile(context.Background(), input)
		require.NoError(t, err)

		assert.True(t, first.Verified)
		assert.True(t, second.Verified)
		assert.Equal(t, 1, fx.gateway.verifyCalls)
		assert.Equal(t, 1, fx.ledger.markSuccessCalls)

		// One transition entry plus one short-circuit entry.
		entries := fx.audit.Entries()
		require.Len(t, entries, 2)
		assert.Equal(t, models.PaymentPending, entries[0].PreviousStatus)
		assert.Equal(t, models.PaymentSuccess, entries[0].NewStatus)
		assert.Equal(t, models.PaymentSuccess, entries[1].PreviousStatus)
	})
}

func TestReconcileStateMachine(t *testing.T) {
	t.Run("pending charge stays pending", func(t *testing.T) {
		fx := newUsecaseFixture()
		fx.ledger.put(pendingPayment(50000))
		fx.gateway.verifyOutputs[testReference] = &contracts.GatewayVerifyOutput{
			Status: constvars.PaystackStatusPending,
		}

		output, err := fx.usecase.Reconcile(context.Background(), &contracts.ReconcileInput{
			InstitutionID: testInstitution,
			Reference:     testReference,
			Actor:         constvars.ActorClient,
			AllowRecovery: true,
		})
		require.NoError(t, err)

		assert.False(t, output.Verified)
		assert.Equal(t, constvars.PaymentNotYetVerified, output.Message)
		assert.Equal(t, models.PaymentPending, output.Payment.Status)
	})

	t.Run("failed charge transitions pending to failed", func(t *testing.T) {
		fx := newUsecaseFixture()
		fx.ledger.put(pendingPayment(50000))
		fx.gateway.verifyOutputs[testReference] = &contracts.GatewayVerifyOutput{
			Status: constvars.PaystackStatusFailed,
		}

		output, err := fx.usecase.Reconcile(context.Background(), &contracts.ReconcileInput{
			InstitutionID: testInstitution,
			Reference:     testReference,
			Actor:         constvars.ActorClient,
			AllowRecovery: true,
		})
		require.NoError(t, err)

		assert.False(t, output.Verified)
		assert.Equal(t, models.PaymentFailed, output.Payment.Status)

		entries := fx.audit.Entries()
		require.Len(t, entries, 1)
		assert.Equal(t, models.PaymentPending, entries[0].PreviousStatus)
		assert.Equal(t, models.PaymentFailed, entries[0].NewStatus)
	})

	t.Run("gateway error leaves row untouched", func(t *testing.T) {
		fx := newUsecaseFixture()
		fx.ledger.put(pendingPayment(50000))
		fx.gateway.verifyErrs[testReference] = exceptions.ErrGatewayTimeout(errors.New("deadline exceeded"))

		_, err := fx.usecase.Reconcile(context.Background(), &contracts.ReconcileInput{
			InstitutionID: testInstitution,
			Reference:     testReference,
			Actor:         constvars.ActorClient,
			AllowRecovery: true,
		})
		require.Error(t, err)

		stored, findErr := fx.ledger.FindByReference(context.Background(), testInstitution, testReference)
		require.NoError(t, findErr)
		assert.Equal(t, models.PaymentPending, stored.Status)
	})

	t.Run("cancelled row can still settle", func(t *testing.T) {
		fx := newUsecaseFixture()
		cancelled := pendingPayment(50000)
		cancelled.Status = models.PaymentCancelled
		fx.ledger.put(cancelled)
		fx.gateway.verifyOutputs[testReference] = successVerification(5000000)

		output, err := fx.usecase.Reconcile(context.Background(), &contracts.ReconcileInput{
			InstitutionID: testInstitution,
			Reference:     testReference,
			Actor:         constvars.ActorWebhook,
			AllowRecovery: false,
		})
		require.NoError(t, err)
		assert.True(t, output.Verified)
	})
}

func TestReconcileAmountTolerance(t *testing.T) {
	t.Run("difference at tolerance settles", func(t *testing.T) {
		fx := newUsecaseFixture()
		fx.ledger.put(pendingPayment(50000))
		fx.gateway.verifyOutputs[testReference] = successVerification(5000001)

		output, err := fx.usecase.Reconcile(context.Background(), &contracts.ReconcileInput{
			InstitutionID: testInstitution,
			Reference:     testReference,
			Actor:         constvars.ActorClient,
			AllowRecovery: true,
		})
		require.NoError(t, err)
		assert.True(t, output.Verified)
	})

	t.Run("difference beyond tolerance rejects without write", func(t *testing.T) {
		fx := newUsecaseFixture()
		fx.ledger.put(pendingPayment(50000))
		fx.gateway.verifyOutputs[testReference] = successVerification(4999000)

		_, err := fx.usecase.Reconcile(context.Background(), &contracts.ReconcileInput{
			InstitutionID: testInstitution,
			Reference:     testReference,
			Actor:         constvars.ActorClient,
			AllowRecovery: true,
		})
		require.Error(t, err)

		var customErr *exceptions.CustomError
		require.ErrorAs(t, err, &customErr)
		assert.Equal(t, constvars.ErrClientAmountMismatch, customErr.ClientMessage)

		stored, findErr := fx.ledger.FindByReference(context.Background(), testInstitution, testReference)
		require.NoError(t, findErr)
		assert.Equal(t, models.PaymentPending, stored.Status)
		assert.Equal(t, 0, fx.ledger.markSuccessCalls)
	})
}

func TestReconcileRecovery(t *testing.T) {
	t.Run("confirmed charge without local row is recovered", func(t *testing.T) {
		fx := newUsecaseFixture()
		fx.gateway.verifyOutputs[testReference] = successVerification(5000000)

		output, err := fx.usecase.Reconcile(context.Background(), &contracts.ReconcileInput{
			InstitutionID: testInstitution,
			Reference:     testReference,
			Actor:         constvars.ActorAdmin,
			AllowRecovery: true,
		})
		require.NoError(t, err)

		assert.True(t, output.Verified)
		assert.True(t, output.Payment.Recovered)
		assert.Equal(t, float64(50000), output.Payment.Amount)
		assert.Equal(t, testStudent, output.Payment.StudentID)

		entries := fx.audit.Entries()
		require.Len(t, entries, 1)
		assert.Equal(t, constvars.ActorAdmin, entries[0].Actor)
	})

	t.Run("duplicate notification returns the settled row unchanged", func(t *testing.T) {
		fx := newUsecaseFixture()
		settled := pendingPayment(50000)
		settled.Reference = "earlier-ref"
		settled.Status = models.PaymentSuccess
		fx.ledger.put(settled)
		fx.gateway.verifyOutputs[testReference] = successVerification(5000000)

		output, err := fx.usecase.Reconcile(context.Background(), &contracts.ReconcileInput{
			InstitutionID: testInstitution,
			Reference:     testReference,
			Actor:         constvars.ActorClient,
			AllowRecovery: true,
		})
		require.NoError(t, err)

		assert.True(t, output.Verified)
		assert.Equal(t, "earlier-ref", output.Payment.Reference)
		assert.Equal(t, 0, fx.ledger.insertCalls)
	})

	t.Run("webhook path never recovers", func(t *testing.T) {
		fx := newUsecaseFixture()
		fx.gateway.verifyOutputs[testReference] = successVerification(5000000)

		_, err := fx.usecase.Reconcile(context.Background(), &contracts.ReconcileInput{
			InstitutionID: testInstitution,
			Reference:     testReference,
			Actor:         constvars.ActorWebhook,
			AllowRecovery: false,
		})
		require.Error(t, err)

		var customErr *exceptions.CustomError
		require.ErrorAs(t, err, &customErr)
		assert.Equal(t, constvars.StatusNotFound, customErr.StatusCode)
		assert.Equal(t, 0, fx.gateway.verifyCalls)
	})

	t.Run("incomplete metadata rejects recovery", func(t *testing.T) {
		fx := newUsecaseFixture()
		verification := successVerification(5000000)
		verification.Metadata.SessionID = ""
		fx.gateway.verifyOutputs[testReference] = verification

		_, err := fx.usecase.Reconcile(context.Background(), &contracts.ReconcileInput{
			InstitutionID: testInstitution,
			Reference:     testReference,
			Actor:         constvars.ActorClient,
			AllowRecovery: true,
		})
		require.Error(t, err)

		var customErr *exceptions.CustomError
		require.ErrorAs(t, err, &customErr)
		assert.Equal(t, constvars.ErrClientIncompleteRecoveryMetadata, customErr.ClientMessage)
		assert.Equal(t, 0, fx.ledger.insertCalls)
	})

	t.Run("metadata naming another institution rejects recovery", func(t *testing.T) {
		fx := newUsecaseFixture()
		verification := successVerification(5000000)
		verification.Metadata.InstitutionID = "inst-other"
		fx.gateway.verifyOutputs[testReference] = verification

		_, err := fx.usecase.Reconcile(context.Background(), &contracts.ReconcileInput{
			InstitutionID: testInstitution,
			Reference:     testReference,
			Actor:         constvars.ActorClient,
			AllowRecovery: true,
		})
		require.Error(t, err)
		assert.Equal(t, 0, fx.ledger.insertCalls)
	})
}

func TestReconcileConcurrentConvergence(t *testing.T) {
	fx := newUsecaseFixture()
	fx.ledger.put(pendingPayment(50000))
	fx.gateway.verifyOutputs[testReference] = successVerification(5000000)

	inputs := []*contracts.ReconcileInput{
		{InstitutionID: testInstitution, Reference: testReference, Actor: constvars.ActorClient, AllowRecovery: true},
		{InstitutionID: testInstitution, Reference: testReference, Actor: constvars.ActorWebhook, AllowRecovery: false},
	}

	var wg sync.WaitGroup
	outputs := make([]*contracts.ReconcileOutput, len(inputs))
	errs := make([]error, len(inputs))

	for i, input := range inputs {
		wg.Add(1)
		go func(i int, input *contracts.ReconcileInput) {
			defer wg.Done()
			outputs[i], errs[i] = fx.usecase.Reconcile(context.Background(), input)
		}(i, input)
	}
	wg.Wait()

	for i := range inputs {
		require.NoError(t, errs[i])
		assert.True(t, outputs[i].Verified)
		assert.Equal(t, models.PaymentSuccess, outputs[i].Payment.Status)
	}

	// One entry for the winning transition, one for the converging loser.
	entries := fx.audit.Entries()
	assert.Len(t, entries, 2)

	var transitions int
	for _, entry := range entries {
		if entry.PreviousStatus == models.PaymentPending && entry.NewStatus == models.PaymentSuccess {
			transitions++
		}
	}
	assert.Equal(t, 1, transitions)
}

func TestCancelPayment(t *testing.T) {
	t.Run("pending payment cancels", func(t *testing.T) {
		fx := newUsecaseFixture()
		fx.ledger.put(pendingPayment(50000))

		cancelled, err := fx.usecase.CancelPayment(context.Background(), testInstitution, testReference)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentCancelled, cancelled.Status)

		entries := fx.audit.Entries()
		require.Len(t, entries, 1)
		assert.Equal(t, models.PaymentCancelled, entries[0].NewStatus)
	})

	t.Run("settled payment refuses cancellation", func(t *testing.T) {
		fx := newUsecaseFixture()
		settled := pendingPayment(50000)
		settled.Status = models.PaymentSuccess
		fx.ledger.put(settled)

		_, err := fx.usecase.CancelPayment(context.Background(), testInstitution, testReference)
		require.Error(t, err)

		var customErr *exceptions.CustomError
		require.ErrorAs(t, err, &customErr)
		assert.Equal(t, constvars.ErrClientCancelOnlyPending, customErr.ClientMessage)
	})

	t.Run("unknown reference is not found", func(t *testing.T) {
		fx := newUsecaseFixture()

		_, err := fx.usecase.CancelPayment(context.Background(), testInstitution, "missing-ref")
		require.Error(t, err)

		var customErr *exceptions.CustomError
		require.ErrorAs(t, err, &customErr)
		assert.Equal(t, constvars.StatusNotFound, customErr.StatusCode)
	})
}

func TestAuditFailureDoesNotBlockSettlement(t *testing.T) {
	fx := newUsecaseFixture()
	fx.ledger.put(pendingPayment(50000))
	fx.gateway.verifyOutputs[testReference] = successVerification(5000000)
	fx.audit.err = exceptions.ErrRabbitMQPublishMessage(errors.New("broker down"), "audit_trail_queue")

	output, err := fx.usecase.Reconcile(context.Background(), &contracts.ReconcileInput{
		InstitutionID: testInstitution,
		Reference:     testReference,
		Actor:         constvars.ActorClient,
		AllowRecovery: true,
	})
	require.NoError(t, err)
	assert.True(t, output.Verified)
}
