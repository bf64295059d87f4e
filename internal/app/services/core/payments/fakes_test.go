package payments

import (
	"context"
	"schoolpay-service/internal/app/contracts"
	"schoolpay-service/internal/app/models"
	"schoolpay-service/internal/pkg/constvars"
	"sync"
	"time"
)

// fakeLedger is an in-memory LedgerRepository honoring the same guard
// semantics as the SQL statements it stands in for.
type fakeLedger struct {
	mu       sync.Mutex
	payments map[string]*models.Payment

	markSuccessCalls int
	insertCalls      int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{payments: make(map[string]*models.Payment)}
}

func ledgerKey(institutionID, reference string) string {
	return institutionID + "|" + reference
}

func (f *fakeLedger) put(payment *models.Payment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *payment
	f.payments[ledgerKey(payment.InstitutionID, payment.Reference)] = &copied
}

func (f *fakeLedger) FindByReference(_ context.Context, institutionID, reference string) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, payment := range f.payments {
		if payment.InstitutionID != institutionID {
			continue
		}
		if payment.Reference == reference || payment.GatewayReference == reference {
			copied := *payment
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeLedger) FindSuccessBySession(_ context.Context, institutionID, studentID, sessionID string) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, payment := range f.payments {
		if payment.InstitutionID == institutionID &&
			payment.StudentID == studentID &&
			payment.SessionID == sessionID &&
			payment.Status == models.PaymentSuccess {
			copied := *payment
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeLedger) SumSuccessAmount(_ context.Context, institutionID, studentID, sessionID string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var total float64
	for _, payment := range f.payments {
		if payment.InstitutionID == institutionID &&
			payment.StudentID == studentID &&
			payment.SessionID == sessionID &&
			payment.Status == models.PaymentSuccess {
			total += payment.Amount
		}
	}
	return total, nil
}

func (f *fakeLedger) ListBySession(_ context.Context, institutionID, sessionID string) ([]models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Payment
	for _, payment := range f.payments {
		if payment.InstitutionID == institutionID && payment.SessionID == sessionID {
			out = append(out, *payment)
		}
	}
	return out, nil
}

func (f *fakeLedger) MarkSuccess(_ context.Context, input *contracts.MarkSuccessInput) (*models.Payment, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markSuccessCalls++

	payment, ok := f.payments[ledgerKey(input.InstitutionID, input.Reference)]
	if !ok || payment.Status == models.PaymentSuccess {
		return nil, false, nil
	}
	payment.Status = models.PaymentSuccess
	payment.GatewayReference = input.GatewayReference
	payment.Authorization = input.Authorization
	verifiedAt := input.VerifiedAt
	payment.VerifiedAt = &verifiedAt
	payment.UpdatedAt = time.Now().UTC()
	copied := *payment
	return &copied, true, nil
}

func (f *fakeLedger) InsertRecovered(_ context.Context, payment *models.Payment) (*models.Payment, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insertCalls++

	key := ledgerKey(payment.InstitutionID, payment.Reference)
	if _, ok := f.payments[key]; ok {
		return nil, false, nil
	}
	copied := *payment
	now := time.Now().UTC()
	copied.CreatedAt = now
	copied.UpdatedAt = now
	f.payments[key] = &copied
	result := copied
	return &result, true, nil
}

func (f *fakeLedger) UpdateStatusGuarded(_ context.Context, institutionID, reference string, from, to models.PaymentStatus) (*models.Payment, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	payment, ok := f.payments[ledgerKey(institutionID, reference)]
	if !ok || payment.Status != from {
		return nil, false, nil
	}
	payment.Status = to
	payment.UpdatedAt = time.Now().UTC()
	copied := *payment
	return &copied, true, nil
}

type fakeInstitutionRepository struct {
	settings map[string]*models.GatewaySettings
	billing  map[string]*models.StudentBilling
}

func newFakeInstitutionRepository() *fakeInstitutionRepository {
	return &fakeInstitutionRepository{
		settings: make(map[string]*models.GatewaySettings),
		billing:  make(map[string]*models.StudentBilling),
	}
}

func (f *fakeInstitutionRepository) GetGatewaySettings(_ context.Context, institutionID string) (*models.GatewaySettings, error) {
	return f.settings[institutionID], nil
}

func (f *fakeInstitutionRepository) GetStudentBilling(_ context.Context, institutionID, studentID, sessionID string) (*models.StudentBilling, error) {
	return f.billing[institutionID+"|"+studentID+"|"+sessionID], nil
}

// fakeGateway scripts Verify outcomes per reference and counts calls.
type fakeGateway struct {
	mu            sync.Mutex
	verifyOutputs map[string]*contracts.GatewayVerifyOutput
	verifyErrs    map[string]error
	verifyCalls   int

	initializeOutput *contracts.GatewayInitializeOutput
	initializeErr    error
	initializeInput  *contracts.GatewayInitializeInput
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		verifyOutputs: make(map[string]*contracts.GatewayVerifyOutput),
		verifyErrs:    make(map[string]error),
	}
}

func (f *fakeGateway) Initialize(_ context.Context, _ string, input *contracts.GatewayInitializeInput) (*contracts.GatewayInitializeOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initializeInput = input
	if f.initializeErr != nil {
		return nil, f.initializeErr
	}
	if f.initializeOutput != nil {
		return f.initializeOutput, nil
	}
	return &contracts.GatewayInitializeOutput{
		AuthorizationURL: "https://checkout.example/" + input.Reference,
		AccessCode:       "access_" + input.Reference,
		Reference:        input.Reference,
	}, nil
}

func (f *fakeGateway) Verify(_ context.Context, _ string, reference string) (*contracts.GatewayVerifyOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifyCalls++
	if err, ok := f.verifyErrs[reference]; ok {
		return nil, err
	}
	if output, ok := f.verifyOutputs[reference]; ok {
		return output, nil
	}
	return &contracts.GatewayVerifyOutput{Status: constvars.PaystackStatusPending}, nil
}

type fakeAuditTrail struct {
	mu      sync.Mutex
	entries []models.AuditEntry
	err     error
}

func (f *fakeAuditTrail) Append(_ context.Context, entry *models.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAuditTrail) Entries() []models.AuditEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.AuditEntry, len(f.entries))
	copy(out, f.entries)
	return out
}
