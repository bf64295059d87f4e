package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"schoolpay-service/internal/pkg/constvars"
	"strings"
	"time"

	"github.com/google/uuid"
)

func GenerateRequestID() string {
	return constvars.REQUEST_ID_PREFIX + uuid.NewString()
}

// GeneratePaymentReference builds an institution-prefixed idempotency key.
// The nanosecond clock component keeps references monotonic within a
// process; the random suffix makes collisions across processes
// practically impossible. Uniqueness is still enforced by the ledger's
// (institution_id, reference) constraint.
func GeneratePaymentReference(institutionID string) (string, error) {
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return "", err
	}

	prefix := institutionID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	prefix = strings.ToUpper(strings.ReplaceAll(prefix, "-", ""))

	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixNano(), hex.EncodeToString(suffix)), nil
}
