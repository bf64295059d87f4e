package constvars

const (
	PaystackInitializePath = "/transaction/initialize"
	PaystackVerifyPath     = "/transaction/verify/"

	PaystackSignatureHeader = "X-Paystack-Signature"

	PaystackEventChargeSuccess = "charge.success"
)

// PaystackTransactionStatus is the typed transaction status reported by
// the gateway's verify endpoint.
type PaystackTransactionStatus string

const (
	PaystackStatusSuccess   PaystackTransactionStatus = "success"
	PaystackStatusFailed    PaystackTransactionStatus = "failed"
	PaystackStatusAbandoned PaystackTransactionStatus = "abandoned"
	PaystackStatusPending   PaystackTransactionStatus = "pending"
	PaystackStatusReversed  PaystackTransactionStatus = "reversed"
)
