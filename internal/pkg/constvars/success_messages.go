package constvars

const (
	// Generic messages
	ResponseUnknown = "unknown"
	ResponseSuccess = "success"
	ResponseError   = "error"

	// Payment messages
	PaymentInitializedSuccess = "payment initialized successfully"
	PaymentVerifiedSuccess    = "payment verified successfully"
	PaymentNotYetVerified     = "payment not yet verified"
	PaymentNotSuccessful      = "payment was not successful"
	PaymentCancelledSuccess   = "payment cancelled successfully"
	PaymentListSuccess        = "payments fetched successfully"

	// Webhook messages
	WebhookAcknowledged = "ok"
)
