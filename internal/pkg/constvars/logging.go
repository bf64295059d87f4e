package constvars

const (
	LoggingRequestIDKey        = "request_id"
	LoggingRequestKey          = "request"
	LoggingResponseKey         = "response"
	LoggingMethodKey           = "method"
	LoggingEndpointKey         = "endpoint"
	LoggingRemoteAddrKey       = "remote_addr"
	LoggingUserAgentKey        = "user_agent"
	LoggingQueryKey            = "query"
	LoggingStatusCodeKey       = "status_code"
	LoggingDurationKey         = "duration"
	LoggingSuccessKey          = "success"
	LoggingActorKey            = "actor"
	LoggingReferenceKey        = "reference"
	LoggingInstitutionIDKey    = "institution_id"
	LoggingStudentIDKey        = "student_id"
	LoggingSessionIDKey        = "session_id"
	LoggingPaymentStatusKey    = "payment_status"
	LoggingGatewayRefKey       = "gateway_reference"
	LoggingGatewayStatusKey    = "gateway_status"
	LoggingAmountKey           = "amount"
	LoggingWebhookEventKey     = "webhook_event"
	LoggingAuditEntryIDKey     = "audit_entry_id"
	LoggingQueueNameKey        = "queue_name"
)
