package constvars

// Validation messages mapper
var CustomValidationErrorMessages = map[string]string{
	"required": "is required",
	"email":    "must be a valid email",
	"alphanum": "must contain only alphanumeric characters",
	"min":      "must be at least %s characters long",
	"max":      "maximum at %s characters long",
	"numeric":  "must be a number",
	"len":      "must be %s characters long",
	"oneof":    "must be one of [%s]",
	"gt":       "must be greater than %s",
	"gte":      "must be greater than or equal to %s",
	"uuid":     "must be a valid UUID",
}

// Tags that require parameter substitution
var TagsWithParams = map[string]bool{
	"min":   true,
	"max":   true,
	"len":   true,
	"gt":    true,
	"gte":   true,
	"oneof": true,
}

// Error messages for clients
const (
	ErrClientCannotProcessRequest          = "failed to process your request"
	ErrClientSomethingWrongWithApplication = "there is something wrong with the application"
	ErrClientServerLongRespond             = "the app taking too long to respond"
	ErrClientNotAuthorized                 = "you can't access this feature"
	ErrClientPaymentNotFound               = "payment reference not found"
	ErrClientAlreadyFullyPaid              = "this session has already been fully paid"
	ErrClientPaymentAlreadyProcessed       = "this payment has already been processed"
	ErrClientGatewayNotConfigured          = "payments are not configured for this institution"
	ErrClientStudentBillingNotFound        = "no billing details found for this student and session"
	ErrClientGatewayUnavailable            = "payment could not be verified yet, please retry shortly"
	ErrClientAmountMismatch                = "the confirmed amount does not match the expected amount"
	ErrClientIncompleteRecoveryMetadata    = "the confirmed payment is missing required details"
	ErrClientCancelOnlyPending             = "only a pending payment can be cancelled"
)

// Error messages for developers
const (
	ErrDevInvalidInput          = "invalid input"
	ErrDevValidationFailed      = "request validation failed"
	ErrDevCannotParseJSON       = "cannot parse JSON"
	ErrDevCannotMarshalJSON     = "cannot marshal JSON"
	ErrDevCannotReadRequestBody = "cannot read request body"
	ErrDevCreateHTTPRequest     = "failed to create HTTP request"
	ErrDevSendHTTPRequest       = "failed to send HTTP request"

	ErrDevPaymentNotFound            = "no payment row for reference"
	ErrDevAlreadyFullyPaid           = "remaining amount is zero or negative"
	ErrDevDuplicateSuccessPayment    = "success row already exists for student/session"
	ErrDevGatewayNotConfigured       = "institution has no gateway credentials"
	ErrDevStudentBillingNotFound     = "no billing row for student and session"
	ErrDevGatewayNon2xx              = "gateway returned non-2xx status"
	ErrDevGatewayMalformedResponse   = "gateway returned malformed response"
	ErrDevGatewayTimeout             = "gateway call exceeded deadline"
	ErrDevAmountOutsideTolerance     = "reported amount outside tolerance of expected amount"
	ErrDevRecoveryMetadataIncomplete = "gateway metadata missing student or session id"
	ErrDevRecoveryInstitutionMismatch = "gateway metadata institution does not match caller"
	ErrDevWebhookBadSignature        = "webhook signature mismatch"
	ErrDevCancelNotPending           = "cancel requested for non-pending payment"

	ErrDevAuthTokenMissing          = "authorization token missing"
	ErrDevAuthTokenInvalidOrExpired = "authorization token invalid or expired"

	// Postgres DB
	ErrDevDBFailedToFindData    = "failed to find data in database"
	ErrDevDBFailedToInsertData  = "failed to insert data to database"
	ErrDevDBFailedToUpdateData  = "failed to update data in database"
	ErrDevDBFailedToIterateData = "failed to iterate dataset from database"

	// Mongo DB
	ErrDevMongoFailedToInsertDocument = "failed to insert document to mongo"

	// Redis
	ErrDevRedisGetData = "failed to get data from redis"
	ErrDevRedisSetData = "failed to set data to redis"
	ErrDevRedisDelData = "failed to delete data from redis"

	// RabbitMQ
	ErrDevRabbitMQPublish = "failed to publish message to queue"
	ErrDevRabbitMQConsume = "failed to consume message from queue"
)
