package constvars

type ContextKey string

const (
	CONTEXT_REQUEST_ID_KEY           ContextKey = "request_id"
	CONTEXT_IS_CLIENT_REQUEST_ID_KEY ContextKey = "is_client_request_id"
	CONTEXT_ACTOR_KEY                ContextKey = "actor"
)

const (
	REQUEST_ID_PREFIX = "SCHPAY_SVC_"
)

// Actors recorded on audit entries, one per notification path.
const (
	ActorClient  = "client"
	ActorWebhook = "webhook"
	ActorAdmin   = "admin"
)

const (
	ResourcePayments = "payments"
	ResourceWebhooks = "webhooks"
)

// Kobo per naira; minor-to-major conversion happens once, at the
// reconciler boundary.
const MinorUnitsPerMajor = 100

// AmountTolerance is the maximum allowed difference, in major currency
// units, between the gateway-reported amount and the expected amount.
// Single fixed value; per-institution tolerance is an open follow-up.
const AmountTolerance = 0.01
