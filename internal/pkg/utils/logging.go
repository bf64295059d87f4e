package utils

import (
	"context"
	"schoolpay-service/internal/pkg/constvars"
)

func RequestIDFromContext(ctx context.Context) string {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	return requestID
}

func ActorFromContext(ctx context.Context) string {
	actor, _ := ctx.Value(constvars.CONTEXT_ACTOR_KEY).(string)
	if actor == "" {
		actor = constvars.ActorClient
	}
	return actor
}
