package middlewares

import (
	"context"
	"fmt"
	"net/http"
	"schoolpay-service/internal/pkg/constvars"
	"schoolpay-service/internal/pkg/exceptions"
	"schoolpay-service/internal/pkg/utils"
	"strings"

	"github.com/golang-jwt/jwt/v4"
)

// AdminAuth guards the admin re-verify and listing endpoints with a
// bearer token signed by this service's operators. Requests that pass
// carry the admin actor on the context for the audit trail.
func (m *Middlewares) AdminAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(constvars.HeaderAuthorization)
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			utils.BuildErrorResponse(m.Log, w, exceptions.ErrTokenMissing(nil))
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(m.InternalConfig.JWT.Secret), nil
		})
		if err != nil || !token.Valid {
			utils.BuildErrorResponse(m.Log, w, exceptions.ErrTokenInvalidOrExpired(err))
			return
		}

		ctx := context.WithValue(r.Context(), constvars.CONTEXT_ACTOR_KEY, constvars.ActorAdmin)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
