package authz

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	derrors "civid/pkg/domain-errors"
	"civid/pkg/platform/httputil"
	"civid/pkg/requestcontext"
)

var errMalformedAuthHeader = derrors.New(derrors.CodeUnauthorized, "malformed authorization header")

// Middleware authenticates bearer tokens and stamps the actor, request ID and
// request time into the context. Requests without a token pass through
// unauthenticated; individual services reject them through the authorizer.
func Middleware(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			requestID := r.Header.Get("X-Request-Id")
			if requestID == "" {
				requestID = uuid.NewString()
			}
			ctx = requestcontext.WithRequestID(ctx, requestID)
			ctx = requestcontext.WithTime(ctx, time.Now())

			if header := r.Header.Get("Authorization"); header != "" {
				tokenString, ok := strings.CutPrefix(header, "Bearer ")
				if !ok {
					httputil.WriteError(w, errMalformedAuthHeader)
					return
				}
				actor, role, err := tokens.Validate(tokenString)
				if err != nil {
					httputil.WriteError(w, err)
					return
				}
				ctx = requestcontext.WithActor(ctx, actor, role)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
