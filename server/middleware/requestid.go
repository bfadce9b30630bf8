package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/kbukum/audioreport/logger"
	"github.com/kbukum/audioreport/validation"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-Id"

// RequestID tags every request with a UUID. A client-supplied id is kept
// only when it is a valid UUID, since it ends up in report file names.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			v := validation.New()
			v.OptionalUUID(RequestIDHeader, id)
			if id == "" || v.Validate() != nil {
				id = uuid.NewString()
			}
			r.Header.Set(RequestIDHeader, id)
			w.Header().Set(RequestIDHeader, id)
			next.ServeHTTP(w, r.WithContext(logger.ContextWithRequestID(r.Context(), id)))
		})
	}
}
