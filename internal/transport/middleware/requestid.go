package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/frahmantamala/gym-management/pkg/logger"
)

const HeaderTraceID = "X-Trace-ID"

// RequestID reuses an inbound X-Trace-ID or mints one, and attaches it to the
// request logger and the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(HeaderTraceID)
		if _, err := uuid.Parse(traceID); err != nil {
			traceID = uuid.NewString()
		}

		ctx := logger.With(r.Context(), "trace_id", traceID)
		w.Header().Set(HeaderTraceID, traceID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
