package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"vignette/internal/logging"
	"vignette/internal/services"
)

// requestLogger stamps the chi request id into the service context and
// emits one structured line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()
		if reqID := middleware.GetReqID(ctx); reqID != "" {
			ctx = services.WithRequestID(ctx, reqID)
		}
		wrapped := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(wrapped, r.WithContext(ctx))

		logging.WithContext(ctx, s.logger).Info("request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", wrapped.Status()),
			logging.Duration(logging.FieldDuration, time.Since(start)))
	})
}

// corsMiddleware answers preflight requests and opens the API to
// browser clients. The daemon binds to loopback by default, so this is
// for the local frontend, not a public surface.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
