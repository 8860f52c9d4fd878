package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// RequestLogger logs one line per request at Info, or Warn for 4xx/5xx.
// Health checks and the metrics endpoint are skipped.
func RequestLogger(log *logrus.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if shouldSkipLogging(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			entry := log.WithFields(logrus.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      wrapped.statusCode,
				"bytes":       wrapped.bytesWritten,
				"duration_ms": float64(time.Since(start).Microseconds()) / 1000.0,
				"request_id":  r.Header.Get("X-Request-ID"),
			})
			if userID, ok := GetUserIDFromContext(r.Context()); ok {
				entry = entry.WithField("user_id", userID)
			}
			if wrapped.statusCode >= 400 {
				entry.Warn("request failed")
				return
			}
			entry.Info("request")
		})
	}
}

func shouldSkipLogging(path string) bool {
	for _, skip := range []string{"/health", "/metrics", "/favicon.ico"} {
		if strings.HasPrefix(path, skip) {
			return true
		}
	}
	return false
}
