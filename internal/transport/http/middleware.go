package httptransport

import (
	"context"
	"fmt"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/mssola/useragent"
	"go.uber.org/zap"
)

type contextKey string

const deviceKey contextKey = "device"

// deviceMiddleware derives a coarse device label ("Firefox on Linux") from
// the User-Agent for audit events. It never identifies a user, only the
// client software.
func deviceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		label := deviceLabel(r.UserAgent())
		ctx := context.WithValue(r.Context(), deviceKey, label)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func deviceLabel(rawUA string) string {
	if rawUA == "" {
		return ""
	}
	ua := useragent.New(rawUA)
	name, _ := ua.Browser()
	os := ua.OSInfo().Name
	switch {
	case name != "" && os != "":
		return fmt.Sprintf("%s on %s", name, os)
	case name != "":
		return name
	default:
		return os
	}
}

// DeviceFrom returns the device label attached by deviceMiddleware.
func DeviceFrom(ctx context.Context) string {
	if v, ok := ctx.Value(deviceKey).(string); ok {
		return v
	}
	return ""
}

// requestLogger logs one line per request in the structured format the rest
// of the application uses.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", chimiddleware.GetReqID(r.Context())),
			)
		})
	}
}
