package api

import (
	"net/http"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
)

// RequestIDHeader carries a per-request id so client and server logs can be joined.
const RequestIDHeader = "X-Request-ID"

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// LoggingTransport tags each request with an id and logs metadata only:
// never bodies, never the Authorization header.
func LoggingTransport(log *zap.Logger, next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return roundTripFunc(func(r *http.Request) (*http.Response, error) {
		start := time.Now()
		if r.Header.Get(RequestIDHeader) == "" {
			if id, err := uuid.NewV4(); err == nil {
				r = r.Clone(r.Context())
				r.Header.Set(RequestIDHeader, id.String())
			}
		}
		resp, err := next.RoundTrip(r)

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", r.Header.Get(RequestIDHeader)),
			zap.Bool("auth", r.Header.Get("Authorization") != ""),
			zap.Duration("dur", time.Since(start)),
		}
		if err != nil {
			log.Warn("http", append(fields, zap.Error(err))...)
			return nil, err
		}
		fields = append(fields, zap.Int("status", resp.StatusCode))
		if resp.StatusCode >= 400 {
			log.Info("http", fields...)
		} else {
			log.Debug("http", fields...)
		}
		return resp, nil
	})
}
