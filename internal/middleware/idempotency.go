package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/adpanel/walletcore/internal/logger"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	idempotencyPrefix    = "idempotency:v1:"
	inProgressMarker     = "__in_progress__"
)

type storedResponse struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   string      `json:"body"`
}

type captureWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *captureWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency enforces idempotent semantics on unsafe methods by claiming the
// caller's Idempotency-Key in Redis before the handler runs and replaying the
// stored response on repeats. The claim is the authoritative double-submit
// guard; the UI's "submitting" flag is only a convenience.
func Idempotency(cache *redis.Client, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get(idempotencyKeyHeader)
			if key == "" {
				http.Error(w, "missing Idempotency-Key header", http.StatusBadRequest)
				return
			}

			ctx := r.Context()

			// Keys are scoped per actor so two clients reusing the same
			// token value cannot collide.
			cacheKey := idempotencyPrefix + key
			if actor, ok := GetActor(ctx); ok {
				cacheKey = idempotencyPrefix + actor.Role + ":" + strconv.FormatInt(actor.ID, 10) + ":" + key
			}

			// SetNX is the claim itself: exactly one of any set of
			// concurrent requests sharing a key wins it.
			claimed, err := cache.SetNX(ctx, cacheKey, inProgressMarker, ttl).Result()
			if err != nil {
				logger.Log.Error("idempotency reservation failed", zap.String("key", key), zap.Error(err))
				http.Error(w, "idempotency reservation failure", http.StatusInternalServerError)
				return
			}

			if !claimed {
				cached, err := cache.Get(ctx, cacheKey).Result()
				if err == redis.Nil || (err == nil && cached == inProgressMarker) {
					http.Error(w, "duplicate request currently processing", http.StatusConflict)
					return
				}
				if err != nil {
					logger.Log.Error("idempotency lookup failed", zap.String("key", key), zap.Error(err))
					http.Error(w, "idempotency store failure", http.StatusInternalServerError)
					return
				}

				var stored storedResponse
				if err := json.Unmarshal([]byte(cached), &stored); err != nil {
					logger.Log.Warn("failed to decode stored idempotent response", zap.String("key", key), zap.Error(err))
					http.Error(w, "duplicate request", http.StatusConflict)
					return
				}
				for name, values := range stored.Header {
					for _, v := range values {
						w.Header().Add(name, v)
					}
				}
				w.WriteHeader(stored.Status)
				_, _ = w.Write([]byte(stored.Body))
				return
			}

			cw := &captureWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(cw, r)

			if cw.status >= http.StatusInternalServerError {
				// Server-side failure: release the claim so the client may retry.
				cache.Del(ctx, cacheKey)
				return
			}

			// The captured body is the handler's uncompressed output; the
			// gzip layer re-encodes each replay, so its headers must not
			// be stored with it.
			header := cw.Header().Clone()
			header.Del("Content-Encoding")
			header.Del("Content-Length")

			payload, err := json.Marshal(storedResponse{Status: cw.status, Header: header, Body: cw.body.String()})
			if err != nil {
				logger.Log.Error("failed to encode idempotent response", zap.String("key", key), zap.Error(err))
				cache.Del(ctx, cacheKey)
				return
			}

			if err := cache.Set(ctx, cacheKey, payload, ttl).Err(); err != nil {
				logger.Log.Error("failed to persist idempotent response", zap.String("key", key), zap.Error(err))
				cache.Del(ctx, cacheKey)
			}
		})
	}
}
