package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/adpanel/walletcore/internal/logger"
)

// gzipWriter routes handler output through the compressor while keeping the
// original ResponseWriter for headers and status.
type gzipWriter struct {
	http.ResponseWriter
	gz *gzip.Writer
}

func (w gzipWriter) Write(b []byte) (int, error) {
	return w.gz.Write(b)
}

// WithGzip transparently decompresses gzip request bodies and compresses
// responses for clients that send Accept-Encoding. History pages are the main
// beneficiary.
func WithGzip() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Content-Encoding") == "gzip" {
				body, err := gzip.NewReader(r.Body)
				if err != nil {
					http.Error(w, "invalid gzip body", http.StatusBadRequest)
					return
				}
				defer func() {
					if err := body.Close(); err != nil {
						logger.Log.Error("failed to close gzip request body", zap.Error(err))
					}
				}()
				r.Body = io.NopCloser(body)
			}

			if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
				next.ServeHTTP(w, r)
				return
			}

			gz := gzip.NewWriter(w)
			defer func() {
				if err := gz.Close(); err != nil {
					logger.Log.Error("failed to close gzip writer", zap.Error(err))
				}
			}()

			w.Header().Set("Content-Encoding", "gzip")
			next.ServeHTTP(gzipWriter{ResponseWriter: w, gz: gz}, r)
		})
	}
}
