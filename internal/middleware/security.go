package middleware

import (
	"fmt"
	"net/http"

	"github.com/templui/spaces/internal/ctxkeys"
)

// SecurityHeaders sets CSP and the usual hardening headers. S3 endpoints
// are allowed as image and media sources for presigned downloads.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		media := ""
		if cfg := ctxkeys.Config(r.Context()); cfg != nil && cfg.S3Endpoint != "" {
			media = " " + cfg.S3Endpoint
		}

		csp := fmt.Sprintf("default-src 'self'; script-src 'self' 'nonce-%s'; style-src 'self' 'unsafe-inline'; img-src 'self' data:%s; media-src 'self'%s; frame-ancestors 'none'; form-action 'self'",
			GetNonce(r.Context()), media, media)

		h := w.Header()
		h.Set("Content-Security-Policy", csp)
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}
