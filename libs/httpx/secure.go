package httpx

import "net/http"

// SecurityPolicy lists the response headers set on every page.
type SecurityPolicy struct {
	ContentSecurityPolicy string
	HSTS                  bool
}

func WithSecurityHeaders(p SecurityPolicy) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "same-origin")
			if p.ContentSecurityPolicy != "" {
				h.Set("Content-Security-Policy", p.ContentSecurityPolicy)
			}
			if p.HSTS {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}
