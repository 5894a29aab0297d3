package session

import (
	"net/http"
	"net/url"
	"strings"
)

const LoginPath = "/auth/login"

// RequireAuth lets through only requests that carry a session token. Browsers are
// sent to the login page with a callback to where they were going; script calls get 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if FromContext(r.Context()).HasSession() {
			next.ServeHTTP(w, r)
			return
		}
		if WantsJSON(r) {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		http.Redirect(w, r, LoginURL(r.URL.RequestURI()), http.StatusSeeOther)
	})
}

func LoginURL(callback string) string {
	if callback == "" || callback == "/" {
		return LoginPath
	}
	return LoginPath + "?" + url.Values{"callbackUrl": {callback}}.Encode()
}

// SafeCallback keeps only same-site absolute paths.
func SafeCallback(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return "/"
	}
	return raw
}

func WantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json") || r.Method == http.MethodDelete
}
