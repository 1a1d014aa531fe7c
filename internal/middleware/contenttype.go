// File: internal/middleware/contenttype.go
package middleware

import (
	"encoding/json"
	"mime"
	"net/http"
)

// RequireContentType answers 415 unless the request media type is one of
// types. Browsers cannot send application/json cross-origin without a
// preflight, which CORS then decides.
func RequireContentType(types ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
			if err == nil {
				for _, t := range types {
					if mediaType == t {
						next.ServeHTTP(w, r)
						return
					}
				}
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnsupportedMediaType)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "Unsupported Content-Type"})
		})
	}
}
