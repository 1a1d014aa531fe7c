// In: internal/middleware/recovery.go

package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"
)

// RecoverPanic turns a handler panic into a 500 and logs the stack.
func RecoverPanic(logger Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					logger.Error("[PANIC] recovered", "error", err, "path", r.URL.Path,
						"request_id", RequestIDFromContext(r.Context()), "stack", string(debug.Stack()))

					w.Header().Set("Connection", "close")
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{"error": "Something went wrong on our end."})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
