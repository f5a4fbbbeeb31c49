package middleware

import (
	"log"
	"net/http"
	"runtime/debug"

	"garagewatch/pkg/apierror"
)

// Recovery turns a handler panic into a 500 response. The worker shares
// its process with the tick scheduler; a panicking request must never
// take the reconciliation loop down with it.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("PANIC [%s] %s %s: %v\n%s",
					GetRequestID(r.Context()), r.Method, r.URL.Path, err, debug.Stack())

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				w.Write(apierror.InternalError("internal server error").ToJSON())
			}
		}()

		next.ServeHTTP(w, r)
	})
}
