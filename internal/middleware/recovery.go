package middleware

import (
	"log"
	"net/http"
	"runtime/debug"

	"isuclicker-api/pkg/apierror"
	"isuclicker-api/pkg/response"
)

// Recovery turns a handler panic into a 500 envelope. It runs outside
// RequestID, so the id is taken from the response header RequestID set.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			err := recover()
			if err == nil {
				return
			}
			if err == http.ErrAbortHandler {
				panic(err)
			}
			log.Printf("[Recovery] PANIC %s %s request=%s: %v\n%s",
				r.Method, r.URL.Path, w.Header().Get("X-Request-ID"), err, debug.Stack())
			response.Error(w, apierror.InternalError("internal server error"))
		}()

		next.ServeHTTP(w, r)
	})
}
