// Recovery recovers panic and logs it on ERROR level. A JSON 500 is returned
package middleware

import (
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/pure-golang/bulkmail/httpserver"
	"github.com/pure-golang/bulkmail/logger"
)

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

			logger.FromContext(r.Context()).
				With("err", err).
				With("stack", stackLines(debug.Stack())).
				Error("Panic recovered from handler")
			httpserver.JSONError(w, r, http.StatusInternalServerError, "Internal server error")
		}()

		next.ServeHTTP(w, r)
	})
}

func stackLines(raw []byte) []string {
	var stack []string
	for _, line := range strings.Split(strings.ReplaceAll(string(raw), "\t", ""), "\n") {
		if line != "" {
			stack = append(stack, line)
		}
	}
	return stack
}
