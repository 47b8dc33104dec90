package middleware

import (
	"crypto/subtle"
	"net/http"

	"click-merchant/internal/click"
	"click-merchant/internal/logger"
	"click-merchant/internal/utils"

	"go.uber.org/zap"
)

// SessionMiddleware guards merchant endpoints with a shared token sent in
// header. Paths listed in access skip the check. With no token configured
// every other path is refused.
func SessionMiddleware(header, token string, access []string) func(http.Handler) http.Handler {
	open := make(map[string]bool, len(access))
	for _, path := range access {
		open[path] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if open[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			values, ok := r.Header[http.CanonicalHeaderKey(header)]
			if !ok || len(values) == 0 {
				reject(w, r, "Session could not perform without Auth token")
				return
			}

			if token == "" || subtle.ConstantTimeCompare([]byte(values[0]), []byte(token)) != 1 {
				reject(w, r, "Authorization error")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func reject(w http.ResponseWriter, r *http.Request, note string) {
	logger.FromCtx(r.Context()).Warn("session rejected",
		zap.String("path", r.URL.Path),
		zap.String("reason", note),
	)
	utils.WriteJSONError(w, click.ErrInternalSystem, note)
}
