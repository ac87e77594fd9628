// Package http carries the languages of incoming requests into the handler
// context for the localization package.
package http

import (
	"net/http"

	"github.com/pitabwire/resources/localization"
)

// LanguageHTTPMiddleware stores the languages of the lang form value and the
// Accept-Language header in the request context.
func LanguageHTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l := localization.ExtractLanguageFromHTTPRequest(r); len(l) > 0 {
			r = r.WithContext(localization.ToContext(r.Context(), l))
		}

		next.ServeHTTP(w, r)
	})
}
