// Package device turns the caller's User-Agent into the short client
// descriptor shown next to verification attempts.
package device

import (
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"campus/pkg/requestcontext"
)

const unknownClient = "Unknown Client"

// Describe renders a User-Agent as "Browser on OS", for example
// "Chrome on Linux" or "Safari on iPhone". Crawlers keep their bot name.
func Describe(userAgent string) string {
	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		return unknownClient
	}
	ua := useragent.New(userAgent)
	browser, _ := ua.Browser()
	browser = strings.TrimSpace(browser)

	if ua.Bot() && browser != "" {
		return browser
	}
	where := strings.TrimSpace(ua.OS())
	if ua.Mobile() {
		if p := strings.TrimSpace(ua.Platform()); p != "" {
			where = p
		}
	}
	if browser == "" {
		browser = "Unknown Browser"
	}
	if where == "" {
		where = "Unknown OS"
	}
	return browser + " on " + where
}

// Middleware stores the descriptor for the User-Agent already placed in the
// context by the metadata middleware.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx = requestcontext.WithClientDescriptor(ctx, Describe(requestcontext.UserAgent(ctx)))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
