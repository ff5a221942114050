package middleware

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/iota-uz/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github.com/villagepulse/villagepulse/pkg/application"
	"github.com/villagepulse/villagepulse/pkg/intl"
)

// ProvideLocalizer resolves the request locale from the Accept-Language
// header and attaches a localizer backed by the application bundle.
func ProvideLocalizer(app application.Application) mux.MiddlewareFunc {
	supported := intl.GetSupportedLanguages(app.GetSupportedLanguages())
	tags := make([]language.Tag, 0, len(supported))
	for _, lang := range supported {
		tags = append(tags, lang.Tag)
	}
	matcher := language.NewMatcher(tags)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accept := r.Header.Get("Accept-Language")
			tag, _ := language.MatchStrings(matcher, accept)

			localizer := i18n.NewLocalizer(app.Bundle(), tag.String())
			ctx := intl.WithLocale(intl.WithLocalizer(r.Context(), localizer), tag)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
