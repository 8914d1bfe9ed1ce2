package i18n

import "net/http"

// LangCookie remembers a language chosen with ?lang=.
const LangCookie = "lang"

// Middleware injects a localizer into every request context. The language is
// taken from ?lang=, then the lang cookie, then Accept-Language, and falls
// back to the language passed to Init. The lang cookie is scoped to basePath.
func Middleware(basePath string, secureCookies bool) func(http.Handler) http.Handler {
	cookiePath := "/"
	if basePath != "" {
		cookiePath = basePath + "/"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var prefs []string
			if q := r.URL.Query().Get("lang"); q != "" {
				lang := Match(q)
				http.SetCookie(w, &http.Cookie{
					Name:     LangCookie,
					Value:    lang,
					Path:     cookiePath,
					Secure:   secureCookies,
					SameSite: http.SameSiteLaxMode,
				})
				prefs = append(prefs, lang)
			}
			if c, err := r.Cookie(LangCookie); err == nil {
				prefs = append(prefs, c.Value)
			}
			prefs = append(prefs, r.Header.Get("Accept-Language"))

			ctx := WithLang(r.Context(), Match(prefs...))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
