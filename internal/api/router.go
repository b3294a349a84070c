package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires every route and the middleware chain.
func NewRouter(h *Handler, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(RecoverMiddleware(h.Logger))
	r.Use(LoggingMiddleware(h.Logger))
	r.Use(CorsMiddleware(allowedOrigins))

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(h.SessionMiddleware)

		r.Get("/translations", h.ListTranslations)
		r.Post("/translations", h.CreateTranslation)
		r.Delete("/translations", h.DeleteTranslations)

		r.Get("/vocabulary", h.ListVocabulary)
		r.Post("/vocabulary", h.CreateVocabulary)
		r.Delete("/vocabulary", h.DeleteVocabulary)

		r.Post("/google-translate", h.Translate)
		r.Post("/detect-language", h.DetectLanguage)
		r.Post("/translate-document", h.TranslateDocument)
		r.Get("/stats", h.GetStats)

		r.Route("/auth", func(r chi.Router) {
			r.Get("/signin", h.SignIn)
			r.Get("/callback", h.Callback)
			r.Post("/signout", h.SignOut)
			r.Get("/session", h.Session)
		})
	})

	return r
}
