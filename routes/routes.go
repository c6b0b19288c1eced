package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pinte/recruiting/app"
	"github.com/pinte/recruiting/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer)

	root.Mount("/api", apiRouter(app))

	root.
		With(middlewares.CookieAuth(app.BearerServer), middlewares.Admin(app.TokenSecret)).
		Mount("/admin", servePrivateFiles("/admin"))
	root.Mount("/", servePublicFiles())

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	// candidate-facing form endpoints
	api.Get("/positions", ListPositions(app))
	api.Post("/candidates", CreateCandidate(app))
	api.Get("/questionnaires/steps", GetQuestionnaireSteps(app))
	api.Post("/responses", SubmitResponse(app))

	api.Route("/admin", func(r chi.Router) {
		r.Use(middlewares.Admin(app.TokenSecret))

		// CRUD questionnaire templates
		r.Post("/templates", CreateTemplate(app))
		r.Get("/templates", ListTemplates(app))
		r.Get(`/templates/{id:^\d+$}`, GetTemplateById(app))
		r.Put(`/templates/{id:^\d+$}`, UpdateTemplate(app))
		r.Delete(`/templates/{id:^\d+$}`, DeleteTemplate(app))
		r.Post(`/templates/{id:^\d+$}/activate`, SetTemplateActive(app, true))
		r.Post(`/templates/{id:^\d+$}/deactivate`, SetTemplateActive(app, false))
		r.Post(`/templates/{id:^\d+$}/step`, UpdateTemplateStep(app))
		r.Get(`/templates/{id:^\d+$}/stats`, GetTemplateStats(app))

		// questions and options; writes re-score stored responses
		r.Post(`/templates/{id:^\d+$}/questions`, CreateQuestion(app))
		r.Put(`/questions/{id:^\d+$}`, UpdateQuestion(app))
		r.Delete(`/questions/{id:^\d+$}`, DeleteQuestion(app))
		r.Post(`/questions/{id:^\d+$}/options`, CreateOption(app))
		r.Put(`/options/{id:^\d+$}`, UpdateOption(app))
		r.Delete(`/options/{id:^\d+$}`, DeleteOption(app))

		r.Get("/responses", ListResponses(app))
		r.Get("/analytics/positions", AnalyticsByPosition(app))
		r.Get("/analytics/options", OptionDistribution(app))

		r.Post("/positions", CreatePosition(app))
		r.Put(`/positions/{id:^\d+$}`, UpdatePosition(app))
	})

	api.Post("/login", Login(app))
	api.Post("/refresh", Refresh(app))

	return api
}

func servePublicFiles() http.Handler {
	return http.FileServer(http.Dir("public"))
}

func servePrivateFiles(path string) http.Handler {
	return http.StripPrefix(path, http.FileServer(http.Dir("private")))
}
