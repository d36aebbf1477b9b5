package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	gateHandler "github.com/inkwell-apps/daily-reflection/internal/handler/gate"
	pageHandler "github.com/inkwell-apps/daily-reflection/internal/handler/page"
	reflectionHandler "github.com/inkwell-apps/daily-reflection/internal/handler/reflection"
	middlewarePkg "github.com/inkwell-apps/daily-reflection/internal/middleware"
	"github.com/inkwell-apps/daily-reflection/internal/reveal"
	gateService "github.com/inkwell-apps/daily-reflection/internal/service/gate"
	poemService "github.com/inkwell-apps/daily-reflection/internal/service/poem"
	sessionService "github.com/inkwell-apps/daily-reflection/internal/service/session"
	"github.com/inkwell-apps/daily-reflection/pkg/utils"
)

// NewRouter wires HTTP routes to core services. poemSvc may be nil when the
// provider credential is missing; the gate and the page keep working.
func NewRouter(sessions sessionService.Store, gateSvc *gateService.Service, poemSvc *poemService.Service, revealer *reveal.Revealer) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Liveness probe stays outside the session middleware so probes never
	// allocate sessions.
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	pageHandler.New().RegisterRoutes(r)

	r.Route("/api", func(api chi.Router) {
		api.Use(middlewarePkg.Session(sessions))

		gateHandler.New(gateSvc, sessions, poemSvc != nil).RegisterRoutes(api)
		reflectionHandler.New(poemSvc, sessions, revealer).RegisterRoutes(api)
	})

	return r
}
