package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/groupbuy-backend/api/controllers"
	commitmentcontrollers "github.com/angelmondragon/groupbuy-backend/api/controllers/commitments"
	"github.com/angelmondragon/groupbuy-backend/api/middleware"
	"github.com/angelmondragon/groupbuy-backend/internal/commitments"
	"github.com/angelmondragon/groupbuy-backend/internal/periods"
	"github.com/angelmondragon/groupbuy-backend/pkg/config"
	"github.com/angelmondragon/groupbuy-backend/pkg/enums"
	"github.com/angelmondragon/groupbuy-backend/pkg/logger"
)

// Dependencies are the services the HTTP surface routes to.
type Dependencies struct {
	DB          controllers.Pinger
	Redis       controllers.Pinger
	Commitments commitments.Service
	Exporter    commitmentcontrollers.Exporter
	Periods     periods.Calculator
	Metrics     http.Handler
	Now         func() time.Time
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	now := deps.Now
	if now == nil {
		now = time.Now
	}
	metricsHandler := deps.Metrics
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    deps.DB,
			"redis": deps.Redis,
		}))
	})
	r.Handle("/metrics", metricsHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Actor(logg))

		r.Get("/periods", controllers.CommitmentPeriod(deps.Periods, now, logg))

		r.Route("/deals/{dealId}", func(r chi.Router) {
			r.With(middleware.RequireActorType(logg, enums.ActorTypeMember)).
				Post("/commitments", commitmentcontrollers.Create(deps.Commitments, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireActorType(logg, enums.ActorTypeDistributor, enums.ActorTypeAdmin))
				r.Post("/bulk-decision", commitmentcontrollers.BulkDecision(deps.Commitments, logg))
				r.Post("/decision-change", commitmentcontrollers.DecisionChange(deps.Commitments, logg))
				r.Get("/commitments/export", commitmentcontrollers.Export(deps.Exporter, logg))
			})
		})

		r.With(middleware.RequireActorType(logg, enums.ActorTypeDistributor, enums.ActorTypeAdmin)).
			Patch("/commitments/{commitmentId}/status", commitmentcontrollers.UpdateStatus(deps.Commitments, logg))
	})

	return r
}
