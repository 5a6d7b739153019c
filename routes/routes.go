package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/nmwangi/efootball-league/handlers"
	"github.com/nmwangi/efootball-league/middleware"
	"github.com/nmwangi/efootball-league/models"
)

// SetupRoutes mounts the public API, the admin API behind JWT auth, the
// PayFlow webhook and the live websocket endpoint.
func SetupRoutes(
	router *chi.Mux,
	jwtSecret []byte,
	authHandler *handlers.AuthHandler,
	playerHandler *handlers.PlayerHandler,
	tournamentHandler *handlers.TournamentHandler,
	fixtureHandler *handlers.FixtureHandler,
	resultHandler *handlers.ResultHandler,
	standingsHandler *handlers.StandingsHandler,
	paymentHandler *handlers.PaymentHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/swagger/*", httpSwagger.WrapHandler)

	router.Post("/auth/signin", authHandler.SignInHandler)

	// PayFlow callback is authenticated by checkout id, not by JWT.
	router.Post("/payments/payflow/callback", paymentHandler.CallbackHandler)

	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)

	// Public read API.
	router.Group(func(r chi.Router) {
		r.Get("/players", playerHandler.ListHandler)
		r.Get("/players/{playerID}", playerHandler.GetByIDHandler)
		r.Get("/players/{playerID}/fixtures", fixtureHandler.ListByPlayerHandler)

		r.Get("/tournaments", tournamentHandler.ListHandler)
		r.Get("/tournaments/{tournamentID}", tournamentHandler.GetByIDHandler)
		r.Get("/tournaments/{tournamentID}/details", tournamentHandler.GetDetailsHandler)
		r.Get("/tournaments/{tournamentID}/fixtures", fixtureHandler.ListByTournamentHandler)
		r.Get("/tournaments/{tournamentID}/results", resultHandler.ListByTournamentHandler)
		r.Get("/tournaments/{tournamentID}/standings", standingsHandler.TableHandler)
		r.Get("/tournaments/{tournamentID}/players/{playerID}/form", standingsHandler.FormHandler)
		r.Get("/tournaments/{tournamentID}/head-to-head", standingsHandler.HeadToHeadHandler)

		r.Get("/fixtures/{fixtureID}", fixtureHandler.GetByIDHandler)
		r.Get("/fixtures/{fixtureID}/result", resultHandler.GetByFixtureHandler)
	})

	// Self-service registration endpoints used by the public site.
	router.Group(func(r chi.Router) {
		r.Post("/tournaments/{tournamentID}/payments", paymentHandler.InitiateHandler)
		r.Post("/players/{playerID}/device-tokens", playerHandler.RegisterDeviceTokenHandler)
	})

	// Admin API.
	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(jwtSecret))
		r.Use(middleware.Authorize(models.RoleAdmin, models.RoleSuperAdmin))

		r.Get("/admin/dashboard", authHandler.DashboardHandler)

		r.Post("/players", playerHandler.CreateHandler)
		r.Put("/players/{playerID}", playerHandler.UpdateHandler)
		r.Delete("/players/{playerID}", playerHandler.DeleteHandler)
		r.Post("/players/{playerID}/photo", playerHandler.UploadPhotoHandler)

		r.Post("/tournaments", tournamentHandler.CreateHandler)
		r.Put("/tournaments/{tournamentID}", tournamentHandler.UpdateHandler)
		r.Patch("/tournaments/{tournamentID}/status", tournamentHandler.UpdateStatusHandler)
		r.Post("/tournaments/{tournamentID}/logo", tournamentHandler.UploadLogoHandler)
		r.Delete("/tournaments/{tournamentID}", tournamentHandler.DeleteHandler)

		r.Post("/tournaments/{tournamentID}/players/{playerID}", playerHandler.JoinLeagueHandler)
		r.Post("/tournaments/{tournamentID}/fixtures/generate", fixtureHandler.GenerateHandler)
		r.Post("/tournaments/{tournamentID}/advance-round", fixtureHandler.AdvanceRoundHandler)
		r.Post("/tournaments/{tournamentID}/results/import", resultHandler.ImportHandler)
		r.Get("/tournaments/{tournamentID}/payments", paymentHandler.ListByTournamentHandler)

		r.Post("/fixtures", fixtureHandler.CreateHandler)
		r.Patch("/fixtures/{fixtureID}/schedule", fixtureHandler.RescheduleHandler)
		r.Delete("/fixtures/{fixtureID}", fixtureHandler.DeleteHandler)
		r.Post("/fixtures/{fixtureID}/result", resultHandler.RecordHandler)

		r.Delete("/results/{resultID}", resultHandler.DeleteHandler)
		r.Get("/payments/{paymentID}", paymentHandler.GetByIDHandler)
	})
}
