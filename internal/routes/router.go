package routes

import (
	"log/slog"

	"iruka_console/internal/config"
	"iruka_console/internal/controllers"
	"iruka_console/internal/gateway"
	appmw "iruka_console/internal/middleware"
	"iruka_console/internal/services"
	"iruka_console/internal/storage/mariadb"
	"iruka_console/internal/storage/objstore"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func SetupRouter(
	log *slog.Logger,
	storage *mariadb.Storage,
	store objstore.Store,
	auth *appmw.AuthMiddleware,
	cfg *config.Config,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.HTTPServer.Cors,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	gw := gateway.New(store, cfg.Storage.CDNBaseURL, log)

	gameService := services.NewGameService(storage, log)
	versionService := services.NewVersionService(storage, log)
	auditService := services.NewAuditService(storage, log)
	uploadService := services.NewUploadService(gameService, versionService, gw, store, cfg.Storage.SignedURLTTL, log)
	lifecycleService := services.NewLifecycleService(gameService, versionService, auditService, log)

	gameController := controllers.NewGameController(gameService, versionService, auditService, log)
	uploadController := controllers.NewUploadController(uploadService, cfg.Storage.MaxDirectUploadBytes, log)
	lifecycleController := controllers.NewLifecycleController(lifecycleService, log)

	r.Route("/api/games", func(r chi.Router) {
		r.Use(auth.ValidateToken)

		r.Get("/", gameController.List)
		r.Post("/", gameController.Create)

		r.Route("/{gameRef}", func(r chi.Router) {
			r.Get("/", gameController.Get)
			r.Delete("/", gameController.Delete)
			r.Get("/versions", gameController.ListVersions)
			r.Get("/history", gameController.History)
			r.Get("/audit", gameController.AuditLog)

			r.Route("/versions/{version}", func(r chi.Router) {
				r.Post("/upload-url", uploadController.RequestUploadSlot)
				r.Post("/upload", uploadController.Upload)
				r.Post("/complete", uploadController.Complete)
			})

			r.Post("/submit-qc", lifecycleController.SubmitQC)
			r.Post("/decision", lifecycleController.Decide)
			r.Post("/publish", lifecycleController.Publish)
		})
	})

	return r
}
