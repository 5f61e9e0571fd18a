package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vrcdolly/dolly-agent/internal/dolly"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoopbackGuard())
	r.Use(CORSAllowlist())
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Store, cfg.Logger))

		r.Route("/paths", func(r chi.Router) {
			r.Get("/", listPathsHandler(cfg))
			r.Put("/", setPathsHandler(cfg))
			r.Post("/", addPathHandler(cfg))
			r.Put("/{path}", updatePathHandler(cfg))
			r.Delete("/{path}", removePathHandler(cfg))

			r.Post("/{path}/points", addPointHandler(cfg))
			r.Post("/{path}/points/{index}", insertPointHandler(cfg))
			r.Put("/{path}/points/{index}", updatePointHandler(cfg))
			r.Delete("/{path}/points/{index}", removePointHandler(cfg))
			r.Post("/{path}/points/{index}/duplicate", duplicatePointHandler(cfg))
			r.Post("/{path}/points/{index}/move", movePointHandler(cfg))
		})

		r.Get("/document", getDocumentHandler(cfg))
		r.Post("/document/new", newDocumentHandler(cfg))
		r.Post("/document/open", openDocumentHandler(cfg))
		r.Post("/document/save", saveDocumentHandler(cfg))
		r.Post("/document/save-as", saveAsDocumentHandler(cfg))
		r.Get("/document/json", exportDocumentHandler(cfg))
		r.Post("/document/import", importDocumentHandler(cfg))
		r.Post("/validate", validateHandler(cfg))

		r.Get("/snapshots", listSnapshotsHandler(cfg))
		r.Post("/snapshots/{id}/restore", restoreSnapshotHandler(cfg))
		r.Get("/recent", recentFilesHandler(cfg))

		r.Post("/osc/play", oscPlayHandler(cfg))
		r.Post("/osc/play-delayed", oscPlayDelayedHandler(cfg))
		r.Post("/osc/export", oscExportHandler(cfg))
		r.Post("/osc/import", oscImportHandler(cfg))
		r.Post("/osc/chatbox", oscChatboxHandler(cfg))

		if cfg.Preview != nil {
			r.Get("/preview/stream", cfg.Preview.ServeHTTP)
		}
		r.Post("/export/timeline", exportTimelineHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		paths := cfg.Manager.Paths()
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: cfg.Version,
			UptimeS: int64(time.Since(cfg.StartTime).Seconds()),
			Paths:   len(paths),
			Points:  dolly.CountPoints(paths),
		})
	}
}
