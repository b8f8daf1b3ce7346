package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/mvasek/face-gallery/internal/thumbs"
	"github.com/mvasek/face-gallery/internal/web/handlers"
	"github.com/mvasek/face-gallery/internal/web/middleware"
)

func (s *Server) setupRoutes(gen *thumbs.Generator) {
	photosHandler := handlers.NewPhotosHandler(s.store, s.config.Storage.UploadDir)
	uploadHandler := handlers.NewUploadHandler(s.store, s.queue, gen, s.config.Storage.UploadDir)
	personsHandler := handlers.NewPersonsHandler(s.store, s.service)
	albumsHandler := handlers.NewAlbumsHandler(s.store)
	statsHandler := handlers.NewStatsHandler(s.store)
	processHandler := handlers.NewProcessHandler(s.service)

	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Photos
		r.Get("/photos", photosHandler.List)
		r.Get("/photos/{id}", photosHandler.Get)
		r.Get("/photos/{id}/file", photosHandler.File)
		r.Get("/photos/{id}/thumb", photosHandler.Thumbnail)
		r.Get("/photos/{id}/faces", photosHandler.Faces)

		// Upload
		r.Post("/upload", uploadHandler.Upload)

		// Persons
		r.Get("/persons", personsHandler.List)
		r.Get("/persons/{id}", personsHandler.Get)
		r.Get("/persons/{id}/photos", personsHandler.Photos)
		r.Get("/persons/{id}/album", albumsHandler.Download)

		// Stats
		r.Get("/stats", statsHandler.Get)

		// Admin operations behind the bearer token.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(s.config.Web.AdminToken))

			r.Put("/persons/{id}", personsHandler.Rename)
			r.Post("/persons/merge", personsHandler.Merge)
			r.Post("/process/regroup", processHandler.Regroup)
			r.Post("/process/reprocess", processHandler.Reprocess)
			r.Delete("/photos/{id}", photosHandler.Delete)
		})
	})
}
