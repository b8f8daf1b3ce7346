// Package web serves the gallery HTTP API.
package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/mvasek/face-gallery/internal/config"
	"github.com/mvasek/face-gallery/internal/database"
	"github.com/mvasek/face-gallery/internal/recognize"
	"github.com/mvasek/face-gallery/internal/thumbs"
	"github.com/mvasek/face-gallery/internal/web/middleware"
)

// Server is the gallery web server.
type Server struct {
	config     *config.Config
	router     *chi.Mux
	httpServer *http.Server
	store      database.Store
	service    *recognize.Service
	queue      *recognize.Queue
}

// NewServer wires the HTTP API around the store and the resolution engine.
func NewServer(cfg *config.Config, store database.Store, service *recognize.Service, queue *recognize.Queue, host string, port int) *Server {
	r := chi.NewRouter()

	s := &Server{
		config:  cfg,
		router:  r,
		store:   store,
		service: service,
		queue:   queue,
	}

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(5 * time.Minute))
	r.Use(middleware.CORS())

	s.setupRoutes(thumbs.NewGenerator(cfg.Thumbnails.MaxSize, cfg.Thumbnails.JPEGQuality))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // uploads and album downloads
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	log.Printf("Starting web server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server and drains the processing queue.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down web server...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	if s.queue != nil {
		s.queue.Stop()
	}
	return nil
}
