package cmd

import (
	"errors"
	"fmt"

	"github.com/mvasek/face-gallery/internal/config"
	"github.com/mvasek/face-gallery/internal/database"
	"github.com/mvasek/face-gallery/internal/database/postgres"
	"github.com/mvasek/face-gallery/internal/detect"
	"github.com/mvasek/face-gallery/internal/recognize"
)

// newDetector picks the detection provider. The fake provider generates
// deterministic detections from file names so the full pipeline runs without
// a model.
func newDetector(cfg *config.Config, fake bool) detect.Provider {
	if fake {
		fmt.Println("Using fake face detector (deterministic, no model)")
		return detect.NewFakeProvider(cfg.Recognition.EmbeddingDim)
	}
	return detect.NewHTTPProvider(cfg.Detector.URL, cfg.Recognition.EmbeddingDim)
}

// initEngine connects to PostgreSQL and wires the resolution engine.
func initEngine(cfg *config.Config, fakeDetector bool) (database.Store, *recognize.Service, error) {
	if cfg.Database.URL == "" {
		return nil, nil, errors.New("DATABASE_URL environment variable is required")
	}

	fmt.Printf("Connecting to PostgreSQL database...\n")
	if err := postgres.Initialize(&cfg.Database); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}

	store := postgres.NewStore(postgres.GetGlobalPool())
	service := recognize.NewService(store, newDetector(cfg, fakeDetector), cfg.Recognition)
	return store, service, nil
}
