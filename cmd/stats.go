package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mvasek/face-gallery/internal/config"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show gallery statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	store, _, err := initEngine(cfg, true)
	if err != nil {
		return err
	}

	stats, err := store.GalleryStats(context.Background())
	if err != nil {
		return fmt.Errorf("gallery stats: %w", err)
	}

	fmt.Printf("Photos:    %d (%d processed)\n", stats.TotalPhotos, stats.ProcessedPhotos)
	fmt.Printf("Faces:     %d\n", stats.TotalFaces)
	fmt.Printf("Persons:   %d\n", stats.TotalPersons)
	fmt.Printf("Storage:   %.1f MB\n", float64(stats.StorageBytes)/(1<<20))
	return nil
}
