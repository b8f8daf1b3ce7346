package cmd

import (
	"context"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/mvasek/face-gallery/internal/config"
	"github.com/mvasek/face-gallery/internal/database"
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Detect and resolve faces in unprocessed photos",
	Long: `Runs face detection on every photo that has not been processed yet and
assigns each detected face to a person, creating new persons as needed.
Photos that fail detection stay unprocessed and are retried next run.`,
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().Bool("fake-detector", false, "Use the deterministic fake face detector")
	processCmd.Flags().Int("limit", 0, "Maximum number of photos to process (0 = all)")
}

func runProcess(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	store, service, err := initEngine(cfg, mustGetBool(cmd, "fake-detector"))
	if err != nil {
		return err
	}

	ctx := context.Background()
	pending, err := pendingPhotos(ctx, store, mustGetInt(cmd, "limit"))
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		fmt.Println("No unprocessed photos")
		return nil
	}

	bar := progressbar.NewOptions(len(pending),
		progressbar.OptionSetDescription("Processing photos"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("photos"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	processed, failed, faces := 0, 0, 0
	for _, photo := range pending {
		n, err := service.ProcessPhoto(ctx, photo.ID, photo.FilePath)
		if err != nil {
			failed++
			fmt.Printf("\nphoto %d (%s): %v\n", photo.ID, photo.FileName, err)
		} else {
			processed++
			faces += n
		}
		bar.Add(1)
	}

	fmt.Printf("\nProcessed %d photos, %d faces resolved", processed, faces)
	if failed > 0 {
		fmt.Printf(", %d failed", failed)
	}
	fmt.Println()
	return nil
}

// pendingPhotos pages through the photo list and collects unprocessed ones.
func pendingPhotos(ctx context.Context, store database.Store, limit int) ([]database.Photo, error) {
	var pending []database.Photo
	const pageSize = 500
	for offset := 0; ; offset += pageSize {
		photos, total, err := store.ListPhotos(ctx, pageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("list photos: %w", err)
		}
		for _, p := range photos {
			if p.Processed {
				continue
			}
			pending = append(pending, p)
			if limit > 0 && len(pending) == limit {
				return pending, nil
			}
		}
		if offset+pageSize >= total {
			return pending, nil
		}
	}
}
