package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mvasek/face-gallery/internal/config"
	"github.com/mvasek/face-gallery/internal/recognize"
	"github.com/mvasek/face-gallery/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the Face Gallery web server.
The server accepts photo uploads, processes faces in the background, and
serves the gallery API for browsing photos and persons.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().Int("queue-size", 256, "Processing queue capacity")
	serveCmd.Flags().Bool("fake-detector", false, "Use the deterministic fake face detector")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	store, service, err := initEngine(cfg, mustGetBool(cmd, "fake-detector"))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fmt.Printf("Building in-memory HNSW index for face matching...\n")
	if err := service.EnableIndex(ctx); err != nil {
		fmt.Printf("Warning: Failed to build face HNSW index: %v\n", err)
		fmt.Printf("Face matching will scan persons directly (slower)\n")
	} else {
		fmt.Printf("Face HNSW index built with %d faces (in-memory only)\n", service.IndexCount())
	}

	queue := recognize.NewQueue(ctx, service, mustGetInt(cmd, "queue-size"))
	port, host := resolveServeHostPort(cmd)
	server := web.NewServer(cfg, store, service, queue, host, port)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting Face Gallery on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
