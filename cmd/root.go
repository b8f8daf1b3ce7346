// Package cmd implements the face-gallery command line interface.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "face-gallery",
	Short: "A photo gallery that organizes photos by the people in them",
	Long: `Face Gallery ingests photos, detects the faces in them, and groups the
faces into persons so every photo of the same person lands in the same
album. Identities build up incrementally as photos arrive and can be
renamed, merged, or rebuilt from scratch.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
