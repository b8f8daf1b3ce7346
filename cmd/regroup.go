package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mvasek/face-gallery/internal/config"
)

var regroupCmd = &cobra.Command{
	Use:   "regroup",
	Short: "Cluster unassigned faces into persons",
	Long: `Groups every face without a person assignment into new persons using
density clustering. Existing assignments are left untouched.`,
	RunE: runRegroup,
}

var reprocessCmd = &cobra.Command{
	Use:   "reprocess",
	Short: "Rebuild all identities from scratch",
	Long: `Discards every person assignment and merge flag and regroups the entire
face population. Person names assigned so far survive on their old rows
but all faces move to freshly created persons.

This operation is destructive and cannot be undone.`,
	RunE: runReprocess,
}

func init() {
	rootCmd.AddCommand(regroupCmd)
	rootCmd.AddCommand(reprocessCmd)

	reprocessCmd.Flags().Bool("yes", false, "Skip the confirmation prompt")
}

func runRegroup(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	_, service, err := initEngine(cfg, true)
	if err != nil {
		return err
	}

	created, err := service.GroupUnassigned(context.Background())
	if err != nil {
		return fmt.Errorf("regroup: %w", err)
	}
	fmt.Printf("Created %d persons\n", created)
	return nil
}

func runReprocess(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if !mustGetBool(cmd, "yes") {
		fmt.Print("This discards ALL person assignments and merges. Continue? [y/N] ")
		answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			fmt.Println("Aborted")
			return nil
		}
	}

	_, service, err := initEngine(cfg, true)
	if err != nil {
		return err
	}

	created, err := service.ReprocessAll(context.Background())
	if err != nil {
		return fmt.Errorf("reprocess: %w", err)
	}
	fmt.Printf("Reprocessed all faces into %d persons\n", created)
	return nil
}
