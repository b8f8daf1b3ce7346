package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mvasek/face-gallery/internal/config"
	"github.com/mvasek/face-gallery/internal/names"
)

var personsCmd = &cobra.Command{
	Use:   "persons",
	Short: "List recognized persons",
	Long:  `Lists all active persons with their photo and face counts.`,
	RunE:  runPersons,
}

var renameCmd = &cobra.Command{
	Use:   "rename [person-id] [name]",
	Short: "Rename a person",
	Args:  cobra.ExactArgs(2),
	RunE:  runRename,
}

var mergeCmd = &cobra.Command{
	Use:   "merge [survivor-id] [absorbed-id]",
	Short: "Merge one person into another",
	Long: `Moves every face of the absorbed person to the survivor and retires the
absorbed identity. Already-merged persons cannot take part in a merge.`,
	Args: cobra.ExactArgs(2),
	RunE: runMerge,
}

func init() {
	rootCmd.AddCommand(personsCmd)
	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(mergeCmd)

	personsCmd.Flags().String("filter", "", "Filter persons by name (diacritics insensitive)")
}

func runPersons(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	store, _, err := initEngine(cfg, true)
	if err != nil {
		return err
	}

	persons, err := store.ActivePersons(context.Background())
	if err != nil {
		return fmt.Errorf("list persons: %w", err)
	}

	filter := mustGetString(cmd, "filter")
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPHOTOS\tFACES")
	shown := 0
	for _, p := range persons {
		if !names.Matches(p.Name, filter) {
			continue
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\n", p.ID, p.Name, p.PhotoCount, p.FaceCount)
		shown++
	}
	w.Flush()
	fmt.Printf("\n%d persons\n", shown)
	return nil
}

func runRename(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	var id int64
	if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
		return fmt.Errorf("invalid person id %q", args[0])
	}

	_, service, err := initEngine(cfg, true)
	if err != nil {
		return err
	}

	if err := service.RenamePerson(context.Background(), id, args[1]); err != nil {
		return fmt.Errorf("rename person %d: %w", id, err)
	}
	fmt.Printf("Person %d renamed to %s\n", id, args[1])
	return nil
}

func runMerge(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	var survivorID, absorbedID int64
	if _, err := fmt.Sscanf(args[0], "%d", &survivorID); err != nil {
		return fmt.Errorf("invalid survivor id %q", args[0])
	}
	if _, err := fmt.Sscanf(args[1], "%d", &absorbedID); err != nil {
		return fmt.Errorf("invalid absorbed id %q", args[1])
	}

	_, service, err := initEngine(cfg, true)
	if err != nil {
		return err
	}

	if err := service.MergePersons(context.Background(), survivorID, absorbedID); err != nil {
		return fmt.Errorf("merge: %w", err)
	}
	fmt.Printf("Person %d merged into person %d\n", absorbedID, survivorID)
	return nil
}
