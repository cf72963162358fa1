package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show staged changes",
	Long: `Show a summary of the staged changes and the full change list in
hierarchy order: stores first, then brands, each subtree depth-first.

Example usage:
  ofd status`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		summary := st.Summary()
		if summary.Total == 0 && summary.Images == 0 {
			fmt.Println("No staged changes.")
			return nil
		}

		fmt.Printf("Staged: %d created, %d modified, %d deleted",
			summary.Creates, summary.Updates, summary.Deletes)
		if summary.Images > 0 {
			fmt.Printf(", %d image(s)", summary.Images)
		}
		fmt.Println()
		fmt.Println()

		for _, change := range st.AllChanges() {
			fmt.Printf("  %s %s\n", ui.OperationGlyph(change.Operation), change.Entity.Path)
		}

		if !st.LastModified().IsZero() {
			fmt.Println()
			fmt.Println(ui.RenderDim("Last modified: " + st.LastModified().Local().Format("2006-01-02 15:04:05")))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
