// Command ofd is the local editor for an Open Filament Database catalog
// checkout. It stages creates, edits, renames, and deletes against the
// checkout without touching the catalog files, shows the effective merged
// view, and exports the staged diff as a single bundle for upstream
// contribution.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
