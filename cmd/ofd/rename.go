package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/entitypath"
	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/ui"
)

var renameCmd = &cobra.Command{
	Use:   "rename <path> <new-id>",
	Short: "Move staged changes to a renamed entity path",
	Long: `Move the staged change subtree at the given path to the same location
under a new identifier. Every staged descendant path and attached image
reference is rewritten to the new prefix. Staged changes already present
at the target path are replaced.

This only relocates staged state; stage the identifier edit itself with
"ofd edit" if the entity's identifying field should change too.

Example usage:
  ofd rename brands/Acme "Acme Filaments"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		oldPath, ok := entitypath.Parse(args[0])
		if !ok {
			return fmt.Errorf("invalid entity path %q", args[0])
		}
		newPath := oldPath.WithLeaf(args[1])
		if _, ok := entitypath.Parse(newPath.String()); !ok {
			return fmt.Errorf("invalid new identifier %q", args[1])
		}

		st, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		if !st.Has(oldPath.String()) && !st.HasNestedChanges(oldPath.String()) {
			return fmt.Errorf("no staged changes at %s", oldPath)
		}

		moved, err := st.Move(oldPath.String(), newPath.String())
		if err != nil {
			return err
		}
		logger.Info("moved staged subtree", "from", oldPath.String(), "to", moved)

		fmt.Printf("%s Moved staged changes: %s -> %s\n", ui.RenderPass("✓"), oldPath, moved)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(renameCmd)
}
