package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/entitypath"
	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/overlay"
	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/ui"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <path>",
	Short: "Stage the deletion of an entity",
	Long: `Stage the deletion of the entity at the given catalog path. Staged
changes beneath it are discarded (a deleted entity takes its edit subtree
with it), and deleting an entity that only exists as a staged creation
simply discards the creation.

Example usage:
  ofd delete brands/Acme/materials/PLA
  ofd delete stores/acme-store`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, ok := entitypath.Parse(args[0])
		if !ok {
			return fmt.Errorf("invalid entity path %q", args[0])
		}

		st, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		base := baseEntity(path)
		if _, exists := overlay.Entity(st.ChangeSet(), path, base); !exists {
			return fmt.Errorf("no entity at %s", path)
		}

		discarded, err := st.TrackDelete(path.String(), base)
		if err != nil {
			return err
		}
		logger.Info("staged delete", "path", path.String(), "discarded", discarded)

		fmt.Printf("%s Staged deletion of %s\n", ui.RenderError("✗"), path)
		if discarded > 0 {
			fmt.Printf("  %s\n", ui.RenderDim(fmt.Sprintf("discarded %d staged change(s) beneath it", discarded)))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
