package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/entitypath"
	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/overlay"
	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/ui"
)

var editJSON string

var editCmd = &cobra.Command{
	Use:   "edit <path>",
	Short: "Stage an edit to an entity",
	Long: `Stage an edit to the entity at the given catalog path. The form is
prefilled with the effective current value (staged edits layered over the
checkout), and only the fields that actually differ from the original are
recorded. Saving a form with no effective difference reverts any staged
change at the path.

Example usage:
  ofd edit brands/Prusament
  ofd edit brands/Prusament/materials/PLA/filaments/Galaxy\ Black
  ofd edit stores/acme-store --json '{"id":"acme-store","name":"Acme"}'`,
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
		effective, exists := overlay.Entity(st.ChangeSet(), path, base)
		if !exists {
			return fmt.Errorf("no entity at %s", path)
		}

		updated, err := promptEntity(path.Kind(), effective, editJSON)
		if err != nil {
			return err
		}

		if err := st.TrackUpdate(path.String(), base, updated); err != nil {
			return err
		}
		logger.Info("staged update", "path", path.String())

		change, staged := st.Change(path.String())
		switch {
		case !staged:
			fmt.Printf("%s No difference from the original; staged change reverted\n", ui.RenderPass("✓"))
		case len(change.Properties) > 0:
			fmt.Printf("%s Staged edit to %s (%d field(s) changed)\n",
				ui.RenderPass("✓"), path, len(change.Properties))
		default:
			fmt.Printf("%s Staged edit to %s\n", ui.RenderPass("✓"), path)
		}
		// An identifier change re-keys the entry in listings but leaves the
		// staged path alone; "ofd rename" moves the subtree itself.
		if staged && updated.Identifier() != path.Leaf() {
			fmt.Printf("  %s\n", ui.RenderDim(fmt.Sprintf("identifier changed to %q; use \"ofd rename\" to move nested changes", updated.Identifier())))
		}
		return nil
	},
}

func init() {
	editCmd.Flags().StringVar(&editJSON, "json", "", "entity payload as JSON (skips the interactive form)")
	rootCmd.AddCommand(editCmd)
}
