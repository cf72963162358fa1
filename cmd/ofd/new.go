package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/entitypath"
	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/overlay"
	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/ui"
)

var newJSON string

var newCmd = &cobra.Command{
	Use:   "new <path>",
	Short: "Stage a new entity",
	Long: `Stage the creation of a new entity at the given catalog path. The
payload is collected interactively, or passed directly with --json for
scripted use. The path's final segment is the entity's identifier and
prefills the form.

Example usage:
  ofd new brands/Acme
  ofd new brands/Acme/materials/PLA
  ofd new stores/acme-store --json '{"id":"acme-store","name":"Acme Store"}'`,
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

		if _, exists := overlay.Entity(st.ChangeSet(), path, baseEntity(path)); exists {
			return fmt.Errorf("%s already exists; use \"ofd edit\"", path)
		}

		seed := stubFor(path)
		data, err := promptEntity(path.Kind(), seed, newJSON)
		if err != nil {
			return err
		}

		// The identifier entered in the form wins over the path argument.
		finalPath := path.WithLeaf(data.Identifier())
		if err := st.TrackCreate(finalPath.String(), data); err != nil {
			return err
		}
		logger.Info("staged create", "path", finalPath.String())

		fmt.Printf("%s Staged new %s at %s\n", ui.RenderPass("✓"), path.Kind(), finalPath)
		return nil
	},
}

func init() {
	newCmd.Flags().StringVar(&newJSON, "json", "", "entity payload as JSON (skips the interactive form)")
	rootCmd.AddCommand(newCmd)
}
