package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/entitypath"
	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/ui"
)

var revertAll bool

var revertCmd = &cobra.Command{
	Use:   "revert [path]",
	Short: "Discard staged changes",
	Long: `Discard the staged change at the given path, or every staged change
and image with --all. Reverting a path only removes the change at that
exact path; nested changes beneath it stay staged.

Example usage:
  ofd revert brands/Acme/materials/PLA
  ofd revert --all`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		if revertAll {
			if len(args) > 0 {
				return fmt.Errorf("--all takes no path argument")
			}
			total := st.Summary().Total
			if err := st.Clear(); err != nil {
				return err
			}
			logger.Info("cleared staged changes", "count", total)
			fmt.Printf("%s Discarded %d staged change(s)\n", ui.RenderPass("✓"), total)
			return nil
		}

		if len(args) == 0 {
			return fmt.Errorf("a path is required unless --all is given")
		}
		path, ok := entitypath.Parse(args[0])
		if !ok {
			return fmt.Errorf("invalid entity path %q", args[0])
		}
		if !st.Has(path.String()) {
			return fmt.Errorf("no staged change at %s", path)
		}
		if err := st.Remove(path.String()); err != nil {
			return err
		}
		logger.Info("reverted staged change", "path", path.String())
		fmt.Printf("%s Reverted staged change at %s\n", ui.RenderPass("✓"), path)
		return nil
	},
}

func init() {
	revertCmd.Flags().BoolVar(&revertAll, "all", false, "discard every staged change")
	rootCmd.AddCommand(revertCmd)
}
