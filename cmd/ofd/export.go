package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/export"
	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/ui"
)

var (
	exportOut   string
	exportReset bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export staged changes as a single diff bundle",
	Long: `Assemble every staged change and image into one JSON bundle for the
upstream contribution pipeline. The change list is ordered stores first,
then brands, each subtree depth-first; images are inlined as base64.

With --reset the staging area is cleared after a successful export.

Example usage:
  ofd export
  ofd export --out ../my-changes.json --reset`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		if st.Summary().Total == 0 {
			return fmt.Errorf("nothing staged to export")
		}

		bundle, err := export.Build(st)
		if err != nil {
			return err
		}

		out := exportOut
		if out == "" {
			out = export.DefaultFilename(time.Now())
		}
		if err := bundle.Write(out); err != nil {
			return err
		}
		logger.Info("exported bundle", "file", out, "changes", len(bundle.Changes), "images", len(bundle.Images))

		fmt.Printf("%s Exported %d change(s)", ui.RenderPass("✓"), len(bundle.Changes))
		if len(bundle.Images) > 0 {
			fmt.Printf(" and %d image(s)", len(bundle.Images))
		}
		fmt.Printf(" to %s\n", out)

		if exportReset {
			if err := st.Clear(); err != nil {
				return fmt.Errorf("bundle written, but clearing staged changes failed: %w", err)
			}
			fmt.Printf("%s Staging area cleared\n", ui.RenderPass("✓"))
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file (default: ofd-changes-<timestamp>.json)")
	exportCmd.Flags().BoolVar(&exportReset, "reset", false, "clear the staging area after a successful export")
	rootCmd.AddCommand(exportCmd)
}
