package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/entitypath"
	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/ui"
)

var logoCmd = &cobra.Command{
	Use:   "logo",
	Short: "Manage staged entity images",
}

var logoSetCmd = &cobra.Command{
	Use:   "set <path> <image-file>",
	Short: "Stage an image for an entity",
	Long: `Stage an image file (a brand or store logo) for the entity at the
given catalog path. The bytes are stored in the staging database and
travel with the exported bundle; deleting the entity or reverting all
changes sweeps them.

Example usage:
  ofd logo set brands/Acme ./acme-logo.png
  ofd logo set stores/acme-store ./store.svg`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, ok := entitypath.Parse(args[0])
		if !ok {
			return fmt.Errorf("invalid entity path %q", args[0])
		}
		file := args[1]

		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read image: %w", err)
		}
		mimeType := mime.TypeByExtension(filepath.Ext(file))
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}

		st, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		ref, err := st.StoreImage("", path.String(), "logo", filepath.Base(file), mimeType, data)
		if err != nil {
			return err
		}
		logger.Info("staged image", "path", path.String(), "id", ref.ID, "bytes", len(data))

		fmt.Printf("%s Staged image %s for %s (%d bytes)\n", ui.RenderPass("✓"), ref.ID, path, len(data))
		return nil
	},
}

var logoGetCmd = &cobra.Command{
	Use:   "get <image-id> [output-file]",
	Short: "Write a staged image back to disk",
	Long: `Write the bytes of a staged image to a file. Without an output
argument the image's original filename is used.

Example usage:
  ofd logo get 4f1c...-a2 ./logo.png`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		data, ref, err := st.Image(args[0])
		if err != nil {
			return err
		}

		out := ref.Filename
		if len(args) == 2 {
			out = args[1]
		}
		if out == "" {
			out = ref.ID
		}
		if err := os.WriteFile(out, data, 0644); err != nil {
			return fmt.Errorf("failed to write image: %w", err)
		}

		fmt.Printf("%s Wrote %s (%d bytes, %s)\n", ui.RenderPass("✓"), out, len(data), ref.MimeType)
		return nil
	},
}

var logoListCmd = &cobra.Command{
	Use:   "list",
	Short: "List staged images",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		refs := st.Images()
		if len(refs) == 0 {
			fmt.Println("No staged images.")
			return nil
		}
		for _, ref := range refs {
			fmt.Printf("  %s  %s  %s\n", ref.ID, ref.EntityPath, ui.RenderDim(ref.Filename))
		}
		return nil
	},
}

func init() {
	logoCmd.AddCommand(logoSetCmd)
	logoCmd.AddCommand(logoGetCmd)
	logoCmd.AddCommand(logoListCmd)
	rootCmd.AddCommand(logoCmd)
}
