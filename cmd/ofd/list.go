package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/catalog"
	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/entitypath"
	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/overlay"
	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/staging"
	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/ui"
)

var listCmd = &cobra.Command{
	Use:   "list [path]",
	Short: "List the effective contents of a collection",
	Long: `List the effective entities of a collection: the checkout's base data
with staged changes layered on top. Staged creations appear, staged
deletions stay visible with a [deleted] badge, and edits show [modified].

Without a path, both root collections are listed. With an entity path,
its child collection is listed.

Example usage:
  ofd list
  ofd list brands/Prusament
  ofd list brands/Prusament/materials/PLA`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()
		src := newSource()
		cs := st.ChangeSet()

		if len(args) == 0 {
			printCollection(cs, entitypath.Path{}, entitypath.RootStores, src)
			printCollection(cs, entitypath.Path{}, entitypath.RootBrands, src)
			return nil
		}

		parent, ok := entitypath.Parse(args[0])
		if !ok {
			return fmt.Errorf("invalid entity path %q", args[0])
		}
		collections := parent.ChildCollections()
		if len(collections) == 0 {
			return fmt.Errorf("%s has no child collections", args[0])
		}
		for _, collection := range collections {
			printCollection(cs, parent, collection, src)
		}
		return nil
	},
}

func printCollection(cs *staging.ChangeSet, parent entitypath.Path, collection string, src *catalog.Source) {
	items := overlay.AnnotatedCollection(cs, parent, collection, src.Children(parent, collection))

	header := collection
	if !parent.IsZero() {
		header = parent.String() + "/" + collection
	}
	fmt.Printf("%s (%d)\n", ui.RenderAccent(header), len(items))

	for _, item := range items {
		line := "  " + item.Entity.Identifier()
		if badge := ui.Badge(item.Status); badge != "" {
			line += " " + badge
		}
		childPath := parent.Child(collection, item.Entity.Identifier())
		if item.Status != staging.StatusDeleted && cs.HasNestedChanges(childPath) {
			line += " " + ui.RenderDim("(nested changes)")
		}
		fmt.Println(line)
	}
	if len(items) == 0 {
		fmt.Println(ui.RenderDim("  (empty)"))
	}
	fmt.Println()
}

func init() {
	rootCmd.AddCommand(listCmd)
}
