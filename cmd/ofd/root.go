package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/catalog"
	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/config"
	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/entitypath"
	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/logging"
	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/staging"
	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/storage"
)

var (
	cfgFile   string
	dataDir   string
	storesDir string

	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ofd",
	Short: "Local staging editor for an Open Filament Database checkout",
	Long: `ofd edits a local Open Filament Database catalog checkout without
modifying the catalog files themselves. Every create, edit, rename, and
delete is staged in the .ofd state directory; browsing commands show the
effective merged view, and "ofd export" emits the staged diff as a single
bundle for upstream contribution.

Run ofd from anywhere inside a checkout; the .ofd directory is discovered
by walking up from the working directory (create one with "ofd init").`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		if dataDir != "" {
			cfg.DataDir = dataDir
		}
		if storesDir != "" {
			cfg.StoresDir = storesDir
		}
		logger = logging.Setup(cfg.LogPath(), cfg.LogLevel)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .ofd/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "catalog data directory (overrides config)")
	rootCmd.PersistentFlags().StringVar(&storesDir, "stores-dir", "", "catalog stores directory (overrides config)")
}

// openStore opens the staging database and loads the staged change set.
// The returned closer must be called before the process exits.
func openStore() (*staging.Store, func(), error) {
	db, err := storage.Open(cfg.DBPath())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open staging database: %w", err)
	}
	st, err := staging.Open(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	closer := func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close staging database: %v\n", err)
		}
	}
	return st, closer, nil
}

// newSource returns a reader over the checkout's base catalog data.
func newSource() *catalog.Source {
	return catalog.NewSource(cfg.DataDir, cfg.StoresDir)
}

// baseEntity reads the base entity at path from the checkout, or nil if the
// checkout has no record of it.
func baseEntity(p entitypath.Path) catalog.Entity {
	e, ok := newSource().Entity(p)
	if !ok {
		return nil
	}
	return e
}

// stubFor seeds a form for a not-yet-existing entity: the path leaf becomes
// its identifier.
func stubFor(p entitypath.Path) catalog.Entity {
	return catalog.Stub(p.Kind(), p.Leaf())
}
