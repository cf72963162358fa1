package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/catalog"
	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/dashboard"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the real-time editor dashboard",
	Long: `Start a WebSocket dashboard server broadcasting staging events to
connected editor UIs, and watch the catalog checkout for base data
changes so clients can refresh their effective views.

WebSocket messages include:
- change_tracked: a create, edit, or delete was staged
- change_removed: a staged change was reverted
- change_moved:   a staged subtree was relocated
- cleared:        the staging area was emptied
- catalog_changed: an entity file in the checkout changed on disk

Example usage:
  ofd serve
  ofd serve --port 9000

Connect with a WebSocket client:
  ws://localhost:8090/ws`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		port := servePort
		if port == 0 {
			port = cfg.Port
		}

		server := dashboard.NewServer(&dashboard.Config{
			Port:   port,
			Logger: log.New(os.Stderr, "[dashboard] ", log.LstdFlags),
		}, st)

		if err := server.Start(); err != nil {
			return fmt.Errorf("failed to start dashboard: %w", err)
		}

		watcher, err := catalog.NewWatcher()
		if err != nil {
			return err
		}
		if err := watcher.Start(cfg.DataDir, cfg.StoresDir); err != nil {
			_ = server.Stop()
			return err
		}

		go func() {
			for ev := range watcher.Events() {
				data, err := json.Marshal(map[string]string{"file": ev.Path, "op": ev.Op.String()})
				if err != nil {
					continue
				}
				server.Broadcast(dashboard.Message{Type: "catalog_changed", Timestamp: time.Now(), Data: data})
			}
		}()
		go func() {
			for err := range watcher.Errors() {
				logger.Warn("catalog watcher error", "error", err)
			}
		}()

		fmt.Printf("Dashboard server started on http://localhost:%d\n", port)
		fmt.Printf("WebSocket endpoint: ws://localhost:%d/ws\n", port)
		fmt.Println("\nPress Ctrl+C to stop...")

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		<-ctx.Done()

		fmt.Println("\nShutting down...")
		if err := watcher.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: watcher shutdown: %v\n", err)
		}
		if err := server.Stop(); err != nil {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "dashboard port (default: configured port)")
	rootCmd.AddCommand(serveCmd)
}
