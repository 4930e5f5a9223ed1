package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwstegemann/fritz"
	"github.com/spf13/cobra"
)

const shutdownTimeout = time.Second

// newLogger creates a JSON logger for CLI use.
func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// watchCmd keeps rendering a list file as it changes.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Render a list file on every change",
	Long: `Watch a list file and render it as an element tree on every change.

The file feeds a store through the library's own pipeline: each write is
decoded, committed, diffed against the previous list by item id, and the
resulting patches are applied to a live tree. Reordering items in the
file moves the rendered nodes instead of recreating them.

The command runs until interrupted (Ctrl+C) or the file watch ends.

Example:
  fritz watch -f todos.json
  fritz watch --file /var/lib/app/todos.yaml`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringP("file", "f", "", "path to list file (required)")
	_ = watchCmd.MarkFlagRequired("file")
}

func runWatch(cmd *cobra.Command, _ []string) error {
	logger := newLogger()
	path, _ := cmd.Flags().GetString("file")

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := fritz.NewRootStore([]Item(nil)).Named("watch")
	if err := store.Start(ctx); err != nil {
		return fmt.Errorf("failed to start store: %w", err)
	}

	replace := fritz.Handle(store, "replace",
		func(_ context.Context, _ []Item, items []Item) ([]Item, error) {
			return items, nil
		})

	source := fritz.NewFileSource[[]Item](path).Codec(codecFor(path))
	snapshots, err := source.Events(ctx)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	feedErr := make(chan error, 1)
	go func() {
		feedErr <- fritz.HandledBy(ctx, snapshots, replace)
	}()

	list := fritz.NewElement("ul")
	patches := fritz.DiffedByID(ctx, store.Data(ctx), func(it Item) string { return it.ID })

	// The mount owns the tree while a patch is in flight. Handing patches
	// over an unbuffered channel means the previous patch is fully applied
	// once the next send is accepted, so the tree is quiescent after the
	// no-op barrier goes through.
	mountIn := make(chan fritz.Patch[Item])
	mount := fritz.MountSeq(list, mountIn, renderItem)
	if err := mount.Start(ctx); err != nil {
		return fmt.Errorf("failed to start mount: %w", err)
	}

	logger.Info("watching", "file", path)

	send := func(p fritz.Patch[Item]) bool {
		select {
		case mountIn <- p:
			return true
		case <-ctx.Done():
			return false
		}
	}

	barrier := fritz.Patch[Item]{Kind: fritz.PatchInsertMany}
	for p := range patches {
		if !send(p) || !send(barrier) {
			break
		}
		logger.Info("patch applied", "patch", p.String(), "children", mount.Len())
		fmt.Println(list.String())
	}

	// patches only closes once ctx ended or the source closed
	select {
	case err := <-feedErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("source error: %w", err)
		}
	case <-time.After(shutdownTimeout):
	}
	logger.Info("shutdown complete")
	return nil
}
