package cli

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Project-Sylos/Arbor/internal/generator"
	"github.com/Project-Sylos/Arbor/internal/tree"
	"github.com/Project-Sylos/Arbor/internal/types"
)

// NewWatchCmd re-prints the flattened tree of a record file whenever it changes
func NewWatchCmd(a *app) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch FILE",
		Short: "Re-print the flattened tree whenever FILE changes",
		Long: `Print the flattened tree of FILE, then print it again every time the
records in FILE change. Saves that leave the records unchanged are ignored.
Stop with Ctrl-C.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			w := &fileWatcher{
				app:      a,
				path:     args[0],
				out:      cmd.OutOrStdout(),
				debounce: debounce,
				log:      a.logger.WithField("file", args[0]),
			}
			return w.run(ctx)
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", 200*time.Millisecond, "wait this long after a change before reloading")
	return cmd
}

// fileWatcher follows one record file
type fileWatcher struct {
	app      *app
	path     string
	out      io.Writer
	debounce time.Duration
	log      *logrus.Entry

	// fingerprint of the last printed record set
	last string
}

// run prints the current tree and then follows the file until ctx ends.
// The parent directory is watched so editors that replace the file on save
// are followed too.
func (w *fileWatcher) run(ctx context.Context) error {
	if _, err := w.refresh(); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(w.path)
	if err != nil {
		return fmt.Errorf("invalid path %s: %w", w.path, err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.path, err)
	}
	w.log.Info("Watching for changes")

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(w.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.WithError(err).Warn("File watcher error")

		case <-timer.C:
			if _, err := w.refresh(); err != nil {
				// A half-written file fails to parse; the next write retries
				w.log.WithError(err).Warn("Failed to reload records")
			}
		}
	}
}

// refresh reloads the file and prints the tree if the records changed
func (w *fileWatcher) refresh() (bool, error) {
	items, err := loadRecords(w.app, w.path)
	if err != nil {
		return false, err
	}
	sum, err := generator.Fingerprint(items)
	if err != nil {
		return false, err
	}
	if sum == w.last {
		w.log.Debug("Records unchanged")
		return false, nil
	}

	flat, err := tree.MakeFlatTree(types.Items(items), w.app.options())
	if err != nil {
		return false, fmt.Errorf("failed to flatten %s: %w", w.path, err)
	}
	if w.app.output == OutputJSON {
		if flat == nil {
			flat = []*tree.FlatNode{}
		}
		err = writeJSON(w.out, flat)
	} else {
		if w.last != "" {
			fmt.Fprintln(w.out)
		}
		fmt.Fprintf(w.out, "%s (%d records)\n", w.path, len(items))
		err = renderFlat(w.out, flat)
	}
	if err != nil {
		return false, err
	}
	w.last = sum
	return true, nil
}
