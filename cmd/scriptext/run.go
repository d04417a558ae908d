package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dop251/goja"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const watchDebounce = 100 * time.Millisecond

func newRunCommand(rootOpts *rootOptions) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "run <script.js>",
		Short: "Run a script with the bundled extensions",
		Long: `Run a JavaScript file. Registered modules are available through
require() and globals are installed before the script starts. A result
other than undefined or null is printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if watch {
				return watchScript(cmd.Context(), rootOpts, args[0], cmd.OutOrStdout())
			}
			return runScript(rootOpts, args[0], cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "rerun the script whenever it changes")

	return cmd
}

func runScript(opts *rootOptions, path string, w io.Writer) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}

	host, err := newJSHost(opts.cfg)
	if err != nil {
		return err
	}

	v, err := host.RunScript(path, string(src))
	if err != nil {
		return err
	}

	if v != nil && !goja.IsUndefined(v) && !goja.IsNull(v) {
		fmt.Fprintln(w, v.String())
	}
	return nil
}

// watchScript runs the script once, then again after every change until ctx
// is done. Failed runs are reported and do not stop watching.
func watchScript(ctx context.Context, opts *rootOptions, path string, w io.Writer) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Editors often replace files instead of writing them, so watch the
	// directory and filter by name.
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	rerun := func() {
		if err := runScript(opts, path, w); err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
		}
	}
	rerun()

	var debounce <-chan time.Time
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
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			debounce = time.After(watchDebounce)

		case <-debounce:
			debounce = nil
			opts.log.Debug("script changed", zap.String("path", path))
			rerun()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			opts.log.Warn("watch error", zap.Error(err))
		}
	}
}
