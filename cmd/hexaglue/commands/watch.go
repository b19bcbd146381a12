package commands

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newWatchCommand() *cobra.Command {
	var (
		outputRoot string
		debounce   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch [path]",
		Short: "Regenerate on config or template changes",
		Long: `Watch the workspace's config files and template directories and run
generation whenever one of them changes. Rapid bursts of changes are
debounced into a single run.

Changes to generated output files are deliberately ignored so edits inside
custom blocks do not trigger a feedback loop; they are picked up by the next
config- or template-triggered run.`,
		Example: `  # Watch the current workspace
  hexaglue watch

  # Watch with a longer settle time
  hexaglue watch --debounce 2s`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			root := workspaceRootArg(args)

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return err
			}
			defer watcher.Close()

			if err := addWatchPaths(ctx, watcher, root); err != nil {
				return err
			}

			// Initial run before waiting for changes.
			runOnce := func() {
				result, err := runGeneration(ctx, root, outputRoot, false)
				if err != nil {
					log.Error().Err(err).Msg("Generation failed")
					return
				}
				if err := printRunResult(result, false); err != nil {
					log.Warn().Err(err).Msg("Run finished with failures")
				}
			}
			runOnce()

			log.Info().Str("path", root).Msg("Watching for changes (ctrl-c to stop)")

			var timer *time.Timer
			pending := make(chan struct{}, 1)
			for {
				select {
				case <-ctx.Done():
					return nil

				case event, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					if !relevantChange(event) {
						continue
					}
					log.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("Change detected")
					if timer != nil {
						timer.Stop()
					}
					timer = time.AfterFunc(debounce, func() {
						select {
						case pending <- struct{}{}:
						default:
						}
					})

				case <-pending:
					runOnce()
					// Templates may have been added; refresh the watch set.
					if err := addWatchPaths(ctx, watcher, root); err != nil {
						log.Warn().Err(err).Msg("Failed to refresh watch paths")
					}

				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					log.Warn().Err(err).Msg("Watcher error")
				}
			}
		},
	}

	cmd.Flags().StringVar(&outputRoot, "output-root", "", "override the workspace output root")
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "settle time before regenerating")

	return cmd
}

// addWatchPaths watches the config files plus every template's directory.
func addWatchPaths(ctx context.Context, watcher *fsnotify.Watcher, root string) error {
	pc, err := loadConfig(ctx, root)
	if err != nil {
		return err
	}

	seen := make(map[string]bool)
	add := func(path string) {
		if path == "" || seen[path] {
			return
		}
		seen[path] = true
		if err := watcher.Add(path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Failed to watch path")
		}
	}

	for _, src := range pc.SourceFiles {
		add(filepath.Dir(src))
	}
	for _, ac := range pc.Artifacts {
		add(filepath.Dir(filepath.Join(root, ac.Template)))
		if ac.ContextScript != "" {
			add(filepath.Dir(filepath.Join(root, ac.ContextScript)))
		}
	}
	return nil
}

// relevantChange filters watcher noise: only writes, creates, renames and
// removals of config, template and script files trigger a run.
func relevantChange(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return false
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	switch filepath.Ext(base) {
	case ".cue", ".tmpl", ".star", ".rego":
		return true
	}
	return false
}
