package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hexaglue/hexaglue/pkg/generator"
)

func newGenerateCommand() *cobra.Command {
	var (
		dryRun     bool
		outputRoot string
	)

	cmd := &cobra.Command{
		Use:   "generate [path]",
		Short: "Run generation for the workspace",
		Long: `Render every artifact's template, merge the result with the existing file
according to the artifact's merge mode, and write the outcome atomically.

Custom blocks in existing files survive regeneration. Write policies (when
enabled) are evaluated before any file is touched, and the manifest (when
enabled) records every run with content hashes.`,
		Example: `  # Generate all artifacts in the current workspace
  hexaglue generate

  # Preview without writing anything
  hexaglue generate --dry-run

  # Generate into a different output root
  hexaglue generate --output-root ./build`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := workspaceRootArg(args)
			result, err := runGeneration(cmd.Context(), root, outputRoot, dryRun)
			if err != nil {
				return err
			}
			return printRunResult(result, dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "plan and merge but write nothing")
	cmd.Flags().StringVar(&outputRoot, "output-root", "", "override the workspace output root")

	return cmd
}

// runGeneration loads the config and executes one generation run. Shared
// with the watch command.
func runGeneration(ctx context.Context, root, outputRoot string, dryRun bool) (*generator.RunResult, error) {
	pc, err := loadConfig(ctx, root)
	if err != nil {
		return nil, err
	}

	tel, err := newTelemetry()
	if err != nil {
		return nil, err
	}

	runner, err := generator.NewRunner(ctx, pc, tel, generator.Options{
		WorkspaceRoot: root,
		OutputRoot:    outputRoot,
		DryRun:        dryRun,
	})
	if err != nil {
		return nil, err
	}
	defer runner.Close()

	return runner.Run(ctx)
}

// printRunResult renders a run result to stdout and returns an error when
// the run failed, so the CLI exits non-zero.
func printRunResult(result *generator.RunResult, dryRun bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		for i := range result.Artifacts {
			ar := &result.Artifacts[i]
			marker := "✓"
			if ar.Failed() {
				marker = "✗"
			}
			fmt.Printf("%s %-10s %s (%s)\n", marker, ar.Action, ar.OutputPath, ar.ArtifactID)
			for _, d := range ar.Diagnostics {
				fmt.Printf("    %s [%s] %s\n", d.Severity, d.Code, d.Message)
			}
			if ar.Failed() && ar.Message != "" {
				fmt.Printf("    %s\n", ar.Message)
			}
		}

		suffix := ""
		if dryRun {
			suffix = " (dry run)"
		}
		fmt.Printf("\nRun %s: %s%s (%d written, %d skipped, %d total)\n",
			result.RunID, result.Status, suffix,
			result.Written(), result.Skipped(), len(result.Artifacts))
	}

	if result.Status == generator.StatusFailed {
		return fmt.Errorf("generation run failed")
	}

	log.Debug().Str("run_id", result.RunID).Msg("Generation run finished")
	return nil
}
