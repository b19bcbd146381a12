package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hexaglue/hexaglue/pkg/generator"
)

func newPlanCommand() *cobra.Command {
	var (
		outFile    string
		outputRoot string
	)

	cmd := &cobra.Command{
		Use:   "plan [path]",
		Short: "Show what a generation run would produce",
		Long: `Resolve the workspace configuration into a generation plan without
touching any files.

The plan:
  - Resolves template and output paths
  - Parses each artifact's merge mode
  - Evaluates context scripts and layers template variables`,
		Example: `  # Show the plan for the current workspace
  hexaglue plan

  # Save the plan as JSON
  hexaglue plan --out plan.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			root := workspaceRootArg(args)

			pc, err := loadConfig(ctx, root)
			if err != nil {
				return err
			}

			tel, err := newTelemetry()
			if err != nil {
				return err
			}

			runner, err := generator.NewRunner(ctx, pc, tel, generator.Options{
				WorkspaceRoot: root,
				OutputRoot:    outputRoot,
				DryRun:        true,
			})
			if err != nil {
				return err
			}
			defer runner.Close()

			plan, err := runner.Plan(ctx)
			if err != nil {
				return err
			}

			log.Info().
				Str("workspace", plan.Workspace).
				Int("artifacts", len(plan.Artifacts)).
				Msg("Plan resolved")

			if outFile != "" {
				data, err := json.MarshalIndent(plan, "", "  ")
				if err != nil {
					return err
				}
				if err := os.WriteFile(outFile, data, 0o644); err != nil {
					return fmt.Errorf("failed to write plan file: %w", err)
				}
				fmt.Printf("✓ Plan written to %s\n", outFile)
				return nil
			}

			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(plan)
			}

			fmt.Printf("Workspace: %s (output root: %s)\n\n", plan.Workspace, plan.OutputRoot)
			for _, pa := range plan.Artifacts {
				fmt.Printf("  %s\n", pa.Config.ID)
				fmt.Printf("    template: %s\n", pa.TemplatePath)
				fmt.Printf("    output:   %s\n", pa.OutputPath)
				fmt.Printf("    mode:     %s\n", pa.Mode)
				if len(pa.Config.CustomBlockIDs) > 0 {
					fmt.Printf("    blocks:   %v\n", pa.Config.CustomBlockIDs)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outFile, "out", "o", "", "write the plan as JSON to this file")
	cmd.Flags().StringVar(&outputRoot, "output-root", "", "override the workspace output root")

	return cmd
}
