package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hexaglue/hexaglue/pkg/config"
)

func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [path]",
		Short: "Validate CUE configuration files",
		Long: `Validate the workspace configuration against the built-in schemas.

This command checks:
  - CUE syntax validity
  - Required workspace and artifact fields
  - Merge mode and marker namespace constraints
  - Duplicate artifact ids and output paths`,
		Example: `  # Validate configs in the current directory
  hexaglue validate

  # Validate a specific workspace
  hexaglue validate ./services/shop

  # Validate a single config file
  hexaglue validate --config hexaglue.cue`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := workspaceRootArg(args)
			sources, err := configSources(root)
			if err != nil {
				return err
			}

			log.Info().
				Strs("sources", sources).
				Msg("Validating configuration")

			pc, err := config.NewCUEParser().Parse(cmd.Context(), sources)
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(pc.Errors); err != nil {
					return err
				}
			} else {
				for _, ve := range pc.Errors {
					loc := ve.File
					if ve.Line > 0 {
						loc = fmt.Sprintf("%s:%d:%d", ve.File, ve.Line, ve.Column)
					}
					if loc == "" {
						loc = ve.Path
					}
					fmt.Printf("%s: %s: %s\n", ve.Severity, loc, ve.Message)
				}
			}

			if len(pc.Errors) > 0 {
				return fmt.Errorf("configuration has %d validation error(s)", len(pc.Errors))
			}

			if !jsonOutput {
				fmt.Printf("✓ Configuration valid: workspace %q with %d artifact(s)\n",
					pc.Workspace.Name, len(pc.Artifacts))
			}
			return nil
		},
	}

	return cmd
}
