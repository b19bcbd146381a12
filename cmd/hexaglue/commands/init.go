package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const defaultWorkspaceConfig = `// HexaGlue workspace configuration
workspace: {
	name: %q
	version: "1.0"

	// Directory output paths are resolved against.
	output_root: "."

	// Marker namespace: yields "@hexaglue-custom-start:" markers.
	markers: namespace: "hexaglue"

	// Record runs and content hashes for drift detection.
	manifest: {
		enabled: true
		path:    ".hexaglue/manifest.db"
	}
}

artifacts: {
	example: {
		template:   "templates/example.go.tmpl"
		output:     "internal/example/example.go"
		merge_mode: "merge_custom_blocks"
		custom_block_ids: ["imports", "methods"]
	}
}
`

const exampleTemplate = `package example

// Code generated from {{.artifact}}. Edit only inside custom blocks.

// @hexaglue-custom-start: imports
// @hexaglue-custom-end: imports

type Example struct{}

// @hexaglue-custom-start: methods
// @hexaglue-custom-end: methods
`

func newInitCommand() *cobra.Command {
	var (
		name  string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Initialize HexaGlue workspace",
		Long: `Initialize a new HexaGlue workspace with a starter configuration and an
example template demonstrating custom blocks.`,
		Example: `  # Initialize in the current directory
  hexaglue init --name shop-backend

  # Initialize in a specific directory
  hexaglue init --name shop-backend ./services/shop`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := workspaceRootArg(args)
			if name == "" {
				abs, err := filepath.Abs(root)
				if err != nil {
					return err
				}
				name = filepath.Base(abs)
			}

			log.Info().
				Str("path", root).
				Str("name", name).
				Msg("Initializing workspace")

			cfgPath := filepath.Join(root, "hexaglue.cue")
			if _, err := os.Stat(cfgPath); err == nil && !force {
				return fmt.Errorf("config already exists at %s (use --force to overwrite)", cfgPath)
			}

			dirs := []string{
				root,
				filepath.Join(root, "templates"),
				filepath.Join(root, ".hexaglue"),
			}
			for _, dir := range dirs {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("failed to create directory %s: %w", dir, err)
				}
			}
			fmt.Printf("✓ Created workspace directories under %s\n", root)

			if err := os.WriteFile(cfgPath, []byte(fmt.Sprintf(defaultWorkspaceConfig, name)), 0o644); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}
			fmt.Printf("✓ Created config file: %s\n", cfgPath)

			tmplPath := filepath.Join(root, "templates", "example.go.tmpl")
			if err := os.WriteFile(tmplPath, []byte(exampleTemplate), 0o644); err != nil {
				return fmt.Errorf("failed to write template: %w", err)
			}
			fmt.Printf("✓ Created example template: %s\n", tmplPath)

			fmt.Printf("\n✅ Workspace initialized successfully!\n\n")
			fmt.Printf("Next steps:\n")
			fmt.Printf("  1. Validate the configuration:\n")
			fmt.Printf("     hexaglue validate %s\n\n", root)
			fmt.Printf("  2. Generate artifacts:\n")
			fmt.Printf("     hexaglue generate %s\n\n", root)

			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "workspace name (default: directory name)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing configuration")

	return cmd
}
