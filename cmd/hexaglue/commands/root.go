package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hexaglue/hexaglue/pkg/config"
	"github.com/hexaglue/hexaglue/pkg/telemetry"
)

var (
	// Global flags
	configPath string
	verbose    bool
	jsonOutput bool
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "hexaglue",
		Short: "HexaGlue - Regeneration-Safe Source Generator",
		Long: `HexaGlue generates ports-and-adapters source files from templates while
preserving hand-written code across regenerations.

Features:
  - Typed workspace configs via CUE
  - Light procedural context scripting via Starlark
  - Custom-block merge engine (user edits survive regeneration)
  - Write-policy enforcement via OPA/rego
  - Generation manifest with content hashes for drift detection`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path (default: discover *.cue in workspace)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	// Add subcommands
	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newPlanCommand())
	rootCmd.AddCommand(newGenerateCommand())
	rootCmd.AddCommand(newBlocksCommand())
	rootCmd.AddCommand(newMergeCommand())
	rootCmd.AddCommand(newWatchCommand())

	return rootCmd
}

// configSources resolves which CUE files to load: the --config flag when
// given, otherwise every .cue file under the workspace root.
func configSources(workspaceRoot string) ([]string, error) {
	if configPath != "" {
		return []string{configPath}, nil
	}
	files, err := config.NewCUEParser().FindConfigFiles(workspaceRoot)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .cue config files found under %s (use --config)", workspaceRoot)
	}
	return files, nil
}

// loadConfig parses and validates the workspace configuration.
func loadConfig(ctx context.Context, workspaceRoot string) (*config.ParsedConfig, error) {
	sources, err := configSources(workspaceRoot)
	if err != nil {
		return nil, err
	}
	return config.NewCUEParser().Load(ctx, sources)
}

// newTelemetry builds the generator telemetry from the global flags.
func newTelemetry() (*telemetry.Telemetry, error) {
	cfg := telemetry.DefaultConfig()
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if jsonOutput {
		// Human output goes to stdout as JSON; keep logs out of the way.
		cfg.Logging.Format = "json"
	}
	return telemetry.NewTelemetry(cfg)
}

// workspaceRootArg interprets the optional positional workspace argument.
func workspaceRootArg(args []string) string {
	if len(args) > 0 {
		return filepath.Clean(args[0])
	}
	return "."
}
