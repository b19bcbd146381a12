package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hexaglue/hexaglue/pkg/blocks"
)

func newBlocksCommand() *cobra.Command {
	var (
		namespace string
		format    string
	)

	cmd := &cobra.Command{
		Use:   "blocks <file>",
		Short: "List the custom blocks in a file",
		Long: `Parse a file and list its custom blocks: their ids, line ranges and
content. Useful for checking what would survive a regeneration.`,
		Example: `  # List blocks in a generated file
  hexaglue blocks internal/adapters/user_repository.go

  # Machine-readable output
  hexaglue blocks --format json internal/adapters/user_repository.go

  # Non-default marker namespace
  hexaglue blocks --namespace portgen internal/ports/ports.go`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read file: %w", err)
			}

			parser := blocks.NewParser(namespace)
			parsed, err := parser.Parse(string(data))
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			if jsonOutput && format == "text" {
				format = "json"
			}

			switch format {
			case "json":
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(parsed)
			case "yaml":
				return yaml.NewEncoder(os.Stdout).Encode(parsed)
			case "text":
				if len(parsed) == 0 {
					fmt.Printf("%s: no custom blocks (namespace %q)\n", args[0], parser.Namespace())
					return nil
				}
				fmt.Printf("%s: %d custom block(s)\n", args[0], len(parsed))
				for _, b := range parsed {
					fmt.Printf("  %s (lines %d-%d)\n", b.ID, b.StartLine, b.EndLine)
				}
				return nil
			default:
				return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
			}
		},
	}

	cmd.Flags().StringVar(&namespace, "namespace", "", "marker namespace (default: hexaglue)")
	cmd.Flags().StringVar(&format, "format", "text", "output format (text, json, yaml)")

	return cmd
}
