package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hexaglue/hexaglue/pkg/blocks"
	"github.com/hexaglue/hexaglue/pkg/diag"
	"github.com/hexaglue/hexaglue/pkg/generator"
	"github.com/hexaglue/hexaglue/pkg/merge"
)

func newMergeCommand() *cobra.Command {
	var (
		newFile      string
		existingFile string
		mode         string
		namespace    string
		outFile      string
		blockIDs     []string
	)

	cmd := &cobra.Command{
		Use:   "merge --new <file> [--existing <file>]",
		Short: "Merge two files with the custom-block engine",
		Long: `Run the merge engine directly on two files, outside of a generation run.
Useful for inspecting exactly what a regeneration would produce.

Without --existing the merge is a first-time creation. Without --out the
merged content goes to stdout; diagnostics go to stderr.`,
		Example: `  # Preview merging freshly rendered content into the current file
  hexaglue merge --new rendered.go --existing internal/adapters/user_repository.go

  # Write the result
  hexaglue merge --new rendered.go --existing current.go --out merged.go

  # Warn about undeclared blocks
  hexaglue merge --new rendered.go --existing current.go --block-id imports --block-id methods`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsedMode, err := merge.ParseMode(mode)
			if err != nil {
				return err
			}

			newContent, err := os.ReadFile(newFile)
			if err != nil {
				return fmt.Errorf("failed to read new content: %w", err)
			}

			location := diag.Location(newFile)
			if existingFile != "" {
				location = diag.Location(existingFile)
			}

			req := merge.NewRequest(string(newContent), parsedMode).
				WithLocation(location).
				WithCustomBlockIDs(blockIDs)
			if existingFile != "" {
				existing, err := os.ReadFile(existingFile)
				if err != nil {
					return fmt.Errorf("failed to read existing content: %w", err)
				}
				req = req.WithExisting(string(existing))
			}

			reporter := diag.NewCollectingReporter()
			merger := merge.NewMerger(blocks.NewParser(namespace), reporter)

			resp, err := merger.Merge(cmd.Context(), req)
			if err != nil {
				return err
			}

			for _, d := range reporter.Diagnostics() {
				fmt.Fprintf(os.Stderr, "%s [%s] %s: %s\n", d.Severity, d.Code, d.Location, d.Message)
			}

			switch resp.Action {
			case merge.ActionError:
				return fmt.Errorf("merge failed: %s", resp.Message)
			case merge.ActionSkip:
				fmt.Fprintf(os.Stderr, "skip: %s\n", resp.Message)
				return nil
			}

			if outFile != "" {
				if err := generator.NewAtomicWriter().Write(outFile, []byte(resp.FinalContent)); err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "✓ Merged content written to %s\n", outFile)
				return nil
			}

			_, err = os.Stdout.WriteString(resp.FinalContent)
			return err
		},
	}

	cmd.Flags().StringVar(&newFile, "new", "", "file with the freshly generated content")
	cmd.Flags().StringVar(&existingFile, "existing", "", "file with the current on-disk content")
	cmd.Flags().StringVar(&mode, "mode", "merge_custom_blocks", "merge mode (overwrite, merge_custom_blocks, keep_existing, fail_if_exists)")
	cmd.Flags().StringVar(&namespace, "namespace", "", "marker namespace (default: hexaglue)")
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "write the merged content to this file")
	cmd.Flags().StringSliceVar(&blockIDs, "block-id", nil, "declared custom block ids (for orphan analysis)")
	_ = cmd.MarkFlagRequired("new")

	return cmd
}
