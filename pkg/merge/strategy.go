package merge

import (
	"fmt"
	"strings"

	"github.com/hexaglue/hexaglue/pkg/blocks"
)

// The strategies below are pure decision procedures: no I/O, no mutation of
// their inputs. Dispatch over the closed Mode set is exhaustive; reaching the
// default branch is an engine invariant violation, never a user error.

func (m *Merger) execute(req Request) outcome {
	switch req.Mode {
	case ModeOverwrite:
		return overwriteStrategy(req)
	case ModeKeepExisting:
		return keepExistingStrategy(req)
	case ModeFailIfExists:
		return failIfExistsStrategy(req)
	case ModeMergeCustomBlocks:
		return m.mergeCustomBlocksStrategy(req)
	default:
		return outcome{
			action: ActionError,
			err: NewInternalError(
				fmt.Sprintf("no strategy registered for merge mode %q", req.Mode), nil),
		}
	}
}

// overwriteStrategy replaces the target unconditionally.
func overwriteStrategy(req Request) outcome {
	return outcome{
		action:       ActionWrite,
		finalContent: req.NewContent,
		message:      "overwriting target with newly generated content",
	}
}

// keepExistingStrategy writes only on first-time creation and otherwise
// leaves the target untouched. It never inspects custom blocks.
func keepExistingStrategy(req Request) outcome {
	if req.HasExisting {
		return outcome{
			action:  ActionSkip,
			message: "target already exists; keeping existing content",
		}
	}
	return outcome{
		action:       ActionWrite,
		finalContent: req.NewContent,
		message:      "no existing content; writing newly generated content",
	}
}

// failIfExistsStrategy mirrors keepExistingStrategy's presence check but
// treats an existing target as an error.
func failIfExistsStrategy(req Request) outcome {
	if req.HasExisting {
		return outcome{
			action: ActionError,
			err: NewConflictError("target already exists and merge mode forbids replacing it", nil).
				WithTarget(string(req.Location)),
		}
	}
	return outcome{
		action:       ActionWrite,
		finalContent: req.NewContent,
		message:      "no existing content; writing newly generated content",
	}
}

// mergeCustomBlocksStrategy overwrites the target with the new template but
// splices in the content of every custom block the user edited in the
// existing file. It is the only strategy that parses content.
func (m *Merger) mergeCustomBlocksStrategy(req Request) outcome {
	if !req.HasExisting {
		return outcome{
			action:       ActionWrite,
			finalContent: req.NewContent,
			message:      "no existing content; writing newly generated content",
		}
	}

	oldBlocks, err := m.parser.Parse(req.ExistingContent)
	if err != nil {
		// A malformed existing file must never be discarded silently.
		return outcome{
			action: ActionError,
			err: NewParseError("existing content has malformed custom blocks", err).
				WithTarget(string(req.Location)).
				WithLine(parseErrorLine(err)),
		}
	}

	newBlocks, err := m.parser.Parse(req.NewContent)
	if err != nil {
		// The freshly generated template being malformed is a generator
		// defect, not a user mistake, but it blocks the write all the same.
		return outcome{
			action: ActionError,
			err: NewParseError("newly generated content has malformed custom blocks", err).
				WithTarget(string(req.Location)).
				WithLine(parseErrorLine(err)),
		}
	}

	final, preserved := spliceBlocks(req.NewContent, newBlocks, oldBlocks)

	return outcome{
		action:       ActionWrite,
		finalContent: final,
		message:      fmt.Sprintf("merged content, preserving %d custom block(s)", preserved),
		oldBlocks:    oldBlocks,
		newBlocks:    newBlocks,
		parsed:       true,
	}
}

// spliceBlocks substitutes the old content of every block id present in both
// texts into the new template at that id's marker span. Marker lines and
// every line outside the spans stay verbatim. Blocks that appear only in the
// template keep their default content; blocks that appear only in the old
// text are dropped here and reported as orphans by the orchestrator.
// Returns the spliced text and the number of substituted blocks.
func spliceBlocks(newContent string, newBlocks, oldBlocks []blocks.ParsedBlock) (string, int) {
	oldByID := make(map[string]blocks.ParsedBlock, len(oldBlocks))
	for _, b := range oldBlocks {
		oldByID[b.ID] = b
	}

	lines := strings.Split(newContent, "\n")
	out := make([]string, 0, len(lines))
	preserved := 0
	cursor := 0 // 0-indexed; block line numbers are 1-indexed

	for _, nb := range newBlocks {
		ob, found := oldByID[nb.ID]
		if !found {
			continue
		}
		// Everything up to and including the start marker line.
		out = append(out, lines[cursor:nb.StartLine]...)
		// The previously preserved interior. Empty content means zero
		// interior lines.
		if ob.Content != "" {
			out = append(out, strings.Split(ob.Content, "\n")...)
		}
		// Resume at the end marker line.
		cursor = nb.EndLine - 1
		preserved++
	}
	out = append(out, lines[cursor:]...)

	return strings.Join(out, "\n"), preserved
}

// parseErrorLine extracts the 1-indexed line from a blocks.ParseError.
func parseErrorLine(err error) int {
	if pe, ok := err.(*blocks.ParseError); ok {
		return pe.Line
	}
	return 0
}
