package merge

import (
	"fmt"

	"github.com/hexaglue/hexaglue/pkg/blocks"
	"github.com/hexaglue/hexaglue/pkg/diag"
)

// Mode is the policy governing how freshly generated content interacts with
// a previously existing file at the same location.
type Mode string

const (
	// ModeOverwrite replaces the target unconditionally.
	ModeOverwrite Mode = "overwrite"

	// ModeMergeCustomBlocks overwrites the target but preserves the
	// content of custom blocks found in the existing file.
	ModeMergeCustomBlocks Mode = "merge_custom_blocks"

	// ModeKeepExisting writes only if the target does not exist yet.
	ModeKeepExisting Mode = "keep_existing"

	// ModeFailIfExists writes only if the target does not exist yet and
	// reports an error otherwise.
	ModeFailIfExists Mode = "fail_if_exists"
)

// Modes lists every known merge mode.
var Modes = []Mode{ModeOverwrite, ModeMergeCustomBlocks, ModeKeepExisting, ModeFailIfExists}

// ParseMode converts a configuration string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeOverwrite, ModeMergeCustomBlocks, ModeKeepExisting, ModeFailIfExists:
		return Mode(s), nil
	}
	return "", NewValidationError(fmt.Sprintf("unknown merge mode %q", s), nil)
}

// Action is the outcome kind of a merge.
type Action string

const (
	// ActionWrite means the final content should be written to the target.
	ActionWrite Action = "write"

	// ActionSkip means the target must be left untouched.
	ActionSkip Action = "skip"

	// ActionError means the merge failed and nothing may be written.
	ActionError Action = "error"
)

// Request describes one file-write attempt. Build it with NewRequest and the
// With* helpers; it is created once per merge call and discarded afterwards.
type Request struct {
	// NewContent is the freshly generated content. Required, non-empty.
	NewContent string `validate:"required"`

	// ExistingContent is the previously written content on disk. Only
	// meaningful when HasExisting is true.
	ExistingContent string

	// HasExisting reports whether a previous file exists at the target.
	// A request without existing content is treated identically to an
	// empty/no-history existing file by every strategy.
	HasExisting bool

	// Mode selects the merge strategy.
	Mode Mode `validate:"required,oneof=overwrite merge_custom_blocks keep_existing fail_if_exists"`

	// CustomBlockIDs is the informational set of block ids the caller
	// declared for this artifact. The engine does not act on it.
	CustomBlockIDs []string

	// Location identifies the target for diagnostics. Opaque.
	Location diag.Location
}

// NewRequest creates a Request with no existing content and an unknown
// location.
func NewRequest(newContent string, mode Mode) Request {
	return Request{
		NewContent: newContent,
		Mode:       mode,
		Location:   diag.LocationUnknown,
	}
}

// WithExisting returns a copy of the request carrying existing content.
func (r Request) WithExisting(content string) Request {
	r.ExistingContent = content
	r.HasExisting = true
	return r
}

// WithLocation returns a copy of the request with a diagnostic location.
func (r Request) WithLocation(loc diag.Location) Request {
	if loc == "" {
		loc = diag.LocationUnknown
	}
	r.Location = loc
	return r
}

// WithCustomBlockIDs returns a copy of the request with the declared ids.
func (r Request) WithCustomBlockIDs(ids []string) Request {
	r.CustomBlockIDs = ids
	return r
}

// Response is returned to the caller of Merger.Merge.
type Response struct {
	// Action is the merge outcome kind.
	Action Action `json:"action"`

	// FinalContent is the content to write. Set only when Action is
	// ActionWrite.
	FinalContent string `json:"final_content,omitempty"`

	// Message describes the outcome in human-readable form.
	Message string `json:"message"`
}

// outcome is the internal result of one strategy execution. The two parse
// results are threaded through so orphan analysis does not rescan the texts.
type outcome struct {
	action       Action
	finalContent string
	message      string
	err          *MergeError

	// oldBlocks and newBlocks are set by the merge-custom-blocks strategy
	// when both texts were parsed successfully.
	oldBlocks []blocks.ParsedBlock
	newBlocks []blocks.ParsedBlock
	parsed    bool
}
