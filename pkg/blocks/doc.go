// Package blocks implements the custom-block marker parser used by the
// HexaGlue merge engine.
//
// A custom block is a region of generated text that survives regeneration.
// It is delimited by a start and an end marker line, each written in one of
// several comment syntaxes:
//
//	// @hexaglue-custom-start: imports
//	import "database/sql"
//	// @hexaglue-custom-end: imports
//
//	# @hexaglue-custom-start: extra-rules
//	# @hexaglue-custom-end: extra-rules
//
//	/* @hexaglue-custom-start: mapping */
//	/* @hexaglue-custom-end: mapping */
//
//	<!-- @hexaglue-custom-start: head -->
//	<!-- @hexaglue-custom-end: head -->
//
// The parser is a single left-to-right line scan. It knows nothing about the
// language of the surrounding text: every non-marker line is either plain
// content (inside an open block) or generated output (outside any block).
// Nested blocks, mismatched or unmatched markers, unclosed blocks and
// duplicate block ids are reported as *ParseError values carrying the
// 1-indexed offending line.
//
// Parsers are immutable after construction and safe for concurrent use.
package blocks
