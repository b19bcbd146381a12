package blocks

import (
	"fmt"
	"regexp"
	"strings"
)

// Parser extracts custom blocks for one marker namespace. The zero value is
// not usable; construct with NewParser. A Parser holds no mutable state and
// is safe for concurrent use.
type Parser struct {
	namespace string
	startRe   *regexp.Regexp
	endRe     *regexp.Regexp
}

// markerPattern builds the marker regexp for one marker kind ("start" or
// "end"). A marker line, after trimming surrounding whitespace, is:
//
//	<comment-open> @<ns>-custom-<kind>: <id> <comment-close>?
//
// where <comment-open> is //, #, /* or <!--, the optional <comment-close> is
// */ or -->, and <id> is one or more of [A-Za-z0-9_-]. Matching is
// case-sensitive.
func markerPattern(namespace, kind string) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(
		`^(?://|#|/\*|<!--)\s*@%s-custom-%s:\s*([A-Za-z0-9_-]+)\s*(?:\*/|-->)?$`,
		regexp.QuoteMeta(namespace), kind,
	))
}

// NewParser creates a parser for the given marker namespace. An empty
// namespace selects DefaultNamespace.
func NewParser(namespace string) *Parser {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Parser{
		namespace: namespace,
		startRe:   markerPattern(namespace, "start"),
		endRe:     markerPattern(namespace, "end"),
	}
}

// Namespace returns the marker namespace this parser matches.
func (p *Parser) Namespace() string {
	return p.namespace
}

// Parse scans text and returns every custom block, in order of appearance.
// It fails with a *ParseError on nested blocks, an end marker with no open
// block, an end marker whose id does not match the open block, an unclosed
// block, or two blocks sharing an id.
//
// The scan is a single O(lines) pass. Splitting is "split on \n, keep the
// trailing empty segment": a text with N newlines yields N+1 logical lines,
// the last possibly empty. This mirrors the merge engine's line model so
// merge round-trips stay byte-stable.
func (p *Parser) Parse(text string) ([]ParsedBlock, error) {
	lines := strings.Split(text, "\n")

	var (
		result    []ParsedBlock
		openID    string
		open      bool
		startLine int
		content   []string
	)

	for i, raw := range lines {
		lineNo := i + 1
		line := strings.TrimSpace(raw)

		if m := p.startRe.FindStringSubmatch(line); m != nil {
			if open {
				return nil, newParseError(lineNo,
					"nested custom block: block %q opened at line %d is still open when block %q starts",
					openID, startLine, m[1])
			}
			openID = m[1]
			open = true
			startLine = lineNo
			content = content[:0]
			continue
		}

		if m := p.endRe.FindStringSubmatch(line); m != nil {
			if !open {
				return nil, newParseError(lineNo,
					"end marker for block %q has no matching start marker", m[1])
			}
			if m[1] != openID {
				return nil, newParseError(lineNo,
					"end marker for block %q does not match block %q opened at line %d",
					m[1], openID, startLine)
			}
			result = append(result, ParsedBlock{
				ID:        openID,
				Content:   strings.Join(content, "\n"),
				StartLine: startLine,
				EndLine:   lineNo,
			})
			open = false
			openID = ""
			continue
		}

		if open {
			// Verbatim, untrimmed: indentation and blank lines inside a
			// block are preserved exactly.
			content = append(content, raw)
		}
	}

	if open {
		return nil, newParseError(startLine, "custom block %q is never closed", openID)
	}

	// Ids must be unique across the whole text; the merge engine keys
	// preserved content by id.
	firstAt := make(map[string]int, len(result))
	for _, b := range result {
		if prev, ok := firstAt[b.ID]; ok {
			return nil, newParseError(b.StartLine,
				"duplicate custom block id %q (first defined at line %d)", b.ID, prev)
		}
		firstAt[b.ID] = b.StartLine
	}

	return result, nil
}

// HasAnyBlocks reports whether text contains at least one custom block.
// It fails wherever Parse would fail.
func (p *Parser) HasAnyBlocks(text string) (bool, error) {
	parsed, err := p.Parse(text)
	if err != nil {
		return false, err
	}
	return len(parsed) > 0, nil
}

// CountBlocks returns the number of custom blocks in text.
// It fails wherever Parse would fail.
func (p *Parser) CountBlocks(text string) (int, error) {
	parsed, err := p.Parse(text)
	if err != nil {
		return 0, err
	}
	return len(parsed), nil
}

// IsStartMarker reports whether a single line is a start marker for this
// parser's namespace.
func (p *Parser) IsStartMarker(line string) bool {
	return p.startRe.MatchString(strings.TrimSpace(line))
}

// IsEndMarker reports whether a single line is an end marker for this
// parser's namespace.
func (p *Parser) IsEndMarker(line string) bool {
	return p.endRe.MatchString(strings.TrimSpace(line))
}

// defaultParser serves the package-level convenience functions.
var defaultParser = NewParser(DefaultNamespace)

// Parse parses text with the default namespace.
func Parse(text string) ([]ParsedBlock, error) {
	return defaultParser.Parse(text)
}

// HasAnyBlocks reports whether text contains custom blocks in the default
// namespace.
func HasAnyBlocks(text string) (bool, error) {
	return defaultParser.HasAnyBlocks(text)
}

// CountBlocks counts custom blocks in the default namespace.
func CountBlocks(text string) (int, error) {
	return defaultParser.CountBlocks(text)
}
