package render

import (
	"errors"
	"fmt"
	"strings"
)

const (
	openPrefix  = "{{#each "
	tagSuffix   = "}}"
	closeTag    = "{{/each}}"
	placeholder = "{{this}}"
)

var (
	// ErrNestedBlock reports a block inside another block.
	ErrNestedBlock = errors.New("nested each block")

	// ErrUnclosedBlock reports an opening marker with no closing marker.
	ErrUnclosedBlock = errors.New("unclosed each block")

	// ErrDuplicateBlock reports two top-level blocks with the same name.
	ErrDuplicateBlock = errors.New("duplicate each block")
)

// segment is either literal text or a top-level block.
type segment struct {
	text  string
	block *block
}

// block is one {{#each name}}inner{{/each}} span.
type block struct {
	name   string
	inner  string
	raw    string
	nested bool
}

// marker is one well-formed opener or closer in a template.
type marker struct {
	start, end int
	name       string
	open       bool
}

// markers lists every opener and closer in document order. Text that starts
// like an opener but is not well formed is skipped.
func markers(tmpl string) []marker {
	var ms []marker
	nextOpen, nextClose := -1, -1
	pos := 0
	for pos < len(tmpl) {
		if nextOpen != len(tmpl) && nextOpen < pos {
			nextOpen = indexFrom(tmpl, openPrefix, pos)
		}
		if nextClose != len(tmpl) && nextClose < pos {
			nextClose = indexFrom(tmpl, closeTag, pos)
		}
		if nextOpen == len(tmpl) && nextClose == len(tmpl) {
			break
		}

		if nextClose < nextOpen {
			ms = append(ms, marker{start: nextClose, end: nextClose + len(closeTag)})
			pos = nextClose + len(closeTag)
			continue
		}

		name, after, ok := readOpener(tmpl, nextOpen)
		if !ok {
			pos = nextOpen + len(openPrefix)
			continue
		}
		ms = append(ms, marker{start: nextOpen, end: after, name: name, open: true})
		pos = after
	}
	return ms
}

// indexFrom returns the offset of the first sep at or after pos, or len(s).
func indexFrom(s, sep string, pos int) int {
	i := strings.Index(s[pos:], sep)
	if i < 0 {
		return len(s)
	}
	return pos + i
}

// pair returns, for every opener in ms, the index of the closer that
// balances it, or -1. Closers and unbalanced openers map to -1.
func pair(ms []marker) []int {
	match := make([]int, len(ms))
	var stack []int
	for i, m := range ms {
		match[i] = -1
		if m.open {
			stack = append(stack, i)
			continue
		}
		if len(stack) > 0 {
			match[stack[len(stack)-1]] = i
			stack = stack[:len(stack)-1]
		}
	}
	return match
}

// scan splits a template into literal text and top-level blocks. Openers are
// matched to closers by depth in a single pass, so a block that contains
// another opener is marked nested instead of being closed early. An opener
// without a matching closer, and a closer without an opener, are literal text;
// scanning resumes right after an unmatched opener.
func scan(tmpl string) []segment {
	var segments []segment
	ms := markers(tmpl)
	match := pair(ms)

	pos := 0
	for i := 0; i < len(ms); i++ {
		j := match[i]
		if j < 0 {
			continue
		}

		open, end := ms[i], ms[j].end
		if open.start > pos {
			segments = append(segments, segment{text: tmpl[pos:open.start]})
		}
		segments = append(segments, segment{block: &block{
			name:   open.name,
			inner:  tmpl[open.end:ms[j].start],
			raw:    tmpl[open.start:end],
			nested: j != i+1,
		}})
		pos = end
		i = j
	}

	if pos < len(tmpl) {
		segments = append(segments, segment{text: tmpl[pos:]})
	}
	return segments
}

// readOpener parses "{{#each NAME}}" at start and returns NAME and the offset
// just past the marker. NAME may not contain braces.
func readOpener(tmpl string, start int) (string, int, bool) {
	nameStart := start + len(openPrefix)
	n := strings.IndexAny(tmpl[nameStart:], "{}")
	if n <= 0 || !strings.HasPrefix(tmpl[nameStart+n:], tagSuffix) {
		return "", 0, false
	}
	return tmpl[nameStart : nameStart+n], nameStart + n + len(tagSuffix), true
}

// Blocks returns the names of the top-level blocks in document order.
func Blocks(tmpl string) []string {
	var names []string
	for _, seg := range scan(tmpl) {
		if seg.block != nil {
			names = append(names, seg.block.name)
		}
	}
	return names
}

// Validate reports structural problems that make Render fall back to
// pass-through: nested blocks, unclosed blocks and repeated block names.
func Validate(tmpl string) error {
	seen := make(map[string]bool)
	for _, seg := range scan(tmpl) {
		if seg.block == nil {
			if name, ok := findOpener(seg.text); ok {
				return fmt.Errorf("block %q: %w", name, ErrUnclosedBlock)
			}
			continue
		}

		b := seg.block
		if b.nested {
			return fmt.Errorf("block %q: %w", b.name, ErrNestedBlock)
		}
		if seen[b.name] {
			return fmt.Errorf("block %q: %w", b.name, ErrDuplicateBlock)
		}
		seen[b.name] = true
	}
	return nil
}

// findOpener returns the name of the first well-formed opener in text.
func findOpener(text string) (string, bool) {
	pos := 0
	for {
		idx := strings.Index(text[pos:], openPrefix)
		if idx < 0 {
			return "", false
		}
		idx += pos
		if name, _, ok := readOpener(text, idx); ok {
			return name, true
		}
		pos = idx + len(openPrefix)
	}
}
