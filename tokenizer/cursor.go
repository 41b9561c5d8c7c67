package tokenizer

import (
	"fmt"
	"unicode/utf8"
)

// Pointer describes the pending span of a Cursor. Offsets are byte offsets into
// the content, lines and columns are 0-based and columns count runes.
type Pointer struct {
	StartOffset int
	EndOffset   int
	StartLine   int
	StartColumn int
	EndLine     int
	EndColumn   int
}

// Len returns the byte length of the span.
func (p Pointer) Len() int {
	return p.EndOffset - p.StartOffset
}

// String renders the start of the span as a 1-based "line:column" pair.
func (p Pointer) String() string {
	return fmt.Sprintf("%d:%d", p.StartLine+1, p.StartColumn+1)
}

// Span returns a pointer that starts where from starts and ends where to ends.
func Span(from, to Pointer) Pointer {
	return Pointer{
		StartOffset: from.StartOffset,
		EndOffset:   to.EndOffset,
		StartLine:   from.StartLine,
		StartColumn: from.StartColumn,
		EndLine:     to.EndLine,
		EndColumn:   to.EndColumn,
	}
}

// Advance moves the end position over raw. "\n", "\r\n" and a bare "\r" each
// count as a single line break.
func (p *Pointer) Advance(raw string) {
	p.advance(raw, "")
}

// advance is Advance with the text that follows raw, so that a "\r" ending raw
// and a "\n" starting follow are still read as one line break.
func (p *Pointer) advance(raw, follow string) {
	for i := 0; i < len(raw); {
		r, size := utf8.DecodeRuneInString(raw[i:])
		i += size
		p.EndOffset += size
		p.EndColumn++

		switch r {
		case '\n':
			p.newLine()
		case '\r':
			next := follow
			if i < len(raw) {
				next = raw[i:]
			}

			if len(next) == 0 || next[0] != '\n' {
				p.newLine()
			}
		}
	}
}

func (p *Pointer) newLine() {
	p.EndLine++
	p.EndColumn = 0
}

// commit moves the start position to the end position.
func (p *Pointer) commit() {
	p.StartOffset = p.EndOffset
	p.StartLine = p.EndLine
	p.StartColumn = p.EndColumn
}

// back moves the end position to the start position.
func (p *Pointer) back() {
	p.EndOffset = p.StartOffset
	p.EndLine = p.StartLine
	p.EndColumn = p.StartColumn
}

// Cursor is a position window into a text buffer with a save/restore stack used
// for backtracking. A Cursor belongs to a single parse and is not safe for
// concurrent use.
type Cursor struct {
	content string
	ptr     Pointer
	stack   []Pointer
}

// NewCursor creates a cursor at the beginning of content.
func NewCursor(content string) *Cursor {
	return &Cursor{content: content}
}

// Content returns the whole buffer.
func (c *Cursor) Content() string {
	return c.content
}

// Pointer returns the current pending span.
func (c *Cursor) Pointer() Pointer {
	return c.ptr
}

// Remaining returns the text after the pending end position.
func (c *Cursor) Remaining() string {
	return c.content[c.ptr.EndOffset:]
}

// Current returns the text of the pending span.
func (c *Cursor) Current() string {
	return c.content[c.ptr.StartOffset:c.ptr.EndOffset]
}

// EOF reports whether the pending end position reached the end of the content.
func (c *Cursor) EOF() bool {
	return c.ptr.EndOffset >= len(c.content)
}

// Depth returns the number of saved snapshots.
func (c *Cursor) Depth() int {
	return len(c.stack)
}

// Advance moves the pending end position over consumed, which must be a prefix
// of the remaining text.
func (c *Cursor) Advance(consumed string) error {
	rest := c.Remaining()
	if len(consumed) > len(rest) || rest[:len(consumed)] != consumed {
		return fmt.Errorf("%w: %q at %s", ErrAdvanceMismatch, consumed, c.Position())
	}

	c.ptr.advance(consumed, rest[len(consumed):])

	return nil
}

// Commit moves the start of the pending span to its end; the span becomes empty.
func (c *Cursor) Commit() {
	c.ptr.commit()
}

// Back drops the pending advance without touching the snapshot stack.
func (c *Cursor) Back() {
	c.ptr.back()
}

// Push saves the pending pointer. The stack itself is not copied: every Push
// must be matched by exactly one Pop or Pull, so a Pop lands back at the depth
// the stack had before the matching Push.
func (c *Cursor) Push() {
	c.stack = append(c.stack, c.ptr)
}

// Pop restores the position saved by the most recent Push and removes it.
func (c *Cursor) Pop() error {
	if len(c.stack) == 0 {
		return ErrEmptyCursorStack
	}

	c.ptr = c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]

	return nil
}

// Pull discards the most recent snapshot and keeps the current position.
func (c *Cursor) Pull() error {
	if len(c.stack) == 0 {
		return ErrEmptyCursorStack
	}

	c.stack = c.stack[:len(c.stack)-1]

	return nil
}

// Reset moves the cursor back to the beginning of the content and clears the stack.
func (c *Cursor) Reset() {
	c.ptr = Pointer{}
	c.stack = c.stack[:0]
}

// Position returns an empty span located at the pending end position.
func (c *Cursor) Position() Pointer {
	p := c.ptr
	p.commit()

	return p
}
