// Package span holds the source-location plumbing shared by every later
// stage of the pipeline: lexer, parser, AST, type graph, and diagnostics all
// tag what they produce with a SrcRef so that errors can always be traced
// back to a line and column in some source.
package span

import "fmt"

// SrcID identifies one source text: a builtins prelude, the set of parsed
// scripts, the binding pseudo-source used by the REPL, or a user file.
type SrcID int

const (
	Builtins SrcID = iota
	Scripts
	Bindings
	firstUserFile
)

// Map associates a SrcID with the textual source it names, and hands out
// fresh IDs for user files as they are loaded.
type Map struct {
	names []string
	texts []string
}

// NewMap creates a Map pre-populated with the three reserved sources.
func NewMap() *Map {
	m := &Map{
		names: make([]string, firstUserFile),
		texts: make([]string, firstUserFile),
	}
	m.names[Builtins] = "#builtins"
	m.names[Scripts] = "#scripts"
	m.names[Bindings] = "#bindings"
	return m
}

// Add registers a new source under the given display name and returns its
// SrcID.
func (m *Map) Add(name, text string) SrcID {
	id := SrcID(len(m.names))
	m.names = append(m.names, name)
	m.texts = append(m.texts, text)
	return id
}

// SetText overwrites the text stored for an already-registered SrcID.
// Nothing in the module calls it outside its test: env registers every
// script, expression and binding as a fresh source through Add.
func (m *Map) SetText(id SrcID, text string) {
	m.texts[id] = text
}

func (m *Map) Name(id SrcID) string {
	if int(id) < 0 || int(id) >= len(m.names) {
		return "?"
	}
	return m.names[id]
}

func (m *Map) Text(id SrcID) string {
	if int(id) < 0 || int(id) >= len(m.texts) {
		return ""
	}
	return m.texts[id]
}

// Ref is a half-open byte range [Begin, End) within source Src, used purely
// for diagnostics: nothing downstream of the parser inspects it except to
// render an error.
type Ref struct {
	Src   SrcID
	Begin int
	End   int
}

func (r Ref) String() string {
	return fmt.Sprintf("%d:[%d,%d)", r.Src, r.Begin, r.End)
}

// Join returns the smallest Ref covering both a and b, which must share a
// SrcID; used to build a parent node's span from its children's.
func Join(a, b Ref) Ref {
	r := a
	if b.Begin < r.Begin {
		r.Begin = b.Begin
	}
	if b.End > r.End {
		r.End = b.End
	}
	return r
}

// LineCol converts a byte offset within text into a 1-based (line, column)
// pair, for rendering `L:C error: msg` diagnostics.
func LineCol(text string, offset int) (line, col int) {
	line, col = 1, 1
	for i, r := range text {
		if i >= offset {
			break
		}
		if r == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}
