// Package errs holds Ooze's structured, accumulated diagnostics, following
// the teacher's error-catalog pattern (source/err/errorfile.go): a
// package-level map from a short, slash-namespaced identifier to a function
// producing the message and notes for that identifier, so that two
// otherwise-identical errors raised from different call sites still read
// the same way to the user.
package errs

import (
	"fmt"
	"strings"

	"github.com/ooze-lang/ooze/source/span"
)

// Creator produces the headline message and any explanatory notes for one
// error identifier, given whatever arguments the call site supplied (types,
// names, candidate lists, ...); New attaches the offending span itself.
type Creator struct {
	Message func(args ...any) string
	Notes   func(args ...any) []string
}

// Catalog maps error identifiers to their Creator. Identifiers are
// slash-namespaced by owning pass: lex/..., parse/..., sema/..., graph/...,
// env/....
var Catalog = map[string]Creator{
	"lex/illegal": {
		Message: func(args ...any) string { return fmt.Sprintf("illegal character %s", emph(args[0])) },
	},
	"lex/bad-suffix": {
		Message: func(args ...any) string { return fmt.Sprintf("unrecognized numeric suffix %s", emph(args[0])) },
	},
	"lex/unterminated-string": {
		Message: func(args ...any) string { return "unterminated string literal" },
	},

	"parse/expected": {
		Message: func(args ...any) string {
			return fmt.Sprintf("expected %s, found %s", args[0], emph(args[1]))
		},
	},
	"parse/expected-one-of": {
		Message: func(args ...any) string {
			alts := args[0].([]string)
			return fmt.Sprintf("expected one of %s, found %s", strings.Join(alts, ", "), emph(args[1]))
		},
	},

	"sema/type/undefined": {
		Message: func(args ...any) string { return fmt.Sprintf("undefined type %s", emph(args[0])) },
	},
	"sema/ident/undefined": {
		Message: func(args ...any) string { return fmt.Sprintf("undeclared binding %s", emph(args[0])) },
	},
	"sema/type/mismatch": {
		Message: func(args ...any) string {
			return fmt.Sprintf("expected %s, given %s", args[0], args[1])
		},
	},
	"sema/overload/none": {
		Message: func(args ...any) string { return "no matching overload found" },
		Notes: func(args ...any) []string {
			return []string{fmt.Sprintf("deduced type: %s", args[0]), fmt.Sprintf("candidates: %s", args[1])}
		},
	},
	"sema/overload/ambiguous": {
		Message: func(args ...any) string { return "function call is ambiguous" },
		Notes: func(args ...any) []string {
			return []string{fmt.Sprintf("deduced type: %s", args[0]), fmt.Sprintf("candidates: %s", args[1])}
		},
	},
	"sema/move/reused": {
		Message: func(args ...any) string {
			return fmt.Sprintf("binding %s used %d times", emph(args[0]), args[1])
		},
	},
	"sema/borrow/toplevel": {
		Message: func(args ...any) string { return "cannot return a borrowed value" },
	},
	"sema/let/cycle": {
		Message: func(args ...any) string {
			return fmt.Sprintf("binding %s is used in its own initializer", emph(args[0]))
		},
	},
	"sema/ident/duplicate": {
		Message: func(args ...any) string {
			return fmt.Sprintf("%s is already bound in this scope", emph(args[0]))
		},
	},

	"graph/functional/uncallable": {
		Message: func(args ...any) string { return fmt.Sprintf("value of type %s is not callable", args[0]) },
	},

	"env/binding/missing": {
		Message: func(args ...any) string { return fmt.Sprintf("no such binding %s", emph(args[0])) },
	},
}

func emph(a any) string { return "'" + fmt.Sprint(a) + "'" }

// Error is one diagnostic: a source span, the identifier of the Catalog
// entry that produced it, and its rendered message/notes.
type Error struct {
	Span  span.Ref
	ID    string
	Msg   string
	Notes []string
}

func (e Error) Error() string {
	return e.Msg
}

// New looks up id in the Catalog and renders it with args at span. An id
// missing from the Catalog is a programmer error, not a user error, and
// panics rather than silently degrading -- mirroring the teacher's stance
// that every raised error must have a catalog entry.
func New(id string, sp span.Ref, args ...any) *Error {
	c, ok := Catalog[id]
	if !ok {
		panic("errs: no such error id: " + id)
	}
	e := &Error{Span: sp, ID: id, Msg: c.Message(args...)}
	if c.Notes != nil {
		e.Notes = c.Notes(args...)
	}
	return e
}

// Errors accumulates diagnostics within a single pass (lex, parse, sema),
// which report as many problems as they can rather than stopping at the
// first one; passes are chained by short-circuiting on the first failing
// stage (see Render/HasErrors).
type Errors []*Error

func (es Errors) HasErrors() bool { return len(es) > 0 }

// Render formats each error as `L:C error: msg` followed by the offending
// source line and a caret, then any notes, in the teacher's plain-text
// error-report style, as plain text with no ANSI color.
func (es Errors) Render(sources map[span.SrcID]string) string {
	var sb strings.Builder
	for _, e := range es {
		src := sources[e.Span.Src]
		line, col := span.LineCol(src, e.Span.Begin)
		fmt.Fprintf(&sb, "%d:%d error: %s\n", line, col, e.Msg)
		if lineText, ok := sourceLine(src, line); ok {
			sb.WriteString(lineText)
			sb.WriteByte('\n')
			sb.WriteString(strings.Repeat(" ", col-1))
			sb.WriteString("^\n")
		}
		for _, n := range e.Notes {
			fmt.Fprintf(&sb, "  note: %s\n", n)
		}
	}
	return sb.String()
}

func sourceLine(src string, line int) (string, bool) {
	lines := strings.Split(src, "\n")
	if line < 1 || line > len(lines) {
		return "", false
	}
	return lines[line-1], true
}
