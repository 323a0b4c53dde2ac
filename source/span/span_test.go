package span

import "testing"

func TestNewMapReservedSources(t *testing.T) {
	m := NewMap()
	if m.Name(Builtins) != "#builtins" {
		t.Errorf("Name(Builtins) = %q", m.Name(Builtins))
	}
	if m.Name(Scripts) != "#scripts" {
		t.Errorf("Name(Scripts) = %q", m.Name(Scripts))
	}
	if m.Name(Bindings) != "#bindings" {
		t.Errorf("Name(Bindings) = %q", m.Name(Bindings))
	}
}

func TestMapAddAndText(t *testing.T) {
	m := NewMap()
	id := m.Add("foo.ooze", "let x = 1")
	if m.Name(id) != "foo.ooze" {
		t.Errorf("Name = %q", m.Name(id))
	}
	if m.Text(id) != "let x = 1" {
		t.Errorf("Text = %q", m.Text(id))
	}
}

func TestMapSetText(t *testing.T) {
	m := NewMap()
	id := m.Add("scripts", "a")
	m.SetText(id, "ab")
	if m.Text(id) != "ab" {
		t.Errorf("Text after SetText = %q", m.Text(id))
	}
}

func TestMapOutOfRange(t *testing.T) {
	m := NewMap()
	if m.Name(SrcID(99)) != "?" {
		t.Errorf("expected ? for out-of-range id")
	}
	if m.Text(SrcID(99)) != "" {
		t.Errorf("expected empty text for out-of-range id")
	}
}

func TestJoin(t *testing.T) {
	a := Ref{Src: Scripts, Begin: 5, End: 10}
	b := Ref{Src: Scripts, Begin: 2, End: 7}
	j := Join(a, b)
	if j.Begin != 2 || j.End != 10 {
		t.Errorf("Join = %+v, want Begin=2 End=10", j)
	}
}

func TestLineCol(t *testing.T) {
	text := "abc\ndef\nghi"
	cases := []struct {
		offset   int
		line, col int
	}{
		{0, 1, 1},
		{3, 1, 4},
		{4, 2, 1},
		{8, 3, 1},
	}
	for _, c := range cases {
		line, col := LineCol(text, c.offset)
		if line != c.line || col != c.col {
			t.Errorf("LineCol(%d) = (%d,%d), want (%d,%d)", c.offset, line, col, c.line, c.col)
		}
	}
}
