package scrollmode

import "testing"

func TestCharWidth(t *testing.T) {
	cases := []struct {
		ch   rune
		want int
	}{
		{'a', 1},
		{'1', 1},
		{'中', 2},
		{'日', 2},
		{0, 1},
	}
	for _, c := range cases {
		if got := CharWidth(c.ch); got != c.want {
			t.Errorf("CharWidth(%q) = %d, want %d", c.ch, got, c.want)
		}
	}
}

func TestCellToCharIdx(t *testing.T) {
	text := "a中b"
	if idx := CellToCharIdx(text, 0); idx != 0 {
		t.Errorf("at cell 0: got %d, want 0", idx)
	}
	if idx := CellToCharIdx(text, 1); idx != 1 {
		t.Errorf("at cell 1: got %d, want 1", idx)
	}
	if idx := CellToCharIdx(text, 3); idx != 2 {
		t.Errorf("at cell 3: got %d, want 2", idx)
	}
	if idx := CellToCharIdx(text, 100); idx != 3 {
		t.Errorf("past end: got %d, want 3", idx)
	}
}

func TestCharClass(t *testing.T) {
	if CharClass(' ', "") != 0 {
		t.Error("space should be class 0")
	}
	if CharClass('a', "") != 1 {
		t.Error("letter should be class 1")
	}
	if CharClass('.', "") != 2 {
		t.Error("punctuation should be class 2")
	}
	if CharClass('_', "_") != 1 {
		t.Error("underscore in wordChars should be class 1")
	}
	if CharClass('_', "") != 2 {
		t.Error("underscore not in wordChars should be class 2")
	}
}

func TestLineCells(t *testing.T) {
	cells := LineCells("a中b", 10)
	want := []cellLine{{Ch: 'a', Cell: 0}, {Ch: '中', Cell: 1}, {Ch: 'b', Cell: 3}}
	if len(cells) != len(want) {
		t.Fatalf("got %d cells, want %d", len(cells), len(want))
	}
	for i := range want {
		if cells[i] != want[i] {
			t.Errorf("cell %d: got %+v, want %+v", i, cells[i], want[i])
		}
	}
}

func TestLineCellsTruncates(t *testing.T) {
	cells := LineCells("abcdef", 3)
	if len(cells) != 3 {
		t.Fatalf("got %d cells, want 3", len(cells))
	}
}

func TestSnapCell(t *testing.T) {
	text := "a中b"
	if got := SnapCell(text, 1); got != 1 {
		t.Errorf("snap at start of wide char: got %d, want 1", got)
	}
	if got := SnapCell(text, 2); got != 1 {
		t.Errorf("snap at trailing cell of wide char: got %d, want 1", got)
	}
	if got := SnapCell(text, 3); got != 3 {
		t.Errorf("snap at narrow char: got %d, want 3", got)
	}
}
