package scrollmode

import "testing"

func TestFindAll(t *testing.T) {
	screen := newFakeScreen(
		[]string{"hello World", "nothing here"},
		[]string{"WORLD peace", "foo"},
		40, 2,
	)
	view := newBufferView(screen)
	eng := newSearchEngine(view)

	matches := eng.findAll("world")
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2: %+v", len(matches), matches)
	}
	if matches[0].Abs != 0 || matches[0].Col != 6 {
		t.Errorf("first match: got %+v, want {Abs:0 Col:6}", matches[0])
	}
	if matches[1].Abs != 2 {
		t.Errorf("second match abs: got %d, want 2", matches[1].Abs)
	}
}

func TestFindAllEmptyQuery(t *testing.T) {
	screen := newFakeScreen(nil, []string{"abc"}, 10, 1)
	view := newBufferView(screen)
	eng := newSearchEngine(view)
	if m := eng.findAll(""); m != nil {
		t.Errorf("expected nil for empty query, got %+v", m)
	}
}

func TestJumpForwardWraps(t *testing.T) {
	screen := newFakeScreen(
		[]string{"cat", "dog"},
		[]string{"cat again"},
		20, 1,
	)
	view := newBufferView(screen)
	eng := newSearchEngine(view)

	abs, x, ok := eng.jump(Forwards, "cat", 2, 5)
	if !ok {
		t.Fatal("expected a wrapped match")
	}
	if abs != 0 || x != 0 {
		t.Errorf("got abs=%d x=%d, want abs=0 x=0 (wrap to first match)", abs, x)
	}
}

func TestJumpBackwardWraps(t *testing.T) {
	screen := newFakeScreen(
		[]string{"cat", "dog"},
		[]string{"cat again"},
		20, 1,
	)
	view := newBufferView(screen)
	eng := newSearchEngine(view)

	abs, x, ok := eng.jump(Backwards, "cat", 0, 0)
	if !ok {
		t.Fatal("expected a wrapped match")
	}
	if abs != 2 || x != 0 {
		t.Errorf("got abs=%d x=%d, want abs=2 x=0", abs, x)
	}
}

func TestJumpNearestStaysOnMatch(t *testing.T) {
	screen := newFakeScreen(nil, []string{"find the word"}, 20, 1)
	view := newBufferView(screen)
	eng := newSearchEngine(view)

	abs, x, moved := eng.jumpNearest("word", Forwards, 0, 9)
	if moved {
		t.Errorf("expected no movement when already on a match, got abs=%d x=%d", abs, x)
	}
}

func TestJumpNearestMovesToNextOnLine(t *testing.T) {
	screen := newFakeScreen(nil, []string{"word word word"}, 20, 1)
	view := newBufferView(screen)
	eng := newSearchEngine(view)

	abs, x, moved := eng.jumpNearest("word", Forwards, 0, 1)
	if !moved {
		t.Fatal("expected movement to the next occurrence on the line")
	}
	if abs != 0 || x != 5 {
		t.Errorf("got abs=%d x=%d, want abs=0 x=5", abs, x)
	}
}

func TestCurrentMatchIndex(t *testing.T) {
	matches := []match{{Abs: 0, Col: 0}, {Abs: 1, Col: 2}, {Abs: 3, Col: 4}}
	if i := currentMatchIndex(matches, 1, 2); i != 1 {
		t.Errorf("got %d, want 1", i)
	}
	if i := currentMatchIndex(matches, 2, 0); i != 2 {
		t.Errorf("got %d, want 2", i)
	}
}
