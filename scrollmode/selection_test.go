package scrollmode

import "testing"

func TestSelectionCharSingleLine(t *testing.T) {
	screen := newFakeScreen(nil, []string{"hello world"}, 20, 1)
	view := newBufferView(screen)

	var sel selectionState
	sel.start(SelectionChar, 0, 0)
	sel.moveTo(0, 5)

	got := sel.extractText(view)
	if got != "hello" {
		t.Errorf("got %q, want %q", got, "hello")
	}
}

func TestSelectionCharMultiLineJoinsSoftWrap(t *testing.T) {
	screen := newFakeScreen(nil, []string{"first part", "second part"}, 20, 2)
	screen.continued[1] = true
	view := newBufferView(screen)

	var sel selectionState
	sel.start(SelectionChar, 0, 0)
	sel.moveTo(1, 6)

	got := sel.extractText(view)
	want := "first partsecond"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSelectionLineJoinsWithNewlineWhenNotContinued(t *testing.T) {
	screen := newFakeScreen(nil, []string{"line one", "line two"}, 20, 2)
	view := newBufferView(screen)

	var sel selectionState
	sel.start(SelectionLine, 0, 0)
	sel.moveTo(1, 0)

	got := sel.extractText(view)
	want := "line one\nline two"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSelectionBlock(t *testing.T) {
	screen := newFakeScreen(nil, []string{"abcdef", "ghijkl"}, 20, 2)
	view := newBufferView(screen)

	var sel selectionState
	sel.start(SelectionBlock, 0, 1)
	sel.moveTo(1, 4)

	got := sel.extractText(view)
	want := "bcde\nhijk"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSelectionNormalizesReversedAnchor(t *testing.T) {
	var sel selectionState
	sel.start(SelectionChar, 3, 5)
	sel.moveTo(1, 2)

	startAbs, startX, endAbs, endX := sel.normalized()
	if startAbs != 1 || startX != 2 || endAbs != 3 || endX != 5 {
		t.Errorf("got start=(%d,%d) end=(%d,%d)", startAbs, startX, endAbs, endX)
	}
}

func TestSelectionClearResetsState(t *testing.T) {
	var sel selectionState
	sel.start(SelectionChar, 1, 1)
	sel.clear()
	if sel.active {
		t.Error("expected selection to be inactive after clear")
	}
}
