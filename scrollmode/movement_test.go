package scrollmode

import "testing"

func TestWordForwardAcrossLines(t *testing.T) {
	screen := newFakeScreen(nil, []string{"end", "start"}, 20, 2)
	view := newBufferView(screen)

	abs, x := wordForward(view, 20, 0, 0, "")
	if abs != 1 || x != 0 {
		t.Errorf("got (%d,%d), want (1,0)", abs, x)
	}
}

func TestWordBackwardAcrossLines(t *testing.T) {
	screen := newFakeScreen(nil, []string{"end", "start"}, 20, 2)
	view := newBufferView(screen)

	abs, x := wordBackward(view, 20, 1, 0, "")
	if abs != 0 || x != 0 {
		t.Errorf("got (%d,%d), want (0,0)", abs, x)
	}
}

func TestWordEndLandsOnLastCellOfWord(t *testing.T) {
	screen := newFakeScreen(nil, []string{"foo bar"}, 20, 1)
	view := newBufferView(screen)

	abs, x := wordEnd(view, 20, 0, 0, "")
	if abs != 0 || x != 2 {
		t.Errorf("got (%d,%d), want (0,2)", abs, x)
	}
}

func TestWordMotionRespectsWordCharacters(t *testing.T) {
	screen := newFakeScreen(nil, []string{"foo_bar baz"}, 20, 1)
	view := newBufferView(screen)

	abs, x := wordForward(view, 20, 0, 0, "_")
	if abs != 0 || x != 8 {
		t.Errorf("with '_' as a word char, got (%d,%d), want (0,8)", abs, x)
	}

	abs, x = wordForward(view, 20, 0, 0, "")
	if abs != 0 || x != 3 {
		t.Errorf("without '_' as a word char, got (%d,%d), want (0,3)", abs, x)
	}
}
