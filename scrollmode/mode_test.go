package scrollmode

import "testing"

func newTestMode(screen *fakeScreen, tabBar *fakeTabBar) (*ScrollMode, *fakeClipboard, *fakeErrorReporter) {
	opts := fakeOptions{mouse: true, wordChars: "_"}
	clip := &fakeClipboard{}
	errs := &fakeErrorReporter{}
	return New(screen, tabBar, opts, clip, errs), clip, errs
}

func TestEnterPausesScreenAndPlacesCursor(t *testing.T) {
	screen := newFakeScreen([]string{"history one"}, []string{"live one", "live two"}, 20, 2)
	screen.curX, screen.curY = 3, 1
	tabBar := newFakeTabBar(40)
	m, _, _ := newTestMode(screen, tabBar)

	m.Enter()

	if !m.Active() {
		t.Fatal("expected scroll mode to be active")
	}
	if !screen.paused {
		t.Error("expected SetScrollPause(true) on entry")
	}
	if m.cursorAbs != 2 || m.cursorX != 3 {
		t.Errorf("got cursor (%d,%d), want (2,3)", m.cursorAbs, m.cursorX)
	}
}

func TestEnterRefusedWithoutTabBarLayout(t *testing.T) {
	screen := newFakeScreen(nil, []string{"a"}, 20, 1)
	tabBar := newFakeTabBar(40)
	tabBar.laidOut = false
	m, _, errs := newTestMode(screen, tabBar)

	m.Enter()

	if m.Active() {
		t.Error("expected entry to be refused")
	}
	if !errs.called {
		t.Error("expected an error to be reported")
	}
	if screen.paused {
		t.Error("screen should not be paused when entry is refused")
	}
}

func TestExitFlushesAndResumes(t *testing.T) {
	screen := newFakeScreen(nil, []string{"a"}, 20, 1)
	tabBar := newFakeTabBar(40)
	m, _, _ := newTestMode(screen, tabBar)
	m.Enter()

	m.Exit()

	if m.Active() {
		t.Error("expected scroll mode to be inactive after Exit")
	}
	if screen.paused {
		t.Error("expected SetScrollPause(false) on exit")
	}
	if screen.pending != nil {
		t.Error("expected pending bytes to be flushed")
	}
	if screen.marker != nil {
		t.Error("expected marker cleared on exit")
	}
}

func TestSearchEntersAndFindsMatch(t *testing.T) {
	screen := newFakeScreen([]string{"needle in haystack"}, []string{"more hay"}, 30, 1)
	tabBar := newFakeTabBar(40)
	m, _, _ := newTestMode(screen, tabBar)
	m.Enter()

	m.HandleKey(Key{Rune: '/'})
	if m.Mode() != ModeSearch {
		t.Fatal("expected SEARCH mode after '/'")
	}
	for _, r := range "needle" {
		m.HandleKey(Key{Rune: r})
	}
	m.HandleKey(Key{Named: KeyEnter})

	if m.Mode() != ModeNavigate {
		t.Errorf("expected NAVIGATE mode after Enter, got %v", m.Mode())
	}
	if m.cursorAbs != 0 || m.cursorX != 0 {
		t.Errorf("expected cursor at first match (0,0), got (%d,%d)", m.cursorAbs, m.cursorX)
	}
	if screen.marker == nil || screen.marker.Literal != "needle" {
		t.Errorf("expected marker %q installed, got %+v", "needle", screen.marker)
	}
}

func TestSelectAndYankCopiesToClipboard(t *testing.T) {
	screen := newFakeScreen(nil, []string{"copy this text"}, 30, 1)
	tabBar := newFakeTabBar(40)
	m, clip, _ := newTestMode(screen, tabBar)
	m.Enter()

	m.HandleKey(Key{Rune: 'v'})
	if m.Mode() != ModeSelect {
		t.Fatal("expected SELECT mode after 'v'")
	}
	for i := 0; i < 9; i++ {
		m.HandleKey(Key{Rune: 'l'})
	}
	m.HandleKey(Key{Rune: 'y'})

	if m.Mode() != ModeNavigate {
		t.Errorf("expected NAVIGATE mode after yank, got %v", m.Mode())
	}
	if clip.text != "copy this" {
		t.Errorf("got clipboard %q, want %q", clip.text, "copy this")
	}
}

func TestEscapeInSelectYanksThenExits(t *testing.T) {
	screen := newFakeScreen(nil, []string{"escape yanks"}, 30, 1)
	tabBar := newFakeTabBar(40)
	m, clip, _ := newTestMode(screen, tabBar)
	m.Enter()

	m.HandleKey(Key{Rune: 'v'})
	for i := 0; i < 6; i++ {
		m.HandleKey(Key{Rune: 'l'})
	}
	m.HandleKey(Key{Named: KeyEscape})

	if m.Mode() != ModeNavigate {
		t.Errorf("expected NAVIGATE mode after Escape, got %v", m.Mode())
	}
	if clip.text != "escape" {
		t.Errorf("got clipboard %q, want %q", clip.text, "escape")
	}
}

func TestSelectionClearedEnteringSearchFromSelect(t *testing.T) {
	screen := newFakeScreen(nil, []string{"some text here"}, 30, 1)
	tabBar := newFakeTabBar(40)
	m, _, _ := newTestMode(screen, tabBar)
	m.Enter()

	m.HandleKey(Key{Rune: 'v'})
	m.HandleKey(Key{Rune: '/'})

	if m.Mode() != ModeSearch {
		t.Fatal("expected SEARCH mode")
	}
	if m.sel.active {
		t.Error("expected selection to be cleared entering SEARCH from SELECT")
	}

	m.HandleKey(Key{Named: KeyEscape})
	if m.Mode() != ModeNavigate {
		t.Errorf("expected NAVIGATE mode preserved after Escape from SEARCH, got %v", m.Mode())
	}
}

func TestWordMotionNavigate(t *testing.T) {
	screen := newFakeScreen(nil, []string{"foo bar baz"}, 30, 1)
	tabBar := newFakeTabBar(40)
	m, _, _ := newTestMode(screen, tabBar)
	m.Enter()

	m.HandleKey(Key{Rune: 'w'})
	if m.cursorX != 4 {
		t.Errorf("after one 'w', got cursorX=%d, want 4", m.cursorX)
	}
	m.HandleKey(Key{Rune: 'w'})
	if m.cursorX != 8 {
		t.Errorf("after two 'w', got cursorX=%d, want 8", m.cursorX)
	}
	m.HandleKey(Key{Rune: 'b'})
	if m.cursorX != 4 {
		t.Errorf("after 'b', got cursorX=%d, want 4", m.cursorX)
	}
}

func TestScrollWithPageKeys(t *testing.T) {
	history := make([]string, 20)
	for i := range history {
		history[i] = "hist"
	}
	screen := newFakeScreen(history, []string{"live"}, 20, 5)
	tabBar := newFakeTabBar(40)
	m, _, _ := newTestMode(screen, tabBar)
	m.Enter()

	m.HandleKey(Key{Named: KeyPgUp})
	if screen.scrolledBy == 0 {
		t.Error("expected PgUp to scroll the viewport toward history")
	}
}
