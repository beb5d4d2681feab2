package scrollmode

// Mode is the active state of scroll mode (spec.md §4.5).
type Mode int

const (
	ModeInactive Mode = iota
	ModeNavigate
	ModeSearch
	ModeSelect
)

// ScrollMode is the modal scrollback-navigation overlay. It holds no
// reference to any concrete terminal or rendering toolkit, only the
// capability interfaces it was constructed with.
type ScrollMode struct {
	screen   Screen
	tabBar   TabBarSurface
	options  Options
	clip     Clipboard
	errs     ErrorReporter

	mode Mode
	view bufferView

	cursorAbs, cursorX int

	search searchEngine
	query  string
	dir    Direction
	matches []match

	sel selectionState
}

// New builds a ScrollMode bound to the given collaborators. It starts
// Inactive.
func New(screen Screen, tabBar TabBarSurface, options Options, clip Clipboard, errs ErrorReporter) *ScrollMode {
	return &ScrollMode{
		screen:  screen,
		tabBar:  tabBar,
		options: options,
		clip:    clip,
		errs:    errs,
		mode:    ModeInactive,
	}
}

// RenderStatus repaints the tab bar with the scroll-mode status line. The
// host calls this once per frame while Active is true, in place of its
// normal tab bar render.
func (m *ScrollMode) RenderStatus() {
	if m.mode == ModeInactive {
		return
	}
	m.renderStatus()
}

// Active reports whether scroll mode currently intercepts input.
func (m *ScrollMode) Active() bool {
	return m.mode != ModeInactive
}

// Mode returns the current state.
func (m *ScrollMode) Mode() Mode {
	return m.mode
}

// Enter activates NAVIGATE mode at the current live cursor position,
// pausing the screen's output pipeline. Entry is refused — with a
// user-visible error, per spec.md §4.5/§7 — if the tab bar has never been
// laid out, since the status line has nowhere to draw.
func (m *ScrollMode) Enter() {
	if m.mode != ModeInactive {
		return
	}
	if !m.tabBar.LaidOutOnce() {
		m.errs.ShowError("Cannot enter scrollback navigation", "The tab bar is not yet available.")
		return
	}
	m.view = newBufferView(m.screen)
	m.search = newSearchEngine(m.view)
	m.mode = ModeNavigate
	m.query = ""
	m.matches = nil
	m.sel.clear()

	cx, cy := m.screen.Cursor()
	m.cursorAbs = m.view.viewportTop() + cy
	m.cursorX = cx

	m.screen.SetScrollPause(true)
	m.syncCursor()
	m.tabBar.MarkDirty()
	m.tabBar.UpdateData()
}

// EnterSearch activates scroll mode directly in SEARCH state, as
// original_source's enter_search does.
func (m *ScrollMode) EnterSearch() {
	wasInactive := m.mode == ModeInactive
	if wasInactive {
		m.Enter()
		if m.mode == ModeInactive {
			return
		}
	}
	m.mode = ModeSearch
	m.query = ""
	m.tabBar.MarkDirty()
}

// Exit deactivates scroll mode, flushing any buffered output and
// resuming the pipeline. Selection and search state are discarded.
func (m *ScrollMode) Exit() {
	if m.mode == ModeInactive {
		return
	}
	m.mode = ModeInactive
	m.sel.clear()
	m.query = ""
	m.matches = nil
	m.screen.SetMarker(nil)
	m.screen.SetScrollSelection(SelectionNone, 0, 0, 0, 0)
	m.screen.ClearSelection()
	m.screen.FlushScrollPending()
	m.screen.SetScrollPause(false)
	m.tabBar.MarkDirty()
	m.tabBar.UpdateData()
}

func (m *ScrollMode) columns() int {
	c := m.screen.Columns()
	if c <= 0 {
		return 1
	}
	return c
}

func (m *ScrollMode) wordChars() string {
	return m.options.WordCharacters()
}

// moveCursorTo sets the cursor to an absolute (abs, cellX) position,
// clamping to the buffer's bounds, snapping off a wide character's
// trailing cell, keeping the cursor visible, and syncing the overlay.
func (m *ScrollMode) moveCursorTo(abs, cellX int) {
	total := m.view.totalLines()
	if total == 0 {
		abs, cellX = 0, 0
	} else {
		if abs < 0 {
			abs = 0
		}
		if abs >= total {
			abs = total - 1
		}
	}
	if cellX < 0 {
		cellX = 0
	}
	text := m.view.lineText(abs)
	cellX = SnapCell(text, cellX)

	m.cursorAbs, m.cursorX = abs, cellX
	m.ensureVisible()
	if m.mode == ModeSelect {
		m.sel.moveTo(m.cursorAbs, m.cursorX)
	}
	m.syncCursor()
	m.syncSelection()
}

// moveCursor moves by a relative number of lines (dLine) and/or cells
// (dCell) on the current line.
func (m *ScrollMode) moveCursor(dLine, dCell int) {
	m.moveCursorTo(m.cursorAbs+dLine, m.cursorX+dCell)
}

// ensureVisible scrolls the viewport, if necessary, so the cursor's
// absolute line is on screen.
func (m *ScrollMode) ensureVisible() {
	top := m.view.viewportTop()
	rows := m.screen.Rows()
	if rows <= 0 {
		rows = 1
	}
	if m.cursorAbs < top {
		m.screen.Scroll(top-m.cursorAbs, true)
	} else if m.cursorAbs >= top+rows {
		m.screen.Scroll(m.cursorAbs-(top+rows)+1, false)
	}
}

func (m *ScrollMode) syncCursor() {
	top := m.view.viewportTop()
	y := m.cursorAbs - top
	rows := m.screen.Rows()
	visible := y >= 0 && y < rows
	width := CharWidth(firstRuneAtCell(m.view.lineText(m.cursorAbs), m.cursorX))
	m.screen.SetScrollCursor(m.cursorX, y, visible, width)
}

func (m *ScrollMode) syncSelection() {
	if m.mode != ModeSelect || !m.sel.active {
		m.screen.SetScrollSelection(SelectionNone, 0, 0, 0, 0)
		return
	}
	top := m.view.viewportTop()
	startAbs, startX, endAbs, endX := m.sel.normalized()
	if m.sel.kind == SelectionChar && CharWidth(firstRuneAtCell(m.view.lineText(endAbs), endX)) == 2 {
		endX++
	}
	m.screen.SetScrollSelection(m.sel.kind, startX, startAbs-top, endX, endAbs-top)
}

func firstRuneAtCell(text string, cellX int) rune {
	cell := 0
	for _, ch := range text {
		w := CharWidth(ch)
		if cellX >= cell && cellX < cell+w {
			return ch
		}
		cell += w
	}
	return ' '
}

// startSelection begins a char/line/block selection at the current
// cursor and switches to SELECT mode.
func (m *ScrollMode) startSelection(kind SelectionKind) {
	m.sel.start(kind, m.cursorAbs, m.cursorX)
	m.mode = ModeSelect
	m.syncSelection()
}

// yank copies the current selection's text to the clipboard.
func (m *ScrollMode) yank() {
	text := m.sel.extractText(m.view)
	if text != "" {
		m.clip.SetString(text)
	}
}

func (m *ScrollMode) applyMarker() {
	if m.query == "" {
		m.screen.SetMarker(nil)
		return
	}
	m.screen.SetMarker(&Marker{Literal: m.query})
}

func (m *ScrollMode) refreshMatches() {
	m.matches = m.search.findAll(m.query)
}
