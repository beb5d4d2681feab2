package scrollmode

// fakeScreen is a scripted in-memory Screen for tests: history holds
// oldest-first scrollback lines, live holds the current live rows.
type fakeScreen struct {
	history    []string
	continued  map[int]bool
	live       []string
	cols, rows int
	curX, curY int
	scrolledBy int
	mainLinebuf bool

	paused  bool
	pending []byte

	marker    *Marker
	scrollCur struct {
		x, y       int
		visible    bool
		charWidth  int
	}
	scrollSel struct {
		kind                   SelectionKind
		startX, startY, endX, endY int
	}
	selectionCleared bool
}

func newFakeScreen(history, live []string, cols, rows int) *fakeScreen {
	return &fakeScreen{
		history:     history,
		live:        live,
		cols:        cols,
		rows:        rows,
		mainLinebuf: true,
		continued:   map[int]bool{},
	}
}

func (f *fakeScreen) Columns() int { return f.cols }
func (f *fakeScreen) Rows() int    { return f.rows }
func (f *fakeScreen) Cursor() (int, int) { return f.curX, f.curY }
func (f *fakeScreen) HistoryCount() int  { return len(f.history) }
func (f *fakeScreen) ScrolledBy() int    { return f.scrolledBy }
func (f *fakeScreen) IsMainLinebuf() bool { return f.mainLinebuf }

func (f *fakeScreen) Line(abs int) (string, bool) {
	if abs < 0 {
		return "", false
	}
	if abs < len(f.history) {
		return f.history[abs], true
	}
	idx := abs - len(f.history)
	if idx >= 0 && idx < len(f.live) {
		return f.live[idx], true
	}
	return "", false
}

func (f *fakeScreen) IsContinued(abs int) bool { return f.continued[abs] }

func (f *fakeScreen) Scroll(n int, up bool) {
	if up {
		f.scrolledBy += n
	} else {
		f.scrolledBy -= n
	}
	if f.scrolledBy < 0 {
		f.scrolledBy = 0
	}
	maxScroll := len(f.history)
	if f.scrolledBy > maxScroll {
		f.scrolledBy = maxScroll
	}
}

func (f *fakeScreen) ClearSelection() { f.selectionCleared = true }

func (f *fakeScreen) SetMarker(m *Marker) { f.marker = m }

func (f *fakeScreen) SetScrollPause(paused bool) { f.paused = paused }

func (f *fakeScreen) FlushScrollPending() { f.pending = nil }

func (f *fakeScreen) SetScrollCursor(x, y int, visible bool, charWidth int) {
	f.scrollCur.x, f.scrollCur.y = x, y
	f.scrollCur.visible = visible
	f.scrollCur.charWidth = charWidth
}

func (f *fakeScreen) SetScrollSelection(kind SelectionKind, startX, startY, endX, endY int) {
	f.scrollSel.kind = kind
	f.scrollSel.startX, f.scrollSel.startY = startX, startY
	f.scrollSel.endX, f.scrollSel.endY = endX, endY
}

// fakeTabBar is a scripted TabBarSurface.
type fakeTabBar struct {
	laidOut bool
	cols    int
	cells   []rune
	dirty   bool
}

func newFakeTabBar(cols int) *fakeTabBar {
	cells := make([]rune, cols)
	for i := range cells {
		cells[i] = ' '
	}
	return &fakeTabBar{laidOut: true, cols: cols, cells: cells}
}

func (t *fakeTabBar) LaidOutOnce() bool { return t.laidOut }
func (t *fakeTabBar) Columns() int      { return t.cols }
func (t *fakeTabBar) SetCell(x int, ch rune, style CellStyle) {
	if x >= 0 && x < len(t.cells) {
		t.cells[x] = ch
	}
}
func (t *fakeTabBar) MarkDirty()   { t.dirty = true }
func (t *fakeTabBar) UpdateData() {}

// fakeOptions is a scripted Options.
type fakeOptions struct {
	mouse     bool
	wordChars string
}

func (o fakeOptions) ScrollModeMouse() bool  { return o.mouse }
func (o fakeOptions) WordCharacters() string { return o.wordChars }

// fakeClipboard is a scripted Clipboard.
type fakeClipboard struct {
	text string
}

func (c *fakeClipboard) SetString(text string) { c.text = text }

// fakeErrorReporter is a scripted ErrorReporter.
type fakeErrorReporter struct {
	title, message string
	called         bool
}

func (e *fakeErrorReporter) ShowError(title, message string) {
	e.called = true
	e.title, e.message = title, message
}
