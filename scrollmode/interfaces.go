// Package scrollmode implements a modal scrollback-navigation overlay for a
// terminal: freeze the output stream, walk the history with vim-style
// keys and the mouse, search, select, and yank to the clipboard.
//
// The package only depends on the small capability interfaces declared
// below, never on a concrete terminal or rendering toolkit, so it can be
// driven by a scripted fake buffer in tests.
package scrollmode

// SelectionKind mirrors the wire values the screen's set_scroll_selection
// collaborator expects: 0 clears, 1/2/3 select char/line/block.
type SelectionKind int

const (
	SelectionNone SelectionKind = iota
	SelectionChar
	SelectionLine
	SelectionBlock
)

// Color is a host-neutral color value; -1 means "use the host default".
type Color int32

const ColorDefault Color = -1

// CellStyle describes how a single status-line cell should be painted.
type CellStyle struct {
	Fg, Bg        Color
	Bold, Italic  bool
	Reverse       bool
}

// Marker is installed on the Screen so it can highlight every occurrence
// of a literal, case-insensitive substring while scroll mode is active.
// The query is never a regex (spec Non-goal); the marker therefore only
// ever needs to carry the literal text to match.
type Marker struct {
	Literal string
}

// Screen is the narrow view of the host terminal's scrollback/live buffer
// that the core needs. It corresponds to spec.md §6's "Screen" consumed
// interface. All reads are total: a Screen is expected to return a zero
// value rather than panic when asked about an index it can no longer
// serve (e.g. trimmed history), per the Error Handling Design (§7).
type Screen interface {
	// Columns and Rows report the current viewport size in cells.
	Columns() int
	Rows() int

	// Cursor reports the live terminal cursor position: on the
	// alternate screen this is the application's cursor; on the main
	// screen it is relative to the live area (row 0 = first live row).
	Cursor() (x, y int)

	// HistoryCount is the number of retained scrollback lines (0 on the
	// alternate screen, which has no history).
	HistoryCount() int

	// ScrolledBy is the screen's current scroll offset from the live
	// bottom (0 = showing the live area).
	ScrolledBy() int

	// IsMainLinebuf reports whether the main buffer (as opposed to the
	// alternate screen) is the one currently showing.
	IsMainLinebuf() bool

	// Line returns the text of absolute line abs (0 = oldest retained
	// history line). ok is false for an out-of-range or unreadable line;
	// callers must treat that the same as an empty line.
	Line(abs int) (text string, ok bool)

	// IsContinued reports whether line abs is the soft-wrapped
	// continuation of the line before it.
	IsContinued(abs int) bool

	// Scroll moves the viewport by n lines (up = toward history).
	Scroll(n int, up bool)

	// ClearSelection clears any selection the host was tracking outside
	// of scroll mode (e.g. an in-progress terminal mouse selection).
	ClearSelection()

	// SetMarker installs (or, given nil, clears) the search-match
	// highlight overlay.
	SetMarker(m *Marker)

	// SetScrollPause freezes (true) or resumes (false) live-output
	// parsing. While paused, incoming child bytes must be buffered, not
	// applied to the screen.
	SetScrollPause(paused bool)

	// FlushScrollPending applies any output bytes buffered while paused.
	// Called once, just before SetScrollPause(false).
	FlushScrollPending()

	// SetScrollCursor pushes the overlay cursor position down to the
	// renderer: x/y are viewport-relative cell coordinates, visible
	// reports whether the cursor should be drawn at all, and charWidth
	// is 1 or 2 depending on the character under the cursor.
	SetScrollCursor(x, y int, visible bool, charWidth int)

	// SetScrollSelection pushes the overlay selection rectangle down to
	// the renderer. kind == SelectionNone clears it. Coordinates are
	// viewport-relative.
	SetScrollSelection(kind SelectionKind, startX, startY, endX, endY int)
}

// TabBarSurface is the drawable the status renderer writes into (spec.md
// §6's "Tab bar" consumed interface, narrowed to what §4.9 needs: a single
// row of cells).
type TabBarSurface interface {
	// LaidOutOnce reports whether the tab bar has ever been through a
	// layout pass; the renderer must no-op until this is true.
	LaidOutOnce() bool

	// Columns is the number of cells across the tab bar row.
	Columns() int

	// SetCell paints a single cell of the tab bar row.
	SetCell(x int, ch rune, style CellStyle)

	// MarkDirty requests a repaint of the tab bar on the next frame.
	MarkDirty()

	// UpdateData notifies the host that cached tab-bar data (e.g. a
	// remote-control snapshot) should be refreshed.
	UpdateData()
}

// Options is the subset of host configuration the core reads.
type Options interface {
	// ScrollModeMouse reports whether mouse-driven auto-entry (double
	// click, triple click, drag) is enabled.
	ScrollModeMouse() bool

	// WordCharacters returns the set of non-alphanumeric runes that
	// should still count as word characters for word motion (§4.2).
	WordCharacters() string
}

// Clipboard is the single synchronous sink yank writes to.
type Clipboard interface {
	SetString(text string)
}

// ErrorReporter surfaces the one user-visible error scroll mode can raise:
// entry refused because the tab bar isn't visible (spec.md §4.5, §7).
type ErrorReporter interface {
	ShowError(title, message string)
}
