package ui

import (
	"editor/clipboardx"
	"editor/config"
	"editor/scrollmode"

	"github.com/gdamore/tcell/v2"
)

// terminalScrollScreen adapts *Terminal to scrollmode.Screen. It holds no
// scroll-mode state of its own; every call is forwarded straight through
// to the plain int/string-typed methods Terminal already exposes, so
// Terminal itself never imports the scrollmode package.
type terminalScrollScreen struct {
	t *Terminal
}

// NewTerminalScrollScreen adapts a *Terminal to scrollmode.Screen.
func NewTerminalScrollScreen(t *Terminal) scrollmode.Screen {
	return terminalScrollScreen{t: t}
}

func (s terminalScrollScreen) Columns() int                  { return s.t.Columns() }
func (s terminalScrollScreen) Rows() int                     { return s.t.Rows() }
func (s terminalScrollScreen) Cursor() (int, int)            { return s.t.Cursor() }
func (s terminalScrollScreen) HistoryCount() int             { return s.t.HistoryCount() }
func (s terminalScrollScreen) ScrolledBy() int                { return s.t.ScrolledBy() }
func (s terminalScrollScreen) IsMainLinebuf() bool            { return s.t.IsMainLinebuf() }
func (s terminalScrollScreen) Line(abs int) (string, bool)    { return s.t.Line(abs) }
func (s terminalScrollScreen) IsContinued(abs int) bool       { return s.t.IsContinued(abs) }
func (s terminalScrollScreen) Scroll(n int, up bool)          { s.t.Scroll(n, up) }
func (s terminalScrollScreen) ClearSelection()                { s.t.ClearSelection() }
func (s terminalScrollScreen) SetScrollPause(paused bool)     { s.t.SetScrollPause(paused) }
func (s terminalScrollScreen) FlushScrollPending()            { s.t.FlushScrollPending() }

func (s terminalScrollScreen) SetMarker(m *scrollmode.Marker) {
	if m == nil {
		s.t.SetScrollMarkerText("")
		return
	}
	s.t.SetScrollMarkerText(m.Literal)
}

func (s terminalScrollScreen) SetScrollCursor(x, y int, visible bool, charWidth int) {
	s.t.SetScrollCursor(x, y, visible, charWidth)
}

func (s terminalScrollScreen) SetScrollSelection(kind scrollmode.SelectionKind, startX, startY, endX, endY int) {
	s.t.SetScrollSelection(int(kind), startX, startY, endX, endY)
}

// tabBarScrollSurface adapts *TabBar to scrollmode.TabBarSurface,
// translating the host-neutral CellStyle into a tcell.Style.
type tabBarScrollSurface struct {
	tb *TabBar
}

// NewTabBarScrollSurface adapts a *TabBar to scrollmode.TabBarSurface.
func NewTabBarScrollSurface(tb *TabBar) scrollmode.TabBarSurface {
	return tabBarScrollSurface{tb: tb}
}

func (s tabBarScrollSurface) LaidOutOnce() bool { return s.tb.LaidOutOnce() }
func (s tabBarScrollSurface) Columns() int      { return s.tb.Columns() }
func (s tabBarScrollSurface) MarkDirty()        { s.tb.MarkDirty() }
func (s tabBarScrollSurface) UpdateData()       { s.tb.UpdateData() }

func (s tabBarScrollSurface) SetCell(x int, ch rune, style scrollmode.CellStyle) {
	s.tb.SetCell(x, ch, cellStyleToTcell(style))
}

func cellStyleToTcell(style scrollmode.CellStyle) tcell.Style {
	out := tcell.StyleDefault
	if style.Fg != scrollmode.ColorDefault {
		out = out.Foreground(tcell.NewHexColor(int32(style.Fg)))
	}
	if style.Bg != scrollmode.ColorDefault {
		out = out.Background(tcell.NewHexColor(int32(style.Bg)))
	}
	if style.Bold {
		out = out.Bold(true)
	}
	if style.Italic {
		out = out.Italic(true)
	}
	if style.Reverse {
		out = out.Reverse(true)
	}
	return out
}

// configScrollOptions adapts *config.Config to scrollmode.Options.
type configScrollOptions struct {
	cfg *config.Config
}

// NewConfigScrollOptions adapts a *config.Config to scrollmode.Options.
func NewConfigScrollOptions(cfg *config.Config) scrollmode.Options {
	return configScrollOptions{cfg: cfg}
}

func (o configScrollOptions) ScrollModeMouse() bool  { return o.cfg.ScrollModeMouseEnabled() }
func (o configScrollOptions) WordCharacters() string { return o.cfg.WordCharactersOrDefault() }

// clipboardScrollSink adapts the clipboardx package to scrollmode.Clipboard.
type clipboardScrollSink struct{}

// NewClipboardScrollSink adapts the clipboardx package to scrollmode.Clipboard.
func NewClipboardScrollSink() scrollmode.Clipboard { return clipboardScrollSink{} }

func (clipboardScrollSink) SetString(text string) { clipboardx.Write(text) }
