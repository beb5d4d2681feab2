package scrollmode

import "fmt"

// Gruvbox-derived palette for the scroll-mode status line, reproduced
// from original_source's powerline segment colors.
const (
	statusBg      Color = 0x282828
	modeBg        Color = 0x458588
	modeFg        Color = 0x282828
	searchBg      Color = 0xd79921
	searchFg      Color = 0x282828
	matchBg       Color = 0x98971a
	matchFg       Color = 0x282828
	posBg         Color = 0x3c3836
	posFg         Color = 0xebdbb2
)

const (
	powerlineRight = ''
	powerlineLeft  = ''
)

// renderStatus draws the scroll-mode status line into the tab bar
// surface, replacing the tab strip while scroll mode is active (spec.md
// §4.9).
func (m *ScrollMode) renderStatus() {
	if !m.tabBar.LaidOutOnce() {
		return
	}
	cols := m.tabBar.Columns()
	x := 0

	label := modeLabel(m.mode, m.sel.kind)
	x = m.drawSegment(x, cols, label, CellStyle{Fg: modeFg, Bg: modeBg, Bold: true}, modeBg)

	if m.mode == ModeSearch || m.query != "" {
		prefix := "/"
		if m.dir == Backwards {
			prefix = "?"
		}
		x = m.drawSegment(x, cols, prefix+m.query, CellStyle{Fg: searchFg, Bg: searchBg}, searchBg)

		if len(m.matches) > 0 {
			idx := currentMatchIndex(m.matches, m.cursorAbs, m.cursorX)
			countText := fmt.Sprintf("%d/%d", idx+1, len(m.matches))
			x = m.drawSegment(x, cols, countText, CellStyle{Fg: matchFg, Bg: matchBg}, matchBg)
		}
	}

	for x < cols {
		m.tabBar.SetCell(x, ' ', CellStyle{Fg: ColorDefault, Bg: statusBg})
		x++
	}

	posText := fmt.Sprintf("%d:%d ", m.cursorAbs+1, m.cursorX+1)
	totalText := fmt.Sprintf("%d ", m.view.totalLines())
	right := posText + totalText
	start := cols - len(right)
	if start < 0 {
		start = 0
	}
	for i, ch := range right {
		cx := start + i
		if cx < 0 || cx >= cols {
			continue
		}
		m.tabBar.SetCell(cx, ch, CellStyle{Fg: posFg, Bg: posBg})
	}
	if start > 0 {
		m.tabBar.SetCell(start-1, powerlineLeft, CellStyle{Fg: posBg, Bg: statusBg})
	}

	m.tabBar.MarkDirty()
}

// drawSegment paints text at x in style, followed by a powerline
// separator transitioning into nextBg, and returns the column following
// the separator.
func (m *ScrollMode) drawSegment(x, cols int, text string, style CellStyle, nextBg Color) int {
	for _, ch := range text {
		if x >= cols {
			return x
		}
		m.tabBar.SetCell(x, ch, style)
		x++
	}
	if x < cols {
		m.tabBar.SetCell(x, powerlineRight, CellStyle{Fg: style.Bg, Bg: statusBg})
		x++
	}
	return x
}

func modeLabel(mode Mode, sel SelectionKind) string {
	switch mode {
	case ModeSearch:
		return " SEARCH "
	case ModeSelect:
		switch sel {
		case SelectionLine:
			return " V-LINE "
		case SelectionBlock:
			return " VBLOCK "
		default:
			return " VISUAL "
		}
	default:
		return " NORMAL "
	}
}
