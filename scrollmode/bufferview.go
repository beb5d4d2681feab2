package scrollmode

// bufferView is the unified absolute-line view over a Screen's history and
// live areas (spec.md §4.1). It performs no caching: the underlying Screen
// may be trimmed concurrently, so every accessor re-reads through the
// Screen and tolerates out-of-range indices by returning zero values.
type bufferView struct {
	screen Screen
}

func newBufferView(s Screen) bufferView {
	return bufferView{screen: s}
}

// totalLines is history_count + live_lines on the main buffer, or just
// live_lines on the alternate screen (which has no history).
func (b bufferView) totalLines() int {
	if b.screen.IsMainLinebuf() {
		return b.screen.HistoryCount() + b.screen.Rows()
	}
	return b.screen.Rows()
}

// viewportTop is the absolute line currently at the top row of the
// viewport.
func (b bufferView) viewportTop() int {
	if !b.screen.IsMainLinebuf() {
		return 0
	}
	return b.screen.HistoryCount() - b.screen.ScrolledBy()
}

// lineText returns the text of absolute line abs, or "" if it cannot be
// read — every buffer-view read is total (spec.md §4.1, §7).
func (b bufferView) lineText(abs int) string {
	if abs < 0 {
		return ""
	}
	text, ok := b.screen.Line(abs)
	if !ok {
		return ""
	}
	return text
}

// isSoftContinued reports whether abs is the continuation of a logical
// line that wrapped, rather than one that started with a hard newline.
func (b bufferView) isSoftContinued(abs int) bool {
	if abs <= 0 {
		return false
	}
	return b.screen.IsContinued(abs)
}

// lineCells returns the ordered (char, startingCell) pairs for line abs,
// truncated at columns.
func (b bufferView) lineCells(abs, columns int) []cellLine {
	return LineCells(b.lineText(abs), columns)
}
