package scrollmode

// MouseEvent is a host-neutral mouse event, viewport-relative in cells.
// RepeatCount follows original_source's convention: 1 press, 2 double
// click, 3 triple click, 0 drag (button held), -1 release.
type MouseEvent struct {
	X, Y        int
	RepeatCount int
}

// HandleMouse dispatches a mouse event. When scroll mode is inactive and
// mouse-driven entry is enabled (Options.ScrollModeMouse), a double
// click, triple click, or drag auto-enters NAVIGATE mode at the click
// position before processing the event, per spec.md §4.8. Returns true if
// the event was consumed.
func (m *ScrollMode) HandleMouse(ev MouseEvent) bool {
	if m.mode == ModeInactive {
		if !m.options.ScrollModeMouse() {
			return false
		}
		if ev.RepeatCount != 2 && ev.RepeatCount != 3 && ev.RepeatCount != 0 {
			return false
		}
		m.Enter()
		if m.mode == ModeInactive {
			return false
		}
		m.moveCursorTo(m.view.viewportTop()+ev.Y, ev.X)
	}

	if ev.RepeatCount == 0 {
		m.dragScrollEdge(ev.Y)
	}

	abs := m.view.viewportTop() + ev.Y
	x := SnapCell(m.view.lineText(abs), ev.X)

	switch ev.RepeatCount {
	case 1:
		m.sel.clear()
		m.moveCursorTo(abs, x)
		m.mode = ModeNavigate
		m.syncSelection()
	case 2:
		m.selectWordAt(abs, x)
	case 3:
		m.moveCursorTo(abs, x)
		m.startSelection(SelectionLine)
	case 0:
		if m.mode != ModeSelect {
			m.startSelection(SelectionChar)
		}
		m.moveCursorTo(abs, x)
	case -1:
		m.moveCursorTo(abs, x)
	}
	return true
}

// dragScrollEdge scrolls the viewport by one line when a drag's pointer
// sits on the top or bottom visible row, so a selection held at the edge
// keeps extending into the history instead of stalling (spec.md §4.8).
func (m *ScrollMode) dragScrollEdge(y int) {
	rows := m.screen.Rows()
	if rows <= 0 {
		return
	}
	if y <= 0 {
		m.screen.Scroll(1, true)
	} else if y >= rows-1 {
		m.screen.Scroll(1, false)
	}
}

// selectWordAt selects the word under (abs, x) using the same character
// classification as word motion, then enters SELECT mode.
func (m *ScrollMode) selectWordAt(abs, x int) {
	cells := m.view.lineCells(abs, m.columns())
	idx := cellIndex(cells, x)
	if idx < 0 {
		m.moveCursorTo(abs, x)
		return
	}
	cls := CharClass(cells[idx].Ch, m.wordChars())
	start, end := idx, idx
	for start > 0 && CharClass(cells[start-1].Ch, m.wordChars()) == cls {
		start--
	}
	for end+1 < len(cells) && CharClass(cells[end+1].Ch, m.wordChars()) == cls {
		end++
	}
	m.sel.start(SelectionChar, abs, cells[start].Cell)
	m.mode = ModeSelect
	endCell := cells[end].Cell
	m.sel.moveTo(abs, endCell)
	m.cursorAbs, m.cursorX = abs, endCell
	m.syncCursor()
	m.syncSelection()
}
