package scrollmode

// Key is a host-neutral key event. Rune carries the printable character
// for Named == KeyNone; Named carries a non-printable key identity.
type Key struct {
	Named Named
	Rune  rune
	Shift bool
	Ctrl  bool
	Alt   bool
}

// Named enumerates the non-printable keys scroll mode reacts to.
type Named int

const (
	KeyNone Named = iota
	KeyEscape
	KeyEnter
	KeyBackspace
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyPgUp
	KeyPgDn
	KeyHome
	KeyEnd
)

// HandleKey dispatches a key event according to the active mode, mirroring
// original_source's handle_key/_handle_navigate/_handle_search/_handle_select.
// It returns true if the key was consumed.
func (m *ScrollMode) HandleKey(k Key) bool {
	if m.mode == ModeInactive {
		return false
	}
	switch m.mode {
	case ModeSearch:
		return m.handleSearchKey(k)
	case ModeSelect:
		return m.handleSelectKey(k)
	default:
		return m.handleNavigateKey(k)
	}
}

func (m *ScrollMode) handleNavigateKey(k Key) bool {
	if k.Named == KeyEscape {
		m.Exit()
		return true
	}
	if k.Named == KeyNone {
		if k.Alt {
			switch k.Rune {
			case 'n':
				if abs, ok := jumpToPrompt(m.view, m.cursorAbs, Forwards); ok {
					m.moveCursorTo(abs, 0)
				}
				return true
			case 'u':
				if abs, ok := jumpToPrompt(m.view, m.cursorAbs, Backwards); ok {
					m.moveCursorTo(abs, 0)
				}
				return true
			}
		}
		if k.Ctrl {
			switch k.Rune {
			case 'v':
				m.startSelection(SelectionBlock)
				return true
			case 'd':
				m.moveCursor(m.screen.Rows()/2, 0)
				return true
			case 'u':
				m.moveCursor(-m.screen.Rows()/2, 0)
				return true
			case 'f':
				m.moveCursor(m.screen.Rows(), 0)
				return true
			case 'b':
				m.moveCursor(-m.screen.Rows(), 0)
				return true
			}
		}
		switch k.Rune {
		case '/':
			m.mode = ModeSearch
			m.query = ""
			m.dir = Forwards
			return true
		case '?':
			m.mode = ModeSearch
			m.query = ""
			m.dir = Backwards
			return true
		case 'n':
			m.repeatSearch(m.dir)
			return true
		case 'N':
			m.repeatSearch(opposite(m.dir))
			return true
		case 'v':
			m.startSelection(SelectionChar)
			return true
		case 'V':
			m.startSelection(SelectionLine)
			return true
		case 'w':
			a, x := wordForward(m.view, m.columns(), m.cursorAbs, m.cursorX, m.wordChars())
			m.moveCursorTo(a, x)
			return true
		case 'e':
			a, x := wordEnd(m.view, m.columns(), m.cursorAbs, m.cursorX, m.wordChars())
			m.moveCursorTo(a, x)
			return true
		case 'b':
			a, x := wordBackward(m.view, m.columns(), m.cursorAbs, m.cursorX, m.wordChars())
			m.moveCursorTo(a, x)
			return true
		case 'h':
			m.moveCursor(0, -1)
			return true
		case 'l':
			m.moveCursor(0, 1)
			return true
		case 'j':
			m.moveCursor(1, 0)
			return true
		case 'k':
			m.moveCursor(-1, 0)
			return true
		case 'd':
			m.moveCursor(m.screen.Rows()/2, 0)
			return true
		case 'u':
			m.moveCursor(-m.screen.Rows()/2, 0)
			return true
		case 'g':
			m.moveCursorTo(0, 0)
			return true
		case 'G':
			m.moveCursorTo(m.view.totalLines()-1, 0)
			return true
		case '0':
			m.moveCursorTo(m.cursorAbs, 0)
			return true
		case '$':
			m.moveCursorTo(m.cursorAbs, m.lastCellOfLine(m.cursorAbs))
			return true
		case '{':
			if abs, ok := jumpToPrompt(m.view, m.cursorAbs, Backwards); ok {
				m.moveCursorTo(abs, 0)
			}
			return true
		case '}':
			if abs, ok := jumpToPrompt(m.view, m.cursorAbs, Forwards); ok {
				m.moveCursorTo(abs, 0)
			}
			return true
		case 'q':
			m.Exit()
			return true
		}
		return false
	}
	switch k.Named {
	case KeyUp:
		m.moveCursor(-1, 0)
	case KeyDown:
		m.moveCursor(1, 0)
	case KeyLeft:
		m.moveCursor(0, -1)
	case KeyRight:
		m.moveCursor(0, 1)
	case KeyPgUp:
		m.moveCursor(-m.screen.Rows(), 0)
	case KeyPgDn:
		m.moveCursor(m.screen.Rows(), 0)
	case KeyHome:
		m.moveCursorTo(m.cursorAbs, 0)
	case KeyEnd:
		m.moveCursorTo(m.cursorAbs, m.lastCellOfLine(m.cursorAbs))
	default:
		return false
	}
	return true
}

// lastCellOfLine returns the starting cell of the last character on line
// abs, or 0 for an empty line (spec.md §4.5 `$`).
func (m *ScrollMode) lastCellOfLine(abs int) int {
	cells := m.view.lineCells(abs, m.columns())
	if len(cells) == 0 {
		return 0
	}
	return cells[len(cells)-1].Cell
}

func (m *ScrollMode) handleSearchKey(k Key) bool {
	switch k.Named {
	case KeyEscape:
		m.query = ""
		m.matches = nil
		m.screen.SetMarker(nil)
		m.mode = ModeNavigate
		return true
	case KeyEnter:
		m.refreshMatches()
		m.applyMarker()
		if abs, x, moved := m.search.jumpNearest(m.query, m.dir, m.cursorAbs, m.cursorX); moved {
			m.moveCursorTo(abs, x)
		}
		m.mode = ModeNavigate
		return true
	case KeyBackspace:
		if len(m.query) > 0 {
			m.query = m.query[:len(m.query)-1]
		}
		m.refreshMatches()
		m.applyMarker()
		return true
	case KeyNone:
		if k.Rune != 0 {
			m.query += string(k.Rune)
			m.refreshMatches()
			m.applyMarker()
			return true
		}
	}
	return false
}

func (m *ScrollMode) handleSelectKey(k Key) bool {
	if k.Named == KeyEscape {
		m.yank()
		m.sel.clear()
		m.mode = ModeNavigate
		m.syncSelection()
		return true
	}
	if k.Ctrl && k.Rune == 'v' {
		if m.sel.kind == SelectionBlock {
			m.sel.clear()
			m.mode = ModeNavigate
			m.syncSelection()
			return true
		}
		m.sel.kind = SelectionBlock
		m.syncSelection()
		return true
	}
	if k.Named == KeyNone {
		switch k.Rune {
		case 'y':
			m.yank()
			m.sel.clear()
			m.mode = ModeNavigate
			m.syncSelection()
			return true
		case 'o':
			m.sel.anchorAbs, m.sel.cursorAbs = m.sel.cursorAbs, m.sel.anchorAbs
			m.sel.anchorX, m.sel.cursorX = m.sel.cursorX, m.sel.anchorX
			m.cursorAbs, m.cursorX = m.sel.cursorAbs, m.sel.cursorX
			m.syncCursor()
			m.syncSelection()
			return true
		case 'v':
			if m.sel.kind == SelectionChar {
				m.sel.clear()
				m.mode = ModeNavigate
				m.syncSelection()
				return true
			}
			// Switch kind in place, toggling the current selection's
			// mode label without resetting its anchor (original_source
			// leaves _sel_start_abs/_sel_start_x untouched here).
			m.sel.kind = SelectionChar
			m.syncSelection()
			return true
		case 'V':
			if m.sel.kind == SelectionLine {
				m.sel.clear()
				m.mode = ModeNavigate
				m.syncSelection()
				return true
			}
			m.sel.kind = SelectionLine
			m.syncSelection()
			return true
		case '/':
			m.sel.clear()
			m.syncSelection()
			m.mode = ModeSearch
			m.query = ""
			m.dir = Forwards
			return true
		}
	}
	return m.handleNavigateKey(k)
}

func (m *ScrollMode) repeatSearch(dir Direction) {
	if m.query == "" {
		return
	}
	if abs, x, ok := m.search.jump(dir, m.query, m.cursorAbs, m.cursorX); ok {
		m.moveCursorTo(abs, x)
	}
}

func opposite(d Direction) Direction {
	if d == Forwards {
		return Backwards
	}
	return Forwards
}
