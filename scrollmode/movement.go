package scrollmode

// wordForward implements vim's `w`/`e` motions over the absolute-line
// buffer: starting at (abs, cellX), skip the remainder of the current
// character class, then any whitespace, landing on the first cell of the
// next word. Soft-wrapped lines are treated as one continuous line of
// text (spec.md §4.6).
func wordForward(view bufferView, columns int, abs, cellX int, wordChars string) (int, int) {
	a, x := abs, cellX
	cells := view.lineCells(a, columns)
	cls, ok := classAt(cells, x, wordChars)
	if !ok {
		na, nx, ok := nextLine(view, columns, a)
		if !ok {
			return a, x
		}
		return na, nx
	}

	for {
		cells = view.lineCells(a, columns)
		idx := cellIndex(cells, x)
		if idx < 0 {
			na, nx, ok := nextLine(view, columns, a)
			if !ok {
				return a, x
			}
			a, x = na, nx
			continue
		}
		c := CharClass(cells[idx].Ch, wordChars)
		if c != cls {
			break
		}
		idx++
		if idx >= len(cells) {
			na, nx, ok := nextLine(view, columns, a)
			if !ok {
				return a, x
			}
			a, x = na, nx
			if !view.isSoftContinued(a) {
				break
			}
			continue
		}
		x = cells[idx].Cell
	}

	for {
		cells = view.lineCells(a, columns)
		idx := cellIndex(cells, x)
		if idx < 0 {
			na, nx, ok := nextLine(view, columns, a)
			if !ok {
				return a, x
			}
			a, x = na, nx
			continue
		}
		if CharClass(cells[idx].Ch, wordChars) != 0 {
			return a, x
		}
		idx++
		if idx >= len(cells) {
			na, nx, ok := nextLine(view, columns, a)
			if !ok {
				return a, x
			}
			a, x = na, nx
			continue
		}
		x = cells[idx].Cell
	}
}

// wordEnd implements vim's `e` motion: advance at least one cell, then
// skip whitespace, then land on the last cell of the following word
// (its character class's final cell before the class changes).
func wordEnd(view bufferView, columns int, abs, cellX int, wordChars string) (int, int) {
	a, x, ok := nextCellWrapped(view, columns, abs, cellX)
	if !ok {
		return abs, cellX
	}
	for {
		cells := view.lineCells(a, columns)
		idx := cellIndex(cells, x)
		if idx < 0 || CharClass(cells[idx].Ch, wordChars) != 0 {
			break
		}
		na, nx, ok := nextCellWrapped(view, columns, a, x)
		if !ok {
			return a, x
		}
		a, x = na, nx
	}
	cls, _ := classAt(view.lineCells(a, columns), x, wordChars)
	for {
		na, nx, ok := nextCellWrapped(view, columns, a, x)
		if !ok {
			return a, x
		}
		ncells := view.lineCells(na, columns)
		nidx := cellIndex(ncells, nx)
		if nidx < 0 || CharClass(ncells[nidx].Ch, wordChars) != cls {
			return a, x
		}
		a, x = na, nx
	}
}

// nextCellWrapped returns the cell immediately after (abs, cellX),
// walking onto the next line's first cell when cellX is the last cell on
// its line.
func nextCellWrapped(view bufferView, columns, abs, cellX int) (int, int, bool) {
	cells := view.lineCells(abs, columns)
	idx := cellIndex(cells, cellX)
	if idx >= 0 && idx+1 < len(cells) {
		return abs, cells[idx+1].Cell, true
	}
	return nextLine(view, columns, abs)
}

// wordBackward implements vim's `b` motion: skip leading whitespace going
// backward, then the remainder of the previous character class, landing
// on the first cell of that word.
func wordBackward(view bufferView, columns int, abs, cellX int, wordChars string) (int, int) {
	a, x := abs, cellX
	a, x, ok := prevCell(view, columns, a, x)
	if !ok {
		return abs, cellX
	}

	for {
		cells := view.lineCells(a, columns)
		idx := cellIndex(cells, x)
		if idx < 0 || CharClass(cells[idx].Ch, wordChars) != 0 {
			na, nx, ok := prevCell(view, columns, a, x)
			if !ok {
				return a, x
			}
			a, x = na, nx
			continue
		}
		break
	}

	cls, _ := classAt(view.lineCells(a, columns), x, wordChars)
	for {
		pa, px, ok := prevCell(view, columns, a, x)
		if !ok {
			return a, x
		}
		pcells := view.lineCells(pa, columns)
		pidx := cellIndex(pcells, px)
		if pidx < 0 || CharClass(pcells[pidx].Ch, wordChars) != cls {
			return a, x
		}
		a, x = pa, px
	}
}

func classAt(cells []cellLine, cellX int, wordChars string) (int, bool) {
	idx := cellIndex(cells, cellX)
	if idx < 0 {
		return 0, false
	}
	return CharClass(cells[idx].Ch, wordChars), true
}

func cellIndex(cells []cellLine, cellX int) int {
	for i, c := range cells {
		if c.Cell == cellX {
			return i
		}
	}
	return -1
}

// nextLine returns the first cell of the line after abs, skipping empty
// lines, or ok=false once the buffer is exhausted.
func nextLine(view bufferView, columns, abs int) (int, int, bool) {
	total := view.totalLines()
	for a := abs + 1; a < total; a++ {
		cells := view.lineCells(a, columns)
		if len(cells) > 0 {
			return a, cells[0].Cell, true
		}
		return a, 0, true
	}
	return abs, 0, false
}

// prevCell returns the cell immediately before (abs, cellX), walking onto
// the previous line's last cell when cellX is the first cell on its line.
func prevCell(view bufferView, columns, abs, cellX int) (int, int, bool) {
	cells := view.lineCells(abs, columns)
	idx := cellIndex(cells, cellX)
	if idx > 0 {
		return abs, cells[idx-1].Cell, true
	}
	for a := abs - 1; a >= 0; a-- {
		pcells := view.lineCells(a, columns)
		if len(pcells) > 0 {
			return a, pcells[len(pcells)-1].Cell, true
		}
		return a, 0, true
	}
	return abs, cellX, false
}
