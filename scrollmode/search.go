package scrollmode

import "strings"

// Direction is the active search direction (spec.md §3's "direction ∈
// {backwards, forwards}").
type Direction int

const (
	Backwards Direction = iota
	Forwards
)

// match is one (abs_line, cell_col) occurrence of a query in the buffer.
type match struct {
	Abs int
	Col int
}

// searchEngine implements spec.md §4.3 over a bufferView: case-insensitive
// substring search, full-buffer enumeration, and directional jump with
// wrap.
type searchEngine struct {
	view bufferView
}

func newSearchEngine(v bufferView) searchEngine {
	return searchEngine{view: v}
}

// findAll enumerates every (abs_line, cell_col) occurrence of query,
// case-folded, across the entire buffer. Lines that fail to read are
// skipped rather than aborting the scan (spec.md §7 transient-read
// policy).
func (s searchEngine) findAll(query string) []match {
	if query == "" {
		return nil
	}
	queryLower := strings.ToLower(query)
	total := s.view.totalLines()
	var matches []match
	for abs := 0; abs < total; abs++ {
		lineLower := strings.ToLower(s.view.lineText(abs))
		start := 0
		for {
			idx := strings.Index(lineLower[start:], queryLower)
			if idx < 0 {
				break
			}
			idx += start
			matches = append(matches, match{Abs: abs, Col: s.byteIdxToCell(abs, idx)})
			start = idx + 1
			if start > len(lineLower) {
				break
			}
		}
	}
	return matches
}

// byteIdxToCell converts a byte offset (as returned by strings.Index) in
// line abs's lower-cased text into a cell column. Folding to lower case
// never changes a rune's display width, so the cell position of the
// lower-cased byte offset is also the cell position of the original
// character.
func (s searchEngine) byteIdxToCell(abs, byteIdx int) int {
	text := s.view.lineText(abs)
	cell := 0
	b := 0
	for _, ch := range text {
		if b >= byteIdx {
			return cell
		}
		b += runeLen(ch)
		cell += CharWidth(ch)
	}
	return cell
}

func runeLen(ch rune) int {
	switch {
	case ch < 0x80:
		return 1
	case ch < 0x800:
		return 2
	case ch < 0x10000:
		return 3
	default:
		return 4
	}
}

// currentMatchIndex returns the index, within matches, of the match at or
// nearest-after cursorAbs/cursorX.
func currentMatchIndex(matches []match, cursorAbs, cursorX int) int {
	for i, m := range matches {
		if m.Abs == cursorAbs && m.Col == cursorX {
			return i
		}
	}
	for i, m := range matches {
		if m.Abs > cursorAbs || (m.Abs == cursorAbs && m.Col >= cursorX) {
			return i
		}
	}
	return 0
}

// jumpNearest implements spec.md §4.3 jump_nearest: stay if already on a
// match, else move within the current line if one starts later on it
// (searching in dir), else jump inter-line in dir.
func (s searchEngine) jumpNearest(query string, dir Direction, cursorAbs, cursorX int) (abs, x int, moved bool) {
	if query == "" {
		return cursorAbs, cursorX, false
	}
	queryLower := strings.ToLower(query)
	lineLower := strings.ToLower(s.view.lineText(cursorAbs))

	if dir == Forwards {
		col := indexCellAfter(lineLower, queryLower, cursorX, s.view.lineText(cursorAbs))
		if col == cursorX {
			return cursorAbs, cursorX, false
		}
		if col >= 0 {
			return cursorAbs, col, true
		}
	} else {
		col := indexCellAfter(lineLower, queryLower, cursorX, s.view.lineText(cursorAbs))
		if col == cursorX {
			return cursorAbs, cursorX, false
		}
	}
	abs, x, ok := s.jump(dir, query, cursorAbs, cursorX)
	if !ok {
		return cursorAbs, cursorX, false
	}
	return abs, x, true
}

// indexCellAfter finds the cell column of the first occurrence of query
// (lower-cased) in lineLower at or after cell fromCell, returning -1 if
// none exists. raw is the original-case line text, used to translate byte
// offsets to cells.
func indexCellAfter(lineLower, queryLower string, fromCell int, raw string) int {
	fromByte := cellToByteIdx(raw, fromCell)
	if fromByte > len(lineLower) {
		return -1
	}
	idx := indexFrom(lineLower, queryLower, fromByte)
	if idx < 0 {
		return -1
	}
	return cellAtByteIdx(raw, idx)
}

func indexFrom(s, substr string, from int) int {
	if from < 0 {
		from = 0
	}
	if from > len(s) {
		return -1
	}
	idx := strings.Index(s[from:], substr)
	if idx < 0 {
		return -1
	}
	return idx + from
}

func cellToByteIdx(text string, cellX int) int {
	cell := 0
	b := 0
	for _, ch := range text {
		if cell >= cellX {
			return b
		}
		b += runeLen(ch)
		cell += CharWidth(ch)
	}
	return b
}

func cellAtByteIdx(text string, byteIdx int) int {
	cell := 0
	b := 0
	for _, ch := range text {
		if b >= byteIdx {
			return cell
		}
		b += runeLen(ch)
		cell += CharWidth(ch)
	}
	return cell
}

// jump finds the strictly-next (Forwards) or strictly-previous
// (Backwards) match relative to cursorAbs/cursorX, wrapping around the
// buffer exactly once.
func (s searchEngine) jump(dir Direction, query string, cursorAbs, cursorX int) (abs, x int, ok bool) {
	if query == "" {
		return cursorAbs, cursorX, false
	}
	total := s.view.totalLines()
	queryLower := strings.ToLower(query)

	if dir == Backwards {
		if col := s.lastMatchBefore(cursorAbs, queryLower, cursorX); col >= 0 {
			return cursorAbs, col, true
		}
		for a := cursorAbs - 1; a >= 0; a-- {
			if col := s.lastMatchBefore(a, queryLower, -1); col >= 0 {
				return a, col, true
			}
		}
		for a := total - 1; a >= cursorAbs; a-- {
			if col := s.lastMatchBefore(a, queryLower, -1); col >= 0 {
				return a, col, true
			}
		}
		return cursorAbs, cursorX, false
	}

	if col := s.firstMatchAfter(cursorAbs, queryLower, cursorX+1); col >= 0 {
		return cursorAbs, col, true
	}
	for a := cursorAbs + 1; a < total; a++ {
		if col := s.firstMatchAfter(a, queryLower, 0); col >= 0 {
			return a, col, true
		}
	}
	for a := 0; a <= cursorAbs; a++ {
		if col := s.firstMatchAfter(a, queryLower, 0); col >= 0 {
			return a, col, true
		}
	}
	return cursorAbs, cursorX, false
}

// lastMatchBefore returns the cell column of the last occurrence of
// queryLower in line abs strictly before cell beforeCell (or anywhere, if
// beforeCell < 0), or -1 if there is none.
func (s searchEngine) lastMatchBefore(abs int, queryLower string, beforeCell int) int {
	raw := s.view.lineText(abs)
	lower := strings.ToLower(raw)
	limit := len(lower)
	if beforeCell >= 0 {
		limit = cellToByteIdx(raw, beforeCell)
	}
	best := -1
	start := 0
	for {
		idx := indexFrom(lower, queryLower, start)
		if idx < 0 || idx >= limit {
			break
		}
		best = idx
		start = idx + 1
	}
	if best < 0 {
		return -1
	}
	return cellAtByteIdx(raw, best)
}

// firstMatchAfter returns the cell column of the first occurrence of
// queryLower in line abs at or after cell afterCell, or -1 if none.
func (s searchEngine) firstMatchAfter(abs int, queryLower string, afterCell int) int {
	raw := s.view.lineText(abs)
	lower := strings.ToLower(raw)
	fromByte := cellToByteIdx(raw, afterCell)
	idx := indexFrom(lower, queryLower, fromByte)
	if idx < 0 {
		return -1
	}
	return cellAtByteIdx(raw, idx)
}
