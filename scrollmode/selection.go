package scrollmode

import "strings"

// selectionState tracks an in-progress or completed scroll-mode selection,
// independent of the terminal's own ad hoc click-drag selection (spec.md
// §4.4).
type selectionState struct {
	active bool
	kind   SelectionKind

	anchorAbs, anchorX int
	cursorAbs, cursorX int
}

func (s *selectionState) start(kind SelectionKind, abs, x int) {
	s.active = true
	s.kind = kind
	s.anchorAbs, s.anchorX = abs, x
	s.cursorAbs, s.cursorX = abs, x
}

func (s *selectionState) clear() {
	*s = selectionState{}
}

func (s *selectionState) moveTo(abs, x int) {
	s.cursorAbs, s.cursorX = abs, x
}

// normalized returns the selection's (start, end) endpoints ordered so
// start is never after end, by absolute line then by cell column.
func (s *selectionState) normalized() (startAbs, startX, endAbs, endX int) {
	if s.anchorAbs < s.cursorAbs || (s.anchorAbs == s.cursorAbs && s.anchorX <= s.cursorX) {
		return s.anchorAbs, s.anchorX, s.cursorAbs, s.cursorX
	}
	return s.cursorAbs, s.cursorX, s.anchorAbs, s.anchorX
}

// extractText renders the selected region to plain text per spec.md §4.4:
// char mode extracts exact cell ranges on the first/last line and full
// lines between; line mode takes whole lines; block mode takes the same
// cell-column range from every line in the span. Consecutive lines are
// joined without a newline when the latter is a soft-wrap continuation of
// the former.
func (s *selectionState) extractText(view bufferView) string {
	if !s.active || s.kind == SelectionNone {
		return ""
	}
	startAbs, startX, endAbs, endX := s.normalized()

	var b strings.Builder
	switch s.kind {
	case SelectionLine:
		for abs := startAbs; abs <= endAbs; abs++ {
			s.appendJoined(&b, view, abs, rightTrim(view.lineText(abs)))
		}
	case SelectionBlock:
		loX, hiX := startX, endX
		if loX > hiX {
			loX, hiX = hiX, loX
		}
		for abs := startAbs; abs <= endAbs; abs++ {
			b.WriteString(rightTrim(sliceCells(view.lineText(abs), loX, hiX+1)))
			if abs != endAbs {
				b.WriteByte('\n')
			}
		}
	default: // SelectionChar
		for abs := startAbs; abs <= endAbs; abs++ {
			text := view.lineText(abs)
			switch {
			case startAbs == endAbs:
				text = sliceCells(text, startX, endX+1)
			case abs == startAbs:
				text = sliceCellsFrom(text, startX)
			case abs == endAbs:
				text = sliceCells(text, 0, endX+1)
			}
			s.appendJoined(&b, view, abs, rightTrim(text))
		}
	}
	return b.String()
}

// rightTrim strips trailing blanks from an extracted line segment, per
// spec.md §4.4's "right-trim" requirement on every extracted line. Mirrors
// the blank-cell set `Terminal.Line`'s own trimTrailingSpaces uses (space
// and NUL), since a cell range sliced out of the middle of a line needs
// the same trimming its whole-line counterpart already gets.
func rightTrim(text string) string {
	return strings.TrimRight(text, " \x00")
}

// appendJoined writes line's text to b, preceding it with a newline
// unless it is a soft-wrap continuation of the previous line already
// written.
func (s *selectionState) appendJoined(b *strings.Builder, view bufferView, abs int, text string) {
	if b.Len() > 0 && !view.isSoftContinued(abs) {
		b.WriteByte('\n')
	}
	b.WriteString(text)
}

// sliceCells returns the substring of text spanning cell columns
// [loCell, hiCell).
func sliceCells(text string, loCell, hiCell int) string {
	if hiCell <= loCell {
		return ""
	}
	var b strings.Builder
	cell := 0
	for _, ch := range text {
		w := CharWidth(ch)
		if cell >= hiCell {
			break
		}
		if cell >= loCell {
			b.WriteRune(ch)
		}
		cell += w
	}
	return b.String()
}

func sliceCellsFrom(text string, loCell int) string {
	var b strings.Builder
	cell := 0
	for _, ch := range text {
		if cell >= loCell {
			b.WriteRune(ch)
		}
		cell += CharWidth(ch)
	}
	return b.String()
}
