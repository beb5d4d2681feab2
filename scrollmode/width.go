package scrollmode

import (
	"unicode"

	"github.com/mattn/go-runewidth"
)

// CharWidth returns the cell width of ch: 2 for characters the east-asian
// width table classifies Wide or Fullwidth, 1 otherwise. Control
// characters (which go-runewidth reports as width 0) are treated as width
// 1 so cell math never divides by zero.
func CharWidth(ch rune) int {
	w := runewidth.RuneWidth(ch)
	if w <= 0 {
		return 1
	}
	return w
}

// CellToCharIdx walks text accumulating cell widths and returns the
// code-point index whose character spans cellX. If cellX exceeds the
// line's width, it returns the length of text in runes.
func CellToCharIdx(text string, cellX int) int {
	cell := 0
	idx := 0
	for _, ch := range text {
		w := CharWidth(ch)
		if cellX < cell+w {
			return idx
		}
		cell += w
		idx++
	}
	return idx
}

// CharClass classifies a rune for word motion: 0 whitespace, 1
// alphanumeric or a member of wordChars, 2 anything else.
func CharClass(ch rune, wordChars string) int {
	if isSpace(ch) {
		return 0
	}
	if isAlnum(ch) {
		return 1
	}
	for _, wc := range wordChars {
		if wc == ch {
			return 1
		}
	}
	return 2
}

func isSpace(ch rune) bool {
	return ch == 0 || unicode.IsSpace(ch)
}

func isAlnum(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch)
}

// cellLine is one (char, startingCell) pair as produced by LineCells.
type cellLine struct {
	Ch   rune
	Cell int
}

// LineCells returns the ordered (char, startingCell) pairs for text,
// truncated once the accumulated cell position reaches columns.
func LineCells(text string, columns int) []cellLine {
	var out []cellLine
	cell := 0
	for _, ch := range text {
		if cell >= columns {
			break
		}
		out = append(out, cellLine{Ch: ch, Cell: cell})
		cell += CharWidth(ch)
	}
	return out
}

// SnapCell returns cellX itself unless it falls on the trailing cell of a
// wide character in text, in which case it returns that character's
// starting cell.
func SnapCell(text string, cellX int) int {
	cell := 0
	for _, ch := range text {
		w := CharWidth(ch)
		if cellX < cell+w {
			return cell
		}
		cell += w
	}
	return cellX
}
