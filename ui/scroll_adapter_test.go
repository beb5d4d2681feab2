package ui

import (
	"testing"

	"editor/scrollmode"

	"github.com/gdamore/tcell/v2"
)

func TestCellStyleToTcellDefaultColor(t *testing.T) {
	style := cellStyleToTcell(scrollmode.CellStyle{Fg: scrollmode.ColorDefault, Bg: scrollmode.ColorDefault})
	fg, bg, _ := style.Decompose()
	if fg != tcell.ColorDefault || bg != tcell.ColorDefault {
		t.Fatalf("expected default colors to pass through untouched, got fg=%v bg=%v", fg, bg)
	}
}

func TestCellStyleToTcellAttributes(t *testing.T) {
	plain := cellStyleToTcell(scrollmode.CellStyle{Fg: scrollmode.ColorDefault, Bg: scrollmode.ColorDefault})
	decorated := cellStyleToTcell(scrollmode.CellStyle{
		Fg: scrollmode.ColorDefault, Bg: scrollmode.ColorDefault,
		Bold: true, Italic: true, Reverse: true,
	})
	if decorated == plain {
		t.Fatalf("expected bold/italic/reverse to produce a distinct style")
	}
}

func TestCellStyleToTcellHexColor(t *testing.T) {
	style := cellStyleToTcell(scrollmode.CellStyle{Fg: 0xff0000, Bg: scrollmode.ColorDefault})
	fg, _, _ := style.Decompose()
	if fg.Hex() != 0xff0000 {
		t.Fatalf("expected fg hex 0xff0000, got %#x", fg.Hex())
	}
}
