package editor

import (
	"time"

	"editor/scrollmode"
	"editor/ui"

	"github.com/gdamore/tcell/v2"
)

// ensureScrollMode lazily builds the scroll mode overlay bound to the
// current terminal and tab bar, once both exist. Safe to call repeatedly.
func (e *Editor) ensureScrollMode() {
	if e.scrollMode != nil || e.terminal == nil || e.tabBar == nil {
		return
	}
	e.scrollMode = scrollmode.New(
		ui.NewTerminalScrollScreen(e.terminal),
		ui.NewTabBarScrollSurface(e.tabBar),
		ui.NewConfigScrollOptions(e.cfg),
		ui.NewClipboardScrollSink(),
		e,
	)
}

// ShowError implements scrollmode.ErrorReporter by routing through the
// editor's existing temporary-status-message mechanism.
func (e *Editor) ShowError(title, message string) {
	e.setTemporaryError(title + ": " + message)
}

// enterScrollMode activates scrollback navigation on the open terminal,
// if any, switching focus to the terminal and flipping the tab bar into
// its status-line overlay.
func (e *Editor) enterScrollMode() {
	if e.terminal == nil || !e.termOpen {
		return
	}
	e.ensureScrollMode()
	if e.scrollMode == nil || e.scrollMode.Active() {
		return
	}
	e.focusTarget = "terminal"
	e.updateFocus()
	e.tabBar.SetScrollOverlay(true)
	e.scrollMode.Enter()
	if !e.scrollMode.Active() {
		e.tabBar.SetScrollOverlay(false)
	}
}

// exitScrollMode leaves scrollback navigation, restoring the tab strip.
func (e *Editor) exitScrollMode() {
	if e.scrollMode == nil || !e.scrollMode.Active() {
		return
	}
	e.scrollMode.Exit()
	e.tabBar.SetScrollOverlay(false)
}

// handleScrollModeKey forwards a key event to the active scroll mode,
// translating tcell's event into scrollmode's host-neutral Key. Returns
// false (uninterested) when scroll mode isn't active.
func (e *Editor) handleScrollModeKey(ev *tcell.EventKey) bool {
	if e.scrollMode == nil || !e.scrollMode.Active() {
		return false
	}
	k := scrollmode.Key{
		Shift: ev.Modifiers()&tcell.ModShift != 0,
		Ctrl:  ev.Modifiers()&tcell.ModCtrl != 0,
		Alt:   ev.Modifiers()&tcell.ModAlt != 0,
	}
	switch ev.Key() {
	case tcell.KeyEscape:
		k.Named = scrollmode.KeyEscape
	case tcell.KeyEnter:
		k.Named = scrollmode.KeyEnter
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		k.Named = scrollmode.KeyBackspace
	case tcell.KeyUp:
		k.Named = scrollmode.KeyUp
	case tcell.KeyDown:
		k.Named = scrollmode.KeyDown
	case tcell.KeyLeft:
		k.Named = scrollmode.KeyLeft
	case tcell.KeyRight:
		k.Named = scrollmode.KeyRight
	case tcell.KeyPgUp:
		k.Named = scrollmode.KeyPgUp
	case tcell.KeyPgDn:
		k.Named = scrollmode.KeyPgDn
	case tcell.KeyHome:
		k.Named = scrollmode.KeyHome
	case tcell.KeyEnd:
		k.Named = scrollmode.KeyEnd
	case tcell.KeyRune:
		k.Rune = ev.Rune()
	case tcell.KeyCtrlV:
		k.Ctrl, k.Rune = true, 'v'
	case tcell.KeyCtrlD:
		k.Ctrl, k.Rune = true, 'd'
	case tcell.KeyCtrlU:
		k.Ctrl, k.Rune = true, 'u'
	case tcell.KeyCtrlF:
		k.Ctrl, k.Rune = true, 'f'
	case tcell.KeyCtrlB:
		k.Ctrl, k.Rune = true, 'b'
	default:
		return false
	}
	consumed := e.scrollMode.HandleKey(k)
	if !e.scrollMode.Active() {
		e.tabBar.SetScrollOverlay(false)
	}
	return consumed
}

// scrollModeClickTracker distinguishes single, double, and triple clicks
// on the terminal, and reports the -1/0 drag/release states scroll mode's
// MouseEvent.RepeatCount convention expects (spec.md §4.8).
type scrollModeClickTracker struct {
	lastTime     time.Time
	lastX, lastY int
	count        int
	down         bool
}

const scrollModeClickInterval = 400 * time.Millisecond

func (c *scrollModeClickTracker) press(x, y int) int {
	now := time.Now()
	if !c.down {
		if now.Sub(c.lastTime) <= scrollModeClickInterval && x == c.lastX && y == c.lastY {
			c.count++
		} else {
			c.count = 1
		}
		if c.count > 3 {
			c.count = 1
		}
		c.down = true
		c.lastTime, c.lastX, c.lastY = now, x, y
		return c.count
	}
	// Button still down: any further Button1 event is reported as a drag.
	return 0
}

func (c *scrollModeClickTracker) release() {
	c.down = false
}

// handleTerminalMouse routes a mouse event over the terminal area to
// scroll mode first; scroll mode auto-enters on double/triple click or
// drag (when enabled) and otherwise reports the event unconsumed, in
// which case it falls through to the terminal's own mouse handling.
func (e *Editor) handleTerminalMouse(ev *tcell.EventMouse) {
	e.ensureScrollMode()

	mx, my := ev.Position()
	btn := ev.Buttons()

	// Terminal content starts one row below its separator line.
	tx, ty, _, _ := e.termLayout()
	cx, cy := mx-tx, my-ty-1

	if e.scrollMode != nil && cy >= 0 {
		var repeat int
		handled := true
		switch {
		case btn == tcell.Button1:
			repeat = e.termClicks.press(cx, cy)
		case btn == tcell.ButtonNone:
			if e.termClicks.down {
				repeat = -1
			} else {
				handled = false
			}
			e.termClicks.release()
		default:
			handled = false
		}
		if handled {
			if e.scrollMode.HandleMouse(scrollmode.MouseEvent{X: cx, Y: cy, RepeatCount: repeat}) {
				if !e.scrollMode.Active() {
					e.tabBar.SetScrollOverlay(false)
				} else {
					e.tabBar.SetScrollOverlay(true)
				}
				return
			}
		}
	}
	e.terminal.HandleMouse(ev)
}
