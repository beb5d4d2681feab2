package scrollmode

import "regexp"

// promptPattern recognizes a line as a shell prompt or REPL marker,
// matched case-sensitively against the extracted line text per spec.md
// §4.7. Mirrors original_source's _PROMPT_PATTERN alternation and
// anchoring exactly: the starship/pure/spaceship glyph ❯, oh-my-zsh's ➜,
// minimal-prompt ⟩, haskell-style λ, a smiley prompt ending the line
// ("hostname :) "), a line ending in $/#/%/> with zero or more trailing
// blanks, a Python REPL ">>> " continuation, and IPython/Jupyter's
// "In [N]" (with optional space before the bracket).
var promptPattern = regexp.MustCompile(
	`❯` +
		`|➜` +
		`|⟩` +
		`|λ` +
		`|:\)[\s\x00]*$` +
		`|[\$#%>][\s\x00]*$` +
		`|>>>\s` +
		`|In\s*\[\d+\]`,
)

// isPromptLine reports whether abs looks like a shell prompt line.
func isPromptLine(view bufferView, abs int) bool {
	if abs < 0 || abs >= view.totalLines() {
		return false
	}
	return promptPattern.MatchString(view.lineText(abs))
}

// jumpToPrompt walks from fromAbs in dir (Backwards toward history,
// Forwards toward the live area), returning the absolute line of the
// nearest prompt strictly in that direction, wrapping around the buffer
// exactly once if none is found before the end. ok is false only if no
// line other than fromAbs is a prompt line.
func jumpToPrompt(view bufferView, fromAbs int, dir Direction) (abs int, ok bool) {
	total := view.totalLines()
	if total == 0 {
		return fromAbs, false
	}
	if dir == Backwards {
		for a := fromAbs - 1; a >= 0; a-- {
			if isPromptLine(view, a) {
				return a, true
			}
		}
		for a := total - 1; a > fromAbs; a-- {
			if isPromptLine(view, a) {
				return a, true
			}
		}
		return fromAbs, false
	}
	for a := fromAbs + 1; a < total; a++ {
		if isPromptLine(view, a) {
			return a, true
		}
	}
	for a := 0; a < fromAbs; a++ {
		if isPromptLine(view, a) {
			return a, true
		}
	}
	return fromAbs, false
}
