// Package encoding maps BR source bytes (ASCII/CP437) to Unicode.
package encoding

import "strings"

// cp437High maps bytes 0x80-0xFF to their CP437 Unicode code points.
var cp437High = [128]rune{
	'Ç', 'ü', 'é', 'â', 'ä', 'à', 'å', 'ç',
	'ê', 'ë', 'è', 'ï', 'î', 'ì', 'Ä', 'Å',
	'É', 'æ', 'Æ', 'ô', 'ö', 'ò', 'û', 'ù',
	'ÿ', 'Ö', 'Ü', '¢', '£', '¥', '₧', 'ƒ',
	'á', 'í', 'ó', 'ú', 'ñ', 'Ñ', 'ª', 'º',
	'¿', '⌐', '¬', '½', '¼', '¡', '«', '»',
	'░', '▒', '▓', '│', '┤', '╡', '╢', '╖',
	'╕', '╣', '║', '╗', '╝', '╜', '╛', '┐',
	'└', '┴', '┬', '├', '─', '┼', '╞', '╟',
	'╚', '╔', '╩', '╦', '╠', '═', '╬', '╧',
	'╨', '╤', '╥', '╙', '╘', '╒', '╓', '╫',
	'╪', '┘', '┌', '█', '▄', '▌', '▐', '▀',
	'α', 'ß', 'Γ', 'π', 'Σ', 'σ', 'µ', 'τ',
	'Φ', 'Θ', 'Ω', 'δ', '∞', 'φ', 'ε', '∩',
	'≡', '±', '≥', '≤', '⌠', '⌡', '÷', '≈',
	'°', '∙', '·', '√', 'ⁿ', '²', '■', ' ',
}

// ToChar maps a single CP437 byte to its Unicode rune. Bytes below 128 map
// to themselves (plain ASCII); the invariant b == ToChar(b) for b < 128 is
// load-bearing throughout the rest of the system (§8 property 2).
func ToChar(b byte) rune {
	if b < 128 {
		return rune(b)
	}
	return cp437High[b-128]
}

// Decode strips DOS end-of-file markers (0x1A) from raw BR source bytes.
// The returned string deliberately keeps one BYTE per source character
// (high bytes 0x80-0xFF are left as single raw bytes, not UTF-8-encoded):
// the parser façade, rope and every position in this system are
// byte-addressed and rely on byte offset == character offset (§6, §8
// property 2). Use DisplayString to render a byte range as real UTF-8 for
// a human (hover text, doc comments, CLI output).
func Decode(raw []byte) string {
	if !containsEOF(raw) {
		return string(raw)
	}
	out := make([]byte, 0, len(raw))
	for _, b := range raw {
		if b == 0x1A {
			continue
		}
		out = append(out, b)
	}
	return string(out)
}

func containsEOF(raw []byte) bool {
	for _, b := range raw {
		if b == 0x1A {
			return true
		}
	}
	return false
}

// DisplayString renders a byte-addressed BR source string (as produced by
// Decode) as valid UTF-8, mapping every byte through the CP437 table. Use
// this only at the boundary where text is shown to a human or sent as LSP
// documentation/label text, never for position arithmetic.
func DisplayString(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		sb.WriteRune(ToChar(s[i]))
	}
	return sb.String()
}
