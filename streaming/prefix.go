package streaming

import "unicode/utf8"

// StablePrefixLen returns the byte length of the longest common prefix of a
// and b, compared code point by code point. The result never splits a
// multi-byte code point of either string.
func StablePrefixLen(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) {
		ra, sa := utf8.DecodeRuneInString(a[n:])
		rb, sb := utf8.DecodeRuneInString(b[n:])
		if ra != rb || sa != sb {
			break
		}
		n += sa
	}
	return n
}

// suffixFrom returns text[from:], advanced to the next code point boundary
// when from lands inside a multi-byte sequence.
func suffixFrom(text string, from int) string {
	if from >= len(text) {
		return ""
	}
	for from < len(text) && !utf8.RuneStart(text[from]) {
		from++
	}
	return text[from:]
}
