package file

import (
	"bytes"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// dropControls removes control runes other than line breaks and tabs.
var dropControls = runes.Remove(runes.Predicate(func(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t'
}))

// decodeText turns raw response bytes into parser input: the UTF-8 BOM is
// dropped, invalid bytes become U+FFFD, stray control characters are removed
// and the result is NFC-normalized so composed and decomposed accents compare
// equal downstream.
func decodeText(b []byte) string {
	b = bytes.TrimPrefix(b, utf8BOM)
	t := transform.Chain(runes.ReplaceIllFormed(), dropControls, norm.NFC)
	out, _, err := transform.Bytes(t, b)
	if err != nil {
		return string(b)
	}
	return string(out)
}
