// Package html turns HTML-wrapped model responses into the plain line-based
// text the section parser reads. Some providers return answers rendered as
// HTML or decorated Markdown; section headers such as "**Study Groups:**" or
// "- Group1: ..." would otherwise never match.
//
//   - ToText: convert HTML through Markdown, then drop the decoration.
//   - StripTags: remove <...> tag sequences from a string.
//   - Undecorate: remove Markdown emphasis, headings and list bullets per line.
package html

import (
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

// LooksLikeHTML reports whether s contains something that resembles a tag.
func LooksLikeHTML(s string) bool {
	i := strings.IndexByte(s, '<')
	if i < 0 {
		return false
	}
	j := strings.IndexByte(s[i:], '>')
	return j > 1
}

// ToText converts an HTML response to plain text with one logical line per
// output line. Text without markup is only undecorated. If the converter
// rejects the input, tags are stripped instead and the error is returned
// alongside the best-effort text.
func ToText(s string) (string, error) {
	if !LooksLikeHTML(s) {
		return Undecorate(s), nil
	}
	md, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return Undecorate(StripTags(s)), fmt.Errorf("html: converting to markdown: %w", err)
	}
	return Undecorate(md), nil
}

// StripTags removes simplistic markup tags of the form <...> from s. Any
// characters between '<' and the next '>' are dropped together with the
// delimiters. Newlines outside tags are kept.
func StripTags(s string) string {
	if s == "" {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	inTag := false
	for _, r := range s {
		switch r {
		case '<':
			inTag = true
		case '>':
			inTag = false
		default:
			if !inTag {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

// Undecorate removes Markdown decoration line by line: "**" and "__" emphasis
// markers, leading '#' heading marks, leading "- ", "* " and "+ " bullets, and
// '\' escapes the converter puts before punctuation. Line structure is kept.
func Undecorate(s string) string {
	if s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, ln := range lines {
		ln = strings.ReplaceAll(ln, "**", "")
		ln = strings.ReplaceAll(ln, "__", "")
		ln = unescape(ln)

		t := strings.TrimLeft(ln, " \t")
		t = strings.TrimLeft(t, "#")
		for _, bullet := range []string{"- ", "* ", "+ "} {
			if rest, ok := strings.CutPrefix(t, bullet); ok {
				t = rest
				break
			}
		}
		lines[i] = CollapseSpaces(t)
	}
	return strings.Join(lines, "\n")
}

// unescape drops a backslash that precedes an ASCII punctuation character.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && isPunct(s[i+1]) {
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isPunct(c byte) bool {
	return strings.IndexByte("!\"#$%&'()*+,-./:;<=>?@[]^_`{|}~", c) >= 0
}

// CollapseSpaces replaces runs of spaces and tabs within a single line with
// one ASCII space and trims both ends. Newlines are not touched.
func CollapseSpaces(s string) string {
	if s == "" {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	seenSpace := false
	for _, r := range s {
		switch r {
		case ' ', '\t':
			if !seenSpace {
				b.WriteByte(' ')
				seenSpace = true
			}
		default:
			b.WriteRune(r)
			seenSpace = false
		}
	}
	return strings.TrimSpace(b.String())
}
