// Package sqllex provides the minimal lexical scanning the statement composer needs.
// It is not a SQL parser: it only tracks quoted literals and comments and locates
// named parameters.
package sqllex

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// Placeholder is written in place of a named parameter when no replacement is given.
	Placeholder = "?"

	paramPrefix        = ':'
	quoteSingle        = '\''
	quoteDouble        = '"'
	commentLinePrefix  = "--"
	commentBlockPrefix = "/*"
	commentBlockSuffix = "*/"
)

// RewriteNamed scans text once, replacing each `:name` occurrence outside quoted
// literals and comments with the string replace returns for it. replace is called
// with the parameter name for every occurrence, in textual order, so the caller
// can assign ordinals and write the matching positional placeholder. A nil
// replace writes Placeholder.
//
// A colon preceded by another colon (the `::` cast operator) is never a parameter
// start, and a colon not followed by an identifier start is copied verbatim.
// Line comments run to the end of the line; an unterminated block comment or
// quoted literal runs to the end of text.
//
// Examples:
//
//	RewriteNamed("a = :p and b = :p", f)  // "a = ? and b = ?" when f returns "?"
//	RewriteNamed("x::text = :v", f)       // "x::text = ?", f("v")
//	RewriteNamed("c = ':p' -- :q", f)     // unchanged, f never called
func RewriteNamed(text string, replace func(name string) string) string {
	if strings.IndexByte(text, paramPrefix) < 0 {
		return text
	}

	var out strings.Builder
	out.Grow(len(text))

	var prev rune
	for i := 0; i < len(text); {
		if end := skipOpaque(text, i); end > i {
			out.WriteString(text[i:end])
			prev = 0
			i = end
			continue
		}

		r, size := utf8.DecodeRuneInString(text[i:])
		if r == paramPrefix && prev != paramPrefix {
			if end := identEnd(text, i+size); end > i+size {
				name := text[i+size : end]
				if replace != nil {
					out.WriteString(replace(name))
				} else {
					out.WriteString(Placeholder)
				}
				// The replaced span ends with an identifier rune, never a colon.
				prev = 0
				i = end
				continue
			}
		}

		out.WriteString(text[i : i+size])
		prev = r
		i += size
	}

	return out.String()
}

// Names returns the parameter names found in text, in order of occurrence,
// using the same rules as RewriteNamed. Repeated names are repeated.
func Names(text string) []string {
	var names []string
	RewriteNamed(text, func(name string) string {
		names = append(names, name)
		return Placeholder
	})
	return names
}

// skipOpaque returns the offset just past a quoted literal or comment starting
// at start, or start itself when none begins there.
func skipOpaque(text string, start int) int {
	rest := text[start:]
	switch {
	case rest[0] == quoteSingle || rest[0] == quoteDouble:
		if end := strings.IndexByte(rest[1:], rest[0]); end >= 0 {
			return start + 1 + end + 1
		}
		return len(text)
	case strings.HasPrefix(rest, commentLinePrefix):
		if end := strings.IndexByte(rest, '\n'); end >= 0 {
			return start + end
		}
		return len(text)
	case strings.HasPrefix(rest, commentBlockPrefix):
		if end := strings.Index(rest[len(commentBlockPrefix):], commentBlockSuffix); end >= 0 {
			return start + len(commentBlockPrefix) + end + len(commentBlockSuffix)
		}
		return len(text)
	}
	return start
}

// identEnd returns the byte offset just past the identifier starting at start,
// or start itself when no identifier begins there.
func identEnd(text string, start int) int {
	if start >= len(text) {
		return start
	}
	r, size := utf8.DecodeRuneInString(text[start:])
	if !isIdentStart(r) {
		return start
	}

	end := start + size
	for end < len(text) {
		r, size = utf8.DecodeRuneInString(text[end:])
		if !isIdentPart(r) {
			break
		}
		end += size
	}
	return end
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
