// Package normalization maps free-text relationship labels onto relation-type
// symbols that are safe to splice into a Cypher relationship pattern.
package normalization

import "strings"

// RelationPrefix is prepended when a symbol would otherwise start with a digit.
const RelationPrefix = "REL_"

// separators are rewritten before the generic character-class pass. They end up
// as underscores either way; the table keeps the rule order explicit.
var separators = map[rune]rune{
	'-': '_',
	' ': '_',
	'/': '_',
}

// RelationType normalizes label. It is total and pure: every rune outside
// [A-Za-z0-9_] becomes exactly one underscore (no collapsing), and a leading
// digit gets RelationPrefix. Empty input yields an empty symbol.
func RelationType(label string) string {
	var b strings.Builder
	b.Grow(len(label))
	for _, r := range label {
		if sub, ok := separators[r]; ok {
			b.WriteRune(sub)
			continue
		}
		if isSymbolRune(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('_')
	}
	out := b.String()
	if out != "" && isDigit(out[0]) {
		out = RelationPrefix + out
	}
	return out
}

// IsValidSymbol reports whether s can be used as a relationship type as-is.
func IsValidSymbol(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !isSymbolRune(r) {
			return false
		}
	}
	return true
}

// IsDegenerate reports symbols that carry no letters or digits, e.g. the result
// of normalizing an all-punctuation or non-Latin label. They are still ingested.
func IsDegenerate(symbol string) bool {
	return strings.Trim(symbol, "_") == ""
}

func isSymbolRune(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
