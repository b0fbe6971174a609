package render

import "strings"

var (
	textEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
	)

	attrEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#39;",
		"\n", "&#10;",
		"\r", "&#13;",
		"\t", "&#9;",
	)
)

// escapeHTML escapes text content.
func escapeHTML(s string) string {
	return textEscaper.Replace(s)
}

// escapeAttr escapes a double-quoted attribute value, including
// whitespace characters that could break attribute parsing.
func escapeAttr(s string) string {
	return attrEscaper.Replace(s)
}

// escapeComment neutralizes sequences that would end a comment early.
func escapeComment(s string) string {
	return strings.ReplaceAll(s, "--", "- -")
}
