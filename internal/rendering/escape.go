package rendering

import "strings"

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// EscapeXML escapes text for use in SVG element content and attribute values.
// Special characters: & < > " '
func EscapeXML(text string) string {
	if text == "" {
		return ""
	}
	return xmlEscaper.Replace(text)
}
