package preview

import (
	"regexp"

	"github.com/bytedance/sonic"
)

var (
	scriptClose = regexp.MustCompile(`(?i)</(script)`)
	styleClose  = regexp.MustCompile(`(?i)</(style)`)
)

// escapeScript keeps inline code from terminating its <script> element.
// Only the closing tag is touched; <\/ stays valid in strings and in
// unicode-mode regular expressions.
func escapeScript(code string) string {
	return scriptClose.ReplaceAllString(code, `<\/$1`)
}

// jsString encodes s as a JavaScript string literal. HTML-significant
// characters come out as \u escapes, so the literal is safe inline.
func jsString(s string) string {
	out, err := sonic.ConfigStd.MarshalToString(s)
	if err != nil {
		// strings always encode; keep a valid literal regardless
		return `""`
	}
	return out
}
