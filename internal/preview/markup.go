package preview

import (
	"bytes"
	"io"
	"regexp"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

var (
	headOpen = regexp.MustCompile(`(?i)<head(\s[^>]*)?>`)
	htmlOpen = regexp.MustCompile(`(?i)<html(\s[^>]*)?>`)
	doctype  = regexp.MustCompile(`(?i)^\s*<!doctype[^>]*>`)
)

// skeleton is used when the project has no markup file
const skeleton = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8" />
<title>Preview</title>
</head>
<body>
<div id="root"></div>
</body>
</html>
`

// isLocalRef reports whether a src/href points into the project
func isLocalRef(ref string) bool {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "//") || strings.HasPrefix(ref, "#") {
		return false
	}
	lower := strings.ToLower(ref)
	for _, scheme := range []string{"data:", "blob:", "javascript:", "mailto:"} {
		if strings.HasPrefix(lower, scheme) {
			return false
		}
	}
	return !strings.Contains(ref, "://")
}

// stripLocalRefs removes <link rel=stylesheet> and <script src> elements
// that reference project files and returns the script srcs it removed, in
// document order. Every other byte of the markup is preserved.
func stripLocalRefs(markup string) (string, []string) {
	z := html.NewTokenizer(strings.NewReader(markup))
	var out bytes.Buffer
	var scripts []string
	skipScript := false

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if z.Err() != io.EOF {
				// keep whatever the tokenizer could not consume
				out.Write(z.Raw())
			}
			break
		}
		raw := append([]byte(nil), z.Raw()...)

		if skipScript {
			if tt == html.EndTagToken {
				if name, _ := z.TagName(); string(name) == "script" {
					skipScript = false
				}
			}
			continue
		}

		if tt == html.StartTagToken || tt == html.SelfClosingTagToken {
			name, hasAttr := z.TagName()
			attrs := map[string]string{}
			for hasAttr {
				var k, v []byte
				k, v, hasAttr = z.TagAttr()
				attrs[string(k)] = string(v)
			}

			switch string(name) {
			case "script":
				if src, ok := attrs["src"]; ok && isLocalRef(src) {
					scripts = append(scripts, strings.TrimSpace(src))
					skipScript = tt == html.StartTagToken
					continue
				}
			case "link":
				rel := strings.ToLower(attrs["rel"])
				if strings.Contains(rel, "stylesheet") && isLocalRef(attrs["href"]) {
					continue
				}
			}
		}
		out.Write(raw)
	}
	return out.String(), scripts
}

// lastIndexFold is strings.LastIndex with ASCII case folding
func lastIndexFold(s, sub string) int {
	n := len(sub)
	for i := len(s) - n; i >= 0; i-- {
		if asciiEqualFold(s[i:i+n], sub) {
			return i
		}
	}
	return -1
}

func asciiEqualFold(a, b string) bool {
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// inject places first right after the opening <head> tag, head before the
// last </head> and body before the last </body>. Missing tags are
// synthesized.
func inject(markup, first, head, body string) string {
	if lastIndexFold(markup, "</head>") < 0 {
		block := "<head></head>"
		if loc := htmlOpen.FindStringIndex(markup); loc != nil {
			markup = markup[:loc[1]] + block + markup[loc[1]:]
		} else if loc := doctype.FindStringIndex(markup); loc != nil {
			markup = markup[:loc[1]] + block + markup[loc[1]:]
		} else {
			markup = block + markup
		}
	}

	if loc := headOpen.FindStringIndex(markup); loc != nil {
		markup = markup[:loc[1]] + first + markup[loc[1]:]
	} else {
		i := lastIndexFold(markup, "</head>")
		markup = markup[:i] + first + markup[i:]
	}

	i := lastIndexFold(markup, "</head>")
	markup = markup[:i] + head + markup[i:]

	if i := lastIndexFold(markup, "</body>"); i >= 0 {
		return markup[:i] + body + markup[i:]
	}
	if i := lastIndexFold(markup, "</html>"); i >= 0 {
		return markup[:i] + body + markup[i:]
	}
	return markup + body
}

// titleOf returns the text of the first <title>, if any
func titleOf(markup string) string {
	doc, err := htmlquery.Parse(strings.NewReader(markup))
	if err != nil {
		return ""
	}
	node := htmlquery.FindOne(doc, "//title")
	if node == nil {
		return ""
	}
	return strings.TrimSpace(htmlquery.InnerText(node))
}
