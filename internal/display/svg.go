package display

import (
	"strings"

	"golang.org/x/net/html"
)

// Elements removed from server-rendered SVG together with their content.
// foreignObject stays because Mermaid draws HTML labels inside it; its
// children pass through the same filter.
var blockedSVGElements = map[string]bool{
	"script": true,
	"iframe": true,
	"object": true,
	"embed":  true,
	"form":   true,
}

// sanitizeSVG filters renderer output before it is inlined into the page.
// It drops blocked elements, event handler attributes, script URLs,
// comments and doctypes. Diagram labels come from model output, so the
// renderer's markup is not trusted as-is.
func sanitizeSVG(markup string) string {
	z := html.NewTokenizer(strings.NewReader(markup))
	var (
		b         strings.Builder
		skipName  string
		skipDepth int
	)
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			if skipDepth == 0 {
				b.Write(z.Raw())
			}
		case html.StartTagToken:
			tok := z.Token()
			if skipDepth > 0 {
				if tok.Data == skipName {
					skipDepth++
				}
				continue
			}
			if blockedSVGElements[tok.Data] {
				skipName, skipDepth = tok.Data, 1
				continue
			}
			b.WriteString(cleanAttrs(tok).String())
		case html.EndTagToken:
			tok := z.Token()
			if skipDepth > 0 {
				if tok.Data == skipName {
					skipDepth--
				}
				continue
			}
			if blockedSVGElements[tok.Data] {
				continue
			}
			b.WriteString(tok.String())
		case html.SelfClosingTagToken:
			tok := z.Token()
			if skipDepth > 0 || blockedSVGElements[tok.Data] {
				continue
			}
			b.WriteString(cleanAttrs(tok).String())
		}
	}
}

func cleanAttrs(tok html.Token) html.Token {
	kept := tok.Attr[:0]
	for _, a := range tok.Attr {
		key := strings.ToLower(a.Key)
		if strings.HasPrefix(key, "on") || unsafeURL(a.Val) {
			continue
		}
		kept = append(kept, a)
	}
	tok.Attr = kept
	return tok
}

func unsafeURL(v string) bool {
	v = strings.ToLower(strings.Join(strings.Fields(v), ""))
	return strings.Contains(v, "javascript:") ||
		strings.Contains(v, "vbscript:") ||
		strings.Contains(v, "data:text/html")
}
