package embed

import (
	"strings"

	"golang.org/x/net/html"
)

// ExtractIframeSrc returns the src attribute of the first iframe in the
// fragment. It reports false if there is no iframe or the iframe has no src.
// Malformed input is tokenized as far as possible and never fails.
func ExtractIframeSrc(fragment string) (string, bool) {
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return "", false
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "iframe" {
				continue
			}
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = z.TagAttr()
				if string(key) == "src" && len(val) > 0 {
					return string(val), true
				}
			}
			return "", false
		}
	}
}
