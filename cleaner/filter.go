package cleaner

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// NoiseSelectors are removed before a capture is narrowed or converted.
var NoiseSelectors = []string{
	"script", "style", "noscript", "iframe",
	"#onetrust-consent-sdk", ".fc-consent-root", "#cookiefirst-root",
	"[class*='adsbygoogle']", "ins",
}

// RemoveNoise deletes every element matching excludes. The input is returned
// unchanged when nothing is excluded or the document cannot be parsed.
func RemoveNoise(html string, excludes []string) string {
	if len(excludes) == 0 {
		return html
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	for _, selector := range excludes {
		doc.Find(selector).Remove()
	}
	result, err := doc.Html()
	if err != nil {
		return html
	}
	return result
}

// PlainText returns the whitespace-collapsed text of an HTML fragment.
func PlainText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
