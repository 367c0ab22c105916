// Package fanvotes recovers fan-vote percentages from a rendered match page.
//
// The page is captured once as a Snapshot (annotated outer HTML plus the
// rendered body text); every strategy is a pure function over that
// snapshot, so the cascade can be exercised against synthetic fixtures.
package fanvotes

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// WidthAttr carries an element's rendered clientWidth, stamped by
// SnapshotJS on single-label elements ("1", "X", "2").
const WidthAttr = "data-rendered-width"

// HiddenAttr marks elements the browser does not render. SnapshotJS sets it
// to "display" for elements without a box, whose subtree is skipped, and to
// "visibility" for visibility:hidden elements, whose own text is skipped.
const HiddenAttr = "data-hidden"

// SnapshotJS runs in the page. It marks non-rendered elements, stamps
// rendered widths onto label elements, then returns the document markup and
// the body's innerText.
const SnapshotJS = `() => {
	for (const el of document.querySelectorAll('[` + HiddenAttr + `]')) {
		el.removeAttribute('` + HiddenAttr + `');
	}
	for (const el of document.querySelectorAll('body *')) {
		const s = window.getComputedStyle(el);
		if (s.display === 'none' || (s.display !== 'contents' && el.getClientRects().length === 0)) {
			el.setAttribute('` + HiddenAttr + `', 'display');
		} else if (s.visibility === 'hidden' || s.visibility === 'collapse') {
			el.setAttribute('` + HiddenAttr + `', 'visibility');
		}
	}
	for (const el of document.querySelectorAll('body *')) {
		const t = (el.innerText || '').trim();
		if (t === '1' || t === 'X' || t === '2') {
			el.setAttribute('` + WidthAttr + `', String(el.clientWidth));
		}
	}
	return {
		html: document.documentElement.outerHTML,
		text: document.body ? document.body.innerText : ''
	};
}`

// Snapshot is an immutable view of the page at extraction time.
type Snapshot struct {
	Doc  *goquery.Document
	Text string
}

// NewSnapshot parses rawHTML. If text is empty, the rendered text is
// derived from the document body.
func NewSnapshot(rawHTML, text string) (*Snapshot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("fanvotes: parse snapshot: %w", err)
	}
	if text == "" {
		text = RenderedText(doc.Find("body"))
	}
	return &Snapshot{Doc: doc, Text: text}, nil
}

// inlineTags do not break the text flow, mirroring innerText.
var inlineTags = map[string]struct{}{
	"a": {}, "abbr": {}, "b": {}, "bdi": {}, "cite": {}, "code": {}, "em": {},
	"font": {}, "i": {}, "label": {}, "mark": {}, "q": {}, "s": {}, "small": {},
	"span": {}, "strong": {}, "sub": {}, "sup": {}, "time": {}, "u": {},
}

var skippedTags = map[string]struct{}{
	"script": {}, "style": {}, "noscript": {}, "template": {}, "head": {},
}

// RenderedText approximates innerText for the selection: text of
// block-level descendants is separated by whitespace, inline runs are
// joined, whitespace is collapsed, and non-rendered elements contribute
// nothing.
func RenderedText(sel *goquery.Selection) string {
	var b strings.Builder
	for _, n := range sel.Nodes {
		if !Rendered(n) {
			continue
		}
		writeText(&b, n, inheritsInvisible(n))
		b.WriteByte(' ')
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func writeText(b *strings.Builder, n *html.Node, invisible bool) {
	switch n.Type {
	case html.TextNode:
		if !invisible {
			b.WriteString(n.Data)
		}
		return
	case html.ElementNode:
		if _, skip := skippedTags[n.Data]; skip {
			return
		}
	}

	// own governs this element's text nodes, invisible its descendants.
	own := invisible
	switch hiddenMode(n) {
	case hiddenDisplay:
		return
	case markedInvisible:
		own = true
	case hiddenVisibility:
		own, invisible = true, true
	case visibleAgain:
		own, invisible = false, false
	}

	_, inline := inlineTags[n.Data]
	block := n.Type == html.ElementNode && !inline
	if block {
		b.WriteByte(' ')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			writeText(b, c, own)
		} else {
			writeText(b, c, invisible)
		}
	}
	if block {
		b.WriteByte(' ')
	}
}

type visibility int

const (
	inherited visibility = iota
	hiddenDisplay
	// markedInvisible comes from SnapshotJS; computed visibility already
	// marks every hidden descendant, so it does not propagate.
	markedInvisible
	hiddenVisibility
	visibleAgain
)

var (
	reDisplayNone   = regexp.MustCompile(`(?i)(?:^|;)\s*display\s*:\s*none`)
	reVisibilityOff = regexp.MustCompile(`(?i)(?:^|;)\s*visibility\s*:\s*(?:hidden|collapse)`)
	reVisibilityOn  = regexp.MustCompile(`(?i)(?:^|;)\s*visibility\s*:\s*visible`)
)

// hiddenMode reads the marks SnapshotJS leaves, falling back to the hidden
// attribute and inline styles for markup that was never marked.
func hiddenMode(n *html.Node) visibility {
	var style string
	for _, a := range n.Attr {
		switch a.Key {
		case HiddenAttr:
			switch a.Val {
			case "display":
				return hiddenDisplay
			case "visibility":
				return markedInvisible
			}
		case "hidden":
			return hiddenDisplay
		case "style":
			style = a.Val
		}
	}
	switch {
	case reDisplayNone.MatchString(style):
		return hiddenDisplay
	case reVisibilityOff.MatchString(style):
		return hiddenVisibility
	case reVisibilityOn.MatchString(style):
		return visibleAgain
	}
	return inherited
}

// inheritsInvisible reports whether the nearest inline visibility rule above
// n hides it.
func inheritsInvisible(n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		switch hiddenMode(p) {
		case hiddenVisibility:
			return true
		case visibleAgain:
			return false
		}
	}
	return false
}

// Rendered reports whether n and every element ancestor have a box.
func Rendered(n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && hiddenMode(n) == hiddenDisplay {
			return false
		}
	}
	return true
}
