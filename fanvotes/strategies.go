package fanvotes

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// Votes holds the three outcome shares. Draw is nil for two-outcome markets.
type Votes struct {
	Home *int
	Draw *int
	Away *int
}

// Usable reports whether both sides are known.
func (v Votes) Usable() bool {
	return v.Home != nil && v.Away != nil
}

// Strategy is one heuristic in the extraction cascade.
type Strategy struct {
	Name string
	Find func(*Snapshot) (Votes, bool)
}

// DefaultStrategies is the production cascade, most specific first.
var DefaultStrategies = []Strategy{
	{Name: "section", Find: SectionScan},
	{Name: "labels", Find: LabelScan},
	{Name: "bars", Find: BarScan},
}

// Cascade returns the first usable result and the name of the strategy that
// produced it.
func Cascade(snap *Snapshot, strategies []Strategy) (Votes, string, bool) {
	for _, s := range strategies {
		if v, ok := s.Find(snap); ok && v.Usable() {
			return v, s.Name, true
		}
	}
	return Votes{}, "", false
}

var (
	reWhoWillWin = regexp.MustCompile(`(?i)who will win`)
	rePercent    = regexp.MustCompile(`(\d{1,3})%`)
	reWidth      = regexp.MustCompile(`width:\s*(\d+(?:\.\d+)?)`)

	sectionSel = cascadia.MustCompile("div, section")
	barSel     = cascadia.MustCompile(`[class*="Bar"], [class*="bar"], [class*="Progress"]`)
)

// maxSectionText keeps the section scan from latching onto an ancestor that
// holds the whole page.
const maxSectionText = 500

// minLabelWidth filters incidental "1"/"X"/"2" text such as table cells.
const minLabelWidth = 30

// SectionScan reads the NN% tokens inside the vote widget: the first div or
// section in document order whose text mentions "who will win" and stays
// under maxSectionText characters.
func SectionScan(snap *Snapshot) (Votes, bool) {
	var section string
	snap.Doc.FindMatcher(sectionSel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := RenderedText(s)
		if reWhoWillWin.MatchString(text) && utf8.RuneCountInString(text) < maxSectionText {
			section = text
			return false
		}
		return true
	})
	if section == "" {
		return Votes{}, false
	}
	return fromOrdered(percentages(section))
}

// LabelScan pairs each visible "1", "X" or "2" label with the first NN%
// token of its nearest enclosing div.
func LabelScan(snap *Snapshot) (Votes, bool) {
	var v Votes
	snap.Doc.Find("body *").Each(func(_ int, s *goquery.Selection) {
		label := strings.TrimSpace(RenderedText(s))
		if label != "1" && label != "X" && label != "2" {
			return
		}
		w, err := strconv.ParseFloat(s.AttrOr(WidthAttr, "0"), 64)
		if err != nil || w <= minLabelWidth {
			return
		}
		container := s.Parent().Closest("div")
		if container.Length() == 0 {
			return
		}
		m := rePercent.FindStringSubmatch(RenderedText(container))
		if m == nil {
			return
		}
		pct, _ := strconv.Atoi(m[1])
		switch label {
		case "1":
			v.Home = &pct
		case "X":
			v.Draw = &pct
		case "2":
			v.Away = &pct
		}
	})
	return v, v.Usable()
}

// BarScan infers shares from the inline width of rendered progress-bar
// widgets, in document order.
func BarScan(snap *Snapshot) (Votes, bool) {
	var widths []int
	snap.Doc.FindMatcher(barSel).Each(func(_ int, s *goquery.Selection) {
		if !Rendered(s.Get(0)) {
			return
		}
		m := reWidth.FindStringSubmatch(s.AttrOr("style", ""))
		if m == nil {
			return
		}
		f, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return
		}
		w := int(math.Round(f))
		if w > 0 && w <= 100 {
			widths = append(widths, w)
		}
	})
	return fromOrdered(widths)
}

func percentages(text string) []int {
	var out []int
	for _, m := range rePercent.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}

// fromOrdered maps 2 values to (home, away) and 3+ to (home, draw, away).
func fromOrdered(nums []int) (Votes, bool) {
	switch {
	case len(nums) >= 3:
		h, d, a := nums[0], nums[1], nums[2]
		return Votes{Home: &h, Draw: &d, Away: &a}, true
	case len(nums) == 2:
		h, a := nums[0], nums[1]
		return Votes{Home: &h, Away: &a}, true
	default:
		return Votes{}, false
	}
}
