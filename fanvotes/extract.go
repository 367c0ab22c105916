package fanvotes

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/use-agent/oddscout/models"
)

// Terminal messages reported in FanVoteResult.Error.
const (
	MsgPreMatch = "Pre-match: no votes yet (match not started)"
	MsgNotFound = "Could not find fan votes on page"
)

// reVoteCount matches "12,345 votes", "1 234 głosów" and similar. Groups of
// three digits may be split by comma, dot or (narrow) non-breaking spaces.
var reVoteCount = regexp.MustCompile(`(?i)(\d{1,3}(?:[,. \x{00A0}\x{202F}]\d{3})+|\d+)\s*(?:votes?|głos)`)

// ParseVoteCount returns the first vote total found in text.
func ParseVoteCount(text string) (int, bool) {
	m := reVoteCount.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, m[1])
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Outcome is the result of running the cascade over one snapshot.
type Outcome struct {
	Votes      Votes
	TotalVotes *int
	Strategy   string
	PreMatch   bool
	Found      bool
}

// Extract inspects snap with the given strategies. Without a "who will win"
// phrase there is nothing to read; with the phrase but no usable values the
// vote is not open yet.
func Extract(snap *Snapshot, strategies []Strategy) Outcome {
	if !reWhoWillWin.MatchString(snap.Text) {
		return Outcome{}
	}

	var out Outcome
	if n, ok := ParseVoteCount(snap.Text); ok {
		out.TotalVotes = &n
	}
	v, name, ok := Cascade(snap, strategies)
	if !ok {
		return Outcome{PreMatch: true}
	}
	out.Votes = v
	out.Strategy = name
	out.Found = true
	return out
}

// Apply folds the outcome into r, setting exactly one terminal state.
func (o Outcome) Apply(r *models.FanVoteResult) {
	switch {
	case o.Found:
		r.Success = true
		r.Error = nil
		r.HomeWinPct = o.Votes.Home
		r.DrawPct = o.Votes.Draw
		r.AwayWinPct = o.Votes.Away
		r.TotalVotes = o.TotalVotes
	case o.PreMatch:
		r.Fail(MsgPreMatch)
		r.PreMatch = true
	default:
		r.Fail(MsgNotFound)
	}
}
