package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Markers identify a bot-challenge interstitial and the real page behind it.
type Markers struct {
	// Challenge are raw substrings of the interstitial's markup.
	Challenge []string

	// Content are CSS selectors that only the real page matches.
	Content []string
}

// DefaultMarkers recognise the verification spinner and the prediction
// rows of a loaded page.
var DefaultMarkers = Markers{
	Challenge: []string{"loading-verifying", "lds-ring", "Checking your browser"},
	Content:   []string{".rcnt", ".forepr", ".tr_0"},
}

// ChallengeState is the classification of one HTML capture.
type ChallengeState struct {
	Challenge bool
	Content   bool
}

// StillChallenged reports a challenge with no real content behind it.
// Content markers take precedence.
func (s ChallengeState) StillChallenged() bool {
	return s.Challenge && !s.Content
}

// ClassifyChallenge inspects rawHTML for challenge and content markers.
func ClassifyChallenge(rawHTML string, m Markers) ChallengeState {
	var st ChallengeState
	for _, marker := range m.Challenge {
		if strings.Contains(rawHTML, marker) {
			st.Challenge = true
			break
		}
	}
	if len(m.Content) > 0 {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
		if err == nil {
			st.Content = doc.Find(strings.Join(m.Content, ", ")).Length() > 0
		}
	}
	return st
}
