package models

// ScrapeResult describes one completed capture-mode invocation.
type ScrapeResult struct {
	// OutputPath is the file the captured HTML was written to.
	OutputPath string `json:"output_path"`

	// ByteLength is the number of bytes written.
	ByteLength int `json:"byte_length"`

	// PagesLoaded counts the initial load plus every load-more iteration.
	PagesLoaded int `json:"pages_loaded"`

	// ChallengeEncountered is true when a bot challenge was seen at any point,
	// even if it later resolved.
	ChallengeEncountered bool `json:"challenge_encountered"`

	// HTML is the captured document. It is not serialized; the file is the
	// deliverable.
	HTML string `json:"-"`

	// URL is the page that was captured.
	URL string `json:"url"`
}

// FanVoteResult is the single JSON document emitted by vote mode.
//
// The three percentage fields are either populated together (draw may stay
// null for two-outcome markets) or all null.
type FanVoteResult struct {
	Success    bool    `json:"success"`
	HomeWinPct *int    `json:"home_win_pct"`
	DrawPct    *int    `json:"draw_pct"`
	AwayWinPct *int    `json:"away_win_pct"`
	TotalVotes *int    `json:"total_votes"`
	URL        string  `json:"url"`
	Error      *string `json:"error"`
	PreMatch   bool    `json:"pre_match,omitempty"`
}

// NewFanVoteResult returns the all-null starting state for url.
func NewFanVoteResult(url string) *FanVoteResult {
	return &FanVoteResult{URL: url}
}

// Fail records msg as the terminal error and clears every vote field.
func (r *FanVoteResult) Fail(msg string) {
	r.Success = false
	r.HomeWinPct = nil
	r.DrawPct = nil
	r.AwayWinPct = nil
	r.TotalVotes = nil
	r.Error = &msg
}

// UsageError is the reduced document printed when vote mode is invoked
// without a URL.
type UsageError struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
