package models

// CaptureResponse is the response for POST /api/v1/capture.
type CaptureResponse struct {
	Success bool   `json:"success"`
	Sport   string `json:"sport,omitempty"`
	URL     string `json:"url,omitempty"`

	// Format is the representation held in Content.
	Format  string `json:"format,omitempty"`
	Content string `json:"content,omitempty"`

	// OutputPath is the server-side file holding the raw capture.
	OutputPath           string `json:"output_path,omitempty"`
	ByteLength           int    `json:"byte_length"`
	PagesLoaded          int    `json:"pages_loaded"`
	ChallengeEncountered bool   `json:"challenge_encountered"`

	Tokens TokenInfo  `json:"tokens"`
	Timing TimingInfo `json:"timing"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// TokenInfo compares the raw capture with the rendered content.
type TokenInfo struct {
	OriginalEstimate int     `json:"original_estimate"`
	CleanedEstimate  int     `json:"cleaned_estimate"`
	SavingsPercent   float64 `json:"savings_percent"`
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`

	// CaptureMs covers the browser session.
	CaptureMs int64 `json:"capture_ms"`

	// RenderMs covers conversion of the capture to the requested format.
	RenderMs int64 `json:"render_ms"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status  string   `json:"status"` // "healthy" or "busy"
	Uptime  string   `json:"uptime"`
	Busy    bool     `json:"busy"`
	Sports  []string `json:"sports"`
	Version string   `json:"version"`
}
