package models

// CaptureRequest is the payload for POST /api/v1/capture.
type CaptureRequest struct {
	// Sport selects the Forebet listing. Unknown sports fall back to football.
	Sport string `json:"sport,omitempty"`

	// OutputFormat controls the response content.
	// Allowed: "html" (default), "markdown", "text".
	OutputFormat string `json:"output_format,omitempty" binding:"omitempty,oneof=html markdown text"`

	// IncludeContent returns the rendered capture in the response body as
	// well as writing it to the capture directory. Default: true.
	IncludeContent *bool `json:"include_content,omitempty"`
}

// Defaults applies default values to unset fields.
func (r *CaptureRequest) Defaults() {
	if r.Sport == "" {
		r.Sport = "football"
	}
	if r.OutputFormat == "" {
		r.OutputFormat = "html"
	}
	if r.IncludeContent == nil {
		t := true
		r.IncludeContent = &t
	}
}

// VotesRequest is the payload for POST /api/v1/votes.
type VotesRequest struct {
	// URL is the SofaScore match page. Required.
	URL string `json:"url" binding:"required,url"`
}

// LogoQuery binds GET /api/v1/logos?team=.
type LogoQuery struct {
	Team string `form:"team" binding:"required"`
}
