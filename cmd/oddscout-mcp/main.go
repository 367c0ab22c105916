package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// apiError mirrors the error detail of every API response.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// captureRequest mirrors the capture API request model.
type captureRequest struct {
	Sport        string `json:"sport,omitempty"`
	OutputFormat string `json:"output_format,omitempty"`
}

// captureResponse mirrors the capture API response model.
type captureResponse struct {
	Success              bool   `json:"success"`
	Sport                string `json:"sport"`
	URL                  string `json:"url"`
	Content              string `json:"content"`
	OutputPath           string `json:"output_path"`
	PagesLoaded          int    `json:"pages_loaded"`
	ChallengeEncountered bool   `json:"challenge_encountered"`
	Tokens               *struct {
		OriginalEstimate int     `json:"original_estimate"`
		CleanedEstimate  int     `json:"cleaned_estimate"`
		SavingsPercent   float64 `json:"savings_percent"`
	} `json:"tokens"`
	Error *apiError `json:"error"`
}

// votesResponse mirrors the fan-vote result document.
type votesResponse struct {
	Success    bool            `json:"success"`
	HomeWinPct *int            `json:"home_win_pct"`
	DrawPct    *int            `json:"draw_pct"`
	AwayWinPct *int            `json:"away_win_pct"`
	TotalVotes *int            `json:"total_votes"`
	URL        string          `json:"url"`
	PreMatch   bool            `json:"pre_match"`
	Error      json.RawMessage `json:"error"`
}

// logoResponse mirrors the logo API response.
type logoResponse struct {
	Team     string    `json:"team"`
	URL      *string   `json:"url"`
	Initials string    `json:"initials"`
	Color    string    `json:"color"`
	Error    *apiError `json:"error"`
}

func main() {
	apiURL := os.Getenv("ODDSCOUT_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("ODDSCOUT_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "ODDSCOUT_API_KEY is required")
		os.Exit(1)
	}

	if err := server.ServeStdio(newServer(apiURL, apiKey)); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func newServer(apiURL, apiKey string) *server.MCPServer {
	s := server.NewMCPServer(
		"oddscout",
		"0.1.0",
		server.WithToolCapabilities(false),
	)

	s.AddTool(mcp.NewTool("capture_predictions",
		mcp.WithDescription("Capture today's Forebet predictions page for a sport through a headless browser that gets past bot challenges and expands the listing. Returns the listing as markdown by default."),
		mcp.WithString("sport",
			mcp.Description("Sport to capture (default: football). Unknown sports fall back to football."),
			mcp.Enum("football", "soccer", "basketball", "tennis", "volleyball", "handball", "hockey", "ice-hockey"),
		),
		mcp.WithString("output_format",
			mcp.Description("Output format: 'markdown' (default), 'text', or 'html' (full captured page)"),
			mcp.Enum("markdown", "text", "html"),
		),
	), handleCapture(apiURL, apiKey))

	s.AddTool(mcp.NewTool("fan_votes",
		mcp.WithDescription("Read the 'Who will win?' fan-vote percentages and vote count from a SofaScore match page."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The SofaScore match URL"),
		),
	), handleFanVotes(apiURL, apiKey))

	s.AddTool(mcp.NewTool("team_logo",
		mcp.WithDescription("Look up a team's badge image URL on TheSportsDB. Also returns initials and a color for a placeholder when no badge exists."),
		mcp.WithString("team",
			mcp.Required(),
			mcp.Description("Team name, e.g. 'Lech Poznań'"),
		),
	), handleTeamLogo(apiURL, apiKey))

	return s
}

// apiDo sends a request to the oddscout API and returns the response body.
// A nil payload sends no body.
func apiDo(ctx context.Context, client *http.Client, method, apiURL, apiKey, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-API-Key", apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

func errorText(e *apiError, fallback string) string {
	if e == nil {
		return fallback
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func handleCapture(apiURL, apiKey string) server.ToolHandlerFunc {
	// A capture can sit through a 30s challenge recovery plus ten load-more
	// rounds.
	client := &http.Client{Timeout: 5 * time.Minute}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		reqBody := captureRequest{
			Sport:        request.GetString("sport", "football"),
			OutputFormat: request.GetString("output_format", "markdown"),
		}

		respBody, err := apiDo(ctx, client, http.MethodPost, apiURL, apiKey, "/api/v1/capture", reqBody)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var resp captureResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if !resp.Success {
			return mcp.NewToolResultError(errorText(resp.Error, "capture failed")), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "Sport: %s\nSource: %s\nPages loaded: %d\n", resp.Sport, resp.URL, resp.PagesLoaded)
		if resp.ChallengeEncountered {
			sb.WriteString("Bot challenge: encountered and resolved\n")
		}
		sb.WriteString("\n")
		sb.WriteString(resp.Content)
		if t := resp.Tokens; t != nil {
			fmt.Fprintf(&sb, "\n\n---\nTokens: %d (saved %.0f%% from original %d)",
				t.CleanedEstimate, t.SavingsPercent, t.OriginalEstimate)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleFanVotes(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 2 * time.Minute}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		matchURL, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		respBody, err := apiDo(ctx, client, http.MethodPost, apiURL, apiKey, "/api/v1/votes", map[string]string{"url": matchURL})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var resp votesResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if !resp.Success {
			return mcp.NewToolResultError(votesError(resp.Error)), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "Fan votes for %s\n", resp.URL)
		fmt.Fprintf(&sb, "Home: %s\nDraw: %s\nAway: %s\n", pct(resp.HomeWinPct), pct(resp.DrawPct), pct(resp.AwayWinPct))
		if resp.TotalVotes != nil {
			fmt.Fprintf(&sb, "Total votes: %d\n", *resp.TotalVotes)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// votesError reads the error field, which is a plain string in vote results
// and an object in API error responses.
func votesError(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil && s != "" {
		return s
	}
	var e apiError
	if json.Unmarshal(raw, &e) == nil && e.Code != "" {
		return errorText(&e, "")
	}
	return "fan vote extraction failed"
}

func pct(v *int) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%d%%", *v)
}

func handleTeamLogo(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		team, err := request.RequireString("team")
		if err != nil || strings.TrimSpace(team) == "" {
			return mcp.NewToolResultError("team is required"), nil
		}

		path := "/api/v1/logos?" + url.Values{"team": {team}}.Encode()
		respBody, err := apiDo(ctx, client, http.MethodGet, apiURL, apiKey, path, nil)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var resp logoResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if resp.Error != nil {
			return mcp.NewToolResultError(errorText(resp.Error, "")), nil
		}

		logo := "none found"
		if resp.URL != nil {
			logo = *resp.URL
		}
		return mcp.NewToolResultText(fmt.Sprintf("Team: %s\nLogo: %s\nPlaceholder: %s on %s", resp.Team, logo, resp.Initials, resp.Color)), nil
	}
}
