// Gemini generative language client
package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/raff/internal/models"
	"github.com/desertthunder/raff/internal/shared"
	json "github.com/goccy/go-json"
	"golang.org/x/oauth2"
)

const (
	DefaultGenerativeURL = "https://generativelanguage.googleapis.com"
	DefaultModel         = "gemini-2.5-flash"
)

const (
	groundedInfoPrompt = `Find recent reviews, news, and awards for the book "%s" by %s. Summarize the key information found on the web.`
	summaryPrompt      = `Provide a concise summary of the book "%s" by %s. Focus on the main plot points, key characters, and major themes. The summary should be engaging and about 150-200 words long. Do not include any preamble like "Here is a summary".`
	reviewsPrompt      = `Find and briefly summarize up to 3 user reviews for the book "%s" by %s. Present them as distinct summaries, separated by a newline. If no significant reviews are found, simply state that.`
)

type generateRequest struct {
	Contents []models.Content `json:"contents"`
	Tools    []tool           `json:"tools,omitempty"`
}

type tool struct {
	GoogleSearch *struct{} `json:"google_search,omitempty"`
}

type generateResponse struct {
	Candidates []models.Candidate `json:"candidates"`
}

type apiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// GeminiOpts configures a [Gemini] client.
type GeminiOpts struct {
	BaseURL     string
	Model       string
	APIKey      string
	AccessToken string // OAuth bearer token, used instead of APIKey when set
	HTTPClient  *http.Client
	Logger      *log.Logger
}

// Gemini implements [Assistant] using the generateContent REST endpoint.
//
// Calls are not retried. A client without credentials can be constructed;
// its calls fail with [shared.ErrMissingCredentials].
type Gemini struct {
	baseURL    string
	model      string
	apiKey     string
	bearer     bool
	httpClient *http.Client
	logger     *log.Logger
}

// NewGemini creates a new generative assist client.
func NewGemini(opts GeminiOpts) *Gemini {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultGenerativeURL
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	g := &Gemini{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		model:      opts.Model,
		apiKey:     opts.APIKey,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
	}

	if opts.AccessToken != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, opts.HTTPClient)
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.AccessToken, TokenType: "Bearer"})
		g.httpClient = oauth2.NewClient(ctx, src)
		g.bearer = true
	}
	return g
}

// Name returns the service name.
func (g *Gemini) Name() string {
	return "Gemini"
}

// Available reports whether credentials are configured.
func (g *Gemini) Available() bool {
	return g.bearer || g.apiKey != ""
}

// GroundedBookInfo summarizes recent web coverage (reviews, news, awards) of a book.
// The response carries citation sources in its candidates.
func (g *Gemini) GroundedBookInfo(ctx context.Context, title, author string) (*models.Generated, error) {
	return g.generate(ctx, fmt.Sprintf(groundedInfoPrompt, title, author), true)
}

// BookReviews asks for up to three web-sourced reader review summaries, newline separated.
func (g *Gemini) BookReviews(ctx context.Context, title, author string) (*models.Generated, error) {
	return g.generate(ctx, fmt.Sprintf(reviewsPrompt, title, author), true)
}

// BookSummary produces a 150-200 word plot and theme summary without web grounding.
func (g *Gemini) BookSummary(ctx context.Context, title, author string) (*models.Generated, error) {
	return g.generate(ctx, fmt.Sprintf(summaryPrompt, title, author), false)
}

func (g *Gemini) generate(ctx context.Context, prompt string, grounded bool) (*models.Generated, error) {
	if !g.Available() {
		return nil, fmt.Errorf("%w: %w: no API key configured", shared.ErrGeneration, shared.ErrMissingCredentials)
	}

	payload := generateRequest{
		Contents: []models.Content{{Role: "user", Parts: []models.Part{{Text: prompt}}}},
	}
	if grounded {
		payload.Tools = []tool{{GoogleSearch: &struct{}{}}}
	}

	var resp generateResponse
	if err := g.doRequest(ctx, payload, &resp); err != nil {
		g.logger.Error("generation failed", "model", g.model, "grounded", grounded, "error", err)
		return nil, fmt.Errorf("%w: %w", shared.ErrGeneration, err)
	}

	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: response contained no candidates", shared.ErrGeneration)
	}

	return &models.Generated{
		Text:       models.CandidateText(resp.Candidates),
		Candidates: resp.Candidates,
	}, nil
}

func (g *Gemini) doRequest(ctx context.Context, payload any, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if !g.bearer {
		req.Header.Set("x-goog-api-key", g.apiKey)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &StatusError{StatusCode: resp.StatusCode, URL: endpoint}
		var apiErr apiErrorResponse
		if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Error.Message != "" {
			statusErr.Detail = apiErr.Error.Message
		}
		return statusErr
	}

	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
