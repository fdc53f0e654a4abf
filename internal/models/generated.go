package models

import (
	"strings"
	"unicode/utf8"
)

// minReviewLineLength filters out headings and stray fragments from review digests.
const minReviewLineLength = 10

// Generated is a generative-assist response reduced to what the app renders.
type Generated struct {
	Text       string      `json:"text"`
	Candidates []Candidate `json:"candidates,omitempty"`
}

// Candidate mirrors one generateContent candidate.
type Candidate struct {
	Content           Content            `json:"content"`
	FinishReason      string             `json:"finishReason,omitempty"`
	GroundingMetadata *GroundingMetadata `json:"groundingMetadata,omitempty"`
}

type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

type Part struct {
	Text string `json:"text,omitempty"`
}

type GroundingMetadata struct {
	WebSearchQueries []string         `json:"webSearchQueries,omitempty"`
	GroundingChunks  []GroundingChunk `json:"groundingChunks,omitempty"`
}

type GroundingChunk struct {
	Web *WebSource `json:"web,omitempty"`
}

// WebSource is a cited page backing grounded text.
type WebSource struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// CandidateText concatenates the text parts of the first candidate.
func CandidateText(candidates []Candidate) string {
	if len(candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

// Sources returns the web citations attached to the first candidate.
func (g *Generated) Sources() []WebSource {
	if g == nil || len(g.Candidates) == 0 || g.Candidates[0].GroundingMetadata == nil {
		return nil
	}
	var sources []WebSource
	for _, chunk := range g.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk.Web != nil && chunk.Web.URI != "" {
			sources = append(sources, *chunk.Web)
		}
	}
	return sources
}

// ReviewLines splits a review digest into individual summaries.
// Lines whose trimmed length is 10 characters or fewer are dropped.
func (g *Generated) ReviewLines() []string {
	if g == nil {
		return nil
	}
	var lines []string
	for _, line := range strings.Split(g.Text, "\n") {
		if utf8.RuneCountInString(strings.TrimSpace(line)) > minReviewLineLength {
			lines = append(lines, line)
		}
	}
	return lines
}
