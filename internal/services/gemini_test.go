package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/desertthunder/raff/internal/shared"
	json "github.com/goccy/go-json"
)

const groundedResponse = `{
  "candidates": [{
    "content": {"role": "model", "parts": [{"text": "Won the Hugo Award. "}, {"text": "Widely praised."}]},
    "groundingMetadata": {"groundingChunks": [{"web": {"uri": "https://example.com/review", "title": "Review"}}]}
  }]
}`

func newTestGemini(baseURL, apiKey string) *Gemini {
	return NewGemini(GeminiOpts{BaseURL: baseURL, APIKey: apiKey, Logger: shared.NewLogger(io.Discard)})
}

func TestGemini(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		g := NewGemini(GeminiOpts{})
		if g.baseURL != DefaultGenerativeURL || g.model != DefaultModel {
			t.Errorf("unexpected defaults %s %s", g.baseURL, g.model)
		}
		if g.Available() {
			t.Error("expected client without credentials to be unavailable")
		}
		if g.Name() != "Gemini" {
			t.Errorf("unexpected name %s", g.Name())
		}
	})

	t.Run("GroundedBookInfo", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("expected POST, got %s", r.Method)
			}
			if r.URL.Path != "/v1beta/models/gemini-2.5-flash:generateContent" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if r.Header.Get("x-goog-api-key") != "secret" {
				t.Errorf("expected api key header, got %q", r.Header.Get("x-goog-api-key"))
			}

			var req generateRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("failed to decode request: %v", err)
				return
			}
			prompt := req.Contents[0].Parts[0].Text
			if !strings.Contains(prompt, `"Dune" by Frank Herbert`) || !strings.HasPrefix(prompt, "Find recent reviews, news, and awards") {
				t.Errorf("unexpected prompt %q", prompt)
			}
			if len(req.Tools) != 1 || req.Tools[0].GoogleSearch == nil {
				t.Errorf("expected google_search tool, got %+v", req.Tools)
			}

			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, groundedResponse)
		}))
		defer server.Close()

		g := newTestGemini(server.URL, "secret")
		resp, err := g.GroundedBookInfo(context.Background(), "Dune", "Frank Herbert")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if resp.Text != "Won the Hugo Award. Widely praised." {
			t.Errorf("unexpected text %q", resp.Text)
		}
		if sources := resp.Sources(); len(sources) != 1 || sources[0].Title != "Review" {
			t.Errorf("unexpected sources %+v", sources)
		}
	})

	t.Run("BookSummary is not grounded", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			if strings.Contains(string(body), "google_search") {
				t.Error("summary request should not enable search grounding")
			}
			if !strings.Contains(string(body), "150-200 words") {
				t.Errorf("unexpected summary prompt %s", body)
			}
			fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"A desert planet."}]}}]}`)
		}))
		defer server.Close()

		g := newTestGemini(server.URL, "secret")
		resp, err := g.BookSummary(context.Background(), "Dune", "Frank Herbert")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if resp.Text != "A desert planet." {
			t.Errorf("unexpected text %q", resp.Text)
		}
	})

	t.Run("BookReviews", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			if !strings.Contains(string(body), "up to 3 user reviews") {
				t.Errorf("unexpected reviews prompt %s", body)
			}
			fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"First reader loved the worldbuilding.\nok\nSecond reader found it slow going."}]}}]}`)
		}))
		defer server.Close()

		g := newTestGemini(server.URL, "secret")
		resp, err := g.BookReviews(context.Background(), "Dune", "Frank Herbert")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if lines := resp.ReviewLines(); len(lines) != 2 {
			t.Errorf("expected 2 review lines, got %v", lines)
		}
	})

	t.Run("Errors", func(t *testing.T) {
		t.Run("missing credentials", func(t *testing.T) {
			var calls int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
			}))
			defer server.Close()

			g := newTestGemini(server.URL, "")
			_, err := g.BookSummary(context.Background(), "Dune", "Frank Herbert")
			if !errors.Is(err, shared.ErrGeneration) || !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrGeneration wrapping ErrMissingCredentials, got %v", err)
			}
			if calls != 0 {
				t.Errorf("expected no requests, got %d", calls)
			}
		})

		t.Run("server error is not retried", func(t *testing.T) {
			var calls int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(http.StatusInternalServerError)
				fmt.Fprint(w, `{"error":{"code":500,"message":"backend exploded","status":"INTERNAL"}}`)
			}))
			defer server.Close()

			g := newTestGemini(server.URL, "secret")
			_, err := g.GroundedBookInfo(context.Background(), "Dune", "Frank Herbert")
			if !errors.Is(err, shared.ErrGeneration) {
				t.Fatalf("expected ErrGeneration, got %v", err)
			}
			if !strings.Contains(err.Error(), "backend exploded") {
				t.Errorf("expected API message in error, got %v", err)
			}
			if calls != 1 {
				t.Errorf("expected exactly 1 request, got %d", calls)
			}
		})

		t.Run("no candidates", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"candidates":[]}`)
			}))
			defer server.Close()

			g := newTestGemini(server.URL, "secret")
			if _, err := g.BookReviews(context.Background(), "Dune", "Frank Herbert"); !errors.Is(err, shared.ErrGeneration) {
				t.Errorf("expected ErrGeneration, got %v", err)
			}
		})

		t.Run("malformed body", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `<html>`)
			}))
			defer server.Close()

			g := newTestGemini(server.URL, "secret")
			if _, err := g.BookSummary(context.Background(), "Dune", "Frank Herbert"); !errors.Is(err, shared.ErrGeneration) {
				t.Errorf("expected ErrGeneration, got %v", err)
			}
		})
	})

	t.Run("bearer token auth", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer tok-123" {
				t.Errorf("expected bearer token, got %q", r.Header.Get("Authorization"))
			}
			if r.Header.Get("x-goog-api-key") != "" {
				t.Error("api key header should not be sent with bearer auth")
			}
			fmt.Fprint(w, groundedResponse)
		}))
		defer server.Close()

		g := NewGemini(GeminiOpts{BaseURL: server.URL, AccessToken: "tok-123", Logger: shared.NewLogger(io.Discard)})
		if !g.Available() {
			t.Fatal("expected bearer-authenticated client to be available")
		}
		if _, err := g.GroundedBookInfo(context.Background(), "Dune", "Frank Herbert"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})
}
