package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/emusicvibe/internal/credentials"
	"github.com/desertthunder/emusicvibe/internal/shared"
	"golang.org/x/oauth2"
)

func newImageService(t *testing.T, handler http.HandlerFunc) *GeminiService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := shared.DefaultConfig().Gemini
	cfg.BaseURL = srv.URL + "/v1beta"
	cfg.RequestsPerSecond = 0
	return NewGeminiService(cfg, log.New(io.Discard))
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, body)
}

func TestGeminiThumbnail(t *testing.T) {
	sel := testSelection()
	colors := []string{"#112233", "#445566", "#f5f5f5"}

	t.Run("returns data uri and prompt", func(t *testing.T) {
		var gotReq generateContentRequest
		s := newImageService(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("expected POST, got %s", r.Method)
			}
			if r.URL.Path != "/v1beta/models/gemini-3-pro-image-preview:generateContent" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if r.Header.Get("x-goog-api-key") != "test-key" {
				t.Errorf("expected api key header, got %q", r.Header.Get("x-goog-api-key"))
			}
			if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
				t.Errorf("failed to decode request: %v", err)
			}
			writeJSON(w, http.StatusOK, `{"candidates":[{"content":{"parts":[
				{"text":"here you go"},
				{"inlineData":{"mimeType":"image/png","data":"iVBORw0KGgo="}}
			]}}]}`)
		})

		thumb, err := s.Thumbnail(context.Background(), credentials.FromAPIKey("test-key"), sel, colors)
		if err != nil {
			t.Fatalf("Thumbnail() error = %v", err)
		}

		if thumb.DataURI != "data:image/png;base64,iVBORw0KGgo=" {
			t.Errorf("unexpected data uri %s", thumb.DataURI)
		}
		if thumb.Prompt != ThumbnailPrompt(sel, colors) {
			t.Errorf("unexpected prompt %s", thumb.Prompt)
		}
		if !strings.Contains(thumb.Prompt, "A Rooftop in Paris") || !strings.Contains(thumb.Prompt, "#112233, #445566, #f5f5f5") {
			t.Errorf("prompt should describe the scene and palette: %s", thumb.Prompt)
		}

		cfg := gotReq.GenerationConfig.ImageConfig
		if cfg == nil || cfg.AspectRatio != "1:1" || cfg.ImageSize != "1K" {
			t.Errorf("unexpected image config %+v", cfg)
		}
		if len(gotReq.Contents) != 1 || gotReq.Contents[0].Parts[0].Text != thumb.Prompt {
			t.Errorf("unexpected contents %+v", gotReq.Contents)
		}
	})

	t.Run("oauth credential sends bearer token", func(t *testing.T) {
		s := newImageService(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer tok-123" {
				t.Errorf("unexpected Authorization %q", r.Header.Get("Authorization"))
			}
			if r.Header.Get("x-goog-api-key") != "" {
				t.Error("api key header should not be sent")
			}
			writeJSON(w, http.StatusOK, `{"candidates":[{"content":{"parts":[{"inlineData":{"mimeType":"image/jpeg","data":"/9j/"}}]}}]}`)
		})

		cred := credentials.FromTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "tok-123"}))
		thumb, err := s.Thumbnail(context.Background(), cred, sel, colors)
		if err != nil {
			t.Fatalf("Thumbnail() error = %v", err)
		}
		if thumb.MIMEType != "image/jpeg" || !strings.HasPrefix(thumb.DataURI, "data:image/jpeg;base64,") {
			t.Errorf("unexpected thumbnail %+v", thumb)
		}
	})

	errorCases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{
			name:   "entity not found invalidates credential",
			status: http.StatusNotFound,
			body:   `{"error":{"code":404,"message":"Requested entity was not found.","status":"NOT_FOUND"}}`,
			want:   shared.ErrCredentialInvalid,
		},
		{
			name:   "bad key reason",
			status: http.StatusBadRequest,
			body:   `{"error":{"code":400,"message":"API key not valid.","status":"INVALID_ARGUMENT","details":[{"@type":"type.googleapis.com/google.rpc.ErrorInfo","reason":"API_KEY_INVALID"}]}}`,
			want:   shared.ErrCredentialInvalid,
		},
		{
			name:   "quota",
			status: http.StatusTooManyRequests,
			body:   `{"error":{"code":429,"message":"Resource has been exhausted","status":"RESOURCE_EXHAUSTED"}}`,
			want:   shared.ErrQuotaExceeded,
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   `{"error":{"code":500,"message":"internal","status":"INTERNAL"}}`,
			want:   shared.ErrServiceUnavailable,
		},
		{
			name:   "no image",
			status: http.StatusOK,
			body:   `{"candidates":[{"content":{"parts":[{"text":"sorry"}]}}]}`,
			want:   shared.ErrMalformedResponse,
		},
		{
			name:   "blocked prompt",
			status: http.StatusOK,
			body:   `{"promptFeedback":{"blockReason":"SAFETY"}}`,
			want:   shared.ErrMalformedResponse,
		},
	}

	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			s := newImageService(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})

			thumb, err := s.Thumbnail(context.Background(), credentials.FromAPIKey("k"), sel, colors)
			if thumb != nil {
				t.Errorf("expected no thumbnail, got %+v", thumb)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Thumbnail() error = %v, want %v", err, tt.want)
			}
		})
	}

	t.Run("missing credential", func(t *testing.T) {
		s := newImageService(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected")
		})
		if _, err := s.Thumbnail(context.Background(), credentials.Credential{}, sel, colors); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})
}
