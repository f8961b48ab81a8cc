package classify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/erazemk/setupcatalog/internal/model"
)

func TestResponsesClientClassify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer key" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if !strings.Contains(body["input"].(string), "Name: 【3D衣装】Summer Dress") {
			http.Error(w, "missing name", http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"output": []map[string]any{{
				"content": []map[string]any{{
					"type": "output_text",
					"text": "```json\n{\"nice_name\": \"Ｓｕｍｍｅｒ   Dress\", \"category\": \"Clothing\"}\n```",
				}},
			}},
		})
	}))
	defer srv.Close()

	c := NewResponsesClient(ResponsesConfig{URL: srv.URL, APIKey: "key", Model: "test"})
	s, err := c.Classify(context.Background(), "【3D衣装】Summer Dress", "", model.CategoryOther)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if s.NiceName != "Summer Dress" {
		t.Errorf("expected nice name 'Summer Dress', got %q", s.NiceName)
	}
	if s.Category != model.CategoryClothing {
		t.Errorf("expected clothing, got %s", s.Category)
	}
}

func TestResponsesClientUnknownCategory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"output_text": `{"nice_name": "Thing", "category": "spaceship"}`,
		})
	}))
	defer srv.Close()

	c := NewResponsesClient(ResponsesConfig{URL: srv.URL, APIKey: "key"})
	s, err := c.Classify(context.Background(), "Thing", "", model.CategoryOther)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if s.Category != model.CategoryOther {
		t.Errorf("expected other, got %s", s.Category)
	}
}

func TestResponsesClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewResponsesClient(ResponsesConfig{URL: srv.URL, APIKey: "key"})
	if _, err := c.Classify(context.Background(), "Thing", "", model.CategoryOther); err == nil {
		t.Error("expected error for 503")
	}

	noKey := NewResponsesClient(ResponsesConfig{URL: srv.URL})
	if _, err := noKey.Classify(context.Background(), "Thing", "", model.CategoryOther); !errors.Is(err, ErrAIUnavailable) {
		t.Errorf("expected ErrAIUnavailable without key, got %v", err)
	}
}

func TestDisabled(t *testing.T) {
	if _, err := (Disabled{}).Classify(context.Background(), "x", "", model.CategoryOther); !errors.Is(err, ErrAIUnavailable) {
		t.Errorf("expected ErrAIUnavailable, got %v", err)
	}
}

func TestCleanNiceName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Summer\tDress ", "Summer Dress"},
		{"ＡＢＣ　１２３", "ABC 123"},
		{strings.Repeat("a", 100), strings.Repeat("a", maxNiceNameLength)},
	}
	for _, tt := range tests {
		if got := CleanNiceName(tt.in); got != tt.want {
			t.Errorf("CleanNiceName(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}
