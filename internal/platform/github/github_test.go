package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/erazemk/setupcatalog/internal/platform"
)

func newTestAdapter(t *testing.T, mux *http.ServeMux) *Adapter {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	a, err := New(Options{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("creating adapter: %v", err)
	}
	return a
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func repoMux(private bool) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/octo/shader-pack", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"name":             "shader-pack",
			"full_name":        "octo/shader-pack",
			"description":      "Toon <b>shader</b> pack",
			"private":          private,
			"stargazers_count": 321,
			"owner": map[string]any{
				"login":      "octo",
				"avatar_url": "https://avatars.example/octo.png",
				"type":       "Organization",
			},
		})
	})
	mux.HandleFunc("GET /repos/octo/shader-pack/contributors", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("per_page") != "10" {
			http.Error(w, "bad per_page", http.StatusBadRequest)
			return
		}
		writeJSON(w, []map[string]any{{"login": "alice"}, {"login": "bob"}})
	})
	mux.HandleFunc("GET /repos/octo/shader-pack/releases/latest", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"tag_name": "v2.1.0"})
	})
	mux.HandleFunc("GET /repos/octo/shader-pack/readme", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"type":     "file",
			"encoding": "base64",
			"content":  base64.StdEncoding.EncodeToString([]byte("# Shader Pack\nWorks with lilToon.")),
		})
	})
	return mux
}

func TestFetchRepository(t *testing.T) {
	a := newTestAdapter(t, repoMux(false))

	l, err := a.Fetch(context.Background(), "octo/shader-pack")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if l.ID != "octo/shader-pack" {
		t.Errorf("expected id octo/shader-pack, got %q", l.ID)
	}
	if l.Name != "shader-pack" {
		t.Errorf("expected name shader-pack, got %q", l.Name)
	}
	if l.Likes != 321 {
		t.Errorf("expected 321 likes, got %d", l.Likes)
	}
	if l.Version != "v2.1.0" {
		t.Errorf("expected version v2.1.0, got %q", l.Version)
	}
	if len(l.Authors) != 2 || l.Authors[0] != "alice" || l.Authors[1] != "bob" {
		t.Errorf("unexpected authors %v", l.Authors)
	}
	if l.CategoryID != 0 {
		t.Errorf("expected category id 0, got %d", l.CategoryID)
	}
	if !strings.Contains(l.Description, "Toon shader pack") || !strings.Contains(l.Description, "lilToon") {
		t.Errorf("description missing repo text or readme: %q", l.Description)
	}
	if l.Shop.ID != "octo" || !l.Shop.Verified {
		t.Errorf("unexpected shop %+v", l.Shop)
	}
	if l.Price != nil {
		t.Errorf("expected no price, got %q", *l.Price)
	}
}

func TestFetchWithoutReleaseOrReadme(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/solo/tool", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"name":      "tool",
			"full_name": "solo/tool",
			"owner":     map[string]any{"login": "solo", "type": "User"},
		})
	})
	mux.HandleFunc("GET /repos/solo/tool/contributors", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]any{{"login": "solo"}})
	})
	notFound := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		writeJSON(w, map[string]any{"message": "Not Found"})
	}
	mux.HandleFunc("GET /repos/solo/tool/releases/latest", notFound)
	mux.HandleFunc("GET /repos/solo/tool/readme", notFound)

	a := newTestAdapter(t, mux)
	l, err := a.Fetch(context.Background(), "solo/tool")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if l.Version != "" {
		t.Errorf("expected empty version, got %q", l.Version)
	}
	if l.Description != "" {
		t.Errorf("expected empty description, got %q", l.Description)
	}
	if l.Shop.Verified {
		t.Error("expected user-owned shop to be unverified")
	}
}

func TestFetchMissingRepository(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/gone/repo", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		writeJSON(w, map[string]any{"message": "Not Found"})
	})

	a := newTestAdapter(t, mux)
	_, err := a.Fetch(context.Background(), "gone/repo")
	if !errors.Is(err, platform.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestFetchPrivateRepository(t *testing.T) {
	a := newTestAdapter(t, repoMux(true))

	_, err := a.Fetch(context.Background(), "octo/shader-pack")
	if !errors.Is(err, platform.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestFetchServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/octo/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		writeJSON(w, map[string]any{"message": "proxy error"})
	})

	a := newTestAdapter(t, mux)
	_, err := a.Fetch(context.Background(), "octo/broken")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, platform.ErrUnavailable) {
		t.Errorf("expected transport error, got ErrUnavailable: %v", err)
	}
}

func TestFetchRejectsMalformedID(t *testing.T) {
	a := newTestAdapter(t, http.NewServeMux())
	for _, id := range []string{"", "noslash", "/repo", "owner/"} {
		if _, err := a.Fetch(context.Background(), id); err == nil {
			t.Errorf("expected error for id %q", id)
		}
	}
}
