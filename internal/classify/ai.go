package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/erazemk/setupcatalog/internal/model"
)

// ErrAIUnavailable is returned when no AI classifier is configured.
var ErrAIUnavailable = errors.New("ai classifier unavailable")

// maxNiceNameLength bounds suggested display names, in runes.
const maxNiceNameLength = 80

// Suggestion is the AI classifier's answer for one item.
type Suggestion struct {
	NiceName string         `json:"nice_name"`
	Category model.Category `json:"category"`
}

// AI suggests a display name and category from an item's name and description.
type AI interface {
	Classify(ctx context.Context, name, description string, current model.Category) (Suggestion, error)
}

// Disabled is the AI used when no provider is configured.
type Disabled struct{}

// Classify implements AI.
func (Disabled) Classify(context.Context, string, string, model.Category) (Suggestion, error) {
	return Suggestion{}, ErrAIUnavailable
}

// ResponsesConfig configures a ResponsesClient.
type ResponsesConfig struct {
	URL        string
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

// ResponsesClient asks a responses-style LLM endpoint for a JSON suggestion.
type ResponsesClient struct {
	cfg ResponsesConfig
}

// NewResponsesClient builds a ResponsesClient.
func NewResponsesClient(cfg ResponsesConfig) *ResponsesClient {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if strings.TrimSpace(cfg.URL) == "" {
		cfg.URL = "https://api.openai.com/v1/responses"
	}
	return &ResponsesClient{cfg: cfg}
}

// Classify implements AI.
func (c *ResponsesClient) Classify(ctx context.Context, name, description string, current model.Category) (Suggestion, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return Suggestion{}, ErrAIUnavailable
	}
	if strings.TrimSpace(name) == "" {
		return Suggestion{}, fmt.Errorf("name is required")
	}

	body, err := json.Marshal(map[string]any{
		"model": c.cfg.Model,
		"input": prompt(name, description, current),
	})
	if err != nil {
		return Suggestion{}, fmt.Errorf("marshal classify request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return Suggestion{}, fmt.Errorf("build classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	res, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return Suggestion{}, fmt.Errorf("classify request failed: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return Suggestion{}, fmt.Errorf("classify request status %d: %s", res.StatusCode, strings.TrimSpace(string(msg)))
	}

	var payload struct {
		OutputText string `json:"output_text"`
		Output     []struct {
			Content []struct {
				Text string `json:"text"`
			} `json:"content"`
		} `json:"output"`
	}
	if err := json.NewDecoder(io.LimitReader(res.Body, 1<<20)).Decode(&payload); err != nil {
		return Suggestion{}, fmt.Errorf("decode classify response: %w", err)
	}

	text := strings.TrimSpace(payload.OutputText)
	for _, out := range payload.Output {
		if text != "" {
			break
		}
		for _, content := range out.Content {
			if t := strings.TrimSpace(content.Text); t != "" {
				text = t
				break
			}
		}
	}
	if text == "" {
		return Suggestion{}, fmt.Errorf("classify response missing output text")
	}

	return parseSuggestion(text)
}

func prompt(name, description string, current model.Category) string {
	cats := make([]string, len(model.Categories))
	for i, c := range model.Categories {
		cats[i] = string(c)
	}

	var b strings.Builder
	b.WriteString("You label items used to customize VR avatars.\n")
	b.WriteString("Reply with only a JSON object {\"nice_name\": string, \"category\": string}.\n")
	b.WriteString("nice_name is a short, readable product name without shop names, prices or decoration.\n")
	fmt.Fprintf(&b, "category is one of: %s.\n", strings.Join(cats, ", "))
	fmt.Fprintf(&b, "Current category: %s\n", current)
	fmt.Fprintf(&b, "Name: %s\n", name)
	if description != "" {
		fmt.Fprintf(&b, "Description: %s\n", description)
	}
	return b.String()
}

// parseSuggestion decodes the model's JSON answer, tolerating surrounding
// prose or code fences.
func parseSuggestion(text string) (Suggestion, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return Suggestion{}, fmt.Errorf("classify response is not json: %q", text)
	}

	var s Suggestion
	if err := json.Unmarshal([]byte(text[start:end+1]), &s); err != nil {
		return Suggestion{}, fmt.Errorf("decode suggestion: %w", err)
	}

	s.NiceName = CleanNiceName(s.NiceName)
	s.Category = model.Category(strings.ToLower(strings.TrimSpace(string(s.Category))))
	if !s.Category.Valid() {
		s.Category = model.CategoryOther
	}
	return s, nil
}

// CleanNiceName normalizes a suggested display name: NFKC folds full-width
// characters, whitespace runs collapse, and the result is bounded in length.
func CleanNiceName(s string) string {
	s = strings.Join(strings.Fields(norm.NFKC.String(s)), " ")
	if utf8.RuneCountInString(s) > maxNiceNameLength {
		s = strings.TrimSpace(string([]rune(s)[:maxNiceNameLength]))
	}
	return s
}
