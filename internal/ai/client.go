// Package ai wraps the Gemini collaborator: receipt scanning and monthly
// report insights. Both degrade gracefully; a model failure never blocks the
// surrounding job or request beyond its own feature.
package ai

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultModelName is the default Gemini model used for scanning and insights.
const DefaultModelName = "gemini-2.5-flash"

// Client is a thin wrapper over the GenAI SDK bound to one model.
type Client struct {
	client *genai.Client
	model  string
}

// NewClient creates a Gemini client. Credentials come from the environment
// (GEMINI_API_KEY or Application Default Credentials).
func NewClient(ctx context.Context) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("ai: create genai client: %w", err)
	}
	return &Client{client: client, model: DefaultModelName}, nil
}

// generate sends one prompt (optionally with inline binary data) and returns
// the raw model text.
func (c *Client) generate(ctx context.Context, prompt string, data []byte, mimeType string) (string, error) {
	parts := []*genai.Part{{Text: prompt}}
	if len(data) > 0 {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				MIMEType: mimeType,
				Data:     data,
			},
		})
	}

	contents := []*genai.Content{{Role: "user", Parts: parts}}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("ai: generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("ai: empty response from model")
	}
	return text, nil
}

// cleanModelJSON strips Markdown code fences and surrounding junk the model
// sometimes wraps around its JSON output.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			// Single-line weirdness; just return as-is.
			return s
		}
		s = strings.TrimSpace(s)
	}

	// Remove trailing ``` if present.
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	return strings.TrimSpace(s)
}

// extractJSON trims s down to the outermost JSON value of the given open and
// close delimiters, discarding any prose before or after. Returns s unchanged
// when the delimiters are not found.
func extractJSON(s string, open, closing byte) string {
	start := strings.IndexByte(s, open)
	end := strings.LastIndexByte(s, closing)
	if start == -1 || end == -1 || end < start {
		return s
	}
	return s[start : end+1]
}
