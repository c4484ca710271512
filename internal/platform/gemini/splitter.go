// Package gemini implements the generation.ChapterSplitter interface using
// Google's Gemini API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"strings"
	"text/template"
	"time"

	"google.golang.org/genai"

	"github.com/phrazzld/recite-api/internal/config"
	"github.com/phrazzld/recite-api/internal/domain"
	"github.com/phrazzld/recite-api/internal/generation"
)

// defaultPromptTemplate is used when no template path is configured. The
// response is requested as a bare JSON array so it unmarshals straight into
// the chapter list.
const defaultPromptTemplate = `Please split the following text into chapters.

For each chapter provide:
- Title
- Detailed Content

Return a JSON array like:

[
  {
    "Title": "...",
    "Content": "..."
  }
]

Text:
{{.Text}}`

// promptData is the template input for a split request.
type promptData struct {
	Text string
}

// GeminiSplitter implements the generation.ChapterSplitter interface using
// Google's Gemini API to segment raw study text into titled chapters.
type GeminiSplitter struct {
	logger         *slog.Logger
	config         config.LLMConfig
	promptTemplate *template.Template
	client         *genai.Client
	model          string
}

// NewGeminiSplitter creates a splitter from the LLM configuration. The
// prompt template is read from the configured path when set, otherwise the
// built-in template is used.
func NewGeminiSplitter(
	ctx context.Context,
	logger *slog.Logger,
	cfg config.LLMConfig,
) (*GeminiSplitter, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	templateContent := defaultPromptTemplate
	if cfg.PromptTemplatePath != "" {
		raw, err := os.ReadFile(cfg.PromptTemplatePath)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read prompt template from %s: %v",
				generation.ErrInvalidConfig, cfg.PromptTemplatePath, err)
		}
		templateContent = string(raw)
	}

	promptTemplate, err := template.New("chapter_split").Parse(templateContent)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v",
			generation.ErrInvalidConfig, err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}

	return &GeminiSplitter{
		logger:         logger.With(slog.String("component", "gemini_splitter")),
		config:         cfg,
		promptTemplate: promptTemplate,
		client:         client,
		model:          cfg.ModelName,
	}, nil
}

// Ensure GeminiSplitter implements generation.ChapterSplitter
var _ generation.ChapterSplitter = (*GeminiSplitter)(nil)

// SplitChapters implements generation.ChapterSplitter.
func (g *GeminiSplitter) SplitChapters(
	ctx context.Context,
	text string,
) ([]domain.Chapter, error) {
	prompt, err := g.createPrompt(text)
	if err != nil {
		return nil, err
	}

	raw, err := g.callGeminiWithRetry(ctx, prompt)
	if err != nil {
		return nil, err
	}

	chapters, err := parseChapters(raw)
	if err != nil {
		g.logger.ErrorContext(ctx, "failed to parse model response",
			slog.String("error", err.Error()),
			slog.Int("response_length", len(raw)))
		return nil, err
	}

	g.logger.InfoContext(ctx, "text split into chapters",
		slog.Int("input_length", len(text)),
		slog.Int("chapters", len(chapters)))
	return chapters, nil
}

// createPrompt renders the prompt template with the input text.
func (g *GeminiSplitter) createPrompt(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", generation.ErrEmptyText
	}

	var buf bytes.Buffer
	if err := g.promptTemplate.Execute(&buf, promptData{Text: text}); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buf.String(), nil
}

// callGeminiWithRetry calls the Gemini API with exponential backoff and
// jitter for transient errors. Permanent errors (content blocked by safety
// filters) are returned immediately without retrying.
func (g *GeminiSplitter) callGeminiWithRetry(ctx context.Context, prompt string) (string, error) {
	maxRetries := g.config.MaxRetries
	if maxRetries < 0 {
		maxRetries = 3
	}
	baseDelaySeconds := g.config.RetryDelaySeconds
	if baseDelaySeconds < 1 {
		baseDelaySeconds = 2
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	genCfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		g.logger.DebugContext(ctx, "calling Gemini API",
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", maxRetries+1),
			slog.String("model", g.model))

		resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), genCfg)
		if err == nil {
			text := resp.Text()
			if text == "" {
				lastErr = fmt.Errorf("%w: empty response", generation.ErrInvalidResponse)
			} else {
				return text, nil
			}
		} else {
			if isBlockedError(err) {
				return "", fmt.Errorf("%w: %v", generation.ErrContentBlocked, err)
			}
			lastErr = fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
		}

		if attempt == maxRetries {
			break
		}

		// Exponential backoff with jitter, honoring context cancellation.
		delay := time.Duration(float64(baseDelaySeconds)*math.Pow(2, float64(attempt))) * time.Second
		delay += time.Duration(rng.Int63n(int64(time.Second)))
		g.logger.WarnContext(ctx, "Gemini call failed, retrying",
			slog.String("error", lastErr.Error()),
			slog.Duration("delay", delay))

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
	}

	return "", fmt.Errorf("%w: all %d attempts failed: %v",
		generation.ErrSplitFailed, maxRetries+1, lastErr)
}

// isBlockedError detects safety-filter rejections, which retrying cannot fix.
func isBlockedError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "blocked") || strings.Contains(msg, "safety")
}

// parseChapters decodes the model output into chapters. Models in JSON mode
// occasionally wrap the array in an object or markdown fences, so both are
// tolerated.
func parseChapters(raw string) ([]domain.Chapter, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var chapters []domain.Chapter
	if err := json.Unmarshal([]byte(cleaned), &chapters); err != nil {
		// Some responses arrive as {"chapters": [...]}.
		var wrapped struct {
			Chapters []domain.Chapter `json:"chapters"`
		}
		if wrapErr := json.Unmarshal([]byte(cleaned), &wrapped); wrapErr != nil || len(wrapped.Chapters) == 0 {
			return nil, fmt.Errorf("%w: %v", generation.ErrInvalidResponse, err)
		}
		chapters = wrapped.Chapters
	}

	valid := make([]domain.Chapter, 0, len(chapters))
	for _, ch := range chapters {
		if ch.Title != "" && ch.Content != "" {
			valid = append(valid, ch)
		}
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("%w: no usable chapters in response", generation.ErrInvalidResponse)
	}
	return valid, nil
}
