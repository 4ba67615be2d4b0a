// Package synthesis turns requirement text into normalized issue records.
//
// The pipeline issues exactly one JSON-mode generation request to the
// model and then defensively validates the response: the model's output
// is adversarial by unreliability, so validation is per-field and
// per-candidate, never a strict parse-or-reject-all schema bind. An
// entirely unparseable response yields an empty result plus ErrSynthesis,
// which is a normal, expected outcome.
package synthesis

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/issuesmith/internal/issue"
)

var (
	// ErrSynthesis indicates the model call failed or the response was
	// entirely unparseable. The accompanying result is always an empty,
	// non-nil slice.
	ErrSynthesis = errors.New("issue synthesis failed")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config holds synthesizer configuration.
type Config struct {
	// APIKey authenticates against the model provider.
	APIKey string

	// Model is the generation model, e.g. gpt-4o.
	Model string

	// BaseURL overrides the provider endpoint. Empty means the provider
	// default; any OpenAI-compatible endpoint works.
	BaseURL string

	// Temperature and MaxTokens are passed through to the model call.
	Temperature float64
	MaxTokens   int

	// MaxCandidates caps how many candidates from one response are
	// considered. Guards against runaway model output.
	MaxCandidates int
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("%w: api key required", ErrInvalidConfig)
	}
	if c.Model == "" {
		return fmt.Errorf("%w: model required", ErrInvalidConfig)
	}
	return nil
}

// Service generates normalized issue records from requirement text.
type Service struct {
	llm    llms.Model
	config Config
	logger *zap.Logger
}

// NewService creates a synthesizer backed by an OpenAI-compatible model
// provider.
func NewService(config Config, logger *zap.Logger) (*Service, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	opts := []openai.Option{
		openai.WithToken(config.APIKey),
		openai.WithModel(config.Model),
	}
	if config.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(config.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating model client: %w", err)
	}

	return NewServiceWithModel(llm, config, logger)
}

// NewServiceWithModel creates a synthesizer on an existing model client.
// Used by tests and by callers that manage the client themselves.
func NewServiceWithModel(llm llms.Model, config Config, logger *zap.Logger) (*Service, error) {
	if llm == nil {
		return nil, fmt.Errorf("model cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxCandidates <= 0 {
		config.MaxCandidates = 25
	}
	return &Service{llm: llm, config: config, logger: logger}, nil
}

// Generate issues one generation request for the document and
// normalizes the response into issue records.
//
// The returned slice preserves candidate order and contains only
// records with non-empty titles. On a failed call or an unparseable
// response the slice is empty and the error wraps ErrSynthesis; there
// is no automatic retry against the model.
func (s *Service) Generate(ctx context.Context, document string) ([]issue.Record, error) {
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, issuePrompt+document),
	}

	resp, err := s.llm.GenerateContent(ctx, content,
		llms.WithJSONMode(),
		llms.WithTemperature(s.config.Temperature),
		llms.WithMaxTokens(s.config.MaxTokens),
	)
	if err != nil {
		s.logger.Warn("model call failed", zap.Error(err))
		return []issue.Record{}, fmt.Errorf("%w: model call: %v", ErrSynthesis, err)
	}
	if len(resp.Choices) == 0 {
		return []issue.Record{}, fmt.Errorf("%w: model returned no choices", ErrSynthesis)
	}

	candidates, err := parseCandidates(resp.Choices[0].Content)
	if err != nil {
		s.logger.Warn("unparseable model response", zap.Error(err),
			zap.Int("response_bytes", len(resp.Choices[0].Content)))
		return []issue.Record{}, fmt.Errorf("%w: %v", ErrSynthesis, err)
	}

	if len(candidates) > s.config.MaxCandidates {
		s.logger.Debug("truncating candidate list",
			zap.Int("candidates", len(candidates)),
			zap.Int("max", s.config.MaxCandidates))
		candidates = candidates[:s.config.MaxCandidates]
	}

	records := make([]issue.Record, 0, len(candidates))
	for i, raw := range candidates {
		record, ok := normalizeCandidate(raw)
		if !ok {
			s.logger.Debug("dropping invalid candidate", zap.Int("index", i))
			continue
		}
		records = append(records, record)
	}

	s.logger.Info("synthesized issues",
		zap.Int("candidates", len(candidates)),
		zap.Int("records", len(records)))

	return records, nil
}
