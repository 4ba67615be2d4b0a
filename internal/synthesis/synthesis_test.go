package synthesis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// fakeModel returns a canned response or error from GenerateContent.
type fakeModel struct {
	response string
	err      error
	noChoice bool

	lastPrompt string
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	if len(messages) > 0 && len(messages[0].Parts) > 0 {
		if text, ok := messages[0].Parts[0].(llms.TextContent); ok {
			f.lastPrompt = text.Text
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.noChoice {
		return &llms.ContentResponse{}, nil
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: f.response}},
	}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func newTestService(t *testing.T, model *fakeModel) *Service {
	t.Helper()
	svc, err := NewServiceWithModel(model, Config{
		APIKey: "sk-test",
		Model:  "gpt-4o",
	}, nil)
	require.NoError(t, err)
	return svc
}

func TestGenerate(t *testing.T) {
	t.Run("normalizes a well-formed response", func(t *testing.T) {
		model := &fakeModel{response: `{
			"issues": [
				{"title": "Backend: auth middleware", "body": "## Summary", "labels": ["backend", "auth"], "priority": 1},
				{"title": "Frontend: login form", "labels": ["frontend"], "priority": 3}
			]
		}`}
		svc := newTestService(t, model)

		records, err := svc.Generate(context.Background(), "# Requirements")
		require.NoError(t, err)
		require.Len(t, records, 2)

		assert.Equal(t, "Backend: auth middleware", records[0].Title)
		assert.Equal(t, "## Summary", records[0].Body)
		assert.Equal(t, []string{"backend", "auth"}, records[0].Labels)
		require.NotNil(t, records[0].Priority)
		assert.Equal(t, 1, *records[0].Priority)

		assert.Equal(t, "Frontend: login form", records[1].Title)
		assert.Equal(t, "", records[1].Body, "absent body defaults to empty")
		require.NotNil(t, records[1].Priority)
		assert.Equal(t, 3, *records[1].Priority)

		assert.Contains(t, model.lastPrompt, "# Requirements", "document is part of the prompt")
	})

	t.Run("drops untitled candidates and keeps order", func(t *testing.T) {
		model := &fakeModel{response: `{
			"issues": [
				{"title": "first"},
				{"title": ""},
				{"body": "no title at all"},
				{"title": "   "},
				{"title": "second"},
				"not even an object",
				{"title": "third"}
			]
		}`}
		svc := newTestService(t, model)

		records, err := svc.Generate(context.Background(), "doc")
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, "first", records[0].Title)
		assert.Equal(t, "second", records[1].Title)
		assert.Equal(t, "third", records[2].Title)
	})

	t.Run("deduplicates labels preserving order", func(t *testing.T) {
		model := &fakeModel{response: `{
			"issues": [{"title": "t", "labels": ["bug", "bug", "feature", 42, "", "bug"]}]
		}`}
		svc := newTestService(t, model)

		records, err := svc.Generate(context.Background(), "doc")
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, []string{"bug", "feature"}, records[0].Labels)
	})

	t.Run("out-of-range priority is omitted not clamped", func(t *testing.T) {
		model := &fakeModel{response: `{
			"issues": [
				{"title": "too high", "priority": 7},
				{"title": "in range", "priority": 3},
				{"title": "zero", "priority": 0},
				{"title": "fractional", "priority": 2.5},
				{"title": "stringy", "priority": "1"}
			]
		}`}
		svc := newTestService(t, model)

		records, err := svc.Generate(context.Background(), "doc")
		require.NoError(t, err)
		require.Len(t, records, 5)
		assert.Nil(t, records[0].Priority)
		require.NotNil(t, records[1].Priority)
		assert.Equal(t, 3, *records[1].Priority)
		assert.Nil(t, records[2].Priority)
		assert.Nil(t, records[3].Priority)
		assert.Nil(t, records[4].Priority)
	})

	t.Run("long titles are truncated", func(t *testing.T) {
		long := strings.Repeat("x", 300)
		model := &fakeModel{response: `{"issues": [{"title": "` + long + `"}]}`}
		svc := newTestService(t, model)

		records, err := svc.Generate(context.Background(), "doc")
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Len(t, []rune(records[0].Title), maxTitleRunes)
		assert.True(t, strings.HasSuffix(records[0].Title, "..."))
	})

	t.Run("unparseable response yields empty result plus error", func(t *testing.T) {
		model := &fakeModel{response: "Sorry, I cannot do that."}
		svc := newTestService(t, model)

		records, err := svc.Generate(context.Background(), "doc")
		assert.ErrorIs(t, err, ErrSynthesis)
		assert.NotNil(t, records)
		assert.Empty(t, records)
	})

	t.Run("missing issues list is an error", func(t *testing.T) {
		model := &fakeModel{response: `{"tasks": []}`}
		svc := newTestService(t, model)

		records, err := svc.Generate(context.Background(), "doc")
		assert.ErrorIs(t, err, ErrSynthesis)
		assert.Empty(t, records)
	})

	t.Run("empty issues list is a valid empty result", func(t *testing.T) {
		model := &fakeModel{response: `{"issues": []}`}
		svc := newTestService(t, model)

		records, err := svc.Generate(context.Background(), "doc")
		assert.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("model call failure is a synthesis error", func(t *testing.T) {
		model := &fakeModel{err: errors.New("connection refused")}
		svc := newTestService(t, model)

		records, err := svc.Generate(context.Background(), "doc")
		assert.ErrorIs(t, err, ErrSynthesis)
		assert.Empty(t, records)
	})

	t.Run("empty choices is a synthesis error", func(t *testing.T) {
		model := &fakeModel{noChoice: true}
		svc := newTestService(t, model)

		_, err := svc.Generate(context.Background(), "doc")
		assert.ErrorIs(t, err, ErrSynthesis)
	})

	t.Run("candidate list is capped", func(t *testing.T) {
		var b strings.Builder
		b.WriteString(`{"issues": [`)
		for i := 0; i < 40; i++ {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(`{"title": "task"}`)
		}
		b.WriteString(`]}`)

		model := &fakeModel{response: b.String()}
		svc, err := NewServiceWithModel(model, Config{
			APIKey:        "sk-test",
			Model:         "gpt-4o",
			MaxCandidates: 25,
		}, nil)
		require.NoError(t, err)

		records, err := svc.Generate(context.Background(), "doc")
		require.NoError(t, err)
		assert.Len(t, records, 25)
	})
}

func TestConfigValidate(t *testing.T) {
	assert.ErrorIs(t, Config{Model: "gpt-4o"}.Validate(), ErrInvalidConfig)
	assert.ErrorIs(t, Config{APIKey: "sk"}.Validate(), ErrInvalidConfig)
	assert.NoError(t, Config{APIKey: "sk", Model: "gpt-4o"}.Validate())
}
