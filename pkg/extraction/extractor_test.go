package extraction

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucidnotes/memvault/pkg/llm"
	"github.com/lucidnotes/memvault/pkg/memory"
)

// staticProvider returns a fixed response or error for every call.
type staticProvider struct {
	response string
	err      error
}

func (p *staticProvider) Generate(ctx context.Context, prompt string, opts ...llm.GenerateOption) (string, error) {
	return p.response, p.err
}

func (p *staticProvider) GenerateWithMessages(ctx context.Context, messages []llm.Message, opts ...llm.GenerateOption) (string, error) {
	return p.response, p.err
}

func (p *staticProvider) Close() error { return nil }

func TestExtract(t *testing.T) {
	provider := &staticProvider{response: `{"memories": [
		{"content": "Moved to Lisbon last spring", "type": "journal_fact", "importance": 0.8},
		{"content": "Has a sister named Ana", "type": "conversation_fact", "importance": 0.7}
	]}`}
	e := NewExtractor(provider)

	candidates, err := e.Extract(context.Background(), "some journal entry")
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "Moved to Lisbon last spring", candidates[0].Content)
	assert.Equal(t, memory.TypeJournalFact, candidates[0].Type)
	assert.Equal(t, 0.8, candidates[0].SuggestedImportance)
	assert.Equal(t, memory.TypeConversationFact, candidates[1].Type)
}

func TestExtractCodeFencedResponse(t *testing.T) {
	provider := &staticProvider{response: "```json\n{\"memories\": [{\"content\": \"Runs every Sunday\", \"type\": \"journal_fact\", \"importance\": 0.5}]}\n```"}
	e := NewExtractor(provider)

	candidates, err := e.Extract(context.Background(), "entry")
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "Runs every Sunday", candidates[0].Content)
}

func TestExtractUnknownTypeFallsBack(t *testing.T) {
	provider := &staticProvider{response: `{"memories": [{"content": "fact", "type": "mystery", "importance": 0.5}]}`}
	e := NewExtractor(provider)

	candidates, err := e.Extract(context.Background(), "entry")
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, memory.TypeJournalFact, candidates[0].Type)
}

func TestExtractClampsImportance(t *testing.T) {
	provider := &staticProvider{response: `{"memories": [
		{"content": "a durable fact", "type": "journal_fact", "importance": 1.7},
		{"content": "another fact", "type": "journal_fact", "importance": -0.3}
	]}`}
	e := NewExtractor(provider)

	candidates, err := e.Extract(context.Background(), "entry")
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, 1.0, candidates[0].SuggestedImportance)
	assert.Equal(t, 0.0, candidates[1].SuggestedImportance)
}

func TestExtractSkipsEmptyContent(t *testing.T) {
	provider := &staticProvider{response: `{"memories": [
		{"content": "   ", "type": "journal_fact", "importance": 0.5},
		{"content": "kept", "type": "journal_fact", "importance": 0.5}
	]}`}
	e := NewExtractor(provider)

	candidates, err := e.Extract(context.Background(), "entry")
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "kept", candidates[0].Content)
}

func TestExtractEmptyMemories(t *testing.T) {
	provider := &staticProvider{response: `{"memories": []}`}
	e := NewExtractor(provider)

	candidates, err := e.Extract(context.Background(), "nothing much today")
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestExtractBlankInput(t *testing.T) {
	e := NewExtractor(&staticProvider{response: `{"memories": []}`})
	candidates, err := e.Extract(context.Background(), "   \n  ")
	require.NoError(t, err)
	assert.Nil(t, candidates)
}

func TestExtractProviderError(t *testing.T) {
	provider := &staticProvider{err: errors.New("connection refused")}
	e := NewExtractor(provider)

	_, err := e.Extract(context.Background(), "entry")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestExtractMalformedJSON(t *testing.T) {
	provider := &staticProvider{response: "Sure! Here are the memories I found:"}
	e := NewExtractor(provider)

	_, err := e.Extract(context.Background(), "entry")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestExtractNilProvider(t *testing.T) {
	e := NewExtractor(nil)
	_, err := e.Extract(context.Background(), "entry")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestCustomPrompt(t *testing.T) {
	e := NewExtractorWithPrompt(&staticProvider{}, "custom instructions")
	assert.Equal(t, "custom instructions", e.systemPrompt())
}
