// Package extraction turns raw journal or conversation text into candidate
// memories by prompting the text-generation capability.
//
// The generation capability is treated as unreliable: any transport or
// parse failure surfaces as ErrUnavailable so callers can fail soft and
// continue with the next unit of input.
package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lucidnotes/memvault/pkg/llm"
	"github.com/lucidnotes/memvault/pkg/memory"
)

// ErrUnavailable indicates the generation capability was unreachable or
// returned output that could not be interpreted. Extraction yields no
// candidates; the condition is recoverable and never fatal.
var ErrUnavailable = errors.New("extraction unavailable")

// Candidate is one extracted memory proposal, in the order the model
// produced it.
type Candidate struct {
	// Content is the self-contained fact text.
	Content string

	// Type is the proposed classification.
	Type memory.MemoryType

	// SuggestedImportance is the model's importance estimate in [0,1].
	// Zero means the model gave none and the scorer falls back to the
	// per-type baseline.
	SuggestedImportance float64
}

// Extractor derives candidate memories from source text.
type Extractor struct {
	llm          llm.Provider
	customPrompt string
}

// NewExtractor creates an extractor over the given provider. A nil provider
// is allowed; every extraction then fails soft with ErrUnavailable.
func NewExtractor(provider llm.Provider) *Extractor {
	return &Extractor{llm: provider}
}

// NewExtractorWithPrompt creates an extractor with a custom system prompt.
func NewExtractorWithPrompt(provider llm.Provider, prompt string) *Extractor {
	return &Extractor{llm: provider, customPrompt: prompt}
}

// Extract produces zero or more candidates from one unit of source text,
// preserving the model's output order. Re-running over the same text is
// idempotent in effect because exact duplicates are rejected downstream.
func (e *Extractor) Extract(ctx context.Context, text string) ([]Candidate, error) {
	if e.llm == nil {
		return nil, fmt.Errorf("Extract: no provider configured: %w", ErrUnavailable)
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	messages := []llm.Message{
		{Role: "system", Content: e.systemPrompt()},
		{Role: "user", Content: fmt.Sprintf("Input:\n%s", text)},
	}

	response, err := e.llm.GenerateWithMessages(ctx, messages, llm.WithTemperature(0))
	if err != nil {
		return nil, fmt.Errorf("Extract: %v: %w", err, ErrUnavailable)
	}

	candidates, err := parseResponse(response)
	if err != nil {
		return nil, fmt.Errorf("Extract: %v: %w", err, ErrUnavailable)
	}
	return candidates, nil
}

func (e *Extractor) systemPrompt() string {
	if e.customPrompt != "" {
		return e.customPrompt
	}

	today := time.Now().Format("2006-01-02")
	return fmt.Sprintf(`You are a Personal Memory Organizer for a private journal. Extract durable, semantically important facts about the author from the text into distinct, self-contained memories.

Memory types: "journal_fact" (fact stated in a journal entry), "conversation_fact" (fact stated in a chat turn), "conversation" (summary of a whole conversation), "reflection" (insight spanning entries).

CRITICAL Rules:
1. TEMPORAL: ALWAYS keep time info (dates, relative refs like "yesterday") inside the fact text.
2. COMPLETE: Each fact must stand alone with who/what/when/where when available.
3. SEPARATE: Distinct facts become distinct memories, especially across time periods.
4. DURABLE ONLY: Skip passing moods and filler; keep preferences, relationships, plans, health, milestones.
5. IMPORTANCE: Rate each fact 0.0-1.0 for how much it matters for understanding the author long term.

Examples:
Input: Dear diary, nothing much today.
Output: {"memories": []}

Input: Moved into the new apartment on Elm Street yesterday. My sister Ana helped me carry boxes all day.
Output: {"memories": [{"content": "Moved into a new apartment on Elm Street yesterday", "type": "journal_fact", "importance": 0.8}, {"content": "Has a sister named Ana", "type": "journal_fact", "importance": 0.7}]}

Rules:
- Today: %s
- Return JSON only: {"memories": [{"content": "...", "type": "...", "importance": 0.0-1.0}]}
- If nothing durable, return an empty list
- Preserve the input language

Extract memories from the text below:`, today)
}

func parseResponse(response string) ([]Candidate, error) {
	response = stripCodeBlocks(response)

	var result struct {
		Memories []struct {
			Content    string  `json:"content"`
			Type       string  `json:"type"`
			Importance float64 `json:"importance"`
		} `json:"memories"`
	}
	if err := json.Unmarshal([]byte(response), &result); err != nil {
		return nil, fmt.Errorf("invalid JSON response: %w", err)
	}

	candidates := make([]Candidate, 0, len(result.Memories))
	for _, m := range result.Memories {
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		// Unknown type strings fall back to journal_fact.
		t, _ := memory.ParseMemoryType(m.Type)
		candidates = append(candidates, Candidate{
			Content:             content,
			Type:                t,
			SuggestedImportance: clamp01(m.Importance),
		})
	}
	return candidates, nil
}

func stripCodeBlocks(response string) string {
	response = strings.ReplaceAll(response, "```json", "")
	response = strings.ReplaceAll(response, "```", "")
	return strings.TrimSpace(response)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
