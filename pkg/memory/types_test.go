package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryTypeValid(t *testing.T) {
	for _, mt := range AllTypes {
		assert.True(t, mt.Valid(), "type %q should be valid", mt)
	}
	assert.False(t, MemoryType("emotion").Valid())
	assert.False(t, MemoryType("").Valid())
}

func TestParseMemoryType(t *testing.T) {
	mt, ok := ParseMemoryType("conversation_fact")
	assert.True(t, ok)
	assert.Equal(t, TypeConversationFact, mt)

	// Unknown strings fall back to journal_fact.
	mt, ok = ParseMemoryType("something_else")
	assert.False(t, ok)
	assert.Equal(t, TypeJournalFact, mt)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Journal Fact", TypeJournalFact.DisplayName())
	assert.Equal(t, "User Provided", TypeUserProvided.DisplayName())
	assert.Equal(t, "Conversation", TypeConversation.DisplayName())
}

func TestSettingsValidate(t *testing.T) {
	s := DefaultSettings()
	assert.NoError(t, s.Validate())
	assert.True(t, s.AutomaticExtraction)
	assert.Equal(t, 1000, s.MaxMemoryCount)
	assert.Equal(t, 0.1, s.MinImportanceThreshold)

	s.MaxMemoryCount = 99
	assert.Error(t, s.Validate())
	s.MaxMemoryCount = 5001
	assert.Error(t, s.Validate())
	s.MaxMemoryCount = 5000
	assert.NoError(t, s.Validate())

	s.MinImportanceThreshold = -0.01
	assert.Error(t, s.Validate())
	s.MinImportanceThreshold = 1.01
	assert.Error(t, s.Validate())
	s.MinImportanceThreshold = 1.0
	assert.NoError(t, s.Validate())
}

func TestNormalizeContent(t *testing.T) {
	assert.Equal(t, "met john at 3pm", NormalizeContent("  Met   John\tat 3pm \n"))
	assert.Equal(t, NormalizeContent("MET JOHN AT 3PM"), NormalizeContent("met john at 3pm"))
	assert.Equal(t, "", NormalizeContent("   \n\t "))
}

func TestCleanFormatting(t *testing.T) {
	cases := map[string]string{
		"**Bold** fact":                 "Bold fact",
		"__also bold__ here":            "also bold here",
		"likes *italic* text":           "likes italic text",
		"uses `go` daily":               "uses go daily",
		"## Heading\nbody":              "Heading\nbody",
		"- first\n- second":             "first\nsecond",
		"a\n\n\n\nb":                    "a\n\nb",
		"already plain":                 "already plain",
		"  padded  ":                    "padded",
	}
	for in, want := range cases {
		assert.Equal(t, want, CleanFormatting(in), "input %q", in)
	}

	// Idempotent.
	once := CleanFormatting("**Bold** and `code`")
	assert.Equal(t, once, CleanFormatting(once))
}

func TestDedupeTags(t *testing.T) {
	assert.Equal(t, []string{"health", "family"}, DedupeTags([]string{"health", "Health", "family", "", "HEALTH"}))
	assert.Nil(t, DedupeTags(nil))
	assert.Nil(t, DedupeTags([]string{"", "  "}))
}

func TestClone(t *testing.T) {
	now := time.Now()
	m := &Memory{ID: 1, Content: "c", Tags: []string{"a"}, CreatedAt: now, LastAccessedAt: now}
	cp := m.Clone()
	cp.Tags[0] = "b"
	cp.Content = "changed"
	assert.Equal(t, "a", m.Tags[0])
	assert.Equal(t, "c", m.Content)
}
