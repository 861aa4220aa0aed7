package intelligence

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lucidnotes/memvault/pkg/memory"
)

func TestDeduplicatorNormalizedMatch(t *testing.T) {
	existing := []*memory.Memory{
		{ID: 1, Content: "Prefers tea over coffee"},
	}
	d := NewDeduplicator(existing)

	assert.True(t, d.IsDuplicate("Prefers tea over coffee"))
	assert.True(t, d.IsDuplicate("  prefers   tea over COFFEE  "))
	assert.False(t, d.IsDuplicate("Prefers coffee over tea"))
}

func TestDeduplicatorAdd(t *testing.T) {
	d := NewDeduplicator(nil)

	assert.False(t, d.IsDuplicate("Runs every Sunday morning"))
	d.Add("Runs every Sunday morning")
	assert.True(t, d.IsDuplicate("runs every sunday morning"))
}

func TestDeduplicatorEmptyExisting(t *testing.T) {
	d := NewDeduplicator([]*memory.Memory{})
	assert.False(t, d.IsDuplicate("anything"))
}
