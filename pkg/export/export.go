// Package export renders memory records to portable text formats and
// reconstructs records from a JSON export.
package export

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lucidnotes/memvault/pkg/memory"
)

// Format selects the export rendering.
type Format string

const (
	// FormatMarkdown renders a markdown document with one section per
	// memory.
	FormatMarkdown Format = "markdown"

	// FormatJSON renders a lossless JSON array; the only format Import
	// can reconstruct from.
	FormatJSON Format = "json"

	// FormatPlainText renders one memory per paragraph with no markup.
	FormatPlainText Format = "plaintext"
)

// ParseFormat maps a user string to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "plaintext", "plain", "text", "txt":
		return FormatPlainText, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// Render serializes the given memories to a text blob. With
// includeMetadata false, markdown and plain text emit content only, and
// JSON keeps just the fields needed for reconstruction (content, type,
// importance).
func Render(memories []*memory.Memory, format Format, includeMetadata bool) (string, error) {
	switch format {
	case FormatJSON:
		return renderJSON(memories, includeMetadata)
	case FormatMarkdown:
		return renderMarkdown(memories, includeMetadata), nil
	case FormatPlainText:
		return renderPlainText(memories, includeMetadata), nil
	}
	return "", fmt.Errorf("unknown export format %q", format)
}

// jsonRecord is the reduced shape exported when metadata is excluded.
type jsonRecord struct {
	Content    string            `json:"content"`
	Type       memory.MemoryType `json:"type"`
	Importance float64           `json:"importance"`
}

func renderJSON(memories []*memory.Memory, includeMetadata bool) (string, error) {
	var v interface{}
	if includeMetadata {
		full := make([]*memory.Memory, len(memories))
		copy(full, memories)
		v = full
	} else {
		reduced := make([]jsonRecord, 0, len(memories))
		for _, m := range memories {
			reduced = append(reduced, jsonRecord{
				Content:    m.Content,
				Type:       m.Type,
				Importance: m.Importance,
			})
		}
		v = reduced
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("Render: %w", err)
	}
	return string(data), nil
}

func renderMarkdown(memories []*memory.Memory, includeMetadata bool) string {
	var b strings.Builder
	b.WriteString("# Memories\n")
	for _, m := range memories {
		b.WriteString("\n## ")
		b.WriteString(m.Type.DisplayName())
		b.WriteString("\n\n")
		b.WriteString(m.Content)
		b.WriteString("\n")
		if includeMetadata {
			fmt.Fprintf(&b, "\n- Importance: %.2f\n", m.Importance)
			fmt.Fprintf(&b, "- Created: %s\n", m.CreatedAt.Format("2006-01-02 15:04"))
			if len(m.Tags) > 0 {
				fmt.Fprintf(&b, "- Tags: %s\n", strings.Join(m.Tags, ", "))
			}
			if m.Pinned {
				b.WriteString("- Pinned\n")
			}
		}
	}
	return b.String()
}

func renderPlainText(memories []*memory.Memory, includeMetadata bool) string {
	var b strings.Builder
	for i, m := range memories {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(m.Content)
		if includeMetadata {
			fmt.Fprintf(&b, "\n(%s, importance %.2f, %s)",
				m.Type.DisplayName(), m.Importance, m.CreatedAt.Format("2006-01-02"))
		}
	}
	return b.String()
}

// Parse reconstructs records from a JSON export produced by Render. Both
// the full and the reduced shape decode; content, type, and importance are
// preserved exactly. Records with empty content or an unknown type are
// rejected.
func Parse(blob string) ([]*memory.Memory, error) {
	var records []*memory.Memory
	if err := json.Unmarshal([]byte(blob), &records); err != nil {
		return nil, fmt.Errorf("Parse: %w", err)
	}
	for i, m := range records {
		if m == nil {
			return nil, fmt.Errorf("Parse: record %d is null", i)
		}
		if strings.TrimSpace(m.Content) == "" {
			return nil, fmt.Errorf("Parse: record %d has empty content", i)
		}
		if !m.Type.Valid() {
			return nil, fmt.Errorf("Parse: record %d has unknown type %q", i, m.Type)
		}
		if m.Importance < 0 || m.Importance > 1 {
			return nil, fmt.Errorf("Parse: record %d importance %v out of range", i, m.Importance)
		}
	}
	return records, nil
}
