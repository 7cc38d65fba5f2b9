// filesystem/note.go
package filesystem

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/ViniZap4/saga-studio/domain"
)

var frontmatterDelim = []byte("---")

// ExportNote renders a note as Markdown with YAML frontmatter.
func ExportNote(item domain.FileSystemItem) ([]byte, error) {
	if item.Kind != domain.KindNote {
		return nil, fmt.Errorf("%s: %w", item.ID, ErrNotNote)
	}
	var buf bytes.Buffer

	buf.WriteString("---\n")

	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(item); err != nil {
		return nil, fmt.Errorf("failed to encode frontmatter: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode frontmatter: %w", err)
	}

	buf.WriteString("---\n\n")
	buf.WriteString(item.Content)

	return buf.Bytes(), nil
}

// ParseNote reads a document written by ExportNote.
func ParseNote(data []byte) (domain.FileSystemItem, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !bytes.HasPrefix(data, frontmatterDelim) {
		return domain.FileSystemItem{}, fmt.Errorf("invalid frontmatter format")
	}
	rest := data[len(frontmatterDelim):]
	end := bytes.Index(rest, append([]byte("\n"), frontmatterDelim...))
	if end < 0 {
		return domain.FileSystemItem{}, fmt.Errorf("invalid frontmatter format")
	}

	var item domain.FileSystemItem
	if err := yaml.Unmarshal(rest[:end], &item); err != nil {
		return domain.FileSystemItem{}, fmt.Errorf("failed to parse frontmatter: %w", err)
	}
	item.Kind = domain.KindNote
	item.Content = string(bytes.TrimSpace(rest[end+1+len(frontmatterDelim):]))
	return item, nil
}
