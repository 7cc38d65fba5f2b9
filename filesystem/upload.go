// filesystem/upload.go
package filesystem

import (
	"encoding/base64"
	"fmt"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/ViniZap4/saga-studio/domain"
)

// MaxUploadBytes is the ceiling for an imported file.
const MaxUploadBytes = 5 * 1024 * 1024

// KindForMIME infers the item kind from the MIME type prefix.
func KindForMIME(mimeType string) domain.FileKind {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return domain.KindImage
	case strings.HasPrefix(mimeType, "audio/"):
		return domain.KindAudio
	case strings.HasPrefix(mimeType, "video/"):
		return domain.KindVideo
	}
	return domain.KindNote
}

// Upload imports a file under parentID. Media is stored as a data URI.
// Notes keep readable text; a Markdown file with frontmatter contributes its
// body and name.
func (t *Tree) Upload(parentID, name, mimeType string, data []byte) (domain.FileSystemItem, error) {
	if len(data) > MaxUploadBytes {
		return domain.FileSystemItem{}, fmt.Errorf("%s (%d bytes): %w", name, len(data), ErrTooLarge)
	}
	mimeType = strings.TrimSpace(strings.ToLower(mimeType))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	kind := KindForMIME(mimeType)
	if kind != domain.KindNote || !utf8.Valid(data) {
		encoded := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
		return t.add(parentID, name, kind, encoded)
	}

	if strings.EqualFold(path.Ext(name), ".md") {
		if note, err := ParseNote(data); err == nil {
			if note.Name != "" {
				name = note.Name
			}
			return t.add(parentID, name, domain.KindNote, note.Content)
		}
	}
	return t.add(parentID, name, domain.KindNote, string(data))
}
