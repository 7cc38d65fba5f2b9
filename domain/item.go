// domain/item.go
package domain

// FileKind tags what a virtual filesystem item holds.
type FileKind string

const (
	KindFolder FileKind = "folder"
	KindNote   FileKind = "note"
	KindImage  FileKind = "image"
	KindVideo  FileKind = "video"
	KindAudio  FileKind = "audio"
)

// Valid reports whether k is one of the known kinds.
func (k FileKind) Valid() bool {
	switch k {
	case KindFolder, KindNote, KindImage, KindVideo, KindAudio:
		return true
	}
	return false
}

// FileSystemItem is one node of the virtual file tree. Items are stored flat;
// ParentID nil means the item lives at the root.
type FileSystemItem struct {
	ID        string   `json:"id" yaml:"id"`
	ParentID  *string  `json:"parentId" yaml:"parent_id"`
	Name      string   `json:"name" yaml:"name"`
	Kind      FileKind `json:"type" yaml:"type"`
	Content   string   `json:"content,omitempty" yaml:"-"`
	CreatedAt int64    `json:"createdAt" yaml:"created_at"`
}

func (i FileSystemItem) IsFolder() bool { return i.Kind == KindFolder }

// InFolder reports whether the item is a direct child of parentID ("" = root).
func (i FileSystemItem) InFolder(parentID string) bool {
	if i.ParentID == nil {
		return parentID == ""
	}
	return *i.ParentID == parentID
}
