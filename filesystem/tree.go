// filesystem/tree.go
package filesystem

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ViniZap4/saga-studio/domain"
)

// RootName labels the first breadcrumb.
const RootName = "Raiz"

var (
	ErrNotFound    = errors.New("item not found")
	ErrNotFolder   = errors.New("item is not a folder")
	ErrNotNote     = errors.New("item is not a note")
	ErrInvalidName = errors.New("name is required")
	ErrInvalidKind = errors.New("invalid item kind")
	ErrTooLarge    = errors.New("file exceeds upload limit")
)

// Crumb is one step of the breadcrumb trail. The root crumb has an empty ID.
type Crumb struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Tree is the in-memory virtual filesystem: a flat item list where parent
// pointers form the hierarchy, plus the breadcrumb of the open folder.
type Tree struct {
	mu     sync.RWMutex
	items  []domain.FileSystemItem
	crumbs []Crumb

	now   func() time.Time
	newID func() string
}

// Option customizes a Tree.
type Option func(*Tree)

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(t *Tree) { t.now = now }
}

// WithIDs overrides id generation.
func WithIDs(newID func() string) Option {
	return func(t *Tree) { t.newID = newID }
}

func NewTree(opts ...Option) *Tree {
	t := &Tree{
		crumbs: []Crumb{{Name: RootName}},
		now:    time.Now,
		newID:  func() string { return uuid.Must(uuid.NewV7()).String() },
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Restore replaces the items, e.g. with a persisted snapshot, and returns the
// breadcrumb to the root.
func (t *Tree) Restore(items []domain.FileSystemItem) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = cloneItems(items)
	t.crumbs = []Crumb{{Name: RootName}}
}

// Items returns a copy of every item in insertion order.
func (t *Tree) Items() []domain.FileSystemItem {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return cloneItems(t.items)
}

// List returns the direct children of parentID ("" is the root). Children of
// a folder that no longer exists are not listed.
func (t *Tree) List(parentID string) []domain.FileSystemItem {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if parentID != "" {
		if parent, ok := t.findLocked(parentID); !ok || !parent.IsFolder() {
			return []domain.FileSystemItem{}
		}
	}
	out := []domain.FileSystemItem{}
	for _, item := range t.items {
		if item.InFolder(parentID) {
			out = append(out, cloneItem(item))
		}
	}
	return out
}

// ListCurrent validates the breadcrumb and lists the folder it points at.
func (t *Tree) ListCurrent() (string, []domain.FileSystemItem) {
	t.mu.Lock()
	t.validateCrumbsLocked()
	current := t.crumbs[len(t.crumbs)-1].ID
	t.mu.Unlock()
	return current, t.List(current)
}

// Create adds an empty folder or note under parentID.
func (t *Tree) Create(parentID, name string, kind domain.FileKind) (domain.FileSystemItem, error) {
	if kind != domain.KindFolder && kind != domain.KindNote {
		return domain.FileSystemItem{}, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	return t.add(parentID, name, kind, "")
}

func (t *Tree) add(parentID, name string, kind domain.FileKind, content string) (domain.FileSystemItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.FileSystemItem{}, ErrInvalidName
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	item := domain.FileSystemItem{
		ID:        t.newID(),
		Name:      name,
		Kind:      kind,
		Content:   content,
		CreatedAt: t.now().UnixMilli(),
	}
	if parentID != "" {
		parent, ok := t.findLocked(parentID)
		if !ok {
			return domain.FileSystemItem{}, fmt.Errorf("parent %s: %w", parentID, ErrNotFound)
		}
		if !parent.IsFolder() {
			return domain.FileSystemItem{}, fmt.Errorf("parent %s: %w", parentID, ErrNotFolder)
		}
		pid := parentID
		item.ParentID = &pid
	}
	t.items = append(t.items, item)
	return cloneItem(item), nil
}

// Open returns the item for viewing or editing.
func (t *Tree) Open(id string) (domain.FileSystemItem, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	item, ok := t.findLocked(id)
	if !ok {
		return domain.FileSystemItem{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return cloneItem(*item), nil
}

// Save replaces the content of a note.
func (t *Tree) Save(id, content string) (domain.FileSystemItem, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	item, ok := t.findLocked(id)
	if !ok {
		return domain.FileSystemItem{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if item.Kind != domain.KindNote {
		return domain.FileSystemItem{}, fmt.Errorf("%s: %w", id, ErrNotNote)
	}
	item.Content = content
	return cloneItem(*item), nil
}

// Delete removes the item and its direct children. Deeper descendants keep
// their parent pointer and become unreachable.
func (t *Tree) Delete(id string) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.findLocked(id); !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	var removed []string
	t.items = slices.DeleteFunc(t.items, func(item domain.FileSystemItem) bool {
		if item.ID == id || item.InFolder(id) {
			removed = append(removed, item.ID)
			return true
		}
		return false
	})
	t.validateCrumbsLocked()
	return removed, nil
}

// Navigate opens folder id. A child of the current folder pushes one crumb;
// any other folder replaces the trail with its ancestry.
func (t *Tree) Navigate(id string) ([]Crumb, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.validateCrumbsLocked()

	item, ok := t.findLocked(id)
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if !item.IsFolder() {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFolder)
	}

	current := t.crumbs[len(t.crumbs)-1].ID
	if item.InFolder(current) {
		t.crumbs = append(t.crumbs, Crumb{ID: item.ID, Name: item.Name})
		return slices.Clone(t.crumbs), nil
	}

	path, err := t.ancestryLocked(item)
	if err != nil {
		return nil, err
	}
	t.crumbs = path
	return slices.Clone(t.crumbs), nil
}

// NavigateToBreadcrumb truncates the trail so index is the last crumb.
func (t *Tree) NavigateToBreadcrumb(index int) ([]Crumb, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.validateCrumbsLocked()
	if index < 0 || index >= len(t.crumbs) {
		return nil, fmt.Errorf("breadcrumb index %d out of range [0,%d)", index, len(t.crumbs))
	}
	t.crumbs = t.crumbs[:index+1]
	return slices.Clone(t.crumbs), nil
}

// Breadcrumb returns the validated trail.
func (t *Tree) Breadcrumb() []Crumb {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.validateCrumbsLocked()
	return slices.Clone(t.crumbs)
}

// CurrentFolder is the id of the open folder, "" for the root.
func (t *Tree) CurrentFolder() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.validateCrumbsLocked()
	return t.crumbs[len(t.crumbs)-1].ID
}

// Walk visits every item reachable from the root depth-first, folders before
// their contents, in insertion order within a folder.
func (t *Tree) Walk(fn func(item domain.FileSystemItem, depth int)) {
	t.mu.RLock()
	items := cloneItems(t.items)
	t.mu.RUnlock()

	seen := make(map[string]bool, len(items))
	var visit func(parentID string, depth int)
	visit = func(parentID string, depth int) {
		for _, item := range items {
			if !item.InFolder(parentID) || seen[item.ID] {
				continue
			}
			seen[item.ID] = true
			fn(item, depth)
			if item.IsFolder() {
				visit(item.ID, depth+1)
			}
		}
	}
	visit("", 0)
}

// validateCrumbsLocked keeps the longest prefix of the trail in which every
// crumb is an existing folder whose parent is the previous crumb.
func (t *Tree) validateCrumbsLocked() {
	if len(t.crumbs) == 0 || t.crumbs[0].ID != "" {
		t.crumbs = []Crumb{{Name: RootName}}
		return
	}
	for i := 1; i < len(t.crumbs); i++ {
		item, ok := t.findLocked(t.crumbs[i].ID)
		if !ok || !item.IsFolder() || !item.InFolder(t.crumbs[i-1].ID) {
			t.crumbs = t.crumbs[:i]
			return
		}
		t.crumbs[i].Name = item.Name
	}
}

func (t *Tree) ancestryLocked(item *domain.FileSystemItem) ([]Crumb, error) {
	var path []Crumb
	seen := map[string]bool{}
	for cur := item; ; {
		if seen[cur.ID] {
			return nil, fmt.Errorf("folder %s: parent cycle", item.ID)
		}
		seen[cur.ID] = true
		path = append(path, Crumb{ID: cur.ID, Name: cur.Name})
		if cur.ParentID == nil {
			break
		}
		parent, ok := t.findLocked(*cur.ParentID)
		if !ok || !parent.IsFolder() {
			return nil, fmt.Errorf("folder %s is not reachable from the root: %w", item.ID, ErrNotFound)
		}
		cur = parent
	}
	path = append(path, Crumb{Name: RootName})
	slices.Reverse(path)
	return path, nil
}

func (t *Tree) findLocked(id string) (*domain.FileSystemItem, bool) {
	if id == "" {
		return nil, false
	}
	for i := range t.items {
		if t.items[i].ID == id {
			return &t.items[i], true
		}
	}
	return nil, false
}

func cloneItem(item domain.FileSystemItem) domain.FileSystemItem {
	if item.ParentID != nil {
		pid := *item.ParentID
		item.ParentID = &pid
	}
	return item
}

func cloneItems(items []domain.FileSystemItem) []domain.FileSystemItem {
	out := make([]domain.FileSystemItem, len(items))
	for i, item := range items {
		out[i] = cloneItem(item)
	}
	return out
}
