// studio/organization.go
package studio

import (
	"context"

	"github.com/ViniZap4/saga-studio/domain"
	"github.com/ViniZap4/saga-studio/events"
	"github.com/ViniZap4/saga-studio/filesystem"
	"github.com/ViniZap4/saga-studio/store"
)

// Organization is the virtual filesystem module. Every mutation is mirrored
// to the store.
type Organization struct {
	deps
	tree *filesystem.Tree
}

func newOrganization(ctx context.Context, d deps) *Organization {
	tree := filesystem.NewTree(filesystem.WithClock(d.now), filesystem.WithIDs(d.newID))
	var items []domain.FileSystemItem
	if d.store.Load(ctx, store.KeyOrganizationItems, &items) {
		tree.Restore(items)
	}
	return &Organization{deps: d, tree: tree}
}

// Tree exposes the read side for rendering.
func (o *Organization) Tree() *filesystem.Tree { return o.tree }

func (o *Organization) Items() []domain.FileSystemItem { return o.tree.Items() }

func (o *Organization) List(parentID string) []domain.FileSystemItem { return o.tree.List(parentID) }

// ListCurrent lists the open folder after validating the breadcrumb.
func (o *Organization) ListCurrent() (string, []domain.FileSystemItem) { return o.tree.ListCurrent() }

func (o *Organization) Breadcrumb() []filesystem.Crumb { return o.tree.Breadcrumb() }

func (o *Organization) Open(id string) (domain.FileSystemItem, error) { return o.tree.Open(id) }

func (o *Organization) Navigate(id string) ([]filesystem.Crumb, error) { return o.tree.Navigate(id) }

func (o *Organization) NavigateToBreadcrumb(index int) ([]filesystem.Crumb, error) {
	return o.tree.NavigateToBreadcrumb(index)
}

func (o *Organization) Create(ctx context.Context, parentID, name string, kind domain.FileKind) (domain.FileSystemItem, error) {
	item, err := o.tree.Create(parentID, name, kind)
	if err != nil {
		return domain.FileSystemItem{}, err
	}
	o.persist(ctx)
	o.publish(events.ItemCreated, domain.ModuleOrganization, item.ID, item)
	return item, nil
}

func (o *Organization) Upload(ctx context.Context, parentID, name, mimeType string, data []byte) (domain.FileSystemItem, error) {
	item, err := o.tree.Upload(parentID, name, mimeType, data)
	if err != nil {
		return domain.FileSystemItem{}, err
	}
	o.persist(ctx)
	o.publish(events.ItemCreated, domain.ModuleOrganization, item.ID, itemSummary(item))
	return item, nil
}

func (o *Organization) Save(ctx context.Context, id, content string) (domain.FileSystemItem, error) {
	item, err := o.tree.Save(id, content)
	if err != nil {
		return domain.FileSystemItem{}, err
	}
	o.persist(ctx)
	o.publish(events.ItemUpdated, domain.ModuleOrganization, item.ID, itemSummary(item))
	return item, nil
}

// Delete removes the item and its direct children, returning their ids.
func (o *Organization) Delete(ctx context.Context, id string) ([]string, error) {
	removed, err := o.tree.Delete(id)
	if err != nil {
		return nil, err
	}
	o.persist(ctx)
	o.publish(events.ItemDeleted, domain.ModuleOrganization, id, removed)
	return removed, nil
}

// Export renders a note as Markdown with frontmatter.
func (o *Organization) Export(id string) ([]byte, error) {
	item, err := o.tree.Open(id)
	if err != nil {
		return nil, err
	}
	return filesystem.ExportNote(item)
}

func (o *Organization) persist(ctx context.Context) {
	o.store.Save(ctx, store.KeyOrganizationItems, o.tree.Items())
}

// itemSummary drops media payloads from event messages.
func itemSummary(item domain.FileSystemItem) domain.FileSystemItem {
	if item.Kind != domain.KindNote && item.Kind != domain.KindFolder {
		item.Content = ""
	}
	return item
}
