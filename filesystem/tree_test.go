package filesystem

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ViniZap4/saga-studio/domain"
)

func newTestTree() *Tree {
	n := 0
	return NewTree(
		WithClock(func() time.Time { return time.UnixMilli(1700000000000) }),
		WithIDs(func() string {
			n++
			return fmt.Sprintf("item-%d", n)
		}),
	)
}

func ids(items []domain.FileSystemItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}

func TestCreateAndList(t *testing.T) {
	tree := newTestTree()

	folder, err := tree.Create("", "Roteiros", domain.KindFolder)
	require.NoError(t, err)
	assert.Nil(t, folder.ParentID)
	assert.EqualValues(t, 1700000000000, folder.CreatedAt)

	note, err := tree.Create(folder.ID, "  cena 1  ", domain.KindNote)
	require.NoError(t, err)
	require.NotNil(t, note.ParentID)
	assert.Equal(t, folder.ID, *note.ParentID)
	assert.Equal(t, "cena 1", note.Name)
	assert.Empty(t, note.Content)

	assert.Equal(t, []string{folder.ID}, ids(tree.List("")))
	assert.Equal(t, []string{note.ID}, ids(tree.List(folder.ID)))
}

func TestCreateValidation(t *testing.T) {
	tree := newTestTree()
	note, err := tree.Create("", "nota", domain.KindNote)
	require.NoError(t, err)

	_, err = tree.Create("", " ", domain.KindFolder)
	assert.ErrorIs(t, err, ErrInvalidName)
	_, err = tree.Create("", "x", domain.KindImage)
	assert.ErrorIs(t, err, ErrInvalidKind)
	_, err = tree.Create("missing", "x", domain.KindNote)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = tree.Create(note.ID, "x", domain.KindNote)
	assert.ErrorIs(t, err, ErrNotFolder)
}

func TestDeleteIsShallow(t *testing.T) {
	tree := newTestTree()
	a, _ := tree.Create("", "A", domain.KindFolder)
	b, _ := tree.Create(a.ID, "B", domain.KindFolder)
	c, _ := tree.Create(b.ID, "C", domain.KindNote)
	d, _ := tree.Create(a.ID, "D", domain.KindNote)
	other, _ := tree.Create("", "other", domain.KindNote)

	removed, err := tree.Delete(a.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a.ID, b.ID, d.ID}, removed)

	// c survives with a dangling parent but cannot be reached from the root.
	assert.ElementsMatch(t, []string{c.ID, other.ID}, ids(tree.Items()))
	assert.Empty(t, tree.List(b.ID))

	var reachable []string
	tree.Walk(func(item domain.FileSystemItem, _ int) { reachable = append(reachable, item.ID) })
	assert.Equal(t, []string{other.ID}, reachable)

	_, err = tree.Delete(a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpenAndSave(t *testing.T) {
	tree := newTestTree()
	note, _ := tree.Create("", "diário", domain.KindNote)
	folder, _ := tree.Create("", "pasta", domain.KindFolder)

	saved, err := tree.Save(note.ID, "Juliette sonha.")
	require.NoError(t, err)
	assert.Equal(t, "Juliette sonha.", saved.Content)

	opened, err := tree.Open(note.ID)
	require.NoError(t, err)
	assert.Equal(t, "Juliette sonha.", opened.Content)

	_, err = tree.Save(folder.ID, "x")
	assert.ErrorIs(t, err, ErrNotNote)
	_, err = tree.Open("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNavigateAndBreadcrumb(t *testing.T) {
	tree := newTestTree()
	a, _ := tree.Create("", "A", domain.KindFolder)
	b, _ := tree.Create(a.ID, "B", domain.KindFolder)
	note, _ := tree.Create(b.ID, "n", domain.KindNote)

	_, err := tree.Navigate(note.ID)
	assert.ErrorIs(t, err, ErrNotFolder)

	_, err = tree.Navigate(a.ID)
	require.NoError(t, err)
	crumbs, err := tree.Navigate(b.ID)
	require.NoError(t, err)
	assert.Equal(t, []Crumb{{Name: RootName}, {ID: a.ID, Name: "A"}, {ID: b.ID, Name: "B"}}, crumbs)
	assert.Equal(t, b.ID, tree.CurrentFolder())

	current, items := tree.ListCurrent()
	assert.Equal(t, b.ID, current)
	assert.Equal(t, []string{note.ID}, ids(items))

	crumbs, err = tree.NavigateToBreadcrumb(0)
	require.NoError(t, err)
	assert.Equal(t, []Crumb{{Name: RootName}}, crumbs)
	assert.Equal(t, "", tree.CurrentFolder())

	_, err = tree.NavigateToBreadcrumb(3)
	assert.Error(t, err)
}

func TestNavigateToDistantFolderUsesAncestry(t *testing.T) {
	tree := newTestTree()
	a, _ := tree.Create("", "A", domain.KindFolder)
	b, _ := tree.Create(a.ID, "B", domain.KindFolder)

	crumbs, err := tree.Navigate(b.ID)
	require.NoError(t, err)
	assert.Equal(t, []Crumb{{Name: RootName}, {ID: a.ID, Name: "A"}, {ID: b.ID, Name: "B"}}, crumbs)
}

func TestBreadcrumbTruncatesAfterDelete(t *testing.T) {
	tree := newTestTree()
	a, _ := tree.Create("", "A", domain.KindFolder)
	b, _ := tree.Create(a.ID, "B", domain.KindFolder)
	_, _ = tree.Navigate(a.ID)
	_, _ = tree.Navigate(b.ID)

	_, err := tree.Delete(b.ID)
	require.NoError(t, err)
	assert.Equal(t, []Crumb{{Name: RootName}, {ID: a.ID, Name: "A"}}, tree.Breadcrumb())

	_, err = tree.Delete(a.ID)
	require.NoError(t, err)
	assert.Equal(t, "", tree.CurrentFolder())
}

func TestRestoreRoundTrip(t *testing.T) {
	tree := newTestTree()
	a, _ := tree.Create("", "A", domain.KindFolder)
	n, _ := tree.Create(a.ID, "n", domain.KindNote)
	_, _ = tree.Save(n.ID, "texto")
	_, _ = tree.Navigate(a.ID)

	restored := NewTree()
	restored.Restore(tree.Items())
	assert.Equal(t, tree.Items(), restored.Items())
	assert.Equal(t, "", restored.CurrentFolder())

	// Restored items are copies.
	items := restored.Items()
	*items[1].ParentID = "changed"
	assert.Equal(t, a.ID, *restored.Items()[1].ParentID)
}

func TestDefaultIDsAreUnique(t *testing.T) {
	tree := NewTree()
	first, err := tree.Create("", "a", domain.KindNote)
	require.NoError(t, err)
	second, err := tree.Create("", "b", domain.KindNote)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.NotEmpty(t, first.ID)
}
