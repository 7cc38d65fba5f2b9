package filesystem

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ViniZap4/saga-studio/domain"
)

func TestKindForMIME(t *testing.T) {
	assert.Equal(t, domain.KindImage, KindForMIME("image/png"))
	assert.Equal(t, domain.KindAudio, KindForMIME("audio/wav"))
	assert.Equal(t, domain.KindVideo, KindForMIME("video/mp4"))
	assert.Equal(t, domain.KindNote, KindForMIME("text/plain"))
	assert.Equal(t, domain.KindNote, KindForMIME("application/pdf"))
}

func TestUploadMediaAsDataURI(t *testing.T) {
	tree := newTestTree()
	item, err := tree.Upload("", "capa.png", "image/png", []byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, domain.KindImage, item.Kind)
	assert.Equal(t, "data:image/png;base64,YWJj", item.Content)
}

func TestUploadRejectsLargeFiles(t *testing.T) {
	tree := newTestTree()
	_, err := tree.Upload("", "grande.mp4", "video/mp4", make([]byte, MaxUploadBytes+1))
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.Empty(t, tree.Items())

	_, err = tree.Upload("", "limite.mp4", "video/mp4", make([]byte, MaxUploadBytes))
	assert.NoError(t, err)
}

func TestUploadTextNote(t *testing.T) {
	tree := newTestTree()
	item, err := tree.Upload("", "ideias.txt", "text/plain", []byte("eco eco"))
	require.NoError(t, err)
	assert.Equal(t, domain.KindNote, item.Kind)
	assert.Equal(t, "eco eco", item.Content)

	binary, err := tree.Upload("", "blob.bin", "", []byte{0xff, 0xfe, 0x00})
	require.NoError(t, err)
	assert.Equal(t, domain.KindNote, binary.Kind)
	assert.True(t, strings.HasPrefix(binary.Content, "data:application/octet-stream;base64,"))
}

func TestUploadMarkdownWithFrontmatter(t *testing.T) {
	tree := newTestTree()
	doc := "---\nid: old\nname: Capítulo Um\nparent_id: null\ntype: note\ncreated_at: 1\n---\n\nEra uma vez."
	item, err := tree.Upload("", "cap1.md", "text/markdown", []byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "Capítulo Um", item.Name)
	assert.Equal(t, "Era uma vez.", item.Content)
	assert.NotEqual(t, "old", item.ID)
}
