package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ViniZap4/saga-studio/domain"
	"github.com/ViniZap4/saga-studio/filesystem"
	"github.com/ViniZap4/saga-studio/store"
)

func TestWriteTreeIndentsChildren(t *testing.T) {
	tree := filesystem.NewTree()
	folder, err := tree.Create("", "Roteiros", domain.KindFolder)
	require.NoError(t, err)
	_, err = tree.Create(folder.ID, "Cena 1", domain.KindNote)
	require.NoError(t, err)

	var buf bytes.Buffer
	writeTree(&buf, tree)
	out := buf.String()
	assert.Contains(t, out, "Roteiros/")
	assert.Contains(t, out, "  Cena 1")
	assert.Less(t, strings.Index(out, "Roteiros/"), strings.Index(out, "Cena 1"))
}

func TestWriteTreeEmpty(t *testing.T) {
	var buf bytes.Buffer
	writeTree(&buf, filesystem.NewTree())
	assert.Equal(t, "(vazio)\n", buf.String())
}

func TestHashPasswordCommand(t *testing.T) {
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"hash-password", "s3gredo"})
	require.NoError(t, cmd.Execute())

	hash := strings.TrimSpace(out.String())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3gredo")))
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range newRootCommand().Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "migrate", "tree", "hash-password"} {
		assert.True(t, names[want], want)
	}
}

func TestTreeCommandReadsWhileServerOwnsStore(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("STUDIO_CONFIG", "")
	t.Setenv("STUDIO_STORE", "sqlite")
	t.Setenv("STUDIO_DATA_DIR", dir)
	t.Setenv("STUDIO_LOG_LEVEL", "off")

	owner, err := store.OpenSQLite(filepath.Join(dir, "studio.db"))
	require.NoError(t, err)
	defer owner.Close()
	require.NoError(t, owner.Put(context.Background(), store.KeyOrganizationItems,
		[]byte(`[{"id":"f1","parentId":null,"name":"Roteiros","type":"folder","createdAt":1700000000000}]`)))

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"tree"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Roteiros/")
}
