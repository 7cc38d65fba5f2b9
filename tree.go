// tree.go
package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ViniZap4/saga-studio/domain"
	"github.com/ViniZap4/saga-studio/filesystem"
	"github.com/ViniZap4/saga-studio/store"
)

func newTreeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Print the organization file tree",
		Long: "Print the organization file tree. The sqlite database is opened read-only\n" +
			"without the data directory lock, so this works while serve is running.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			adapter, closeStore, err := openAdapter(cmd.Context(), cfg, log, store.OpenReadOnly)
			if err != nil {
				return err
			}
			defer closeStore()

			var items []domain.FileSystemItem
			adapter.Load(cmd.Context(), store.KeyOrganizationItems, &items)
			tree := filesystem.NewTree()
			tree.Restore(items)
			writeTree(cmd.OutOrStdout(), tree)
			return nil
		},
	}
}

func writeTree(w io.Writer, tree *filesystem.Tree) {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Nome", "Tipo", "Criado em", "ID"})

	count := 0
	tree.Walk(func(item domain.FileSystemItem, depth int) {
		name := strings.Repeat("  ", depth) + item.Name
		if item.IsFolder() {
			name += "/"
		}
		created := ""
		if item.CreatedAt > 0 {
			created = time.UnixMilli(item.CreatedAt).Format("2006-01-02 15:04")
		}
		tw.AppendRow(table.Row{name, string(item.Kind), created, item.ID})
		count++
	})
	if count == 0 {
		fmt.Fprintln(w, "(vazio)")
		return
	}
	fmt.Fprintln(w, tw.Render())
}
