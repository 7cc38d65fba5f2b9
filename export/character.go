// export/character.go
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ViniZap4/saga-studio/domain"
)

// Format is a character sheet export format.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "txt"
	FormatYAML Format = "yaml"
)

const rule = "--------------------------------------"

// Character renders a sheet in format and returns the body, its content type
// and the download filename.
func Character(ch domain.Character, format Format) ([]byte, string, string, error) {
	switch format {
	case FormatJSON, "":
		body, err := CharacterJSON(ch)
		return body, "application/json", Filename(ch.Name, "json"), err
	case FormatText:
		return CharacterText(ch), "text/plain; charset=utf-8", Filename(ch.Name, "txt"), nil
	case FormatYAML:
		body, err := CharacterYAML(ch)
		return body, "application/yaml", Filename(ch.Name, "yaml"), err
	}
	return nil, "", "", fmt.Errorf("unsupported export format %q", format)
}

// CharacterJSON is the sheet as 2-space indented JSON.
func CharacterJSON(ch domain.Character) ([]byte, error) {
	if ch.Powers == nil {
		ch.Powers = []string{}
	}
	if ch.InternalContradictions == nil {
		ch.InternalContradictions = []string{}
	}
	return json.MarshalIndent(ch, "", "  ")
}

// CharacterText is the human-readable sheet.
func CharacterText(ch domain.Character) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "Nome: %s\n", ch.Name)
	fmt.Fprintf(&b, "Versão: %s\n", ch.Version)
	section(&b, "APARÊNCIA", ch.Appearance)
	section(&b, "PSICOLOGIA", ch.Psychology)
	section(&b, "PODERES", "- "+strings.Join(ch.Powers, "\n- "))
	section(&b, "CONTRADIÇÕES INTERNAS", "- "+strings.Join(ch.InternalContradictions, "\n- "))
	section(&b, "VOZ NARRATIVA", ch.NarrativeVoice)
	return []byte(strings.TrimSpace(b.String()))
}

func section(b *strings.Builder, title, body string) {
	fmt.Fprintf(b, "%s\n\n%s\n%s\n\n", rule, title, body)
}

func CharacterYAML(ch domain.Character) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(ch); err != nil {
		return nil, fmt.Errorf("encode character: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode character: %w", err)
	}
	return buf.Bytes(), nil
}
