package export

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ViniZap4/saga-studio/domain"
)

var juliette = domain.Character{
	Name:                   "Juliette Vênus",
	Version:                "A Filósofa",
	Appearance:             "Olhos de vidro.",
	Personality:            "Calma.",
	Psychology:             "Dividida.",
	Powers:                 []string{"Eco", "Reflexo"},
	InternalContradictions: []string{"Quer fugir e ficar"},
	NarrativeVoice:         "Sussurrada.",
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "juliette_venus.json", Filename("Juliette Vênus", "json"))
	assert.Equal(t, "nova_hq_sem_titulo.txt", Filename("Nova HQ Sem Título", ".txt"))
	assert.Equal(t, "a_b_c_1.txt", Filename("A/B:C 1", "txt"))
	assert.Equal(t, "export.yaml", Filename("", "yaml"))
}

func TestCharacterText(t *testing.T) {
	want := `Nome: Juliette Vênus
Versão: A Filósofa
--------------------------------------

APARÊNCIA
Olhos de vidro.

--------------------------------------

PSICOLOGIA
Dividida.

--------------------------------------

PODERES
- Eco
- Reflexo

--------------------------------------

CONTRADIÇÕES INTERNAS
- Quer fugir e ficar

--------------------------------------

VOZ NARRATIVA
Sussurrada.`
	assert.Equal(t, want, string(CharacterText(juliette)))
}

func TestCharacterFormats(t *testing.T) {
	body, contentType, name, err := Character(juliette, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, "juliette_venus.json", name)
	assert.Contains(t, string(body), "\n  \"name\": \"Juliette Vênus\"")
	var decoded domain.Character
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, juliette, decoded)

	body, _, name, err = Character(juliette, FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "juliette_venus.yaml", name)
	var fromYAML domain.Character
	require.NoError(t, yaml.Unmarshal(body, &fromYAML))
	assert.Equal(t, juliette, fromYAML)

	_, _, name, err = Character(juliette, FormatText)
	require.NoError(t, err)
	assert.Equal(t, "juliette_venus.txt", name)

	_, _, _, err = Character(juliette, "pdf")
	assert.Error(t, err)
}

func TestCharacterJSONEmptyLists(t *testing.T) {
	body, err := CharacterJSON(domain.Character{Name: "x"})
	require.NoError(t, err)
	assert.Contains(t, string(body), `"powers": []`)
}

func TestTranscript(t *testing.T) {
	p := domain.NarrativeProject{
		Title:       "Espelhos",
		Type:        domain.ProjectHQ,
		Description: "Uma HQ.",
		ChatHistory: []domain.ChatMessage{
			{Sender: domain.SenderAI, Text: "Olá"},
			{Sender: domain.SenderUser, Text: "Cena 1"},
			{Sender: domain.SenderAI, Text: "Roteiro", Sketches: []string{"data:image/jpeg;base64,AA=="}},
		},
	}
	want := "Projeto: Espelhos\nTipo: HQ\nDescrição: Uma HQ.\n" +
		"------------------------------------------\n\n" +
		"[IA]:\nOlá\n\n" +
		"[Você]:\nCena 1\n\n" +
		"[IA]:\nRoteiro\n\n(Esboço visual gerado)\n\n"
	assert.Equal(t, want, string(Transcript(p)))
	assert.Equal(t, "espelhos.txt", TranscriptFilename(p))
}
