// gateway/character.go
package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/ViniZap4/saga-studio/domain"
)

var characterSchema = &schema{
	Type: "OBJECT",
	Properties: map[string]*schema{
		"name":                   {Type: "STRING"},
		"version":                {Type: "STRING", Description: "Ex: A Filósofa, A Guerreira, A Sombra"},
		"appearance":             {Type: "STRING"},
		"personality":            {Type: "STRING"},
		"psychology":             {Type: "STRING"},
		"powers":                 {Type: "ARRAY", Items: &schema{Type: "STRING"}},
		"internalContradictions": {Type: "ARRAY", Items: &schema{Type: "STRING"}},
		"narrativeVoice":         {Type: "STRING"},
	},
}

// GenerateCharacter asks for a schema-constrained character sheet. idea may
// be empty.
func (c *Client) GenerateCharacter(ctx context.Context, key, idea string) (*domain.Character, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrMissingCredential
	}
	req := generateContentRequest{
		Contents:          userText(characterPrompt(idea)),
		SystemInstruction: systemText(HouseStyle),
		GenerationConfig: &generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   characterSchema,
		},
	}
	var resp generateContentResponse
	if err := c.postJSON(ctx, key, c.modelURL(c.cfg.TextModel, "generateContent"), req, &resp, "generate character"); err != nil {
		return nil, err
	}
	var ch domain.Character
	if err := decodeModelJSON(resp.text(), &ch); err != nil {
		return nil, fmt.Errorf("generate character: parse payload: %w", err)
	}
	if ch.Powers == nil {
		ch.Powers = []string{}
	}
	if ch.InternalContradictions == nil {
		ch.InternalContradictions = []string{}
	}
	return &ch, nil
}

// Character returns nil on any failure so callers leave their list alone.
func (c *Client) Character(ctx context.Context, key, idea string) *domain.Character {
	ch, err := c.GenerateCharacter(ctx, key, idea)
	if err != nil {
		c.log.Error().Err(err).Msg("error generating character")
		return nil
	}
	return ch
}
