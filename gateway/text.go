// gateway/text.go
package gateway

import (
	"context"
	"fmt"
	"strings"
)

// GenerateText issues a single text completion with the house style as the
// system instruction.
func (c *Client) GenerateText(ctx context.Context, key, prompt string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrMissingCredential
	}
	req := generateContentRequest{
		Contents:          userText(prompt),
		SystemInstruction: systemText(HouseStyle),
	}
	var resp generateContentResponse
	if err := c.postJSON(ctx, key, c.modelURL(c.cfg.TextModel, "generateContent"), req, &resp, "generate text"); err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.text())
	if text == "" {
		return "", fmt.Errorf("generate text: %w (reason=%q)", ErrEmptyResult, resp.blockReason())
	}
	return text, nil
}

// Narrative writes narrative content of the given type ("Comic Script",
// "Screenplay", ...). Failures come back as sentinel strings, never errors.
func (c *Client) Narrative(ctx context.Context, key, prompt, narrativeType string) string {
	if strings.TrimSpace(key) == "" {
		return MissingKeyMessage
	}
	text, err := c.GenerateText(ctx, key, narrativePrompt(prompt, narrativeType))
	if err != nil {
		c.log.Error().Err(err).Msg("error generating narrative")
		return NarrativeFailedMessage
	}
	return text
}
