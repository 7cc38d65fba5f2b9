// gateway/sound.go
package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/ViniZap4/saga-studio/domain"
)

// SpeechVoice is the prebuilt voice used for narration.
const SpeechVoice = "Kore"

// WordsForDuration is the approximate script length for a sound duration.
func WordsForDuration(d domain.SoundDuration) int {
	switch d {
	case domain.Duration15s:
		return 40
	case domain.Duration30s:
		return 80
	case domain.Duration1Min:
		return 160
	case domain.Duration2Min:
		return 320
	case domain.Duration2MinPlus:
		return 450
	}
	return 80
}

// Speak writes a narration script for prompt sized to duration and
// synthesizes it. The answer is base64 PCM (24 kHz, mono, 16-bit).
func (c *Client) Speak(ctx context.Context, key, prompt string, duration domain.SoundDuration) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrMissingCredential
	}

	script, err := c.GenerateText(ctx, key, soundScriptPrompt(prompt, WordsForDuration(duration)))
	if err != nil {
		return "", fmt.Errorf("sound script: %w", err)
	}

	speech := &speechConfig{}
	speech.VoiceConfig.PrebuiltVoiceConfig.VoiceName = SpeechVoice
	req := generateContentRequest{
		Contents: userText(speechPrompt(script)),
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig:       speech,
		},
	}
	var resp generateContentResponse
	if err := c.postJSON(ctx, key, c.modelURL(c.cfg.SpeechModel, "generateContent"), req, &resp, "synthesize speech"); err != nil {
		return "", err
	}
	audio := resp.inline()
	if audio == nil {
		return "", fmt.Errorf("synthesize speech: %w (reason=%q)", ErrEmptyResult, resp.blockReason())
	}
	return audio.Data, nil
}

// Sound is Speak with failures swallowed: "" means nothing was produced.
func (c *Client) Sound(ctx context.Context, key, prompt string, duration domain.SoundDuration) string {
	if strings.TrimSpace(key) == "" {
		return ""
	}
	audio, err := c.Speak(ctx, key, prompt, duration)
	if err != nil {
		c.log.Error().Err(err).Msg("error generating sound")
		return ""
	}
	return audio
}
