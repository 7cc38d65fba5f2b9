// gateway/image.go
package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/ViniZap4/saga-studio/domain"
)

type predictImageRequest struct {
	Instances  []imageInstance `json:"instances"`
	Parameters imageParameters `json:"parameters"`
}

type imageInstance struct {
	Prompt string `json:"prompt"`
}

type imageParameters struct {
	SampleCount    int    `json:"sampleCount"`
	OutputMimeType string `json:"outputMimeType"`
	AspectRatio    string `json:"aspectRatio"`
}

type predictImageResponse struct {
	Predictions []struct {
		BytesBase64Encoded string `json:"bytesBase64Encoded"`
		MimeType           string `json:"mimeType"`
	} `json:"predictions"`
}

// GenerateImage renders one 3:4 JPEG and returns it as a data URI. An answer
// without images yields "" and no error.
func (c *Client) GenerateImage(ctx context.Context, key, prompt string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrMissingCredential
	}
	req := predictImageRequest{
		Instances: []imageInstance{{Prompt: artPrompt(prompt)}},
		Parameters: imageParameters{
			SampleCount:    1,
			OutputMimeType: "image/jpeg",
			AspectRatio:    "3:4",
		},
	}
	var resp predictImageResponse
	if err := c.postJSON(ctx, key, c.modelURL(c.cfg.ImageModel, "predict"), req, &resp, "generate image"); err != nil {
		return "", err
	}
	if len(resp.Predictions) == 0 || resp.Predictions[0].BytesBase64Encoded == "" {
		return "", nil
	}
	return DataURI("image/jpeg", resp.Predictions[0].BytesBase64Encoded), nil
}

// Art is GenerateImage with the sentinel contract.
func (c *Client) Art(ctx context.Context, key, prompt string) string {
	if strings.TrimSpace(key) == "" {
		return MissingKeyMessage
	}
	uri, err := c.GenerateImage(ctx, key, prompt)
	if err != nil {
		c.log.Error().Err(err).Msg("error generating art")
		return ArtFailedMessage
	}
	return uri
}

// TransformImage repaints imageDataURI according to settings.
func (c *Client) TransformImage(ctx context.Context, key, imageDataURI string, settings domain.TransformerSettings) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrMissingCredential
	}
	mimeType, data, err := ParseDataURI(imageDataURI)
	if err != nil {
		return "", fmt.Errorf("transform image: %w", err)
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	req := generateContentRequest{
		Contents: []content{{
			Role: "user",
			Parts: []part{
				{InlineData: &inlineData{MimeType: mimeType, Data: data}},
				{Text: transformPrompt(settings)},
			},
		}},
		GenerationConfig: &generationConfig{ResponseModalities: []string{"IMAGE", "TEXT"}},
	}
	var resp generateContentResponse
	if err := c.postJSON(ctx, key, c.modelURL(c.cfg.TransformModel, "generateContent"), req, &resp, "transform image"); err != nil {
		return "", err
	}
	img := resp.inline()
	if img == nil {
		return "", fmt.Errorf("transform image: %w (reason=%q)", ErrEmptyResult, resp.blockReason())
	}
	return DataURI(firstNonEmpty(img.MimeType, "image/png"), img.Data), nil
}

// Transform is TransformImage with the sentinel contract.
func (c *Client) Transform(ctx context.Context, key, imageDataURI string, settings domain.TransformerSettings) string {
	if strings.TrimSpace(key) == "" {
		return MissingKeyMessage
	}
	uri, err := c.TransformImage(ctx, key, imageDataURI, settings)
	if err != nil {
		c.log.Error().Err(err).Msg("error transforming image")
		return TransformFailedMessage
	}
	return uri
}
