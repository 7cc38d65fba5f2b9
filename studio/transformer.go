// studio/transformer.go
package studio

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ViniZap4/saga-studio/domain"
)

// DefaultTransformerSettings are the settings a fresh session starts with.
var DefaultTransformerSettings = domain.TransformerSettings{
	Preset:        "realistic",
	StyleStrength: 60,
	DetailLevel:   domain.DetailHigh,
	Denoise:       25,
	FaceAware:     true,
}

// Transformer repaints uploaded images. Its settings live for the session
// only.
type Transformer struct {
	deps
	gate
	mu       sync.RWMutex
	settings domain.TransformerSettings
}

func newTransformer(d deps) *Transformer {
	return &Transformer{deps: d, settings: DefaultTransformerSettings}
}

func (t *Transformer) Settings() domain.TransformerSettings {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.settings
}

func (t *Transformer) UpdateSettings(s domain.TransformerSettings) (domain.TransformerSettings, error) {
	if err := validateSettings(s); err != nil {
		return domain.TransformerSettings{}, err
	}
	t.mu.Lock()
	t.settings = s
	t.mu.Unlock()
	return s, nil
}

// Transform applies settings, or the session settings when nil, to the image.
func (t *Transformer) Transform(ctx context.Context, imageDataURI string, settings *domain.TransformerSettings) (string, error) {
	if !strings.HasPrefix(imageDataURI, "data:image") {
		return "", fmt.Errorf("%w: an image data URI is required", ErrInvalidInput)
	}
	effective := t.Settings()
	if settings != nil {
		if err := validateSettings(*settings); err != nil {
			return "", err
		}
		effective = *settings
	}
	key := t.creds.key(ctx, domain.ModuleTransformer)
	if key == "" {
		return "", ErrMissingCredential
	}
	if err := t.enter(); err != nil {
		return "", err
	}
	defer t.leave()

	result := t.gw.Transform(ctx, key, imageDataURI, effective)
	if !strings.HasPrefix(result, "data:image") {
		t.log.Error().Str("result", result).Msg("transformation failed")
		return "", fmt.Errorf("transform: %w: %s", ErrGenerationFailed, result)
	}
	return result, nil
}

func validateSettings(s domain.TransformerSettings) error {
	if s.StyleStrength < 0 || s.StyleStrength > 100 {
		return fmt.Errorf("%w: style strength %d outside 0-100", ErrInvalidInput, s.StyleStrength)
	}
	if s.Denoise < 0 || s.Denoise > 100 {
		return fmt.Errorf("%w: denoise %d outside 0-100", ErrInvalidInput, s.Denoise)
	}
	switch s.DetailLevel {
	case "", domain.DetailLow, domain.DetailMedium, domain.DetailHigh, domain.DetailExtreme:
	default:
		return fmt.Errorf("%w: detail level %q", ErrInvalidInput, s.DetailLevel)
	}
	return nil
}
