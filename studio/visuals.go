// studio/visuals.go
package studio

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/ViniZap4/saga-studio/domain"
	"github.com/ViniZap4/saga-studio/events"
	"github.com/ViniZap4/saga-studio/gateway"
	"github.com/ViniZap4/saga-studio/store"
)

// Visuals keeps generated concept art, newest first.
type Visuals struct {
	deps
	gate
	mu   sync.RWMutex
	list []domain.GeneratedArt
}

func newVisuals(ctx context.Context, d deps) *Visuals {
	v := &Visuals{deps: d, list: []domain.GeneratedArt{}}
	v.store.Load(ctx, store.KeyVisualArts, &v.list)
	return v
}

func (v *Visuals) List() []domain.GeneratedArt {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return slices.Clone(v.list)
}

// Generate renders prompt. Both the prompt and the module credential are
// required; sentinel answers are rejected without touching the list.
func (v *Visuals) Generate(ctx context.Context, prompt string) (domain.GeneratedArt, error) {
	if strings.TrimSpace(prompt) == "" {
		return domain.GeneratedArt{}, fmt.Errorf("%w: prompt is required", ErrInvalidInput)
	}
	key := v.creds.key(ctx, domain.ModuleVisuals)
	if key == "" {
		return domain.GeneratedArt{}, ErrMissingCredential
	}
	if err := v.enter(); err != nil {
		return domain.GeneratedArt{}, err
	}
	defer v.leave()

	result := v.gw.Art(ctx, key, prompt)
	if gateway.IsSentinel(result) {
		v.log.Error().Str("result", result).Msg("art generation returned no image")
		return domain.GeneratedArt{}, fmt.Errorf("art: %w: %s", ErrGenerationFailed, result)
	}

	art := domain.GeneratedArt{Prompt: prompt, ImageURL: result}
	v.mu.Lock()
	v.list = prepend(v.list, art)
	snapshot := slices.Clone(v.list)
	v.mu.Unlock()

	v.store.Save(ctx, store.KeyVisualArts, snapshot)
	v.publish(events.RecordCreated, domain.ModuleVisuals, "0", art)
	return art, nil
}
