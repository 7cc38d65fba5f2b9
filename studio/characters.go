// studio/characters.go
package studio

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/ViniZap4/saga-studio/domain"
	"github.com/ViniZap4/saga-studio/events"
	"github.com/ViniZap4/saga-studio/store"
)

// Characters keeps generated character sheets, newest first. Records are
// addressed by index.
type Characters struct {
	deps
	gate
	mu   sync.RWMutex
	list []domain.Character
}

func newCharacters(ctx context.Context, d deps) *Characters {
	c := &Characters{deps: d, list: []domain.Character{}}
	c.store.Load(ctx, store.KeyCharacters, &c.list)
	return c
}

func (c *Characters) List() []domain.Character {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.list)
}

func (c *Characters) Get(index int) (domain.Character, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if index < 0 || index >= len(c.list) {
		return domain.Character{}, fmt.Errorf("character %d: %w", index, ErrNotFound)
	}
	return c.list[index], nil
}

// Generate asks for a new sheet guided by the optional idea. When the
// gateway yields nothing the list is left as it was.
func (c *Characters) Generate(ctx context.Context, idea string) (domain.Character, error) {
	if err := c.enter(); err != nil {
		return domain.Character{}, err
	}
	defer c.leave()

	key := c.creds.key(ctx, domain.ModuleCharacters)
	ch := c.gw.Character(ctx, key, strings.TrimSpace(idea))
	if ch == nil {
		c.log.Error().Msg("failed to generate character")
		return domain.Character{}, fmt.Errorf("character: %w", ErrGenerationFailed)
	}

	c.mu.Lock()
	c.list = prepend(c.list, *ch)
	snapshot := slices.Clone(c.list)
	c.mu.Unlock()

	c.store.Save(ctx, store.KeyCharacters, snapshot)
	c.publish(events.RecordCreated, domain.ModuleCharacters, "0", ch)
	return *ch, nil
}
