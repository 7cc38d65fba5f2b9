// studio/credentials.go
package studio

import (
	"context"
	"fmt"

	"github.com/ViniZap4/saga-studio/domain"
	"github.com/ViniZap4/saga-studio/store"
)

// Credentials stores one API key per module. Modules never share a key.
type Credentials struct {
	store *store.Adapter
}

func NewCredentials(adapter *store.Adapter) *Credentials {
	return &Credentials{store: adapter}
}

func (c *Credentials) Get(ctx context.Context, module domain.ModuleKey) (string, error) {
	if !module.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownModule, module)
	}
	return c.store.LoadString(ctx, store.CredentialKey(module)), nil
}

func (c *Credentials) Set(ctx context.Context, module domain.ModuleKey, key string) error {
	if !module.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownModule, module)
	}
	if key == "" {
		return fmt.Errorf("%w: key is empty", ErrInvalidInput)
	}
	c.store.SaveString(ctx, store.CredentialKey(module), key)
	return nil
}

func (c *Credentials) Clear(ctx context.Context, module domain.ModuleKey) error {
	if !module.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownModule, module)
	}
	c.store.Clear(ctx, store.CredentialKey(module))
	return nil
}

// key returns the credential of a known module.
func (c *Credentials) key(ctx context.Context, module domain.ModuleKey) string {
	return c.store.LoadString(ctx, store.CredentialKey(module))
}
