// store/store.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/rs/zerolog"
)

var (
	// ErrNotFound is returned by a Backend when a key has never been saved.
	ErrNotFound = errors.New("key not found")
	// ErrQuota marks writes refused because the value is too large.
	ErrQuota = errors.New("storage quota exceeded")
	// ErrSchemaMissing marks a database that has not been migrated.
	ErrSchemaMissing = errors.New("storage schema missing")
)

// Backend is the raw key/value storage under the adapter. Values are JSON
// documents stored as bytes.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Adapter mirrors module state into a Backend. It never returns errors to
// the caller: failures are logged and Load reports that nothing was saved.
type Adapter struct {
	backend       Backend
	log           zerolog.Logger
	maxValueBytes int
}

// AdapterOption customizes the adapter.
type AdapterOption func(*Adapter)

// WithMaxValueBytes caps the encoded size of a single value. The adapter has
// no cap unless this option sets one; 0 disables it.
func WithMaxValueBytes(n int) AdapterOption {
	return func(a *Adapter) {
		if n >= 0 {
			a.maxValueBytes = n
		}
	}
}

func NewAdapter(backend Backend, log zerolog.Logger, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		backend: backend,
		log:     log.With().Str("component", "store").Logger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Load decodes the value saved under key into dst, which must be a non-nil
// pointer. It returns false, leaving dst untouched, when nothing usable is
// stored.
func (a *Adapter) Load(ctx context.Context, key string, dst any) bool {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		a.log.Error().Str("key", key).Msg("load: destination must be a non-nil pointer")
		return false
	}

	raw, err := a.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			a.log.Error().Err(err).Str("key", key).Msg("failed to load saved data")
		}
		return false
	}

	tmp := reflect.New(rv.Elem().Type())
	if err := json.Unmarshal(raw, tmp.Interface()); err != nil {
		a.log.Error().Err(err).Str("key", key).Msg("saved data is corrupt, ignoring it")
		return false
	}
	rv.Elem().Set(tmp.Elem())
	return true
}

// Save encodes value and writes it under key.
func (a *Adapter) Save(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		a.log.Error().Err(err).Str("key", key).Msg("failed to encode data for saving")
		return
	}
	if a.maxValueBytes > 0 && len(raw) > a.maxValueBytes {
		a.log.Error().
			Err(fmt.Errorf("%w: %d bytes (limit %d)", ErrQuota, len(raw), a.maxValueBytes)).
			Str("key", key).
			Msg("failed to save data")
		return
	}
	if err := a.backend.Put(ctx, key, raw); err != nil {
		a.log.Error().Err(err).Str("key", key).Msg("failed to save data")
	}
}

// Clear removes key.
func (a *Adapter) Clear(ctx context.Context, key string) {
	if err := a.backend.Delete(ctx, key); err != nil && !errors.Is(err, ErrNotFound) {
		a.log.Error().Err(err).Str("key", key).Msg("failed to clear data")
	}
}

// LoadString returns the string saved under key, or "".
func (a *Adapter) LoadString(ctx context.Context, key string) string {
	var s string
	a.Load(ctx, key, &s)
	return s
}

func (a *Adapter) SaveString(ctx context.Context, key, value string) {
	a.Save(ctx, key, value)
}
