package studio

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ViniZap4/saga-studio/domain"
	"github.com/ViniZap4/saga-studio/events"
	"github.com/ViniZap4/saga-studio/gateway"
	"github.com/ViniZap4/saga-studio/store"
)

// fakeGateway answers from fields and records the keys it was called with.
type fakeGateway struct {
	mu sync.Mutex

	narrative   string
	art         string
	character   *domain.Character
	sound       string
	transform   string
	video       func(ctx context.Context, onStatus func(gateway.VideoStatus)) (gateway.VideoResult, error)
	prompts     []string
	keys        []string
	artPrompts  []string
	soundLength domain.SoundDuration
}

func (f *fakeGateway) record(key, prompt string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, key)
	f.prompts = append(f.prompts, prompt)
}

func (f *fakeGateway) Narrative(_ context.Context, key, prompt, _ string) string {
	f.record(key, prompt)
	return f.narrative
}

func (f *fakeGateway) Art(_ context.Context, key, prompt string) string {
	f.record(key, prompt)
	f.mu.Lock()
	f.artPrompts = append(f.artPrompts, prompt)
	f.mu.Unlock()
	return f.art
}

func (f *fakeGateway) Character(_ context.Context, key, idea string) *domain.Character {
	f.record(key, idea)
	return f.character
}

func (f *fakeGateway) Video(ctx context.Context, key, prompt, _ string, onStatus func(gateway.VideoStatus)) (gateway.VideoResult, error) {
	f.record(key, prompt)
	return f.video(ctx, onStatus)
}

func (f *fakeGateway) Sound(_ context.Context, key, prompt string, d domain.SoundDuration) string {
	f.record(key, prompt)
	f.mu.Lock()
	f.soundLength = d
	f.mu.Unlock()
	return f.sound
}

func (f *fakeGateway) Transform(_ context.Context, key, image string, _ domain.TransformerSettings) string {
	f.record(key, image)
	return f.transform
}

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []events.Message
}

func (r *recordingNotifier) Broadcast(msg events.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *recordingNotifier) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.msgs))
	for _, m := range r.msgs {
		out = append(out, m.Type)
	}
	return out
}

type fixture struct {
	backend *store.Memory
	adapter *store.Adapter
	gw      *fakeGateway
	notify  *recordingNotifier
	studio  *Studio
	clips   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend := store.NewMemory()
	f := &fixture{
		backend: backend,
		adapter: store.NewAdapter(backend, zerolog.Nop()),
		gw:      &fakeGateway{},
		notify:  &recordingNotifier{},
		clips:   t.TempDir(),
	}
	f.studio = f.open()
	t.Cleanup(f.studio.Close)
	return f
}

// open builds a second studio over the same store, as after a restart.
func (f *fixture) open() *Studio {
	n := 0
	return New(context.Background(), f.adapter, f.gw,
		WithNotifier(f.notify),
		WithClipsDir(f.clips),
		WithClock(func() time.Time { return time.UnixMilli(1700000000000) }),
		WithIDs(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	)
}

func (f *fixture) setKey(t *testing.T, module domain.ModuleKey, key string) {
	t.Helper()
	if err := f.studio.Credentials.Set(context.Background(), module, key); err != nil {
		t.Fatalf("set credential: %v", err)
	}
}
