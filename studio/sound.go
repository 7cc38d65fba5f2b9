// studio/sound.go
package studio

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/ViniZap4/saga-studio/audio"
	"github.com/ViniZap4/saga-studio/domain"
	"github.com/ViniZap4/saga-studio/events"
	"github.com/ViniZap4/saga-studio/store"
)

// Durations lists the narration lengths the sound module offers.
var Durations = []domain.SoundDuration{
	domain.Duration15s,
	domain.Duration30s,
	domain.Duration1Min,
	domain.Duration2Min,
	domain.Duration2MinPlus,
}

// Sound keeps narrated clips, newest first.
type Sound struct {
	deps
	gate
	mu   sync.RWMutex
	list []domain.GeneratedSound
}

func newSound(ctx context.Context, d deps) *Sound {
	s := &Sound{deps: d, list: []domain.GeneratedSound{}}
	s.store.Load(ctx, store.KeySoundClips, &s.list)
	return s
}

func (s *Sound) List() []domain.GeneratedSound {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.list)
}

func (s *Sound) Get(id string) (domain.GeneratedSound, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, clip := range s.list {
		if clip.ID == id {
			return clip, nil
		}
	}
	return domain.GeneratedSound{}, fmt.Errorf("sound %s: %w", id, ErrNotFound)
}

func (s *Sound) Generate(ctx context.Context, prompt string, duration domain.SoundDuration) (domain.GeneratedSound, error) {
	if strings.TrimSpace(prompt) == "" {
		return domain.GeneratedSound{}, fmt.Errorf("%w: prompt is required", ErrInvalidInput)
	}
	if duration == "" {
		duration = domain.Duration30s
	}
	if !slices.Contains(Durations, duration) {
		return domain.GeneratedSound{}, fmt.Errorf("%w: duration %q", ErrInvalidInput, duration)
	}
	key := s.creds.key(ctx, domain.ModuleSound)
	if key == "" {
		return domain.GeneratedSound{}, ErrMissingCredential
	}
	if err := s.enter(); err != nil {
		return domain.GeneratedSound{}, err
	}
	defer s.leave()

	audioBase64 := s.gw.Sound(ctx, key, prompt, duration)
	if audioBase64 == "" {
		return domain.GeneratedSound{}, fmt.Errorf("sound: %w", ErrGenerationFailed)
	}

	clip := domain.GeneratedSound{
		ID:          s.newID(),
		Prompt:      prompt,
		Duration:    duration,
		AudioBase64: audioBase64,
	}
	s.mu.Lock()
	s.list = prepend(s.list, clip)
	snapshot := slices.Clone(s.list)
	s.mu.Unlock()

	s.store.Save(ctx, store.KeySoundClips, snapshot)
	s.publish(events.RecordCreated, domain.ModuleSound, clip.ID, clip)
	return clip, nil
}

// WAV wraps the stored PCM of clip id in a playable container.
func (s *Sound) WAV(id string) ([]byte, error) {
	clip, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	wav, err := audio.WAVFromBase64(clip.AudioBase64)
	if err != nil {
		return nil, fmt.Errorf("sound %s: %w", id, err)
	}
	return wav, nil
}
