// studio/studio.go
package studio

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ViniZap4/saga-studio/domain"
	"github.com/ViniZap4/saga-studio/events"
	"github.com/ViniZap4/saga-studio/gateway"
	"github.com/ViniZap4/saga-studio/store"
)

var (
	ErrBusy              = errors.New("a generation is already running for this control")
	ErrNotFound          = errors.New("record not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrMissingCredential = gateway.ErrMissingCredential
	ErrKeyNotSelected    = errors.New("no video API key selected")
	ErrGenerationFailed  = errors.New("generation failed")
	ErrUnknownModule     = errors.New("unknown module")
)

// Gateway is the generation surface the studio drives. *gateway.Client
// implements it.
type Gateway interface {
	Narrative(ctx context.Context, key, prompt, narrativeType string) string
	Art(ctx context.Context, key, prompt string) string
	Character(ctx context.Context, key, idea string) *domain.Character
	Video(ctx context.Context, key, prompt, referenceImage string, onStatus func(gateway.VideoStatus)) (gateway.VideoResult, error)
	Sound(ctx context.Context, key, prompt string, duration domain.SoundDuration) string
	Transform(ctx context.Context, key, imageDataURI string, settings domain.TransformerSettings) string
}

// Notifier receives change events. *events.Hub implements it.
type Notifier interface {
	Broadcast(msg events.Message)
}

type nopNotifier struct{}

func (nopNotifier) Broadcast(events.Message) {}

// deps is what every module shares.
type deps struct {
	store  *store.Adapter
	gw     Gateway
	log    zerolog.Logger
	notify Notifier
	creds  *Credentials
	newID  func() string
	now    func() time.Time
}

func (d deps) publish(msgType string, module domain.ModuleKey, id string, payload any) {
	d.notify.Broadcast(events.Message{Type: msgType, Module: string(module), ID: id, Payload: payload})
}

// Studio holds the state of every module for the single user.
type Studio struct {
	Session      *Session
	Credentials  *Credentials
	Characters   *Characters
	Visuals      *Visuals
	Narrative    *Narrative
	Sound        *Sound
	Video        *Video
	Transformer  *Transformer
	Organization *Organization
}

type options struct {
	log         zerolog.Logger
	notify      Notifier
	clipsDir    string
	newID       func() string
	now         func() time.Time
	keySelector KeySelector
}

type Option func(*options)

func WithLogger(log zerolog.Logger) Option {
	return func(o *options) { o.log = log }
}

func WithNotifier(n Notifier) Option {
	return func(o *options) {
		if n != nil {
			o.notify = n
		}
	}
}

// WithClipsDir sets where downloaded video clips are written.
func WithClipsDir(dir string) Option {
	return func(o *options) { o.clipsDir = dir }
}

func WithIDs(newID func() string) Option {
	return func(o *options) { o.newID = newID }
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithKeySelector replaces the stored-credential video key selection.
func WithKeySelector(ks KeySelector) Option {
	return func(o *options) { o.keySelector = ks }
}

// New loads every module's saved state from adapter.
func New(ctx context.Context, adapter *store.Adapter, gw Gateway, opts ...Option) *Studio {
	o := options{
		log:      zerolog.Nop(),
		notify:   nopNotifier{},
		clipsDir: "clips",
		newID:    func() string { return uuid.Must(uuid.NewV7()).String() },
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	creds := NewCredentials(adapter)
	d := deps{
		store:  adapter,
		gw:     gw,
		log:    o.log.With().Str("component", "studio").Logger(),
		notify: o.notify,
		creds:  creds,
		newID:  o.newID,
		now:    o.now,
	}
	if o.keySelector == nil {
		o.keySelector = &StoredKeySelector{creds: creds}
	}

	return &Studio{
		Session:      NewSession(),
		Credentials:  creds,
		Characters:   newCharacters(ctx, d),
		Visuals:      newVisuals(ctx, d),
		Narrative:    newNarrative(ctx, d),
		Sound:        newSound(ctx, d),
		Video:        newVideo(ctx, d, o.keySelector, o.clipsDir),
		Transformer:  newTransformer(d),
		Organization: newOrganization(ctx, d),
	}
}

// Close cancels running video jobs and waits for them to stop.
func (s *Studio) Close() {
	s.Video.cancelAll()
}

// Overview counts the records of each module for the dashboard.
type Overview struct {
	Active     domain.ModuleKey `json:"active"`
	Characters int              `json:"characters"`
	Visuals    int              `json:"visuals"`
	Projects   int              `json:"projects"`
	Sounds     int              `json:"sounds"`
	Clips      int              `json:"clips"`
	Items      int              `json:"items"`
}

func (s *Studio) Overview() Overview {
	return Overview{
		Active:     s.Session.Active(),
		Characters: len(s.Characters.List()),
		Visuals:    len(s.Visuals.List()),
		Projects:   len(s.Narrative.List()),
		Sounds:     len(s.Sound.List()),
		Clips:      len(s.Video.Clips()),
		Items:      len(s.Organization.Items()),
	}
}

// gate rejects a second generation while one is in flight.
type gate struct {
	busy atomic.Bool
}

func (g *gate) enter() error {
	if !g.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	return nil
}

func (g *gate) leave() { g.busy.Store(false) }

func (g *gate) Busy() bool { return g.busy.Load() }

func prepend[T any](list []T, v T) []T {
	out := make([]T, 0, len(list)+1)
	out = append(out, v)
	return append(out, list...)
}
