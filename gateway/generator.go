// gateway/generator.go
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ViniZap4/saga-studio/domain"
)

// Kind names a media kind the gateway can produce.
type Kind string

const (
	KindText      Kind = "text"
	KindImage     Kind = "image"
	KindCharacter Kind = "character"
	KindVideo     Kind = "video"
	KindAudio     Kind = "audio"
	KindTransform Kind = "transform"
)

// Kinds lists every kind in a stable order.
var Kinds = []Kind{KindText, KindImage, KindCharacter, KindVideo, KindAudio, KindTransform}

// ErrUnknownKind is returned for kinds outside Kinds.
var ErrUnknownKind = errors.New("unknown generation kind")

// Request carries the inputs of every kind; each generator reads the fields
// it needs.
type Request struct {
	Prompt        string                     `json:"prompt"`
	NarrativeType string                     `json:"narrative_type,omitempty"`
	Duration      domain.SoundDuration       `json:"duration,omitempty"`
	ImageDataURI  string                     `json:"image,omitempty"`
	Settings      domain.TransformerSettings `json:"settings"`
	OnVideoStatus func(VideoStatus)          `json:"-"`
}

// Result is a tagged variant: Kind says which field holds the output.
type Result struct {
	Kind      Kind              `json:"kind"`
	Text      string            `json:"text,omitempty"`
	DataURI   string            `json:"data_uri,omitempty"`
	Character *domain.Character `json:"character,omitempty"`
	Audio     string            `json:"audio,omitempty"`
	Video     *VideoResult      `json:"-"`
}

// Generator produces one media kind.
type Generator interface {
	Kind() Kind
	Generate(ctx context.Context, key string, req Request) (Result, error)
}

type generatorFunc struct {
	kind Kind
	fn   func(ctx context.Context, key string, req Request) (Result, error)
}

func (g generatorFunc) Kind() Kind { return g.kind }

func (g generatorFunc) Generate(ctx context.Context, key string, req Request) (Result, error) {
	return g.fn(ctx, key, req)
}

// Generator returns the generator for kind.
func (c *Client) Generator(kind Kind) (Generator, error) {
	var fn func(context.Context, string, Request) (Result, error)
	switch kind {
	case KindText:
		fn = func(ctx context.Context, key string, req Request) (Result, error) {
			prompt := req.Prompt
			if req.NarrativeType != "" {
				prompt = narrativePrompt(req.Prompt, req.NarrativeType)
			}
			text, err := c.GenerateText(ctx, key, prompt)
			return Result{Kind: KindText, Text: text}, err
		}
	case KindImage:
		fn = func(ctx context.Context, key string, req Request) (Result, error) {
			uri, err := c.GenerateImage(ctx, key, req.Prompt)
			if err == nil && uri == "" {
				err = fmt.Errorf("generate image: %w", ErrEmptyResult)
			}
			return Result{Kind: KindImage, DataURI: uri}, err
		}
	case KindCharacter:
		fn = func(ctx context.Context, key string, req Request) (Result, error) {
			ch, err := c.GenerateCharacter(ctx, key, req.Prompt)
			return Result{Kind: KindCharacter, Character: ch}, err
		}
	case KindVideo:
		fn = func(ctx context.Context, key string, req Request) (Result, error) {
			if strings.TrimSpace(key) == "" {
				return Result{Kind: KindVideo}, ErrMissingCredential
			}
			v, err := c.Video(ctx, key, req.Prompt, req.ImageDataURI, req.OnVideoStatus)
			if err != nil {
				return Result{Kind: KindVideo}, err
			}
			return Result{Kind: KindVideo, Video: &v}, nil
		}
	case KindAudio:
		fn = func(ctx context.Context, key string, req Request) (Result, error) {
			audio, err := c.Speak(ctx, key, req.Prompt, req.Duration)
			return Result{Kind: KindAudio, Audio: audio}, err
		}
	case KindTransform:
		fn = func(ctx context.Context, key string, req Request) (Result, error) {
			uri, err := c.TransformImage(ctx, key, req.ImageDataURI, req.Settings)
			return Result{Kind: KindTransform, DataURI: uri}, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return generatorFunc{kind: kind, fn: fn}, nil
}
