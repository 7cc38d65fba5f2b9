// domain/records.go
package domain

// Character is a structured character sheet returned by the generator.
type Character struct {
	Name                   string   `json:"name" yaml:"name"`
	Version                string   `json:"version" yaml:"version"`
	Appearance             string   `json:"appearance" yaml:"appearance"`
	Personality            string   `json:"personality" yaml:"personality"`
	Psychology             string   `json:"psychology" yaml:"psychology"`
	Powers                 []string `json:"powers" yaml:"powers"`
	InternalContradictions []string `json:"internalContradictions" yaml:"internal_contradictions"`
	NarrativeVoice         string   `json:"narrativeVoice" yaml:"narrative_voice"`
}

type GeneratedArt struct {
	Prompt   string `json:"prompt"`
	ImageURL string `json:"imageUrl"`
}

type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

type ChatMessage struct {
	Sender            Sender   `json:"sender"`
	Text              string   `json:"text"`
	Sketches          []string `json:"sketches,omitempty"`
	IsLoadingSketches bool     `json:"isLoadingSketches,omitempty"`
}

type ProjectType string

const (
	ProjectHQ      ProjectType = "HQ"
	ProjectRoteiro ProjectType = "Roteiro"
	ProjectConto   ProjectType = "Conto"
)

// NarrativeProject owns its chat history.
type NarrativeProject struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Type        ProjectType   `json:"type"`
	Description string        `json:"description"`
	ChatHistory []ChatMessage `json:"chatHistory"`
}

// SoundDuration is one of the fixed narration length buckets.
type SoundDuration string

const (
	Duration15s      SoundDuration = "15s"
	Duration30s      SoundDuration = "30s"
	Duration1Min     SoundDuration = "1min"
	Duration2Min     SoundDuration = "2min"
	Duration2MinPlus SoundDuration = "2min+"
)

type GeneratedSound struct {
	ID          string        `json:"id"`
	Prompt      string        `json:"prompt"`
	Duration    SoundDuration `json:"duration"`
	AudioBase64 string        `json:"audioBase64"`
}

// TimelineClip is a generated video segment on the editing timeline.
type TimelineClip struct {
	ID        string `json:"id"`
	Src       string `json:"src"`
	Prompt    string `json:"prompt"`
	Thumbnail string `json:"thumbnail"`
}

type DetailLevel string

const (
	DetailLow     DetailLevel = "low"
	DetailMedium  DetailLevel = "medium"
	DetailHigh    DetailLevel = "high"
	DetailExtreme DetailLevel = "extreme"
)

// TransformerSettings drive the image-to-image transformer. StyleStrength and
// Denoise are percentages.
type TransformerSettings struct {
	Preset         string      `json:"preset"`
	StyleStrength  int         `json:"styleStrength"`
	DetailLevel    DetailLevel `json:"detailLevel"`
	Denoise        int         `json:"denoise"`
	FaceAware      bool        `json:"faceAware"`
	PromptModifier string      `json:"promptModifier"`
}
