// gateway/wire.go
package gateway

import (
	"encoding/base64"
	"fmt"
	"strings"
)

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*schema `json:"properties,omitempty"`
	Items       *schema            `json:"items,omitempty"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig struct {
		VoiceName string `json:"voiceName"`
	} `json:"prebuiltVoiceConfig"`
}

type speechConfig struct {
	VoiceConfig voiceConfig `json:"voiceConfig"`
}

type generationConfig struct {
	ResponseMimeType   string        `json:"responseMimeType,omitempty"`
	ResponseSchema     *schema       `json:"responseSchema,omitempty"`
	ResponseModalities []string      `json:"responseModalities,omitempty"`
	SpeechConfig       *speechConfig `json:"speechConfig,omitempty"`
}

type generateContentRequest struct {
	Contents          []content         `json:"contents"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// text joins the text parts of the first candidate.
func (r generateContentResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

// inline returns the first inline payload of any candidate.
func (r generateContentResponse) inline() *inlineData {
	for _, cand := range r.Candidates {
		for _, p := range cand.Content.Parts {
			if p.InlineData != nil && p.InlineData.Data != "" {
				return p.InlineData
			}
		}
	}
	return nil
}

func (r generateContentResponse) blockReason() string {
	if r.PromptFeedback != nil && r.PromptFeedback.BlockReason != "" {
		return r.PromptFeedback.BlockReason
	}
	if len(r.Candidates) > 0 {
		return r.Candidates[0].FinishReason
	}
	return ""
}

func userText(text string) []content {
	return []content{{Role: "user", Parts: []part{{Text: text}}}}
}

func systemText(text string) *content {
	return &content{Parts: []part{{Text: text}}}
}

// DataURI builds a base64 data URI.
func DataURI(mimeType, b64 string) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, b64)
}

// ParseDataURI splits a base64 data URI into its MIME type and payload. A
// bare base64 string is accepted with an empty MIME type.
func ParseDataURI(uri string) (mimeType, b64 string, err error) {
	uri = strings.TrimSpace(uri)
	if !strings.HasPrefix(uri, "data:") {
		if _, err := base64.StdEncoding.DecodeString(uri); err != nil {
			return "", "", fmt.Errorf("not a data uri: %w", err)
		}
		return "", uri, nil
	}
	header, payload, ok := strings.Cut(uri, ",")
	if !ok {
		return "", "", fmt.Errorf("data uri without payload")
	}
	header = strings.TrimPrefix(header, "data:")
	if !strings.HasSuffix(header, ";base64") {
		return "", "", fmt.Errorf("data uri is not base64 encoded")
	}
	return strings.TrimSuffix(header, ";base64"), payload, nil
}
