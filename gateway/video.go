// gateway/video.go
package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Video stages reported through the status callback.
const (
	StageSubmitted   = "submitted"
	StagePolling     = "polling"
	StageDownloading = "downloading"
	StageDone        = "done"
	StageFailed      = "failed"
)

// VideoStatus is one progress report of a video generation.
type VideoStatus struct {
	Stage    string `json:"stage"`
	Message  string `json:"message"`
	Progress int    `json:"progress"` // -1 while the service reports none
}

// VideoResult is a finished clip.
type VideoResult struct {
	URI      string
	Data     []byte
	MimeType string
}

type videoInstance struct {
	Prompt string      `json:"prompt"`
	Image  *videoImage `json:"image,omitempty"`
}

type videoImage struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MimeType           string `json:"mimeType"`
}

type videoParameters struct {
	NumberOfVideos int    `json:"sampleCount"`
	Resolution     string `json:"resolution"`
	AspectRatio    string `json:"aspectRatio"`
}

type predictVideoRequest struct {
	Instances  []videoInstance `json:"instances"`
	Parameters videoParameters `json:"parameters"`
}

type videoSample struct {
	Video struct {
		URI string `json:"uri"`
	} `json:"video"`
}

type operation struct {
	Name     string `json:"name"`
	Done     bool   `json:"done"`
	Metadata struct {
		ProgressPercentage *float64 `json:"progressPercentage"`
	} `json:"metadata"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
	Response struct {
		GenerateVideoResponse struct {
			GeneratedSamples []videoSample `json:"generatedSamples"`
		} `json:"generateVideoResponse"`
		GeneratedVideos []videoSample `json:"generatedVideos"`
	} `json:"response"`
}

func (op operation) videoURI() string {
	if s := op.Response.GenerateVideoResponse.GeneratedSamples; len(s) > 0 && s[0].Video.URI != "" {
		return s[0].Video.URI
	}
	if s := op.Response.GeneratedVideos; len(s) > 0 {
		return s[0].Video.URI
	}
	return ""
}

func (op operation) progress() int {
	if op.Metadata.ProgressPercentage == nil {
		return -1
	}
	return int(*op.Metadata.ProgressPercentage + 0.5)
}

var errNoDownloadLink = errors.New("video download link not found")

// Video runs the long-running video generation: submit, poll every
// PollInterval until done, then download the clip. referenceImage is an
// optional data URI used as the first frame. onStatus may be nil.
//
// Errors wrap ErrQuotaExceeded or ErrAPIKeyNotFound when the failure text
// identifies them. Cancelling ctx stops the poll loop.
func (c *Client) Video(ctx context.Context, key, prompt, referenceImage string, onStatus func(VideoStatus)) (VideoResult, error) {
	report := func(stage, msg string, progress int) {
		if onStatus != nil {
			onStatus(VideoStatus{Stage: stage, Message: msg, Progress: progress})
		}
	}

	key = strings.TrimSpace(key)
	if key == "" {
		report(StageFailed, "Erro: A chave de API pode ser inválida. Tente selecionar outra.", -1)
		return VideoResult{}, ErrAPIKeyNotFound
	}

	result, err := c.runVideo(ctx, key, prompt, referenceImage, report)
	if err == nil {
		report(StageDone, "Geração concluída!", 100)
		return result, nil
	}
	if ctx.Err() != nil {
		report(StageFailed, "Geração de vídeo cancelada.", -1)
		return VideoResult{}, err
	}

	c.log.Error().Err(err).Msg("error generating video segment")
	err = tagVideoError(err)
	switch {
	case errors.Is(err, ErrQuotaExceeded):
		report(StageFailed, "Erro: Cota de uso da API excedida. Verifique seu plano e faturamento.", -1)
	case errors.Is(err, ErrAPIKeyNotFound):
		report(StageFailed, "Erro: A chave de API pode ser inválida. Tente selecionar outra.", -1)
	default:
		report(StageFailed, "Falha ao gerar vídeo. Verifique o console para detalhes.", -1)
	}
	return VideoResult{}, err
}

func (c *Client) runVideo(ctx context.Context, key, prompt, referenceImage string, report func(string, string, int)) (VideoResult, error) {
	report(StageSubmitted, "Iniciando geração do vídeo...", -1)

	instance := videoInstance{Prompt: videoPrompt(prompt)}
	if strings.TrimSpace(referenceImage) != "" {
		mimeType, data, err := ParseDataURI(referenceImage)
		if err != nil {
			return VideoResult{}, fmt.Errorf("reference image: %w", err)
		}
		instance.Image = &videoImage{BytesBase64Encoded: data, MimeType: firstNonEmpty(mimeType, "image/jpeg")}
	}
	req := predictVideoRequest{
		Instances:  []videoInstance{instance},
		Parameters: videoParameters{NumberOfVideos: 1, Resolution: "720p", AspectRatio: "16:9"},
	}

	var op operation
	if err := c.postJSON(ctx, key, c.modelURL(c.cfg.VideoModel, "predictLongRunning"), req, &op, "submit video"); err != nil {
		return VideoResult{}, err
	}
	if op.Name == "" && !op.Done {
		return VideoResult{}, errors.New("submit video: operation without name")
	}

	report(StagePolling, "Processando no servidor... Isso pode levar alguns minutos.", -1)
	for !op.Done {
		if err := c.sleep(ctx, c.cfg.PollInterval); err != nil {
			return VideoResult{}, err
		}
		var next operation
		if err := c.getJSON(ctx, key, c.cfg.BaseURL+"/"+strings.TrimLeft(op.Name, "/"), &next, "poll video"); err != nil {
			return VideoResult{}, err
		}
		if next.Name == "" {
			next.Name = op.Name
		}
		op = next
		progress := op.progress()
		label := "..."
		if progress >= 0 {
			label = fmt.Sprint(progress)
		}
		report(StagePolling, fmt.Sprintf("Progresso: %s%%", label), progress)
	}
	if op.Error != nil {
		return VideoResult{}, fmt.Errorf("video operation failed: %d %s: %s", op.Error.Code, op.Error.Status, op.Error.Message)
	}

	report(StageDownloading, "Download do vídeo...", -1)
	uri := op.videoURI()
	if uri == "" {
		return VideoResult{}, errNoDownloadLink
	}
	data, mimeType, err := c.download(ctx, key, uri)
	if err != nil {
		return VideoResult{}, err
	}
	return VideoResult{URI: uri, Data: data, MimeType: mimeType}, nil
}

// download fetches the signed clip URI. The key travels as a query
// parameter because the link is served outside the API host.
func (c *Client) download(ctx context.Context, key, uri string) ([]byte, string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, "", fmt.Errorf("download video: %w", err)
	}
	q := u.Query()
	q.Set("key", key)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("download video: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download video: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("download video: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, "", fmt.Errorf("download video: %s: %s", resp.Status, strings.TrimSpace(string(data)))
	}
	return data, firstNonEmpty(resp.Header.Get("Content-Type"), "video/mp4"), nil
}
