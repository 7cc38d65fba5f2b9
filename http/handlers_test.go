package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	stdhttp "net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ViniZap4/saga-studio/auth"
	"github.com/ViniZap4/saga-studio/domain"
	"github.com/ViniZap4/saga-studio/events"
	"github.com/ViniZap4/saga-studio/filesystem"
	"github.com/ViniZap4/saga-studio/gateway"
	"github.com/ViniZap4/saga-studio/store"
	"github.com/ViniZap4/saga-studio/studio"
)

const testToken = "segredo"

type stubGateway struct {
	mu        sync.Mutex
	art       string
	narrative string
	character *domain.Character
}

func (g *stubGateway) Narrative(context.Context, string, string, string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.narrative
}

func (g *stubGateway) Art(context.Context, string, string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.art
}

func (g *stubGateway) Character(context.Context, string, string) *domain.Character {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.character
}

func (g *stubGateway) Video(ctx context.Context, _, _, _ string, _ func(gateway.VideoStatus)) (gateway.VideoResult, error) {
	<-ctx.Done()
	return gateway.VideoResult{}, ctx.Err()
}

func (g *stubGateway) Sound(context.Context, string, string, domain.SoundDuration) string {
	return ""
}

func (g *stubGateway) Transform(context.Context, string, string, domain.TransformerSettings) string {
	return gateway.TransformFailedMessage
}

type stubGenerators struct {
	lastKey string
}

func (s *stubGenerators) Generator(kind gateway.Kind) (gateway.Generator, error) {
	if kind != gateway.KindText {
		return nil, gateway.ErrUnknownKind
	}
	return stubGenerator{owner: s}, nil
}

type stubGenerator struct {
	owner *stubGenerators
}

func (stubGenerator) Kind() gateway.Kind { return gateway.KindText }

func (g stubGenerator) Generate(_ context.Context, key string, req gateway.Request) (gateway.Result, error) {
	g.owner.lastKey = key
	return gateway.Result{Kind: gateway.KindText, Text: "eco: " + req.Prompt}, nil
}

type testEnv struct {
	app    *fiber.App
	studio *studio.Studio
	gw     *stubGateway
	gens   *stubGenerators
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := events.NewHub(zerolog.Nop())
	go hub.Run(ctx)

	gw := &stubGateway{}
	adapter := store.NewAdapter(store.NewMemory(), zerolog.Nop())
	st := studio.New(ctx, adapter, gw, studio.WithNotifier(hub), studio.WithClipsDir(t.TempDir()))
	t.Cleanup(func() {
		st.Close()
		cancel()
	})

	gens := &stubGenerators{}
	srv := NewServer(st, gens, hub, auth.New(testToken, ""), zerolog.Nop())
	return &testEnv{app: srv.App(), studio: st, gw: gw, gens: gens}
}

func (e *testEnv) do(t *testing.T, method, target string, body any) (*stdhttp.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(auth.HeaderToken, testToken)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	return e.send(t, req)
}

func (e *testEnv) send(t *testing.T, req *stdhttp.Request) (*stdhttp.Response, []byte) {
	t.Helper()
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

func TestHealthNeedsNoToken(t *testing.T) {
	env := newTestEnv(t)
	resp, _ := env.send(t, httptest.NewRequest(fiber.MethodGet, "/healthz", nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, body := env.send(t, httptest.NewRequest(fiber.MethodGet, "/api/session", nil))
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, string(body), "Unauthorized")
}

func TestSessionSwitch(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, fiber.MethodPut, "/api/session", map[string]string{"module": "sound"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	session := decode[sessionResponse](t, body)
	assert.Equal(t, domain.ModuleSound, session.Active)
	assert.Equal(t, "Produção Sonora", session.Name)

	resp, _ = env.do(t, fiber.MethodPut, "/api/session", map[string]string{"module": "cinema"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCredentialsAreMasked(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, fiber.MethodGet, "/api/credentials/visuals", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.False(t, decode[credentialResponse](t, body).Configured)

	resp, _ = env.do(t, fiber.MethodPut, "/api/credentials/visuals", map[string]string{"key": "AIza-visuals-1234"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	_, body = env.do(t, fiber.MethodGet, "/api/credentials/visuals", nil)
	cred := decode[credentialResponse](t, body)
	assert.True(t, cred.Configured)
	assert.Equal(t, "********1234", cred.Hint)
	assert.NotContains(t, string(body), "AIza")

	resp, _ = env.do(t, fiber.MethodDelete, "/api/credentials/visuals", nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp, _ = env.do(t, fiber.MethodGet, "/api/credentials/nowhere", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGenerateArt(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.do(t, fiber.MethodPost, "/api/visuals", map[string]string{"prompt": "Juliette na chuva"})
	assert.Equal(t, fiber.StatusPreconditionRequired, resp.StatusCode)

	require.NoError(t, env.studio.Credentials.Set(context.Background(), domain.ModuleVisuals, "k"))
	env.gw.art = gateway.ArtFailedMessage
	resp, _ = env.do(t, fiber.MethodPost, "/api/visuals", map[string]string{"prompt": "Juliette na chuva"})
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)

	env.gw.art = "data:image/jpeg;base64,AAAA"
	resp, body := env.do(t, fiber.MethodPost, "/api/visuals", map[string]string{"prompt": "Juliette na chuva"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, "data:image/jpeg;base64,AAAA", decode[domain.GeneratedArt](t, body).ImageURL)

	_, body = env.do(t, fiber.MethodGet, "/api/visuals", nil)
	list := decode[struct {
		Arts []domain.GeneratedArt `json:"arts"`
	}](t, body)
	assert.Len(t, list.Arts, 1)
}

func TestCharacterExport(t *testing.T) {
	env := newTestEnv(t)
	env.gw.character = &domain.Character{Name: "Júlio Ávila", Powers: []string{}, InternalContradictions: []string{}}

	resp, _ := env.do(t, fiber.MethodPost, "/api/characters", nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, body := env.do(t, fiber.MethodGet, "/api/characters/0/export?format=txt", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "julio_avila.txt")
	assert.Contains(t, string(body), "Júlio Ávila")

	resp, _ = env.do(t, fiber.MethodGet, "/api/characters/0/export?format=pdf", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, fiber.MethodGet, "/api/characters/3/export", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestNarrativeFlow(t *testing.T) {
	env := newTestEnv(t)
	env.gw.narrative = "A porta range."

	resp, body := env.do(t, fiber.MethodPost, "/api/narrative", nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	project := decode[domain.NarrativeProject](t, body)

	resp, _ = env.do(t, fiber.MethodPost, "/api/narrative/"+project.ID+"/messages", map[string]string{"text": "continue"})
	assert.Equal(t, fiber.StatusPreconditionRequired, resp.StatusCode)

	require.NoError(t, env.studio.Credentials.Set(context.Background(), domain.ModuleNarrative, "k"))
	resp, body = env.do(t, fiber.MethodPost, "/api/narrative/"+project.ID+"/messages", map[string]string{"text": "continue"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	updated := decode[domain.NarrativeProject](t, body)
	require.Len(t, updated.ChatHistory, 3)
	assert.Equal(t, "A porta range.", updated.ChatHistory[2].Text)

	title := "Sombras"
	resp, body = env.do(t, fiber.MethodPut, "/api/narrative/"+project.ID, studio.ProjectPatch{Title: &title})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Sombras", decode[domain.NarrativeProject](t, body).Title)

	resp, _ = env.do(t, fiber.MethodGet, "/api/narrative/"+project.ID+"/export", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "sombras.txt")

	resp, body = env.do(t, fiber.MethodPost, "/api/narrative/back", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"view":"list"`)

	resp, _ = env.do(t, fiber.MethodPost, "/api/narrative/missing/select", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestVideoJobNeedsSelectedKey(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.do(t, fiber.MethodPost, "/api/video/jobs", map[string]string{"prompt": "travelling"})
	assert.Equal(t, fiber.StatusPreconditionRequired, resp.StatusCode)

	resp, _ = env.do(t, fiber.MethodPost, "/api/video/key", map[string]string{"key": "veo-key"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, body := env.do(t, fiber.MethodPost, "/api/video/jobs", map[string]string{"prompt": "travelling"})
	require.Equal(t, fiber.StatusAccepted, resp.StatusCode)
	job := decode[studio.Job](t, body)

	resp, _ = env.do(t, fiber.MethodPost, "/api/video/jobs", map[string]string{"prompt": "outra"})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, _ = env.do(t, fiber.MethodDelete, "/api/video/jobs/"+job.ID, nil)
	require.Equal(t, fiber.StatusAccepted, resp.StatusCode)
	done, err := env.studio.Video.Wait(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, studio.JobCanceled, done.State)

	resp, _ = env.do(t, fiber.MethodGet, "/api/video/clips/nope/media", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestFilesystemRoutes(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, fiber.MethodPost, "/api/fs", map[string]string{"name": "Roteiros", "kind": "folder"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	folder := decode[domain.FileSystemItem](t, body)

	resp, body = env.do(t, fiber.MethodPost, "/api/fs", map[string]string{"parent_id": folder.ID, "name": "Cena 1", "kind": "note"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	note := decode[domain.FileSystemItem](t, body)

	resp, _ = env.do(t, fiber.MethodPost, "/api/fs", map[string]string{"parent_id": note.ID, "name": "x", "kind": "note"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, fiber.MethodPut, "/api/fs/"+note.ID, map[string]string{"content": "INT. QUARTO - NOITE"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	_, body = env.do(t, fiber.MethodGet, "/api/fs?parent="+folder.ID, nil)
	list := decode[listResponse](t, body)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Cena 1", list.Items[0].Name)

	resp, body = env.do(t, fiber.MethodGet, "/api/fs/"+note.ID+"/export", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "cena_1.md")
	assert.Contains(t, string(body), "INT. QUARTO - NOITE")

	resp, body = env.do(t, fiber.MethodPost, "/api/fs/navigate", map[string]string{"id": folder.ID})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]filesystem.Crumb](t, body), 2)

	_, body = env.do(t, fiber.MethodGet, "/api/fs", nil)
	current := decode[listResponse](t, body)
	assert.Equal(t, folder.ID, current.Parent)

	resp, body = env.do(t, fiber.MethodPost, "/api/fs/breadcrumb", map[string]int{"index": 0})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]filesystem.Crumb](t, body), 1)

	resp, body = env.do(t, fiber.MethodDelete, "/api/fs/"+folder.ID, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	removed := decode[struct {
		Removed []string `json:"removed"`
	}](t, body)
	assert.ElementsMatch(t, []string{folder.ID, note.ID}, removed.Removed)

	resp, _ = env.do(t, fiber.MethodGet, "/api/fs/"+note.ID, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func multipartUpload(t *testing.T, name, contentType string, data []byte) *stdhttp.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(fiber.MethodPost, "/api/fs/upload", &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	req.Header.Set(auth.HeaderToken, testToken)
	return req
}

func TestUpload(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.send(t, multipartUpload(t, "capa.png", "image/png", []byte{0x89, 'P', 'N', 'G'}))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(body))
	item := decode[domain.FileSystemItem](t, body)
	assert.Equal(t, domain.KindImage, item.Kind)
	assert.True(t, strings.HasPrefix(item.Content, "data:image/png;base64,"))

	resp, _ = env.send(t, multipartUpload(t, "grande.png", "image/png", make([]byte, filesystem.MaxUploadBytes+1)))
	assert.Equal(t, fiber.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestGenerateUsesModuleKey(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.do(t, fiber.MethodPost, "/api/generate/text", gateway.Request{Prompt: "oi"})
	assert.Equal(t, fiber.StatusPreconditionRequired, resp.StatusCode)

	require.NoError(t, env.studio.Credentials.Set(context.Background(), domain.ModuleNarrative, "narr-key"))
	resp, body := env.do(t, fiber.MethodPost, "/api/generate/text", gateway.Request{Prompt: "oi"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "eco: oi", decode[gateway.Result](t, body).Text)
	assert.Equal(t, "narr-key", env.gens.lastKey)

	resp, _ = env.do(t, fiber.MethodPost, "/api/generate/hologram", gateway.Request{Prompt: "oi"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestTransformerRoutes(t *testing.T) {
	env := newTestEnv(t)

	_, body := env.do(t, fiber.MethodGet, "/api/transformer/presets", nil)
	assert.Len(t, decode[[]gateway.Preset](t, body), len(gateway.Presets))

	resp, _ := env.do(t, fiber.MethodPut, "/api/transformer", domain.TransformerSettings{StyleStrength: 140})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, fiber.MethodPost, "/api/transformer", map[string]string{"image": "not-an-image"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{studio.ErrBusy, fiber.StatusConflict},
		{fmt.Errorf("sound x: %w", studio.ErrNotFound), fiber.StatusNotFound},
		{filesystem.ErrNotFound, fiber.StatusNotFound},
		{filesystem.ErrTooLarge, fiber.StatusRequestEntityTooLarge},
		{studio.ErrKeyNotSelected, fiber.StatusPreconditionRequired},
		{gateway.ErrQuotaExceeded, fiber.StatusTooManyRequests},
		{studio.ErrInvalidInput, fiber.StatusBadRequest},
		{filesystem.ErrInvalidName, fiber.StatusBadRequest},
		{studio.ErrGenerationFailed, fiber.StatusBadGateway},
		{fiber.ErrUnauthorized, fiber.StatusUnauthorized},
		{errors.New("boom"), fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err), tc.err.Error())
	}
}

func TestStreamEvents(t *testing.T) {
	msgs := make(chan events.Message, 2)
	msgs <- events.Message{Type: events.ItemCreated, Module: "organization", ID: "n1"}
	close(msgs)

	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	require.NoError(t, streamEvents(w, msgs, time.Hour))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, ": connected\n\n"))
	assert.Contains(t, out, "event: item_created\n")
	assert.Contains(t, out, `"id":"n1"`)
}
