// http/handlers.go
package http

import (
	"encoding/base64"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ViniZap4/saga-studio/domain"
	"github.com/ViniZap4/saga-studio/export"
	"github.com/ViniZap4/saga-studio/filesystem"
	"github.com/ViniZap4/saga-studio/gateway"
	"github.com/ViniZap4/saga-studio/studio"
)

func (s *Server) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Session

type sessionResponse struct {
	Active   domain.ModuleKey `json:"active"`
	Name     string           `json:"name"`
	Overview studio.Overview  `json:"overview"`
}

func (s *Server) sessionResponse() sessionResponse {
	active := s.studio.Session.Active()
	return sessionResponse{Active: active, Name: active.DisplayName(), Overview: s.studio.Overview()}
}

func (s *Server) HandleGetSession(c *fiber.Ctx) error {
	return c.JSON(s.sessionResponse())
}

func (s *Server) HandleSwitchModule(c *fiber.Ctx) error {
	var req struct {
		Module domain.ModuleKey `json:"module"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := s.studio.Session.Switch(req.Module); err != nil {
		return err
	}
	return c.JSON(s.sessionResponse())
}

// Credentials

type credentialResponse struct {
	Module     domain.ModuleKey `json:"module"`
	Configured bool             `json:"configured"`
	Hint       string           `json:"hint,omitempty"`
}

func (s *Server) HandleGetCredential(c *fiber.Ctx) error {
	module := domain.ModuleKey(c.Params("module"))
	key, err := s.studio.Credentials.Get(c.UserContext(), module)
	if err != nil {
		return err
	}
	return c.JSON(credentialResponse{Module: module, Configured: key != "", Hint: maskKey(key)})
}

func (s *Server) HandleSetCredential(c *fiber.Ctx) error {
	var req struct {
		Key string `json:"key"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}
	module := domain.ModuleKey(c.Params("module"))
	key := strings.TrimSpace(req.Key)
	if err := s.studio.Credentials.Set(c.UserContext(), module, key); err != nil {
		return err
	}
	return c.JSON(credentialResponse{Module: module, Configured: true, Hint: maskKey(key)})
}

func (s *Server) HandleClearCredential(c *fiber.Ctx) error {
	if err := s.studio.Credentials.Clear(c.UserContext(), domain.ModuleKey(c.Params("module"))); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// maskKey keeps the last four characters so the user can tell keys apart.
func maskKey(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", 8) + key[len(key)-4:]
}

// Characters

func (s *Server) HandleCharacters(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"characters": s.studio.Characters.List(),
		"busy":       s.studio.Characters.Busy(),
	})
}

func (s *Server) HandleGenerateCharacter(c *fiber.Ctx) error {
	var req struct {
		Idea string `json:"idea"`
	}
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return err
		}
	}
	ch, err := s.studio.Characters.Generate(c.UserContext(), req.Idea)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(ch)
}

func (s *Server) HandleExportCharacter(c *fiber.Ctx) error {
	index, err := c.ParamsInt("index")
	if err != nil {
		return badRequest("Character index must be a number")
	}
	ch, err := s.studio.Characters.Get(index)
	if err != nil {
		return err
	}
	body, contentType, filename, err := export.Character(ch, export.Format(c.Query("format", string(export.FormatJSON))))
	if err != nil {
		return badRequest(err.Error())
	}
	c.Attachment(filename)
	c.Set(fiber.HeaderContentType, contentType)
	return c.Send(body)
}

// Visual arts

func (s *Server) HandleVisuals(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"arts": s.studio.Visuals.List(),
		"busy": s.studio.Visuals.Busy(),
	})
}

func (s *Server) HandleGenerateArt(c *fiber.Ctx) error {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}
	art, err := s.studio.Visuals.Generate(c.UserContext(), req.Prompt)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(art)
}

// Narrative

func (s *Server) HandleNarrative(c *fiber.Ctx) error {
	view, activeID := s.studio.Narrative.View()
	return c.JSON(fiber.Map{
		"view":     view,
		"activeId": activeID,
		"projects": s.studio.Narrative.List(),
		"busy":     s.studio.Narrative.Busy(),
	})
}

func (s *Server) HandleCreateProject(c *fiber.Ctx) error {
	p := s.studio.Narrative.CreateProject(c.UserContext())
	return c.Status(fiber.StatusCreated).JSON(p)
}

func (s *Server) HandleNarrativeBack(c *fiber.Ctx) error {
	s.studio.Narrative.Back()
	return s.HandleNarrative(c)
}

func (s *Server) HandleGetProject(c *fiber.Ctx) error {
	p, err := s.studio.Narrative.Get(c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(p)
}

func (s *Server) HandleUpdateProject(c *fiber.Ctx) error {
	var patch studio.ProjectPatch
	if err := parseBody(c, &patch); err != nil {
		return err
	}
	p, err := s.studio.Narrative.UpdateProject(c.UserContext(), c.Params("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(p)
}

func (s *Server) HandleSelectProject(c *fiber.Ctx) error {
	p, err := s.studio.Narrative.Select(c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(p)
}

func (s *Server) HandleSendMessage(c *fiber.Ctx) error {
	var req struct {
		Text string `json:"text"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}
	p, err := s.studio.Narrative.SendMessage(c.UserContext(), c.Params("id"), req.Text)
	if err != nil {
		return err
	}
	return c.JSON(p)
}

func (s *Server) HandleExportTranscript(c *fiber.Ctx) error {
	p, err := s.studio.Narrative.Get(c.Params("id"))
	if err != nil {
		return err
	}
	c.Attachment(export.TranscriptFilename(p))
	c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
	return c.Send(export.Transcript(p))
}

// Sound

func (s *Server) HandleSounds(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"sounds":    s.studio.Sound.List(),
		"durations": studio.Durations,
		"busy":      s.studio.Sound.Busy(),
	})
}

func (s *Server) HandleGenerateSound(c *fiber.Ctx) error {
	var req struct {
		Prompt   string               `json:"prompt"`
		Duration domain.SoundDuration `json:"duration"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}
	clip, err := s.studio.Sound.Generate(c.UserContext(), req.Prompt, req.Duration)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(clip)
}

func (s *Server) HandleSoundWAV(c *fiber.Ctx) error {
	wav, err := s.studio.Sound.WAV(c.Params("id"))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "audio/wav")
	return c.Send(wav)
}

// Video

type clipsResponse struct {
	Clips     []domain.TimelineClip `json:"clips"`
	Active    *domain.TimelineClip  `json:"active"`
	Reference string                `json:"reference,omitempty"`
	HasKey    bool                  `json:"hasKey"`
	Busy      bool                  `json:"busy"`
}

func (s *Server) clipsResponse(c *fiber.Ctx) clipsResponse {
	v := s.studio.Video
	resp := clipsResponse{
		Clips:     v.Clips(),
		Reference: v.Reference(),
		HasKey:    v.HasSelectedKey(c.UserContext()),
		Busy:      v.Busy(),
	}
	if active, ok := v.Active(); ok {
		resp.Active = &active
	}
	return resp
}

func (s *Server) HandleClips(c *fiber.Ctx) error {
	return c.JSON(s.clipsResponse(c))
}

func (s *Server) HandleReorderClips(c *fiber.Ctx) error {
	var req struct {
		From int `json:"from"`
		To   int `json:"to"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if _, err := s.studio.Video.Reorder(c.UserContext(), req.From, req.To); err != nil {
		return err
	}
	return c.JSON(s.clipsResponse(c))
}

func (s *Server) HandleRemoveClip(c *fiber.Ctx) error {
	if err := s.studio.Video.Remove(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) HandleClipMedia(c *fiber.Ctx) error {
	path, err := s.studio.Video.MediaPath(c.Params("id"))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "video/mp4")
	return c.SendFile(path)
}

func (s *Server) HandleSetActiveClip(c *fiber.Ctx) error {
	var req struct {
		ID string `json:"id"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := s.studio.Video.SetActive(req.ID); err != nil {
		return err
	}
	return c.JSON(s.clipsResponse(c))
}

// HandleSetReference takes either an uploaded image or the thumbnail of an
// existing clip.
func (s *Server) HandleSetReference(c *fiber.Ctx) error {
	var req struct {
		Image  string `json:"image"`
		ClipID string `json:"clipId"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}
	var err error
	if req.ClipID != "" {
		err = s.studio.Video.UseClipAsReference(req.ClipID)
	} else {
		err = s.studio.Video.SetReference(req.Image)
	}
	if err != nil {
		return err
	}
	return c.JSON(s.clipsResponse(c))
}

func (s *Server) HandleSelectVideoKey(c *fiber.Ctx) error {
	var req struct {
		Key string `json:"key"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := s.studio.Video.SelectKey(c.UserContext(), strings.TrimSpace(req.Key)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"hasKey": true})
}

func (s *Server) HandleJobs(c *fiber.Ctx) error {
	return c.JSON(s.studio.Video.Jobs())
}

func (s *Server) HandleStartVideo(c *fiber.Ctx) error {
	var req struct {
		Prompt         string `json:"prompt"`
		ReferenceImage string `json:"reference_image"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}
	job, err := s.studio.Video.Start(c.UserContext(), req.Prompt, req.ReferenceImage)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(job)
}

func (s *Server) HandleGetJob(c *fiber.Ctx) error {
	job, err := s.studio.Video.Job(c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(job)
}

func (s *Server) HandleCancelJob(c *fiber.Ctx) error {
	if err := s.studio.Video.Cancel(c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusAccepted)
}

// Transformer

func (s *Server) HandleTransformerSettings(c *fiber.Ctx) error {
	return c.JSON(s.studio.Transformer.Settings())
}

func (s *Server) HandleUpdateTransformerSettings(c *fiber.Ctx) error {
	var settings domain.TransformerSettings
	if err := parseBody(c, &settings); err != nil {
		return err
	}
	updated, err := s.studio.Transformer.UpdateSettings(settings)
	if err != nil {
		return err
	}
	return c.JSON(updated)
}

func (s *Server) HandleTransform(c *fiber.Ctx) error {
	var req struct {
		Image    string                      `json:"image"`
		Settings *domain.TransformerSettings `json:"settings"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}
	result, err := s.studio.Transformer.Transform(c.UserContext(), req.Image, req.Settings)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"image": result})
}

func (s *Server) HandlePresets(c *fiber.Ctx) error {
	return c.JSON(gateway.Presets)
}

// Organization

type listResponse struct {
	Parent     string                  `json:"parent"`
	Items      []domain.FileSystemItem `json:"items"`
	Breadcrumb []filesystem.Crumb      `json:"breadcrumb"`
}

// HandleListItems lists ?parent= when given, otherwise the folder the
// breadcrumb points at.
func (s *Server) HandleListItems(c *fiber.Ctx) error {
	org := s.studio.Organization
	var resp listResponse
	if c.Context().QueryArgs().Has("parent") {
		resp.Parent = c.Query("parent")
		resp.Items = org.List(resp.Parent)
	} else {
		resp.Parent, resp.Items = org.ListCurrent()
	}
	resp.Breadcrumb = org.Breadcrumb()
	return c.JSON(resp)
}

func (s *Server) HandleCreateItem(c *fiber.Ctx) error {
	var req struct {
		ParentID string          `json:"parent_id"`
		Name     string          `json:"name"`
		Kind     domain.FileKind `json:"kind"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}
	item, err := s.studio.Organization.Create(c.UserContext(), req.ParentID, req.Name, req.Kind)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

func (s *Server) HandleUpload(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest("File is required")
	}
	if fh.Size > filesystem.MaxUploadBytes {
		return filesystem.ErrTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, filesystem.MaxUploadBytes+1))
	if err != nil {
		return err
	}
	name := c.FormValue("name", fh.Filename)
	item, err := s.studio.Organization.Upload(c.UserContext(), c.FormValue("parent_id"), name, fh.Header.Get(fiber.HeaderContentType), data)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

func (s *Server) HandleGetItem(c *fiber.Ctx) error {
	item, err := s.studio.Organization.Open(c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(item)
}

func (s *Server) HandleSaveItem(c *fiber.Ctx) error {
	var req struct {
		Content string `json:"content"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}
	item, err := s.studio.Organization.Save(c.UserContext(), c.Params("id"), req.Content)
	if err != nil {
		return err
	}
	return c.JSON(item)
}

func (s *Server) HandleDeleteItem(c *fiber.Ctx) error {
	removed, err := s.studio.Organization.Delete(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"removed": removed})
}

func (s *Server) HandleExportItem(c *fiber.Ctx) error {
	id := c.Params("id")
	item, err := s.studio.Organization.Open(id)
	if err != nil {
		return err
	}
	body, err := s.studio.Organization.Export(id)
	if err != nil {
		return err
	}
	c.Attachment(export.Filename(item.Name, "md"))
	c.Set(fiber.HeaderContentType, "text/markdown; charset=utf-8")
	return c.Send(body)
}

func (s *Server) HandleNavigate(c *fiber.Ctx) error {
	var req struct {
		ID string `json:"id"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}
	crumbs, err := s.studio.Organization.Navigate(req.ID)
	if err != nil {
		return err
	}
	return c.JSON(crumbs)
}

func (s *Server) HandleBreadcrumb(c *fiber.Ctx) error {
	return c.JSON(s.studio.Organization.Breadcrumb())
}

func (s *Server) HandleNavigateBreadcrumb(c *fiber.Ctx) error {
	var req struct {
		Index int `json:"index"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}
	crumbs, err := s.studio.Organization.NavigateToBreadcrumb(req.Index)
	if err != nil {
		return err
	}
	return c.JSON(crumbs)
}

// Direct generation

// generationModules maps each media kind to the module whose key pays for it.
var generationModules = map[gateway.Kind]domain.ModuleKey{
	gateway.KindText:      domain.ModuleNarrative,
	gateway.KindImage:     domain.ModuleVisuals,
	gateway.KindCharacter: domain.ModuleCharacters,
	gateway.KindVideo:     domain.ModuleVideo,
	gateway.KindAudio:     domain.ModuleSound,
	gateway.KindTransform: domain.ModuleTransformer,
}

// HandleGenerate runs one generation without recording it in any module.
// Errors come back unmasked, unlike the module endpoints.
func (s *Server) HandleGenerate(c *fiber.Ctx) error {
	kind := gateway.Kind(c.Params("kind"))
	module, ok := generationModules[kind]
	if !ok {
		return gateway.ErrUnknownKind
	}
	gen, err := s.gens.Generator(kind)
	if err != nil {
		return err
	}
	var req gateway.Request
	if err := parseBody(c, &req); err != nil {
		return err
	}
	key, err := s.studio.Credentials.Get(c.UserContext(), module)
	if err != nil {
		return err
	}
	if key == "" {
		return studio.ErrMissingCredential
	}

	result, err := gen.Generate(c.UserContext(), key, req)
	if err != nil {
		return err
	}
	if result.Video != nil {
		mimeType := result.Video.MimeType
		if mimeType == "" {
			mimeType = "video/mp4"
		}
		result.DataURI = "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(result.Video.Data)
	}
	return c.JSON(result)
}
