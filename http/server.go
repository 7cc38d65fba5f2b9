// http/server.go
package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/ViniZap4/saga-studio/auth"
	"github.com/ViniZap4/saga-studio/events"
	"github.com/ViniZap4/saga-studio/filesystem"
	"github.com/ViniZap4/saga-studio/gateway"
	"github.com/ViniZap4/saga-studio/studio"
)

const (
	bodyLimit        = 16 * 1024 * 1024
	defaultKeepAlive = 15 * time.Second
)

// Generators hands out one generator per media kind. *gateway.Client
// implements it.
type Generators interface {
	Generator(kind gateway.Kind) (gateway.Generator, error)
}

type Server struct {
	studio    *studio.Studio
	gens      Generators
	hub       *events.Hub
	auth      *auth.Checker
	log       zerolog.Logger
	keepAlive time.Duration
}

func NewServer(st *studio.Studio, gens Generators, hub *events.Hub, checker *auth.Checker, log zerolog.Logger) *Server {
	return &Server{
		studio:    st,
		gens:      gens,
		hub:       hub,
		auth:      checker,
		log:       log.With().Str("component", "http").Logger(),
		keepAlive: defaultKeepAlive,
	}
}

// App builds the fiber application with every route mounted.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "saga-studio",
		BodyLimit:             bodyLimit,
		Immutable:             true,
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Content-Type," + auth.HeaderToken,
	}))
	app.Use(s.requestLogger)

	app.Get("/healthz", s.HandleHealth)

	api := app.Group("/api", s.auth.Middleware())

	api.Get("/session", s.HandleGetSession)
	api.Put("/session", s.HandleSwitchModule)

	api.Get("/credentials/:module", s.HandleGetCredential)
	api.Put("/credentials/:module", s.HandleSetCredential)
	api.Delete("/credentials/:module", s.HandleClearCredential)

	api.Get("/characters", s.HandleCharacters)
	api.Post("/characters", s.HandleGenerateCharacter)
	api.Get("/characters/:index/export", s.HandleExportCharacter)

	api.Get("/visuals", s.HandleVisuals)
	api.Post("/visuals", s.HandleGenerateArt)

	api.Get("/narrative", s.HandleNarrative)
	api.Post("/narrative", s.HandleCreateProject)
	api.Post("/narrative/back", s.HandleNarrativeBack)
	api.Get("/narrative/:id", s.HandleGetProject)
	api.Put("/narrative/:id", s.HandleUpdateProject)
	api.Post("/narrative/:id/select", s.HandleSelectProject)
	api.Post("/narrative/:id/messages", s.HandleSendMessage)
	api.Get("/narrative/:id/export", s.HandleExportTranscript)

	api.Get("/sound", s.HandleSounds)
	api.Post("/sound", s.HandleGenerateSound)
	api.Get("/sound/:id/wav", s.HandleSoundWAV)

	api.Get("/video/clips", s.HandleClips)
	api.Post("/video/clips/reorder", s.HandleReorderClips)
	api.Delete("/video/clips/:id", s.HandleRemoveClip)
	api.Get("/video/clips/:id/media", s.HandleClipMedia)
	api.Put("/video/active", s.HandleSetActiveClip)
	api.Put("/video/reference", s.HandleSetReference)
	api.Post("/video/key", s.HandleSelectVideoKey)
	api.Get("/video/jobs", s.HandleJobs)
	api.Post("/video/jobs", s.HandleStartVideo)
	api.Get("/video/jobs/:id", s.HandleGetJob)
	api.Delete("/video/jobs/:id", s.HandleCancelJob)

	api.Get("/transformer", s.HandleTransformerSettings)
	api.Put("/transformer", s.HandleUpdateTransformerSettings)
	api.Post("/transformer", s.HandleTransform)
	api.Get("/transformer/presets", s.HandlePresets)

	api.Get("/fs", s.HandleListItems)
	api.Post("/fs", s.HandleCreateItem)
	api.Post("/fs/upload", s.HandleUpload)
	api.Get("/fs/breadcrumb", s.HandleBreadcrumb)
	api.Post("/fs/breadcrumb", s.HandleNavigateBreadcrumb)
	api.Post("/fs/navigate", s.HandleNavigate)
	api.Get("/fs/:id", s.HandleGetItem)
	api.Put("/fs/:id", s.HandleSaveItem)
	api.Delete("/fs/:id", s.HandleDeleteItem)
	api.Get("/fs/:id/export", s.HandleExportItem)

	api.Post("/generate/:kind", s.HandleGenerate)

	api.Get("/events", s.HandleEvents)

	return app
}

// requestLogger logs one line per request. Errors are rendered here so the
// logged status is the one the client sees.
func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	if err != nil {
		if herr := c.App().Config().ErrorHandler(c, err); herr != nil {
			_ = c.SendStatus(fiber.StatusInternalServerError)
		}
	}

	status := c.Response().StatusCode()
	ev := s.log.Info()
	switch {
	case status >= fiber.StatusInternalServerError:
		ev = s.log.Error().Err(err)
	case status >= fiber.StatusBadRequest:
		ev = s.log.Warn().Err(err)
	}
	ev.Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", status).
		Dur("elapsed", time.Since(start)).
		Msg("request")
	return nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	return c.Status(statusFor(err)).JSON(errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, studio.ErrBusy):
		return fiber.StatusConflict
	case errors.Is(err, studio.ErrNotFound), errors.Is(err, filesystem.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, filesystem.ErrTooLarge):
		return fiber.StatusRequestEntityTooLarge
	case errors.Is(err, studio.ErrKeyNotSelected),
		errors.Is(err, studio.ErrMissingCredential),
		errors.Is(err, gateway.ErrAPIKeyNotFound):
		return fiber.StatusPreconditionRequired
	case errors.Is(err, gateway.ErrQuotaExceeded):
		return fiber.StatusTooManyRequests
	case errors.Is(err, studio.ErrInvalidInput),
		errors.Is(err, studio.ErrUnknownModule),
		errors.Is(err, gateway.ErrUnknownKind),
		errors.Is(err, filesystem.ErrInvalidName),
		errors.Is(err, filesystem.ErrInvalidKind),
		errors.Is(err, filesystem.ErrNotFolder),
		errors.Is(err, filesystem.ErrNotNote):
		return fiber.StatusBadRequest
	case errors.Is(err, studio.ErrGenerationFailed), errors.Is(err, gateway.ErrEmptyResult):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func badRequest(msg string) error {
	return fiber.NewError(fiber.StatusBadRequest, msg)
}

func parseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return badRequest("Invalid request body")
	}
	return nil
}
