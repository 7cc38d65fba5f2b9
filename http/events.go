// http/events.go
package http

import (
	"bufio"
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/ViniZap4/saga-studio/events"
)

// HandleEvents streams hub messages as server-sent events until the client
// goes away or the hub stops.
func (s *Server) HandleEvents(c *fiber.Ctx) error {
	sub, err := s.hub.Subscribe(c.UserContext())
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		if err := streamEvents(w, sub.C, s.keepAlive); err != nil {
			s.log.Debug().Err(err).Msg("event stream closed")
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			s.hub.Unsubscribe(ctx, sub)
		}
	}))
	return nil
}

// streamEvents copies msgs to w, writing a comment every keepAlive so
// proxies keep the connection open. It returns nil when msgs is closed and
// the write error when the client is gone.
func streamEvents(w *bufio.Writer, msgs <-chan events.Message, keepAlive time.Duration) error {
	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	if err := events.WriteComment(w, "connected"); err != nil {
		return err
	}
	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			if err := events.WriteSSE(w, msg); err != nil {
				return err
			}
		case <-ticker.C:
			if err := events.WriteComment(w, "keep-alive"); err != nil {
				return err
			}
		}
	}
}
