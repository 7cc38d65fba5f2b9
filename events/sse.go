// events/sse.go
package events

import (
	"bufio"
	"encoding/json"
	"fmt"
)

// WriteSSE writes msg as one server-sent event and flushes it.
func WriteSSE(w *bufio.Writer, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Type, data); err != nil {
		return err
	}
	return w.Flush()
}

// WriteComment writes an SSE comment line, used as a keep-alive.
func WriteComment(w *bufio.Writer, text string) error {
	if _, err := fmt.Fprintf(w, ": %s\n\n", text); err != nil {
		return err
	}
	return w.Flush()
}
