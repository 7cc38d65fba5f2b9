// export/transcript.go
package export

import (
	"fmt"
	"strings"

	"github.com/ViniZap4/saga-studio/domain"
)

// Transcript renders a project's chat as plain text.
func Transcript(p domain.NarrativeProject) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "Projeto: %s\n", p.Title)
	fmt.Fprintf(&b, "Tipo: %s\n", p.Type)
	fmt.Fprintf(&b, "Descrição: %s\n", p.Description)
	b.WriteString("------------------------------------------\n\n")

	for _, msg := range p.ChatHistory {
		prefix := "IA"
		if msg.Sender == domain.SenderUser {
			prefix = "Você"
		}
		fmt.Fprintf(&b, "[%s]:\n%s\n\n", prefix, msg.Text)
		if len(msg.Sketches) > 0 {
			b.WriteString("(Esboço visual gerado)\n\n")
		}
	}
	return []byte(b.String())
}

// TranscriptFilename is the download name of a project transcript.
func TranscriptFilename(p domain.NarrativeProject) string {
	return Filename(p.Title, "txt")
}
