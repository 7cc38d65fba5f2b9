// gateway/prompts.go
package gateway

import (
	"fmt"
	"strings"

	"github.com/ViniZap4/saga-studio/domain"
)

// HouseStyle is prepended to every request so output stays inside the saga.
const HouseStyle = `Você é a IA criativa do 'Universo Juliette Psicose'.
Seu estilo deve ser sempre:
- Surrealismo psicológico
- Focado em identidades duplas e múltiplas versões da personagem Juliette
- Atmosfera intensa, dramática e poética
- Toques de horror, existencialismo e metáforas profundas
- Temas de liberdade, verdade e rebelião
Mantenha essa essência em todas as suas criações.`

// Sentinel values returned instead of errors.
const (
	MissingKeyMessage      = "Erro: Chave de API não fornecida."
	NarrativeFailedMessage = "Falha ao gerar narrativa. Verifique o console para mais detalhes."
	ArtFailedMessage       = "Falha ao gerar arte. Verifique o console para mais detalhes."
	TransformFailedMessage = "Falha ao transformar imagem. Verifique o console para mais detalhes."
)

// IsSentinel reports whether s is one of the failure strings rather than
// generated content.
func IsSentinel(s string) bool {
	return s == "" || strings.HasPrefix(s, "Falha") || strings.HasPrefix(s, "Erro:")
}

func narrativePrompt(prompt, narrativeType string) string {
	return fmt.Sprintf(`%s
Gere um conteúdo de narrativa do tipo "%s" com base na seguinte ideia: "%s".
Se for um roteiro, use o formato Final Draft.
Se for um livro, estruture como um capítulo.
Se for um gibi, descreva os painéis e diálogos.`, HouseStyle, narrativeType, prompt)
}

func artPrompt(prompt string) string {
	return fmt.Sprintf(`Crie uma arte conceitual para o 'Universo Juliette Psicose'.
Estilo: dark, surreal, cyberpunk, poético, com elementos de horror psicológico.
Prompt: %s`, prompt)
}

func characterPrompt(idea string) string {
	idea = strings.TrimSpace(idea)
	if idea == "" {
		return "Gere uma nova ficha de personagem para o universo 'Juliette Psicose', incluindo uma de suas versões alternativas, poderes, psicologia complexa e contradições internas."
	}
	return fmt.Sprintf(`Com base na seguinte ideia: "%s", gere uma nova ficha de personagem para o universo 'Juliette Psicose'. A ficha deve incluir uma de suas versões alternativas, poderes, psicologia complexa e contradições internas.`, idea)
}

func videoPrompt(prompt string) string {
	return fmt.Sprintf("%s\nCrie uma cena de vídeo para o 'Universo Juliette Psicose'. Prompt: %s", HouseStyle, prompt)
}

func soundScriptPrompt(prompt string, words int) string {
	return fmt.Sprintf(`%s
Escreva um roteiro curto para ser narrado em voz alta, com aproximadamente %d palavras, sobre a seguinte ideia: "%s".
Responda apenas com o texto a ser narrado, sem títulos, marcações de cena ou comentários.`, HouseStyle, words, prompt)
}

func speechPrompt(script string) string {
	return "Narre de forma dramática e poética, com pausas intensas: " + script
}

// Preset is a transformer style shortcut.
type Preset struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Style string `json:"style"`
}

// Presets lists the transformer styles in display order.
var Presets = []Preset{
	{ID: "realistic", Label: "Realista", Style: "Hyper-realistic, cinematic lighting, 8k"},
	{ID: "comic", Label: "HQ / Gibi", Style: "Comic book style, bold lines, vibrant colors, graphic novel aesthetic"},
	{ID: "painting", Label: "Pintura Digital", Style: "Digital painting, brush strokes, artistic texture, oil painting style"},
	{ID: "cyberpunk", Label: "Cyberpunk", Style: "Cyberpunk, neon lights, rainy atmosphere, high tech low life, futuristic"},
	{ID: "watercolor", Label: "Aquarela", Style: "Watercolor painting, soft edges, artistic, dreamy, pastel colors"},
	{ID: "horror", Label: "Horror Psicológico", Style: "Dark surrealism, psychological horror, eerie atmosphere, shadow play, intense"},
	{ID: "sketch", Label: "Sketch", Style: "Pencil sketch, rough lines, charcoal, artistic draft"},
	{ID: "noir", Label: "Noir", Style: "Film noir, black and white, high contrast, dramatic shadows, mystery"},
}

// ResolvePreset maps a preset id to its style text. Unknown ids are treated
// as free-form style text.
func ResolvePreset(id string) string {
	for _, p := range Presets {
		if p.ID == id {
			return p.Style
		}
	}
	return id
}

func transformPrompt(s domain.TransformerSettings) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Transforme esta imagem aplicando o seguinte estilo: %s.\n", ResolvePreset(s.Preset))
	fmt.Fprintf(&b, "Intensidade do estilo: %d%%.\n", clampPercent(s.StyleStrength))
	if s.DetailLevel != "" {
		fmt.Fprintf(&b, "Nível de detalhe: %s.\n", s.DetailLevel)
	}
	fmt.Fprintf(&b, "Redução de ruído: %d%%.\n", clampPercent(s.Denoise))
	if s.FaceAware {
		b.WriteString("Preserve a identidade facial e os traços do rosto das pessoas na imagem.\n")
	}
	if mod := strings.TrimSpace(s.PromptModifier); mod != "" {
		fmt.Fprintf(&b, "Ajustes adicionais: %s\n", mod)
	}
	b.WriteString("Mantenha a composição original. Responda apenas com a imagem transformada.")
	return b.String()
}

func clampPercent(v int) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
