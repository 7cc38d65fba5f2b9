// studio/narrative.go
package studio

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/ViniZap4/saga-studio/domain"
	"github.com/ViniZap4/saga-studio/events"
	"github.com/ViniZap4/saga-studio/gateway"
	"github.com/ViniZap4/saga-studio/store"
)

const (
	newProjectTitle       = "Nova HQ Sem Título"
	newProjectDescription = "Uma nova aventura no Universo Juliette Psicose."
	welcomeMessage        = "Olá, Julio! Bem-vindo ao estúdio de criação. Qual é a ideia central para esta nova HQ? Descreva o conceito, o tom ou a cena inicial."
	// ApologyMessage is appended when a narrative turn fails.
	ApologyMessage = "Desculpe, ocorreu um erro ao processar sua solicitação."

	sketchSeparator = "---"
	historyWindow   = 4
)

// NarrativeView is the sub-view of the narrative module.
type NarrativeView string

const (
	ViewList   NarrativeView = "list"
	ViewEditor NarrativeView = "editor"
)

// ProjectPatch carries the editable project fields; nil leaves a field as is.
type ProjectPatch struct {
	Title       *string             `json:"title"`
	Type        *domain.ProjectType `json:"type"`
	Description *string             `json:"description"`
}

// Narrative keeps comic projects, newest first, each with its chat.
type Narrative struct {
	deps
	gate
	mu       sync.RWMutex
	projects []domain.NarrativeProject
	view     NarrativeView
	activeID string
}

func newNarrative(ctx context.Context, d deps) *Narrative {
	n := &Narrative{deps: d, projects: []domain.NarrativeProject{}, view: ViewList}
	n.store.Load(ctx, store.KeyNarrativeProjects, &n.projects)
	return n
}

func (n *Narrative) List() []domain.NarrativeProject {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]domain.NarrativeProject, len(n.projects))
	for i, p := range n.projects {
		out[i] = cloneProject(p)
	}
	return out
}

func (n *Narrative) Get(id string) (domain.NarrativeProject, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	i := n.indexLocked(id)
	if i < 0 {
		return domain.NarrativeProject{}, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	return cloneProject(n.projects[i]), nil
}

// View returns the open sub-view and, in the editor, the open project id.
func (n *Narrative) View() (NarrativeView, string) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.view, n.activeID
}

// CreateProject starts an untitled comic and opens it.
func (n *Narrative) CreateProject(ctx context.Context) domain.NarrativeProject {
	p := domain.NarrativeProject{
		ID:          n.newID(),
		Title:       newProjectTitle,
		Type:        domain.ProjectHQ,
		Description: newProjectDescription,
		ChatHistory: []domain.ChatMessage{{Sender: domain.SenderAI, Text: welcomeMessage}},
	}
	n.mu.Lock()
	n.projects = prepend(n.projects, p)
	n.view, n.activeID = ViewEditor, p.ID
	n.mu.Unlock()

	n.persist(ctx)
	n.publish(events.RecordCreated, domain.ModuleNarrative, p.ID, p)
	return cloneProject(p)
}

func (n *Narrative) Select(id string) (domain.NarrativeProject, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	i := n.indexLocked(id)
	if i < 0 {
		return domain.NarrativeProject{}, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	n.view, n.activeID = ViewEditor, id
	return cloneProject(n.projects[i]), nil
}

// Back returns to the project list.
func (n *Narrative) Back() {
	n.mu.Lock()
	n.view, n.activeID = ViewList, ""
	n.mu.Unlock()
}

func (n *Narrative) UpdateProject(ctx context.Context, id string, patch ProjectPatch) (domain.NarrativeProject, error) {
	if patch.Type != nil {
		switch *patch.Type {
		case domain.ProjectHQ, domain.ProjectRoteiro, domain.ProjectConto:
		default:
			return domain.NarrativeProject{}, fmt.Errorf("%w: project type %q", ErrInvalidInput, *patch.Type)
		}
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return domain.NarrativeProject{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	updated, err := n.mutate(id, func(p *domain.NarrativeProject) {
		if patch.Title != nil {
			p.Title = strings.TrimSpace(*patch.Title)
		}
		if patch.Type != nil {
			p.Type = *patch.Type
		}
		if patch.Description != nil {
			p.Description = *patch.Description
		}
	})
	if err != nil {
		return domain.NarrativeProject{}, err
	}
	n.persist(ctx)
	n.publish(events.RecordUpdated, domain.ModuleNarrative, id, updated)
	return updated, nil
}

// SendMessage runs one turn of the interactive comic: the user's
// instruction, the continued script, and a sketch of the scene when the
// script carries an image prompt after a "---" line.
func (n *Narrative) SendMessage(ctx context.Context, id, text string) (domain.NarrativeProject, error) {
	if strings.TrimSpace(text) == "" {
		return domain.NarrativeProject{}, fmt.Errorf("%w: message is empty", ErrInvalidInput)
	}
	key := n.creds.key(ctx, domain.ModuleNarrative)
	if key == "" {
		return domain.NarrativeProject{}, ErrMissingCredential
	}
	if err := n.enter(); err != nil {
		return domain.NarrativeProject{}, err
	}
	defer n.leave()

	before, err := n.Get(id)
	if err != nil {
		return domain.NarrativeProject{}, err
	}
	if _, err := n.appendMessage(ctx, id, domain.ChatMessage{Sender: domain.SenderUser, Text: text}); err != nil {
		return domain.NarrativeProject{}, err
	}

	result := n.gw.Narrative(ctx, key, continuationPrompt(before, text), "Comic Script")
	if gateway.IsSentinel(result) {
		n.log.Error().Str("project", id).Str("result", result).Msg("interactive generation failed")
		return n.appendMessage(ctx, id, domain.ChatMessage{Sender: domain.SenderAI, Text: ApologyMessage})
	}

	script, imagePrompt := splitScript(result)
	aiMessage := domain.ChatMessage{
		Sender:            domain.SenderAI,
		Text:              script,
		IsLoadingSketches: strings.TrimSpace(imagePrompt) != "",
	}
	project, err := n.appendMessage(ctx, id, aiMessage)
	if err != nil || !aiMessage.IsLoadingSketches {
		return project, err
	}

	sketch := n.gw.Art(ctx, key, strings.TrimSpace(imagePrompt))
	final := aiMessage
	final.IsLoadingSketches = false
	if gateway.IsSentinel(sketch) {
		n.log.Error().Str("project", id).Str("result", sketch).Msg("sketch generation failed")
	} else {
		final.Sketches = []string{sketch}
	}
	project, err = n.mutate(id, func(p *domain.NarrativeProject) {
		p.ChatHistory[len(p.ChatHistory)-1] = final
	})
	if err != nil {
		return domain.NarrativeProject{}, err
	}
	n.persist(ctx)
	n.publish(events.RecordUpdated, domain.ModuleNarrative, id, project)
	return project, nil
}

func (n *Narrative) appendMessage(ctx context.Context, id string, msg domain.ChatMessage) (domain.NarrativeProject, error) {
	project, err := n.mutate(id, func(p *domain.NarrativeProject) {
		p.ChatHistory = append(p.ChatHistory, msg)
	})
	if err != nil {
		return domain.NarrativeProject{}, err
	}
	n.persist(ctx)
	n.publish(events.RecordUpdated, domain.ModuleNarrative, id, project)
	return project, nil
}

func (n *Narrative) mutate(id string, fn func(p *domain.NarrativeProject)) (domain.NarrativeProject, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	i := n.indexLocked(id)
	if i < 0 {
		return domain.NarrativeProject{}, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	p := cloneProject(n.projects[i])
	fn(&p)
	n.projects[i] = p
	return cloneProject(p), nil
}

func (n *Narrative) persist(ctx context.Context) {
	n.store.Save(ctx, store.KeyNarrativeProjects, n.List())
}

func (n *Narrative) indexLocked(id string) int {
	return slices.IndexFunc(n.projects, func(p domain.NarrativeProject) bool { return p.ID == id })
}

func continuationPrompt(p domain.NarrativeProject, instruction string) string {
	recent := p.ChatHistory
	if len(recent) > historyWindow {
		recent = recent[len(recent)-historyWindow:]
	}
	history, err := json.Marshal(recent)
	if err != nil {
		history = []byte("[]")
	}
	return fmt.Sprintf(`Contexto da HQ: %s - %s.
Histórico da conversa: %s
Instrução do usuário: "%s"

Continue a história. Gere o roteiro para o próximo painel ou cena da HQ, seguindo o estilo do 'Universo Juliette Psicose'.
Seja descritivo e cinematográfico.
Depois do roteiro, adicione uma quebra "---" e então escreva um prompt curto e direto para uma IA de imagem gerar um esboço para esta cena.`,
		p.Title, p.Description, history, instruction)
}

// splitScript separates the script from the sketch prompt. Only the text
// between the first and second separator is used as the prompt.
func splitScript(result string) (script, imagePrompt string) {
	parts := strings.SplitN(result, sketchSeparator, 3)
	script = strings.TrimSpace(parts[0])
	if len(parts) > 1 {
		imagePrompt = parts[1]
	}
	return script, imagePrompt
}

func cloneProject(p domain.NarrativeProject) domain.NarrativeProject {
	history := make([]domain.ChatMessage, len(p.ChatHistory))
	for i, m := range p.ChatHistory {
		m.Sketches = slices.Clone(m.Sketches)
		history[i] = m
	}
	p.ChatHistory = history
	return p
}
