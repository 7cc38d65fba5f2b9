// store/keys.go
package store

import "github.com/ViniZap4/saga-studio/domain"

// Logical keys, one JSON document each.
const (
	KeyCharacters        = "juliette_characters"
	KeyVisualArts        = "juliette_visual_arts"
	KeyNarrativeProjects = "juliette_narrative_projects"
	KeySoundClips        = "juliette_sound_clips"
	KeyVideoClips        = "juliette_video_clips"
	KeyOrganizationItems = "juliette_organization_items"
)

// CredentialKey is the per-module API key slot. There is no shared credential.
func CredentialKey(module domain.ModuleKey) string {
	return "juliette_api_key_" + string(module)
}
