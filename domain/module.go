// domain/module.go
package domain

// ModuleKey names a top-level studio module.
type ModuleKey string

const (
	ModuleDashboard    ModuleKey = "dashboard"
	ModuleNarrative    ModuleKey = "narrative"
	ModuleVisuals      ModuleKey = "visuals"
	ModuleCharacters   ModuleKey = "characters"
	ModuleVideo        ModuleKey = "video"
	ModuleSound        ModuleKey = "sound"
	ModuleOrganization ModuleKey = "organization"
	ModuleTransformer  ModuleKey = "transformer"
)

// Modules lists every module in sidebar order.
var Modules = []ModuleKey{
	ModuleDashboard,
	ModuleNarrative,
	ModuleVisuals,
	ModuleCharacters,
	ModuleVideo,
	ModuleSound,
	ModuleOrganization,
	ModuleTransformer,
}

var moduleNames = map[ModuleKey]string{
	ModuleDashboard:    "Dashboard",
	ModuleNarrative:    "Narrativa",
	ModuleVisuals:      "Artes Visuais",
	ModuleCharacters:   "Personagens",
	ModuleVideo:        "Vídeos e Filme",
	ModuleSound:        "Produção Sonora",
	ModuleOrganization: "Organização",
	ModuleTransformer:  "Transformador Artístico",
}

func (m ModuleKey) Valid() bool {
	_, ok := moduleNames[m]
	return ok
}

// DisplayName returns the sidebar label, falling back to Dashboard.
func (m ModuleKey) DisplayName() string {
	if name, ok := moduleNames[m]; ok {
		return name
	}
	return moduleNames[ModuleDashboard]
}
