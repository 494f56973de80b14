package addon

import (
	"strings"

	"github.com/samber/lo"

	"unity/internal/provider"
)

// Manifest represents the Stremio addon manifest
type Manifest struct {
	ID          string    `json:"id"`
	Version     string    `json:"version"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Resources   []string  `json:"resources"`
	Types       []string  `json:"types"`
	Catalogs    []Catalog `json:"catalogs"`
	IDPrefixes  []string  `json:"idPrefixes"`
}

// Catalog represents a content catalog
type Catalog struct {
	Type  string  `json:"type"`
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Extra []Extra `json:"extra,omitempty"`
}

// Extra declares a catalog argument such as search.
type Extra struct {
	Name       string `json:"name"`
	IsRequired bool   `json:"isRequired,omitempty"`
}

// NewManifest creates the addon manifest for every registered provider.
func NewManifest(reg *provider.Registry, version string) Manifest {
	if version == "" {
		version = "dev"
	}

	catalogs := lo.Map(reg.Providers(), func(p provider.Provider, _ int) Catalog {
		def := p.Catalog()
		return Catalog{
			Type:  def.Type.String(),
			ID:    def.ID,
			Name:  def.Name,
			Extra: []Extra{{Name: "search", IsRequired: true}},
		}
	})
	names := lo.Map(reg.Providers(), func(p provider.Provider, _ int) string { return p.Name() })

	return Manifest{
		ID:          "org.stremio.unity",
		Version:     version,
		Name:        "Unity",
		Description: "Source content and catalogs from " + strings.Join(names, ", ") + " (italian streaming websites)",
		Resources:   []string{"stream", "catalog", "meta"},
		Types:       []string{"series", "movie"},
		Catalogs:    catalogs,
		IDPrefixes:  reg.Prefixes(),
	}
}
