package knowledge

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/nixsay/assets"
	"github.com/doeshing/nixsay/internal/domain"
)

// Catalog is the YAML schema shared by the built-in table and the user
// override file.
type Catalog struct {
	Version    int                     `yaml:"version"`
	Categories map[string][]string     `yaml:"categories,omitempty"`
	Entries    []domain.KnowledgeEntry `yaml:"entries,omitempty"`
	Aliases    map[string]string       `yaml:"aliases,omitempty"` // extra package alias -> canonical
	Problems   []domain.Problem        `yaml:"problems,omitempty"`
	Practices  []domain.Practice       `yaml:"practices,omitempty"`
}

// BuiltinCatalog parses the embedded default catalog.
func BuiltinCatalog() (Catalog, error) {
	return parseCatalog(assets.DefaultKnowledgeYAML)
}

// LoadOverrides reads the user override file. A missing file is an empty
// catalog, not an error.
func LoadOverrides(path string) (Catalog, error) {
	if path == "" {
		return Catalog{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Catalog{}, nil
		}
		return Catalog{}, fmt.Errorf("read knowledge overrides: %w", err)
	}
	catalog, err := parseCatalog(data)
	if err != nil {
		return Catalog{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return catalog, nil
}

func parseCatalog(data []byte) (Catalog, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return Catalog{}, err
	}
	for i := range catalog.Entries {
		if catalog.Entries[i].Kind == "" {
			catalog.Entries[i].Kind = domain.KindPackage
		}
	}
	return catalog, nil
}
