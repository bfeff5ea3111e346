// Package catalog loads the static product catalog.
package catalog

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/metinatakli/pcbuilder/internal/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultCatalog []byte

type yamlCategory struct {
	Category string       `yaml:"category"`
	Options  []yamlOption `yaml:"options"`
}

type yamlOption struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Price string `yaml:"price"`
}

// Default returns the catalog bundled with the binary.
func Default() (domain.Catalog, error) {
	return ParseYAML(defaultCatalog)
}

// Load reads a catalog file, choosing the format by extension. An empty path
// yields the default catalog.
func Load(path string) (domain.Catalog, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ParseJSON(data)
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", filepath.Ext(path))
	}
}

func ParseYAML(data []byte) (domain.Catalog, error) {
	var raw []yamlCategory

	err := yaml.Unmarshal(data, &raw)
	if err != nil {
		return nil, fmt.Errorf("parse yaml catalog: %w", err)
	}

	catalog := make(domain.Catalog, len(raw))

	for i, rc := range raw {
		options := make([]domain.ProductOption, len(rc.Options))

		for j, ro := range rc.Options {
			price, err := decimal.NewFromString(ro.Price)
			if err != nil {
				return nil, fmt.Errorf("option %s/%s: invalid price %q: %w", rc.Category, ro.ID, ro.Price, err)
			}

			options[j] = domain.ProductOption{ID: ro.ID, Name: ro.Name, Price: price}
		}

		catalog[i] = domain.ProductCategory{Category: rc.Category, Options: options}
	}

	return catalog, validate(catalog)
}

func ParseJSON(data []byte) (domain.Catalog, error) {
	var catalog domain.Catalog

	err := json.Unmarshal(data, &catalog)
	if err != nil {
		return nil, fmt.Errorf("parse json catalog: %w", err)
	}

	return catalog, validate(catalog)
}

func validate(catalog domain.Catalog) error {
	if len(catalog) == 0 {
		return errors.New("catalog has no categories")
	}

	categories := make(map[string]bool, len(catalog))

	for _, pc := range catalog {
		if pc.Category == "" {
			return errors.New("catalog category without a name")
		}
		if categories[pc.Category] {
			return fmt.Errorf("duplicate category %q", pc.Category)
		}
		categories[pc.Category] = true

		ids := make(map[string]bool, len(pc.Options))
		for _, option := range pc.Options {
			if option.ID == "" {
				return fmt.Errorf("category %q has an option without an id", pc.Category)
			}
			if ids[option.ID] {
				return fmt.Errorf("duplicate option %q in category %q", option.ID, pc.Category)
			}
			if option.Price.IsNegative() {
				return fmt.Errorf("option %q in category %q has a negative price", option.ID, pc.Category)
			}
			ids[option.ID] = true
		}
	}

	return nil
}
