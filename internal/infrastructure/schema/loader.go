package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	domain "github.com/mohammadpnp/data-import/internal/domain/dataimport"
)

type fileSchema struct {
	Types []typeSchema `yaml:"types"`
}

type typeSchema struct {
	Name   string        `yaml:"name"`
	Fields []fieldSchema `yaml:"fields"`
}

type fieldSchema struct {
	Name   string   `yaml:"name"`
	Kind   string   `yaml:"kind"`
	Elem   string   `yaml:"elem"`
	Values []string `yaml:"values"`
	Target string   `yaml:"target"`
}

// Load reads a YAML schema file into a validated registry.
func Load(path string) (*domain.Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*domain.Registry, error) {
	var fs fileSchema
	if err := yaml.Unmarshal(data, &fs); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	if len(fs.Types) == 0 {
		return nil, fmt.Errorf("schema declares no types")
	}

	reg, err := domain.NewRegistry()
	if err != nil {
		return nil, err
	}
	for _, ts := range fs.Types {
		fields := make([]domain.Field, 0, len(ts.Fields))
		for _, f := range ts.Fields {
			fields = append(fields, domain.Field{
				Name:       f.Name,
				Kind:       domain.Kind(f.Kind),
				Elem:       domain.Kind(f.Elem),
				EnumValues: f.Values,
				Target:     f.Target,
			})
		}
		t, err := domain.NewEntityType(ts.Name, fields...)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(t); err != nil {
			return nil, err
		}
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return reg, nil
}
