package cli

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"

	"sigs.k8s.io/yaml"

	"github.com/pthm/planfilter"
	"github.com/pthm/planfilter/internal/sqlgen"
)

// Model is the content of the model file: how engine attribute paths map to
// the store, and how the store's table and relations are laid out.
//
// It lives outside planfilter.yaml because attribute paths contain dots and
// mixed case, which viper would split into nested, lower-cased keys.
type Model struct {
	Mapping planfilter.Mapping `json:"mapping"`
	Schema  sqlgen.Schema      `json:"schema"`
}

// LoadModel reads a YAML or JSON model file.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model file: %w", err)
	}
	var m Model
	if err := yaml.UnmarshalStrict(data, &m); err != nil {
		return nil, fmt.Errorf("parsing model file %s: %w", path, err)
	}
	return &m, nil
}

// Validate checks the mapping and the schema, and that every relation the
// mapping produces is described by the schema. All problems are reported.
func (m *Model) Validate() error {
	var errs []error
	if err := m.Mapping.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := m.Schema.Validate(); err != nil {
		errs = append(errs, err)
	}
	for _, path := range slices.Sorted(maps.Keys(m.Mapping.Relations)) {
		name := m.Mapping.Relations[path].Name
		if name == "" {
			continue
		}
		if _, ok := m.Schema.Relations[name]; !ok {
			errs = append(errs, fmt.Errorf("%w: relation %q (mapped from %q) has no schema entry",
				sqlgen.ErrUnknownRelation, name, path))
		}
	}
	return errors.Join(errs...)
}
