package planfilter

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Relation describes how a relation-typed attribute path maps to a to-many
// association of the target store.
type Relation struct {
	// Name is the relation name in the target schema (e.g. "owners").
	Name string `mapstructure:"relation" json:"relation"`

	// Field is the join field of the related entity used for membership
	// tests (e.g. "id").
	Field string `mapstructure:"field" json:"field"`

	// Fields optionally maps further attribute paths of the related entity
	// to its fields, for quantifier bodies that test more than the join field.
	Fields map[string]string `mapstructure:"fields" json:"fields,omitempty"`
}

// Mapping holds the caller-supplied lookup tables, keyed by the exact
// symbolic path the policy engine emits (e.g. request.resource.attr.aBool).
//
// There is no prefix or wildcard matching: the caller is responsible for
// keying the tables consistently with the engine's namespaces.
type Mapping struct {
	Fields    map[string]string   `mapstructure:"fields" json:"fields"`
	Relations map[string]Relation `mapstructure:"relations" json:"relations"`
}

// clone returns a deep copy, so a Translator never observes later mutation of
// the caller's maps.
func (m Mapping) clone() Mapping {
	out := Mapping{
		Fields:    maps.Clone(m.Fields),
		Relations: make(map[string]Relation, len(m.Relations)),
	}
	for path, rel := range m.Relations {
		rel.Fields = maps.Clone(rel.Fields)
		out.Relations[path] = rel
	}
	return out
}

// ResolveField returns the target field for path.
func (m Mapping) ResolveField(path string) (string, error) {
	field, isField := m.Fields[path]
	_, isRelation := m.Relations[path]
	switch {
	case isField && isRelation:
		return "", &TranslationError{Kind: ErrAmbiguousMapping, Path: path}
	case isField:
		return field, nil
	}
	return "", &TranslationError{Kind: ErrUnmappedField, Path: path}
}

// ResolveRelation returns the relation descriptor for path.
func (m Mapping) ResolveRelation(path string) (Relation, error) {
	rel, isRelation := m.Relations[path]
	_, isField := m.Fields[path]
	switch {
	case isField && isRelation:
		return Relation{}, &TranslationError{Kind: ErrAmbiguousMapping, Path: path}
	case isRelation:
		return rel, nil
	}
	return Relation{}, &TranslationError{Kind: ErrUnmappedRelation, Path: path}
}

// isRelation reports whether path is relation-mapped (and only relation-mapped).
func (m Mapping) isRelation(path string) bool {
	_, isRelation := m.Relations[path]
	_, isField := m.Fields[path]
	return isRelation && !isField
}

// Validate reports every configuration problem in the mapping: paths mapped
// as both field and relation, and entries with empty targets.
// Problems are joined so all of them can be fixed in one pass.
func (m Mapping) Validate() error {
	var errs []error

	for _, path := range slices.Sorted(maps.Keys(m.Fields)) {
		if _, ok := m.Relations[path]; ok {
			errs = append(errs, &TranslationError{Kind: ErrAmbiguousMapping, Path: path})
		}
		if strings.TrimSpace(m.Fields[path]) == "" {
			errs = append(errs, fmt.Errorf("field mapping %q: empty field name", path))
		}
	}

	for _, path := range slices.Sorted(maps.Keys(m.Relations)) {
		rel := m.Relations[path]
		if strings.TrimSpace(rel.Name) == "" {
			errs = append(errs, fmt.Errorf("relation mapping %q: empty relation name", path))
		}
		if strings.TrimSpace(rel.Field) == "" {
			errs = append(errs, fmt.Errorf("relation mapping %q: empty join field", path))
		}
		for _, inner := range slices.Sorted(maps.Keys(rel.Fields)) {
			if strings.TrimSpace(rel.Fields[inner]) == "" {
				errs = append(errs, fmt.Errorf("relation mapping %q: field %q has empty target", path, inner))
			}
		}
	}

	return errors.Join(errs...)
}

// relationScope resolves variables inside the body of an exists quantifier.
// Paths refer to the related entity, optionally through a lambda-bound name.
type relationScope struct {
	path     string
	relation Relation
	bound    string // lambda variable, empty when the body is not a lambda
}

// resolveField maps a path inside the quantifier body to a field of the
// related entity. The bare lambda variable stands for the element itself and
// resolves to the join field, as in owners.exists(o, o == "user1").
func (s relationScope) resolveField(path string) (string, error) {
	if f, ok := s.lookup(path); ok {
		return f, nil
	}
	if s.bound != "" {
		if path == s.bound {
			return s.relation.Field, nil
		}
		if rest, ok := strings.CutPrefix(path, s.bound+"."); ok {
			if f, ok := s.lookup(rest); ok {
				return f, nil
			}
		}
	}
	return "", &TranslationError{
		Kind:   ErrUnmappedField,
		Path:   path,
		Reason: fmt.Sprintf("not a field of relation %q (mapped from %s)", s.relation.Name, s.path),
	}
}

func (s relationScope) lookup(path string) (string, bool) {
	if f, ok := s.relation.Fields[path]; ok {
		return f, true
	}
	if path == s.relation.Field {
		return s.relation.Field, true
	}
	return "", false
}
