package schema

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed definitions/*.yaml
var definitionsFS embed.FS

// ErrSchemaNotFound is returned for an undefined (entity, operation) pair.
// It indicates a programming error, not bad client input.
var ErrSchemaNotFound = errors.New("schema not found")

// Registry holds every entity definition. It is immutable after construction
// and safe for concurrent use.
type Registry struct {
	entities map[string]Entity
	names    []string
}

// NewRegistry builds a registry from already-parsed entities.
func NewRegistry(entities ...Entity) (*Registry, error) {
	r := &Registry{entities: make(map[string]Entity, len(entities))}
	for _, e := range entities {
		if err := Validate(e); err != nil {
			return nil, fmt.Errorf("entity %q: %w", e.Name, err)
		}
		if _, dup := r.entities[e.Name]; dup {
			return nil, fmt.Errorf("duplicate entity %q", e.Name)
		}
		r.entities[e.Name] = e
		r.names = append(r.names, e.Name)
	}
	sort.Strings(r.names)
	return r, nil
}

// LoadRegistry parses the embedded entity definitions.
func LoadRegistry() (*Registry, error) {
	return LoadRegistryFS(definitionsFS, "definitions")
}

// LoadRegistryFS parses every .yaml file in dir of fsys.
func LoadRegistryFS(fsys fs.FS, dir string) (*Registry, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	var entities []Entity
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || (!strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml")) {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		ent, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		entities = append(entities, ent)
	}

	return NewRegistry(entities...)
}

// MustLoadRegistry is LoadRegistry for process start; it panics on error.
func MustLoadRegistry() *Registry {
	r, err := LoadRegistry()
	if err != nil {
		panic(fmt.Sprintf("load schema registry: %v", err))
	}
	return r
}

// Lookup returns the schema for (entity, op).
func (r *Registry) Lookup(entity string, op Operation) (Schema, error) {
	e, ok := r.entities[entity]
	if !ok {
		return Schema{}, fmt.Errorf("%w: %s/%s", ErrSchemaNotFound, entity, op)
	}
	s, ok := e.Schema(op)
	if !ok {
		return Schema{}, fmt.Errorf("%w: %s/%s", ErrSchemaNotFound, entity, op)
	}
	return s, nil
}

// Entity returns the definition for name.
func (r *Registry) Entity(name string) (Entity, error) {
	e, ok := r.entities[name]
	if !ok {
		return Entity{}, fmt.Errorf("%w: %s", ErrSchemaNotFound, name)
	}
	return e, nil
}

// Names returns entity names sorted alphabetically.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Entities returns every definition sorted by name.
func (r *Registry) Entities() []Entity {
	out := make([]Entity, 0, len(r.names))
	for _, n := range r.names {
		out = append(out, r.entities[n])
	}
	return out
}
