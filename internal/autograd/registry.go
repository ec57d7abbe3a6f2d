package autograd

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

var validOpName = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Registry maps lowercase operation names to their types.
// It is built once, before any Graph uses it, and is read-only afterwards.
type Registry struct {
	types map[string]OpType
}

// NewRegistry registers every type under its lowercased name.
//
// Empty or non-identifier names, names that collide after lowercasing, and
// types without a factory are configuration errors.
func NewRegistry(types ...OpType) (*Registry, error) {
	r := &Registry{types: make(map[string]OpType, len(types))}
	for _, t := range types {
		name := strings.ToLower(t.Name)
		if !validOpName.MatchString(name) {
			return nil, fmt.Errorf("registry: %w: %q", ErrInvalidOpName, t.Name)
		}
		if t.New == nil {
			return nil, fmt.Errorf("registry: %w: %q", ErrNilFactory, t.Name)
		}
		if _, exists := r.types[name]; exists {
			return nil, fmt.Errorf("registry: %w: %q registers as %q, which is taken",
				ErrDuplicateOp, t.Name, name)
		}
		r.types[name] = OpType{Name: name, New: t.New}
	}

	log.Debug().Strs("ops", r.Names()).Msg("operation registry built")
	return r, nil
}

// MustRegistry is like NewRegistry but panics on a configuration error.
// Use it for registries built at process start.
func MustRegistry(types ...OpType) *Registry {
	r, err := NewRegistry(types...)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup finds an operation type by name, case-insensitively.
func (r *Registry) Lookup(name string) (OpType, bool) {
	t, ok := r.types[strings.ToLower(name)]
	return t, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
