package subrecord

import (
	"fmt"
	"sort"
)

// Registry holds every subrecord type the server exposes, in registration order.
type Registry struct {
	types  []*Type
	byName map[string]*Type
}

func NewRegistry() *Registry {
	return &Registry{byName: map[string]*Type{}}
}

func (r *Registry) Register(proto Record, opts Options) (*Type, error) {
	t, err := NewType(proto, opts)
	if err != nil {
		return nil, err
	}
	if _, ok := r.byName[t.APIName]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateType, t.APIName)
	}
	r.types = append(r.types, t)
	r.byName[t.APIName] = t
	return t, nil
}

// MustRegister panics on error. Intended for package-level wiring.
func (r *Registry) MustRegister(proto Record, opts Options) *Type {
	t, err := r.Register(proto, opts)
	if err != nil {
		panic(err)
	}
	return t
}

func (r *Registry) Lookup(apiName string) (*Type, bool) {
	t, ok := r.byName[apiName]
	return t, ok
}

func (r *Registry) Types() []*Type {
	return append([]*Type(nil), r.types...)
}

func (r *Registry) PatientTypes() []*Type {
	return r.filter(OwnerPatient)
}

func (r *Registry) EpisodeTypes() []*Type {
	return r.filter(OwnerEpisode)
}

func (r *Registry) filter(o Owner) []*Type {
	var out []*Type
	for _, t := range r.types {
		if t.Owner == o {
			out = append(out, t)
		}
	}
	return out
}

// Models returns one empty instance per type, for migrations.
func (r *Registry) Models() []any {
	out := make([]any, 0, len(r.types))
	for _, t := range r.types {
		out = append(out, t.New())
	}
	return out
}

// LookupLists returns the sorted, distinct lookup lists referenced by fields.
func (r *Registry) LookupLists() []string {
	seen := map[string]struct{}{}
	for _, t := range r.types {
		for _, f := range t.Fields {
			if f.LookupList != "" {
				seen[f.LookupList] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
