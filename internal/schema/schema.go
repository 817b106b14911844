// Package schema renders the record and list metadata the client builds
// its forms and list views from.
package schema

import (
	"fmt"

	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/application"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain/subrecord"
)

type Schema struct {
	app      *application.Application
	registry *subrecord.Registry
}

// New checks that every list schema names a registered subrecord type.
func New(app *application.Application, registry *subrecord.Registry) (*Schema, error) {
	for list, names := range app.ListSchemas {
		for _, name := range names {
			if _, ok := registry.Lookup(name); !ok {
				return nil, fmt.Errorf("list schema %q: %w: %s", list, subrecord.ErrUnknownType, name)
			}
		}
	}
	return &Schema{app: app, registry: registry}, nil
}

func (s *Schema) Flows() map[string]any {
	return s.app.Flows
}

func (s *Schema) MicroTestDefaults() map[string]any {
	return s.app.MicroTestDefaults
}

// ListRecords maps every api name to its column schema.
func (s *Schema) ListRecords() map[string]any {
	out := map[string]any{}
	for _, t := range s.registry.Types() {
		out[t.APIName] = t.Schema()
	}
	return out
}

// ListSchemas maps each list to the column schemas it displays, in order.
func (s *Schema) ListSchemas() map[string]any {
	out := make(map[string]any, len(s.app.ListSchemas))
	for list, names := range s.app.ListSchemas {
		cols := make([]map[string]any, 0, len(names))
		for _, name := range names {
			t, _ := s.registry.Lookup(name)
			cols = append(cols, t.Schema())
		}
		out[list] = cols
	}
	return out
}

// ExtractSchema lists the columns offered by the extract query builder.
func (s *Schema) ExtractSchema() []map[string]any {
	out := []map[string]any{}
	for _, t := range s.registry.Types() {
		if t.AdvancedSearchable {
			out = append(out, t.Schema())
		}
	}
	return out
}
