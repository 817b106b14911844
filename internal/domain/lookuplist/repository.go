package lookuplist

import "context"

type Repository interface {
	// Items returns every lookup list item with its synonyms.
	Items(ctx context.Context) ([]Item, error)

	// Ensure creates the item if missing and adds any synonyms it lacks.
	Ensure(ctx context.Context, list, name string, synonyms ...string) (*Item, error)

	Macros(ctx context.Context) ([]Macro, error)

	SaveMacro(ctx context.Context, m *Macro) error
}
