package episode

import "context"

// ListQuery filters episode lists. Zero values mean no filter.
type ListQuery struct {
	Tag    string
	UserID *uint // owner for the "mine" tag
	Active *bool
}

type Repository interface {
	// Create persists a new episode with its taggings.
	Create(ctx context.Context, e *Episode) error

	// GetByID loads an episode with its taggings and their teams.
	// Returns ErrEpisodeNotFound if not found.
	GetByID(ctx context.Context, id uint) (*Episode, error)

	List(ctx context.Context, q ListQuery) ([]*Episode, error)

	ListByPatient(ctx context.Context, patientID uint) ([]*Episode, error)

	// Update saves the episode columns when the stored token still equals
	// previousToken. Returns domain.ErrConsistency otherwise.
	Update(ctx context.Context, e *Episode, previousToken string) error

	// ApplyTags writes a tag plan in one transaction.
	ApplyTags(ctx context.Context, plan TagPlan) error
}
