package patient

import "context"

type Repository interface {
	// Create persists a new patient and fills in its ID.
	Create(ctx context.Context, p *Patient) error

	// GetByID retrieves a patient by primary key. Returns ErrPatientNotFound if not found.
	GetByID(ctx context.Context, id uint) (*Patient, error)
}
