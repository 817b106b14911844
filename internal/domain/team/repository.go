package team

import "context"

type Repository interface {
	Create(ctx context.Context, t *Team) error

	// GetByNames returns the teams for names. Returns ErrTeamNotFound naming
	// the first name with no team.
	GetByNames(ctx context.Context, names []string) ([]Team, error)

	// ForUser returns the active teams visible to a user, ordered by Order then name.
	// Restricted teams are only visible when granted. restrictedOnly hides
	// every unrestricted team.
	ForUser(ctx context.Context, userID uint, restrictedOnly bool) ([]Team, error)

	// Grant makes a restricted team visible to a user.
	Grant(ctx context.Context, userID uint, teamID uint) error
}
