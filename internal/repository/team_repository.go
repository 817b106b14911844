package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain/team"
)

type TeamRepository struct {
	db *gorm.DB
}

func NewTeamRepository(db *gorm.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) Create(ctx context.Context, t *team.Team) error {
	return conn(ctx, r.db).Omit("Parent").Create(t).Error
}

// GetByNames returns teams in the order of names.
func (r *TeamRepository) GetByNames(ctx context.Context, names []string) ([]team.Team, error) {
	if len(names) == 0 {
		return []team.Team{}, nil
	}
	var found []team.Team
	if err := conn(ctx, r.db).Where("name IN ?", names).Find(&found).Error; err != nil {
		return nil, err
	}
	byName := make(map[string]team.Team, len(found))
	for _, t := range found {
		byName[t.Name] = t
	}
	out := make([]team.Team, 0, len(names))
	for _, n := range names {
		t, ok := byName[n]
		if !ok {
			return nil, fmt.Errorf("%w: %s", team.ErrTeamNotFound, n)
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *TeamRepository) ForUser(ctx context.Context, userID uint, restrictedOnly bool) ([]team.Team, error) {
	granted := r.db.Model(&team.Grant{}).Select("team_id").Where("user_id = ?", userID)

	q := conn(ctx, r.db).Where("active = ?", true)
	if restrictedOnly {
		q = q.Where("restricted = ? AND id IN (?)", true, granted)
	} else {
		q = q.Where("(restricted = ? OR id IN (?))", false, granted)
	}

	var teams []team.Team
	err := q.Order(clause.OrderByColumn{Column: clause.Column{Name: "order"}}).
		Order("name ASC").
		Find(&teams).Error
	return teams, err
}

func (r *TeamRepository) Grant(ctx context.Context, userID uint, teamID uint) error {
	return conn(ctx, r.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&team.Grant{UserID: userID, TeamID: teamID}).Error
}
