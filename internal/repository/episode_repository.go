package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain/episode"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain/team"
)

type EpisodeRepository struct {
	db *gorm.DB
}

func NewEpisodeRepository(db *gorm.DB) *EpisodeRepository {
	return &EpisodeRepository{db: db}
}

func (r *EpisodeRepository) Create(ctx context.Context, e *episode.Episode) error {
	db := conn(ctx, r.db)
	if err := db.Omit(clause.Associations).Create(e).Error; err != nil {
		return fmt.Errorf("creating episode: %w", err)
	}
	for i := range e.Taggings {
		e.Taggings[i].EpisodeID = e.ID
		if err := db.Omit("Team").Create(&e.Taggings[i]).Error; err != nil {
			return fmt.Errorf("creating tagging: %w", err)
		}
	}
	return nil
}

func (r *EpisodeRepository) withTaggings(db *gorm.DB) *gorm.DB {
	return db.Preload("Taggings", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	}).Preload("Taggings.Team")
}

func (r *EpisodeRepository) GetByID(ctx context.Context, id uint) (*episode.Episode, error) {
	var e episode.Episode
	err := r.withTaggings(conn(ctx, r.db)).First(&e, id).Error
	if isNotFound(err) {
		return nil, episode.ErrEpisodeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EpisodeRepository) List(ctx context.Context, q episode.ListQuery) ([]*episode.Episode, error) {
	db := conn(ctx, r.db)
	query := r.withTaggings(db).Model(&episode.Episode{})

	if q.Tag != "" {
		tagged := r.db.Model(&episode.Tagging{}).
			Select("taggings.episode_id").
			Joins("JOIN teams ON teams.id = taggings.team_id").
			Where("teams.name = ? AND taggings.archived = ?", q.Tag, false)
		if q.Tag == team.MineTeam {
			if q.UserID == nil {
				return []*episode.Episode{}, nil
			}
			tagged = tagged.Where("taggings.user_id = ?", *q.UserID)
		}
		query = query.Where("episodes.id IN (?)", tagged)
	}
	if q.Active != nil {
		query = query.Where("episodes.active = ?", *q.Active)
	}

	var out []*episode.Episode
	if err := query.Order("episodes.id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *EpisodeRepository) ListByPatient(ctx context.Context, patientID uint) ([]*episode.Episode, error) {
	var out []*episode.Episode
	err := r.withTaggings(conn(ctx, r.db)).
		Where("patient_id = ?", patientID).
		Order("id ASC").
		Find(&out).Error
	return out, err
}

// Update writes the episode columns only when nobody has changed the row
// since previousToken was read.
func (r *EpisodeRepository) Update(ctx context.Context, e *episode.Episode, previousToken string) error {
	db := conn(ctx, r.db)
	res := db.Model(&episode.Episode{}).
		Where("id = ? AND consistency_token = ?", e.ID, previousToken).
		Updates(map[string]any{
			"active":            e.Active,
			"date_of_admission": e.DateOfAdmission,
			"discharge_date":    e.DischargeDate,
			"consistency_token": e.ConsistencyToken,
			"updated_at":        time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := db.Model(&episode.Episode{}).Where("id = ?", e.ID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return episode.ErrEpisodeNotFound
		}
		return domain.ErrConsistency
	}
	return nil
}

func (r *EpisodeRepository) ApplyTags(ctx context.Context, plan episode.TagPlan) error {
	if plan.Empty() {
		return nil
	}
	apply := func(db *gorm.DB) error {
		for _, t := range append(plan.Archive, plan.Unarchive...) {
			err := db.Model(&episode.Tagging{}).Where("id = ?", t.ID).Updates(map[string]any{
				"archived":   t.Archived,
				"updated_at": time.Now().UTC(),
			}).Error
			if err != nil {
				return fmt.Errorf("updating tagging %d: %w", t.ID, err)
			}
		}
		for i := range plan.Create {
			if err := db.Omit("Team").Create(&plan.Create[i]).Error; err != nil {
				return fmt.Errorf("creating tagging: %w", err)
			}
		}
		return nil
	}
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return apply(tx.WithContext(ctx))
	}
	return r.db.WithContext(ctx).Transaction(apply)
}
