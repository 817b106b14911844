package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain/subrecord"
)

// SubrecordStore persists any registered subrecord type.
type SubrecordStore struct {
	db *gorm.DB
}

func NewSubrecordStore(db *gorm.DB) *SubrecordStore {
	return &SubrecordStore{db: db}
}

// Create inserts rec. A second row for a singleton type's owner hits the
// unique owner index and returns subrecord.ErrSingletonExists.
func (s *SubrecordStore) Create(ctx context.Context, t *subrecord.Type, rec subrecord.Record) error {
	if err := conn(ctx, s.db).Create(rec).Error; err != nil {
		if t.Single && isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", subrecord.ErrSingletonExists, t.APIName)
		}
		return fmt.Errorf("creating %s: %w", t.APIName, err)
	}
	return nil
}

func (s *SubrecordStore) Get(ctx context.Context, t *subrecord.Type, id uint) (subrecord.Record, error) {
	rec := t.New()
	err := conn(ctx, s.db).First(rec, id).Error
	if isNotFound(err) {
		return nil, subrecord.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *SubrecordStore) ListByOwner(ctx context.Context, t *subrecord.Type, ownerID uint) ([]subrecord.Record, error) {
	slice := t.NewSlice()
	err := conn(ctx, s.db).
		Where(t.Owner.Key()+" = ?", ownerID).
		Order("id ASC").
		Find(slice).Error
	if err != nil {
		return nil, err
	}
	return t.Records(slice), nil
}

// Save writes every field of rec when the stored token still equals
// previousToken, and returns domain.ErrConsistency otherwise.
func (s *SubrecordStore) Save(ctx context.Context, t *subrecord.Type, rec subrecord.Record, previousToken string) error {
	db := conn(ctx, s.db)
	res := db.Model(rec).
		Where("consistency_token = ?", previousToken).
		Select("*").
		Omit("id", "created_at", t.Owner.Key()).
		Updates(rec)
	if res.Error != nil {
		return fmt.Errorf("saving %s: %w", t.APIName, res.Error)
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := db.Model(t.New()).Where("id = ?", rec.GetID()).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return subrecord.ErrNotFound
		}
		return domain.ErrConsistency
	}
	return nil
}

func (s *SubrecordStore) Delete(ctx context.Context, t *subrecord.Type, id uint) error {
	res := conn(ctx, s.db).Delete(t.New(), id)
	if res.Error != nil {
		return fmt.Errorf("deleting %s: %w", t.APIName, res.Error)
	}
	if res.RowsAffected == 0 {
		return subrecord.ErrNotFound
	}
	return nil
}
