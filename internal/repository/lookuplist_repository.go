package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain/lookuplist"
)

type LookupListRepository struct {
	db *gorm.DB
}

func NewLookupListRepository(db *gorm.DB) *LookupListRepository {
	return &LookupListRepository{db: db}
}

func (r *LookupListRepository) Items(ctx context.Context) ([]lookuplist.Item, error) {
	var items []lookuplist.Item
	err := conn(ctx, r.db).
		Preload("Synonyms").
		Order("list ASC").Order("name ASC").
		Find(&items).Error
	return items, err
}

func (r *LookupListRepository) Ensure(ctx context.Context, list, name string, synonyms ...string) (*lookuplist.Item, error) {
	db := conn(ctx, r.db)
	item := lookuplist.Item{List: list, Name: name}
	if err := db.Where(lookuplist.Item{List: list, Name: name}).FirstOrCreate(&item).Error; err != nil {
		return nil, err
	}
	for _, s := range synonyms {
		syn := lookuplist.Synonym{ItemID: item.ID, Name: s}
		if err := db.Where(lookuplist.Synonym{ItemID: item.ID, Name: s}).FirstOrCreate(&syn).Error; err != nil {
			return nil, err
		}
	}
	return &item, nil
}

func (r *LookupListRepository) Macros(ctx context.Context) ([]lookuplist.Macro, error) {
	var macros []lookuplist.Macro
	err := conn(ctx, r.db).Order("title ASC").Find(&macros).Error
	return macros, err
}

// SaveMacro inserts the macro or replaces the expansion of the one with the same title.
func (r *LookupListRepository) SaveMacro(ctx context.Context, m *lookuplist.Macro) error {
	return conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "title"}},
		DoUpdates: clause.AssignmentColumns([]string{"expanded"}),
	}).Create(m).Error
}
