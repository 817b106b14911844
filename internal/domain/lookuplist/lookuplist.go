package lookuplist

import "sort"

// Item is one entry of a named lookup list such as "drug" or "condition".
type Item struct {
	ID   uint   `gorm:"primaryKey"`
	List string `gorm:"column:list;type:varchar(100);not null;uniqueIndex:idx_lookup_list_name"`
	Name string `gorm:"column:name;type:varchar(255);not null;uniqueIndex:idx_lookup_list_name"`

	Synonyms []Synonym `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE"`
}

func (Item) TableName() string {
	return "lookup_list_items"
}

// Synonym is an alternative spelling that resolves to its item's list.
type Synonym struct {
	ID     uint   `gorm:"primaryKey"`
	ItemID uint   `gorm:"column:item_id;not null;index"`
	Name   string `gorm:"column:name;type:varchar(255);not null"`
}

func (Synonym) TableName() string {
	return "synonyms"
}

// Macro is a text expansion offered by free-text inputs.
type Macro struct {
	ID       uint   `gorm:"primaryKey"`
	Title    string `gorm:"column:title;type:varchar(200);not null;uniqueIndex"`
	Expanded string `gorm:"column:expanded;type:text;not null"`
}

func (Macro) TableName() string {
	return "macros"
}

func (m Macro) ToDict() map[string]any {
	return map[string]any{"label": m.Title, "expanded": m.Expanded}
}

// Options maps each list to its sorted entry names, synonyms included.
// Every list in lists is present even when it has no entries.
func Options(lists []string, items []Item) map[string][]string {
	out := make(map[string][]string, len(lists))
	for _, l := range lists {
		out[l] = []string{}
	}
	for _, it := range items {
		if _, ok := out[it.List]; !ok {
			continue
		}
		out[it.List] = append(out[it.List], it.Name)
		for _, s := range it.Synonyms {
			out[it.List] = append(out[it.List], s.Name)
		}
	}
	for l := range out {
		sort.Strings(out[l])
	}
	return out
}
