package team

import "time"

// MineTeam is the per-user tag. Its taggings carry the tagging user.
const MineTeam = "mine"

// Team is a clinical service an episode can be tagged with.
type Team struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	Name       string `gorm:"column:name;type:varchar(250);uniqueIndex;not null"`
	Title      string `gorm:"column:title;type:varchar(250);not null"`
	ParentID   *uint  `gorm:"column:parent_id;index"`
	Parent     *Team  `gorm:"foreignKey:ParentID"`
	Active     bool   `gorm:"column:active;index"`
	Restricted bool   `gorm:"column:restricted"`
	Order      int    `gorm:"column:order"`
}

func (Team) TableName() string {
	return "teams"
}

// Hierarchy builds the tag_hierarchy and tag_display maps the client uses
// to render the team picker. Sub teams whose parent is not visible are dropped.
func Hierarchy(teams []Team) (map[string][]string, map[string]string) {
	hierarchy := map[string][]string{}
	display := map[string]string{}
	for _, t := range teams {
		if t.ParentID != nil {
			continue
		}
		display[t.Name] = t.Title
		subs := []string{}
		for _, st := range teams {
			if st.ParentID != nil && *st.ParentID == t.ID {
				subs = append(subs, st.Name)
				display[st.Name] = st.Title
			}
		}
		hierarchy[t.Name] = subs
	}
	return hierarchy, display
}

// Grant gives a user sight of a restricted team.
type Grant struct {
	UserID uint `gorm:"primaryKey;autoIncrement:false"`
	TeamID uint `gorm:"primaryKey;autoIncrement:false"`
}

func (Grant) TableName() string {
	return "team_grants"
}
