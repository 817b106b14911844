package episode

import (
	"time"

	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain/team"
)

// Episode is one episode of care for a patient.
type Episode struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PatientID       uint       `gorm:"column:patient_id;not null;index"`
	Active          bool       `gorm:"column:active;index"`
	DateOfAdmission *time.Time `gorm:"column:date_of_admission;type:date"`
	DischargeDate   *time.Time `gorm:"column:discharge_date;type:date"`

	ConsistencyToken string `gorm:"column:consistency_token;type:varchar(8);not null"`

	Taggings []Tagging `gorm:"foreignKey:EpisodeID"`
}

func (Episode) TableName() string {
	return "episodes"
}

// Tagging links an episode to a team. Removing a tag archives the row so
// that history survives.
type Tagging struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	EpisodeID uint      `gorm:"column:episode_id;not null;index"`
	TeamID    uint      `gorm:"column:team_id;not null;index"`
	Team      team.Team `gorm:"foreignKey:TeamID"`
	UserID    *uint     `gorm:"column:user_id;index"`
	Archived  bool      `gorm:"column:archived;index"`
}

func (Tagging) TableName() string {
	return "taggings"
}

// visibleTo reports whether the tagging counts for user. "mine" tags only
// count for the user who set them.
func (t *Tagging) visibleTo(userID *uint) bool {
	if t.Team.Name != team.MineTeam {
		return true
	}
	return userID != nil && t.UserID != nil && *t.UserID == *userID
}

// TagNames returns the live tag names for the episode as user sees them.
// Taggings must have Team loaded.
func (e *Episode) TagNames(userID *uint) []string {
	names := []string{}
	for i := range e.Taggings {
		t := &e.Taggings[i]
		if t.Archived || !t.visibleTo(userID) {
			continue
		}
		names = append(names, t.Team.Name)
	}
	return names
}

// TaggingDict is the {tag: true, ..., "id": episode_id} shape the client expects.
func (e *Episode) TaggingDict(userID *uint) map[string]any {
	out := map[string]any{"id": e.ID}
	for _, n := range e.TagNames(userID) {
		out[n] = true
	}
	return out
}

var episodeFields = map[string]struct{}{
	"id":                {},
	"consistency_token": {},
	"patient_id":        {},
	"active":            {},
	"date_of_admission": {},
	"discharge_date":    {},
}

// UpdateFromDict applies the writable episode fields from data. Existing
// episodes must present the stored consistency token.
func (e *Episode) UpdateFromDict(data map[string]any) error {
	if e.ID != 0 && e.ConsistencyToken != "" {
		raw, ok := data["consistency_token"]
		if !ok {
			return domain.ErrMissingConsistencyToken
		}
		if token, _ := raw.(string); token != e.ConsistencyToken {
			return domain.ErrConsistency
		}
	}

	var unexpected []string
	for k := range data {
		if _, ok := episodeFields[k]; !ok {
			unexpected = append(unexpected, k)
		}
	}
	if len(unexpected) > 0 {
		return domain.UnexpectedFields(unexpected...)
	}

	active := e.Active
	if raw, ok := data["active"]; ok {
		b, isBool := raw.(bool)
		if !isBool && raw != nil {
			return domain.InvalidValue("active", errNotBool)
		}
		active = b
	}
	admitted := e.DateOfAdmission
	if raw, ok := data["date_of_admission"]; ok {
		d, err := domain.ParseDate(raw)
		if err != nil {
			return domain.InvalidValue("date_of_admission", err)
		}
		admitted = d
	}
	discharged := e.DischargeDate
	if raw, ok := data["discharge_date"]; ok {
		d, err := domain.ParseDate(raw)
		if err != nil {
			return domain.InvalidValue("discharge_date", err)
		}
		discharged = d
	}

	e.Active = active
	e.DateOfAdmission = admitted
	e.DischargeDate = discharged
	e.ConsistencyToken = domain.NewConsistencyToken()
	return nil
}

// ToDict renders the episode's own columns. Subrecords and tagging are
// added by the serializer.
func (e *Episode) ToDict() map[string]any {
	return map[string]any{
		"id":                e.ID,
		"patient_id":        e.PatientID,
		"active":            e.Active,
		"date_of_admission": domain.FormatDate(e.DateOfAdmission),
		"discharge_date":    domain.FormatDate(e.DischargeDate),
		"consistency_token": e.ConsistencyToken,
	}
}

// TagPlan is the set of tagging rows to write for a tag change.
type TagPlan struct {
	Archive   []Tagging
	Unarchive []Tagging
	Create    []Tagging
}

func (p TagPlan) Empty() bool {
	return len(p.Archive) == 0 && len(p.Unarchive) == 0 && len(p.Create) == 0
}

// PlanTags works out how to move the episode from its current tags to want.
// Removed tags are archived; added tags reuse an archived row when one exists.
// Taggings must have Team loaded; want must hold every team named in it.
func (e *Episode) PlanTags(want []team.Team, userID *uint) TagPlan {
	var plan TagPlan
	wanted := make(map[string]bool, len(want))
	for _, t := range want {
		wanted[t.Name] = true
	}
	current := map[string]bool{}
	for _, n := range e.TagNames(userID) {
		current[n] = true
	}

	for i := range e.Taggings {
		t := e.Taggings[i]
		if t.Archived || !t.visibleTo(userID) || wanted[t.Team.Name] {
			continue
		}
		t.Archived = true
		plan.Archive = append(plan.Archive, t)
	}

	for _, tm := range want {
		if current[tm.Name] {
			continue
		}
		personal := tm.Name == team.MineTeam
		var owner *uint
		if personal {
			owner = userID
		}
		if archived := e.archivedTagging(tm.ID, owner, personal); archived != nil {
			archived.Archived = false
			plan.Unarchive = append(plan.Unarchive, *archived)
			continue
		}
		plan.Create = append(plan.Create, Tagging{EpisodeID: e.ID, TeamID: tm.ID, Team: tm, UserID: owner})
	}
	return plan
}

// archivedTagging finds an archived tagging to revive. A personal tagging
// only matches its exact owner; an anonymous caller owns none but its own.
func (e *Episode) archivedTagging(teamID uint, owner *uint, personal bool) *Tagging {
	for i := range e.Taggings {
		t := e.Taggings[i]
		if !t.Archived || t.TeamID != teamID {
			continue
		}
		if personal && !sameOwner(t.UserID, owner) {
			continue
		}
		return &t
	}
	return nil
}

func sameOwner(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
