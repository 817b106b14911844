package subrecord

import "time"

// Owner says which aggregate a subrecord hangs off.
type Owner int

const (
	OwnerEpisode Owner = iota + 1
	OwnerPatient
)

// Key is the foreign key name used in dicts and columns.
func (o Owner) Key() string {
	if o == OwnerPatient {
		return "patient_id"
	}
	return "episode_id"
}

func (o Owner) String() string {
	if o == OwnerPatient {
		return "patient"
	}
	return "episode"
}

// Record is implemented by every concrete subrecord model through the
// embedded EpisodeSubrecord or PatientSubrecord.
type Record interface {
	GetID() uint
	GetConsistencyToken() string
	SetConsistencyToken(token string)
	Owner() Owner
	OwnerID() uint
	SetOwnerID(id uint)
}

type Base struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`

	ConsistencyToken string `gorm:"column:consistency_token;type:varchar(8);not null" json:"consistency_token"`
}

func (b *Base) GetID() uint                      { return b.ID }
func (b *Base) GetConsistencyToken() string      { return b.ConsistencyToken }
func (b *Base) SetConsistencyToken(token string) { b.ConsistencyToken = token }

type EpisodeSubrecord struct {
	Base
	EpisodeID uint `gorm:"column:episode_id;not null;index" json:"episode_id"`
}

func (s *EpisodeSubrecord) Owner() Owner       { return OwnerEpisode }
func (s *EpisodeSubrecord) OwnerID() uint      { return s.EpisodeID }
func (s *EpisodeSubrecord) SetOwnerID(id uint) { s.EpisodeID = id }

type PatientSubrecord struct {
	Base
	PatientID uint `gorm:"column:patient_id;not null;index" json:"patient_id"`
}

func (s *PatientSubrecord) Owner() Owner       { return OwnerPatient }
func (s *PatientSubrecord) OwnerID() uint      { return s.PatientID }
func (s *PatientSubrecord) SetOwnerID(id uint) { s.PatientID = id }
