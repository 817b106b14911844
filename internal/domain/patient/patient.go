package patient

import "time"

// Patient is the person an episode of care belongs to. Everything clinical
// about them lives in patient subrecords.
type Patient struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Patient) TableName() string {
	return "patients"
}
