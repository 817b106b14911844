// Package records declares the subrecord models this deployment ships and
// the lookup lists they draw on.
package records

import (
	"sort"
	"time"

	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain/subrecord"
)

// DefaultLookupLists are served by options even when no field references them.
var DefaultLookupLists = []string{
	"condition",
	"destination",
	"drug",
	"drug_route",
	"drug_frequency",
	"hospital",
	"ward",
	"microbiology_organism",
	"microbiology_test",
}

// Patient subrecords

type Demographics struct {
	subrecord.PatientSubrecord

	Name           string     `gorm:"column:name;type:varchar(255)" json:"name"`
	HospitalNumber string     `gorm:"column:hospital_number;type:varchar(255);index" json:"hospital_number"`
	NHSNumber      string     `gorm:"column:nhs_number;type:varchar(255)" json:"nhs_number" title:"NHS number"`
	DateOfBirth    *time.Time `gorm:"column:date_of_birth;type:date" json:"date_of_birth"`
	Gender         string     `gorm:"column:gender;type:varchar(100)" json:"gender"`
	Ethnicity      string     `gorm:"column:ethnicity;type:varchar(255)" json:"ethnicity"`
}

func (Demographics) TableName() string { return "demographics" }

type Allergies struct {
	subrecord.PatientSubrecord

	Drug        string `gorm:"column:drug;type:varchar(255)" json:"drug" lookup:"drug"`
	Provisional bool   `gorm:"column:provisional" json:"provisional"`
	Details     string `gorm:"column:details;type:text" json:"details"`
}

func (Allergies) TableName() string { return "allergies" }

type PastMedicalHistory struct {
	subrecord.PatientSubrecord

	Condition string `gorm:"column:condition;type:varchar(255)" json:"condition" lookup:"condition"`
	Year      string `gorm:"column:year;type:varchar(4)" json:"year"`
	Details   string `gorm:"column:details;type:text" json:"details"`
}

func (PastMedicalHistory) TableName() string { return "past_medical_history" }

// Episode subrecords

type Location struct {
	subrecord.EpisodeSubrecord

	Category string `gorm:"column:category;type:varchar(255)" json:"category"`
	Hospital string `gorm:"column:hospital;type:varchar(255)" json:"hospital" lookup:"hospital"`
	Ward     string `gorm:"column:ward;type:varchar(255)" json:"ward" lookup:"ward"`
	Bed      string `gorm:"column:bed;type:varchar(255)" json:"bed"`
}

func (Location) TableName() string { return "location" }

type Diagnosis struct {
	subrecord.EpisodeSubrecord

	Condition       string     `gorm:"column:condition;type:varchar(255)" json:"condition" lookup:"condition"`
	Provisional     bool       `gorm:"column:provisional" json:"provisional"`
	Details         string     `gorm:"column:details;type:text" json:"details"`
	DateOfDiagnosis *time.Time `gorm:"column:date_of_diagnosis;type:date" json:"date_of_diagnosis"`
}

func (Diagnosis) TableName() string { return "diagnosis" }

type Treatment struct {
	subrecord.EpisodeSubrecord

	Drug      string     `gorm:"column:drug;type:varchar(255)" json:"drug" lookup:"drug"`
	Dose      string     `gorm:"column:dose;type:varchar(255)" json:"dose"`
	Route     string     `gorm:"column:route;type:varchar(255)" json:"route" lookup:"drug_route"`
	Frequency string     `gorm:"column:frequency;type:varchar(255)" json:"frequency" lookup:"drug_frequency"`
	StartDate *time.Time `gorm:"column:start_date;type:date" json:"start_date"`
	EndDate   *time.Time `gorm:"column:end_date;type:date" json:"end_date"`
}

func (Treatment) TableName() string { return "treatment" }

type MicrobiologyTest struct {
	subrecord.EpisodeSubrecord

	Test        string     `gorm:"column:test;type:varchar(255)" json:"test" lookup:"microbiology_test"`
	DateOrdered *time.Time `gorm:"column:date_ordered;type:date" json:"date_ordered"`
	Organism    string     `gorm:"column:organism;type:varchar(255)" json:"organism" lookup:"microbiology_organism"`
	Result      string     `gorm:"column:result;type:varchar(255)" json:"result"`
	Details     string     `gorm:"column:details;type:text" json:"details"`
}

func (MicrobiologyTest) TableName() string { return "microbiology_test" }

type GeneralNote struct {
	subrecord.EpisodeSubrecord

	Date    *time.Time `gorm:"column:date;type:date" json:"date"`
	Comment string     `gorm:"column:comment;type:text" json:"comment"`
}

func (GeneralNote) TableName() string { return "general_note" }

// Registry returns a fresh registry holding every shipped subrecord type.
func Registry() *subrecord.Registry {
	r := subrecord.NewRegistry()

	r.MustRegister(&Demographics{}, subrecord.Options{Single: true, Icon: "fa fa-user", AdvancedSearchable: true})
	r.MustRegister(&Allergies{}, subrecord.Options{Icon: "fa fa-warning", AdvancedSearchable: true})
	r.MustRegister(&PastMedicalHistory{}, subrecord.Options{Icon: "fa fa-history", AdvancedSearchable: true})

	r.MustRegister(&Location{}, subrecord.Options{Single: true, Icon: "fa fa-map-marker"})
	r.MustRegister(&Diagnosis{}, subrecord.Options{Icon: "fa fa-stethoscope", AdvancedSearchable: true})
	r.MustRegister(&Treatment{}, subrecord.Options{Icon: "fa fa-flask", AdvancedSearchable: true})
	r.MustRegister(&MicrobiologyTest{}, subrecord.Options{Icon: "fa fa-crosshairs", AdvancedSearchable: true})
	r.MustRegister(&GeneralNote{}, subrecord.Options{Icon: "fa fa-info-circle"})

	return r
}

// LookupLists is DefaultLookupLists plus every list a registered field uses.
func LookupLists(r *subrecord.Registry) []string {
	seen := map[string]struct{}{}
	for _, l := range DefaultLookupLists {
		seen[l] = struct{}{}
	}
	for _, l := range r.LookupLists() {
		seen[l] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for l := range seen {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}
