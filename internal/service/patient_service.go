package service

import (
	"context"

	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain"
)

type PatientService struct {
	Deps
	serializer *Serializer
}

func NewPatientService(d Deps) *PatientService {
	d = d.withDefaults()
	return &PatientService{Deps: d, serializer: d.serializer()}
}

func (s *PatientService) Get(ctx context.Context, caller *domain.Caller, id uint) (map[string]any, error) {
	p, err := s.Patients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Audit.LogAsync(ctx, auditEntry(caller, domain.ActionRead, "patient", formatID(id)))
	return s.serializer.PatientDict(ctx, p, caller)
}
