package service

import (
	"context"

	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain"
)

type ProfileService struct {
	profiles ProfileRepository
}

func NewProfileService(profiles ProfileRepository) *ProfileService {
	return &ProfileService{profiles: profiles}
}

func (s *ProfileService) Get(ctx context.Context, caller *domain.Caller) (map[string]any, error) {
	if !caller.Authenticated() {
		return nil, ErrUnauthenticated
	}
	p, err := s.profiles.GetByUserID(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	return p.ToDict(), nil
}
