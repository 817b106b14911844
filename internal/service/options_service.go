package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain/lookuplist"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain/team"
)

const lookupListsCacheKey = "lookuplists"

// OptionsService assembles the metadata the client loads once per session:
// lookup lists, tag hierarchy, macros and micro test defaults.
type OptionsService struct {
	lookups           lookuplist.Repository
	teams             team.Repository
	profiles          ProfileRepository
	lists             []string
	microTestDefaults map[string]any
	cache             *cache.Cache
	log               *zap.Logger
}

func NewOptionsService(
	lookups lookuplist.Repository,
	teams team.Repository,
	profiles ProfileRepository,
	lists []string,
	microTestDefaults map[string]any,
	ttl time.Duration,
	log *zap.Logger,
) *OptionsService {
	if log == nil {
		log = zap.NewNop()
	}
	return &OptionsService{
		lookups:           lookups,
		teams:             teams,
		profiles:          profiles,
		lists:             lists,
		microTestDefaults: microTestDefaults,
		cache:             cache.New(ttl, 2*ttl),
		log:               log,
	}
}

func (s *OptionsService) Options(ctx context.Context, caller *domain.Caller) (map[string]any, error) {
	lists, err := s.lookupLists(ctx)
	if err != nil {
		return nil, err
	}

	data := make(map[string]any, len(lists)+5)
	for name, values := range lists {
		data[name] = values
	}
	data["micro_test_defaults"] = s.microTestDefaults

	hierarchy, display := map[string][]string{}, map[string]string{}
	if caller.Authenticated() {
		teams, err := s.visibleTeams(ctx, caller.UserID)
		if err != nil {
			return nil, err
		}
		hierarchy, display = team.Hierarchy(teams)
	}
	data["tag_hierarchy"] = hierarchy
	data["tag_display"] = display

	macros, err := s.lookups.Macros(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading macros: %w", err)
	}
	expanded := make([]map[string]any, 0, len(macros))
	for _, m := range macros {
		expanded = append(expanded, m.ToDict())
	}
	data["macros"] = expanded

	return data, nil
}

// Invalidate drops the cached lookup lists.
func (s *OptionsService) Invalidate() {
	s.cache.Delete(lookupListsCacheKey)
}

func (s *OptionsService) lookupLists(ctx context.Context) (map[string][]string, error) {
	if cached, ok := s.cache.Get(lookupListsCacheKey); ok {
		return cached.(map[string][]string), nil
	}
	items, err := s.lookups.Items(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading lookup lists: %w", err)
	}
	lists := lookuplist.Options(s.lists, items)
	s.cache.SetDefault(lookupListsCacheKey, lists)
	s.log.Debug("lookup lists cached", zap.Int("items", len(items)))
	return lists, nil
}

func (s *OptionsService) visibleTeams(ctx context.Context, userID uint) ([]team.Team, error) {
	restrictedOnly := false
	p, err := s.profiles.GetByUserID(ctx, userID)
	switch {
	case err == nil:
		restrictedOnly = p.RestrictedOnly
	case !errors.Is(err, domain.ErrProfileNotFound):
		return nil, err
	}
	teams, err := s.teams.ForUser(ctx, userID, restrictedOnly)
	if err != nil {
		return nil, fmt.Errorf("loading teams: %w", err)
	}
	return teams, nil
}
