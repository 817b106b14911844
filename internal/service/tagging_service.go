package service

import (
	"context"
	"slices"
	"sort"

	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain/episode"
)

type TaggingService struct {
	Deps
	serializer *Serializer
	guard      *Guard
}

func NewTaggingService(d Deps) *TaggingService {
	d = d.withDefaults()
	return &TaggingService{Deps: d, serializer: d.serializer(), guard: NewGuard(d.Profiles)}
}

func (s *TaggingService) Get(ctx context.Context, caller *domain.Caller, episodeID uint) (map[string]any, error) {
	ep, err := s.Episodes.GetByID(ctx, episodeID)
	if err != nil {
		return nil, err
	}
	return ep.TaggingDict(caller.ID()), nil
}

// Update sets the episode's tags to the keys of data with truthy values.
func (s *TaggingService) Update(ctx context.Context, caller *domain.Caller, episodeID uint, data map[string]any) (map[string]any, error) {
	if err := s.guard.CheckWritable(ctx, caller); err != nil {
		return nil, err
	}
	ep, err := s.Episodes.GetByID(ctx, episodeID)
	if err != nil {
		return nil, err
	}
	ep, err = s.setTags(ctx, caller, ep, truthyKeys(data))
	if err != nil {
		return nil, err
	}
	return ep.TaggingDict(caller.ID()), nil
}

// AddTag tags the episode with name unless it already carries it.
func (s *TaggingService) AddTag(ctx context.Context, caller *domain.Caller, episodeID uint, name string) error {
	ep, err := s.Episodes.GetByID(ctx, episodeID)
	if err != nil {
		return err
	}
	current := ep.TagNames(caller.ID())
	if slices.Contains(current, name) {
		return nil
	}
	_, err = s.setTags(ctx, caller, ep, append(current, name))
	return err
}

func (s *TaggingService) setTags(ctx context.Context, caller *domain.Caller, ep *episode.Episode, names []string) (*episode.Episode, error) {
	teams, err := s.Teams.GetByNames(ctx, names)
	if err != nil {
		return nil, err
	}
	pre, err := s.serializer.EpisodeDict(ctx, ep, caller)
	if err != nil {
		return nil, err
	}

	plan := ep.PlanTags(teams, caller.ID())
	if err := s.Episodes.ApplyTags(ctx, plan); err != nil {
		return nil, err
	}

	ep, err = s.Episodes.GetByID(ctx, ep.ID)
	if err != nil {
		return nil, err
	}
	post, err := s.serializer.EpisodeDict(ctx, ep, caller)
	if err != nil {
		return nil, err
	}
	s.Notifier.Transfer(pre, post)
	s.Audit.LogAsync(ctx, auditEntry(caller, domain.ActionUpdate, "tagging", formatID(ep.ID)))
	s.Log.Info("episode tags changed",
		zap.Uint("episode_id", ep.ID),
		zap.Strings("tags", names),
		zap.Int("archived", len(plan.Archive)),
		zap.Int("added", len(plan.Create)+len(plan.Unarchive)),
	)
	return ep, nil
}

// truthyKeys returns the sorted keys of data whose values are truthy,
// ignoring "id".
func truthyKeys(data map[string]any) []string {
	names := []string{}
	for k, v := range data {
		if k == "id" || !domain.Truthy(v) {
			continue
		}
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
