package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain/episode"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain/subrecord"
)

// SubrecordService serves every registered subrecord type.
type SubrecordService struct {
	Deps
	serializer *Serializer
	guard      *Guard
}

func NewSubrecordService(d Deps) *SubrecordService {
	d = d.withDefaults()
	return &SubrecordService{Deps: d, serializer: d.serializer(), guard: NewGuard(d.Profiles)}
}

// Create adds a subrecord to the episode named by data["episode_id"] and
// returns the episode as it now stands. Patient subrecords attach to the
// episode's patient.
func (s *SubrecordService) Create(ctx context.Context, caller *domain.Caller, t *subrecord.Type, data map[string]any) (map[string]any, error) {
	if err := s.guard.CheckWritable(ctx, caller); err != nil {
		return nil, err
	}

	episodeID, ok := idFrom(data["episode_id"])
	if !ok {
		return nil, episode.ErrNonexistentEpisode
	}
	ep, err := s.Episodes.GetByID(ctx, episodeID)
	if errors.Is(err, episode.ErrEpisodeNotFound) {
		return nil, episode.ErrNonexistentEpisode
	}
	if err != nil {
		return nil, err
	}
	pre, err := s.serializer.EpisodeDict(ctx, ep, caller)
	if err != nil {
		return nil, err
	}

	values := make(map[string]any, len(data))
	for k, v := range data {
		values[k] = v
	}
	rec := t.New()
	rec.SetOwnerID(ep.ID)
	if t.Owner == subrecord.OwnerPatient {
		delete(values, "episode_id")
		rec.SetOwnerID(ep.PatientID)
	}

	if err := subrecord.UpdateFromDict(t, rec, values); err != nil {
		return nil, err
	}
	if err := s.Store.Create(ctx, t, rec); err != nil {
		return nil, err
	}

	post, err := s.serializer.EpisodeDict(ctx, ep, caller)
	if err != nil {
		return nil, err
	}
	s.written(ctx, caller, t, rec, domain.ActionCreate)
	s.Notifier.Change(pre, post)
	return post, nil
}

func (s *SubrecordService) Get(ctx context.Context, t *subrecord.Type, id uint) (map[string]any, error) {
	rec, err := s.Store.Get(ctx, t, id)
	if err != nil {
		return nil, err
	}
	return subrecord.ToDict(t, rec), nil
}

// Update applies data to the item. data must carry the item's current
// consistency_token.
func (s *SubrecordService) Update(ctx context.Context, caller *domain.Caller, t *subrecord.Type, id uint, data map[string]any) (map[string]any, error) {
	if err := s.guard.CheckWritable(ctx, caller); err != nil {
		return nil, err
	}

	rec, err := s.Store.Get(ctx, t, id)
	if err != nil {
		return nil, err
	}
	pre, err := s.serializer.OwnerDict(ctx, t, rec.OwnerID(), caller)
	if err != nil {
		return nil, err
	}

	previous := rec.GetConsistencyToken()
	if err := subrecord.UpdateFromDict(t, rec, data); err != nil {
		s.conflict(err)
		return nil, err
	}
	if err := s.Store.Save(ctx, t, rec, previous); err != nil {
		s.conflict(err)
		return nil, err
	}

	post, err := s.serializer.OwnerDict(ctx, t, rec.OwnerID(), caller)
	if err != nil {
		return nil, err
	}
	s.written(ctx, caller, t, rec, domain.ActionUpdate)
	s.Notifier.Change(pre, post)
	return subrecord.ToDict(t, rec), nil
}

func (s *SubrecordService) Delete(ctx context.Context, caller *domain.Caller, t *subrecord.Type, id uint) error {
	if err := s.guard.CheckWritable(ctx, caller); err != nil {
		return err
	}

	rec, err := s.Store.Get(ctx, t, id)
	if err != nil {
		return err
	}
	pre, err := s.serializer.OwnerDict(ctx, t, rec.OwnerID(), caller)
	if err != nil {
		return err
	}
	if err := s.Store.Delete(ctx, t, id); err != nil {
		return err
	}
	post, err := s.serializer.OwnerDict(ctx, t, rec.OwnerID(), caller)
	if err != nil {
		return fmt.Errorf("rendering %s after delete: %w", subrecord.Describe(t, rec), err)
	}
	s.written(ctx, caller, t, rec, domain.ActionDelete)
	s.Notifier.Change(pre, post)
	return nil
}

func (s *SubrecordService) conflict(err error) {
	if errors.Is(err, domain.ErrConsistency) {
		s.Metrics.ConsistencyConflict()
	}
}

func (s *SubrecordService) written(ctx context.Context, caller *domain.Caller, t *subrecord.Type, rec subrecord.Record, action domain.AuditAction) {
	s.Metrics.SubrecordWritten(t.APIName, string(action))
	s.Audit.LogAsync(ctx, auditEntry(caller, action, t.APIName, formatID(rec.GetID())))
	s.Log.Debug("subrecord written",
		zap.String("item", subrecord.Describe(t, rec)),
		zap.String("action", string(action)),
	)
}
