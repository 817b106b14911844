package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain/episode"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain/subrecord"
)

type EpisodeService struct {
	Deps
	serializer *Serializer
	guard      *Guard
}

func NewEpisodeService(d Deps) *EpisodeService {
	d = d.withDefaults()
	return &EpisodeService{Deps: d, serializer: d.serializer(), guard: NewGuard(d.Profiles)}
}

func (s *EpisodeService) Get(ctx context.Context, caller *domain.Caller, id uint) (map[string]any, error) {
	ep, err := s.Episodes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.serializer.EpisodeDict(ctx, ep, caller)
}

// List returns the episodes tagged with tag (any tag when empty), optionally
// filtered on active.
func (s *EpisodeService) List(ctx context.Context, caller *domain.Caller, tag string, active *bool) ([]map[string]any, error) {
	eps, err := s.Episodes.List(ctx, episode.ListQuery{Tag: tag, UserID: caller.ID(), Active: active})
	if err != nil {
		return nil, fmt.Errorf("listing episodes: %w", err)
	}
	out := make([]map[string]any, 0, len(eps))
	for _, ep := range eps {
		d, err := s.serializer.EpisodeDict(ctx, ep, caller)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// Create admits a new episode. data may name an existing patient_id; without
// one a patient is created. Singleton subrecords are created for the new
// rows and take their initial values from a key of the same name, e.g.
// "demographics". "tagging" holds the initial tags.
func (s *EpisodeService) Create(ctx context.Context, caller *domain.Caller, data map[string]any) (map[string]any, error) {
	if err := s.guard.CheckWritable(ctx, caller); err != nil {
		return nil, err
	}

	rest := make(map[string]any, len(data))
	for k, v := range data {
		rest[k] = v
	}

	var patientID uint
	if raw, ok := rest["patient_id"]; ok && raw != nil {
		id, ok := idFrom(raw)
		if !ok {
			return nil, domain.InvalidValue("patient_id", errors.New("expected an id"))
		}
		patientID = id
	}
	delete(rest, "patient_id")

	tagNames := tagNamesFrom(rest["tagging"])
	delete(rest, "tagging")
	teams, err := s.Teams.GetByNames(ctx, tagNames)
	if err != nil {
		return nil, err
	}

	initial := map[*subrecord.Type]map[string]any{}
	for _, t := range s.Registry.Types() {
		raw, ok := rest[t.APIName]
		if !ok {
			continue
		}
		delete(rest, t.APIName)
		if !t.Single || (t.Owner == subrecord.OwnerPatient && patientID != 0) {
			return nil, domain.UnexpectedFields(t.APIName)
		}
		values, ok := raw.(map[string]any)
		if !ok {
			return nil, domain.InvalidValue(t.APIName, errors.New("expected an object"))
		}
		initial[t] = values
	}

	ep := &episode.Episode{Active: true}
	if err := ep.UpdateFromDict(rest); err != nil {
		return nil, err
	}

	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if patientID == 0 {
			p := &patient.Patient{}
			if err := s.Patients.Create(ctx, p); err != nil {
				return fmt.Errorf("creating patient: %w", err)
			}
			patientID = p.ID
			if err := s.createSingletons(ctx, s.Registry.PatientTypes(), p.ID, initial); err != nil {
				return err
			}
		} else if _, err := s.Patients.GetByID(ctx, patientID); err != nil {
			return err
		}

		ep.PatientID = patientID
		ep.Taggings = ep.PlanTags(teams, caller.ID()).Create
		if err := s.Episodes.Create(ctx, ep); err != nil {
			return err
		}
		return s.createSingletons(ctx, s.Registry.EpisodeTypes(), ep.ID, initial)
	})
	if err != nil {
		return nil, err
	}

	post, err := s.Get(ctx, caller, ep.ID)
	if err != nil {
		return nil, err
	}

	s.Metrics.EpisodeCreated()
	s.Notifier.Admit(post)
	s.Audit.LogAsync(ctx, auditEntry(caller, domain.ActionCreate, "episode", formatID(ep.ID)))
	s.Log.Info("episode created",
		zap.Uint("episode_id", ep.ID),
		zap.Uint("patient_id", patientID),
		zap.Strings("tags", tagNames),
	)
	return post, nil
}

func (s *EpisodeService) createSingletons(ctx context.Context, types []*subrecord.Type, ownerID uint, initial map[*subrecord.Type]map[string]any) error {
	for _, t := range types {
		if !t.Single {
			continue
		}
		rec := t.New()
		rec.SetOwnerID(ownerID)
		if err := subrecord.UpdateFromDict(t, rec, initial[t]); err != nil {
			return err
		}
		if err := s.Store.Create(ctx, t, rec); err != nil {
			return err
		}
	}
	return nil
}

// Update writes the episode columns. Moving active from true to false
// fires a discharge as well as the change.
func (s *EpisodeService) Update(ctx context.Context, caller *domain.Caller, id uint, data map[string]any) (map[string]any, error) {
	if err := s.guard.CheckWritable(ctx, caller); err != nil {
		return nil, err
	}

	ep, err := s.Episodes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	pre, err := s.serializer.EpisodeDict(ctx, ep, caller)
	if err != nil {
		return nil, err
	}

	wasActive := ep.Active
	previous := ep.ConsistencyToken
	if err := ep.UpdateFromDict(data); err != nil {
		if errors.Is(err, domain.ErrConsistency) {
			s.Metrics.ConsistencyConflict()
		}
		return nil, err
	}
	if err := s.Episodes.Update(ctx, ep, previous); err != nil {
		if errors.Is(err, domain.ErrConsistency) {
			s.Metrics.ConsistencyConflict()
		}
		return nil, err
	}

	post, err := s.serializer.EpisodeDict(ctx, ep, caller)
	if err != nil {
		return nil, err
	}
	s.Notifier.Change(pre, post)
	if wasActive && !ep.Active {
		s.Notifier.Discharge(post)
	}
	s.Audit.LogAsync(ctx, auditEntry(caller, domain.ActionUpdate, "episode", formatID(ep.ID)))
	return post, nil
}

// tagNamesFrom reads tag names from a tagging value, which is either a
// tagging dict or a list holding one.
func tagNamesFrom(raw any) []string {
	switch v := raw.(type) {
	case map[string]any:
		return truthyKeys(v)
	case []any:
		var names []string
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				names = append(names, truthyKeys(m)...)
			}
		}
		return names
	}
	return nil
}
