package service

import (
	"context"
	"fmt"

	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain/episode"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain/subrecord"
)

// Serializer renders episodes and patients with their subrecords.
type Serializer struct {
	registry *subrecord.Registry
	store    SubrecordStore
	episodes episode.Repository
	patients patient.Repository
}

func NewSerializer(registry *subrecord.Registry, store SubrecordStore, episodes episode.Repository, patients patient.Repository) *Serializer {
	return &Serializer{registry: registry, store: store, episodes: episodes, patients: patients}
}

// EpisodeDict renders ep, its tagging as caller sees it, and one list per
// subrecord type. Patient subrecords come from the episode's patient.
func (s *Serializer) EpisodeDict(ctx context.Context, ep *episode.Episode, caller *domain.Caller) (map[string]any, error) {
	out := ep.ToDict()
	out["tagging"] = []map[string]any{ep.TaggingDict(caller.ID())}

	for _, t := range s.registry.Types() {
		owner := ep.ID
		if t.Owner == subrecord.OwnerPatient {
			owner = ep.PatientID
		}
		items, err := s.items(ctx, t, owner)
		if err != nil {
			return nil, err
		}
		out[t.APIName] = items
	}
	return out, nil
}

// PatientDict renders p with every episode keyed by id and its patient
// subrecord lists.
func (s *Serializer) PatientDict(ctx context.Context, p *patient.Patient, caller *domain.Caller) (map[string]any, error) {
	eps, err := s.episodes.ListByPatient(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("listing episodes for patient %d: %w", p.ID, err)
	}
	episodes := make(map[string]any, len(eps))
	for _, ep := range eps {
		d, err := s.EpisodeDict(ctx, ep, caller)
		if err != nil {
			return nil, err
		}
		episodes[formatID(ep.ID)] = d
	}

	out := map[string]any{
		"id":       p.ID,
		"episodes": episodes,
	}
	for _, t := range s.registry.PatientTypes() {
		items, err := s.items(ctx, t, p.ID)
		if err != nil {
			return nil, err
		}
		out[t.APIName] = items
	}
	return out, nil
}

// OwnerDict renders whatever rec hangs off: its episode or its patient.
func (s *Serializer) OwnerDict(ctx context.Context, t *subrecord.Type, ownerID uint, caller *domain.Caller) (map[string]any, error) {
	if t.Owner == subrecord.OwnerPatient {
		p, err := s.patients.GetByID(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		return s.PatientDict(ctx, p, caller)
	}
	ep, err := s.episodes.GetByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.EpisodeDict(ctx, ep, caller)
}

func (s *Serializer) items(ctx context.Context, t *subrecord.Type, ownerID uint) ([]map[string]any, error) {
	recs, err := s.store.ListByOwner(ctx, t, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", t.APIName, err)
	}
	items := make([]map[string]any, 0, len(recs))
	for _, r := range recs {
		items = append(items, subrecord.ToDict(t, r))
	}
	return items, nil
}
