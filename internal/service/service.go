// Package service holds the use cases behind the HTTP API. Services return
// plain maps shaped the way the client expects and domain errors that the
// handlers translate to status codes.
package service

import (
	"context"
	"errors"
	"strconv"

	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain/episode"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain/subrecord"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain/team"
	"github.com/dmehra2102/prod-golang-projects/wardbook/pkg/metrics"
)

// Deps is what the clinical services share. Notifier, Audit and Log may be
// left nil.
type Deps struct {
	Registry *subrecord.Registry
	Store    SubrecordStore
	Episodes episode.Repository
	Patients patient.Repository
	Teams    team.Repository
	Profiles ProfileRepository
	Tx       Transactor
	Notifier Notifier
	Audit    Auditor
	Metrics  *metrics.Collector
	Log      *zap.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Notifier == nil {
		d.Notifier = nopNotifier{}
	}
	if d.Audit == nil {
		d.Audit = nopAuditor{}
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return d
}

func (d Deps) serializer() *Serializer {
	return NewSerializer(d.Registry, d.Store, d.Episodes, d.Patients)
}

// SubrecordStore persists registered subrecord types.
type SubrecordStore interface {
	Create(ctx context.Context, t *subrecord.Type, rec subrecord.Record) error
	Get(ctx context.Context, t *subrecord.Type, id uint) (subrecord.Record, error)
	ListByOwner(ctx context.Context, t *subrecord.Type, ownerID uint) ([]subrecord.Record, error)
	Save(ctx context.Context, t *subrecord.Type, rec subrecord.Record, previousToken string) error
	Delete(ctx context.Context, t *subrecord.Type, id uint) error
}

type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type ProfileRepository interface {
	Create(ctx context.Context, p *domain.UserProfile) error
	GetByUserID(ctx context.Context, userID uint) (*domain.UserProfile, error)
	SetForcePasswordChange(ctx context.Context, userID uint, force bool) error
}

// Notifier receives change notifications. glossolalia.Dispatcher implements it.
type Notifier interface {
	Admit(episode map[string]any)
	Discharge(episode map[string]any)
	Change(pre, post map[string]any)
	Transfer(pre, post map[string]any)
}

type nopNotifier struct{}

func (nopNotifier) Admit(map[string]any)              {}
func (nopNotifier) Discharge(map[string]any)          {}
func (nopNotifier) Change(pre, post map[string]any)   {}
func (nopNotifier) Transfer(pre, post map[string]any) {}

// Guard rejects mutations from read-only profiles.
type Guard struct {
	profiles ProfileRepository
}

func NewGuard(profiles ProfileRepository) *Guard {
	return &Guard{profiles: profiles}
}

// CheckWritable returns ErrForbidden when caller's profile is read-only.
// Anonymous callers and users without a profile may write.
func (g *Guard) CheckWritable(ctx context.Context, caller *domain.Caller) error {
	if g == nil || !caller.Authenticated() {
		return nil
	}
	p, err := g.profiles.GetByUserID(ctx, caller.UserID)
	if errors.Is(err, domain.ErrProfileNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if p.Readonly {
		return ErrForbidden
	}
	return nil
}

// idFrom reads a primary key out of a decoded JSON value.
func idFrom(raw any) (uint, bool) {
	switch v := raw.(type) {
	case float64:
		if v > 0 && v == float64(uint(v)) {
			return uint(v), true
		}
	case int:
		if v > 0 {
			return uint(v), true
		}
	case uint:
		return v, v > 0
	case string:
		n, err := strconv.ParseUint(v, 10, 64)
		if err == nil && n > 0 {
			return uint(n), true
		}
	}
	return 0, false
}

func formatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
