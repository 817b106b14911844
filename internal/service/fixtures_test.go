package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/dmehra2102/prod-golang-projects/wardbook/config"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain/subrecord"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain/team"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/repository"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/testutil"
	"github.com/dmehra2102/prod-golang-projects/wardbook/pkg/auth"
)

type event struct {
	name      string
	pre, post map[string]any
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []event
}

func (n *recordingNotifier) add(e event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

func (n *recordingNotifier) Admit(ep map[string]any)     { n.add(event{name: "admit", post: ep}) }
func (n *recordingNotifier) Discharge(ep map[string]any) { n.add(event{name: "discharge", post: ep}) }
func (n *recordingNotifier) Change(pre, post map[string]any) {
	n.add(event{name: "change", pre: pre, post: post})
}
func (n *recordingNotifier) Transfer(pre, post map[string]any) {
	n.add(event{name: "transfer", pre: pre, post: post})
}

func (n *recordingNotifier) names() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.name)
	}
	return out
}

func (n *recordingNotifier) last() event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.events[len(n.events)-1]
}

type recordingAuditor struct {
	mu      sync.Mutex
	entries []AuditEntry
}

func (a *recordingAuditor) LogAsync(_ context.Context, e AuditEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
}

type fixture struct {
	db       *gorm.DB
	registry *subrecord.Registry
	deps     Deps
	notifier *recordingNotifier
	audit    *recordingAuditor
	teams    *repository.TeamRepository
	lookups  *repository.LookupListRepository
	users    *repository.UserRepository
	profiles *repository.ProfileRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, registry := testutil.NewDB(t)
	f := &fixture{
		db:       db,
		registry: registry,
		notifier: &recordingNotifier{},
		audit:    &recordingAuditor{},
		teams:    repository.NewTeamRepository(db),
		lookups:  repository.NewLookupListRepository(db),
		users:    repository.NewUserRepository(db),
		profiles: repository.NewProfileRepository(db),
	}
	f.deps = Deps{
		Registry: registry,
		Store:    repository.NewSubrecordStore(db),
		Episodes: repository.NewEpisodeRepository(db),
		Patients: repository.NewPatientRepository(db),
		Teams:    f.teams,
		Profiles: f.profiles,
		Tx:       repository.NewTransactor(db),
		Notifier: f.notifier,
		Audit:    f.audit,
		Log:      zap.NewNop(),
	}
	return f
}

func (f *fixture) team(t *testing.T, name string, parent *team.Team) *team.Team {
	t.Helper()
	tm := &team.Team{Name: name, Title: name, Active: true}
	if parent != nil {
		tm.ParentID = &parent.ID
	}
	require.NoError(t, f.teams.Create(context.Background(), tm))
	return tm
}

func (f *fixture) user(t *testing.T, username string, profile domain.UserProfile) *domain.Caller {
	t.Helper()
	ctx := context.Background()
	u := &domain.User{Username: username, PasswordHash: "x", Role: domain.RoleClinician, IsActive: true}
	require.NoError(t, f.users.Create(ctx, u))
	profile.UserID = u.ID
	require.NoError(t, f.profiles.Create(ctx, &profile))
	return &domain.Caller{UserID: u.ID, Username: username, Role: u.Role}
}

func (f *fixture) subtype(t *testing.T, name string) *subrecord.Type {
	t.Helper()
	typ, ok := f.registry.Lookup(name)
	require.True(t, ok, name)
	return typ
}

// admit creates an episode for a new patient and returns its dict.
func (f *fixture) admit(t *testing.T, data map[string]any) map[string]any {
	t.Helper()
	ep, err := NewEpisodeService(f.deps).Create(context.Background(), nil, data)
	require.NoError(t, err)
	return ep
}

func (f *fixture) authService(t *testing.T) *AuthService {
	t.Helper()
	jwt := auth.NewJWTManager(config.JWTConfig{
		Secret:          "test-secret-test-secret-test-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
		Issuer:          "wardbook-test",
	})
	svc := NewAuthService(f.users, f.profiles, f.deps.Tx, jwt, f.audit, zap.NewNop())
	svc.cost = bcrypt.MinCost
	return svc
}

func idOf(t *testing.T, dict map[string]any) uint {
	t.Helper()
	id, ok := dict["id"].(uint)
	require.True(t, ok, "id is %T", dict["id"])
	return id
}
