// Package seed loads reference data: teams, lookup list items and macros.
// Applying the same data twice changes nothing.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain/lookuplist"
	"github.com/dmehra2102/prod-golang-projects/wardbook/internal/domain/team"
)

//go:embed default.yaml
var defaultData []byte

type Team struct {
	Name       string `yaml:"name"`
	Title      string `yaml:"title"`
	Parent     string `yaml:"parent"`
	Restricted bool   `yaml:"restricted"`
	Order      int    `yaml:"order"`
}

type Item struct {
	Name     string   `yaml:"name"`
	Synonyms []string `yaml:"synonyms"`
}

type Macro struct {
	Title    string `yaml:"title"`
	Expanded string `yaml:"expanded"`
}

type Data struct {
	Teams       []Team            `yaml:"teams"`
	LookupLists map[string][]Item `yaml:"lookup_lists"`
	Macros      []Macro           `yaml:"macros"`
}

// Result counts what Apply wrote.
type Result struct {
	TeamsCreated int
	Items        int
	Macros       int
}

// Load reads seed data from path, or the embedded default when path is empty.
func Load(path string) (*Data, error) {
	raw := defaultData
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading seed file %s: %w", path, err)
		}
		raw = b
	}
	var d Data
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}
	return &d, nil
}

type Seeder struct {
	teams   team.Repository
	lookups lookuplist.Repository
	log     *zap.Logger
}

func NewSeeder(teams team.Repository, lookups lookuplist.Repository, log *zap.Logger) *Seeder {
	return &Seeder{teams: teams, lookups: lookups, log: log}
}

// Apply creates missing teams, lookup items and synonyms, and upserts macros.
// Parents must be listed before their children.
func (s *Seeder) Apply(ctx context.Context, d *Data) (Result, error) {
	var res Result

	for _, t := range d.Teams {
		created, err := s.ensureTeam(ctx, t)
		if err != nil {
			return res, err
		}
		if created {
			res.TeamsCreated++
		}
	}

	for list, items := range d.LookupLists {
		for _, it := range items {
			if _, err := s.lookups.Ensure(ctx, list, it.Name, it.Synonyms...); err != nil {
				return res, fmt.Errorf("seeding %s %q: %w", list, it.Name, err)
			}
			res.Items++
		}
	}

	for _, m := range d.Macros {
		if err := s.lookups.SaveMacro(ctx, &lookuplist.Macro{Title: m.Title, Expanded: m.Expanded}); err != nil {
			return res, fmt.Errorf("seeding macro %q: %w", m.Title, err)
		}
		res.Macros++
	}

	s.log.Info("seed applied",
		zap.Int("teams_created", res.TeamsCreated),
		zap.Int("lookup_items", res.Items),
		zap.Int("macros", res.Macros),
	)
	return res, nil
}

func (s *Seeder) ensureTeam(ctx context.Context, t Team) (bool, error) {
	_, err := s.teams.GetByNames(ctx, []string{t.Name})
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, team.ErrTeamNotFound) {
		return false, err
	}

	tm := &team.Team{
		Name:       t.Name,
		Title:      t.Title,
		Active:     true,
		Restricted: t.Restricted,
		Order:      t.Order,
	}
	if tm.Title == "" {
		tm.Title = t.Name
	}
	if t.Parent != "" {
		parents, err := s.teams.GetByNames(ctx, []string{t.Parent})
		if err != nil {
			return false, fmt.Errorf("team %s: parent: %w", t.Name, err)
		}
		tm.ParentID = &parents[0].ID
	}
	if err := s.teams.Create(ctx, tm); err != nil {
		return false, fmt.Errorf("creating team %s: %w", t.Name, err)
	}
	return true, nil
}
