// Package seed loads clan data fixtures into a store and generates
// synthetic ones for demos and load tests.
package seed

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/okian/clanboard/internal/adapters/repository"
	"github.com/okian/clanboard/internal/domain/clantag"
	"github.com/okian/clanboard/internal/domain/model"
	"gopkg.in/yaml.v3"
)

// Fixture is the raw data an assessment is computed from.
type Fixture struct {
	Snapshots []model.RosterSnapshot    `yaml:"snapshots"`
	Timeline  []model.TimelineRow       `yaml:"timeline"`
	Wars      []model.WarAttackRecord   `yaml:"wars"`
	Raids     []model.CapitalRaidRecord `yaml:"raids"`
}

// Counts reports how many records Apply wrote.
type Counts struct {
	Snapshots int `json:"snapshots"`
	Members   int `json:"members"`
	Timeline  int `json:"timeline"`
	Wars      int `json:"wars"`
	Raids     int `json:"raids"`
}

// Load reads and validates a YAML fixture file.
func Load(path string) (Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("%w: %s: %w", ErrReadFixture, path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML fixture. Snapshots without an id get one.
func Parse(data []byte) (Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Fixture{}, fmt.Errorf("%w: %w", ErrInvalidFixture, err)
	}
	for i := range f.Snapshots {
		s := &f.Snapshots[i]
		tag, err := clantag.Parse(s.ClanTag)
		if err != nil {
			return Fixture{}, fmt.Errorf("%w: snapshot %d: clan tag %q", ErrInvalidFixture, i, s.ClanTag)
		}
		s.ClanTag = tag
		if s.FetchedAt.IsZero() {
			return Fixture{}, fmt.Errorf("%w: snapshot %d: missing fetchedAt", ErrInvalidFixture, i)
		}
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		for j := range s.Members {
			m := &s.Members[j]
			if clantag.Normalize(m.Tag) == "" {
				return Fixture{}, fmt.Errorf("%w: snapshot %d member %d: missing tag", ErrInvalidFixture, i, j)
			}
			m.Role = model.ParseRole(string(m.Role))
		}
	}
	return f, nil
}

// Apply writes every part of f through w.
func Apply(ctx context.Context, w repository.Writer, f Fixture) (Counts, error) {
	var c Counts
	for _, s := range f.Snapshots {
		if err := w.SaveSnapshot(ctx, s); err != nil {
			return c, fmt.Errorf("save snapshot %s: %w", s.ID, err)
		}
		c.Snapshots++
		c.Members += len(s.Members)
	}
	if len(f.Timeline) > 0 {
		if err := w.AppendTimeline(ctx, f.Timeline); err != nil {
			return c, fmt.Errorf("append timeline: %w", err)
		}
		c.Timeline = len(f.Timeline)
	}
	if len(f.Wars) > 0 {
		if err := w.SaveWarAttacks(ctx, f.Wars); err != nil {
			return c, fmt.Errorf("save war attacks: %w", err)
		}
		c.Wars = len(f.Wars)
	}
	if len(f.Raids) > 0 {
		if err := w.SaveCapitalRaids(ctx, f.Raids); err != nil {
			return c, fmt.Errorf("save capital raids: %w", err)
		}
		c.Raids = len(f.Raids)
	}
	return c, nil
}

// Marshal encodes f as YAML.
func Marshal(f Fixture) ([]byte, error) {
	return yaml.Marshal(f)
}
