package signals

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/okian/clanboard/internal/domain/clantag"
	"github.com/okian/clanboard/internal/domain/scoring"
)

// CapitalCalculator derives capital metrics from stored raid records.
type CapitalCalculator struct {
	source CapitalSource
	now    func() time.Time
}

// NewCapitalCalculator returns a calculator reading from source.
func NewCapitalCalculator(source CapitalSource, opts ...Option) *CapitalCalculator {
	c := &CapitalCalculator{source: source, now: time.Now}
	cfg := apply(opts)
	if cfg.now != nil {
		c.now = cfg.now
	}
	return c
}

type raidTally struct {
	weekends map[int64]struct{}
	used     int
	limit    int
	looted   int
}

// Calculate scores attack usage and loot relative to the clan's best
// average looter. Players with fewer than q.MinWeekends weekends are left out.
func (c *CapitalCalculator) Calculate(ctx context.Context, q CapitalQuery) (CapitalReport, error) {
	since := c.now().AddDate(0, 0, -7*q.WeeksBack)
	records, err := c.source.CapitalRaids(ctx, clantag.Normalize(q.ClanTag), since)
	if err != nil {
		return CapitalReport{}, fmt.Errorf("load capital raids: %w", err)
	}

	tallies := map[string]*raidTally{}
	for _, r := range records {
		tag := clantag.Normalize(r.PlayerTag)
		if tag == "" {
			continue
		}
		t, ok := tallies[tag]
		if !ok {
			t = &raidTally{weekends: map[int64]struct{}{}}
			tallies[tag] = t
		}
		t.weekends[r.WeekendStart.Unix()] = struct{}{}
		t.used += max(r.AttacksUsed, 0)
		t.limit += max(r.AttackLimit, 0)
		t.looted += max(r.CapitalLooted, 0)
	}

	minWeekends := max(q.MinWeekends, 1)
	eligible := map[string]*raidTally{}
	maxAvgLoot := 0.0
	for tag, t := range tallies {
		if len(t.weekends) < minWeekends {
			continue
		}
		eligible[tag] = t
		maxAvgLoot = math.Max(maxAvgLoot, float64(t.looted)/float64(len(t.weekends)))
	}

	report := CapitalReport{Metrics: []CapitalMetric{}}
	for tag, t := range eligible {
		usage := 0.0
		if t.limit > 0 {
			usage = math.Min(1, float64(t.used)/float64(t.limit)) * 100
		}
		loot := 0.0
		if maxAvgLoot > 0 {
			loot = float64(t.looted) / float64(len(t.weekends)) / maxAvgLoot * 100
		}
		report.Metrics = append(report.Metrics, CapitalMetric{
			PlayerTag:    tag,
			OverallScore: scoring.Round1(scoring.Clamp(0.5*usage+0.5*loot, 0, 100)),
			Weekends:     len(t.weekends),
		})
	}
	sort.Slice(report.Metrics, func(i, j int) bool { return report.Metrics[i].PlayerTag < report.Metrics[j].PlayerTag })
	return report, nil
}
