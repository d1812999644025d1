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

const maxStars = 3.0

// WarCalculator derives war metrics from stored attack records.
type WarCalculator struct {
	source WarSource
	now    func() time.Time
}

// NewWarCalculator returns a calculator reading from source.
func NewWarCalculator(source WarSource, opts ...Option) *WarCalculator {
	c := &WarCalculator{source: source, now: time.Now}
	cfg := apply(opts)
	if cfg.now != nil {
		c.now = cfg.now
	}
	return c
}

type warTally struct {
	wars      map[string]struct{}
	used      int
	available int
	stars     int
	perWar    []float64
}

// Calculate aggregates every player's wars in the window. Players with
// fewer than q.MinWars wars are left out of the report.
func (c *WarCalculator) Calculate(ctx context.Context, q WarQuery) (WarReport, error) {
	since := c.now().AddDate(0, 0, -q.DaysBack)
	records, err := c.source.WarAttacks(ctx, clantag.Normalize(q.ClanTag), since)
	if err != nil {
		return WarReport{}, fmt.Errorf("load war attacks: %w", err)
	}

	tallies := map[string]*warTally{}
	for _, r := range records {
		tag := clantag.Normalize(r.PlayerTag)
		if tag == "" {
			continue
		}
		t, ok := tallies[tag]
		if !ok {
			t = &warTally{wars: map[string]struct{}{}}
			tallies[tag] = t
		}
		t.wars[r.WarID] = struct{}{}
		t.used += max(r.AttacksUsed, 0)
		t.available += max(r.AttacksAvailable, 0)
		t.stars += max(r.Stars, 0)
		avg := 0.0
		if r.AttacksUsed > 0 {
			avg = float64(r.Stars) / float64(r.AttacksUsed)
		}
		t.perWar = append(t.perWar, avg)
	}

	minWars := max(q.MinWars, 1)
	report := WarReport{Metrics: []WarMetric{}}
	for tag, t := range tallies {
		if len(t.wars) < minWars {
			continue
		}
		participation := 0.0
		if t.available > 0 {
			participation = math.Min(1, float64(t.used)/float64(t.available))
		}
		avgStars := 0.0
		if t.used > 0 {
			avgStars = float64(t.stars) / float64(t.used)
		}
		consistency := scoring.Clamp(100-stddev(t.perWar)/maxStars*100, 0, 100)
		overall := 0.4*participation*100 + 0.4*avgStars/maxStars*100 + 0.2*consistency
		report.Metrics = append(report.Metrics, WarMetric{
			PlayerTag:         tag,
			OverallScore:      scoring.Round1(scoring.Clamp(overall, 0, 100)),
			ParticipationRate: participation,
			ConsistencyScore:  scoring.Round1(consistency),
			TotalStars:        t.stars,
			Wars:              len(t.wars),
		})
	}
	sort.Slice(report.Metrics, func(i, j int) bool { return report.Metrics[i].PlayerTag < report.Metrics[j].PlayerTag })
	return report, nil
}

// stddev is the population standard deviation.
func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var mean float64
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	var v float64
	for _, x := range xs {
		v += (x - mean) * (x - mean)
	}
	return math.Sqrt(v / float64(len(xs)))
}
