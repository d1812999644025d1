// Package signals computes the external war and capital pillar inputs from
// stored per-player war and raid records.
package signals

import (
	"context"
	"time"

	"github.com/okian/clanboard/internal/domain/clantag"
	"github.com/okian/clanboard/internal/domain/model"
)

// WarQuery selects the wars a report covers.
type WarQuery struct {
	ClanTag  string
	DaysBack int
	MinWars  int
}

// WarMetric is one player's war-intelligence result.
type WarMetric struct {
	PlayerTag         string  `json:"playerTag"`
	OverallScore      float64 `json:"overallScore"`
	ParticipationRate float64 `json:"participationRate"`
	ConsistencyScore  float64 `json:"consistencyScore"`
	TotalStars        int     `json:"totalStars"`
	Wars              int     `json:"wars"`
}

// WarReport holds metrics for every player that met the minimum war count.
type WarReport struct {
	Metrics []WarMetric `json:"metrics"`
}

// ByTag indexes the report by normalized player tag.
func (r WarReport) ByTag() map[string]WarMetric {
	out := make(map[string]WarMetric, len(r.Metrics))
	for _, m := range r.Metrics {
		out[clantag.Normalize(m.PlayerTag)] = m
	}
	return out
}

// WarIntelligence produces war metrics for a clan.
type WarIntelligence interface {
	Calculate(ctx context.Context, q WarQuery) (WarReport, error)
}

// CapitalQuery selects the raid weekends a report covers.
type CapitalQuery struct {
	ClanTag     string
	WeeksBack   int
	MinWeekends int
}

// CapitalMetric is one player's capital-analytics result.
type CapitalMetric struct {
	PlayerTag    string  `json:"playerTag"`
	OverallScore float64 `json:"overallScore"`
	Weekends     int     `json:"weekends"`
}

// CapitalReport holds metrics for every player that met the minimum weekend count.
type CapitalReport struct {
	Metrics []CapitalMetric `json:"metrics"`
}

// ByTag indexes the report by normalized player tag.
func (r CapitalReport) ByTag() map[string]CapitalMetric {
	out := make(map[string]CapitalMetric, len(r.Metrics))
	for _, m := range r.Metrics {
		out[clantag.Normalize(m.PlayerTag)] = m
	}
	return out
}

// CapitalAnalytics produces capital metrics for a clan.
type CapitalAnalytics interface {
	Calculate(ctx context.Context, q CapitalQuery) (CapitalReport, error)
}

// WarSource returns war attack records for a clan that ended at or after since.
type WarSource interface {
	WarAttacks(ctx context.Context, clanTag string, since time.Time) ([]model.WarAttackRecord, error)
}

// CapitalSource returns raid records for weekends starting at or after since.
type CapitalSource interface {
	CapitalRaids(ctx context.Context, clanTag string, since time.Time) ([]model.CapitalRaidRecord, error)
}
