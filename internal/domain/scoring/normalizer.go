package scoring

import (
	"regexp"
	"strings"

	"github.com/okian/clanboard/internal/domain/model"
)

const (
	// A give/receive ratio of saturatingRatio or more scores 100.
	saturatingRatio = 2.0
	// Tenure reaches 100 after this many days in the clan.
	fullTenureDays = 180.0
)

// DonationRatio is given/received. With nothing received the ratio is
// saturatingRatio for any giver and 0 otherwise.
func DonationRatio(given, received int) float64 {
	if received <= 0 {
		if given > 0 {
			return saturatingRatio
		}
		return 0
	}
	if given <= 0 {
		return 0
	}
	return float64(given) / float64(received)
}

// DonationRatioScore maps a ratio onto 0..100, saturating at saturatingRatio.
func DonationRatioScore(ratio float64) float64 {
	return Clamp(ratio/saturatingRatio*maxScore, 0, maxScore)
}

// BaseQualityScore is 100 minus the rush percentage, clamped; nil when unknown.
func BaseQualityScore(rushPercent *float64) *float64 {
	r := Present(rushPercent)
	if r == nil {
		return nil
	}
	return Float(Clamp(maxScore-*r, 0, maxScore))
}

// TenureScore maps days in clan onto 0..100 over fullTenureDays.
func TenureScore(days int) float64 {
	return Clamp(float64(days)/fullTenureDays*maxScore, 0, maxScore)
}

// EffectiveTrophies applies the trophy precedence: ranked trophies first,
// then legacy trophies.
func EffectiveTrophies(m model.RosterMemberStat) int {
	if m.RankedTrophies > 0 {
		return m.RankedTrophies
	}
	if m.Trophies > 0 {
		return m.Trophies
	}
	return 0
}

// League ladder: Bronze III (1) .. Titan I (21), Legend (22).
var leagueFamilies = []string{"bronze", "silver", "gold", "crystal", "master", "champion", "titan"}

const (
	legendOrdinal      = 22
	classicLeagueBase  = 29000000
	rankedLeagueBase   = 105000000
	rankedLeagueLadder = 34
)

var leagueDivision = regexp.MustCompile(`\b(iii|ii|i|3|2|1)\b`)

// LeagueTierScore parses a league name (or, failing that, a league id) into
// a 0..100 ladder position. Nil when neither identifies a league.
func LeagueTierScore(name string, id int) *float64 {
	if ord, ok := parseLeagueName(name); ok {
		return Float(float64(ord) / legendOrdinal * maxScore)
	}
	switch {
	case id >= classicLeagueBase && id <= classicLeagueBase+legendOrdinal:
		return Float(float64(id-classicLeagueBase) / legendOrdinal * maxScore)
	case id > rankedLeagueBase && id <= rankedLeagueBase+rankedLeagueLadder:
		return Float(float64(id-rankedLeagueBase) / rankedLeagueLadder * maxScore)
	case id > 0:
		tier := id
		if tier > rankedLeagueLadder {
			tier = rankedLeagueLadder
		}
		return Float(float64(tier) / rankedLeagueLadder * maxScore)
	}
	return nil
}

func parseLeagueName(name string) (int, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return 0, false
	}
	if strings.Contains(n, "legend") {
		return legendOrdinal, true
	}
	if strings.Contains(n, "unranked") {
		return 0, true
	}
	for i, fam := range leagueFamilies {
		if !strings.Contains(n, fam) {
			continue
		}
		// Division III is the bottom of a family, I the top.
		step := 1
		switch leagueDivision.FindString(n) {
		case "ii", "2":
			step = 2
		case "i", "1":
			step = 3
		}
		return i*3 + step, true
	}
	return 0, false
}

// Range tracks the min and max of observed values.
type Range struct {
	Min, Max float64
	seen     bool
}

// Observe widens the range to include v; non-finite values are ignored.
func (r *Range) Observe(v float64) {
	f, ok := Finite(v)
	if !ok {
		return
	}
	if !r.seen {
		r.Min, r.Max, r.seen = f, f, true
		return
	}
	if f < r.Min {
		r.Min = f
	}
	if f > r.Max {
		r.Max = f
	}
}

// Normalize scales v against the range.
func (r Range) Normalize(v *float64) *float64 {
	return NormalizeRange(v, r.Min, r.Max)
}

// PopulationStats are the per-run min/max values used for relative scores.
// They must be fully built before any member is scored.
type PopulationStats struct {
	Donations  Range
	Capital    Range
	Trophies   Range
	LeagueTier Range
}

// NewPopulationStats observes every member of the roster once.
func NewPopulationStats(members []model.RosterMemberStat) PopulationStats {
	var s PopulationStats
	for _, m := range members {
		s.Donations.Observe(float64(m.Donations))
		s.Capital.Observe(float64(m.CapitalContributions))
		if t := EffectiveTrophies(m); t > 0 {
			s.Trophies.Observe(float64(t))
		}
		if tier := LeagueTierScore(m.RankedLeagueName, m.RankedLeagueID); tier != nil {
			s.LeagueTier.Observe(*tier)
		}
	}
	return s
}

// TrophyPursuitScore prefers trophies normalized against the population and
// falls back to the league tier; nil without any ranked-league signal.
func TrophyPursuitScore(m model.RosterMemberStat, stats PopulationStats) *float64 {
	if !m.HasLeagueSignal() {
		return nil
	}
	if t := EffectiveTrophies(m); t > 0 {
		return stats.Trophies.Normalize(Float(float64(t)))
	}
	if tier := LeagueTierScore(m.RankedLeagueName, m.RankedLeagueID); tier != nil {
		return stats.LeagueTier.Normalize(tier)
	}
	return nil
}
