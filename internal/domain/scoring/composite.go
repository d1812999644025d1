package scoring

import (
	"fmt"
	"sort"
	"strings"

	"github.com/okian/clanboard/internal/domain/model"
)

// Band thresholds on CLV.
const (
	successorThreshold  = 82.0
	lieutenantThreshold = 70.0
	coreThreshold       = 50.0
	watchThreshold      = 40.0
)

// Flag thresholds.
const (
	leechRatio          = 0.4
	inactiveActivity    = 30
	lowWarParticipation = 60.0
	rushedBaseQuality   = 60.0
)

// BandFor maps a CLV score onto its band.
func BandFor(clv float64) model.Band {
	switch {
	case clv >= successorThreshold:
		return model.BandSuccessor
	case clv >= lieutenantThreshold:
		return model.BandLieutenant
	case clv >= coreThreshold:
		return model.BandCore
	case clv >= watchThreshold:
		return model.BandWatch
	default:
		return model.BandLiability
	}
}

// TenureGates are the minimum days in clan before a promotion is recommended.
type TenureGates struct {
	Successor  int
	Lieutenant int
}

// DefaultTenureGates require 90 days for successor and 30 for lieutenant.
var DefaultTenureGates = TenureGates{Successor: 90, Lieutenant: 30}

func (g TenureGates) required(b model.Band) int {
	if b == model.BandSuccessor {
		return g.Successor
	}
	return g.Lieutenant
}

// WarSignal is one player's war-intelligence result.
type WarSignal struct {
	Overall           *float64
	ParticipationRate *float64
	Consistency       *float64
	TotalStars        *int
}

// ScoreInput is everything needed to score one member. Stats must describe
// the whole roster of the run.
type ScoreInput struct {
	Member         model.RosterMemberStat
	Activity       model.ActivityEvidence
	War            *WarSignal
	CapitalOverall *float64
	TimelineEvents int
	Stats          PopulationStats
}

// Result is a scored member before it is attached to a run.
type Result struct {
	CLV            float64
	Band           model.Band
	Flags          []model.Flag
	Recommendation string
	ChatBlurb      string
	Metrics        model.MemberMetrics
}

// Member builds the stored record for runID.
func (r Result) Member(runID string, m model.RosterMemberStat) model.AssessmentMember {
	return model.AssessmentMember{
		RunID:          runID,
		PlayerTag:      m.Tag,
		Name:           m.Name,
		Role:           m.Role,
		TownHallLevel:  m.TownHallLevel,
		CLVScore:       r.CLV,
		Band:           r.Band,
		Flags:          r.Flags,
		Recommendation: r.Recommendation,
		ChatBlurb:      r.ChatBlurb,
		Metrics:        r.Metrics,
	}
}

// Scorer combines sub-scores into CLV, band, flags and recommendation.
// It is stateless after construction and safe for concurrent use.
type Scorer struct {
	weights model.Weights
	gates   TenureGates
}

// ScorerOption configures a Scorer.
type ScorerOption func(*Scorer)

// WithWeights sets pillar weights; they are normalized.
func WithWeights(w model.Weights) ScorerOption {
	return func(s *Scorer) { s.weights = NormalizeWeights(w) }
}

// WithTenureGates sets the promotion tenure gates.
func WithTenureGates(g TenureGates) ScorerOption {
	return func(s *Scorer) { s.gates = g }
}

// NewScorer returns a Scorer with default weights and gates.
func NewScorer(opts ...ScorerOption) *Scorer {
	s := &Scorer{weights: DefaultWeights, gates: DefaultTenureGates}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Weights returns the normalized weights in use.
func (s *Scorer) Weights() model.Weights { return s.weights }

// Score computes the full result for one member.
func (s *Scorer) Score(in ScoreInput) Result {
	m := in.Member
	raw := model.RawBreakdown{
		Donations:            m.Donations,
		DonationsReceived:    m.DonationsReceived,
		DonationRatio:        DonationRatio(m.Donations, m.DonationsReceived),
		CapitalContributions: m.CapitalContributions,
		CapitalOverall:       Present(in.CapitalOverall),
		RushPercent:          Present(m.RushPercent),
		TenureDays:           m.TenureDays,
		Trophies:             m.Trophies,
		RankedTrophies:       m.RankedTrophies,
		LeagueTierScore:      LeagueTierScore(m.RankedLeagueName, m.RankedLeagueID),
		TimelineEvents:       in.TimelineEvents,
	}
	if in.War != nil {
		raw.WarOverall = Present(in.War.Overall)
		raw.WarParticipationRate = Present(in.War.ParticipationRate)
		raw.WarConsistency = Present(in.War.Consistency)
		raw.WarStars = in.War.TotalStars
	}

	sc := model.ScoreBreakdown{
		DonationRatioScore:  DonationRatioScore(raw.DonationRatio),
		DonationVolumeScore: in.Stats.Donations.Normalize(Float(float64(m.Donations))),
		CapitalScore:        in.Stats.Capital.Normalize(Float(float64(m.CapitalContributions))),
		ActivityScore:       Clamp(float64(in.Activity.Score), 0, maxScore),
		TenureScore:         TenureScore(m.TenureDays),
		BaseQualityScore:    BaseQualityScore(m.RushPercent),
		TrophyPursuitScore:  TrophyPursuitScore(m, in.Stats),
	}
	if raw.WarOverall != nil {
		sc.War = Float(Clamp(*raw.WarOverall, 0, maxScore))
	}
	if raw.WarParticipationRate != nil {
		sc.WarParticipationScore = Float(Clamp(*raw.WarParticipationRate*maxScore, 0, maxScore))
	}
	if raw.WarConsistency != nil {
		sc.WarConsistencyScore = Float(Clamp(*raw.WarConsistency, 0, maxScore))
	}

	capital := sc.CapitalScore
	if raw.CapitalOverall != nil {
		capital = Float(Clamp(*raw.CapitalOverall, 0, maxScore))
	}
	sc.Social = WeightedAverage([]Weighted{
		{Score: Float(sc.DonationRatioScore), Weight: 0.4},
		{Score: sc.DonationVolumeScore, Weight: 0.3},
		{Score: capital, Weight: 0.3},
	})

	warRel := sc.WarParticipationScore
	if warRel == nil {
		warRel = sc.WarConsistencyScore
	}
	sc.Reliability = WeightedAverage([]Weighted{
		{Score: Float(sc.ActivityScore), Weight: 0.3},
		{Score: Float(sc.TenureScore), Weight: 0.2},
		{Score: warRel, Weight: 0.2},
		{Score: sc.BaseQualityScore, Weight: 0.1},
		{Score: sc.TrophyPursuitScore, Weight: 0.2},
	})

	clv := Round1(Clamp(WeightedAverage([]Weighted{
		{Score: sc.War, Weight: s.weights.War},
		{Score: Float(sc.Social), Weight: s.weights.Social},
		{Score: Float(sc.Reliability), Weight: s.weights.Reliability},
	}), 0, maxScore))
	band := BandFor(clv)

	res := Result{
		CLV:     clv,
		Band:    band,
		Metrics: model.MemberMetrics{Scores: sc, Raw: raw, Activity: in.Activity},
	}

	gateDays := 0
	if promotes(m.Role, band) {
		if need := s.gates.required(band) - m.TenureDays; need > 0 {
			gateDays = need
		}
	}
	res.Flags = flags(m, raw, sc, in.Activity, gateDays > 0)
	res.Recommendation = recommend(m.Role, band, gateDays)
	if promotes(m.Role, band) {
		res.ChatBlurb = blurb(m, band, sc, gateDays)
	}
	return res
}

// promotes reports whether band implies a promotion from role.
func promotes(role model.Role, band model.Band) bool {
	switch role {
	case model.RoleLeader, model.RoleCoLeader:
		return false
	case model.RoleElder:
		return band == model.BandSuccessor
	default:
		return band.Promotable()
	}
}

func flags(m model.RosterMemberStat, raw model.RawBreakdown, sc model.ScoreBreakdown, act model.ActivityEvidence, gated bool) []model.Flag {
	out := []model.Flag{}
	// Receiving without giving back counts, including a ratio of exactly zero.
	if m.DonationsReceived > 0 && raw.DonationRatio < leechRatio {
		out = append(out, model.FlagLeechRisk)
	}
	if act.Score < inactiveActivity {
		out = append(out, model.FlagInactiveRisk)
	}
	if sc.WarParticipationScore != nil && *sc.WarParticipationScore < lowWarParticipation {
		out = append(out, model.FlagWarParticipationLow)
	}
	if sc.BaseQualityScore != nil && *sc.BaseQualityScore < rushedBaseQuality {
		out = append(out, model.FlagRushedBaseRisk)
	}
	if !m.HasLeagueSignal() {
		out = append(out, model.FlagNoRankedLeague)
	}
	if gated {
		out = append(out, model.FlagTenureGate)
	}
	return out
}

func recommend(role model.Role, band model.Band, gateDays int) string {
	switch {
	case gateDays > 0:
		return fmt.Sprintf("Strong candidate (tenure gate: needs %d days)", gateDays)
	case role.IsLeadership():
		if band.AtRisk() {
			return "Leadership risk — review signals"
		}
		if role == model.RoleLeader {
			return "Current Leader — maintain role"
		}
		return "Current Coleader — maintain role"
	case role == model.RoleElder && band != model.BandSuccessor:
		if band.AtRisk() {
			return "Performance watch — review Elder status"
		}
		return "Maintain Elder — leadership bench"
	case band == model.BandSuccessor:
		if role == model.RoleElder {
			return "Leadership-ready — consider Coleader"
		}
		return "Recommend promotion to Coleader"
	case band == model.BandLieutenant:
		return "Recommend promotion to Elder"
	case band == model.BandWatch:
		return "Monitor — not ready for leadership"
	case band == model.BandLiability:
		return "At risk — coaching required"
	default:
		return "Core contributor — maintain"
	}
}

type pillar struct {
	name  string
	score float64
}

func blurb(m model.RosterMemberStat, band model.Band, sc model.ScoreBreakdown, gateDays int) string {
	pillars := []pillar{{"social", sc.Social}, {"reliability", sc.Reliability}}
	if sc.War != nil {
		pillars = append(pillars, pillar{"war", *sc.War})
	}
	sort.SliceStable(pillars, func(i, j int) bool { return pillars[i].score > pillars[j].score })

	target := "Elder"
	if band == model.BandSuccessor {
		target = "Coleader"
	}
	name := strings.TrimSpace(m.Name)
	if name == "" {
		name = m.Tag
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s is ready for %s: strong %s (%.0f) and %s (%.0f)",
		name, target, pillars[0].name, pillars[0].score, pillars[1].name, pillars[1].score)
	if gateDays > 0 {
		fmt.Fprintf(&b, " (tenure gate: needs %d more days)", gateDays)
	}
	b.WriteString(".")
	return b.String()
}
