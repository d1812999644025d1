package model

import "time"

// Band discretizes a CLV score.
type Band string

// Leadership bands, best first.
const (
	BandSuccessor  Band = "successor"
	BandLieutenant Band = "lieutenant"
	BandCore       Band = "core"
	BandWatch      Band = "watch"
	BandLiability  Band = "liability"
)

// Bands lists every band, best first.
var Bands = []Band{BandSuccessor, BandLieutenant, BandCore, BandWatch, BandLiability}

// Promotable reports whether the band would support a promotion.
func (b Band) Promotable() bool { return b == BandSuccessor || b == BandLieutenant }

// AtRisk reports whether the band signals demotion risk.
func (b Band) AtRisk() bool { return b == BandWatch || b == BandLiability }

// Flag is a named risk tag attached to an assessment result.
type Flag string

// Risk flags.
const (
	FlagLeechRisk           Flag = "leech_risk"
	FlagInactiveRisk        Flag = "inactive_risk"
	FlagWarParticipationLow Flag = "war_participation_low"
	FlagRushedBaseRisk      Flag = "rushed_base_risk"
	FlagNoRankedLeague      Flag = "no_ranked_league"
	FlagTenureGate          Flag = "tenure_gate"
)

// RunType says what triggered an assessment run.
type RunType string

// Run types.
const (
	RunAuto     RunType = "auto"
	RunManual   RunType = "manual"
	RunOnDemand RunType = "on-demand"
)

// Valid reports whether t is a known run type.
func (t RunType) Valid() bool {
	return t == RunAuto || t == RunManual || t == RunOnDemand
}

// Weights are the pillar weights used to combine War, Social and Reliability.
type Weights struct {
	War         float64 `json:"war" yaml:"war"`
	Social      float64 `json:"social" yaml:"social"`
	Reliability float64 `json:"reliability" yaml:"reliability"`
}

// ScoreBreakdown holds every 0..100 sub-score; nil means the signal was absent.
type ScoreBreakdown struct {
	War                   *float64 `json:"war"`
	Social                float64  `json:"social"`
	Reliability           float64  `json:"reliability"`
	DonationRatioScore    float64  `json:"donationRatioScore"`
	DonationVolumeScore   *float64 `json:"donationVolumeScore"`
	CapitalScore          *float64 `json:"capitalScore"`
	ActivityScore         float64  `json:"activityScore"`
	TenureScore           float64  `json:"tenureScore"`
	WarParticipationScore *float64 `json:"warParticipationScore"`
	WarConsistencyScore   *float64 `json:"warConsistencyScore"`
	BaseQualityScore      *float64 `json:"baseQualityScore"`
	TrophyPursuitScore    *float64 `json:"trophyPursuitScore"`
}

// RawBreakdown keeps the raw inputs behind the scores.
type RawBreakdown struct {
	Donations            int      `json:"donations"`
	DonationsReceived    int      `json:"donationsReceived"`
	DonationRatio        float64  `json:"donationRatio"`
	CapitalContributions int      `json:"capitalContributions"`
	CapitalOverall       *float64 `json:"capitalOverall"`
	WarOverall           *float64 `json:"warOverall"`
	WarParticipationRate *float64 `json:"warParticipationRate"`
	WarConsistency       *float64 `json:"warConsistency"`
	WarStars             *int     `json:"warStars"`
	RushPercent          *float64 `json:"rushPercent"`
	TenureDays           int      `json:"tenureDays"`
	Trophies             int      `json:"trophies"`
	RankedTrophies       int      `json:"rankedTrophies"`
	LeagueTierScore      *float64 `json:"leagueTierScore"`
	TimelineEvents       int      `json:"timelineEvents"`
}

// MemberMetrics is the full score/raw breakdown stored with each result.
type MemberMetrics struct {
	Scores   ScoreBreakdown   `json:"scores"`
	Raw      RawBreakdown     `json:"raw"`
	Activity ActivityEvidence `json:"activity"`
}

// AssessmentMember is one player's result within a run.
type AssessmentMember struct {
	RunID          string        `json:"runId"`
	PlayerTag      string        `json:"playerTag"`
	Name           string        `json:"name"`
	Role           Role          `json:"role"`
	TownHallLevel  int           `json:"townHallLevel"`
	CLVScore       float64       `json:"clvScore"`
	Band           Band          `json:"band"`
	Flags          []Flag        `json:"flags"`
	Recommendation string        `json:"recommendation"`
	ChatBlurb      string        `json:"chatBlurb,omitempty"`
	Metrics        MemberMetrics `json:"metrics"`
}

// HasFlag reports whether f is set on the member.
func (m AssessmentMember) HasFlag(f Flag) bool {
	for _, x := range m.Flags {
		if x == f {
			return true
		}
	}
	return false
}

// BandCounts counts members per band.
type BandCounts struct {
	Successor  int `json:"successor"`
	Lieutenant int `json:"lieutenant"`
	Core       int `json:"core"`
	Watch      int `json:"watch"`
	Liability  int `json:"liability"`
}

// Add increments the counter of band b.
func (c *BandCounts) Add(b Band) {
	switch b {
	case BandSuccessor:
		c.Successor++
	case BandLieutenant:
		c.Lieutenant++
	case BandCore:
		c.Core++
	case BandWatch:
		c.Watch++
	case BandLiability:
		c.Liability++
	}
}

// Get returns the counter of band b.
func (c BandCounts) Get(b Band) int {
	switch b {
	case BandSuccessor:
		return c.Successor
	case BandLieutenant:
		return c.Lieutenant
	case BandCore:
		return c.Core
	case BandWatch:
		return c.Watch
	case BandLiability:
		return c.Liability
	}
	return 0
}

// Summary aggregates a run's results.
type Summary struct {
	MemberCount         int        `json:"memberCount"`
	Bands               BandCounts `json:"bands"`
	PromotionCandidates int        `json:"promotionCandidates"`
	DemotionRisks       int        `json:"demotionRisks"`
	AverageCLV          float64    `json:"averageClv"`
}

// Coverage counts members for whom each signal was present.
type Coverage struct {
	WarMetrics      int `json:"warMetrics"`
	CapitalMetrics  int `json:"capitalMetrics"`
	ActivitySignals int `json:"activitySignals"`
	DonationSignals int `json:"donationSignals"`
}

// AssessmentRun is the aggregate root of one leadership assessment.
type AssessmentRun struct {
	ID          string    `json:"id"`
	ClanTag     string    `json:"clanTag"`
	SnapshotID  string    `json:"snapshotId"`
	PeriodStart time.Time `json:"periodStart"`
	PeriodEnd   time.Time `json:"periodEnd"`
	RunType     RunType   `json:"runType"`
	Weights     Weights   `json:"weights"`
	Summary     Summary   `json:"summary"`
	Coverage    Coverage  `json:"coverage"`
	CreatedAt   time.Time `json:"createdAt"`
}

// AssessmentRequest asks for one assessment run. Nil weights mean defaults
// and an empty run type means manual.
type AssessmentRequest struct {
	ClanTag string   `json:"clanTag"`
	Weights *Weights `json:"weights,omitempty"`
	RunType RunType  `json:"runType,omitempty"`
	Force   bool     `json:"force,omitempty"`
}

// AssessmentJob is a request waiting in the job queue.
type AssessmentJob struct {
	ID         string            `json:"id"`
	Request    AssessmentRequest `json:"request"`
	EnqueuedAt time.Time         `json:"enqueuedAt"`
}
