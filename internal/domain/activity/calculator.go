// Package activity scores how active a player has been from their current
// roster state plus a window of daily timeline deltas.
package activity

import (
	"fmt"
	"math"
	"time"

	"github.com/okian/clanboard/internal/domain/model"
)

// DefaultWindowDays is the scoring lookback when none is configured.
const DefaultWindowDays = 7

// Level thresholds on the final score.
const (
	veryActiveScore = 70
	activeScore     = 45
	moderateScore   = 28
	lowScore        = 15
)

// Confidence thresholds on the evidence accumulator.
const (
	definitiveEvidence = 4.0
	highEvidence       = 2.5
	mediumEvidence     = 1.0
)

const (
	trophySwingThreshold   = 100
	donationBurstThreshold = 50
	capitalBaseBonus       = 6.0
	capitalMaxBonus        = 12.0
	capitalBonusStep       = 2500.0
)

type donationTier struct {
	min        int
	points     float64
	confidence float64
}

var donationTiers = []donationTier{
	{500, 15, 1.5},
	{300, 12, 1.25},
	{200, 10, 1},
	{100, 7, 0.75},
	{50, 5, 0.5},
	{1, 2, 0.25},
}

type trophyTier struct {
	min    int
	points float64
}

var trophyTiers = []trophyTier{{5000, 4}, {4200, 3}, {3600, 2}, {3000, 1}}

var roleBonus = map[model.Role]float64{
	model.RoleLeader:   8,
	model.RoleCoLeader: 7,
	model.RoleElder:    4,
}

// Snapshot is the instantaneous player state the calculator reads.
type Snapshot struct {
	Role           model.Role
	Trophies       int
	RankedTrophies int
	RankedLeagueID int
	RankedLeague   string
	Donations      int
	TownHallLevel  int
	Heroes         model.Heroes
}

// SnapshotOf extracts the activity inputs from a roster row.
func SnapshotOf(m model.RosterMemberStat) Snapshot {
	return Snapshot{
		Role:           m.Role,
		Trophies:       m.Trophies,
		RankedTrophies: m.RankedTrophies,
		RankedLeagueID: m.RankedLeagueID,
		RankedLeague:   m.RankedLeagueName,
		Donations:      m.Donations,
		TownHallLevel:  m.TownHallLevel,
		Heroes:         m.Heroes,
	}
}

// Calculator computes ActivityEvidence. It holds no per-player state.
type Calculator struct {
	windowDays int
	now        func() time.Time
}

// NewCalculator returns a calculator with a 7 day window and the wall clock.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{windowDays: DefaultWindowDays, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// evidence accumulates score points, confidence points and indicators.
type evidence struct {
	score      float64
	confidence float64
	indicators []string
}

func (e *evidence) add(points, confidence float64, format string, args ...any) {
	e.score += points
	e.confidence += confidence
	e.indicators = append(e.indicators, fmt.Sprintf(format, args...))
}

// window sums the non-negative part of each delta inside the lookback.
type window struct {
	model.Deltas
	trophySwing int
}

func (w *window) observe(d model.Deltas) {
	pos := func(v int) int {
		if v < 0 {
			return 0
		}
		return v
	}
	w.WarStars += pos(d.WarStars)
	w.AttackWins += pos(d.AttackWins)
	w.DefenseWins += pos(d.DefenseWins)
	w.CapitalContributions += pos(d.CapitalContributions)
	w.BuilderTrophies += pos(d.BuilderTrophies)
	w.BuilderBattleWins += pos(d.BuilderBattleWins)
	w.Donations += pos(d.Donations)
	w.DonationsReceived += pos(d.DonationsReceived)
	w.Trophies += pos(d.Trophies)
	w.RankedTrophies += pos(d.RankedTrophies)
	w.TroopUpgrades += pos(d.TroopUpgrades)
	w.SpellUpgrades += pos(d.SpellUpgrades)
	w.HeroUpgrades += pos(d.HeroUpgrades)
	w.PetUpgrades += pos(d.PetUpgrades)
	w.EquipmentUpgrades += pos(d.EquipmentUpgrades)
	w.AchievementProgress += pos(d.AchievementProgress)
	w.ExpLevels += pos(d.ExpLevels)
	w.SuperTroopsActivated += pos(d.SuperTroopsActivated)
	w.trophySwing += abs(d.Trophies) + abs(d.RankedTrophies)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Calculate scores one player. It never fails; missing values count as zero.
func (c *Calculator) Calculate(s Snapshot, events []model.ActivityTimelineEvent) model.ActivityEvidence {
	now := c.now()
	since := now.AddDate(0, 0, -c.windowDays)

	var ev evidence
	ev.indicators = []string{}

	trophies := s.RankedTrophies
	if trophies <= 0 {
		trophies = s.Trophies
	}
	if model.InRankedLeague(s.RankedLeagueID, s.RankedLeague) && trophies > 0 {
		ev.add(20, 1.5, "Ranked league participation (%d trophies)", trophies)
	}
	for _, t := range donationTiers {
		if s.Donations >= t.min {
			ev.add(t.points, t.confidence, "Donations this season: %d", s.Donations)
			break
		}
	}

	var w window
	lastActive := time.Time{}
	for _, e := range events {
		if e.Date.After(lastActive) {
			lastActive = e.Date
		}
		if e.Date.Before(since) {
			continue
		}
		w.observe(e.Deltas)
	}
	if lastActive.IsZero() {
		lastActive = now
	}

	if w.WarStars > 0 || w.AttackWins > 0 {
		ev.add(15, 1.5, "War participation (%d stars, %d attack wins)", w.WarStars, w.AttackWins)
	}
	if w.DefenseWins > 0 {
		ev.add(4, 0.25, "Defense wins: %d", w.DefenseWins)
	}
	if w.CapitalContributions > 0 {
		bonus := math.Min(capitalMaxBonus, capitalBaseBonus+float64(w.CapitalContributions)/capitalBonusStep)
		ev.add(bonus, 1, "Capital contributions: %d", w.CapitalContributions)
	}
	if w.BuilderTrophies > 0 || w.BuilderBattleWins > 0 {
		ev.add(8, 0.5, "Builder base activity")
	}
	if w.HeroUpgrades > 0 {
		ev.add(6, 1, "Hero upgrades: %d", w.HeroUpgrades)
	}
	if w.PetUpgrades > 0 {
		ev.add(5, 0.75, "Pet upgrades: %d", w.PetUpgrades)
	}
	if w.EquipmentUpgrades > 0 {
		ev.add(5, 0.75, "Equipment upgrades: %d", w.EquipmentUpgrades)
	}
	if lab := w.TroopUpgrades + w.SpellUpgrades; lab > 0 {
		ev.add(4, 0.75, "Lab upgrades: %d", lab)
	}
	if w.AchievementProgress > 0 {
		ev.add(3, 0.25, "Achievement progress")
	}
	if w.ExpLevels > 0 {
		ev.add(3, 0.5, "XP levels gained: %d", w.ExpLevels)
	}
	if w.SuperTroopsActivated > 0 {
		ev.add(2, 0.5, "Super troops activated: %d", w.SuperTroopsActivated)
	}
	if w.trophySwing >= trophySwingThreshold {
		ev.add(4, 0.5, "Trophy movement: %d", w.trophySwing)
	}
	if w.Donations >= donationBurstThreshold {
		ev.add(4, 0.75, "Donation burst: %d in %d days", w.Donations, c.windowDays)
	}

	if pct, ok := heroProgress(s.TownHallLevel, s.Heroes); ok && pct >= 40 {
		switch {
		case pct >= 80:
			ev.add(6, 0, "Hero development %.0f%% of cap", pct)
		case pct >= 60:
			ev.add(4, 0, "Hero development %.0f%% of cap", pct)
		default:
			ev.add(3, 0, "Hero development %.0f%% of cap", pct)
		}
	} else if anyHero(s.Heroes) {
		ev.add(1, 0, "Heroes unlocked")
	}

	if b, ok := roleBonus[s.Role]; ok {
		ev.add(b, 0, "Clan role: %s", s.Role)
	}

	best := s.RankedTrophies
	if s.Trophies > best {
		best = s.Trophies
	}
	for _, t := range trophyTiers {
		if best >= t.min {
			ev.add(t.points, 0, "Trophy tier %d+", t.min)
			break
		}
	}

	score := int(math.Round(math.Max(0, ev.score)))
	return model.ActivityEvidence{
		Score:        score,
		Level:        levelFor(score),
		Confidence:   confidenceFor(ev.confidence),
		Indicators:   ev.indicators,
		LastActiveAt: lastActive,
	}
}

func levelFor(score int) model.ActivityLevel {
	switch {
	case score >= veryActiveScore:
		return model.ActivityVeryActive
	case score >= activeScore:
		return model.ActivityActive
	case score >= moderateScore:
		return model.ActivityModerate
	case score >= lowScore:
		return model.ActivityLow
	default:
		return model.ActivityInactive
	}
}

func confidenceFor(points float64) model.Confidence {
	switch {
	case points >= definitiveEvidence:
		return model.ConfidenceDefinitive
	case points >= highEvidence:
		return model.ConfidenceHigh
	case points >= mediumEvidence:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceWeak
	}
}
