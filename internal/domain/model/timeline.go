package model

import "time"

// Deltas are the signed day-over-day changes between two daily snapshots.
type Deltas struct {
	WarStars             int `json:"warStars" yaml:"warStars"`
	AttackWins           int `json:"attackWins" yaml:"attackWins"`
	DefenseWins          int `json:"defenseWins" yaml:"defenseWins"`
	CapitalContributions int `json:"capitalContributions" yaml:"capitalContributions"`
	BuilderTrophies      int `json:"builderTrophies" yaml:"builderTrophies"`
	BuilderBattleWins    int `json:"builderBattleWins" yaml:"builderBattleWins"`
	Donations            int `json:"donations" yaml:"donations"`
	DonationsReceived    int `json:"donationsReceived" yaml:"donationsReceived"`
	Trophies             int `json:"trophies" yaml:"trophies"`
	RankedTrophies       int `json:"rankedTrophies" yaml:"rankedTrophies"`
	TroopUpgrades        int `json:"troopUpgrades" yaml:"troopUpgrades"`
	SpellUpgrades        int `json:"spellUpgrades" yaml:"spellUpgrades"`
	HeroUpgrades         int `json:"heroUpgrades" yaml:"heroUpgrades"`
	PetUpgrades          int `json:"petUpgrades" yaml:"petUpgrades"`
	EquipmentUpgrades    int `json:"equipmentUpgrades" yaml:"equipmentUpgrades"`
	AchievementProgress  int `json:"achievementProgress" yaml:"achievementProgress"`
	ExpLevels            int `json:"expLevels" yaml:"expLevels"`
	SuperTroopsActivated int `json:"superTroopsActivated" yaml:"superTroopsActivated"`
}

// TimelineRow is one stored per-player day row, keyed by (PlayerTag, Date).
type TimelineRow struct {
	ClanTag   string    `json:"clanTag" yaml:"clanTag"`
	PlayerTag string    `json:"playerTag" yaml:"playerTag"`
	Date      time.Time `json:"date" yaml:"date"`
	Deltas    Deltas    `json:"deltas" yaml:"deltas"`
}

// ActivityTimelineEvent is one day of deltas for a single player.
type ActivityTimelineEvent struct {
	Date   time.Time `json:"date"`
	Deltas Deltas    `json:"deltas"`
}

// ActivityLevel buckets an activity score.
type ActivityLevel string

// Activity levels, highest first.
const (
	ActivityVeryActive ActivityLevel = "Very Active"
	ActivityActive     ActivityLevel = "Active"
	ActivityModerate   ActivityLevel = "Moderate"
	ActivityLow        ActivityLevel = "Low"
	ActivityInactive   ActivityLevel = "Inactive"
)

// Confidence grades how much evidence backs an activity score.
type Confidence string

// Confidence grades, strongest first.
const (
	ConfidenceDefinitive Confidence = "definitive"
	ConfidenceHigh       Confidence = "high"
	ConfidenceMedium     Confidence = "medium"
	ConfidenceWeak       Confidence = "weak"
)

// ActivityEvidence is the computed activity assessment for one player.
type ActivityEvidence struct {
	Score        int           `json:"score"`
	Level        ActivityLevel `json:"level"`
	Confidence   Confidence    `json:"confidence"`
	Indicators   []string      `json:"indicators"`
	LastActiveAt time.Time     `json:"lastActiveAt"`
}
