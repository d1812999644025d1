package model

import "time"

// WarAttackRecord is one player's participation in one clan war.
type WarAttackRecord struct {
	ClanTag          string    `json:"clanTag" yaml:"clanTag"`
	WarID            string    `json:"warId" yaml:"warId"`
	PlayerTag        string    `json:"playerTag" yaml:"playerTag"`
	EndedAt          time.Time `json:"endedAt" yaml:"endedAt"`
	AttacksUsed      int       `json:"attacksUsed" yaml:"attacksUsed"`
	AttacksAvailable int       `json:"attacksAvailable" yaml:"attacksAvailable"`
	Stars            int       `json:"stars" yaml:"stars"`
	Destruction      float64   `json:"destruction" yaml:"destruction"`
}

// CapitalRaidRecord is one player's participation in one raid weekend.
type CapitalRaidRecord struct {
	ClanTag       string    `json:"clanTag" yaml:"clanTag"`
	WeekendStart  time.Time `json:"weekendStart" yaml:"weekendStart"`
	PlayerTag     string    `json:"playerTag" yaml:"playerTag"`
	AttacksUsed   int       `json:"attacksUsed" yaml:"attacksUsed"`
	AttackLimit   int       `json:"attackLimit" yaml:"attackLimit"`
	CapitalLooted int       `json:"capitalLooted" yaml:"capitalLooted"`
}
