// Package model contains domain records passed between layers.
package model

import (
	"strings"
	"time"
)

// Role is a member's clan role.
type Role string

// Clan roles. The game API reports elders as "admin".
const (
	RoleMember   Role = "member"
	RoleElder    Role = "elder"
	RoleCoLeader Role = "coLeader"
	RoleLeader   Role = "leader"
)

// ParseRole maps the spellings seen in snapshots onto a Role.
// Unknown values are treated as plain members.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(strings.ReplaceAll(s, "-", ""))) {
	case "leader":
		return RoleLeader
	case "coleader", "co_leader":
		return RoleCoLeader
	case "elder", "admin":
		return RoleElder
	default:
		return RoleMember
	}
}

// IsLeadership reports whether the role is leader or co-leader.
func (r Role) IsLeadership() bool {
	return r == RoleLeader || r == RoleCoLeader
}

// Heroes holds current hero levels; zero means locked.
type Heroes struct {
	BarbarianKing int `json:"bk" yaml:"bk"`
	ArcherQueen   int `json:"aq" yaml:"aq"`
	GrandWarden   int `json:"gw" yaml:"gw"`
	RoyalChampion int `json:"rc" yaml:"rc"`
	MinionPrince  int `json:"mp" yaml:"mp"`
}

// Levels returns hero levels in a fixed order (bk, aq, mp, gw, rc).
func (h Heroes) Levels() [5]int {
	return [5]int{h.BarbarianKing, h.ArcherQueen, h.MinionPrince, h.GrandWarden, h.RoyalChampion}
}

// RosterMemberStat is one player's latest raw attributes from a roster snapshot.
// Pointer fields are unknown when nil.
type RosterMemberStat struct {
	Tag                  string   `json:"tag" yaml:"tag"`
	Name                 string   `json:"name" yaml:"name"`
	Role                 Role     `json:"role" yaml:"role"`
	TownHallLevel        int      `json:"townHallLevel" yaml:"townHallLevel"`
	Donations            int      `json:"donations" yaml:"donations"`
	DonationsReceived    int      `json:"donationsReceived" yaml:"donationsReceived"`
	CapitalContributions int      `json:"capitalContributions" yaml:"capitalContributions"`
	RushPercent          *float64 `json:"rushPercent,omitempty" yaml:"rushPercent"`
	TenureDays           int      `json:"tenureDays" yaml:"tenureDays"`
	Trophies             int      `json:"trophies" yaml:"trophies"`
	RankedTrophies       int      `json:"rankedTrophies" yaml:"rankedTrophies"`
	RankedLeagueID       int      `json:"rankedLeagueId" yaml:"rankedLeagueId"`
	RankedLeagueName     string   `json:"rankedLeagueName,omitempty" yaml:"rankedLeagueName"`
	Heroes               Heroes   `json:"heroes" yaml:"heroes"`
}

// InRankedLeague reports whether a league id or name places the player in a
// ranked league.
func InRankedLeague(leagueID int, leagueName string) bool {
	return leagueID > 0 || strings.TrimSpace(leagueName) != ""
}

// HasLeagueSignal reports whether the player shows any ranked-league participation.
func (m RosterMemberStat) HasLeagueSignal() bool {
	return InRankedLeague(m.RankedLeagueID, m.RankedLeagueName) ||
		m.RankedTrophies > 0 || m.Trophies > 0
}

// RosterSnapshot is a point-in-time roster for a clan.
type RosterSnapshot struct {
	ID        string             `json:"id" yaml:"id"`
	ClanTag   string             `json:"clanTag" yaml:"clanTag"`
	ClanName  string             `json:"clanName" yaml:"clanName"`
	FetchedAt time.Time          `json:"fetchedAt" yaml:"fetchedAt"`
	Members   []RosterMemberStat `json:"members" yaml:"members"`
}
