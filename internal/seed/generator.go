package seed

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/okian/clanboard/internal/domain/model"
)

// profile shapes how engaged a generated player is.
type profile struct {
	name       string
	engagement float64 // 0..1
	rush       float64 // rush percent centre
}

// Profiles in draw order; average players are the most common.
var profiles = []profile{
	{"average", 0.55, 25},
	{"average", 0.55, 25},
	{"high", 0.8, 12},
	{"low", 0.25, 45},
	{"elite", 0.95, 5},
	{"very-low", 0.08, 70},
	{"mid-high", 0.7, 18},
	{"mid-low", 0.4, 35},
}

// tagAlphabet is the character set of valid tags.
const tagAlphabet = "0289PYLQGRJCUV"

// Generator builds synthetic fixtures.
type Generator struct {
	clanTag  string
	members  int
	days     int
	wars     int
	weekends int
	seed     uint64
	now      func() time.Time
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithMembers sets the roster size.
func WithMembers(n int) GeneratorOption {
	return func(g *Generator) {
		if n > 0 {
			g.members = n
		}
	}
}

// WithHistory sets how many timeline days, wars and raid weekends are generated.
func WithHistory(days, wars, weekends int) GeneratorOption {
	return func(g *Generator) {
		if days >= 0 {
			g.days = days
		}
		if wars >= 0 {
			g.wars = wars
		}
		if weekends >= 0 {
			g.weekends = weekends
		}
	}
}

// WithSeed makes generation deterministic.
func WithSeed(seed uint64) GeneratorOption {
	return func(g *Generator) { g.seed = seed }
}

// WithGeneratorClock overrides the time source.
func WithGeneratorClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGenerator returns a generator for clanTag with a 30 member roster,
// 14 days of timeline, 6 wars and 4 raid weekends.
func NewGenerator(clanTag string, opts ...GeneratorOption) *Generator {
	g := &Generator{
		clanTag:  clanTag,
		members:  30,
		days:     14,
		wars:     6,
		weekends: 4,
		seed:     uint64(time.Now().UnixNano()),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate builds one snapshot plus its timeline, wars and raids.
func (g *Generator) Generate() Fixture {
	rng := rand.New(rand.NewPCG(g.seed, g.seed^0x9e3779b97f4a7c15))
	now := g.now().Truncate(time.Hour)
	today := now.Truncate(24 * time.Hour)

	snap := model.RosterSnapshot{
		ID:        uuid.NewString(),
		ClanTag:   g.clanTag,
		ClanName:  "Generated " + g.clanTag,
		FetchedAt: now,
	}
	var f Fixture

	for i := 0; i < g.members; i++ {
		p := profiles[rng.IntN(len(profiles))]
		m := g.member(rng, i, p)
		snap.Members = append(snap.Members, m)

		for d := 1; d <= g.days; d++ {
			if rng.Float64() > p.engagement {
				continue
			}
			f.Timeline = append(f.Timeline, model.TimelineRow{
				ClanTag:   g.clanTag,
				PlayerTag: m.Tag,
				Date:      today.AddDate(0, 0, -d),
				Deltas:    deltas(rng, p),
			})
		}
		for w := 0; w < g.wars; w++ {
			used := 0
			if rng.Float64() < p.engagement+0.1 {
				used = 1 + rng.IntN(2)
			}
			f.Wars = append(f.Wars, model.WarAttackRecord{
				ClanTag:          g.clanTag,
				WarID:            fmt.Sprintf("war-%d", w+1),
				PlayerTag:        m.Tag,
				EndedAt:          today.AddDate(0, 0, -2-w*3),
				AttacksUsed:      used,
				AttacksAvailable: 2,
				Stars:            starsFor(rng, used, p),
				Destruction:      float64(rng.IntN(101)) * p.engagement,
			})
		}
		for w := 0; w < g.weekends; w++ {
			used := int(6 * p.engagement * (0.7 + 0.3*rng.Float64()))
			f.Raids = append(f.Raids, model.CapitalRaidRecord{
				ClanTag:       g.clanTag,
				WeekendStart:  today.AddDate(0, 0, -4-w*7),
				PlayerTag:     m.Tag,
				AttacksUsed:   used,
				AttackLimit:   6,
				CapitalLooted: used * (2000 + rng.IntN(3000)),
			})
		}
	}

	f.Snapshots = []model.RosterSnapshot{snap}
	return f
}

func (g *Generator) member(rng *rand.Rand, i int, p profile) model.RosterMemberStat {
	role := model.RoleMember
	switch {
	case i == 0:
		role = model.RoleLeader
	case i <= 2:
		role = model.RoleCoLeader
	case rng.Float64() < 0.3:
		role = model.RoleElder
	}
	th := 9 + rng.IntN(9)
	rush := clamp(p.rush+float64(rng.IntN(21)-10), 0, 100)
	trophies := int(float64(1500+rng.IntN(4000)) * (0.5 + p.engagement/2))

	m := model.RosterMemberStat{
		Tag:                  randomTag(rng),
		Name:                 fmt.Sprintf("%s-%02d", p.name, i+1),
		Role:                 role,
		TownHallLevel:        th,
		Donations:            int(float64(rng.IntN(1500)) * p.engagement),
		DonationsReceived:    rng.IntN(800),
		CapitalContributions: int(float64(rng.IntN(200000)) * p.engagement),
		RushPercent:          &rush,
		TenureDays:           rng.IntN(400),
		Trophies:             trophies,
		Heroes: model.Heroes{
			BarbarianKing: int(float64(th*5) * p.engagement),
			ArcherQueen:   int(float64(th*5) * p.engagement),
		},
	}
	if p.engagement >= 0.5 {
		m.RankedLeagueID = 105000000 + 1 + rng.IntN(30)
		m.RankedTrophies = trophies
	}
	return m
}

func deltas(rng *rand.Rand, p profile) model.Deltas {
	scale := func(n int) int { return int(float64(rng.IntN(n+1)) * p.engagement) }
	return model.Deltas{
		WarStars:             scale(3),
		AttackWins:           scale(8),
		DefenseWins:          scale(3),
		CapitalContributions: scale(20000),
		BuilderBattleWins:    scale(4),
		Donations:            scale(150),
		DonationsReceived:    rng.IntN(80),
		Trophies:             rng.IntN(81) - 30,
		HeroUpgrades:         boolInt(rng.Float64() < p.engagement/6),
		PetUpgrades:          boolInt(rng.Float64() < p.engagement/10),
		EquipmentUpgrades:    boolInt(rng.Float64() < p.engagement/5),
		SpellUpgrades:        boolInt(rng.Float64() < p.engagement/8),
		AchievementProgress:  boolInt(rng.Float64() < p.engagement/3),
		ExpLevels:            boolInt(rng.Float64() < p.engagement/4),
		SuperTroopsActivated: boolInt(rng.Float64() < p.engagement/5),
	}
}

func starsFor(rng *rand.Rand, attacks int, p profile) int {
	stars := 0
	for i := 0; i < attacks; i++ {
		stars += min(3, int(float64(rng.IntN(4))*(0.5+p.engagement/2)+0.5))
	}
	return stars
}

func randomTag(rng *rand.Rand) string {
	b := make([]byte, 9)
	for i := range b {
		b[i] = tagAlphabet[rng.IntN(len(tagAlphabet))]
	}
	return "#" + string(b)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
