package activity

import "github.com/okian/clanboard/internal/domain/model"

// heroCaps holds max hero levels per town hall, ordered like
// model.Heroes.Levels (bk, aq, mp, gw, rc). Zero means not unlocked.
var heroCaps = map[int][5]int{
	7:  {10, 0, 0, 0, 0},
	8:  {10, 0, 0, 0, 0},
	9:  {30, 30, 10, 0, 0},
	10: {40, 40, 20, 0, 0},
	11: {50, 50, 30, 20, 0},
	12: {65, 65, 40, 40, 0},
	13: {75, 75, 50, 50, 25},
	14: {85, 85, 60, 60, 30},
	15: {90, 90, 70, 65, 40},
	16: {95, 95, 80, 70, 45},
	17: {100, 100, 90, 75, 50},
}

const (
	minCappedTownHall = 7
	maxCappedTownHall = 17
)

// heroProgress returns the average hero level as a percentage of the town
// hall caps, and false when the town hall has no caps.
func heroProgress(th int, h model.Heroes) (float64, bool) {
	if th < minCappedTownHall {
		return 0, false
	}
	if th > maxCappedTownHall {
		th = maxCappedTownHall
	}
	caps := heroCaps[th]
	levels := h.Levels()
	var sum float64
	n := 0
	for i, c := range caps {
		if c <= 0 {
			continue
		}
		lvl := levels[i]
		if lvl > c {
			lvl = c
		}
		if lvl < 0 {
			lvl = 0
		}
		sum += float64(lvl) / float64(c)
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n) * 100, true
}

func anyHero(h model.Heroes) bool {
	for _, l := range h.Levels() {
		if l > 0 {
			return true
		}
	}
	return false
}
