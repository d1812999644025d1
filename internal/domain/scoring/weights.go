package scoring

import (
	"fmt"

	"github.com/okian/clanboard/internal/domain/model"
)

// DefaultWeights are used when a caller supplies none or their total is not positive.
var DefaultWeights = model.Weights{War: 0.35, Social: 0.25, Reliability: 0.40}

// ValidateWeights rejects negative or non-finite weights.
func ValidateWeights(w model.Weights) error {
	for name, v := range map[string]float64{"war": w.War, "social": w.Social, "reliability": w.Reliability} {
		f, ok := Finite(v)
		if !ok || f < 0 {
			return fmt.Errorf("%w: %s=%v", ErrInvalidWeights, name, v)
		}
	}
	return nil
}

// NormalizeWeights rescales w to sum to 1. Negative or non-finite entries
// count as zero; a non-positive total falls back to DefaultWeights.
func NormalizeWeights(w model.Weights) model.Weights {
	war := nonNegative(w.War)
	social := nonNegative(w.Social)
	rel := nonNegative(w.Reliability)
	total := war + social + rel
	if total <= 0 {
		return DefaultWeights
	}
	return model.Weights{War: war / total, Social: social / total, Reliability: rel / total}
}

func nonNegative(v float64) float64 {
	f, ok := Finite(v)
	if !ok || f < 0 {
		return 0
	}
	return f
}
