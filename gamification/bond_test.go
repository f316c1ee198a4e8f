package gamification

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeBondScoreBaseline(t *testing.T) {
	// No activity at all still yields the baseline consistency score.
	assert.Equal(t, 5, ComputeBondScore(0, 0, 0))
}

func TestComputeBondScoreActivityCap(t *testing.T) {
	// Activity component caps at 60 no matter how many completions; both
	// sides are above 20 here so consistency contributes 10.
	assert.Equal(t, 60+0+10, ComputeBondScore(100, 100, 0))
}

func TestComputeBondScoreStreakCap(t *testing.T) {
	// Streak component caps at 30.
	assert.Equal(t, 0+30+5, ComputeBondScore(0, 0, 365))
}

func TestComputeBondScoreConsistencyRequiresBoth(t *testing.T) {
	// One partner carrying the relationship does not earn the bonus.
	oneSided := ComputeBondScore(40, 0, 0)
	assert.Equal(t, 60+5, oneSided)

	balanced := ComputeBondScore(20, 20, 0)
	assert.Equal(t, 60+10, balanced)
}

func TestComputeBondScoreNeverExceeds100(t *testing.T) {
	assert.Equal(t, 100, ComputeBondScore(100, 100, 100))
	for u := 0; u <= 50; u += 10 {
		for p := 0; p <= 50; p += 10 {
			for s := 0; s <= 40; s += 10 {
				score := ComputeBondScore(u, p, s)
				assert.GreaterOrEqual(t, score, 0)
				assert.LessOrEqual(t, score, 100)
			}
		}
	}
}
