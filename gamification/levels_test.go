package gamification

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelForBoundaries(t *testing.T) {
	cases := []struct {
		points int
		level  int
		name   string
	}{
		{0, 1, "Beginner"},
		{500, 1, "Beginner"},
		{501, 2, "Growing"},
		{1500, 2, "Growing"},
		{1501, 3, "Strong"},
		{3000, 3, "Strong"},
		{3001, 4, "Unbreakable"},
		{999999, 4, "Unbreakable"},
	}

	for _, c := range cases {
		got := LevelFor(c.points)
		assert.Equal(t, c.level, got.Level, "points=%d", c.points)
		assert.Equal(t, c.name, got.LevelName, "points=%d", c.points)
	}
}

func TestLevelForProgressAfterLevelUp(t *testing.T) {
	// Just past the first threshold the progress bar restarts near zero.
	got := LevelFor(510)
	assert.Equal(t, 2, got.Level)
	assert.Equal(t, 3, got.NextLevel)
	assert.InDelta(t, 0.9, got.ProgressPercent, 0.01)
	assert.Equal(t, 990, got.PointsToNext)
}

func TestLevelForTopLevel(t *testing.T) {
	got := LevelFor(5000)
	assert.Equal(t, 4, got.Level)
	assert.Equal(t, float64(100), got.ProgressPercent)
	assert.Equal(t, 0, got.PointsToNext)
	assert.Equal(t, 0, got.NextLevel)
}

func TestLevelForMonotonic(t *testing.T) {
	prev := 0
	for points := 0; points <= 4000; points += 50 {
		level := LevelFor(points).Level
		assert.GreaterOrEqual(t, level, prev, "points=%d", points)
		prev = level
	}
}

func TestAchievementProgressPercent(t *testing.T) {
	assert.Equal(t, float64(50), AchievementProgressPercent(5, 10))
	assert.Equal(t, float64(100), AchievementProgressPercent(10, 10))
	assert.Equal(t, float64(100), AchievementProgressPercent(25, 10))
	assert.Equal(t, float64(0), AchievementProgressPercent(0, 10))
	assert.Equal(t, float64(100), AchievementProgressPercent(3, 0))
}
