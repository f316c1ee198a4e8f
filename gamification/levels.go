package gamification

import "math"

// LevelThreshold describes one level's inclusive point range. Max < 0 marks
// the open-ended top level.
type LevelThreshold struct {
	Level int
	Name  string
	Min   int
	Max   int
}

// LevelThresholds are the fixed level bounds, lowest first.
var LevelThresholds = []LevelThreshold{
	{Level: 1, Name: "Beginner", Min: 0, Max: 500},
	{Level: 2, Name: "Growing", Min: 501, Max: 1500},
	{Level: 3, Name: "Strong", Min: 1501, Max: 3000},
	{Level: 4, Name: "Unbreakable", Min: 3001, Max: -1},
}

// LevelProgress is the result of mapping a point total onto the level table.
type LevelProgress struct {
	Level           int     `json:"current_level"`
	LevelName       string  `json:"level_name"`
	NextLevel       int     `json:"next_level,omitempty"`
	ProgressPercent float64 `json:"progress_percentage"`
	PointsToNext    int     `json:"points_to_next_level"`
}

// LevelFor maps a cumulative point total to its level, progress percentage
// within the level (two decimals) and points remaining to the next level.
// The top level always reports 100% and zero points remaining.
func LevelFor(totalPoints int) LevelProgress {
	t := LevelThresholds[0]
	for _, cand := range LevelThresholds {
		if totalPoints >= cand.Min && (cand.Max < 0 || totalPoints <= cand.Max) {
			t = cand
			break
		}
	}

	if t.Max < 0 {
		return LevelProgress{
			Level:           t.Level,
			LevelName:       t.Name,
			ProgressPercent: 100,
			PointsToNext:    0,
		}
	}

	progress := float64(totalPoints-t.Min) / float64(t.Max-t.Min) * 100
	return LevelProgress{
		Level:           t.Level,
		LevelName:       t.Name,
		NextLevel:       t.Level + 1,
		ProgressPercent: round2(progress),
		PointsToNext:    t.Max - totalPoints,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
