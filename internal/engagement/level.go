package engagement

import "math"

// MaxLevel is the highest reachable level.
const MaxLevel = 20

const pointsPerHighLevel = 500

// levelFloors holds the karma needed to reach levels 1 through 5.
var levelFloors = []int{0, 100, 300, 600, 1000}

// LevelFor maps cumulative karma to a level: <100 is 1, <300 is 2, <600 is 3,
// <1000 is 4, <1500 is 5, then one level per further 500 points up to MaxLevel.
func LevelFor(karma int) int {
	switch {
	case karma < 100:
		return 1
	case karma < 300:
		return 2
	case karma < 600:
		return 3
	case karma < 1000:
		return 4
	case karma < 1500:
		return 5
	}
	return min(5+(karma-1500)/pointsPerHighLevel, MaxLevel)
}

// LevelFloor returns the least karma at which level is reached.
func LevelFloor(level int) int {
	if level <= 1 {
		return 0
	}
	if level <= len(levelFloors) {
		return levelFloors[level-1]
	}
	// level 5 spans 1000-1999
	return 1500 + (level-5)*pointsPerHighLevel
}

// LevelProgress describes how far the user is through the current level.
type LevelProgress struct {
	CurrentLevel       int     `json:"current_level"`
	KarmaPoints        int     `json:"karma_points"`
	PointsInLevel      int     `json:"points_in_level"`
	PointsToNext       int     `json:"points_to_next"`
	ProgressPercentage float64 `json:"progress_percentage"`
	NextLevel          int     `json:"next_level"`
}

// ProgressFor computes level progress from a karma total.
func ProgressFor(karma int) LevelProgress {
	level := LevelFor(karma)
	floor := LevelFloor(level)
	p := LevelProgress{
		CurrentLevel:  level,
		KarmaPoints:   karma,
		PointsInLevel: karma - floor,
	}

	if level >= MaxLevel {
		p.NextLevel = MaxLevel
		p.ProgressPercentage = 100
		return p
	}

	next := LevelFloor(level + 1)
	p.NextLevel = level + 1
	p.PointsToNext = max(next-karma, 0)
	pct := float64(karma-floor) / float64(next-floor) * 100
	p.ProgressPercentage = math.Min(math.Round(pct*10)/10, 100)
	return p
}
