package store

import (
	"github.com/desertthunder/moodx/internal/models"
)

// ChartPoint is one day of the mood chart. Mood is empty for days without an entry.
type ChartPoint struct {
	Date  string      `json:"date"`
	Mood  models.Mood `json:"mood,omitempty"`
	Value int         `json:"value"`
}

// Summary aggregates the cached history.
type Summary struct {
	Total  int                 `json:"total"`
	Days   int                 `json:"days"` // distinct dates with at least one entry
	ByMood map[models.Mood]int `json:"by_mood"`
}

// Chart returns one point per day for the last days days, oldest first, ending today.
//
// Each day uses the first entry with that date in history order, which is the most recent one.
func (s *Store) Chart(days int) []ChartPoint {
	if days <= 0 {
		return nil
	}
	now := s.now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	byDate := make(map[string]models.Mood, len(s.history))
	for _, e := range s.history {
		if _, seen := byDate[e.Date]; !seen {
			byDate[e.Date] = e.Mood
		}
	}

	points := make([]ChartPoint, 0, days)
	for i := days - 1; i >= 0; i-- {
		date := models.DateOf(now.AddDate(0, 0, -i))
		point := ChartPoint{Date: date}
		if mood, ok := byDate[date]; ok {
			point.Mood = mood
			point.Value = mood.Score()
		}
		points = append(points, point)
	}
	return points
}

// Summary counts the cached entries per mood.
func (s *Store) Summary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := Summary{ByMood: make(map[models.Mood]int, len(models.Moods))}
	dates := make(map[string]struct{})
	for _, e := range s.history {
		sum.Total++
		sum.ByMood[e.Mood]++
		dates[e.Date] = struct{}{}
	}
	sum.Days = len(dates)
	return sum
}
