package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	FetchProfiles Phase = iota
	CountMoods
	CountTotal
)

func (p Phase) String() string {
	switch p {
	case FetchProfiles:
		return "fetch_profiles"
	case CountMoods:
		return "count_moods"
	case CountTotal:
		return "count_total"
	default:
		return ""
	}
}

func fetchProfilesUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchProfiles,
		Step:    1,
		Total:   1,
		Message: "Fetching profiles...",
	}
}

func foundProfilesUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchProfiles,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d users", total),
	}
}

func userCountedUpdate(step, total int, u UserStats) ProgressUpdate {
	if u.Err != nil {
		return ProgressUpdate{
			Phase:   CountMoods,
			Step:    step,
			Total:   total,
			Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, u.Profile.Email, u.Err),
			Data:    u,
		}
	}
	return ProgressUpdate{
		Phase:   CountMoods,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d moods)", step, total, u.Profile.Email, u.MoodCount),
		Data:    u,
	}
}

func countTotalUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   CountTotal,
		Step:    1,
		Total:   1,
		Message: "Counting all moods...",
	}
}
