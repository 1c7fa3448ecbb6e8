package models

import (
	"fmt"
	"strings"

	"github.com/desertthunder/moodx/internal/shared"
)

// Mood is one of the six fixed mood categories.
type Mood string

const (
	Happy   Mood = "happy"
	Sad     Mood = "sad"
	Calm    Mood = "calm"
	Anxious Mood = "anxious"
	Excited Mood = "excited"
	Tired   Mood = "tired"
)

// Moods lists every mood in display order.
var Moods = []Mood{Happy, Sad, Calm, Anxious, Excited, Tired}

type moodInfo struct {
	label string
	emoji string
	color string
	score int
	tips  []string
}

var moodTable = map[Mood]moodInfo{
	Happy: {
		label: "Happy", emoji: "🌞", color: "#FFD700", score: 5,
		tips: []string{
			"Share your joy with the people close to you",
			"Use the moment for an activity you love",
			"Capture this moment in a gratitude journal",
			"Put on some upbeat music",
		},
	},
	Sad: {
		label: "Sad", emoji: "🌧️", color: "#6B7280", score: 0,
		tips: []string{
			"It's normal to feel sad sometimes",
			"Call a close friend or someone you love",
			"Watch a comforting video or film",
			"Make yourself a warm tea and take some time for yourself",
			"Don't hesitate to ask for help if you need it",
		},
	},
	Calm: {
		label: "Calm", emoji: "🌤️", color: "#87CEEB", score: 3,
		tips: []string{
			"Enjoy this moment of serenity",
			"Try a five minute meditation",
			"Read a few pages of a good book",
			"Take a walk outside if you can",
			"Practice some deep breathing",
		},
	},
	Anxious: {
		label: "Anxious", emoji: "⚡", color: "#FF6B6B", score: 1,
		tips: []string{
			"Breathe deeply: in for 4s, hold for 4s, out for 4s",
			"Write down what is worrying you",
			"Focus on what you can control",
			"Try a short yoga or stretching session",
			"Call someone you trust",
		},
	},
	Excited: {
		label: "Excited", emoji: "🌸", color: "#FF69B4", score: 4,
		tips: []string{
			"Channel this positive energy",
			"Start the project you keep putting off",
			"Work out to use up some of that energy",
			"Share your enthusiasm with others",
			"Write your creative ideas down while they flow",
		},
	},
	Tired: {
		label: "Tired", emoji: "💤", color: "#9CA3AF", score: 2,
		tips: []string{
			"Give yourself permission to rest",
			"Take a short nap if you can",
			"Drink some water and eat something light",
			"Go to bed a little earlier tonight",
			"Put the screens away for a while",
		},
	},
}

// ParseMood converts s into a [Mood], failing with [shared.ErrInvalidMood] for unknown values.
func ParseMood(s string) (Mood, error) {
	m := Mood(strings.TrimSpace(s))
	if err := m.Validate(); err != nil {
		return "", err
	}
	return m, nil
}

// Validate reports whether m is one of the six moods.
func (m Mood) Validate() error {
	if _, ok := moodTable[m]; !ok {
		return fmt.Errorf("%w: %q", shared.ErrInvalidMood, string(m))
	}
	return nil
}

func (m Mood) String() string { return string(m) }

// Label returns the human-readable name of the mood.
func (m Mood) Label() string { return moodTable[m].label }

// Emoji returns the mood's pictogram.
func (m Mood) Emoji() string { return moodTable[m].emoji }

// Color returns the mood's chart color as a hex string.
func (m Mood) Color() string { return moodTable[m].color }

// Score maps the mood onto the 0-5 chart scale.
func (m Mood) Score() int { return moodTable[m].score }

// Tips returns wellness suggestions for the mood.
func (m Mood) Tips() []string {
	tips := moodTable[m].tips
	out := make([]string, len(tips))
	copy(out, tips)
	return out
}
