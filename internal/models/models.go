// package models defines the data model for the mood history
package models

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/desertthunder/moodx/internal/shared"
)

// MaxNoteLength is the maximum number of characters a note may hold.
const MaxNoteLength = 500

// DateLayout is the fixed-width calendar date format used by [Entry.Date].
// Its fixed width makes lexicographic comparison equal to chronological comparison.
const DateLayout = "2006-01-02"

// Entry is a single mood check-in.
//
// ID, Date, Timestamp and Owner never change after creation; only Mood and Note can be patched.
type Entry struct {
	ID        string `json:"id"`
	Mood      Mood   `json:"mood"`
	Date      string `json:"date"`
	Timestamp int64  `json:"timestamp"` // Unix milliseconds
	Note      string `json:"note,omitempty"`
	Owner     string `json:"user_id,omitempty"` // remote entries only
}

// Patch holds the mutable fields of an [Entry]. Nil fields are left untouched.
type Patch struct {
	Mood *Mood   `json:"mood,omitempty"`
	Note *string `json:"note,omitempty"`
}

// NewEntry builds a validated entry for mood at instant now, dated in now's location.
func NewEntry(mood Mood, note string, now time.Time) (Entry, error) {
	if err := mood.Validate(); err != nil {
		return Entry{}, err
	}
	if err := ValidateNote(note); err != nil {
		return Entry{}, err
	}

	return Entry{
		ID:        shared.GenerateID(),
		Mood:      mood,
		Date:      DateOf(now),
		Timestamp: now.UnixMilli(),
		Note:      note,
	}, nil
}

// Validate checks the entry's mood, note, and date.
func (e Entry) Validate() error {
	if err := e.Mood.Validate(); err != nil {
		return err
	}
	if err := ValidateNote(e.Note); err != nil {
		return err
	}
	return ValidateDate(e.Date)
}

// Time returns the creation instant in the local time zone.
func (e Entry) Time() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// Apply returns a copy of e with the patch's non-nil fields applied.
func (e Entry) Apply(p Patch) Entry {
	if p.Mood != nil {
		e.Mood = *p.Mood
	}
	if p.Note != nil {
		e.Note = *p.Note
	}
	return e
}

// Validate applies the creation rules to the fields the patch sets.
func (p Patch) Validate() error {
	if p.Mood != nil {
		if err := p.Mood.Validate(); err != nil {
			return err
		}
	}
	if p.Note != nil {
		if err := ValidateNote(*p.Note); err != nil {
			return err
		}
	}
	return nil
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Mood == nil && p.Note == nil
}

// ValidateNote rejects notes longer than [MaxNoteLength] characters.
func ValidateNote(note string) error {
	if n := utf8.RuneCountInString(note); n > MaxNoteLength {
		return fmt.Errorf("%w (%d > %d characters)", shared.ErrNoteTooLong, n, MaxNoteLength)
	}
	return nil
}

// ValidateDate checks that s is a [DateLayout] calendar date.
func ValidateDate(s string) error {
	if len(s) != len(DateLayout) {
		return fmt.Errorf("%w: %q", shared.ErrInvalidDate, s)
	}
	if _, err := time.Parse(DateLayout, s); err != nil {
		return fmt.Errorf("%w: %q", shared.ErrInvalidDate, s)
	}
	return nil
}

// DateOf formats t as a calendar date in t's own location.
func DateOf(t time.Time) string {
	return t.Format(DateLayout)
}
