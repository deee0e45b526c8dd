package models

import "time"

// Schedule is a class time slot. Times are zero-padded "HH:MM" strings,
// which keeps lexicographic and chronological order identical.
type Schedule struct {
	ID        int64
	StartTime string
	EndTime   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s Schedule) Range() string {
	return s.StartTime + " - " + s.EndTime
}
