package model

import "time"

type Barber struct {
	ID        string
	Name      string
	Title     string
	Bio       string
	PhotoURL  string
	IsActive  bool
	CreatedAt time.Time
}

type Service struct {
	ID              string
	Name            string
	Description     string
	DurationMinutes int
	BasePrice       string
	IsActive        bool
	CreatedAt       time.Time
}

// WorkingHours is a barber's schedule for one weekday.
// Minutes are counted from midnight in the shop timezone (stored as UTC clock).
type WorkingHours struct {
	BarberID    string
	Weekday     time.Weekday
	IsWorking   bool
	StartMinute int
	EndMinute   int
}
