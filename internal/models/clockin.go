package models

import "time"

// ClockInRecord is a single staff check-in. The insert timestamp is
// assigned by the store, never by the caller.
type ClockInRecord struct {
	ID             int64     `json:"id"`
	Email          string    `json:"email"`
	Location       string    `json:"location"`
	InsertDatetime time.Time `json:"insert_datetime"`
}

type ClockInFilter struct {
	Email    string
	Location string
	Since    time.Time
}
