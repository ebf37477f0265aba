package models

import "time"

// Event is a conference event. Every field is optional.
type Event struct {
	ID          string
	Title       string
	Description string
	Date        *time.Time
	Address     string
	Postcode    string
}
