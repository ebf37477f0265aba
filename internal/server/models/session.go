package models

import "time"

// SessionRecord is the persisted form of a web session.
type SessionRecord struct {
	ID        string
	Data      map[string]string
	ExpiresAt time.Time
}
