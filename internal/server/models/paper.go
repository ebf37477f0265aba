package models

import "time"

// Paper is a file uploaded by a user. The bytes live in file storage under
// StorageKey; the row keeps the original name and size.
type Paper struct {
	ID         string
	PaperName  string
	PaperSize  int64
	StorageKey string
	UpdatedAt  time.Time
	UserID     string

	// User is populated when the owner was loaded alongside the paper.
	User *User
}

// SetFile records a new file reference and bumps UpdatedAt.
func (p *Paper) SetFile(name string, size int64, storageKey string) {
	p.PaperName = name
	p.PaperSize = size
	p.StorageKey = storageKey
	p.UpdatedAt = time.Now()
}
