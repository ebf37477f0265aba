// Package models defines the records persisted by the server.
package models

import (
	"slices"
	"time"

	"github.com/abswdsmn/conference-organiser/internal/common"
)

// User is an account able to log in. Password holds the bcrypt hash;
// PlainPassword only carries form input and is never written to the
// database.
type User struct {
	ID            string
	Email         string
	Username      string
	Password      string
	PlainPassword string `json:"-"`
	IsActive      bool
	Roles         []string
	Created       time.Time
	Updated       time.Time
	Papers        []*Paper
}

// NewUser returns an active user with the default USER role.
func NewUser() *User {
	now := time.Now()
	return &User{
		IsActive: true,
		Roles:    []string{common.RoleUser},
		Created:  now,
		Updated:  now,
	}
}

// NewApplicant returns an active user created through self-registration.
func NewApplicant() *User {
	u := NewUser()
	u.Roles = []string{common.RoleApplicant}
	return u
}

func (u *User) HasRole(role string) bool {
	return slices.Contains(u.Roles, role)
}

// AddPaper attaches p to u, setting the owning side.
func (u *User) AddPaper(p *Paper) {
	if slices.Contains(u.Papers, p) {
		return
	}
	u.Papers = append(u.Papers, p)
	p.UserID = u.ID
	p.User = u
}

// EraseCredentials drops the plaintext password once it has been hashed.
func (u *User) EraseCredentials() {
	u.PlainPassword = ""
}
