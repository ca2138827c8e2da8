package models

import "strings"

// User is the operator signed in to the partnerships service.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// Greeting returns the name shown in the dashboard header.
func (u User) Greeting() string {
	if name := strings.TrimSpace(u.FirstName); name != "" {
		return name
	}
	if name := strings.TrimSpace(u.Username); name != "" {
		return name
	}
	return "Sponsor"
}
