package models

import (
	"strings"
	"time"
)

// PassStatus is the lifecycle state of a sponsor pass.
type PassStatus string

const (
	PassStatusActive  PassStatus = "active"
	PassStatusRevoked PassStatus = "revoked"
)

// SponsorPass is a credential issued to a named individual on behalf of a sponsor.
// A pass moves from active to revoked exactly once; the transition happens upstream.
type SponsorPass struct {
	ID          int64      `json:"id"`
	Sponsor     int64      `json:"sponsor"`
	SponsorName string     `json:"sponsorName"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Email       string     `json:"email"`
	Status      PassStatus `json:"status"`
	ExpiresAt   *time.Time `json:"expiresAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	RevokedAt   *time.Time `json:"revokedAt"`
}

// IsRevoked reports whether the pass has been revoked.
func (p SponsorPass) IsRevoked() bool {
	return p.Status == PassStatusRevoked
}

// FullName joins the holder's first and last name.
func (p SponsorPass) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Consistent reports whether status and revokedAt agree.
func (p SponsorPass) Consistent() bool {
	return p.IsRevoked() == (p.RevokedAt != nil)
}

// CreateSponsorPassRequest is sent to the partnerships service to issue a pass.
type CreateSponsorPassRequest struct {
	Sponsor   int64      `json:"sponsor"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Email     string     `json:"email"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// RevokeSponsorPassRequest identifies the pass to revoke.
type RevokeSponsorPassRequest struct {
	ID int64 `json:"id"`
}
