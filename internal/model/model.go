package model

import "time"

const (
	RoleAttendee   = "attendee"
	RoleResearcher = "researcher"
	RoleAdmin      = "admin"
)

func ValidRole(role string) bool {
	switch role {
	case RoleAttendee, RoleResearcher, RoleAdmin:
		return true
	default:
		return false
	}
}

// Account is the registration record for one conference participant.
// VerificationToken is non-nil exactly while an email challenge is
// outstanding; signup confirmation and login share the same slot, so
// issuing a new token invalidates any previous one.
type Account struct {
	ID                string
	Username          string
	Email             string
	PasswordHash      string
	Role              string
	VerificationToken *string
	HasResearch       bool
	ResearchTitle     string
	ResearchAbstract  string
	CoAuthors         []string
	SessionPreference string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Research is the submission payload attached to an account.
type Research struct {
	Title             string
	Abstract          string
	CoAuthors         []string
	SessionPreference string
}
