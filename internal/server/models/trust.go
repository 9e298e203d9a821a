package models

import "time"

// KnownDomain is a client application a user registered through.
// (UserID, Domain) is unique.
type KnownDomain struct {
	ID        string
	UserID    string
	Domain    string
	CreatedAt time.Time
}

// KnownIP is a network origin the user has been trusted from.
type KnownIP struct {
	ID        string
	UserID    string
	IP        string
	CreatedAt time.Time
}

// VerifiedEmail records a completed email ownership challenge.
type VerifiedEmail struct {
	ID         string
	UserID     string
	Email      string
	VerifiedAt time.Time
}
