// Package models holds the persisted trust entities: users and the
// domains, IPs and verified emails they own.
package models

import "time"

type Gender string

const (
	GenderMan    Gender = "Man"
	GenderWoman  Gender = "Woman"
	GenderOthers Gender = "Others"
)

type MaritalStatus string

const (
	MaritalSingle   MaritalStatus = "Single"
	MaritalMarried  MaritalStatus = "Married"
	MaritalDivorced MaritalStatus = "Divorced"
	MaritalWidow    MaritalStatus = "Widow"
	MaritalWidower  MaritalStatus = "Widower"
)

// Profile carries the optional, user-editable fields of an account.
type Profile struct {
	FirstName     string
	LastName      string
	PhoneNumber   string
	DateOfBirth   *time.Time
	Image         string
	Gender        Gender
	MaritalStatus MaritalStatus
}

// User is the identity root. Email is stored lower-cased.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Profile
	IsAdmin     bool
	IsSuperuser bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (g Gender) Valid() bool {
	switch g {
	case "", GenderMan, GenderWoman, GenderOthers:
		return true
	}
	return false
}

func (m MaritalStatus) Valid() bool {
	switch m {
	case "", MaritalSingle, MaritalMarried, MaritalDivorced, MaritalWidow, MaritalWidower:
		return true
	}
	return false
}
