package services

import (
	"time"

	"github.com/dmitrijs2005/trustkeeper/internal/common"
	"github.com/dmitrijs2005/trustkeeper/internal/server/config"
	"github.com/dmitrijs2005/trustkeeper/internal/server/models"
	"github.com/dmitrijs2005/trustkeeper/internal/server/trust"
)

// Permission selects the role a new account is created with.
type Permission string

const (
	PermissionUser      Permission = ""
	PermissionAdmin     Permission = "admin"
	PermissionSuperuser Permission = "superuser"
)

func (p Permission) flags() (isAdmin, isSuperuser bool, err error) {
	switch p {
	case PermissionUser:
		return false, false, nil
	case PermissionAdmin:
		return true, false, nil
	case PermissionSuperuser:
		return true, true, nil
	}
	return false, false, common.ErrInvalidPermission
}

// AuthConfig holds the lifetimes the service stamps on credentials, codes
// and counters.
type AuthConfig struct {
	AccessTTL       time.Duration
	RefreshTTL      time.Duration
	VerificationTTL time.Duration
	ResetTTL        time.Duration
	AttemptWindow   time.Duration
	CodeLength      int
}

func DefaultAuthConfig() AuthConfig {
	return AuthConfig{
		AccessTTL:       30 * time.Minute,
		RefreshTTL:      7 * 24 * time.Hour,
		VerificationTTL: 15 * time.Minute,
		ResetTTL:        15 * time.Minute,
		AttemptWindow:   30 * 24 * time.Hour,
		CodeLength:      6,
	}
}

func AuthConfigFrom(cfg *config.Config) AuthConfig {
	c := DefaultAuthConfig()
	c.AccessTTL = cfg.AccessTokenValidityDuration
	c.RefreshTTL = cfg.RefreshTokenValidityDuration
	c.VerificationTTL = cfg.VerificationCodeTTL
	c.ResetTTL = cfg.ResetCodeTTL
	c.AttemptWindow = cfg.AttemptWindow
	return c
}

type RegisterRequest struct {
	Email      string
	Password   string
	Domain     string
	IP         string
	Permission Permission
	Profile    models.Profile
}

// RegisterResult never carries credentials. VerificationCode is set when a
// code was issued and is meant for out-of-band delivery only.
type RegisterResult struct {
	User             *models.User
	Created          bool
	DomainAdded      bool
	Verified         bool
	VerificationCode string
}

type LoginRequest struct {
	Email    string
	Password string
	Domain   string
	IP       string
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// LoginResult reports the trust verdict next to the issued tokens. An
// untrusted IP does not block the login; NewIPAttempts counts how many
// times this user has logged in from it within the attempt window.
type LoginResult struct {
	User *models.User
	TokenPair
	Verdict          trust.Verdict
	Verified         bool
	VerificationCode string
	NewIPAttempts    int64
}

// ProfileUpdate is a partial profile change; nil fields are left as is.
type ProfileUpdate struct {
	FirstName     *string
	LastName      *string
	PhoneNumber   *string
	DateOfBirth   *time.Time
	Image         *string
	Gender        *models.Gender
	MaritalStatus *models.MaritalStatus
}

func (u ProfileUpdate) apply(p models.Profile) models.Profile {
	if u.FirstName != nil {
		p.FirstName = *u.FirstName
	}
	if u.LastName != nil {
		p.LastName = *u.LastName
	}
	if u.PhoneNumber != nil {
		p.PhoneNumber = *u.PhoneNumber
	}
	if u.DateOfBirth != nil {
		dob := *u.DateOfBirth
		p.DateOfBirth = &dob
	}
	if u.Image != nil {
		p.Image = *u.Image
	}
	if u.Gender != nil {
		p.Gender = *u.Gender
	}
	if u.MaritalStatus != nil {
		p.MaritalStatus = *u.MaritalStatus
	}
	return p
}
