// Package ephemeral holds short-lived state: verification and reset codes,
// revoked credential markers and attempt counters. Every entry carries a
// TTL. Nothing here is durable; callers treat a missing key as unknown.
package ephemeral

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidTTL is returned for a ttl or window that is not positive. Every
// entry must expire.
var ErrInvalidTTL = errors.New("ephemeral: ttl must be positive")

type Store interface {
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	// PutIfAbsent stores value only when key holds no live entry and
	// reports whether it did. Of several concurrent callers at most one
	// gets true.
	PutIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	// Get reports found=false for a missing or expired key.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	// CompareAndDelete removes key only while it still holds expected.
	// Of several concurrent callers at most one gets true.
	CompareAndDelete(ctx context.Context, key, expected string) (bool, error)
	// IncrementAttempt bumps the counter at key and returns the new value.
	// The window starts when the counter is created and is not extended by
	// later increments.
	IncrementAttempt(ctx context.Context, key string, window time.Duration) (int64, error)
}

func VerificationCodeKey(userID string) string { return "verification_code:" + userID }

func ResetCodeKey(userID string) string { return "reset_code:" + userID }

func RevokedKey(jti string) string { return "revoked:" + jti }

func LoginAttemptsKey(ip string) string { return "attempts:login:" + ip }

func NewIPAttemptsKey(userID, ip string) string { return "attempts:new_ip:" + userID + ":" + ip }
