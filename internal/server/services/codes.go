package services

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/trustkeeper/internal/common"
)

const (
	purposeEmail = "email"
	purposeReset = "reset"

	statusPending = "pending"
)

// codeRecord is the JSON value stored under a verification or reset key.
type codeRecord struct {
	Code      string    `json:"code"`
	Purpose   string    `json:"purpose"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// issueCode stores a fresh code under key, replacing any earlier one.
func (s *AuthService) issueCode(ctx context.Context, key, purpose string, ttl time.Duration) (string, error) {
	code, err := common.GenerateNumericCode(s.cfg.CodeLength)
	if err != nil {
		return "", fmt.Errorf("error generating code: %w", err)
	}

	value, err := json.Marshal(codeRecord{
		Code:      code,
		Purpose:   purpose,
		Status:    statusPending,
		CreatedAt: s.clock.Now().UTC(),
	})
	if err != nil {
		return "", err
	}

	if err := s.ephemeral.Put(ctx, key, string(value), ttl); err != nil {
		return "", unavailable(err)
	}

	s.metrics.Verifications.WithLabelValues(purpose, "issued").Inc()
	return code, nil
}

// issueEmailCodeSoft issues an email code but never fails the caller:
// an unreachable ephemeral store is logged and an empty code returned.
func (s *AuthService) issueEmailCodeSoft(ctx context.Context, userID string) string {
	code, err := s.issueCode(ctx, verificationKey(userID), purposeEmail, s.cfg.VerificationTTL)
	if err != nil {
		s.degraded(ctx, "issue_code", err, "user_id", userID)
		return ""
	}
	return code
}

// consumeCode accepts code at most once. Missing, expired, mismatched and
// already consumed codes all fail with common.ErrInvalidVerificationCode.
func (s *AuthService) consumeCode(ctx context.Context, key, purpose, code string) error {
	raw, found, err := s.ephemeral.Get(ctx, key)
	if err != nil {
		return unavailable(err)
	}
	if !found {
		s.metrics.Verifications.WithLabelValues(purpose, "invalid").Inc()
		return common.ErrInvalidVerificationCode
	}

	var rec codeRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil || rec.Purpose != purpose {
		s.metrics.Verifications.WithLabelValues(purpose, "invalid").Inc()
		return common.ErrInvalidVerificationCode
	}
	if subtle.ConstantTimeCompare([]byte(rec.Code), []byte(code)) != 1 {
		s.metrics.Verifications.WithLabelValues(purpose, "invalid").Inc()
		return common.ErrInvalidVerificationCode
	}

	consumed, err := s.ephemeral.CompareAndDelete(ctx, key, raw)
	if err != nil {
		return unavailable(err)
	}
	if !consumed {
		s.metrics.Verifications.WithLabelValues(purpose, "invalid").Inc()
		return common.ErrInvalidVerificationCode
	}

	s.metrics.Verifications.WithLabelValues(purpose, "ok").Inc()
	return nil
}
