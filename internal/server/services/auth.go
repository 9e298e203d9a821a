package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/trustkeeper/internal/common"
	"github.com/dmitrijs2005/trustkeeper/internal/logging"
	"github.com/dmitrijs2005/trustkeeper/internal/netx"
	"github.com/dmitrijs2005/trustkeeper/internal/server/auth"
	"github.com/dmitrijs2005/trustkeeper/internal/server/ephemeral"
	"github.com/dmitrijs2005/trustkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/trustkeeper/internal/server/models"
	"github.com/dmitrijs2005/trustkeeper/internal/server/passwords"
	"github.com/dmitrijs2005/trustkeeper/internal/server/trust"
	"github.com/dmitrijs2005/trustkeeper/internal/server/truststore"
	"github.com/dmitrijs2005/trustkeeper/internal/timex"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	verificationKey = ephemeral.VerificationCodeKey
	resetKey        = ephemeral.ResetCodeKey
)

// AuthService decides whether registration and login attempts are trusted
// and manages the credentials and codes that follow from them.
//
// Durable facts live in the trust store, short-lived state in the
// ephemeral store. No operation spans both transactionally. When the
// ephemeral store is unreachable, revocation checks fail closed while code
// issuance during register and login fails open.
type AuthService struct {
	trust     truststore.Store
	ephemeral ephemeral.Store
	codec     *auth.Codec
	hasher    passwords.Hasher
	clock     timex.Clock
	log       logging.Logger
	metrics   *metrics.Metrics
	cfg       AuthConfig
}

func NewAuthService(
	ts truststore.Store,
	es ephemeral.Store,
	codec *auth.Codec,
	hasher passwords.Hasher,
	clock timex.Clock,
	log logging.Logger,
	m *metrics.Metrics,
	cfg AuthConfig,
) *AuthService {
	if clock == nil {
		clock = timex.SystemClock()
	}
	if m == nil {
		m = metrics.New(prometheus.NewRegistry())
	}
	if cfg.CodeLength <= 0 {
		cfg.CodeLength = DefaultAuthConfig().CodeLength
	}
	return &AuthService{
		trust:     ts,
		ephemeral: es,
		codec:     codec,
		hasher:    hasher,
		clock:     clock,
		log:       log.With("module", "auth"),
		metrics:   m,
		cfg:       cfg,
	}
}

// Register creates an account or links a new domain to an existing one.
// It never returns credentials; the caller logs in afterwards.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	req.Email = netx.NormalizeEmail(req.Email)
	req.Domain = netx.NormalizeDomain(req.Domain)
	if req.Email == "" || req.Password == "" || req.Domain == "" || req.IP == "" {
		return nil, fmt.Errorf("%w: email, password, domain and ip are required", common.ErrInvalidArgument)
	}
	if !req.Profile.Gender.Valid() || !req.Profile.MaritalStatus.Valid() {
		return nil, fmt.Errorf("%w: unknown gender or marital status", common.ErrInvalidArgument)
	}
	isAdmin, isSuperuser, err := req.Permission.flags()
	if err != nil {
		return nil, err
	}

	res, err := s.registerExisting(ctx, req)
	if errors.Is(err, common.ErrUserNotFound) {
		res, err = s.registerNew(ctx, req, isAdmin, isSuperuser)
		if errors.Is(err, common.ErrDuplicateEmail) {
			// lost the race to a concurrent registration of the same email
			res, err = s.registerExisting(ctx, req)
		}
	}

	switch {
	case err == nil && res.Created:
		s.metrics.Registrations.WithLabelValues("created").Inc()
		s.log.Info(ctx, "user registered", "user_id", res.User.ID, "domain", req.Domain)
	case err == nil:
		s.metrics.Registrations.WithLabelValues("domain_added").Inc()
		s.log.Info(ctx, "domain linked", "user_id", res.User.ID, "domain", req.Domain)
	case errors.Is(err, common.ErrUserAlreadyExists):
		s.metrics.Registrations.WithLabelValues("exists").Inc()
	default:
		s.metrics.Registrations.WithLabelValues("error").Inc()
	}
	return res, err
}

func (s *AuthService) registerExisting(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	user, err := s.trust.FindUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}

	known, err := s.trust.HasDomain(ctx, user.ID, req.Domain)
	if err != nil {
		return nil, err
	}
	if known {
		return nil, common.ErrUserAlreadyExists
	}

	added, err := s.trust.AddDomain(ctx, user.ID, req.Domain)
	if err != nil {
		return nil, err
	}
	if !added {
		return nil, common.ErrUserAlreadyExists
	}

	verified, err := s.trust.HasVerifiedEmail(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	res := &RegisterResult{User: user, DomainAdded: true, Verified: verified}
	if !verified {
		res.VerificationCode = s.issueEmailCodeSoft(ctx, user.ID)
	}
	return res, nil
}

func (s *AuthService) registerNew(ctx context.Context, req RegisterRequest, isAdmin, isSuperuser bool) (*RegisterResult, error) {
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user, err := s.trust.CreateUser(ctx, &models.User{
		Email:        req.Email,
		PasswordHash: hash,
		Profile:      req.Profile,
		IsAdmin:      isAdmin,
		IsSuperuser:  isSuperuser,
	}, req.Domain, req.IP)
	if err != nil {
		return nil, err
	}

	return &RegisterResult{
		User:             user,
		Created:          true,
		DomainAdded:      true,
		VerificationCode: s.issueEmailCodeSoft(ctx, user.ID),
	}, nil
}

// Login checks the password and the claimed domain, then issues an access
// and a refresh token. An untrusted IP is reported, not rejected.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	user, err := s.trust.FindUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, common.ErrUserNotFound) {
			s.hasher.VerifyDummy(req.Password)
			s.metrics.Logins.WithLabelValues("not_found").Inc()
		} else {
			s.metrics.Logins.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		s.countAttempt(ctx, ephemeral.LoginAttemptsKey(normalizeIP(req.IP)))
		s.metrics.Logins.WithLabelValues("invalid_credentials").Inc()
		return nil, common.ErrInvalidCredentials
	}

	facts, err := s.trust.LoadFacts(ctx, user.ID)
	if err != nil {
		s.metrics.Logins.WithLabelValues("error").Inc()
		return nil, err
	}

	verdict := trust.Evaluate(facts, req.Domain, req.IP)
	if !verdict.DomainTrusted {
		s.metrics.Logins.WithLabelValues("untrusted_domain").Inc()
		s.log.Warn(ctx, "login from unknown domain", "user_id", user.ID, "domain", req.Domain)
		return nil, common.ErrUserNotFound
	}

	res := &LoginResult{User: user, Verdict: verdict, Verified: facts.Verified()}
	if !res.Verified {
		res.VerificationCode = s.issueEmailCodeSoft(ctx, user.ID)
	}

	pair, err := s.issuePair(user, "login")
	if err != nil {
		s.metrics.Logins.WithLabelValues("error").Inc()
		return nil, err
	}
	res.TokenPair = *pair

	if !verdict.IPTrusted {
		res.NewIPAttempts = s.countAttempt(ctx, ephemeral.NewIPAttemptsKey(user.ID, normalizeIP(req.IP)))
		s.log.Info(ctx, "login from untrusted ip", "user_id", user.ID, "ip", req.IP, "attempts", res.NewIPAttempts)
	}

	s.metrics.Logins.WithLabelValues("ok").Inc()
	return res, nil
}

// Refresh exchanges a refresh token for a new access token. The refresh
// token is returned unchanged unless rotate is set, in which case the old
// one is revoked and a new one issued. Concurrent rotations of one token
// yield at most one new refresh token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, rotate bool) (*TokenPair, error) {
	claims, err := s.codec.Verify(refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.Kind() != auth.KindRefresh {
		return nil, common.ErrRefreshTokenRequired
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}
	if rotate {
		if err := s.consumeRefresh(ctx, claims); err != nil {
			return nil, err
		}
	}

	access, _, err := s.codec.Issue(claims.User, auth.KindAccess, s.cfg.AccessTTL)
	if err != nil {
		return nil, fmt.Errorf("error issuing access token: %w", err)
	}
	s.metrics.TokensIssued.WithLabelValues("refresh", auth.KindAccess.String()).Inc()

	pair := &TokenPair{AccessToken: access, RefreshToken: refreshToken}
	if !rotate {
		return pair, nil
	}

	pair.RefreshToken, _, err = s.codec.Issue(claims.User, auth.KindRefresh, s.cfg.RefreshTTL)
	if err != nil {
		return nil, fmt.Errorf("error issuing refresh token: %w", err)
	}
	s.metrics.TokensIssued.WithLabelValues("refresh", auth.KindRefresh.String()).Inc()
	return pair, nil
}

// consumeRefresh writes the revocation marker of a refresh token being
// rotated. Only the first writer may proceed.
func (s *AuthService) consumeRefresh(ctx context.Context, claims *auth.Claims) error {
	ttl := claims.RemainingLifetime(s.clock.Now())
	if ttl <= 0 {
		return common.ErrCredentialExpired
	}
	won, err := s.ephemeral.PutIfAbsent(ctx, ephemeral.RevokedKey(claims.ID), "1", ttl)
	if err != nil {
		s.metrics.Revocations.WithLabelValues("error").Inc()
		return unavailable(err)
	}
	if !won {
		return common.ErrRevokedToken
	}
	s.metrics.Revocations.WithLabelValues("ok").Inc()
	return nil
}

// Revoke marks a credential of either kind as unusable for the rest of its
// lifetime. Revoking an already expired credential succeeds without effect.
func (s *AuthService) Revoke(ctx context.Context, token string) error {
	claims, err := s.codec.VerifyIgnoringExpiry(token)
	if err != nil {
		return err
	}
	return s.revokeClaims(ctx, claims)
}

func (s *AuthService) revokeClaims(ctx context.Context, claims *auth.Claims) error {
	ttl := claims.RemainingLifetime(s.clock.Now())
	if ttl <= 0 {
		s.metrics.Revocations.WithLabelValues("expired").Inc()
		return nil
	}
	if err := s.ephemeral.Put(ctx, ephemeral.RevokedKey(claims.ID), "1", ttl); err != nil {
		s.metrics.Revocations.WithLabelValues("error").Inc()
		return unavailable(err)
	}
	s.metrics.Revocations.WithLabelValues("ok").Inc()
	return nil
}

// Authenticate validates an access token for a protected call.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*auth.Claims, error) {
	claims, err := s.codec.Verify(accessToken)
	if err != nil {
		return nil, err
	}
	if claims.Kind() != auth.KindAccess {
		return nil, common.ErrAccessTokenRequired
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// checkRevoked fails closed: if revocation state cannot be read the
// credential is treated as revoked.
func (s *AuthService) checkRevoked(ctx context.Context, claims *auth.Claims) error {
	revoked, err := s.ephemeral.Exists(ctx, ephemeral.RevokedKey(claims.ID))
	if err != nil {
		s.degraded(ctx, "revocation_check", err, "jti", claims.ID)
		return errors.Join(common.ErrRevokedToken, unavailable(err))
	}
	if revoked {
		return common.ErrRevokedToken
	}
	return nil
}

// ConfirmVerification consumes the pending email code of userID and marks
// the user's email as verified.
func (s *AuthService) ConfirmVerification(ctx context.Context, userID, code string) error {
	user, err := s.trust.FindUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.consumeCode(ctx, verificationKey(user.ID), purposeEmail, code); err != nil {
		return err
	}
	if err := s.trust.AddVerifiedEmail(ctx, user.ID, user.Email); err != nil {
		return err
	}
	s.log.Info(ctx, "email verified", "user_id", user.ID)
	return nil
}

// RequestVerificationCode replaces the pending email code of userID.
func (s *AuthService) RequestVerificationCode(ctx context.Context, userID string) (string, error) {
	if _, err := s.trust.FindUserByID(ctx, userID); err != nil {
		return "", err
	}
	verified, err := s.trust.HasVerifiedEmail(ctx, userID)
	if err != nil {
		return "", err
	}
	if verified {
		return "", common.ErrAlreadyVerified
	}
	return s.issueCode(ctx, verificationKey(userID), purposeEmail, s.cfg.VerificationTTL)
}

// RequestPasswordReset issues a reset code for email. An unknown email
// yields an empty code and no error.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	user, err := s.trust.FindUserByEmail(ctx, email)
	if errors.Is(err, common.ErrUserNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return s.issueCode(ctx, resetKey(user.ID), purposeReset, s.cfg.ResetTTL)
}

// ResetPassword consumes a reset code once and sets a new password.
func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("%w: password is required", common.ErrInvalidArgument)
	}
	user, err := s.trust.FindUserByEmail(ctx, email)
	if errors.Is(err, common.ErrUserNotFound) {
		return common.ErrInvalidVerificationCode
	}
	if err != nil {
		return err
	}
	if err := s.consumeCode(ctx, resetKey(user.ID), purposeReset, code); err != nil {
		return err
	}
	return s.setPassword(ctx, user.ID, newPassword)
}

// ChangePassword replaces the password after checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("%w: password is required", common.ErrInvalidArgument)
	}
	user, err := s.trust.FindUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(oldPassword, user.PasswordHash) {
		return common.ErrInvalidCredentials
	}
	return s.setPassword(ctx, user.ID, newPassword)
}

func (s *AuthService) setPassword(ctx context.Context, userID, password string) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}
	if err := s.trust.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}
	s.log.Info(ctx, "password changed", "user_id", userID)
	return nil
}

// TrustIP adds ip to the known IPs of userID and clears its new-IP counter.
// It reports whether the IP was new.
func (s *AuthService) TrustIP(ctx context.Context, userID, ip string) (bool, error) {
	normalized, ok := netx.NormalizeIP(ip)
	if !ok {
		return false, fmt.Errorf("%w: invalid ip %q", common.ErrInvalidArgument, ip)
	}
	added, err := s.trust.AddIP(ctx, userID, normalized)
	if err != nil {
		return false, err
	}
	if err := s.ephemeral.Delete(ctx, ephemeral.NewIPAttemptsKey(userID, normalized)); err != nil {
		s.degraded(ctx, "clear_attempts", err, "user_id", userID)
	}
	return added, nil
}

func (s *AuthService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	return s.trust.FindUserByID(ctx, userID)
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*models.User, error) {
	user, err := s.trust.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile := update.apply(user.Profile)
	if !profile.Gender.Valid() || !profile.MaritalStatus.Valid() {
		return nil, fmt.Errorf("%w: unknown gender or marital status", common.ErrInvalidArgument)
	}
	return s.trust.UpdateProfile(ctx, userID, profile)
}

// DeleteAccount removes the user with every trust record, then drops any
// pending codes.
func (s *AuthService) DeleteAccount(ctx context.Context, userID string) error {
	if err := s.trust.DeleteUser(ctx, userID); err != nil {
		return err
	}
	for _, key := range []string{verificationKey(userID), resetKey(userID)} {
		if err := s.ephemeral.Delete(ctx, key); err != nil {
			s.degraded(ctx, "clear_codes", err, "user_id", userID)
		}
	}
	s.log.Info(ctx, "account deleted", "user_id", userID)
	return nil
}

func (s *AuthService) issuePair(user *models.User, flow string) (*TokenPair, error) {
	subject := auth.Subject{Email: user.Email, UserID: user.ID}

	access, _, err := s.codec.Issue(subject, auth.KindAccess, s.cfg.AccessTTL)
	if err != nil {
		return nil, fmt.Errorf("error issuing access token: %w", err)
	}
	refresh, _, err := s.codec.Issue(subject, auth.KindRefresh, s.cfg.RefreshTTL)
	if err != nil {
		return nil, fmt.Errorf("error issuing refresh token: %w", err)
	}

	s.metrics.TokensIssued.WithLabelValues(flow, auth.KindAccess.String()).Inc()
	s.metrics.TokensIssued.WithLabelValues(flow, auth.KindRefresh.String()).Inc()
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// countAttempt bumps an attempt counter. Failures are logged and reported
// as zero.
func (s *AuthService) countAttempt(ctx context.Context, key string) int64 {
	n, err := s.ephemeral.IncrementAttempt(ctx, key, s.cfg.AttemptWindow)
	if err != nil {
		s.degraded(ctx, "count_attempt", err, "key", key)
		return 0
	}
	return n
}

func (s *AuthService) degraded(ctx context.Context, operation string, err error, args ...any) {
	s.metrics.EphemeralDegrade.WithLabelValues(operation).Inc()
	s.log.Warn(ctx, "ephemeral store unavailable", append([]any{"operation", operation, "error", err}, args...)...)
}

func unavailable(err error) error {
	if errors.Is(err, common.ErrStorageUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", common.ErrStorageUnavailable, err)
}

func normalizeIP(ip string) string {
	n, _ := netx.NormalizeIP(ip)
	return n
}
