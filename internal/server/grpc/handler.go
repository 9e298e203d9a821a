package grpc

import (
	"context"

	"github.com/dmitrijs2005/trustkeeper/internal/common"
	"github.com/dmitrijs2005/trustkeeper/internal/server/models"
	"github.com/dmitrijs2005/trustkeeper/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Register only creates regular accounts. Admins and superusers are created
// through trustctl.
func (s *GRPCServer) Register(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	if _, ok := req.GetFields()["permission"]; ok {
		return nil, s.toStatus(ctx, common.ErrInvalidPermission)
	}

	profile, err := profileFromStruct(req)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	result, err := s.auth.Register(ctx, services.RegisterRequest{
		Email:      stringField(req, "email"),
		Password:   stringField(req, "password"),
		Domain:     clientDomain(ctx),
		IP:         clientIP(ctx),
		Permission: services.PermissionUser,
		Profile:    profile,
	})
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return reply(map[string]any{
		"user_id":                result.User.ID,
		"created":                result.Created,
		"domain_added":           result.DomainAdded,
		"verified":               result.Verified,
		"verification_code_sent": result.VerificationCode != "",
	})
}

func (s *GRPCServer) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	result, err := s.auth.Login(ctx, services.LoginRequest{
		Email:    stringField(req, "email"),
		Password: stringField(req, "password"),
		Domain:   clientDomain(ctx),
		IP:       clientIP(ctx),
	})
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return reply(map[string]any{
		"user_id":                result.User.ID,
		"access_token":           result.AccessToken,
		"refresh_token":          result.RefreshToken,
		"domain_trusted":         result.Verdict.DomainTrusted,
		"ip_trusted":             result.Verdict.IPTrusted,
		"verified":               result.Verified,
		"verification_code_sent": result.VerificationCode != "",
		"new_ip_attempts":        result.NewIPAttempts,
	})
}

func (s *GRPCServer) Refresh(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	tokens, err := s.auth.Refresh(ctx, stringField(req, "refresh_token"), boolField(req, "rotate"))
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return reply(map[string]any{
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
	})
}

func (s *GRPCServer) Revoke(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	if err := s.auth.Revoke(ctx, stringField(req, "token")); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return reply(map[string]any{"revoked": true})
}

func (s *GRPCServer) ConfirmVerification(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	userID, err := s.userID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.auth.ConfirmVerification(ctx, userID, stringField(req, "code")); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return reply(map[string]any{"verified": true})
}

func (s *GRPCServer) RequestVerificationCode(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {

	userID, err := s.userID(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.auth.RequestVerificationCode(ctx, userID); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return reply(map[string]any{"sent": true})
}

// RequestPasswordReset answers the same way for known and unknown emails.
func (s *GRPCServer) RequestPasswordReset(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	if _, err := s.auth.RequestPasswordReset(ctx, stringField(req, "email")); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return reply(map[string]any{"sent": true})
}

func (s *GRPCServer) ResetPassword(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	err := s.auth.ResetPassword(ctx, stringField(req, "email"), stringField(req, "code"), stringField(req, "new_password"))
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return reply(map[string]any{"reset": true})
}

// TrustIP trusts the ip field, or the caller's own address when it is empty.
func (s *GRPCServer) TrustIP(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	userID, err := s.userID(ctx)
	if err != nil {
		return nil, err
	}
	ip := stringField(req, "ip")
	if ip == "" {
		ip = clientIP(ctx)
	}
	added, err := s.auth.TrustIP(ctx, userID, ip)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return reply(map[string]any{"added": added})
}

func (s *GRPCServer) GetProfile(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {

	userID, err := s.userID(ctx)
	if err != nil {
		return nil, err
	}
	user, err := s.auth.GetUser(ctx, userID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return reply(userFields(user))
}

// UpdateProfile changes only the fields present in the request.
func (s *GRPCServer) UpdateProfile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	userID, err := s.userID(ctx)
	if err != nil {
		return nil, err
	}
	dob, err := optionalDate(req, "date_of_birth")
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	update := services.ProfileUpdate{
		FirstName:   optionalString(req, "first_name"),
		LastName:    optionalString(req, "last_name"),
		PhoneNumber: optionalString(req, "phone_number"),
		DateOfBirth: dob,
		Image:       optionalString(req, "image"),
	}
	if g := optionalString(req, "gender"); g != nil {
		gender := models.Gender(*g)
		update.Gender = &gender
	}
	if m := optionalString(req, "marital_status"); m != nil {
		marital := models.MaritalStatus(*m)
		update.MaritalStatus = &marital
	}

	user, err := s.auth.UpdateProfile(ctx, userID, update)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return reply(userFields(user))
}

func (s *GRPCServer) ChangePassword(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	userID, err := s.userID(ctx)
	if err != nil {
		return nil, err
	}
	err = s.auth.ChangePassword(ctx, userID, stringField(req, "old_password"), stringField(req, "new_password"))
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return reply(map[string]any{"changed": true})
}

// DeleteAccount removes the caller's account and revokes the access token
// the request was made with.
func (s *GRPCServer) DeleteAccount(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {

	userID, err := s.userID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.auth.DeleteAccount(ctx, userID); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	if err := s.auth.Revoke(ctx, metadataValue(ctx, common.AccessTokenHeaderName)); err != nil {
		s.logger.Warn(ctx, "could not revoke token of deleted account", "user_id", userID, "error", err)
	}
	return reply(map[string]any{"deleted": true})
}

func (s *GRPCServer) Ping(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {

	return reply(map[string]any{"status": "OK"})

}

func (s *GRPCServer) userID(ctx context.Context) (string, error) {
	claims, ok := claimsFromContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "missing token")
	}
	return claims.User.UserID, nil
}
