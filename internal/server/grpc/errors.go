package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/trustkeeper/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// errorCodes maps error kinds to gRPC codes. Order matters: a fail-closed
// revocation check carries both ErrRevokedToken and ErrStorageUnavailable
// and is reported as Unavailable so clients may retry.
var errorCodes = []struct {
	err  error
	code codes.Code
}{
	{common.ErrStorageUnavailable, codes.Unavailable},
	{common.ErrUserNotFound, codes.NotFound},
	{common.ErrInvalidCredentials, codes.InvalidArgument},
	{common.ErrInvalidVerificationCode, codes.InvalidArgument},
	{common.ErrInvalidArgument, codes.InvalidArgument},
	{common.ErrUserAlreadyExists, codes.PermissionDenied},
	{common.ErrRefreshTokenRequired, codes.PermissionDenied},
	{common.ErrInvalidPermission, codes.PermissionDenied},
	{common.ErrMalformedCredential, codes.Unauthenticated},
	{common.ErrCredentialExpired, codes.Unauthenticated},
	{common.ErrRevokedToken, codes.Unauthenticated},
	{common.ErrAccessTokenRequired, codes.Unauthenticated},
	{common.ErrAlreadyVerified, codes.AlreadyExists},
	{common.ErrDuplicateEmail, codes.AlreadyExists},
}

func codeOf(err error) codes.Code {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return e.code
		}
	}
	return codes.Internal
}

// toStatus converts a service error into a gRPC status. Internal and
// storage errors are logged and their details withheld from the client.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	code := codeOf(err)
	switch code {
	case codes.Internal:
		s.logger.Error(ctx, "internal error", "error", err)
		return status.Error(code, "internal error")
	case codes.Unavailable:
		s.logger.Warn(ctx, "storage unavailable", "error", err)
		return status.Error(code, common.ErrStorageUnavailable.Error())
	case codes.Unauthenticated:
		return status.Error(code, kindMessage(err))
	}
	return status.Error(code, err.Error())
}

// kindMessage strips parser details from credential errors.
func kindMessage(err error) string {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return e.err.Error()
		}
	}
	return err.Error()
}
