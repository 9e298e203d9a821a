package grpc

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/trustkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"user not found", common.ErrUserNotFound, codes.NotFound},
		{"invalid credentials", common.ErrInvalidCredentials, codes.InvalidArgument},
		{"invalid code", common.ErrInvalidVerificationCode, codes.InvalidArgument},
		{"user exists", common.ErrUserAlreadyExists, codes.PermissionDenied},
		{"refresh required", common.ErrRefreshTokenRequired, codes.PermissionDenied},
		{"invalid permission", common.ErrInvalidPermission, codes.PermissionDenied},
		{"wrapped malformed", fmt.Errorf("%w: token is malformed", common.ErrMalformedCredential), codes.Unauthenticated},
		{"expired", common.ErrCredentialExpired, codes.Unauthenticated},
		{"revoked", common.ErrRevokedToken, codes.Unauthenticated},
		{"access required", common.ErrAccessTokenRequired, codes.Unauthenticated},
		{"already verified", common.ErrAlreadyVerified, codes.AlreadyExists},
		{"storage", fmt.Errorf("%w: dial tcp", common.ErrStorageUnavailable), codes.Unavailable},
		{"fail-closed revocation", errors.Join(common.ErrRevokedToken, common.ErrStorageUnavailable), codes.Unavailable},
		{"unknown", errors.New("boom"), codes.Internal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, codeOf(tt.err))
		})
	}
}

func TestToStatus_HidesDetails(t *testing.T) {
	s := &GRPCServer{logger: nopLogger{}}
	ctx := context.Background()

	st := status.Convert(s.toStatus(ctx, errors.New("pq: password authentication failed")))
	assert.Equal(t, codes.Internal, st.Code())
	assert.Equal(t, "internal error", st.Message())

	st = status.Convert(s.toStatus(ctx, fmt.Errorf("%w: signature is invalid", common.ErrMalformedCredential)))
	assert.Equal(t, codes.Unauthenticated, st.Code())
	assert.Equal(t, common.ErrMalformedCredential.Error(), st.Message())

	st = status.Convert(s.toStatus(ctx, fmt.Errorf("%w: redis: connection refused", common.ErrStorageUnavailable)))
	assert.Equal(t, codes.Unavailable, st.Code())
	assert.Equal(t, common.ErrStorageUnavailable.Error(), st.Message())
}
