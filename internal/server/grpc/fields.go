package grpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/dmitrijs2005/trustkeeper/internal/common"
	"github.com/dmitrijs2005/trustkeeper/internal/server/models"
	"google.golang.org/grpc/peer"
	"google.golang.org/protobuf/types/known/structpb"
)

const dateLayout = "2006-01-02"

func stringField(in *structpb.Struct, name string) string {
	return in.GetFields()[name].GetStringValue()
}

func boolField(in *structpb.Struct, name string) bool {
	return in.GetFields()[name].GetBoolValue()
}

// optionalString returns nil when the field is absent.
func optionalString(in *structpb.Struct, name string) *string {
	v, ok := in.GetFields()[name]
	if !ok {
		return nil
	}
	s := v.GetStringValue()
	return &s
}

func optionalDate(in *structpb.Struct, name string) (*time.Time, error) {
	raw := optionalString(in, name)
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be YYYY-MM-DD", common.ErrInvalidArgument, name)
	}
	return &t, nil
}

func reply(fields map[string]any) (*structpb.Struct, error) {
	return structpb.NewStruct(fields)
}

func profileFields(p models.Profile) map[string]any {
	var dob any
	if p.DateOfBirth != nil {
		dob = p.DateOfBirth.Format(dateLayout)
	}
	return map[string]any{
		"first_name":     p.FirstName,
		"last_name":      p.LastName,
		"phone_number":   p.PhoneNumber,
		"date_of_birth":  dob,
		"image":          p.Image,
		"gender":         string(p.Gender),
		"marital_status": string(p.MaritalStatus),
	}
}

func profileFromStruct(in *structpb.Struct) (models.Profile, error) {
	dob, err := optionalDate(in, "date_of_birth")
	if err != nil {
		return models.Profile{}, err
	}
	return models.Profile{
		FirstName:     stringField(in, "first_name"),
		LastName:      stringField(in, "last_name"),
		PhoneNumber:   stringField(in, "phone_number"),
		DateOfBirth:   dob,
		Image:         stringField(in, "image"),
		Gender:        models.Gender(stringField(in, "gender")),
		MaritalStatus: models.MaritalStatus(stringField(in, "marital_status")),
	}, nil
}

func userFields(u *models.User) map[string]any {
	fields := profileFields(u.Profile)
	fields["user_id"] = u.ID
	fields["email"] = u.Email
	fields["is_admin"] = u.IsAdmin
	fields["is_superuser"] = u.IsSuperuser
	fields["created_at"] = u.CreatedAt.UTC().Format(time.RFC3339)
	return fields
}

// clientDomain is the claimed client application, taken from metadata.
func clientDomain(ctx context.Context) string {
	if d := metadataValue(ctx, common.DomainHeaderName); d != "" {
		return d
	}
	return common.DefaultDomain
}

// clientIP prefers the ip metadata key (set by a fronting proxy), then the
// transport peer address.
func clientIP(ctx context.Context) string {
	if ip := metadataValue(ctx, common.IPHeaderName); ip != "" {
		return ip
	}
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		if host, _, err := net.SplitHostPort(p.Addr.String()); err == nil {
			return host
		}
	}
	return common.DefaultIP
}
