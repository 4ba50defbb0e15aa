package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/cropdoc/internal/client/client"
	"github.com/dmitrijs2005/cropdoc/internal/client/models"
	"github.com/dmitrijs2005/cropdoc/internal/client/session"
)

// Sessions is the part of *session.Manager the flows depend on.
type Sessions interface {
	WaitLoaded(ctx context.Context) error
	Mode() session.Mode
	User() (models.User, bool)
	SignIn(ctx context.Context, token string, user models.User)
	SignOut(ctx context.Context)
	ContinueAsGuest(ctx context.Context)
	UpdateUser(ctx context.Context, patch models.User) bool
}

// Languages is the part of *i18n.Resolver the flows depend on.
type Languages interface {
	Language() string
	SetLanguage(ctx context.Context, code string) (string, error)
}

// Server messages that mean the photo itself was unusable.
const (
	qualityLowConfidence = "Low confidence prediction"
	qualityRejected      = "Image Rejected"
)

// IsImageQualityError reports whether err is the server rejecting the photo
// and returns the message to show the user.
func IsImageQualityError(err error) (string, bool) {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest {
		return "", false
	}
	switch apiErr.Payload.Error {
	case qualityLowConfidence, qualityRejected:
		if apiErr.Payload.Message != "" {
			return apiErr.Payload.Message, true
		}
		return apiErr.Payload.Error, true
	}
	return "", false
}
