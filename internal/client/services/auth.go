package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/cropdoc/internal/client/i18n"
	"github.com/dmitrijs2005/cropdoc/internal/client/models"
	"github.com/dmitrijs2005/cropdoc/internal/client/session"
	"github.com/dmitrijs2005/cropdoc/internal/logging"
)

type AuthAPI interface {
	Login(ctx context.Context, email, password string) (models.LoginResult, error)
	Register(ctx context.Context, req models.RegisterRequest) (models.RegisterResult, error)
	ForgotPassword(ctx context.Context, email string) (models.Ack, error)
	VerifyOTP(ctx context.Context, email, otp string) (models.Ack, error)
	ResetPassword(ctx context.Context, req models.ResetPasswordRequest) (models.Ack, error)
	UpdateLanguage(ctx context.Context, language string) (models.LanguageUpdate, error)
	Profile(ctx context.Context) (models.User, error)
}

// AuthService defines identity and language operations for the CLI.
//
// Contract:
//   - Login/Register: authenticate against the server and sign the session in.
//   - ForgotPassword/VerifyOTP/ResetPassword: the password recovery steps.
//   - RefreshProfile: reload the user record and merge it into the session.
//   - Logout/ContinueAsGuest: leave the authenticated state.
//   - SetLanguage: switch the UI language, persisting it server-side when
//     signed in.
type AuthService interface {
	Login(ctx context.Context, email, password string) (models.User, error)
	Register(ctx context.Context, req models.RegisterRequest) (models.RegisterResult, error)
	ForgotPassword(ctx context.Context, email string) (models.Ack, error)
	VerifyOTP(ctx context.Context, email, otp string) (models.Ack, error)
	ResetPassword(ctx context.Context, req models.ResetPasswordRequest) (models.Ack, error)
	RefreshProfile(ctx context.Context) (models.User, error)
	Logout(ctx context.Context)
	ContinueAsGuest(ctx context.Context)
	SetLanguage(ctx context.Context, code string) (string, error)
}

type authService struct {
	api      AuthAPI
	sessions Sessions
	langs    Languages
	log      logging.Logger
}

func NewAuthService(api AuthAPI, sessions Sessions, langs Languages, log logging.Logger) AuthService {
	return &authService{api: api, sessions: sessions, langs: langs, log: log.With("service", "auth")}
}

func (a *authService) Login(ctx context.Context, email, password string) (models.User, error) {
	res, err := a.api.Login(ctx, email, password)
	if err != nil {
		return models.User{}, err
	}
	if res.Token == "" {
		return models.User{}, fmt.Errorf("login: server returned no token")
	}
	a.sessions.SignIn(ctx, res.Token, res.User)
	a.log.Info(ctx, "signed in", "user_id", res.User.ID)
	return res.User, nil
}

// Register creates the account and, when the server hands back a token,
// signs straight in with the submitted profile.
func (a *authService) Register(ctx context.Context, req models.RegisterRequest) (models.RegisterResult, error) {
	res, err := a.api.Register(ctx, req)
	if err != nil {
		return res, err
	}
	if res.Token == "" {
		return res, nil
	}
	a.sessions.SignIn(ctx, res.Token, models.User{
		ID:                res.UserID,
		Email:             req.Email,
		Name:              req.Name,
		PreferredLanguage: req.PreferredLanguage,
	})
	a.log.Info(ctx, "registered", "user_id", res.UserID)
	return res, nil
}

func (a *authService) ForgotPassword(ctx context.Context, email string) (models.Ack, error) {
	return a.api.ForgotPassword(ctx, email)
}

func (a *authService) VerifyOTP(ctx context.Context, email, otp string) (models.Ack, error) {
	return a.api.VerifyOTP(ctx, email, otp)
}

func (a *authService) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) (models.Ack, error) {
	return a.api.ResetPassword(ctx, req)
}

func (a *authService) RefreshProfile(ctx context.Context) (models.User, error) {
	u, err := a.api.Profile(ctx)
	if err != nil {
		return models.User{}, err
	}
	a.sessions.UpdateUser(ctx, u)
	merged, _ := a.sessions.User()
	return merged, nil
}

func (a *authService) Logout(ctx context.Context) {
	a.sessions.SignOut(ctx)
	a.log.Info(ctx, "signed out")
}

func (a *authService) ContinueAsGuest(ctx context.Context) {
	a.sessions.ContinueAsGuest(ctx)
}

// SetLanguage switches the resolver. When signed in the choice is also
// sent to the server and merged into the user record; a failed server
// update is logged and does not undo the local switch.
func (a *authService) SetLanguage(ctx context.Context, code string) (string, error) {
	lang, err := i18n.Normalize(code)
	if err != nil {
		return "", err
	}

	if a.sessions.Mode() == session.ModeAuthenticated {
		if _, err := a.api.UpdateLanguage(ctx, lang); err != nil {
			a.log.Warn(ctx, "language not saved on server", "lang", lang, "error", err)
		} else {
			a.sessions.UpdateUser(ctx, models.User{PreferredLanguage: lang})
		}
	}

	if a.langs.Language() == lang {
		return lang, nil
	}
	return a.langs.SetLanguage(ctx, lang)
}
