package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/cropdoc/internal/client/client"
	"github.com/dmitrijs2005/cropdoc/internal/client/i18n"
	"github.com/dmitrijs2005/cropdoc/internal/client/models"
	"github.com/dmitrijs2005/cropdoc/internal/client/session"
	"github.com/dmitrijs2005/cropdoc/internal/logging"
)

type fakeAuthAPI struct {
	LoginRet    models.LoginResult
	LoginErr    error
	RegisterRet models.RegisterResult
	RegisterErr error
	ProfileRet  models.User
	LanguageErr error

	LastLoginEmail string
	LastRegister   models.RegisterRequest
	LastLanguage   string
	LastOTP        string
	LastReset      models.ResetPasswordRequest
	LanguageCalls  int
}

func (f *fakeAuthAPI) Login(_ context.Context, email, _ string) (models.LoginResult, error) {
	f.LastLoginEmail = email
	return f.LoginRet, f.LoginErr
}

func (f *fakeAuthAPI) Register(_ context.Context, req models.RegisterRequest) (models.RegisterResult, error) {
	f.LastRegister = req
	return f.RegisterRet, f.RegisterErr
}

func (f *fakeAuthAPI) ForgotPassword(context.Context, string) (models.Ack, error) {
	return models.Ack{Message: "otp sent"}, nil
}

func (f *fakeAuthAPI) VerifyOTP(_ context.Context, _ string, otp string) (models.Ack, error) {
	f.LastOTP = otp
	return models.Ack{Message: "verified"}, nil
}

func (f *fakeAuthAPI) ResetPassword(_ context.Context, req models.ResetPasswordRequest) (models.Ack, error) {
	f.LastReset = req
	return models.Ack{Message: "reset"}, nil
}

func (f *fakeAuthAPI) UpdateLanguage(_ context.Context, language string) (models.LanguageUpdate, error) {
	f.LanguageCalls++
	f.LastLanguage = language
	if f.LanguageErr != nil {
		return models.LanguageUpdate{}, f.LanguageErr
	}
	return models.LanguageUpdate{Language: language}, nil
}

func (f *fakeAuthAPI) Profile(context.Context) (models.User, error) {
	return f.ProfileRet, nil
}

func newAuth(api *fakeAuthAPI, s *session.Manager, l Languages) AuthService {
	return NewAuthService(api, s, l, logging.NewNop())
}

func TestAuth_LoginSignsIn(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, session.ModeGuest)
	api := &fakeAuthAPI{LoginRet: models.LoginResult{Token: "jwt", User: models.User{ID: 5, Name: "Ravi"}}}

	u, err := newAuth(api, s, &fakeLangs{}).Login(ctx, "ravi@example.com", "pw")
	require.NoError(t, err)

	assert.Equal(t, "ravi@example.com", api.LastLoginEmail)
	assert.Equal(t, "Ravi", u.Name)
	assert.Equal(t, session.ModeAuthenticated, s.Mode())
	assert.Equal(t, "jwt", s.Token())
}

func TestAuth_LoginFailureKeepsMode(t *testing.T) {
	s := newSession(t, session.ModeGuest)
	api := &fakeAuthAPI{LoginErr: &client.APIError{Status: http.StatusUnauthorized}}

	_, err := newAuth(api, s, &fakeLangs{}).Login(context.Background(), "x", "y")
	assert.ErrorIs(t, err, client.ErrUnauthorized)
	assert.Equal(t, session.ModeGuest, s.Mode())
}

func TestAuth_LoginWithoutToken(t *testing.T) {
	s := newSession(t, session.ModeGuest)
	api := &fakeAuthAPI{LoginRet: models.LoginResult{User: models.User{ID: 5}}}

	_, err := newAuth(api, s, &fakeLangs{}).Login(context.Background(), "x", "y")
	assert.Error(t, err)
	assert.Equal(t, session.ModeGuest, s.Mode())
}

func TestAuth_RegisterSignsInWithSubmittedProfile(t *testing.T) {
	s := newSession(t, session.ModeGuest)
	api := &fakeAuthAPI{RegisterRet: models.RegisterResult{UserID: 42, Token: "jwt"}}
	req := models.RegisterRequest{Name: "Meena", Email: "m@example.com", Password: "pw", PreferredLanguage: "ta"}

	res, err := newAuth(api, s, &fakeLangs{}).Register(context.Background(), req)
	require.NoError(t, err)
	assert.EqualValues(t, 42, res.UserID)
	assert.Equal(t, req, api.LastRegister)

	u, ok := s.User()
	require.True(t, ok)
	assert.Equal(t, models.User{ID: 42, Name: "Meena", Email: "m@example.com", PreferredLanguage: "ta"}, u)
}

func TestAuth_RegisterWithoutTokenStaysGuest(t *testing.T) {
	s := newSession(t, session.ModeGuest)
	api := &fakeAuthAPI{RegisterRet: models.RegisterResult{UserID: 42}}

	_, err := newAuth(api, s, &fakeLangs{}).Register(context.Background(), models.RegisterRequest{Email: "e"})
	require.NoError(t, err)
	assert.Equal(t, session.ModeGuest, s.Mode())
}

func TestAuth_PasswordRecoveryPassesThrough(t *testing.T) {
	ctx := context.Background()
	api := &fakeAuthAPI{}
	a := newAuth(api, newSession(t, session.ModeGuest), &fakeLangs{})

	ack, err := a.ForgotPassword(ctx, "e")
	require.NoError(t, err)
	assert.Equal(t, "otp sent", ack.Message)

	_, err = a.VerifyOTP(ctx, "e", "123456")
	require.NoError(t, err)
	assert.Equal(t, "123456", api.LastOTP)

	req := models.ResetPasswordRequest{Email: "e", OTP: "123456", NewPassword: "n"}
	_, err = a.ResetPassword(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, req, api.LastReset)
}

func TestAuth_LogoutAndGuest(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, session.ModeAuthenticated)
	a := newAuth(&fakeAuthAPI{}, s, &fakeLangs{})

	a.Logout(ctx)
	assert.Equal(t, session.ModeGuest, s.Mode())

	a.ContinueAsGuest(ctx)
	assert.Equal(t, session.ModeGuest, s.Mode())
}

func TestAuth_RefreshProfileMerges(t *testing.T) {
	s := newSession(t, session.ModeAuthenticated)
	api := &fakeAuthAPI{ProfileRet: models.User{ID: 1, Name: "Asha K"}}

	u, err := newAuth(api, s, &fakeLangs{}).RefreshProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Asha K", u.Name)
	assert.Equal(t, "asha@example.com", u.Email)
}

func TestAuth_SetLanguageAuthenticated(t *testing.T) {
	s := newSession(t, session.ModeAuthenticated)
	api := &fakeAuthAPI{}
	langs := &fakeLangs{}

	lang, err := newAuth(api, s, langs).SetLanguage(context.Background(), "HI")
	require.NoError(t, err)

	assert.Equal(t, "hi", lang)
	assert.Equal(t, "hi", api.LastLanguage)
	u, _ := s.User()
	assert.Equal(t, "hi", u.PreferredLanguage)
	assert.Equal(t, []string{"hi"}, langs.setCalls)
}

func TestAuth_SetLanguageServerFailureStillSwitches(t *testing.T) {
	s := newSession(t, session.ModeAuthenticated)
	api := &fakeAuthAPI{LanguageErr: errors.New("offline")}
	langs := &fakeLangs{}

	lang, err := newAuth(api, s, langs).SetLanguage(context.Background(), "te")
	require.NoError(t, err)
	assert.Equal(t, "te", lang)
	assert.Equal(t, "te", langs.Language())
	u, _ := s.User()
	assert.Equal(t, "en", u.PreferredLanguage, "user record untouched")
}

func TestAuth_SetLanguageGuestStaysLocal(t *testing.T) {
	api := &fakeAuthAPI{}
	langs := &fakeLangs{}

	_, err := newAuth(api, newSession(t, session.ModeGuest), langs).SetLanguage(context.Background(), "mr")
	require.NoError(t, err)
	assert.Zero(t, api.LanguageCalls)
	assert.Equal(t, "mr", langs.Language())
}

func TestAuth_SetLanguageUnsupported(t *testing.T) {
	api := &fakeAuthAPI{}
	_, err := newAuth(api, newSession(t, session.ModeAuthenticated), &fakeLangs{}).SetLanguage(context.Background(), "fr")
	assert.ErrorIs(t, err, i18n.ErrUnsupportedLanguage)
	assert.Zero(t, api.LanguageCalls)
}

func TestAuth_SetLanguageWithWatchingResolver(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, session.ModeAuthenticated)
	r := i18n.NewResolver(i18n.Table{"welcome": "Welcome"}, i18n.DictionaryFetcher{API: staticDict{}}, logging.NewNop())
	stop := r.Watch(ctx, s)
	defer stop()

	lang, err := newAuth(&fakeAuthAPI{}, s, r).SetLanguage(ctx, "kn")
	require.NoError(t, err)
	r.Wait()

	assert.Equal(t, "kn", lang)
	assert.Equal(t, "kn", r.Language())
	assert.Equal(t, "kn:welcome", r.T("welcome"))
}

type staticDict struct{}

func (staticDict) Translations(_ context.Context, language string) (map[string]string, error) {
	return map[string]string{"welcome": language + ":welcome"}, nil
}
