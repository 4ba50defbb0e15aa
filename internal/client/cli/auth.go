package cli

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/cropdoc/internal/client/client"
	"github.com/dmitrijs2005/cropdoc/internal/client/models"
	"github.com/dmitrijs2005/cropdoc/internal/cryptox"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for the account details and creates the account. When
// the server returns a token the session is signed in right away.
func (a *App) Register(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter name", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer cryptox.Wipe(password)

	phone, err := getSimpleText(a.reader, "Enter phone (optional)", a.out)
	if err != nil {
		return err
	}

	res, err := a.auth.Register(ctx, models.RegisterRequest{
		Name:              name,
		Email:             email,
		Password:          string(password),
		Phone:             phone,
		PreferredLanguage: a.resolver.Language(),
	})
	if err != nil {
		return err
	}

	a.printf("%s\n", messageOr(res.Message, "Registered"))
	return nil
}

// Login prompts for credentials and signs the session in.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer cryptox.Wipe(password)

	u, err := a.auth.Login(ctx, email, string(password))
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			return errors.New("invalid email or password")
		}
		return err
	}

	a.printf("%s, %s\n", a.resolver.T("login_success"), u.Name)
	return nil
}

// ForgotPassword walks through the OTP based password reset.
func (a *App) ForgotPassword(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	ack, err := a.auth.ForgotPassword(ctx, email)
	if err != nil {
		return err
	}
	a.printf("%s\n", messageOr(ack.Message, "Code sent"))

	otp, err := getSimpleText(a.reader, "Enter the 6-digit code", a.out)
	if err != nil {
		return err
	}
	if _, err := a.auth.VerifyOTP(ctx, email, otp); err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer cryptox.Wipe(password)

	ack, err = a.auth.ResetPassword(ctx, models.ResetPasswordRequest{Email: email, OTP: otp, NewPassword: string(password)})
	if err != nil {
		return err
	}
	a.printf("%s\n", messageOr(ack.Message, "Password reset"))
	return nil
}

func (a *App) Guest(ctx context.Context) error {
	a.auth.ContinueAsGuest(ctx)
	a.printf("%s\n", a.resolver.T("guest_mode"))
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	a.auth.Logout(ctx)
	a.printf("%s\n", a.resolver.T("logout_success"))
	return nil
}

// Profile reloads the user record from the server and prints it.
func (a *App) Profile(ctx context.Context) error {
	if !a.isLoggedIn() {
		return errNotSignedIn
	}
	u, err := a.auth.RefreshProfile(ctx)
	if err != nil {
		return err
	}
	a.printf("ID: %d\nName: %s\nEmail: %s\nLanguage: %s\n", u.ID, u.Name, u.Email, u.PreferredLanguage)
	if exp := a.sessions.Snapshot().TokenExpiresAt; !exp.IsZero() {
		a.printf("Session expires: %s\n", exp.Local().Format(time.RFC1123))
	}
	return nil
}

var errNotSignedIn = errors.New("sign in first (login)")

func messageOr(msg, fallback string) string {
	if msg == "" {
		return fallback
	}
	return msg
}
