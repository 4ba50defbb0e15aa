package cli

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/cropdoc/internal/client/i18n"
)

// Lang prints the active language or switches to another one.
//
//	lang [code]
func (a *App) Lang(ctx context.Context, args []string) error {
	if len(args) == 0 {
		codes := make([]string, len(i18n.Supported))
		for i, t := range i18n.Supported {
			codes[i] = t.String()
		}
		a.printf("%s (available: %s)\n", a.resolver.Language(), strings.Join(codes, ", "))
		return nil
	}

	lang, err := a.auth.SetLanguage(ctx, args[0])
	if err != nil {
		return err
	}
	a.resolver.Wait()
	a.printf("%s: %s\n", a.resolver.T("language_changed"), lang)
	return nil
}

// Theme prints or stores the theme preference.
//
//	theme [light|dark]
func (a *App) Theme(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.printf("%s\n", a.sessions.Theme(ctx))
		return nil
	}
	if err := a.sessions.SetTheme(ctx, strings.ToLower(args[0])); err != nil {
		return err
	}
	a.printf("Theme: %s\n", strings.ToLower(args[0]))
	return nil
}
