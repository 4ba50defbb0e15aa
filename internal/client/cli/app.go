package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/cropdoc/internal/client/client"
	"github.com/dmitrijs2005/cropdoc/internal/client/config"
	"github.com/dmitrijs2005/cropdoc/internal/client/history"
	"github.com/dmitrijs2005/cropdoc/internal/client/i18n"
	"github.com/dmitrijs2005/cropdoc/internal/client/media"
	"github.com/dmitrijs2005/cropdoc/internal/client/platform"
	"github.com/dmitrijs2005/cropdoc/internal/client/services"
	"github.com/dmitrijs2005/cropdoc/internal/client/session"
	"github.com/dmitrijs2005/cropdoc/internal/logging"
)

type App struct {
	config *config.Config
	log    logging.Logger
	out    io.Writer
	reader *bufio.Reader

	platform  *platform.Adapter
	sessions  *session.Manager
	resolver  *i18n.Resolver
	auth      services.AuthService
	diagnosis services.DiagnosisService
	chat      services.ChatService
	selection media.Selection
}

// NewApp selects the platform adapter and wires every service on top of it.
func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	adapter, err := platform.New(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("platform: %w", err)
	}

	defaults, err := i18n.Bundled(i18n.DefaultLanguage)
	if err != nil {
		_ = adapter.Close(ctx)
		return nil, err
	}

	sessions := session.NewManager(adapter.Store, log)
	api := client.New(adapter.BaseURL, sessions, log, client.WithTimeout(cfg.RequestTimeout))

	var fetcher i18n.Fetcher = i18n.DictionaryFetcher{API: api}
	if cfg.TranslationStrategy == config.StrategyBatch {
		fetcher = i18n.BatchFetcher{API: api, Source: defaults}
	}
	resolver := i18n.NewResolver(defaults, fetcher, log)

	pipeline := media.NewPipeline(adapter.Attacher, api, log)
	cache := history.New(adapter.History, log)

	return &App{
		config:    cfg,
		log:       log,
		out:       os.Stdout,
		reader:    bufio.NewReader(os.Stdin),
		platform:  adapter,
		sessions:  sessions,
		resolver:  resolver,
		auth:      services.NewAuthService(api, sessions, resolver, log),
		diagnosis: services.NewDiagnosisService(api, pipeline, sessions, resolver, cache, log),
		chat:      services.NewChatService(api, pipeline, resolver, log),
	}, nil
}

// Run restores the session, starts following the user's language and
// serves the REPL until the user exits.
func (a *App) Run(ctx context.Context) {
	defer a.close(ctx)

	stop := a.resolver.Watch(ctx, a.sessions)
	defer stop()

	if a.config.DefaultLanguage != "" && a.config.DefaultLanguage != i18n.DefaultLanguage {
		if _, err := a.resolver.SetLanguage(ctx, a.config.DefaultLanguage); err != nil {
			a.log.Warn(ctx, "default language ignored", "lang", a.config.DefaultLanguage, "error", err)
		}
	}

	st := a.sessions.Load(ctx)
	a.greet(st)

	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) close(ctx context.Context) {
	a.resolver.Wait()
	if err := a.platform.Close(ctx); err != nil {
		a.log.Warn(ctx, "platform close", "error", err)
	}
}

func (a *App) greet(st session.State) {
	fmt.Fprintf(a.out, "%s (type 'help' for commands)\n", a.resolver.T("welcome"))
	switch st.Mode {
	case session.ModeAuthenticated:
		fmt.Fprintf(a.out, "Signed in as %s\n", st.User.Email)
	default:
		fmt.Fprintln(a.out, a.resolver.T("guest_mode"))
	}
}

func (a *App) isLoggedIn() bool {
	return a.sessions.Mode() == session.ModeAuthenticated
}

func (a *App) getStatus() string {
	who := "guest"
	if u, ok := a.sessions.User(); ok && a.isLoggedIn() {
		who = u.Email
	}
	s := fmt.Sprintf("(%s %s", who, a.resolver.Language())
	if _, _, ok := a.selection.Current(); ok {
		s += " +media"
	}
	return s + ")"
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
