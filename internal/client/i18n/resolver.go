package i18n

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
	"golang.org/x/text/language"

	"github.com/dmitrijs2005/cropdoc/internal/client/models"
	"github.com/dmitrijs2005/cropdoc/internal/logging"
)

const DefaultLanguage = "en"

var ErrUnsupportedLanguage = errors.New("unsupported language")

// Supported lists the languages the server can translate into, default
// first.
var Supported = []language.Tag{
	language.English,
	language.Hindi,
	language.Telugu,
	language.Tamil,
	language.Kannada,
	language.Marathi,
}

var matcher = language.NewMatcher(Supported)

// Normalize maps a user-supplied code ("HI", "hi-IN") onto one
// of the supported base languages.
func Normalize(code string) (string, error) {
	tag, err := language.Parse(code)
	if err != nil {
		return "", errors.Join(ErrUnsupportedLanguage, err)
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return "", ErrUnsupportedLanguage
	}
	base, _ := Supported[idx].Base()
	return base.String(), nil
}

type state struct {
	lang  string
	table Table
	gen   uint64
}

// Resolver holds the active language and its table. T never blocks; a
// language switch swaps the table in the background.
type Resolver struct {
	defaults Table
	fetcher  Fetcher
	log      logging.Logger

	cur   atomic.Pointer[state]
	gen   atomic.Uint64
	group singleflight.Group
	wg    sync.WaitGroup
}

// NewResolver starts in DefaultLanguage with defaults as the table.
func NewResolver(defaults Table, fetcher Fetcher, log logging.Logger) *Resolver {
	r := &Resolver{defaults: defaults, fetcher: fetcher, log: log.With("component", "i18n")}
	r.cur.Store(&state{lang: DefaultLanguage, table: defaults})
	return r
}

// T resolves key in the active table, then the default table, then
// returns key.
func (r *Resolver) T(key string) string {
	if v := r.cur.Load().table.Lookup(key, ""); v != "" {
		return v
	}
	return r.defaults.Lookup(key, key)
}

func (r *Resolver) Language() string {
	return r.cur.Load().lang
}

// Table returns a copy of the active table merged over the defaults.
func (r *Resolver) Table() Table {
	return overlay(r.defaults, r.cur.Load().table)
}

// SetLanguage switches the active language and returns the normalised
// code. Lookups answer from the bundled defaults until the remote table
// for lang arrives.
func (r *Resolver) SetLanguage(ctx context.Context, code string) (string, error) {
	lang, err := Normalize(code)
	if err != nil {
		return "", err
	}

	gen := r.gen.Add(1)
	r.cur.Store(&state{lang: lang, table: r.defaults, gen: gen})
	if lang == DefaultLanguage {
		return lang, nil
	}

	bg := context.WithoutCancel(ctx)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.refresh(bg, lang, gen)
	}()
	return lang, nil
}

func (r *Resolver) refresh(ctx context.Context, lang string, gen uint64) {
	v, err, shared := r.group.Do(lang, func() (any, error) {
		return r.fetcher.Fetch(ctx, lang)
	})

	table := r.defaults
	if err != nil {
		r.log.Error(ctx, "translations unavailable, using default table", "lang", lang, "error", err)
	} else {
		table = v.(Table)
	}

	// A newer SetLanguage owns the state now.
	if !r.cur.CompareAndSwap(r.current(gen), &state{lang: lang, table: table, gen: gen}) {
		r.log.Debug(ctx, "stale translations dropped", "lang", lang, "gen", gen)
		return
	}
	r.log.Info(ctx, "translations loaded", "lang", lang, "keys", len(table), "shared", shared)
}

// current returns the state pointer if it still belongs to gen.
func (r *Resolver) current(gen uint64) *state {
	s := r.cur.Load()
	if s.gen != gen {
		return nil
	}
	return s
}

// Wait blocks until background fetches started so far have finished.
func (r *Resolver) Wait() {
	r.wg.Wait()
}

// UserSource publishes user record changes. *session.Manager implements it.
type UserSource interface {
	OnUserChange(fn func(models.User)) func()
}

// Watch adopts the user's preferred language whenever the user record
// becomes available or changes. The returned func stops watching.
func (r *Resolver) Watch(ctx context.Context, src UserSource) func() {
	return src.OnUserChange(func(u models.User) {
		if u.PreferredLanguage == "" {
			return
		}
		lang, err := Normalize(u.PreferredLanguage)
		if err != nil {
			r.log.Warn(ctx, "preferred language ignored", "lang", u.PreferredLanguage, "error", err)
			return
		}
		if lang == r.Language() {
			return
		}
		if _, err := r.SetLanguage(ctx, lang); err != nil {
			r.log.Warn(ctx, "preferred language not applied", "error", err)
		}
	})
}
