package services

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/dmitrijs2005/cropdoc/internal/client/client"
	"github.com/dmitrijs2005/cropdoc/internal/client/history"
	"github.com/dmitrijs2005/cropdoc/internal/client/media"
	"github.com/dmitrijs2005/cropdoc/internal/client/models"
	"github.com/dmitrijs2005/cropdoc/internal/client/securestore"
	"github.com/dmitrijs2005/cropdoc/internal/client/session"
	"github.com/dmitrijs2005/cropdoc/internal/logging"
)

func newSession(t *testing.T, mode session.Mode) *session.Manager {
	t.Helper()
	ctx := context.Background()
	m := session.NewManager(securestore.NewMemoryStore(), logging.NewNop())
	m.Load(ctx)
	if mode == session.ModeAuthenticated {
		m.SignIn(ctx, "tok", models.User{ID: 1, Name: "Asha", Email: "asha@example.com", PreferredLanguage: "en"})
	}
	return m
}

type fakeLangs struct {
	mu       sync.Mutex
	lang     string
	setCalls []string
}

func (f *fakeLangs) Language() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lang == "" {
		return "en"
	}
	return f.lang
}

func (f *fakeLangs) SetLanguage(_ context.Context, code string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lang = code
	f.setCalls = append(f.setCalls, code)
	return code, nil
}

// fakeAttacher hands out in-memory parts.
type fakeAttacher struct {
	lastRef  media.Ref
	lastKind media.Kind
	err      error
}

func (f *fakeAttacher) Attach(_ context.Context, ref media.Ref, kind media.Kind) (*media.Attachment, error) {
	f.lastRef, f.lastKind = ref, kind
	if f.err != nil {
		return nil, f.err
	}
	body := "bytes-of-" + string(ref)
	return &media.Attachment{Part: client.FilePart{
		Field:       kind.Field(),
		FileName:    string(ref),
		ContentType: "image/png",
		Reader:      strings.NewReader(body),
		Size:        int64(len(body)),
	}}, nil
}

type fakeUploader struct {
	fakeAttacher
	handle    models.UploadHandle
	uploadErr error
	uploads   int
}

func (f *fakeUploader) Upload(_ context.Context, ref media.Ref, kind media.Kind, progress media.PercentFunc) (models.UploadHandle, error) {
	f.uploads++
	f.lastRef, f.lastKind = ref, kind
	if progress != nil {
		progress(100)
	}
	return f.handle, f.uploadErr
}

func newCache() *history.Cache {
	return history.New(history.NewMemoryBackend(), logging.NewNop())
}
