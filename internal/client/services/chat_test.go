package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/cropdoc/internal/client/client"
	"github.com/dmitrijs2005/cropdoc/internal/client/media"
	"github.com/dmitrijs2005/cropdoc/internal/client/models"
	"github.com/dmitrijs2005/cropdoc/internal/logging"
)

type fakeChatAPI struct {
	mu sync.Mutex

	gates    map[string]chan struct{}
	sendErr  error
	history  models.ChatHistory
	histErr  error
	sent     []models.ChatRequest
	lastPart client.FilePart
	lastLang string
	lastBody string
}

func (f *fakeChatAPI) SendMessage(_ context.Context, req models.ChatRequest) (models.ChatReply, error) {
	f.mu.Lock()
	f.sent = append(f.sent, req)
	gate := f.gates[req.Message]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if f.sendErr != nil {
		return models.ChatReply{}, f.sendErr
	}
	return models.ChatReply{Message: req.Message, Response: "re: " + req.Message, Language: req.Language}, nil
}

func (f *fakeChatAPI) ChatHistory(context.Context, int) (models.ChatHistory, error) {
	return f.history, f.histErr
}

func (f *fakeChatAPI) Transcribe(_ context.Context, audio client.FilePart, language string) (models.Transcription, error) {
	f.lastPart, f.lastLang = audio, language
	buf := make([]byte, audio.Size)
	_, _ = audio.Reader.Read(buf)
	f.lastBody = string(buf)
	return models.Transcription{Text: "how to treat blight", Language: language}, nil
}

func (f *fakeChatAPI) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func newChat(api ChatAPI, up MediaUploader) *chatService {
	c := NewChatService(api, up, &fakeLangs{lang: "ta"}, logging.NewNop()).(*chatService)
	n := 0
	c.newID = func() string { n++; return fmt.Sprintf("m%d", n) }
	c.now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	return c
}

func TestChat_Send(t *testing.T) {
	api := &fakeChatAPI{}
	c := newChat(api, &fakeUploader{})

	bot, err := c.Send(context.Background(), "yellow leaves?")
	require.NoError(t, err)

	assert.Equal(t, "re: yellow leaves?", bot.Text)
	assert.Equal(t, models.SenderBot, bot.Sender)
	require.Len(t, api.sent, 1)
	assert.Equal(t, "ta", api.sent[0].Language)
	assert.Empty(t, api.sent[0].ImagePath)

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, models.SenderUser, msgs[0].Sender)
	assert.False(t, msgs[0].Pending)
}

func TestChat_SendEmpty(t *testing.T) {
	api := &fakeChatAPI{}
	_, err := newChat(api, &fakeUploader{}).Send(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Zero(t, api.sentCount())
}

func TestChat_SendFailureKeepsUserMessage(t *testing.T) {
	api := &fakeChatAPI{sendErr: client.ErrNetwork}
	c := newChat(api, &fakeUploader{})

	_, err := c.Send(context.Background(), "hi")
	assert.ErrorIs(t, err, client.ErrNetwork)
	msgs := c.Messages()
	require.Len(t, msgs, 1)
	assert.False(t, msgs[0].Pending)
}

func TestChat_StaleReplyDiscarded(t *testing.T) {
	gate := make(chan struct{})
	api := &fakeChatAPI{gates: map[string]chan struct{}{"first": gate}}
	c := newChat(api, &fakeUploader{})
	ctx := context.Background()

	firstErr := make(chan error, 1)
	go func() {
		_, err := c.Send(ctx, "first")
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return api.sentCount() == 1 }, timeout, tick)

	_, err := c.Send(ctx, "second")
	require.NoError(t, err)
	close(gate)
	assert.ErrorIs(t, <-firstErr, ErrSuperseded)

	var bots []string
	for _, m := range c.Messages() {
		if m.Sender == models.SenderBot {
			bots = append(bots, m.Text)
		}
	}
	assert.Equal(t, []string{"re: second"}, bots)
}

func TestChat_SendWithMediaUploadsFirst(t *testing.T) {
	api := &fakeChatAPI{}
	up := &fakeUploader{handle: models.UploadHandle{FilePath: "uploads/leaf.jpg", FileType: "image"}}
	c := newChat(api, up)

	var sel media.Selection
	sel.Set("/tmp/leaf.jpg", media.KindImage)

	_, err := c.SendWithMedia(context.Background(), "", &sel, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, up.uploads)
	require.Len(t, api.sent, 1)
	assert.Equal(t, "uploads/leaf.jpg", api.sent[0].ImagePath)
	_, _, ok := sel.Current()
	assert.False(t, ok, "selection consumed")
	assert.Equal(t, "uploads/leaf.jpg", c.Messages()[0].MediaPath)
}

func TestChat_SendWithMediaUploadFailureRollsBack(t *testing.T) {
	api := &fakeChatAPI{}
	boom := errors.New("413")
	up := &fakeUploader{uploadErr: boom}
	c := newChat(api, up)

	var sel media.Selection
	sel.Set("/tmp/big.mp4", media.KindVideo)

	_, err := c.SendWithMedia(context.Background(), "look", &sel, nil)
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, api.sentCount(), "no message without a handle")
	_, _, ok := sel.Current()
	assert.False(t, ok)
	assert.Empty(t, c.Messages())
}

func TestChat_SendWithMediaNoSelection(t *testing.T) {
	api := &fakeChatAPI{}
	up := &fakeUploader{}
	c := newChat(api, up)

	_, err := c.SendWithMedia(context.Background(), "plain", &media.Selection{}, nil)
	require.NoError(t, err)
	assert.Zero(t, up.uploads)
}

func TestChat_Voice(t *testing.T) {
	api := &fakeChatAPI{}
	up := &fakeUploader{}
	c := newChat(api, up)

	tr, err := c.Voice(context.Background(), "/tmp/note.m4a")
	require.NoError(t, err)
	assert.Equal(t, "how to treat blight", tr.Text)
	assert.Equal(t, media.KindAudio, up.lastKind)
	assert.Equal(t, "audio", api.lastPart.Field)
	assert.Equal(t, "ta", api.lastLang)
	assert.Equal(t, "bytes-of-/tmp/note.m4a", api.lastBody)
}

func TestChat_FetchHistoryReplaces(t *testing.T) {
	api := &fakeChatAPI{history: models.ChatHistory{History: []models.ChatRecord{
		{Message: "newer", Response: "b", CreatedAt: "2025-01-02 10:00:00"},
		{Message: "older", Response: "a", CreatedAt: "2025-01-01 10:00:00"},
	}}}
	c := newChat(api, &fakeUploader{})
	ctx := context.Background()

	_, err := c.Send(ctx, "local")
	require.NoError(t, err)

	first, err := c.FetchHistory(ctx, 50)
	require.NoError(t, err)
	second, err := c.FetchHistory(ctx, 50)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	msgs := c.Messages()
	require.Len(t, msgs, 4, "fetched history replaces, never appends")
	assert.Equal(t, "older", msgs[0].Text)
	assert.Equal(t, "a", msgs[1].Text)
	assert.Equal(t, "newer", msgs[2].Text)
	assert.Equal(t, 2025, msgs[0].Timestamp.Year())
	assert.NotEqual(t, msgs[0].ID, msgs[2].ID)
}

func TestChat_FetchHistoryError(t *testing.T) {
	api := &fakeChatAPI{histErr: client.ErrTimeout}
	c := newChat(api, &fakeUploader{})
	_, err := c.FetchHistory(context.Background(), 10)
	assert.ErrorIs(t, err, client.ErrTimeout)
}

func TestGeneration(t *testing.T) {
	var g Generation
	a := g.Next()
	assert.True(t, g.Current(a))
	b := g.Next()
	assert.False(t, g.Current(a))
	assert.True(t, g.Current(b))
}
