package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/cropdoc/internal/client/client"
	"github.com/dmitrijs2005/cropdoc/internal/client/media"
	"github.com/dmitrijs2005/cropdoc/internal/client/models"
	"github.com/dmitrijs2005/cropdoc/internal/logging"
)

var ErrEmptyMessage = errors.New("message is empty")

type ChatAPI interface {
	SendMessage(ctx context.Context, req models.ChatRequest) (models.ChatReply, error)
	ChatHistory(ctx context.Context, limit int) (models.ChatHistory, error)
	Transcribe(ctx context.Context, audio client.FilePart, language string) (models.Transcription, error)
}

// MediaUploader is the part of *media.Pipeline the chat flow uses.
type MediaUploader interface {
	Attacher
	Upload(ctx context.Context, ref media.Ref, kind media.Kind, progress media.PercentFunc) (models.UploadHandle, error)
}

// ChatService keeps the conversation shown to the user and talks to the
// chatbot endpoints.
type ChatService interface {
	Messages() []models.ChatMessage
	Send(ctx context.Context, text string) (models.ChatMessage, error)
	SendWithMedia(ctx context.Context, text string, sel *media.Selection, progress media.PercentFunc) (models.ChatMessage, error)
	Voice(ctx context.Context, ref media.Ref) (models.Transcription, error)
	FetchHistory(ctx context.Context, limit int) ([]models.ChatMessage, error)
}

type chatService struct {
	api      ChatAPI
	uploader MediaUploader
	langs    Languages
	log      logging.Logger

	sendGen    Generation
	historyGen Generation

	mu       sync.Mutex
	messages []models.ChatMessage

	now   func() time.Time
	newID func() string
}

func NewChatService(api ChatAPI, uploader MediaUploader, langs Languages, log logging.Logger) ChatService {
	return &chatService{
		api:      api,
		uploader: uploader,
		langs:    langs,
		log:      log.With("service", "chat"),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

func (c *chatService) Messages() []models.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.ChatMessage(nil), c.messages...)
}

func (c *chatService) Send(ctx context.Context, text string) (models.ChatMessage, error) {
	return c.send(ctx, text, "")
}

// SendWithMedia uploads the selected media first and only then sends the
// message referencing it. The selection is cleared either way; a failed
// upload aborts the send.
func (c *chatService) SendWithMedia(ctx context.Context, text string, sel *media.Selection, progress media.PercentFunc) (models.ChatMessage, error) {
	ref, kind, ok := sel.Current()
	if !ok {
		return c.send(ctx, text, "")
	}

	h, err := c.uploader.Upload(ctx, ref, kind, progress)
	sel.Clear()
	if err != nil {
		return models.ChatMessage{}, fmt.Errorf("upload: %w", err)
	}
	return c.send(ctx, text, h.FilePath)
}

func (c *chatService) send(ctx context.Context, text, mediaPath string) (models.ChatMessage, error) {
	if text == "" && mediaPath == "" {
		return models.ChatMessage{}, ErrEmptyMessage
	}
	ticket := c.sendGen.Next()

	userID := c.newID()
	c.push(models.ChatMessage{
		ID:        userID,
		Text:      text,
		Sender:    models.SenderUser,
		Timestamp: c.now(),
		MediaPath: mediaPath,
		Pending:   true,
	})

	reply, err := c.api.SendMessage(ctx, models.ChatRequest{
		Message:   text,
		Language:  c.langs.Language(),
		ImagePath: mediaPath,
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	c.settleLocked(userID)

	if !c.sendGen.Current(ticket) {
		return models.ChatMessage{}, ErrSuperseded
	}
	if err != nil {
		c.log.Error(ctx, "chat message failed", "error", err)
		return models.ChatMessage{}, err
	}

	bot := models.ChatMessage{
		ID:        c.newID(),
		Text:      reply.Response,
		Sender:    models.SenderBot,
		Timestamp: c.now(),
	}
	c.messages = append(c.messages, bot)
	return bot, nil
}

func (c *chatService) push(m models.ChatMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, m)
}

func (c *chatService) settleLocked(id string) {
	for i := range c.messages {
		if c.messages[i].ID == id {
			c.messages[i].Pending = false
			return
		}
	}
}

// Voice transcribes a voice note in the active language.
func (c *chatService) Voice(ctx context.Context, ref media.Ref) (models.Transcription, error) {
	a, err := c.uploader.Attach(ctx, ref, media.KindAudio)
	if err != nil {
		return models.Transcription{}, err
	}
	defer func() {
		if err := a.Close(); err != nil {
			c.log.Warn(ctx, "audio not closed", "error", err)
		}
	}()
	return c.api.Transcribe(ctx, a.Part, c.langs.Language())
}

// FetchHistory replaces the conversation with the server's record. The
// server lists newest first; messages are kept oldest first. Each record
// yields a user and a bot message with ids derived from the record, so
// repeated fetches never duplicate.
func (c *chatService) FetchHistory(ctx context.Context, limit int) ([]models.ChatMessage, error) {
	ticket := c.historyGen.Next()

	h, err := c.api.ChatHistory(ctx, limit)
	if !c.historyGen.Current(ticket) {
		return nil, ErrSuperseded
	}
	if err != nil {
		return nil, err
	}

	msgs := make([]models.ChatMessage, 0, 2*len(h.History))
	for i := len(h.History) - 1; i >= 0; i-- {
		r := h.History[i]
		key := recordKey(r, i)
		ts := parseTimestamp(r.CreatedAt)
		msgs = append(msgs,
			models.ChatMessage{ID: key + "-q", Text: r.Message, Sender: models.SenderUser, Timestamp: ts},
			models.ChatMessage{ID: key + "-a", Text: r.Response, Sender: models.SenderBot, Timestamp: ts},
		)
	}

	c.mu.Lock()
	c.messages = msgs
	c.mu.Unlock()
	return append([]models.ChatMessage(nil), msgs...), nil
}

func recordKey(r models.ChatRecord, i int) string {
	switch {
	case r.ID != 0:
		return strconv.FormatInt(r.ID, 10)
	case r.CreatedAt != "":
		return r.CreatedAt
	default:
		return "idx-" + strconv.Itoa(i)
	}
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05",
	time.RFC1123,
}

func parseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
