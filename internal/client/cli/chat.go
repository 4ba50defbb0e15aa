package cli

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/cropdoc/internal/client/media"
	"github.com/dmitrijs2005/cropdoc/internal/client/models"
)

const defaultChatLimit = 50

// Attach selects media to send with the next chat message.
//
//	attach <file> [image|video|audio]
func (a *App) Attach(_ context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: attach <file> [image|video|audio]")
	}
	kind := media.KindImage
	if len(args) > 1 {
		k, err := media.ParseKind(args[1])
		if err != nil {
			return err
		}
		kind = k
	}
	a.selection.Set(media.Ref(args[0]), kind)
	a.printf("Attached %s (%s)\n", args[0], kind)
	return nil
}

// Chat sends a message, uploading the attached media first if any.
//
//	chat <text>
func (a *App) Chat(ctx context.Context, args []string) error {
	text := strings.Join(args, " ")
	_, _, hadMedia := a.selection.Current()
	reply, err := a.chat.SendWithMedia(ctx, text, &a.selection, a.progress())
	if hadMedia {
		a.printf("\n")
	}
	if err != nil {
		return err
	}
	a.printMessage(reply)
	return nil
}

// Messages prints the conversation. Signed-in users get it reloaded from
// the server.
//
//	messages [limit]
func (a *App) Messages(ctx context.Context, args []string) error {
	msgs := a.chat.Messages()
	if a.isLoggedIn() {
		limit := defaultChatLimit
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				return errors.New("limit must be a positive number")
			}
			limit = n
		}
		var err error
		if msgs, err = a.chat.FetchHistory(ctx, limit); err != nil {
			return err
		}
	}

	a.printf("%s\n", a.resolver.T("chat_title"))
	for _, m := range msgs {
		a.printMessage(m)
	}
	return nil
}

// Voice transcribes a voice note and sends the text as a chat message.
//
//	voice <audio>
func (a *App) Voice(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: voice <audio>")
	}
	tr, err := a.chat.Voice(ctx, media.Ref(args[0]))
	if err != nil {
		return err
	}
	if tr.Text == "" {
		return errors.New("nothing recognised in the recording")
	}
	a.printf("> %s\n", tr.Text)

	reply, err := a.chat.Send(ctx, tr.Text)
	if err != nil {
		return err
	}
	a.printMessage(reply)
	return nil
}

func (a *App) printMessage(m models.ChatMessage) {
	who := "you"
	if m.Sender == models.SenderBot {
		who = "doc"
	}
	line := who + ": " + m.Text
	if m.MediaPath != "" {
		line += " [" + m.MediaPath + "]"
	}
	a.printf("%s\n", line)
}
