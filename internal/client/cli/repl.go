package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	ForgotPassword(ctx context.Context) error
	Guest(ctx context.Context) error
	Logout(ctx context.Context) error
	Profile(ctx context.Context) error
	Diagnose(ctx context.Context, args []string) error
	History(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	Attach(ctx context.Context, args []string) error
	Chat(ctx context.Context, args []string) error
	Messages(ctx context.Context, args []string) error
	Voice(ctx context.Context, args []string) error
	Lang(ctx context.Context, args []string) error
	Theme(ctx context.Context, args []string) error
}

const (
	helpCommon = "diagnose <image> [crop], history [page], show <id>, attach <file> [image|video|audio], " +
		"chat <text>, messages [limit], voice <audio>, lang [code], theme [light|dark], exit"
	helpGuest  = "Available commands: register, login, forgot, " + helpCommon
	helpMember = "Available commands: profile, logout, " + helpCommon
)

// runREPL starts a simple read–eval–print loop for the cropdoc CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a' with the remaining tokens as arguments.
// Unknown commands are reported back to the user. The loop exits on EOF or
// when the user types "exit" or "quit".
//
// Handler errors are printed and the loop carries on; it also stops once ctx
// is done.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("cropdoc %s> ", statusFn()))
		line, ok := readLine(reader)
		if !ok {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpMember)
			} else {
				printlnFn(helpGuest)
			}
		case "register":
			err = a.Register(ctx)
		case "login":
			err = a.Login(ctx)
		case "forgot":
			err = a.ForgotPassword(ctx)
		case "guest":
			err = a.Guest(ctx)
		case "logout":
			err = a.Logout(ctx)
		case "profile":
			err = a.Profile(ctx)
		case "diagnose", "d":
			err = a.Diagnose(ctx, args)
		case "history", "h":
			err = a.History(ctx, args)
		case "show":
			err = a.Show(ctx, args)
		case "attach":
			err = a.Attach(ctx, args)
		case "chat", "c":
			err = a.Chat(ctx, args)
		case "messages":
			err = a.Messages(ctx, args)
		case "voice":
			err = a.Voice(ctx, args)
		case "lang":
			err = a.Lang(ctx, args)
		case "theme":
			err = a.Theme(ctx, args)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err)
		}
		if ctx.Err() != nil {
			return
		}
	}
}
