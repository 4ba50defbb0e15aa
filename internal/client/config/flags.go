package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/cropdoc/internal/flagx"
)

// parseFlags overlays cfg with the flags this package owns. Other flags in
// args are filtered out first so they do not fail the parse.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-p", "-l", "-d", "-t"})

	fs := flag.NewFlagSet("cropdoc", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.BaseURL, "a", cfg.BaseURL, "API base URL")
	fs.StringVar(&cfg.Platform, "p", cfg.Platform, "platform (native|web)")
	fs.StringVar(&cfg.DefaultLanguage, "l", cfg.DefaultLanguage, "default display language")
	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "data directory")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
	return nil
}
