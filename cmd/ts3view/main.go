package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/five82/ts3view/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "config path (default ~/.config/ts3view/config.toml)")
	prefsPath := flag.String("prefs", "", "preferences path (default ~/.config/ts3view/prefs.toml)")
	pollSeconds := flag.Int("poll", 0, "refresh interval in seconds (optional, overrides the config)")
	replayPath := flag.String("replay", "", "render a captured status response instead of querying a server")
	once := flag.Bool("once", false, "print the tree as text and exit")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		PrefsPath:  *prefsPath,
		ReplayPath: *replayPath,
		Plain:      *once,
	}
	if poll := *pollSeconds; poll > 0 {
		opts.PollEvery = poll
	}

	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		opts.Plain = true
	} else if width, _, err := term.GetSize(fd); err == nil {
		opts.Width = width
	}

	if err := app.Run(ctx, opts); err != nil {
		if errors.Is(err, app.ErrFallback) {
			return 2
		}
		fmt.Fprintf(os.Stderr, "ts3view: %v\n", err)
		return 1
	}
	return 0
}
