package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/five82/ts3view/internal/config"
	"github.com/five82/ts3view/internal/prefs"
	"github.com/five82/ts3view/internal/replay"
	"github.com/five82/ts3view/internal/serverquery"
	"github.com/five82/ts3view/internal/state"
	"github.com/five82/ts3view/internal/ui"
	"github.com/five82/ts3view/internal/viewer"
	"github.com/five82/ts3view/internal/webquery"
)

// ErrFallback is returned by Run in plain mode when the tree could not be
// rendered and the fallback text was printed instead.
var ErrFallback = errors.New("viewer fell back")

// Options configure the application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/ts3view/prefs.toml
	PollEvery  int    // seconds; zero uses the config value
	ReplayPath string // serve a captured response instead of querying a server
	Plain      bool   // print once as text and exit
	Width      int    // plain output width; zero disables truncation
	Stdout     io.Writer
}

// Run loads the configuration and either prints the tree once or runs the
// TUI until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	userPrefs, _ := prefs.Load(opts.PrefsPath)

	logger, closeLog, err := newLogger(cfg.LogFile)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer closeLog()

	source, label, err := buildSource(cfg, opts.ReplayPath)
	if err != nil {
		return err
	}
	renderer := viewer.NewRenderer(source, renderOptions(cfg), logger)

	if opts.Plain {
		return printOnce(ctx, renderer, userPrefs, opts)
	}

	interval := cfg.Viewer.PollInterval
	if opts.PollEvery > 0 {
		interval = time.Duration(opts.PollEvery) * time.Second
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	store := &state.Store{}
	poller := NewPoller(renderer, store, interval, logger)
	poller.Start(ctx)

	if rs, ok := source.(*replay.Source); ok {
		go func() {
			if err := replay.Watch(ctx, rs.Path(), poller.Refresh); err != nil {
				logger.Error("replay watch failed", slog.String("path", rs.Path()), slog.Any("err", err))
			}
		}()
	}

	return ui.Run(ui.Options{
		Store:     store,
		Refresh:   poller.Refresh,
		PollTick:  ui.DefaultUIInterval,
		Prefs:     userPrefs,
		PrefsPath: opts.PrefsPath,
		LogPath:   cfg.LogFile,
		Source:    label,
	})
}

func printOnce(ctx context.Context, renderer Renderer, userPrefs prefs.Prefs, opts Options) error {
	out := opts.Stdout
	if out == nil {
		out = os.Stdout
	}
	res := renderer.Render(ctx)
	plain := ui.PlainOptions{Width: opts.Width, ShowIDs: userPrefs.ShowIDs, Compact: userPrefs.Compact}
	if err := ui.RenderPlain(out, res.Tree, res.Fallback, plain); err != nil {
		return fmt.Errorf("write tree: %w", err)
	}
	if !res.OK() {
		return ErrFallback
	}
	return nil
}

// buildSource picks the replay file when one is given and the configured
// query transport otherwise. label describes the source for the header.
func buildSource(cfg config.Config, replayPath string) (viewer.Source, string, error) {
	if replayPath != "" {
		src, err := replay.NewSource(replayPath)
		if err != nil {
			return nil, "", fmt.Errorf("init replay source: %w", err)
		}
		return src, filepath.Base(src.Path()), nil
	}

	label := cfg.Server.Host + ":" + strconv.Itoa(cfg.Server.VirtualPort)
	if cfg.Server.Transport == config.TransportHTTP {
		src, err := webquery.NewSource(webquery.Config{
			Host:        cfg.Server.Host,
			Port:        cfg.Server.WebQueryPort,
			VirtualPort: cfg.Server.VirtualPort,
			APIKey:      cfg.Server.APIKey,
			Timeout:     cfg.Server.Timeout,
		})
		if err != nil {
			return nil, "", fmt.Errorf("init webquery source: %w", err)
		}
		return src, label, nil
	}

	qcfg := serverquery.Config{
		Host:        cfg.Server.Host,
		QueryPort:   cfg.Server.QueryPort,
		VirtualPort: cfg.Server.VirtualPort,
		Username:    cfg.Server.Username,
		Password:    cfg.Server.Password,
		Nickname:    cfg.Server.Nickname,
		Timeout:     cfg.Server.Timeout,
	}
	src, err := serverquery.NewSource(qcfg)
	if err != nil {
		return nil, "", fmt.Errorf("init serverquery source: %w", err)
	}
	return src, label, nil
}

func renderOptions(cfg config.Config) viewer.Options {
	return viewer.Options{
		Host:        cfg.Server.Host,
		VirtualPort: cfg.Server.VirtualPort,
		Filters: viewer.Filters{
			HideEmptyChannels:  cfg.Viewer.HideEmptyChannels,
			HideParentChannels: cfg.Viewer.HideParentChannels,
			LimitToChannels:    cfg.Viewer.LimitToChannels,
		},
	}
}

// newLogger opens the log file for appending and returns a text logger. The
// TUI owns the terminal, so nothing is logged to stderr. An empty path
// discards records.
func newLogger(path string) (*slog.Logger, func(), error) {
	if path == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewTextHandler(file, &slog.HandlerOptions{Level: slog.LevelInfo}))
	return logger, func() { _ = file.Close() }, nil
}
