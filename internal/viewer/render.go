// Package viewer turns a decoded status response into a filtered channel
// tree with icons, flags and spacer layout resolved.
//
// Renderer is the only entry point that touches a Source. Everything it
// calls is pure, so a Tree can be built from a captured response in tests
// exactly as from a live server.
package viewer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/five82/ts3view/internal/query"
)

// FallbackMessage is returned in place of a tree when rendering fails.
const FallbackMessage = "The viewer could not be loaded, please check the error log."

// Channel and server icon tokens.
const (
	IconChannelGreen  = "channel-green"
	IconChannelYellow = "channel-yellow"
	IconChannelRed    = "channel-red"
	IconServerGreen   = "server-green"
)

// Channel flag tokens.
const (
	FlagDefault   = "default"
	FlagModerated = "moderated"
	FlagPassword  = "password"
)

// RenderedChannel is a channel node of the rendered tree.
type RenderedChannel struct {
	ID            int
	LinkKey       string
	Title         string
	Icon          string
	Name          string
	Class         string
	Topic         string
	SuppressFlags bool
	Flags         []string
	Users         []RenderedUser
	Children      []RenderedChannel
}

// Tree is the rendered server, rooted at the virtual channel id 0.
type Tree struct {
	LinkKey  string
	Name     string
	Icon     string
	Server   query.ServerInfo
	Channels []RenderedChannel
}

// Options carry the per-render configuration.
type Options struct {
	Host        string
	VirtualPort int // used for the link key when serverinfo has no port
	Filters     Filters
}

// Build decodes a raw status response and assembles the channel tree.
func Build(raw string, opts Options) (*Tree, error) {
	resp, err := query.DecodeResponse(raw)
	if err != nil {
		return nil, err
	}

	users := AggregateUsers(resp.Users, resp.Flags)
	forest := BuildForest(resp.Channels, users, opts.Filters)

	port := resp.Server.Port
	if port == 0 {
		port = opts.VirtualPort
	}

	a := assembler{
		forest:  forest,
		users:   users,
		linkKey: LinkKey(opts.Host, port),
		visited: make(map[int]bool),
	}
	return &Tree{
		LinkKey:  a.linkKey,
		Name:     resp.Server.Name,
		Icon:     IconServerGreen,
		Server:   resp.Server,
		Channels: a.channels(0),
	}, nil
}

type assembler struct {
	forest  *Forest
	users   map[int][]RenderedUser
	linkKey string
	visited map[int]bool
}

func (a *assembler) channels(parent int) []RenderedChannel {
	var out []RenderedChannel
	for _, id := range a.forest.Children(parent) {
		if !a.forest.Visible(id) || a.visited[id] {
			continue
		}
		a.visited[id] = true
		ch, _ := a.forest.Channel(id)
		out = append(out, a.channel(ch))
	}
	return out
}

func (a *assembler) channel(ch query.Channel) RenderedChannel {
	parsed := ParseChannelName(ch)
	return RenderedChannel{
		ID:            ch.ID,
		LinkKey:       a.linkKey,
		Title:         fmt.Sprintf("%s [%d]", ch.Name, ch.ID),
		Icon:          channelIcon(ch),
		Name:          parsed.Name,
		Class:         parsed.Class,
		Topic:         ch.Topic,
		SuppressFlags: parsed.SuppressFlags,
		Flags:         channelFlags(ch),
		Users:         a.users[ch.ID],
		Children:      a.channels(ch.ID),
	}
}

func channelIcon(ch query.Channel) string {
	switch {
	case ch.MaxClients > -1 && ch.TotalClients >= ch.MaxClients:
		return IconChannelRed
	case ch.MaxFamilyClients > -1 && ch.TotalClientsFamily >= ch.MaxFamilyClients:
		return IconChannelRed
	case ch.PasswordProtected:
		return IconChannelYellow
	default:
		return IconChannelGreen
	}
}

func channelFlags(ch query.Channel) []string {
	var flags []string
	if ch.Default {
		flags = append(flags, FlagDefault)
	}
	if ch.NeededTalkPower > 0 {
		flags = append(flags, FlagModerated)
	}
	if ch.PasswordProtected {
		flags = append(flags, FlagPassword)
	}
	return flags
}

// LinkKey derives a presentation-safe identifier from host and port: every
// byte outside [A-Za-z0-9] becomes '-'.
func LinkKey(host string, port int) string {
	raw := []byte(host + "-" + strconv.Itoa(port))
	for i, c := range raw {
		if !isAlnum(c) {
			raw[i] = '-'
		}
	}
	return string(raw)
}

func isAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// Source produces a raw status response.
type Source interface {
	Fetch(ctx context.Context) (string, error)
}

// Result is the outcome of one render: a tree, or the fallback text.
type Result struct {
	Tree     *Tree
	Fallback string
	Err      error
}

// OK reports whether the result carries a tree.
func (r Result) OK() bool {
	return r.Tree != nil
}

// Renderer fetches and builds trees. It holds no per-render state, so one
// Renderer may serve concurrent callers.
type Renderer struct {
	source Source
	opts   Options
	logger *slog.Logger
}

// NewRenderer builds a Renderer. A nil logger discards failure records.
func NewRenderer(source Source, opts Options, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Renderer{source: source, opts: opts, logger: logger}
}

// Render fetches a response and builds the tree. Any failure, panics
// included, is logged and turned into a fallback result.
func (r *Renderer) Render(ctx context.Context) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			res = r.fail(fmt.Errorf("render panic: %v", p))
		}
	}()

	if r.source == nil {
		return r.fail(fmt.Errorf("no status source configured"))
	}
	raw, err := r.source.Fetch(ctx)
	if err != nil {
		return r.fail(fmt.Errorf("fetch status: %w", err))
	}
	tree, err := Build(raw, r.opts)
	if err != nil {
		return r.fail(fmt.Errorf("build tree: %w", err))
	}
	return Result{Tree: tree}
}

func (r *Renderer) fail(err error) Result {
	r.logger.Error("viewer render failed", slog.String("host", r.opts.Host), slog.Any("err", err))
	return Result{Fallback: FallbackMessage, Err: err}
}
