package serverquery

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/five82/ts3view/internal/query"
	"github.com/five82/ts3view/internal/viewer"
)

// Ensure Source implements viewer.Source at compile time.
var _ viewer.Source = (*Source)(nil)

// Config describes how to reach and log in to a virtual server.
type Config struct {
	Host        string
	QueryPort   int
	VirtualPort int
	Username    string // empty skips login
	Password    string
	Nickname    string // empty keeps the server-assigned name
	Timeout     time.Duration
}

// Addr returns host:port of the query interface.
func (c Config) Addr() string {
	return net.JoinHostPort(strings.TrimSpace(c.Host), strconv.Itoa(c.QueryPort))
}

// Source opens a fresh query session per fetch, collects the status
// commands and closes the session again.
type Source struct {
	cfg Config
}

// NewSource validates cfg and builds a Source.
func NewSource(cfg Config) (*Source, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, fmt.Errorf("query host is empty")
	}
	if cfg.QueryPort <= 0 || cfg.QueryPort > 65535 {
		return nil, fmt.Errorf("invalid query port %d", cfg.QueryPort)
	}
	if cfg.VirtualPort <= 0 || cfg.VirtualPort > 65535 {
		return nil, fmt.Errorf("invalid virtual server port %d", cfg.VirtualPort)
	}
	return &Source{cfg: cfg}, nil
}

// Fetch returns the raw status response of the configured virtual server.
func (s *Source) Fetch(ctx context.Context) (string, error) {
	if s == nil {
		return "", fmt.Errorf("source is nil")
	}
	client, err := Dial(ctx, s.cfg.Addr(), s.cfg.Timeout)
	if err != nil {
		return "", err
	}
	defer func() { _ = client.Close() }()

	if s.cfg.Username != "" {
		if err := client.Login(ctx, s.cfg.Username, s.cfg.Password); err != nil {
			return "", err
		}
	}
	if err := client.Use(ctx, s.cfg.VirtualPort); err != nil {
		return "", err
	}
	if s.cfg.Nickname != "" {
		if err := client.SetNickname(ctx, s.cfg.Nickname); err != nil {
			return "", err
		}
	}
	return query.Collect(ctx, client)
}
