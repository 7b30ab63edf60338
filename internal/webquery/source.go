package webquery

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

// Config describes how to reach a virtual server over WebQuery.
type Config struct {
	Host        string
	Port        int // WebQuery HTTP port
	VirtualPort int
	APIKey      string
	Timeout     time.Duration
}

// Addr returns host:port of the WebQuery interface.
func (c Config) Addr() string {
	return net.JoinHostPort(strings.TrimSpace(c.Host), strconv.Itoa(c.Port))
}

// Source resolves the virtual server and collects the status commands over
// HTTP on every fetch.
type Source struct {
	cfg Config
}

// NewSource validates cfg and builds a Source.
func NewSource(cfg Config) (*Source, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, fmt.Errorf("webquery host is empty")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid webquery port %d", cfg.Port)
	}
	if cfg.VirtualPort <= 0 || cfg.VirtualPort > 65535 {
		return nil, fmt.Errorf("invalid virtual server port %d", cfg.VirtualPort)
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("webquery api key is empty")
	}
	return &Source{cfg: cfg}, nil
}

// Fetch returns the raw status response of the configured virtual server.
func (s *Source) Fetch(ctx context.Context) (string, error) {
	if s == nil {
		return "", fmt.Errorf("source is nil")
	}
	client, err := NewClient(s.cfg.Addr(), s.cfg.APIKey, s.cfg.Timeout)
	if err != nil {
		return "", err
	}
	if err := client.Use(ctx, s.cfg.VirtualPort); err != nil {
		return "", err
	}
	return query.Collect(ctx, client)
}
