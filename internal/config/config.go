package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config is the resolved ts3view configuration.
type Config struct {
	Server  Server
	Viewer  Viewer
	LogFile string
}

// Server describes the ServerQuery endpoint and the virtual server to show.
type Server struct {
	Transport    string // TransportRaw or TransportHTTP
	Host         string
	QueryPort    int
	WebQueryPort int
	VirtualPort  int
	Username     string
	Password     string
	APIKey       string
	Nickname     string
	Timeout      time.Duration
}

// Transports accepted in [server] transport.
const (
	TransportRaw  = "raw"
	TransportHTTP = "http"
)

// Viewer holds the tree filters and the refresh interval.
type Viewer struct {
	HideEmptyChannels  bool
	HideParentChannels bool
	LimitToChannels    []int
	PollInterval       time.Duration
}

const (
	defaultConfigPath   = "~/.config/ts3view/config.toml"
	defaultLogFile      = "~/.local/share/ts3view/ts3view.log"
	defaultHost         = "127.0.0.1"
	defaultQueryPort    = 10011
	defaultWebQueryPort = 10080
	defaultVirtualPort  = 9987
	defaultNickname     = "ts3view"
	defaultTimeout      = 2 * time.Second
	defaultPollInterval = 10 * time.Second
)

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return defaultConfigPath
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Server: Server{
			Transport:    TransportRaw,
			Host:         defaultHost,
			QueryPort:    defaultQueryPort,
			WebQueryPort: defaultWebQueryPort,
			VirtualPort:  defaultVirtualPort,
			Nickname:     defaultNickname,
			Timeout:      defaultTimeout,
		},
		Viewer: Viewer{
			PollInterval: defaultPollInterval,
		},
		LogFile: mustExpand(defaultLogFile),
	}
}

type rawConfig struct {
	LogFile string    `toml:"log_file"`
	Server  rawServer `toml:"server"`
	Viewer  rawViewer `toml:"viewer"`
}

type rawServer struct {
	Transport      string  `toml:"transport"`
	Host           string  `toml:"host"`
	QueryPort      int     `toml:"query_port"`
	WebQueryPort   int     `toml:"webquery_port"`
	VirtualPort    int     `toml:"virtual_port"`
	Username       string  `toml:"username"`
	Password       string  `toml:"password"`
	APIKey         string  `toml:"api_key"`
	Nickname       *string `toml:"nickname"`
	TimeoutSeconds float64 `toml:"timeout_seconds"`
}

type rawViewer struct {
	HideEmptyChannels  bool    `toml:"hide_empty_channels"`
	HideParentChannels bool    `toml:"hide_parent_channels"`
	LimitToChannels    []int   `toml:"limit_to_channels"`
	PollSeconds        float64 `toml:"poll_seconds"`
}

// Load locates and parses the config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if transport := strings.ToLower(strings.TrimSpace(raw.Server.Transport)); transport != "" {
		cfg.Server.Transport = transport
	}
	if host := strings.TrimSpace(raw.Server.Host); host != "" {
		cfg.Server.Host = host
	}
	if raw.Server.QueryPort != 0 {
		cfg.Server.QueryPort = raw.Server.QueryPort
	}
	if raw.Server.WebQueryPort != 0 {
		cfg.Server.WebQueryPort = raw.Server.WebQueryPort
	}
	if raw.Server.VirtualPort != 0 {
		cfg.Server.VirtualPort = raw.Server.VirtualPort
	}
	cfg.Server.Username = strings.TrimSpace(raw.Server.Username)
	cfg.Server.Password = raw.Server.Password
	cfg.Server.APIKey = strings.TrimSpace(raw.Server.APIKey)
	if raw.Server.Nickname != nil {
		// An explicit empty nickname keeps the server-assigned one.
		cfg.Server.Nickname = strings.TrimSpace(*raw.Server.Nickname)
	}
	if raw.Server.TimeoutSeconds > 0 {
		cfg.Server.Timeout = seconds(raw.Server.TimeoutSeconds)
	}

	cfg.Viewer.HideEmptyChannels = raw.Viewer.HideEmptyChannels
	cfg.Viewer.HideParentChannels = raw.Viewer.HideParentChannels
	cfg.Viewer.LimitToChannels = raw.Viewer.LimitToChannels
	if raw.Viewer.PollSeconds > 0 {
		cfg.Viewer.PollInterval = seconds(raw.Viewer.PollSeconds)
	}

	if logFile := strings.TrimSpace(raw.LogFile); logFile != "" {
		cfg.LogFile = mustExpand(logFile)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports settings that cannot work.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Server.Host) == "" {
		return fmt.Errorf("server host is empty")
	}
	switch c.Server.Transport {
	case TransportRaw:
		if !validPort(c.Server.QueryPort) {
			return fmt.Errorf("invalid query_port %d", c.Server.QueryPort)
		}
	case TransportHTTP:
		if !validPort(c.Server.WebQueryPort) {
			return fmt.Errorf("invalid webquery_port %d", c.Server.WebQueryPort)
		}
		if c.Server.APIKey == "" {
			return fmt.Errorf("api_key is required for the http transport")
		}
	default:
		return fmt.Errorf("unknown transport %q", c.Server.Transport)
	}
	if !validPort(c.Server.VirtualPort) {
		return fmt.Errorf("invalid virtual_port %d", c.Server.VirtualPort)
	}
	if c.Server.Username == "" && c.Server.Password != "" {
		return fmt.Errorf("password set without username")
	}
	return nil
}

func validPort(port int) bool {
	return port > 0 && port <= 65535
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
