package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Host != defaultHost {
		t.Fatalf("Host = %q, want %q", cfg.Server.Host, defaultHost)
	}
	if cfg.Server.QueryPort != defaultQueryPort || cfg.Server.VirtualPort != defaultVirtualPort {
		t.Fatalf("ports = %d/%d, want %d/%d", cfg.Server.QueryPort, cfg.Server.VirtualPort, defaultQueryPort, defaultVirtualPort)
	}
	if cfg.Server.Nickname != defaultNickname {
		t.Fatalf("Nickname = %q, want %q", cfg.Server.Nickname, defaultNickname)
	}
	if cfg.Server.Timeout != defaultTimeout {
		t.Fatalf("Timeout = %v, want %v", cfg.Server.Timeout, defaultTimeout)
	}
	if cfg.Viewer.PollInterval != defaultPollInterval {
		t.Fatalf("PollInterval = %v, want %v", cfg.Viewer.PollInterval, defaultPollInterval)
	}

	wantLog, err := expandPath(defaultLogFile)
	if err != nil {
		t.Fatalf("expandPath(defaultLogFile) returned error: %v", err)
	}
	if cfg.LogFile != wantLog {
		t.Fatalf("LogFile = %q, want %q", cfg.LogFile, wantLog)
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
log_file = "  ~/logs/ts3view.log  "

[server]
host = "  voice.example.org  "
query_port = 10022
virtual_port = 9988
username = " serveradmin "
password = "s3cret "
nickname = "  Status Bot "
timeout_seconds = 1.5

[viewer]
hide_empty_channels = true
hide_parent_channels = true
limit_to_channels = [3, 7]
poll_seconds = 30
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	want := Server{
		Transport:    TransportRaw,
		Host:         "voice.example.org",
		QueryPort:    10022,
		WebQueryPort: defaultWebQueryPort,
		VirtualPort:  9988,
		Username:     "serveradmin",
		Password:     "s3cret ",
		Nickname:     "Status Bot",
		Timeout:      1500 * time.Millisecond,
	}
	if cfg.Server != want {
		t.Fatalf("Server = %#v, want %#v", cfg.Server, want)
	}
	if !cfg.Viewer.HideEmptyChannels || !cfg.Viewer.HideParentChannels {
		t.Fatalf("Viewer filters = %#v, want both hide flags", cfg.Viewer)
	}
	if !reflect.DeepEqual(cfg.Viewer.LimitToChannels, []int{3, 7}) {
		t.Fatalf("LimitToChannels = %v, want [3 7]", cfg.Viewer.LimitToChannels)
	}
	if cfg.Viewer.PollInterval != 30*time.Second {
		t.Fatalf("PollInterval = %v, want 30s", cfg.Viewer.PollInterval)
	}
	if !strings.HasPrefix(cfg.LogFile, home) || !strings.HasSuffix(cfg.LogFile, filepath.FromSlash("/logs/ts3view.log")) {
		t.Fatalf("LogFile = %q, want it under HOME %q", cfg.LogFile, home)
	}
}

func TestLoad_EmptyValuesUseDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
log_file = "   "

[server]
host = "   "
timeout_seconds = 0

[viewer]
poll_seconds = -5
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Host != defaultHost {
		t.Fatalf("Host = %q, want %q", cfg.Server.Host, defaultHost)
	}
	if cfg.Server.Nickname != defaultNickname {
		t.Fatalf("Nickname = %q, want %q", cfg.Server.Nickname, defaultNickname)
	}
	if cfg.Server.Timeout != defaultTimeout {
		t.Fatalf("Timeout = %v, want %v", cfg.Server.Timeout, defaultTimeout)
	}
	if cfg.Viewer.PollInterval != defaultPollInterval {
		t.Fatalf("PollInterval = %v, want %v", cfg.Viewer.PollInterval, defaultPollInterval)
	}
	wantLog, err := expandPath(defaultLogFile)
	if err != nil {
		t.Fatalf("expandPath(defaultLogFile) returned error: %v", err)
	}
	if cfg.LogFile != wantLog {
		t.Fatalf("LogFile = %q, want %q", cfg.LogFile, wantLog)
	}
}

func TestLoad_ExplicitEmptyNicknameDisablesRename(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[server]\nnickname = \"\"\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Nickname != "" {
		t.Fatalf("Nickname = %q, want empty", cfg.Server.Nickname)
	}
}

func TestLoad_HTTPTransport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "[server]\ntransport = \" HTTP \"\nwebquery_port = 10443\napi_key = \"  BAx9  \"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Transport != TransportHTTP {
		t.Fatalf("Transport = %q, want %q", cfg.Server.Transport, TransportHTTP)
	}
	if cfg.Server.WebQueryPort != 10443 {
		t.Fatalf("WebQueryPort = %d, want 10443", cfg.Server.WebQueryPort)
	}
	if cfg.Server.APIKey != "BAx9" {
		t.Fatalf("APIKey = %q, want %q", cfg.Server.APIKey, "BAx9")
	}
}

func TestLoad_InvalidTOMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("not = [valid"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("Load error = %v, want parse config error", err)
	}
}

func TestLoad_RejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "query port", content: "[server]\nquery_port = 70000\n", want: "query_port"},
		{name: "virtual port", content: "[server]\nvirtual_port = -1\n", want: "virtual_port"},
		{name: "password only", content: "[server]\npassword = \"x\"\n", want: "without username"},
		{name: "unknown transport", content: "[server]\ntransport = \"udp\"\n", want: "unknown transport"},
		{name: "http without key", content: "[server]\ntransport = \"http\"\n", want: "api_key"},
		{name: "webquery port", content: "[server]\ntransport = \"http\"\napi_key = \"k\"\nwebquery_port = 99999\n", want: "webquery_port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Load error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/a/b")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("expandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := expandPath("   "); err == nil {
		t.Fatalf("expandPath returned nil error, want error")
	}
}
