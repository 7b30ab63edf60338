package webquery

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/five82/ts3view/internal/query"
)

const testKey = "secret-key"

// fakeAPI answers WebQuery paths from a fixed table and records requests.
type fakeAPI struct {
	mu       sync.Mutex
	requests []*url.URL
	replies  map[string]string
}

func newFakeAPI(t *testing.T, replies map[string]string) (*fakeAPI, *httptest.Server) {
	t.Helper()
	api := &fakeAPI{replies: replies}
	server := httptest.NewServer(http.HandlerFunc(api.serve))
	t.Cleanup(server.Close)
	return api, server
}

func (f *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r.URL)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if r.Header.Get("x-api-key") != testKey {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"status":{"code":5122,"message":"invalid apikey"}}`))
		return
	}
	reply, ok := f.replies[r.URL.Path]
	if !ok {
		reply = `{"body":[],"status":{"code":0,"message":"ok"}}`
	}
	_, _ = w.Write([]byte(reply))
}

func (f *fakeAPI) paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.requests))
	for _, u := range f.requests {
		out = append(out, u.Path)
	}
	return out
}

func ok(body string) string {
	return `{"body":` + body + `,"status":{"code":0,"message":"ok"}}`
}

func TestClient_ExecuteEncodesRecords(t *testing.T) {
	t.Parallel()

	_, server := newFakeAPI(t, map[string]string{
		"/1/channellist": ok(`[{"cid":"1","channel_name":"Lobby | main"},{"cid":2,"channel_name":"AFK"}]`),
	})
	c, err := NewClient(server.URL, testKey, time.Second)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	c.scope = "/1"

	body, err := c.Execute(context.Background(), "channellist")
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	want := `channel_name=Lobby\s\p\smain cid=1|channel_name=AFK cid=2`
	if body != want {
		t.Fatalf("Execute body = %q, want %q", body, want)
	}

	records := query.DecodeRecords(body)
	if len(records) != 2 || records[0].Get("channel_name") != "Lobby | main" {
		t.Fatalf("decoded records = %#v, want Lobby | main first", records)
	}
}

func TestClient_StatusErrors(t *testing.T) {
	t.Parallel()

	_, server := newFakeAPI(t, map[string]string{
		"/1/serverinfo":  `{"status":{"code":1024,"message":"invalid serverID"}}`,
		"/1/clientlist":  `{"status":{"code":1281,"message":"database empty result set"}}`,
		"/1/channellist": `{not-json`,
	})
	c, err := NewClient(server.URL, testKey, time.Second)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	c.scope = "/1"

	_, err = c.Execute(context.Background(), "serverinfo")
	var qerr *Error
	if !errors.As(err, &qerr) || qerr.Code != 1024 || qerr.Message != "invalid serverID" {
		t.Fatalf("Execute error = %v, want webquery error 1024", err)
	}

	body, err := c.Execute(context.Background(), "clientlist")
	if err != nil || body != "" {
		t.Fatalf("Execute(clientlist) = %q, %v, want empty body", body, err)
	}

	_, err = c.Execute(context.Background(), "channellist")
	if err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("Execute error = %v, want decode response error", err)
	}
}

func TestClient_RejectsBadKey(t *testing.T) {
	t.Parallel()

	_, server := newFakeAPI(t, nil)
	c, err := NewClient(server.URL, "wrong", time.Second)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	err = c.Use(context.Background(), 9987)
	var qerr *Error
	if !errors.As(err, &qerr) || qerr.Code != 5122 {
		t.Fatalf("Use error = %v, want webquery error 5122", err)
	}
}

func TestCommandURL(t *testing.T) {
	tests := []struct {
		command string
		path    string
		query   string
	}{
		{"serverinfo", "/1/serverinfo", ""},
		{"channellist -topic -flags", "/1/channellist", "-topic&-flags"},
		{`clientupdate client_nickname=ts3\sview`, "/1/clientupdate", "client_nickname=ts3+view"},
		{"clientlist cid=4 -uid", "/1/clientlist", "cid=4&-uid"},
	}
	for _, tt := range tests {
		u, err := commandURL("/1", tt.command)
		if err != nil {
			t.Fatalf("commandURL(%q) returned error: %v", tt.command, err)
		}
		if u.Path != tt.path || u.RawQuery != tt.query {
			t.Fatalf("commandURL(%q) = %s?%s, want %s?%s", tt.command, u.Path, u.RawQuery, tt.path, tt.query)
		}
	}

	if _, err := commandURL("/1", "  "); err == nil {
		t.Fatalf("commandURL(blank) returned nil error, want error")
	}
}

func TestParseBaseURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"127.0.0.1:10080", "http://127.0.0.1:10080"},
		{"https://ts.example.com:10443/ignored?x=1", "https://ts.example.com:10443"},
	}
	for _, tt := range tests {
		u, err := parseBaseURL(tt.in)
		if err != nil {
			t.Fatalf("parseBaseURL(%q) returned error: %v", tt.in, err)
		}
		if got := u.String(); got != tt.want {
			t.Fatalf("parseBaseURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if _, err := parseBaseURL(" "); err == nil {
		t.Fatalf("parseBaseURL(blank) returned nil error, want error")
	}
}

func TestSource_FetchCollectsStatus(t *testing.T) {
	t.Parallel()

	api, server := newFakeAPI(t, map[string]string{
		"/serveridgetbyport": ok(`[{"server_id":"7"}]`),
		"/7/serverinfo":      ok(`[{"virtualserver_name":"Test Server","virtualserver_port":"9987"}]`),
		"/7/channellist":     ok(`[{"cid":"1","pid":"0","channel_name":"Lobby"}]`),
	})
	u, _ := url.Parse(server.URL)
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatalf("parse port: %v", err)
	}

	src, err := NewSource(Config{Host: u.Hostname(), Port: port, VirtualPort: 9987, APIKey: testKey})
	if err != nil {
		t.Fatalf("NewSource returned error: %v", err)
	}
	raw, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}

	resp, err := query.DecodeResponse(raw)
	if err != nil {
		t.Fatalf("DecodeResponse returned error: %v", err)
	}
	if resp.Server.Name != "Test Server" || resp.Server.Port != 9987 {
		t.Fatalf("server = %#v, want Test Server on 9987", resp.Server)
	}
	if len(resp.Channels) != 1 || resp.Channels[0].Name != "Lobby" {
		t.Fatalf("channels = %#v, want Lobby", resp.Channels)
	}

	want := []string{"/serveridgetbyport", "/7/serverinfo", "/7/channellist", "/7/clientlist", "/7/servergrouplist", "/7/channelgrouplist"}
	got := api.paths()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("request paths = %v, want %v", got, want)
	}
}

func TestNewSource_Validates(t *testing.T) {
	valid := Config{Host: "127.0.0.1", Port: 10080, VirtualPort: 9987, APIKey: testKey}
	if _, err := NewSource(valid); err != nil {
		t.Fatalf("NewSource(valid) returned error: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty host", func(c *Config) { c.Host = " " }},
		{"bad port", func(c *Config) { c.Port = 0 }},
		{"bad virtual port", func(c *Config) { c.VirtualPort = 70000 }},
		{"missing key", func(c *Config) { c.APIKey = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			if _, err := NewSource(cfg); err == nil {
				t.Fatalf("NewSource returned nil error, want error")
			}
		})
	}
}
