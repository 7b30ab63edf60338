package serverquery

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/five82/ts3view/internal/query"
)

// fakeServer speaks just enough ServerQuery for the client: a greeting, then
// one canned reply per command.
type fakeServer struct {
	ln       net.Listener
	banner   string
	replies  map[string]string
	mu       sync.Mutex
	commands []string
}

func newFakeServer(t *testing.T, replies map[string]string) *fakeServer {
	t.Helper()
	return newFakeServerWithBanner(t, greetingBanner, replies)
}

func newFakeServerWithBanner(t *testing.T, banner string, replies map[string]string) *fakeServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	s := &fakeServer{ln: ln, banner: banner, replies: replies}
	t.Cleanup(func() { _ = ln.Close() })
	go s.serve()
	return s
}

func (s *fakeServer) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *fakeServer) handle(conn net.Conn) {
	defer conn.Close()
	_, _ = conn.Write([]byte(s.banner + "\n\rWelcome to the TeamSpeak 3 ServerQuery interface.\n\r"))

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		cmd := strings.TrimSpace(scanner.Text())
		s.mu.Lock()
		s.commands = append(s.commands, cmd)
		s.mu.Unlock()
		if cmd == "quit" {
			return
		}
		reply, ok := s.replies[cmd]
		if !ok {
			reply = "error id=0 msg=ok"
		}
		_, _ = conn.Write([]byte(reply + "\n\r"))
	}
}

func (s *fakeServer) addr() string { return s.ln.Addr().String() }

func (s *fakeServer) seen() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

func TestClient_ExecuteReturnsBody(t *testing.T) {
	srv := newFakeServer(t, map[string]string{
		"serverinfo": "notifycliententerview clid=5\n\rvirtualserver_name=Test\n\rerror id=0 msg=ok",
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	c, err := Dial(ctx, srv.addr(), time.Second)
	if err != nil {
		t.Fatalf("Dial returned error: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	body, err := c.Execute(ctx, "serverinfo")
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if body != "virtualserver_name=Test" {
		t.Fatalf("body = %q, want %q", body, "virtualserver_name=Test")
	}
}

func TestClient_ErrorLine(t *testing.T) {
	srv := newFakeServer(t, map[string]string{
		"login client_login_name=admin client_login_password=bad\\spass": `error id=520 msg=invalid\sloginname\sor\spassword`,
	})

	c, err := Dial(context.Background(), srv.addr(), time.Second)
	if err != nil {
		t.Fatalf("Dial returned error: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	err = c.Login(context.Background(), "admin", "bad pass")
	var qerr *Error
	if !errors.As(err, &qerr) {
		t.Fatalf("Login error = %v, want *Error", err)
	}
	if qerr.ID != 520 || qerr.Message != "invalid loginname or password" {
		t.Fatalf("error = %#v, want id 520 with decoded message", qerr)
	}
	if !strings.Contains(err.Error(), "login") {
		t.Fatalf("error = %q, want it to mention login", err.Error())
	}
}

func TestClient_RejectsBadBanner(t *testing.T) {
	srv := newFakeServerWithBanner(t, "SSH-2.0", nil)
	_, err := Dial(context.Background(), srv.addr(), time.Second)
	if err == nil || !strings.Contains(err.Error(), "unexpected banner") {
		t.Fatalf("Dial error = %v, want unexpected banner", err)
	}
}

func TestClient_RejectsInvalidCommand(t *testing.T) {
	srv := newFakeServer(t, nil)
	c, err := Dial(context.Background(), srv.addr(), time.Second)
	if err != nil {
		t.Fatalf("Dial returned error: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	for _, cmd := range []string{"", "   ", "serverinfo\nquit"} {
		if _, err := c.Execute(context.Background(), cmd); err == nil {
			t.Fatalf("Execute(%q) returned nil error, want error", cmd)
		}
	}
}

func TestParseErrorLine(t *testing.T) {
	if err := parseErrorLine("error id=0 msg=ok"); err != nil {
		t.Fatalf("parseErrorLine ok = %v, want nil", err)
	}
	err := parseErrorLine(`error id=1024 msg=invalid\sserverID extra_msg=try\sagain`)
	var qerr *Error
	if !errors.As(err, &qerr) || qerr.ID != 1024 || qerr.Extra != "try again" {
		t.Fatalf("parseErrorLine = %#v, want id 1024 with extra", err)
	}

	err = parseErrorLine(`error id=2568 msg=insufficient\sclient\spermissions failed_permid=4`)
	if !errors.As(err, &qerr) || qerr.FailedPermID != 4 {
		t.Fatalf("parseErrorLine = %#v, want failed_permid 4", err)
	}
	want := "serverquery error 2568: insufficient client permissions (failed_permid=4)"
	if got := err.Error(); got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
	if got := (&Error{ID: 1, Message: "m", Extra: "x", FailedPermID: 9}).Error(); got != "serverquery error 1: m (x; failed_permid=9)" {
		t.Fatalf("Error() = %q, want extra and permid joined", got)
	}

	if err := parseErrorLine("error msg=ok"); err == nil {
		t.Fatalf("parseErrorLine without id returned nil, want error")
	}
}

func TestSource_FetchCollectsStatus(t *testing.T) {
	bodies := []string{
		"virtualserver_name=Fake virtualserver_port=9987",
		"cid=1 pid=0 channel_name=Lobby",
		"clid=1 cid=1 client_nickname=alice client_type=0",
		"sgid=6 iconid=300",
		"cgid=5 iconid=0",
	}
	replies := make(map[string]string, len(bodies))
	for i, cmd := range query.StatusCommands {
		replies[cmd] = bodies[i] + "\n\rerror id=0 msg=ok"
	}
	srv := newFakeServer(t, replies)
	host, port := splitAddr(t, srv.addr())

	src, err := NewSource(Config{
		Host:        host,
		QueryPort:   port,
		VirtualPort: 9987,
		Username:    "admin",
		Password:    "secret",
		Nickname:    "ts3 view",
		Timeout:     time.Second,
	})
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
	if resp.Server.Name != "Fake" || len(resp.Channels) != 1 || len(resp.Users) != 1 {
		t.Fatalf("response = %#v", resp)
	}

	// quit is written after Fetch returns; give the server a moment to record it.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cmds := srv.seen(); len(cmds) > 0 && cmds[len(cmds)-1] == "quit" {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	cmds := srv.seen()
	wantPrefix := []string{
		"login client_login_name=admin client_login_password=secret",
		"use port=9987",
		`clientupdate client_nickname=ts3\sview`,
	}
	if len(cmds) < len(wantPrefix)+len(query.StatusCommands) {
		t.Fatalf("commands = %#v, want login/use/nickname/status", cmds)
	}
	for i, want := range wantPrefix {
		if cmds[i] != want {
			t.Fatalf("command %d = %q, want %q", i, cmds[i], want)
		}
	}
	for i, want := range query.StatusCommands {
		if got := cmds[len(wantPrefix)+i]; got != want {
			t.Fatalf("status command %d = %q, want %q", i, got, want)
		}
	}
}

func TestNewSource_Validates(t *testing.T) {
	cases := []Config{
		{Host: "", QueryPort: 10011, VirtualPort: 9987},
		{Host: "h", QueryPort: 0, VirtualPort: 9987},
		{Host: "h", QueryPort: 10011, VirtualPort: 70000},
	}
	for _, cfg := range cases {
		if _, err := NewSource(cfg); err == nil {
			t.Fatalf("NewSource(%#v) returned nil error, want error", cfg)
		}
	}
}

func TestSource_FetchDialError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	host, port := splitAddr(t, ln.Addr().String())
	_ = ln.Close()

	src, err := NewSource(Config{Host: host, QueryPort: port, VirtualPort: 9987, Timeout: 200 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewSource returned error: %v", err)
	}
	if _, err := src.Fetch(context.Background()); err == nil || !strings.Contains(err.Error(), "dial") {
		t.Fatalf("Fetch error = %v, want dial error", err)
	}
}

func splitAddr(t *testing.T, addr string) (string, int) {
	t.Helper()
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("SplitHostPort: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("Atoi(%q): %v", portStr, err)
	}
	return host, port
}
