// Package serverquery speaks the raw line-based ServerQuery protocol over TCP.
package serverquery

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/five82/ts3view/internal/query"
)

// Ensure Client implements query.Executor at compile time.
var _ query.Executor = (*Client)(nil)

const (
	greetingBanner = "TS3"
	defaultTimeout = 2 * time.Second
)

// Error is a non-zero ServerQuery error line.
type Error struct {
	ID           int
	Message      string
	Extra        string
	FailedPermID int // permission that denied the command, 0 if none
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("serverquery error %d: %s", e.ID, e.Message)
	var details []string
	if e.Extra != "" {
		details = append(details, e.Extra)
	}
	if e.FailedPermID != 0 {
		details = append(details, "failed_permid="+strconv.Itoa(e.FailedPermID))
	}
	if len(details) > 0 {
		msg += " (" + strings.Join(details, "; ") + ")"
	}
	return msg
}

// Client talks to a ServerQuery interface over TCP. It is not safe for
// concurrent use; a status fetch owns its client for the whole exchange.
type Client struct {
	conn    net.Conn
	reader  *bufio.Reader
	timeout time.Duration
}

// Dial connects to addr (host:port) and checks the greeting banner.
func Dial(ctx context.Context, addr string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, fmt.Errorf("query address is empty")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	c := &Client{
		conn:    conn,
		reader:  bufio.NewReader(conn),
		timeout: timeout,
	}
	if err := c.readGreeting(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) readGreeting(ctx context.Context) error {
	stop := c.arm(ctx)
	defer stop()

	banner, err := c.readLine()
	if err != nil {
		return fmt.Errorf("read greeting: %w", err)
	}
	if banner != greetingBanner {
		return fmt.Errorf("read greeting: unexpected banner %q", banner)
	}
	// Welcome text follows the banner.
	if _, err := c.readLine(); err != nil {
		return fmt.Errorf("read greeting: %w", err)
	}
	return nil
}

// Login authenticates the query session.
func (c *Client) Login(ctx context.Context, username, password string) error {
	cmd := "login client_login_name=" + query.Escape(username) + " client_login_password=" + query.Escape(password)
	if _, err := c.Execute(ctx, cmd); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	return nil
}

// Use selects the virtual server listening on port.
func (c *Client) Use(ctx context.Context, port int) error {
	if _, err := c.Execute(ctx, "use port="+strconv.Itoa(port)); err != nil {
		return fmt.Errorf("use port %d: %w", port, err)
	}
	return nil
}

// SetNickname changes the name the query client shows on the server.
func (c *Client) SetNickname(ctx context.Context, nickname string) error {
	if _, err := c.Execute(ctx, "clientupdate client_nickname="+query.Escape(nickname)); err != nil {
		return fmt.Errorf("set nickname: %w", err)
	}
	return nil
}

// Execute sends one command and returns the reply body without the closing
// error line. Notifications interleaved with the reply are skipped.
func (c *Client) Execute(ctx context.Context, command string) (string, error) {
	if c == nil || c.conn == nil {
		return "", fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(command) == "" || strings.ContainsAny(command, "\r\n") {
		return "", fmt.Errorf("invalid command %q", command)
	}

	stop := c.arm(ctx)
	defer stop()

	if _, err := c.conn.Write([]byte(command + "\n")); err != nil {
		return "", fmt.Errorf("write command: %w", err)
	}

	var body []string
	for {
		line, err := c.readLine()
		if err != nil {
			return "", fmt.Errorf("read reply: %w", err)
		}
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "notify"):
			continue
		case strings.HasPrefix(line, "error "):
			if err := parseErrorLine(line); err != nil {
				return "", err
			}
			return strings.Join(body, "\n\r"), nil
		default:
			body = append(body, line)
		}
	}
}

// Close ends the session politely and closes the socket.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.timeout))
	_, _ = c.conn.Write([]byte("quit\n"))
	return c.conn.Close()
}

// arm bounds the next exchange by the timeout and the context deadline, and
// aborts blocked I/O when ctx is cancelled.
func (c *Client) arm(ctx context.Context) func() {
	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = c.conn.SetDeadline(deadline)
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetDeadline(time.Now())
	})
	return func() { stop() }
}

// readLine returns one reply line. Lines end in "\n\r", so the carriage
// return shows up at the start of the following read and is trimmed there.
func (c *Client) readLine() (string, error) {
	line, err := c.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.Trim(line, "\r\n"), nil
}

func parseErrorLine(line string) error {
	records := query.DecodeRecords(line)
	if len(records) == 0 {
		return fmt.Errorf("malformed error line %q", line)
	}
	rec := records[0]
	if _, ok := rec.Lookup("id"); !ok {
		return fmt.Errorf("malformed error line %q", line)
	}
	id := rec.Int("id")
	if id == 0 {
		return nil
	}
	return &Error{
		ID:           id,
		Message:      rec.Get("msg"),
		Extra:        rec.Get("extra_msg"),
		FailedPermID: rec.Int("failed_permid"),
	}
}
