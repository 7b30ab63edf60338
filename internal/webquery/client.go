// Package webquery reads a virtual server over the WebQuery HTTP interface
// and re-encodes each reply as ServerQuery text.
package webquery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/five82/ts3view/internal/query"
)

// Ensure Client implements query.Executor at compile time.
var _ query.Executor = (*Client)(nil)

// Error is a non-zero status returned by the WebQuery API.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("webquery error %d: %s", e.Code, e.Message)
}

// Client talks to the WebQuery HTTP interface of a TeamSpeak server.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	apiKey    string
	userAgent string
	scope     string // "/<sid>" once Use succeeded
}

const (
	defaultUserAgent = "ts3view/0.1"
	defaultTimeout   = 5 * time.Second

	// codeEmptyResult is "database empty result set"; list commands report
	// it instead of an empty body.
	codeEmptyResult = 1281
)

// NewClient builds a Client for addr (host:port or a full URL).
func NewClient(addr, apiKey string, timeout time.Duration) (*Client, error) {
	base, err := parseBaseURL(addr)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: timeout},
		apiKey:    apiKey,
		userAgent: defaultUserAgent,
	}, nil
}

// Use resolves the virtual server listening on port and scopes every later
// command to it.
func (c *Client) Use(ctx context.Context, port int) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	rel := &url.URL{Path: "/serveridgetbyport", RawQuery: "virtualserver_port=" + strconv.Itoa(port)}
	records, err := c.do(ctx, rel)
	if err != nil {
		return fmt.Errorf("use port %d: %w", port, err)
	}
	if len(records) == 0 || records[0]["server_id"] == "" {
		return fmt.Errorf("use port %d: no server id in reply", port)
	}
	c.scope = "/" + url.PathEscape(records[0]["server_id"])
	return nil
}

// Execute runs one command and returns its body encoded as ServerQuery
// text, so replies from both transports decode the same way.
func (c *Client) Execute(ctx context.Context, command string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("client is nil")
	}
	rel, err := commandURL(c.scope, command)
	if err != nil {
		return "", err
	}
	records, err := c.do(ctx, rel)
	if err != nil {
		return "", err
	}
	return encodeRecords(records), nil
}

// commandURL maps "name -opt key=value" onto /scope/name?key=value&-opt.
func commandURL(scope, command string) (*url.URL, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, fmt.Errorf("command is empty")
	}
	values := url.Values{}
	var options []string
	for _, arg := range fields[1:] {
		if strings.HasPrefix(arg, "-") {
			options = append(options, url.QueryEscape(arg))
			continue
		}
		key, value, _ := strings.Cut(arg, "=")
		values.Add(key, query.Unescape(value))
	}
	raw := values.Encode()
	if len(options) > 0 {
		if raw != "" {
			raw += "&"
		}
		raw += strings.Join(options, "&")
	}
	return &url.URL{Path: scope + "/" + fields[0], RawQuery: raw}, nil
}

type response struct {
	Body   []map[string]any `json:"body"`
	Status struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"status"`
}

func (c *Client) do(ctx context.Context, rel *url.URL) ([]map[string]string, error) {
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("webquery %s returned status %d", rel.Path, resp.StatusCode)
		}
		return nil, fmt.Errorf("decode response: %w", err)
	}
	switch payload.Status.Code {
	case 0:
	case codeEmptyResult:
		return nil, nil
	default:
		return nil, &Error{Code: payload.Status.Code, Message: payload.Status.Message}
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("webquery %s returned status %d", rel.Path, resp.StatusCode)
	}

	records := make([]map[string]string, 0, len(payload.Body))
	for _, item := range payload.Body {
		rec := make(map[string]string, len(item))
		for k, v := range item {
			rec[k] = stringValue(v)
		}
		records = append(records, rec)
	}
	return records, nil
}

func stringValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		if v {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprint(v)
	}
}

// encodeRecords renders records in ServerQuery list form. JSON objects carry
// no field order, so keys are sorted.
func encodeRecords(records []map[string]string) string {
	items := make([]string, 0, len(records))
	for _, rec := range records {
		keys := make([]string, 0, len(rec))
		for k := range rec {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fields := make([]string, 0, len(keys))
		for _, k := range keys {
			fields = append(fields, k+"="+query.Escape(rec[k]))
		}
		items = append(items, strings.Join(fields, " "))
	}
	return strings.Join(items, "|")
}

func parseBaseURL(addr string) (*url.URL, error) {
	trimmed := strings.TrimSpace(addr)
	if trimmed == "" {
		return nil, fmt.Errorf("webquery address is empty")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse webquery address %q: %w", addr, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
