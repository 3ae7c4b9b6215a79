package session

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/alanyoungcy/kizzybot/internal/domain"
)

// maxResponseBytes caps how much of a response body is read. Platform
// payloads are small; anything bigger is a misdirected response.
const maxResponseBytes = 4 << 20

// userAgent mirrors the browser session the cookies were captured from so
// the platform's session affinity checks keep accepting them.
const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

// Channel executes platform requests under one account's cookie session. It
// implements domain.RequestChannel.
type Channel struct {
	account string
	appHost string
	client  *http.Client
	logger  *slog.Logger
}

// NewChannel builds a session channel from decrypted credentials. The cookie
// jar is primed for both hosts so app and rest calls ride the same session.
// Construction fails with domain.ErrAuthenticationFailed when the cookies
// cannot be attached to either host.
func NewChannel(creds Credentials, appHost, restHost string, timeout time.Duration, logger *slog.Logger) (*Channel, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("session: creating cookie jar: %w", err)
	}

	for _, host := range []string{appHost, restHost} {
		u, err := url.Parse(host)
		if err != nil {
			return nil, fmt.Errorf("session: parsing host %q: %w", host, err)
		}
		jar.SetCookies(u, httpCookies(creds.Cookies))
		if len(jar.Cookies(u)) == 0 {
			return nil, fmt.Errorf("session: account %s: no cookie applies to %s: %w",
				creds.Account, host, domain.ErrAuthenticationFailed)
		}
	}

	return &Channel{
		account: creds.Account,
		appHost: appHost,
		client: &http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
		logger: logger.With(
			slog.String("component", "session_channel"),
			slog.String("account", creds.Account),
		),
	}, nil
}

// Execute performs one platform request and returns the raw response body.
// Any transport failure or non-2xx status is an error; interpretation of the
// body is the caller's concern.
func (c *Channel) Execute(ctx context.Context, req domain.Request) ([]byte, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("session: building request: %w", err)
	}
	httpReq.Header.Set("User-Agent", userAgent)
	httpReq.Header.Set("Accept", "application/json")
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("session: %s %s: %w", req.Method, req.URL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("session: reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return nil, fmt.Errorf("session: %s %s: status %d: %w",
				req.Method, req.URL, resp.StatusCode, domain.ErrAuthenticationFailed)
		}
		return nil, fmt.Errorf("session: %s %s: status %d", req.Method, req.URL, resp.StatusCode)
	}
	return data, nil
}

// Warm touches the app host root to confirm the cookie session is still
// accepted before any market call, the HTTP equivalent of reloading the app
// once at startup. A rejection here is an authentication failure, not drift.
func (c *Channel) Warm(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.appHost+"/", nil)
	if err != nil {
		return fmt.Errorf("session: building warm request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("session: warming %s: %w", c.account, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes)) //nolint:errcheck

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("session: warming %s: status %d: %w",
			c.account, resp.StatusCode, domain.ErrAuthenticationFailed)
	}
	c.logger.DebugContext(ctx, "session warmed", slog.Int("status", resp.StatusCode))
	return nil
}

// Close releases the channel's idle connections.
func (c *Channel) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

// httpCookies converts captured cookies to net/http cookies. Captured
// domain/path are dropped: the jar scopes cookies to the URL they are set
// for, which matches how the bot replays them against both hosts.
func httpCookies(cookies []Cookie) []*http.Cookie {
	out := make([]*http.Cookie, 0, len(cookies))
	for _, c := range cookies {
		hc := &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Secure:   c.Secure,
			HttpOnly: c.HTTPOnly,
		}
		if c.Expires > 0 {
			hc.Expires = time.Unix(c.Expires, 0)
		}
		out = append(out, hc)
	}
	return out
}
