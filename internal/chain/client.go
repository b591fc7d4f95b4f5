package chain

import (
	"context"
	"errors"
	"net/url"
	"slices"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ErrNoEndpoint is returned when every configured RPC endpoint is unusable.
var ErrNoEndpoint = errors.New("all RPC endpoints are unavailable")

// Client wraps one or more Ethereum JSON-RPC endpoints. Read calls fail over
// to the next endpoint on transport errors, broadcasts never do.
type Client struct {
	urls    []string
	clients []*ethclient.Client
	mu      sync.RWMutex
	current int
}

// NewClient dials every url. Endpoints that fail to dial are retried on use.
func NewClient(ctx context.Context, urls []string) (*Client, error) {
	if len(urls) == 0 {
		return nil, pkgerrors.New("at least one RPC URL is required")
	}

	clients := make([]*ethclient.Client, len(urls))
	dialed := 0
	for i, u := range urls {
		c, err := ethclient.DialContext(ctx, u)
		if err != nil {
			log.Warn().
				Str("endpoint", redactURL(u)).
				Err(err).
				Msg("Failed to dial RPC endpoint, will retry on use")
			continue
		}
		clients[i] = c
		dialed++
	}

	if dialed == 0 {
		return nil, pkgerrors.New("failed to dial any RPC endpoint")
	}

	return &Client{
		urls:    urls,
		clients: clients,
	}, nil
}

// Close closes all endpoint connections.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, client := range c.clients {
		if client != nil {
			client.Close()
			c.clients[i] = nil
		}
	}
}

// read runs fn against the current endpoint and fails over on transport errors.
// Errors returned by the node itself (JSON-RPC error objects, reverts) are
// final and returned as-is.
func (c *Client) read(ctx context.Context, fn func(*ethclient.Client) error) error {
	var lastErr error = ErrNoEndpoint

	start := c.currentIndex()
	for i := 0; i < len(c.urls); i++ {
		idx := (start + i) % len(c.urls)

		client, err := c.clientAt(ctx, idx)
		if err != nil {
			lastErr = err
			continue
		}

		err = fn(client)
		if err == nil {
			c.setCurrent(idx)
			return nil
		}

		if isNodeError(err) || ctx.Err() != nil {
			return err
		}

		log.Warn().
			Str("endpoint", redactURL(c.urls[idx])).
			Err(c.redact(err)).
			Msg("RPC endpoint failed, trying next")
		lastErr = err
	}

	return lastErr
}

// once runs fn against the current endpoint without failover.
func (c *Client) once(ctx context.Context, fn func(*ethclient.Client) error) error {
	client, err := c.clientAt(ctx, c.currentIndex())
	if err != nil {
		return err
	}

	return fn(client)
}

func (c *Client) currentIndex() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.current
}

func (c *Client) setCurrent(idx int) {
	c.mu.Lock()
	c.current = idx
	c.mu.Unlock()
}

// clientAt returns the client for idx, redialing it if it was never connected.
func (c *Client) clientAt(ctx context.Context, idx int) (*ethclient.Client, error) {
	c.mu.RLock()
	client := c.clients[idx]
	c.mu.RUnlock()

	if client != nil {
		return client, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.clients[idx] != nil {
		return c.clients[idx], nil
	}

	client, err := ethclient.DialContext(ctx, c.urls[idx])
	if err != nil {
		return nil, pkgerrors.Wrap(c.redact(err), "failed to dial RPC endpoint")
	}
	c.clients[idx] = client

	return client, nil
}

// Redact removes endpoint URLs from err so it can be shown to clients.
func (c *Client) Redact(err error) string {
	if err == nil {
		return ""
	}

	return c.redact(err).Error()
}

func (c *Client) redact(err error) error {
	msg := err.Error()
	for _, u := range c.urls {
		for _, fragment := range urlFragments(u) {
			msg = strings.ReplaceAll(msg, fragment, "<rpc>")
		}
	}

	if msg == err.Error() {
		return err
	}

	return errors.New(msg)
}

// urlFragments lists the forms in which raw can appear in an error, longest
// first, down to the bare host, path, query and credentials.
func urlFragments(raw string) []string {
	fragments := []string{raw}

	parsed, err := url.Parse(raw)
	if err == nil && parsed.Host != "" {
		fragments = append(fragments,
			parsed.Redacted(),
			parsed.String(),
			parsed.Host+parsed.EscapedPath(),
			parsed.Host+parsed.Path,
			parsed.Host,
		)

		if len(parsed.Path) > 1 {
			fragments = append(fragments, parsed.EscapedPath(), parsed.Path)
		}

		if parsed.RawQuery != "" {
			fragments = append(fragments, parsed.RawQuery)
		}

		if parsed.User != nil {
			fragments = append(fragments, parsed.User.String())
			if password, ok := parsed.User.Password(); ok && password != "" {
				// net/http masks the password as "***" in its errors
				masked := *parsed
				masked.User = url.UserPassword(parsed.User.Username(), "***")
				fragments = append(fragments, masked.String(), password)
			}
		}
	}

	slices.SortStableFunc(fragments, func(a, b string) int {
		return len(b) - len(a)
	})

	return slices.DeleteFunc(fragments, func(f string) bool { return len(f) < 2 })
}

func isNodeError(err error) bool {
	var rpcErr rpc.Error
	return errors.As(err, &rpcErr)
}

// redactURL keeps scheme and host, dropping credentials, path and query which
// commonly carry API keys.
func redactURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return "<invalid url>"
	}

	return parsed.Scheme + "://" + parsed.Hostname()
}
