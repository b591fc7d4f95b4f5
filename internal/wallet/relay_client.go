package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gojek/heimdall/v7/httpclient"
	"github.com/pkg/errors"
	"github/chapool/transfer-relay/internal/relay"
	"github/chapool/transfer-relay/internal/transfer"
	"github/chapool/transfer-relay/internal/types"
)

const (
	DefaultRelayTimeout = 30 * time.Second

	maxResponseBytes = 1 << 20
)

// RelayClient calls the relay HTTP API. Requests are never retried, a
// broadcast must not be sent twice.
type RelayClient struct {
	baseURL string
	client  *httpclient.Client
}

func NewRelayClient(baseURL string, timeout time.Duration) *RelayClient {
	if timeout <= 0 {
		timeout = DefaultRelayTimeout
	}

	return &RelayClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: httpclient.NewClient(
			httpclient.WithHTTPTimeout(timeout),
			httpclient.WithRetryCount(0),
		),
	}
}

// CheckRPC calls GET /check-rpc.
func (c *RelayClient) CheckRPC(ctx context.Context) (*types.CheckRPCResponse, error) {
	var res types.CheckRPCResponse
	if _, err := c.do(ctx, http.MethodGet, "/check-rpc", nil, &res); err != nil {
		return nil, err
	}

	return &res, nil
}

// Prepare calls POST /prepare.
func (c *RelayClient) Prepare(ctx context.Context, payload types.PostPreparePayload) (*types.PrepareResponse, error) {
	var res types.PrepareResponse
	status, err := c.do(ctx, http.MethodPost, "/prepare", payload, &res)
	if err != nil {
		return nil, err
	}

	if status != http.StatusOK {
		return nil, errors.Errorf("prepare failed with status %d", status)
	}

	return &res, nil
}

// Broadcast calls POST /broadcast. A response with success false is returned
// as a classified error.
func (c *RelayClient) Broadcast(ctx context.Context, env *relay.Envelope) (*types.BroadcastResponse, error) {
	var res types.BroadcastResponse
	if _, err := c.do(ctx, http.MethodPost, "/broadcast", env, &res); err != nil {
		return nil, err
	}

	if !res.Success {
		return &res, &transfer.Error{Kind: transfer.ErrorKind(res.Code), Reason: res.Error}
	}

	return &res, nil
}

// do sends body as JSON and decodes the response into out. Error responses in
// the relay's {success, error, code} shape are returned as classified errors.
func (c *RelayClient) do(ctx context.Context, method, path string, body any, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, errors.Wrap(err, "failed to encode request")
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, errors.Wrap(err, "failed to create request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return 0, transfer.WrapError(err, transfer.KindRPCUnavailable, "relay is not reachable")
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return res.StatusCode, errors.Wrap(err, "failed to read response")
	}

	if res.StatusCode >= http.StatusBadRequest && path != "/broadcast" {
		var errRes types.ErrorResponse
		if json.Unmarshal(data, &errRes) == nil && errRes.Code != "" {
			return res.StatusCode, &transfer.Error{Kind: transfer.ErrorKind(errRes.Code), Reason: errRes.Error}
		}

		return res.StatusCode, errors.Errorf("relay responded with status %d", res.StatusCode)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return res.StatusCode, errors.Wrapf(err, "relay returned invalid JSON with status %d", res.StatusCode)
	}

	return res.StatusCode, nil
}
