package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// RunHeader carries the reconciliation run id with every request of that run.
const RunHeader = "X-Sync-Run"

var (
	errUnexpectedStatusCode = errors.New("unexpected http status code")
	errEndpointURL          = errors.New("invalid sync endpoint url")
	errBodyUnmarshal        = errors.New("error unmarshalling response body")
	errSyncRejected         = errors.New("sync rejected by remote")
)

func UnexpectedStatusCodeError(statusCode int) error {
	return fmt.Errorf("%w: %d", errUnexpectedStatusCode, statusCode)
}

func BodyUnmarshalError(baseErr error) error {
	return fmt.Errorf("%w: %w", errBodyUnmarshal, baseErr)
}

// IsUnexpectedStatus reports whether err came from a non-2xx response.
func IsUnexpectedStatus(err error) bool {
	return errors.Is(err, errUnexpectedStatusCode)
}

// Client talks to the single POST endpoint of the remote sync service.
type Client struct {
	httpClient *http.Client
	endpoint   *url.URL
}

// NewClient returns a client for endpoint. A nil httpClient means a default
// client without a timeout.
func NewClient(httpClient *http.Client, endpoint string) (*Client, error) {
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", errEndpointURL, endpoint)
	}

	return &Client{httpClient: httpClient, endpoint: u}, nil
}

// Existing asks the remote which of localIDs it already holds and returns
// those remote records.
func (c *Client) Existing(ctx context.Context, runID string, localIDs []int64) ([]Transaction, error) {
	body, err := c.post(ctx, runID, NewGetRequest(localIDs))
	if err != nil {
		return nil, err
	}

	var txns []Transaction
	if err := json.Unmarshal(body, &txns); err != nil {
		return nil, BodyUnmarshalError(err)
	}

	return txns, nil
}

// Push sends one create/update/delete batch. Any non-2xx status, or a body
// that explicitly reports failure, fails the whole push.
func (c *Client) Push(ctx context.Context, runID string, req SyncRequest) error {
	body, err := c.post(ctx, runID, req)
	if err != nil {
		return err
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	var resp struct {
		Success *bool  `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		// The status code is the contract; a body we cannot read is not a failure.
		return nil
	}
	if resp.Success != nil && !*resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "no reason given"
		}
		return fmt.Errorf("%w: %s", errSyncRejected, msg)
	}

	return nil
}

func (c *Client) post(ctx context.Context, runID string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("error encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.String(), bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if runID != "" {
		req.Header.Set(RunHeader, runID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, UnexpectedStatusCodeError(resp.StatusCode)
	}

	return body, nil
}
