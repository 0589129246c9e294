package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"writerid-portal/internal/payload"

	"github.com/google/uuid"
)

// ErrTimeout is returned when the executor does not answer within the configured timeout.
var ErrTimeout = errors.New("executor call timed out")

// Limiter caps concurrent executor calls.
type Limiter interface {
	Acquire(ctx context.Context, key string) error
	Release(ctx context.Context, key string)
}

// Client calls the executor's synchronous prediction endpoint.
type Client struct {
	client     *http.Client
	predictURL string
	apiKey     string
	timeout    time.Duration
	limiter    Limiter
}

// NewClient creates a client. limiter may be nil.
func NewClient(predictURL, apiKey string, timeout time.Duration, limiter Limiter) *Client {
	return &Client{
		client: &http.Client{
			Timeout: timeout,
		},
		predictURL: predictURL,
		apiKey:     apiKey,
		timeout:    timeout,
		limiter:    limiter,
	}
}

type predictRequest struct {
	TaskID string `json:"task_id"`
}

// Predict asks the executor to run one task and returns its validated prediction.
func (c *Client) Predict(ctx context.Context, taskID uuid.UUID) (*payload.PredictionResult, error) {
	if c.limiter != nil {
		if err := c.limiter.Acquire(ctx, "predict"); err != nil {
			return nil, fmt.Errorf("acquire executor slot: %w", err)
		}
		defer c.limiter.Release(context.Background(), "predict")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(predictRequest{TaskID: taskID.String()})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.predictURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w after %s: %v", ErrTimeout, c.timeout, err)
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w after %s: %v", ErrTimeout, c.timeout, err)
		}
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("executor returned status=%d, body=%s", resp.StatusCode, string(data))
	}

	result, err := payload.ParsePredictionResult(data)
	if err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return result, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
