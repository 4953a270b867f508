// Package client drives the upload protocol from the caller side: it creates a session,
// sends every part and commits with locally computed checksums.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"upload-coordinator/internal/adapters/handlers/http/chi/v1/upload"
	"upload-coordinator/internal/core/domain"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
)

// Options configures a Client
type Options struct {
	MaxRetries  int
	RetryWait   time.Duration
	Timeout     time.Duration
	Concurrency int
}

// Client talks to the upload coordinator API
type Client struct {
	httpClient  *retryablehttp.Client
	baseURL     string
	concurrency int
	logger      *slog.Logger
}

// New creates a Client for baseURL, ex: http://localhost:8080
func New(baseURL string, opts Options, logger *slog.Logger) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = opts.MaxRetries
	if opts.RetryWait > 0 {
		rc.RetryWaitMin = opts.RetryWait
		rc.RetryWaitMax = 8 * opts.RetryWait
	}
	if opts.Timeout > 0 {
		rc.HTTPClient.Timeout = opts.Timeout
	}
	rc.Logger = logger
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	return &Client{
		httpClient:  rc,
		baseURL:     strings.TrimRight(baseURL, "/"),
		concurrency: concurrency,
		logger:      logger,
	}
}

// APIError is a non successful API answer
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Is maps the status code back to the core error kinds
func (e *APIError) Is(target error) bool {
	switch e.StatusCode {
	case http.StatusBadRequest:
		return target == domain.ErrValidation
	case http.StatusNotFound:
		return target == domain.ErrNotFound
	case http.StatusBadGateway:
		return target == domain.ErrUpstream
	}
	return false
}

// CreateUpload opens a session
func (c *Client) CreateUpload(ctx context.Context, req upload.V1CreateUploadRequest) (*upload.V1CreateUploadResponse, error) {
	var resp upload.V1CreateUploadResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/uploads", req, http.StatusCreated, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetUpload returns the session state
func (c *Client) GetUpload(ctx context.Context, id uuid.UUID) (*upload.V1SessionResponse, error) {
	var resp upload.V1SessionResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/uploads/"+id.String(), nil, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UploadPart sends one part through the coordinator
func (c *Client) UploadPart(ctx context.Context, id uuid.UUID, index int, data []byte) (*upload.V1UploadPartResponse, error) {
	path := fmt.Sprintf("/api/v1/uploads/%s/parts/%d", id, index)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+path, data)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	var resp upload.V1UploadPartResponse
	if err := c.do(req, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PresignParts asks direct upload URLs for indices
func (c *Client) PresignParts(ctx context.Context, id uuid.UUID, indices []int) ([]upload.V1PresignedPart, error) {
	var resp upload.V1PresignPartsResponse
	path := fmt.Sprintf("/api/v1/uploads/%s/presign", id)
	if err := c.doJSON(ctx, http.MethodPost, path, upload.V1PresignPartsRequest{Indices: indices}, http.StatusCreated, &resp); err != nil {
		return nil, err
	}
	return resp.Parts, nil
}

// PutPresigned sends data to a presigned part URL and returns the store ETag
func (c *Client) PutPresigned(ctx context.Context, url string, data []byte) (string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPut, url, data)
	if err != nil {
		return "", err
	}
	req.ContentLength = int64(len(data))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer c.close(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", unwrapError(resp)
	}
	return strings.Trim(resp.Header.Get("ETag"), `"`), nil
}

// Commit finalizes the upload. A 422 answer is returned as *domain.PartsInvalidError.
func (c *Client) Commit(ctx context.Context, id uuid.UUID, parts []upload.V1ClaimedPart) (*upload.V1CommitResponse, error) {
	var resp upload.V1CommitResponse
	path := fmt.Sprintf("/api/v1/uploads/%s/commit", id)
	if err := c.doJSON(ctx, http.MethodPost, path, upload.V1CommitRequest{Parts: parts}, http.StatusCreated, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Abort cancels the upload
func (c *Client) Abort(ctx context.Context, id uuid.UUID) error {
	path := fmt.Sprintf("/api/v1/uploads/%s/abort", id)
	return c.doJSON(ctx, http.MethodPost, path, nil, http.StatusOK, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, expected int, out any) error {
	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		if err != nil {
			return err
		}
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, raw)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.do(req, expected, out)
}

func (c *Client) do(req *retryablehttp.Request, expected int, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer c.close(resp.Body)

	if resp.StatusCode != expected {
		return unwrapError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) close(body io.ReadCloser) {
	if err := body.Close(); err != nil {
		c.logger.Debug("failed to close response body", "error", err)
	}
}

func unwrapError(resp *http.Response) error {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return &APIError{StatusCode: resp.StatusCode, Message: err.Error()}
	}

	if resp.StatusCode == http.StatusUnprocessableEntity {
		var invalid upload.V1PartsInvalidResponse
		if err := json.NewDecoder(bytes.NewReader(raw)).Decode(&invalid); err == nil {
			return &domain.PartsInvalidError{Missing: invalid.Missing, Mismatched: invalid.Mismatched}
		}
	}

	return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
}
