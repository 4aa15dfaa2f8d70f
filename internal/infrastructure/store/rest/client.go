// Package rest is the remote bill store reached over HTTP.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/billed/internal/application/port"
	"github.com/garyjia/billed/internal/domain/entity"
)

// ErrRemote marks every non-2xx answer from the store
var ErrRemote = errors.New("remote store error")

// RemoteError carries the status and message of a rejected request
type RemoteError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message)
}

// Unwrap lets errors.Is match ErrRemote
func (e *RemoteError) Unwrap() error {
	return ErrRemote
}

// HTTPClient interface for testing
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config configures the REST store client
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client implements port.BillStore against {BaseURL}/bills
type Client struct {
	baseURL    string
	token      string
	httpClient HTTPClient
	logger     *zap.Logger
}

// NewClient creates a client. A nil httpClient gets a default one honouring cfg.Timeout.
func NewClient(cfg Config, httpClient HTTPClient, logger *zap.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid store base url %q", cfg.BaseURL)
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:    base.String(),
		token:      cfg.Token,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// List fetches GET /bills
func (c *Client) List(ctx context.Context) ([]entity.Bill, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/bills", nil)
	if err != nil {
		return nil, err
	}

	var bills []entity.Bill
	if err := c.do(req, &bills); err != nil {
		return nil, err
	}
	return bills, nil
}

// Create uploads the receipt as multipart form data to POST /bills
func (c *Client) Create(ctx context.Context, upload entity.ReceiptUpload) (*entity.CreatedFile, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, upload.FileName))
	contentType := upload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := part.Write(upload.Content); err != nil {
		return nil, fmt.Errorf("failed to write file part: %w", err)
	}
	if err := mw.WriteField("email", upload.Email); err != nil {
		return nil, fmt.Errorf("failed to write email field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart body: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/bills", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var created entity.CreatedFile
	if err := c.do(req, &created); err != nil {
		return nil, err
	}
	c.logger.Info("Receipt uploaded",
		zap.String("file_name", upload.FileName),
		zap.String("key", created.Key))
	return &created, nil
}

// Update sends the serialized bill to PATCH /bills/{selector}
func (c *Client) Update(ctx context.Context, update port.UpdateRequest) (*entity.Bill, error) {
	if update.Selector == "" {
		return nil, fmt.Errorf("update requires a selector")
	}

	req, err := c.newRequest(ctx, http.MethodPatch, "/bills/"+url.PathEscape(update.Selector), bytes.NewReader(update.Data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var bill entity.Bill
	if err := c.do(req, &bill); err != nil {
		return nil, err
	}
	return &bill, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Store request failed",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Error(err))
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("Store request",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RemoteError{
			Method:  req.Method,
			Path:    req.URL.Path,
			Status:  resp.StatusCode,
			Message: remoteMessage(payload),
		}
	}

	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// remoteMessage extracts {"message": ...} or {"error": ...}, falling back to the raw text
func remoteMessage(payload []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(payload, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return strings.TrimSpace(string(payload))
}

var _ port.BillStore = (*Client)(nil)
