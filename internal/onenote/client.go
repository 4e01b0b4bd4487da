package onenote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/takak2166/wiz2onenote/internal/logger"
	"github.com/takak2166/wiz2onenote/internal/models"
)

// maxErrorBody bounds how much of a rejected response is kept for the log
const maxErrorBody = 4 << 10

// APIError is a non-success response from the OneNote API
type APIError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

func (e *APIError) Unwrap() error {
	return models.ErrRemoteRejected
}

// Client talks to the OneNote notes API. Authentication is left to the
// supplied http.Client, typically an oauth2 bearer transport.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// New creates a new OneNote client
func New(httpClient *http.Client, baseURL string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

type createRequest struct {
	Name string `json:"name"`
}

type createResponse struct {
	ID string `json:"id"`
}

// CreateNotebook creates a notebook and returns its id
func (c *Client) CreateNotebook(ctx context.Context, name string) (string, error) {
	logger.Info("Creating notebook", map[string]interface{}{
		"name": name,
	})

	id, err := c.postJSON(ctx, "/notebooks", createRequest{Name: name})
	if err != nil {
		return "", fmt.Errorf("failed to create notebook %q: %w", name, err)
	}
	return id, nil
}

// CreateSection creates a section in the notebook and returns its id
func (c *Client) CreateSection(ctx context.Context, notebookID, name string) (string, error) {
	logger.Info("Creating section", map[string]interface{}{
		"name": name,
	})

	path := "/notebooks/" + url.PathEscape(notebookID) + "/sections"
	id, err := c.postJSON(ctx, path, createRequest{Name: name})
	if err != nil {
		return "", fmt.Errorf("failed to create section %q: %w", name, err)
	}
	return id, nil
}

// CreatePage posts a multipart page body into the section and returns the page id
func (c *Client) CreatePage(ctx context.Context, sectionID string, body io.Reader, contentType string) (string, error) {
	path := "/sections/" + url.PathEscape(sectionID) + "/pages"
	id, err := c.post(ctx, path, body, contentType)
	if err != nil {
		return "", fmt.Errorf("failed to create page: %w", err)
	}
	return id, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload interface{}) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}
	return c.post(ctx, path, bytes.NewReader(data), "application/json")
}

func (c *Client) post(ctx context.Context, path string, body io.Reader, contentType string) (string, error) {
	endpoint := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("POST %s: %w: %w", endpoint, models.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &APIError{
			Method:     http.MethodPost,
			URL:        endpoint,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(msg)),
		}
	}

	var created createResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		if errors.Is(err, io.EOF) {
			return "", fmt.Errorf("POST %s: empty response: %w", endpoint, models.ErrRemoteRejected)
		}
		return "", fmt.Errorf("POST %s: failed to decode response: %w: %w", endpoint, models.ErrNetwork, err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("POST %s: response has no id: %w", endpoint, models.ErrRemoteRejected)
	}
	return created.ID, nil
}
