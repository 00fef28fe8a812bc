package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/vitalink/vitalink/internal/model"
)

const (
	// ClientTimeout is the total request timeout. Image OCR runs are slow.
	ClientTimeout = 30 * time.Second
	// DialTimeout is the connection timeout.
	DialTimeout = 10 * time.Second
	// TLSHandshakeTimeout is the TLS negotiation timeout.
	TLSHandshakeTimeout = 10 * time.Second
	// ResponseHeaderTimeout is time to wait for response headers.
	ResponseHeaderTimeout = 15 * time.Second
)

// NewHTTPClient creates an HTTP client configured for backend calls.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout: ClientTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   DialTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   TLSHandshakeTimeout,
			ResponseHeaderTimeout: ResponseHeaderTimeout,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
		},
	}
}

// Client issues the bp-image call class requests against whatever backend
// the router resolves.
type Client struct {
	router *Router
	http   *http.Client
}

// NewClient creates a Client. A nil httpClient falls back to NewHTTPClient.
func NewClient(router *Router, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = NewHTTPClient()
	}
	return &Client{
		router: router,
		http:   httpClient,
	}
}

// ManualEventInput is the request body for manual blood-pressure entry.
type ManualEventInput struct {
	UserID    string `json:"user_id,omitempty"`
	Type      string `json:"type"`
	Value1    *int   `json:"value1,omitempty"`
	Value2    *int   `json:"value2,omitempty"`
	Value3    *int   `json:"value3,omitempty"`
	ValueBool *bool  `json:"valueBool,omitempty"`
	ValueText string `json:"valueText,omitempty"`
}

// eventEnvelope wraps single-event responses from the BP backend.
type eventEnvelope struct {
	Success bool               `json:"success"`
	Data    *model.HealthEvent `json:"data"`
	Error   string             `json:"error"`
}

// BPExtraction is the result of OCR'ing a blood-pressure monitor photo.
type BPExtraction struct {
	Systolic  int    `json:"sys"`
	Diastolic int    `json:"dia"`
	Pulse     int    `json:"pulse"`
	Error     string `json:"error"`
}

// AddManualEvent records a manually entered health event.
func (c *Client) AddManualEvent(ctx context.Context, input ManualEventInput) (*model.HealthEvent, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("encode manual event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.router.BaseURL(ClassBPImage)+"/api/add-manual-event", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build manual event request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send manual event: %w", err)
	}
	defer resp.Body.Close()

	var envelope eventEnvelope
	if err := decodeResponse(resp, &envelope); err != nil {
		return nil, err
	}

	return envelope.Data, nil
}

// HealthEvents fetches recorded health events, newest first. An empty userID
// fetches all events.
func (c *Client) HealthEvents(ctx context.Context, userID string) ([]*model.HealthEvent, error) {
	endpoint := c.router.BaseURL(ClassBPImage) + "/api/health-events"
	if userID != "" {
		endpoint += "?user_id=" + url.QueryEscape(userID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build health events request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch health events: %w", err)
	}
	defer resp.Body.Close()

	var events []*model.HealthEvent
	if err := decodeResponse(resp, &events); err != nil {
		return nil, err
	}

	return events, nil
}

// ProcessImage uploads a blood-pressure monitor photo for OCR extraction.
func (c *Client) ProcessImage(ctx context.Context, filename string, image io.Reader) (*BPExtraction, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return nil, fmt.Errorf("build image form: %w", err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, fmt.Errorf("copy image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalize image form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.router.BaseURL(ClassBPImage)+"/api/process-image", &buf)
	if err != nil {
		return nil, fmt.Errorf("build process image request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send image: %w", err)
	}
	defer resp.Body.Close()

	var extraction BPExtraction
	if err := decodeResponse(resp, &extraction); err != nil {
		return nil, err
	}

	return &extraction, nil
}

// decodeResponse decodes a JSON body, converting non-2xx statuses into errors
// carrying the backend's error message when one is present.
func decodeResponse(resp *http.Response, out any) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("backend returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("backend returned %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
