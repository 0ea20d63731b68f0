// Package client talks to the registration API on behalf of the terminal UI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"busreg-server-go/models"
)

// maxErrorBody bounds how much of a failing response is read.
const maxErrorBody = 64 << 10

// APIError is returned for any non-2xx response.
type APIError struct {
	Status  int
	Payload models.ErrorResponse
}

func (e *APIError) Error() string {
	if e.Payload.Error != "" {
		return fmt.Sprintf("server returned %d: %s", e.Status, e.Payload.Error)
	}
	return fmt.Sprintf("server returned %d", e.Status)
}

// Client is a typed wrapper over the HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the API at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// ListBusStops fetches the full bus stop directory.
func (c *Client) ListBusStops(ctx context.Context) ([]models.BusStop, error) {
	var stops []models.BusStop
	if err := c.do(ctx, http.MethodGet, "/bus-stops", nil, &stops); err != nil {
		return nil, fmt.Errorf("fetching bus stops: %w", err)
	}
	return stops, nil
}

// ListStudents fetches every registration with its bus stop joined.
func (c *Client) ListStudents(ctx context.Context) ([]models.Student, error) {
	var students []models.Student
	if err := c.do(ctx, http.MethodGet, "/students", nil, &students); err != nil {
		return nil, fmt.Errorf("fetching students: %w", err)
	}
	return students, nil
}

// CreateStudent submits one registration.
func (c *Client) CreateStudent(ctx context.Context, req models.CreateStudentRequest) (*models.Student, error) {
	var student models.Student
	if err := c.do(ctx, http.MethodPost, "/students", req, &student); err != nil {
		return nil, fmt.Errorf("creating student: %w", err)
	}
	return &student, nil
}

// CreateBusStop adds a bus stop to the directory.
func (c *Client) CreateBusStop(ctx context.Context, req models.CreateBusStopRequest) (*models.BusStop, error) {
	var stop models.BusStop
	if err := c.do(ctx, http.MethodPost, "/bus-stops", req, &stop); err != nil {
		return nil, fmt.Errorf("creating bus stop: %w", err)
	}
	return &stop, nil
}

// Export downloads the student spreadsheet and copies it to w.
func (c *Client) Export(ctx context.Context, w io.Writer) (int64, error) {
	resp, err := c.send(ctx, http.MethodGet, "/export", nil)
	if err != nil {
		return 0, fmt.Errorf("exporting students: %w", err)
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("exporting students: reading payload: %w", err)
	}
	return n, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// send issues the request and turns non-2xx responses into *APIError.
func (c *Client) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		apiErr := &APIError{Status: resp.StatusCode}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		// Not every failure carries a JSON payload (proxies, timeouts)
		_ = json.Unmarshal(raw, &apiErr.Payload)
		return nil, apiErr
	}
	return resp, nil
}
