package autoinvest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// contains http utils to deal with remote services

// httpStatusError is a non-2xx response, carrying the body so callers can
// classify it (a 4xx from the venue's order endpoint is a rejection, not a
// transport failure).
type httpStatusError struct {
	StatusCode int
	Status     string
	URL        string
	Body       []byte
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("http %s from %s", e.Status, e.URL)
}

// jwget performs an HTTP GET request and unmarshals the JSON response into
// the provided data structure.
func jwget(ctx context.Context, client *http.Client, addr, bearer string, data any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return err
	}
	return jwdo(client, req, bearer, data)
}

// jwpost performs an HTTP POST of a JSON body and unmarshals the JSON
// response into the provided data structure.
func jwpost(ctx context.Context, client *http.Client, addr, bearer string, body, data any) error {
	content, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, addr, bytes.NewReader(content))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return jwdo(client, req, bearer, data)
}

func jwdo(client *http.Client, req *http.Request, bearer string, data any) error {
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &httpStatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			URL:        req.URL.Host + req.URL.Path,
			Body:       content,
		}
	}
	if data == nil || len(content) == 0 {
		return nil
	}
	return json.Unmarshal(content, data)
}
