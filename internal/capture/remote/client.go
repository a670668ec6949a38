// Package remote implements capture.Transcriber against an external
// speech-to-text HTTP endpoint.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const httpTimeout = 30 * time.Second

// Client posts captured audio to a transcription endpoint and returns the
// terminal transcript.
type Client struct {
	endpoint   string
	language   string
	httpClient *http.Client
}

// New creates a transcription client. language is a BCP-47 tag passed
// through to the endpoint unmodified.
func New(endpoint, language string) *Client {
	return &Client{
		endpoint: endpoint,
		language: language,
		httpClient: &http.Client{
			Timeout: httpTimeout,
		},
	}
}

// Response represents the payload received from the transcription endpoint.
type Response struct {
	Transcript string `json:"transcript"`
}

// Transcribe sends the audio stream and returns the final transcript.
func (c *Client) Transcribe(ctx context.Context, audio io.Reader, contentType string) (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set("language", c.language)
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), audio)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	httpReq.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("transcription api error %d: %s", resp.StatusCode, string(respBody))
	}

	var out Response
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	return out.Transcript, nil
}
