package camera

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ErrEmptySnapshot is returned when the camera answers 2xx with no body.
var ErrEmptySnapshot = errors.New("camera returned an empty snapshot")

// ErrSnapshotTooLarge is returned when the body exceeds Config.MaxBytes.
var ErrSnapshotTooLarge = errors.New("camera snapshot exceeds size limit")

// StatusError reports a non-2xx snapshot response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("camera snapshot: HTTP %d", e.StatusCode)
}

// Config configures a snapshot Client.
type Config struct {
	URL      string
	Username string
	Password string
	Timeout  time.Duration
	// MaxBytes caps the snapshot size; 0 means 32 MiB.
	MaxBytes int64
}

// Client fetches still images from a camera's HTTP snapshot endpoint.
type Client struct {
	url      string
	http     *http.Client
	maxBytes int64
}

// NewClient validates the snapshot URL and builds a Client. Credentials, when
// set, are passed as usr/pwd query parameters, the Foscam CGI convention.
func NewClient(cfg Config) (*Client, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse camera url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("camera url must be http or https, got %q", u.Scheme)
	}
	if cfg.Username != "" {
		q := u.Query()
		q.Set("usr", cfg.Username)
		q.Set("pwd", cfg.Password)
		u.RawQuery = q.Encode()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 32 << 20
	}
	return &Client{
		url:      u.String(),
		http:     &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
	}, nil
}

// FetchSnapshot performs one GET against the snapshot endpoint.
func (c *Client) FetchSnapshot(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build snapshot request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot: %w", redact(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if int64(len(body)) > c.maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrSnapshotTooLarge, c.maxBytes)
	}
	if len(body) == 0 {
		return nil, ErrEmptySnapshot
	}
	return body, nil
}

// redact strips the URL, which may carry credentials, from transport errors.
func redact(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s: %w", uerr.Op, uerr.Err)
	}
	return err
}
