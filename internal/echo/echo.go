// Package echo uploads a best-effort copy of each exported KML document to a
// remote endpoint. Failures are logged and otherwise ignored.
package echo

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"kmlgen/internal/logger"
)

// DefaultTimeout bounds a single upload.
const DefaultTimeout = 5 * time.Second

type payload struct {
	Name string `json:"name"`
	KML  string `json:"kml"`
}

type Client struct {
	url  string
	http *http.Client
	wg   sync.WaitGroup
}

// New returns a client posting to url. A nil hc gets a client with DefaultTimeout.
func New(url string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{url: url, http: hc}
}

// Send posts {name, kml} in the background and returns immediately.
func (c *Client) Send(name string, kml []byte) {
	if c == nil || c.url == "" {
		return
	}
	body := payload{Name: name, KML: string(kml)}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.post(context.Background(), body); err != nil {
			logger.L().Warn("echo_send_failed", "name", name, "url", c.url, "err", err)
			return
		}
		logger.L().Debug("echo_send_ok", "name", name, "bytes", len(kml))
	}()
}

// Wait blocks until every in-flight Send has finished.
func (c *Client) Wait() {
	if c != nil {
		c.wg.Wait()
	}
}

func (c *Client) post(ctx context.Context, body payload) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return nil
}
