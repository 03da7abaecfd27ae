package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/even/showrunner/internal/retry"
)

// Client talks to one ComfyUI server.
type Client struct {
	base    string
	http    *http.Client
	poll    time.Duration
	timeout time.Duration
	retry   retry.Options
}

// ClientConfig configures a Client.
type ClientConfig struct {
	// URL is the server base URL, e.g. http://127.0.0.1:8188.
	URL string
	// PollInterval is how often a queued prompt is polled (default 2s).
	PollInterval time.Duration
	// Timeout bounds one render end to end (default 5m).
	Timeout time.Duration
	// Retry configures queue-submission retries.
	Retry retry.Options
}

// NewClient creates a ComfyUI client.
func NewClient(cfg ClientConfig) *Client {
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = 2 * time.Second
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Client{
		base:    strings.TrimRight(cfg.URL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		poll:    poll,
		timeout: timeout,
		retry:   cfg.Retry,
	}
}

// ImageRef identifies one server-side output image.
type ImageRef struct {
	Filename  string `json:"filename"`
	Subfolder string `json:"subfolder"`
	Type      string `json:"type"`
}

// Queue submits a workflow and returns the server's prompt id.
// Submission is retried; a busy server queue is a transient condition.
func (c *Client) Queue(ctx context.Context, w Workflow) (string, error) {
	id, _, err := retry.Do(ctx, c.retry, func(ctx context.Context) (string, error) {
		return c.queueOnce(ctx, w)
	})
	return id, err
}

func (c *Client) queueOnce(ctx context.Context, w Workflow) (string, error) {
	body, err := json.Marshal(map[string]any{"prompt": w})
	if err != nil {
		return "", fmt.Errorf("marshal workflow: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/prompt", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("queue prompt: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("queue prompt: status %d: %s", resp.StatusCode, strings.TrimSpace(string(text)))
	}

	var out struct {
		PromptID string `json:"prompt_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode queue response: %w", err)
	}
	if out.PromptID == "" {
		return "", fmt.Errorf("queue response carried no prompt id")
	}
	return out.PromptID, nil
}

// Wait polls the server's history until the prompt has outputs,
// returning every output image.
func (c *Client) Wait(ctx context.Context, promptID string) ([]ImageRef, error) {
	deadline := time.Now().Add(c.timeout)
	ticker := time.NewTicker(c.poll)
	defer ticker.Stop()

	for {
		refs, done, err := c.history(ctx, promptID)
		if err != nil {
			return nil, err
		}
		if done {
			return refs, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("render %s: timed out after %s", promptID, c.timeout)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) history(ctx context.Context, promptID string) ([]ImageRef, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/history/"+promptID, nil)
	if err != nil {
		return nil, false, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("poll history: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("poll history: status %d", resp.StatusCode)
	}

	var hist map[string]struct {
		Outputs map[string]struct {
			Images []ImageRef `json:"images"`
		} `json:"outputs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&hist); err != nil {
		return nil, false, fmt.Errorf("decode history: %w", err)
	}

	entry, ok := hist[promptID]
	if !ok || len(entry.Outputs) == 0 {
		return nil, false, nil
	}
	var refs []ImageRef
	for _, out := range entry.Outputs {
		refs = append(refs, out.Images...)
	}
	return refs, len(refs) > 0, nil
}

// Download fetches one output image to dest.
func (c *Client) Download(ctx context.Context, ref ImageRef, dest string) error {
	q := url.Values{}
	q.Set("filename", ref.Filename)
	q.Set("subfolder", ref.Subfolder)
	q.Set("type", ref.Type)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/view?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", ref.Filename, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: status %d", ref.Filename, resp.StatusCode)
	}

	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(dest)
		return fmt.Errorf("write %s: %w", dest, err)
	}
	return f.Close()
}
