package chmi

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	maxAttempts    = 5
	initialBackoff = time.Second
)

// Client fetches directory indexes and composite files from the CHMI open
// data server. All requests share one rate limiter so concurrent product
// polls cannot hammer the server.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
	backoff    time.Duration
}

// NewClient creates a CHMI client.
// rps is the maximum requests per second allowed (can be fractional),
// burst the maximum burst size.
func NewClient(timeout time.Duration, rps float64, burst int, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		logger:  logger,
		backoff: initialBackoff,
	}
}

// ListFiles fetches the directory index at folderURL and returns the absolute
// URLs of all .hdf files it links to.
func (c *Client) ListFiles(ctx context.Context, folderURL string) ([]string, error) {
	body, err := c.get(ctx, folderURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch index %s: %w", folderURL, err)
	}

	base, err := url.Parse(folderURL)
	if err != nil {
		return nil, fmt.Errorf("invalid folder URL %s: %w", folderURL, err)
	}

	var files []string
	for _, href := range extractHrefs(string(body)) {
		if !strings.HasSuffix(href, ".hdf") {
			continue
		}
		ref, err := url.Parse(href)
		if err != nil {
			continue
		}
		files = append(files, base.ResolveReference(ref).String())
	}
	return files, nil
}

// Download fetches fileURL into destDir, keeping the remote filename. It
// returns the local path and whether a download actually happened; files
// already present are skipped. The file is streamed to a temporary name and
// renamed once complete so partial downloads are never visible.
func (c *Client) Download(ctx context.Context, fileURL, destDir string) (string, bool, error) {
	fileName := path.Base(fileURL)
	localPath := filepath.Join(destDir, fileName)

	if _, err := os.Stat(localPath); err == nil {
		c.logger.Debug("file already exists", "path", localPath)
		return localPath, false, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", false, fmt.Errorf("rate limit wait canceled: %w", err)
	}

	resp, err := c.doWithRetry(ctx, fileURL)
	if err != nil {
		return "", false, fmt.Errorf("failed to download %s: %w", fileURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Info("downloading composite",
		"file", fileName,
		"content_length", resp.ContentLength)

	tempPath := localPath + ".part"
	out, err := os.Create(tempPath)
	if err != nil {
		return "", false, fmt.Errorf("failed to create %s: %w", tempPath, err)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		_ = os.Remove(tempPath)
		return "", false, fmt.Errorf("failed to write %s: %w", tempPath, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tempPath)
		return "", false, fmt.Errorf("failed to close %s: %w", tempPath, err)
	}
	if err := os.Rename(tempPath, localPath); err != nil {
		_ = os.Remove(tempPath)
		return "", false, fmt.Errorf("failed to rename %s: %w", tempPath, err)
	}

	c.logger.Info("downloaded composite", "path", localPath)
	return localPath, true, nil
}

// get performs a rate-limited GET and returns the full body.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait canceled: %w", err)
	}

	resp, err := c.doWithRetry(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	return io.ReadAll(resp.Body)
}

// doWithRetry issues GET requests until a non-retryable result is reached.
// Server errors (5xx) and transport errors are retried with exponential
// backoff; other non-2xx statuses fail immediately.
func (c *Client) doWithRetry(ctx context.Context, rawURL string) (*http.Response, error) {
	backoff := c.backoff
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		switch {
		case err != nil:
			lastErr = err
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return resp, nil
		case isRetryableStatus(resp.StatusCode):
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("server returned status %d", resp.StatusCode)
		default:
			_ = resp.Body.Close()
			return nil, fmt.Errorf("server returned status %d", resp.StatusCode)
		}

		if attempt == maxAttempts {
			break
		}
		c.logger.Warn("request failed, retrying",
			"url", rawURL,
			"attempt", attempt,
			"backoff", backoff,
			"error", lastErr)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	return nil, fmt.Errorf("giving up after %d attempts: %w", maxAttempts, lastErr)
}

func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// extractHrefs pulls the values of href attributes out of a directory index
// page. The CHMI index is plain nginx autoindex HTML.
func extractHrefs(page string) []string {
	var hrefs []string
	rest := page
	for {
		i := strings.Index(rest, `href="`)
		if i < 0 {
			return hrefs
		}
		rest = rest[i+len(`href="`):]
		j := strings.IndexByte(rest, '"')
		if j < 0 {
			return hrefs
		}
		hrefs = append(hrefs, rest[:j])
		rest = rest[j+1:]
	}
}
