package docio

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/jmylchreest/descrefine/internal/logger"
)

const (
	defaultUserAgent = "descrefine (+https://github.com/jmylchreest/descrefine)"
	defaultTimeout   = 30 * time.Second
)

// fetch retrieves a document over HTTP using colly. Colly converts bodies
// to UTF-8 when the response declares a charset, so the returned content
// type is rewritten to say so.
func fetch(ctx context.Context, targetURL string, opts Options) ([]byte, string, error) {
	logger.Debug("fetch starting", "url", targetURL)

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.StdlibContext(ctx),
	)

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	c.SetRequestTimeout(timeout)

	limit := opts.limit()
	if limit > 0 {
		c.MaxBodySize = int(limit + 1)
	} else {
		c.MaxBodySize = 0
	}

	var (
		body        []byte
		contentType string
		fetchErr    error
	)

	c.OnResponse(func(r *colly.Response) {
		body = r.Body
		contentType = r.Headers.Get("Content-Type")
		logger.Debug("fetch response received",
			"status", r.StatusCode,
			"content_type", contentType,
			"body_size", len(r.Body))
	})

	c.OnError(func(r *colly.Response, err error) {
		status := 0
		if r != nil {
			status = r.StatusCode
		}
		fetchErr = fmt.Errorf("fetch error (status %d): %w", status, err)
		logger.Debug("fetch error", "status", status, "error", err)
	})

	if err := c.Visit(targetURL); err != nil {
		if fetchErr != nil {
			return nil, "", fetchErr
		}
		return nil, "", fmt.Errorf("failed to visit URL: %w", err)
	}
	if fetchErr != nil {
		return nil, "", fetchErr
	}

	if limit > 0 && int64(len(body)) > limit {
		return nil, "", tooLarge(int64(len(body)), limit)
	}

	if strings.Contains(strings.ToLower(contentType), "charset") {
		contentType = "text/html; charset=utf-8"
	}
	return body, contentType, nil
}
