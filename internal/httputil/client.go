// Package httputil provides a security-hardened HTTP client, browser-like
// request construction and input sanitization utilities.
package httputil

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	userAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/121.0"

	// maxBodySize caps every page, JSON document and manifest we read.
	maxBodySize = 10 * 1024 * 1024
)

// StatusError reports a non-200 answer from an upstream site.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.StatusCode, e.URL)
}

// NewClient creates a hardened HTTP client with secure defaults.
func NewClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			ForceAttemptHTTP2:   true,
			MaxIdleConns:        10,
			IdleConnTimeout:     30 * time.Second,
			DisableCompression:  false,
			MaxIdleConnsPerHost: 5,
		},
	}
}

// NewRequest validates rawURL and builds a request carrying standard
// browser-like headers. Callers may add or override headers afterwards.
func NewRequest(ctx context.Context, method, rawURL string, body io.Reader) (*http.Request, error) {
	if err := ValidateURL(rawURL); err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "it-IT,it;q=0.9,en-US;q=0.5,en;q=0.3")

	return req, nil
}

// Fetch executes req and returns the body, failing with *StatusError unless
// the site answered 200.
func Fetch(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: req.URL.String(), StatusCode: resp.StatusCode}
	}

	return ReadBody(resp)
}

// GetText fetches a page or manifest and returns it as a string.
func GetText(ctx context.Context, client *http.Client, rawURL string) (string, error) {
	req, err := NewRequest(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}

	body, err := Fetch(client, req)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// GetJSON performs a GET request with JSON accept header.
func GetJSON(ctx context.Context, client *http.Client, rawURL string) ([]byte, error) {
	req, err := NewRequest(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	return Fetch(client, req)
}

// ReadBody reads a response body up to the size limit.
func ReadBody(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return body, nil
}
