package net

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// MaxDownloadBytes caps the size of a fetched artifact.
const MaxDownloadBytes int64 = 256 << 20

var (
	ErrorURLNotFound = errors.New("URL not found")
	ErrorTooLarge    = errors.New("content exceeds download limit")
)

// IsURL reports whether s is an http or https URL.
func IsURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Fetch downloads the content at rawURL.
func Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating HTTP Get request: %w", err)
	}
	req.Header.Set("User-Agent", clientAgent)

	resp, err := GetHTTPClient().Do(req) //nolint:gosec // URL is an explicit import source
	if err != nil {
		return nil, fmt.Errorf("error executing HTTP Get request: %w", err)
	}
	defer resp.Body.Close()
	PrintHTTPResponse(resp)

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrorURLNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("error downloading (status: %d - %s): %s", resp.StatusCode, resp.Status, rawURL)
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, MaxDownloadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("error reading downloaded content: %w", err)
	}
	if int64(len(b)) > MaxDownloadBytes {
		return nil, ErrorTooLarge
	}
	return b, nil
}

// PathOf returns the path component of rawURL without query or fragment.
func PathOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return strings.SplitN(rawURL, "?", 2)[0]
	}
	return u.Path
}
