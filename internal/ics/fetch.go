package ics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/zerr"

	appLog "chorecal/internal/log"
)

// maxFeedSize caps how much of a remote feed is read.
const maxFeedSize = 10 << 20

var ErrNotModifiedWithoutCache = zerr.New("304 Not Modified but no cached body")

// ErrFeedTooLarge is returned when a feed body exceeds the fetcher's limit.
var ErrFeedTooLarge = zerr.New("feed exceeds size limit")

// FetchResult is the outcome of fetching one feed.
type FetchResult struct {
	URL       string
	Body      []byte
	FromCache bool // body came from disk after a 304 or a failed request
}

// cacheMeta holds the validators of the last successful response.
type cacheMeta struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Fetcher downloads remote ICS feeds with ETag/Last-Modified revalidation
// and a disk cache that is served when the remote is unreachable.
type Fetcher struct {
	client   *http.Client
	cacheDir string
	maxBytes int64
}

// NewFetcher creates a Fetcher caching under cacheDir, one subdirectory
// per URL.
func NewFetcher(cacheDir string) *Fetcher {
	if cacheDir == "" {
		cacheDir = "./var/ics-cache"
	}
	return &Fetcher{
		client:   &http.Client{Timeout: 15 * time.Second},
		cacheDir: cacheDir,
		maxBytes: maxFeedSize,
	}
}

// Fetch retrieves rawURL, honoring cached validators.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (FetchResult, error) {
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return FetchResult{}, zerr.With(zerr.Wrap(err, "invalid feed url"), "url", redactURL(rawURL))
	}

	cachePath := f.cachePathForURL(rawURL)
	if err := os.MkdirAll(cachePath, 0o700); err != nil {
		return FetchResult{}, zerr.With(zerr.Wrap(err, "create cache dir"), "path", cachePath)
	}

	meta, _ := loadCacheMeta(cachePath)
	cachedBody, _ := os.ReadFile(filepath.Join(cachePath, "body.ics"))
	cached := FetchResult{URL: rawURL, Body: cachedBody, FromCache: true}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return FetchResult{}, zerr.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "text/calendar")
	if meta.ETag != "" {
		req.Header.Set("If-None-Match", meta.ETag)
	}
	if meta.LastModified != "" {
		req.Header.Set("If-Modified-Since", meta.LastModified)
	}

	appLog.Info("ics fetch start", "url", redactURL(rawURL))

	resp, err := f.client.Do(req)
	if err != nil {
		if len(cachedBody) > 0 {
			appLog.Error("ics fetch network error, using cached body", err, "url", redactURL(rawURL))
			return cached, nil
		}
		return FetchResult{}, zerr.With(zerr.Wrap(err, "fetch feed"), "url", redactURL(rawURL))
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
		if err != nil {
			return FetchResult{}, zerr.With(zerr.Wrap(err, "read feed"), "url", redactURL(rawURL))
		}
		if int64(len(body)) > f.maxBytes {
			return FetchResult{}, zerr.With(zerr.With(zerr.Wrap(ErrFeedTooLarge, "read feed"), "limit", f.maxBytes), "url", redactURL(rawURL))
		}
		newMeta := cacheMeta{
			URL:          rawURL,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		}
		if err := saveCache(cachePath, newMeta, body); err != nil {
			appLog.Error("ics cache save failed", err, "url", redactURL(rawURL))
		}
		appLog.Info("ics fetch success", "url", redactURL(rawURL), "bytes", len(body))
		return FetchResult{URL: rawURL, Body: body}, nil

	case http.StatusNotModified:
		if len(cachedBody) == 0 {
			return FetchResult{}, zerr.With(zerr.Wrap(ErrNotModifiedWithoutCache, "revalidate feed"), "url", redactURL(rawURL))
		}
		appLog.Info("ics fetch not modified; using cache", "url", redactURL(rawURL))
		return cached, nil

	default:
		statusErr := zerr.With(zerr.New("unexpected status"), "status", resp.StatusCode)
		if len(cachedBody) > 0 {
			appLog.Error("ics fetch non-OK, using cached body", statusErr, "url", redactURL(rawURL))
			return cached, nil
		}
		return FetchResult{}, zerr.With(statusErr, "url", redactURL(rawURL))
	}
}

// cachePathForURL uses the first 16 hex chars of the URL hash as directory.
func (f *Fetcher) cachePathForURL(u string) string {
	sum := sha256.Sum256([]byte(u))
	return filepath.Join(f.cacheDir, hex.EncodeToString(sum[:8]))
}

func loadCacheMeta(cachePath string) (cacheMeta, error) {
	var meta cacheMeta
	data, err := os.ReadFile(filepath.Join(cachePath, "meta.json"))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return cacheMeta{}, err
	}
	return meta, nil
}

func saveCache(cachePath string, meta cacheMeta, body []byte) error {
	// Body first so meta never points at a missing body.
	if err := os.WriteFile(filepath.Join(cachePath, "body.ics"), body, 0o600); err != nil {
		return err
	}
	meta.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cachePath, "meta.json"), data, 0o600)
}

// redactURL keeps scheme and host only, since feed URLs often embed tokens.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "ics://...(redacted)"
	}
	return u.Scheme + "://" + u.Host + "/...(redacted)"
}
