package movie

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxResponseBytes = 5 << 20

// TMDB is a read-only client for The Movie Database v3 API. Response bodies
// are returned undecoded.
type TMDB struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewTMDB(baseURL, apiKey string, timeout time.Duration) (*TMDB, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse movie api url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid movie api scheme %q", parsed.Scheme)
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("missing movie api key")
	}

	return &TMDB{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Movie fetches /movie/{id}.
func (c *TMDB) Movie(ctx context.Context, id string) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	return c.get(ctx, "/movie/"+url.PathEscape(id), params)
}

// Search fetches /search/movie for query. An empty page means the first one.
func (c *TMDB) Search(ctx context.Context, query, page string) (json.RawMessage, error) {
	if strings.TrimSpace(page) == "" {
		page = "1"
	}

	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("language", "en-US")
	params.Set("query", query)
	params.Set("page", page)
	params.Set("include_adult", "false")
	return c.get(ctx, "/search/movie", params)
}

func (c *TMDB) get(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build movie api request: %w", c.redact(err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("movie api request failed: %w", c.redact(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read movie api response: %w", c.redact(err))
	}
	if len(body) > maxResponseBytes {
		return nil, fmt.Errorf("movie api response exceeds %d bytes", maxResponseBytes)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Path: path}
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("movie api returned invalid json for %s", path)
	}

	return json.RawMessage(body), nil
}

// redact strips the api key from URLs embedded in transport errors.
func (c *TMDB) redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		clone := *urlErr
		clone.URL = strings.ReplaceAll(clone.URL, url.QueryEscape(c.apiKey), "REDACTED")
		clone.URL = strings.ReplaceAll(clone.URL, c.apiKey, "REDACTED")
		return &clone
	}
	return err
}

type StatusError struct {
	StatusCode int
	Path       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("movie api %s returned status %d", e.Path, e.StatusCode)
}
