// Package upload downloads files from URLs and uploads them to the OpenAI
// Files API so they can be referenced from chat completions.
package upload

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// maxDownloadBytes caps a single downloaded file.
const maxDownloadBytes = 50 << 20

// fallbackFilename is used when neither the response headers nor the URL
// carry a usable name.
const fallbackFilename = "upload.bin"

// Result reports the outcome for one URL.
type Result struct {
	// URL is the source that was processed.
	URL string

	// FileID is the OpenAI file ID on success.
	FileID string

	// Filename is the name the file was uploaded under.
	Filename string

	// Err is non-nil when this URL failed. Other URLs are unaffected.
	Err error
}

// Uploader downloads URLs and stores them with the OpenAI Files API.
type Uploader struct {
	client oai.Client
	http   *http.Client
}

type config struct {
	baseURL string
	timeout time.Duration
}

// Option is a functional option for Uploader.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithTimeout sets the per-request timeout for both downloads and uploads.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// New constructs an Uploader.
func New(apiKey string, opts ...Option) (*Uploader, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("upload: apiKey must not be empty")
	}

	cfg := &config{timeout: time.Minute}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}

	return &Uploader{
		client: oai.NewClient(reqOpts...),
		http:   &http.Client{Timeout: cfg.timeout},
	}, nil
}

// UploadURLs processes each URL independently and returns one Result per
// URL, in input order. A failing URL never aborts the rest.
func (u *Uploader) UploadURLs(ctx context.Context, urls []string) []Result {
	results := make([]Result, 0, len(urls))
	for _, rawURL := range urls {
		res := u.uploadOne(ctx, rawURL)
		if res.Err != nil {
			slog.Warn("upload: url failed", "url", rawURL, "error", res.Err)
		} else {
			slog.Info("upload: stored file", "url", rawURL, "file_id", res.FileID, "filename", res.Filename)
		}
		results = append(results, res)
	}
	return results
}

// Succeeded counts the successful results.
func Succeeded(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Err == nil {
			n++
		}
	}
	return n
}

func (u *Uploader) uploadOne(ctx context.Context, rawURL string) Result {
	res := Result{URL: rawURL}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		res.Err = fmt.Errorf("upload: build request: %w", err)
		return res
	}
	resp, err := u.http.Do(req)
	if err != nil {
		res.Err = fmt.Errorf("upload: download: %w", err)
		return res
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		res.Err = fmt.Errorf("upload: download: unexpected status %s", resp.Status)
		return res
	}

	res.Filename = filenameFrom(resp, rawURL)
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	body := io.LimitReader(resp.Body, maxDownloadBytes)
	file, err := u.client.Files.New(ctx, oai.FileNewParams{
		File:    oai.File(body, res.Filename, contentType),
		Purpose: oai.FilePurposeUserData,
	})
	if err != nil {
		res.Err = fmt.Errorf("upload: store file: %w", err)
		return res
	}

	res.FileID = file.ID
	return res
}

// filenameFrom extracts a filename from the Content-Disposition header,
// falling back to the URL path and then to a generic name.
func filenameFrom(resp *http.Response, rawURL string) string {
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if name := params["filename"]; name != "" {
				return path.Base(name)
			}
		}
	}

	if parsed, err := url.Parse(rawURL); err == nil {
		if name := path.Base(parsed.Path); name != "" && name != "." && name != "/" {
			return name
		}
	}
	return fallbackFilename
}
