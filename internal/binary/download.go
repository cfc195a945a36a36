package binary

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/ZebulonRouseFrantzich/dep-tree-action/internal/release"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 5 * time.Minute
	// DefaultUserAgent is the User-Agent header sent with requests
	DefaultUserAgent = "dep-tree-action/1.0"
)

// Downloader fetches release files. Every fetch is a single attempt; a failed
// download is never retried.
type Downloader struct {
	client    *http.Client
	cacheDir  string
	userAgent string
}

// NewDownloader creates a new downloader that stores files under cacheDir.
func NewDownloader(cacheDir string) *Downloader {
	return &Downloader{
		client: &http.Client{
			Timeout: DefaultTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// GitHub release assets redirect to object storage
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		cacheDir:  cacheDir,
		userAgent: DefaultUserAgent,
	}
}

// DownloadToFile downloads url to destPath. The file only appears at destPath
// once the whole body has been written.
func (d *Downloader) DownloadToFile(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &DownloadError{URL: url, Err: fmt.Errorf("create request: %w", err)}
	}

	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return &DownloadError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &DownloadError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", resp.Status),
		}
	}

	destDir := filepath.Dir(destPath)
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}

	tmpPath := destPath + ".tmp"
	tmpFile, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	cleanupNeeded := true
	defer func() {
		tmpFile.Close()
		if cleanupNeeded {
			os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		return &DownloadError{URL: url, Err: fmt.Errorf("copy response body: %w", err)}
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	cleanupNeeded = false
	return nil
}

// DownloadArchive downloads the release archive into the cache and returns its
// path. A non-empty cached archive is reused.
func (d *Downloader) DownloadArchive(ctx context.Context, coords release.Coordinates) (string, error) {
	return d.fetch(ctx, coords, coords.URL())
}

// DownloadChecksums downloads the release checksums file.
func (d *Downloader) DownloadChecksums(ctx context.Context, coords release.Coordinates) (string, error) {
	return d.fetch(ctx, coords, coords.ChecksumURL())
}

// DownloadSignature downloads the detached signature of the archive.
func (d *Downloader) DownloadSignature(ctx context.Context, coords release.Coordinates) (string, error) {
	return d.fetch(ctx, coords, coords.SignatureURL())
}

// CachePath returns where a release file is stored: cache/dep-tree/{version}/{filename}
func (d *Downloader) CachePath(coords release.Coordinates, url string) string {
	return filepath.Join(d.cacheDir, release.ToolName, coords.Version, filepath.Base(url))
}

func (d *Downloader) fetch(ctx context.Context, coords release.Coordinates, url string) (string, error) {
	cachePath := d.CachePath(coords, url)

	if fileExists(cachePath) {
		return cachePath, nil
	}

	if err := d.DownloadToFile(ctx, url, cachePath); err != nil {
		return "", err
	}

	return cachePath, nil
}

// fileExists checks if a file exists and is not empty
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Size() > 0
}
