// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package flagcache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/apex/log"
	"github.com/hashicorp/go-cleanhttp"
	"golang.org/x/sync/errgroup"

	"github.com/staranto/locspoof/internal/cacheutil"
	"github.com/staranto/locspoof/internal/config"
	"github.com/staranto/locspoof/internal/country"
)

// DefaultImage is the placeholder reference used when no local flag exists.
const DefaultImage = "default_flag.png"

// ErrNoFolder is returned when neither the image folder nor any fallback can
// be created.
var ErrNoFolder = errors.New("no usable flag image folder")

// ErrBadCode is reported for codes that are not two letter country codes.
// Such codes never touch the disk.
var ErrBadCode = errors.New("invalid country code")

// ErrDownload wraps failed flag downloads.
var ErrDownload = errors.New("flag download failed")

// Result is the outcome of ensuring one flag image.
type Result struct {
	Code       string
	Path       string
	Downloaded bool
	Err        error
}

// Cache ensures flag images exist on local disk, keyed by country code.
type Cache struct {
	Folder        string
	Fallbacks     []string
	UserAgent     string
	Client        *http.Client
	MaxConcurrent int

	mu sync.RWMutex
}

// New returns a Cache configured from s.
func New(s config.Settings) *Cache {
	client := cleanhttp.DefaultPooledClient()
	client.Timeout = s.HTTPTimeout

	return &Cache{
		Folder:        s.ImageFolderPath,
		Fallbacks:     s.FallbackImageFolders,
		UserAgent:     s.UserAgent,
		Client:        client,
		MaxConcurrent: s.MaxConcurrentDownloads,
	}
}

// FileName returns the deterministic file name for code.
func FileName(code string) string {
	return fmt.Sprintf("flag_%s.png", strings.ToLower(strings.TrimSpace(code)))
}

// Dir returns the folder currently in use.
func (c *Cache) Dir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Folder
}

// Path returns the local path for code, whether or not the file exists.
func (c *Cache) Path(code string) string {
	return filepath.Join(c.Dir(), FileName(code))
}

// EnsureFolder makes sure an image folder exists. When the primary folder
// cannot be created the first creatable fallback becomes the folder in use.
func (c *Cache) EnsureFolder() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	candidates := append([]string{c.Folder}, c.Fallbacks...)
	var errs []error
	for _, dir := range candidates {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:mnd
			log.WithError(err).Warnf("cannot use flag folder %s", dir)
			errs = append(errs, err)
			continue
		}
		if dir != c.Folder {
			log.Infof("using fallback flag folder %s", dir)
			c.Folder = dir
		}
		return dir, nil
	}
	return "", fmt.Errorf("%w: %w", ErrNoFolder, errors.Join(errs...))
}

// Ensure downloads the flag for code from imageURL unless it is already on
// disk. It never panics or returns partially written files; failures are
// reported in Result.Err.
func (c *Cache) Ensure(ctx context.Context, code, imageURL string) Result {
	if !country.ValidCode(code) {
		return Result{Code: code, Err: fmt.Errorf("%w: %q", ErrBadCode, code)}
	}

	p := c.Path(code)
	res := Result{Code: code, Path: p}

	if cacheutil.Exists(p) {
		return res
	}

	data, err := c.download(ctx, imageURL)
	if err != nil {
		res.Err = fmt.Errorf("%w for %s: %w", ErrDownload, code, err)
		return res
	}

	if err := cacheutil.WriteFile(p, data, 0o644); err != nil { //nolint:mnd
		res.Err = err
		return res
	}

	log.Debugf("downloaded flag for %s", code)
	res.Downloaded = true
	return res
}

// EnsureAll ensures every entry's flag concurrently and waits for the whole
// batch. Results come back in entry order. MaxConcurrent <= 0 means no bound.
func (c *Cache) EnsureAll(ctx context.Context, entries []country.Entry) []Result {
	results := make([]Result, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	if c.MaxConcurrent > 0 {
		g.SetLimit(c.MaxConcurrent)
	}

	for i, e := range entries {
		g.Go(func() error {
			results[i] = c.Ensure(gctx, e.Code, e.ImageURL)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Resolve returns the local path for code if the flag is on disk, otherwise
// DefaultImage.
func (c *Cache) Resolve(code string) string {
	if !country.ValidCode(code) {
		return DefaultImage
	}
	p := c.Path(code)
	if cacheutil.Exists(p) {
		return p
	}
	return DefaultImage
}

// Clear removes every cached flag image and returns how many were removed.
func (c *Cache) Clear() (int, error) {
	matches, err := filepath.Glob(filepath.Join(c.Dir(), "flag_*.png"))
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, m := range matches {
		if err := cacheutil.Remove(m); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// Usage returns the number and total size of cached flag images.
func (c *Cache) Usage() (int, int64, error) {
	return cacheutil.Usage(c.Dir(), "flag_*.png")
}

func (c *Cache) download(ctx context.Context, imageURL string) ([]byte, error) {
	if strings.TrimSpace(imageURL) == "" {
		return nil, errors.New("empty image url")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	client := c.Client
	if client == nil {
		client = cleanhttp.DefaultClient()
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status %d", imageURL, resp.StatusCode)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if buf.Len() == 0 {
		return nil, fmt.Errorf("GET %s: empty body", imageURL)
	}
	return buf.Bytes(), nil
}
