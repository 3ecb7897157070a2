// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/apex/log"
	"github.com/hashicorp/go-cleanhttp"

	"github.com/staranto/locspoof/internal/cacheutil"
	"github.com/staranto/locspoof/internal/config"
	"github.com/staranto/locspoof/internal/country"
)

// Sentinel errors for the failure classes a fetch can hit. Malformed
// documents surface as country.ErrMalformed.
var (
	ErrNetwork = errors.New("country endpoint unreachable")
	ErrStatus  = errors.New("country endpoint returned an error status")
)

// Result is a fetch outcome with its provenance.
type Result struct {
	Entries   []country.Entry
	FromCache bool
	// Raw is the document the entries were parsed from.
	Raw []byte
	// Previous holds the cache file content that a network fetch replaced, if
	// there was one.
	Previous  []byte
	FetchedAt time.Time
}

// Fetcher retrieves the canonical country list, preferring a fresh cache file
// over the network.
type Fetcher struct {
	CachePath string
	TTL       time.Duration
	Endpoint  string
	UserAgent string
	Client    *http.Client
	Now       func() time.Time
}

// New returns a Fetcher configured from s.
func New(s config.Settings) *Fetcher {
	client := cleanhttp.DefaultPooledClient()
	client.Timeout = s.HTTPTimeout

	return &Fetcher{
		CachePath: s.CacheFilePath,
		TTL:       s.CacheTTL,
		Endpoint:  s.Endpoint,
		UserAgent: s.UserAgent,
		Client:    client,
		Now:       time.Now,
	}
}

// Fetch returns the ordered (name, code, image URL) triples.
func (f *Fetcher) Fetch(ctx context.Context) ([]country.Entry, error) {
	res, err := f.Load(ctx, false)
	if err != nil {
		return nil, err
	}
	return res.Entries, nil
}

// Load is Fetch with provenance. With force set the cache freshness check is
// skipped and the endpoint is always hit.
func (f *Fetcher) Load(ctx context.Context, force bool) (*Result, error) {
	now := f.now()

	if !force && cacheutil.Enabled() {
		if _, fresh := cacheutil.Fresh(f.CachePath, f.TTL, now); fresh {
			if entry, ok := cacheutil.Read(f.CachePath); ok {
				entries, err := country.Parse(entry.Data)
				if err == nil {
					log.WithField("entries", len(entries)).Debugf("cache hit: %s", entry.Path)
					return &Result{
						Entries:   entries,
						FromCache: true,
						Raw:       entry.Data,
						FetchedAt: entry.ModTime,
					}, nil
				}
				log.WithError(err).Warnf("ignoring unreadable cache file %s", entry.Path)
			}
		} else {
			log.Debugf("cache miss or stale: %s", f.CachePath)
		}
	}

	doc, err := f.download(ctx)
	if err != nil {
		log.WithError(err).Error("failed to fetch country data")
		return nil, err
	}

	entries, err := country.Parse(doc)
	if err != nil {
		log.WithError(err).Error("failed to parse country data")
		return nil, err
	}

	var previous []byte
	if old, ok := cacheutil.Read(f.CachePath); ok {
		previous = old.Data
	}

	if err := cacheutil.Write(f.CachePath, doc); err != nil {
		log.WithError(err).Error("failed to write country cache")
		return nil, err
	}

	return &Result{
		Entries:   entries,
		Raw:       doc,
		Previous:  previous,
		FetchedAt: now,
	}, nil
}

// download performs the single GET against the endpoint and returns the body
// untouched.
func (f *Fetcher) download(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.Endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	req.Header.Set("Accept", "application/json")

	client := f.Client
	if client == nil {
		client = cleanhttp.DefaultClient()
	}

	log.Debugf("GET %s", f.Endpoint)
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	var doc bytes.Buffer
	if _, err := doc.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(&doc, 200)) //nolint:mnd
		return nil, fmt.Errorf("%w: %s: %s", ErrStatus, resp.Status, bytes.TrimSpace(snippet))
	}

	return doc.Bytes(), nil
}

func (f *Fetcher) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}
