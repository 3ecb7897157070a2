// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/staranto/locspoof/internal/cacheutil"
)

// Defaults for Settings. DefaultEndpoint asks only for the three fields the
// parser reads.
const (
	DefaultEndpoint      = "https://restcountries.com/v3.1/all?fields=name,cca2,flags"
	DefaultUserAgent     = "Mozilla/5.0 (compatible; locspoof)"
	DefaultCacheTTL      = 7 * 24 * time.Hour
	DefaultHTTPTimeout   = 30 * time.Second
	DefaultDebounceDelay = 300 * time.Millisecond
	DefaultCacheFileName = "countries_cache.json"
	DefaultImageDirName  = "flags"
)

// Settings is the explicit configuration handed to the fetcher, the flag
// cache and the view-model at construction.
type Settings struct {
	CacheFilePath          string
	ImageFolderPath        string
	FallbackImageFolders   []string
	CacheTTL               time.Duration
	Endpoint               string
	UserAgent              string
	HTTPTimeout            time.Duration
	DebounceDelay          time.Duration
	MaxConcurrentDownloads int
	// CleanHours is the age beyond which `cache purge` removes files.
	CleanHours int
}

// Resolve builds Settings from the loaded config, filling anything unset from
// the cache base directory and the package defaults.
func (cfg *Type) Resolve() (Settings, error) {
	base, ok := cacheutil.Dir()
	if !ok {
		base = filepath.Join(os.TempDir(), "locspoof")
	}

	s := Settings{}
	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	var err error
	s.CacheFilePath, err = cfg.GetString("cache.file", filepath.Join(base, DefaultCacheFileName))
	collect(err)
	s.ImageFolderPath, err = cfg.GetString("cache.images", filepath.Join(base, DefaultImageDirName))
	collect(err)
	s.FallbackImageFolders, err = cfg.GetStringSlice("cache.fallbacks", []string{
		filepath.Join(os.TempDir(), "locspoof", DefaultImageDirName),
	})
	collect(err)
	s.CacheTTL, err = cfg.GetDuration("cache.ttl", DefaultCacheTTL)
	collect(err)
	s.CleanHours, err = cfg.GetInt("cache.clean", 0)
	collect(err)
	s.Endpoint, err = cfg.GetString("api.endpoint", DefaultEndpoint)
	collect(err)
	s.UserAgent, err = cfg.GetString("api.user_agent", DefaultUserAgent)
	collect(err)
	s.HTTPTimeout, err = cfg.GetDuration("api.timeout", DefaultHTTPTimeout)
	collect(err)
	s.MaxConcurrentDownloads, err = cfg.GetInt("api.max_concurrent", 0)
	collect(err)
	s.DebounceDelay, err = cfg.GetDuration("search.debounce", DefaultDebounceDelay)
	collect(err)

	if len(errs) > 0 {
		return Settings{}, fmt.Errorf("invalid configuration in %q: %w", cfg.Source, errors.Join(errs...))
	}

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// ResolveSettings is Resolve on the package level Config.
func ResolveSettings() (Settings, error) {
	return Config.Resolve()
}

// Validate rejects settings the components cannot work with.
func (s Settings) Validate() error {
	switch {
	case s.CacheFilePath == "":
		return errors.New("cache file path is required")
	case s.ImageFolderPath == "":
		return errors.New("image folder path is required")
	case s.Endpoint == "":
		return errors.New("api endpoint is required")
	case s.CacheTTL < 0:
		return errors.New("cache ttl must not be negative")
	case s.DebounceDelay < 0:
		return errors.New("search debounce must not be negative")
	case s.MaxConcurrentDownloads < 0:
		return errors.New("max concurrent downloads must not be negative")
	}
	return nil
}
