// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cacheutil

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/apex/log"
)

// Entry represents a cached artifact on disk.
type Entry struct {
	Path    string
	Data    []byte
	ModTime time.Time
}

// Age returns how long ago the entry was last written, relative to now.
func (e *Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.ModTime)
}

// Dir resolves the base cache directory.
// Precedence:
//  1. LOCSPOOF_CACHE_DIR, if set and non-empty
//  2. os.UserCacheDir()/locspoof
//
// Returns ("", false) if a base cannot be resolved (treat as disabled).
func Dir() (string, bool) {
	if c, ok := os.LookupEnv("LOCSPOOF_CACHE_DIR"); ok && c != "" {
		return c, true
	}
	if dir, err := os.UserCacheDir(); err == nil && dir != "" {
		return filepath.Join(dir, "locspoof"), true
	}
	return "", false
}

// Enabled returns true unless LOCSPOOF_CACHE explicitly disables it
// ("0"/"false").
func Enabled() bool {
	enabled, _ := os.LookupEnv("LOCSPOOF_CACHE")
	return enabled == "" || (enabled != "0" && enabled != "false")
}

// EnsureBaseDir creates the base cache directory if caching is enabled and
// a base path can be resolved. Returns the path, whether it is usable, and an
// error if creation failed.
func EnsureBaseDir() (string, bool, error) {
	if !Enabled() {
		return "", false, nil
	}
	base, ok := Dir()
	if !ok {
		return "", false, nil
	}
	if err := os.MkdirAll(base, 0o755); err != nil { //nolint:mnd
		return base, false, fmt.Errorf("failed to create cache base directory: %w", err)
	}
	return base, true, nil
}

// Exists reports whether a regular file is present at p.
func Exists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

// Fresh reports whether the file at p exists and was written within ttl of
// now. A non-positive ttl means the file never expires.
func Fresh(p string, ttl time.Duration, now time.Time) (os.FileInfo, bool) {
	info, err := os.Stat(p)
	if err != nil || info.IsDir() {
		return nil, false
	}
	if ttl <= 0 {
		return info, true
	}
	return info, now.Sub(info.ModTime()) < ttl
}

// Read attempts to read a cached entry. The second return value is false when
// caching is disabled or nothing is cached at p.
func Read(p string) (*Entry, bool) {
	if !Enabled() {
		return nil, false
	}
	info, err := os.Stat(p)
	if err != nil || info.IsDir() {
		return nil, false
	}
	b, err := os.ReadFile(p)
	if err != nil {
		log.WithError(err).Warnf("failed to read cache file %s", p)
		return nil, false
	}
	return &Entry{
		Path:    p,
		Data:    bytes.TrimSpace(b),
		ModTime: info.ModTime(),
	}, true
}

// Write stores data at p, creating parent directories as needed. The data is
// written to a temporary sibling first and renamed into place so readers never
// see a partial file.
func Write(p string, data []byte) error {
	if !Enabled() {
		return nil // treat as disabled.
	}
	return WriteFile(p, data, 0o600) //nolint:mnd
}

// WriteFile is Write without the enabled check. It is used for artifacts, such
// as flag images, that are cached regardless of LOCSPOOF_CACHE.
func WriteFile(p string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:mnd
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(p)+".*")
	if err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}

	success = true
	return nil
}

// Remove deletes the file at p. A missing file is not an error.
func Remove(p string) error {
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove cache file: %w", err)
	}
	return nil
}

// Purge removes the files directly inside dir whose names match pattern
// (filepath.Match syntax) and that are older than hours. Subdirectories and
// files that do not match are never touched. If hours <= 0 it is a no-op.
func Purge(dir, pattern string, hours int, now time.Time) (int, error) {
	if hours <= 0 {
		log.Debug("cache cleaning disabled")
		return 0, nil
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return 0, fmt.Errorf("failed to purge cache: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to purge cache: %w", err)
	}

	removed := 0
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if ok, _ := filepath.Match(pattern, e.Name()); !ok {
			continue
		}
		n, err := PurgeFile(filepath.Join(dir, e.Name()), hours, now)
		if err != nil {
			log.WithError(err).Warnf("failed to remove cache file %s", e.Name())
			continue
		}
		removed += n
	}
	return removed, nil
}

// PurgeFile removes the regular file at p if it is older than hours and
// reports how many files were removed (0 or 1).
func PurgeFile(p string, hours int, now time.Time) (int, error) {
	if hours <= 0 {
		return 0, nil
	}
	info, err := os.Lstat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to purge cache: %w", err)
	}
	if !info.Mode().IsRegular() || now.Sub(info.ModTime()) <= time.Duration(hours)*time.Hour {
		return 0, nil
	}
	if err := os.Remove(p); err != nil {
		return 0, fmt.Errorf("failed to purge cache: %w", err)
	}
	log.Debugf("removed cache file %s", p)
	return 1, nil
}

// Usage returns the number of regular files beneath dir whose names match
// pattern (filepath.Match syntax) and their combined size in bytes.
func Usage(dir, pattern string) (count int, size int64, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, 0, nil
		}
		return 0, 0, fmt.Errorf("failed to read cache directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ok, _ := filepath.Match(pattern, e.Name()); !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		count++
		size += info.Size()
	}
	return count, size, nil
}
