// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package cacheutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDir(t *testing.T) {
	t.Setenv("LOCSPOOF_CACHE_DIR", "/tmp/somewhere")
	dir, ok := Dir()
	assert.True(t, ok)
	assert.Equal(t, "/tmp/somewhere", dir)

	t.Setenv("LOCSPOOF_CACHE_DIR", "")
	dir, ok = Dir()
	if ok {
		assert.Equal(t, "locspoof", filepath.Base(dir))
	}
}

func TestEnabled(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"", true},
		{"1", true},
		{"true", true},
		{"0", false},
		{"false", false},
	}
	for _, tt := range tests {
		t.Run("value="+tt.value, func(t *testing.T) {
			t.Setenv("LOCSPOOF_CACHE", tt.value)
			assert.Equal(t, tt.want, Enabled())
		})
	}
}

func TestEnsureBaseDir(t *testing.T) {
	base := filepath.Join(t.TempDir(), "nested", "cache")
	t.Setenv("LOCSPOOF_CACHE_DIR", base)
	t.Setenv("LOCSPOOF_CACHE", "")

	p, ok, err := EnsureBaseDir()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, base, p)
	assert.DirExists(t, base)

	t.Setenv("LOCSPOOF_CACHE", "0")
	_, ok, err = EnsureBaseDir()
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestWriteRead(t *testing.T) {
	t.Setenv("LOCSPOOF_CACHE", "")
	p := filepath.Join(t.TempDir(), "a", "b", "countries.json")

	require.NoError(t, Write(p, []byte("  [1,2,3]\n")))

	entry, ok := Read(p)
	require.True(t, ok)
	assert.Equal(t, []byte("[1,2,3]"), entry.Data)
	assert.Equal(t, p, entry.Path)
	assert.False(t, entry.ModTime.IsZero())

	// The on-disk bytes are untouched.
	raw, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "  [1,2,3]\n", string(raw))

	// No temporary files left behind.
	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(p), ".*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestWriteRead_Disabled(t *testing.T) {
	t.Setenv("LOCSPOOF_CACHE", "false")
	p := filepath.Join(t.TempDir(), "countries.json")

	require.NoError(t, Write(p, []byte("[]")))
	assert.NoFileExists(t, p)

	require.NoError(t, os.WriteFile(p, []byte("[]"), 0o600))
	_, ok := Read(p)
	assert.False(t, ok)
}

func TestFresh(t *testing.T) {
	p := filepath.Join(t.TempDir(), "countries.json")
	now := time.Now()

	_, ok := Fresh(p, time.Hour, now)
	assert.False(t, ok, "missing file is never fresh")

	require.NoError(t, os.WriteFile(p, []byte("[]"), 0o600))
	old := now.Add(-8 * 24 * time.Hour)
	require.NoError(t, os.Chtimes(p, old, old))

	_, ok = Fresh(p, 7*24*time.Hour, now)
	assert.False(t, ok, "eight day old file is stale")

	_, ok = Fresh(p, 9*24*time.Hour, now)
	assert.True(t, ok)

	_, ok = Fresh(p, 0, now)
	assert.True(t, ok, "zero ttl never expires")
}

func TestPurge(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	past := now.Add(-48 * time.Hour)

	oldFlag := filepath.Join(dir, "flag_my.png")
	newFlag := filepath.Join(dir, "flag_sg.png")
	oldOther := filepath.Join(dir, "thesis.docx")
	oldNested := filepath.Join(dir, "sub", "flag_th.png")
	require.NoError(t, os.MkdirAll(filepath.Dir(oldNested), 0o755))
	for _, p := range []string{oldFlag, newFlag, oldOther, oldNested} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o600))
	}
	for _, p := range []string{oldFlag, oldOther, oldNested} {
		require.NoError(t, os.Chtimes(p, past, past))
	}

	n, err := Purge(dir, "flag_*.png", 0, now)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.FileExists(t, oldFlag)

	n, err = Purge(dir, "flag_*.png", 24, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoFileExists(t, oldFlag)
	assert.FileExists(t, newFlag)
	assert.FileExists(t, oldOther, "non-matching files are kept")
	assert.FileExists(t, oldNested, "subdirectories are not walked")

	n, err = Purge(filepath.Join(dir, "missing"), "*", 24, now)
	assert.NoError(t, err)
	assert.Zero(t, n)

	_, err = Purge(dir, "[", 24, now)
	assert.Error(t, err)
}

func TestPurgeFile(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	p := filepath.Join(dir, "countries_cache.json")
	require.NoError(t, os.WriteFile(p, []byte("[]"), 0o600))

	n, err := PurgeFile(p, 24, now)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.FileExists(t, p)

	past := now.Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(p, past, past))
	n, err = PurgeFile(p, 24, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoFileExists(t, p)

	n, err = PurgeFile(p, 24, now)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = PurgeFile(dir, 1, now.Add(100*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n, "directories are never removed")
}

func TestUsage(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "flag_my.png"), []byte("12345"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "flag_sg.png"), []byte("123"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600))

	count, size, err := Usage(dir, "flag_*.png")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, int64(8), size)

	count, size, err = Usage(filepath.Join(dir, "missing"), "*")
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Zero(t, size)
}

func TestRemove(t *testing.T) {
	p := filepath.Join(t.TempDir(), "x.json")
	assert.NoError(t, Remove(p))
	require.NoError(t, os.WriteFile(p, nil, 0o600))
	assert.NoError(t, Remove(p))
	assert.NoFileExists(t, p)
}
