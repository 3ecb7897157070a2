// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package flagcache

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/locspoof/internal/config"
	"github.com/staranto/locspoof/internal/country"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\nfake")

// flagServer serves pngBytes for any path except /missing.png, counting hits
// per path.
func flagServer(t *testing.T) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngBytes)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	return New(config.Settings{
		ImageFolderPath: filepath.Join(t.TempDir(), "flags"),
		UserAgent:       "locspoof-test",
	})
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "flag_my.png", FileName("MY"))
	assert.Equal(t, "flag_sg.png", FileName(" sg "))
}

func TestEnsure_DownloadsOnce(t *testing.T) {
	srv, calls := flagServer(t)
	c := newTestCache(t)

	res := c.Ensure(context.Background(), "MY", srv.URL+"/my.png")
	require.NoError(t, res.Err)
	assert.True(t, res.Downloaded)
	assert.Equal(t, filepath.Join(c.Folder, "flag_my.png"), res.Path)

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)

	res = c.Ensure(context.Background(), "MY", srv.URL+"/my.png")
	require.NoError(t, res.Err)
	assert.False(t, res.Downloaded)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls), "existing file must not be downloaded again")
}

func TestEnsure_ExistingFileNoNetwork(t *testing.T) {
	srv, calls := flagServer(t)
	c := newTestCache(t)
	require.NoError(t, os.MkdirAll(c.Folder, 0o755))
	require.NoError(t, os.WriteFile(c.Path("sg"), []byte("already here"), 0o644))

	res := c.Ensure(context.Background(), "SG", srv.URL+"/sg.png")
	assert.NoError(t, res.Err)
	assert.False(t, res.Downloaded)
	assert.Zero(t, atomic.LoadInt32(calls))
}

func TestEnsure_Failures(t *testing.T) {
	srv, _ := flagServer(t)
	c := newTestCache(t)

	res := c.Ensure(context.Background(), "XX", srv.URL+"/missing.png")
	assert.ErrorIs(t, res.Err, ErrDownload)
	assert.False(t, res.Downloaded)
	assert.NoFileExists(t, c.Path("XX"))
	assert.Equal(t, DefaultImage, c.Resolve("XX"))

	res = c.Ensure(context.Background(), "YY", "")
	assert.ErrorIs(t, res.Err, ErrDownload)
}

func TestEnsure_RejectsBadCodes(t *testing.T) {
	srv, calls := flagServer(t)
	root := t.TempDir()
	c := New(config.Settings{ImageFolderPath: filepath.Join(root, "a", "flags")})

	for _, code := range []string{"../../../escaped", "a/b", "..", "MYS", ""} {
		t.Run(code, func(t *testing.T) {
			res := c.Ensure(context.Background(), code, srv.URL+"/x.png")
			assert.ErrorIs(t, res.Err, ErrBadCode)
			assert.False(t, res.Downloaded)
			assert.Empty(t, res.Path)
			assert.Equal(t, DefaultImage, c.Resolve(code))
		})
	}

	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
	assert.NoFileExists(t, filepath.Join(root, "escaped.png"))
	assert.NoFileExists(t, filepath.Join(root, "a", "escaped.png"))
}

func TestEnsureAll(t *testing.T) {
	srv, calls := flagServer(t)
	c := newTestCache(t)
	c.MaxConcurrent = 2

	entries := []country.Entry{
		{Name: "Malaysia", Code: "MY", ImageURL: srv.URL + "/my.png"},
		{Name: "Nowhere", Code: "NW", ImageURL: srv.URL + "/missing.png"},
		{Name: "Singapore", Code: "SG", ImageURL: srv.URL + "/sg.png"},
		{Name: "Thailand", Code: "TH", ImageURL: srv.URL + "/th.png"},
	}
	results := c.EnsureAll(context.Background(), entries)
	require.Len(t, results, len(entries))

	for i, r := range results {
		assert.Equal(t, entries[i].Code, r.Code, "results keep entry order")
	}
	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)
	assert.NoError(t, results[2].Err)
	assert.NoError(t, results[3].Err)
	assert.Equal(t, int32(4), atomic.LoadInt32(calls))

	assert.Equal(t, c.Path("MY"), c.Resolve("MY"))
	assert.Equal(t, DefaultImage, c.Resolve("NW"))

	count, size, err := c.Usage()
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, int64(3*len(pngBytes)), size)

	removed, err := c.Clear()
	require.NoError(t, err)
	assert.Equal(t, 3, removed)
	assert.Equal(t, DefaultImage, c.Resolve("MY"))
}

func TestEnsureFolder_Fallback(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("file, not dir"), 0o600))

	c := &Cache{
		Folder:    filepath.Join(blocker, "flags"),
		Fallbacks: []string{"", filepath.Join(root, "fallback")},
	}
	dir, err := c.EnsureFolder()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "fallback"), dir)
	assert.Equal(t, dir, c.Dir())
	assert.Equal(t, filepath.Join(dir, "flag_my.png"), c.Path("MY"))

	c = &Cache{Folder: filepath.Join(blocker, "flags")}
	_, err = c.EnsureFolder()
	assert.ErrorIs(t, err, ErrNoFolder)
}
