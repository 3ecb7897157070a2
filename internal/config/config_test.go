// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestConfig sets LOCSPOOF_CFG to point to a test config file.
// Returns cleanup function that should be deferred.
func setupTestConfig(t *testing.T, testdataFile string) (cleanup func()) {
	t.Helper()

	// Get absolute path to testdata file
	configPath := filepath.Join("testdata", testdataFile)
	absPath, err := filepath.Abs(configPath)
	assert.NoError(t, err, "failed to get absolute path for test config")

	t.Setenv("LOCSPOOF_CFG", absPath)

	// Reset the global Config to force reload
	Config = Type{}

	return func() {
		Config = Type{}
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		testFile  string
		wantErr   bool
		checkFunc func(*testing.T, Type)
	}{
		{
			name:     "simple string values",
			testFile: "simple.yaml",
			checkFunc: func(t *testing.T, cfg Type) {
				assert.NotEmpty(t, cfg.Source)
				api, ok := cfg.Data["api"].(map[string]interface{})
				require.True(t, ok, "api should be a map")
				assert.Equal(t, "locspoof-test", api["user_agent"])
			},
		},
		{
			name:     "nested structure",
			testFile: "full.yaml",
			checkFunc: func(t *testing.T, cfg Type) {
				cache, ok := cfg.Data["cache"].(map[string]interface{})
				require.True(t, ok, "cache should be a map")
				assert.Equal(t, "24h", cache["ttl"])
				assert.Equal(t, 72, cache["clean"])
			},
		},
		{
			name:     "empty file",
			testFile: "empty.yaml",
			checkFunc: func(t *testing.T, cfg Type) {
				// Empty YAML unmarshals to nil map, which is acceptable
				assert.NotEmpty(t, cfg.Source, "should have a source path")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanup := setupTestConfig(t, tt.testFile)
			defer cleanup()

			cfg, err := Load()

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			if tt.checkFunc != nil {
				tt.checkFunc(t, cfg)
			}
		})
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	t.Setenv("LOCSPOOF_CFG", "/nonexistent/path/locspoof.yaml")
	Config = Type{}

	_, err := Load()
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestLoad_StandardLocations(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LOCSPOOF_CFG", "")
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("APPDATA", "")
	t.Setenv("HOME", dir)

	_, err := Load()
	assert.ErrorIs(t, err, ErrNotFound)

	src, err := filepath.Abs(filepath.Join("testdata", "simple.yaml"))
	require.NoError(t, err)
	cfg, err := Load(src)
	require.NoError(t, err)
	assert.Equal(t, src, cfg.Source)
}

func TestGetters(t *testing.T) {
	cleanup := setupTestConfig(t, "full.yaml")
	defer cleanup()
	_, err := Load()
	require.NoError(t, err)

	s, err := GetString("cache.file")
	require.NoError(t, err)
	assert.Equal(t, "/var/tmp/locspoof/countries.json", s)

	s, err = GetString("cache.missing", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", s)

	_, err = GetString("cache.missing")
	assert.Error(t, err)

	_, err = GetString("cache.clean")
	assert.Error(t, err, "int is not a string")

	n, err := GetInt("cache.clean")
	require.NoError(t, err)
	assert.Equal(t, 72, n)

	d, err := GetDuration("cache.ttl")
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, d)

	d, err = GetDuration("api.timeout")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, d)

	d, err = GetDuration("nope", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, d)

	l, err := GetStringSlice("list.asia")
	require.NoError(t, err)
	assert.Equal(t, []string{"--filter code^M", "--titles"}, l)

	l, err = GetStringSlice("cache.file")
	require.NoError(t, err)
	assert.Equal(t, []string{"/var/tmp/locspoof/countries.json"}, l)
}

func TestGet_Namespace(t *testing.T) {
	cleanup := setupTestConfig(t, "full.yaml")
	defer cleanup()
	cfg, err := Load()
	require.NoError(t, err)

	cfg.Namespace = "list"
	v, err := cfg.get("color")
	require.NoError(t, err)
	assert.Equal(t, true, v)

	// Falls back to the un-namespaced key.
	v, err = cfg.get("search.debounce")
	require.NoError(t, err)
	assert.Equal(t, "150ms", v)
}

func TestResolve(t *testing.T) {
	t.Run("from file", func(t *testing.T) {
		cleanup := setupTestConfig(t, "full.yaml")
		defer cleanup()
		cfg, err := Load()
		require.NoError(t, err)

		s, err := cfg.Resolve()
		require.NoError(t, err)
		assert.Equal(t, "/var/tmp/locspoof/countries.json", s.CacheFilePath)
		assert.Equal(t, "/var/tmp/locspoof/flags", s.ImageFolderPath)
		assert.Equal(t, []string{"/tmp/flags-a", "/tmp/flags-b"}, s.FallbackImageFolders)
		assert.Equal(t, 24*time.Hour, s.CacheTTL)
		assert.Equal(t, 72, s.CleanHours)
		assert.Equal(t, "https://countries.example.test/all", s.Endpoint)
		assert.Equal(t, DefaultUserAgent, s.UserAgent)
		assert.Equal(t, 5*time.Second, s.HTTPTimeout)
		assert.Equal(t, 8, s.MaxConcurrentDownloads)
		assert.Equal(t, 150*time.Millisecond, s.DebounceDelay)
	})

	t.Run("defaults", func(t *testing.T) {
		base := t.TempDir()
		t.Setenv("LOCSPOOF_CACHE_DIR", base)

		s, err := (&Type{}).Resolve()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(base, DefaultCacheFileName), s.CacheFilePath)
		assert.Equal(t, filepath.Join(base, DefaultImageDirName), s.ImageFolderPath)
		assert.Len(t, s.FallbackImageFolders, 1)
		assert.Equal(t, DefaultCacheTTL, s.CacheTTL)
		assert.Equal(t, DefaultEndpoint, s.Endpoint)
		assert.Equal(t, DefaultDebounceDelay, s.DebounceDelay)
		assert.Zero(t, s.MaxConcurrentDownloads)
	})

	t.Run("bad duration", func(t *testing.T) {
		cleanup := setupTestConfig(t, "bad-duration.yaml")
		defer cleanup()
		cfg, err := Load()
		require.NoError(t, err)

		_, err = cfg.Resolve()
		assert.ErrorContains(t, err, "cache.ttl")
	})
}

func TestSettings_Validate(t *testing.T) {
	good := Settings{
		CacheFilePath:   "/c.json",
		ImageFolderPath: "/flags",
		Endpoint:        DefaultEndpoint,
		CacheTTL:        time.Hour,
	}
	assert.NoError(t, good.Validate())

	bad := good
	bad.Endpoint = ""
	assert.Error(t, bad.Validate())

	bad = good
	bad.CacheTTL = -time.Second
	assert.Error(t, bad.Validate())

	bad = good
	bad.MaxConcurrentDownloads = -1
	assert.Error(t, bad.Validate())
}
