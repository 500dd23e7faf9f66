// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestConfig points SHOWCASE_CFG at a testdata file and resets the
// global Config so the next lookup reloads it.
func setupTestConfig(t *testing.T, testdataFile string, namespace string) {
	t.Helper()

	absPath, err := filepath.Abs(filepath.Join("testdata", testdataFile))
	require.NoError(t, err, "failed to get absolute path for test config")

	t.Setenv("SHOWCASE_CFG", absPath)
	Config = Type{Namespace: namespace}
	t.Cleanup(func() { Config = Type{} })
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		testFile  string
		checkFunc func(*testing.T, Type)
	}{
		{
			name:     "simple string values",
			testFile: "simple.yaml",
			checkFunc: func(t *testing.T, cfg Type) {
				assert.NotEmpty(t, cfg.Source)
				assert.Equal(t, "abc123", cfg.Data["space"])
				assert.Equal(t, "staging", cfg.Data["environment"])
			},
		},
		{
			name:     "nested structure",
			testFile: "nested.yaml",
			checkFunc: func(t *testing.T, cfg Type) {
				c, ok := cfg.Data["cache"].(map[string]interface{})
				require.True(t, ok, "cache should be a map")
				assert.Equal(t, "redis", c["store"])
			},
		},
		{
			name:     "mixed types",
			testFile: "mixed-types.yaml",
			checkFunc: func(t *testing.T, cfg Type) {
				assert.Equal(t, 1, cfg.Data["version"])
				assert.Equal(t, true, cfg.Data["enabled"])
				assert.Equal(t, 30.5, cfg.Data["timeout"])
				assert.Len(t, cfg.Data["tags"], 2)
			},
		},
		{
			name:     "empty file",
			testFile: "empty.yaml",
			checkFunc: func(t *testing.T, cfg Type) {
				assert.NotNil(t, cfg.Data)
				assert.Empty(t, cfg.Data)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupTestConfig(t, tt.testFile, "")
			cfg, err := Load()
			require.NoError(t, err)
			tt.checkFunc(t, cfg)
		})
	}
}

func TestLoad_ExplicitPath(t *testing.T) {
	t.Setenv("SHOWCASE_CFG", "")
	cfg, err := Load(filepath.Join("testdata", "simple.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "abc123", cfg.Data["space"])
	Config = Type{}
}

func TestLoad_NoConfigFile(t *testing.T) {
	t.Setenv("SHOWCASE_CFG", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestLoad_NoStandardLocation(t *testing.T) {
	empty := t.TempDir()
	t.Setenv("SHOWCASE_CFG", "")
	t.Setenv("XDG_CONFIG_HOME", empty)
	t.Setenv("APPDATA", "")
	t.Setenv("HOME", empty)
	_, err := Load()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoad_StandardLocation(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("space: xdg\n"), 0o600))
	t.Setenv("SHOWCASE_CFG", "")
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "xdg", cfg.Data["space"])
	Config = Type{}
}

func TestLoad_CfgIsDirectory(t *testing.T) {
	t.Setenv("SHOWCASE_CFG", "testdata")
	_, err := Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIsDirectory)
	assert.Contains(t, err.Error(), "points to a directory")
}

func TestGetString(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		defaults []string
		want     string
		wantErr  bool
	}{
		{name: "top level", key: "output", want: "text"},
		{name: "nested", key: "cache.redis.address", want: "localhost:6379"},
		{name: "missing with default", key: "nope", defaults: []string{"dflt"}, want: "dflt"},
		{name: "missing without default", key: "nope", wantErr: true},
		{name: "not a string", key: "padding", wantErr: true},
		{name: "path through a scalar", key: "output.deeper", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupTestConfig(t, "nested.yaml", "")
			got, err := GetString(tt.key, tt.defaults...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetInt(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		key      string
		defaults []int
		want     int
		wantErr  bool
	}{
		{name: "int", file: "nested.yaml", key: "cache.clean", want: 24},
		{name: "float truncates", file: "mixed-types.yaml", key: "timeout", want: 30},
		{name: "missing with default", file: "nested.yaml", key: "nope", defaults: []int{7}, want: 7},
		{name: "missing without default", file: "nested.yaml", key: "nope", wantErr: true},
		{name: "not an int", file: "nested.yaml", key: "output", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupTestConfig(t, tt.file, "")
			got, err := GetInt(tt.key, tt.defaults...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetBool(t *testing.T) {
	setupTestConfig(t, "mixed-types.yaml", "")

	got, err := GetBool("enabled")
	require.NoError(t, err)
	assert.True(t, got)

	got, err = GetBool("missing", true)
	require.NoError(t, err)
	assert.True(t, got)

	_, err = GetBool("name")
	assert.Error(t, err)
}

func TestGetDuration(t *testing.T) {
	setupTestConfig(t, "nested.yaml", "browse")

	got, err := GetDuration("refresh")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, got)

	got, err = GetDuration("missing", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, got)

	setupTestConfig(t, "mixed-types.yaml", "")
	_, err = GetDuration("refresh")
	assert.Error(t, err)
}

func TestGetStringSlice(t *testing.T) {
	setupTestConfig(t, "nested.yaml", "")

	got, err := GetStringSlice("list.defaults")
	require.NoError(t, err)
	assert.Equal(t, []string{"--sort title", "--titles"}, got)

	_, err = GetStringSlice("output")
	assert.Error(t, err)

	_, err = GetStringSlice("missing")
	assert.Error(t, err)
}

func TestConfig_GetWithNamespace(t *testing.T) {
	setupTestConfig(t, "nested.yaml", "list")

	// Namespaced key wins.
	got, err := GetString("output")
	require.NoError(t, err)
	assert.Equal(t, "json", got)

	// Falls back to the bare key.
	pad, err := GetInt("padding")
	require.NoError(t, err)
	assert.Equal(t, 1, pad)

	// Fully qualified keys still work.
	got, err = GetString("cache.store")
	require.NoError(t, err)
	assert.Equal(t, "redis", got)
}

func TestConfig_LazyLoad(t *testing.T) {
	setupTestConfig(t, "simple.yaml", "")
	assert.Empty(t, Config.Data)

	got, err := GetString("space")
	require.NoError(t, err)
	assert.Equal(t, "abc123", got)
	assert.NotEmpty(t, Config.Data)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("SHOWCASE_TEST_A=from-file\nSHOWCASE_TEST_B=from-file\n"), 0o600))

	t.Setenv("SHOWCASE_TEST_A", "from-env")
	t.Setenv("SHOWCASE_TEST_B", "")
	os.Unsetenv("SHOWCASE_TEST_B")
	t.Cleanup(func() { os.Unsetenv("SHOWCASE_TEST_B") })

	require.NoError(t, LoadDotEnv(envFile, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "from-env", os.Getenv("SHOWCASE_TEST_A"), "existing variables win")
	assert.Equal(t, "from-file", os.Getenv("SHOWCASE_TEST_B"))

	assert.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))
}
