// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cacheutil

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnknownStore is returned by NewStore for an unsupported kind.
var ErrUnknownStore = errors.New("unknown cache store")

// Store is the durable key-value collaborator the persistence controller
// writes through. Get reports a missing key with ok == false and a nil error.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Delete(keys ...string) error
	String() string
}

// StoreConfig selects and configures a Store.
type StoreConfig struct {
	// Kind is one of file (default), redis, s3 or none.
	Kind string
	// Namespace separates records of different spaces/environments.
	Namespace []string

	RedisAddress  string
	RedisPassword string
	RedisDB       int

	S3Bucket   string
	S3Prefix   string
	S3Region   string
	S3Profile  string
	S3Endpoint string
}

// NewStore builds the Store described by cfg.
func NewStore(ctx context.Context, cfg StoreConfig) (Store, error) {
	switch strings.ToLower(cfg.Kind) {
	case "", "file":
		return NewFileStore(cfg.Namespace...), nil
	case "redis":
		s, err := NewRedisStore(ctx, RedisConfig{
			Address:  cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   redisPrefix(cfg.Namespace),
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case "s3":
		s, err := NewS3Store(ctx, S3Config{
			Bucket:   cfg.S3Bucket,
			Prefix:   s3Prefix(cfg.S3Prefix, cfg.Namespace),
			Region:   cfg.S3Region,
			Profile:  cfg.S3Profile,
			Endpoint: cfg.S3Endpoint,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case "none", "off":
		return NopStore{}, nil
	}
	return nil, fmt.Errorf("%w: %q (want file, redis, s3 or none)", ErrUnknownStore, cfg.Kind)
}

// Dir resolves the base cache directory.
// Precedence:
//  1. SHOWCASE_CACHE_DIR, if set and non-empty
//  2. os.UserCacheDir()/showcase
//
// Returns ("", false) if a base cannot be resolved (treat as disabled).
func Dir() (string, bool) {
	if c, ok := os.LookupEnv("SHOWCASE_CACHE_DIR"); ok && c != "" {
		return c, true
	}
	if dir, err := os.UserCacheDir(); err == nil && dir != "" {
		return filepath.Join(dir, "showcase"), true
	}
	return "", false
}

// Enabled returns true unless SHOWCASE_CACHE explicitly disables it ("0"/"false").
func Enabled() bool {
	enabled, _ := os.LookupEnv("SHOWCASE_CACHE")
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

// encodeKey hashes k with MD5 and returns the hex string.
func encodeKey(k string) string {
	h := md5.New()
	_, _ = h.Write([]byte(k))
	return hex.EncodeToString(h.Sum(nil))
}

func redisPrefix(ns []string) string {
	return strings.Join(append([]string{"showcase"}, ns...), ":") + ":"
}

func s3Prefix(base string, ns []string) string {
	parts := []string{}
	if b := strings.Trim(base, "/"); b != "" {
		parts = append(parts, b)
	}
	return strings.Join(append(parts, ns...), "/")
}

// NopStore never holds anything. It backs --store=none.
type NopStore struct{}

func (NopStore) Get(string) (string, bool, error) { return "", false, nil }
func (NopStore) Set(string, string) error         { return nil }
func (NopStore) Delete(...string) error           { return nil }
func (NopStore) String() string                   { return "none" }
