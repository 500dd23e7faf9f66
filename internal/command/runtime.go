// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/showcase/internal/cache"
	"github.com/staranto/showcase/internal/cacheutil"
	"github.com/staranto/showcase/internal/config"
	"github.com/staranto/showcase/internal/contentful"
	"github.com/staranto/showcase/internal/metrics"
	"github.com/staranto/showcase/internal/persist"
	"github.com/staranto/showcase/internal/project"
	"github.com/staranto/showcase/internal/projects"
)

// Runtime is the object graph a data command runs on. NewRuntime builds the
// durable store, the query cache and the persistence controller; Connect adds
// the CMS client and the projects facade.
type Runtime struct {
	Store   cacheutil.Store
	Cache   *cache.Cache
	Persist *persist.Controller
	Metrics *metrics.Metrics
	Service *projects.Service

	space       string
	environment string
	contentType string
	detach      func()
}

// NewRuntime builds the local half of the runtime from the connection flags.
func NewRuntime(ctx context.Context, cmd *cli.Command) (*Runtime, error) {
	rt := &Runtime{
		space:       cmd.String("space"),
		environment: cmd.String("env"),
		contentType: cmd.String("content-type"),
	}
	if rt.space == "" {
		return nil, fmt.Errorf("%w (use --space, SHOWCASE_SPACE or space in %s)",
			contentful.ErrSpaceNotSet, config.FileName)
	}

	store, err := cacheutil.NewStore(ctx, storeConfig(cmd, rt.space, rt.environment))
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	log.Debugf("store: %s", store)

	rt.Store = store
	rt.Metrics = metrics.New()
	rt.Cache = cache.New(
		cache.WithStaleTime(project.TTL),
		cache.WithMetrics(rt.Metrics),
	)
	rt.Persist = persist.New(store, rt.Cache,
		persist.WithTTL(project.TTL),
		persist.WithMetrics(rt.Metrics),
	)

	return rt, nil
}

// Connect builds the CMS client, attaches the persistence controller to the
// query cache and hydrates it. It must run before the facade is read.
func (rt *Runtime) Connect(cmd *cli.Command) error {
	token, err := contentful.ResolveToken(setting("", "token"))
	if err != nil {
		return fmt.Errorf("%w (set CONTENTFUL_ACCESS_TOKEN or token in %s)", err, config.FileName)
	}

	rateLimit, _ := config.GetInt("rate_limit", contentful.DefaultRateLimit)
	pageSize, _ := config.GetInt("page_size", contentful.DefaultPageSize)

	client, err := contentful.NewClient(contentful.Config{
		BaseURL:     cmd.String("base-url"),
		SpaceID:     rt.space,
		Environment: rt.environment,
		Token:       token,
		PageSize:    pageSize,
		RateLimit:   float64(rateLimit),
		Burst:       rateLimit,
	})
	if err != nil {
		return err
	}
	log.Debugf("client: %s", client)

	rt.detach = rt.Persist.Attach()
	rt.Persist.Hydrate()
	rt.Service = projects.New(rt.Cache, client, projects.WithContentType(rt.contentType))

	return nil
}

// Close detaches the controller and releases the store.
func (rt *Runtime) Close() {
	if rt == nil {
		return
	}
	if rt.detach != nil {
		rt.detach()
	}
	if c, ok := rt.Store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			log.WithError(err).Warnf("failed to close %s", rt.Store)
		}
	}
}

// storeConfig assembles the store settings. The kind comes from --store, the
// connection details from the environment or the cache section of the config
// file. Records are namespaced by space and environment.
func storeConfig(cmd *cli.Command, space, environment string) cacheutil.StoreConfig {
	db, _ := config.GetInt("cache.redis.db", 0)
	return cacheutil.StoreConfig{
		Kind:          cmd.String("store"),
		Namespace:     []string{space, environment},
		RedisAddress:  setting("SHOWCASE_REDIS_ADDR", "cache.redis.address"),
		RedisPassword: setting("SHOWCASE_REDIS_PASSWORD", "cache.redis.password"),
		RedisDB:       db,
		S3Bucket:      setting("SHOWCASE_S3_BUCKET", "cache.s3.bucket"),
		S3Prefix:      setting("SHOWCASE_S3_PREFIX", "cache.s3.prefix"),
		S3Region:      setting("AWS_REGION", "cache.s3.region"),
		S3Profile:     setting("AWS_PROFILE", "cache.s3.profile"),
		S3Endpoint:    setting("SHOWCASE_S3_ENDPOINT", "cache.s3.endpoint"),
	}
}

// setting returns the environment variable when set, otherwise the config
// value at key.
func setting(env, key string) string {
	if env != "" {
		if v := os.Getenv(env); v != "" {
			return v
		}
	}
	v, _ := config.GetString(key, "")
	return v
}
