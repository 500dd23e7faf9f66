// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"
	"github.com/yudai/gojsondiff"
	"github.com/yudai/gojsondiff/formatter"

	"github.com/staranto/showcase/internal/cacheutil"
	"github.com/staranto/showcase/internal/meta"
	"github.com/staranto/showcase/internal/project"
)

// CacheSummary describes the durable project record of one space.
type CacheSummary struct {
	Store    string `json:"store"`
	Count    int    `json:"count"`
	StoredAt string `json:"stored_at"`
	Age      string `json:"age"`
	State    string `json:"state"`
	Size     string `json:"size"`
}

var cacheShowExamples = [][2]string{
	{"Summarize the cached record", "showcase cache show --space abc123"},
	{"As JSON", "showcase cache show -o json"},
	{"Against the shared Redis store", "showcase cache show --store redis"},
}

// summarize builds the CacheSummary for rec. ok is false when nothing is
// stored.
func summarize(store cacheutil.Store, rec project.CacheRecord, ok bool, now time.Time) CacheSummary {
	s := CacheSummary{
		Store:    store.String(),
		StoredAt: "-",
		Age:      "-",
		State:    "absent",
		Size:     "-",
	}
	if !ok {
		return s
	}

	s.Count = len(rec.Data)
	s.StoredAt = rec.StoredTime().Format(time.RFC3339)
	s.Age = humanize.RelTime(rec.StoredTime(), now, "ago", "from now")
	s.State = "stale"
	if rec.Fresh(now, project.TTL) {
		s.State = "fresh"
	}
	if b, err := json.Marshal(rec.Data); err == nil {
		s.Size = humanize.Bytes(uint64(len(b)))
	}
	return s
}

// CacheShowCommandAction prints a summary of the durable record without
// touching the CMS.
func CacheShowCommandAction(ctx context.Context, cmd *cli.Command) error {
	runner := &QueryActionRunner[CacheSummary]{
		CommandName:  "cache",
		SchemaType:   reflect.TypeOf(CacheSummary{}),
		Examples:     cacheShowExamples,
		DefaultAttrs: []string{"store,count,stored_at,age,state,size"},
		FetchFn: func(ctx context.Context, cmd *cli.Command) ([]CacheSummary, error) {
			rt, err := NewRuntime(ctx, cmd)
			if err != nil {
				return nil, err
			}
			defer rt.Close()

			rec, ok, err := rt.Persist.Record()
			if err != nil {
				return nil, fmt.Errorf("failed to read cached record: %w", err)
			}
			return []CacheSummary{summarize(rt.Store, rec, ok, time.Now())}, nil
		},
	}
	return runner.Run(ctx, cmd)
}

// CachePurgeCommandAction deletes the durable record. For the file store,
// cache files older than --older-than hours are removed as well.
func CachePurgeCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])

	rt, err := NewRuntime(ctx, cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.Persist.Purge(); err != nil {
		return err
	}
	fmt.Fprintf(stdout(cmd), "purged %s\n", rt.Store)

	if fs, ok := rt.Store.(*cacheutil.FileStore); ok {
		if err := fs.Purge(cmd.Int("older-than")); err != nil {
			return err
		}
	}

	return nil
}

// CacheDiffCommandAction compares the durable record with a live fetch and
// prints the changes. The live result replaces the record.
func CacheDiffCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])

	rt, err := NewRuntime(ctx, cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	// Read before Connect: hydration deletes a stale record.
	rec, _, err := rt.Persist.Record()
	if err != nil {
		log.WithError(err).Warn("cached record unreadable, diffing against nothing")
	}

	if err := rt.Connect(cmd); err != nil {
		return err
	}

	r := rt.Service.Refresh(ctx)
	if r.Err != nil {
		return fmt.Errorf("fetch projects: %w", r.Err)
	}

	out, changed, err := diffProjects(rec.Data, r.Projects, cmd.String("output"), cmd.Bool("color"))
	if err != nil {
		return err
	}
	if !changed {
		fmt.Fprintln(stdout(cmd), "no differences")
		return nil
	}
	fmt.Fprint(stdout(cmd), out)

	return nil
}

// diffProjects diffs two project lists keyed by project id, so reordering is
// not reported as a change. format is text (annotated JSON) or json (delta).
func diffProjects(before, after []project.Project, format string, color bool) (string, bool, error) {
	left, right := keyed(before), keyed(after)

	d := gojsondiff.New().CompareObjects(left, right)
	if !d.Modified() {
		return "", false, nil
	}

	var (
		out string
		err error
	)
	switch format {
	case "json":
		out, err = formatter.NewDeltaFormatter().Format(d)
	default:
		out, err = formatter.NewAsciiFormatter(left, formatter.AsciiFormatterConfig{
			ShowArrayIndex: true,
			Coloring:       color,
		}).Format(d)
	}
	if err != nil {
		return "", true, fmt.Errorf("failed to format diff: %w", err)
	}

	return out, true, nil
}

// keyed converts projects into generic JSON values indexed by id.
func keyed(ps []project.Project) map[string]interface{} {
	m := make(map[string]interface{}, len(ps))
	for _, p := range ps {
		m[p.ID] = map[string]interface{}{
			"title": p.Title,
			"url":   p.URL,
			"img":   p.Img,
		}
	}
	return m
}

// CacheCommandBuilder constructs the cli.Command for "cache" and its
// subcommands.
func CacheCommandBuilder(meta meta.Meta) *cli.Command {
	md := map[string]any{
		"meta": meta,
	}

	show := (&QueryCommandBuilder{
		Name:      "show",
		Usage:     "summarize the cached project record",
		UsageText: "showcase cache show [options]",
		Flags:     NewConnectionFlags("cache"),
		Action:    CacheShowCommandAction,
		Meta:      meta,
	}).Build()

	purge := &cli.Command{
		Name:      "purge",
		Usage:     "delete the cached project record",
		UsageText: "showcase cache purge [options]",
		Metadata:  md,
		Flags: append(NewConnectionFlags("cache"),
			&cli.IntFlag{
				Name:  "older-than",
				Usage: "also remove file store entries older than this many hours (0 keeps them)",
				Sources: cli.NewValueSourceChain(
					yaml.YAML("cache.clean", altsrc.StringSourcer(cfg.Source)),
				),
			},
		),
		Action: CachePurgeCommandAction,
	}

	diff := &cli.Command{
		Name:      "diff",
		Usage:     "compare the cached project record with the CMS",
		UsageText: "showcase cache diff [options]",
		Metadata:  md,
		Flags: append(NewConnectionFlags("cache"),
			NewColorFlag("cache"),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "diff format (text or json)",
				Value:   "text",
				Validator: func(value string) error {
					return FlagValidators(value, DiffOutputValidator)
				},
			},
		),
		Action: CacheDiffCommandAction,
	}

	return &cli.Command{
		Name:     "cache",
		Usage:    "inspect the cached project record",
		Metadata: md,
		Commands: []*cli.Command{show, purge, diff},
	}
}
