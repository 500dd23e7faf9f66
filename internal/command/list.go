// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"reflect"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/showcase/internal/meta"
	"github.com/staranto/showcase/internal/project"
	"github.com/staranto/showcase/internal/projects"
)

var listExamples = [][2]string{
	{"List the projects of a space", "showcase list --space abc123"},
	{"Only projects with an image, sorted by title descending", "showcase list -f img^https --sort=-title"},
	{"Projects still missing an image", "showcase list -f img="},
	{"Show the site host and image file name", "showcase list -a url::h,img::b"},
	{"JSON without the image column", "showcase list -o json -a '!img'"},
	{"Ignore the cached record", "showcase list --refresh"},
	{"Use the 'wide' argument set from showcase.yaml", "showcase list @wide"},
}

// ListCommandAction is the action handler for the "list" subcommand. It
// prints the projects, served from the cached record while it is fresh.
func ListCommandAction(ctx context.Context, cmd *cli.Command) error {
	runner := &QueryActionRunner[project.Project]{
		CommandName:  "list",
		SchemaType:   reflect.TypeOf(project.Project{}),
		Examples:     listExamples,
		DefaultAttrs: []string{"!id,title,url,img"},
		FetchFn:      fetchProjects,
	}
	return runner.Run(ctx, cmd)
}

// fetchProjects resolves the project list. A failed fetch with cached data
// still prints the cached data. A failed fetch without data prints a warning
// and an empty result, unless --strict.
func fetchProjects(ctx context.Context, cmd *cli.Command) ([]project.Project, error) {
	rt, err := NewRuntime(ctx, cmd)
	if err != nil {
		return nil, err
	}
	defer rt.Close()

	if err := rt.Connect(cmd); err != nil {
		return nil, err
	}

	var r projects.Result
	if cmd.Bool("refresh") {
		r = rt.Service.Refresh(ctx)
	} else {
		r = rt.Service.Wait(ctx)
	}
	log.Debugf("projects=%d updated=%s err=%v", len(r.Projects), r.UpdatedAt, r.Err)

	// r.Err already names the space, environment and content type.
	if r.Err != nil {
		if len(r.Projects) == 0 {
			if cmd.Bool("strict") {
				return nil, fmt.Errorf("list projects: %w", r.Err)
			}
			fmt.Fprintf(stderr(cmd), "warning: no projects available: %v\n", r.Err)
		} else {
			fmt.Fprintf(stderr(cmd), "warning: showing projects cached %s: %v\n",
				r.UpdatedAt.Format("2006-01-02 15:04:05"), r.Err)
		}
	}

	return r.Projects, nil
}

// ListCommandBuilder constructs the cli.Command for "list".
func ListCommandBuilder(meta meta.Meta) *cli.Command {
	return (&QueryCommandBuilder{
		Name:      "list",
		Aliases:   []string{"ls"},
		Usage:     "list projects",
		UsageText: "showcase list [@set] [options]",
		Flags: append(NewConnectionFlags("list"),
			newRefreshFlag(),
			newStrictFlag(),
		),
		Action: ListCommandAction,
		Meta:   meta,
	}).Build()
}
