// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/apex/log"

	"github.com/staranto/showcase/internal/cacheutil"
	"github.com/staranto/showcase/internal/command"
	"github.com/staranto/showcase/internal/config"
	mylog "github.com/staranto/showcase/internal/log"
	"github.com/staranto/showcase/internal/version"
)

var ctx = context.Background()

func main() {
	os.Exit(realMain())
}

func realMain() int {
	mylog.InitLogger()

	args := os.Args

	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "No command specified.")
		args = append(args, "--help")
	} else {
		args = mangleArguments(args)
	}

	// Short-circuit --version/-v.
	for _, a := range args {
		if a == "--version" || a == "-v" {
			fmt.Println(version.Version)
			return 0
		}
	}

	prepareCacheDir(os.Stderr)

	app, err := command.InitApp(ctx, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if err := app.Run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	return 0
}

// prepareCacheDir pre-creates the cache directory when caching is enabled. A
// failure is reported to w and is not fatal: the file store then simply
// misses.
func prepareCacheDir(w io.Writer) {
	if _, _, err := cacheutil.EnsureBaseDir(); err != nil {
		fmt.Fprintln(w, err)
	}
}

// mangleArguments expands an @set into the flags stored under
// <command>.<set> in the config file. Without an explicit @set the
// <command>.defaults set is used, if present. The expanded flags are inserted
// after the command path so a subcommand such as `cache show` keeps working.
func mangleArguments(args []string) []string {
	// Short-circuit for --help/-h. If help is requested, just keep the command
	// path and add --help flag.
	for _, a := range args {
		if a == "--help" || a == "-h" {
			return append(commandPath(args), "--help")
		}
	}

	path := commandPath(args)
	idx := len(path)
	rest := make([]string, 0, len(args)-idx)
	set := "defaults"
	explicit := false
	for _, a := range args[idx:] {
		if strings.HasPrefix(a, "@") && !explicit {
			set = a[1:]
			explicit = true
			continue
		}
		rest = append(rest, a)
	}

	var setArgs []string
	if raw, err := config.GetStringSlice(args[1] + "." + set); err == nil {
		for _, arg := range raw {
			setArgs = append(setArgs, strings.Fields(arg)...)
		}
	} else if explicit {
		log.WithError(err).Warnf("argument set @%s not found", set)
	}

	out := append(append(path, setArgs...), rest...)
	log.Debugf("set=%s, args=%v", set, out)
	return out
}

// commandPath returns the binary followed by every leading non-flag word.
func commandPath(args []string) []string {
	idx := 1
	for idx < len(args) && !strings.HasPrefix(args[idx], "-") && !strings.HasPrefix(args[idx], "@") {
		idx++
	}
	path := make([]string, idx)
	copy(path, args[:idx])
	return path
}
