// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"os/exec"
	"time"

	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/staranto/showcase/internal/config"
	"github.com/staranto/showcase/internal/contentful"
	"github.com/staranto/showcase/internal/output"
	"github.com/staranto/showcase/internal/project"
)

func init() {
	cfg, _ = config.Load("")
}

var cfg config.Type

// The flags below are built per command so that every command owns its flag
// state.

func newExamplesFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:        "examples",
		Usage:       "show usage examples",
		HideDefault: true,
	}
}

func newSchemaFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:        "schema",
		Usage:       "dump the schema",
		HideDefault: true,
	}
}

func newTldrFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:        "tldr",
		Usage:       "show tldr page",
		Hidden:      !pathHas("tldr"),
		HideDefault: true,
	}
}

func newRefreshFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:        "refresh",
		Aliases:     []string{"r"},
		Usage:       "fetch from the CMS even when the cached projects are fresh",
		HideDefault: true,
	}
}

func newStrictFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:        "strict",
		Usage:       "fail instead of printing nothing when no projects can be fetched",
		HideDefault: true,
	}
}

func NewGlobalFlags(params ...string) (flags []cli.Flag) {
	flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "attrs",
			Aliases: []string{"a"},
			Usage:   "comma-separated list of attributes to include in results",
		},
		NewColorFlag(params[0]),
		&cli.StringFlag{
			Name:    "filter",
			Aliases: []string{"f"},
			Usage:   "comma-separated list of filters to apply to results",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(params[0]+"."+"output", altsrc.StringSourcer(cfg.Source)),
				yaml.YAML("output", altsrc.StringSourcer(cfg.Source)),
			),
			Value: "text",
			Validator: func(value string) error {
				return FlagValidators(value, OutputValidator)
			},
		},
		&cli.StringFlag{
			Name:    "sort",
			Aliases: []string{"s"},
			Usage:   "comma-separated list of attributes to sort the results by",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(params[0]+"."+"sort", altsrc.StringSourcer(cfg.Source)),
			),
		},
		&cli.BoolWithInverseFlag{
			Name:    "titles",
			Aliases: []string{"t"},
			Usage:   "show titles with text output",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(params[0]+"."+"titles", altsrc.StringSourcer(cfg.Source)),
				yaml.YAML("titles", altsrc.StringSourcer(cfg.Source)),
			),
			Value: false,
		},
	}

	return
}

// NewColorFlag defaults to color only when stdout is a terminal and NO_COLOR
// is unset.
func NewColorFlag(ns string) *cli.BoolWithInverseFlag {
	return &cli.BoolWithInverseFlag{
		Name:    "color",
		Aliases: []string{"c"},
		Usage:   "enable colored text output",
		Sources: cli.NewValueSourceChain(
			yaml.YAML(ns+"."+"color", altsrc.StringSourcer(cfg.Source)),
			yaml.YAML("color", altsrc.StringSourcer(cfg.Source)),
		),
		Value: output.ColorDefault(),
	}
}

// NewConnectionFlags returns the flags that select the CMS space and the
// durable store every data command runs against.
func NewConnectionFlags(ns string) []cli.Flag {
	return []cli.Flag{
		NewSpaceFlag(ns),
		NewEnvFlag(ns),
		NewContentTypeFlag(ns),
		NewStoreFlag(ns),
		NewBaseURLFlag(ns),
	}
}

func NewSpaceFlag(ns string) *cli.StringFlag {
	return NameSpacedValueChainFlagFromConfigFile(ns, cfg.Source, &cli.StringFlag{
		Name:  "space",
		Usage: "CMS space id",
		Sources: cli.NewValueSourceChain(
			cli.EnvVar("SHOWCASE_SPACE"),
			cli.EnvVar("CONTENTFUL_SPACE_ID"),
		),
		Validator: func(value string) error {
			return FlagValidators(value, JammedFlagValidator)
		},
	})
}

func NewEnvFlag(ns string) *cli.StringFlag {
	return NameSpacedValueChainFlagFromConfigFile(ns, cfg.Source, &cli.StringFlag{
		Name:    "env",
		Aliases: []string{"e"},
		Usage:   "CMS environment",
		Sources: cli.NewValueSourceChain(
			cli.EnvVar("SHOWCASE_ENV"),
			cli.EnvVar("CONTENTFUL_ENVIRONMENT"),
		),
		Value: contentful.DefaultEnvironment,
		Validator: func(value string) error {
			return FlagValidators(value, JammedFlagValidator)
		},
	})
}

func NewContentTypeFlag(ns string) *cli.StringFlag {
	return NameSpacedValueChainFlagFromConfigFile(ns, cfg.Source, &cli.StringFlag{
		Name:  "content-type",
		Usage: "content type the projects are stored under",
		Sources: cli.NewValueSourceChain(
			cli.EnvVar("SHOWCASE_CONTENT_TYPE"),
		),
		Value: project.ContentType,
	})
}

// NewStoreFlag selects the durable store. The config file keeps it under
// cache.store so it sits next to the store settings.
func NewStoreFlag(ns string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "store",
		Usage: "durable store for the project record (file, redis, s3, none)",
		Sources: cli.NewValueSourceChain(
			cli.EnvVar("SHOWCASE_STORE"),
			yaml.YAML(ns+".cache.store", altsrc.StringSourcer(cfg.Source)),
			yaml.YAML("cache.store", altsrc.StringSourcer(cfg.Source)),
		),
		Value: "file",
		Validator: func(value string) error {
			return FlagValidators(value, StoreValidator)
		},
	}
}

func NewBaseURLFlag(ns string) *cli.StringFlag {
	return NameSpacedValueChainFlagFromConfigFile(ns, cfg.Source, &cli.StringFlag{
		Name:   "base-url",
		Usage:  "CMS delivery API base URL",
		Hidden: true,
		Sources: cli.NewValueSourceChain(
			cli.EnvVar("SHOWCASE_BASE_URL"),
		),
		Value: contentful.DefaultBaseURL,
	})
}

// NewRecheckFlag sets how often browse checks for stale data.
func NewRecheckFlag(ns string) *cli.DurationFlag {
	return &cli.DurationFlag{
		Name:  "recheck",
		Usage: "how often to check for stale projects",
		Sources: cli.NewValueSourceChain(
			yaml.YAML(ns+".recheck", altsrc.StringSourcer(cfg.Source)),
		),
		Value: 30 * time.Second,
	}
}

// NameSpacedValueChainFlagFromConfigFile adds namespaced and global config file
// sources to the given flag's Sources chain.
func NameSpacedValueChainFlagFromConfigFile(ns string, path string, flag *cli.StringFlag) *cli.StringFlag {
	src := yaml.YAML(ns+"."+flag.Name, altsrc.StringSourcer(path))
	flag.Sources.Chain = append(flag.Sources.Chain, src)

	src = yaml.YAML(flag.Name, altsrc.StringSourcer(path))
	flag.Sources.Chain = append(flag.Sources.Chain, src)

	return flag
}

// pathHas checks if the given executable is on PATH.
func pathHas(target string) bool {
	_, err := exec.LookPath(target)
	return err == nil
}
