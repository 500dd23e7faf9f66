// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package version holds the build version. It is overridden at link time:
//
//	go build -ldflags "-X github.com/staranto/showcase/internal/version.Version=v1.2.3"
package version

var Version = "dev"
