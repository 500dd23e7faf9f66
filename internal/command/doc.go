// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package command defines the CLI command set for showcase. It wires flags,
// validators, actions, and shell completion for subcommands, and composes the
// durable store, query cache, persistence controller and projects facade that
// every data command runs on.
package command
