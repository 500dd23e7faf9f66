// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package project holds the application-facing Project record, the durable
// cache record shape, and the transform from CMS entries to projects.
package project
