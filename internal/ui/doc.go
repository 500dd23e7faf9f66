// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package ui is the interactive card grid shown by the browse command.
package ui
