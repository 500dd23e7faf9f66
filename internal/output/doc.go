// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package output filters, transforms, sorts and renders project datasets as a
// text table, JSON, YAML or the raw cached form.
package output
