// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package projects is the data access facade over the query cache and the
// remote content source. Commands and the interactive view read projects
// only through a Service.
package projects
