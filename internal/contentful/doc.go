// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package contentful is a small read-only client for the Contentful content
// delivery API. It lists entries of one content type and resolves their asset
// links.
package contentful
