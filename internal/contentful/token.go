// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package contentful

import (
	"os"
)

// ResolveToken returns the delivery API token. The precedence is:
//  1. CONTENTFUL_ACCESS_TOKEN
//  2. SHOWCASE_TOKEN
//  3. token from the config file
func ResolveToken(cfgToken string) (string, error) {
	for _, env := range []string{"CONTENTFUL_ACCESS_TOKEN", "SHOWCASE_TOKEN"} {
		if token := os.Getenv(env); token != "" {
			return token, nil
		}
	}

	if cfgToken != "" {
		return cfgToken, nil
	}

	return "", ErrTokenNotSet
}
