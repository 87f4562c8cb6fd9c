// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package pageview

import "strings"

// RenderingQueue is the scheduler that admits page views to render.
type RenderingQueue interface {
	// IsHighestPriority reports whether v may keep rendering. A canvas
	// render pauses when it returns false.
	IsHighestPriority(v *PageView) bool

	// RenderStarted, RenderFinished and RenderCancelled report slot use.
	// RenderFinished is called for failed renders too.
	RenderStarted(v *PageView)
	RenderFinished(v *PageView)
	RenderCancelled(v *PageView)
}

// L10n resolves a user-facing string. fallback may contain {{name}}
// placeholders for args.
type L10n func(key string, args map[string]string, fallback string) string

// DefaultL10n substitutes args into fallback.
func DefaultL10n(_ string, args map[string]string, fallback string) string {
	if len(args) == 0 {
		return fallback
	}
	pairs := make([]string, 0, 2*len(args))
	for k, v := range args {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(fallback)
}
