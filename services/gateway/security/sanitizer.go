// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package security provides input hardening for the gateway: HTML
// sanitization, prompt-injection detection, and the supported-language
// guard. All checks here are policy signals consumed by the router; none
// of them reject a request outright.
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer strips untrusted markup from user input before any other
// pipeline stage sees it.
//
// # Description
//
// Everything outside a small inline-formatting allow-list is stripped, and
// script/URI-scheme payloads are neutralized by the underlying bluemonday
// policy. Sanitize is total (never fails; worst case returns the empty
// string) and idempotent: Sanitize(Sanitize(x)) == Sanitize(x).
//
// # Thread Safety
//
// A bluemonday policy is safe for concurrent use once built, so a single
// Sanitizer may be shared across requests.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer builds a Sanitizer with the gateway allow-list: basic inline
// formatting tags, plus the class attribute on span and p.
func NewSanitizer() *Sanitizer {
	p := bluemonday.NewPolicy()
	p.AllowElements("b", "i", "u", "em", "strong", "p", "br", "span")
	p.AllowAttrs("class").OnElements("span", "p")
	return &Sanitizer{policy: p}
}

// Sanitize returns text with all disallowed markup removed.
func (s *Sanitizer) Sanitize(text string) string {
	if text == "" {
		return text
	}
	return strings.TrimSpace(s.policy.Sanitize(text))
}
