// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package security

import "strings"

// Pattern is one suspicious phrase with the category it belongs to.
// Matching is case-insensitive substring matching: cheap, predictable,
// and good enough for a policy signal that only demotes a query to the
// lowest-privilege responder.
type Pattern struct {
	Phrase   string
	Category string
}

// Pattern categories. The matched category is recorded with the security
// event so operators can see what kind of attempt was absorbed.
const (
	CategoryInstructionOverride = "instruction_override"
	CategoryRolePlay            = "role_play"
	CategoryCodeExecution       = "code_execution"
	CategoryMarkup              = "markup_scheme"
)

// DefaultPatterns covers instruction-override, role-play/jailbreak,
// code-execution, and URI-scheme/script phrasing in English and Portuguese.
func DefaultPatterns() []Pattern {
	return []Pattern{
		// Instruction override
		{"ignore previous instructions", CategoryInstructionOverride},
		{"ignore all previous", CategoryInstructionOverride},
		{"disregard your instructions", CategoryInstructionOverride},
		{"forget your instructions", CategoryInstructionOverride},
		{"new instructions:", CategoryInstructionOverride},
		{"system prompt", CategoryInstructionOverride},
		{"ignore as instruções anteriores", CategoryInstructionOverride},
		{"esqueça suas instruções", CategoryInstructionOverride},

		// Role play / jailbreak
		{"you are now", CategoryRolePlay},
		{"pretend to be", CategoryRolePlay},
		{"act as if", CategoryRolePlay},
		{"roleplay as", CategoryRolePlay},
		{"jailbreak", CategoryRolePlay},
		{"do anything now", CategoryRolePlay},
		{"você agora é", CategoryRolePlay},
		{"finja ser", CategoryRolePlay},

		// Code execution
		{"execute this code", CategoryCodeExecution},
		{"run this command", CategoryCodeExecution},
		{"eval(", CategoryCodeExecution},
		{"exec(", CategoryCodeExecution},
		{"import os", CategoryCodeExecution},
		{"subprocess", CategoryCodeExecution},
		{"execute este código", CategoryCodeExecution},

		// Markup / URI schemes
		{"<script", CategoryMarkup},
		{"javascript:", CategoryMarkup},
		{"data:text/html", CategoryMarkup},
		{"vbscript:", CategoryMarkup},
		{"onerror=", CategoryMarkup},
		{"onload=", CategoryMarkup},
	}
}

// InjectionDetector matches user text against a configured set of
// suspicious phrase patterns.
//
// Detection is a policy signal, not a hard reject: the router absorbs a
// matching query into the knowledge responder instead of refusing it.
type InjectionDetector struct {
	patterns []Pattern
}

// NewInjectionDetector creates a detector over the given patterns.
// Pass DefaultPatterns() unless a deployment overrides the list.
func NewInjectionDetector(patterns []Pattern) *InjectionDetector {
	return &InjectionDetector{patterns: patterns}
}

// Detect reports whether text matches any configured pattern, and if so
// the category of the first match. Matching is case-insensitive.
func (d *InjectionDetector) Detect(text string) (bool, string) {
	lower := strings.ToLower(text)
	for _, p := range d.patterns {
		if strings.Contains(lower, strings.ToLower(p.Phrase)) {
			return true, p.Category
		}
	}
	return false, ""
}
