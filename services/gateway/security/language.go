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

import "unicode"

// LanguageResult is the outcome of the language guard.
type LanguageResult int

const (
	// LanguageSupported means the text is Latin-script (plus digits,
	// punctuation, and math symbols) and may proceed to classification.
	LanguageSupported LanguageResult = iota

	// LanguageUnsupported is authoritative: the router must yield the
	// terminal UnsupportedLanguage decision regardless of content.
	LanguageUnsupported
)

// LanguageGuard restricts accepted input to the configured natural
// languages (English and Portuguese) by script.
//
// The check is script-based rather than a language model: any letter
// outside Latin script marks the whole text unsupported. Digits,
// whitespace, punctuation, and mathematical symbols are always accepted,
// so purely symbolic input like "2 + 2" passes.
type LanguageGuard struct{}

// NewLanguageGuard returns a guard for the gateway's language policy.
func NewLanguageGuard() *LanguageGuard {
	return &LanguageGuard{}
}

// Check classifies text as Supported or Unsupported.
//
// Empty text is Supported here; emptiness is a validation concern handled
// before the pipeline runs.
func (g *LanguageGuard) Check(text string) LanguageResult {
	for _, r := range text {
		switch {
		case unicode.IsLetter(r):
			if !unicode.Is(unicode.Latin, r) {
				return LanguageUnsupported
			}
		case unicode.IsDigit(r), unicode.IsSpace(r):
			// always fine
		case unicode.IsPunct(r), unicode.IsSymbol(r):
			// covers math operators, currency, quotes
		case unicode.IsMark(r):
			// combining diacritics, e.g. decomposed "ç" or "ã"
		case unicode.IsControl(r):
			// stripped by the sanitizer in practice; tolerated here
		default:
			// unassigned, private use: not a supported script
			return LanguageUnsupported
		}
	}
	return LanguageSupported
}
