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

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLanguageGuard_Supported(t *testing.T) {
	g := NewLanguageGuard()

	texts := []string{
		"How do I reset my password?",
		"Qual é o horário de funcionamento?",
		"Ação, coração, informações",
		"2 + 2",
		"sqrt(16) * pi",
		"Price is $19.99 (incl. tax)!",
		"",
	}
	for _, text := range texts {
		assert.Equal(t, LanguageSupported, g.Check(text), "expected supported: %q", text)
	}
}

func TestLanguageGuard_Unsupported(t *testing.T) {
	g := NewLanguageGuard()

	texts := []string{
		"こんにちは",
		"Привет, как дела?",
		"你好吗",
		"مرحبا",
		"Hello こんにちは mixed",
	}
	for _, text := range texts {
		assert.Equal(t, LanguageUnsupported, g.Check(text), "expected unsupported: %q", text)
	}
}
